package audit

import (
	"os"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/qms/project"
	"github.com/c360studio/qms/workflow"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	return NewLog(project.At(t.TempDir()))
}

func TestNewEvent_TimestampFormat(t *testing.T) {
	e := NewEvent(EventCreate, "alice", "0.1")
	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`), e.TS)
	assert.Equal(t, EventCreate, e.Event)
	assert.Equal(t, "alice", e.User)
	assert.Equal(t, "0.1", e.Version)
}

func TestAppendAndRead(t *testing.T) {
	l := newTestLog(t)

	create := NewEvent(EventCreate, "alice", "0.1")
	create.Title = "Document Control"
	require.NoError(t, l.Append("SOP-001", create))

	route := NewEvent(EventRouteReview, "alice", "0.1")
	route.Assignees = []string{"qa"}
	route.ReviewType = "REVIEW"
	require.NoError(t, l.Append("SOP-001", route))

	events, err := l.Read("SOP-001")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventCreate, events[0].Event)
	assert.Equal(t, "Document Control", events[0].Title)
	assert.Equal(t, []string{"qa"}, events[1].Assignees)
}

func TestRead_MissingFile(t *testing.T) {
	l := newTestLog(t)
	events, err := l.Read("SOP-001")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRead_SkipsMalformedLines(t *testing.T) {
	p := project.At(t.TempDir())
	l := NewLog(p)
	require.NoError(t, l.Append("SOP-001", NewEvent(EventCreate, "alice", "0.1")))

	path, err := p.AuditPath("SOP-001")
	require.NoError(t, err)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("{truncated\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, l.Append("SOP-001", NewEvent(EventCheckin, "alice", "0.1")))

	events, err := l.Read("SOP-001")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventCheckin, events[1].Event)
}

func TestComments(t *testing.T) {
	l := newTestLog(t)

	review := NewEvent(EventReview, "qa", "0.1")
	review.Outcome = string(workflow.OutcomeRecommend)
	review.Comment = "Looks complete"
	require.NoError(t, l.Append("SOP-001", review))

	reject := NewEvent(EventReject, "qa", "0.1")
	reject.Comment = "Section 3 missing"
	require.NoError(t, l.Append("SOP-001", reject))

	noComment := NewEvent(EventReview, "bob", "1.1")
	noComment.Outcome = string(workflow.OutcomeRecommend)
	require.NoError(t, l.Append("SOP-001", noComment))

	require.NoError(t, l.Append("SOP-001", NewEvent(EventCheckin, "alice", "0.1")))

	all, err := l.Comments("SOP-001", "")
	require.NoError(t, err)
	assert.Len(t, all, 2, "only commented review and reject events surface")

	v01, err := l.Comments("SOP-001", "0.1")
	require.NoError(t, err)
	assert.Len(t, v01, 2)

	v11, err := l.Comments("SOP-001", "1.1")
	require.NoError(t, err)
	assert.Empty(t, v11)
}

func TestGateOpen(t *testing.T) {
	route := func(version string) Event {
		e := NewEvent(EventRouteReview, "alice", version)
		e.Assignees = []string{"qa"}
		return e
	}
	review := func(user, version, outcome string) Event {
		e := NewEvent(EventReview, user, version)
		e.Outcome = outcome
		return e
	}

	t.Run("all recommend", func(t *testing.T) {
		open, _ := GateOpen([]Event{
			route("0.1"),
			review("qa", "0.1", string(workflow.OutcomeRecommend)),
			review("bob", "0.1", string(workflow.OutcomeRecommend)),
		}, "0.1")
		assert.True(t, open)
	})

	t.Run("updates required closes the gate", func(t *testing.T) {
		open, reason := GateOpen([]Event{
			route("0.1"),
			review("qa", "0.1", string(workflow.OutcomeUpdatesRequired)),
		}, "0.1")
		assert.False(t, open)
		assert.Contains(t, reason, "qa")
	})

	t.Run("no review cycle", func(t *testing.T) {
		open, _ := GateOpen(nil, "0.1")
		assert.False(t, open)
	})

	t.Run("route without outcomes", func(t *testing.T) {
		open, _ := GateOpen([]Event{route("0.1")}, "0.1")
		assert.False(t, open)
	})

	t.Run("later cycle supersedes earlier failure", func(t *testing.T) {
		open, _ := GateOpen([]Event{
			route("0.1"),
			review("qa", "0.1", string(workflow.OutcomeUpdatesRequired)),
			route("0.1"),
			review("qa", "0.1", string(workflow.OutcomeRecommend)),
		}, "0.1")
		assert.True(t, open)
	})

	t.Run("other version outcomes ignored", func(t *testing.T) {
		open, _ := GateOpen([]Event{
			route("1.1"),
			review("qa", "0.1", string(workflow.OutcomeUpdatesRequired)),
			review("qa", "1.1", string(workflow.OutcomeRecommend)),
		}, "1.1")
		assert.True(t, open)
	})
}

func TestFormatHistory(t *testing.T) {
	create := NewEvent(EventCreate, "alice", "0.1")
	create.Title = "Document Control"
	sc := NewEvent(EventStatusChange, "alice", "0.1")
	sc.FromStatus = "DRAFT"
	sc.ToStatus = "IN_REVIEW"

	out := FormatHistory("SOP-001", []Event{create, sc})
	assert.Contains(t, out, "CREATE by alice - v0.1")
	assert.Contains(t, out, `"Document Control"`)
	assert.Contains(t, out, "DRAFT -> IN_REVIEW")
}

func TestFormatComments(t *testing.T) {
	review := NewEvent(EventReview, "qa", "0.1")
	review.Outcome = string(workflow.OutcomeRecommend)
	review.Comment = "Looks complete"

	out := FormatComments("SOP-001", []Event{review})
	assert.Contains(t, out, "[v0.1] qa (RECOMMEND)")
	assert.Contains(t, out, "Looks complete")

	empty := FormatComments("SOP-001", nil)
	assert.Contains(t, empty, "(no comments)")
}

func TestDelete(t *testing.T) {
	l := newTestLog(t)
	require.NoError(t, l.Append("SOP-001", NewEvent(EventCreate, "alice", "0.1")))
	require.NoError(t, l.Delete("SOP-001"))

	events, err := l.Read("SOP-001")
	require.NoError(t, err)
	assert.Empty(t, events)

	require.NoError(t, l.Delete("SOP-001"))
}
