package tasks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/qms/project"
)

func newTestGenerator(t *testing.T) (*Generator, *project.Project) {
	t.Helper()
	p := project.At(t.TempDir())
	g, err := NewGenerator(p)
	require.NoError(t, err)
	return g, p
}

func TestTaskID(t *testing.T) {
	assert.Equal(t, "task-SOP-001-review-v0-1", TaskID("SOP-001", "REVIEW", "0.1"))
	assert.Equal(t, "task-CR-028-pre_approval-v1-0", TaskID("CR-028", "PRE_APPROVAL", "1.0"))
	assert.Equal(t, "task-CR-028-TP-001-post_review-v2-3", TaskID("CR-028-TP-001", "POST_REVIEW", "2.3"))
}

func TestGenerate_WritesOneTaskPerAssignee(t *testing.T) {
	g, p := newTestGenerator(t)

	err := g.Generate(TaskReview, "SOP-001", "SOP", "0.1", "REVIEW", "alice", []string{"qa", "bob"})
	require.NoError(t, err)

	for _, user := range []string{"qa", "bob"} {
		path := filepath.Join(p.InboxPath(user), "task-SOP-001-review-v0-1.md")
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		content := string(data)
		assert.Contains(t, content, "doc_id: SOP-001")
		assert.Contains(t, content, "assigned_by: alice")
		assert.Contains(t, content, "workflow_type: REVIEW")
		assert.Contains(t, content, "qms --user "+user+" review SOP-001")
	}
}

func TestGenerate_ApprovalTask(t *testing.T) {
	g, p := newTestGenerator(t)

	err := g.Generate(TaskApproval, "SOP-001", "SOP", "0.1", "APPROVAL", "alice", []string{"qa"})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(p.InboxPath("qa"), "task-SOP-001-approval-v0-1.md"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "task_type: APPROVAL")
	assert.Contains(t, content, "approve SOP-001")
	assert.Contains(t, content, "reject SOP-001")
}

func TestGenerate_SameVersionOverwrites(t *testing.T) {
	g, p := newTestGenerator(t)

	require.NoError(t, g.Generate(TaskReview, "SOP-001", "SOP", "0.1", "REVIEW", "alice", []string{"qa"}))
	require.NoError(t, g.Generate(TaskReview, "SOP-001", "SOP", "0.1", "REVIEW", "alice", []string{"qa"}))

	entries, err := os.ReadDir(p.InboxPath("qa"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "re-routing the same version reuses the task file")
}

func TestDeleteUserTasks(t *testing.T) {
	g, _ := newTestGenerator(t)

	require.NoError(t, g.Generate(TaskReview, "SOP-001", "SOP", "0.1", "REVIEW", "alice", []string{"qa"}))
	require.NoError(t, g.Generate(TaskReview, "SOP-002", "SOP", "0.1", "REVIEW", "alice", []string{"qa"}))

	n, err := g.DeleteUserTasks("qa", "SOP-001")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = g.DeleteUserTasks("qa", "SOP-001")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteApprovalTasks_SweepsAllInboxes(t *testing.T) {
	g, p := newTestGenerator(t)

	require.NoError(t, g.Generate(TaskApproval, "SOP-001", "SOP", "0.1", "APPROVAL", "alice", []string{"qa", "bob"}))
	require.NoError(t, g.Generate(TaskReview, "SOP-001", "SOP", "0.1", "REVIEW", "alice", []string{"qa"}))

	n, err := g.DeleteApprovalTasks("SOP-001")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "approval tasks removed from every inbox")

	entries, err := os.ReadDir(p.InboxPath("qa"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "review task survives the approval sweep")
}

func TestDeleteAllTasks(t *testing.T) {
	g, p := newTestGenerator(t)

	require.NoError(t, g.Generate(TaskReview, "SOP-001", "SOP", "0.1", "REVIEW", "alice", []string{"qa", "bob"}))
	require.NoError(t, g.Generate(TaskApproval, "SOP-001", "SOP", "0.1", "APPROVAL", "alice", []string{"qa"}))

	n, err := g.DeleteAllTasks("SOP-001")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	entries, err := os.ReadDir(p.InboxPath("qa"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPromptRegistry_Fallback(t *testing.T) {
	r := NewPromptRegistry()

	specific := r.Config(TaskReview, "REVIEW", "SOP")
	generic := r.Config(TaskReview, "REVIEW", "INV")
	assert.NotEqual(t, len(specific.ChecklistItems), 0)
	assert.NotEqual(t, specific.ChecklistItems, generic.ChecklistItems,
		"SOP reviews carry their own checklist")

	approval := r.Config(TaskApproval, "PRE_APPROVAL", "CR")
	assert.NotEmpty(t, approval.ChecklistItems)
}

func TestPromptRegistry_LoadOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "review", "post_review"), 0755))

	override := `checklist_items:
  - category: Custom
    item: Execution evidence attached
critical_reminders:
  - One failed item means reject
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "review", "post_review", "inv.yaml"), []byte(override), 0644))

	r := NewPromptRegistry()
	require.NoError(t, r.LoadOverrides(dir))

	cfg := r.Config(TaskReview, "POST_REVIEW", "INV")
	require.Len(t, cfg.ChecklistItems, 1)
	assert.Equal(t, "Execution evidence attached", cfg.ChecklistItems[0].Item)
	assert.Equal(t, []string{"One failed item means reject"}, cfg.CriticalReminders)
}

func TestPromptRegistry_LoadOverrides_MissingDir(t *testing.T) {
	r := NewPromptRegistry()
	require.NoError(t, r.LoadOverrides(filepath.Join(t.TempDir(), "absent")))
}

func TestRenderReview_ContainsResponseFormat(t *testing.T) {
	r := NewPromptRegistry()
	out := r.RenderReview(RenderContext{
		DocID: "SOP-001", DocType: "SOP", Version: "0.1",
		WorkflowType: "REVIEW", Assignee: "qa", AssignedBy: "alice",
		TaskID: TaskID("SOP-001", "REVIEW", "0.1"),
	})

	assert.Contains(t, out, "task_id: task-SOP-001-review-v0-1")
	assert.Contains(t, out, "--recommend")
	assert.Contains(t, out, "--request-updates")
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "FAIL")
}
