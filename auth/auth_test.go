package auth

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/qms/meta"
	"github.com/c360studio/qms/project"
)

func newTestProject(t *testing.T) *project.Project {
	t.Helper()
	return project.At(t.TempDir())
}

func writeAgent(t *testing.T, p *project.Project, user, group string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(p.AgentsRoot(), 0755))
	content := "---\nname: " + user + "\ngroup: " + group + "\ndescription: test agent\n---\n\n# " + user + "\n"
	require.NoError(t, os.WriteFile(p.AgentPath(user), []byte(content), 0644))
}

func TestGroupHierarchy(t *testing.T) {
	assert.True(t, GroupAdministrator.AtLeast(GroupReviewer))
	assert.True(t, GroupInitiator.AtLeast(GroupQuality))
	assert.True(t, GroupQuality.AtLeast(GroupReviewer))
	assert.False(t, GroupReviewer.AtLeast(GroupQuality))
	assert.False(t, GroupQuality.AtLeast(GroupInitiator))

	assert.True(t, GroupQuality.Valid())
	assert.False(t, Group("superuser").Valid())
}

func TestResolveGroup(t *testing.T) {
	p := newTestProject(t)
	writeAgent(t, p, "qa", "quality")

	g, err := ResolveGroup(p, "qa")
	require.NoError(t, err)
	assert.Equal(t, GroupQuality, g)

	g, err = ResolveGroup(p, "lead")
	require.NoError(t, err)
	assert.Equal(t, GroupAdministrator, g, "hardcoded admins need no agent file")

	_, err = ResolveGroup(p, "ghost")
	assert.ErrorIs(t, err, ErrUnknownUser)

	_, err = ResolveGroup(p, "")
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestResolveGroup_InvalidAgentFile(t *testing.T) {
	p := newTestProject(t)
	writeAgent(t, p, "weird", "superuser")

	_, err := ResolveGroup(p, "weird")
	assert.ErrorIs(t, err, ErrInvalidAgentGroup)

	require.NoError(t, os.WriteFile(p.AgentPath("bare"), []byte("# no frontmatter\n"), 0644))
	_, err = ResolveGroup(p, "bare")
	assert.ErrorIs(t, err, ErrInvalidAgentGroup)
}

func TestKnownUser(t *testing.T) {
	p := newTestProject(t)
	writeAgent(t, p, "qa", "quality")

	assert.True(t, KnownUser(p, "qa"))
	assert.True(t, KnownUser(p, "claude"))
	assert.False(t, KnownUser(p, "ghost"))
}

func TestCheckCommand(t *testing.T) {
	tests := []struct {
		name    string
		group   Group
		command string
		allowed bool
	}{
		{"initiator creates", GroupInitiator, "create", true},
		{"quality cannot create", GroupQuality, "create", false},
		{"reviewer reads", GroupReviewer, "read", true},
		{"reviewer cannot route", GroupReviewer, "route", false},
		{"quality assigns", GroupQuality, "assign", true},
		{"initiator cannot assign", GroupInitiator, "assign", false},
		{"initiator cannot approve", GroupInitiator, "approve", false},
		{"initiator cannot reject", GroupInitiator, "reject", false},
		{"reviewer approves", GroupReviewer, "approve", true},
		{"quality reviews", GroupQuality, "review", true},
		{"initiator reviews", GroupInitiator, "review", true},
		{"quality cannot migrate", GroupQuality, "migrate", false},
		{"admin does anything", GroupAdministrator, "fix", true},
		{"admin approves", GroupAdministrator, "approve", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCommand("tester", tt.group, tt.command)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrPermissionDenied)
			}
		})
	}
}

func TestCheckCommand_UnknownCommand(t *testing.T) {
	err := CheckCommand("tester", GroupAdministrator, "frobnicate")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCheckOwner(t *testing.T) {
	m := &meta.Meta{DocID: "SOP-001", ResponsibleUser: "alice"}
	assert.NoError(t, CheckOwner("alice", m))
	assert.ErrorIs(t, CheckOwner("bob", m), ErrOwnershipDenied)

	unowned := &meta.Meta{DocID: "SOP-002"}
	assert.NoError(t, CheckOwner("bob", unowned))
}

func TestCheckAssigned(t *testing.T) {
	m := &meta.Meta{DocID: "SOP-001", PendingAssignees: []string{"qa", "bob"}}
	assert.NoError(t, CheckAssigned("qa", m))
	assert.ErrorIs(t, CheckAssigned("alice", m), ErrNotAssigned)
}

func TestVerifyFolderAccess(t *testing.T) {
	assert.NoError(t, VerifyFolderAccess("alice", "alice"))
	assert.ErrorIs(t, VerifyFolderAccess("alice", "bob"), ErrFolderAccess)
}
