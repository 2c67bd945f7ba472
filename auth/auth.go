// Package auth resolves user identities to groups and enforces the
// per-command permission table. Two administrators are built into the
// binary; everyone else is defined by an agent file under
// .claude/agents/<user>.md whose frontmatter names their group.
package auth

import (
	"errors"
	"fmt"
	"os"

	"github.com/c360studio/qms/document"
	"github.com/c360studio/qms/project"
)

// Identity errors.
var (
	ErrUnknownUser       = errors.New("unknown user")
	ErrInvalidAgentGroup = errors.New("agent file has missing or invalid group")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrFolderAccess      = errors.New("folder access denied")
)

// Group is a permission tier. Groups form a strict hierarchy; a grant to
// a group is also a grant to every group above it.
type Group string

// Groups, most privileged first.
const (
	GroupAdministrator Group = "administrator"
	GroupInitiator     Group = "initiator"
	GroupQuality       Group = "quality"
	GroupReviewer      Group = "reviewer"
)

// hierarchy orders groups by privilege; lower index outranks higher.
var hierarchy = []Group{GroupAdministrator, GroupInitiator, GroupQuality, GroupReviewer}

// HardcodedAdmins are always administrators and need no agent file.
var HardcodedAdmins = map[string]bool{
	"lead":   true,
	"claude": true,
}

// rank returns a group's position in the hierarchy, or -1 for unknown.
func rank(g Group) int {
	for i, h := range hierarchy {
		if h == g {
			return i
		}
	}
	return -1
}

// Valid reports whether g is a known group.
func (g Group) Valid() bool {
	return rank(g) >= 0
}

// AtLeast reports whether g holds the privileges of required.
func (g Group) AtLeast(required Group) bool {
	gr, rr := rank(g), rank(required)
	return gr >= 0 && rr >= 0 && gr <= rr
}

// AgentGroup reads the group from a user's agent file frontmatter.
func AgentGroup(p *project.Project, user string) (Group, error) {
	fm, _, err := document.ReadFile(p.AgentPath(user))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s (no agent file at %s)", ErrUnknownUser, user, p.AgentPath(user))
		}
		return "", err
	}

	raw, ok := fm["group"].(string)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidAgentGroup, user)
	}
	g := Group(raw)
	if !g.Valid() {
		return "", fmt.Errorf("%w: %s has group %q", ErrInvalidAgentGroup, user, raw)
	}
	return g, nil
}

// ResolveGroup maps a user string to their group: hardcoded admins
// first, then the agent file.
func ResolveGroup(p *project.Project, user string) (Group, error) {
	if user == "" {
		return "", fmt.Errorf("%w: --user is required", ErrUnknownUser)
	}
	if HardcodedAdmins[user] {
		return GroupAdministrator, nil
	}
	return AgentGroup(p, user)
}

// KnownUser reports whether user resolves to any group.
func KnownUser(p *project.Project, user string) bool {
	_, err := ResolveGroup(p, user)
	return err == nil
}

// VerifyFolderAccess enforces that a user only touches their own
// workspace and inbox.
func VerifyFolderAccess(user, targetUser string) error {
	if user != targetUser {
		return fmt.Errorf("%w: %s may not access %s's files", ErrFolderAccess, user, targetUser)
	}
	return nil
}
