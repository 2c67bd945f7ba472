package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/c360studio/qms/meta"
)

// Predicate errors raised by command-level checks.
var (
	ErrOwnershipDenied = errors.New("not the responsible user")
	ErrNotAssigned     = errors.New("not assigned to this workflow")
)

// Rule describes who may run a command and under what predicates.
type Rule struct {
	// Required is the least-privileged group allowed; any higher group
	// in the hierarchy is also allowed.
	Required Group
	// OwnerOnly restricts the command to the document's responsible
	// user (unless ownership is unset).
	OwnerOnly bool
	// AssignedOnly restricts the command to users in the document's
	// pending assignee set.
	AssignedOnly bool
}

// permissions is the per-command authorization table.
var permissions = map[string]Rule{
	"create":    {Required: GroupInitiator},
	"checkout":  {Required: GroupInitiator},
	"checkin":   {Required: GroupInitiator, OwnerOnly: true},
	"route":     {Required: GroupInitiator, OwnerOnly: true},
	"assign":    {Required: GroupQuality},
	"review":    {Required: GroupReviewer, AssignedOnly: true},
	"approve":   {Required: GroupReviewer, AssignedOnly: true},
	"reject":    {Required: GroupReviewer, AssignedOnly: true},
	"release":   {Required: GroupInitiator, OwnerOnly: true},
	"revert":    {Required: GroupInitiator, OwnerOnly: true},
	"close":     {Required: GroupInitiator, OwnerOnly: true},
	"cancel":    {Required: GroupInitiator},
	"fix":       {Required: GroupAdministrator},
	"namespace": {Required: GroupAdministrator},
	"user":      {Required: GroupAdministrator},
	"read":      {Required: GroupReviewer},
	"status":    {Required: GroupReviewer},
	"inbox":     {Required: GroupReviewer},
	"workspace": {Required: GroupReviewer},
	"history":   {Required: GroupReviewer},
	"comments":  {Required: GroupReviewer},
	"migrate":   {Required: GroupAdministrator},
}

// initiatorBarred lists commands the hierarchy would grant initiators
// but the permission table reserves for quality and reviewers. Authors
// do not approve their own work.
var initiatorBarred = map[string]bool{
	"approve": true,
	"reject":  true,
	"assign":  true,
}

// CheckCommand verifies the group-level grant for a command.
func CheckCommand(user string, group Group, command string) error {
	rule, ok := permissions[command]
	if !ok {
		return fmt.Errorf("%w: no permission rule for command %q", ErrPermissionDenied, command)
	}

	if group == GroupAdministrator {
		return nil
	}
	if initiatorBarred[command] && group == GroupInitiator {
		return deny(user, group, command)
	}
	if !group.AtLeast(rule.Required) {
		return deny(user, group, command)
	}
	return nil
}

func deny(user string, group Group, command string) error {
	return fmt.Errorf("%w: the %q command is not available to the %s group (%s)\n%s",
		ErrPermissionDenied, command, group, user, guidance(group))
}

// CheckOwner enforces the owner-only predicate. An unowned document may
// be acted on by any permitted caller.
func CheckOwner(user string, m *meta.Meta) error {
	if m.ResponsibleUser != "" && m.ResponsibleUser != user {
		return fmt.Errorf("%w: %s is owned by %s", ErrOwnershipDenied, m.DocID, m.ResponsibleUser)
	}
	return nil
}

// CheckAssigned enforces the assigned-only predicate.
func CheckAssigned(user string, m *meta.Meta) error {
	if !m.IsPending(user) {
		pending := strings.Join(m.PendingAssignees, ", ")
		if pending == "" {
			pending = "none"
		}
		return fmt.Errorf("%w: %s is not in the pending assignees for %s (pending: %s)",
			ErrNotAssigned, user, m.DocID, pending)
	}
	return nil
}

// guidance returns a short capability summary for a group, appended to
// permission denials so agents can self-correct.
func guidance(group Group) string {
	switch group {
	case GroupInitiator:
		return "As an initiator you can create, checkout, checkin, and route documents, and release/revert/close executables you own. Assigning reviewers and approving/rejecting are quality and reviewer actions."
	case GroupQuality:
		return "As quality you can assign reviewers, review, approve, and reject. Creating and routing documents are initiator actions."
	case GroupReviewer:
		return "As a reviewer you can review, approve, and reject documents you are assigned to, and read any document. Creating, routing, and assigning are not available."
	default:
		return ""
	}
}
