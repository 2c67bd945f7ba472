package workflow

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when no transition matches the
// requested (status, action) pair for a document.
var ErrInvalidTransition = errors.New("invalid transition")

// VersionBump identifies how a transition changes the document version.
type VersionBump string

// Version bump kinds.
const (
	BumpKindNone  VersionBump = ""
	BumpKindMajor VersionBump = "major"
)

// Transition is one edge of the lifecycle state machine.
type Transition struct {
	// From is the status the document must currently hold.
	From Status
	// Action is the workflow verb that triggers this edge.
	Action Action
	// To is the resulting status.
	To Status
	// WorkflowType labels the phase for audit events and task files
	// (REVIEW, PRE_APPROVAL, POST_REVIEW, ...).
	WorkflowType string
	// ForExecutable restricts the edge to executable or non-executable
	// documents.
	ForExecutable bool
	// RequiresPhase, when set, restricts the edge to documents in the
	// given execution phase.
	RequiresPhase Phase
	// Bump is the version change applied when the edge fires.
	Bump VersionBump
	// ArchivesVersion marks edges that snapshot the outgoing draft
	// under .archive before the version changes.
	ArchivesVersion bool
	// ClearsOwner marks edges that release document ownership.
	ClearsOwner bool
	// RequiresAssignment marks edges that need a non-empty assignee set.
	RequiresAssignment bool
}

// transitions is the sole source of truth for the state machine.
var transitions = []Transition{
	// Route for review.
	{From: StatusDraft, Action: ActionRouteReview, To: StatusInReview, WorkflowType: "REVIEW", ForExecutable: false, RequiresAssignment: true},
	{From: StatusDraft, Action: ActionRouteReview, To: StatusInPreReview, WorkflowType: "PRE_REVIEW", ForExecutable: true, RequiresPhase: PhasePreRelease, RequiresAssignment: true},
	{From: StatusDraft, Action: ActionRouteReview, To: StatusInPostReview, WorkflowType: "POST_REVIEW", ForExecutable: true, RequiresPhase: PhasePostRelease, RequiresAssignment: true},
	{From: StatusInExecution, Action: ActionRouteReview, To: StatusInPostReview, WorkflowType: "POST_REVIEW", ForExecutable: true, RequiresPhase: PhasePostRelease, RequiresAssignment: true},

	// Route for approval.
	{From: StatusReviewed, Action: ActionRouteApproval, To: StatusInApproval, WorkflowType: "APPROVAL", ForExecutable: false, RequiresAssignment: true},
	{From: StatusPreReviewed, Action: ActionRouteApproval, To: StatusInPreApproval, WorkflowType: "PRE_APPROVAL", ForExecutable: true, RequiresAssignment: true},
	{From: StatusPostReviewed, Action: ActionRouteApproval, To: StatusInPostApproval, WorkflowType: "POST_APPROVAL", ForExecutable: true, RequiresAssignment: true},

	// Review completion. Fires when the last pending assignee submits.
	{From: StatusInReview, Action: ActionReview, To: StatusReviewed, WorkflowType: "REVIEW", ForExecutable: false},
	{From: StatusInPreReview, Action: ActionReview, To: StatusPreReviewed, WorkflowType: "PRE_REVIEW", ForExecutable: true},
	{From: StatusInPostReview, Action: ActionReview, To: StatusPostReviewed, WorkflowType: "POST_REVIEW", ForExecutable: true},

	// Approval. Major version bump, outgoing draft archived.
	{From: StatusInApproval, Action: ActionApprove, To: StatusApproved, WorkflowType: "APPROVAL", ForExecutable: false, Bump: BumpKindMajor, ArchivesVersion: true, ClearsOwner: true},
	{From: StatusInPreApproval, Action: ActionApprove, To: StatusPreApproved, WorkflowType: "PRE_APPROVAL", ForExecutable: true, Bump: BumpKindMajor, ArchivesVersion: true},
	{From: StatusInPostApproval, Action: ActionApprove, To: StatusPostApproved, WorkflowType: "POST_APPROVAL", ForExecutable: true, Bump: BumpKindMajor, ArchivesVersion: true},

	// Rejection. Version unchanged, pending assignees cleared.
	{From: StatusInApproval, Action: ActionReject, To: StatusReviewed, WorkflowType: "APPROVAL", ForExecutable: false},
	{From: StatusInPreApproval, Action: ActionReject, To: StatusPreReviewed, WorkflowType: "PRE_APPROVAL", ForExecutable: true},
	{From: StatusInPostApproval, Action: ActionReject, To: StatusPostReviewed, WorkflowType: "POST_APPROVAL", ForExecutable: true},

	// Execution lifecycle.
	{From: StatusPreApproved, Action: ActionRelease, To: StatusInExecution, WorkflowType: "RELEASE", ForExecutable: true},
	{From: StatusPostReviewed, Action: ActionRevert, To: StatusInExecution, WorkflowType: "REVERT", ForExecutable: true},
	{From: StatusPostApproved, Action: ActionClose, To: StatusClosed, WorkflowType: "CLOSE", ForExecutable: true, ClearsOwner: true},
}

// Find returns the single transition matching the tuple. Zero matches
// yield ErrInvalidTransition with a human-readable reason; more than one
// match indicates a malformed table and also fails.
func Find(from Status, action Action, executable bool, phase Phase) (Transition, error) {
	if phase == "" {
		phase = InferPhase(from)
	}

	var matches []Transition
	for _, t := range transitions {
		if t.From != from || t.Action != action {
			continue
		}
		if t.ForExecutable != executable {
			continue
		}
		if t.RequiresPhase != "" && t.RequiresPhase != phase {
			continue
		}
		matches = append(matches, t)
	}

	switch len(matches) {
	case 0:
		return Transition{}, fmt.Errorf("%w: no %s transition from %s (executable=%t, phase=%s)",
			ErrInvalidTransition, action, from, executable, phase)
	case 1:
		return matches[0], nil
	default:
		return Transition{}, fmt.Errorf("%w: ambiguous %s transition from %s (%d matches)",
			ErrInvalidTransition, action, from, len(matches))
	}
}

// RejectionTarget returns the completed-review status an approval-stage
// rejection falls back to.
func RejectionTarget(from Status) (Status, error) {
	t, err := Find(from, ActionReject, from != StatusInApproval, "")
	if err != nil {
		return "", err
	}
	return t.To, nil
}
