// Package workflow implements the document lifecycle state machine.
// Transitions are declared in a single table; commands look transitions
// up by (status, action) and never hard-code status checks themselves.
package workflow

// Status is a document workflow state.
type Status string

// Shared and non-executable statuses.
const (
	StatusDraft      Status = "DRAFT"
	StatusInReview   Status = "IN_REVIEW"
	StatusReviewed   Status = "REVIEWED"
	StatusInApproval Status = "IN_APPROVAL"
	StatusApproved   Status = "APPROVED"
	StatusEffective  Status = "EFFECTIVE"
)

// Executable-path statuses.
const (
	StatusInPreReview    Status = "IN_PRE_REVIEW"
	StatusPreReviewed    Status = "PRE_REVIEWED"
	StatusInPreApproval  Status = "IN_PRE_APPROVAL"
	StatusPreApproved    Status = "PRE_APPROVED"
	StatusInExecution    Status = "IN_EXECUTION"
	StatusInPostReview   Status = "IN_POST_REVIEW"
	StatusPostReviewed   Status = "POST_REVIEWED"
	StatusInPostApproval Status = "IN_POST_APPROVAL"
	StatusPostApproved   Status = "POST_APPROVED"
	StatusClosed         Status = "CLOSED"
)

// Terminal statuses.
const (
	StatusRetired    Status = "RETIRED"
	StatusSuperseded Status = "SUPERSEDED"
)

var nonExecutableStatuses = map[Status]bool{
	StatusDraft:      true,
	StatusInReview:   true,
	StatusReviewed:   true,
	StatusInApproval: true,
	StatusApproved:   true,
	StatusEffective:  true,
	StatusRetired:    true,
	StatusSuperseded: true,
}

var executableStatuses = map[Status]bool{
	StatusDraft:          true,
	StatusInPreReview:    true,
	StatusPreReviewed:    true,
	StatusInPreApproval:  true,
	StatusPreApproved:    true,
	StatusInExecution:    true,
	StatusInPostReview:   true,
	StatusPostReviewed:   true,
	StatusInPostApproval: true,
	StatusPostApproved:   true,
	StatusClosed:         true,
	StatusRetired:        true,
}

// IsValidFor reports whether s is a legal status for a document with the
// given executable flag.
func (s Status) IsValidFor(executable bool) bool {
	if executable {
		return executableStatuses[s]
	}
	return nonExecutableStatuses[s]
}

// IsReview reports whether s is an active review status. Comments stay
// hidden while a document sits in one of these states.
func (s Status) IsReview() bool {
	switch s {
	case StatusInReview, StatusInPreReview, StatusInPostReview:
		return true
	}
	return false
}

// IsApproval reports whether s is an active approval status.
func (s Status) IsApproval() bool {
	switch s {
	case StatusInApproval, StatusInPreApproval, StatusInPostApproval:
		return true
	}
	return false
}

// IsReviewed reports whether s is a completed-review status. A checkin
// from one of these states invalidates the review and returns to DRAFT.
func (s Status) IsReviewed() bool {
	switch s {
	case StatusReviewed, StatusPreReviewed, StatusPostReviewed:
		return true
	}
	return false
}

// IsTerminal reports whether s accepts no outgoing transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusClosed, StatusRetired, StatusSuperseded:
		return true
	}
	return false
}

// Action is a workflow verb applied to a document.
type Action string

// Workflow actions.
const (
	ActionRouteReview   Action = "ROUTE_REVIEW"
	ActionRouteApproval Action = "ROUTE_APPROVAL"
	ActionReview        Action = "REVIEW"
	ActionApprove       Action = "APPROVE"
	ActionReject        Action = "REJECT"
	ActionRelease       Action = "RELEASE"
	ActionRevert        Action = "REVERT"
	ActionClose         Action = "CLOSE"
)

// Phase is the execution phase of an executable document.
type Phase string

// Execution phases. The phase moves pre_release to post_release exactly
// once, at release, and never back.
const (
	PhasePreRelease  Phase = "pre_release"
	PhasePostRelease Phase = "post_release"
)

var preReleaseStatuses = map[Status]bool{
	StatusDraft:         true,
	StatusInPreReview:   true,
	StatusPreReviewed:   true,
	StatusInPreApproval: true,
	StatusPreApproved:   true,
}

var postReleaseStatuses = map[Status]bool{
	StatusInExecution:    true,
	StatusInPostReview:   true,
	StatusPostReviewed:   true,
	StatusInPostApproval: true,
	StatusPostApproved:   true,
	StatusClosed:         true,
}

// InferPhase derives the execution phase from a status. Metadata with an
// explicit phase always wins; this is the fallback for records written
// before phases were tracked.
func InferPhase(s Status) Phase {
	if postReleaseStatuses[s] {
		return PhasePostRelease
	}
	if preReleaseStatuses[s] {
		return PhasePreRelease
	}
	return PhasePreRelease
}

// WorkflowTypeFor labels the active workflow phase for a review or
// approval status, matching the WorkflowType on the transition that
// entered it.
func WorkflowTypeFor(s Status) string {
	switch s {
	case StatusInReview:
		return "REVIEW"
	case StatusInPreReview:
		return "PRE_REVIEW"
	case StatusInPostReview:
		return "POST_REVIEW"
	case StatusInApproval:
		return "APPROVAL"
	case StatusInPreApproval:
		return "PRE_APPROVAL"
	case StatusInPostApproval:
		return "POST_APPROVAL"
	}
	return ""
}

// ReviewOutcome is the result a reviewer records.
type ReviewOutcome string

// Review outcomes.
const (
	OutcomeRecommend       ReviewOutcome = "RECOMMEND"
	OutcomeUpdatesRequired ReviewOutcome = "UPDATES_REQUIRED"
)

// Valid reports whether o is a known review outcome.
func (o ReviewOutcome) Valid() bool {
	return o == OutcomeRecommend || o == OutcomeUpdatesRequired
}
