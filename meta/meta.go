// Package meta is the authoritative store for per-document workflow
// state. Each document has one JSON file under QMS/.meta/<type>/;
// mutations are pure functions on the loaded value and the store writes
// atomically via a temp-and-rename.
package meta

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/c360studio/qms/workflow"
)

// ErrNotFound is returned when a document has no metadata file.
var ErrNotFound = errors.New("document metadata not found")

// knownKeys are the metadata fields the struct models. Anything else in
// the file is carried through Extra so round-trips never lose data.
var knownKeys = map[string]bool{
	"doc_id": true, "doc_type": true, "version": true, "status": true,
	"executable": true, "execution_phase": true, "responsible_user": true,
	"checked_out": true, "checked_out_date": true, "effective_version": true,
	"supersedes": true, "pending_assignees": true, "retiring": true,
}

// Meta is the workflow state of one document.
type Meta struct {
	// DocID is the document identifier.
	DocID string
	// DocType is the registry type name.
	DocType string
	// Version is the current N.X version.
	Version string
	// Status is the current workflow status.
	Status workflow.Status
	// Executable mirrors the document type's executable flag.
	Executable bool
	// ExecutionPhase is pre_release or post_release for executable
	// documents, empty otherwise.
	ExecutionPhase workflow.Phase
	// ResponsibleUser is the current owner, empty when unclaimed.
	ResponsibleUser string
	// CheckedOut marks an active checkout; CheckedOutDate holds the
	// date when true.
	CheckedOut     bool
	CheckedOutDate string
	// EffectiveVersion is the last version that became effective.
	EffectiveVersion string
	// Supersedes names the document this one replaced, if any.
	Supersedes string
	// PendingAssignees are users still owing a review or approval.
	PendingAssignees []string
	// Retiring is set by retirement routing and cleared on approval.
	Retiring bool

	// Extra preserves unrecognized keys across load/save.
	Extra map[string]json.RawMessage
}

type metaJSON struct {
	DocID            string            `json:"doc_id"`
	DocType          string            `json:"doc_type"`
	Version          string            `json:"version"`
	Status           workflow.Status   `json:"status"`
	Executable       bool              `json:"executable"`
	ExecutionPhase   *workflow.Phase   `json:"execution_phase"`
	ResponsibleUser  *string           `json:"responsible_user"`
	CheckedOut       bool              `json:"checked_out"`
	CheckedOutDate   *string           `json:"checked_out_date"`
	EffectiveVersion *string           `json:"effective_version"`
	Supersedes       *string           `json:"supersedes"`
	PendingAssignees []string          `json:"pending_assignees"`
	Retiring         bool              `json:"retiring,omitempty"`
}

// MarshalJSON renders the known fields with explicit nulls for unset
// optional values, then merges any preserved unknown keys.
func (m Meta) MarshalJSON() ([]byte, error) {
	out := metaJSON{
		DocID:            m.DocID,
		DocType:          m.DocType,
		Version:          m.Version,
		Status:           m.Status,
		Executable:       m.Executable,
		CheckedOut:       m.CheckedOut,
		PendingAssignees: m.PendingAssignees,
		Retiring:         m.Retiring,
	}
	if out.PendingAssignees == nil {
		out.PendingAssignees = []string{}
	}
	if m.ExecutionPhase != "" {
		out.ExecutionPhase = &m.ExecutionPhase
	}
	out.ResponsibleUser = nullable(m.ResponsibleUser)
	out.CheckedOutDate = nullable(m.CheckedOutDate)
	out.EffectiveVersion = nullable(m.EffectiveVersion)
	out.Supersedes = nullable(m.Supersedes)

	data, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	if len(m.Extra) == 0 {
		return data, nil
	}

	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range m.Extra {
		if !knownKeys[k] {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// UnmarshalJSON decodes the known fields and stashes everything else in
// Extra.
func (m *Meta) UnmarshalJSON(data []byte) error {
	var raw metaJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.DocID = raw.DocID
	m.DocType = raw.DocType
	m.Version = raw.Version
	m.Status = raw.Status
	m.Executable = raw.Executable
	m.CheckedOut = raw.CheckedOut
	m.PendingAssignees = raw.PendingAssignees
	m.Retiring = raw.Retiring
	if raw.ExecutionPhase != nil {
		m.ExecutionPhase = *raw.ExecutionPhase
	}
	m.ResponsibleUser = deref(raw.ResponsibleUser)
	m.CheckedOutDate = deref(raw.CheckedOutDate)
	m.EffectiveVersion = deref(raw.EffectiveVersion)
	m.Supersedes = deref(raw.Supersedes)

	all := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for k := range all {
		if knownKeys[k] {
			delete(all, k)
		}
	}
	if len(all) > 0 {
		m.Extra = all
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// NewInitial returns the metadata for a freshly created document: v0.1,
// DRAFT, checked out to its creator.
func NewInitial(docID, docType string, executable bool, user string) *Meta {
	m := &Meta{
		DocID:            docID,
		DocType:          docType,
		Version:          "0.1",
		Status:           workflow.StatusDraft,
		Executable:       executable,
		ResponsibleUser:  user,
		CheckedOut:       true,
		CheckedOutDate:   today(),
		PendingAssignees: []string{},
	}
	if executable {
		m.ExecutionPhase = workflow.PhasePreRelease
	}
	return m
}

// Phase returns the effective execution phase, inferring from status for
// records written before phases were tracked.
func (m *Meta) Phase() workflow.Phase {
	if !m.Executable {
		return ""
	}
	if m.ExecutionPhase != "" {
		return m.ExecutionPhase
	}
	return workflow.InferPhase(m.Status)
}

// IsPending reports whether user still owes an action in the current
// workflow phase.
func (m *Meta) IsPending(user string) bool {
	for _, a := range m.PendingAssignees {
		if a == user {
			return true
		}
	}
	return false
}

// Checkout claims the document for user, optionally moving to newVersion
// (used when opening a new draft from an effective document).
func (m *Meta) Checkout(user, newVersion string) {
	m.ResponsibleUser = user
	m.CheckedOut = true
	m.CheckedOutDate = today()
	if newVersion != "" {
		m.Version = newVersion
	}
}

// Checkin releases the checkout but keeps ownership and phase. A checkin
// from a completed-review status invalidates that review: the document
// drops back to DRAFT and pending assignees are cleared.
func (m *Meta) Checkin() {
	m.CheckedOut = false
	m.CheckedOutDate = ""
	if m.Status.IsReviewed() {
		m.Status = workflow.StatusDraft
		m.PendingAssignees = []string{}
	}
}

// Route moves the document into a review or approval status with the
// given assignees.
func (m *Meta) Route(target workflow.Status, assignees []string) {
	m.Status = target
	m.PendingAssignees = append([]string{}, assignees...)
}

// ReviewComplete removes user from the pending set and, when the set
// empties and newStatus is given, completes the phase transition.
// It reports whether the transition fired.
func (m *Meta) ReviewComplete(user string, newStatus workflow.Status) bool {
	remaining := make([]string, 0, len(m.PendingAssignees))
	for _, a := range m.PendingAssignees {
		if a != user {
			remaining = append(remaining, a)
		}
	}
	m.PendingAssignees = remaining

	if len(remaining) == 0 && newStatus != "" {
		m.Status = newStatus
		return true
	}
	return false
}

// ApplyApproval finalizes an approval transition: status and version
// change, pending assignees clear, and when clearOwner is set the
// ownership and checkout state are released and the effective version
// recorded.
func (m *Meta) ApplyApproval(newStatus workflow.Status, newVersion string, clearOwner bool) {
	m.Status = newStatus
	if newVersion != "" {
		m.Version = newVersion
	}
	m.PendingAssignees = []string{}
	if clearOwner {
		m.ResponsibleUser = ""
		m.CheckedOut = false
		m.CheckedOutDate = ""
		m.EffectiveVersion = m.Version
	}
}

func today() string {
	return time.Now().Format("2006-01-02")
}

// Validate checks the structural invariants that must hold after every
// committed command.
func (m *Meta) Validate() error {
	if !workflow.ValidVersion(m.Version) {
		return fmt.Errorf("invalid version %q", m.Version)
	}
	if !m.Status.IsValidFor(m.Executable) {
		return fmt.Errorf("status %s invalid for executable=%t", m.Status, m.Executable)
	}
	if m.CheckedOut && (m.ResponsibleUser == "" || m.CheckedOutDate == "") {
		return errors.New("checked out without owner or date")
	}
	if !m.Executable && m.ExecutionPhase != "" {
		return errors.New("execution phase set on non-executable document")
	}
	return nil
}
