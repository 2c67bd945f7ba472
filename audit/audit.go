// Package audit maintains the append-only JSONL history for every
// document. The log is the source of truth for review comments and for
// reconstruction after a crash; nothing here exposes an update or delete
// surface.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/c360studio/qms/project"
	"github.com/c360studio/qms/workflow"
)

// Event names.
const (
	EventCreate        = "CREATE"
	EventCheckout      = "CHECKOUT"
	EventCheckin       = "CHECKIN"
	EventRouteReview   = "ROUTE_REVIEW"
	EventRouteApproval = "ROUTE_APPROVAL"
	EventAssign        = "ASSIGN"
	EventReview        = "REVIEW"
	EventApprove       = "APPROVE"
	EventReject        = "REJECT"
	EventEffective     = "EFFECTIVE"
	EventRelease       = "RELEASE"
	EventRevert        = "REVERT"
	EventClose         = "CLOSE"
	EventRetire        = "RETIRE"
	EventStatusChange  = "STATUS_CHANGE"
)

// Event is one audit log entry. TS, Event, User, and Version are present
// on every entry; the remaining fields are event-specific.
type Event struct {
	TS      string `json:"ts"`
	Event   string `json:"event"`
	User    string `json:"user"`
	Version string `json:"version"`

	Title        string   `json:"title,omitempty"`
	Outcome      string   `json:"outcome,omitempty"`
	Comment      string   `json:"comment,omitempty"`
	Assignees    []string `json:"assignees,omitempty"`
	ReviewType   string   `json:"review_type,omitempty"`
	ApprovalType string   `json:"approval_type,omitempty"`
	FromVersion  string   `json:"from_version,omitempty"`
	FromStatus   string   `json:"from_status,omitempty"`
	ToStatus     string   `json:"to_status,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

// NewEvent stamps a new event with the current UTC time at second
// precision.
func NewEvent(event, user, version string) Event {
	return Event{
		TS:      time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		Event:   event,
		User:    user,
		Version: version,
	}
}

// Log appends to and reads per-document audit files under QMS/.audit.
type Log struct {
	p *project.Project
}

// NewLog creates an audit log for the project.
func NewLog(p *project.Project) *Log {
	return &Log{p: p}
}

// Append writes one event as a JSON line, creating the file and its
// directory on first use.
func (l *Log) Append(docID string, e Event) error {
	path, err := l.p.AuditPath(docID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create audit directory: %w", err)
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// Read returns all events for a document in append order. Blank lines
// are skipped; malformed lines are logged and skipped rather than
// failing the read.
func (l *Log) Read(docID string) ([]Event, error) {
	path, err := l.p.AuditPath(docID)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Event{}, nil
		}
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			slog.Warn("skipping malformed audit line",
				"doc_id", docID, "line", lineNum, "error", err)
			continue
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return events, nil
}

// Delete removes a document's audit file. Used by cancel only; retired
// documents keep their history.
func (l *Log) Delete(docID string) error {
	path, err := l.p.AuditPath(docID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete audit log: %w", err)
	}
	return nil
}

// Comments returns REVIEW and REJECT events carrying a non-empty
// comment, optionally filtered to one version.
func (l *Log) Comments(docID, version string) ([]Event, error) {
	events, err := l.Read(docID)
	if err != nil {
		return nil, err
	}

	var comments []Event
	for _, e := range events {
		if e.Event != EventReview && e.Event != EventReject {
			continue
		}
		if strings.TrimSpace(e.Comment) == "" {
			continue
		}
		if version != "" && e.Version != version {
			continue
		}
		comments = append(comments, e)
	}
	return comments, nil
}

// GateOpen reports whether the approval gate is open for the given
// version: every REVIEW in the latest completed review cycle (events
// since the last ROUTE_REVIEW) must carry a RECOMMEND outcome.
func GateOpen(events []Event, version string) (bool, string) {
	lastRoute := -1
	for i, e := range events {
		if e.Event == EventRouteReview && e.Version == version {
			lastRoute = i
		}
	}
	if lastRoute < 0 {
		return false, "no completed review cycle found for version " + version
	}

	sawReview := false
	for _, e := range events[lastRoute+1:] {
		if e.Event != EventReview || e.Version != version {
			continue
		}
		sawReview = true
		if e.Outcome != string(workflow.OutcomeRecommend) {
			return false, fmt.Sprintf("reviewer %s returned %s", e.User, e.Outcome)
		}
	}
	if !sawReview {
		return false, "review cycle has no recorded outcomes for version " + version
	}
	return true, ""
}
