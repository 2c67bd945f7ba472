package audit

import (
	"fmt"
	"strings"
)

// FormatHistory renders events as one line each for the history command.
func FormatHistory(docID string, events []Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Audit history for %s:\n", docID)
	b.WriteString(strings.Repeat("=", 60) + "\n")

	if len(events) == 0 {
		b.WriteString("  (no events)\n")
		return b.String()
	}

	for _, e := range events {
		fmt.Fprintf(&b, "[%s] %s by %s - v%s", e.TS, e.Event, e.User, e.Version)
		switch {
		case e.Title != "":
			fmt.Fprintf(&b, " - %q", e.Title)
		case e.Outcome != "":
			fmt.Fprintf(&b, " - %s", e.Outcome)
		case len(e.Assignees) > 0:
			fmt.Fprintf(&b, " - assignees: %s", strings.Join(e.Assignees, ", "))
		case e.FromStatus != "":
			fmt.Fprintf(&b, " - %s -> %s", e.FromStatus, e.ToStatus)
		case e.Reason != "":
			fmt.Fprintf(&b, " - reason: %s", e.Reason)
		case e.FromVersion != "":
			fmt.Fprintf(&b, " - from v%s", e.FromVersion)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatComments renders review and rejection comments in block form.
func FormatComments(docID string, comments []Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Comments for %s:\n", docID)
	b.WriteString(strings.Repeat("=", 60) + "\n")

	if len(comments) == 0 {
		b.WriteString("  (no comments)\n")
		return b.String()
	}

	for _, e := range comments {
		label := e.Outcome
		if label == "" {
			label = e.Event
		}
		fmt.Fprintf(&b, "\n--- [v%s] %s (%s) - %s ---\n%s\n", e.Version, e.User, label, e.TS, e.Comment)
	}
	return b.String()
}
