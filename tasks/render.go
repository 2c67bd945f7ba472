package tasks

import (
	"fmt"
	"strings"
	"time"
)

// RenderContext carries everything a prompt template needs.
type RenderContext struct {
	DocID        string
	DocType      string
	Version      string
	WorkflowType string
	Assignee     string
	AssignedBy   string
	TaskID       string
}

func today() string {
	return time.Now().Format("2006-01-02")
}

func taskFrontmatter(taskType string, ctx RenderContext) string {
	return fmt.Sprintf(`---
task_id: %s
task_type: %s
workflow_type: %s
doc_id: %s
assigned_by: %s
assigned_date: %s
version: %s
---
`, ctx.TaskID, taskType, ctx.WorkflowType, ctx.DocID, ctx.AssignedBy, today(), ctx.Version)
}

// RenderReview produces the full markdown for a review task.
func (r *PromptRegistry) RenderReview(ctx RenderContext) string {
	cfg := r.Config(TaskReview, ctx.WorkflowType, ctx.DocType)

	// Group checklist items by category, preserving first-seen order.
	var order []string
	grouped := map[string][]ChecklistItem{}
	for _, item := range cfg.ChecklistItems {
		if _, ok := grouped[item.Category]; !ok {
			order = append(order, item.Category)
		}
		grouped[item.Category] = append(grouped[item.Category], item)
	}

	var checklist []string
	for _, category := range order {
		var b strings.Builder
		fmt.Fprintf(&b, "### %s\n\n", category)
		b.WriteString("| Item | Status | Evidence |\n")
		b.WriteString("|------|--------|----------|\n")
		for _, item := range grouped[category] {
			evidence := ""
			if item.EvidencePrompt != "" {
				evidence = "(" + item.EvidencePrompt + ")"
			}
			fmt.Fprintf(&b, "| %s | PASS / FAIL | %s |\n", item.Item, evidence)
		}
		checklist = append(checklist, strings.TrimRight(b.String(), "\n"))
	}

	var reminders strings.Builder
	for _, reminder := range cfg.CriticalReminders {
		fmt.Fprintf(&reminders, "- %s\n", reminder)
	}

	var additional strings.Builder
	for _, s := range cfg.AdditionalSections {
		fmt.Fprintf(&additional, "\n\n## %s\n\n%s", s.Title, s.Content)
	}

	return fmt.Sprintf(`%s
# REVIEW REQUEST: %s

**Workflow:** %s
**Version:** %s
**Assigned By:** %s
**Date:** %s

---

## MANDATORY VERIFICATION CHECKLIST

**YOU MUST verify each item below. ANY failure = REJECT.**

Before submitting your review, complete this checklist:

%s

---

## STRUCTURED REVIEW RESPONSE FORMAT

Your review comment MUST follow this format:

`+"```"+`
## %s Review: %s

### Checklist Verification

[Complete checklist table with PASS/FAIL and evidence]

### Findings

[List ALL findings. Every finding is a deficiency.]

1. [Finding or "No findings"]

### Recommendation

[RECOMMEND / REQUEST UPDATES] - [Brief rationale]
`+"```"+`

---

## CRITICAL REMINDERS

%s
**There is no "approve with comments." There is no severity classification.**
**If ANY deficiency exists, the only valid outcome is REQUEST UPDATES.**
%s
---

## Commands

Submit your review:

**If ALL items PASS:**
`+"```"+`
qms --user %s review %s --recommend --comment "[your structured review]"
`+"```"+`

**If ANY item FAILS:**
`+"```"+`
qms --user %s review %s --request-updates --comment "[your structured review with findings]"
`+"```"+`
`,
		taskFrontmatter(TaskReview, ctx),
		ctx.DocID, ctx.WorkflowType, ctx.Version, ctx.AssignedBy, today(),
		strings.Join(checklist, "\n\n"),
		ctx.Assignee, ctx.DocID,
		reminders.String(),
		additional.String(),
		ctx.Assignee, ctx.DocID,
		ctx.Assignee, ctx.DocID,
	)
}

// RenderApproval produces the full markdown for an approval task.
func (r *PromptRegistry) RenderApproval(ctx RenderContext) string {
	cfg := r.Config(TaskApproval, ctx.WorkflowType, ctx.DocType)

	var checklist strings.Builder
	checklist.WriteString("| Item | Verified |\n|------|----------|\n")
	for _, item := range cfg.ChecklistItems {
		fmt.Fprintf(&checklist, "| %s | YES / NO |\n", item.Item)
	}

	var reminders strings.Builder
	for _, reminder := range cfg.CriticalReminders {
		fmt.Fprintf(&reminders, "- %s\n", reminder)
	}

	return fmt.Sprintf(`%s
# APPROVAL REQUEST: %s

**Workflow:** %s
**Version:** %s
**Assigned By:** %s
**Date:** %s

---

## FINAL VERIFICATION - YOU ARE THE LAST LINE OF DEFENSE

Before approving, you MUST confirm:

### Pre-Approval Checklist

%s
**If ANY item is NO: REJECT**

---

## CRITICAL REMINDERS

%s
**IF ANY DOUBT EXISTS: REJECT**

---

## Commands

**Approve (only if 100%% compliant):**
`+"```"+`
qms --user %s approve %s
`+"```"+`

**Reject (if any deficiency):**
`+"```"+`
qms --user %s reject %s --comment "[reason for rejection]"
`+"```"+`
`,
		taskFrontmatter(TaskApproval, ctx),
		ctx.DocID, ctx.WorkflowType, ctx.Version, ctx.AssignedBy, today(),
		checklist.String(),
		reminders.String(),
		ctx.Assignee, ctx.DocID,
		ctx.Assignee, ctx.DocID,
	)
}
