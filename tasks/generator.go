package tasks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/qms/project"
)

// Generator writes and deletes task files in user inboxes.
type Generator struct {
	p       *project.Project
	prompts *PromptRegistry
}

// NewGenerator creates a task generator. The prompt registry loads any
// external overrides under <root>/prompts.
func NewGenerator(p *project.Project) (*Generator, error) {
	prompts := NewPromptRegistry()
	if err := prompts.LoadOverrides(filepath.Join(p.Root, "prompts")); err != nil {
		return nil, err
	}
	return &Generator{p: p, prompts: prompts}, nil
}

// TaskID derives the deterministic task identifier. Re-routing the same
// version produces the same ID, so the inbox file is overwritten rather
// than duplicated.
func TaskID(docID, workflowType, version string) string {
	return fmt.Sprintf("task-%s-%s-v%s",
		docID,
		strings.ToLower(workflowType),
		strings.ReplaceAll(version, ".", "-"))
}

// Generate writes one task file per assignee inbox.
func (g *Generator) Generate(taskType, docID, docType, version, workflowType, assignedBy string, assignees []string) error {
	taskID := TaskID(docID, workflowType, version)

	for _, assignee := range assignees {
		ctx := RenderContext{
			DocID:        docID,
			DocType:      docType,
			Version:      version,
			WorkflowType: workflowType,
			Assignee:     assignee,
			AssignedBy:   assignedBy,
			TaskID:       taskID,
		}

		var content string
		if taskType == TaskApproval {
			content = g.prompts.RenderApproval(ctx)
		} else {
			content = g.prompts.RenderReview(ctx)
		}

		inbox := g.p.InboxPath(assignee)
		if err := os.MkdirAll(inbox, 0755); err != nil {
			return fmt.Errorf("create inbox for %s: %w", assignee, err)
		}
		path := filepath.Join(inbox, taskID+".md")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("write task for %s: %w", assignee, err)
		}
	}
	return nil
}

// DeleteUserTasks removes a user's task files for a document, returning
// how many were deleted.
func (g *Generator) DeleteUserTasks(user, docID string) (int, error) {
	return deleteMatching(g.p.InboxPath(user), fmt.Sprintf("task-%s-*.md", docID))
}

// DeleteApprovalTasks sweeps every inbox for pending approval tasks on a
// document. Used on rejection so no stale approval prompt survives.
func (g *Generator) DeleteApprovalTasks(docID string) (int, error) {
	users, err := os.ReadDir(g.p.UsersRoot())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("list users: %w", err)
	}

	total := 0
	for _, user := range users {
		if !user.IsDir() {
			continue
		}
		n, err := deleteMatching(g.p.InboxPath(user.Name()), fmt.Sprintf("task-%s-*approval*.md", docID))
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DeleteAllTasks sweeps every inbox for any task on a document. Used by
// cancel.
func (g *Generator) DeleteAllTasks(docID string) (int, error) {
	users, err := os.ReadDir(g.p.UsersRoot())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("list users: %w", err)
	}

	total := 0
	for _, user := range users {
		if !user.IsDir() {
			continue
		}
		n, err := deleteMatching(g.p.InboxPath(user.Name()), fmt.Sprintf("task-%s-*.md", docID))
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func deleteMatching(dir, pattern string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read inbox %s: %w", dir, err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ok, err := doublestar.Match(pattern, entry.Name())
		if err != nil {
			return count, fmt.Errorf("match task pattern: %w", err)
		}
		if !ok {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return count, fmt.Errorf("delete task %s: %w", entry.Name(), err)
		}
		count++
	}
	return count, nil
}
