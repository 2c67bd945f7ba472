package commands

import (
	"fmt"
	"os"

	"github.com/c360studio/qms/audit"
	"github.com/c360studio/qms/document"
	"github.com/c360studio/qms/meta"
	"github.com/c360studio/qms/workflow"
)

// approveRetirement finalizes an approval routed with --retire. The
// retiring draft is archived under the new version, the working files
// leave the controlled tree, and the audit trail closes with a RETIRE
// event. Metadata and history stay on disk so the retirement remains
// inspectable.
func approveRetirement(env *Env, m *meta.Meta, docID, comment string, fromStatus workflow.Status, fromVersion, newVersion, draftPath, effectivePath string) error {
	archivePath, err := env.Project.ArchivePath(docID, newVersion)
	if err != nil {
		return err
	}
	if err := document.CopyMinimal(draftPath, archivePath); err != nil {
		return err
	}
	if err := os.Remove(draftPath); err != nil {
		return fmt.Errorf("remove draft: %w", err)
	}
	if err := os.Remove(effectivePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove effective file: %w", err)
	}

	m.ApplyApproval(workflow.StatusRetired, newVersion, true)
	m.Retiring = false
	if err := env.Meta.Save(m); err != nil {
		return err
	}

	approveEvent := audit.NewEvent(audit.EventApprove, env.User, newVersion)
	approveEvent.Comment = comment
	if err := env.Audit.Append(docID, approveEvent); err != nil {
		return err
	}

	sc := audit.NewEvent(audit.EventStatusChange, env.User, newVersion)
	sc.FromStatus = string(fromStatus)
	sc.ToStatus = string(workflow.StatusRetired)
	if err := env.Audit.Append(docID, sc); err != nil {
		return err
	}

	retireEvent := audit.NewEvent(audit.EventRetire, env.User, newVersion)
	retireEvent.FromVersion = fromVersion
	if err := env.Audit.Append(docID, retireEvent); err != nil {
		return err
	}

	if _, err := env.Tasks.DeleteUserTasks(env.User, docID); err != nil {
		return err
	}

	fmt.Printf("Retired %s at v%s (was v%s)\n", docID, newVersion, fromVersion)
	fmt.Printf("  Archived copy: %s\n", archivePath)
	return nil
}
