package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/c360studio/qms/audit"
	"github.com/c360studio/qms/auth"
	"github.com/c360studio/qms/document"
	"github.com/c360studio/qms/workflow"
)

func newCloseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "close DOC-ID",
		Short: "Close a post-approved executable document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("close"); err != nil {
				return err
			}

			docID := args[0]
			m, err := env.loadMeta(docID)
			if err != nil {
				return err
			}
			if err := auth.CheckOwner(env.User, m); err != nil {
				return err
			}

			t, err := workflow.Find(m.Status, workflow.ActionClose, m.Executable, m.Phase())
			if err != nil {
				return err
			}

			draftPath, err := env.Project.DocPath(docID, true)
			if err != nil {
				return err
			}
			effectivePath, err := env.Project.DocPath(docID, false)
			if err != nil {
				return err
			}

			// The closed record is the final controlled copy.
			if err := document.CopyMinimal(draftPath, effectivePath); err != nil {
				return err
			}
			if err := os.Remove(draftPath); err != nil {
				return fmt.Errorf("remove draft: %w", err)
			}
			workspacePath := env.Project.WorkspacePath(env.User, docID)
			if err := os.Remove(workspacePath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove workspace copy: %w", err)
			}

			fromStatus := m.Status
			m.ApplyApproval(t.To, "", true)
			if err := env.Meta.Save(m); err != nil {
				return err
			}

			sc := audit.NewEvent(audit.EventStatusChange, env.User, m.Version)
			sc.FromStatus = string(fromStatus)
			sc.ToStatus = string(t.To)
			if err := env.Audit.Append(docID, sc); err != nil {
				return err
			}
			if err := env.Audit.Append(docID, audit.NewEvent(audit.EventClose, env.User, m.Version)); err != nil {
				return err
			}

			fmt.Printf("Closed %s at v%s\n", docID, m.Version)
			fmt.Printf("  Final record: %s\n", effectivePath)
			return nil
		},
	}
}
