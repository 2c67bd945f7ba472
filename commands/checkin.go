package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/c360studio/qms/audit"
	"github.com/c360studio/qms/auth"
	"github.com/c360studio/qms/document"
)

func newCheckinCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "checkin DOC-ID",
		Short: "Check in an edited document from your workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("checkin"); err != nil {
				return err
			}

			docID := args[0]
			m, err := env.loadMeta(docID)
			if err != nil {
				return err
			}
			if !m.CheckedOut {
				return fmt.Errorf("%w: %s", ErrNotCheckedOut, docID)
			}
			if err := auth.CheckOwner(env.User, m); err != nil {
				return err
			}

			workspacePath := env.Project.WorkspacePath(env.User, docID)
			if _, err := os.Stat(workspacePath); err != nil {
				return fmt.Errorf("no workspace copy of %s at %s", docID, workspacePath)
			}

			draftPath, err := env.Project.DocPath(docID, true)
			if err != nil {
				return err
			}

			// The workspace copy is authoritative; rewrite the QMS draft
			// through the minimal path so stray frontmatter never lands
			// in the controlled tree.
			if err := document.CopyMinimal(workspacePath, draftPath); err != nil {
				return err
			}

			wasReviewed := m.Status.IsReviewed()
			m.Checkin()
			if err := env.Meta.Save(m); err != nil {
				return err
			}
			if err := env.Audit.Append(docID, audit.NewEvent(audit.EventCheckin, env.User, m.Version)); err != nil {
				return err
			}

			if err := os.Remove(workspacePath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove workspace copy: %w", err)
			}

			fmt.Printf("Checked in %s v%s\n", docID, m.Version)
			if wasReviewed {
				fmt.Printf("  Prior review invalidated; status reset to %s\n", m.Status)
			}
			return nil
		},
	}
}
