package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/c360studio/qms/audit"
	"github.com/c360studio/qms/document"
	"github.com/c360studio/qms/workflow"
)

func newCheckoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout DOC-ID",
		Short: "Check out a document for editing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("checkout"); err != nil {
				return err
			}

			docID := args[0]
			m, err := env.loadMeta(docID)
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

			if _, err := os.Stat(draftPath); err == nil {
				// Existing draft: take or keep ownership.
				if m.CheckedOut && m.ResponsibleUser != env.User {
					return fmt.Errorf("%w: %s is checked out by %s", ErrCheckedOut, docID, m.ResponsibleUser)
				}

				if err := document.CopyMinimal(draftPath, env.Project.WorkspacePath(env.User, docID)); err != nil {
					return err
				}
				m.Checkout(env.User, "")
				if err := env.Meta.Save(m); err != nil {
					return err
				}
				if err := env.Audit.Append(docID, audit.NewEvent(audit.EventCheckout, env.User, m.Version)); err != nil {
					return err
				}

				fmt.Printf("Checked out %s v%s\n", docID, m.Version)
				fmt.Printf("  Workspace copy: %s\n", env.Project.WorkspacePath(env.User, docID))
				return nil
			}

			// No draft: open a new minor revision from the effective file.
			if _, err := os.Stat(effectivePath); err != nil {
				return fmt.Errorf("%w: %s has no draft or effective file", ErrDocumentNotFound, docID)
			}

			fromVersion := m.Version
			newVersion, err := workflow.BumpMinor(fromVersion)
			if err != nil {
				return err
			}

			archivePath, err := env.Project.ArchivePath(docID, fromVersion)
			if err != nil {
				return err
			}
			if err := document.CopyMinimal(effectivePath, archivePath); err != nil {
				return err
			}
			if err := document.CopyMinimal(effectivePath, draftPath); err != nil {
				return err
			}
			if err := document.CopyMinimal(effectivePath, env.Project.WorkspacePath(env.User, docID)); err != nil {
				return err
			}

			m.Checkout(env.User, newVersion)
			m.Status = workflow.StatusDraft
			m.EffectiveVersion = fromVersion
			if err := env.Meta.Save(m); err != nil {
				return err
			}

			e := audit.NewEvent(audit.EventCheckout, env.User, newVersion)
			e.FromVersion = fromVersion
			if err := env.Audit.Append(docID, e); err != nil {
				return err
			}

			fmt.Printf("Checked out %s v%s (new revision of v%s)\n", docID, newVersion, fromVersion)
			fmt.Printf("  Workspace copy: %s\n", env.Project.WorkspacePath(env.User, docID))
			return nil
		},
	}
}
