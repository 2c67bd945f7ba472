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

func newApproveCommand() *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:   "approve DOC-ID",
		Short: "Approve a document in an approval workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("approve"); err != nil {
				return err
			}

			docID := args[0]
			m, err := env.loadMeta(docID)
			if err != nil {
				return err
			}
			if !m.Status.IsApproval() {
				return fmt.Errorf("%s is %s; approval applies to documents in approval", docID, m.Status)
			}
			if err := auth.CheckAssigned(env.User, m); err != nil {
				return err
			}

			t, err := workflow.Find(m.Status, workflow.ActionApprove, m.Executable, m.Phase())
			if err != nil {
				return err
			}

			// Partial approval: record the signature, keep the workflow
			// open for the remaining approvers.
			if len(m.PendingAssignees) > 1 {
				m.ReviewComplete(env.User, "")
				if err := env.Meta.Save(m); err != nil {
					return err
				}
				e := audit.NewEvent(audit.EventApprove, env.User, m.Version)
				e.Comment = comment
				if err := env.Audit.Append(docID, e); err != nil {
					return err
				}
				if _, err := env.Tasks.DeleteUserTasks(env.User, docID); err != nil {
					return err
				}
				fmt.Printf("Approval recorded for %s v%s\n", docID, m.Version)
				fmt.Printf("  Waiting on: %v\n", m.PendingAssignees)
				return nil
			}

			fromStatus := m.Status
			fromVersion := m.Version

			// The transition record decides the version change.
			newVersion := fromVersion
			if t.Bump == workflow.BumpKindMajor {
				newVersion, err = workflow.BumpMajor(fromVersion)
				if err != nil {
					return err
				}
			}

			draftPath, err := env.Project.DocPath(docID, true)
			if err != nil {
				return err
			}
			effectivePath, err := env.Project.DocPath(docID, false)
			if err != nil {
				return err
			}

			if m.Retiring {
				return approveRetirement(env, m, docID, comment, fromStatus, fromVersion, newVersion, draftPath, effectivePath)
			}

			if t.ArchivesVersion {
				// Snapshot the outgoing draft before the version moves.
				archivePath, err := env.Project.ArchivePath(docID, fromVersion)
				if err != nil {
					return err
				}
				if err := document.CopyMinimal(draftPath, archivePath); err != nil {
					return err
				}
			}

			approveEvent := audit.NewEvent(audit.EventApprove, env.User, newVersion)
			approveEvent.Comment = comment

			if t.To == workflow.StatusApproved {
				// Non-executable approval goes effective in the same step:
				// the draft becomes the controlled effective file.
				if err := document.CopyMinimal(draftPath, effectivePath); err != nil {
					return err
				}
				if err := os.Remove(draftPath); err != nil {
					return fmt.Errorf("remove draft: %w", err)
				}
				m.ApplyApproval(workflow.StatusEffective, newVersion, true)
				if err := env.Meta.Save(m); err != nil {
					return err
				}

				sc := audit.NewEvent(audit.EventStatusChange, env.User, newVersion)
				sc.FromStatus = string(fromStatus)
				sc.ToStatus = string(workflow.StatusApproved)
				if err := env.Audit.Append(docID, sc); err != nil {
					return err
				}
				if err := env.Audit.Append(docID, approveEvent); err != nil {
					return err
				}
				sc = audit.NewEvent(audit.EventStatusChange, env.User, newVersion)
				sc.FromStatus = string(workflow.StatusApproved)
				sc.ToStatus = string(workflow.StatusEffective)
				if err := env.Audit.Append(docID, sc); err != nil {
					return err
				}
				eff := audit.NewEvent(audit.EventEffective, env.User, newVersion)
				eff.FromVersion = fromVersion
				if err := env.Audit.Append(docID, eff); err != nil {
					return err
				}

				if _, err := env.Tasks.DeleteUserTasks(env.User, docID); err != nil {
					return err
				}
				fmt.Printf("Approved %s: v%s -> v%s, now EFFECTIVE\n", docID, fromVersion, newVersion)
				fmt.Printf("  Effective file: %s\n", effectivePath)
				return nil
			}

			// Executable approval: the draft stays in place for the next
			// phase of work.
			m.ApplyApproval(t.To, newVersion, t.ClearsOwner)
			if err := env.Meta.Save(m); err != nil {
				return err
			}

			sc := audit.NewEvent(audit.EventStatusChange, env.User, newVersion)
			sc.FromStatus = string(fromStatus)
			sc.ToStatus = string(t.To)
			if err := env.Audit.Append(docID, sc); err != nil {
				return err
			}
			if err := env.Audit.Append(docID, approveEvent); err != nil {
				return err
			}

			if _, err := env.Tasks.DeleteUserTasks(env.User, docID); err != nil {
				return err
			}
			fmt.Printf("Approved %s: v%s -> v%s (%s)\n", docID, fromVersion, newVersion, t.To)
			return nil
		},
	}

	cmd.Flags().StringVar(&comment, "comment", "", "Approval comment")
	return cmd
}
