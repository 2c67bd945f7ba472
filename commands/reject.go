package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360studio/qms/audit"
	"github.com/c360studio/qms/auth"
	"github.com/c360studio/qms/workflow"
)

func newRejectCommand() *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:   "reject DOC-ID",
		Short: "Reject a document in an approval workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("reject"); err != nil {
				return err
			}
			if comment == "" {
				return fmt.Errorf("%w: rejections must explain what blocks approval", ErrCommentRequired)
			}

			docID := args[0]
			m, err := env.loadMeta(docID)
			if err != nil {
				return err
			}
			if !m.Status.IsApproval() {
				return fmt.Errorf("%s is %s; rejection applies to documents in approval", docID, m.Status)
			}
			if err := auth.CheckAssigned(env.User, m); err != nil {
				return err
			}

			t, err := workflow.Find(m.Status, workflow.ActionReject, m.Executable, m.Phase())
			if err != nil {
				return err
			}

			// One rejection ends the whole approval cycle regardless of
			// how many approvers have already signed.
			fromStatus := m.Status
			m.Status = t.To
			m.PendingAssignees = []string{}
			m.Retiring = false
			if err := env.Meta.Save(m); err != nil {
				return err
			}

			e := audit.NewEvent(audit.EventReject, env.User, m.Version)
			e.Comment = comment
			if err := env.Audit.Append(docID, e); err != nil {
				return err
			}
			sc := audit.NewEvent(audit.EventStatusChange, env.User, m.Version)
			sc.FromStatus = string(fromStatus)
			sc.ToStatus = string(t.To)
			if err := env.Audit.Append(docID, sc); err != nil {
				return err
			}

			removed, err := env.Tasks.DeleteApprovalTasks(docID)
			if err != nil {
				return err
			}

			fmt.Printf("Rejected %s v%s: %s -> %s\n", docID, m.Version, fromStatus, t.To)
			if removed > 0 {
				fmt.Printf("  Cleared %d outstanding approval task(s)\n", removed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&comment, "comment", "", "Rejection reason (required)")
	return cmd
}
