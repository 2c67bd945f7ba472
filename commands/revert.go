package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360studio/qms/audit"
	"github.com/c360studio/qms/auth"
	"github.com/c360studio/qms/workflow"
)

func newRevertCommand() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "revert DOC-ID",
		Short: "Send a post-reviewed document back into execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("revert"); err != nil {
				return err
			}
			if reason == "" {
				return fmt.Errorf("%w: reverts must state why execution resumes", ErrCommentRequired)
			}

			docID := args[0]
			m, err := env.loadMeta(docID)
			if err != nil {
				return err
			}
			if err := auth.CheckOwner(env.User, m); err != nil {
				return err
			}

			t, err := workflow.Find(m.Status, workflow.ActionRevert, m.Executable, m.Phase())
			if err != nil {
				return err
			}

			fromStatus := m.Status
			m.Status = t.To
			m.PendingAssignees = []string{}
			if err := env.Meta.Save(m); err != nil {
				return err
			}

			sc := audit.NewEvent(audit.EventStatusChange, env.User, m.Version)
			sc.FromStatus = string(fromStatus)
			sc.ToStatus = string(t.To)
			if err := env.Audit.Append(docID, sc); err != nil {
				return err
			}
			e := audit.NewEvent(audit.EventRevert, env.User, m.Version)
			e.Reason = reason
			if err := env.Audit.Append(docID, e); err != nil {
				return err
			}

			fmt.Printf("Reverted %s v%s to execution: %s\n", docID, m.Version, reason)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Why execution resumes (required)")
	return cmd
}
