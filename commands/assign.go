package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/qms/audit"
	"github.com/c360studio/qms/tasks"
	"github.com/c360studio/qms/workflow"
)

func newAssignCommand() *cobra.Command {
	var assignees []string

	cmd := &cobra.Command{
		Use:   "assign DOC-ID",
		Short: "Add reviewers or approvers to an in-flight workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("assign"); err != nil {
				return err
			}
			if len(assignees) == 0 {
				return fmt.Errorf("--assign is required")
			}

			docID := args[0]
			m, err := env.loadMeta(docID)
			if err != nil {
				return err
			}
			if !m.Status.IsReview() && !m.Status.IsApproval() {
				return fmt.Errorf("%s is %s; assignment needs an active review or approval", docID, m.Status)
			}
			if err := env.validateAssignees(assignees); err != nil {
				return err
			}

			added := make([]string, 0, len(assignees))
			for _, a := range assignees {
				if m.IsPending(a) {
					continue
				}
				m.PendingAssignees = append(m.PendingAssignees, a)
				added = append(added, a)
			}
			if len(added) == 0 {
				fmt.Printf("All of %s are already assigned to %s\n", strings.Join(assignees, ", "), docID)
				return nil
			}

			if err := env.Meta.Save(m); err != nil {
				return err
			}

			e := audit.NewEvent(audit.EventAssign, env.User, m.Version)
			e.Assignees = added
			if err := env.Audit.Append(docID, e); err != nil {
				return err
			}

			wt := workflow.WorkflowTypeFor(m.Status)
			taskType := tasks.TaskReview
			if m.Status.IsApproval() {
				taskType = tasks.TaskApproval
			}
			if err := env.Tasks.Generate(taskType, docID, m.DocType, m.Version, wt, env.User, added); err != nil {
				return err
			}

			fmt.Printf("Assigned %s to %s v%s (%s)\n", strings.Join(added, ", "), docID, m.Version, m.Status)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&assignees, "assign", nil, "Users to add (required)")
	return cmd
}
