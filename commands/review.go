package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360studio/qms/audit"
	"github.com/c360studio/qms/auth"
	"github.com/c360studio/qms/workflow"
)

func newReviewCommand() *cobra.Command {
	var (
		recommend      bool
		requestUpdates bool
		comment        string
	)

	cmd := &cobra.Command{
		Use:   "review DOC-ID",
		Short: "Submit your review of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("review"); err != nil {
				return err
			}

			if recommend == requestUpdates {
				return fmt.Errorf("exactly one of --recommend or --request-updates is required")
			}
			if comment == "" {
				return fmt.Errorf("%w: reviews must carry a comment", ErrCommentRequired)
			}

			docID := args[0]
			m, err := env.loadMeta(docID)
			if err != nil {
				return err
			}
			if !m.Status.IsReview() {
				return fmt.Errorf("%s is %s; reviews apply to documents in review", docID, m.Status)
			}
			if err := auth.CheckAssigned(env.User, m); err != nil {
				return err
			}

			outcome := workflow.OutcomeRecommend
			if requestUpdates {
				outcome = workflow.OutcomeUpdatesRequired
			}

			t, err := workflow.Find(m.Status, workflow.ActionReview, m.Executable, m.Phase())
			if err != nil {
				return err
			}

			fromStatus := m.Status
			e := audit.NewEvent(audit.EventReview, env.User, m.Version)
			e.Outcome = string(outcome)
			e.Comment = comment
			if err := env.Audit.Append(docID, e); err != nil {
				return err
			}

			fired := m.ReviewComplete(env.User, t.To)
			if err := env.Meta.Save(m); err != nil {
				return err
			}

			if fired {
				sc := audit.NewEvent(audit.EventStatusChange, env.User, m.Version)
				sc.FromStatus = string(fromStatus)
				sc.ToStatus = string(t.To)
				if err := env.Audit.Append(docID, sc); err != nil {
					return err
				}
			}

			if _, err := env.Tasks.DeleteUserTasks(env.User, docID); err != nil {
				return err
			}

			fmt.Printf("Review recorded for %s v%s (%s)\n", docID, m.Version, outcome)
			if fired {
				fmt.Printf("  All reviews in; status: %s -> %s\n", fromStatus, m.Status)
			} else {
				fmt.Printf("  Waiting on: %v\n", m.PendingAssignees)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&recommend, "recommend", false, "Recommend the document for approval")
	cmd.Flags().BoolVar(&requestUpdates, "request-updates", false, "Request updates before approval")
	cmd.Flags().StringVar(&comment, "comment", "", "Review comment (required)")
	return cmd
}
