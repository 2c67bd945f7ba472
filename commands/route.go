package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/qms/audit"
	"github.com/c360studio/qms/auth"
	"github.com/c360studio/qms/tasks"
	"github.com/c360studio/qms/workflow"
)

func newRouteCommand() *cobra.Command {
	var (
		forReview   bool
		forApproval bool
		retire      bool
		assignees   []string
	)

	cmd := &cobra.Command{
		Use:   "route DOC-ID",
		Short: "Route a document for review or approval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("route"); err != nil {
				return err
			}

			if forReview == forApproval {
				return fmt.Errorf("exactly one of --review or --approval is required")
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
			if _, err := os.Stat(draftPath); err != nil {
				return fmt.Errorf("%w: %s has no draft to route", ErrDocumentNotFound, docID)
			}
			if m.CheckedOut {
				return fmt.Errorf("%w: %s must be checked in before routing", ErrCheckedOut, docID)
			}
			if err := auth.CheckOwner(env.User, m); err != nil {
				return err
			}

			action := workflow.ActionRouteReview
			if forApproval {
				action = workflow.ActionRouteApproval
			}

			t, err := workflow.Find(m.Status, action, m.Executable, m.Phase())
			if err != nil {
				return err
			}

			if forApproval {
				events, err := env.Audit.Read(docID)
				if err != nil {
					return err
				}
				if open, reason := audit.GateOpen(events, m.Version); !open {
					return fmt.Errorf("%w: %s", ErrApprovalGateClosed, reason)
				}
			}

			if retire {
				if !forApproval {
					return fmt.Errorf("--retire applies to approval routing only")
				}
				major, _, err := workflow.ParseVersion(m.Version)
				if err != nil {
					return err
				}
				if major < 1 {
					return fmt.Errorf("%s has never been effective (v%s); use 'cancel' instead of retirement", docID, m.Version)
				}
			}

			if len(assignees) == 0 {
				assignees = []string{"qa"}
			}
			if err := env.validateAssignees(assignees); err != nil {
				return err
			}

			fromStatus := m.Status
			m.Route(t.To, assignees)
			if retire {
				m.Retiring = true
			}
			if err := env.Meta.Save(m); err != nil {
				return err
			}

			sc := audit.NewEvent(audit.EventStatusChange, env.User, m.Version)
			sc.FromStatus = string(fromStatus)
			sc.ToStatus = string(t.To)
			if err := env.Audit.Append(docID, sc); err != nil {
				return err
			}

			taskType := tasks.TaskReview
			routeEvent := audit.NewEvent(audit.EventRouteReview, env.User, m.Version)
			routeEvent.Assignees = assignees
			routeEvent.ReviewType = t.WorkflowType
			if forApproval {
				taskType = tasks.TaskApproval
				routeEvent = audit.NewEvent(audit.EventRouteApproval, env.User, m.Version)
				routeEvent.Assignees = assignees
				routeEvent.ApprovalType = t.WorkflowType
			}
			if err := env.Audit.Append(docID, routeEvent); err != nil {
				return err
			}

			if err := env.Tasks.Generate(taskType, docID, m.DocType, m.Version, t.WorkflowType, env.User, assignees); err != nil {
				return err
			}

			fmt.Printf("Routed %s v%s: %s -> %s\n", docID, m.Version, fromStatus, t.To)
			fmt.Printf("  Assignees: %s\n", strings.Join(assignees, ", "))
			if retire {
				fmt.Println("  Retirement requested; approval will retire this document")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&forReview, "review", false, "Route for review")
	cmd.Flags().BoolVar(&forApproval, "approval", false, "Route for approval")
	cmd.Flags().BoolVar(&retire, "retire", false, "Retire on approval (approval routing only)")
	cmd.Flags().StringSliceVar(&assignees, "assign", nil, "Assignees (default qa)")
	return cmd
}
