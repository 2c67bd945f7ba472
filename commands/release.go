package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360studio/qms/audit"
	"github.com/c360studio/qms/auth"
	"github.com/c360studio/qms/workflow"
)

func newReleaseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "release DOC-ID",
		Short: "Release an approved executable document into execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("release"); err != nil {
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

			t, err := workflow.Find(m.Status, workflow.ActionRelease, m.Executable, m.Phase())
			if err != nil {
				return err
			}

			fromStatus := m.Status
			m.Status = t.To
			m.ExecutionPhase = workflow.PhasePostRelease
			if err := env.Meta.Save(m); err != nil {
				return err
			}

			sc := audit.NewEvent(audit.EventStatusChange, env.User, m.Version)
			sc.FromStatus = string(fromStatus)
			sc.ToStatus = string(t.To)
			if err := env.Audit.Append(docID, sc); err != nil {
				return err
			}
			if err := env.Audit.Append(docID, audit.NewEvent(audit.EventRelease, env.User, m.Version)); err != nil {
				return err
			}

			fmt.Printf("Released %s v%s into execution\n", docID, m.Version)
			return nil
		},
	}
}
