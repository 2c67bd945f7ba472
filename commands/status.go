package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status DOC-ID",
		Short: "Show a document's workflow state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("status"); err != nil {
				return err
			}

			m, err := env.loadMeta(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%s (%s)\n", m.DocID, m.DocType)
			fmt.Printf("  Version:  %s\n", m.Version)
			fmt.Printf("  Status:   %s\n", m.Status)
			if m.Executable {
				fmt.Printf("  Phase:    %s\n", m.Phase())
			}
			if m.ResponsibleUser != "" {
				fmt.Printf("  Owner:    %s\n", m.ResponsibleUser)
			}
			if m.CheckedOut {
				fmt.Printf("  Checked out since %s\n", m.CheckedOutDate)
			}
			if m.EffectiveVersion != "" {
				fmt.Printf("  Effective version: %s\n", m.EffectiveVersion)
			}
			if len(m.PendingAssignees) > 0 {
				fmt.Printf("  Waiting on: %s\n", strings.Join(m.PendingAssignees, ", "))
			}
			if m.Retiring {
				fmt.Println("  Retirement pending approval")
			}
			if m.Supersedes != "" {
				fmt.Printf("  Supersedes: %s\n", m.Supersedes)
			}
			return nil
		},
	}
}
