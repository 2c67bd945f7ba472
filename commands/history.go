package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360studio/qms/audit"
)

func newHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history DOC-ID",
		Short: "Show a document's audit history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("history"); err != nil {
				return err
			}

			docID := args[0]
			if _, err := env.loadMeta(docID); err != nil {
				return err
			}
			events, err := env.Audit.Read(docID)
			if err != nil {
				return err
			}

			fmt.Print(audit.FormatHistory(docID, events))
			return nil
		},
	}
}
