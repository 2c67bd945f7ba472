package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360studio/qms/audit"
)

func newCommentsCommand() *cobra.Command {
	var version string

	cmd := &cobra.Command{
		Use:   "comments DOC-ID",
		Short: "Show review and rejection comments for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("comments"); err != nil {
				return err
			}

			docID := args[0]
			m, err := env.loadMeta(docID)
			if err != nil {
				return err
			}

			// Reviewers submit independently; comments stay sealed until
			// the review cycle completes.
			if m.Status.IsReview() {
				return fmt.Errorf("%s is %s; comments are hidden until the review completes", docID, m.Status)
			}

			comments, err := env.Audit.Comments(docID, version)
			if err != nil {
				return err
			}
			fmt.Print(audit.FormatComments(docID, comments))
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Limit to one document version")
	return cmd
}
