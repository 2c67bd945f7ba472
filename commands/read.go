package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newReadCommand() *cobra.Command {
	var effective bool

	cmd := &cobra.Command{
		Use:   "read DOC-ID",
		Short: "Print a document's controlled content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("read"); err != nil {
				return err
			}

			docID := args[0]
			if _, err := env.loadMeta(docID); err != nil {
				return err
			}

			draftPath, err := env.Project.DocPath(docID, true)
			if err != nil {
				return err
			}
			effectivePath, err := env.Project.DocPath(docID, false)
			if err != nil {
				return err
			}

			// The working draft wins unless the caller asks for the
			// effective copy explicitly.
			path := draftPath
			if effective {
				path = effectivePath
			} else if _, err := os.Stat(draftPath); err != nil {
				path = effectivePath
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("%w: no readable copy of %s", ErrDocumentNotFound, docID)
			}
			fmt.Print(string(data))
			return nil
		},
	}

	cmd.Flags().BoolVar(&effective, "effective", false, "Read the effective copy even when a draft exists")
	return cmd
}
