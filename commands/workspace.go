package commands

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/qms/auth"
)

func newWorkspaceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "workspace [USER]",
		Short: "List the documents in your workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("workspace"); err != nil {
				return err
			}

			target := env.User
			if len(args) == 1 {
				target = strings.ToLower(args[0])
			}
			if err := auth.VerifyFolderAccess(env.User, target); err != nil {
				return err
			}

			dir := env.Project.WorkspaceDirPath(target)
			entries, err := os.ReadDir(dir)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Printf("Workspace for %s is empty\n", target)
					return nil
				}
				return fmt.Errorf("read workspace: %w", err)
			}

			var names []string
			for _, entry := range entries {
				if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
					continue
				}
				names = append(names, entry.Name())
			}
			if len(names) == 0 {
				fmt.Printf("Workspace for %s is empty\n", target)
				return nil
			}

			sort.Strings(names)
			fmt.Printf("Workspace for %s (%d document(s)):\n", target, len(names))
			for _, name := range names {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}
}
