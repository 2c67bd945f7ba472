package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/c360studio/qms/workflow"
)

func newCancelCommand() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "cancel DOC-ID",
		Short: "Cancel a never-effective document and remove its artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("cancel"); err != nil {
				return err
			}

			docID := args[0]
			m, err := env.loadMeta(docID)
			if err != nil {
				return err
			}

			major, _, err := workflow.ParseVersion(m.Version)
			if err != nil {
				return err
			}
			if major >= 1 {
				return fmt.Errorf("%w: %s is v%s", ErrVersionTooHigh, docID, m.Version)
			}
			if m.CheckedOut {
				return fmt.Errorf("%w: %s must be checked in before cancelling", ErrCheckedOut, docID)
			}
			if !confirm {
				return fmt.Errorf("cancel permanently deletes %s and its history; re-run with --confirm", docID)
			}

			draftPath, err := env.Project.DocPath(docID, true)
			if err != nil {
				return err
			}
			effectivePath, err := env.Project.DocPath(docID, false)
			if err != nil {
				return err
			}
			for _, path := range []string{draftPath, effectivePath} {
				if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("remove %s: %w", path, err)
				}
			}

			if err := removeWorkspaceCopies(env, docID); err != nil {
				return err
			}
			if _, err := env.Tasks.DeleteAllTasks(docID); err != nil {
				return err
			}
			if err := env.Meta.Delete(docID); err != nil {
				return err
			}
			if err := env.Audit.Delete(docID); err != nil {
				return err
			}

			// Folder-per-doc types leave an empty directory behind; sweep
			// it only if nothing else lives there.
			if t, err := env.Project.Registry.TypeFor(docID); err == nil && t.FolderPerDoc {
				_ = os.Remove(filepath.Dir(draftPath))
			}

			fmt.Printf("Cancelled %s; all artifacts removed\n", docID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm permanent deletion")
	return cmd
}

// removeWorkspaceCopies deletes every user's workspace copy of a
// document.
func removeWorkspaceCopies(env *Env, docID string) error {
	users, err := os.ReadDir(env.Project.UsersRoot())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("list users: %w", err)
	}
	for _, user := range users {
		if !user.IsDir() {
			continue
		}
		path := env.Project.WorkspacePath(user.Name(), docID)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove workspace copy %s: %w", path, err)
		}
	}
	return nil
}
