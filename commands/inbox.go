package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/qms/auth"
	"github.com/c360studio/qms/tasks"
)

func newInboxCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "inbox [USER]",
		Short: "List your pending tasks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("inbox"); err != nil {
				return err
			}

			target := env.User
			if len(args) == 1 {
				target = strings.ToLower(args[0])
			}
			if err := auth.VerifyFolderAccess(env.User, target); err != nil {
				return err
			}

			inbox := env.Project.InboxPath(target)
			if err := listInbox(inbox, target); err != nil {
				return err
			}
			if !watch {
				return nil
			}

			if err := os.MkdirAll(inbox, 0755); err != nil {
				return fmt.Errorf("create inbox: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			events := make(chan tasks.InboxEvent)
			errc := make(chan error, 1)
			go func() {
				errc <- tasks.WatchInbox(ctx, inbox, events)
			}()

			fmt.Println("Watching inbox (interrupt to stop)")
			for {
				select {
				case ev := <-events:
					if ev.Removed {
						fmt.Printf("  - %s\n", ev.TaskFile)
					} else {
						fmt.Printf("  + %s\n", ev.TaskFile)
					}
				case err := <-errc:
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
			}
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep watching for new tasks")
	return cmd
}

func listInbox(inbox, user string) error {
	entries, err := os.ReadDir(inbox)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("Inbox for %s is empty\n", user)
			return nil
		}
		return fmt.Errorf("read inbox: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "task-") || !strings.HasSuffix(name, ".md") {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		fmt.Printf("Inbox for %s is empty\n", user)
		return nil
	}

	sort.Strings(names)
	fmt.Printf("Inbox for %s (%d task(s)):\n", user, len(names))
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}
	return nil
}
