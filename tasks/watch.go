package tasks

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// InboxEvent reports a task file arriving in or leaving an inbox.
type InboxEvent struct {
	// TaskFile is the base name of the task file.
	TaskFile string
	// Removed is true when the task left the inbox.
	Removed bool
}

// WatchInbox follows an inbox directory and sends an InboxEvent for each
// task file created or removed, until ctx is cancelled. Non-task files
// are ignored.
func WatchInbox(ctx context.Context, inboxDir string, events chan<- InboxEvent) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(inboxDir); err != nil {
		return fmt.Errorf("watch inbox: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if !strings.HasPrefix(name, "task-") || !strings.HasSuffix(name, ".md") {
				continue
			}
			switch {
			case ev.Has(fsnotify.Create):
				events <- InboxEvent{TaskFile: name}
			case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
				events <- InboxEvent{TaskFile: name, Removed: true}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch inbox: %w", err)
		}
	}
}
