package commands

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/qms/document"
	"github.com/c360studio/qms/workflow"
)

var versionLinePattern = regexp.MustCompile(`(?m)^\*\*Version:\*\* .*$`)

func newFixCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fix DOC-ID",
		Short: "Repair a released document's file to match its metadata",
		Long: "Rewrites the effective file of an EFFECTIVE or CLOSED document: " +
			"stray workflow frontmatter is dropped, the body's Version line is " +
			"synced to the recorded version, and a TBD effective date is stamped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("fix"); err != nil {
				return err
			}

			docID := args[0]
			m, err := env.loadMeta(docID)
			if err != nil {
				return err
			}
			if m.Status != workflow.StatusEffective && m.Status != workflow.StatusClosed {
				return fmt.Errorf("%s is %s; fix applies to EFFECTIVE or CLOSED documents", docID, m.Status)
			}

			path, err := env.Project.DocPath(docID, false)
			if err != nil {
				return err
			}
			fm, body, err := document.ReadFile(path)
			if err != nil {
				return err
			}

			fixed := versionLinePattern.ReplaceAllString(body, "**Version:** "+m.Version)
			fixed = strings.ReplaceAll(fixed, "**Effective Date:** TBD",
				"**Effective Date:** "+time.Now().Format("2006-01-02"))

			if err := document.WriteMinimal(path, document.Minimal(fm), fixed); err != nil {
				return err
			}

			fmt.Printf("Fixed %s: frontmatter minimized, version synced to v%s\n", docID, m.Version)
			return nil
		},
	}
}
