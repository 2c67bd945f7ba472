package commands

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/qms/audit"
	"github.com/c360studio/qms/document"
	"github.com/c360studio/qms/meta"
	"github.com/c360studio/qms/project"
	"github.com/c360studio/qms/workflow"
)

// foundDoc is one document discovered by scanning the controlled tree.
type foundDoc struct {
	docID         string
	draftPath     string
	effectivePath string
}

var bodyVersionPattern = regexp.MustCompile(`\*\*Version:\*\* (\d+\.\d+)`)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Backfill metadata and audit logs for unmanaged documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("migrate"); err != nil {
				return err
			}

			docs, err := scanControlledTree(env.Project)
			if err != nil {
				return err
			}

			migrated := 0
			for _, d := range docs {
				if env.Meta.Exists(d.docID) {
					continue
				}
				m, err := reconstructMeta(env.Project, d)
				if err != nil {
					fmt.Printf("  skipping %s: %v\n", d.docID, err)
					continue
				}
				if err := env.Meta.Save(m); err != nil {
					return err
				}

				e := audit.NewEvent(audit.EventCreate, env.User, m.Version)
				e.Reason = "migrated from unmanaged file"
				if err := env.Audit.Append(d.docID, e); err != nil {
					return err
				}
				migrated++
				fmt.Printf("  migrated %s (v%s, %s)\n", d.docID, m.Version, m.Status)
			}

			fmt.Printf("Migration complete: %d document(s) backfilled\n", migrated)
			return nil
		},
	}
}

func newVerifyMigrationCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-migration",
		Short: "Report documents with missing or inconsistent records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("migrate"); err != nil {
				return err
			}

			docs, err := scanControlledTree(env.Project)
			if err != nil {
				return err
			}

			problems := 0
			for _, d := range docs {
				m, err := env.Meta.Load(d.docID)
				if err != nil {
					fmt.Printf("  %s: no metadata record\n", d.docID)
					problems++
					continue
				}
				if err := m.Validate(); err != nil {
					fmt.Printf("  %s: %v\n", d.docID, err)
					problems++
				}
				events, err := env.Audit.Read(d.docID)
				if err != nil {
					return err
				}
				if len(events) == 0 {
					fmt.Printf("  %s: no audit history\n", d.docID)
					problems++
				}
			}

			if problems == 0 {
				fmt.Printf("Verified %d document(s); no problems found\n", len(docs))
				return nil
			}
			return fmt.Errorf("%d problem(s) found across %d document(s)", problems, len(docs))
		},
	}
}

// scanControlledTree walks QMS/ collecting every document file outside
// the dot-directories.
func scanControlledTree(p *project.Project) ([]foundDoc, error) {
	byID := map[string]*foundDoc{}

	err := filepath.WalkDir(p.QMSRoot(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		if !strings.HasSuffix(name, ".md") {
			return nil
		}

		docID := strings.TrimSuffix(name, ".md")
		draft := strings.HasSuffix(docID, "-draft")
		docID = strings.TrimSuffix(docID, "-draft")
		if _, err := p.Registry.TypeFor(docID); err != nil {
			return nil
		}

		entry := byID[docID]
		if entry == nil {
			entry = &foundDoc{docID: docID}
			byID[docID] = entry
		}
		if draft {
			entry.draftPath = path
		} else {
			entry.effectivePath = path
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan controlled tree: %w", err)
	}

	docs := make([]foundDoc, 0, len(byID))
	for _, d := range byID {
		docs = append(docs, *d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].docID < docs[j].docID })
	return docs, nil
}

// reconstructMeta derives a best-effort metadata record from the files
// on disk. An effective file implies the document reached at least v1.0;
// a lone draft is treated as a fresh v0.1.
func reconstructMeta(p *project.Project, d foundDoc) (*meta.Meta, error) {
	t, err := p.Registry.TypeFor(d.docID)
	if err != nil {
		return nil, err
	}

	m := &meta.Meta{
		DocID:            d.docID,
		DocType:          t.Name,
		Version:          "0.1",
		Status:           workflow.StatusDraft,
		Executable:       t.Executable,
		PendingAssignees: []string{},
	}
	if t.Executable {
		m.ExecutionPhase = workflow.PhasePreRelease
	}

	if d.effectivePath != "" {
		version := "1.0"
		if _, body, err := document.ReadFile(d.effectivePath); err == nil {
			if match := bodyVersionPattern.FindStringSubmatch(body); match != nil {
				version = match[1]
			}
		}
		m.Version = version
		m.EffectiveVersion = version
		m.Status = workflow.StatusEffective
		if t.Executable {
			m.Status = workflow.StatusClosed
			m.ExecutionPhase = workflow.PhasePostRelease
		}
	}
	if d.draftPath != "" && d.effectivePath != "" {
		// A draft alongside the effective copy means a revision is open.
		next, err := workflow.BumpMinor(m.EffectiveVersion)
		if err != nil {
			return nil, err
		}
		m.Version = next
		m.Status = workflow.StatusDraft
		if t.Executable {
			m.ExecutionPhase = workflow.PhasePreRelease
		}
	}
	return m, nil
}
