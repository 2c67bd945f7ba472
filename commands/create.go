package commands

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/qms/audit"
	"github.com/c360studio/qms/document"
	"github.com/c360studio/qms/meta"
	"github.com/c360studio/qms/project"
)

func newCreateCommand() *cobra.Command {
	var (
		title    string
		parentID string
		name     string
	)

	cmd := &cobra.Command{
		Use:   "create TYPE",
		Short: "Create a new document from its template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("create"); err != nil {
				return err
			}

			docType := strings.ToUpper(args[0])
			if title == "" {
				return fmt.Errorf("--title is required")
			}

			docID, err := allocateID(env, docType, parentID, name)
			if err != nil {
				return err
			}
			if env.Meta.Exists(docID) {
				return fmt.Errorf("%w: %s", ErrDocumentExists, docID)
			}

			t, _ := env.Project.Registry.Get(docType)
			fm, body := document.LoadTemplate(env.Project.QMSRoot(), docType, docID, title)

			draftPath, err := env.Project.DocPath(docID, true)
			if err != nil {
				return err
			}
			if _, err := os.Stat(draftPath); err == nil {
				return fmt.Errorf("%w: draft exists at %s", ErrDocumentExists, draftPath)
			}

			if err := document.WriteMinimal(draftPath, fm, body); err != nil {
				return err
			}
			if err := document.WriteMinimal(env.Project.WorkspacePath(env.User, docID), fm, body); err != nil {
				return err
			}

			m := meta.NewInitial(docID, t.Name, t.Executable, env.User)
			if err := env.Meta.Save(m); err != nil {
				return err
			}

			e := audit.NewEvent(audit.EventCreate, env.User, m.Version)
			e.Title = title
			if err := env.Audit.Append(docID, e); err != nil {
				return err
			}

			fmt.Printf("Created %s v%s (%s)\n", docID, m.Version, title)
			fmt.Printf("  Draft: %s\n", draftPath)
			fmt.Printf("  Workspace copy: %s\n", env.Project.WorkspacePath(env.User, docID))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Document title (required)")
	cmd.Flags().StringVar(&parentID, "parent", "", "Parent document ID (TP, ER, VAR)")
	cmd.Flags().StringVar(&name, "name", "", "Template name (TEMPLATE only)")
	return cmd
}

var crPrefixPattern = regexp.MustCompile(`^CR-\d+`)

// allocateID derives the next document ID for a type. Flat types take
// the next sequence number in their directory, nested types number
// within the parent's folder, singletons have fixed IDs, and templates
// are name-based.
func allocateID(env *Env, docType, parentID, name string) (string, error) {
	t, ok := env.Project.Registry.Get(docType)
	if !ok {
		return "", fmt.Errorf("unknown document type %q", docType)
	}

	switch {
	case t.Singleton:
		return t.Prefix, nil

	case docType == "TEMPLATE":
		if name == "" {
			return "", fmt.Errorf("--name is required for TEMPLATE documents")
		}
		return "TEMPLATE-" + strings.ToUpper(name), nil

	case docType == "TP":
		crID, err := requireParent(env, parentID, "CR")
		if err != nil {
			return "", err
		}
		n, err := env.Project.NextNestedNumber(crID, "TP")
		if err != nil {
			return "", err
		}
		return project.FormatID(crID+"-TP", n), nil

	case docType == "ER":
		// An ER hangs off a test protocol; the parent may be given as
		// the TP or its owning CR, the ID numbers within the CR folder.
		if parentID == "" {
			return "", fmt.Errorf("--parent is required for ER documents (the owning TP or CR)")
		}
		crID := crPrefixPattern.FindString(parentID)
		if crID == "" {
			return "", fmt.Errorf("ER parent must be a CR or TP, got %s", parentID)
		}
		n, err := env.Project.NextNestedNumber(crID, "TP-ER")
		if err != nil {
			return "", err
		}
		return project.FormatID(crID+"-TP-ER", n), nil

	case docType == "VAR":
		if parentID == "" {
			return "", fmt.Errorf("--parent is required for VAR documents (the owning CR or INV)")
		}
		pt, err := env.Project.Registry.TypeFor(parentID)
		if err != nil {
			return "", err
		}
		if pt.Name != "CR" && pt.Name != "INV" {
			return "", fmt.Errorf("VAR parent must be a CR or INV, got %s", parentID)
		}
		n, err := env.Project.NextNestedNumber(parentID, "VAR")
		if err != nil {
			return "", err
		}
		return project.FormatID(parentID+"-VAR", n), nil

	default:
		n, err := env.Project.NextNumber(docType)
		if err != nil {
			return "", err
		}
		return project.FormatID(t.Prefix, n), nil
	}
}

func requireParent(env *Env, parentID, wantType string) (string, error) {
	if parentID == "" {
		return "", fmt.Errorf("--parent is required (the owning %s)", wantType)
	}
	pt, err := env.Project.Registry.TypeFor(parentID)
	if err != nil {
		return "", err
	}
	if pt.Name != wantType {
		return "", fmt.Errorf("parent must be a %s, got %s", wantType, parentID)
	}
	return parentID, nil
}
