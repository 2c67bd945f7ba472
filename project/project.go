// Package project locates the QMS project root and computes every
// canonical path in the layout. All paths derive from a single Project
// value threaded explicitly through the callers; nothing here keeps
// global state.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/c360studio/qms/registry"
)

// Filesystem layout constants.
const (
	ConfigFile     = "qms.config.json"
	QMSDir         = "QMS"
	MetaDir        = ".meta"
	AuditDir       = ".audit"
	ArchiveDir     = ".archive"
	UsersDir       = ".claude/users"
	AgentsDir      = ".claude/agents"
	WorkspaceDir   = "workspace"
	InboxDir       = "inbox"
	NamespacesFile = "sdlc_namespaces.json"
)

// ErrUninitialized is returned when no project root can be found. Only
// the init command may proceed without a root.
var ErrUninitialized = errors.New("no QMS project found (run 'qms init' or move into an initialized project)")

// Config is the qms.config.json schema. The file doubles as the project
// root marker.
type Config struct {
	// Version is the config schema version.
	Version string `json:"version"`
	// Created is the ISO-8601 timestamp of initialization.
	Created string `json:"created"`
	// SDLCNamespaces is retained for compatibility; the authoritative
	// namespace list lives in QMS/.meta/sdlc_namespaces.json.
	SDLCNamespaces []string `json:"sdlc_namespaces"`
}

// NewConfig returns a fresh config stamped with the current UTC time.
func NewConfig() Config {
	return Config{
		Version:        "1.0",
		Created:        time.Now().UTC().Format(time.RFC3339),
		SDLCNamespaces: []string{},
	}
}

// Project binds a discovered root directory to the type registry loaded
// from it.
type Project struct {
	// Root is the absolute project root directory.
	Root string
	// Registry resolves document types and namespaces.
	Registry *registry.Registry
}

// FindRoot walks upward from dir looking for qms.config.json, falling
// back to the first ancestor containing a QMS/ directory.
func FindRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve start directory: %w", err)
	}

	for current := abs; ; current = filepath.Dir(current) {
		if fileExists(filepath.Join(current, ConfigFile)) {
			return current, nil
		}
		if current == filepath.Dir(current) {
			break
		}
	}

	for current := abs; ; current = filepath.Dir(current) {
		if dirExists(filepath.Join(current, QMSDir)) {
			return current, nil
		}
		if current == filepath.Dir(current) {
			break
		}
	}

	return "", ErrUninitialized
}

// Open discovers the project root from the working directory and loads
// its registry.
func Open() (*Project, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	root, err := FindRoot(cwd)
	if err != nil {
		return nil, err
	}
	return At(root), nil
}

// At opens the project rooted at root without discovery.
func At(root string) *Project {
	p := &Project{Root: root}
	p.Registry = registry.Load(p.NamespacesPath())
	return p
}

// QMSRoot returns the QMS/ directory.
func (p *Project) QMSRoot() string {
	return filepath.Join(p.Root, QMSDir)
}

// ArchiveRoot returns the QMS/.archive directory.
func (p *Project) ArchiveRoot() string {
	return filepath.Join(p.QMSRoot(), ArchiveDir)
}

// UsersRoot returns the .claude/users directory.
func (p *Project) UsersRoot() string {
	return filepath.Join(p.Root, filepath.FromSlash(UsersDir))
}

// AgentsRoot returns the .claude/agents directory.
func (p *Project) AgentsRoot() string {
	return filepath.Join(p.Root, filepath.FromSlash(AgentsDir))
}

// ConfigPath returns the qms.config.json path.
func (p *Project) ConfigPath() string {
	return filepath.Join(p.Root, ConfigFile)
}

// NamespacesPath returns the persisted namespace file path.
func (p *Project) NamespacesPath() string {
	return filepath.Join(p.QMSRoot(), MetaDir, NamespacesFile)
}

// AgentPath returns the agent definition file for a user.
func (p *Project) AgentPath(user string) string {
	return filepath.Join(p.AgentsRoot(), user+".md")
}

// WorkspacePath returns a user's working copy of a document.
func (p *Project) WorkspacePath(user, docID string) string {
	return filepath.Join(p.UsersRoot(), user, WorkspaceDir, docID+".md")
}

// WorkspaceDirPath returns a user's workspace directory.
func (p *Project) WorkspaceDirPath(user string) string {
	return filepath.Join(p.UsersRoot(), user, WorkspaceDir)
}

// InboxPath returns a user's inbox directory.
func (p *Project) InboxPath(user string) string {
	return filepath.Join(p.UsersRoot(), user, InboxDir)
}

// MetaPath returns the metadata JSON path for a document.
func (p *Project) MetaPath(docID string) (string, error) {
	t, err := p.Registry.TypeFor(docID)
	if err != nil {
		return "", err
	}
	return filepath.Join(p.QMSRoot(), MetaDir, t.Name, docID+".json"), nil
}

// AuditPath returns the audit JSONL path for a document.
func (p *Project) AuditPath(docID string) (string, error) {
	t, err := p.Registry.TypeFor(docID)
	if err != nil {
		return "", err
	}
	return filepath.Join(p.QMSRoot(), AuditDir, t.Name, docID+".jsonl"), nil
}

var (
	varParentPattern = regexp.MustCompile(`^((?:CR|INV)-\d+)`)
	tpParentPattern  = regexp.MustCompile(`^(CR-\d+)`)
)

// docDir returns the directory under base holding a document's files.
// Nested types (VAR, TP, ER) live inside the parent document's folder;
// folder-per-doc types get a folder named after the document itself.
func (p *Project) docDir(base, docID string, t registry.Type) string {
	switch t.Name {
	case "VAR":
		if m := varParentPattern.FindStringSubmatch(docID); m != nil {
			parentID := m[1]
			parentType := "CR"
			if len(parentID) > 3 && parentID[:4] == "INV-" {
				parentType = "INV"
			}
			parent, _ := p.Registry.Get(parentType)
			return filepath.Join(base, parent.Path, parentID)
		}
	case "TP", "ER":
		if m := tpParentPattern.FindStringSubmatch(docID); m != nil {
			return filepath.Join(base, t.Path, m[1])
		}
	}
	if t.FolderPerDoc {
		return filepath.Join(base, t.Path, docID)
	}
	return filepath.Join(base, t.Path)
}

// DocPath returns the effective (or draft) document path.
func (p *Project) DocPath(docID string, draft bool) (string, error) {
	t, err := p.Registry.TypeFor(docID)
	if err != nil {
		return "", err
	}
	name := docID + ".md"
	if draft {
		name = docID + "-draft.md"
	}
	return filepath.Join(p.docDir(p.QMSRoot(), docID, t), name), nil
}

// ArchivePath returns the archive location for a specific version.
func (p *Project) ArchivePath(docID, version string) (string, error) {
	t, err := p.Registry.TypeFor(docID)
	if err != nil {
		return "", err
	}
	return filepath.Join(p.docDir(p.ArchiveRoot(), docID, t), fmt.Sprintf("%s-v%s.md", docID, version)), nil
}

// LoadConfig reads qms.config.json from the project root.
func (p *Project) LoadConfig() (Config, error) {
	var cfg Config
	data, err := os.ReadFile(p.ConfigPath())
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// WriteConfig writes qms.config.json to the project root.
func (p *Project) WriteConfig(cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(p.ConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
