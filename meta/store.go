package meta

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/c360studio/qms/project"
)

// Store reads and writes document metadata under QMS/.meta.
type Store struct {
	p *project.Project
}

// NewStore creates a metadata store for the project.
func NewStore(p *project.Project) *Store {
	return &Store{p: p}
}

// Load reads a document's metadata. A missing file returns ErrNotFound.
func (s *Store) Load(docID string) (*Meta, error) {
	path, err := s.p.MetaPath(docID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, docID)
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse metadata for %s: %w", docID, err)
	}
	return &m, nil
}

// Exists reports whether a document has a metadata file.
func (s *Store) Exists(docID string) bool {
	path, err := s.p.MetaPath(docID)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Save writes metadata atomically: marshal to a uniquely named sibling,
// then rename into place so a crash never leaves a torn file.
func (s *Store) Save(m *Meta) error {
	path, err := s.p.MetaPath(m.DocID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit metadata: %w", err)
	}
	return nil
}

// Delete removes a document's metadata file. Used by cancel only.
func (s *Store) Delete(docID string) error {
	path, err := s.p.MetaPath(docID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete metadata: %w", err)
	}
	return nil
}
