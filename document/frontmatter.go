// Package document reads and writes QMS markdown documents. Documents
// open with a YAML frontmatter block between --- fences followed by the
// body. Files stored in the QMS tree carry only the author-maintained
// fields (title, revision_summary); all workflow state lives in metadata.
package document

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const fence = "---"

// Frontmatter is the minimal author-maintained header written to every
// QMS-stored document and workspace copy.
type Frontmatter struct {
	// Title is the document title. Required.
	Title string `yaml:"title"`
	// RevisionSummary describes the current revision. Optional.
	RevisionSummary string `yaml:"revision_summary,omitempty"`
}

// Parse splits raw markdown into its frontmatter map and body. Content
// without a leading fence is returned as an empty map plus the full
// content. A fence that fails to parse as YAML is treated the same way.
func Parse(content string) (map[string]any, string) {
	if !strings.HasPrefix(content, fence+"\n") && content != fence {
		return map[string]any{}, content
	}

	rest := strings.TrimPrefix(content, fence+"\n")
	idx := strings.Index(rest, "\n"+fence)
	if idx < 0 {
		return map[string]any{}, content
	}

	header := rest[:idx]
	body := rest[idx+len("\n"+fence):]
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimPrefix(body, "\n")

	fm := map[string]any{}
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return map[string]any{}, content
	}
	if fm == nil {
		fm = map[string]any{}
	}
	return fm, body
}

// ReadFile reads and parses a document from disk.
func ReadFile(path string) (map[string]any, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read document: %w", err)
	}
	fm, body := Parse(string(data))
	return fm, body, nil
}

// Minimal extracts the author-maintained fields from a parsed
// frontmatter map, dropping everything else.
func Minimal(fm map[string]any) Frontmatter {
	out := Frontmatter{}
	if title, ok := fm["title"].(string); ok {
		out.Title = title
	}
	if summary, ok := fm["revision_summary"].(string); ok {
		out.RevisionSummary = summary
	}
	return out
}

// Serialize renders a document with its frontmatter fence and body.
func Serialize(fm Frontmatter, body string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(fence + "\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}

	buf.WriteString(fence + "\n\n")
	buf.WriteString(body)
	return buf.String(), nil
}

// WriteMinimal writes a document keeping only the author-maintained
// frontmatter fields. Parent directories are created as needed.
func WriteMinimal(path string, fm Frontmatter, body string) error {
	content, err := Serialize(fm, body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create document directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// CopyMinimal reads a document from src and rewrites it at dst through
// the minimal-write path, stripping any workflow fields an editor left
// in the frontmatter.
func CopyMinimal(src, dst string) error {
	fm, body, err := ReadFile(src)
	if err != nil {
		return err
	}
	return WriteMinimal(dst, Minimal(fm), body)
}
