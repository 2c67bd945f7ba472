// Package registry declares the known document types and the dynamic
// SDLC namespace overlay. The registry is built once at startup by
// merging the static table with the persisted namespace file and is
// passed explicitly to anything that needs type information.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ErrUnknownDocType is returned when a document ID matches no registered
// type pattern.
var ErrUnknownDocType = errors.New("unknown document type")

// Type describes one document type.
type Type struct {
	// Name is the registry key (SOP, CR, FLOW-RS, ...).
	Name string
	// Path is the subdirectory under QMS/ holding documents of this type.
	Path string
	// Executable marks types that pass through the execution workflow.
	Executable bool
	// Prefix is the ID prefix used for numbering and scanning.
	Prefix string
	// FolderPerDoc marks types that get a dedicated folder per document.
	FolderPerDoc bool
	// Singleton marks types with exactly one fixed-ID document.
	Singleton bool
	// ParentType names the type a nested document is filed under.
	ParentType string
}

// Namespace is one SDLC namespace entry as persisted on disk.
type Namespace struct {
	// Path is the subdirectory under QMS/ for this namespace.
	Path string `json:"path"`
}

// builtinNamespaces ship with the binary and are never serialized.
func builtinNamespaces() map[string]Namespace {
	return map[string]Namespace{
		"FLOW": {Path: "SDLC-FLOW"},
		"QMS":  {Path: "SDLC-QMS"},
	}
}

// staticTypes is the base document type table.
func staticTypes() map[string]Type {
	return map[string]Type{
		"SOP":      {Name: "SOP", Path: "SOP", Prefix: "SOP"},
		"CR":       {Name: "CR", Path: "CR", Executable: true, Prefix: "CR", FolderPerDoc: true},
		"INV":      {Name: "INV", Path: "INV", Executable: true, Prefix: "INV", FolderPerDoc: true},
		"TP":       {Name: "TP", Path: "CR", Executable: true, Prefix: "TP", ParentType: "CR"},
		"ER":       {Name: "ER", Path: "CR", Executable: true, Prefix: "ER", ParentType: "TP"},
		"VAR":      {Name: "VAR", Path: "CR", Executable: true, Prefix: "VAR"},
		"TEMPLATE": {Name: "TEMPLATE", Path: "TEMPLATE", Prefix: "TEMPLATE"},
	}
}

// Registry resolves document types and SDLC namespaces.
type Registry struct {
	types      map[string]Type
	namespaces map[string]Namespace
}

// New builds a registry from the static table and built-in namespaces only.
func New() *Registry {
	r := &Registry{
		types:      staticTypes(),
		namespaces: builtinNamespaces(),
	}
	r.rebuildNamespaceTypes()
	return r
}

// Load builds a registry, merging namespaces persisted at path. A missing
// or corrupt file falls back to built-ins only.
func Load(path string) *Registry {
	r := New()

	data, err := os.ReadFile(path)
	if err != nil {
		return r
	}
	var persisted map[string]Namespace
	if err := json.Unmarshal(data, &persisted); err != nil {
		return r
	}
	for name, ns := range persisted {
		r.namespaces[name] = ns
	}
	r.rebuildNamespaceTypes()
	return r
}

// rebuildNamespaceTypes regenerates the RS/RTM singleton types for every
// registered namespace.
func (r *Registry) rebuildNamespaceTypes() {
	for name, ns := range r.namespaces {
		for _, suffix := range []string{"RS", "RTM"} {
			typeName := name + "-" + suffix
			r.types[typeName] = Type{
				Name:      typeName,
				Path:      ns.Path,
				Prefix:    fmt.Sprintf("SDLC-%s-%s", name, suffix),
				Singleton: true,
			}
		}
	}
}

// Get returns the type definition for a registry key.
func (r *Registry) Get(name string) (Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Namespaces returns the registered namespaces, built-ins included.
func (r *Registry) Namespaces() map[string]Namespace {
	out := make(map[string]Namespace, len(r.namespaces))
	for k, v := range r.namespaces {
		out[k] = v
	}
	return out
}

// NamespaceNames returns the namespace names in sorted order.
func (r *Registry) NamespaceNames() []string {
	names := make([]string, 0, len(r.namespaces))
	for name := range r.namespaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasNamespace reports whether name is registered.
func (r *Registry) HasNamespace(name string) bool {
	_, ok := r.namespaces[name]
	return ok
}

// AddNamespace registers a new namespace. The caller persists via Save.
func (r *Registry) AddNamespace(name string) error {
	name = strings.ToUpper(name)
	if _, ok := r.namespaces[name]; ok {
		return fmt.Errorf("namespace %q already exists", name)
	}
	r.namespaces[name] = Namespace{Path: "SDLC-" + name}
	r.rebuildNamespaceTypes()
	return nil
}

// Save writes the custom namespaces to path. Built-in entries are merged
// at runtime and deliberately excluded from the file.
func (r *Registry) Save(path string) error {
	builtin := builtinNamespaces()
	custom := map[string]Namespace{}
	for name, ns := range r.namespaces {
		if _, ok := builtin[name]; !ok {
			custom[name] = ns
		}
	}

	data, err := json.MarshalIndent(custom, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal namespaces: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write namespaces: %w", err)
	}
	return nil
}

// TypeFor infers the document type from a document ID. Inference order
// matters: namespace singletons first, then the prefix and infix rules.
func (r *Registry) TypeFor(docID string) (Type, error) {
	for name := range r.namespaces {
		prefix := "SDLC-" + name + "-"
		if strings.HasPrefix(docID, prefix) {
			suffix := strings.TrimPrefix(docID, prefix)
			if suffix == "RS" || suffix == "RTM" {
				return r.types[name+"-"+suffix], nil
			}
		}
	}

	switch {
	case strings.HasPrefix(docID, "SOP-"):
		return r.types["SOP"], nil
	case strings.HasPrefix(docID, "TEMPLATE-"):
		return r.types["TEMPLATE"], nil
	case strings.Contains(docID, "-TP-ER-"):
		return r.types["ER"], nil
	case strings.Contains(docID, "-TP-"):
		return r.types["TP"], nil
	case strings.Contains(docID, "-VAR-"):
		return r.types["VAR"], nil
	case strings.HasPrefix(docID, "CR-"):
		return r.types["CR"], nil
	case strings.HasPrefix(docID, "INV-"):
		return r.types["INV"], nil
	}

	return Type{}, fmt.Errorf("%w: %s", ErrUnknownDocType, docID)
}
