// Package tasks turns routing events into review and approval task
// files in assignee inboxes. Task content is rendered from a prompt
// registry keyed by (task type, workflow type, doc type) with wildcard
// fallback, so a document type can sharpen its checklist without
// touching the generator.
package tasks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Task types.
const (
	TaskReview   = "REVIEW"
	TaskApproval = "APPROVAL"
)

// ChecklistItem is one row of a verification checklist.
type ChecklistItem struct {
	// Category groups items into checklist sections.
	Category string `yaml:"category"`
	// Item is the verification statement.
	Item string `yaml:"item"`
	// EvidencePrompt asks the verifier to quote supporting evidence.
	EvidencePrompt string `yaml:"evidence_prompt,omitempty"`
}

// Section is an extra block appended to a rendered prompt.
type Section struct {
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
}

// PromptConfig is the material a task prompt is rendered from.
type PromptConfig struct {
	ChecklistItems     []ChecklistItem `yaml:"checklist_items"`
	CriticalReminders  []string        `yaml:"critical_reminders"`
	AdditionalSections []Section       `yaml:"additional_sections,omitempty"`
}

// promptKey addresses one registered config. Empty fields are wildcards.
type promptKey struct {
	taskType     string
	workflowType string
	docType      string
}

// PromptRegistry holds prompt configurations and resolves the most
// specific one for a context.
type PromptRegistry struct {
	configs map[promptKey]PromptConfig
}

// NewPromptRegistry builds a registry preloaded with the defaults.
func NewPromptRegistry() *PromptRegistry {
	r := &PromptRegistry{configs: map[promptKey]PromptConfig{}}

	r.Register(TaskReview, "", "", defaultReviewConfig())
	r.Register(TaskApproval, "", "", defaultApprovalConfig())
	r.Register(TaskReview, "POST_REVIEW", "CR", crPostReviewConfig())
	r.Register(TaskReview, "REVIEW", "SOP", sopReviewConfig())

	return r
}

// Register stores a config under the given key. Empty strings wildcard.
func (r *PromptRegistry) Register(taskType, workflowType, docType string, cfg PromptConfig) {
	r.configs[promptKey{taskType, workflowType, docType}] = cfg
}

// Config resolves the most specific configuration, falling back through
// (task, workflow, doctype) -> (task, workflow, *) -> (task, *, doctype)
// -> (task, *, *) -> the global review default.
func (r *PromptRegistry) Config(taskType, workflowType, docType string) PromptConfig {
	order := []promptKey{
		{taskType, workflowType, docType},
		{taskType, workflowType, ""},
		{taskType, "", docType},
		{taskType, "", ""},
		{"", "", ""},
	}
	for _, key := range order {
		if cfg, ok := r.configs[key]; ok {
			return cfg
		}
	}
	return defaultReviewConfig()
}

// LoadOverrides merges external prompt files from
// <dir>/<review|approval>/[<workflow_lower>/]<doctype_lower>.yaml.
// Files that fail to parse are skipped with an error only for I/O
// problems; a missing directory is not an error.
func (r *PromptRegistry) LoadOverrides(dir string) error {
	for _, taskType := range []string{TaskReview, TaskApproval} {
		base := filepath.Join(dir, strings.ToLower(taskType))
		entries, err := os.ReadDir(base)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("read prompt directory: %w", err)
		}

		for _, entry := range entries {
			if entry.IsDir() {
				workflow := strings.ToUpper(entry.Name())
				sub, err := os.ReadDir(filepath.Join(base, entry.Name()))
				if err != nil {
					return fmt.Errorf("read prompt directory: %w", err)
				}
				for _, f := range sub {
					if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
						continue
					}
					docType := strings.ToUpper(strings.TrimSuffix(f.Name(), ".yaml"))
					if err := r.loadFile(filepath.Join(base, entry.Name(), f.Name()), taskType, workflow, docType); err != nil {
						return err
					}
				}
				continue
			}
			if !strings.HasSuffix(entry.Name(), ".yaml") {
				continue
			}
			docType := strings.ToUpper(strings.TrimSuffix(entry.Name(), ".yaml"))
			if err := r.loadFile(filepath.Join(base, entry.Name()), taskType, "", docType); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *PromptRegistry) loadFile(path, taskType, workflowType, docType string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read prompt file %s: %w", path, err)
	}
	var cfg PromptConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse prompt file %s: %w", path, err)
	}
	r.Register(taskType, workflowType, docType, cfg)
	return nil
}

// Default configurations. The checklist language is deliberately binary:
// a single failed item means reject.

func frontmatterChecks() []ChecklistItem {
	return []ChecklistItem{
		{Category: "Frontmatter", Item: "`title:` field present and non-empty", EvidencePrompt: "quote actual value"},
		{Category: "Frontmatter", Item: "`revision_summary:` present (required for v1.0+)", EvidencePrompt: "quote actual value or N/A"},
		{Category: "Frontmatter", Item: "`revision_summary:` begins with CR ID (e.g., \"CR-XXX:\")", EvidencePrompt: "quote CR ID or N/A"},
	}
}

func structureChecks() []ChecklistItem {
	return []ChecklistItem{
		{Category: "Document Structure", Item: "Document follows type-specific template"},
		{Category: "Document Structure", Item: "All required sections present"},
		{Category: "Document Structure", Item: "Section numbering sequential and correct"},
	}
}

func contentChecks() []ChecklistItem {
	return []ChecklistItem{
		{Category: "Content Integrity", Item: "No placeholder text (TBD, TODO, XXX, FIXME)"},
		{Category: "Content Integrity", Item: "No obvious factual errors or contradictions"},
		{Category: "Content Integrity", Item: "References to other documents are valid"},
		{Category: "Content Integrity", Item: "No typos or grammatical errors"},
		{Category: "Content Integrity", Item: "Formatting consistent throughout"},
	}
}

func reviewReminders() []string {
	return []string{
		"**Compliance is BINARY**: Document is either compliant or non-compliant",
		"**ONE FAILED ITEM = REJECT**: No exceptions, no \"minor issues\"",
		"**VERIFY WITH EVIDENCE**: Quote actual values, do not assume",
		"**REJECTION IS CORRECT**: A rejected document prevents nonconformance",
	}
}

func defaultReviewConfig() PromptConfig {
	items := frontmatterChecks()
	items = append(items, structureChecks()...)
	items = append(items, contentChecks()...)
	return PromptConfig{ChecklistItems: items, CriticalReminders: reviewReminders()}
}

func defaultApprovalConfig() PromptConfig {
	return PromptConfig{
		ChecklistItems: []ChecklistItem{
			{Category: "Pre-Approval", Item: "Frontmatter complete (title, revision_summary with CR ID if v1.0+)"},
			{Category: "Pre-Approval", Item: "All review findings from previous cycle addressed"},
			{Category: "Pre-Approval", Item: "No new deficiencies introduced since review"},
			{Category: "Pre-Approval", Item: "Document is 100% compliant with all requirements"},
		},
		CriticalReminders: []string{
			"An incorrectly approved document creates **nonconformance**",
			"A rejected document creates a **correction cycle** (much lower cost)",
			"**Rejection is always the safer choice**",
			"You are the final gatekeeper - if you miss something, it becomes effective",
		},
	}
}

func crPostReviewConfig() PromptConfig {
	cfg := defaultReviewConfig()
	cfg.ChecklistItems = append(cfg.ChecklistItems,
		ChecklistItem{Category: "Execution Compliance", Item: "All execution items (EIs) have Pass/Fail outcomes"},
		ChecklistItem{Category: "Execution Compliance", Item: "Execution summaries describe what was done"},
		ChecklistItem{Category: "Execution Compliance", Item: "All EIs have performer and date"},
		ChecklistItem{Category: "Execution Compliance", Item: "VARs attached for any failed EIs"},
	)
	cfg.CriticalReminders = append(cfg.CriticalReminders,
		"**EXECUTION VERIFICATION IS CRITICAL**: All EIs must have outcomes",
		"Missing EI data = incomplete execution = REJECT",
	)
	return cfg
}

func sopReviewConfig() PromptConfig {
	cfg := defaultReviewConfig()
	cfg.ChecklistItems = append(cfg.ChecklistItems,
		ChecklistItem{Category: "Procedure Content", Item: "Responsibilities section defines all roles"},
		ChecklistItem{Category: "Procedure Content", Item: "Procedure steps are numbered and unambiguous"},
		ChecklistItem{Category: "Procedure Content", Item: "References section lists all dependencies"},
	)
	return cfg
}
