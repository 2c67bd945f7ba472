package document

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// templateNoticePattern matches the machine-facing notice comment block
// embedded in TEMPLATE documents. The usage guide that follows it is
// kept on purpose so document authors can read it before deleting it.
var templateNoticePattern = regexp.MustCompile(`(?s)<!--\s*={70,82}\s*TEMPLATE DOCUMENT NOTICE\s*={70,82}\s*.*?={70,82}\s*-->\s*`)

// StripTemplateNotice removes the template notice comment block from a
// body cloned out of a TEMPLATE document.
func StripTemplateNotice(body string) string {
	return templateNoticePattern.ReplaceAllString(body, "")
}

// minimalScaffold is the fallback body when no TEMPLATE document exists
// for a type.
func minimalScaffold(docID, title string) (Frontmatter, string) {
	body := fmt.Sprintf(`# %s: %s

## 1. Purpose

[Describe the purpose of this document]

---

## 2. Scope

[Define what this document covers]

---

## 3. Content

[Main content here]

---

**END OF DOCUMENT**
`, docID, title)
	return Frontmatter{Title: title}, body
}

// LoadTemplate builds the initial frontmatter and body for a new
// document of docType. It clones QMS/TEMPLATE/TEMPLATE-<type>.md when
// present, substituting the title and ID placeholders, and falls back to
// a minimal scaffold otherwise.
//
// Template files carry two frontmatter blocks: the template's own header
// first, then an example header meant for the cloned document. The
// example block is the third fence-delimited segment.
func LoadTemplate(qmsRoot, docType, docID, title string) (Frontmatter, string) {
	templatePath := filepath.Join(qmsRoot, "TEMPLATE", fmt.Sprintf("TEMPLATE-%s.md", docType))

	data, err := os.ReadFile(templatePath)
	if err != nil {
		return minimalScaffold(docID, title)
	}

	parts := strings.Split(string(data), fence)
	if len(parts) < 5 {
		return minimalScaffold(docID, title)
	}

	// parts[3] is the example frontmatter meant for the cloned document;
	// its fields are superseded by the title below, so only the body
	// segments after it are kept.
	body := strings.Join(parts[4:], fence)

	body = StripTemplateNotice(body)
	body = strings.ReplaceAll(body, "{{TITLE}}", title)
	body = strings.ReplaceAll(body, docType+"-XXX", docID)

	fm := Frontmatter{
		Title:           title,
		RevisionSummary: "Initial draft",
	}
	return fm, strings.TrimSpace(body) + "\n"
}
