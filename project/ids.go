package project

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// NextNumber scans a flat document type's directory and returns the next
// free sequence number. Draft suffixes are ignored so cancelled drafts
// free their IDs.
func (p *Project) NextNumber(docType string) (int, error) {
	t, ok := p.Registry.Get(docType)
	if !ok {
		return 0, fmt.Errorf("unknown document type %q", docType)
	}

	base := filepath.Join(p.QMSRoot(), t.Path)
	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(t.Prefix) + `-(\d+)`)
	return nextFromScan(base, pattern)
}

// NextNestedNumber returns the next free sequence number for a child type
// under a parent document (e.g. CR-028-VAR-001).
func (p *Project) NextNestedNumber(parentID, childType string) (int, error) {
	parentType, err := p.Registry.TypeFor(parentID)
	if err != nil {
		return 0, err
	}

	base := filepath.Join(p.QMSRoot(), parentType.Path)
	if parentType.FolderPerDoc {
		base = filepath.Join(base, parentID)
	}

	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(parentID+"-"+childType) + `-(\d+)`)
	return nextFromScan(base, pattern)
}

// FormatID renders a numbered document ID (SOP-001, CR-028-VAR-002).
func FormatID(prefix string, number int) string {
	return fmt.Sprintf("%s-%03d", prefix, number)
}

func nextFromScan(dir string, pattern *regexp.Regexp) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 1, nil
		}
		return 0, fmt.Errorf("scan %s: %w", dir, err)
	}

	max := 0
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() {
			name = strings.TrimSuffix(name, filepath.Ext(name))
		}
		name = strings.ReplaceAll(name, "-draft", "")

		m := pattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}

	return max + 1, nil
}
