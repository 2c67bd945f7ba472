package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProject(t *testing.T) *Project {
	t.Helper()
	return At(t.TempDir())
}

func TestFindRoot_ConfigMarker(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFile), []byte("{}"), 0644))

	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0755))

	got, err := FindRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestFindRoot_QMSDirFallback(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, QMSDir), 0755))

	nested := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(nested, 0755))

	got, err := FindRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestFindRoot_Uninitialized(t *testing.T) {
	_, err := FindRoot(t.TempDir())
	assert.ErrorIs(t, err, ErrUninitialized)
}

func TestDocPath_Layout(t *testing.T) {
	p := newTestProject(t)

	tests := []struct {
		docID string
		draft bool
		want  string
	}{
		{"SOP-001", false, "QMS/SOP/SOP-001.md"},
		{"SOP-001", true, "QMS/SOP/SOP-001-draft.md"},
		{"CR-028", true, "QMS/CR/CR-028/CR-028-draft.md"},
		{"INV-003", false, "QMS/INV/INV-003/INV-003.md"},
		{"CR-028-TP-001", true, "QMS/CR/CR-028/CR-028-TP-001-draft.md"},
		{"CR-028-TP-ER-001", false, "QMS/CR/CR-028/CR-028-TP-ER-001.md"},
		{"CR-028-VAR-001", false, "QMS/CR/CR-028/CR-028-VAR-001.md"},
		{"INV-003-VAR-002", true, "QMS/INV/INV-003/INV-003-VAR-002-draft.md"},
		{"TEMPLATE-SOP", false, "QMS/TEMPLATE/TEMPLATE-SOP.md"},
		{"SDLC-FLOW-RS", true, "QMS/SDLC-FLOW/SDLC-FLOW-RS-draft.md"},
	}

	for _, tt := range tests {
		t.Run(tt.docID, func(t *testing.T) {
			got, err := p.DocPath(tt.docID, tt.draft)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(p.Root, filepath.FromSlash(tt.want)), got)
		})
	}
}

func TestMetaAndAuditPaths(t *testing.T) {
	p := newTestProject(t)

	metaPath, err := p.MetaPath("CR-028-TP-001")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(p.QMSRoot(), MetaDir, "TP", "CR-028-TP-001.json"), metaPath)

	auditPath, err := p.AuditPath("SOP-001")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(p.QMSRoot(), AuditDir, "SOP", "SOP-001.jsonl"), auditPath)
}

func TestArchivePath(t *testing.T) {
	p := newTestProject(t)

	got, err := p.ArchivePath("CR-028", "1.0")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(p.ArchiveRoot(), "CR", "CR-028", "CR-028-v1.0.md"), got)

	got, err = p.ArchivePath("SOP-001", "0.1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(p.ArchiveRoot(), "SOP", "SOP-001-v0.1.md"), got)
}

func TestUserPaths(t *testing.T) {
	p := newTestProject(t)

	assert.Equal(t, filepath.Join(p.Root, ".claude", "users", "alice", "workspace", "SOP-001.md"),
		p.WorkspacePath("alice", "SOP-001"))
	assert.Equal(t, filepath.Join(p.Root, ".claude", "users", "alice", "inbox"),
		p.InboxPath("alice"))
	assert.Equal(t, filepath.Join(p.Root, ".claude", "agents", "alice.md"),
		p.AgentPath("alice"))
}

func TestConfigRoundTrip(t *testing.T) {
	p := newTestProject(t)

	cfg := NewConfig()
	require.NoError(t, p.WriteConfig(cfg))

	loaded, err := p.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, cfg.Version, loaded.Version)
	assert.Equal(t, cfg.Created, loaded.Created)
}

func TestNextNumber(t *testing.T) {
	p := newTestProject(t)

	n, err := p.NextNumber("SOP")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "empty directory starts at 1")

	sopDir := filepath.Join(p.QMSRoot(), "SOP")
	require.NoError(t, os.MkdirAll(sopDir, 0755))
	for _, name := range []string{"SOP-001.md", "SOP-003-draft.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(sopDir, name), []byte("x"), 0644))
	}

	n, err = p.NextNumber("SOP")
	require.NoError(t, err)
	assert.Equal(t, 4, n, "draft files count toward the scan")
}

func TestNextNumber_CountsDirectories(t *testing.T) {
	p := newTestProject(t)

	require.NoError(t, os.MkdirAll(filepath.Join(p.QMSRoot(), "CR", "CR-007"), 0755))
	n, err := p.NextNumber("CR")
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestNextNestedNumber(t *testing.T) {
	p := newTestProject(t)

	crDir := filepath.Join(p.QMSRoot(), "CR", "CR-028")
	require.NoError(t, os.MkdirAll(crDir, 0755))
	for _, name := range []string{"CR-028-draft.md", "CR-028-TP-001.md", "CR-028-VAR-002-draft.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(crDir, name), []byte("x"), 0644))
	}

	n, err := p.NextNestedNumber("CR-028", "TP")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = p.NextNestedNumber("CR-028", "VAR")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = p.NextNestedNumber("CR-028", "TP-ER")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFormatID(t *testing.T) {
	assert.Equal(t, "SOP-001", FormatID("SOP", 1))
	assert.Equal(t, "CR-028-VAR-012", FormatID("CR-028-VAR", 12))
	assert.Equal(t, "CR-1000", FormatID("CR", 1000))
}
