package e2e

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauern/botsync/internal/model"
)

// Fixture provides helpers for creating test fixtures in E2E tests.
type Fixture struct {
	t       *testing.T
	baseDir string
}

// NewFixture creates a new fixture helper rooted at the given directory.
func NewFixture(t *testing.T, baseDir string) *Fixture {
	t.Helper()
	return &Fixture{
		t:       t,
		baseDir: baseDir,
	}
}

// WriteFile writes content to a file relative to the fixture base directory.
// It creates parent directories as needed.
func (f *Fixture) WriteFile(relPath, content string) string {
	f.t.Helper()
	fullPath := filepath.Join(f.baseDir, relPath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		f.t.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, []byte(content), 0o600); err != nil {
		f.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}

	return fullPath
}

// Path returns the full path for a relative path.
func (f *Fixture) Path(relPath string) string {
	return filepath.Join(f.baseDir, relPath)
}

// Exists returns true if the file or directory exists.
func (f *Fixture) Exists(relPath string) bool {
	f.t.Helper()
	_, err := os.Stat(filepath.Join(f.baseDir, relPath))
	return err == nil
}

// ConfigFixture returns a fixture rooted at the bot's config directory.
func (h *Harness) ConfigFixture() *Fixture {
	h.t.Helper()
	return NewFixture(h.t, h.cfg.Paths.ConfigDir)
}

// WorkspaceFixture returns a fixture rooted at the bot's workspace.
func (h *Harness) WorkspaceFixture() *Fixture {
	h.t.Helper()
	return NewFixture(h.t, h.cfg.Paths.WorkspaceDir)
}

// SeedBotState writes a config file, a local marker and every identity file.
func (h *Harness) SeedBotState(marker string) {
	h.t.Helper()
	cfgDir := h.ConfigFixture()
	cfgDir.WriteFile(model.ConfigFileName, `{"agent":"e2e"}`)
	cfgDir.WriteFile(model.MarkerFileName, marker+"\n")

	ws := h.WorkspaceFixture()
	for _, name := range model.IdentityFiles {
		ws.WriteFile(name, "# "+name+"\n")
	}
}
