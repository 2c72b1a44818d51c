// Package statetest builds State values backed by temporary directories.
package statetest

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/Paintersrp/chatseek/internal/config"
	"github.com/Paintersrp/chatseek/internal/state"
)

// WriteFile creates path and its parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteArchive writes files, keyed by slash-separated relative path, under a
// new temporary directory and returns it.
func WriteArchive(t testing.TB, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		WriteFile(t, filepath.Join(dir, filepath.FromSlash(name)), content)
	}
	return dir
}

// New returns a State whose single "default" workspace points at
// archiveDir. The config lives in a temporary home directory.
func New(t testing.TB, archiveDir string) *state.State {
	t.Helper()
	home := t.TempDir()

	data, err := yaml.Marshal(map[string]any{
		"current_workspace": "default",
		"workspaces": map[string]any{
			"default": map[string]any{"archive_dir": archiveDir},
		},
	})
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	WriteFile(t, config.GetConfigPath(home), string(data))

	cfg, err := config.Load(home)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	st, err := state.New(cfg, home)
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}
