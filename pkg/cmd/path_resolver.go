package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Paintersrp/chatseek/internal/state"
)

// ResolveArchivePath maps a user supplied path onto a slash-separated path
// relative to the active archive. Absolute paths must lie inside the archive.
func ResolveArchivePath(s *state.State, arg string) (string, error) {
	if s == nil || s.Config == nil {
		return "", fmt.Errorf("state configuration is not initialized")
	}
	_, ws := s.Current()
	archiveDir := strings.TrimSpace(ws.ArchiveDir)
	if archiveDir == "" {
		return "", fmt.Errorf("archive directory is not configured")
	}
	archiveDir = filepath.Clean(archiveDir)
	if strings.TrimSpace(arg) == "" {
		return "", fmt.Errorf("a path argument is required")
	}

	var resolved string
	if filepath.IsAbs(arg) {
		resolved = filepath.Clean(arg)
	} else {
		resolved = filepath.Join(archiveDir, filepath.Clean(arg))
	}

	rel, err := ensureWithinArchive(archiveDir, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func ensureWithinArchive(archiveDir, resolved string) (string, error) {
	rel, err := filepath.Rel(archiveDir, resolved)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %q relative to archive %q: %w", resolved, archiveDir, err)
	}

	if rel == "." {
		return "", fmt.Errorf("path %q is the archive root, not a document", resolved)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside the archive %q", resolved, archiveDir)
	}

	return rel, nil
}
