package pathutil

import (
	"path/filepath"
	"strings"
)

// NormalizePath converts Windows-style separators to the current platform's separator
// and cleans the resulting path.
func NormalizePath(p string) string {
	if p == "" {
		return ""
	}

	replaced := strings.ReplaceAll(p, "\\", "/")
	return filepath.Clean(filepath.FromSlash(replaced))
}

// ArchiveRelative returns the path to target relative to the archive root.
// The returned path always uses forward slashes.
func ArchiveRelative(root, target string) (string, error) {
	base := NormalizePath(root)
	cleanedTarget := NormalizePath(target)

	rel, err := filepath.Rel(base, cleanedTarget)
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(rel), nil
}

// ArchiveRelativeFolder returns the slash-separated folder containing target,
// relative to the archive root. Files directly under the root yield "".
func ArchiveRelativeFolder(root, target string) (string, error) {
	rel, err := ArchiveRelative(root, target)
	if err != nil {
		return "", err
	}

	dir := strings.TrimPrefix(filepath.ToSlash(filepath.Dir(filepath.FromSlash(rel))), "./")
	if dir == "." {
		return "", nil
	}
	return dir, nil
}

// CleanFolder normalizes a user supplied folder filter into the form produced
// by ArchiveRelativeFolder: forward slashes, no leading "./" and no leading or
// trailing separators. The archive root itself becomes "".
func CleanFolder(folder string) string {
	cleaned := strings.TrimSpace(strings.ReplaceAll(folder, "\\", "/"))
	if cleaned == "" {
		return ""
	}
	cleaned = filepath.ToSlash(filepath.Clean(filepath.FromSlash(cleaned)))
	cleaned = strings.Trim(cleaned, "/")
	if cleaned == "." {
		return ""
	}
	return strings.TrimPrefix(cleaned, "./")
}

// HasSegmentPrefix reports whether path equals prefix or lives below it,
// comparing whole path segments. "ab/c" does not have the prefix "a".
func HasSegmentPrefix(path, prefix string) bool {
	if prefix == "" {
		return true
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

// Within reports whether target resolves to a location inside root.
func Within(root, target string) bool {
	rel, err := filepath.Rel(NormalizePath(root), NormalizePath(target))
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel != ".." && !strings.HasPrefix(rel, "../")
}
