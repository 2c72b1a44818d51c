package pathutil

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestArchiveRelativeReturnsForwardSlashes(t *testing.T) {
	rootParts := []string{"home", "user", "archive"}
	fileParts := append(append([]string{}, rootParts...), "subdir", "file.md")

	posixRoot := filepath.Join(rootParts...)
	posixFile := filepath.Join(fileParts...)

	rel, err := ArchiveRelative(posixRoot, posixFile)
	if err != nil {
		t.Fatalf("ArchiveRelative returned error for POSIX paths: %v", err)
	}
	if rel != "subdir/file.md" {
		t.Fatalf("expected relative path 'subdir/file.md', got %q", rel)
	}

	windowsRoot := strings.ReplaceAll(posixRoot, string(filepath.Separator), "\\")
	windowsFile := strings.ReplaceAll(posixFile, string(filepath.Separator), "\\")

	rel, err = ArchiveRelative(windowsRoot, windowsFile)
	if err != nil {
		t.Fatalf("ArchiveRelative returned error for Windows paths: %v", err)
	}
	if rel != "subdir/file.md" {
		t.Fatalf("expected relative path 'subdir/file.md', got %q", rel)
	}
}

func TestArchiveRelativeFolderHandlesRootAndNested(t *testing.T) {
	root := filepath.Join("archive")

	folder, err := ArchiveRelativeFolder(root, filepath.Join("archive", "root.md"))
	if err != nil {
		t.Fatalf("ArchiveRelativeFolder returned error for root file: %v", err)
	}
	if folder != "" {
		t.Fatalf("expected empty folder for root file, got %q", folder)
	}

	folder, err = ArchiveRelativeFolder(root, filepath.Join("archive", "sub", "dir", "note.md"))
	if err != nil {
		t.Fatalf("ArchiveRelativeFolder returned error for nested file: %v", err)
	}
	if folder != "sub/dir" {
		t.Fatalf("expected folder 'sub/dir', got %q", folder)
	}
}

func TestCleanFolder(t *testing.T) {
	cases := map[string]string{
		"":           "",
		".":          "",
		"./":         "",
		"a":          "a",
		"./a/b/":     "a/b",
		"/a/b":       "a/b",
		"a\\b":       "a/b",
		"  a//b  ":   "a/b",
		"a/./b/../c": "a/c",
	}
	for in, want := range cases {
		if got := CleanFolder(in); got != want {
			t.Fatalf("CleanFolder(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHasSegmentPrefix(t *testing.T) {
	cases := []struct {
		path, prefix string
		want         bool
	}{
		{"a", "a", true},
		{"a/b", "a", true},
		{"ab", "a", false},
		{"ab/c", "a", false},
		{"a", "a/b", false},
		{"anything", "", true},
	}
	for _, tc := range cases {
		if got := HasSegmentPrefix(tc.path, tc.prefix); got != tc.want {
			t.Fatalf("HasSegmentPrefix(%q, %q) = %v, want %v", tc.path, tc.prefix, got, tc.want)
		}
	}
}

func TestWithin(t *testing.T) {
	root := filepath.Join("archive")
	if !Within(root, filepath.Join("archive", "a", "b.md")) {
		t.Fatalf("expected nested path to be within root")
	}
	if Within(root, filepath.Join("archive", "..", "secret.md")) {
		t.Fatalf("expected escaping path to be rejected")
	}
	if Within(root, filepath.Join("archive-other", "x.md")) {
		t.Fatalf("expected sibling directory to be rejected")
	}
}
