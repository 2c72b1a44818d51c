package search

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeNote(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
	return path
}

func TestLoadDocumentSplitsFrontMatter(t *testing.T) {
	dir := t.TempDir()
	path := writeNote(t, dir, "chat.md", "---\ntitle: Explicit\nconversation_id: abc-123\ncreate_time: 1700000000.5\ntags:\n  - one\n  - two\n---\n\n# Title: Fallback\nBody text\n")

	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument returned error: %v", err)
	}

	if doc.Title != "Explicit" {
		t.Fatalf("expected front-matter title to win, got %q", doc.Title)
	}
	if strings.Contains(doc.Body, "---") || strings.Contains(doc.Body, "conversation_id") {
		t.Fatalf("expected body without front matter, got %q", doc.Body)
	}
	if !strings.HasPrefix(doc.Body, "# Title: Fallback") {
		t.Fatalf("expected trimmed body, got %q", doc.Body)
	}
	if got := doc.Metadata.Keys(); strings.Join(got, ",") != "title,conversation_id,create_time,tags" {
		t.Fatalf("expected metadata keys in document order, got %v", got)
	}
	if got := doc.Metadata.Text("create_time"); got != "1700000000.5" {
		t.Fatalf("expected verbatim create_time, got %q", got)
	}
	if tags, ok := doc.Metadata.Get("tags"); !ok || len(tags.([]any)) != 2 {
		t.Fatalf("expected tags list, got %#v", tags)
	}
	if doc.Size == 0 {
		t.Fatalf("expected non-zero size")
	}
	if doc.MetadataErr != nil {
		t.Fatalf("unexpected metadata error: %v", doc.MetadataErr)
	}
}

func TestLoadDocumentTitlePrecedence(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"title field", "a.md", "---\ntitle: \"Explicit\"\naliases: Alias\n---\n# Title: Marker", "Explicit"},
		{"aliases scalar", "b.md", "---\naliases: Test\n---\nHello", "Test"},
		{"aliases list", "c.md", "---\naliases:\n  - \"\"\n  - Second\n---\nHello", "Second"},
		{"empty title falls through", "d.md", "---\ntitle: \"\"\n---\n# Title: Marker text\nbody", "Marker text"},
		{"marker only", "e.md", "intro\n# Title: First\n# Title: Second\n", "First"},
		{"marker is case sensitive", "f.md", "# title: lower\n", "f"},
		{"filename fallback", "nested/my chat.md", "plain body", "my chat"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := LoadDocument(writeNote(t, dir, tc.file, tc.content))
			if err != nil {
				t.Fatalf("LoadDocument returned error: %v", err)
			}
			if doc.Title != tc.want {
				t.Fatalf("expected title %q, got %q", tc.want, doc.Title)
			}
		})
	}
}

func TestLoadDocumentWithoutClosingDelimiterKeepsWholeBody(t *testing.T) {
	dir := t.TempDir()
	content := "---\ntitle: never closed\nbody"
	doc, err := LoadDocument(writeNote(t, dir, "open.md", content))
	if err != nil {
		t.Fatalf("LoadDocument returned error: %v", err)
	}
	if doc.Body != content {
		t.Fatalf("expected entire content as body, got %q", doc.Body)
	}
	if doc.Metadata.Len() != 0 {
		t.Fatalf("expected empty metadata, got %v", doc.Metadata.Keys())
	}
	if doc.Title != "open" {
		t.Fatalf("expected filename title, got %q", doc.Title)
	}
}

func TestLoadDocumentMalformedFrontMatterFailsSoft(t *testing.T) {
	dir := t.TempDir()
	doc, err := LoadDocument(writeNote(t, dir, "bad.md", "---\ntitle: [unclosed\n---\nstill searchable"))
	if err != nil {
		t.Fatalf("LoadDocument returned error: %v", err)
	}
	if doc.MetadataErr == nil {
		t.Fatalf("expected metadata error to be recorded")
	}
	if doc.Metadata.Len() != 0 {
		t.Fatalf("expected empty metadata, got %v", doc.Metadata.Keys())
	}
	if doc.Body != "still searchable" {
		t.Fatalf("expected body to survive parse failure, got %q", doc.Body)
	}
}

func TestLoadDocumentNonMappingFrontMatter(t *testing.T) {
	dir := t.TempDir()
	doc, err := LoadDocument(writeNote(t, dir, "list.md", "---\n- a\n- b\n---\nbody"))
	if err != nil {
		t.Fatalf("LoadDocument returned error: %v", err)
	}
	if doc.Metadata.Len() != 0 || doc.MetadataErr != nil {
		t.Fatalf("expected non-mapping front matter to yield empty metadata, got %v %v", doc.Metadata.Keys(), doc.MetadataErr)
	}
	if doc.Body != "body" {
		t.Fatalf("unexpected body %q", doc.Body)
	}
}

func TestLoadDocumentMissingFileDegrades(t *testing.T) {
	before := time.Now()
	doc, err := LoadDocument(filepath.Join(t.TempDir(), "missing.md"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if doc.Title != "missing" {
		t.Fatalf("expected filename title, got %q", doc.Title)
	}
	if doc.Body != "" || doc.Size != 0 || doc.Metadata.Len() != 0 {
		t.Fatalf("expected empty degraded document, got %+v", doc)
	}
	if doc.ModifiedAt.Before(before) {
		t.Fatalf("expected degraded document to use current time, got %v", doc.ModifiedAt)
	}
}

func TestLoadDocumentRepairsInvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bin.md")
	if err := os.WriteFile(path, []byte("ok \xff\xfe bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument returned error: %v", err)
	}
	if !strings.Contains(doc.Body, "ok ") || !strings.Contains(doc.Body, " bytes") {
		t.Fatalf("expected readable text to survive, got %q", doc.Body)
	}
	if !strings.Contains(doc.Body, "\uFFFD") {
		t.Fatalf("expected replacement rune for invalid bytes, got %q", doc.Body)
	}
}

func TestMetadataMarshalJSONKeepsOrder(t *testing.T) {
	meta, err := parseFrontMatter("zeta: 1\nalpha: two\nnested:\n  k: v\n")
	if err != nil {
		t.Fatalf("parseFrontMatter returned error: %v", err)
	}

	data, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	want := `{"zeta":1,"alpha":"two","nested":{"k":"v"}}`
	if string(data) != want {
		t.Fatalf("expected %s, got %s", want, data)
	}
}
