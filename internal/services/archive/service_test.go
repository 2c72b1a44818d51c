package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Paintersrp/chatseek/internal/config"
	"github.com/Paintersrp/chatseek/internal/search"
)

func writeTestNote(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestServiceSearchTruncatesToMaxResults(t *testing.T) {
	dir := t.TempDir()
	writeTestNote(t, dir, "a.md", "needle")
	writeTestNote(t, dir, "b.md", "needle needle")
	writeTestNote(t, dir, "c.md", "needle needle needle")

	ws := config.NewWorkspace(dir)
	ws.Search.MaxResults = 2

	svc := NewService(ws)
	var observed int
	svc.OnReport(func(r search.Report) { observed = len(r.Results) })

	report, err := svc.Search(context.Background(), search.Query{Terms: "needle"})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(report.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(report.Results))
	}
	if report.Results[0].Path != "c.md" || report.Results[1].Path != "b.md" {
		t.Fatalf("expected top ranked results to survive, got %+v", report.Results)
	}
	if observed != 3 {
		t.Fatalf("expected observer to see the full report, got %d", observed)
	}

	stats := svc.Stats()
	if stats.Searches != 1 || stats.LastSearch.IsZero() || stats.Root == "" {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestServiceReloadSwapsArchive(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeTestNote(t, first, "a.md", "alpha")
	writeTestNote(t, second, "b.md", "alpha")
	writeTestNote(t, second, "c.md", "alpha")

	svc := NewService(config.NewWorkspace(first))
	report, err := svc.Search(context.Background(), search.Query{Terms: "alpha"})
	if err != nil || len(report.Results) != 1 {
		t.Fatalf("expected 1 result, got %v %v", report.Results, err)
	}

	if err := svc.Reload(config.NewWorkspace(second)); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	report, err = svc.Search(context.Background(), search.Query{Terms: "alpha"})
	if err != nil || len(report.Results) != 2 {
		t.Fatalf("expected 2 results after reload, got %v %v", report.Results, err)
	}
}

func TestServiceUnavailableArchive(t *testing.T) {
	svc := NewService(config.NewWorkspace(""))
	if _, err := svc.Search(context.Background(), search.Query{Terms: "x"}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	missing := filepath.Join(t.TempDir(), "missing")
	if err := svc.Reload(config.NewWorkspace(missing)); !errors.Is(err, search.ErrRootMissing) {
		t.Fatalf("expected ErrRootMissing, got %v", err)
	}
	if _, err := svc.Engine(); !errors.Is(err, search.ErrRootMissing) {
		t.Fatalf("expected load error from Engine, got %v", err)
	}
	if svc.Stats().LoadError == nil {
		t.Fatal("expected load error in stats")
	}
}

func TestServiceClosePreventsSearches(t *testing.T) {
	dir := t.TempDir()
	_ = writeTestNote(t, dir, "note.md", "content")

	svc := NewService(config.NewWorkspace(dir))
	if err := svc.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	if _, err := svc.Search(context.Background(), search.Query{Terms: "content"}); err != ErrClosed {
		t.Fatalf("expected ErrClosed after Close, got %v", err)
	}
	if err := svc.Reload(config.NewWorkspace(dir)); err != ErrClosed {
		t.Fatalf("expected ErrClosed from Reload, got %v", err)
	}
}

func TestParseQueryUsesWorkspaceDefaults(t *testing.T) {
	ws := config.NewWorkspace("")
	ws.Search.DefaultMode = "ANY"
	ws.Search.DefaultCaseSensitive = true

	q := ParseQuery(map[string]any{"terms": "a b"}, ws)
	if q.Mode != search.ModeAny || !q.CaseSensitive {
		t.Fatalf("expected workspace defaults, got %+v", q)
	}

	q = ParseQuery(map[string]any{"terms": "a b", "mode": "all", "caseSensitive": "false"}, ws)
	if q.Mode != search.ModeAll || q.CaseSensitive {
		t.Fatalf("expected explicit values to win, got %+v", q)
	}
}
