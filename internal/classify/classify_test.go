package classify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/Paintersrp/chatseek/internal/search"
)

type lengthClassifier struct{}

func (lengthClassifier) Classify(_ context.Context, text, reference string) (Result, error) {
	if strings.Contains(text, "boom") {
		return Result{}, errors.New("classifier exploded")
	}
	return Result{
		Score:   float64(len(text)),
		Details: map[string]any{"reference": reference},
	}, nil
}

func newTestRegistry() *Registry {
	r := NewRegistry("test")
	r.Register(Test{ID: "length", Name: "Length"}, lengthClassifier{})
	r.Register(Test{ID: "overlap", Name: "Overlap", RequiresReference: true}, lengthClassifier{})
	return r
}

func TestUnavailableRegistry(t *testing.T) {
	r := Unavailable()
	if r.Available() {
		t.Fatal("expected unavailable registry")
	}
	if _, err := r.Tests(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from Tests, got %v", err)
	}
	if _, err := r.Run(context.Background(), "length", "x", ""); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from Run, got %v", err)
	}

	var nilRegistry *Registry
	if nilRegistry.Available() {
		t.Fatal("expected nil registry to be unavailable")
	}
}

func TestRegistryRun(t *testing.T) {
	r := newTestRegistry()

	tests, err := r.Tests()
	if err != nil {
		t.Fatalf("Tests returned error: %v", err)
	}
	if len(tests) != 2 || tests[0].ID != "length" || tests[1].ID != "overlap" {
		t.Fatalf("unexpected tests %+v", tests)
	}

	res, err := r.Run(context.Background(), "length", "hello", "")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.Score != 5 {
		t.Fatalf("expected score 5, got %v", res.Score)
	}

	if _, err := r.Run(context.Background(), "missing", "hello", ""); !errors.Is(err, ErrUnknownTest) {
		t.Fatalf("expected ErrUnknownTest, got %v", err)
	}
	if _, err := r.Run(context.Background(), "overlap", "hello", "  "); !errors.Is(err, ErrReferenceRequired) {
		t.Fatalf("expected ErrReferenceRequired, got %v", err)
	}
	if _, err := r.Run(context.Background(), "overlap", "hello", "ref"); err != nil {
		t.Fatalf("expected reference to satisfy the test, got %v", err)
	}
}

func TestBatchContinuesPastFailures(t *testing.T) {
	docs := map[string]search.Document{
		"a.md": {Path: "a.md", Title: "A", Body: "four"},
		"b.md": {Path: "b.md", Title: "B", Body: "boom"},
		"d.md": {Path: "d.md", Title: "D", Body: "sixsix"},
	}
	load := func(path string) (search.Document, error) {
		doc, ok := docs[path]
		if !ok {
			return search.Document{}, os.ErrNotExist
		}
		return doc, nil
	}

	r := newTestRegistry()
	report, err := r.Batch(context.Background(), "length", []string{"a.md", "b.md", "c.md", "d.md"}, "", load)
	if err != nil {
		t.Fatalf("Batch returned error: %v", err)
	}
	if report.TotalFiles != 4 || report.Successful != 2 {
		t.Fatalf("unexpected totals %+v", report)
	}

	got := make([]string, len(report.Results))
	for i, o := range report.Results {
		got[i] = o.Path
	}
	if strings.Join(got, ",") != "a.md,b.md,c.md,d.md" {
		t.Fatalf("expected input order, got %v", got)
	}

	if o := report.Results[0]; !o.Success || o.Result == nil || o.Result.Score != 4 || o.Title != "A" {
		t.Fatalf("unexpected outcome %+v", o)
	}
	if o := report.Results[1]; o.Success || o.Error != "classifier exploded" || o.ContentLength != 4 {
		t.Fatalf("unexpected outcome %+v", o)
	}
	if o := report.Results[2]; o.Success || o.Error != "file not found" {
		t.Fatalf("unexpected outcome %+v", o)
	}

	if _, err := r.Batch(context.Background(), "nope", nil, "", load); !errors.Is(err, ErrUnknownTest) {
		t.Fatalf("expected ErrUnknownTest, got %v", err)
	}
}

const pluginScript = `#!/bin/sh
case "$1" in
  tests)
    echo '[{"id":"length","name":"Length","description":"counts bytes"},{"id":"","name":"skipped"},{"id":"ref","requires_reference":true}]'
    ;;
  run)
    input=$(cat)
    if [ "$2" = "ref" ]; then
      printf '{"score": 1, "details": {"reference": "%s"}}' "$CHATSEEK_REFERENCE"
    else
      printf '{"score": %d, "details": {"test": "%s"}}' "${#input}" "$2"
    fi
    ;;
  *)
    echo "unknown command" >&2
    exit 2
    ;;
esac
`

func writePlugin(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("plugin script requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "plugin.sh")
	if err := os.WriteFile(path, []byte(pluginScript), 0o755); err != nil {
		t.Fatalf("write plugin: %v", err)
	}
	return path
}

func TestExecRegistry(t *testing.T) {
	plugin := writePlugin(t)
	ctx := context.Background()

	r, err := NewExecRegistry(ctx, plugin, nil)
	if err != nil {
		t.Fatalf("NewExecRegistry returned error: %v", err)
	}
	if r.Source() != plugin {
		t.Fatalf("expected source %q, got %q", plugin, r.Source())
	}

	tests, err := r.Tests()
	if err != nil {
		t.Fatalf("Tests returned error: %v", err)
	}
	if len(tests) != 2 || tests[0].ID != "length" || tests[1].ID != "ref" || tests[1].Name != "ref" {
		t.Fatalf("unexpected tests %+v", tests)
	}

	res, err := r.Run(ctx, "length", "hello", "")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.Score != 5 || res.Details["test"] != "length" {
		t.Fatalf("unexpected result %+v", res)
	}

	res, err = r.Run(ctx, "ref", "hello", "baseline")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.Details["reference"] != "baseline" {
		t.Fatalf("expected reference to reach the plugin, got %+v", res)
	}
}

func TestExecFailures(t *testing.T) {
	plugin := writePlugin(t)
	ctx := context.Background()

	r, err := NewExecRegistry(ctx, "", nil)
	if err != nil || r.Available() {
		t.Fatalf("expected empty command to yield the unavailable registry, got %v", err)
	}

	if _, err := NewExecRegistry(ctx, filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Fatal("expected missing plugin to fail")
	}

	_, err = Exec{Command: plugin}.command(ctx, "", "", "bogus")
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}
