package classify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Paintersrp/chatseek/internal/logger"
	"github.com/Paintersrp/chatseek/internal/search"
)

var (
	// ErrUnavailable is returned when no classifier plugin is configured.
	ErrUnavailable = errors.New("classifier not available")
	// ErrUnknownTest is returned for test ids the plugin does not provide.
	ErrUnknownTest = errors.New("unknown classifier test")
	// ErrReferenceRequired is returned when a test needs reference text and
	// none was given.
	ErrReferenceRequired = errors.New("reference text required")
)

// Test describes one analysis offered by the plugin.
type Test struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	RequiresReference bool   `json:"requires_reference"`
}

// Result is the outcome of one analysis.
type Result struct {
	Score   float64        `json:"score"`
	Details map[string]any `json:"details,omitempty"`
}

// Classifier scores text for a single test.
type Classifier interface {
	Classify(ctx context.Context, text, reference string) (Result, error)
}

type entry struct {
	test       Test
	classifier Classifier
}

// Registry maps test ids to classifiers.
type Registry struct {
	entries map[string]entry
	source  string
}

// NewRegistry returns an empty registry. source describes where the tests
// come from and is reported by Status.
func NewRegistry(source string) *Registry {
	return &Registry{entries: make(map[string]entry), source: source}
}

// Unavailable returns a registry with no tests whose operations fail with
// ErrUnavailable.
func Unavailable() *Registry {
	return &Registry{}
}

// Register adds c under t.ID, replacing any previous classifier.
func (r *Registry) Register(t Test, c Classifier) {
	if r.entries == nil {
		r.entries = make(map[string]entry)
	}
	r.entries[t.ID] = entry{test: t, classifier: c}
}

// Available reports whether at least one test is registered.
func (r *Registry) Available() bool {
	return r != nil && len(r.entries) > 0
}

// Source returns the plugin description given to NewRegistry.
func (r *Registry) Source() string {
	if r == nil {
		return ""
	}
	return r.source
}

// Tests lists registered tests sorted by id.
func (r *Registry) Tests() ([]Test, error) {
	if !r.Available() {
		return nil, ErrUnavailable
	}
	tests := make([]Test, 0, len(r.entries))
	for _, e := range r.entries {
		tests = append(tests, e.test)
	}
	sort.Slice(tests, func(i, j int) bool { return tests[i].ID < tests[j].ID })
	return tests, nil
}

// Run scores text with the test identified by id.
func (r *Registry) Run(ctx context.Context, id, text, reference string) (Result, error) {
	if !r.Available() {
		return Result{}, ErrUnavailable
	}
	e, ok := r.entries[id]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownTest, id)
	}
	if e.test.RequiresReference && strings.TrimSpace(reference) == "" {
		return Result{}, fmt.Errorf("%w for %s", ErrReferenceRequired, e.test.Name)
	}
	return e.classifier.Classify(ctx, text, reference)
}

// Outcome is the per-file entry of a batch analysis.
type Outcome struct {
	Path          string  `json:"file_path"`
	Title         string  `json:"title,omitempty"`
	Success       bool    `json:"success"`
	Result        *Result `json:"result"`
	Error         string  `json:"error,omitempty"`
	ContentLength int     `json:"content_length"`
}

// BatchReport summarizes a batch analysis.
type BatchReport struct {
	Results    []Outcome `json:"results"`
	TotalFiles int       `json:"total_files"`
	Successful int       `json:"successful_analyses"`
}

// Loader reads a document by archive-relative path.
type Loader func(path string) (search.Document, error)

const batchWorkers = 4

// Batch runs the test id against every path. A failing file is recorded in
// its outcome and never stops the batch. Outcomes keep the order of paths.
func (r *Registry) Batch(ctx context.Context, id string, paths []string, reference string, load Loader) (BatchReport, error) {
	if !r.Available() {
		return BatchReport{}, ErrUnavailable
	}
	if _, ok := r.entries[id]; !ok {
		return BatchReport{}, fmt.Errorf("%w: %q", ErrUnknownTest, id)
	}

	outcomes := make([]Outcome, len(paths))
	var g errgroup.Group
	g.SetLimit(batchWorkers)
	for i, path := range paths {
		g.Go(func() error {
			outcomes[i] = r.analyze(ctx, id, path, reference, load)
			return nil
		})
	}
	_ = g.Wait()

	report := BatchReport{Results: outcomes, TotalFiles: len(paths)}
	for _, o := range outcomes {
		if o.Success {
			report.Successful++
		}
	}
	return report, nil
}

func (r *Registry) analyze(ctx context.Context, id, path, reference string, load Loader) Outcome {
	out := Outcome{Path: path}
	if err := ctx.Err(); err != nil {
		out.Error = err.Error()
		return out
	}

	doc, err := load(path)
	if err != nil {
		logger.Warn("classify: %s: %v", path, err)
		out.Error = "file not found"
		return out
	}
	out.Title = doc.Title
	out.ContentLength = len(doc.Body)

	res, err := r.Run(ctx, id, doc.Body, reference)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.Success = true
	out.Result = &res
	return out
}
