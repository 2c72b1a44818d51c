package search

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Paintersrp/chatseek/internal/logger"
	"github.com/Paintersrp/chatseek/internal/pathutil"
)

var (
	// ErrRootMissing indicates the configured corpus root does not exist.
	ErrRootMissing = errors.New("archive root does not exist")
	// ErrRootNotDir indicates the configured corpus root is not a directory.
	ErrRootNotDir = errors.New("archive root is not a directory")
	// ErrOutsideRoot is returned when a document path escapes the root.
	ErrOutsideRoot = errors.New("path is outside the archive root")
	// ErrNotIndexable is returned for files the engine does not scan.
	ErrNotIndexable = errors.New("file type is not indexable")
)

// Report is the outcome of one Search.
type Report struct {
	Results []Result
	// Partial is set when the search deadline expired before every file was
	// processed. Results then hold the ranked matches found so far.
	Partial  bool
	Elapsed  time.Duration
	Stats    Stats
	Failures []Failure
}

// Engine evaluates queries by scanning the corpus on every call. It holds
// only read-only configuration and is safe for concurrent use.
type Engine struct {
	root    string
	cfg     Config
	exts    map[string]struct{}
	ignored map[string]struct{}
}

// NewEngine validates the corpus root and returns an engine for it.
func NewEngine(cfg Config) (*Engine, error) {
	root := pathutil.NormalizePath(cfg.Root)
	if root == "" {
		return nil, fmt.Errorf("search: %w: empty path", ErrRootMissing)
	}

	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("search: %w: %s", ErrRootMissing, root)
		}
		return nil, fmt.Errorf("search: stat root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("search: %w: %s", ErrRootNotDir, root)
	}
	if _, err := os.ReadDir(root); err != nil {
		return nil, fmt.Errorf("search: read root %s: %w", root, err)
	}

	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	e := &Engine{
		root:    root,
		cfg:     cfg,
		exts:    make(map[string]struct{}, len(exts)),
		ignored: make(map[string]struct{}, len(cfg.IgnoredFolders)),
	}
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		e.exts[ext] = struct{}{}
	}
	for _, dir := range cfg.IgnoredFolders {
		if dir = strings.TrimSpace(dir); dir != "" {
			e.ignored[strings.ToLower(dir)] = struct{}{}
		}
	}
	e.cfg.Root = root
	return e, nil
}

// Root returns the normalized corpus root.
func (e *Engine) Root() string {
	return e.root
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Indexable reports whether name has one of the scanned extensions.
func (e *Engine) Indexable(name string) bool {
	_, ok := e.exts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Load reads a document addressed by its root-relative path. The returned
// document's Path is the slash-separated relative path.
func (e *Engine) Load(rel string) (Document, error) {
	abs := filepath.Join(e.root, filepath.FromSlash(strings.TrimPrefix(filepath.ToSlash(rel), "/")))
	if !pathutil.Within(e.root, abs) {
		return degradedDocument(rel), fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
	}
	if !e.Indexable(abs) {
		return degradedDocument(rel), fmt.Errorf("%w: %s", ErrNotIndexable, rel)
	}

	doc, err := LoadDocument(abs)
	if relPath, relErr := pathutil.ArchiveRelative(e.root, abs); relErr == nil {
		doc.Path = relPath
	}
	return doc, err
}

// Files lists the root-relative paths of every indexable file in walk order.
func (e *Engine) Files(ctx context.Context) ([]string, error) {
	var diag diagnostics
	abs, err := e.collectPaths(ctx, &diag)
	out := make([]string, 0, len(abs))
	for _, p := range abs {
		if rel, relErr := pathutil.ArchiveRelative(e.root, p); relErr == nil {
			out = append(out, rel)
		}
	}
	return out, err
}

// Search scans the corpus and returns ranked results for q.
//
// Per-file failures never abort the scan; they are counted in the report. If
// the context deadline (or Config.Timeout) expires, the report holds the
// ranked matches accumulated so far and Partial is set.
func (e *Engine) Search(ctx context.Context, q Query) Report {
	start := time.Now()
	report := Report{Results: []Result{}}

	terms := Tokenize(q.Terms)
	if len(terms) == 0 {
		logger.Debug("Empty query, returning no results")
		return report
	}
	exclude := Tokenize(q.Exclude)

	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok && e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	logger.Section("Search")
	logger.Debug("Terms: %q, exclude: %q, mode: %s, scope: %s", terms, exclude, q.Mode, q.Scope)

	var diag diagnostics
	paths, walkErr := e.collectPaths(ctx, &diag)
	if walkErr != nil && !isContextErr(walkErr) {
		logger.Warn("walk %s: %v", e.root, walkErr)
		diag.record(e.root, walkErr)
	}
	diag.discovered.Store(int64(len(paths)))
	logger.Debug("Found %d candidate files", len(paths))

	p := pipeline{
		engine:   e,
		query:    q,
		terms:    terms,
		exclude:  exclude,
		included: cleanFolders(q.IncludedFolders),
		excluded: cleanFolders(q.ExcludedFolders),
		diag:     &diag,
	}

	slots := make([]*Result, len(paths))
	var unfinished atomic.Int64

	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	var g errgroup.Group
	g.SetLimit(workers)

	dispatched := 0
	for i, path := range paths {
		if ctx.Err() != nil {
			break
		}
		dispatched++
		g.Go(func() error {
			if ctx.Err() != nil {
				unfinished.Add(1)
				return nil
			}
			slots[i] = p.run(path)
			return nil
		})
	}
	_ = g.Wait()

	for _, slot := range slots {
		if slot != nil {
			report.Results = append(report.Results, *slot)
		}
	}
	Rank(report.Results)

	report.Partial = isContextErr(walkErr) || dispatched < len(paths) || unfinished.Load() > 0
	report.Elapsed = time.Since(start)
	report.Stats = diag.stats()
	report.Failures = diag.failureList()

	if report.Partial {
		logger.Warn("search deadline reached after %d of %d files; returning partial results",
			report.Stats.Scanned, report.Stats.Discovered)
	}
	logger.Debug("Search completed in %s: %d results", report.Elapsed, len(report.Results))
	return report
}

func (e *Engine) collectPaths(ctx context.Context, diag *diagnostics) ([]string, error) {
	paths := make([]string, 0)
	err := filepath.WalkDir(e.root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == e.root {
				return err
			}
			logger.Warn("skipping %s: %v", path, err)
			diag.record(path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path == e.root {
				return nil
			}
			name := strings.ToLower(d.Name())
			if !e.cfg.IncludeHidden && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if _, skip := e.ignored[name]; skip {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type().IsRegular() || d.Type()&fs.ModeSymlink != 0 {
			if e.Indexable(d.Name()) {
				paths = append(paths, path)
			}
		}
		return nil
	})
	return paths, err
}

func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// cleanFolders normalizes folder filters and drops blank entries, so "" in
// the result always names the archive root (given as "." or "./").
func cleanFolders(folders []string) []string {
	out := make([]string, 0, len(folders))
	for _, f := range folders {
		if strings.TrimSpace(f) == "" {
			continue
		}
		out = append(out, pathutil.CleanFolder(f))
	}
	return out
}
