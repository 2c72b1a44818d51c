package archive

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Paintersrp/chatseek/internal/config"
	"github.com/Paintersrp/chatseek/internal/logger"
	"github.com/Paintersrp/chatseek/internal/search"
)

// ErrClosed signals that the archive service has been shut down and cannot
// run new searches.
var ErrClosed = errors.New("archive service closed")

// ErrUnavailable indicates that no archive is configured or the configured
// archive could not be opened.
var ErrUnavailable = errors.New("archive unavailable")

// Stats captures lightweight instrumentation about the service.
type Stats struct {
	Root        string
	LastReload  time.Time
	LastSearch  time.Time
	LastElapsed time.Duration
	LastPartial bool
	Searches    int
	LoadError   error
}

// Observer receives every completed search report.
type Observer func(search.Report)

// Service owns the search engine for a workspace archive. It applies
// workspace limits to raw engine results and rebuilds the engine when the
// workspace changes.
type Service struct {
	mu         sync.RWMutex
	handle     *search.Handle
	maxResults int
	loadErr    error
	lastReload time.Time
	lastSearch time.Time
	elapsed    time.Duration
	partial    bool
	searches   int
	observers  []Observer
	closed     bool

	now func() time.Time
}

// NewService builds a service for ws. A workspace whose archive cannot be
// opened still yields a service; searches then fail with ErrUnavailable.
func NewService(ws *config.Workspace) *Service {
	s := &Service{
		handle: search.NewHandle(nil),
		now:    time.Now,
	}
	if err := s.Reload(ws); err != nil {
		logger.Warn("archive unavailable: %v", err)
	}
	return s
}

// EngineConfig maps workspace settings onto the engine configuration.
func EngineConfig(ws *config.Workspace) search.Config {
	return search.Config{
		Root:           ws.ArchiveDir,
		Extensions:     append([]string(nil), ws.Search.Extensions...),
		IgnoredFolders: append([]string(nil), ws.Search.IgnoredFolders...),
		IncludeHidden:  ws.Search.IncludeHidden,
		Workers:        ws.Search.Workers,
		Timeout:        ws.Search.Timeout(),
	}
}

// ParseQuery builds a query from loosely typed input, filling mode and case
// sensitivity from the workspace defaults when values omits them.
func ParseQuery(values map[string]any, ws *config.Workspace) search.Query {
	merged := make(map[string]any, len(values)+2)
	if ws != nil {
		merged["mode"] = ws.Search.DefaultMode
		merged["case_sensitive"] = ws.Search.DefaultCaseSensitive
	}
	for key, value := range values {
		if key == "caseSensitive" {
			delete(merged, "case_sensitive")
		}
		merged[key] = value
	}
	return search.ParseQuery(merged)
}

// Reload rebuilds the engine from ws. Searches already running keep the
// engine they started with. On failure the previous engine is dropped so
// callers never search a stale archive.
func (s *Service) Reload(ws *config.Workspace) error {
	if s == nil {
		return ErrUnavailable
	}
	if ws == nil {
		return fmt.Errorf("%w: no workspace", ErrUnavailable)
	}

	var (
		engine *search.Engine
		err    error
	)
	if ws.ArchiveDir == "" {
		err = fmt.Errorf("%w: archive_dir is not set", ErrUnavailable)
	} else {
		engine, err = search.NewEngine(EngineConfig(ws))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	s.handle.Swap(engine)
	s.maxResults = ws.Search.MaxResults
	s.loadErr = err
	s.lastReload = s.now()
	if err != nil {
		return err
	}

	logger.Debug("Archive engine ready at %s", engine.Root())
	return nil
}

// Engine returns the current engine.
func (s *Service) Engine() (*search.Engine, error) {
	if s == nil {
		return nil, ErrUnavailable
	}

	s.mu.RLock()
	closed, loadErr := s.closed, s.loadErr
	s.mu.RUnlock()

	if closed {
		return nil, ErrClosed
	}
	e, err := s.handle.Engine()
	if err != nil {
		if loadErr != nil {
			return nil, loadErr
		}
		return nil, ErrUnavailable
	}
	return e, nil
}

// OnReport registers fn to receive every completed report.
func (s *Service) OnReport(fn Observer) {
	if s == nil || fn == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Search runs q against the current engine and truncates the ranked results
// to the workspace max_results limit.
func (s *Service) Search(ctx context.Context, q search.Query) (search.Report, error) {
	e, err := s.Engine()
	if err != nil {
		return search.Report{Results: []search.Result{}}, err
	}

	report := e.Search(ctx, q)

	s.mu.Lock()
	limit := s.maxResults
	s.searches++
	s.lastSearch = s.now()
	s.elapsed = report.Elapsed
	s.partial = report.Partial
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(report)
	}

	if limit > 0 && len(report.Results) > limit {
		logger.Debug("Truncating %d results to %d", len(report.Results), limit)
		report.Results = report.Results[:limit]
	}
	return report, nil
}

// Stats returns instrumentation about the service lifecycle.
func (s *Service) Stats() Stats {
	if s == nil {
		return Stats{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		LastReload:  s.lastReload,
		LastSearch:  s.lastSearch,
		LastElapsed: s.elapsed,
		LastPartial: s.partial,
		Searches:    s.searches,
		LoadError:   s.loadErr,
	}
	if e, err := s.handle.Engine(); err == nil {
		stats.Root = e.Root()
	}
	return stats
}

// Close releases the service. Subsequent searches return ErrClosed.
func (s *Service) Close() error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.handle.Swap(nil)
	s.observers = nil
	return nil
}
