package search

import (
	"sync"
	"sync/atomic"
)

// maxFailures bounds the failures retained per search.
const maxFailures = 100

// Failure describes a file that could not be processed.
type Failure struct {
	Path string
	Err  error
}

// Stats counts what happened to the files of one search.
type Stats struct {
	// Discovered is the number of candidate files found by the walk.
	Discovered int
	// Scanned is the number of files whose pipeline ran to completion.
	Scanned int
	// Filtered counts files dropped by folder or date filters.
	Filtered int
	// Matched counts files that produced a result.
	Matched int
	// Skipped counts files dropped because of an error.
	Skipped int
	// MetadataErrors counts files whose front matter failed to parse.
	MetadataErrors int
}

// diagnostics collects per-file outcomes from concurrent workers.
type diagnostics struct {
	discovered     atomic.Int64
	scanned        atomic.Int64
	filtered       atomic.Int64
	matched        atomic.Int64
	skipped        atomic.Int64
	metadataErrors atomic.Int64

	mu       sync.Mutex
	failures []Failure
}

func (d *diagnostics) fail(path string, err error) {
	d.skipped.Add(1)
	d.record(path, err)
}

func (d *diagnostics) record(path string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.failures) < maxFailures {
		d.failures = append(d.failures, Failure{Path: path, Err: err})
	}
}

func (d *diagnostics) stats() Stats {
	return Stats{
		Discovered:     int(d.discovered.Load()),
		Scanned:        int(d.scanned.Load()),
		Filtered:       int(d.filtered.Load()),
		Matched:        int(d.matched.Load()),
		Skipped:        int(d.skipped.Load()),
		MetadataErrors: int(d.metadataErrors.Load()),
	}
}

func (d *diagnostics) failureList() []Failure {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Failure(nil), d.failures...)
}
