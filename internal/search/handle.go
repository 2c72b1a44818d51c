package search

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrNoEngine is returned by a Handle that has not been given an engine.
var ErrNoEngine = errors.New("search engine is not configured")

// Handle holds the current Engine and lets it be replaced while searches are
// in flight. A search keeps using the engine it started with.
type Handle struct {
	current atomic.Pointer[Engine]
}

// NewHandle returns a handle pointing at e, which may be nil.
func NewHandle(e *Engine) *Handle {
	h := &Handle{}
	if e != nil {
		h.current.Store(e)
	}
	return h
}

// Engine returns the current engine or ErrNoEngine.
func (h *Handle) Engine() (*Engine, error) {
	if h == nil {
		return nil, ErrNoEngine
	}
	e := h.current.Load()
	if e == nil {
		return nil, ErrNoEngine
	}
	return e, nil
}

// Swap installs e and returns the previous engine.
func (h *Handle) Swap(e *Engine) *Engine {
	return h.current.Swap(e)
}

// Search runs q on the current engine.
func (h *Handle) Search(ctx context.Context, q Query) (Report, error) {
	e, err := h.Engine()
	if err != nil {
		return Report{Results: []Result{}}, err
	}
	return e.Search(ctx, q), nil
}
