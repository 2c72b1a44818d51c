package fzf

import (
	"context"
	"errors"
	"fmt"

	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/Paintersrp/chatseek/internal/render"
	"github.com/Paintersrp/chatseek/internal/search"
)

// ErrNoSelection is returned when the picker is dismissed without a choice.
var ErrNoSelection = errors.New("no file selected")

// find is swapped in tests.
var find = fuzzyfinder.Find

// FuzzyFinder picks one archive document with a rendered markdown preview.
type FuzzyFinder struct {
	engine *search.Engine
	Header string
	files  []string
	labels []string
}

func NewFuzzyFinder(engine *search.Engine, header string) *FuzzyFinder {
	return &FuzzyFinder{engine: engine, Header: header}
}

// Run lists the archive and returns the selected root-relative path.
func (f *FuzzyFinder) Run(ctx context.Context) (string, error) {
	return f.RunWithQuery(ctx, "")
}

// RunWithQuery is Run with the prompt pre-filled.
func (f *FuzzyFinder) RunWithQuery(ctx context.Context, query string) (string, error) {
	files, err := f.engine.Files(ctx)
	if err != nil {
		return "", fmt.Errorf("error listing files: %w", err)
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no documents found under %s", f.engine.Root())
	}

	f.files = files
	f.labels = f.buildLabels()

	options := []fuzzyfinder.Option{
		fuzzyfinder.WithPreviewWindow(f.renderPreview),
	}
	if query != "" {
		options = append(options, fuzzyfinder.WithQuery(query))
	}
	if f.Header != "" {
		options = append(options, fuzzyfinder.WithHeader(f.Header))
	}

	idx, err := find(f.files, func(i int) string { return f.labels[i] }, options...)
	if errors.Is(err, fuzzyfinder.ErrAbort) {
		return "", ErrNoSelection
	}
	if err != nil {
		return "", fmt.Errorf("error selecting file: %w", err)
	}
	return f.files[idx], nil
}

// buildLabels shows each document as "Title  (path)".
func (f *FuzzyFinder) buildLabels() []string {
	labels := make([]string, len(f.files))
	for i, rel := range f.files {
		doc, err := f.engine.Load(rel)
		if err != nil || doc.Title == "" {
			labels[i] = rel
			continue
		}
		labels[i] = fmt.Sprintf("%s  (%s)", doc.Title, rel)
	}
	return labels
}

func (f *FuzzyFinder) renderPreview(i, w, _ int) string {
	if i < 0 || i >= len(f.files) {
		return ""
	}

	doc, err := f.engine.Load(f.files[i])
	if err != nil {
		return "Error reading file"
	}

	out, err := render.Terminal(doc.Body, render.TerminalOptions{Width: max(w-4, 20)})
	if err != nil {
		return "Error rendering markdown"
	}
	return out
}
