package search

import (
	"fmt"
	"time"

	"github.com/Paintersrp/chatseek/internal/logger"
	"github.com/Paintersrp/chatseek/internal/pathutil"
)

var loadDocument = LoadDocument

// pipeline carries the per-search state shared read-only by all workers.
type pipeline struct {
	engine   *Engine
	query    Query
	terms    []string
	exclude  []string
	included []string
	excluded []string
	diag     *diagnostics
}

// run evaluates a single file and returns its result, or nil when the file
// is filtered out, does not match, or fails.
func (p pipeline) run(path string) (res *Result) {
	defer func() {
		if r := recover(); r != nil {
			p.diag.fail(path, fmt.Errorf("panic: %v", r))
			logger.Error("processing %s: panic: %v", path, r)
			res = nil
		}
	}()
	defer p.diag.scanned.Add(1)

	root := p.engine.root
	rel, err := pathutil.ArchiveRelative(root, path)
	if err != nil {
		p.diag.fail(path, err)
		logger.Warn("skipping %s: %v", path, err)
		return nil
	}
	folder, err := pathutil.ArchiveRelativeFolder(root, path)
	if err != nil {
		p.diag.fail(rel, err)
		logger.Warn("skipping %s: %v", rel, err)
		return nil
	}

	if !folderIncluded(folder, p.included) || folderExcluded(folder, p.excluded) {
		p.diag.filtered.Add(1)
		return nil
	}

	doc, err := loadDocument(path)
	if err != nil {
		p.diag.fail(rel, err)
		logger.Warn("skipping %s: %v", rel, err)
		return nil
	}
	if doc.MetadataErr != nil {
		p.diag.metadataErrors.Add(1)
		p.diag.record(rel, doc.MetadataErr)
		logger.Warn("%s: %v", rel, doc.MetadataErr)
	}

	if !withinDates(doc.ModifiedAt, p.query.DateFrom, p.query.DateTo) {
		p.diag.filtered.Add(1)
		return nil
	}

	text := scopeText(doc, p.query.Scope)
	matched, offsets := Evaluate(text, p.terms, p.query.Mode, p.query.CaseSensitive)
	if matched && len(p.exclude) > 0 {
		if excluded, _ := Evaluate(text, p.exclude, ModeAny, p.query.CaseSensitive); excluded {
			matched = false
		}
	}
	if !matched {
		return nil
	}

	p.diag.matched.Add(1)
	return &Result{
		Path:           rel,
		Title:          doc.Title,
		Matches:        len(offsets),
		Size:           doc.Size,
		ModifiedAt:     doc.ModifiedAt,
		CreateTime:     doc.Metadata.Text(createTimeKey),
		ConversationID: doc.Metadata.Text(conversationIDKey),
	}
}

func scopeText(doc Document, scope Scope) string {
	switch scope {
	case ScopeTitle:
		return doc.Title
	case ScopeBody:
		return doc.Body
	default:
		return doc.Title + " " + doc.Body
	}
}

// folderIncluded keeps a folder that lies inside an included folder or that
// is itself an ancestor of one. The root ("") only matches files directly
// under the archive root.
func folderIncluded(folder string, included []string) bool {
	if len(included) == 0 {
		return true
	}
	for _, inc := range included {
		if inc == "" || folder == "" {
			if inc == folder {
				return true
			}
			continue
		}
		if pathutil.HasSegmentPrefix(folder, inc) || pathutil.HasSegmentPrefix(inc, folder) {
			return true
		}
	}
	return false
}

// folderExcluded drops folders at or below an excluded folder. Excluding the
// root ("") drops only the files directly under it.
func folderExcluded(folder string, excluded []string) bool {
	for _, ex := range excluded {
		if ex == "" {
			if folder == "" {
				return true
			}
			continue
		}
		if pathutil.HasSegmentPrefix(folder, ex) {
			return true
		}
	}
	return false
}

func withinDates(modified time.Time, from, to *time.Time) bool {
	day := civilDay(modified.In(time.Local))
	if from != nil && day < civilDay(*from) {
		return false
	}
	if to != nil && day > civilDay(*to) {
		return false
	}
	return true
}

func civilDay(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
