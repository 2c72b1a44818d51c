package search

import (
	"strings"
	"time"
)

// DefaultExtensions lists the file extensions scanned when Config.Extensions
// is empty.
var DefaultExtensions = []string{".md"}

// Config describes how an Engine walks its corpus.
type Config struct {
	// Root is the corpus directory. It must exist when the engine is built.
	Root string
	// Extensions limits the scan to files with these extensions (case
	// insensitive). Defaults to DefaultExtensions.
	Extensions []string
	// IgnoredFolders contains directory names that are never descended into.
	IgnoredFolders []string
	// IncludeHidden controls whether dot-directories below the root are
	// scanned.
	IncludeHidden bool
	// Workers bounds the number of files processed concurrently. Zero means
	// runtime.NumCPU().
	Workers int
	// Timeout bounds a single Search when the caller's context carries no
	// deadline. Zero disables the bound.
	Timeout time.Duration
}

// Mode selects how multiple terms combine.
type Mode int

const (
	// ModeAll requires every term to be present.
	ModeAll Mode = iota
	// ModeAny requires at least one term to be present.
	ModeAny
)

func (m Mode) String() string {
	if m == ModeAny {
		return "ANY"
	}
	return "ALL"
}

// ParseMode maps user input onto a Mode. Unknown values fall back to ModeAll.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), "any") {
		return ModeAny
	}
	return ModeAll
}

// Scope selects which part of a document the terms are matched against.
type Scope int

const (
	ScopeAll Scope = iota
	ScopeTitle
	ScopeBody
)

func (s Scope) String() string {
	switch s {
	case ScopeTitle:
		return "title"
	case ScopeBody:
		return "content"
	default:
		return "all"
	}
}

var scopeNames = map[string]Scope{
	"all":     ScopeAll,
	"title":   ScopeTitle,
	"content": ScopeBody,
	"body":    ScopeBody,
}

// ParseScope maps user input onto a Scope. "content" and "body" both select
// the body; unknown values fall back to ScopeAll.
func ParseScope(s string) Scope {
	return scopeNames[strings.ToLower(strings.TrimSpace(s))]
}

// ValidScope reports whether ParseScope recognizes s.
func ValidScope(s string) bool {
	_, ok := scopeNames[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// Query represents a search request against the corpus.
type Query struct {
	// Terms is the raw inclusion query. An empty value never matches.
	Terms string
	// Exclude is the raw exclusion query, evaluated in ANY mode.
	Exclude       string
	Mode          Mode
	Scope         Scope
	CaseSensitive bool
	// DateFrom and DateTo are inclusive bounds on the calendar date of a
	// document's modification time. Nil means unbounded.
	DateFrom *time.Time
	DateTo   *time.Time
	// IncludedFolders and ExcludedFolders are archive-relative folder paths.
	IncludedFolders []string
	ExcludedFolders []string
}

// Result captures a document match.
type Result struct {
	Path           string    `json:"path"`
	Title          string    `json:"title"`
	Matches        int       `json:"matches"`
	Size           int64     `json:"file_size"`
	ModifiedAt     time.Time `json:"modified_date"`
	CreateTime     string    `json:"create_time"`
	ConversationID string    `json:"conversation_id"`
}
