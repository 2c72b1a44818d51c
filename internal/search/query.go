package search

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cast"
)

// ParseQuery builds a Query from loosely typed key-value input such as a
// decoded JSON body or query string. Both camelCase and snake_case keys are
// accepted. Missing or malformed values fall back to the defaults: ALL mode,
// ALL scope, case insensitive, no folder or date filters.
func ParseQuery(values map[string]any) Query {
	q := Query{
		Terms:   strings.TrimSpace(cast.ToString(lookup(values, "terms", "query", "q"))),
		Exclude: strings.TrimSpace(cast.ToString(lookup(values, "exclude", "exclude_terms", "excludeTerms"))),
		Mode:    ParseMode(cast.ToString(lookup(values, "mode"))),
		Scope:   ParseScope(cast.ToString(lookup(values, "searchIn", "search_in", "scope"))),
	}

	if raw := lookup(values, "caseSensitive", "case_sensitive"); raw != nil {
		if b, err := cast.ToBoolE(raw); err == nil {
			q.CaseSensitive = b
		}
	}

	q.DateFrom = ParseDate(cast.ToString(lookup(values, "dateFrom", "date_from")))
	q.DateTo = ParseDate(cast.ToString(lookup(values, "dateTo", "date_to")))
	q.IncludedFolders = folderList(lookup(values, "includedFolders", "included_folders"))
	q.ExcludedFolders = folderList(lookup(values, "excludedFolders", "excluded_folders"))
	return q
}

// ParseDate parses a date bound in the local time zone. Empty or
// unparseable input yields nil, which leaves the bound unset.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := dateparse.ParseIn(s, time.Local)
	if err != nil {
		return nil
	}
	return &t
}

func lookup(values map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := values[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

// folderList accepts a list or a comma separated string and drops blanks.
func folderList(raw any) []string {
	if raw == nil {
		return nil
	}

	var items []string
	if s, ok := raw.(string); ok {
		items = strings.Split(s, ",")
	} else {
		items = cast.ToStringSlice(raw)
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
