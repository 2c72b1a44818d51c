package flags

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/chatseek/internal/config"
	"github.com/Paintersrp/chatseek/internal/search"
	"github.com/Paintersrp/chatseek/internal/services/archive"
)

// AddQuery registers the search filter flags shared by search and export.
func AddQuery(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("mode", "m", "", "Match ALL or ANY of the terms (default from workspace settings)")
	f.StringP("exclude", "x", "", "Terms that disqualify a document")
	f.StringP("in", "i", "all", "Where to search: all, title, content (or body)")
	f.BoolP("case-sensitive", "c", false, "Match case exactly")
	f.String("from", "", "Only documents modified on or after this date")
	f.String("to", "", "Only documents modified on or before this date")
	f.StringSlice("folder", nil, "Only search these folders (repeatable, comma separated)")
	f.StringSlice("skip-folder", nil, "Skip these folders (repeatable, comma separated)")
}

// HandleQuery builds the query from positional terms and the flags added by
// AddQuery. Unset flags fall back to the workspace defaults.
func HandleQuery(cmd *cobra.Command, args []string, ws *config.Workspace) (search.Query, error) {
	f := cmd.Flags()
	values := map[string]any{
		"terms": strings.Join(args, " "),
	}

	if f.Changed("mode") {
		mode, _ := f.GetString("mode")
		if !config.ValidModes[strings.ToUpper(strings.TrimSpace(mode))] {
			return search.Query{}, fmt.Errorf("invalid --mode %q: must be ALL or ANY", mode)
		}
		values["mode"] = mode
	}
	if f.Changed("case-sensitive") {
		values["case_sensitive"], _ = f.GetBool("case-sensitive")
	}

	exclude, _ := f.GetString("exclude")
	values["exclude"] = exclude

	scope, _ := f.GetString("in")
	if !search.ValidScope(scope) {
		return search.Query{}, fmt.Errorf("invalid --in %q: must be all, title, content or body", scope)
	}
	values["search_in"] = scope

	for _, bound := range []struct{ flag, key string }{{"from", "date_from"}, {"to", "date_to"}} {
		raw, _ := f.GetString(bound.flag)
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if _, err := dateparse.ParseIn(raw, time.Local); err != nil {
			return search.Query{}, fmt.Errorf("invalid --%s date %q: %w", bound.flag, raw, err)
		}
		values[bound.key] = raw
	}

	included, _ := f.GetStringSlice("folder")
	excluded, _ := f.GetStringSlice("skip-folder")
	values["included_folders"] = included
	values["excluded_folders"] = excluded

	return archive.ParseQuery(values, ws), nil
}
