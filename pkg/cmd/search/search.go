/*
Copyright © 2024 Ryan Painter paintersrp@gmail.com

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package search

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/chatseek/internal/export"
	"github.com/Paintersrp/chatseek/internal/search"
	"github.com/Paintersrp/chatseek/internal/state"
	"github.com/Paintersrp/chatseek/pkg/arg"
	cmdpkg "github.com/Paintersrp/chatseek/pkg/cmd"
	"github.com/Paintersrp/chatseek/pkg/flags"
)

func NewCmdSearch(s *state.State) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "search [terms...]",
		Aliases: []string{"s", "find"},
		Short:   "Search the archive and list matching documents by relevance.",
		Long: heredoc.Doc(`
			Search scans every document in the active archive and ranks the
			matches by how often the terms occur. Quote a phrase to match it
			as a single term.

			Examples:
			  chatseek search kubernetes ingress
			  chatseek search '"error budget"' --mode any --exclude draft
			  chatseek search postgres --in title --from 2024-01-01 --folder work
		`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, s, args, limit, asJSON)
		},
	}

	flags.AddQuery(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many results (default from workspace settings)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	return cmd
}

func run(cmd *cobra.Command, s *state.State, args []string, limit int, asJSON bool) error {
	if _, err := arg.HandleTerms(args); err != nil {
		return err
	}

	_, ws := s.Current()
	q, err := flags.HandleQuery(cmd, args, ws)
	if err != nil {
		return err
	}

	report, err := s.Archive.Search(cmd.Context(), q)
	if err != nil {
		return err
	}
	if limit > 0 && len(report.Results) > limit {
		report.Results = report.Results[:limit]
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return export.Write(out, report.Results, export.Options{
			Format:   export.FormatJSON,
			PathType: export.PathRelative,
			Query:    q,
		})
	}

	printResults(out, report)
	return nil
}

func printResults(w io.Writer, report search.Report) {
	if len(report.Results) == 0 {
		fmt.Fprintln(w, "No matches found")
	}

	for _, r := range report.Results {
		fmt.Fprintf(w, "%s  %s  %s\n",
			cmdpkg.CountStyle.Render(strconv.Itoa(r.Matches)),
			cmdpkg.TitleStyle.Render(r.Title),
			cmdpkg.PathStyle.Render(r.Path),
		)
	}

	summary := fmt.Sprintf("%d shown · %d matched · %d scanned · %s",
		len(report.Results),
		report.Stats.Matched,
		report.Stats.Scanned,
		report.Elapsed.Round(time.Millisecond),
	)
	fmt.Fprintln(w, cmdpkg.MutedStyle.Render(summary))

	if report.Partial {
		fmt.Fprintln(w, cmdpkg.WarnStyle.Render("Search timed out; results are partial."))
	}
	if n := report.Stats.Skipped; n > 0 {
		fmt.Fprintln(w, cmdpkg.WarnStyle.Render(fmt.Sprintf("%d files could not be read.", n)))
	}
}
