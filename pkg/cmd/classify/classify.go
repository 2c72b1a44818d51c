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
package classify

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/chatseek/internal/classify"
	"github.com/Paintersrp/chatseek/internal/state"
	cmdpkg "github.com/Paintersrp/chatseek/pkg/cmd"
)

func NewCmdClassify(s *state.State) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Score archived documents with the classifier plugin.",
		Long: heredoc.Doc(`
			Classify runs the external plugin configured under
			classifier.command. The plugin lists its tests and scores one
			document per invocation.

			Examples:
			  chatseek settings set classifier.enable true
			  chatseek settings set classifier.command /usr/local/bin/scorer
			  chatseek classify list
			  chatseek classify run overlap chats/a.md chats/b.md --reference ref.txt
		`),
	}

	cmd.AddCommand(
		newCmdList(s),
		newCmdRun(s),
	)

	return cmd
}

func newCmdList(s *state.State) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tests the plugin provides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tests, err := s.Registry().Tests()
			if err != nil {
				return fmt.Errorf("%w; enable it with `chatseek settings set classifier.enable true`", err)
			}

			out := cmd.OutOrStdout()
			for _, t := range tests {
				line := fmt.Sprintf("%s %s", cmdpkg.KeyStyle.Render(t.ID), t.Name)
				if t.RequiresReference {
					line += cmdpkg.MutedStyle.Render(" (needs --reference)")
				}
				fmt.Fprintln(out, line)
				if t.Description != "" {
					fmt.Fprintln(out, cmdpkg.MutedStyle.Render("    "+t.Description))
				}
			}
			return nil
		},
	}
}

func newCmdRun(s *state.State) *cobra.Command {
	var reference string
	var referenceFile string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run [test] [path...]",
		Short: "Score documents with one test",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := s.Registry()
			if !registry.Available() {
				return classify.ErrUnavailable
			}

			engine, err := s.Archive.Engine()
			if err != nil {
				return err
			}

			if referenceFile != "" {
				rel, err := cmdpkg.ResolveArchivePath(s, referenceFile)
				if err != nil {
					return err
				}
				doc, err := engine.Load(rel)
				if err != nil {
					return err
				}
				reference = doc.Body
			}

			paths := make([]string, 0, len(args)-1)
			for _, a := range args[1:] {
				rel, err := cmdpkg.ResolveArchivePath(s, a)
				if err != nil {
					return err
				}
				paths = append(paths, rel)
			}

			report, err := registry.Batch(cmd.Context(), args[0], paths, reference, engine.Load)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&reference, "reference", "r", "", "Reference text for tests that compare against it")
	cmd.Flags().StringVar(&referenceFile, "reference-file", "", "Archive document to use as reference text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full report as JSON")
	cmd.MarkFlagsMutuallyExclusive("reference", "reference-file")

	return cmd
}

func printReport(w io.Writer, report classify.BatchReport) {
	for _, o := range report.Results {
		if !o.Success {
			fmt.Fprintf(w, "%s  %s\n", cmdpkg.PathStyle.Render(o.Path), cmdpkg.WarnStyle.Render(o.Error))
			continue
		}
		fmt.Fprintf(w, "%s  %s  %s\n",
			cmdpkg.CountStyle.Render(fmt.Sprintf("%.2f", o.Result.Score)),
			cmdpkg.TitleStyle.Render(o.Title),
			cmdpkg.PathStyle.Render(o.Path),
		)
	}
	fmt.Fprintln(w, cmdpkg.MutedStyle.Render(fmt.Sprintf("%d of %d documents scored", report.Successful, report.TotalFiles)))
}
