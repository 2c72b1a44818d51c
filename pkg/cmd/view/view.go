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
package view

import (
	"errors"
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/chatseek/internal/fzf"
	"github.com/Paintersrp/chatseek/internal/render"
	"github.com/Paintersrp/chatseek/internal/state"
	cmdpkg "github.com/Paintersrp/chatseek/pkg/cmd"
)

type options struct {
	html  bool
	raw   bool
	query string
}

func NewCmdView(s *state.State) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:     "view [path]",
		Aliases: []string{"v", "show"},
		Short:   "Render an archived document in the terminal.",
		Long: heredoc.Doc(`
			View renders a document from the archive as styled markdown.
			Without a path a fuzzy finder lists every document with a live
			preview.

			Examples:
			  chatseek view
			  chatseek view chats/2024/standup.md
			  chatseek view chats/2024/standup.md --html > standup.html
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, s, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.html, "html", false, "Print the document body as HTML")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Print the document body without rendering")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "Initial fuzzy finder query")
	cmd.MarkFlagsMutuallyExclusive("html", "raw")

	return cmd
}

func run(cmd *cobra.Command, s *state.State, args []string, opts options) error {
	engine, err := s.Archive.Engine()
	if err != nil {
		return err
	}

	var rel string
	if len(args) == 1 {
		rel, err = cmdpkg.ResolveArchivePath(s, args[0])
		if err != nil {
			return err
		}
	} else {
		rel, err = fzf.NewFuzzyFinder(engine, "Select a document").RunWithQuery(cmd.Context(), opts.query)
		if errors.Is(err, fzf.ErrNoSelection) {
			fmt.Fprintln(cmd.ErrOrStderr(), "No file selected")
			return nil
		}
		if err != nil {
			return err
		}
	}

	doc, err := engine.Load(rel)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case opts.raw:
		_, err = fmt.Fprint(out, doc.Body)
		return err
	case opts.html:
		html, err := render.HTML([]byte(doc.Body))
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(out, html)
		return err
	}

	plain := true
	if f, ok := out.(*os.File); ok {
		plain = !render.IsTerminal(f)
	}
	rendered, err := render.Terminal(doc.Body, render.TerminalOptions{Plain: plain})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, cmdpkg.TitleStyle.Render(doc.Title))
	fmt.Fprintln(out, cmdpkg.PathStyle.Render(doc.Path))
	_, err = fmt.Fprint(out, rendered)
	return err
}
