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
package tree

import (
	"fmt"
	"io"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/chatseek/internal/state"
	"github.com/Paintersrp/chatseek/internal/tree"
	cmdpkg "github.com/Paintersrp/chatseek/pkg/cmd"
)

func NewCmdTree(s *state.State) *cobra.Command {
	var depth int
	var hidden bool

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the folders and documents of the archive.",
		Long: heredoc.Doc(`
			Tree prints the archive's folders and indexable documents.
			Depth and hidden entries default to the workspace tree settings.

			Examples:
			  chatseek tree
			  chatseek tree --depth 1
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, ws := s.Current()
			opts := tree.Options{
				MaxDepth:   ws.Tree.MaxDepth,
				ShowHidden: ws.Tree.ShowHidden,
				Extensions: ws.Search.Extensions,
			}
			if cmd.Flags().Changed("depth") {
				opts.MaxDepth = depth
			}
			if cmd.Flags().Changed("hidden") {
				opts.ShowHidden = hidden
			}

			root, err := tree.Build(ws.ArchiveDir, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cmdpkg.FolderStyle.Render(ws.ArchiveDir))
			printChildren(out, root.Children, "")

			folders, files := root.Count()
			fmt.Fprintln(out, cmdpkg.MutedStyle.Render(fmt.Sprintf("%d folders, %d documents", folders, files)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "d", 0, "Maximum depth to descend (1-10)")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "Include hidden files and folders")

	return cmd
}

func printChildren(w io.Writer, nodes []*tree.Node, prefix string) {
	for i, node := range nodes {
		connector, indent := "├── ", "│   "
		if i == len(nodes)-1 {
			connector, indent = "└── ", "    "
		}

		name := node.Name
		if node.Type == tree.TypeFolder {
			name = cmdpkg.FolderStyle.Render(name + "/")
		}
		fmt.Fprintf(w, "%s%s%s\n", prefix, connector, name)

		if len(node.Children) > 0 {
			printChildren(w, node.Children, prefix+indent)
		}
	}
}
