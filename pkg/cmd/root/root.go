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
package root

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/chatseek/internal/constants"
	"github.com/Paintersrp/chatseek/internal/logger"
	"github.com/Paintersrp/chatseek/internal/state"
	"github.com/Paintersrp/chatseek/pkg/cmd/classify"
	"github.com/Paintersrp/chatseek/pkg/cmd/export"
	"github.com/Paintersrp/chatseek/pkg/cmd/search"
	"github.com/Paintersrp/chatseek/pkg/cmd/serve"
	"github.com/Paintersrp/chatseek/pkg/cmd/settings"
	"github.com/Paintersrp/chatseek/pkg/cmd/tree"
	"github.com/Paintersrp/chatseek/pkg/cmd/view"
	"github.com/Paintersrp/chatseek/pkg/cmd/workspace"
)

// Persistent flag names. Execute reads them before the state is built.
const (
	WorkspaceFlag = "workspace"
	VerboseFlag   = "verbose"
)

func NewCmdRoot(s *state.State) (*cobra.Command, error) {
	var workspaceName string
	var verbose bool

	cmd := &cobra.Command{
		Use:     constants.AppName,
		Short:   "Search an archive of exported chat conversations.",
		Version: constants.Version,
		Long: heredoc.Doc(`
			chatseek searches a folder of markdown chat exports without
			building an index. Every query scans the archive, ranks documents
			by match count and can be exported, viewed or served over HTTP.

			  chatseek settings set archive_dir ~/exports/chatgpt
			  chatseek search "vector database" --mode any
			  chatseek view
			  chatseek serve
		`),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if verbose {
				logger.SetVerbose(true)
			}
		},
	}

	cmd.PersistentFlags().
		StringVarP(
			&workspaceName,
			WorkspaceFlag,
			"w",
			"",
			"Workspace to use for this command instead of the current one.",
		)
	cmd.PersistentFlags().BoolVarP(&verbose, VerboseFlag, "v", false, "Log debug output to stderr.")

	cmd.AddCommand(
		search.NewCmdSearch(s),
		view.NewCmdView(s),
		tree.NewCmdTree(s),
		export.NewCmdExport(s),
		serve.NewCmdServe(s),
		settings.NewCmdSettings(s),
		workspace.NewCmdWorkspace(s),
		classify.NewCmdClassify(s),
	)

	return cmd, nil
}
