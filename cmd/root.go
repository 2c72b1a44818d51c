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
package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/chatseek/internal/logger"
	"github.com/Paintersrp/chatseek/internal/state"
	"github.com/Paintersrp/chatseek/pkg/cmd/root"
)

func Execute() {
	workspace, verbose := scanPersistentFlags(os.Args[1:])
	logger.SetVerbose(verbose)

	s, err := state.NewState(workspace)
	cobra.CheckErr(err)
	defer s.Close()

	rootCmd, err := root.NewCmdRoot(s)
	cobra.CheckErr(err)

	if err := rootCmd.Execute(); err != nil {
		s.Close()
		os.Exit(1)
	}
}

// scanPersistentFlags finds --workspace and --verbose ahead of cobra's
// parsing, since the state they select must exist before the commands are
// built.
func scanPersistentFlags(args []string) (workspace string, verbose bool) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--":
			return workspace, verbose
		case a == "--"+root.VerboseFlag || a == "-v":
			verbose = true
		case a == "--"+root.WorkspaceFlag || a == "-w":
			if i+1 < len(args) {
				workspace = args[i+1]
				i++
			}
		case strings.HasPrefix(a, "--"+root.WorkspaceFlag+"="):
			workspace = strings.TrimPrefix(a, "--"+root.WorkspaceFlag+"=")
		case strings.HasPrefix(a, "-w="):
			workspace = strings.TrimPrefix(a, "-w=")
		}
	}
	return workspace, verbose
}
