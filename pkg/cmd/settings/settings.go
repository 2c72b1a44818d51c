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
package settings

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/chatseek/internal/config"
	"github.com/Paintersrp/chatseek/internal/state"
	cmdpkg "github.com/Paintersrp/chatseek/pkg/cmd"
)

func NewCmdSettings(s *state.State) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "settings",
		Aliases: []string{"config"},
		Short:   "Show and change the active workspace settings.",
		Long: heredoc.Doc(`
			Settings are stored per workspace in ~/.chatseek/cfg.yaml. Keys use
			dotted names such as search.max_results or export.format.

			Examples:
			  chatseek settings
			  chatseek settings set archive_dir ~/exports/chatgpt
			  chatseek settings set search.ignored_folders "drafts,tmp"
			  chatseek settings validate
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return show(cmd.OutOrStdout(), s)
		},
	}

	cmd.AddCommand(
		newCmdShow(s),
		newCmdSet(s),
		newCmdValidate(s),
		newCmdReset(s),
	)

	return cmd
}

func newCmdShow(s *state.State) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print every setting of the active workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return show(cmd.OutOrStdout(), s)
		},
	}
}

func show(w io.Writer, s *state.State) error {
	cfg, ws := s.Current()
	fmt.Fprintf(w, "Workspace %s (%s)\n", cmdpkg.TitleStyle.Render(cfg.CurrentWorkspace), cfg.GetConfigPath())

	values := ws.Settings()
	for _, key := range config.SettingKeys() {
		fmt.Fprintf(w, "%s %s\n", cmdpkg.KeyStyle.Render(key), formatValue(values[key]))
	}

	if line := s.StatusLine(); line != "" {
		fmt.Fprintln(w, cmdpkg.MutedStyle.Render(line))
	}
	return nil
}

func formatValue(v any) string {
	if list, ok := v.([]string); ok {
		return strings.Join(list, ",")
	}
	return fmt.Sprint(v)
}

func newCmdSet(s *state.State) *cobra.Command {
	return &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Change one setting",
		Long: heredoc.Doc(`
			Set converts the value to the setting's type, validates the
			workspace and saves it. The previous config is kept as a backup.
			List settings take comma separated values.
		`),
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.SettingKeys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveDefault
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.ToLower(strings.TrimSpace(args[0]))

			_, ws := s.Current()
			updated := ws.Clone()
			if err := updated.Set(key, args[1]); err != nil {
				if errors.Is(err, config.ErrUnknownSetting) {
					return fmt.Errorf("%w; run `chatseek settings show` for valid keys", err)
				}
				return err
			}
			if msg, ok := updated.Validate()[key]; ok {
				return fmt.Errorf("invalid %s: %s", key, msg)
			}

			if err := s.UpdateWorkspace(updated); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, formatValue(updated.Settings()[key]))
			return nil
		},
	}
}

func newCmdValidate(s *state.State) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the active workspace settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, ws := s.Current()
			problems := ws.Validate()
			if ws.ArchiveDir == "" {
				problems["archive_dir"] = "archive path is required"
			}
			if len(problems) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Settings are valid")
				return nil
			}

			keys := make([]string, 0, len(problems))
			for key := range problems {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cmdpkg.KeyStyle.Render(key), cmdpkg.WarnStyle.Render(problems[key]))
			}
			return fmt.Errorf("%d invalid settings", len(problems))
		},
	}
}

func newCmdReset(s *state.State) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore default settings, keeping the archive directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, ws := s.Current()
			if err := s.UpdateWorkspace(config.NewWorkspace(ws.ArchiveDir)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Settings reset to defaults")
			return nil
		},
	}
}
