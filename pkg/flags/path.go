package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/chatseek/internal/config"
	"github.com/Paintersrp/chatseek/internal/export"
)

func AddPathType(cmd *cobra.Command) {
	cmd.Flags().
		StringP(
			"path-type",
			"p",
			"",
			"Write relative or full paths (default from workspace settings)",
		)
}

func HandlePathType(cmd *cobra.Command, ws *config.Workspace) (export.PathType, error) {
	raw, err := cmd.Flags().GetString("path-type")
	if err != nil {
		return "", fmt.Errorf("error retrieving path-type flag: %w", err)
	}
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		raw = ws.Export.PathType
	}
	if !config.ValidPathTypes[raw] {
		return "", fmt.Errorf("invalid --path-type %q: must be relative or full", raw)
	}
	return export.ParsePathType(raw), nil
}
