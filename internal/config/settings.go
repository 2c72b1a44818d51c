package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// ErrUnknownSetting is returned by Set for keys that are not recognized.
var ErrUnknownSetting = errors.New("unknown setting")

type setting struct {
	get func(ws *Workspace) any
	set func(ws *Workspace, raw any) error
}

func stringSetting(field func(ws *Workspace) *string) setting {
	return setting{
		get: func(ws *Workspace) any { return *field(ws) },
		set: func(ws *Workspace, raw any) error {
			v, err := cast.ToStringE(raw)
			if err != nil {
				return err
			}
			*field(ws) = strings.TrimSpace(v)
			return nil
		},
	}
}

func intSetting(field func(ws *Workspace) *int) setting {
	return setting{
		get: func(ws *Workspace) any { return *field(ws) },
		set: func(ws *Workspace, raw any) error {
			if s, ok := raw.(string); ok {
				raw = strings.TrimSpace(s)
			}
			v, err := cast.ToIntE(raw)
			if err != nil {
				return err
			}
			*field(ws) = v
			return nil
		},
	}
}

func boolSetting(field func(ws *Workspace) *bool) setting {
	return setting{
		get: func(ws *Workspace) any { return *field(ws) },
		set: func(ws *Workspace, raw any) error {
			if s, ok := raw.(string); ok {
				raw = strings.TrimSpace(s)
			}
			v, err := cast.ToBoolE(raw)
			if err != nil {
				return err
			}
			*field(ws) = v
			return nil
		},
	}
}

func listSetting(field func(ws *Workspace) *[]string) setting {
	return setting{
		get: func(ws *Workspace) any { return append([]string(nil), *field(ws)...) },
		set: func(ws *Workspace, raw any) error {
			var items []string
			if s, ok := raw.(string); ok {
				items = strings.Split(s, ",")
			} else {
				var err error
				items, err = cast.ToStringSliceE(raw)
				if err != nil {
					return err
				}
			}
			out := make([]string, 0, len(items))
			for _, item := range items {
				if trimmed := strings.TrimSpace(item); trimmed != "" {
					out = append(out, trimmed)
				}
			}
			*field(ws) = out
			return nil
		},
	}
}

var settings = map[string]setting{
	"archive_dir": stringSetting(func(ws *Workspace) *string { return &ws.ArchiveDir }),

	"search.default_mode":           stringSetting(func(ws *Workspace) *string { return &ws.Search.DefaultMode }),
	"search.default_case_sensitive": boolSetting(func(ws *Workspace) *bool { return &ws.Search.DefaultCaseSensitive }),
	"search.max_results":            intSetting(func(ws *Workspace) *int { return &ws.Search.MaxResults }),
	"search.timeout_seconds":        intSetting(func(ws *Workspace) *int { return &ws.Search.TimeoutSeconds }),
	"search.workers":                intSetting(func(ws *Workspace) *int { return &ws.Search.Workers }),
	"search.extensions":             listSetting(func(ws *Workspace) *[]string { return &ws.Search.Extensions }),
	"search.ignored_folders":        listSetting(func(ws *Workspace) *[]string { return &ws.Search.IgnoredFolders }),
	"search.include_hidden":         boolSetting(func(ws *Workspace) *bool { return &ws.Search.IncludeHidden }),

	"tree.max_depth":   intSetting(func(ws *Workspace) *int { return &ws.Tree.MaxDepth }),
	"tree.show_hidden": boolSetting(func(ws *Workspace) *bool { return &ws.Tree.ShowHidden }),

	"export.format":    stringSetting(func(ws *Workspace) *string { return &ws.Export.Format }),
	"export.path_type": stringSetting(func(ws *Workspace) *string { return &ws.Export.PathType }),
	"export.s3_bucket": stringSetting(func(ws *Workspace) *string { return &ws.Export.S3Bucket }),
	"export.s3_prefix": stringSetting(func(ws *Workspace) *string { return &ws.Export.S3Prefix }),
	"export.s3_region": stringSetting(func(ws *Workspace) *string { return &ws.Export.S3Region }),

	"server.host":  stringSetting(func(ws *Workspace) *string { return &ws.Server.Host }),
	"server.port":  intSetting(func(ws *Workspace) *int { return &ws.Server.Port }),
	"server.debug": boolSetting(func(ws *Workspace) *bool { return &ws.Server.Debug }),

	"classifier.enable":  boolSetting(func(ws *Workspace) *bool { return &ws.Classifier.Enable }),
	"classifier.command": stringSetting(func(ws *Workspace) *string { return &ws.Classifier.Command }),
	"classifier.args":    listSetting(func(ws *Workspace) *[]string { return &ws.Classifier.Args }),
}

// SettingKeys returns every recognized dotted setting key in sorted order.
func SettingKeys() []string {
	keys := make([]string, 0, len(settings))
	for key := range settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Settings flattens the workspace into dotted keys.
func (ws *Workspace) Settings() map[string]any {
	out := make(map[string]any, len(settings))
	for key, s := range settings {
		out[key] = s.get(ws)
	}
	return out
}

// Set assigns a single dotted setting, converting the value to the field's
// type. Values are not range-checked; call Validate afterwards.
func (ws *Workspace) Set(key string, value any) error {
	s, ok := settings[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}
	if err := s.set(ws, value); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

// Apply assigns every value in values and returns per-key conversion errors.
// Keys that fail keep their previous value.
func (ws *Workspace) Apply(values map[string]any) map[string]string {
	problems := make(map[string]string)
	for key, value := range values {
		if err := ws.Set(key, value); err != nil {
			problems[key] = err.Error()
		}
	}
	return problems
}

type bounds struct {
	min, max int
}

var numericBounds = map[string]bounds{
	"search.max_results":     {1, 10000},
	"search.timeout_seconds": {5, 300},
	"tree.max_depth":         {1, 10},
	"server.port":            {1, 65535},
}

// Validate checks the workspace and returns field errors keyed by setting.
// An empty map means the workspace is valid.
func (ws *Workspace) Validate() map[string]string {
	problems := make(map[string]string)

	if ws.ArchiveDir != "" {
		if err := ValidateArchiveDir(ws.ArchiveDir); err != nil {
			problems["archive_dir"] = err.Error()
		}
	}

	values := ws.Settings()
	for key, b := range numericBounds {
		if v := cast.ToInt(values[key]); v < b.min || v > b.max {
			problems[key] = fmt.Sprintf("must be a number between %d and %d", b.min, b.max)
		}
	}
	if ws.Search.Workers < 0 {
		problems["search.workers"] = "must not be negative"
	}

	if !ValidModes[strings.ToUpper(ws.Search.DefaultMode)] {
		problems["search.default_mode"] = "must be ALL or ANY"
	}
	if !ValidExportFormats[ws.Export.Format] {
		problems["export.format"] = "must be csv, csv-paths or json"
	}
	if !ValidPathTypes[ws.Export.PathType] {
		problems["export.path_type"] = "must be relative or full"
	}
	if ws.Classifier.Enable && strings.TrimSpace(ws.Classifier.Command) == "" {
		problems["classifier.command"] = "required when the classifier is enabled"
	}

	return problems
}

// ValidateArchiveDir reports whether path names an existing directory.
func ValidateArchiveDir(path string) error {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return errors.New("archive path is required")
	}
	info, err := os.Stat(trimmed)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errors.New("archive path does not exist")
		}
		return err
	}
	if !info.IsDir() {
		return errors.New("archive path is not a directory")
	}
	return nil
}
