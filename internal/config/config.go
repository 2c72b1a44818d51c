package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spf13/viper"

	"github.com/Paintersrp/chatseek/internal/constants"
)

type SearchConfig struct {
	DefaultMode          string   `yaml:"default_mode"           json:"default_mode"`
	DefaultCaseSensitive bool     `yaml:"default_case_sensitive" json:"default_case_sensitive"`
	MaxResults           int      `yaml:"max_results"            json:"max_results"`
	TimeoutSeconds       int      `yaml:"timeout_seconds"        json:"timeout_seconds"`
	Workers              int      `yaml:"workers"                json:"workers"`
	Extensions           []string `yaml:"extensions"             json:"extensions"`
	IgnoredFolders       []string `yaml:"ignored_folders"        json:"ignored_folders"`
	IncludeHidden        bool     `yaml:"include_hidden"         json:"include_hidden"`
}

// Timeout returns the per-search deadline.
func (s SearchConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

type TreeConfig struct {
	MaxDepth   int  `yaml:"max_depth"   json:"max_depth"`
	ShowHidden bool `yaml:"show_hidden" json:"show_hidden"`
}

type ExportConfig struct {
	Format   string `yaml:"format"    json:"format"`
	PathType string `yaml:"path_type" json:"path_type"`
	S3Bucket string `yaml:"s3_bucket" json:"s3_bucket"`
	S3Prefix string `yaml:"s3_prefix" json:"s3_prefix"`
	S3Region string `yaml:"s3_region" json:"s3_region"`
}

type ServerConfig struct {
	Host  string `yaml:"host"  json:"host"`
	Port  int    `yaml:"port"  json:"port"`
	Debug bool   `yaml:"debug" json:"debug"`
}

// Addr returns the listen address for the HTTP service.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type ClassifierConfig struct {
	Enable  bool     `yaml:"enable"  json:"enable"`
	Command string   `yaml:"command" json:"command"`
	Args    []string `yaml:"args"    json:"args"`
}

// Workspace is one named archive together with its search, export and
// service settings.
type Workspace struct {
	ArchiveDir string           `yaml:"archive_dir" json:"archive_dir"`
	Search     SearchConfig     `yaml:"search"      json:"search"`
	Tree       TreeConfig       `yaml:"tree"        json:"tree"`
	Export     ExportConfig     `yaml:"export"      json:"export"`
	Server     ServerConfig     `yaml:"server"      json:"server"`
	Classifier ClassifierConfig `yaml:"classifier"  json:"classifier"`
}

type Config struct {
	Workspaces       map[string]*Workspace `yaml:"workspaces"        json:"workspaces"`
	CurrentWorkspace string                `yaml:"current_workspace" json:"current_workspace"`

	active *Workspace `yaml:"-"`
	path   string     `yaml:"-"`
}

const (
	defaultWorkspaceName = "default"

	DefaultMaxResults     = 100
	DefaultTimeoutSeconds = 30
	DefaultTreeDepth      = 3
	DefaultExportFormat   = "csv"
	DefaultPathType       = "relative"
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 5000
)

var (
	ValidModes = map[string]bool{
		"ALL": true,
		"ANY": true,
	}
	ValidExportFormats = map[string]bool{
		"csv":       true,
		"csv-paths": true,
		"json":      true,
	}
	ValidPathTypes = map[string]bool{
		"relative": true,
		"full":     true,
	}
)

// NewWorkspace returns a workspace for archive populated with defaults.
func NewWorkspace(archive string) *Workspace {
	ws := &Workspace{ArchiveDir: archive}
	ws.ensureDefaults()
	return ws
}

func (ws *Workspace) ensureDefaults() {
	ws.ArchiveDir = strings.TrimSpace(ws.ArchiveDir)

	ws.Search.DefaultMode = strings.ToUpper(strings.TrimSpace(ws.Search.DefaultMode))
	if ws.Search.DefaultMode == "" {
		ws.Search.DefaultMode = "ALL"
	}
	if ws.Search.MaxResults == 0 {
		ws.Search.MaxResults = DefaultMaxResults
	}
	if ws.Search.TimeoutSeconds == 0 {
		ws.Search.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if len(ws.Search.Extensions) == 0 {
		ws.Search.Extensions = []string{".md"}
	}
	if ws.Search.IgnoredFolders == nil {
		ws.Search.IgnoredFolders = []string{}
	}

	if ws.Tree.MaxDepth == 0 {
		ws.Tree.MaxDepth = DefaultTreeDepth
	}

	if ws.Export.Format == "" {
		ws.Export.Format = DefaultExportFormat
	}
	if ws.Export.PathType == "" {
		ws.Export.PathType = DefaultPathType
	}

	if ws.Server.Host == "" {
		ws.Server.Host = DefaultHost
	}
	if ws.Server.Port == 0 {
		ws.Server.Port = DefaultPort
	}

	if ws.Classifier.Args == nil {
		ws.Classifier.Args = []string{}
	}
}

// Clone returns a deep copy of the workspace.
func (ws *Workspace) Clone() *Workspace {
	if ws == nil {
		return nil
	}
	clone := *ws
	clone.Search.Extensions = append([]string(nil), ws.Search.Extensions...)
	clone.Search.IgnoredFolders = append([]string(nil), ws.Search.IgnoredFolders...)
	clone.Classifier.Args = append([]string(nil), ws.Classifier.Args...)
	return &clone
}

// GetConfigPath returns the location of the config file under home.
func GetConfigPath(home string) string {
	return filepath.Join(home, constants.ConfigDir, constants.ConfigFile+"."+constants.ConfigFileType)
}

// EnsureConfigExists creates an empty config file under home unless one is
// already there, then loads it. A ConfigInitError means the file is usable
// but the active workspace has no archive yet.
func EnsureConfigExists(home string) error {
	path := GetConfigPath(home)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	switch {
	case err == nil:
		if err := f.Close(); err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
	case !errors.Is(err, fs.ErrExist):
		return fmt.Errorf("create %s: %w", path, err)
	}

	cfg, err := Load(home)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ws, err := cfg.ActiveWorkspace()
	if err != nil {
		return err
	}
	if strings.TrimSpace(ws.ArchiveDir) == "" {
		return &ConfigInitError{
			msg: fmt.Sprintf("workspace %q has no archive_dir; run `chatseek settings set archive_dir <path>`", cfg.CurrentWorkspace),
		}
	}
	return nil
}

// Load reads the configuration stored under home. An empty file yields a
// single default workspace.
func Load(home string) (*Config, error) {
	path := GetConfigPath(home)
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads the configuration at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{path: path}
	if len(strings.TrimSpace(string(data))) == 0 {
		cfg.Workspaces = map[string]*Workspace{
			defaultWorkspaceName: NewWorkspace(""),
		}
		cfg.CurrentWorkspace = defaultWorkspaceName
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.ensureInitialized(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) ensureInitialized() error {
	if cfg.Workspaces == nil {
		cfg.Workspaces = make(map[string]*Workspace)
	}

	if cfg.CurrentWorkspace == "" {
		if len(cfg.Workspaces) == 0 {
			cfg.Workspaces[defaultWorkspaceName] = NewWorkspace("")
			cfg.CurrentWorkspace = defaultWorkspaceName
		} else {
			cfg.CurrentWorkspace = cfg.WorkspaceNames()[0]
		}
	}

	return cfg.setActiveWorkspace(cfg.CurrentWorkspace)
}

func (cfg *Config) setActiveWorkspace(name string) error {
	if name == "" {
		return fmt.Errorf("workspace name cannot be empty")
	}
	ws, ok := cfg.Workspaces[name]
	if !ok {
		return fmt.Errorf("workspace %q does not exist", name)
	}
	if ws == nil {
		ws = NewWorkspace("")
		cfg.Workspaces[name] = ws
	}

	ws.ensureDefaults()
	cfg.CurrentWorkspace = name
	cfg.active = ws

	cfg.syncViperWithActiveWorkspace()

	return nil
}

func (cfg *Config) syncViperWithActiveWorkspace() {
	if cfg.active == nil {
		return
	}

	syncWorkspaceWithViper(cfg.active)
}

func syncWorkspaceWithViper(ws *Workspace) {
	for key, value := range ws.Settings() {
		viper.Set(key, value)
	}
}

func (cfg *Config) ActiveWorkspace() (*Workspace, error) {
	if cfg.active != nil {
		return cfg.active, nil
	}

	if cfg.CurrentWorkspace == "" {
		return nil, fmt.Errorf("no workspace is currently selected")
	}

	if err := cfg.setActiveWorkspace(cfg.CurrentWorkspace); err != nil {
		return nil, err
	}

	return cfg.active, nil
}

func (cfg *Config) MustWorkspace() *Workspace {
	ws, err := cfg.ActiveWorkspace()
	if err != nil {
		panic(err)
	}
	return ws
}

func (cfg *Config) WorkspaceNames() []string {
	names := make([]string, 0, len(cfg.Workspaces))
	for name := range cfg.Workspaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (cfg *Config) SwitchWorkspace(name string) error {
	if err := cfg.setActiveWorkspace(name); err != nil {
		return err
	}
	return cfg.Save()
}

// ActivateWorkspace selects name for this process without persisting it.
func (cfg *Config) ActivateWorkspace(name string) error {
	return cfg.setActiveWorkspace(name)
}

func (cfg *Config) AddWorkspace(name string, ws *Workspace, makeCurrent bool) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("workspace name cannot be empty")
	}

	if cfg.Workspaces == nil {
		cfg.Workspaces = make(map[string]*Workspace)
	}

	if _, exists := cfg.Workspaces[trimmed]; exists {
		return fmt.Errorf("workspace %q already exists", trimmed)
	}

	if ws == nil {
		ws = NewWorkspace("")
	}
	ws.ensureDefaults()
	cfg.Workspaces[trimmed] = ws

	if cfg.CurrentWorkspace == "" || makeCurrent {
		if err := cfg.setActiveWorkspace(trimmed); err != nil {
			return err
		}
	}

	return cfg.Save()
}

func (cfg *Config) RemoveWorkspace(name string) error {
	if len(cfg.Workspaces) <= 1 {
		return fmt.Errorf("cannot remove the last workspace")
	}

	if _, exists := cfg.Workspaces[name]; !exists {
		return fmt.Errorf("workspace %q does not exist", name)
	}

	delete(cfg.Workspaces, name)

	if cfg.CurrentWorkspace == name {
		cfg.active = nil
		cfg.CurrentWorkspace = ""
		if err := cfg.ensureInitialized(); err != nil {
			return err
		}
	}

	return cfg.Save()
}

// GetConfigPath returns the file this configuration was loaded from, or the
// default location under the user's home directory.
func (cfg *Config) GetConfigPath() string {
	if cfg.path != "" {
		return cfg.path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return GetConfigPath(homeDir)
}

// Save writes the configuration. The previous file, when present, is kept
// next to it with a backup suffix.
func (cfg *Config) Save() error {
	if _, err := cfg.ActiveWorkspace(); err != nil {
		return err
	}

	cfg.syncViperWithActiveWorkspace()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	configPath := cfg.GetConfigPath()
	if configPath == "" {
		return errors.New("unable to resolve config path")
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	previous, err := os.ReadFile(configPath)
	switch {
	case err == nil && len(previous) > 0:
		if err := os.WriteFile(configPath+constants.BackupSuffix, previous, 0o644); err != nil {
			return fmt.Errorf("write config backup: %w", err)
		}
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("read existing config: %w", err)
	}

	return os.WriteFile(configPath, data, 0o644)
}
