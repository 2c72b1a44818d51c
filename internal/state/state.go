package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/Paintersrp/chatseek/internal/classify"
	"github.com/Paintersrp/chatseek/internal/config"
	"github.com/Paintersrp/chatseek/internal/constants"
	"github.com/Paintersrp/chatseek/internal/logger"
	"github.com/Paintersrp/chatseek/internal/metrics"
	"github.com/Paintersrp/chatseek/internal/services/archive"
)

const classifierProbeTimeout = 10 * time.Second

type State struct {
	Config        *config.Config
	Workspace     *config.Workspace
	WorkspaceName string
	Home          string
	Archive       *archive.Service
	Metrics       *metrics.Recorder
	Classifiers   *classify.Registry
	Watcher       *ConfigWatcher

	mu     sync.RWMutex
	pinned bool
}

func NewState(workspaceOverride string) (*State, error) {
	home, err := GetHomeDir()
	if err != nil {
		return nil, err
	}

	cfg, err := LoadConfig(home)
	if err != nil {
		return nil, err
	}

	if workspaceOverride != "" {
		if err := cfg.ActivateWorkspace(workspaceOverride); err != nil {
			return nil, err
		}
	}

	s, err := New(cfg, home)
	if err != nil {
		return nil, err
	}
	s.pinned = workspaceOverride != ""
	return s, nil
}

// New wires the services for the active workspace of cfg.
func New(cfg *config.Config, home string) (*State, error) {
	ws, err := cfg.ActiveWorkspace()
	if err != nil {
		return nil, err
	}

	recorder := metrics.New()
	svc := archive.NewService(ws)
	svc.OnReport(recorder.Observe)

	return &State{
		Config:        cfg,
		Workspace:     ws,
		WorkspaceName: cfg.CurrentWorkspace,
		Home:          home,
		Archive:       svc,
		Metrics:       recorder,
		Classifiers:   loadClassifiers(ws),
	}, nil
}

func GetHomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory. err: %s", err)
	}

	return home, nil
}

// LoadConfig reads the config under home, creating it when missing. A
// workspace without an archive is reported but not fatal so that settings
// commands can still fix it.
func LoadConfig(home string) (*config.Config, error) {
	viper.AddConfigPath(home + constants.ConfigDir)
	viper.SetConfigName(constants.ConfigFile)
	viper.SetConfigType(constants.ConfigFileType)
	_ = viper.ReadInConfig()

	err := config.EnsureConfigExists(home)
	var initErr *config.ConfigInitError
	if errors.As(err, &initErr) {
		logger.Warn("%v", initErr)
	} else if err != nil {
		return nil, err
	}

	return config.Load(home)
}

func loadClassifiers(ws *config.Workspace) *classify.Registry {
	if !ws.Classifier.Enable {
		return classify.Unavailable()
	}

	ctx, cancel := context.WithTimeout(context.Background(), classifierProbeTimeout)
	defer cancel()

	registry, err := classify.NewExecRegistry(ctx, ws.Classifier.Command, ws.Classifier.Args)
	if err != nil {
		logger.Warn("classifier plugin unavailable: %v", err)
		return classify.Unavailable()
	}
	return registry
}

// Current returns the config and active workspace. Reloads swap in new
// values rather than mutating these, so callers may keep using them.
func (s *State) Current() (*config.Config, *config.Workspace) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Config, s.Workspace
}

// Registry returns the classifier registry for the active workspace.
func (s *State) Registry() *classify.Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Classifiers
}

// UpdateWorkspace replaces the active workspace with ws, persists the config
// and rebuilds the archive engine. The persisted current workspace is left
// unchanged when the active one was selected with --workspace.
func (s *State) UpdateWorkspace(ws *config.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := config.LoadFile(s.Config.GetConfigPath())
	if err != nil {
		return err
	}

	name := s.WorkspaceName
	cfg.Workspaces[name] = ws
	if !s.pinned {
		cfg.CurrentWorkspace = name
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	if err := cfg.ActivateWorkspace(name); err != nil {
		return err
	}

	s.apply(cfg)
	return nil
}

// Reload re-reads the config file and applies it.
func (s *State) Reload() error {
	s.mu.RLock()
	path := s.Config.GetConfigPath()
	name := s.WorkspaceName
	s.mu.RUnlock()

	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if s.pinned {
		if err := cfg.ActivateWorkspace(name); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(cfg)
	return nil
}

func (s *State) apply(cfg *config.Config) {
	ws := cfg.MustWorkspace()
	classifierChanged := s.Workspace == nil ||
		s.Workspace.Classifier.Enable != ws.Classifier.Enable ||
		s.Workspace.Classifier.Command != ws.Classifier.Command ||
		fmt.Sprint(s.Workspace.Classifier.Args) != fmt.Sprint(ws.Classifier.Args)

	s.Config = cfg
	s.Workspace = ws
	s.WorkspaceName = cfg.CurrentWorkspace

	if err := s.Archive.Reload(ws); err != nil {
		logger.Warn("archive unavailable after reload: %v", err)
	}
	if classifierChanged {
		s.Classifiers = loadClassifiers(ws)
	}
	logger.Debug("Applied workspace %q", s.WorkspaceName)
}

// WatchConfig reloads the state whenever the config file changes on disk.
func (s *State) WatchConfig() error {
	s.mu.RLock()
	path := s.Config.GetConfigPath()
	s.mu.RUnlock()

	w, err := NewConfigWatcher(path)
	if err != nil {
		return err
	}
	w.OnChange(func() {
		if err := s.Reload(); err != nil {
			logger.Warn("config reload failed: %v", err)
			return
		}
		logger.Info("Config reloaded from %s", path)
	})
	w.Start()

	s.mu.Lock()
	s.Watcher = w
	s.mu.Unlock()
	return nil
}

// Close releases resources associated with the state, including the config
// watcher and archive service.
func (s *State) Close() error {
	if s == nil {
		return nil
	}

	var errs []error
	if s.Watcher != nil {
		if err := s.Watcher.Close(); err != nil {
			errs = append(errs, err)
		}
		s.Watcher = nil
	}
	if s.Archive != nil {
		if err := s.Archive.Close(); err != nil && !errors.Is(err, archive.ErrClosed) {
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
