package state

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Paintersrp/chatseek/internal/logger"
	"github.com/Paintersrp/chatseek/internal/pathutil"
)

const defaultDebounce = 250 * time.Millisecond

// ConfigWatcher reports changes to a single config file. The parent
// directory is watched so editors that replace the file are still seen.
type ConfigWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	done     chan struct{}
	once     sync.Once
	mu       sync.Mutex
	onChange func()
}

func NewConfigWatcher(path string) (*ConfigWatcher, error) {
	normalized := pathutil.NormalizePath(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(normalized)); err != nil {
		_ = w.Close()
		return nil, err
	}

	return &ConfigWatcher{
		watcher:  w,
		path:     normalized,
		debounce: defaultDebounce,
		done:     make(chan struct{}),
	}, nil
}

// OnChange registers the callback fired after a burst of events settles.
func (w *ConfigWatcher) OnChange(fn func()) {
	if w == nil {
		return
	}
	w.mu.Lock()
	w.onChange = fn
	w.mu.Unlock()
}

// Start consumes events in a background goroutine until Close.
func (w *ConfigWatcher) Start() {
	if w == nil {
		return
	}
	go w.loop()
}

func (w *ConfigWatcher) loop() {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isRelevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.mu.Lock()
			fn := w.onChange
			w.mu.Unlock()
			if fn != nil {
				fn()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				logger.Warn("config watcher: %v", err)
			}
		}
	}
}

func (w *ConfigWatcher) isRelevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	return pathutil.NormalizePath(event.Name) == w.path
}

func (w *ConfigWatcher) Close() error {
	if w == nil {
		return nil
	}

	var closeErr error
	w.once.Do(func() {
		close(w.done)
		closeErr = w.watcher.Close()
	})
	return closeErr
}
