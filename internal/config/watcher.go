package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/technocoreai/extcmd/internal/logging"
)

// ReloadHandler is called with the new configuration after the file changes.
type ReloadHandler func(cfg *Config)

// Watcher reloads a config file when it changes on disk.
//
// The file's directory is watched rather than the file, so editors that
// replace the file on save are handled.
type Watcher struct {
	path     string
	load     func(path string) (*Config, error)
	debounce time.Duration
	logger   *logging.Logger

	fsw *fsnotify.Watcher

	mu       sync.RWMutex
	handlers []ReloadHandler
	current  *Config
	lastErr  error

	closeOnce sync.Once
	closeCh   chan struct{}
	wg        sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long to wait for writes to settle before reloading.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithWatcherLogger sets the logger.
func WithWatcherLogger(l *logging.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logging.OrNull(l)
	}
}

// WithLoadFunc replaces Load for reloading.
func WithLoadFunc(fn func(path string) (*Config, error)) WatcherOption {
	return func(w *Watcher) {
		w.load = fn
	}
}

// NewWatcher starts watching path. current is the configuration already
// loaded from it.
func NewWatcher(path string, current *Config, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}

	w := &Watcher{
		path:     abs,
		load:     Load,
		debounce: 50 * time.Millisecond,
		logger:   logging.NullLogger,
		current:  current,
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("config watcher: watch %s: %w", filepath.Dir(abs), err)
	}
	w.fsw = fsw

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// OnReload registers a handler for successful reloads.
func (w *Watcher) OnReload(h ReloadHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, h)
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// LastError returns the error of the last failed reload, if any.
func (w *Watcher) LastError() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastErr
}

// Close stops watching.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closeCh)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.closeCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher: %v", err)

		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := w.load(w.path)

	w.mu.Lock()
	w.lastErr = err
	if err == nil {
		w.current = cfg
	}
	handlers := append([]ReloadHandler(nil), w.handlers...)
	w.mu.Unlock()

	if err != nil {
		w.logger.Warn("config reload failed, keeping previous: %v", err)
		return
	}
	w.logger.Info("config reloaded from %s", w.path)
	for _, h := range handlers {
		h(cfg)
	}
}
