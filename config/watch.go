package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the config file on change and publishes the parsed
// result to subscribers. Reloads are debounced because editors commonly
// emit several write events per save, and a parse failure keeps the last
// good config in place.
type Watcher struct {
	path   string
	logger *slog.Logger

	mu  sync.RWMutex
	cfg *Config

	validate func(cfg *Config) error
	onUpdate []func(cfg *Config)
}

func NewWatcher(path string, cfg *Config, logger *slog.Logger) *Watcher {
	return &Watcher{path: path, cfg: cfg, logger: logger}
}

// SetValidator installs a hook run before a reloaded config is committed.
func (w *Watcher) SetValidator(fn func(cfg *Config) error) { w.validate = fn }

// OnUpdate registers a callback invoked after each committed reload.
func (w *Watcher) OnUpdate(fn func(cfg *Config)) { w.onUpdate = append(w.onUpdate, fn) }

// Current returns the last committed config.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cfg
}

func (w *Watcher) commit(cfg *Config) {
	w.mu.Lock()
	w.cfg = cfg
	w.mu.Unlock()
	for _, fn := range w.onUpdate {
		fn(cfg)
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config reload failed, keeping previous", slog.String("path", w.path), slog.Any("err", err))
		return
	}
	if w.validate != nil {
		if err := w.validate(cfg); err != nil {
			w.logger.Warn("config rejected, keeping previous", slog.String("path", w.path), slog.Any("err", err))
			return
		}
	}
	w.commit(cfg)
	w.logger.Info("config reloaded", slog.String("path", w.path))
}

// Watch blocks until ctx is done, reloading the config whenever the file
// changes. Watching the parent directory instead of the file itself keeps
// the watch alive across rename-based atomic saves.
func (w *Watcher) Watch(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	file := filepath.Base(w.path)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Add(dir); err != nil {
		return err
	}

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	// A pending debounce must not fire a reload after Watch returns.
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(250*time.Millisecond, w.reload)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Base(ev.Name), file) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debounce()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				w.logger.Warn("config watch error", slog.String("dir", dir), slog.Any("err", err))
			}
		}
	}
}
