package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"mercator-hq/flowlog/pkg/config"
)

// Watcher reloads a Store when workflow files change on disk. Bursts of
// events are coalesced by a Debouncer so an editor save or a git checkout
// costs one reload.
type Watcher struct {
	store    *Store
	dirs     []string
	files    map[string]struct{}
	ext      string
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher watches dir (top level only) for files with cfg.Extension, plus
// every explicitly configured definition file.
func NewWatcher(store *Store, cfg *config.WorkflowsConfig, dir string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		dir = cfg.Dir
	}

	w := &Watcher{
		store:    store,
		files:    make(map[string]struct{}, len(cfg.Definitions)),
		ext:      cfg.Extension,
		debounce: cfg.WatchDebounce,
		logger:   logger,
	}

	seen := make(map[string]struct{})
	addDir := func(d string) {
		d = filepath.Clean(d)
		if _, ok := seen[d]; ok {
			return
		}
		seen[d] = struct{}{}
		w.dirs = append(w.dirs, d)
	}

	if dir != "" {
		addDir(dir)
	}
	for _, path := range cfg.Definitions {
		clean := filepath.Clean(path)
		w.files[clean] = struct{}{}
		addDir(filepath.Dir(clean))
	}

	return w
}

// Dirs returns the directories being watched.
func (w *Watcher) Dirs() []string {
	return w.dirs
}

// Run blocks until ctx is cancelled. Directories that do not exist are
// skipped with a warning.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	watched := 0
	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				w.logger.Warn("workflow directory missing, not watching", "path", dir)
				continue
			}
			return fmt.Errorf("failed to watch %q: %w", dir, err)
		}
		watched++
	}
	if watched == 0 {
		w.logger.Warn("no workflow directories to watch")
	}

	debouncer := NewDebouncer(w.debounce, func() {
		if err := w.store.Reload(); err != nil {
			w.logger.Warn("reload after file change failed", "error", err)
		}
	})
	defer debouncer.Stop()

	w.logger.Info("workflow watcher started",
		"dirs", w.dirs,
		"debounce", w.debounce,
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("workflow watcher stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("workflow file event", "path", event.Name, "op", event.Op.String())
			debouncer.Trigger()

		case err, ok := <-fsw.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("workflow watcher error", "error", err)
		}
	}
}

// relevant reports whether event touches a workflow file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	name := filepath.Clean(event.Name)
	if _, ok := w.files[name]; ok {
		return true
	}

	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.HasSuffix(base, w.ext)
}

// Debouncer runs fn once after a quiet period following the last Trigger.
type Debouncer struct {
	interval time.Duration
	fn       func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// NewDebouncer creates a debouncer for fn.
func NewDebouncer(interval time.Duration, fn func()) *Debouncer {
	return &Debouncer{interval: interval, fn: fn}
}

// Trigger (re)starts the quiet period.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	stopped := d.stopped
	d.mu.Unlock()

	if !stopped {
		d.fn()
	}
}

// Stop cancels any pending call. Trigger is a no-op afterwards.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
