package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/getmockd/stubd/pkg/logging"
)

// DefaultDebounce is how long the watcher waits for changes to settle
// before reloading.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads stub files when they, or the body files they reference,
// change on disk.
type Watcher struct {
	pattern  string
	onReload func(*LoadResult)
	debounce time.Duration
	log      *slog.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the settle time between the last change and the reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger sets the logger for reload and watch errors.
func WithWatchLogger(log *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.log = logging.OrNop(log)
	}
}

// NewWatcher returns a watcher that calls onReload with the result of
// LoadGlob(pattern) after each settled change. Loads that fail are logged
// and skipped, leaving the caller's state untouched.
func NewWatcher(pattern string, onReload func(*LoadResult), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		pattern:  pattern,
		onReload: onReload,
		debounce: DefaultDebounce,
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. It returns an error only when the
// file system watcher cannot be created.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	watched := make(map[string]bool)
	if result, err := LoadGlob(w.pattern); err == nil {
		w.watch(fsw, watched, result)
	} else {
		w.log.Warn("initial stub load failed, watching pattern base only", "error", err)
		w.watch(fsw, watched, nil)
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			w.log.Debug("stub source changed", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("file watcher error", "error", err)

		case <-fire:
			fire = nil
			result, err := LoadGlob(w.pattern)
			if err != nil {
				w.log.Warn("stub reload failed, keeping current stubs", "error", err)
				continue
			}
			if result.BodyErrors != nil {
				w.log.Warn("some body files could not be read", "error", result.BodyErrors)
			}
			w.watch(fsw, watched, result)
			w.log.Info("stubs reloaded", "files", len(result.Files), "stubs", len(result.Responses))
			w.onReload(result)
		}
	}
}

// watch adds the directories holding the pattern base, every stub file and
// every body file. Directories are watched rather than files so that
// editors which replace files on save are still seen.
func (w *Watcher) watch(fsw *fsnotify.Watcher, watched map[string]bool, result *LoadResult) {
	dirs := []string{globBase(w.pattern)}
	if result != nil {
		for _, f := range result.Files {
			dirs = append(dirs, filepath.Dir(f))
		}
		for _, f := range result.BodyFiles {
			dirs = append(dirs, filepath.Dir(f))
		}
	}

	for _, dir := range dirs {
		if dir == "" {
			dir = "."
		}
		dir = filepath.Clean(dir)
		if watched[dir] {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			w.log.Debug("cannot watch directory", "dir", dir, "error", err)
			continue
		}
		watched[dir] = true
	}
}
