package sessionlog

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/papercomputeco/advisor/pkg/logger"
)

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reports edits made to the session file by other processes.
type Watcher struct {
	log      *Log
	onChange func(ctx context.Context) error
	debounce time.Duration
	logger   *slog.Logger
}

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	Log *Log

	// OnChange runs after the file settles with content this process did
	// not write. Errors are logged and watching continues.
	OnChange func(ctx context.Context) error

	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration

	Logger *slog.Logger
}

// NewWatcher creates a Watcher. Call Run to start watching.
func NewWatcher(c WatcherConfig) (*Watcher, error) {
	if c.Log == nil {
		return nil, errors.New("watcher requires a session log")
	}
	if c.OnChange == nil {
		return nil, errors.New("watcher requires an OnChange callback")
	}
	debounce := c.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		log:      c.Log,
		onChange: c.OnChange,
		debounce: debounce,
		logger:   logger.Component(c.Logger, "watcher"),
	}, nil
}

// Run watches the directory of the log file until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	path := w.log.Path()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating session log dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating session log watcher: %w", err)
	}
	defer watcher.Close()

	// The file is replaced by rename on every write, so watch the directory.
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching session log dir: %w", err)
	}
	w.logger.Info("watching session log", "path", path)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(w.debounce)
		case <-timer.C:
			w.check(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("session log watcher error: %w", err)
		}
	}
}

func (w *Watcher) check(ctx context.Context) {
	data, err := os.ReadFile(w.log.Path())
	if err != nil {
		w.logger.Debug("session log unreadable after change", "error", err)
		return
	}
	if sha256.Sum256(data) == w.log.LastDigest() {
		return
	}

	w.logger.Info("session log changed on disk, reloading", "path", w.log.Path())
	if err := w.onChange(ctx); err != nil {
		w.logger.Error("reloading session log", "error", err)
	}
}
