package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce is how long a burst of writes must settle before a re-run.
const watchDebounce = 200 * time.Millisecond

// watchPlan runs fn once, then again after every settled change to the plan
// file, until ctx is cancelled. Errors from fn are logged, not returned, so
// a half-saved plan does not end the watch.
func watchPlan(ctx context.Context, path string, fn func() error) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("--watch needs a plan file: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	// Editors replace files on save, so watch the directory.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	run := func() {
		if err := fn(); err != nil {
			logger.Error("analysis failed", "plan", path, "error", err)
		}
	}
	run()
	logger.Info("watching plan", "path", abs)

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				timer.Reset(watchDebounce)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)

		case <-timerC:
			timer, timerC = nil, nil
			logger.Debug("plan changed", "path", abs)
			run()
		}
	}
}
