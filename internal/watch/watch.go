// Package watch reruns a job whenever a file changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Func is run after each settled change. Errors are logged and watching
// continues.
type Func func(ctx context.Context) error

// File watches path and calls fn once at start and again after every burst
// of changes that has been quiet for debounce. It returns when ctx is done.
//
// The parent directory is watched rather than the file so that editors that
// save by renaming a temporary file over the target are still seen.
func File(ctx context.Context, path string, debounce time.Duration, log *zap.Logger, fn Func) error {
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	run := func() {
		if err := fn(ctx); err != nil {
			log.Error("watch job failed", zap.String("path", abs), zap.Error(err))
		}
	}
	run()

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !relevant(ev.Op) {
				continue
			}
			log.Debug("file changed", zap.String("path", abs), zap.Stringer("op", ev.Op))
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))

		case <-timer.C:
			log.Info("rerunning after change", zap.String("path", abs))
			run()
		}
	}
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Write) || op.Has(fsnotify.Create) || op.Has(fsnotify.Rename)
}
