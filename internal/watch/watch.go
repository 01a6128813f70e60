// Package watch turns filesystem activity into pipeline re-run ticks.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when no debounce window is configured.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a set of directory trees and emits one tick per settled
// burst of changes. Build-output directories must be in the ignore list or
// every pipeline run would trigger the next one.
type Watcher struct {
	paths    []string
	ignore   []string
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a Watcher. Dotfile directories are always skipped.
func New(paths, ignore []string, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		paths:    paths,
		ignore:   ignore,
		debounce: debounce,
		logger:   logger,
	}
}

// Run watches until ctx is done. Ticks are delivered non-blocking: a tick
// that fires while the receiver is busy is dropped, not queued.
func (w *Watcher) Run(ctx context.Context, fire chan<- struct{}) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	for _, p := range w.paths {
		if err := w.addRecursive(fsw, p); err != nil {
			return err
		}
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.ignored(ev.Name) {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := w.addRecursive(fsw, ev.Name); err != nil {
						w.logger.Warn("cannot watch new directory", "path", ev.Name, "error", err)
					}
				}
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-timer.C:
			select {
			case fire <- struct{}{}:
			default:
			}
		}
	}
}

func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || w.ignored(path)) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return err
		}
		w.logger.Debug("watching", "path", path)
		return nil
	})
}

// ignored reports whether any element of path matches an ignore entry.
func (w *Watcher) ignored(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		for _, ig := range w.ignore {
			if part == ig {
				return true
			}
		}
	}
	return false
}
