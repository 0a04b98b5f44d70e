// Package watcher reacts to filesystem activity under the watch root by
// triggering ingestion scans.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Service subscribes to create and write events under the watch root and
// coalesces bursts of activity into a single scan. Inotify does not recurse,
// so every directory in the tree is watched individually and new directories
// are added as they appear.
type Service struct {
	root     string
	scanFn   func(ctx context.Context) error
	logger   *slog.Logger
	debounce time.Duration
}

// NewService creates a watcher over root. scanFn is invoked after activity
// settles.
func NewService(root string, scanFn func(ctx context.Context) error, logger *slog.Logger) *Service {
	return &Service{
		root:     root,
		scanFn:   scanFn,
		logger:   logger.With(slog.String("component", "fs-watcher")),
		debounce: 2 * time.Second,
	}
}

// SetDebounce overrides the default debounce interval (for testing).
func (s *Service) SetDebounce(d time.Duration) {
	s.debounce = d
}

// Start blocks until ctx is canceled. It returns an error only when the
// notify backend cannot be created; the caller falls back to polling then.
func (s *Service) Start(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close() //nolint:errcheck

	s.addTree(w, s.root)
	s.logger.Info("filesystem watcher starting", slog.String("root", s.root))

	// Debounce timer for coalescing events into a single scan.
	// Starts stopped; reset on each interesting event.
	debounceTimer := time.NewTimer(0)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	scanPending := false

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("filesystem watcher stopping")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !s.handleEvent(w, ev) {
				continue
			}
			if !debounceTimer.Stop() {
				select {
				case <-debounceTimer.C:
				default:
				}
			}
			debounceTimer.Reset(s.debounce)
			scanPending = true

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("fsnotify error", "error", err)

		case <-debounceTimer.C:
			if scanPending {
				scanPending = false
				s.logger.Debug("activity settled, triggering scan")
				if err := s.scanFn(ctx); err != nil {
					s.logger.Error("scan triggered by watcher failed", "error", err)
				}
			}
		}
	}
}

// handleEvent reports whether the event should count toward a scan trigger.
// Newly created directories are added to the watch set as a side effect.
func (s *Service) handleEvent(w *fsnotify.Watcher, ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return false
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			s.addTree(w, ev.Name)
			// A new station or model directory is not itself worth a
			// scan; the files that land in it will be.
			return false
		}
	}
	return true
}

// addTree watches path and every directory beneath it. Failures are logged
// and skipped; a partially watched tree still catches most activity and the
// periodic poll covers the rest.
func (s *Service) addTree(w *fsnotify.Watcher, path string) {
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Debug("walk error while adding watches", "path", p, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.Add(p); err != nil {
			s.logger.Warn("watching directory failed", "path", p, "error", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("adding watch tree failed", "path", path, "error", err)
	}
}
