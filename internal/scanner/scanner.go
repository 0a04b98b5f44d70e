// Package scanner walks the watch root and ingests new inspection images.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wtsao/yieldwatch/internal/classify"
	"github.com/wtsao/yieldwatch/internal/event"
	"github.com/wtsao/yieldwatch/internal/parse"
	"github.com/wtsao/yieldwatch/internal/record"
)

// Options bound which files a cycle considers.
type Options struct {
	Root         string
	Extensions   []string
	MinFileAge   time.Duration
	RecentWindow time.Duration
}

// Service runs ingestion cycles over the watch root. Scans may overlap;
// correctness rests on the store's conflict-tolerant insert, not on mutual
// exclusion between cycles.
type Service struct {
	store      *record.Store
	classifier *classify.PathClassifier
	parser     *parse.FilenameParser
	logger     *slog.Logger
	eventBus   *event.Bus

	root         string
	extensions   map[string]bool
	minFileAge   time.Duration
	recentWindow time.Duration

	now func() time.Time
}

// NewService creates a scanner service.
func NewService(store *record.Store, classifier *classify.PathClassifier, parser *parse.FilenameParser, logger *slog.Logger, opts Options) *Service {
	exts := make(map[string]bool, len(opts.Extensions))
	for _, e := range opts.Extensions {
		exts[strings.ToLower(e)] = true
	}
	return &Service{
		store:        store,
		classifier:   classifier,
		parser:       parser,
		logger:       logger,
		root:         opts.Root,
		extensions:   exts,
		minFileAge:   opts.MinFileAge,
		recentWindow: opts.RecentWindow,
		now:          time.Now,
	}
}

// SetEventBus sets the bus for publishing scan events.
func (s *Service) SetEventBus(bus *event.Bus) {
	s.eventBus = bus
}

// SetNow overrides the clock (for testing age gates).
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

// Scan runs one synchronous ingestion cycle. It returns an error only when
// the store is unreachable; anything that goes wrong with an individual file
// is folded into the summary and the walk continues.
func (s *Service) Scan(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		ID:        uuid.New().String(),
		StartedAt: s.now().UTC(),
	}
	defer func() {
		summary.CompletedAt = s.now().UTC()
		s.publishCompleted(summary)
	}()

	known, err := s.store.KnownPaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading known paths: %w", err)
	}

	now := s.now()
	walkErr := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// A vanished or unreadable subtree is skipped, never fatal.
			s.logger.Debug("walk error", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		switch s.processFile(ctx, path, d, now, known, summary) {
		case outcomeAdded:
			summary.Scanned++
			summary.Added++
		case outcomeKnown:
			summary.Scanned++
			summary.AlreadyKnown++
		case outcomeTooNew:
			summary.SkippedTooNew++
		case outcomeStale:
			summary.SkippedStale++
		case outcomeError:
			summary.Scanned++
			summary.Errors++
		case outcomeNotImage, outcomeVanished:
		}
		return nil
	})
	if walkErr != nil {
		// WalkDir only returns an error when the root itself is unreadable.
		s.logger.Warn("watch root not readable", "root", s.root, "error", walkErr)
	}

	s.logger.Info("scan cycle finished",
		slog.String("scan_id", summary.ID),
		slog.Int("scanned", summary.Scanned),
		slog.Int("added", summary.Added),
		slog.Int("already_known", summary.AlreadyKnown),
		slog.Int("skipped_too_new", summary.SkippedTooNew),
		slog.Int("skipped_stale", summary.SkippedStale),
		slog.Int("errors", summary.Errors),
	)

	return summary, nil
}

// processFile takes one file through gating, classification, parsing, and
// insertion, and reports what became of it.
func (s *Service) processFile(ctx context.Context, path string, d fs.DirEntry, now time.Time, known map[string]struct{}, summary *Summary) fileOutcome {
	if !s.extensions[strings.ToLower(filepath.Ext(d.Name()))] {
		return outcomeNotImage
	}

	info, err := d.Info()
	if err != nil {
		// Vanished between listing and stat.
		return outcomeVanished
	}

	age := now.Sub(info.ModTime())
	if age < s.minFileAge {
		return outcomeTooNew
	}
	if age > s.recentWindow {
		return outcomeStale
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		s.logger.Warn("resolving path", "path", path, "error", err)
		return outcomeError
	}

	if _, ok := known[abs]; ok {
		return outcomeKnown
	}

	station, model := s.classifier.Classify(abs)
	if station == "" {
		summary.Unclassified++
	}

	pass, jobCount, ts := s.parser.Parse(d.Name(), info.ModTime())
	if pass == record.PassUnknown {
		summary.Unparsed++
	}

	rec := &record.ImageRecord{
		Path:       abs,
		Station:    station,
		Model:      model,
		Pass:       pass,
		JobCount:   jobCount,
		CaptureTS:  ts,
		Mtime:      info.ModTime(),
		IngestedAt: s.now(),
	}

	inserted, err := s.store.InsertIfAbsent(ctx, rec)
	if err != nil {
		s.logger.Warn("inserting record", "path", abs, "error", err)
		return outcomeError
	}
	if !inserted {
		// Another cycle got there first.
		return outcomeKnown
	}

	if pass == record.PassNG {
		s.publishNG(rec)
	}
	return outcomeAdded
}

func (s *Service) publishCompleted(summary *Summary) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(event.Event{
		Type: event.ScanCompleted,
		Data: map[string]any{
			"scan_id": summary.ID,
			"scanned": summary.Scanned,
			"added":   summary.Added,
		},
	})
}

func (s *Service) publishNG(rec *record.ImageRecord) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(event.Event{
		Type: event.RecordNG,
		Data: map[string]any{
			"path":    rec.Path,
			"station": rec.Station,
			"model":   rec.Model,
			"ts":      rec.CaptureTS,
		},
	})
}
