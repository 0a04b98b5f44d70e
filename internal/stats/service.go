package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/wtsao/yieldwatch/internal/record"
	"github.com/wtsao/yieldwatch/internal/timerange"
)

// Result is the response of one stats query.
type Result struct {
	Stations   map[string]*StationAggregate `json:"stations"`
	TotalCount int                          `json:"total_count"`
	Start      time.Time                    `json:"start"`
	End        time.Time                    `json:"end"`
}

// Service answers stats queries by resolving the window, querying the store,
// and aggregating per station.
type Service struct {
	store        *record.Store
	resolver     *timerange.Resolver
	previewCount int
}

// NewService creates a stats service. previewCount bounds the NG preview
// list per station.
func NewService(store *record.Store, resolver *timerange.Resolver, previewCount int) *Service {
	return &Service{store: store, resolver: resolver, previewCount: previewCount}
}

// Query resolves the requested window, fetches matching records (optionally
// for one station), and returns the per-station aggregates. Storage failure
// is the only error it surfaces.
func (s *Service) Query(ctx context.Context, preset, startStr, endStr, station string) (*Result, error) {
	start, end := s.resolver.Resolve(preset, startStr, endStr)

	records, err := s.store.Query(ctx, start, end, station)
	if err != nil {
		return nil, fmt.Errorf("querying window: %w", err)
	}

	return &Result{
		Stations:   Aggregate(records, s.previewCount),
		TotalCount: len(records),
		Start:      start,
		End:        end,
	}, nil
}
