// Package stats reduces queried image records into per-station yield
// aggregates.
package stats

import (
	"sort"
	"time"

	"github.com/wtsao/yieldwatch/internal/record"
)

// UnknownStation is the bucket for records that carry no station.
const UnknownStation = "Unknown"

// RecordRef points at one image within an aggregate.
type RecordRef struct {
	Path string    `json:"path"`
	TS   time.Time `json:"ts"`
}

// Totals holds the counters for one station. Rate is nil when the station
// has no OK or NG records in range; it is never coerced to 0 or 1.
type Totals struct {
	Total    int        `json:"total"`
	OK       int        `json:"ok"`
	NG       int        `json:"ng"`
	Rate     *float64   `json:"rate"`
	LatestTS *time.Time `json:"latest_ts"`
}

// StationAggregate is the per-station result of one query. It is computed
// fresh for every query and never persisted.
type StationAggregate struct {
	Totals  Totals      `json:"totals"`
	Last    *RecordRef  `json:"last"`
	LastNG  *RecordRef  `json:"last_ng"`
	LastNGs []RecordRef `json:"last_ngs"`
}

// Aggregate groups records by station and accumulates totals, the most
// recent record, the most recent NG record, and up to previewCount NG
// records in descending timestamp order. Maxima update only on strictly
// greater timestamps, so the first-seen record wins exact ties; the NG
// preview sort is stable for the same reason. Ordering of stations in the
// returned map is the caller's concern.
func Aggregate(records []record.ImageRecord, previewCount int) map[string]*StationAggregate {
	out := make(map[string]*StationAggregate)

	for _, rec := range records {
		station := rec.Station
		if station == "" {
			station = UnknownStation
		}
		agg := out[station]
		if agg == nil {
			agg = &StationAggregate{}
			out[station] = agg
		}

		ts := rec.CaptureTS
		agg.Totals.Total++
		switch rec.Pass {
		case record.PassOK:
			agg.Totals.OK++
		case record.PassNG:
			agg.Totals.NG++
			agg.LastNGs = append(agg.LastNGs, RecordRef{Path: rec.Path, TS: ts})
			if agg.LastNG == nil || ts.After(agg.LastNG.TS) {
				agg.LastNG = &RecordRef{Path: rec.Path, TS: ts}
			}
		}

		if agg.Totals.LatestTS == nil || ts.After(*agg.Totals.LatestTS) {
			latest := ts
			agg.Totals.LatestTS = &latest
		}
		if agg.Last == nil || ts.After(agg.Last.TS) {
			agg.Last = &RecordRef{Path: rec.Path, TS: ts}
		}
	}

	for _, agg := range out {
		if denom := agg.Totals.OK + agg.Totals.NG; denom > 0 {
			rate := float64(agg.Totals.OK) / float64(denom)
			agg.Totals.Rate = &rate
		}

		sort.SliceStable(agg.LastNGs, func(i, j int) bool {
			return agg.LastNGs[i].TS.After(agg.LastNGs[j].TS)
		})
		if previewCount >= 0 && len(agg.LastNGs) > previewCount {
			agg.LastNGs = agg.LastNGs[:previewCount]
		}
	}

	return out
}
