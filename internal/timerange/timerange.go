// Package timerange resolves query presets and explicit bounds into a
// canonical half-open time window.
package timerange

import "time"

// Recognized presets.
const (
	PresetHour = "1h"
	PresetDay  = "1d"
	PresetWeek = "1w"
)

// datetimeLocal is the format produced by <input type="datetime-local">.
const datetimeLocal = "2006-01-02T15:04"

// Resolver maps presets or explicit start/end strings onto [start, end)
// windows. Inputs without an explicit offset are interpreted in the
// resolver's fixed location.
type Resolver struct {
	loc *time.Location
	now func() time.Time
}

// NewResolver creates a resolver using the given fixed offset.
func NewResolver(loc *time.Location) *Resolver {
	return &Resolver{loc: loc, now: time.Now}
}

// SetNow overrides the clock (for testing).
func (r *Resolver) SetNow(now func() time.Time) {
	r.now = now
}

// Resolve returns the half-open window [start, end) for the given inputs.
//
// A recognized preset takes precedence over explicit bounds: end is now
// truncated to the minute, start is end minus the preset duration. Otherwise
// both explicit bounds are parsed, substituting "now" for a bound that does
// not parse, and a degenerate window (end <= start) is repaired by forcing
// end to start plus one minute. With no preset and no explicit bounds the
// window defaults to the 24 hours ending now.
func (r *Resolver) Resolve(preset, startStr, endStr string) (start, end time.Time) {
	now := r.now().In(r.loc).Truncate(time.Minute)

	switch preset {
	case PresetHour:
		return now.Add(-time.Hour), now
	case PresetDay:
		return now.AddDate(0, 0, -1), now
	case PresetWeek:
		return now.AddDate(0, 0, -7), now
	}

	if startStr != "" && endStr != "" {
		start = r.parseInput(startStr, now)
		end = r.parseInput(endStr, now)
		if !end.After(start) {
			end = start.Add(time.Minute)
		}
		return start, end
	}

	return now.AddDate(0, 0, -1), now
}

// parseInput parses a single bound, accepting datetime-local and RFC 3339
// forms. Values without an offset are placed in the resolver's location.
// Unparseable input degrades to now.
func (r *Resolver) parseInput(s string, now time.Time) time.Time {
	if t, err := time.ParseInLocation(datetimeLocal, s, r.loc); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, r.loc); err == nil {
		return t
	}
	return now
}
