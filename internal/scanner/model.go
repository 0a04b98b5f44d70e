package scanner

import "time"

// Summary reports the outcome of one ingestion cycle. Scanned counts every
// candidate that passed the extension and age gates, whether or not it was
// already known; Added counts newly inserted records.
type Summary struct {
	ID            string    `json:"id"`
	Scanned       int       `json:"scanned"`
	Added         int       `json:"added"`
	AlreadyKnown  int       `json:"already_known"`
	Unclassified  int       `json:"unclassified"`
	Unparsed      int       `json:"unparsed"`
	SkippedTooNew int       `json:"skipped_too_new"`
	SkippedStale  int       `json:"skipped_stale"`
	Errors        int       `json:"errors"`
	StartedAt     time.Time `json:"started_at"`
	CompletedAt   time.Time `json:"completed_at"`
}

// fileOutcome classifies what happened to one file during a cycle. Every
// file the walk touches resolves to exactly one outcome, so a single bad
// file can never abort the cycle.
type fileOutcome int

const (
	outcomeAdded fileOutcome = iota
	outcomeKnown
	outcomeNotImage
	outcomeTooNew
	outcomeStale
	outcomeVanished
	outcomeError
)
