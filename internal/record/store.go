package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"
)

const imageColumns = `path, station, model, pass, job_count, ts, mtime, ingested_at`

// StationAll is the station filter sentinel meaning "no station filter".
const StationAll = "ALL"

// Store provides durable, path-keyed access to ingested image records.
// Timestamps are persisted as RFC3339 text in a single fixed offset so that
// string comparison in SQL matches chronological order.
type Store struct {
	db  *sql.DB
	loc *time.Location
}

// NewStore creates a record store. loc is the fixed offset all stored
// timestamps are rendered in.
func NewStore(db *sql.DB, loc *time.Location) *Store {
	return &Store{db: db, loc: loc}
}

// InsertIfAbsent inserts rec unless a record with the same path already
// exists. It reports true when a new row was written. Repeated or concurrent
// insertion of the same path is a silent no-op, never an error.
func (s *Store) InsertIfAbsent(ctx context.Context, rec *ImageRecord) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO images (`+imageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.Path,
		nullableString(rec.Station),
		nullableString(rec.Model),
		nullableString(string(rec.Pass)),
		nullableInt(rec.JobCount),
		s.formatTS(rec.CaptureTS),
		unixSeconds(rec.Mtime),
		s.formatTS(rec.IngestedAt),
	)
	if err != nil {
		return false, fmt.Errorf("inserting image record: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading insert result: %w", err)
	}
	return n > 0, nil
}

// KnownPaths returns the set of all ingested paths. The scanner uses it to
// skip files it has already recorded without issuing per-file queries.
func (s *Store) KnownPaths(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM images`)
	if err != nil {
		return nil, fmt.Errorf("listing known paths: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	known := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning path: %w", err)
		}
		known[p] = struct{}{}
	}
	return known, rows.Err()
}

// Query returns records whose capture timestamp lies in [start, end),
// optionally restricted to one station. An empty station or StationAll
// selects all stations.
func (s *Store) Query(ctx context.Context, start, end time.Time, station string) ([]ImageRecord, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE ts >= ? AND ts < ?`
	args := []any{s.formatTS(start), s.formatTS(end)}
	if station != "" && station != StationAll {
		query += ` AND station = ?`
		args = append(args, station)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var recs []ImageRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

// GetByPath retrieves a single record by its canonical path.
// Returns nil, nil when no record matches.
func (s *Store) GetByPath(ctx context.Context, path string) (*ImageRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+imageColumns+` FROM images WHERE path = ?`, path)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting record by path: %w", err)
	}
	return rec, nil
}

// Stations returns the distinct non-null station names, ordered by name.
func (s *Store) Stations(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT station FROM images WHERE station IS NOT NULL ORDER BY station`)
	if err != nil {
		return nil, fmt.Errorf("listing stations: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var stations []string
	for rows.Next() {
		var st string
		if err := rows.Scan(&st); err != nil {
			return nil, fmt.Errorf("scanning station: %w", err)
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

// Count returns the total number of ingested records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

func (s *Store) formatTS(t time.Time) string {
	return t.In(s.loc).Format(time.RFC3339)
}

// scanRecord scans a database row into an ImageRecord.
func scanRecord(row interface{ Scan(...any) error }) (*ImageRecord, error) {
	var rec ImageRecord
	var station, model, pass sql.NullString
	var jobCount sql.NullInt64
	var ts, ingestedAt string
	var mtime float64

	err := row.Scan(&rec.Path, &station, &model, &pass, &jobCount, &ts, &mtime, &ingestedAt)
	if err != nil {
		return nil, err
	}

	if station.Valid {
		rec.Station = station.String
	}
	if model.Valid {
		rec.Model = model.String
	}
	if pass.Valid {
		rec.Pass = Pass(pass.String)
	}
	if jobCount.Valid {
		n := int(jobCount.Int64)
		rec.JobCount = &n
	}
	rec.CaptureTS = parseTS(ts)
	rec.IngestedAt = parseTS(ingestedAt)
	rec.Mtime = fromUnixSeconds(mtime)

	return &rec, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromUnixSeconds(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*float64(time.Second)))
}

func parseTS(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
