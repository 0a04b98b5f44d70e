package stats

import (
	"context"
	"testing"
	"time"

	"github.com/wtsao/yieldwatch/internal/database"
	"github.com/wtsao/yieldwatch/internal/record"
	"github.com/wtsao/yieldwatch/internal/timerange"
)

func setupService(t *testing.T) (*Service, *record.Store) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	store := record.NewStore(db, tz)
	resolver := timerange.NewResolver(tz)
	return NewService(store, resolver, 3), store
}

func insert(t *testing.T, store *record.Store, path, station, model string, pass record.Pass, ts time.Time) {
	t.Helper()
	inserted, err := store.InsertIfAbsent(context.Background(), &record.ImageRecord{
		Path:       path,
		Station:    station,
		Model:      model,
		Pass:       pass,
		CaptureTS:  ts,
		Mtime:      ts,
		IngestedAt: ts,
	})
	if err != nil {
		t.Fatalf("InsertIfAbsent(%s): %v", path, err)
	}
	if !inserted {
		t.Fatalf("InsertIfAbsent(%s): duplicate path in fixture", path)
	}
}

func TestService_Query(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()

	okTS := time.Date(2024, 1, 1, 8, 0, 0, 0, tz)
	ngTS := time.Date(2024, 1, 1, 9, 0, 0, 0, tz)
	insert(t, store, "/data/StationA/ModelX/OK-20240101-080000-1.jpg", "StationA", "ModelX", record.PassOK, okTS)
	insert(t, store, "/data/StationA/ModelX/NG-20240101-090000-2.jpg", "StationA", "ModelX", record.PassNG, ngTS)

	res, err := svc.Query(ctx, "", "2024-01-01T00:00", "2024-01-02T00:00", "StationA")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if res.TotalCount != 2 {
		t.Fatalf("TotalCount = %d, want 2", res.TotalCount)
	}

	agg := res.Stations["StationA"]
	if agg == nil {
		t.Fatal("StationA aggregate missing")
	}
	if agg.Totals.Total != 2 || agg.Totals.OK != 1 || agg.Totals.NG != 1 {
		t.Errorf("totals = %+v, want 2/1/1", agg.Totals)
	}
	if agg.Totals.Rate == nil || *agg.Totals.Rate != 0.5 {
		t.Errorf("rate = %v, want 0.5", agg.Totals.Rate)
	}
	if agg.LastNG == nil || agg.LastNG.Path != "/data/StationA/ModelX/NG-20240101-090000-2.jpg" {
		t.Errorf("last_ng = %+v", agg.LastNG)
	}
}

func TestService_QueryStationFilter(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()

	ts := time.Date(2024, 1, 1, 8, 0, 0, 0, tz)
	insert(t, store, "/data/StationA/ModelX/a.jpg", "StationA", "ModelX", record.PassOK, ts)
	insert(t, store, "/data/StationB/ModelY/b.jpg", "StationB", "ModelY", record.PassOK, ts)

	res, err := svc.Query(ctx, "", "2024-01-01T00:00", "2024-01-02T00:00", "StationB")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if res.TotalCount != 1 {
		t.Errorf("TotalCount = %d, want 1", res.TotalCount)
	}
	if _, ok := res.Stations["StationA"]; ok {
		t.Error("StationA should be filtered out")
	}

	all, err := svc.Query(ctx, "", "2024-01-01T00:00", "2024-01-02T00:00", record.StationAll)
	if err != nil {
		t.Fatalf("Query ALL: %v", err)
	}
	if all.TotalCount != 2 {
		t.Errorf("ALL TotalCount = %d, want 2", all.TotalCount)
	}
}

func TestService_QueryHalfOpenWindow(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()

	// One record exactly at the start bound, one exactly at the end bound.
	insert(t, store, "/data/S/M/at-start.jpg", "S", "M",
		record.PassOK, time.Date(2024, 1, 1, 0, 0, 0, 0, tz))
	insert(t, store, "/data/S/M/at-end.jpg", "S", "M",
		record.PassOK, time.Date(2024, 1, 2, 0, 0, 0, 0, tz))

	res, err := svc.Query(ctx, "", "2024-01-01T00:00", "2024-01-02T00:00", "")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if res.TotalCount != 1 {
		t.Fatalf("TotalCount = %d, want 1 (start inclusive, end exclusive)", res.TotalCount)
	}
	if res.Stations["S"].Last.Path != "/data/S/M/at-start.jpg" {
		t.Errorf("unexpected record in window: %s", res.Stations["S"].Last.Path)
	}
}
