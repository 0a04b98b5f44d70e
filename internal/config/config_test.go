package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Port != 8000 {
		t.Errorf("Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Ingest.WatchMode != "poll" {
		t.Errorf("WatchMode = %q, want poll", cfg.Ingest.WatchMode)
	}
	if cfg.Ingest.NGPreviewCount != 3 {
		t.Errorf("NGPreviewCount = %d, want 3", cfg.Ingest.NGPreviewCount)
	}
	if cfg.Ingest.FilenamePattern != DefaultFilenamePattern {
		t.Errorf("FilenamePattern = %q", cfg.Ingest.FilenamePattern)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ingest.WatchRoot != "/data" {
		t.Errorf("WatchRoot = %q, want /data", cfg.Ingest.WatchRoot)
	}
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9000
ingest:
  watch_root: /mnt/images
  poll_interval_sec: 30
  ng_preview_count: 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Ingest.WatchRoot != "/mnt/images" {
		t.Errorf("WatchRoot = %q, want /mnt/images", cfg.Ingest.WatchRoot)
	}
	if cfg.Ingest.PollIntervalSec != 30 {
		t.Errorf("PollIntervalSec = %d, want 30", cfg.Ingest.PollIntervalSec)
	}
	if cfg.Ingest.NGPreviewCount != 5 {
		t.Errorf("NGPreviewCount = %d, want 5", cfg.Ingest.NGPreviewCount)
	}
	// Untouched sections keep defaults.
	if cfg.Ingest.MinFileAgeSec != 2 {
		t.Errorf("MinFileAgeSec = %d, want 2", cfg.Ingest.MinFileAgeSec)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("YW_PORT", "9100")
	t.Setenv("YW_WATCH_DIR", "/srv/captures")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Port = %d, want 9100", cfg.Server.Port)
	}
	if cfg.Ingest.WatchRoot != "/srv/captures" {
		t.Errorf("WatchRoot = %q, want /srv/captures", cfg.Ingest.WatchRoot)
	}
}

func TestLoad_InvalidWatchMode(t *testing.T) {
	t.Setenv("YW_WATCH_MODE", "inotifyplus")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for invalid watch mode")
	}
}

func TestValidate_NormalizesExtensions(t *testing.T) {
	cfg := Default()
	cfg.Ingest.Extensions = []string{"jpg", ".png"}
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Ingest.Extensions[0] != ".jpg" {
		t.Errorf("extension = %q, want .jpg", cfg.Ingest.Extensions[0])
	}
	if cfg.Ingest.Extensions[1] != ".png" {
		t.Errorf("extension = %q, want .png", cfg.Ingest.Extensions[1])
	}
}

func TestLocation(t *testing.T) {
	cfg := Default()
	loc := cfg.Location()
	ts := time.Date(2024, 1, 1, 8, 0, 0, 0, loc)
	if got := ts.UTC().Hour(); got != 0 {
		t.Errorf("08:00 at +08:00 should be midnight UTC, got hour %d", got)
	}

	cfg.Ingest.UTCOffsetMin = -300
	loc = cfg.Location()
	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, loc).Zone()
	if offset != -300*60 {
		t.Errorf("offset = %d, want %d", offset, -300*60)
	}
}
