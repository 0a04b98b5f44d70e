package parse

import (
	"testing"
	"time"

	"github.com/wtsao/yieldwatch/internal/config"
	"github.com/wtsao/yieldwatch/internal/record"
)

var tz = time.FixedZone("UTC+08:00", 8*3600)

func newParser(t *testing.T) *FilenameParser {
	t.Helper()
	p, err := NewFilenameParser(config.DefaultFilenamePattern, tz)
	if err != nil {
		t.Fatalf("NewFilenameParser: %v", err)
	}
	return p
}

func TestParse_Match(t *testing.T) {
	p := newParser(t)
	mtime := time.Now()

	pass, count, ts := p.Parse("OK-20240101-080000-12.jpg", mtime)
	if pass != record.PassOK {
		t.Errorf("pass = %q, want OK", pass)
	}
	if count == nil || *count != 12 {
		t.Errorf("count = %v, want 12", count)
	}
	want := time.Date(2024, 1, 1, 8, 0, 0, 0, tz)
	if !ts.Equal(want) {
		t.Errorf("ts = %v, want %v", ts, want)
	}
}

func TestParse_CaseInsensitive(t *testing.T) {
	p := newParser(t)

	pass, _, _ := p.Parse("ng-20240101-090000-2.JPG", time.Now())
	if pass != record.PassNG {
		t.Errorf("pass = %q, want NG", pass)
	}
}

func TestParse_NoMatchFallsBack(t *testing.T) {
	p := newParser(t)
	mtime := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	pass, count, ts := p.Parse("snapshot_001.jpg", mtime)
	if pass != record.PassUnknown {
		t.Errorf("pass = %q, want unknown", pass)
	}
	if count != nil {
		t.Errorf("count = %v, want nil", *count)
	}
	if !ts.Equal(mtime) {
		t.Errorf("ts = %v, want mtime %v", ts, mtime)
	}
	if ts.Location() != tz {
		t.Errorf("ts location = %v, want parser offset", ts.Location())
	}
}

func TestParse_InvalidCalendarDateFallsBack(t *testing.T) {
	p := newParser(t)
	mtime := time.Date(2024, 6, 1, 0, 0, 0, 0, tz)

	// Digits match the pattern but month 13 is not a real instant.
	pass, _, ts := p.Parse("OK-20241301-080000-1.jpg", mtime)
	if pass != record.PassOK {
		t.Errorf("pass = %q, want OK", pass)
	}
	if !ts.Equal(mtime) {
		t.Errorf("ts = %v, want mtime fallback %v", ts, mtime)
	}
}

func TestParse_WrongExtensionNoMatch(t *testing.T) {
	p := newParser(t)
	mtime := time.Now()

	pass, _, _ := p.Parse("OK-20240101-080000-1.bmp", mtime)
	if pass != record.PassUnknown {
		t.Errorf("pass = %q, want unknown for unmatched extension", pass)
	}
}

func TestNewFilenameParser_Errors(t *testing.T) {
	if _, err := NewFilenameParser("(", tz); err == nil {
		t.Error("expected error for invalid regexp")
	}
	if _, err := NewFilenameParser(`^(?P<pass>OK|NG)\.jpg$`, tz); err == nil {
		t.Error("expected error for pattern missing date/time groups")
	}
}

func TestParse_CustomPatternWithoutCount(t *testing.T) {
	p, err := NewFilenameParser(`^(?P<pass>OK|NG)_(?P<date>\d{8})_(?P<time>\d{6})\.png$`, tz)
	if err != nil {
		t.Fatalf("NewFilenameParser: %v", err)
	}

	pass, count, ts := p.Parse("NG_20240215_134500.png", time.Now())
	if pass != record.PassNG {
		t.Errorf("pass = %q, want NG", pass)
	}
	if count != nil {
		t.Errorf("count = %v, want nil (pattern has no count group)", *count)
	}
	want := time.Date(2024, 2, 15, 13, 45, 0, 0, tz)
	if !ts.Equal(want) {
		t.Errorf("ts = %v, want %v", ts, want)
	}
}
