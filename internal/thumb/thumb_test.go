package thumb

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func newTestCache(t *testing.T, maxDim int) *Cache {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCache(t.TempDir(), maxDim, logger)
}

func writePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	path := filepath.Join(dir, "source.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating source image: %v", err)
	}
	defer f.Close() //nolint:errcheck
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encoding source image: %v", err)
	}
	return path
}

func decodeDimensions(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close() //nolint:errcheck
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decoding %s: %v", path, err)
	}
	return cfg.Width, cfg.Height
}

func TestPath_GeneratesScaledThumbnail(t *testing.T) {
	cache := newTestCache(t, 64)
	src := writePNG(t, t.TempDir(), 640, 480)

	out, err := cache.Path(src)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if out == src {
		t.Fatal("expected a cached thumbnail, got the original")
	}
	if out != cache.CachePath(src) {
		t.Errorf("thumbnail at %s, want %s", out, cache.CachePath(src))
	}

	w, h := decodeDimensions(t, out)
	if w != 64 || h != 48 {
		t.Errorf("thumbnail dimensions = %dx%d, want 64x48", w, h)
	}
}

func TestPath_SmallImageNotUpscaled(t *testing.T) {
	cache := newTestCache(t, 512)
	src := writePNG(t, t.TempDir(), 40, 30)

	out, err := cache.Path(src)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}

	w, h := decodeDimensions(t, out)
	if w != 40 || h != 30 {
		t.Errorf("thumbnail dimensions = %dx%d, want original 40x30", w, h)
	}
}

func TestPath_ReusesCachedFile(t *testing.T) {
	cache := newTestCache(t, 64)
	src := writePNG(t, t.TempDir(), 640, 480)

	first, err := cache.Path(src)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	info1, err := os.Stat(first)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	second, err := cache.Path(src)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if second != first {
		t.Errorf("second call returned %s, want cached %s", second, first)
	}
	info2, err := os.Stat(second)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info2.ModTime().Equal(info1.ModTime()) {
		t.Error("thumbnail was regenerated instead of reused")
	}
}

func TestPath_UndecodableFallsBackToOriginal(t *testing.T) {
	cache := newTestCache(t, 64)
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.jpg")
	if err := os.WriteFile(src, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	out, err := cache.Path(src)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if out != src {
		t.Errorf("got %s, want fallback to original %s", out, src)
	}
	if _, err := os.Stat(cache.CachePath(src)); !os.IsNotExist(err) {
		t.Error("no thumbnail should be cached for an undecodable source")
	}
}

func TestFitDimensions(t *testing.T) {
	tests := []struct {
		w, h, maxDim int
		wantW, wantH int
	}{
		{640, 480, 64, 64, 48},
		{480, 640, 64, 48, 64},
		{100, 100, 512, 100, 100},
		{512, 512, 512, 512, 512},
		{10000, 1, 64, 64, 1},
	}
	for _, tt := range tests {
		gotW, gotH := fitDimensions(tt.w, tt.h, tt.maxDim)
		if gotW != tt.wantW || gotH != tt.wantH {
			t.Errorf("fitDimensions(%d, %d, %d) = (%d, %d), want (%d, %d)",
				tt.w, tt.h, tt.maxDim, gotW, gotH, tt.wantW, tt.wantH)
		}
	}
}
