// Package thumb renders and caches downscaled JPEG previews of inspection
// images.
package thumb

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const jpegQuality = 85

// Cache is a disk cache of thumbnails keyed by the SHA-1 of the source path.
// A cached thumbnail is never invalidated; inspection images are immutable
// once written.
type Cache struct {
	dir    string
	maxDim int
	logger *slog.Logger
}

// NewCache creates a thumbnail cache rooted at dir. Thumbnails are scaled to
// fit within maxDim on their longer edge.
func NewCache(dir string, maxDim int, logger *slog.Logger) *Cache {
	return &Cache{dir: dir, maxDim: maxDim, logger: logger}
}

// CachePath returns the on-disk location a thumbnail of src would occupy.
func (c *Cache) CachePath(src string) string {
	h := sha1.Sum([]byte(src))
	return filepath.Join(c.dir, hex.EncodeToString(h[:])+".jpg")
}

// Path returns a file to serve as the thumbnail of src, generating and
// caching it on first use. If src cannot be decoded the original file is
// served instead; a broken image is better delivered as-is than as an error.
func (c *Cache) Path(src string) (string, error) {
	cached := c.CachePath(src)
	if _, err := os.Stat(cached); err == nil {
		return cached, nil
	}

	if err := c.generate(src, cached); err != nil {
		c.logger.Debug("thumbnail generation failed, serving original", "path", src, "error", err)
		return src, nil
	}
	return cached, nil
}

// generate decodes src, scales it down if needed, and writes the JPEG
// thumbnail to dst via a temp file so a concurrent request never observes a
// partial write.
func (c *Cache) generate(src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer f.Close() //nolint:errcheck

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decoding image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	newW, newH := fitDimensions(w, h, c.maxDim)
	if newW != w || newH != h {
		scaled := image.NewRGBA(image.Rect(0, 0, newW, newH))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
		img = scaled
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, ".thumb-*.jpg")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := jpeg.Encode(tmp, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("encoding jpeg: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("publishing thumbnail: %w", err)
	}
	return nil
}

// fitDimensions scales (w, h) down so the longer edge is at most maxDim,
// preserving aspect ratio. Dimensions already within bounds are unchanged.
func fitDimensions(w, h, maxDim int) (int, int) {
	longer := w
	if h > longer {
		longer = h
	}
	if longer <= maxDim {
		return w, h
	}

	ratio := float64(maxDim) / float64(longer)
	newW := int(math.Round(float64(w) * ratio))
	newH := int(math.Round(float64(h) * ratio))
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	return newW, newH
}
