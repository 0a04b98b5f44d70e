// Command genimages populates a watch directory with synthetic inspection
// captures laid out as <root>/<station>/<model>/<PASS>-<YYYYMMDD>-<HHMMSS>-<COUNT>.jpg.
// Counters continue from whatever already exists, so repeated runs extend the
// tree instead of colliding with it.
// Run from the repository root: go run ./tools/genimages -root ./IMAGES
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	imgW = 640
	imgH = 480
)

var (
	okBG = color.RGBA{180, 235, 180, 255}
	ngBG = color.RGBA{230, 60, 60, 255}

	nameRE = regexp.MustCompile(`^(?i)(OK|NG)-\d{8}-\d{6}-(\d+)\.(?:jpg|jpeg|png)$`)
)

func main() {
	root := flag.String("root", "./IMAGES", "watch root to populate")
	stations := flag.String("stations", "S9,S7-D2,S4", "comma-separated station names")
	models := flag.String("models", "OR-3CT,OR-2CT", "comma-separated model names")
	perCombo := flag.Int("per-combo", 200, "images per station and model pair")
	okRatio := flag.Float64("ok-ratio", 0.9, "probability a capture is OK")
	offset := flag.Duration("offset", 2*time.Hour, "how far before now the series starts")
	step := flag.Duration("step", 30*time.Second, "time between consecutive captures")
	flag.Parse()

	created := 0
	start := time.Now().Add(-*offset)

	for _, station := range strings.Split(*stations, ",") {
		for _, model := range strings.Split(*models, ",") {
			dir := filepath.Join(*root, station, model)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				fmt.Fprintf(os.Stderr, "create dir: %v\n", err)
				os.Exit(1)
			}

			base := latestCount(dir)
			for i := 0; i < *perCombo; i++ {
				ts := start.Add(time.Duration(i) * *step)
				label := "NG"
				if rand.Float64() < *okRatio {
					label = "OK"
				}
				count := base + i + 1

				name := fmt.Sprintf("%s-%s-%s-%d.jpg",
					label, ts.Format("20060102"), ts.Format("150405"), count)
				lines := []string{
					station + " | " + model,
					fmt.Sprintf("%s  #%d", label, count),
					ts.Format("2006-01-02 15:04:05"),
				}
				if err := writeCapture(filepath.Join(dir, name), label, lines); err != nil {
					fmt.Fprintf(os.Stderr, "write %s: %v\n", name, err)
					os.Exit(1)
				}
				created++
			}
		}
	}

	fmt.Printf("Generated %d images under %s\n", created, *root)
}

// latestCount returns the highest counter among existing captures in dir, so
// new files continue the sequence.
func latestCount(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	max := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := nameRE.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[2]); err == nil && n > max {
			max = n
		}
	}
	return max
}

// writeCapture renders a labeled solid-background JPEG.
func writeCapture(path, label string, lines []string) error {
	bg := ngBG
	if label == "OK" {
		bg = okBG
	}

	img := image.NewRGBA(image.Rect(0, 0, imgW, imgH))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	lineH := face.Metrics().Height.Ceil() + 6
	y := (imgH - lineH*len(lines)) / 2

	for _, line := range lines {
		d := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(color.Black),
			Face: face,
		}
		w := d.MeasureString(line).Ceil()
		d.Dot = fixed.P((imgW-w)/2, y+face.Metrics().Ascent.Ceil())
		d.DrawString(line)
		y += lineH
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 85}); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
