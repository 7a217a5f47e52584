// Package imagegen synthesizes the small JPEG corpus the pipeline runs on:
// 23x23 images with a summer-palette background and a single filled shape
// (rectangle, ellipse, or crossed diagonal lines).
//
// Generation is reproducible: every image draws from its own deterministic
// random stream derived from the run seed and the image id, so regenerating
// with the same seed produces byte-identical files regardless of order.
package imagegen

import (
	"fmt"
	"image/color"
	"image/jpeg"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"

	"fashionetl/internal/catalog"
	"fashionetl/internal/rng"
)

const (
	// Width and Height of every generated image, in pixels.
	Width  = 23
	Height = 23

	jpegQuality = 90
)

// Options configures a generation run.
type Options struct {
	// Dir receives the img_NNN.jpg files; created if absent.
	Dir string

	// Count is the number of images to produce (img_001 .. img_NNN).
	Count int

	// Seed drives the per-image random streams. 0 derives one from the clock.
	Seed int64
}

// Generate writes opts.Count images into opts.Dir and returns their paths in
// id order.
func Generate(opts Options) ([]string, error) {
	if opts.Count <= 0 {
		return nil, fmt.Errorf("imagegen: count must be positive (got %d)", opts.Count)
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("imagegen: create dir %s: %w", opts.Dir, err)
	}
	seed := rng.Seed(opts.Seed)

	paths := make([]string, 0, opts.Count)
	for i := 1; i <= opts.Count; i++ {
		name := fmt.Sprintf("img_%03d.jpg", i)
		path := filepath.Join(opts.Dir, name)
		if err := writeImage(path, rng.New(seed, name)); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeImage(path string, r *rand.Rand) error {
	dc := gg.NewContext(Width, Height)

	bg := catalog.SummerPalette[r.Intn(len(catalog.SummerPalette))].RGBA
	dc.SetColor(bg)
	dc.Clear()

	// Re-roll the shape color until it differs from the background.
	shapeColor := randomColor(r)
	for shapeColor == bg {
		shapeColor = randomColor(r)
	}
	dc.SetColor(shapeColor)

	shape := []string{"rectangle", "ellipse", "line"}[r.Intn(3)]
	x1 := float64(3 + r.Intn(6)) // [3,8]
	y1 := float64(3 + r.Intn(6))
	x2 := float64(15 + r.Intn(6)) // [15,20]
	y2 := float64(15 + r.Intn(6))

	switch shape {
	case "rectangle":
		dc.DrawRectangle(x1, y1, x2-x1, y2-y1)
		dc.Fill()
	case "ellipse":
		dc.DrawEllipse((x1+x2)/2, (y1+y2)/2, (x2-x1)/2, (y2-y1)/2)
		dc.Fill()
	case "line":
		// Both diagonals of the box, so the shape stays visible at 23x23.
		dc.SetLineWidth(float64(2 + r.Intn(3))) // 2-4
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
		dc.SetLineWidth(float64(2 + r.Intn(2))) // 2-3
		dc.DrawLine(x1, y2, x2, y1)
		dc.Stroke()
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imagegen: create %s: %w", path, err)
	}
	defer f.Close()

	// gg has no JPEG encoder; encode the rendered context directly.
	if err := jpeg.Encode(f, dc.Image(), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("imagegen: encode %s: %w", path, err)
	}
	return nil
}

func randomColor(r *rand.Rand) color.RGBA {
	return color.RGBA{
		R: uint8(r.Intn(256)),
		G: uint8(r.Intn(256)),
		B: uint8(r.Intn(256)),
		A: 255,
	}
}
