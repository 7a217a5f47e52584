package tagger

import (
	"image/color"
	"testing"

	"github.com/fogleman/gg"

	"fashionetl/internal/catalog"
	"fashionetl/internal/imagegen"
)

// drawShape renders a 23x23 test canvas the way the generator does: a solid
// background with one filled shape. No JPEG round-trip, so colors are exact.
func drawShape(t *testing.T, shape Shape, bg, fg color.RGBA) *gg.Context {
	t.Helper()
	dc := gg.NewContext(23, 23)
	dc.SetColor(bg)
	dc.Clear()
	dc.SetColor(fg)
	switch shape {
	case ShapeRectangle:
		dc.DrawRectangle(4, 4, 14, 14)
		dc.Fill()
	case ShapeEllipse:
		dc.DrawEllipse(11.5, 11.5, 7, 7)
		dc.Fill()
	case ShapeLine:
		dc.SetLineWidth(2)
		dc.DrawLine(4, 4, 18, 18)
		dc.Stroke()
		dc.DrawLine(4, 18, 18, 4)
		dc.Stroke()
	}
	return dc
}

// TestExtractFeaturesShapes checks the fill-ratio cut points separate the
// three generated shapes.
func TestExtractFeaturesShapes(t *testing.T) {
	t.Parallel()

	bg := color.RGBA{255, 228, 181, 255} // moccasin
	fg := color.RGBA{30, 60, 200, 255}

	for _, shape := range []Shape{ShapeRectangle, ShapeEllipse, ShapeLine} {
		dc := drawShape(t, shape, bg, fg)
		f := ExtractFeatures(dc.Image())
		if f.Shape != shape {
			t.Errorf("shape %s classified as %s (fill ratio %.2f)", shape, f.Shape, f.FillRatio)
		}
		if f.Background != bg {
			t.Errorf("shape %s: background %v, want %v", shape, f.Background, bg)
		}
	}
}

// TestExtractFeaturesUniform checks a shapeless image yields no foreground.
func TestExtractFeaturesUniform(t *testing.T) {
	t.Parallel()

	dc := gg.NewContext(23, 23)
	dc.SetColor(color.RGBA{240, 230, 140, 255})
	dc.Clear()

	f := ExtractFeatures(dc.Image())
	if f.FillRatio != 0 {
		t.Fatalf("uniform image has fill ratio %.2f", f.FillRatio)
	}
	if f.Shape != ShapeRectangle {
		t.Fatalf("uniform image defaulted to %s", f.Shape)
	}
}

// TestClassifyStableUnderColorNoise checks garment and gender survive small
// channel shifts, which is what JPEG encoding does to the generated shapes.
func TestClassifyStableUnderColorNoise(t *testing.T) {
	t.Parallel()

	base := Features{
		Shape:      ShapeEllipse,
		Background: color.RGBA{135, 206, 250, 255},
		Foreground: color.RGBA{200, 64, 64, 255},
	}
	shifted := base
	shifted.Foreground = color.RGBA{202, 66, 67, 255}
	shifted.Background = color.RGBA{133, 204, 252, 255}

	a, b := Classify(base), Classify(shifted)
	if a != b {
		t.Fatalf("labels flipped under noise: %+v vs %+v", a, b)
	}
	if a.Adjectives != [2]string{"breezy", "coastal"} {
		t.Fatalf("light sky blue background yielded adjectives %v", a.Adjectives)
	}
}

// TestDominantColors checks ordering and formatting on a known canvas.
func TestDominantColors(t *testing.T) {
	t.Parallel()

	bg := color.RGBA{255, 182, 193, 255}
	dc := drawShape(t, ShapeRectangle, bg, color.RGBA{10, 20, 30, 255})

	colors := DominantColors(dc.Image())
	if len(colors) == 0 || len(colors) > 3 {
		t.Fatalf("got %d colors", len(colors))
	}
	// The background dominates any 23x23 canvas with one 14x14 shape.
	if colors[0] != "(255,182,193)" {
		t.Fatalf("top color %s, want background (255,182,193)", colors[0])
	}
}

// TestNormalizeText checks lowercasing, diacritic folding, and whitespace
// collapsing.
func TestNormalizeText(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"  T-Shirt ", "t-shirt"},
		{"Café  Crème", "cafe creme"},
		{"SANDY\twarm", "sandy warm"},
		{"", ""},
	}
	for _, c := range cases {
		if got := normalizeText(c.in); got != c.want {
			t.Errorf("normalizeText(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// TestTagGeneratedCorpus runs the tagger over a real generated directory and
// checks every record's vocabulary and alignment.
func TestTagGeneratedCorpus(t *testing.T) {
	t.Parallel()

	paths, err := imagegen.Generate(imagegen.Options{Dir: t.TempDir(), Count: 10, Seed: 42})
	if err != nil {
		t.Fatalf("generate corpus: %v", err)
	}

	garments := append(append([]string{}, catalog.PrimaryGarmentTypes...), catalog.AccessoryGarmentTypes...)
	for _, p := range paths {
		res, err := Tag(p)
		if err != nil {
			t.Fatalf("Tag(%s): %v", p, err)
		}
		if !containsStr(garments, res.GarmentType) {
			t.Errorf("%s: garment %q not in vocabulary", res.ImageID, res.GarmentType)
		}
		if !containsStr(catalog.Genders, res.Gender) {
			t.Errorf("%s: gender %q not in vocabulary", res.ImageID, res.Gender)
		}
		if len(res.StyleTags) != 3 || res.StyleTags[0] != res.GarmentType {
			t.Errorf("%s: style tags %v inconsistent with garment %s",
				res.ImageID, res.StyleTags, res.GarmentType)
		}
		if len(res.DominantColors) == 0 {
			t.Errorf("%s: no dominant colors", res.ImageID)
		}
		if catalog.IsAccessoryGarment(res.GarmentType) != (len(res.Accessories) == 1) {
			t.Errorf("%s: accessories %v inconsistent with garment %s",
				res.ImageID, res.Accessories, res.GarmentType)
		}
	}
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
