package tagger

import (
	"image"
	"image/color"
	"math"

	"github.com/zeebo/xxh3"

	"fashionetl/internal/catalog"
)

// Shape names the geometry the classifier detected.
type Shape string

const (
	ShapeRectangle Shape = "rectangle"
	ShapeEllipse   Shape = "ellipse"
	ShapeLine      Shape = "line"
)

// fgThreshold is the squared RGB distance above which a pixel counts as
// foreground. JPEG artifacts keep background pixels within a much smaller
// radius of the original palette color.
const fgThreshold = 48 * 48

// Fill-ratio cut points between the three shapes. A solid rectangle fills its
// bounding box (~1.0), an ellipse roughly pi/4 (~0.785), crossed diagonal
// lines far less.
const (
	rectangleRatio = 0.88
	ellipseRatio   = 0.55
)

// Features are the pixel statistics classification is based on.
type Features struct {
	Shape      Shape
	Background color.RGBA // most frequent color
	Foreground color.RGBA // mean color of foreground pixels
	FillRatio  float64    // foreground pixels / bounding box area
}

// ExtractFeatures derives shape features from a decoded image. When no
// foreground stands out the shape defaults to rectangle with a zero ratio.
func ExtractFeatures(img image.Image) Features {
	rgba := resample(img, img.Bounds().Dx(), img.Bounds().Dy())
	bg := mostFrequentColor(rgba)

	var (
		minX, minY = math.MaxInt32, math.MaxInt32
		maxX, maxY = -1, -1
		fgCount    int
		sumR, sumG, sumB int
	)
	b := rgba.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := rgbaAt(rgba, x, y)
			if sqDist(c, bg) < fgThreshold {
				continue
			}
			fgCount++
			sumR += int(c.R)
			sumG += int(c.G)
			sumB += int(c.B)
			if x < minX {
				minX = x
			}
			if y < minY {
				minY = y
			}
			if x > maxX {
				maxX = x
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	f := Features{Shape: ShapeRectangle, Background: bg}
	if fgCount == 0 || maxX < minX {
		return f
	}
	f.Foreground = color.RGBA{
		R: uint8(sumR / fgCount),
		G: uint8(sumG / fgCount),
		B: uint8(sumB / fgCount),
		A: 255,
	}
	box := (maxX - minX + 1) * (maxY - minY + 1)
	f.FillRatio = float64(fgCount) / float64(box)

	switch {
	case f.FillRatio >= rectangleRatio:
		f.Shape = ShapeRectangle
	case f.FillRatio >= ellipseRatio:
		f.Shape = ShapeEllipse
	default:
		f.Shape = ShapeLine
	}
	return f
}

// Labels are the classifier's scored outputs for one image.
type Labels struct {
	Garment    string
	Adjectives [2]string
	Gender     string
}

// Classify maps features onto the garment/adjective/gender vocabulary.
//
// The garment is a deterministic function of the shape and the foreground
// color bucket, spread over the combined primary+accessory vocabulary so
// both the accessory-complementarity and garment-match rules downstream see
// realistic variety. Adjectives come from the nearest palette background and
// gender from the foreground color channels.
func Classify(f Features) Labels {
	garments := append(append([]string{}, catalog.PrimaryGarmentTypes...), catalog.AccessoryGarmentTypes...)

	// Bucket the foreground color so JPEG noise cannot flip the garment.
	key := []byte{
		byte(f.Shape[0]),
		f.Foreground.R >> 4,
		f.Foreground.G >> 4,
		f.Foreground.B >> 4,
	}
	garment := garments[xxh3.Hash(key)%uint64(len(garments))]

	pal := catalog.NearestPaletteColor(f.Background)

	sum := int(f.Foreground.R>>4) + int(f.Foreground.G>>4) + int(f.Foreground.B>>4)
	gender := catalog.Genders[sum%len(catalog.Genders)]

	return Labels{Garment: garment, Adjectives: pal.Adjectives, Gender: gender}
}

func mostFrequentColor(img *image.RGBA) color.RGBA {
	counts := map[color.RGBA]int{}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			counts[rgbaAt(img, x, y)]++
		}
	}
	var (
		best  color.RGBA
		bestN = -1
	)
	for c, n := range counts {
		if n > bestN || (n == bestN && packRGB(c) < packRGB(best)) {
			best, bestN = c, n
		}
	}
	return best
}

func sqDist(a, b color.RGBA) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return dr*dr + dg*dg + db*db
}
