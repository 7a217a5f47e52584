package tagger

import (
	"fmt"
	"image"
	"image/color"
	"sort"

	xdraw "golang.org/x/image/draw"
)

const (
	sampleSize     = 50
	dominantColors = 3
)

// DominantColors resamples the image to 50x50 with Catmull-Rom interpolation,
// counts exact colors, and returns up to the top 3 as "(r,g,b)" strings, most
// frequent first. Ties break toward the lower packed RGB value so the result
// is stable.
func DominantColors(img image.Image) []string {
	small := resample(img, sampleSize, sampleSize)

	counts := map[color.RGBA]int{}
	b := small.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			counts[rgbaAt(small, x, y)]++
		}
	}

	type cc struct {
		c color.RGBA
		n int
	}
	all := make([]cc, 0, len(counts))
	for c, n := range counts {
		all = append(all, cc{c, n})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].n != all[j].n {
			return all[i].n > all[j].n
		}
		return packRGB(all[i].c) < packRGB(all[j].c)
	})

	n := dominantColors
	if len(all) < n {
		n = len(all)
	}
	out := make([]string, 0, n)
	for _, e := range all[:n] {
		out = append(out, fmt.Sprintf("(%d,%d,%d)", e.c.R, e.c.G, e.c.B))
	}
	return out
}

func resample(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
	return dst
}

func rgbaAt(img *image.RGBA, x, y int) color.RGBA {
	i := img.PixOffset(x, y)
	return color.RGBA{img.Pix[i], img.Pix[i+1], img.Pix[i+2], 255}
}

func packRGB(c color.RGBA) uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}
