package catalog

import "image/color"

// PaletteColor is one background color of the summer palette, together with
// the two style adjectives the tagger derives from it.
type PaletteColor struct {
	Name       string
	RGBA       color.RGBA
	Adjectives [2]string
}

// SummerPalette holds the ten backgrounds the generator draws on. The tagger
// matches a decoded image's background against this list to pick style
// adjectives, so the two packages must agree on the exact RGB values.
var SummerPalette = []PaletteColor{
	{"moccasin", color.RGBA{255, 228, 181, 255}, [2]string{"sandy", "warm"}},
	{"light sky blue", color.RGBA{135, 206, 250, 255}, [2]string{"breezy", "coastal"}},
	{"light pink", color.RGBA{255, 182, 193, 255}, [2]string{"soft", "playful"}},
	{"khaki", color.RGBA{240, 230, 140, 255}, [2]string{"casual", "earthy"}},
	{"pale green", color.RGBA{152, 251, 152, 255}, [2]string{"fresh", "botanical"}},
	{"light salmon", color.RGBA{255, 160, 122, 255}, [2]string{"vivid", "sunset"}},
	{"light cyan", color.RGBA{224, 255, 255, 255}, [2]string{"crisp", "aquatic"}},
	{"lemon chiffon", color.RGBA{255, 250, 205, 255}, [2]string{"bright", "citrus"}},
	{"light blue", color.RGBA{173, 216, 230, 255}, [2]string{"calm", "nautical"}},
	{"sandy brown", color.RGBA{244, 164, 96, 255}, [2]string{"rustic", "golden"}},
}

// NearestPaletteColor returns the palette entry closest to c by squared RGB
// distance. JPEG compression shifts the generated backgrounds slightly, so an
// exact match cannot be assumed.
func NearestPaletteColor(c color.RGBA) PaletteColor {
	best := SummerPalette[0]
	bestDist := 1 << 30
	for _, p := range SummerPalette {
		d := sqDist(c, p.RGBA)
		if d < bestDist {
			bestDist = d
			best = p
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
