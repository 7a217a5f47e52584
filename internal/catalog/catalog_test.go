package catalog

import (
	"image/color"
	"testing"
)

// TestImageMetadataValidate checks identity fields are required.
func TestImageMetadataValidate(t *testing.T) {
	t.Parallel()

	m := ImageMetadata{ImageID: "img_001.jpg", FilePath: "/tmp/img_001.jpg"}
	if err := m.Validate(); err != nil {
		t.Fatalf("valid metadata: %v", err)
	}
	if err := (ImageMetadata{FilePath: "/tmp/x.jpg"}).Validate(); err == nil {
		t.Fatal("missing image_id accepted")
	}
	if err := (ImageMetadata{ImageID: "img_001.jpg"}).Validate(); err == nil {
		t.Fatal("missing file_path accepted")
	}
}

// TestNavigationPathValidate checks the positional alignment invariant.
func TestNavigationPathValidate(t *testing.T) {
	t.Parallel()

	p := NavigationPath{
		SourceImageID: "img_001.jpg",
		NextImages:    []string{"img_002.jpg", "img_003.jpg"},
		Scores:        []float64{0.5, 0.3},
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("aligned path: %v", err)
	}
	p.Scores = p.Scores[:1]
	if err := p.Validate(); err == nil {
		t.Fatal("misaligned path accepted")
	}
}

// TestRecommendationValidate checks the positional alignment invariant.
func TestRecommendationValidate(t *testing.T) {
	t.Parallel()

	r := Recommendation{
		UserID:        "user001",
		SourceImageID: "img_001.jpg",
		Recommended:   []string{"img_002.jpg"},
		Reasoning:     []string{"because"},
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("aligned recommendation: %v", err)
	}
	r.Reasoning = nil
	if err := r.Validate(); err == nil {
		t.Fatal("misaligned recommendation accepted")
	}
}

func TestGarmentClassification(t *testing.T) {
	t.Parallel()

	if !IsPrimaryGarment("dress") {
		t.Error("dress should be primary")
	}
	if !IsAccessoryGarment("sunglasses") {
		t.Error("sunglasses should be accessory")
	}
	if IsPrimaryGarment("sunglasses") || IsAccessoryGarment("dress") {
		t.Error("vocabularies overlap")
	}
	if IsPrimaryGarment("jacket") || IsAccessoryGarment("jacket") {
		t.Error("unknown garment classified")
	}
}

// TestNearestPaletteColor checks exact hits and nearest-match behavior.
func TestNearestPaletteColor(t *testing.T) {
	t.Parallel()

	for _, pc := range SummerPalette {
		got := NearestPaletteColor(pc.RGBA)
		if got.Name != pc.Name {
			t.Errorf("exact %s matched %s", pc.Name, got.Name)
		}
		if pc.Adjectives[0] == "" || pc.Adjectives[1] == "" {
			t.Errorf("%s has an empty adjective", pc.Name)
		}
	}

	// A slightly perturbed color still matches its palette entry. JPEG
	// round-trips shift channels by a few counts.
	near := color.RGBA{R: 250, G: 225, B: 185, A: 255}
	if got := NearestPaletteColor(near); got.Name != "moccasin" {
		t.Errorf("perturbed moccasin matched %s", got.Name)
	}
}
