// Package tagger extracts metadata from a fashion image: dominant colors by
// exact counting over a Catmull-Rom downsample, and garment/style/gender
// labels from a deterministic feature classifier driven by pixel statistics
// (no network, no model download).
package tagger

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"

	"fashionetl/internal/catalog"
)

// Tag decodes the JPEG at path and assembles an ImageMetadata-shaped record
// via Metadata. It is safe for concurrent use.
func Tag(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("tagger: open %s: %w", path, err)
	}
	defer f.Close()

	img, err := jpeg.Decode(f)
	if err != nil {
		return Result{}, fmt.Errorf("tagger: decode %s: %w", path, err)
	}
	return FromImage(path, img), nil
}

// Result carries everything the pipeline needs to build a metadata row.
type Result struct {
	ImageID        string
	FilePath       string
	Description    string
	DominantColors []string
	StyleTags      []string
	GarmentType    string
	Accessories    []string
	Gender         string
}

// FromImage tags an already-decoded image. The image id is the file base
// name; the file path is made absolute when possible.
func FromImage(path string, img image.Image) Result {
	feats := ExtractFeatures(img)
	labels := Classify(feats)

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	// Top-3 labels, descending confidence: garment first, then the two
	// palette adjectives.
	tags := normalizeAll([]string{labels.Garment, labels.Adjectives[0], labels.Adjectives[1]})
	garment := tags[0]

	var accessories []string
	if catalog.IsAccessoryGarment(garment) {
		accessories = []string{garment}
	}

	return Result{
		ImageID:        filepath.Base(path),
		FilePath:       abs,
		Description:    tags[1] + " " + garment,
		DominantColors: DominantColors(img),
		StyleTags:      tags,
		GarmentType:    garment,
		Accessories:    accessories,
		Gender:         normalizeText(labels.Gender),
	}
}
