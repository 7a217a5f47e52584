// Package catalog defines the records stored in the four pipeline tables and
// the constants shared by the tagging, enrichment, and recommendation stages.
package catalog

import (
	"fmt"
	"time"
)

// Season is fixed for the whole corpus; the generator only produces summer
// palettes.
const Season = "summer"

// PrimaryGarmentTypes are the main clothing items the classifier can assign.
var PrimaryGarmentTypes = []string{"t-shirt", "shorts", "dress", "skirt", "swimsuit"}

// AccessoryGarmentTypes complement a primary garment.
var AccessoryGarmentTypes = []string{"sunglasses", "hat", "belt", "bag", "watch", "sandals"}

// Genders the classifier can assign.
var Genders = []string{"men", "women", "unisex"}

// ImageMetadata is one row of the image_metadata table. ImageID is the file
// base name (e.g. "img_001.jpg") and acts as the primary key everywhere.
type ImageMetadata struct {
	ImageID        string
	FilePath       string
	Description    string
	DominantColors []string
	StyleTags      []string
	GarmentType    string
	Accessories    []string
	Gender         string
	Season         string
	CreatedAt      time.Time
}

// Validate reports whether the record can be stored. Only identity fields are
// hard requirements; everything else may be empty.
func (m ImageMetadata) Validate() error {
	if m.ImageID == "" {
		return fmt.Errorf("image_id is empty")
	}
	if m.FilePath == "" {
		return fmt.Errorf("file_path is empty for %s", m.ImageID)
	}
	return nil
}

// NavigationPath is one row of image_navigation_paths. NextImages and Scores
// are positionally aligned: Scores[i] belongs to NextImages[i].
type NavigationPath struct {
	SourceImageID string
	NextImages    []string
	Scores        []float64
	Reason        string
	CreatedAt     time.Time
}

// Validate enforces the positional alignment invariant.
func (p NavigationPath) Validate() error {
	if p.SourceImageID == "" {
		return fmt.Errorf("source_image_id is empty")
	}
	if len(p.NextImages) != len(p.Scores) {
		return fmt.Errorf("navigation path %s: %d images vs %d scores",
			p.SourceImageID, len(p.NextImages), len(p.Scores))
	}
	return nil
}

// Interaction is one row of the append-only user_interactions log. Duplicate
// (user, image) pairs are expected: one row per event.
type Interaction struct {
	UserID    string
	ImageID   string
	Clicked   bool
	Timestamp time.Time
}

// Recommendation is one row of the append-only recommendations log.
// Recommended and Reasoning are positionally aligned.
type Recommendation struct {
	UserID        string
	SourceImageID string
	Recommended   []string
	Reasoning     []string
	GeneratedAt   time.Time
}

// Validate enforces the positional alignment invariant.
func (r Recommendation) Validate() error {
	if r.UserID == "" || r.SourceImageID == "" {
		return fmt.Errorf("recommendation missing user_id or source_image_id")
	}
	if len(r.Recommended) != len(r.Reasoning) {
		return fmt.Errorf("recommendation for %s: %d images vs %d reasons",
			r.UserID, len(r.Recommended), len(r.Reasoning))
	}
	return nil
}

// IsPrimaryGarment reports whether t is a main clothing item.
func IsPrimaryGarment(t string) bool { return contains(PrimaryGarmentTypes, t) }

// IsAccessoryGarment reports whether t is an accessory.
func IsAccessoryGarment(t string) bool { return contains(AccessoryGarmentTypes, t) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
