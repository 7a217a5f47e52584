// Package enrich computes pairwise similarity over the stored image metadata
// and derives a per-image navigation path: a ranked list of suggested next
// images with scores and a human-readable rationale.
package enrich

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"fashionetl/internal/catalog"
	"fashionetl/internal/config"
	"fashionetl/internal/logging"
	"fashionetl/internal/storage"
)

// Options tune candidate selection. Values come from the enrich.options bag.
type Options struct {
	// MaxCandidates caps the navigation path length.
	MaxCandidates int

	// Threshold is the minimum (exclusive) similarity score a candidate
	// needs to be considered.
	Threshold float64

	// VariationChance is the probability of running the style-variation scan
	// even when enough candidates were found.
	VariationChance float64
}

// OptionsFrom reads the enrich option bag, falling back to the stock values.
func OptionsFrom(o config.Options) Options {
	return Options{
		MaxCandidates:   o.Int("max_candidates", 5),
		Threshold:       o.Float("threshold", 0.1),
		VariationChance: o.Float("variation_chance", 0.2),
	}
}

const defaultReason = "Path generated based on shared styles, garment types, and accessory complementarity."

const variationReason = "Style variation (different gender, similar tags)"

// Run fetches all metadata, generates navigation paths, and upserts them.
func Run(ctx context.Context, store storage.Store, log *logging.Logger, r *rand.Rand, opts Options) error {
	all, err := store.ListImageMetadata(ctx)
	if err != nil {
		return fmt.Errorf("enrich: fetch metadata: %w", err)
	}
	if len(all) == 0 {
		return fmt.Errorf("enrich: no image metadata found; run the etl stage first")
	}
	log.Info("metadata fetched", "records", len(all))

	paths := GeneratePaths(all, r, opts)
	if len(paths) == 0 {
		log.Warn("no navigation paths generated")
		return nil
	}

	n, err := store.UpsertNavigationPaths(ctx, paths)
	if err != nil {
		return fmt.Errorf("enrich: upsert paths: %w", err)
	}
	log.Info("navigation paths written", "paths", n)
	return nil
}

// scored is one candidate during selection.
type scored struct {
	imageID     string
	score       float64
	reasonExtra string // set only by the style-variation rule
}

// Score computes the similarity between a source and candidate image and
// returns the accumulated reasons. Rules, in order:
//
//  1. +0.1 per shared style tag; +0.2 for the same garment type, or +0.1
//     when the candidate's garment type appears among the source's tags.
//  2. +0.25 for accessory complementarity (primary with accessory in either
//     direction).
//
// The result is clamped to 1.0.
func Score(source, candidate catalog.ImageMetadata) (float64, []string) {
	var (
		score   float64
		reasons []string
	)

	if shared := sharedTags(source.StyleTags, candidate.StyleTags); len(shared) > 0 {
		score += 0.1 * float64(len(shared))
		reasons = append(reasons, "Shared style_tags: "+strings.Join(shared, ", "))
	}

	if source.GarmentType == candidate.GarmentType {
		score += 0.2
		reasons = append(reasons, "Same garment_type: "+source.GarmentType)
	} else if containsString(source.StyleTags, candidate.GarmentType) {
		score += 0.1
		reasons = append(reasons,
			fmt.Sprintf("Candidate garment_type '%s' in source style_tags.", candidate.GarmentType))
	}

	srcPrimary := catalog.IsPrimaryGarment(source.GarmentType)
	srcAccessory := catalog.IsAccessoryGarment(source.GarmentType)
	candPrimary := catalog.IsPrimaryGarment(candidate.GarmentType)
	candAccessory := catalog.IsAccessoryGarment(candidate.GarmentType)

	if srcPrimary && candAccessory {
		score += 0.25
		reasons = append(reasons, fmt.Sprintf(
			"Accessory complement: source is primary (%s), candidate is accessory (%s)",
			source.GarmentType, candidate.GarmentType))
	} else if srcAccessory && candPrimary {
		score += 0.25
		reasons = append(reasons, fmt.Sprintf(
			"Accessory complement: source is accessory (%s), candidate is primary (%s)",
			source.GarmentType, candidate.GarmentType))
	}

	return math.Min(score, 1.0), reasons
}

// GeneratePaths builds one navigation path per source image. Candidates above
// the threshold are ranked by score; when fewer than 3 qualify (or with
// VariationChance probability) a style-variation scan looks for images of a
// different gender sharing at least two style tags, which may replace the
// lowest-scored selection when the path is full.
func GeneratePaths(all []catalog.ImageMetadata, r *rand.Rand, opts Options) []catalog.NavigationPath {
	byID := make(map[string]catalog.ImageMetadata, len(all))
	for _, m := range all {
		byID[m.ImageID] = m
	}

	var out []catalog.NavigationPath
	for _, source := range all {
		selected := selectCandidates(source, all, r, opts)
		if len(selected) == 0 {
			continue
		}

		ids := make([]string, len(selected))
		scores := make([]float64, len(selected))
		for i, c := range selected {
			ids[i] = c.imageID
			scores[i] = math.Round(c.score*100) / 100
		}

		out = append(out, catalog.NavigationPath{
			SourceImageID: source.ImageID,
			NextImages:    ids,
			Scores:        scores,
			Reason:        buildReason(source, selected[0], byID),
		})
	}
	return out
}

func selectCandidates(source catalog.ImageMetadata, all []catalog.ImageMetadata, r *rand.Rand, opts Options) []scored {
	var pool []scored
	for _, cand := range all {
		if cand.ImageID == source.ImageID {
			continue
		}
		score, _ := Score(source, cand)
		if score > opts.Threshold {
			pool = append(pool, scored{imageID: cand.ImageID, score: score})
		}
	}
	sortByScore(pool)

	selected := pool
	if len(selected) > opts.MaxCandidates {
		selected = selected[:opts.MaxCandidates]
	}
	selected = append([]scored(nil), selected...)

	// Style variation: runs when the path is thin, plus a random chance for
	// diversity on full paths.
	if len(selected) < 3 || r.Float64() < opts.VariationChance {
		selected = applyVariation(source, all, selected, opts)
	}

	sortByScore(selected)
	if len(selected) > opts.MaxCandidates {
		selected = selected[:opts.MaxCandidates]
	}
	return selected
}

func applyVariation(source catalog.ImageMetadata, all []catalog.ImageMetadata, selected []scored, opts Options) []scored {
	for _, cand := range all {
		if cand.ImageID == source.ImageID || containsScored(selected, cand.ImageID) {
			continue
		}
		shared := sharedTags(source.StyleTags, cand.StyleTags)
		if source.Gender == cand.Gender || len(shared) < 2 {
			continue
		}
		variationScore := math.Min(0.1+0.1*float64(len(shared)), 1.0)

		if len(selected) >= opts.MaxCandidates {
			lowest := 0
			for i := range selected {
				if selected[i].score < selected[lowest].score {
					lowest = i
				}
			}
			if variationScore <= selected[lowest].score {
				continue
			}
			selected = append(selected[:lowest], selected[lowest+1:]...)
		}

		selected = append(selected, scored{
			imageID:     cand.ImageID,
			score:       variationScore,
			reasonExtra: variationReason,
		})
		if len(selected) >= opts.MaxCandidates {
			break
		}
	}
	return selected
}

// buildReason explains the path through its top-ranked candidate.
func buildReason(source catalog.ImageMetadata, top scored, byID map[string]catalog.ImageMetadata) string {
	topMeta, ok := byID[top.imageID]
	if !ok {
		return defaultReason
	}
	_, reasons := Score(source, topMeta)
	if top.reasonExtra != "" {
		reasons = append(reasons, top.reasonExtra)
	}
	if len(reasons) == 0 {
		return defaultReason
	}
	return fmt.Sprintf(
		"Primary Link: %s to %s - Reasons: %s. Other suggestions follow similar logic.",
		source.ImageID, top.imageID, strings.Join(reasons, "; "))
}

// sharedTags returns the tags present in both lists, deduplicated, in the
// order they appear in a.
func sharedTags(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, t := range b {
		inB[t] = true
	}
	seen := make(map[string]bool, len(a))
	var out []string
	for _, t := range a {
		if inB[t] && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func sortByScore(s []scored) {
	// Stable so equal scores keep image order.
	sort.SliceStable(s, func(i, j int) bool { return s[i].score > s[j].score })
}

func containsScored(s []scored, id string) bool {
	for _, c := range s {
		if c.imageID == id {
			return true
		}
	}
	return false
}

func containsString(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
