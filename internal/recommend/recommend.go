// Package recommend generates per-user recommendations by re-ranking the
// navigation path of each user's latest clicked image against their click
// history.
package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"fashionetl/internal/catalog"
	"fashionetl/internal/config"
	"fashionetl/internal/logging"
	"fashionetl/internal/storage"
)

// Boost weights applied per occurrence in the user's click history.
const (
	styleTagBoost    = 0.1
	colorBoost       = 0.05
	garmentTypeBoost = 0.2
)

const baseReason = "This item complements your current selection."

// nowFn is a test seam for recommendation timestamps.
var nowFn = time.Now

// Options tune recommendation generation. Values come from the
// recommend.options bag.
type Options struct {
	// Users are the user IDs to recommend for.
	Users []string

	// TopN caps the recommendation list length.
	TopN int
}

// OptionsFrom reads the recommend option bag, falling back to the stock
// values.
func OptionsFrom(o config.Options) Options {
	users := o.StringSlice("users")
	if len(users) == 0 {
		users = []string{"user001", "user005", "user010"}
	}
	return Options{Users: users, TopN: o.Int("top_n", 3)}
}

// Run generates and stores recommendations for every configured user. Users
// with no clicked items get a random image as their seed; users are skipped,
// not failed, when no candidates survive filtering.
func Run(ctx context.Context, store storage.Store, log *logging.Logger, opts Options) error {
	lastClicked, err := store.LastClickedImages(ctx, opts.Users)
	if err != nil {
		return fmt.Errorf("recommend: fetch last clicked images: %w", err)
	}

	written := 0
	for _, userID := range opts.Users {
		seed := lastClicked[userID]
		if seed == "" {
			seed, err = store.RandomImageID(ctx)
			if err != nil {
				return fmt.Errorf("recommend: pick random seed for %s: %w", userID, err)
			}
			if seed == "" {
				return fmt.Errorf("recommend: no image metadata found; run the etl stage first")
			}
			log.Info("user has no clicks, using random seed", "user", userID, "seed", seed)
		}

		rec, err := forUser(ctx, store, userID, seed, opts.TopN)
		if err != nil {
			return err
		}
		if rec == nil {
			log.Warn("no recommendations generated", "user", userID, "seed", seed)
			continue
		}

		if err := store.AppendRecommendations(ctx, []catalog.Recommendation{*rec}); err != nil {
			return fmt.Errorf("recommend: append for %s: %w", userID, err)
		}
		written++
		log.Info("recommendations written",
			"user", userID, "seed", seed, "recommended", rec.Recommended)
	}

	log.Info("recommendation run complete", "users", len(opts.Users), "rows", written)
	return nil
}

// candidate carries a navigation-path entry through filtering and boosting.
type candidate struct {
	imageID string
	score   float64
	reasons []string
}

func forUser(ctx context.Context, store storage.Store, userID, seed string, topN int) (*catalog.Recommendation, error) {
	history, err := store.ClickedHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("recommend: fetch history for %s: %w", userID, err)
	}

	next, scores, err := store.NavigationPath(ctx, seed)
	if err != nil {
		return nil, fmt.Errorf("recommend: fetch path for %s: %w", seed, err)
	}
	if len(next) == 0 {
		return nil, nil
	}

	clicked := make(map[string]bool, len(history))
	for _, id := range history {
		clicked[id] = true
	}

	var candidates []candidate
	for i, id := range next {
		if id == seed || clicked[id] {
			continue
		}
		candidates = append(candidates, candidate{
			imageID: id,
			score:   scores[i],
			reasons: []string{baseReason},
		})
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	needed := append(append([]string{seed}, history...), candidateIDs(candidates)...)
	meta, err := store.ImageMetadataByIDs(ctx, dedupe(needed))
	if err != nil {
		return nil, fmt.Errorf("recommend: fetch candidate metadata: %w", err)
	}
	byID := make(map[string]catalog.ImageMetadata, len(meta))
	for _, m := range meta {
		byID[m.ImageID] = m
	}
	seedMeta, ok := byID[seed]
	if !ok {
		return nil, nil
	}

	boostCandidates(candidates, history, seedMeta, byID)

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}

	rec := &catalog.Recommendation{
		UserID:        userID,
		SourceImageID: seed,
		Recommended:   make([]string, len(candidates)),
		Reasoning:     make([]string, len(candidates)),
		GeneratedAt:   nowFn().UTC(),
	}
	for i, c := range candidates {
		rec.Recommended[i] = c.imageID
		rec.Reasoning[i] = strings.Join(c.reasons, ". ")
	}
	return rec, nil
}

// boostCandidates raises candidate scores for traits the user's click history
// shows a taste for. Boosts scale with how often a trait was clicked; when any
// boost lands, its specific reasons replace the generic base reason.
func boostCandidates(candidates []candidate, history []string, seedMeta catalog.ImageMetadata, byID map[string]catalog.ImageMetadata) {
	if len(history) == 0 {
		return
	}

	tagCounts := map[string]int{}
	colorCounts := map[string]int{}
	garmentCounts := map[string]int{}
	for _, id := range history {
		m, ok := byID[id]
		if !ok {
			continue
		}
		for _, t := range m.StyleTags {
			tagCounts[t]++
		}
		for _, c := range m.DominantColors {
			colorCounts[c]++
		}
		if m.GarmentType != "" {
			garmentCounts[m.GarmentType]++
		}
	}

	for i := range candidates {
		m, ok := byID[candidates[i].imageID]
		if !ok {
			continue
		}

		var boosts []string
		for _, t := range m.StyleTags {
			if n := tagCounts[t]; n > 0 {
				candidates[i].score += styleTagBoost * float64(n)
				boosts = append(boosts,
					fmt.Sprintf("You previously liked items with similar '%s' style.", t))
			}
		}
		for _, c := range m.DominantColors {
			if n := colorCounts[c]; n > 0 {
				candidates[i].score += colorBoost * float64(n)
				boosts = append(boosts,
					fmt.Sprintf("You previously liked items with similar '%s' color.", c))
			}
		}
		if m.GarmentType != "" && garmentCounts[m.GarmentType] > 0 && m.GarmentType != seedMeta.GarmentType {
			candidates[i].score += garmentTypeBoost
			boosts = append(boosts,
				fmt.Sprintf("You previously liked '%s' type items.", m.GarmentType))
		}

		if len(boosts) > 0 {
			candidates[i].reasons = sortedUnique(boosts)
		}
	}
}

func candidateIDs(cs []candidate) []string {
	ids := make([]string, len(cs))
	for i, c := range cs {
		ids[i] = c.imageID
	}
	return ids
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func sortedUnique(ss []string) []string {
	out := dedupe(ss)
	sort.Strings(out)
	return out
}
