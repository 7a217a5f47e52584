// Package simulate writes synthetic browsing sessions into the
// user_interactions log. Users mostly follow the enriched navigation paths and
// occasionally skip to a random image, which is the behavior the recommender
// later mines.
package simulate

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"fashionetl/internal/catalog"
	"fashionetl/internal/config"
	"fashionetl/internal/logging"
	"fashionetl/internal/storage"
)

// Session behavior constants. Probabilities mirror real click-through shapes:
// most users follow suggestions, clicks on suggested items are likelier than
// clicks on random skips.
const (
	minSessionLength = 3
	maxSessionLength = 7

	followPathChance = 0.85
	pathClickChance  = 0.70
	skipClickChance  = 0.50
)

// Options tune the simulation. Values come from the simulate.options bag.
type Options struct {
	// Users is how many synthetic users to run sessions for; IDs are
	// user001..userNNN.
	Users int
}

// OptionsFrom reads the simulate option bag, falling back to the stock values.
func OptionsFrom(o config.Options) Options {
	return Options{Users: o.Int("users", 15)}
}

// nowFn is a test seam for interaction timestamps.
var nowFn = time.Now

// Run simulates one session per user and appends the interactions, one batch
// per user.
func Run(ctx context.Context, store storage.Store, log *logging.Logger, r *rand.Rand, opts Options) error {
	ids, err := store.ListImageIDs(ctx)
	if err != nil {
		return fmt.Errorf("simulate: fetch image ids: %w", err)
	}
	if len(ids) == 0 {
		return fmt.Errorf("simulate: no image metadata found; run the etl stage first")
	}

	paths, err := loadPaths(ctx, store)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		log.Warn("no navigation paths found, sessions will be mostly random skips")
	}

	total := 0
	for u := 1; u <= opts.Users; u++ {
		userID := fmt.Sprintf("user%03d", u)
		session := runSession(userID, ids, paths, r)
		if err := store.AppendInteractions(ctx, session); err != nil {
			return fmt.Errorf("simulate: append interactions for %s: %w", userID, err)
		}
		total += len(session)
		log.Debug("session recorded", "user", userID, "interactions", len(session))
	}

	log.Info("simulation complete", "users", opts.Users, "interactions", total)
	return nil
}

// loadPaths indexes the navigation graph by source image, keeping only
// non-empty paths.
func loadPaths(ctx context.Context, store storage.Store) (map[string][]string, error) {
	all, err := store.ListNavigationPaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("simulate: fetch navigation paths: %w", err)
	}
	paths := make(map[string][]string, len(all))
	for _, p := range all {
		if len(p.NextImages) > 0 {
			paths[p.SourceImageID] = p.NextImages
		}
	}
	return paths, nil
}

// runSession walks one user through the graph. The entry point is a random
// image and always counts as a click; each following step either takes a
// suggested image from the current path or skips to a random one.
func runSession(userID string, ids []string, paths map[string][]string, r *rand.Rand) []catalog.Interaction {
	length := minSessionLength + r.Intn(maxSessionLength-minSessionLength+1)
	session := make([]catalog.Interaction, 0, length)

	record := func(imageID string, clicked bool) {
		session = append(session, catalog.Interaction{
			UserID:    userID,
			ImageID:   imageID,
			Clicked:   clicked,
			Timestamp: nowFn().UTC(),
		})
	}

	current := ids[r.Intn(len(ids))]
	record(current, true)

	for step := 1; step < length; step++ {
		next, hasPath := paths[current]
		if r.Float64() < followPathChance && hasPath {
			viewed := next[r.Intn(len(next))]
			clicked := r.Float64() < pathClickChance
			record(viewed, clicked)
			if clicked {
				current = viewed
			} else {
				// Bounce to a fresh random image so the session keeps moving.
				current = ids[r.Intn(len(ids))]
			}
			continue
		}
		current = ids[r.Intn(len(ids))]
		record(current, r.Float64() < skipClickChance)
	}
	return session
}
