package recommend

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"fashionetl/internal/catalog"
	"fashionetl/internal/logging"
	"fashionetl/internal/storage"
)

// fakeStore serves a canned navigation graph and interaction history.
type fakeStore struct {
	storage.Store
	lastClicked map[string]string
	history     map[string][]string
	paths       map[string]catalog.NavigationPath
	metadata    map[string]catalog.ImageMetadata
	randomID    string
	appended    []catalog.Recommendation
}

func (f *fakeStore) LastClickedImages(_ context.Context, userIDs []string) (map[string]string, error) {
	out := map[string]string{}
	for _, u := range userIDs {
		if id, ok := f.lastClicked[u]; ok {
			out[u] = id
		}
	}
	return out, nil
}

func (f *fakeStore) ClickedHistory(_ context.Context, userID string) ([]string, error) {
	return f.history[userID], nil
}

func (f *fakeStore) NavigationPath(_ context.Context, sourceImageID string) ([]string, []float64, error) {
	p, ok := f.paths[sourceImageID]
	if !ok {
		return nil, nil, nil
	}
	return p.NextImages, p.Scores, nil
}

func (f *fakeStore) ImageMetadataByIDs(_ context.Context, ids []string) (map[string]catalog.ImageMetadata, error) {
	out := map[string]catalog.ImageMetadata{}
	for _, id := range ids {
		if m, ok := f.metadata[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func (f *fakeStore) RandomImageID(context.Context) (string, error) { return f.randomID, nil }

func (f *fakeStore) AppendRecommendations(_ context.Context, recs []catalog.Recommendation) error {
	f.appended = append(f.appended, recs...)
	return nil
}

func meta(id, garment string, colors []string, tags ...string) catalog.ImageMetadata {
	return catalog.ImageMetadata{
		ImageID:        id,
		FilePath:       "/img/" + id,
		GarmentType:    garment,
		DominantColors: colors,
		StyleTags:      tags,
	}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lastClicked: map[string]string{},
		history:     map[string][]string{},
		paths:       map[string]catalog.NavigationPath{},
		metadata: map[string]catalog.ImageMetadata{
			"img_001.jpg": meta("img_001.jpg", "dress", []string{"(1,1,1)"}, "dress", "sandy", "warm"),
			"img_002.jpg": meta("img_002.jpg", "hat", []string{"(2,2,2)"}, "hat", "sandy", "warm"),
			"img_003.jpg": meta("img_003.jpg", "skirt", []string{"(1,1,1)"}, "skirt", "crisp", "calm"),
			"img_004.jpg": meta("img_004.jpg", "dress", []string{"(4,4,4)"}, "dress", "fresh", "botanical"),
			"img_005.jpg": meta("img_005.jpg", "hat", []string{"(2,2,2)"}, "hat", "sandy", "golden"),
		},
	}
}

// TestForUserFiltersSeedAndHistory checks the seed image and already-clicked
// images never come back as recommendations.
func TestForUserFiltersSeedAndHistory(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fs.history["user001"] = []string{"img_003.jpg"}
	fs.paths["img_001.jpg"] = catalog.NavigationPath{
		SourceImageID: "img_001.jpg",
		NextImages:    []string{"img_001.jpg", "img_003.jpg", "img_002.jpg"},
		Scores:        []float64{0.9, 0.8, 0.3},
	}

	rec, err := forUser(context.Background(), fs, "user001", "img_001.jpg", 3)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, []string{"img_002.jpg"}, rec.Recommended)
	require.False(t, rec.GeneratedAt.IsZero(), "generated_at not stamped")
	require.NoError(t, rec.Validate())
}

// TestForUserNoHistoryKeepsBaseReason checks the generic reason survives when
// there is nothing to boost from.
func TestForUserNoHistoryKeepsBaseReason(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fs.paths["img_001.jpg"] = catalog.NavigationPath{
		SourceImageID: "img_001.jpg",
		NextImages:    []string{"img_002.jpg"},
		Scores:        []float64{0.4},
	}

	rec, err := forUser(context.Background(), fs, "user001", "img_001.jpg", 3)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, []string{baseReason}, rec.Reasoning)
}

// TestForUserBoostsFromHistory checks history-driven boosts reorder the path
// and replace the base reason with sorted, deduplicated specifics.
func TestForUserBoostsFromHistory(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	// User clicked img_005 twice: tastes run to "hat", "sandy", "(2,2,2)".
	fs.history["user001"] = []string{"img_005.jpg", "img_005.jpg"}
	fs.paths["img_001.jpg"] = catalog.NavigationPath{
		SourceImageID: "img_001.jpg",
		NextImages:    []string{"img_004.jpg", "img_002.jpg"},
		Scores:        []float64{0.5, 0.45},
	}

	rec, err := forUser(context.Background(), fs, "user001", "img_001.jpg", 3)
	require.NoError(t, err)
	require.NotNil(t, rec)

	// img_002 (hat, sandy, (2,2,2)): 0.45 + 0.1*2 (hat tag) + 0.1*2 (sandy)
	// + 0.05*2 (color) + 0.2 (garment, differs from seed) = 1.15 > img_004.
	require.Equal(t, "img_002.jpg", rec.Recommended[0])

	require.NotContains(t, rec.Reasoning[0], "complements your current selection")
	require.True(t, sort.StringsAreSorted(strings.Split(rec.Reasoning[0], ". ")))
	require.Contains(t, rec.Reasoning[0], "'hat' type items")
	require.Contains(t, rec.Reasoning[0], "'(2,2,2)' color")

	// img_004 (dress): same garment as the seed, so no garment boost and only
	// the base reason.
	require.Equal(t, "img_004.jpg", rec.Recommended[1])
	require.Equal(t, baseReason, rec.Reasoning[1])
}

// TestForUserTopN checks the result is capped and ordered by score.
func TestForUserTopN(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fs.paths["img_001.jpg"] = catalog.NavigationPath{
		SourceImageID: "img_001.jpg",
		NextImages:    []string{"img_002.jpg", "img_003.jpg", "img_004.jpg", "img_005.jpg"},
		Scores:        []float64{0.2, 0.5, 0.4, 0.3},
	}

	rec, err := forUser(context.Background(), fs, "user001", "img_001.jpg", 3)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, []string{"img_003.jpg", "img_004.jpg", "img_005.jpg"}, rec.Recommended)
}

// TestRunFallsBackToRandomSeed checks a user with no clicks still gets
// recommendations, seeded from a random image.
func TestRunFallsBackToRandomSeed(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fs.randomID = "img_001.jpg"
	fs.paths["img_001.jpg"] = catalog.NavigationPath{
		SourceImageID: "img_001.jpg",
		NextImages:    []string{"img_002.jpg"},
		Scores:        []float64{0.4},
	}

	err := Run(context.Background(), fs, logging.NewNop(), Options{Users: []string{"user009"}, TopN: 3})
	require.NoError(t, err)
	require.Len(t, fs.appended, 1)
	require.Equal(t, "img_001.jpg", fs.appended[0].SourceImageID)
	require.Equal(t, "user009", fs.appended[0].UserID)
}

// TestRunSkipsUserWithoutPath checks a seed without a navigation path skips
// the user instead of failing the run.
func TestRunSkipsUserWithoutPath(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fs.lastClicked["user001"] = "img_004.jpg" // no path stored
	err := Run(context.Background(), fs, logging.NewNop(), Options{Users: []string{"user001"}, TopN: 3})
	require.NoError(t, err)
	require.Empty(t, fs.appended)
}
