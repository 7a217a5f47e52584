package cli

import (
	"context"

	"github.com/spf13/cobra"

	"fashionetl/internal/enrich"
	"fashionetl/internal/rng"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Derive navigation paths from stored metadata",
	Long: `Enrich scores every image pair by shared style tags, garment type,
and accessory complementarity, and upserts a ranked navigation path per image
into image_navigation_paths. Options under enrich.options: max_candidates,
threshold, variation_chance.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStage("enrich", runEnrich)
	},
}

func init() {
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(ctx context.Context, rc *runContext) error {
	store, err := openStore(ctx, rc.spec)
	if err != nil {
		return err
	}
	defer store.Close()

	r := rng.New(rng.Seed(rc.spec.Images.Seed), "enrich")
	return enrich.Run(ctx, store, rc.log, r, enrich.OptionsFrom(rc.spec.Enrich.Options))
}
