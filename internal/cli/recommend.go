package cli

import (
	"context"

	"github.com/spf13/cobra"

	"fashionetl/internal/recommend"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Generate per-user recommendations",
	Long: `Recommend takes each target user's latest clicked image, re-ranks its
navigation path against the user's click history, and appends the top picks
with per-item reasoning to recommendations. Options under recommend.options:
users, top_n.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStage("recommend", runRecommend)
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(ctx context.Context, rc *runContext) error {
	store, err := openStore(ctx, rc.spec)
	if err != nil {
		return err
	}
	defer store.Close()

	return recommend.Run(ctx, store, rc.log, recommend.OptionsFrom(rc.spec.Recommend.Options))
}
