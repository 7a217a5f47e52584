package cli

import (
	"context"

	"github.com/spf13/cobra"

	"fashionetl/internal/rng"
	"fashionetl/internal/simulate"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate browsing sessions",
	Long: `Simulate runs one 3-7 step browsing session per synthetic user
(user001 onward) and appends the click events to user_interactions. Sessions
mostly follow the enriched navigation paths, with occasional random skips.
Options under simulate.options: users.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStage("simulate", runSimulate)
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(ctx context.Context, rc *runContext) error {
	store, err := openStore(ctx, rc.spec)
	if err != nil {
		return err
	}
	defer store.Close()

	r := rng.New(rng.Seed(rc.spec.Images.Seed), "simulate")
	return simulate.Run(ctx, store, rc.log, r, simulate.OptionsFrom(rc.spec.Simulate.Options))
}
