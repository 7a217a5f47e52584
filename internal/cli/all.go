package cli

import (
	"github.com/spf13/cobra"
)

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run the full pipeline",
	Long: `All runs generate, etl, enrich, simulate, and recommend in order,
stopping on the first failure. Equivalent to running the subcommands by hand
with the same config.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStages([]stage{
			{name: "generate", fn: runGenerate},
			{name: "etl", fn: runETL},
			{name: "enrich", fn: runEnrich},
			{name: "simulate", fn: runSimulate},
			{name: "recommend", fn: runRecommend},
		})
	},
}

func init() {
	rootCmd.AddCommand(allCmd)
}
