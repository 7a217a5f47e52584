package cli

import (
	"context"

	"github.com/spf13/cobra"

	"fashionetl/internal/pipeline"
)

var etlCmd = &cobra.Command{
	Use:   "etl",
	Short: "Tag images and load their metadata",
	Long: `Etl scans images.dir (or reads images.manifest), tags each image with
colors, garment type, style tags, and gender, and upserts one row per image
into image_metadata. Tagging fans out across runtime.tag_workers; rows are
written by a single loader in runtime.batch_size batches.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStage("etl", runETL)
	},
}

func init() {
	rootCmd.AddCommand(etlCmd)
}

func runETL(ctx context.Context, rc *runContext) error {
	_, err := pipeline.Run(ctx, rc.spec, rc.log)
	return err
}
