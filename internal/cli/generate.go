package cli

import (
	"context"

	"github.com/spf13/cobra"

	"fashionetl/internal/imagegen"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the synthetic image corpus",
	Long: `Generate writes images.count synthetic 23x23 JPEG images (img_001.jpg
onward) into images.dir. Each image is a solid background with one colored
shape; images.seed makes the output reproducible.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStage("generate", runGenerate)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(_ context.Context, rc *runContext) error {
	paths, err := imagegen.Generate(imagegen.Options{
		Dir:   rc.spec.Images.Dir,
		Count: rc.spec.Images.Count,
		Seed:  rc.spec.Images.Seed,
	})
	if err != nil {
		return err
	}
	rc.log.Info("images generated", "dir", rc.spec.Images.Dir, "count", len(paths))
	return nil
}
