package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"fashionetl/internal/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Verify the stored pipeline data",
	Long: `Audit checks the live database against the pipeline's structural
guarantees: idempotent schema application, metadata row count matching the
image directory, and positionally aligned array pairs in navigation paths and
recommendations. The command fails when any error-severity finding exists.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStage("audit", runAudit)
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAudit(ctx context.Context, rc *runContext) error {
	store, err := openStore(ctx, rc.spec)
	if err != nil {
		return err
	}
	defer store.Close()

	findings, err := audit.Run(ctx, store, rc.log, rc.spec.Images.Dir)
	if err != nil {
		return err
	}
	if audit.HasErrors(findings) {
		n := 0
		for _, f := range findings {
			if f.Severity == audit.SeverityError {
				n++
			}
		}
		return fmt.Errorf("audit found %d error finding(s)", n)
	}
	return nil
}
