package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/gosec-auditlog/pkg/batch"
	"github.com/user/gosec-auditlog/pkg/engine"
	"github.com/user/gosec-auditlog/pkg/table"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare a CSV report with a baseline report",
	Example: `  gosec-auditlog diff --baseline reports/last_week_report.csv --current reports/lynis_report.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		baselinePath, _ := cmd.Flags().GetString("baseline")
		currentPath, _ := cmd.Flags().GetString("current")

		baseline, _, err := table.ReadFile(baselinePath)
		if err != nil {
			return fmt.Errorf("failed to load baseline %s: %w", baselinePath, err)
		}
		current, _, err := table.ReadFile(currentPath)
		if err != nil {
			return fmt.Errorf("failed to load report %s: %w", currentPath, err)
		}

		batch.NewPrinter(cmd.OutOrStdout()).Diff(baselinePath, engine.Compare(current, baseline))
		return nil
	},
}

func init() {
	diffCmd.Flags().StringP("baseline", "b", "", "Baseline CSV report")
	diffCmd.Flags().StringP("current", "c", "", "Current CSV report")
	_ = diffCmd.MarkFlagRequired("baseline")
	_ = diffCmd.MarkFlagRequired("current")
	rootCmd.AddCommand(diffCmd)
}
