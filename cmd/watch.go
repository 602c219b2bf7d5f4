package cmd

import (
	"github.com/spf13/cobra"

	"github.com/user/gosec-auditlog/pkg/batch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a directory and convert logs as they are written",
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")
		outputDir, _ := cmd.Flags().GetString("output_dir")
		debounce, _ := cmd.Flags().GetDuration("debounce")

		opts, err := batchOptions(appConfig, source, outputDir)
		if err != nil {
			return err
		}
		printer := batch.NewPrinter(cmd.OutOrStdout())
		opts.OnResult = printer.File

		return batch.Watch(cmd.Context(), opts, debounce)
	},
}

func init() {
	addSourceFlags(watchCmd)
	watchCmd.Flags().Duration("debounce", batch.DefaultDebounce, "Quiet period before a changed file is processed")
	rootCmd.AddCommand(watchCmd)
}
