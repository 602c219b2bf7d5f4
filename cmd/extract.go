package cmd

import (
	"github.com/spf13/cobra"

	"github.com/user/gosec-auditlog/pkg/batch"
	"github.com/user/gosec-auditlog/pkg/config"
	"github.com/user/gosec-auditlog/pkg/engine"
	"github.com/user/gosec-auditlog/pkg/logger"
	"github.com/user/gosec-auditlog/pkg/table"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Convert an audit log file or a directory of logs into CSV reports",
	Example: `  gosec-auditlog extract --source /var/log/lynis.log --output_dir ./reports
  gosec-auditlog extract --source ./logs --output_dir ./reports --schema extended --workers 4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")
		outputDir, _ := cmd.Flags().GetString("output_dir")

		opts, err := batchOptions(appConfig, source, outputDir)
		if err != nil {
			return err
		}
		printer := batch.NewPrinter(cmd.OutOrStdout())
		opts.OnResult = printer.File

		// Per-document failures are printed, not returned: only an aborted
		// run makes the command fail.
		sum, err := batch.Run(cmd.Context(), opts)
		if err != nil {
			return err
		}
		return printer.Summary(sum)
	},
}

func init() {
	addSourceFlags(extractCmd)
	extractCmd.Flags().Int("workers", 1, "Documents processed in parallel")
	rootCmd.AddCommand(extractCmd)
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("source", "s", "", "Input log file or directory")
	cmd.Flags().StringP("output_dir", "o", "", "Output directory for CSV reports")
	cmd.Flags().String("schema", "basic", "Output schema: basic|extended")
	cmd.Flags().Int("max-field-length", engine.DefaultMaxFieldLength, "Maximum characters per CSV cell")
	cmd.Flags().String("machine-id", engine.DefaultMachineID, "Machine identifier stamped on every record")
	cmd.Flags().String("extensions", ".txt,.log,.dat", "File extensions selected from a source directory")
	cmd.Flags().Bool("bom", false, "Prefix CSV files with a UTF-8 byte order mark")
	cmd.Flags().String("templates-dir", "", "Directory of YAML remediation templates")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("output_dir")
}

// batchOptions turns the effective configuration into batch options.
func batchOptions(cfg *config.Config, source, outputDir string) (batch.Options, error) {
	schema, err := engine.ParseSchema(cfg.Extraction.Schema)
	if err != nil {
		return batch.Options{}, err
	}

	remediation := engine.NewRemediations()
	if dir := cfg.Extraction.TemplatesDir; dir != "" {
		if err := remediation.LoadTemplates(dir); err != nil {
			logger.Warnf("Failed to load remediation templates: %v", err)
		}
	}

	return batch.Options{
		Source:     source,
		OutputDir:  outputDir,
		Extensions: cfg.Extraction.Extensions,
		Workers:    cfg.Extraction.Workers,
		Engine: engine.Options{
			Schema:         schema,
			MaxFieldLength: cfg.Extraction.MaxFieldLength,
			MachineID:      cfg.Extraction.MachineID,
			Remediation:    remediation,
		},
		Table: table.Options{
			Schema:         schema,
			MaxFieldLength: cfg.Extraction.MaxFieldLength,
			BOM:            cfg.Extraction.BOM,
		},
	}, nil
}
