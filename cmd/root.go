package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/user/gosec-auditlog/pkg/config"
	"github.com/user/gosec-auditlog/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "gosec-auditlog",
	Short: "Convert system audit logs into vulnerability tables",
	Long: `gosec-auditlog reads system-audit tool output (Lynis logs and report
files) and turns every test section and single-line finding into a row of
a fixed-column CSV table ready for storage, deduplication and analysis.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	DebugMode  bool
	ConfigPath string

	// appConfig is loaded once per invocation in setup
	appConfig *config.Config
)

// flag name -> config key; bound on whichever command actually runs
var configFlags = map[string]string{
	"schema":           "extraction.schema",
	"max-field-length": "extraction.max_field_length",
	"machine-id":       "extraction.machine_id",
	"extensions":       "extraction.extensions",
	"workers":          "extraction.workers",
	"bom":              "extraction.bom",
	"templates-dir":    "extraction.templates_dir",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cobra.CheckErr(rootCmd.ExecuteContext(ctx))
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&DebugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&ConfigPath, "config", "", "Config file (default ~/.gosec-auditlog/config.yaml)")
}

// newViper returns a fresh instance per invocation so flag bindings of one
// command never leak into the next.
func newViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	// AUDITLOG_EXTRACTION_SCHEMA, AUDITLOG_LOG_LEVEL, ...
	v.SetEnvPrefix("AUDITLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for name, key := range configFlags {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}
	return v, nil
}

func setup(cmd *cobra.Command, args []string) error {
	v, err := newViper(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(ConfigPath)
	if err != nil {
		return err
	}
	applyOverrides(v, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	appConfig = cfg

	return logger.Init(cfg.Log, DebugMode)
}

// applyOverrides layers flags and environment variables over the file.
func applyOverrides(v *viper.Viper, cfg *config.Config) {
	if v.IsSet("extraction.schema") {
		cfg.Extraction.Schema = v.GetString("extraction.schema")
	}
	if v.IsSet("extraction.max_field_length") {
		cfg.Extraction.MaxFieldLength = v.GetInt("extraction.max_field_length")
	}
	if v.IsSet("extraction.machine_id") {
		cfg.Extraction.MachineID = v.GetString("extraction.machine_id")
	}
	if v.IsSet("extraction.extensions") {
		cfg.Extraction.Extensions = config.ParseExtensions(v.GetString("extraction.extensions"))
	}
	if v.IsSet("extraction.workers") {
		cfg.Extraction.Workers = v.GetInt("extraction.workers")
	}
	if v.IsSet("extraction.bom") {
		cfg.Extraction.BOM = v.GetBool("extraction.bom")
	}
	if v.IsSet("extraction.templates_dir") {
		cfg.Extraction.TemplatesDir = v.GetString("extraction.templates_dir")
	}
	if v.IsSet("log.level") {
		cfg.Log.Level = v.GetString("log.level")
	}
	if v.IsSet("log.format") {
		cfg.Log.Format = v.GetString("log.format")
	}
	if v.IsSet("log.output") {
		cfg.Log.Output = v.GetString("log.output")
	}
	if v.IsSet("log.file_path") {
		cfg.Log.FilePath = v.GetString("log.file_path")
	}
}
