package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/user/gosec-auditlog/pkg/config"
	"github.com/user/gosec-auditlog/pkg/engine"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration (extraction defaults, logging)",
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(appConfig)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var setConfigCmd = &cobra.Command{
	Use:     "set <key> <value>",
	Short:   "Set a configuration value",
	Example: `  gosec-auditlog config set extraction.schema extended
  gosec-auditlog config set log.level debug`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load the file again so flag and environment overrides are not persisted.
		cfg, err := config.LoadConfig(ConfigPath)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.SaveConfig(cfg, ConfigPath); err != nil {
			return fmt.Errorf("error saving config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration updated: %s=%s\n", args[0], args[1])
		return nil
	},
}

var pathConfigCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ConfigPath
		if path == "" {
			p, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			path = p
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var templatesConfigCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the remediation templates in effect",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := engine.NewRemediations()
		if dir := appConfig.Extraction.TemplatesDir; dir != "" {
			if err := r.LoadTemplates(dir); err != nil {
				return fmt.Errorf("failed to load templates from %s: %w", dir, err)
			}
		}
		for _, t := range r.ListTemplates() {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(showConfigCmd)
	configCmd.AddCommand(setConfigCmd)
	configCmd.AddCommand(pathConfigCmd)
	configCmd.AddCommand(templatesConfigCmd)
	rootCmd.AddCommand(configCmd)
}
