// Package config provides the config parent command and subcommands.
package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/perimeterlabs/graphgate/internal/config"
)

// ConfigCmd is the parent command for all config-related subcommands.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage graphgate configuration",
	Long: "Manage graphgate configuration.\n\n" +
		"The config command allows you to view, validate, and initialize the " +
		"graphgate configuration. Configuration is stored in a YAML file located " +
		"at ~/.config/graphgate/config.yaml by default.",
}

func init() {
	ConfigCmd.AddCommand(showCmd)
	ConfigCmd.AddCommand(validateCmd)
	ConfigCmd.AddCommand(initCmd)
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: "Display the effective configuration.\n\n" +
		"Shows the configuration after merging defaults, the config file, and " +
		"environment variable overrides. Secrets resolved from the environment " +
		"are not printed.",
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config; %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: "Validate the configuration.\n\n" +
		"Loads the configuration and runs all validation checks, reporting " +
		"every problem found rather than stopping at the first.",
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if _, err := config.Load(); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
	return nil
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: "Write a default configuration file.\n\n" +
		"Creates ~/.config/graphgate/config.yaml populated with defaults. " +
		"Refuses to overwrite an existing file.",
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if config.ConfigExists() {
		return fmt.Errorf("config file already exists at %s", config.DefaultConfigPath())
	}

	cfg := config.NewDefaultConfig()
	if err := config.WriteDefault(&cfg); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", config.DefaultConfigPath())
	return nil
}
