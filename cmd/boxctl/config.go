package main

import (
	"fmt"

	"github.com/open-edge-platform/boxctl/internal/config"
	"github.com/open-edge-platform/boxctl/internal/utils/logger"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// createConfigCommand creates the config subcommand
func createConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage the global boxctl configuration.

Available commands:
  init    Initialize a new configuration file with default values
  show    Print the effective configuration`,
	}

	configCmd.AddCommand(createConfigInitCommand())
	configCmd.AddCommand(createConfigShowCommand())

	return configCmd
}

// createConfigInitCommand creates the config init subcommand
func createConfigInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [config-file]",
		Short: "Initialize a new configuration file",
		Long: `Initialize a new configuration file with default values.

If no path is specified, the config will be created in the current directory as boxctl.yml

Examples:
  # Create config in current directory
  boxctl config init

  # Create config in the user's config directory
  boxctl config init ~/.config/boxctl/config.yml`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: executeConfigInit,
	}
}

// executeConfigInit handles the config init command logic
func executeConfigInit(cmd *cobra.Command, args []string) error {
	configPath := config.DefaultConfigName
	if len(args) > 0 {
		configPath = args[0]
	}

	defaultConfig := config.DefaultGlobalConfig()
	if err := defaultConfig.SaveGlobalConfigWithComments(configPath); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	fmt.Fprintf(out, "\nDefault configuration settings:\n")
	fmt.Fprintf(out, "  Cache Directory: %s\n", orDefault(defaultConfig.CacheDir, "$XDG_CACHE_HOME or ~/.cache"))
	fmt.Fprintf(out, "  Temp Directory: %s\n", orDefault(defaultConfig.TempDir, "system temp directory"))
	fmt.Fprintf(out, "  HTTP Timeout: %s\n", defaultConfig.HTTPTimeout)
	fmt.Fprintf(out, "  Log Level: %s\n", defaultConfig.Logging.Level)
	fmt.Fprintf(out, "\nEdit the configuration file to customize these settings.\n")
	return nil
}

func createConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Global()
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encoding configuration: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# source: %s\n", orDefault(actualConfigFile, "built-in defaults"))
			if dir, err := resolveCacheDir(); err == nil {
				fmt.Fprintf(out, "# resolved cache directory: %s\n", dir)
			}
			fmt.Fprintf(out, "# active log level: %s\n", logger.CurrentLevel())
			_, err = out.Write(data)
			return err
		},
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
