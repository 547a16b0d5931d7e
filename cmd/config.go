package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/streed/notevault/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Get or set configuration values",
	Long: `Inspect or change notevault configuration.

Examples:
  notevault config list
  notevault config get search-cache-size
  notevault config set keep-latest-versions 200`,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration values",
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

var configKeys = []string{
	"data-directory",
	"database-path",
	"debug",
	"editor",
	"search-cache-size",
	"version-lookup-cache-size",
	"keep-latest-versions",
	"debounce-delay-ms",
	"version-check-interval-ms",
}

func runConfigList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	for _, key := range configKeys {
		value, err := cfg.Get(key)
		if err != nil {
			return err
		}
		fmt.Printf("%-28s %s\n", key, value)
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	value, err := cfg.Get(args[0])
	if err != nil {
		return err
	}
	fmt.Println(value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Set(args[0], args[1]); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Printf("%s = %s\n", args[0], args[1])
	return nil
}
