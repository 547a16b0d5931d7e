package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/streed/notevault/internal/config"
	"github.com/streed/notevault/internal/database"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize notevault configuration",
	Long: `Set up the notevault configuration and database.

This creates the configuration file and the note database. Run it once
before using any other command.

Examples:
  notevault init
  notevault init --data-dir ~/notes`,
	RunE: runInit,
}

var initDataDir string

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initDataDir, "data-dir", "", "Directory for the note database (default: ~/.local/share/notevault)")
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.InitializeConfig(initDataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	// Create the database and schema right away so the first command
	// after init does not have to.
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	configPath, _ := config.GetConfigPath()
	fmt.Printf("Configuration written to %s\n", configPath)
	fmt.Printf("Database created at %s\n", cfg.GetDatabasePath())
	fmt.Println("\nYou're all set. Try: notevault add -c \"My first note\"")
	return nil
}
