package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/streed/notevault/internal/config"
	"github.com/streed/notevault/internal/database"
	"github.com/streed/notevault/internal/logger"
	"github.com/streed/notevault/internal/models"
	"github.com/streed/notevault/internal/search"
	"github.com/streed/notevault/internal/services"
	"github.com/streed/notevault/internal/versions"
)

var (
	db            *database.DB
	noteRepo      *models.NoteRepository
	searchEngine  *search.Engine
	versionEngine *versions.Engine
	coordinator   *services.Coordinator
	appConfig     *config.Config
	debugFlag     bool
	Version       = "dev" // Version is set from main.go
)

var rootCmd = &cobra.Command{
	Use:     "notevault",
	Short:   "A personal note-taking tool with search caching and content versioning",
	Version: Version,
	Long: `notevault is a command-line interface for creating, managing and searching
notes. Every note keeps a version history with automatic retention, and
searches are served from a bounded result cache.

First time users should run 'notevault init' to set up the configuration.`,
}

func Execute() error {
	rootCmd.Version = Version
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initAppConfig)
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
}

func initAppConfig() {
	// Skip initialization for init and config commands
	if len(os.Args) > 1 && (os.Args[1] == "init" || os.Args[1] == "config") {
		return
	}

	var err error
	appConfig, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		fmt.Fprintf(os.Stderr, "Please run 'notevault init' to set up the configuration.\n")
		os.Exit(1)
	}

	// Enable debug mode from flag or config
	if debugFlag || appConfig.Debug {
		logger.SetDebugMode(true)
		logger.Debug("Configuration loaded from: %s", func() string {
			path, _ := config.GetConfigPath()
			return path
		}())
		logger.Debug("Data directory: %s", appConfig.DataDirectory)
		logger.Debug("Search cache size: %d", appConfig.SearchCacheSize)
		logger.Debug("Keep latest versions: %d", appConfig.KeepLatestVersions)
	}

	db, err = database.New(appConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing database: %v\n", err)
		os.Exit(1)
	}

	noteRepo = models.NewNoteRepository(db.Conn())
	searchEngine = search.NewEngine(noteRepo, appConfig.SearchCacheSize)
	versionEngine = versions.NewEngine(noteRepo, appConfig.KeepLatestVersions, appConfig.VersionLookupCacheSize)
	coordinator = services.NewCoordinator(noteRepo, searchEngine, versionEngine)
}
