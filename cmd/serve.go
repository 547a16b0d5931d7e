package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/streed/notevault/internal/api"
	"github.com/streed/notevault/internal/logger"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server exposing notevault over REST endpoints:

- Notes CRUD, trash, archive and favorites
- Cached search with optional match highlighting
- Version history, pinning and retention
- Bulk import and statistics

Examples:
  notevault serve                             # Start on localhost:8080
  notevault serve --host 0.0.0.0 --port 3000  # All interfaces, port 3000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "Host to bind the server to")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to bind the server to")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger.Info("Initializing HTTP API server...")

	apiServer := api.NewAPIServer(appConfig, db.Conn(), coordinator)

	// Set up graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- apiServer.Start(serveHost, servePort)
	}()

	fmt.Printf("\nnotevault HTTP API server\n")
	fmt.Printf("Server URL: http://%s:%d\n", serveHost, servePort)
	fmt.Printf("Health:     http://%s:%d/api/v1/health\n", serveHost, servePort)
	fmt.Printf("Stats:      http://%s:%d/api/v1/stats\n", serveHost, servePort)
	fmt.Printf("\nExample calls:\n")
	fmt.Printf("   curl http://%s:%d/api/v1/notes\n", serveHost, servePort)
	fmt.Printf("   curl -X POST http://%s:%d/api/v1/notes/search -d '{\"query\":\"todo\"}'\n", serveHost, servePort)
	fmt.Printf("\nPress Ctrl+C to stop the server\n\n")

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		logger.Info("Received signal %v, shutting down gracefully...", sig)
		if err := apiServer.Stop(); err != nil {
			logger.Error("Error during server shutdown: %v", err)
			return err
		}
		logger.Info("Server stopped successfully")
		return nil
	case err := <-errChan:
		if err != nil {
			logger.Error("Server error: %v", err)
			return err
		}
		return nil
	}
}
