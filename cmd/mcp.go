package cmd

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/streed/notevault/internal/logger"
	"github.com/streed/notevault/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for LLM integration",
	Long: `Start a Model Context Protocol (MCP) server that allows LLMs to
interact with your notes.

Tools:
- add_note: Create new notes
- search_notes: Cached search with optional match context
- get_note: Retrieve a note by ID
- list_notes: List notes with pagination
- update_note: Modify a note (versioned automatically)
- delete_note: Trash or permanently delete a note
- restore_note: Restore a note from the trash
- list_versions: Inspect a note's version history
- create_version: Snapshot a note, optionally pinned
- transform_note: Apply a text transformation with provenance tracking

To use with Claude Desktop, add this to your claude_desktop_config.json:
{
  "mcpServers": {
    "notevault": {
      "command": "notevault",
      "args": ["mcp"]
    }
  }
}`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	logger.Info("Starting MCP server...")

	notesServer := mcp.NewNotesServer(appConfig, coordinator)
	mcpServer := notesServer.GetMCPServer()

	// Start server with stdio transport
	logger.Info("MCP server ready. Listening on stdio...")
	if err := server.ServeStdio(mcpServer); err != nil {
		if err.Error() != "EOF" {
			logger.Error("MCP server error: %v", err)
			return err
		}
	}

	logger.Info("MCP server shutting down")
	return nil
}
