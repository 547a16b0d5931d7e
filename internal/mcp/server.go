package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/streed/notevault/internal/config"
	"github.com/streed/notevault/internal/constants"
	"github.com/streed/notevault/internal/logger"
	"github.com/streed/notevault/internal/services"
)

type NotesServer struct {
	cfg       *config.Config
	coord     *services.Coordinator
	mcpServer *server.MCPServer
}

func NewNotesServer(cfg *config.Config, coord *services.Coordinator) *NotesServer {
	ns := &NotesServer{
		cfg:   cfg,
		coord: coord,
	}

	ns.mcpServer = server.NewMCPServer(
		"notevault",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	ns.registerTools()

	return ns
}

func (s *NotesServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *NotesServer) registerTools() {
	addNoteTool := mcp.NewTool("add_note",
		mcp.WithDescription("Add a new note. The title is derived from the first line of the content."),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The content of the note"),
		),
	)
	s.mcpServer.AddTool(addNoteTool, s.handleAddNote)

	searchTool := mcp.NewTool("search_notes",
		mcp.WithDescription("Search active notes by substring match over title and content. Optionally return highlighted excerpts with match positions."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query string"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default: 10)"),
		),
		mcp.WithBoolean("highlights",
			mcp.Description("Include highlighted excerpts and match positions (default: false)"),
		),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearchNotes)

	getNoteTool := mcp.NewTool("get_note",
		mcp.WithDescription("Get a specific note by ID"),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("The ID of the note to retrieve"),
		),
	)
	s.mcpServer.AddTool(getNoteTool, s.handleGetNote)

	listNotesTool := mcp.NewTool("list_notes",
		mcp.WithDescription("List active notes, most recently updated first"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of notes to return"),
		),
		mcp.WithNumber("offset",
			mcp.Description("Number of notes to skip"),
		),
	)
	s.mcpServer.AddTool(listNotesTool, s.handleListNotes)

	updateNoteTool := mcp.NewTool("update_note",
		mcp.WithDescription("Overwrite a note's content. The title is rederived from the first line."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("The ID of the note to update"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("New content for the note"),
		),
	)
	s.mcpServer.AddTool(updateNoteTool, s.handleUpdateNote)

	deleteNoteTool := mcp.NewTool("delete_note",
		mcp.WithDescription("Move a note to the trash, or delete it permanently"),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("The ID of the note to delete"),
		),
		mcp.WithBoolean("permanent",
			mcp.Description("Permanently delete the note, its content and versions (default: false)"),
		),
	)
	s.mcpServer.AddTool(deleteNoteTool, s.handleDeleteNote)

	restoreNoteTool := mcp.NewTool("restore_note",
		mcp.WithDescription("Restore a note from the trash"),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("The ID of the note to restore"),
		),
	)
	s.mcpServer.AddTool(restoreNoteTool, s.handleRestoreNote)

	listVersionsTool := mcp.NewTool("list_versions",
		mcp.WithDescription("List the version snapshots of a note, newest first"),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("The ID of the note"),
		),
	)
	s.mcpServer.AddTool(listVersionsTool, s.handleListVersions)

	createVersionTool := mcp.NewTool("create_version",
		mcp.WithDescription("Snapshot a note's current content as a version. Pinned versions are exempt from retention cleanup."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("The ID of the note"),
		),
		mcp.WithString("label",
			mcp.Description("Optional human label for the snapshot"),
		),
		mcp.WithBoolean("pinned",
			mcp.Description("Pin the snapshot so retention never deletes it (default: false)"),
		),
	)
	s.mcpServer.AddTool(createVersionTool, s.handleCreateVersion)

	transformNoteTool := mcp.NewTool("transform_note",
		mcp.WithDescription("Replace a note's content with transformed text, recording before/after version snapshots so the transformation is recoverable"),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("The ID of the note"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The transformed content"),
		),
		mcp.WithString("tool",
			mcp.Description("Name of the tool that produced the transformation"),
		),
	)
	s.mcpServer.AddTool(transformNoteTool, s.handleTransformNote)
}

func (s *NotesServer) handleAddNote(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: add_note")

	content, err := request.RequireString("content")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'content': %w", err)
	}

	note, err := s.coord.CreateNote(content)
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf("Note created with ID %d.\nTitle: %s", note.ID, note.Title)), nil
}

func (s *NotesServer) handleSearchNotes(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: search_notes")

	query, err := request.RequireString("query")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'query': %w", err)
	}

	limit := request.GetInt("limit", 10)
	highlights := request.GetBool("highlights", false)

	if highlights {
		results, err := s.coord.SearchNotesWithHighlights(query)
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}
		if len(results) > limit {
			results = results[:limit]
		}

		if len(results) == 0 {
			return mcp.NewToolResultText("No notes found matching your query."), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Found %d notes:\n\n", len(results))
		for i, result := range results {
			fmt.Fprintf(&b, "%d. [ID: %d] %s (%d matches)\n", i+1, result.Note.ID, result.Note.Title, result.MatchCount)
			excerpt := result.Excerpt.Text
			if result.Excerpt.TruncatedStart {
				excerpt = "..." + excerpt
			}
			if result.Excerpt.TruncatedEnd {
				excerpt += "..."
			}
			fmt.Fprintf(&b, "   %s\n\n", strings.ReplaceAll(excerpt, "\n", " "))
		}
		return mcp.NewToolResultText(b.String()), nil
	}

	notes, err := s.coord.SearchNotes(query)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if len(notes) > limit {
		notes = notes[:limit]
	}

	if len(notes) == 0 {
		return mcp.NewToolResultText("No notes found matching your query."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d notes:\n\n", len(notes))
	for i, note := range notes {
		fmt.Fprintf(&b, "%d. [ID: %d] %s\n   %s\n\n", i+1, note.ID, note.Title, truncateString(note.Content, constants.PreviewLength))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (s *NotesServer) handleGetNote(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: get_note")

	id, err := request.RequireInt("id")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'id': %w", err)
	}

	note, err := s.coord.GetNote(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	state := "active"
	if note.Deleted {
		state = "trashed"
	} else if note.Archived {
		state = "archived"
	}

	result := fmt.Sprintf("Note ID: %d\nTitle: %s\nState: %s\nFavorite: %t\nCreated: %s\nUpdated: %s\n\nContent:\n%s",
		note.ID, note.Title, state, note.Favorite,
		note.CreatedAt.Format("2006-01-02 15:04:05"),
		note.UpdatedAt.Format("2006-01-02 15:04:05"),
		note.Content)

	return mcp.NewToolResultText(result), nil
}

func (s *NotesServer) handleListNotes(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: list_notes")

	limit := request.GetInt("limit", 50)
	offset := request.GetInt("offset", 0)

	notes, err := s.coord.ListActiveNotes(limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	if len(notes) == 0 {
		return mcp.NewToolResultText("No notes found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Listing %d notes (offset: %d):\n\n", len(notes), offset)
	for i, note := range notes {
		marker := ""
		if note.Favorite {
			marker = " *"
		}
		fmt.Fprintf(&b, "%d. [ID: %d] %s%s (Updated: %s)\n",
			i+1+offset, note.ID, note.Title, marker,
			note.UpdatedAt.Format("2006-01-02"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (s *NotesServer) handleUpdateNote(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: update_note")

	id, err := request.RequireInt("id")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'id': %w", err)
	}
	content, err := request.RequireString("content")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'content': %w", err)
	}

	note, shouldVersion, err := s.coord.UpdateNoteWithVersionCheck(id, content)
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}

	if shouldVersion {
		if _, err := s.coord.Versions().CreateVersion(id, content, "mcp update"); err != nil {
			logger.Warn("Snapshot for note %d failed: %v", id, err)
		}
	}

	return mcp.NewToolResultText(fmt.Sprintf("Note %d updated successfully.\nTitle: %s", note.ID, note.Title)), nil
}

func (s *NotesServer) handleDeleteNote(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: delete_note")

	id, err := request.RequireInt("id")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'id': %w", err)
	}

	if request.GetBool("permanent", false) {
		if err := s.coord.DeleteNotePermanently(id); err != nil {
			return nil, fmt.Errorf("failed to delete note: %w", err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("Note %d permanently deleted.", id)), nil
	}

	if err := s.coord.TrashNote(id); err != nil {
		return nil, fmt.Errorf("failed to trash note: %w", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Note %d moved to trash.", id)), nil
}

func (s *NotesServer) handleRestoreNote(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: restore_note")

	id, err := request.RequireInt("id")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'id': %w", err)
	}

	if err := s.coord.RestoreNote(id); err != nil {
		return nil, fmt.Errorf("failed to restore note: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf("Note %d restored from trash.", id)), nil
}

func (s *NotesServer) handleListVersions(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: list_versions")

	id, err := request.RequireInt("id")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'id': %w", err)
	}

	versions, err := s.coord.Versions().Versions(id)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}

	if len(versions) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Note %d has no versions.", id)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Note %d has %d versions:\n\n", id, len(versions))
	for i, v := range versions {
		label := v.Label
		if label == "" {
			label = "(no label)"
		}
		fmt.Fprintf(&b, "%d. [ID: %d] %s, %s, %d chars, created %s\n",
			i+1, v.ID, label, v.Kind, len(v.Content),
			v.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (s *NotesServer) handleCreateVersion(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: create_version")

	id, err := request.RequireInt("id")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'id': %w", err)
	}
	label := request.GetString("label", "")
	pinned := request.GetBool("pinned", false)

	note, err := s.coord.GetNote(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	var versionID int
	if pinned {
		v, err := s.coord.Versions().CreateVersionPinned(id, note.Content, label)
		if err != nil {
			return nil, fmt.Errorf("failed to create version: %w", err)
		}
		versionID = v.ID
	} else {
		v, err := s.coord.Versions().CreateVersion(id, note.Content, label)
		if err != nil {
			return nil, fmt.Errorf("failed to create version: %w", err)
		}
		versionID = v.ID
	}

	return mcp.NewToolResultText(fmt.Sprintf("Version %d created for note %d.", versionID, id)), nil
}

func (s *NotesServer) handleTransformNote(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: transform_note")

	id, err := request.RequireInt("id")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'id': %w", err)
	}
	content, err := request.RequireString("content")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'content': %w", err)
	}
	tool := request.GetString("tool", "mcp")

	started := time.Now()
	note, err := s.coord.TransformNote(id, func(string) (string, error) {
		return content, nil
	}, tool)
	if err != nil {
		return nil, fmt.Errorf("failed to transform note: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf("Note %d transformed by %s in %s.\nTitle: %s",
		note.ID, tool, time.Since(started).Round(time.Millisecond), note.Title)), nil
}

func truncateString(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
