package editor

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/streed/notevault/internal/database"
	"github.com/streed/notevault/internal/models"
	"github.com/streed/notevault/internal/search"
	"github.com/streed/notevault/internal/services"
	"github.com/streed/notevault/internal/versions"
)

func setupSessionTest(t *testing.T) (*services.Coordinator, int) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.InitSchema(db); err != nil {
		t.Fatalf("Failed to initialize schema: %v", err)
	}

	repo := models.NewNoteRepository(db)
	coord := services.NewCoordinator(
		repo,
		search.NewEngine(repo, 50),
		versions.NewEngine(repo, 100, 128),
	)

	note, err := coord.CreateNote("session note\ninitial body")
	if err != nil {
		t.Fatalf("Failed to create note: %v", err)
	}
	return coord, note.ID
}

func TestSessionSeedsFromStoredContent(t *testing.T) {
	coord, noteID := setupSessionTest(t)

	session, err := NewSession(coord, noteID, 50*time.Millisecond, time.Hour)
	if err != nil {
		t.Fatalf("Failed to open session: %v", err)
	}
	defer session.Close()

	if session.NoteID() != noteID {
		t.Errorf("Expected note id %d, got %d", noteID, session.NoteID())
	}
	if session.Content() != "session note\ninitial body" {
		t.Errorf("Session should seed from stored content, got %q", session.Content())
	}
}

func TestSessionMissingNote(t *testing.T) {
	coord, _ := setupSessionTest(t)

	if _, err := NewSession(coord, 9999, 0, 0); err == nil {
		t.Error("Expected error opening a session for a missing note")
	}
}

func TestSessionDebouncedSaveCoalesces(t *testing.T) {
	coord, noteID := setupSessionTest(t)

	session, err := NewSession(coord, noteID, 50*time.Millisecond, time.Hour)
	if err != nil {
		t.Fatalf("Failed to open session: %v", err)
	}
	defer session.Close()

	// A burst of edits inside the debounce window. Only the last one may
	// reach storage; an intermediate save landing afterwards would clobber
	// the final content.
	for i := 0; i < 5; i++ {
		session.SetContent(fmt.Sprintf("draft %d", i))
	}
	session.SetContent("final draft")

	time.Sleep(250 * time.Millisecond)

	note, err := coord.GetNote(noteID)
	if err != nil {
		t.Fatalf("Failed to get note: %v", err)
	}
	if note.Content != "final draft" {
		t.Errorf("Expected the last edit to win, got %q", note.Content)
	}
}

func TestSessionFlushPersistsImmediately(t *testing.T) {
	coord, noteID := setupSessionTest(t)

	session, err := NewSession(coord, noteID, time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("Failed to open session: %v", err)
	}
	defer session.Close()

	session.SetContent("flushed content")
	if err := session.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	note, err := coord.GetNote(noteID)
	if err != nil {
		t.Fatalf("Failed to get note: %v", err)
	}
	if note.Content != "flushed content" {
		t.Errorf("Flush should persist without waiting for the debounce, got %q", note.Content)
	}
}

func TestSessionCloseFlushesAndVersions(t *testing.T) {
	coord, noteID := setupSessionTest(t)

	session, err := NewSession(coord, noteID, time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("Failed to open session: %v", err)
	}

	edited := "session note\n" + strings.Repeat("new material ", 30)
	session.SetContent(edited)

	if err := session.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	note, err := coord.GetNote(noteID)
	if err != nil {
		t.Fatalf("Failed to get note: %v", err)
	}
	if note.Content != edited {
		t.Errorf("Close should flush unsaved edits, got %q", note.Content)
	}

	// The note had no versions, so the close check snapshots it.
	history, err := coord.Versions().Versions(noteID)
	if err != nil {
		t.Fatalf("Failed to list versions: %v", err)
	}
	if len(history) == 0 {
		t.Fatal("Close should create a session end version")
	}
	if history[0].Content != edited {
		t.Errorf("Version should hold the final content, got %q", history[0].Content)
	}
}

func TestSessionCloseWithoutEdits(t *testing.T) {
	coord, noteID := setupSessionTest(t)

	session, err := NewSession(coord, noteID, time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("Failed to open session: %v", err)
	}
	if err := session.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	note, _ := coord.GetNote(noteID)
	if note.Content != "session note\ninitial body" {
		t.Errorf("Untouched session must not rewrite content, got %q", note.Content)
	}
}
