package models

import (
	"errors"
	"testing"
	"time"

	interrors "github.com/streed/notevault/internal/errors"
)

func TestInsertVersionAndGetLatest(t *testing.T) {
	repo := NewNoteRepository(setupTestDB(t))
	note, _ := repo.Create("note")

	v1 := &Version{NoteID: note.ID, Content: "first", Label: "autosave"}
	if err := repo.InsertVersion(v1); err != nil {
		t.Fatalf("Failed to insert version: %v", err)
	}
	if v1.ID == 0 {
		t.Error("Version should have an assigned ID")
	}
	if v1.CreatedAt.IsZero() {
		t.Error("Version timestamp should be set on insert")
	}

	v2 := &Version{NoteID: note.ID, Content: "second"}
	if err := repo.InsertVersion(v2); err != nil {
		t.Fatalf("Failed to insert version: %v", err)
	}

	latest, err := repo.GetLatestVersionForNote(note.ID)
	if err != nil {
		t.Fatalf("Failed to get latest version: %v", err)
	}
	if latest.ID != v2.ID {
		t.Errorf("Expected latest version %d, got %d", v2.ID, latest.ID)
	}
	if latest.Content != "second" {
		t.Errorf("Expected latest content 'second', got %q", latest.Content)
	}
}

func TestGetLatestVersionForNote_None(t *testing.T) {
	repo := NewNoteRepository(setupTestDB(t))
	note, _ := repo.Create("note")

	_, err := repo.GetLatestVersionForNote(note.ID)
	if !errors.Is(err, interrors.ErrVersionNotFound) {
		t.Errorf("Expected ErrVersionNotFound, got %v", err)
	}
}

func TestGetVersionsForNoteOrdering(t *testing.T) {
	repo := NewNoteRepository(setupTestDB(t))
	note, _ := repo.Create("note")

	// Identical timestamps; insertion order must break the tie.
	at := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		v := &Version{NoteID: note.ID, Content: "v", CreatedAt: at}
		if err := repo.InsertVersion(v); err != nil {
			t.Fatalf("Failed to insert version: %v", err)
		}
	}

	versions, err := repo.GetVersionsForNote(note.ID)
	if err != nil {
		t.Fatalf("Failed to list versions: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("Expected 3 versions, got %d", len(versions))
	}
	for i := 1; i < len(versions); i++ {
		if versions[i-1].ID < versions[i].ID {
			t.Error("Versions with equal timestamps should order newest insert first")
		}
	}
}

func TestDeleteVersions(t *testing.T) {
	repo := NewNoteRepository(setupTestDB(t))
	note, _ := repo.Create("note")

	var ids []int
	for i := 0; i < 3; i++ {
		v := &Version{NoteID: note.ID, Content: "v"}
		if err := repo.InsertVersion(v); err != nil {
			t.Fatalf("Failed to insert version: %v", err)
		}
		ids = append(ids, v.ID)
	}

	deleted, err := repo.DeleteVersions(ids[:2])
	if err != nil {
		t.Fatalf("Failed to delete versions: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted, got %d", deleted)
	}

	deleted, err = repo.DeleteVersions([]int{9999})
	if err != nil {
		t.Fatalf("Failed to delete missing version: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Expected 0 deleted for missing id, got %d", deleted)
	}

	remaining, _ := repo.GetVersionsForNote(note.ID)
	if len(remaining) != 1 {
		t.Errorf("Expected 1 version remaining, got %d", len(remaining))
	}
}

func TestSetVersionProvenance(t *testing.T) {
	repo := NewNoteRepository(setupTestDB(t))
	note, _ := repo.Create("note")

	v := &Version{NoteID: note.ID, Content: "v"}
	if err := repo.InsertVersion(v); err != nil {
		t.Fatalf("Failed to insert version: %v", err)
	}

	if err := repo.SetVersionProvenance(v.ID, "summarizer", 1250*time.Millisecond); err != nil {
		t.Fatalf("Failed to set provenance: %v", err)
	}

	got, err := repo.GetVersion(v.ID)
	if err != nil {
		t.Fatalf("Failed to get version: %v", err)
	}
	if got.Tool != "summarizer" {
		t.Errorf("Expected tool 'summarizer', got %q", got.Tool)
	}
	if got.ToolDurationMs != 1250 {
		t.Errorf("Expected duration 1250ms, got %d", got.ToolDurationMs)
	}

	err = repo.SetVersionProvenance(9999, "tool", time.Second)
	if !errors.Is(err, interrors.ErrVersionNotFound) {
		t.Errorf("Expected ErrVersionNotFound, got %v", err)
	}
}

func TestInsertVersionsBatch(t *testing.T) {
	repo := NewNoteRepository(setupTestDB(t))
	note, _ := repo.Create("note")

	versions := []*Version{
		{NoteID: note.ID, Content: "v1", Kind: VersionRegular},
		{NoteID: note.ID, Content: "v2", Kind: VersionPinned, Label: "imported"},
	}
	if err := repo.InsertVersionsBatch(versions); err != nil {
		t.Fatalf("Failed to import versions: %v", err)
	}

	for _, v := range versions {
		if v.ID == 0 {
			t.Error("Imported version should have an assigned ID")
		}
	}

	got, _ := repo.GetVersionsForNote(note.ID)
	if len(got) != 2 {
		t.Errorf("Expected 2 versions, got %d", len(got))
	}
}
