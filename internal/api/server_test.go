package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/streed/notevault/internal/config"
	"github.com/streed/notevault/internal/database"
	"github.com/streed/notevault/internal/models"
	"github.com/streed/notevault/internal/search"
	"github.com/streed/notevault/internal/services"
	"github.com/streed/notevault/internal/versions"
)

func setupAPITest(t *testing.T) (*httptest.Server, *services.Coordinator) {
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

	apiServer := NewAPIServer(&config.Config{DataDirectory: t.TempDir()}, db, coord)
	ts := httptest.NewServer(apiServer.Handler())
	t.Cleanup(ts.Close)

	return ts, coord
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, APIResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var envelope APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp, envelope
}

func TestAPIHealth(t *testing.T) {
	ts, _ := setupAPITest(t)

	resp, envelope := doJSON(t, "GET", ts.URL+"/api/v1/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if !envelope.Success {
		t.Error("Expected success envelope")
	}
}

func TestAPICreateAndGetNote(t *testing.T) {
	ts, _ := setupAPITest(t)

	resp, envelope := doJSON(t, "POST", ts.URL+"/api/v1/notes", CreateNoteRequest{Content: "api note\nbody"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}

	data, _ := json.Marshal(envelope.Data)
	var note models.Note
	if err := json.Unmarshal(data, &note); err != nil {
		t.Fatalf("Failed to decode note: %v", err)
	}
	if note.Title != "api note" {
		t.Errorf("Expected derived title, got %q", note.Title)
	}

	resp, envelope = doJSON(t, "GET", fmt.Sprintf("%s/api/v1/notes/%d", ts.URL, note.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if !envelope.Success {
		t.Error("Expected success envelope")
	}
}

func TestAPICreateNoteRejectsEmpty(t *testing.T) {
	ts, _ := setupAPITest(t)

	resp, envelope := doJSON(t, "POST", ts.URL+"/api/v1/notes", CreateNoteRequest{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", resp.StatusCode)
	}
	if envelope.Success || envelope.Error == "" {
		t.Error("Expected error envelope")
	}
}

func TestAPIGetNoteNotFound(t *testing.T) {
	ts, _ := setupAPITest(t)

	resp, _ := doJSON(t, "GET", ts.URL+"/api/v1/notes/9999", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", resp.StatusCode)
	}
}

func TestAPIUpdateWithVersionCheck(t *testing.T) {
	ts, coord := setupAPITest(t)

	note, _ := coord.CreateNote("original")

	resp, envelope := doJSON(t, "PUT", fmt.Sprintf("%s/api/v1/notes/%d", ts.URL, note.ID),
		UpdateNoteRequest{Content: "updated content", VersionCheck: true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	payload, ok := envelope.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected object payload, got %T", envelope.Data)
	}
	should, ok := payload["should_version"].(bool)
	if !ok || !should {
		t.Error("First update with no versions should warrant one")
	}
}

func TestAPISearch(t *testing.T) {
	ts, coord := setupAPITest(t)

	coord.CreateNote("the quick brown fox")
	coord.CreateNote("unrelated entry")

	resp, envelope := doJSON(t, "POST", ts.URL+"/api/v1/notes/search", SearchRequest{Query: "quick"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	items, ok := envelope.Data.([]interface{})
	if !ok {
		t.Fatalf("Expected array payload, got %T", envelope.Data)
	}
	if len(items) != 1 {
		t.Errorf("Expected 1 result, got %d", len(items))
	}

	// Highlighted variant returns result objects with excerpts.
	resp, envelope = doJSON(t, "POST", ts.URL+"/api/v1/notes/search", SearchRequest{Query: "quick", Highlights: true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	items, ok = envelope.Data.([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("Expected 1 highlighted result, got %v", envelope.Data)
	}
	first, _ := items[0].(map[string]interface{})
	if _, ok := first["excerpt"]; !ok {
		t.Error("Highlighted result should carry an excerpt")
	}
}

func TestAPITrashAndRestoreFlow(t *testing.T) {
	ts, coord := setupAPITest(t)

	note, _ := coord.CreateNote("note to trash")

	resp, _ := doJSON(t, "DELETE", fmt.Sprintf("%s/api/v1/notes/%d", ts.URL, note.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	trash, _ := coord.ListTrashedNotes()
	if len(trash) != 1 {
		t.Fatalf("Expected 1 note in trash, got %d", len(trash))
	}

	resp, _ = doJSON(t, "POST", fmt.Sprintf("%s/api/v1/notes/%d/restore", ts.URL, note.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	active, _ := coord.ListActiveNotes(0, 0)
	if len(active) != 1 {
		t.Errorf("Expected 1 active note after restore, got %d", len(active))
	}
}

func TestAPIArchiveTrashedNote(t *testing.T) {
	ts, coord := setupAPITest(t)

	note, _ := coord.CreateNote("note")
	coord.TrashNote(note.ID)

	resp, envelope := doJSON(t, "POST", fmt.Sprintf("%s/api/v1/notes/%d/archive", ts.URL, note.ID), nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected 400 for archiving a trashed note, got %d", resp.StatusCode)
	}
	if envelope.Success {
		t.Error("Expected error envelope")
	}
}

func TestAPIVersionLifecycle(t *testing.T) {
	ts, coord := setupAPITest(t)

	note, _ := coord.CreateNote("versioned note")

	resp, envelope := doJSON(t, "POST", fmt.Sprintf("%s/api/v1/notes/%d/versions", ts.URL, note.ID),
		CreateVersionRequest{Label: "milestone", Pinned: true})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}

	data, _ := json.Marshal(envelope.Data)
	var version models.Version
	if err := json.Unmarshal(data, &version); err != nil {
		t.Fatalf("Failed to decode version: %v", err)
	}
	if !version.Pinned() {
		t.Error("Expected a pinned version")
	}

	resp, _ = doJSON(t, "PUT", fmt.Sprintf("%s/api/v1/versions/%d/provenance", ts.URL, version.ID),
		ProvenanceRequest{Tool: "formatter", DurationMs: 300})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	got, err := coord.Versions().Get(version.ID)
	if err != nil {
		t.Fatalf("Failed to get version: %v", err)
	}
	if got.Tool != "formatter" || got.ToolDurationMs != 300 {
		t.Errorf("Provenance not recorded: %+v", got)
	}

	resp, _ = doJSON(t, "DELETE", fmt.Sprintf("%s/api/v1/versions/%d", ts.URL, version.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, "GET", fmt.Sprintf("%s/api/v1/versions/%d", ts.URL, version.ID), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestAPIImportAndStats(t *testing.T) {
	ts, _ := setupAPITest(t)

	resp, _ := doJSON(t, "POST", ts.URL+"/api/v1/notes/import", ImportRequest{
		Notes: []*models.Note{
			{Content: "imported one"},
			{Content: "imported two", Deleted: true},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}

	resp, envelope := doJSON(t, "GET", ts.URL+"/api/v1/stats", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	stats, ok := envelope.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected object payload, got %T", envelope.Data)
	}
	if stats["total_notes"].(float64) != 2 {
		t.Errorf("Expected 2 total notes, got %v", stats["total_notes"])
	}
	if stats["trashed_notes"].(float64) != 1 {
		t.Errorf("Expected 1 trashed note, got %v", stats["trashed_notes"])
	}
}
