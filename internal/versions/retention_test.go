package versions

import (
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	interrors "github.com/streed/notevault/internal/errors"
	"github.com/streed/notevault/internal/models"
)

// fakeStore is an in-memory version store that counts latest-version
// lookups so tests can observe cache behavior.
type fakeStore struct {
	versions    map[int]*models.Version
	nextID      int
	clock       time.Time
	latestCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		versions: map[int]*models.Version{},
		nextID:   1,
		clock:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *fakeStore) InsertVersion(v *models.Version) error {
	v.ID = s.nextID
	s.nextID++
	if v.CreatedAt.IsZero() {
		s.clock = s.clock.Add(time.Second)
		v.CreatedAt = s.clock
	}
	stored := *v
	s.versions[v.ID] = &stored
	return nil
}

func (s *fakeStore) GetVersionsForNote(noteID int) ([]*models.Version, error) {
	var out []*models.Version
	for _, v := range s.versions {
		if v.NoteID == noteID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *fakeStore) GetLatestVersionForNote(noteID int) (*models.Version, error) {
	s.latestCalls++
	vs, _ := s.GetVersionsForNote(noteID)
	if len(vs) == 0 {
		return nil, interrors.ErrVersionNotFound
	}
	return vs[0], nil
}

func (s *fakeStore) GetVersion(id int) (*models.Version, error) {
	v, ok := s.versions[id]
	if !ok {
		return nil, interrors.ErrVersionNotFound
	}
	return v, nil
}

func (s *fakeStore) DeleteVersions(ids []int) (int, error) {
	deleted := 0
	for _, id := range ids {
		if _, ok := s.versions[id]; ok {
			delete(s.versions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *fakeStore) SetVersionProvenance(id int, tool string, duration time.Duration) error {
	v, ok := s.versions[id]
	if !ok {
		return interrors.ErrVersionNotFound
	}
	v.Tool = tool
	v.ToolDurationMs = duration.Milliseconds()
	return nil
}

func TestShouldCreateVersionNoHistory(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, 100, 16)

	should, err := engine.ShouldCreateVersion(1, "anything")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !should {
		t.Error("A note with no versions should always warrant one")
	}

	// The no-version answer must not be cached: the next check still asks
	// storage.
	if _, err := engine.ShouldCreateVersion(1, "anything"); err != nil {
		t.Fatalf("Second check failed: %v", err)
	}
	if store.latestCalls != 2 {
		t.Errorf("Expected 2 storage lookups, got %d", store.latestCalls)
	}
}

func TestShouldCreateVersionThresholdBoundary(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, 100, 16)

	base := strings.Repeat("a", 1000)
	if _, err := engine.CreateVersion(1, base, "seed"); err != nil {
		t.Fatalf("Failed to seed version: %v", err)
	}

	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{"unchanged", base, false},
		{"grown by threshold exactly", base + strings.Repeat("b", 140), false},
		{"grown past threshold", base + strings.Repeat("b", 141), true},
		{"shrunk past threshold", base[:1000-141], true},
		{"shrunk by threshold exactly", base[:1000-140], false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.ShouldCreateVersion(1, tt.candidate)
			if err != nil {
				t.Fatalf("Check failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldCreateVersion = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldCreateVersionUsesLookupCache(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, 100, 16)

	if _, err := engine.CreateVersion(1, "content", "seed"); err != nil {
		t.Fatalf("Failed to seed version: %v", err)
	}

	// First check after a create misses the cache and repopulates it.
	if _, err := engine.ShouldCreateVersion(1, "candidate"); err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	calls := store.latestCalls

	// Subsequent checks are answered from the cache.
	for i := 0; i < 5; i++ {
		if _, err := engine.ShouldCreateVersion(1, "candidate"); err != nil {
			t.Fatalf("Cached check failed: %v", err)
		}
	}
	if store.latestCalls != calls {
		t.Errorf("Cached checks must not hit storage, got %d extra lookups", store.latestCalls-calls)
	}
}

func TestCreateVersionInvalidatesLookup(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, 100, 16)

	engine.CreateVersion(1, "short", "first")
	engine.ShouldCreateVersion(1, "short") // populate the cache

	long := strings.Repeat("x", 500)
	if _, err := engine.CreateVersion(1, long, "second"); err != nil {
		t.Fatalf("Failed to create version: %v", err)
	}

	// The new latest is the long content, so the same long candidate no
	// longer warrants a version. A stale cache entry would say otherwise.
	should, err := engine.ShouldCreateVersion(1, long)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if should {
		t.Error("Check must compare against the new latest version")
	}
}

func TestCleanupRetentionKeepsNewest(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, 3, 16)

	for i := 0; i < 6; i++ {
		if _, err := engine.CreateVersion(1, strings.Repeat("x", i), "v"); err != nil {
			t.Fatalf("Failed to create version: %v", err)
		}
	}

	vs, _ := store.GetVersionsForNote(1)
	if len(vs) != 3 {
		t.Fatalf("Expected 3 versions after cleanup, got %d", len(vs))
	}
	// The survivors are the newest three.
	for i := 1; i < len(vs); i++ {
		if vs[i-1].CreatedAt.Before(vs[i].CreatedAt) {
			t.Error("Cleanup should keep the most recent versions")
		}
	}
}

func TestCleanupRetentionSparesPinned(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, 2, 16)

	pinned, err := engine.CreateVersionPinned(1, "pin me", "milestone")
	if err != nil {
		t.Fatalf("Failed to create pinned version: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := engine.CreateVersion(1, "regular", "v"); err != nil {
			t.Fatalf("Failed to create version: %v", err)
		}
	}

	if _, err := store.GetVersion(pinned.ID); err != nil {
		t.Error("Pinned version must survive retention cleanup")
	}

	vs, _ := store.GetVersionsForNote(1)
	regular := 0
	for _, v := range vs {
		if !v.Pinned() {
			regular++
		}
	}
	if regular != 2 {
		t.Errorf("Expected 2 regular versions to survive, got %d", regular)
	}
}

func TestCreateVersionPinnedDoesNotEvictOthers(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, 3, 16)

	for i := 0; i < 3; i++ {
		if _, err := engine.CreateVersion(1, "regular", "v"); err != nil {
			t.Fatalf("Failed to create version: %v", err)
		}
	}

	// Pinning at a full window must not push the oldest regular out.
	if _, err := engine.CreateVersionPinned(1, "pinned", "milestone"); err != nil {
		t.Fatalf("Failed to create pinned version: %v", err)
	}

	vs, _ := store.GetVersionsForNote(1)
	if len(vs) != 4 {
		t.Errorf("Expected all 4 versions to remain, got %d", len(vs))
	}
}

func TestDeleteVersion(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, 100, 16)

	v, _ := engine.CreateVersion(1, "content", "v")

	deleted, err := engine.DeleteVersion(v.ID)
	if err != nil {
		t.Fatalf("Failed to delete version: %v", err)
	}
	if !deleted {
		t.Error("Expected the version to be deleted")
	}

	deleted, err = engine.DeleteVersion(v.ID)
	if err != nil {
		t.Fatalf("Repeated delete failed: %v", err)
	}
	if deleted {
		t.Error("Deleting a missing version should report false")
	}
}

func TestAttachProvenance(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, 100, 16)

	v, _ := engine.CreateVersion(1, "content", "after cleanup")
	if err := engine.AttachProvenance(v.ID, "formatter", 2*time.Second); err != nil {
		t.Fatalf("Failed to attach provenance: %v", err)
	}

	got, err := engine.Get(v.ID)
	if err != nil {
		t.Fatalf("Failed to get version: %v", err)
	}
	if got.Tool != "formatter" || got.ToolDurationMs != 2000 {
		t.Errorf("Provenance not recorded: tool=%q duration=%d", got.Tool, got.ToolDurationMs)
	}
}

func TestLatest(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, 100, 16)

	engine.CreateVersion(1, "first", "v")
	engine.CreateVersion(1, "second", "v")

	latest, err := engine.Latest(1)
	if err != nil {
		t.Fatalf("Failed to get latest version: %v", err)
	}
	if latest.Content != "second" {
		t.Errorf("Expected latest content 'second', got %q", latest.Content)
	}

	if _, err := engine.Latest(2); !errors.Is(err, interrors.ErrVersionNotFound) {
		t.Errorf("Expected ErrVersionNotFound, got %v", err)
	}
}

func TestEngineDefaults(t *testing.T) {
	engine := NewEngine(newFakeStore(), 0, 0)
	if engine.KeepLatest() != 100 {
		t.Errorf("Expected default retention window of 100, got %d", engine.KeepLatest())
	}
}
