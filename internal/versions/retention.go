package versions

import (
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/streed/notevault/internal/constants"
	interrors "github.com/streed/notevault/internal/errors"
	"github.com/streed/notevault/internal/logger"
	"github.com/streed/notevault/internal/models"
)

// Store is the slice of the storage port the retention engine needs.
type Store interface {
	InsertVersion(v *models.Version) error
	GetVersionsForNote(noteID int) ([]*models.Version, error)
	GetLatestVersionForNote(noteID int) (*models.Version, error)
	GetVersion(id int) (*models.Version, error)
	DeleteVersions(ids []int) (int, error)
	SetVersionProvenance(id int, tool string, duration time.Duration) error
}

// latestEntry is the cached (timestamp, content) pair of a note's latest
// version. Strictly a shortcut: absence always means "ask storage", and
// any version write for the note drops the entry instead of updating it,
// keeping the invalidation rule uniform.
type latestEntry struct {
	createdAt time.Time
	content   string
}

// Engine decides when a note deserves a new snapshot and retires old ones.
// The decision is an O(1) length-delta heuristic against the latest
// version, served from a bounded lookup cache on the autosave hot path.
type Engine struct {
	store      Store
	keepLatest int
	latest     *lru.Cache[int, latestEntry]
}

// NewEngine builds a retention engine. Non-positive arguments fall back to
// the defaults (keep the latest 100 versions, 128 cached lookups).
func NewEngine(store Store, keepLatest, cacheSize int) *Engine {
	if keepLatest <= 0 {
		keepLatest = constants.DefaultKeepLatest
	}
	if cacheSize <= 0 {
		cacheSize = constants.VersionLookupCacheSize
	}

	latest, _ := lru.New[int, latestEntry](cacheSize)

	return &Engine{
		store:      store,
		keepLatest: keepLatest,
		latest:     latest,
	}
}

// ShouldCreateVersion reports whether the candidate content differs enough
// from the note's latest snapshot to warrant a new one. With no snapshot
// at all it returns true without populating the lookup cache, so a
// concurrent writer creating the first version is never judged against
// stale "no version" state. Otherwise the content length delta must exceed
// the threshold: a delta of exactly 140 is not enough, 141 is.
//
// The check operates purely on the candidate string passed in, so it is
// safe to call against content that has not been persisted yet.
func (e *Engine) ShouldCreateVersion(noteID int, candidate string) (bool, error) {
	if entry, ok := e.latest.Get(noteID); ok {
		return exceedsThreshold(candidate, entry.content), nil
	}

	v, err := e.store.GetLatestVersionForNote(noteID)
	if errors.Is(err, interrors.ErrVersionNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	e.latest.Add(noteID, latestEntry{createdAt: v.CreatedAt, content: v.Content})
	return exceedsThreshold(candidate, v.Content), nil
}

func exceedsThreshold(candidate, latest string) bool {
	delta := len(candidate) - len(latest)
	if delta < 0 {
		delta = -delta
	}
	return delta > constants.VersionLengthThreshold
}

// CreateVersion writes a new regular snapshot, drops the note's lookup
// cache entry and opportunistically cleans up retention.
func (e *Engine) CreateVersion(noteID int, content, label string) (*models.Version, error) {
	return e.create(noteID, content, label, models.VersionRegular, e.keepLatest)
}

// CreateVersionPinned writes a manually pinned snapshot, exempt from
// retention cleanup. The opportunistic cleanup runs with a ceiling one
// higher so the pin does not itself push an older version out of the
// retention window.
func (e *Engine) CreateVersionPinned(noteID int, content, label string) (*models.Version, error) {
	return e.create(noteID, content, label, models.VersionPinned, e.keepLatest+1)
}

func (e *Engine) create(noteID int, content, label string, kind models.VersionKind, keep int) (*models.Version, error) {
	v := &models.Version{
		NoteID:  noteID,
		Content: content,
		Kind:    kind,
		Label:   label,
	}
	if err := e.store.InsertVersion(v); err != nil {
		return nil, err
	}

	// The just-written version is now latest; drop any stale cached pair.
	e.latest.Remove(noteID)

	// Best effort: losing old versions is not catastrophic, but failing
	// the user's save on a cleanup error would be.
	if err := e.CleanupRetention(noteID, keep); err != nil {
		logger.Warn("Retention cleanup for note %d failed: %v", noteID, err)
	}

	return v, nil
}

// CleanupRetention keeps the `keep` most recent versions of the note and
// deletes everything older, except pinned versions, which survive
// regardless of age or count.
func (e *Engine) CleanupRetention(noteID, keep int) error {
	if keep <= 0 {
		keep = e.keepLatest
	}

	versions, err := e.store.GetVersionsForNote(noteID)
	if err != nil {
		return err
	}
	if len(versions) <= keep {
		return nil
	}

	var expired []int
	for _, v := range versions[keep:] {
		if !v.Pinned() {
			expired = append(expired, v.ID)
		}
	}
	if len(expired) == 0 {
		return nil
	}

	deleted, err := e.store.DeleteVersions(expired)
	if err != nil {
		return err
	}
	logger.Debug("Retention cleanup for note %d deleted %d versions", noteID, deleted)
	return nil
}

// DeleteVersion removes one snapshot and reports whether it existed. The
// caller must invalidate the lookup cache for the owning note afterwards:
// deleting the current latest version changes what "latest" means.
func (e *Engine) DeleteVersion(versionID int) (bool, error) {
	deleted, err := e.store.DeleteVersions([]int{versionID})
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}

// AttachProvenance records which text-transform tool produced a snapshot
// and how long it ran. Descriptive only; retention never looks at it.
func (e *Engine) AttachProvenance(versionID int, tool string, duration time.Duration) error {
	return e.store.SetVersionProvenance(versionID, tool, duration)
}

// Versions lists a note's snapshots, newest first.
func (e *Engine) Versions(noteID int) ([]*models.Version, error) {
	return e.store.GetVersionsForNote(noteID)
}

// Get returns one snapshot by id.
func (e *Engine) Get(versionID int) (*models.Version, error) {
	return e.store.GetVersion(versionID)
}

// Latest returns a note's newest snapshot, bypassing the lookup cache so
// callers always see the authoritative row.
func (e *Engine) Latest(noteID int) (*models.Version, error) {
	return e.store.GetLatestVersionForNote(noteID)
}

// InvalidateLookup drops the cached latest-version pair for one note.
func (e *Engine) InvalidateLookup(noteID int) {
	e.latest.Remove(noteID)
}

// InvalidateAllLookups clears the lookup cache.
func (e *Engine) InvalidateAllLookups() {
	e.latest.Purge()
}

// KeepLatest returns the configured retention window.
func (e *Engine) KeepLatest() int {
	return e.keepLatest
}
