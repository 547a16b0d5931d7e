package services

import (
	"time"

	"github.com/streed/notevault/internal/constants"
	"github.com/streed/notevault/internal/models"
	"github.com/streed/notevault/internal/search"
	"github.com/streed/notevault/internal/versions"
)

// Coordinator is the single point every note state transition flows
// through. It sequences the storage write first and the cache
// invalidation second, so the search and version caches never hold a
// state the storage port does not also reflect.
type Coordinator struct {
	repo     *models.NoteRepository
	search   *search.Engine
	versions *versions.Engine
}

func NewCoordinator(repo *models.NoteRepository, searchEngine *search.Engine, versionEngine *versions.Engine) *Coordinator {
	return &Coordinator{
		repo:     repo,
		search:   searchEngine,
		versions: versionEngine,
	}
}

// Search returns the search engine facade.
func (c *Coordinator) Search() *search.Engine {
	return c.search
}

// Versions returns the version engine facade.
func (c *Coordinator) Versions() *versions.Engine {
	return c.versions
}

// Repository returns the underlying storage port, for read-only
// collaborators.
func (c *Coordinator) Repository() *models.NoteRepository {
	return c.repo
}

// CreateNote inserts a new note. A new note could match any cached query,
// so the whole search cache is cleared.
func (c *Coordinator) CreateNote(content string) (*models.Note, error) {
	note, err := c.repo.Create(content)
	if err != nil {
		return nil, err
	}
	c.search.InvalidateAll()
	return note, nil
}

// GetNote returns a note with its content.
func (c *Coordinator) GetNote(id int) (*models.Note, error) {
	return c.repo.GetByID(id)
}

// ListActiveNotes lists active notes, most recently updated first.
func (c *Coordinator) ListActiveNotes(limit, offset int) ([]*models.Note, error) {
	return c.repo.GetActiveNotes(limit, offset)
}

// ListTrashedNotes lists the trash.
func (c *Coordinator) ListTrashedNotes() ([]*models.Note, error) {
	return c.repo.GetTrashedNotes()
}

// ListArchivedNotes lists the archive.
func (c *Coordinator) ListArchivedNotes() ([]*models.Note, error) {
	return c.repo.GetArchivedNotes()
}

// UpdateNote overwrites a note's content and invalidates both caches for
// the note.
func (c *Coordinator) UpdateNote(id int, content string) (*models.Note, error) {
	note, err := c.repo.UpdateContent(id, content)
	if err != nil {
		return nil, err
	}
	c.invalidateNote(id)
	return note, nil
}

// UpdateNoteWithVersionCheck performs the storage update and, in the same
// call, reports whether a version snapshot is warranted, saving a
// redundant round trip during high-frequency autosave.
func (c *Coordinator) UpdateNoteWithVersionCheck(id int, content string) (*models.Note, bool, error) {
	note, err := c.repo.UpdateContent(id, content)
	if err != nil {
		return nil, false, err
	}
	c.invalidateNote(id)

	shouldVersion, err := c.versions.ShouldCreateVersion(id, content)
	if err != nil {
		return note, false, err
	}
	return note, shouldVersion, nil
}

// TrashNote soft-deletes a note.
func (c *Coordinator) TrashNote(id int) error {
	if err := c.repo.MoveToTrash(id); err != nil {
		return err
	}
	c.invalidateNote(id)
	return nil
}

// RestoreNote brings a note back from the trash.
func (c *Coordinator) RestoreNote(id int) error {
	if err := c.repo.RestoreFromTrash(id); err != nil {
		return err
	}
	c.invalidateNote(id)
	return nil
}

// DeleteNotePermanently purges a note, its content and all its versions.
func (c *Coordinator) DeleteNotePermanently(id int) error {
	if err := c.repo.Delete(id); err != nil {
		return err
	}
	c.invalidateNote(id)
	return nil
}

// TrashNotes soft-deletes a batch of notes with one storage write.
func (c *Coordinator) TrashNotes(ids []int) error {
	if err := c.repo.MoveToTrashMany(ids); err != nil {
		return err
	}
	c.invalidateBatch(ids)
	return nil
}

// RestoreNotes restores a batch of notes with one storage write.
func (c *Coordinator) RestoreNotes(ids []int) error {
	if err := c.repo.RestoreFromTrashMany(ids); err != nil {
		return err
	}
	c.invalidateBatch(ids)
	return nil
}

// DeleteNotesPermanently purges a batch of notes.
func (c *Coordinator) DeleteNotesPermanently(ids []int) error {
	if err := c.repo.DeleteMany(ids); err != nil {
		return err
	}
	c.invalidateBatch(ids)
	return nil
}

// SetFavorite flips the favorite flag. Result membership of cached
// searches is unaffected, but cached display data for the note is not,
// so only the search cache is invalidated.
func (c *Coordinator) SetFavorite(id int, favorite bool) error {
	if err := c.repo.SetFavorite(id, favorite); err != nil {
		return err
	}
	c.search.Invalidate(id)
	return nil
}

// ArchiveNote moves an active note to the archive.
func (c *Coordinator) ArchiveNote(id int) error {
	if err := c.repo.MoveToArchive(id); err != nil {
		return err
	}
	c.search.Invalidate(id)
	return nil
}

// UnarchiveNote moves a note from the archive back to the active state.
func (c *Coordinator) UnarchiveNote(id int) error {
	if err := c.repo.RestoreFromArchive(id); err != nil {
		return err
	}
	c.search.Invalidate(id)
	return nil
}

// DeleteVersion removes one snapshot and invalidates the owning note's
// latest-version lookup, since deleting the current latest changes what
// "latest" means.
func (c *Coordinator) DeleteVersion(versionID int) (bool, error) {
	v, err := c.versions.Get(versionID)
	if err != nil {
		return false, err
	}

	deleted, err := c.versions.DeleteVersion(versionID)
	if err != nil {
		return false, err
	}
	if deleted {
		c.versions.InvalidateLookup(v.NoteID)
	}
	return deleted, nil
}

// ImportNotes bulk-inserts notes, bypassing per-item invalidation in
// favor of one full clear at the end.
func (c *Coordinator) ImportNotes(notes []*models.Note) error {
	if err := c.repo.InsertBatch(notes); err != nil {
		return err
	}
	c.search.InvalidateAll()
	c.versions.InvalidateAllLookups()
	return nil
}

// ImportVersions bulk-inserts version snapshots. Search results are
// unaffected, but any cached "latest version" may now be stale.
func (c *Coordinator) ImportVersions(vs []*models.Version) error {
	if err := c.repo.InsertVersionsBatch(vs); err != nil {
		return err
	}
	c.versions.InvalidateAllLookups()
	return nil
}

// SearchNotes is the plain search facade.
func (c *Coordinator) SearchNotes(query string) ([]*models.Note, error) {
	return c.search.Search(query)
}

// SearchNotesWithHighlights is the highlighted search facade.
func (c *Coordinator) SearchNotesWithHighlights(query string) ([]search.Result, error) {
	return c.search.SearchWithHighlights(query)
}

// TransformNote records a version before and after an external text
// transformation, so the transformation is always recoverable, then
// persists the result. The tool name and duration are attached to the
// "after" snapshot as provenance.
func (c *Coordinator) TransformNote(id int, transform func(string) (string, error), tool string) (*models.Note, error) {
	note, err := c.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if _, err := c.versions.CreateVersion(id, note.Content, "before "+tool); err != nil {
		return nil, err
	}

	started := time.Now()
	transformed, err := transform(note.Content)
	if err != nil {
		return nil, err
	}

	updated, err := c.UpdateNote(id, transformed)
	if err != nil {
		return nil, err
	}

	after, err := c.versions.CreateVersion(id, transformed, "after "+tool)
	if err != nil {
		return nil, err
	}
	if err := c.versions.AttachProvenance(after.ID, tool, time.Since(started)); err != nil {
		return nil, err
	}

	return updated, nil
}

func (c *Coordinator) invalidateNote(id int) {
	c.search.Invalidate(id)
	c.versions.InvalidateLookup(id)
}

// invalidateBatch invalidates after a batched mutation. Above a small
// threshold, clearing the whole search cache is cheaper than N selective
// scans.
func (c *Coordinator) invalidateBatch(ids []int) {
	if len(ids) > constants.BatchInvalidationThreshold {
		c.search.InvalidateAll()
	} else {
		for _, id := range ids {
			c.search.Invalidate(id)
		}
	}
	for _, id := range ids {
		c.versions.InvalidateLookup(id)
	}
}
