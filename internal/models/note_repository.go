package models

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	interrors "github.com/streed/notevault/internal/errors"
)

// NoteRepository is the storage port: every read and write of note and
// version rows goes through it. Metadata and content live in separate
// tables, so writes that touch both run inside a transaction.
type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

const noteColumns = "id, title, favorite, archived, archived_at, deleted, deleted_at, created_at, updated_at"

func scanNote(row interface{ Scan(...interface{}) error }, withContent bool) (*Note, error) {
	var note Note
	var archivedAt, deletedAt sql.NullTime

	dest := []interface{}{
		&note.ID, &note.Title, &note.Favorite,
		&note.Archived, &archivedAt,
		&note.Deleted, &deletedAt,
		&note.CreatedAt, &note.UpdatedAt,
	}
	if withContent {
		dest = append(dest, &note.Content)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if archivedAt.Valid {
		note.ArchivedAt = &archivedAt.Time
	}
	if deletedAt.Valid {
		note.DeletedAt = &deletedAt.Time
	}
	return &note, nil
}

// Create inserts a new note with the given content. The title is derived
// from the first content line; metadata and content land atomically.
func (r *NoteRepository) Create(content string) (*Note, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	result, err := tx.Exec(
		"INSERT INTO notes (title, created_at, updated_at) VALUES (?, ?, ?)",
		TitleFromContent(content), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get insert id: %w", err)
	}

	if _, err := tx.Exec(
		"INSERT INTO note_contents (note_id, content) VALUES (?, ?)",
		id, content,
	); err != nil {
		return nil, fmt.Errorf("failed to store note content: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit note: %w", err)
	}

	return r.GetByID(int(id))
}

// GetByID returns a note together with its full content.
func (r *NoteRepository) GetByID(id int) (*Note, error) {
	row := r.db.QueryRow(
		`SELECT n.id, n.title, n.favorite, n.archived, n.archived_at,
		        n.deleted, n.deleted_at, n.created_at, n.updated_at, c.content
		 FROM notes n JOIN note_contents c ON c.note_id = n.id
		 WHERE n.id = ?`, id,
	)

	note, err := scanNote(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interrors.ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return note, nil
}

// GetActiveNotes lists non-trashed, non-archived notes, most recently
// updated first. Content is not loaded; listings only need metadata.
func (r *NoteRepository) GetActiveNotes(limit, offset int) ([]*Note, error) {
	query := "SELECT " + noteColumns + " FROM notes WHERE deleted = 0 AND archived = 0 ORDER BY updated_at DESC, id DESC"
	args := []interface{}{}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
		if offset > 0 {
			query += " OFFSET ?"
			args = append(args, offset)
		}
	}

	return r.queryNotes(query, args...)
}

// GetTrashedNotes lists notes in the trash, most recently deleted first.
func (r *NoteRepository) GetTrashedNotes() ([]*Note, error) {
	return r.queryNotes(
		"SELECT " + noteColumns + " FROM notes WHERE deleted = 1 ORDER BY deleted_at DESC, id DESC",
	)
}

// GetArchivedNotes lists archived notes, most recently archived first.
func (r *NoteRepository) GetArchivedNotes() ([]*Note, error) {
	return r.queryNotes(
		"SELECT " + noteColumns + " FROM notes WHERE deleted = 0 AND archived = 1 ORDER BY archived_at DESC, id DESC",
	)
}

func (r *NoteRepository) queryNotes(query string, args ...interface{}) ([]*Note, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		note, err := scanNote(rows, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return notes, nil
}

// UpdateContent overwrites a note's content, rederives its title and bumps
// updated_at. Metadata and content are updated atomically.
func (r *NoteRepository) UpdateContent(id int, content string) (*Note, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		"UPDATE notes SET title = ?, updated_at = ? WHERE id = ?",
		TitleFromContent(content), time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, interrors.ErrNoteNotFound
	}

	if _, err := tx.Exec(
		"UPDATE note_contents SET content = ? WHERE note_id = ?",
		content, id,
	); err != nil {
		return nil, fmt.Errorf("failed to update note content: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit note update: %w", err)
	}

	return r.GetByID(id)
}

// Delete permanently removes a note. Content and versions go with it via
// the cascade foreign keys, so the whole purge is a single atomic statement.
func (r *NoteRepository) Delete(id int) error {
	result, err := r.db.Exec("DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return interrors.ErrNoteNotFound
	}

	return nil
}

// DeleteMany permanently removes a batch of notes in one statement.
func (r *NoteRepository) DeleteMany(ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	query := "DELETE FROM notes WHERE id IN (" + placeholders(len(ids)) + ")"
	if _, err := r.db.Exec(query, intArgs(ids)...); err != nil {
		return fmt.Errorf("failed to delete notes: %w", err)
	}
	return nil
}

// InsertBatch inserts imported notes in a single transaction, assigning
// IDs in place. A note's CreatedAt/UpdatedAt are honored when set so
// importers can preserve history.
func (r *NoteRepository) InsertBatch(notes []*Note) error {
	if len(notes) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	noteStmt, err := tx.Prepare(
		"INSERT INTO notes (title, favorite, archived, archived_at, deleted, deleted_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("failed to prepare note insert: %w", err)
	}
	defer noteStmt.Close()

	contentStmt, err := tx.Prepare("INSERT INTO note_contents (note_id, content) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare content insert: %w", err)
	}
	defer contentStmt.Close()

	now := time.Now().UTC()
	for _, note := range notes {
		createdAt := note.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		updatedAt := note.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = createdAt
		}

		// Trashed takes precedence over archived even on raw imports.
		archived := note.Archived && !note.Deleted
		var archivedAt, deletedAt interface{}
		if archived && note.ArchivedAt != nil {
			archivedAt = *note.ArchivedAt
		}
		if note.Deleted && note.DeletedAt != nil {
			deletedAt = *note.DeletedAt
		}

		result, err := noteStmt.Exec(
			TitleFromContent(note.Content), note.Favorite,
			archived, archivedAt, note.Deleted, deletedAt,
			createdAt, updatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert note: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get insert id: %w", err)
		}
		if _, err := contentStmt.Exec(id, note.Content); err != nil {
			return fmt.Errorf("failed to insert note content: %w", err)
		}

		note.ID = int(id)
		note.Title = TitleFromContent(note.Content)
		note.Archived = archived
		note.CreatedAt = createdAt
		note.UpdatedAt = updatedAt
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit note batch: %w", err)
	}
	return nil
}

// SearchByContentOrTitle returns active notes whose content or title
// contains the query, case-insensitively, most recently updated first.
func (r *NoteRepository) SearchByContentOrTitle(query string) ([]*Note, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	rows, err := r.db.Query(
		`SELECT n.id, n.title, n.favorite, n.archived, n.archived_at,
		        n.deleted, n.deleted_at, n.created_at, n.updated_at, c.content
		 FROM notes n JOIN note_contents c ON c.note_id = n.id
		 WHERE n.deleted = 0 AND n.archived = 0
		   AND (LOWER(c.content) LIKE ? OR LOWER(n.title) LIKE ?)
		 ORDER BY n.updated_at DESC, n.id DESC`,
		pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search notes: %w", err)
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		note, err := scanNote(rows, true)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return notes, nil
}

// SetFavorite flips the favorite flag.
func (r *NoteRepository) SetFavorite(id int, favorite bool) error {
	return r.execOne(
		"UPDATE notes SET favorite = ? WHERE id = ?",
		favorite, id,
	)
}

// MoveToTrash soft-deletes a note. The archived flag is cleared in the
// same statement so a note is never archived and trashed at once.
func (r *NoteRepository) MoveToTrash(id int) error {
	return r.execOne(
		"UPDATE notes SET deleted = 1, deleted_at = ?, archived = 0, archived_at = NULL WHERE id = ?",
		time.Now().UTC(), id,
	)
}

// RestoreFromTrash brings a note back to the active state.
func (r *NoteRepository) RestoreFromTrash(id int) error {
	return r.execOne(
		"UPDATE notes SET deleted = 0, deleted_at = NULL WHERE id = ?",
		id,
	)
}

// MoveToTrashMany soft-deletes a batch of notes in one statement.
func (r *NoteRepository) MoveToTrashMany(ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	query := "UPDATE notes SET deleted = 1, deleted_at = ?, archived = 0, archived_at = NULL WHERE id IN (" + placeholders(len(ids)) + ")"
	args := append([]interface{}{time.Now().UTC()}, intArgs(ids)...)
	if _, err := r.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to trash notes: %w", err)
	}
	return nil
}

// RestoreFromTrashMany restores a batch of notes in one statement.
func (r *NoteRepository) RestoreFromTrashMany(ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	query := "UPDATE notes SET deleted = 0, deleted_at = NULL WHERE id IN (" + placeholders(len(ids)) + ")"
	if _, err := r.db.Exec(query, intArgs(ids)...); err != nil {
		return fmt.Errorf("failed to restore notes: %w", err)
	}
	return nil
}

// MoveToArchive archives an active note. Trashed notes cannot be archived.
func (r *NoteRepository) MoveToArchive(id int) error {
	result, err := r.db.Exec(
		"UPDATE notes SET archived = 1, archived_at = ? WHERE id = ? AND deleted = 0",
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to archive note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing note from a trashed one.
		if _, err := r.GetByID(id); err != nil {
			return err
		}
		return interrors.ErrNoteTrashed
	}
	return nil
}

// RestoreFromArchive moves an archived note back to the active state.
func (r *NoteRepository) RestoreFromArchive(id int) error {
	return r.execOne(
		"UPDATE notes SET archived = 0, archived_at = NULL WHERE id = ?",
		id,
	)
}

func (r *NoteRepository) execOne(query string, args ...interface{}) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return interrors.ErrNoteNotFound
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func intArgs(ids []int) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
