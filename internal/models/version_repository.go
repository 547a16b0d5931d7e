package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	interrors "github.com/streed/notevault/internal/errors"
)

const versionColumns = "id, note_id, content, kind, label, tool, tool_duration_ms, created_at"

func scanVersion(row interface{ Scan(...interface{}) error }) (*Version, error) {
	var v Version
	err := row.Scan(
		&v.ID, &v.NoteID, &v.Content, &v.Kind, &v.Label,
		&v.Tool, &v.ToolDurationMs, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// InsertVersion stores a new snapshot, assigning its ID and timestamp in
// place. Timestamps are set here, not by the database, so that versions
// written in quick succession still order correctly.
func (r *NoteRepository) InsertVersion(v *Version) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.Exec(
		"INSERT INTO note_versions (note_id, content, kind, label, tool, tool_duration_ms, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		v.NoteID, v.Content, v.Kind, v.Label, v.Tool, v.ToolDurationMs, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert version: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert id: %w", err)
	}
	v.ID = int(id)
	return nil
}

// InsertVersionsBatch stores imported snapshots in one transaction.
func (r *NoteRepository) InsertVersionsBatch(versions []*Version) error {
	if len(versions) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		"INSERT INTO note_versions (note_id, content, kind, label, tool, tool_duration_ms, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("failed to prepare version insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, v := range versions {
		if v.CreatedAt.IsZero() {
			v.CreatedAt = now
		}
		result, err := stmt.Exec(v.NoteID, v.Content, v.Kind, v.Label, v.Tool, v.ToolDurationMs, v.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert version: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get insert id: %w", err)
		}
		v.ID = int(id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit version batch: %w", err)
	}
	return nil
}

// GetVersionsForNote returns all snapshots of a note, newest first.
func (r *NoteRepository) GetVersionsForNote(noteID int) ([]*Version, error) {
	rows, err := r.db.Query(
		"SELECT "+versionColumns+" FROM note_versions WHERE note_id = ? ORDER BY created_at DESC, id DESC",
		noteID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	var versions []*Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		versions = append(versions, v)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return versions, nil
}

// GetLatestVersionForNote returns the newest snapshot of a note, or
// ErrVersionNotFound when the note has none.
func (r *NoteRepository) GetLatestVersionForNote(noteID int) (*Version, error) {
	row := r.db.QueryRow(
		"SELECT "+versionColumns+" FROM note_versions WHERE note_id = ? ORDER BY created_at DESC, id DESC LIMIT 1",
		noteID,
	)

	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interrors.ErrVersionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest version: %w", err)
	}
	return v, nil
}

// GetVersion returns a single snapshot by id.
func (r *NoteRepository) GetVersion(id int) (*Version, error) {
	row := r.db.QueryRow(
		"SELECT "+versionColumns+" FROM note_versions WHERE id = ?", id,
	)

	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interrors.ErrVersionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get version: %w", err)
	}
	return v, nil
}

// DeleteVersions removes snapshots by id and reports how many rows went.
func (r *NoteRepository) DeleteVersions(ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := "DELETE FROM note_versions WHERE id IN (" + placeholders(len(ids)) + ")"
	result, err := r.db.Exec(query, intArgs(ids)...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete versions: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(affected), nil
}

// SetVersionProvenance records which external tool produced a snapshot and
// how long the transformation took. Purely descriptive.
func (r *NoteRepository) SetVersionProvenance(id int, tool string, duration time.Duration) error {
	result, err := r.db.Exec(
		"UPDATE note_versions SET tool = ?, tool_duration_ms = ? WHERE id = ?",
		tool, duration.Milliseconds(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set version provenance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return interrors.ErrVersionNotFound
	}
	return nil
}
