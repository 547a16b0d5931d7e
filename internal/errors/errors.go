package errors

import "errors"

// Common errors used throughout the application
var (
	// Database errors
	ErrNoteNotFound    = errors.New("note not found")
	ErrVersionNotFound = errors.New("version not found")

	// Validation errors
	ErrEmptyContent     = errors.New("content cannot be empty")
	ErrInvalidNoteID    = errors.New("invalid note ID")
	ErrInvalidVersionID = errors.New("invalid version ID")
	ErrNoteTrashed      = errors.New("note is in the trash")
	ErrInvalidBoolean   = errors.New("invalid boolean value (use true/false)")
	ErrUnknownConfigKey = errors.New("unknown configuration key")
)
