package models

import (
	"strings"
	"time"
)

// Note is a user document. Title is always derived from the first line of
// content and recomputed on every save, so it can never go stale.
//
// A note is in exactly one of three lifecycle states: active, archived or
// trashed. Trashed takes precedence: moving a note to the trash clears the
// archived flag in the same statement, so a row can never behave as both.
type Note struct {
	ID         int        `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content,omitempty"`
	Favorite   bool       `json:"favorite"`
	Archived   bool       `json:"archived"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
	Deleted    bool       `json:"deleted"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Active reports whether the note shows up in listings and search.
func (n *Note) Active() bool {
	return !n.Deleted && !n.Archived
}

// TitleFromContent derives a note title: everything up to the first line
// break, with surrounding whitespace trimmed.
func TitleFromContent(content string) string {
	title := content
	if idx := strings.IndexByte(content, '\n'); idx >= 0 {
		title = content[:idx]
	}
	return strings.TrimSpace(strings.TrimSuffix(title, "\r"))
}
