package models

import "time"

// VersionKind tags a snapshot as regular or pinned. Pinned versions were
// requested explicitly by the user and are exempt from retention cleanup,
// which filters on this single field instead of scattering the rule across
// queries.
type VersionKind int

const (
	VersionRegular VersionKind = iota
	VersionPinned
)

func (k VersionKind) String() string {
	if k == VersionPinned {
		return "pinned"
	}
	return "regular"
}

// Version is an immutable snapshot of a note's content at a point in time.
// Versions of a note are totally ordered by (CreatedAt, ID); the latest one
// is the maximum. Tool and ToolDurationMs are descriptive provenance from
// the text-transform collaborator and never affect retention.
type Version struct {
	ID             int         `json:"id"`
	NoteID         int         `json:"note_id"`
	Content        string      `json:"content"`
	Kind           VersionKind `json:"kind"`
	Label          string      `json:"label,omitempty"`
	Tool           string      `json:"tool,omitempty"`
	ToolDurationMs int64       `json:"tool_duration_ms,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

func (v *Version) Pinned() bool {
	return v.Kind == VersionPinned
}
