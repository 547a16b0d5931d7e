package constants

import "time"

// Boolean string values
const (
	BoolTrue  = "true"
	BoolFalse = "false"
	BoolYes   = "yes"
	BoolNo    = "no"
	BoolOne   = "1"
	BoolZero  = "0"
)

// Search cache tuning
const (
	// SearchCacheSize bounds how many distinct queries each result cache
	// remembers before the least-recently-used one is evicted.
	SearchCacheSize = 50

	// ExcerptRadius is the number of characters of context kept on each
	// side of the first match when building a highlighted excerpt.
	ExcerptRadius = 40

	// TitleMatchPreviewLength truncates the synthesized context when the
	// query matches only the title.
	TitleMatchPreviewLength = 100

	// MaxMatchesPerNote caps occurrence scanning per note.
	// Single-character queries match almost everything, so they get a
	// much tighter cap.
	MaxMatchesPerNote           = 200
	MaxMatchesSingleCharPerNote = 50
)

// Version retention tuning
const (
	// VersionLengthThreshold is the content length delta that warrants a
	// new snapshot.
	VersionLengthThreshold = 140

	// VersionLookupCacheSize bounds the latest-version lookup cache.
	VersionLookupCacheSize = 128

	// DefaultKeepLatest is how many versions per note survive retention
	// cleanup.
	DefaultKeepLatest = 100
)

// Coordinator tuning
const (
	// BatchInvalidationThreshold is the batch size above which selective
	// cache invalidation is replaced by a full clear.
	BatchInvalidationThreshold = 10
)

// Editor session tuning
const (
	DefaultDebounceDelay        = 1500 * time.Millisecond
	DefaultVersionCheckInterval = time.Minute
)

// Display limits
const (
	DefaultListLimit   = 20
	DefaultSearchLimit = 10
	PreviewLength      = 100
	ShortPreviewLength = 80
)

// File permissions
const (
	ConfigFileMode = 0600
	ConfigDirMode  = 0755
	DataDirMode    = 0755
)
