package search

import (
	"fmt"
	"strings"

	"github.com/streed/notevault/internal/constants"
	"github.com/streed/notevault/internal/models"
)

// Match is one occurrence of the query inside a note's content. Offset is
// a byte offset into the content; Line is 1-based.
type Match struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
}

// Excerpt is a fixed-radius context window around the first occurrence of
// the query. HighlightStart/HighlightEnd are offsets into Text bracketing
// the match; the truncation flags say whether an ellipsis belongs on
// either side.
type Excerpt struct {
	Text           string `json:"text"`
	HighlightStart int    `json:"highlight_start"`
	HighlightEnd   int    `json:"highlight_end"`
	TruncatedStart bool   `json:"truncated_start"`
	TruncatedEnd   bool   `json:"truncated_end"`
}

// Result is one note in a highlighted search result set.
type Result struct {
	Note       *models.Note `json:"note"`
	Excerpt    Excerpt      `json:"excerpt"`
	Matches    []Match      `json:"matches,omitempty"`
	MatchCount int          `json:"match_count"`
	TitleOnly  bool         `json:"title_only"`
}

// buildResult assembles the excerpt and match list for one note. An error
// here only skips this note; the surrounding search still returns the
// rest.
func buildResult(note *models.Note, query string) (Result, error) {
	if note == nil {
		return Result{}, fmt.Errorf("nil note in search results")
	}

	lowerContent := strings.ToLower(note.Content)
	lowerQuery := strings.ToLower(query)

	idx := strings.Index(lowerContent, lowerQuery)
	if idx < 0 {
		// The query matched only the title. Synthesize context from the
		// first content line instead.
		if !strings.Contains(strings.ToLower(note.Title), lowerQuery) {
			return Result{}, fmt.Errorf("query %q not found in note %d", query, note.ID)
		}
		return Result{
			Note:      note,
			Excerpt:   titleExcerpt(note.Content),
			TitleOnly: true,
		}, nil
	}

	matches := scanMatches(lowerContent, lowerQuery)

	return Result{
		Note:       note,
		Excerpt:    contentExcerpt(note.Content, idx, len(query)),
		Matches:    matches,
		MatchCount: len(matches),
	}, nil
}

// contentExcerpt builds the context window around the first occurrence.
func contentExcerpt(content string, idx, queryLen int) Excerpt {
	start := idx - constants.ExcerptRadius
	if start < 0 {
		start = 0
	}
	end := idx + queryLen + constants.ExcerptRadius
	if end > len(content) {
		end = len(content)
	}

	return Excerpt{
		Text:           content[start:end],
		HighlightStart: idx - start,
		HighlightEnd:   idx - start + queryLen,
		TruncatedStart: start > 0,
		TruncatedEnd:   end < len(content),
	}
}

// titleExcerpt builds context for a title-only match: the first content
// line, truncated.
func titleExcerpt(content string) Excerpt {
	line := content
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		line = content[:i]
	}

	truncated := false
	if len(line) > constants.TitleMatchPreviewLength {
		line = line[:constants.TitleMatchPreviewLength]
		truncated = true
	}

	return Excerpt{
		Text:         line,
		TruncatedEnd: truncated,
	}
}

// scanMatches finds every occurrence of the query with its line number.
// Line numbers are computed incrementally by scanning forward from the
// previous match, keeping the whole pass linear in content length even
// for pathological match counts. Scanning stops at a fixed cap; single
// character queries get a much tighter one.
func scanMatches(lowerContent, lowerQuery string) []Match {
	maxMatches := constants.MaxMatchesPerNote
	if len(lowerQuery) == 1 {
		maxMatches = constants.MaxMatchesSingleCharPerNote
	}

	var matches []Match
	line := 1
	scanned := 0 // everything before this offset has been line-counted

	pos := 0
	for len(matches) < maxMatches {
		rel := strings.Index(lowerContent[pos:], lowerQuery)
		if rel < 0 {
			break
		}
		offset := pos + rel

		line += strings.Count(lowerContent[scanned:offset], "\n")
		scanned = offset

		matches = append(matches, Match{Offset: offset, Line: line})
		pos = offset + 1
	}

	return matches
}
