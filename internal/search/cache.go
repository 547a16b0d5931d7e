package search

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/streed/notevault/internal/constants"
	"github.com/streed/notevault/internal/logger"
	"github.com/streed/notevault/internal/models"
)

// Store is the slice of the storage port the search engine needs.
type Store interface {
	SearchByContentOrTitle(query string) ([]*models.Note, error)
}

// Engine wraps the storage port's substring search with two bounded LRU
// result caches, one for plain results and one for highlighted results,
// both keyed by the raw query string. Repeated keystroke-driven searches
// hit the cache; every note mutation invalidates the entries that
// reference the note.
//
// The caches are pure performance shortcuts over authoritative storage:
// the worst a race can cost is one extra storage round trip.
type Engine struct {
	store      Store
	capacity   int
	results    *lru.Cache[string, []*models.Note]
	highlights *lru.Cache[string, []Result]
	group      singleflight.Group
}

// Stats describes the current cache occupancy for diagnostics.
type Stats struct {
	ResultEntries    int `json:"result_entries"`
	HighlightEntries int `json:"highlight_entries"`
	Capacity         int `json:"capacity"`
}

// NewEngine builds a search engine with the given cache capacity per
// cache. A non-positive capacity falls back to the default.
func NewEngine(store Store, capacity int) *Engine {
	if capacity <= 0 {
		capacity = constants.SearchCacheSize
	}

	// lru.New only errors on a non-positive size, which is guarded above.
	results, _ := lru.New[string, []*models.Note](capacity)
	highlights, _ := lru.New[string, []Result](capacity)

	return &Engine{
		store:      store,
		capacity:   capacity,
		results:    results,
		highlights: highlights,
	}
}

// Search returns active notes matching the query, most recently updated
// first. A blank query returns no results without touching storage.
func (e *Engine) Search(query string) ([]*models.Note, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	if notes, ok := e.results.Get(query); ok {
		logger.Debug("Search cache hit for %q", query)
		return notes, nil
	}

	// Coalesce concurrent misses for the same query into one storage hit.
	v, err, _ := e.group.Do("q\x00"+query, func() (interface{}, error) {
		notes, err := e.store.SearchByContentOrTitle(query)
		if err != nil {
			return nil, err
		}
		e.results.Add(query, notes)
		return notes, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*models.Note), nil
}

// SearchWithHighlights returns matching notes together with a highlighted
// excerpt and the full list of match positions per note. Notes whose
// highlight data cannot be built are skipped rather than failing the whole
// search.
func (e *Engine) SearchWithHighlights(query string) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	if results, ok := e.highlights.Get(query); ok {
		logger.Debug("Highlight cache hit for %q", query)
		return results, nil
	}

	v, err, _ := e.group.Do("h\x00"+query, func() (interface{}, error) {
		notes, err := e.store.SearchByContentOrTitle(query)
		if err != nil {
			return nil, err
		}

		results := make([]Result, 0, len(notes))
		for _, note := range notes {
			result, err := buildResult(note, query)
			if err != nil {
				logger.Warn("Skipping highlight for note %d: %v", note.ID, err)
				continue
			}
			results = append(results, result)
		}

		e.highlights.Add(query, results)
		return results, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Result), nil
}

// Invalidate drops, from both caches, every entry whose result set
// contains the given note.
func (e *Engine) Invalidate(noteID int) {
	for _, key := range e.results.Keys() {
		if notes, ok := e.results.Peek(key); ok && containsNote(notes, noteID) {
			e.results.Remove(key)
		}
	}
	for _, key := range e.highlights.Keys() {
		if results, ok := e.highlights.Peek(key); ok && containsResult(results, noteID) {
			e.highlights.Remove(key)
		}
	}
}

// InvalidateAll clears both caches. Used after batch mutations where
// selective invalidation would cost more than a full rebuild.
func (e *Engine) InvalidateAll() {
	e.results.Purge()
	e.highlights.Purge()
}

func (e *Engine) Stats() Stats {
	return Stats{
		ResultEntries:    e.results.Len(),
		HighlightEntries: e.highlights.Len(),
		Capacity:         e.capacity,
	}
}

func containsNote(notes []*models.Note, noteID int) bool {
	for _, n := range notes {
		if n.ID == noteID {
			return true
		}
	}
	return false
}

func containsResult(results []Result, noteID int) bool {
	for i := range results {
		if results[i].Note.ID == noteID {
			return true
		}
	}
	return false
}
