// Package search derives the visible catalog from the current search term.
package search

import (
	"strings"

	"github.com/Its-donkey/ivideo/internal/ui/model"
)

// Filter returns the videos whose title contains term, ignoring case.
//
// The result is always a fresh slice in catalog order; videos is never modified.
// An empty term keeps every video. The term is not trimmed, so leading or
// trailing spaces take part in the match, as they do in the catalog request.
func Filter(videos []model.Video, term string) []model.Video {
	out := make([]model.Video, 0, len(videos))
	if term == "" {
		return append(out, videos...)
	}
	needle := strings.ToLower(term)
	for _, v := range videos {
		if strings.Contains(strings.ToLower(v.Title), needle) {
			out = append(out, v)
		}
	}
	return out
}

// Memo caches the last Filter result keyed by catalog version and term.
// It is not safe for concurrent use; the owner serialises access.
type Memo struct {
	valid   bool
	version uint64
	term    string
	result  []model.Video
}

// Get returns Filter(videos, term), recomputing only when version or term changed
// since the previous call. Callers must bump version whenever videos is replaced.
func (m *Memo) Get(version uint64, videos []model.Video, term string) []model.Video {
	if !m.valid || m.version != version || m.term != term {
		m.result = Filter(videos, term)
		m.version = version
		m.term = term
		m.valid = true
	}
	out := make([]model.Video, len(m.result))
	copy(out, m.result)
	return out
}

// Reset drops the cached result.
func (m *Memo) Reset() {
	*m = Memo{}
}
