// Package state owns the page-level data shared by fetchers and action handlers.
package state

import (
	"sync"

	"github.com/Its-donkey/ivideo/internal/ui/model"
	"github.com/Its-donkey/ivideo/internal/ui/search"
)

// Resource names a piece of page state that is filled by a request.
type Resource int

const (
	ResourceCatalog Resource = iota
	ResourceFeatured
	ResourceSession
	resourceCount
)

func (r Resource) String() string {
	switch r {
	case ResourceCatalog:
		return "catalog"
	case ResourceFeatured:
		return "featured"
	case ResourceSession:
		return "session"
	default:
		return "unknown"
	}
}

// Ticket orders writes to a resource. A write carrying a ticket older than the
// last applied one for the same resource is dropped.
type Ticket struct {
	Resource Resource
	Seq      uint64
}

// Page holds catalog, featured video, session, search term and the loading gate.
//
// Every write replaces a whole value under the lock, so readers never observe a
// partially updated entity.
type Page struct {
	mu sync.Mutex

	issued  [resourceCount]uint64
	applied [resourceCount]uint64

	videos   []model.Video
	version  uint64
	featured *model.FeaturedVideo
	session  *model.Session
	term     string
	memo     search.Memo

	phase model.Phase
	ready chan struct{}
}

// NewPage returns an empty page in the loading phase.
func NewPage() *Page {
	return &Page{
		phase: model.PhaseLoading,
		ready: make(chan struct{}),
	}
}

// Issue reserves the next ticket for r. Call it when the request is sent.
func (p *Page) Issue(r Resource) Ticket {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issued[r]++
	return Ticket{Resource: r, Seq: p.issued[r]}
}

// accept reports whether t is newer than the last applied write and records it.
// Callers hold p.mu.
func (p *Page) accept(t Ticket) bool {
	if t.Seq <= p.applied[t.Resource] {
		return false
	}
	p.applied[t.Resource] = t.Seq
	return true
}

// ApplyCatalog replaces the catalog. It returns false when t is stale.
func (p *Page) ApplyCatalog(t Ticket, videos []model.Video) bool {
	cp := make([]model.Video, len(videos))
	copy(cp, videos)

	p.mu.Lock()
	defer p.mu.Unlock()
	if t.Resource != ResourceCatalog || !p.accept(t) {
		return false
	}
	p.videos = cp
	p.version++
	return true
}

// ApplyFeatured replaces the featured video. It returns false when t is stale.
func (p *Page) ApplyFeatured(t Ticket, v *model.FeaturedVideo) bool {
	var cp *model.FeaturedVideo
	if v != nil {
		c := *v
		cp = &c
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if t.Resource != ResourceFeatured || !p.accept(t) {
		return false
	}
	p.featured = cp
	return true
}

// ApplySession installs s, or clears the session when s is nil.
// It returns false when t is stale.
func (p *Page) ApplySession(t Ticket, s *model.Session) bool {
	var cp *model.Session
	if s != nil {
		c := *s
		cp = &c
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if t.Resource != ResourceSession || !p.accept(t) {
		return false
	}
	p.session = cp
	return true
}

// MarkReady moves the page to the ready phase. Only the first call has an
// effect and returns true; the phase never goes back to loading.
func (p *Page) MarkReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase == model.PhaseReady {
		return false
	}
	p.phase = model.PhaseReady
	close(p.ready)
	return true
}

// Ready is closed once the page reaches the ready phase.
func (p *Page) Ready() <-chan struct{} {
	return p.ready
}

// Phase returns the current phase.
func (p *Page) Phase() model.Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// SetSearchTerm replaces the search term.
func (p *Page) SetSearchTerm(term string) {
	p.mu.Lock()
	p.term = term
	p.mu.Unlock()
}

// SearchTerm returns the current search term.
func (p *Page) SearchTerm() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.term
}

// Catalog returns a copy of the unfiltered catalog.
func (p *Page) Catalog() []model.Video {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := make([]model.Video, len(p.videos))
	copy(cp, p.videos)
	return cp
}

// Filtered returns the catalog narrowed by the current search term.
func (p *Page) Filtered() []model.Video {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.memo.Get(p.version, p.videos, p.term)
}

// Featured returns a copy of the featured video, or nil.
func (p *Page) Featured() *model.FeaturedVideo {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.featured == nil {
		return nil
	}
	c := *p.featured
	return &c
}

// Session returns a copy of the current session, or nil when signed out.
func (p *Page) Session() *model.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil
	}
	c := *p.session
	return &c
}

// Snapshot is a consistent read of the whole page.
type Snapshot struct {
	Phase      model.Phase
	Featured   *model.FeaturedVideo
	Catalog    []model.Video
	Videos     []model.Video
	SearchTerm string
	Session    *model.Session
}

// Snapshot reads every field under one lock acquisition.
func (p *Page) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := Snapshot{
		Phase:      p.phase,
		Catalog:    make([]model.Video, len(p.videos)),
		Videos:     p.memo.Get(p.version, p.videos, p.term),
		SearchTerm: p.term,
	}
	copy(snap.Catalog, p.videos)
	if p.featured != nil {
		c := *p.featured
		snap.Featured = &c
	}
	if p.session != nil {
		c := *p.session
		snap.Session = &c
	}
	return snap
}
