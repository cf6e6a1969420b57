package state

import (
	"sync"
	"testing"

	"github.com/Its-donkey/ivideo/internal/ui/model"
)

func TestApplyCatalogDropsStaleTickets(t *testing.T) {
	p := NewPage()
	first := p.Issue(ResourceCatalog)
	second := p.Issue(ResourceCatalog)

	if !p.ApplyCatalog(second, []model.Video{{ID: 2, Title: "newer"}}) {
		t.Fatalf("expected newer ticket to apply")
	}
	if p.ApplyCatalog(first, []model.Video{{ID: 1, Title: "older"}}) {
		t.Fatalf("expected older ticket to be dropped")
	}
	got := p.Catalog()
	if len(got) != 1 || got[0].Title != "newer" {
		t.Fatalf("unexpected catalog: %+v", got)
	}
}

func TestApplyCatalogInOrder(t *testing.T) {
	p := NewPage()
	first := p.Issue(ResourceCatalog)
	second := p.Issue(ResourceCatalog)

	if !p.ApplyCatalog(first, []model.Video{{ID: 1, Title: "older"}}) {
		t.Fatalf("expected first ticket to apply")
	}
	if !p.ApplyCatalog(second, []model.Video{{ID: 2, Title: "newer"}}) {
		t.Fatalf("expected second ticket to apply")
	}
	if got := p.Catalog(); got[0].Title != "newer" {
		t.Fatalf("unexpected catalog: %+v", got)
	}
}

func TestTicketsAreScopedPerResource(t *testing.T) {
	p := NewPage()
	catalog := p.Issue(ResourceCatalog)
	session := p.Issue(ResourceSession)

	if p.ApplyFeatured(catalog, &model.FeaturedVideo{}) {
		t.Fatalf("catalog ticket must not apply to featured")
	}
	if !p.ApplySession(session, &model.Session{UserID: 1}) {
		t.Fatalf("expected session ticket to apply")
	}
	if !p.ApplyCatalog(catalog, nil) {
		t.Fatalf("session write must not consume catalog ticket")
	}
}

func TestApplyCopiesInput(t *testing.T) {
	p := NewPage()
	videos := []model.Video{{ID: 1, Title: "Sintel"}}
	p.ApplyCatalog(p.Issue(ResourceCatalog), videos)
	videos[0].Title = "mutated"
	if got := p.Catalog(); got[0].Title != "Sintel" {
		t.Fatalf("page aliases caller slice: %+v", got)
	}

	featured := &model.FeaturedVideo{VideoURL: "a.mp4"}
	p.ApplyFeatured(p.Issue(ResourceFeatured), featured)
	featured.VideoURL = "b.mp4"
	if got := p.Featured(); got.VideoURL != "a.mp4" {
		t.Fatalf("page aliases caller featured: %+v", got)
	}
}

func TestMarkReadyOnce(t *testing.T) {
	p := NewPage()
	if p.Phase() != model.PhaseLoading {
		t.Fatalf("expected loading phase")
	}
	select {
	case <-p.Ready():
		t.Fatalf("ready channel closed too early")
	default:
	}
	if !p.MarkReady() {
		t.Fatalf("expected first MarkReady to report transition")
	}
	if p.MarkReady() {
		t.Fatalf("expected second MarkReady to be a no-op")
	}
	if p.Phase() != model.PhaseReady {
		t.Fatalf("expected ready phase")
	}
	<-p.Ready()
}

func TestFilteredFollowsTermAndCatalog(t *testing.T) {
	p := NewPage()
	p.ApplyCatalog(p.Issue(ResourceCatalog), []model.Video{
		{ID: 1, Title: "Big Buck Bunny"},
		{ID: 2, Title: "Sintel"},
	})
	p.SetSearchTerm("bun")
	if got := p.Filtered(); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("unexpected filtered view: %+v", got)
	}

	p.ApplyCatalog(p.Issue(ResourceCatalog), []model.Video{
		{ID: 3, Title: "Bunny returns"},
		{ID: 4, Title: "Bunny forever"},
	})
	if got := p.Filtered(); len(got) != 2 {
		t.Fatalf("filtered view not refreshed after catalog replace: %+v", got)
	}

	snap := p.Snapshot()
	if snap.SearchTerm != "bun" || len(snap.Catalog) != 2 || len(snap.Videos) != 2 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestConcurrentWritersKeepLatestTicket(t *testing.T) {
	p := NewPage()
	tickets := make([]Ticket, 50)
	for i := range tickets {
		tickets[i] = p.Issue(ResourceCatalog)
	}

	var wg sync.WaitGroup
	for i := len(tickets) - 1; i >= 0; i-- {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p.ApplyCatalog(tickets[i], []model.Video{{ID: int64(i + 1)}})
			_ = p.Snapshot()
		}(i)
	}
	wg.Wait()

	got := p.Catalog()
	if len(got) != 1 || got[0].ID != int64(len(tickets)) {
		t.Fatalf("expected latest ticket to win, got %+v", got)
	}
}
