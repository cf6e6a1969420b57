package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Its-donkey/ivideo/internal/ui/catalog"
	"github.com/Its-donkey/ivideo/internal/ui/model"
	"github.com/Its-donkey/ivideo/internal/ui/storage"
)

type fakeService struct {
	videosFn      func(ctx context.Context, search string) ([]model.Video, error)
	featuredFn    func(ctx context.Context) (*model.FeaturedVideo, error)
	profileFn     func(ctx context.Context, token string) (*model.Session, error)
	videoFn       func(ctx context.Context, id int64) (*model.Video, error)
	suggestionsFn func(ctx context.Context, q string) ([]string, error)
	suggestCalls  atomic.Int32
}

func (f *fakeService) Videos(ctx context.Context, search string) ([]model.Video, error) {
	if f.videosFn == nil {
		return []model.Video{}, nil
	}
	return f.videosFn(ctx, search)
}

func (f *fakeService) Featured(ctx context.Context) (*model.FeaturedVideo, error) {
	if f.featuredFn == nil {
		return &model.FeaturedVideo{}, nil
	}
	return f.featuredFn(ctx)
}

func (f *fakeService) Profile(ctx context.Context, token string) (*model.Session, error) {
	if f.profileFn == nil {
		return nil, &catalog.StatusError{Code: 401, Status: "401 Unauthorized"}
	}
	return f.profileFn(ctx, token)
}

func (f *fakeService) Video(ctx context.Context, id int64) (*model.Video, error) {
	return f.videoFn(ctx, id)
}

func (f *fakeService) Suggestions(ctx context.Context, q string) ([]string, error) {
	f.suggestCalls.Add(1)
	return f.suggestionsFn(ctx, q)
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for task")
	}
}

func TestLoadingClearsOnlyWhenFeaturedSettles(t *testing.T) {
	release := make(chan struct{})
	svc := &fakeService{
		videosFn: func(ctx context.Context, search string) ([]model.Video, error) {
			return []model.Video{{ID: 1, Title: "Big Buck Bunny"}, {ID: 2, Title: "Sintel"}}, nil
		},
		featuredFn: func(ctx context.Context) (*model.FeaturedVideo, error) {
			<-release
			return &model.FeaturedVideo{Video: model.Video{ID: 1, Title: "Big Buck Bunny"}, VideoURL: "bunny.mp4"}, nil
		},
	}
	a := New(svc, storage.NewMemory(), nil)
	defer a.Dispose()

	tasks := a.Init(context.Background())
	waitFor(t, tasks.Catalog)
	waitFor(t, tasks.Session)

	view := a.View()
	if !view.Loading() {
		t.Fatalf("page must stay loading until featured settles")
	}
	if len(view.Videos) != 2 {
		t.Fatalf("catalog should already be populated: %+v", view.Videos)
	}

	close(release)
	waitFor(t, tasks.Featured)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := a.WaitReady(ctx); err != nil {
		t.Fatalf("WaitReady: %v", err)
	}
	view = a.View()
	if view.Loading() || view.Featured == nil || view.Featured.VideoURL != "bunny.mp4" {
		t.Fatalf("unexpected view after featured: %+v", view)
	}
	if len(view.Categories) != 6 {
		t.Fatalf("expected placeholder categories, got %d", len(view.Categories))
	}
}

func TestFeaturedFailureStillReachesReady(t *testing.T) {
	svc := &fakeService{
		featuredFn: func(ctx context.Context) (*model.FeaturedVideo, error) {
			return nil, fmt.Errorf("%w: connection reset", catalog.ErrNetwork)
		},
	}
	a := New(svc, storage.NewMemory(), nil)
	defer a.Dispose()

	tasks := a.Init(context.Background())
	waitFor(t, tasks.Featured)

	view := a.View()
	if view.Loading() || view.Featured != nil {
		t.Fatalf("expected ready page without featured video: %+v", view)
	}
}

func TestInitTwiceReturnsSameTasks(t *testing.T) {
	var calls atomic.Int32
	svc := &fakeService{videosFn: func(ctx context.Context, search string) ([]model.Video, error) {
		calls.Add(1)
		return nil, nil
	}}
	a := New(svc, storage.NewMemory(), nil)
	defer a.Dispose()

	first := a.Init(context.Background())
	second := a.Init(context.Background())
	if first.Catalog != second.Catalog {
		t.Fatalf("expected identical tasks")
	}
	waitFor(t, first.Catalog)
	if calls.Load() != 1 {
		t.Fatalf("expected one catalog fetch, got %d", calls.Load())
	}
}

func TestSubmitSearchComposesWithClientFilter(t *testing.T) {
	svc := &fakeService{videosFn: func(ctx context.Context, search string) ([]model.Video, error) {
		if search == "" {
			return []model.Video{{ID: 1, Title: "Sintel"}}, nil
		}
		// The service matches loosely; the client narrows again by title.
		return []model.Video{
			{ID: 2, Title: "Big Buck Bunny"},
			{ID: 3, Title: "Elephants Dream", Description: "bunny cameo"},
		}, nil
	}}
	a := New(svc, storage.NewMemory(), nil)
	defer a.Dispose()
	waitFor(t, a.Init(context.Background()).Catalog)

	a.SetSearchTerm("bun")
	if got := a.View().Videos; len(got) != 0 {
		t.Fatalf("term should filter current catalog immediately, got %+v", got)
	}
	waitFor(t, a.SubmitSearch())

	view := a.View()
	if view.SearchTerm != "bun" || len(view.Videos) != 1 || view.Videos[0].Title != "Big Buck Bunny" {
		t.Fatalf("unexpected search view: %+v", view)
	}
}

func TestLoginLogoutThroughApp(t *testing.T) {
	store := storage.NewMemory()
	a := New(&fakeService{}, store, nil)
	defer a.Dispose()
	waitFor(t, a.Init(context.Background()).Session)

	ctx := context.Background()
	if s := a.Login(ctx, model.Credentials{Username: "ada", DisplayName: "Ada"}); s == nil || s.DisplayName != "Ada" {
		t.Fatalf("unexpected login session: %+v", s)
	}
	if a.View().Session == nil {
		t.Fatalf("expected session in view")
	}
	a.Logout(ctx)
	a.Logout(ctx)
	if a.View().Session != nil {
		t.Fatalf("expected no session after logout")
	}
	if _, ok, _ := store.Get(ctx, model.TokenStorageKey); ok {
		t.Fatalf("expected token removed")
	}
}

func TestSuggestions(t *testing.T) {
	svc := &fakeService{suggestionsFn: func(ctx context.Context, q string) ([]string, error) {
		if q == "zz" {
			return nil, errors.New("boom")
		}
		return []string{"a", "b", "c", "d", "e", "f"}, nil
	}}
	a := New(svc, storage.NewMemory(), nil)
	defer a.Dispose()
	ctx := context.Background()

	if got := a.Suggestions(ctx, " é "); len(got) != 0 || svc.suggestCalls.Load() != 0 {
		t.Fatalf("short query should not hit the service: %v", got)
	}
	if got := a.Suggestions(ctx, "bu"); len(got) != 5 {
		t.Fatalf("expected at most five suggestions, got %v", got)
	}
	if got := a.Suggestions(ctx, "zz"); got == nil || len(got) != 0 {
		t.Fatalf("failure should yield empty list, got %#v", got)
	}
}

func TestOpenVideoReturnsErrors(t *testing.T) {
	svc := &fakeService{videoFn: func(ctx context.Context, id int64) (*model.Video, error) {
		if id == 404 {
			return nil, &catalog.StatusError{Code: 404, Status: "404 Not Found"}
		}
		return &model.Video{ID: id, Title: "Sintel"}, nil
	}}
	a := New(svc, storage.NewMemory(), nil)
	ctx := context.Background()

	if v, err := a.OpenVideo(ctx, 7); err != nil || v.ID != 7 {
		t.Fatalf("unexpected OpenVideo result: %+v %v", v, err)
	}
	if _, err := a.OpenVideo(ctx, 404); !errors.Is(err, catalog.ErrProtocol) {
		t.Fatalf("expected protocol error, got %v", err)
	}
	a.Dispose()
	if _, err := a.OpenVideo(ctx, 7); !errors.Is(err, ErrDisposed) {
		t.Fatalf("expected ErrDisposed, got %v", err)
	}
}

func TestDisposeCancelsInFlightWork(t *testing.T) {
	svc := &fakeService{featuredFn: func(ctx context.Context) (*model.FeaturedVideo, error) {
		<-ctx.Done()
		return nil, fmt.Errorf("%w: %v", catalog.ErrNetwork, ctx.Err())
	}}
	a := New(svc, storage.NewMemory(), nil)
	tasks := a.Init(context.Background())

	a.Dispose()
	waitFor(t, tasks.Featured)
	a.Dispose()

	waitFor(t, a.SubmitSearch())
	if a.Login(context.Background(), model.Credentials{}) != nil {
		t.Fatalf("login after dispose should be a no-op")
	}
	a.SetSearchTerm("ignored")
	if a.View().SearchTerm != "" {
		t.Fatalf("search term changed after dispose")
	}
}

func TestInitContextCancellationStopsWork(t *testing.T) {
	svc := &fakeService{featuredFn: func(ctx context.Context) (*model.FeaturedVideo, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	a := New(svc, storage.NewMemory(), nil)
	defer a.Dispose()

	ctx, cancel := context.WithCancel(context.Background())
	tasks := a.Init(ctx)
	cancel()
	waitFor(t, tasks.Featured)
	if a.View().Loading() {
		t.Fatalf("featured settled by cancellation should still clear loading")
	}
}

func TestCatalogRetryOption(t *testing.T) {
	var calls atomic.Int32
	svc := &fakeService{videosFn: func(ctx context.Context, search string) ([]model.Video, error) {
		if calls.Add(1) == 1 {
			return nil, &catalog.StatusError{Code: 502, Status: "502 Bad Gateway"}
		}
		return []model.Video{{ID: 1, Title: "Sintel"}}, nil
	}}
	a := New(svc, storage.NewMemory(), nil, WithCatalogRetry(catalog.RetryPolicy{
		MaxTries:        2,
		InitialInterval: time.Millisecond,
	}))
	defer a.Dispose()
	waitFor(t, a.Init(context.Background()).Catalog)

	if got := a.View().Videos; len(got) != 1 || calls.Load() != 2 {
		t.Fatalf("expected retried catalog, got %+v after %d calls", got, calls.Load())
	}
}

func TestDisposeDetachesFromInitContext(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := New(&fakeService{}, storage.NewMemory(), nil)
	tasks := a.Init(parent)
	waitFor(t, tasks.Featured)

	a.mu.Lock()
	link := a.stopLink
	var detached bool
	a.stopLink = func() bool {
		detached = link()
		return detached
	}
	a.mu.Unlock()

	a.Dispose()
	if !detached {
		t.Fatalf("dispose left the page registered on the parent context")
	}
}
