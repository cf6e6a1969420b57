// Package app ties the fetchers, the session manager and the search filter to one
// page and exposes the actions a visitor can take.
package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/Its-donkey/ivideo/internal/ui/catalog"
	"github.com/Its-donkey/ivideo/internal/ui/model"
	"github.com/Its-donkey/ivideo/internal/ui/session"
	"github.com/Its-donkey/ivideo/internal/ui/state"
	"github.com/Its-donkey/ivideo/internal/ui/storage"
	"github.com/Its-donkey/ivideo/logging"
)

// ErrDisposed is returned by OpenVideo once the page is disposed.
var ErrDisposed = errors.New("page disposed")

const minSuggestionRunes = 2

// Service is the remote video service.
type Service interface {
	catalog.Source
	session.ProfileFetcher
	Video(ctx context.Context, id int64) (*model.Video, error)
	Suggestions(ctx context.Context, q string) ([]string, error)
}

// Tasks are the initial loads started by Init. Each channel is closed when its
// task finishes, successfully or not.
type Tasks struct {
	Catalog  <-chan struct{}
	Featured <-chan struct{}
	Session  <-chan struct{}
}

// View is a consistent snapshot of everything the page renders.
type View struct {
	Phase      model.Phase
	Featured   *model.FeaturedVideo
	Videos     []model.Video
	SearchTerm string
	Session    *model.Session
	Categories []model.Category
}

// Loading reports whether the page still shows the loading screen.
func (v View) Loading() bool {
	return v.Phase == model.PhaseLoading
}

// App is one page. Create it with New, start it with Init and release it with
// Dispose.
type App struct {
	svc      Service
	page     *state.Page
	fetcher  *catalog.Fetcher
	sessions *session.Manager
	logger   *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	// stopLink detaches the page from the context passed to Init.
	stopLink func() bool

	mu       sync.Mutex
	wg       sync.WaitGroup
	tasks    *Tasks
	disposed bool
}

// Option configures an App.
type Option func(*options)

type options struct {
	fetcher []catalog.FetcherOption
}

// WithCatalogRetry retries transient catalog failures under p.
func WithCatalogRetry(p catalog.RetryPolicy) Option {
	return func(o *options) {
		o.fetcher = append(o.fetcher, catalog.WithCatalogRetry(p))
	}
}

// New builds a page backed by svc, keeping the session token in store.
func New(svc Service, store storage.Store, logger *logging.Logger, opts ...Option) *App {
	if logger == nil {
		logger = logging.Discard()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	page := state.NewPage()
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		svc:      svc,
		page:     page,
		fetcher:  catalog.NewFetcher(svc, page, logger, o.fetcher...),
		sessions: session.NewManager(svc, store, page, logger),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Init starts the catalog fetch, the featured fetch and the session bootstrap
// concurrently. Calling it again returns the tasks of the first call. Work stops
// when ctx or the page is cancelled.
func (a *App) Init(ctx context.Context) Tasks {
	a.mu.Lock()
	if a.tasks != nil {
		t := *a.tasks
		a.mu.Unlock()
		return t
	}
	if ctx != nil {
		a.stopLink = context.AfterFunc(ctx, a.cancel)
	}
	tasks := Tasks{
		Catalog:  a.spawnLocked(func(ctx context.Context) { a.fetcher.FetchCatalog(ctx, "") }),
		Featured: a.spawnLocked(a.fetcher.FetchFeatured),
		Session:  a.spawnLocked(a.sessions.Bootstrap),
	}
	a.tasks = &tasks
	a.mu.Unlock()

	a.logger.Info("app", "page initialising", nil)
	return tasks
}

// spawnLocked runs fn on its own goroutine with the page context. Callers hold
// a.mu. After Dispose it returns an already closed channel.
func (a *App) spawnLocked(fn func(ctx context.Context)) <-chan struct{} {
	done := make(chan struct{})
	if a.disposed {
		close(done)
		return done
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer close(done)
		fn(a.ctx)
	}()
	return done
}

func (a *App) spawn(fn func(ctx context.Context)) <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.spawnLocked(fn)
}

func (a *App) isDisposed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.disposed
}

// SetSearchTerm records the text typed into the search box.
func (a *App) SetSearchTerm(term string) {
	if a.isDisposed() {
		return
	}
	a.page.SetSearchTerm(term)
}

// SubmitSearch refetches the catalog for the current term. The refreshed
// catalog is still narrowed client-side by the term. The returned channel is
// closed when the fetch settles.
func (a *App) SubmitSearch() <-chan struct{} {
	term := a.page.SearchTerm()
	return a.spawn(func(ctx context.Context) {
		a.fetcher.FetchCatalog(ctx, term)
	})
}

// Login signs the visitor in and returns the installed session.
func (a *App) Login(ctx context.Context, creds model.Credentials) *model.Session {
	if a.isDisposed() {
		return nil
	}
	return a.sessions.Login(ctx, creds)
}

// Logout signs the visitor out.
func (a *App) Logout(ctx context.Context) {
	if a.isDisposed() {
		return
	}
	a.sessions.Logout(ctx)
}

// WaitReady blocks until the page leaves the loading phase or ctx is done.
func (a *App) WaitReady(ctx context.Context) error {
	select {
	case <-a.page.Ready():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// View returns the current page snapshot.
func (a *App) View() View {
	snap := a.page.Snapshot()
	categories := make([]model.Category, len(model.Categories))
	copy(categories, model.Categories)
	return View{
		Phase:      snap.Phase,
		Featured:   snap.Featured,
		Videos:     snap.Videos,
		SearchTerm: snap.SearchTerm,
		Session:    snap.Session,
		Categories: categories,
	}
}

// Suggestions returns up to five titles completing q. Short queries return
// nothing without a request; failures are logged and yield nothing.
func (a *App) Suggestions(ctx context.Context, q string) []string {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < minSuggestionRunes || a.isDisposed() {
		return []string{}
	}
	titles, err := a.svc.Suggestions(ctx, q)
	if err != nil {
		a.logger.Warn("app", "suggestions failed", map[string]any{
			"kind":  catalog.Kind(err),
			"error": err.Error(),
			"q":     q,
		})
		return []string{}
	}
	if len(titles) > 5 {
		titles = titles[:5]
	}
	return titles
}

// OpenVideo fetches one video for a detail view. It does not touch page state.
func (a *App) OpenVideo(ctx context.Context, id int64) (*model.Video, error) {
	if a.isDisposed() {
		return nil, ErrDisposed
	}
	video, err := a.svc.Video(ctx, id)
	if err != nil {
		a.logger.Warn("app", "open video failed", map[string]any{
			"kind":  catalog.Kind(err),
			"error": err.Error(),
			"id":    id,
		})
		return nil, err
	}
	return video, nil
}

// Dispose cancels in-flight work and waits for it. Later actions are no-ops.
func (a *App) Dispose() {
	a.mu.Lock()
	if a.disposed {
		a.mu.Unlock()
		return
	}
	a.disposed = true
	stop := a.stopLink
	a.stopLink = nil
	a.mu.Unlock()

	if stop != nil {
		stop()
	}
	a.cancel()
	a.wg.Wait()
	a.logger.Info("app", "page disposed", nil)
}
