package catalog

import (
	"context"

	"github.com/Its-donkey/ivideo/internal/ui/model"
	"github.com/Its-donkey/ivideo/internal/ui/state"
	"github.com/Its-donkey/ivideo/logging"
)

// Source is the part of the service contract the fetcher needs.
type Source interface {
	Videos(ctx context.Context, search string) ([]model.Video, error)
	Featured(ctx context.Context) (*model.FeaturedVideo, error)
}

// Fetcher loads the catalog and the featured video into a page.
// Failures are logged and never returned.
type Fetcher struct {
	source Source
	page   *state.Page
	logger *logging.Logger
	retry  RetryPolicy
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithCatalogRetry retries failed catalog fetches under p. The featured fetch
// is never retried.
func WithCatalogRetry(p RetryPolicy) FetcherOption {
	return func(f *Fetcher) {
		f.retry = p
	}
}

// NewFetcher wires a fetcher to page.
func NewFetcher(source Source, page *state.Page, logger *logging.Logger, opts ...FetcherOption) *Fetcher {
	if logger == nil {
		logger = logging.Discard()
	}
	f := &Fetcher{source: source, page: page, logger: logger}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchCatalog replaces the page catalog with the videos matching term.
// On failure the previous catalog is kept.
func (f *Fetcher) FetchCatalog(ctx context.Context, term string) {
	ticket := f.page.Issue(state.ResourceCatalog)
	videos, err := withRetry(ctx, f.retry, func() ([]model.Video, error) {
		return f.source.Videos(ctx, term)
	})
	if err != nil {
		f.logFailure("catalog fetch failed", ticket, err, map[string]any{"search": term})
		return
	}
	if !f.page.ApplyCatalog(ticket, videos) {
		f.logStale(ticket)
		return
	}
	f.logger.Debug("catalog", "catalog replaced", map[string]any{
		"seq":    ticket.Seq,
		"count":  len(videos),
		"search": term,
	})
}

// FetchFeatured replaces the featured video. Whether it succeeds or fails, the
// page leaves the loading phase afterwards.
func (f *Fetcher) FetchFeatured(ctx context.Context) {
	ticket := f.page.Issue(state.ResourceFeatured)
	defer func() {
		if f.page.MarkReady() {
			f.logger.Info("catalog", "page ready", nil)
		}
	}()

	featured, err := f.source.Featured(ctx)
	if err != nil {
		f.logFailure("featured fetch failed", ticket, err, nil)
		return
	}
	if !f.page.ApplyFeatured(ticket, featured) {
		f.logStale(ticket)
		return
	}
	fields := map[string]any{"seq": ticket.Seq}
	if featured != nil {
		fields["id"] = featured.ID
	}
	f.logger.Debug("catalog", "featured replaced", fields)
}

func (f *Fetcher) logFailure(msg string, ticket state.Ticket, err error, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["resource"] = ticket.Resource.String()
	fields["seq"] = ticket.Seq
	fields["kind"] = Kind(err)
	f.logger.Error("catalog", msg, err, fields)
}

func (f *Fetcher) logStale(ticket state.Ticket) {
	f.logger.Debug("catalog", "stale response dropped", map[string]any{
		"resource": ticket.Resource.String(),
		"seq":      ticket.Seq,
	})
}
