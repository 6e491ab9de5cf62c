package preview

import (
	"context"
	"log/slog"

	"github.com/iedon/zine-go/data"
)

// Source fetches the preview of a single URL.
type Source interface {
	Fetch(ctx context.Context, url string) (data.Preview, error)
}

// Link pairs a URL with its preview.
type Link struct {
	URL         string
	Title       string
	Description string
}

// Outcomes reported to an Observer.
const (
	ResultCached  = "cached"
	ResultFetched = "fetched"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

// Observer is told the outcome of every URL a Resolver handles.
type Observer interface {
	ObservePreview(result string)
}

// Resolver serves previews from the cache store and fills misses from a Source.
type Resolver struct {
	store    *data.Store
	source   Source
	logger   *slog.Logger
	observer Observer
}

// NewResolver builds a resolver. A nil source makes it cache-only.
func NewResolver(store *data.Store, source Source, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, source: source, logger: logger}
}

// SetObserver installs o. It must be called before the first Resolve.
func (r *Resolver) SetObserver(o Observer) {
	r.observer = o
}

func (r *Resolver) observe(result string) {
	if r.observer != nil {
		r.observer.ObservePreview(result)
	}
}

// Resolve returns previews for urls in order. URLs that are neither cached
// nor fetchable are skipped; fetch failures are logged, never returned.
func (r *Resolver) Resolve(ctx context.Context, urls []string) []Link {
	links := make([]Link, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, url := range urls {
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}

		preview, ok := r.store.URLPreview(url)
		switch {
		case ok:
			r.observe(ResultCached)
		case r.source == nil:
			r.observe(ResultSkipped)
			continue
		default:
			fetched, err := r.source.Fetch(ctx, url)
			if err != nil {
				r.observe(ResultFailed)
				r.logger.Warn("url preview", "url", url, "error", err)
				continue
			}
			r.store.InsertURLPreview(url, fetched)
			r.observe(ResultFetched)
			r.logger.Debug("url preview fetched", "url", url, "title", fetched.Title)
			preview = fetched
		}
		links = append(links, Link{URL: url, Title: preview.Title, Description: preview.Description})
	}
	return links
}
