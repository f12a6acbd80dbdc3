package tab

import (
	"context"
	"time"

	"github.com/use-agent/recipebox/engine"
)

// PageFetcher fetches a page server-side. *engine.Fetcher implements it.
type PageFetcher interface {
	Fetch(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error)
}

// Remote is a tab known only by URL. Resolve fetches it.
type Remote struct {
	URL     string
	Fetcher PageFetcher
	Timeout time.Duration
	Stealth bool
}

func (r Remote) CurrentURL(context.Context) (string, error) {
	if err := ValidateURL(r.URL); err != nil {
		return "", err
	}
	return r.URL, nil
}

// Resolve fetches the page. The tab keeps the requested URL even after
// redirects, since summaries are keyed by what the user asked for.
func (r Remote) Resolve(ctx context.Context) (*Tab, error) {
	u, err := r.CurrentURL(ctx)
	if err != nil {
		return nil, err
	}
	res, err := r.Fetcher.Fetch(ctx, &engine.FetchRequest{
		URL:     u,
		Timeout: r.Timeout,
		Stealth: r.Stealth,
	})
	if err != nil {
		return nil, engine.ClassifyError(err, "failed to fetch "+u)
	}
	return &Tab{URL: u, Title: res.Title, HTML: res.HTML}, nil
}
