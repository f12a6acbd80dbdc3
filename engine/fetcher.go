package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/recipebox/config"
	"github.com/use-agent/recipebox/models"
)

// Fetcher is the server-side page fetcher: the dispatcher plus the
// resources it owns.
type Fetcher struct {
	dispatcher *Dispatcher
	memory     *DomainMemory
	browser    *Browser
	fetchCfg   config.FetchConfig
}

// NewFetcher wires the HTTP engine and, when enabled, the two rod engines
// sharing one launched browser.
func NewFetcher(cfg *config.Config) (*Fetcher, error) {
	httpEngine := NewHTTPEngine(cfg.Engine.HTTPTimeout)
	engines := []Engine{httpEngine}

	var browser *Browser
	if cfg.Engine.EnableBrowser {
		httpEngine.WithShellDetection()
		b, err := LaunchBrowser(cfg.Browser, cfg.Fetch)
		if err != nil {
			return nil, err
		}
		browser = b
		engines = append(engines, NewRodEngine(b, false), NewRodEngine(b, true))
	}

	memory := NewDomainMemory(cfg.Engine.MemoryTTL)
	f := &Fetcher{
		dispatcher: NewDispatcher(engines, cfg.Engine.EscalationDelays, memory),
		memory:     memory,
		browser:    browser,
		fetchCfg:   cfg.Fetch,
	}
	slog.Info("fetcher ready",
		"engines", f.dispatcher.Engines(),
		"delays", cfg.Engine.EscalationDelays,
	)
	return f, nil
}

// NewFetcherWith builds a Fetcher over the given engines. It owns no
// browser.
func NewFetcherWith(engines []Engine, delays []time.Duration, fetchCfg config.FetchConfig) *Fetcher {
	return &Fetcher{
		dispatcher: NewDispatcher(engines, delays, nil),
		fetchCfg:   fetchCfg,
	}
}

// Fetch races the engines for req under the request timeout, clamped to
// the configured maximum. Failures come back as NAVIGATION_FAILED or
// FETCH_TIMEOUT pipeline errors.
func (f *Fetcher) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if req.URL == "" {
		return nil, models.NewPipelineError(models.ErrCodeInvalidInput, "url is required", nil)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = f.fetchCfg.DefaultTimeout
	}
	if f.fetchCfg.MaxTimeout > 0 && timeout > f.fetchCfg.MaxTimeout {
		timeout = f.fetchCfg.MaxTimeout
	}
	r := *req
	r.Timeout = timeout

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := f.dispatcher.Dispatch(ctx, &r)
	if err != nil {
		return nil, ClassifyError(err, "failed to fetch "+req.URL)
	}
	return result, nil
}

// Close stops the domain memory and kills the browser, if any.
func (f *Fetcher) Close() {
	if f.memory != nil {
		f.memory.Stop()
	}
	if f.browser != nil {
		f.browser.Close()
	}
}
