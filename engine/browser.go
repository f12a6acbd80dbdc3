package engine

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/recipebox/config"
	"github.com/use-agent/recipebox/models"
	"github.com/ysmood/gson"
)

// Browser owns a launched headless Chrome and a pool of reusable pages.
// It is safe for concurrent use.
type Browser struct {
	browser  *rod.Browser
	pages    *pagePool[*rod.Page]
	maxPages int
	fetchCfg config.FetchConfig
}

// LaunchBrowser starts Chrome with automation fingerprints removed and
// creates the page pool.
func LaunchBrowser(browserCfg config.BrowserConfig, fetchCfg config.FetchConfig) (*Browser, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.DefaultProxy != "" {
		l = l.Proxy(browserCfg.DefaultProxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeBrowser, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewPipelineError(models.ErrCodeBrowser, "failed to connect to browser", err)
	}

	maxPages := browserCfg.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}
	newPage := func() (*rod.Page, error) {
		return browser.Page(proto.TargetCreateTarget{})
	}
	closePage := func(p *rod.Page) { _ = p.Close() }
	return &Browser{
		browser:  browser,
		pages:    newPagePool(maxPages, newPage, closePage),
		maxPages: maxPages,
		fetchCfg: fetchCfg,
	}, nil
}

// ActivePages reports how many pages are checked out of the pool.
func (b *Browser) ActivePages() int { return b.pages.InUse() }

// Fetch loads req.URL in a pooled page and returns the rendered HTML.
//
// Stealth scripts, extra headers and resource blocking are installed before
// navigation because they only apply to later loads. The page is always
// reset to about:blank and returned to the pool, which retires pages
// that keep failing.
func (b *Browser) Fetch(ctx context.Context, req *FetchRequest) (res *FetchResult, err error) {
	// ── 1. Acquire page from pool ───────────────────────────────────
	entry, err := b.pages.Get(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ClassifyError(err, "timed out waiting for a browser page")
		}
		return nil, models.NewPipelineError(models.ErrCodeBrowser, "failed to acquire page from pool", err)
	}
	page := entry.item
	defer func() {
		ok := err == nil
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("browser: failed to reset page", "error", navErr)
			ok = false
		}
		b.pages.Put(entry, ok)
	}()

	// ── 2. Stealth injection ────────────────────────────────────────
	if req.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}

	// ── 3. Extra headers ────────────────────────────────────────────
	headers := make(map[string]string, len(req.Headers)+1)
	if u, parseErr := url.Parse(req.URL); parseErr == nil {
		headers["Referer"] = "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())
	}
	for k, v := range req.Headers {
		headers[k] = v
	}
	_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}.Call(page)

	// ── 4. Resource blocking ────────────────────────────────────────
	if router := setupHijack(page, b.fetchCfg.BlockedResourceTypes); router != nil {
		defer func() { _ = router.Stop() }()
	}

	p := page.Context(ctx)

	// ── 5. Navigate ─────────────────────────────────────────────────
	navPage := p
	if b.fetchCfg.NavigationTimeout > 0 {
		navPage = p.Timeout(b.fetchCfg.NavigationTimeout)
	}
	if err := navPage.Navigate(req.URL); err != nil {
		return nil, ClassifyError(err, "navigation to recipe page failed")
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, using current DOM", "error", err)
	}

	// ── 6. Read the rendered document ───────────────────────────────
	return readPage(p, req.URL)
}

// Close drains the page pool and kills the browser process.
func (b *Browser) Close() {
	b.pages.Cleanup()
	if err := b.browser.Close(); err != nil {
		slog.Warn("browser: close failed", "error", err)
	}
	slog.Info("browser closed")
}

// ReadPage returns the current DOM of an already loaded page without
// navigating it. It is used to read the user's own tabs.
func ReadPage(ctx context.Context, page *rod.Page, fallbackURL string) (*FetchResult, error) {
	return readPage(page.Context(ctx), fallbackURL)
}

func readPage(p *rod.Page, fallbackURL string) (*FetchResult, error) {
	raw, err := p.HTML()
	if err != nil {
		return nil, ClassifyError(err, "failed to read page HTML")
	}
	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = fallbackURL
	}
	return &FetchResult{
		HTML:       raw,
		Title:      evalStringOrEmpty(p, `() => document.title`),
		StatusCode: navigationStatus(p),
		FinalURL:   finalURL,
	}, nil
}

// navigationStatus reads the document's HTTP status from the Navigation
// Timing API. Zero means unknown.
func navigationStatus(p *rod.Page) int {
	res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch (e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain map to proto.NetworkHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// ClassifyError wraps a browser or fetch failure as a typed pipeline
// error. Deadlines become FETCH_TIMEOUT, everything else NAVIGATION_FAILED.
// Errors that are already typed pass through.
func ClassifyError(err error, msg string) error {
	var pe *models.PipelineError
	switch {
	case errors.As(err, &pe):
		return pe
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewPipelineError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewPipelineError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewPipelineError(models.ErrCodeNavigation, msg, err)
	}
}
