package tab

import (
	"context"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/use-agent/recipebox/engine"
	"github.com/use-agent/recipebox/models"
)

// Browser reads the active tab of the user's own Chrome, started with
// --remote-debugging-port. The connection is opened on first use and
// reused. It is never closed from here: closing a rod.Browser quits Chrome.
type Browser struct {
	// ControlURL is the DevTools endpoint, http://host:port or ws://...
	ControlURL string

	mu      sync.Mutex
	browser *rod.Browser
}

// NewBrowser creates a Browser source for the given DevTools endpoint.
func NewBrowser(controlURL string) *Browser {
	return &Browser{ControlURL: controlURL}
}

func (b *Browser) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		return b.browser, nil
	}

	wsURL := b.ControlURL
	if !strings.HasPrefix(wsURL, "ws://") && !strings.HasPrefix(wsURL, "wss://") {
		resolved, err := launcher.ResolveURL(wsURL)
		if err != nil {
			return nil, models.NewPipelineError(models.ErrCodeBrowser, "failed to resolve DevTools endpoint "+b.ControlURL, err)
		}
		wsURL = resolved
	}

	browser := rod.New().ControlURL(wsURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewPipelineError(models.ErrCodeBrowser, "failed to connect to CDP URL", err)
	}
	b.browser = browser
	return browser, nil
}

// candidate is a page target and its visibility, as reported by the page.
type candidate struct {
	page    *rod.Page
	url     string
	visible bool
	focused bool
}

// activePage returns the focused page, else the first visible one, else
// the first web page. Internal pages such as chrome:// are skipped.
func (b *Browser) activePage(ctx context.Context) (*candidate, error) {
	browser, err := b.connect()
	if err != nil {
		return nil, err
	}
	pages, err := browser.Context(ctx).Pages()
	if err != nil {
		return nil, engine.ClassifyError(err, "failed to list browser tabs")
	}

	var cands []candidate
	for _, page := range pages {
		info, err := page.Info()
		if err != nil || !isWebURL(info.URL) {
			continue
		}
		c := candidate{page: page, url: info.URL}
		if res, err := page.Context(ctx).Eval(`() => [document.visibilityState === "visible", document.hasFocus()]`); err == nil {
			arr := res.Value.Arr()
			if len(arr) == 2 {
				c.visible = arr[0].Bool()
				c.focused = arr[1].Bool()
			}
		}
		cands = append(cands, c)
	}

	best := pickActive(cands)
	if best == nil {
		return nil, models.NewPipelineError(models.ErrCodeNavigation, "no open web page found in browser", nil)
	}
	return best, nil
}

func pickActive(cands []candidate) *candidate {
	for i := range cands {
		if cands[i].focused {
			return &cands[i]
		}
	}
	for i := range cands {
		if cands[i].visible {
			return &cands[i]
		}
	}
	if len(cands) > 0 {
		return &cands[0]
	}
	return nil
}

func isWebURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

func (b *Browser) CurrentURL(ctx context.Context) (string, error) {
	c, err := b.activePage(ctx)
	if err != nil {
		return "", err
	}
	return c.url, nil
}

// Resolve reads the active page's current DOM without reloading it, so
// whatever the user sees, including script-rendered content, is extracted.
func (b *Browser) Resolve(ctx context.Context) (*Tab, error) {
	c, err := b.activePage(ctx)
	if err != nil {
		return nil, err
	}
	res, err := engine.ReadPage(ctx, c.page, c.url)
	if err != nil {
		return nil, err
	}
	return &Tab{URL: c.url, Title: res.Title, HTML: res.HTML}, nil
}
