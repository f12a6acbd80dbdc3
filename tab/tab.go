// Package tab resolves the "active tab": the page whose recipe is
// summarized. The page may be posted by a caller, fetched on the server,
// or read from the user's running Chrome.
package tab

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/recipebox/models"
)

// Source yields the active tab on demand.
type Source interface {
	// CurrentURL returns the tab's URL without loading its content.
	CurrentURL(ctx context.Context) (string, error)

	// Resolve returns the tab with its current document.
	Resolve(ctx context.Context) (*Tab, error)
}

// Tab is a loaded page.
type Tab struct {
	URL   string
	Title string
	HTML  string

	once sync.Once
	doc  *goquery.Document
	err  error
}

// Document parses HTML once and returns the shared document. Callers must
// treat it as read-only.
func (t *Tab) Document() (*goquery.Document, error) {
	t.once.Do(func() {
		t.doc, t.err = goquery.NewDocumentFromReader(strings.NewReader(t.HTML))
	})
	return t.doc, t.err
}

// ValidateURL checks that raw is an absolute http(s) URL.
func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return models.NewPipelineError(models.ErrCodeInvalidInput, "url is required", nil)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return models.NewPipelineError(models.ErrCodeInvalidInput, "invalid url: "+raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.NewPipelineError(models.ErrCodeInvalidInput, "url must be absolute http(s): "+raw, nil)
	}
	return nil
}
