package tab

import (
	"context"
	"errors"
	"testing"

	"github.com/use-agent/recipebox/engine"
	"github.com/use-agent/recipebox/models"
)

func TestStaticResolve(t *testing.T) {
	src := Static{URL: "https://example.com/pasta", HTML: `<h1>Pasta</h1><ul class="ingredients"><li>flour</li></ul>`}

	got, err := src.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	if got.URL != src.URL {
		t.Errorf("URL = %q, want %q", got.URL, src.URL)
	}
	doc, err := got.Document()
	if err != nil {
		t.Fatalf("Document error = %v", err)
	}
	if h := doc.Find("h1").Text(); h != "Pasta" {
		t.Errorf("h1 = %q, want %q", h, "Pasta")
	}
	again, _ := got.Document()
	if again != doc {
		t.Error("Document parsed twice")
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url string
		ok  bool
	}{
		{"https://example.com/a", true},
		{"http://example.com", true},
		{"", false},
		{"example.com/recipe", false},
		{"ftp://example.com/x", false},
		{"chrome://settings", false},
	}
	for _, tt := range tests {
		err := ValidateURL(tt.url)
		if (err == nil) != tt.ok {
			t.Errorf("ValidateURL(%q) error = %v, want ok=%v", tt.url, err, tt.ok)
		}
		if err != nil && models.CodeOf(err) != models.ErrCodeInvalidInput {
			t.Errorf("ValidateURL(%q) code = %q, want %q", tt.url, models.CodeOf(err), models.ErrCodeInvalidInput)
		}
	}
}

type fakeFetcher struct {
	req *engine.FetchRequest
	res *engine.FetchResult
	err error
}

func (f *fakeFetcher) Fetch(_ context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	f.req = req
	return f.res, f.err
}

func TestRemoteResolve(t *testing.T) {
	f := &fakeFetcher{res: &engine.FetchResult{
		HTML:     "<h1>Soup</h1>",
		Title:    "Soup | Site",
		FinalURL: "https://www.example.com/soup/",
	}}
	src := Remote{URL: "https://example.com/soup", Fetcher: f, Stealth: true}

	got, err := src.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	if got.URL != "https://example.com/soup" {
		t.Errorf("URL = %q, want requested url", got.URL)
	}
	if got.Title != "Soup | Site" || got.HTML != "<h1>Soup</h1>" {
		t.Errorf("tab = %+v", got)
	}
	if !f.req.Stealth {
		t.Error("Stealth not forwarded to fetcher")
	}
}

func TestRemoteResolveFailure(t *testing.T) {
	f := &fakeFetcher{err: errors.New("dial tcp: connection refused")}
	_, err := Remote{URL: "https://example.com/x", Fetcher: f}.Resolve(context.Background())
	if code := models.CodeOf(err); code != models.ErrCodeNavigation {
		t.Errorf("code = %q, want %q", code, models.ErrCodeNavigation)
	}

	f = &fakeFetcher{}
	_, err = Remote{URL: "not a url", Fetcher: f}.Resolve(context.Background())
	if code := models.CodeOf(err); code != models.ErrCodeInvalidInput {
		t.Errorf("code = %q, want %q", code, models.ErrCodeInvalidInput)
	}
	if f.req != nil {
		t.Error("fetcher called for invalid url")
	}
}

func TestPickActive(t *testing.T) {
	tests := []struct {
		name  string
		cands []candidate
		want  string
	}{
		{"none", nil, ""},
		{"focused wins", []candidate{
			{url: "https://a.com", visible: true},
			{url: "https://b.com", visible: true, focused: true},
		}, "https://b.com"},
		{"visible over hidden", []candidate{
			{url: "https://a.com"},
			{url: "https://b.com", visible: true},
		}, "https://b.com"},
		{"first as fallback", []candidate{
			{url: "https://a.com"},
			{url: "https://b.com"},
		}, "https://a.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pickActive(tt.cands)
			var url string
			if got != nil {
				url = got.url
			}
			if url != tt.want {
				t.Errorf("pickActive = %q, want %q", url, tt.want)
			}
		})
	}
}
