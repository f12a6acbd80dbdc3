package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/recipebox/config"
	"github.com/use-agent/recipebox/extractor"
	"github.com/use-agent/recipebox/models"
	"github.com/use-agent/recipebox/pipeline"
	"github.com/use-agent/recipebox/store"
)

const testKey = "test-api-key"

const pastaPage = `<h1>Pasta</h1><ul class="ingredients"><li>Flour</li><li>Water</li></ul><ol class="instructions"><li>Mix</li></ol>`

type stubSummarizer struct {
	text string
	err  error
}

func (s stubSummarizer) Name() string { return "stub" }

func (s stubSummarizer) Summarize(context.Context, models.ExtractedRecord) (string, error) {
	return s.text, s.err
}

func newTestRouter(t *testing.T, sum stubSummarizer) (*gin.Engine, store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server: config.ServerConfig{Mode: gin.TestMode},
		Auth:   config.AuthConfig{Enabled: true, APIKeys: []string{testKey}},
		Store:  config.StoreConfig{Backend: "memory"},
	}
	st := store.NewMemory()
	orch := pipeline.New(extractor.New(extractor.DefaultProfiles()), sum, st)
	return NewRouter(cfg, Deps{
		Orchestrator: orch,
		Store:        st,
		Summarizer:   sum.Name(),
		Location:     time.UTC,
		StartTime:    time.Now(),
	}), st
}

func do(r *gin.Engine, method, target, body string, authed bool) (*httptest.ResponseRecorder, models.Outcome) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("X-API-Key", testKey)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out models.Outcome
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func crawlBody(pageURL, html string) string {
	b, _ := json.Marshal(models.CrawlRequest{URL: pageURL, HTML: html})
	return string(b)
}

func TestHealthNoAuth(t *testing.T) {
	r, _ := newTestRouter(t, stubSummarizer{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var h models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &h); err != nil {
		t.Fatal(err)
	}
	if h.Status != "healthy" || h.Store != "memory" || h.Summarizer != "stub" {
		t.Errorf("health = %+v", h)
	}
}

func TestAuthRequired(t *testing.T) {
	r, _ := newTestRouter(t, stubSummarizer{})

	w, out := do(r, http.MethodGet, "/api/v1/summaries", "", false)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if out.Error == nil || out.Error.Code != models.ErrCodeUnauthorized {
		t.Errorf("error = %+v", out.Error)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/summaries", nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("bearer status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/summaries", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key status = %d, want 401", rec.Code)
	}
}

func TestCrawlWithHTML(t *testing.T) {
	r, st := newTestRouter(t, stubSummarizer{text: "A simple pasta dish."})
	pageURL := "https://example.com/pasta"

	w, out := do(r, http.MethodPost, "/api/v1/summaries/crawl", crawlBody(pageURL, pastaPage), true)
	if w.Code != http.StatusOK || !out.Success {
		t.Fatalf("status = %d, outcome = %+v", w.Code, out)
	}
	if out.Summary == nil || out.Summary.GeneratedText != "A simple pasta dish." {
		t.Errorf("summary = %+v", out.Summary)
	}
	if _, ok, _ := st.Get(context.Background(), pageURL); !ok {
		t.Error("summary not stored")
	}
}

func TestCrawlEmptyPageIsReported(t *testing.T) {
	r, _ := newTestRouter(t, stubSummarizer{text: "x"})
	w, out := do(r, http.MethodPost, "/api/v1/summaries/crawl", crawlBody("https://example.com/blog", "<p>hello</p>"), true)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if out.Success || out.Status.Kind != models.StatusReported || out.Status.Message != models.MsgNoRecipes {
		t.Errorf("outcome = %+v", out)
	}
}

func TestCrawlUpstreamFailure(t *testing.T) {
	upstreamErr := models.NewPipelineError(models.ErrCodeRemoteService,
		"summarization API request failed with status 500: Internal Server Error", nil)
	r, _ := newTestRouter(t, stubSummarizer{err: upstreamErr})

	w, out := do(r, http.MethodPost, "/api/v1/summaries/crawl", crawlBody("https://example.com/pasta", pastaPage), true)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
	if !strings.Contains(out.Status.Message, "status 500") {
		t.Errorf("message = %q", out.Status.Message)
	}
}

func TestCrawlValidation(t *testing.T) {
	r, _ := newTestRouter(t, stubSummarizer{text: "x"})
	tests := []struct {
		name string
		body string
	}{
		{"missing url", `{"html":"<h1>x</h1>"}`},
		{"bad url", `{"url":"not a url","html":"<h1>x</h1>"}`},
		{"no html and no fetcher", `{"url":"https://example.com/a"}`},
		{"timeout too large", `{"url":"https://example.com/a","timeout":500}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, out := do(r, http.MethodPost, "/api/v1/summaries/crawl", tt.body, true)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			if out.Error == nil || out.Error.Code != models.ErrCodeInvalidInput {
				t.Errorf("error = %+v", out.Error)
			}
		})
	}
}

func TestCurrentListDelete(t *testing.T) {
	r, st := newTestRouter(t, stubSummarizer{})
	ctx := context.Background()
	at := time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC)
	_ = st.Put(ctx, "https://a.com/pasta", &models.StoredSummary{Title: "Pasta", GeneratedText: "Boil.\nServe.", SavedAt: at})
	_ = st.Put(ctx, "https://b.com/soup", &models.StoredSummary{Title: "Soup", GeneratedText: "Simmer.", SavedAt: at.Add(time.Hour)})

	// current: hit and miss
	w, out := do(r, http.MethodGet, "/api/v1/summaries/current?url="+url.QueryEscape("https://a.com/pasta"), "", true)
	if w.Code != http.StatusOK || out.Summary == nil || out.Summary.Title != "Pasta" {
		t.Errorf("current hit: status = %d, outcome = %+v", w.Code, out)
	}
	if !strings.Contains(out.Rendered, "Boil.<br>Serve.") {
		t.Errorf("current rendered = %q", out.Rendered)
	}
	w, out = do(r, http.MethodGet, "/api/v1/summaries/current?url="+url.QueryEscape("https://c.com/none"), "", true)
	if w.Code != http.StatusNotFound || out.Error == nil || out.Error.Code != models.ErrCodeNotFound {
		t.Errorf("current miss: status = %d, outcome = %+v", w.Code, out)
	}

	// list as html
	w, out = do(r, http.MethodGet, "/api/v1/summaries?format=html", "", true)
	if w.Code != http.StatusOK || len(out.Entries) != 2 {
		t.Fatalf("list: status = %d, entries = %d", w.Code, len(out.Entries))
	}
	if out.Entries[0].Key != "https://b.com/soup" {
		t.Errorf("first entry = %q, want newest", out.Entries[0].Key)
	}
	if strings.Count(out.Rendered, `class="recipe"`) != 2 || !strings.Contains(out.Rendered, `data-url="https://a.com/pasta"`) {
		t.Errorf("rendered = %q", out.Rendered)
	}

	// bad format
	w, _ = do(r, http.MethodGet, "/api/v1/summaries?format=pdf", "", true)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad format status = %d, want 400", w.Code)
	}

	// delete one, then list again
	w, out = do(r, http.MethodDelete, "/api/v1/summaries?url="+url.QueryEscape("https://a.com/pasta"), "", true)
	if w.Code != http.StatusOK || !out.Success {
		t.Errorf("delete: status = %d, outcome = %+v", w.Code, out)
	}
	_, out = do(r, http.MethodGet, "/api/v1/summaries", "", true)
	if len(out.Entries) != 1 || out.Entries[0].Key != "https://b.com/soup" {
		t.Errorf("entries after delete = %+v", out.Entries)
	}

	// delete missing key is fine
	w, _ = do(r, http.MethodDelete, "/api/v1/summaries?url="+url.QueryEscape("https://a.com/pasta"), "", true)
	if w.Code != http.StatusOK {
		t.Errorf("repeat delete status = %d, want 200", w.Code)
	}
}

func TestListEmptyIsReported(t *testing.T) {
	r, _ := newTestRouter(t, stubSummarizer{})
	w, out := do(r, http.MethodGet, "/api/v1/summaries?format=markdown", "", true)
	if w.Code != http.StatusOK || out.Success || out.Status.Message != models.MsgNoSavedRecipes {
		t.Errorf("status = %d, outcome = %+v", w.Code, out)
	}
}

func TestMapErrorToStatusViaStorageFailure(t *testing.T) {
	r, st := newTestRouter(t, stubSummarizer{})
	_ = st.Close()
	w, out := do(r, http.MethodGet, "/api/v1/summaries", "", true)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	if out.Error == nil || out.Error.Code != models.ErrCodeStorageUnavailable {
		t.Errorf("error = %+v", out.Error)
	}
}
