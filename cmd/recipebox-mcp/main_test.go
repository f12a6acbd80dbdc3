package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/recipebox/models"
)

const testKey = "test-key"

var savedPie = &models.StoredSummary{
	Key:           "https://example.com/pie",
	Title:         "Apple Pie",
	GeneratedText: "Bake the pie.",
	SavedAt:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
}

type recorded struct {
	mu     sync.Mutex
	method string
	path   string
	url    string
}

func (r *recorded) get() (method, path, pageURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.method, r.path, r.url
}

// fakeAPI answers like the recipebox HTTP API and records the last request.
func fakeAPI(t *testing.T, status int, out models.Outcome) (*httptest.Server, *recorded) {
	t.Helper()
	last := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != testKey {
			t.Errorf("X-API-Key = %q, want %q", r.Header.Get("X-API-Key"), testKey)
		}
		last.mu.Lock()
		last.method, last.path, last.url = r.Method, r.URL.Path, r.URL.Query().Get("url")
		last.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(out)
	}))
	t.Cleanup(srv.Close)
	return srv, last
}

func callTool(t *testing.T, h server.ToolHandlerFunc, args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var texts []string
	for _, c := range res.Content {
		switch tc := c.(type) {
		case mcp.TextContent:
			texts = append(texts, tc.Text)
		case *mcp.TextContent:
			texts = append(texts, tc.Text)
		}
	}
	return strings.Join(texts, "\n"), res.IsError
}

func TestCrawlRecipe(t *testing.T) {
	srv, last := fakeAPI(t, http.StatusOK, models.Outcome{
		Success: true, Stage: models.StageDone, Status: models.Idle(models.MsgSaved), Summary: savedPie,
	})

	text, isErr := callTool(t, handleCrawlRecipe(srv.URL, testKey), map[string]any{"url": savedPie.Key})
	if isErr {
		t.Fatalf("unexpected tool error: %s", text)
	}
	if !strings.Contains(text, "Apple Pie") || !strings.Contains(text, "Bake the pie.") {
		t.Errorf("result = %q, want title and summary", text)
	}
	if method, path, _ := last.get(); method != http.MethodPost || path != "/api/v1/summaries/crawl" {
		t.Errorf("request = %s %s, want POST /api/v1/summaries/crawl", method, path)
	}
}

func TestCrawlRecipeFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		out    models.Outcome
		want   string
	}{
		{
			name:   "no recipe",
			status: http.StatusOK,
			out: models.Outcome{
				Stage: models.StageReported, Status: models.Reported(models.MsgNoRecipes),
				Error: &models.ErrorDetail{Code: models.ErrCodeExtractionEmpty, Message: models.MsgNoRecipes},
			},
			want: models.MsgNoRecipes,
		},
		{
			name:   "upstream failure",
			status: http.StatusBadGateway,
			out: models.Outcome{
				Stage: models.StageFailed, Status: models.Failed("summarization API request failed with status 500: boom"),
				Error: &models.ErrorDetail{Code: models.ErrCodeRemoteService, Message: "summarization API request failed with status 500: boom"},
			},
			want: "[" + models.ErrCodeRemoteService + "]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fakeAPI(t, tt.status, tt.out)
			text, isErr := callTool(t, handleCrawlRecipe(srv.URL, testKey), map[string]any{"url": savedPie.Key})
			if !isErr {
				t.Fatalf("IsError = false, want true (result %q)", text)
			}
			if !strings.Contains(text, tt.want) {
				t.Errorf("result = %q, want it to contain %q", text, tt.want)
			}
		})
	}
}

func TestMissingURL(t *testing.T) {
	handlers := map[string]server.ToolHandlerFunc{
		"crawl_recipe":   handleCrawlRecipe("http://127.0.0.1:1", testKey),
		"get_summary":    handleGetSummary("http://127.0.0.1:1", testKey),
		"delete_summary": handleDeleteSummary("http://127.0.0.1:1", testKey),
	}
	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			text, isErr := callTool(t, h, map[string]any{})
			if !isErr || text != "url is required" {
				t.Errorf("result = %q, IsError = %v", text, isErr)
			}
		})
	}
}

func TestGetSummary(t *testing.T) {
	srv, last := fakeAPI(t, http.StatusOK, models.Outcome{
		Success: true, Stage: models.StageDone, Status: models.Idle(""), Summary: savedPie,
	})
	text, isErr := callTool(t, handleGetSummary(srv.URL, testKey), map[string]any{"url": savedPie.Key})
	if isErr || !strings.Contains(text, "Bake the pie.") {
		t.Errorf("result = %q, IsError = %v", text, isErr)
	}
	if _, _, got := last.get(); got != savedPie.Key {
		t.Errorf("url query = %q, want %q", got, savedPie.Key)
	}
}

func TestGetSummaryMiss(t *testing.T) {
	srv, _ := fakeAPI(t, http.StatusNotFound, models.Outcome{
		Stage: models.StageIdle, Status: models.Idle(""),
		Error: &models.ErrorDetail{Code: models.ErrCodeNotFound, Message: "no saved summary"},
	})
	text, isErr := callTool(t, handleGetSummary(srv.URL, testKey), map[string]any{"url": savedPie.Key})
	if isErr {
		t.Errorf("IsError = true for a miss (result %q)", text)
	}
	if !strings.HasPrefix(text, "No summary saved") {
		t.Errorf("result = %q", text)
	}
}

func TestListSummaries(t *testing.T) {
	srv, _ := fakeAPI(t, http.StatusOK, models.Outcome{
		Success: true, Stage: models.StageDone, Status: models.Idle(""),
		Entries: []*models.StoredSummary{savedPie},
	})
	text, isErr := callTool(t, handleListSummaries(srv.URL, testKey), map[string]any{})
	if isErr || !strings.Contains(text, "1 saved recipes") || !strings.Contains(text, "Apple Pie") {
		t.Errorf("result = %q, IsError = %v", text, isErr)
	}
}

func TestListSummariesEmpty(t *testing.T) {
	srv, _ := fakeAPI(t, http.StatusOK, models.Outcome{
		Stage: models.StageReported, Status: models.Reported(models.MsgNoSavedRecipes),
	})
	text, isErr := callTool(t, handleListSummaries(srv.URL, testKey), map[string]any{})
	if isErr || text != models.MsgNoSavedRecipes {
		t.Errorf("result = %q, IsError = %v", text, isErr)
	}
}

func TestDeleteSummary(t *testing.T) {
	srv, last := fakeAPI(t, http.StatusOK, models.Outcome{
		Success: true, Stage: models.StageDone, Status: models.Idle(models.MsgDeleted),
	})
	text, isErr := callTool(t, handleDeleteSummary(srv.URL, testKey), map[string]any{"url": savedPie.Key})
	if isErr || text != models.MsgDeleted {
		t.Errorf("result = %q, IsError = %v", text, isErr)
	}
	if method, _, got := last.get(); method != http.MethodDelete || got != savedPie.Key {
		t.Errorf("request = %s url=%q, want DELETE url=%q", method, got, savedPie.Key)
	}
}
