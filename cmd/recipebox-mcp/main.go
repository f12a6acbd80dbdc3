package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/recipebox/models"
	"github.com/use-agent/recipebox/render"
)

func main() {
	apiURL := os.Getenv("RECIPEBOX_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("RECIPEBOX_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "RECIPEBOX_API_KEY is required")
		os.Exit(1)
	}

	if err := server.ServeStdio(newServer(apiURL, apiKey)); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(apiURL, apiKey string) *server.MCPServer {
	s := server.NewMCPServer(
		"recipebox",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	crawlTool := mcp.NewTool("crawl_recipe",
		mcp.WithDescription("Read the recipe on a web page, summarize it with AI and save the summary under the page URL. Returns the summary."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the recipe page"),
		),
		mcp.WithString("html",
			mcp.Description("The page HTML, if already available. When omitted the server fetches the page."),
		),
		mcp.WithBoolean("stealth",
			mcp.Description("Fetch with the stealth browser engine from the start"),
		),
	)
	s.AddTool(crawlTool, handleCrawlRecipe(apiURL, apiKey))

	getTool := mcp.NewTool("get_summary",
		mcp.WithDescription("Return the saved recipe summary for a page URL, if one exists."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the recipe page"),
		),
	)
	s.AddTool(getTool, handleGetSummary(apiURL, apiKey))

	listTool := mcp.NewTool("list_summaries",
		mcp.WithDescription("List every saved recipe summary, newest first."),
		mcp.WithString("format",
			mcp.Description("Output format: 'text' (default) or 'markdown'"),
			mcp.Enum("text", "markdown"),
		),
	)
	s.AddTool(listTool, handleListSummaries(apiURL, apiKey))

	deleteTool := mcp.NewTool("delete_summary",
		mcp.WithDescription("Delete the saved recipe summary for a page URL. Deleting a page with no summary succeeds."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the recipe page"),
		),
	)
	s.AddTool(deleteTool, handleDeleteSummary(apiURL, apiKey))

	return s
}

// apiRequest sends a request to the recipebox API and decodes the Outcome
// it answers with. payload is JSON-encoded when non-nil.
func apiRequest(ctx context.Context, client *http.Client, method, apiURL, apiKey, path string, payload interface{}) (*models.Outcome, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var out models.Outcome
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("parse response (status %d): %w", resp.StatusCode, err)
	}
	return &out, nil
}

// outcomeError formats a failed or reported outcome for the tool result.
func outcomeError(out *models.Outcome, fallback string) *mcp.CallToolResult {
	if out.Error != nil {
		return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", out.Error.Code, out.Error.Message))
	}
	if out.Status.Message != "" {
		return mcp.NewToolResultError(out.Status.Message)
	}
	return mcp.NewToolResultError(fallback)
}

func keyPath(path, pageURL string) string {
	return path + "?" + url.Values{"url": {pageURL}}.Encode()
}

func handleCrawlRecipe(apiURL, apiKey string) server.ToolHandlerFunc {
	// No client timeout: summarization has no deadline of its own.
	client := &http.Client{}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		pageURL, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := models.CrawlRequest{
			URL:     pageURL,
			HTML:    request.GetString("html", ""),
			Stealth: request.GetBool("stealth", false),
		}
		out, err := apiRequest(ctx, client, http.MethodPost, apiURL, apiKey, "/api/v1/summaries/crawl", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("crawl request failed: %v", err)), nil
		}
		if !out.Success || out.Summary == nil {
			return outcomeError(out, "crawl failed"), nil
		}
		return mcp.NewToolResultText(render.Text(out.Summary, time.Local)), nil
	}
}

func handleGetSummary(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		pageURL, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		out, err := apiRequest(ctx, client, http.MethodGet, apiURL, apiKey, keyPath("/api/v1/summaries/current", pageURL), nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("get request failed: %v", err)), nil
		}
		if out.Error != nil && out.Error.Code == models.ErrCodeNotFound {
			return mcp.NewToolResultText("No summary saved for " + pageURL), nil
		}
		if !out.Success || out.Summary == nil {
			return outcomeError(out, "get failed"), nil
		}
		return mcp.NewToolResultText(render.Text(out.Summary, time.Local)), nil
	}
}

func handleListSummaries(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		format := request.GetString("format", "text")

		path := "/api/v1/summaries"
		if format == "markdown" {
			path += "?format=markdown"
		}
		out, err := apiRequest(ctx, client, http.MethodGet, apiURL, apiKey, path, nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list request failed: %v", err)), nil
		}
		if out.Status.Kind == models.StatusError {
			return outcomeError(out, "list failed"), nil
		}
		if len(out.Entries) == 0 {
			return mcp.NewToolResultText(models.MsgNoSavedRecipes), nil
		}

		if format == "markdown" && out.Rendered != "" {
			return mcp.NewToolResultText(out.Rendered), nil
		}
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%d saved recipes:\n\n", len(out.Entries)))
		sb.WriteString(render.TextList(out.Entries, time.Local))
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleDeleteSummary(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		pageURL, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		out, err := apiRequest(ctx, client, http.MethodDelete, apiURL, apiKey, keyPath("/api/v1/summaries", pageURL), nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("delete request failed: %v", err)), nil
		}
		if !out.Success {
			return outcomeError(out, "delete failed"), nil
		}
		return mcp.NewToolResultText(out.Status.Message), nil
	}
}
