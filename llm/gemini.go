package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/use-agent/recipebox/models"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-1.5-flash"
)

// GeminiClient calls the Gemini generateContent REST endpoint.
type GeminiClient struct {
	httpClient *http.Client
	params     Params
}

// NewGeminiClient creates a client. Pass nil to use a default http.Client.
func NewGeminiClient(httpClient *http.Client, params Params) *GeminiClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if params.BaseURL == "" {
		params.BaseURL = defaultGeminiBaseURL
	}
	if params.Model == "" {
		params.Model = defaultGeminiModel
	}
	return &GeminiClient{httpClient: httpClient, params: params}
}

func (c *GeminiClient) Name() string { return "gemini:" + c.params.Model }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Summarize posts the prompt and joins the text parts of the first candidate.
func (c *GeminiClient) Summarize(ctx context.Context, rec models.ExtractedRecord) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: BuildPrompt(rec)}},
		}},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", remoteError("failed to encode summarization request", err)
	}

	endpoint := strings.TrimRight(c.params.BaseURL, "/") +
		"/v1beta/models/" + url.PathEscape(c.params.Model) + ":generateContent"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", remoteError("failed to create summarization request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.params.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", remoteError("summarization request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", remoteError("failed to read summarization response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", classifyStatus(resp.StatusCode, respBody)
	}

	var gr geminiResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return "", remoteError("failed to parse summarization response", err)
	}
	if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
		return "", remoteError("prompt blocked: "+gr.PromptFeedback.BlockReason, nil)
	}
	if len(gr.Candidates) == 0 {
		return "", remoteError("summarization response had no candidates", nil)
	}

	var b strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", remoteError("summarization response had empty text", nil)
	}
	return text, nil
}
