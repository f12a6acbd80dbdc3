package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/use-agent/recipebox/models"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
)

// OpenAIClient summarizes through any OpenAI-compatible chat completions API.
// It uses net/http directly; no third-party SDK needed.
type OpenAIClient struct {
	httpClient *http.Client
	params     Params
}

// NewOpenAIClient creates a client. Pass nil to use a default http.Client.
func NewOpenAIClient(httpClient *http.Client, params Params) *OpenAIClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if params.BaseURL == "" {
		params.BaseURL = defaultOpenAIBaseURL
	}
	if params.Model == "" {
		params.Model = defaultOpenAIModel
	}
	return &OpenAIClient{httpClient: httpClient, params: params}
}

func (c *OpenAIClient) Name() string { return "openai:" + c.params.Model }

// chatRequest is the OpenAI chat completion request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the minimal OpenAI chat completion response we need.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Summarize sends the recipe prompt as a single user message.
func (c *OpenAIClient) Summarize(ctx context.Context, rec models.ExtractedRecord) (string, error) {
	reqBody := chatRequest{
		Model: c.params.Model,
		Messages: []chatMessage{
			{Role: "user", Content: BuildPrompt(rec)},
		},
		Temperature: 0,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", remoteError("failed to encode summarization request", err)
	}

	// Build URL: baseURL + /chat/completions
	endpoint := strings.TrimRight(c.params.BaseURL, "/") + "/chat/completions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", remoteError("failed to create summarization request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.params.APIKey)

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

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", remoteError("failed to parse summarization response", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", remoteError("summarization response had no choices", nil)
	}

	text := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if text == "" {
		return "", remoteError(fmt.Sprintf("%s returned empty text", c.Name()), nil)
	}
	return text, nil
}
