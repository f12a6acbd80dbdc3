package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/cohere-ai/cohere-go/v2/core"
	"github.com/use-agent/recipebox/models"
)

const defaultCohereModel = "command-r-08-2024"

// CohereClient summarizes through the Cohere chat API using the official SDK.
type CohereClient struct {
	client *cohereclient.Client
	model  string
}

// NewCohereClient creates a client. Pass nil to use a default http.Client.
func NewCohereClient(httpClient *http.Client, params Params) *CohereClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if params.Model == "" {
		params.Model = defaultCohereModel
	}
	opts := []core.RequestOption{
		cohereclient.WithToken(params.APIKey),
		cohereclient.WithHTTPClient(httpClient),
		// One upstream call per summary; the SDK retries twice by default.
		cohereclient.WithMaxAttempts(1),
	}
	if params.BaseURL != "" {
		opts = append(opts, cohereclient.WithBaseURL(strings.TrimRight(params.BaseURL, "/")))
	}
	return &CohereClient{
		client: cohereclient.NewClient(opts...),
		model:  params.Model,
	}
}

func (c *CohereClient) Name() string { return "cohere:" + c.model }

// Summarize sends the prompt as a single chat message.
func (c *CohereClient) Summarize(ctx context.Context, rec models.ExtractedRecord) (string, error) {
	model := c.model
	resp, err := c.client.Chat(ctx, &cohere.ChatRequest{
		Message: BuildPrompt(rec),
		Model:   &model,
	})
	if err != nil {
		var apiErr *core.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode != 0 {
			var body []byte
			if inner := apiErr.Unwrap(); inner != nil {
				body = []byte(inner.Error())
			}
			pe := classifyStatus(apiErr.StatusCode, body)
			pe.Err = err
			return "", pe
		}
		return "", remoteError("summarization request failed", err)
	}
	if resp == nil {
		return "", remoteError("summarization response was empty", nil)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", remoteError("summarization response had empty text", nil)
	}
	return text, nil
}
