package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/use-agent/recipebox/config"
	"github.com/use-agent/recipebox/models"
)

// Summarizer turns an extracted recipe into generated text.
//
// Implementations make exactly one upstream call per invocation, with no
// retry and no streaming. Every failure is returned as a *models.PipelineError
// whose code satisfies models.IsRemoteServiceError.
type Summarizer interface {
	Name() string
	Summarize(ctx context.Context, rec models.ExtractedRecord) (string, error)
}

// Params holds the provider configuration. The credential is always
// supplied here by the caller and never defaults to a built-in value.
type Params struct {
	APIKey  string
	Model   string
	BaseURL string
}

const promptTemplate = "Here is a recipe:\n\nTitle: %s\n\nIngredients:\n%s\n\nInstructions:\n%s"

// BuildPrompt formats rec into the fixed summarization prompt.
func BuildPrompt(rec models.ExtractedRecord) string {
	return fmt.Sprintf(promptTemplate,
		rec.Title,
		strings.Join(rec.Ingredients, "\n"),
		strings.Join(rec.Instructions, "\n"),
	)
}

// New builds the Summarizer selected by cfg. Pass nil httpClient to get one
// with cfg.Timeout (zero meaning no timeout).
func New(cfg config.LLMConfig, httpClient *http.Client) (Summarizer, error) {
	if cfg.APIKey == "" {
		return nil, config.ErrMissingAPIKey
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	params := Params{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL}

	switch cfg.Provider {
	case "gemini", "":
		return NewGeminiClient(httpClient, params), nil
	case "openai":
		return NewOpenAIClient(httpClient, params), nil
	case "cohere":
		return NewCohereClient(httpClient, params), nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, cfg.Provider)
}

// apiErrorBody covers the error envelopes of the supported providers:
// {"error":{"message":...}} (OpenAI, Gemini) and {"message":...} (Cohere).
type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

// classifyStatus maps a non-success HTTP status to a remote service error.
// The message always carries the status code.
func classifyStatus(statusCode int, body []byte) *models.PipelineError {
	detail := http.StatusText(statusCode)
	var errResp apiErrorBody
	if err := json.Unmarshal(body, &errResp); err == nil {
		switch {
		case errResp.Error.Message != "":
			detail = errResp.Error.Message
		case errResp.Message != "":
			detail = errResp.Message
		}
	}
	msg := fmt.Sprintf("summarization API request failed with status %d: %s", statusCode, detail)

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return models.NewPipelineError(models.ErrCodeRemoteAuth, msg, nil)
	case statusCode == http.StatusTooManyRequests:
		return models.NewPipelineError(models.ErrCodeRemoteRateLimited, msg, nil)
	default:
		return models.NewPipelineError(models.ErrCodeRemoteService, msg, nil)
	}
}

func remoteError(msg string, err error) *models.PipelineError {
	return models.NewPipelineError(models.ErrCodeRemoteService, msg, err)
}
