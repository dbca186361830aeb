// Package openai implements the CompletionClient and ModelCatalog ports using
// the openai-go SDK.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gregjones/httpcache"
	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ericfisherdev/replybot/internal/domain/model"
	"github.com/ericfisherdev/replybot/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.CompletionClient = (*Client)(nil)
	_ driven.ModelCatalog     = (*Client)(nil)
)

// Client talks to an OpenAI-compatible chat completion API. The API key is
// supplied per call because it lives in the settings store and may change
// while the service runs.
type Client struct {
	api    oai.Client
	logger *slog.Logger
}

// NewClient creates a Client with the following transport stack:
//  1. httpcache (ETag-based conditional caching; only the GET /models listing is cacheable)
//  2. openai-go with retries disabled, so every failure surfaces to the caller immediately
//
// baseURL may be empty to use the SDK default.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	httpClient := &http.Client{Transport: httpcache.NewMemoryCacheTransport()}
	return NewClientWithHTTPClient(httpClient, baseURL, logger)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client. This
// constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string, logger *slog.Logger) *Client {
	opts := []option.RequestOption{
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Client{
		api:    oai.NewClient(opts...),
		logger: logger,
	}
}

// Complete sends content as a single user message and returns the first
// choice's message content untouched.
func (c *Client) Complete(ctx context.Context, apiKey, modelName, content string) (string, error) {
	params := oai.ChatCompletionNewParams{
		Model: modelName,
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.UserMessage(content),
		},
	}

	start := time.Now()
	resp, err := c.api.Chat.Completions.New(ctx, params, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("chat completion: %w: %w", model.ErrTransport, describeAPIError(err))
	}

	if len(resp.Choices) == 0 {
		return "", model.ErrUnexpectedResponse
	}

	c.logger.DebugContext(ctx, "chat completion finished",
		"model", resp.Model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"finish_reason", resp.Choices[0].FinishReason,
	)

	return resp.Choices[0].Message.Content, nil
}

// ListModels returns the model IDs available to apiKey, sorted.
func (c *Client) ListModels(ctx context.Context, apiKey string) ([]string, error) {
	page, err := c.api.Models.List(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("list models: %w: %w", model.ErrTransport, describeAPIError(err))
	}

	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)

	return ids, nil
}

// describeAPIError keeps the provider's message for API errors so it reaches
// the user verbatim; other errors pass through.
func describeAPIError(err error) error {
	var apiErr *oai.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return fmt.Errorf("status %d: %s", apiErr.StatusCode, apiErr.Message)
	}
	return err
}
