// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/replybot/internal/domain/model"
	"github.com/ericfisherdev/replybot/internal/domain/port/driven"
)

// Replier produces a suggested reply for one comment.
type Replier interface {
	Handle(ctx context.Context, req model.ReplyRequest) (string, error)
}

// Compile-time interface satisfaction check.
var _ Replier = (*RelayService)(nil)

// RelayService forwards a comment to the completion API using the stored API
// key and returns the trimmed suggestion.
type RelayService struct {
	settings     driven.SettingsStore
	client       driven.CompletionClient
	defaultModel string
	logger       *slog.Logger
}

// NewRelayService creates a RelayService. defaultModel is used when a request
// names no model.
func NewRelayService(settings driven.SettingsStore, client driven.CompletionClient, defaultModel string, logger *slog.Logger) *RelayService {
	return &RelayService{
		settings:     settings,
		client:       client,
		defaultModel: defaultModel,
		logger:       logger,
	}
}

// Handle reads the API key fresh on every call so a key saved mid-run takes
// effect on the next comment.
func (s *RelayService) Handle(ctx context.Context, req model.ReplyRequest) (string, error) {
	values, err := s.settings.Get(ctx, model.SettingAPIKey)
	if err != nil {
		return "", fmt.Errorf("read api key: %w", err)
	}

	apiKey := values[model.SettingAPIKey]
	if apiKey == "" {
		return "", model.ErrAPIKeyNotSet
	}

	modelName := req.Model
	if modelName == "" {
		modelName = s.defaultModel
	}

	content, err := s.client.Complete(ctx, apiKey, modelName, req.CommentText)
	if err != nil {
		s.logger.WarnContext(ctx, "completion request failed", "model", modelName, "error", err)
		return "", err
	}

	suggestion := strings.TrimSpace(content)
	if suggestion == "" {
		return "", model.ErrUnexpectedResponse
	}

	s.logger.DebugContext(ctx, "suggested reply generated", "model", modelName, "length", len(suggestion))
	return suggestion, nil
}
