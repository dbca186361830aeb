package driven

import (
	"context"

	"github.com/ericfisherdev/replybot/internal/domain/model"
)

// ReplyLogStore defines the driven port for the per-comment reply history.
type ReplyLogStore interface {
	// Append persists entry and returns it with ID and CreatedAt populated.
	Append(ctx context.Context, entry model.ReplyLogEntry) (model.ReplyLogEntry, error)

	// ListRecent returns at most limit entries, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.ReplyLogEntry, error)
}
