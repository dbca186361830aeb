package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/ericfisherdev/replybot/internal/domain/model"
	"github.com/ericfisherdev/replybot/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReplyLogStore = (*ReplyLogRepo)(nil)

// ReplyLogRepo is the SQLite implementation of the ReplyLogStore port.
type ReplyLogRepo struct {
	db  *DB
	now func() time.Time
}

// NewReplyLogRepo creates a new ReplyLogRepo backed by the given DB.
func NewReplyLogRepo(db *DB) *ReplyLogRepo {
	return &ReplyLogRepo{db: db, now: time.Now}
}

// Append inserts entry. A zero CreatedAt is set to the current time.
func (r *ReplyLogRepo) Append(ctx context.Context, entry model.ReplyLogEntry) (model.ReplyLogEntry, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	const query = `INSERT INTO reply_log (comment_text, suggested_text, model, submitted, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	res, err := r.db.Writer.ExecContext(ctx, query,
		entry.CommentText,
		entry.SuggestedText,
		entry.Model,
		entry.Submitted,
		entry.Error,
		formatTime(entry.CreatedAt),
	)
	if err != nil {
		return model.ReplyLogEntry{}, fmt.Errorf("append reply log: %w: %w", model.ErrStorage, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.ReplyLogEntry{}, fmt.Errorf("reply log id: %w: %w", model.ErrStorage, err)
	}
	entry.ID = id

	return entry, nil
}

// ListRecent returns at most limit entries, newest first.
func (r *ReplyLogRepo) ListRecent(ctx context.Context, limit int) ([]model.ReplyLogEntry, error) {
	if limit <= 0 {
		return []model.ReplyLogEntry{}, nil
	}

	const query = `SELECT id, comment_text, suggested_text, model, submitted, error, created_at
		FROM reply_log ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list reply log: %w: %w", model.ErrStorage, err)
	}
	defer rows.Close()

	entries := []model.ReplyLogEntry{}
	for rows.Next() {
		var e model.ReplyLogEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.CommentText, &e.SuggestedText, &e.Model, &e.Submitted, &e.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("scan reply log: %w: %w", model.ErrStorage, err)
		}

		e.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at for reply log %d: %w", e.ID, err)
		}

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reply log: %w: %w", model.ErrStorage, err)
	}

	return entries, nil
}
