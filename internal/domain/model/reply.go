package model

import "time"

// ReplyRequest asks the relay for a suggested reply to a single comment.
// CommentText is sent verbatim as the only user message.
type ReplyRequest struct {
	CommentText string
	Model       string
}

// ReplyResult is the outcome of one relay call: exactly one of SuggestedText
// or ErrorMessage is meaningful.
type ReplyResult struct {
	SuggestedText string
	ErrorMessage  string
}

// NewReplyResult builds a ReplyResult from a relay return pair.
func NewReplyResult(text string, err error) ReplyResult {
	if err != nil {
		return ReplyResult{ErrorMessage: err.Error()}
	}
	return ReplyResult{SuggestedText: text}
}

// IsError reports whether the result carries an error.
func (r ReplyResult) IsError() bool {
	return r.ErrorMessage != ""
}

// ReplyLogEntry records what happened to one comment during an automation run.
type ReplyLogEntry struct {
	ID            int64
	CommentText   string
	SuggestedText string
	Model         string
	Submitted     bool
	Error         string
	CreatedAt     time.Time
}
