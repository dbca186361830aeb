package driven

import (
	"context"

	"github.com/ericfisherdev/replybot/internal/domain/model"
)

// Browser resolves the page the automation should run against.
type Browser interface {
	// ActivePage returns a handle to the page currently in front of the user.
	ActivePage(ctx context.Context) (Page, error)
}

// Page is the driven port over the host page's DOM. Element lookups that
// come up empty return model.ErrElementNotFound unless the method documents a
// boolean "found" result instead.
type Page interface {
	// URL returns the page address, for logging.
	URL() string

	// FirstComment returns the first comment element, or ok=false when the page
	// has none.
	FirstComment(ctx context.Context) (ref model.CommentRef, ok bool, err error)

	// NextComment returns the sibling that follows ref, or ok=false at the end.
	NextComment(ctx context.Context, ref model.CommentRef) (next model.CommentRef, ok bool, err error)

	// Focus highlights ref and scrolls it into view.
	Focus(ctx context.Context, ref model.CommentRef) error

	// OpenReply clicks the reply trigger inside ref.
	OpenReply(ctx context.Context, ref model.CommentRef) error

	// HasReplyEditor reports whether the reply editor inside ref has rendered.
	HasReplyEditor(ctx context.Context, ref model.CommentRef) (bool, error)

	// CommentText returns the visible text of ref's main content.
	CommentText(ctx context.Context, ref model.CommentRef) (string, error)

	// WriteReply replaces the reply editor's text inside ref.
	WriteReply(ctx context.Context, ref model.CommentRef, text string) error

	// Submit clicks the primary submit control inside ref, falling back to the
	// generic button. Returns false when neither exists.
	Submit(ctx context.Context, ref model.CommentRef) (bool, error)

	// LoadMore clicks the "load more comments" control. Returns false when the
	// page has none.
	LoadMore(ctx context.Context) (bool, error)
}
