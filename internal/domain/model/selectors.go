package model

// Selectors describes the host page's DOM contract. The host page owns this
// structure; the values are configuration, not design.
type Selectors struct {
	CommentItem      string
	CommentContainer string
	CommentText      string
	ReplyButton      string
	ReplyEditor      string
	SubmitButton     string
	FallbackButton   string
	LoadMoreButton   string
}

// DefaultSelectors returns the selectors for the feed markup the tool was built against.
func DefaultSelectors() Selectors {
	return Selectors{
		CommentItem:      ".comments-comments-list .comments-comments-list__comment-item",
		CommentContainer: ".comments-comments-list .comments-comment-list__container",
		CommentText:      ".comments-comment-item__inline-show-more-text",
		ReplyButton:      ".reply",
		ReplyEditor:      ".editor-content p",
		SubmitButton:     ".comments-comment-box__submit-button",
		FallbackButton:   ".align-items-center .artdeco-button",
		LoadMoreButton:   ".comments-comments-list__load-more-comments-button",
	}
}
