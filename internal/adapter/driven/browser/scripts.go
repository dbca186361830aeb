package browser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ericfisherdev/replybot/internal/domain/model"
)

// Scripts are JS function expressions evaluated inside the tab. Every script
// returns a string, boolean or object; never null or undefined, which
// chromedp.Evaluate reports as an error.

// helpersJS tags elements with a stable data attribute so comments can be
// addressed across separate evaluations.
const helpersJS = `
	const tag = (el) => {
		if (!el.dataset.replybotRef) {
			window.__replybotSeq = (window.__replybotSeq || 0) + 1;
			el.dataset.replybotRef = String(window.__replybotSeq);
		}
		return el.dataset.replybotRef;
	};
	const byRef = (ref) => document.querySelector('[data-replybot-ref="' + ref + '"]');
`

const firstCommentJS = `(S) => {` + helpersJS + `
	let el = document.querySelector(S.commentItem);
	if (!el) {
		const container = document.querySelector(S.commentContainer);
		el = container ? (container.children[0] || null) : null;
	}
	return el ? tag(el) : "";
}`

const nextCommentJS = `(S, ref) => {` + helpersJS + `
	const el = byRef(ref);
	if (!el || !el.nextElementSibling) return "";
	return tag(el.nextElementSibling);
}`

const focusJS = `(S, ref) => {` + helpersJS + `
	const el = byRef(ref);
	if (!el) return false;
	el.style.backgroundColor = "yellow";
	el.scrollIntoView();
	return true;
}`

const openReplyJS = `(S, ref) => {` + helpersJS + `
	const el = byRef(ref);
	const button = el ? el.querySelector(S.replyButton) : null;
	if (!button) return false;
	button.click();
	return true;
}`

const hasReplyEditorJS = `(S, ref) => {` + helpersJS + `
	const el = byRef(ref);
	return !!(el && el.querySelector(S.replyEditor));
}`

const commentTextJS = `(S, ref) => {` + helpersJS + `
	const el = byRef(ref);
	if (!el) return {found: false, text: ""};
	const body = el.querySelector(S.commentText);
	return {found: true, text: body ? body.innerText : ""};
}`

const writeReplyJS = `(S, ref, text) => {` + helpersJS + `
	const el = byRef(ref);
	const editor = el ? el.querySelector(S.replyEditor) : null;
	if (!editor) return false;
	editor.textContent = text;
	editor.dispatchEvent(new InputEvent("input", {bubbles: true}));
	return true;
}`

const submitJS = `(S, ref) => {` + helpersJS + `
	const el = byRef(ref);
	if (!el) return false;
	const button = el.querySelector(S.submitButton) || el.querySelector(S.fallbackButton);
	if (!button) return false;
	button.click();
	return true;
}`

const loadMoreJS = `(S) => {
	const button = document.querySelector(S.loadMoreButton);
	if (!button) return false;
	button.click();
	return true;
}`

// selectorsJSON is the shape scripts see as S.
type selectorsJSON struct {
	CommentItem      string `json:"commentItem"`
	CommentContainer string `json:"commentContainer"`
	CommentText      string `json:"commentText"`
	ReplyButton      string `json:"replyButton"`
	ReplyEditor      string `json:"replyEditor"`
	SubmitButton     string `json:"submitButton"`
	FallbackButton   string `json:"fallbackButton"`
	LoadMoreButton   string `json:"loadMoreButton"`
}

func toSelectorsJSON(s model.Selectors) selectorsJSON {
	return selectorsJSON{
		CommentItem:      s.CommentItem,
		CommentContainer: s.CommentContainer,
		CommentText:      s.CommentText,
		ReplyButton:      s.ReplyButton,
		ReplyEditor:      s.ReplyEditor,
		SubmitButton:     s.SubmitButton,
		FallbackButton:   s.FallbackButton,
		LoadMoreButton:   s.LoadMoreButton,
	}
}

// invoke renders a call of fn with JSON-encoded arguments, so selector and
// reply text never need manual escaping.
func invoke(fn string, args ...any) (string, error) {
	encoded := make([]string, 0, len(args))
	for i, arg := range args {
		b, err := json.Marshal(arg)
		if err != nil {
			return "", fmt.Errorf("encode script argument %d: %w", i, err)
		}
		encoded = append(encoded, string(b))
	}
	return fmt.Sprintf("(%s)(%s)", fn, strings.Join(encoded, ", ")), nil
}
