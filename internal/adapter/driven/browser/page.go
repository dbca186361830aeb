package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/ericfisherdev/replybot/internal/domain/model"
	"github.com/ericfisherdev/replybot/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Page = (*Page)(nil)

// Page drives one tab. Comment references are values of the
// data-replybot-ref attribute assigned by the scripts.
type Page struct {
	tabCtx    context.Context
	cancel    context.CancelFunc
	url       string
	selectors selectorsJSON
}

func newPage(tabCtx context.Context, cancel context.CancelFunc, url string, sel model.Selectors) *Page {
	return &Page{tabCtx: tabCtx, cancel: cancel, url: url, selectors: toSelectorsJSON(sel)}
}

// URL returns the tab URL at attach time.
func (p *Page) URL() string {
	return p.url
}

func (p *Page) FirstComment(ctx context.Context) (model.CommentRef, bool, error) {
	var ref model.CommentRef
	if err := p.eval(ctx, &ref.ID, firstCommentJS); err != nil {
		return model.CommentRef{}, false, fmt.Errorf("find first comment: %w", err)
	}
	return ref, !ref.IsZero(), nil
}

func (p *Page) NextComment(ctx context.Context, ref model.CommentRef) (model.CommentRef, bool, error) {
	var next model.CommentRef
	if err := p.eval(ctx, &next.ID, nextCommentJS, ref.ID); err != nil {
		return model.CommentRef{}, false, fmt.Errorf("find next comment: %w", err)
	}
	return next, !next.IsZero(), nil
}

func (p *Page) Focus(ctx context.Context, ref model.CommentRef) error {
	return p.evalFound(ctx, "focus comment", focusJS, ref.ID)
}

func (p *Page) OpenReply(ctx context.Context, ref model.CommentRef) error {
	return p.evalFound(ctx, "open reply", openReplyJS, ref.ID)
}

func (p *Page) HasReplyEditor(ctx context.Context, ref model.CommentRef) (bool, error) {
	var ok bool
	if err := p.eval(ctx, &ok, hasReplyEditorJS, ref.ID); err != nil {
		return false, fmt.Errorf("check reply editor: %w", err)
	}
	return ok, nil
}

func (p *Page) CommentText(ctx context.Context, ref model.CommentRef) (string, error) {
	var res struct {
		Found bool   `json:"found"`
		Text  string `json:"text"`
	}
	if err := p.eval(ctx, &res, commentTextJS, ref.ID); err != nil {
		return "", fmt.Errorf("read comment text: %w", err)
	}
	if !res.Found {
		return "", fmt.Errorf("read comment text: %w", model.ErrElementNotFound)
	}
	return res.Text, nil
}

func (p *Page) WriteReply(ctx context.Context, ref model.CommentRef, text string) error {
	return p.evalFound(ctx, "write reply", writeReplyJS, ref.ID, text)
}

func (p *Page) Submit(ctx context.Context, ref model.CommentRef) (bool, error) {
	var clicked bool
	if err := p.eval(ctx, &clicked, submitJS, ref.ID); err != nil {
		return false, fmt.Errorf("submit reply: %w", err)
	}
	return clicked, nil
}

func (p *Page) LoadMore(ctx context.Context) (bool, error) {
	var clicked bool
	if err := p.eval(ctx, &clicked, loadMoreJS); err != nil {
		return false, fmt.Errorf("load more comments: %w", err)
	}
	return clicked, nil
}

// evalFound runs a script returning a boolean and maps false to
// model.ErrElementNotFound.
func (p *Page) evalFound(ctx context.Context, op, fn string, args ...any) error {
	var found bool
	if err := p.eval(ctx, &found, fn, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return fmt.Errorf("%s: %w", op, model.ErrElementNotFound)
	}
	return nil
}

// eval calls fn with the selectors followed by args. The caller's ctx bounds
// the evaluation without closing the tab, since only the context returned by
// chromedp.NewContext owns the target. The tab must already be attached.
func (p *Page) eval(ctx context.Context, res any, fn string, args ...any) error {
	script, err := invoke(fn, append([]any{p.selectors}, args...)...)
	if err != nil {
		return err
	}

	runCtx, done := bind(p.tabCtx, ctx)
	defer done()

	return chromedp.Run(runCtx, chromedp.Evaluate(script, res))
}
