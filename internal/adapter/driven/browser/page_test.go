package browser

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/replybot/internal/domain/model"
)

// feedPage mimics the host feed: three comments, a reply box that renders on
// click, a third comment whose box only has the generic button, and a
// load-more control that appends a fourth comment once.
const feedPage = `<!DOCTYPE html>
<html><body>
<div class="list">
  <div class="item"><p class="text">First comment</p><button class="reply">Reply</button></div>
  <div class="item"><p class="text">Second comment</p><button class="reply">Reply</button></div>
  <div class="item" data-generic="1"><p class="text">Third comment</p><button class="reply">Reply</button></div>
</div>
<button class="load-more">Load more</button>
<script>
function wire(item) {
  item.querySelector(".reply").addEventListener("click", () => {
    const editor = document.createElement("div");
    editor.className = "editor";
    editor.innerHTML = "<p></p>";
    const send = document.createElement("button");
    send.className = item.dataset.generic ? "generic" : "submit";
    send.addEventListener("click", () => {
      item.dataset.sent = editor.querySelector("p").textContent + "|" + send.className;
    });
    item.appendChild(editor);
    item.appendChild(send);
  });
}
document.querySelectorAll(".item").forEach(wire);
document.querySelector(".load-more").addEventListener("click", (e) => {
  const item = document.createElement("div");
  item.className = "item";
  item.innerHTML = '<p class="text">Fourth comment</p><button class="reply">Reply</button>';
  wire(item);
  document.querySelector(".list").appendChild(item);
  e.target.remove();
});
</script>
</body></html>`

func feedSelectors() model.Selectors {
	return model.Selectors{
		CommentItem:      ".list .item",
		CommentContainer: ".list",
		CommentText:      ".text",
		ReplyButton:      ".reply",
		ReplyEditor:      ".editor p",
		SubmitButton:     ".submit",
		FallbackButton:   ".generic",
		LoadMoreButton:   ".load-more",
	}
}

func findChrome() string {
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell", "chrome"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// startFeed launches a headless Chrome with one tab showing feedPage.
func startFeed(t *testing.T) (browserCtx context.Context, url string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Chrome test in short mode")
	}
	path := findChrome()
	if path == "" {
		t.Skip("no Chrome binary found")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, feedPage)
	}))
	t.Cleanup(srv.Close)

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.ExecPath(path), chromedp.NoSandbox)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	t.Cleanup(func() {
		browserCancel()
		allocCancel()
	})

	require.NoError(t, chromedp.Run(browserCtx, chromedp.Navigate(srv.URL)))
	return browserCtx, srv.URL
}

// attachFeed resolves the feed tab through a Browser sharing browserCtx.
func attachFeed(t *testing.T, browserCtx context.Context, url string, sel model.Selectors) *Page {
	t.Helper()
	b := NewBrowser(Options{PageURLPrefix: url, Selectors: sel}, discardLogger())
	b.browserCtx = browserCtx
	t.Cleanup(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for id, p := range b.pages {
			b.release(p)
			delete(b.pages, id)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	got, err := b.ActivePage(ctx)
	require.NoError(t, err)
	again, err := b.ActivePage(ctx)
	require.NoError(t, err)
	assert.Same(t, got, again, "an attached tab is reused")

	return got.(*Page)
}

func evalString(t *testing.T, p *Page, js string) string {
	t.Helper()
	var s string
	require.NoError(t, chromedp.Run(p.tabCtx, chromedp.Evaluate(js, &s)))
	return s
}

func TestPage_FeedScripts(t *testing.T) {
	browserCtx, url := startFeed(t)
	p := attachFeed(t, browserCtx, url, feedSelectors())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Document order, one visit each.
	var refs []model.CommentRef
	var texts []string
	ref, ok, err := p.FirstComment(ctx)
	require.NoError(t, err)
	for ok {
		refs = append(refs, ref)
		text, err := p.CommentText(ctx, ref)
		require.NoError(t, err)
		texts = append(texts, text)

		ref, ok, err = p.NextComment(ctx, ref)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"First comment", "Second comment", "Third comment"}, texts)
	require.Len(t, refs, 3)

	first, second, third := refs[0], refs[1], refs[2]

	// Reply box renders only after the trigger is clicked.
	require.NoError(t, p.Focus(ctx, first))
	assert.Equal(t, "yellow", evalString(t, p, `document.querySelector(".item").style.backgroundColor`))

	hasEditor, err := p.HasReplyEditor(ctx, first)
	require.NoError(t, err)
	assert.False(t, hasEditor)

	require.NoError(t, p.OpenReply(ctx, first))
	hasEditor, err = p.HasReplyEditor(ctx, first)
	require.NoError(t, err)
	assert.True(t, hasEditor)

	require.NoError(t, p.WriteReply(ctx, first, `Thanks! "quoted" & <b>safe</b>`))
	submitted, err := p.Submit(ctx, first)
	require.NoError(t, err)
	assert.True(t, submitted)
	assert.Equal(t, `Thanks! "quoted" & <b>safe</b>|submit`,
		evalString(t, p, `document.querySelectorAll(".item")[0].dataset.sent || ""`))

	// No reply box opened: nothing to write into and nothing to click.
	err = p.WriteReply(ctx, second, "ignored")
	assert.ErrorIs(t, err, model.ErrElementNotFound)
	submitted, err = p.Submit(ctx, second)
	require.NoError(t, err)
	assert.False(t, submitted)

	// Only the generic button exists: the fallback is clicked.
	require.NoError(t, p.OpenReply(ctx, third))
	require.NoError(t, p.WriteReply(ctx, third, "Appreciate it"))
	submitted, err = p.Submit(ctx, third)
	require.NoError(t, err)
	assert.True(t, submitted)
	assert.Equal(t, "Appreciate it|generic",
		evalString(t, p, `document.querySelectorAll(".item")[2].dataset.sent || ""`))

	// End of list until load-more appends another comment.
	_, ok, err = p.NextComment(ctx, third)
	require.NoError(t, err)
	assert.False(t, ok)

	clicked, err := p.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, clicked)

	fourth, ok, err := p.NextComment(ctx, third)
	require.NoError(t, err)
	require.True(t, ok)
	text, err := p.CommentText(ctx, fourth)
	require.NoError(t, err)
	assert.Equal(t, "Fourth comment", text)

	clicked, err = p.LoadMore(ctx)
	require.NoError(t, err)
	assert.False(t, clicked)

	// Unknown refs are reported, not thrown.
	err = p.Focus(ctx, model.CommentRef{ID: "missing"})
	assert.ErrorIs(t, err, model.ErrElementNotFound)
	_, err = p.CommentText(ctx, model.CommentRef{ID: "missing"})
	assert.ErrorIs(t, err, model.ErrElementNotFound)
}

func TestPage_FirstComment_ContainerFallback(t *testing.T) {
	browserCtx, url := startFeed(t)

	sel := feedSelectors()
	sel.CommentItem = ".no-such-item"
	p := attachFeed(t, browserCtx, url, sel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ref, ok, err := p.FirstComment(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	text, err := p.CommentText(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "First comment", text)
}

func TestPage_FirstComment_EmptyFeed(t *testing.T) {
	browserCtx, url := startFeed(t)

	sel := feedSelectors()
	sel.CommentItem = ".no-such-item"
	sel.CommentContainer = ".no-such-list"
	p := attachFeed(t, browserCtx, url, sel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, ok, err := p.FirstComment(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBrowser_ActivePage_NoMatchingTab(t *testing.T) {
	browserCtx, _ := startFeed(t)

	b := NewBrowser(Options{PageURLPrefix: "https://feed.invalid/"}, discardLogger())
	b.browserCtx = browserCtx

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	_, err := b.ActivePage(ctx)
	assert.ErrorIs(t, err, model.ErrNoActivePage)
}
