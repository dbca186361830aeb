// Package browser implements the Browser and Page ports over the Chrome
// DevTools protocol using chromedp.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/ericfisherdev/replybot/internal/domain/model"
	"github.com/ericfisherdev/replybot/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Browser = (*Browser)(nil)

// Options configures how the browser is reached and which tab counts as active.
type Options struct {
	// CDPURL connects to an already running Chrome (the user's logged-in
	// browser) when set. Otherwise a Chrome instance is launched.
	CDPURL     string
	Headless   bool
	ProfileDir string

	// PageURLPrefix restricts the active page to tabs whose URL starts with it.
	PageURLPrefix string

	Selectors model.Selectors
}

// Browser owns the connection to Chrome. It connects lazily on the first
// ActivePage call, reconnects when the connection drops, and keeps one
// session per tab until Close.
type Browser struct {
	opts   Options
	logger *slog.Logger

	mu         sync.Mutex
	browserCtx context.Context
	cancel     context.CancelFunc
	pages      map[target.ID]*Page
}

// NewBrowser creates a Browser. No connection is made until ActivePage.
func NewBrowser(opts Options, logger *slog.Logger) *Browser {
	return &Browser{opts: opts, logger: logger, pages: make(map[target.ID]*Page)}
}

// ActivePage returns the first page tab (newest first, as Chrome reports
// targets) that is not blank and matches PageURLPrefix. A tab that is already
// attached is reused.
func (b *Browser) ActivePage(ctx context.Context) (driven.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	targets, err := b.listTargets(ctx)
	if err != nil {
		return nil, err
	}
	b.prune(targets)

	for _, t := range targets {
		if t.Type != "page" || !isUsableURL(t.URL, b.opts.PageURLPrefix) {
			continue
		}

		if p, ok := b.pages[t.TargetID]; ok {
			b.logger.DebugContext(ctx, "reusing page", "url", t.URL, "target_id", string(t.TargetID))
			return p, nil
		}

		p, err := b.attach(ctx, t)
		if err != nil {
			return nil, err
		}
		b.pages[t.TargetID] = p
		b.logger.InfoContext(ctx, "attached to page", "url", t.URL, "target_id", string(t.TargetID))
		return p, nil
	}

	return nil, model.ErrNoActivePage
}

// Close ends every tab session and the browser connection. Tabs of a remote
// Chrome are detached and stay open; a launched Chrome is terminated.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.disconnect()
}

// listTargets lists the browser's targets, reconnecting once when the
// connection turns out to be gone. Callers hold b.mu.
func (b *Browser) listTargets(ctx context.Context) ([]*target.Info, error) {
	for attempt := 0; ; attempt++ {
		browserCtx, err := b.connect(ctx)
		if err != nil {
			return nil, err
		}

		callCtx, done := bind(browserCtx, ctx)
		targets, err := chromedp.Targets(callCtx)
		done()
		if err == nil {
			return targets, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("list browser targets: %w", ctx.Err())
		}
		if attempt > 0 {
			return nil, fmt.Errorf("list browser targets: %w: %w", model.ErrTransport, err)
		}

		b.logger.WarnContext(ctx, "browser connection failed, reconnecting", "error", err)
		b.disconnect()
	}
}

// connect sets up the allocator and browser contexts, replacing a
// connection that chromedp has already torn down. The dial is abandoned when
// ctx ends. Callers hold b.mu.
func (b *Browser) connect(ctx context.Context) (context.Context, error) {
	if b.browserCtx != nil {
		if b.browserCtx.Err() == nil {
			return b.browserCtx, nil
		}
		b.logger.WarnContext(ctx, "browser connection lost, reconnecting")
		b.disconnect()
	}

	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
		start       func(context.Context) error
	)
	if b.opts.CDPURL != "" {
		b.logger.InfoContext(ctx, "connecting to chrome", "cdp_url", b.opts.CDPURL)
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), b.opts.CDPURL)
		// Listing targets connects without opening a tab in the user's browser.
		start = func(c context.Context) error {
			_, err := chromedp.Targets(c)
			return err
		}
	} else {
		b.logger.InfoContext(ctx, "launching chrome", "headless", b.opts.Headless, "profile_dir", b.opts.ProfileDir)
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), b.execOptions()...)
		start = func(c context.Context) error {
			return chromedp.Run(c)
		}
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		browserCancel()
		allocCancel()
	}

	if err := bounded(ctx, func() error { return start(browserCtx) }, cancel); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("start browser: %w", ctx.Err())
		}
		return nil, fmt.Errorf("start browser: %w: %w", model.ErrTransport, err)
	}

	b.browserCtx = browserCtx
	b.cancel = cancel
	return browserCtx, nil
}

// attach opens a session on one tab. The session lives as long as the tab
// context, so it is started on that context and not on ctx. Callers hold b.mu.
func (b *Browser) attach(ctx context.Context, t *target.Info) (*Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx, chromedp.WithTargetID(t.TargetID))
	p := newPage(tabCtx, cancel, t.URL, b.opts.Selectors)

	if err := bounded(ctx, func() error { return chromedp.Run(tabCtx) }, func() { b.release(p) }); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("attach to page: %w", ctx.Err())
		}
		return nil, fmt.Errorf("attach to page: %w: %w", model.ErrTransport, err)
	}
	return p, nil
}

// prune releases sessions whose tabs no longer exist. Callers hold b.mu.
func (b *Browser) prune(targets []*target.Info) {
	live := make(map[target.ID]bool, len(targets))
	for _, t := range targets {
		live[t.TargetID] = true
	}
	for id, p := range b.pages {
		if !live[id] || p.tabCtx.Err() != nil {
			b.release(p)
			delete(b.pages, id)
		}
	}
}

// release ends the session with one tab. A tab of the user's own Chrome is
// detached but left open.
func (b *Browser) release(p *Page) {
	releaseTab(p.tabCtx, p.cancel, b.opts.CDPURL != "")
}

// disconnect releases every tab and then the browser. Callers hold b.mu.
func (b *Browser) disconnect() {
	for id, p := range b.pages {
		b.release(p)
		delete(b.pages, id)
	}
	if b.cancel != nil {
		b.cancel()
	}
	b.browserCtx = nil
	b.cancel = nil
}

// releaseTab cancels a tab context. chromedp detaches the session and then
// closes the target on cancel; clearing the target ID first keeps the tab.
func releaseTab(tabCtx context.Context, cancel context.CancelFunc, keepOpen bool) {
	if keepOpen && tabCtx.Err() == nil {
		if c := chromedp.FromContext(tabCtx); c != nil && c.Target != nil {
			c.Target.TargetID = ""
		}
	}
	cancel()
}

// bind derives a context from a chromedp context that also ends with ctx.
// Cancelling it never tears down the tab or browser behind parent.
func bind(parent, ctx context.Context) (context.Context, context.CancelFunc) {
	callCtx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(ctx, cancel)
	return callCtx, func() {
		stop()
		cancel()
	}
}

// bounded runs fn on its own goroutine and waits for it or for ctx. cleanup
// runs when fn fails, or once fn has returned after ctx ended first.
func bounded(ctx context.Context, fn func() error, cleanup func()) error {
	errc := make(chan error, 1)
	go func() { errc <- fn() }()

	select {
	case err := <-errc:
		if err != nil {
			cleanup()
		}
		return err
	case <-ctx.Done():
		go func() {
			<-errc
			cleanup()
		}()
		return ctx.Err()
	}
}

func (b *Browser) execOptions() []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-session-crashed-bubble", true),
		chromedp.WindowSize(1440, 900),
	}
	if b.opts.ProfileDir != "" {
		opts = append(opts, chromedp.UserDataDir(b.opts.ProfileDir))
	}
	if b.opts.Headless {
		opts = append(opts, chromedp.Headless)
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	return opts
}

// isUsableURL skips blank and browser-internal tabs.
func isUsableURL(url, prefix string) bool {
	if url == "" || url == "about:blank" || strings.HasPrefix(url, "chrome://") || strings.HasPrefix(url, "devtools://") {
		return false
	}
	return prefix == "" || strings.HasPrefix(url, prefix)
}
