package browser

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/replybot/internal/domain/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTab returns a chromedp tab context that looks attached to targetID.
// No browser is allocated until Run, so nothing is started.
func fakeTab(t *testing.T, targetID target.ID) (context.Context, context.CancelFunc, *chromedp.Context) {
	t.Helper()
	tabCtx, cancel := chromedp.NewContext(context.Background())
	c := chromedp.FromContext(tabCtx)
	require.NotNil(t, c)
	c.Target = &chromedp.Target{TargetID: targetID, SessionID: target.SessionID("session-" + string(targetID))}
	return tabCtx, cancel, c
}

func TestBrowser_Close_TeardownByMode(t *testing.T) {
	tests := []struct {
		name         string
		cdpURL       string
		wantTargetID target.ID
	}{
		// Remote Chrome is the user's own browser: detach and leave the tab open.
		{name: "remote chrome keeps tabs", cdpURL: "ws://127.0.0.1:9222/devtools/browser/abc", wantTargetID: ""},
		// A launched Chrome goes away with its tabs.
		{name: "launched chrome closes tabs", cdpURL: "", wantTargetID: "tab-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBrowser(Options{CDPURL: tt.cdpURL}, discardLogger())

			tabCtx, cancel, c := fakeTab(t, "tab-1")
			b.pages["tab-1"] = newPage(tabCtx, cancel, "https://example.com/feed", model.DefaultSelectors())

			var browserCanceled atomic.Int32
			b.browserCtx = context.Background()
			b.cancel = func() { browserCanceled.Add(1) }

			b.Close()

			assert.Equal(t, tt.wantTargetID, c.Target.TargetID)
			assert.Equal(t, target.SessionID("session-tab-1"), c.Target.SessionID)
			assert.Error(t, tabCtx.Err())
			assert.Empty(t, b.pages)
			assert.Nil(t, b.browserCtx)
			assert.Equal(t, int32(1), browserCanceled.Load())
		})
	}
}

func TestReleaseTab_AlreadyCanceled(t *testing.T) {
	tabCtx, cancel, c := fakeTab(t, "tab-1")
	cancel()

	releaseTab(tabCtx, cancel, true)

	// chromedp already tore the session down; the target is left untouched.
	assert.Equal(t, target.ID("tab-1"), c.Target.TargetID)
}

func TestBrowser_ActivePage_ReplacesLostConnection(t *testing.T) {
	// Nothing listens on port 1, so the reconnect fails fast.
	b := NewBrowser(Options{CDPURL: "ws://127.0.0.1:1/devtools/browser/gone"}, discardLogger())

	tabCtx, cancel, c := fakeTab(t, "tab-1")
	b.pages["tab-1"] = newPage(tabCtx, cancel, "https://example.com/feed", model.DefaultSelectors())

	lost, lostCancel := context.WithCancel(context.Background())
	lostCancel()
	var oldCanceled atomic.Int32
	b.browserCtx = lost
	b.cancel = func() { oldCanceled.Add(1) }

	ctx, ctxCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer ctxCancel()

	_, err := b.ActivePage(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrTransport)
	assert.Equal(t, int32(1), oldCanceled.Load(), "stale connection must be released")
	assert.Empty(t, b.pages)
	assert.Nil(t, b.browserCtx, "failed reconnect must not be cached")
	assert.Equal(t, target.ID(""), c.Target.TargetID)
}

func TestBrowser_ActivePage_HonorsContext(t *testing.T) {
	b := NewBrowser(Options{CDPURL: "ws://127.0.0.1:1/devtools/browser/gone"}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.ActivePage(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, b.browserCtx)
}

func TestBounded(t *testing.T) {
	errBoom := errors.New("boom")

	t.Run("success skips cleanup", func(t *testing.T) {
		var cleaned atomic.Int32
		err := bounded(context.Background(), func() error { return nil }, func() { cleaned.Add(1) })

		require.NoError(t, err)
		assert.Zero(t, cleaned.Load())
	})

	t.Run("failure cleans up", func(t *testing.T) {
		var cleaned atomic.Int32
		err := bounded(context.Background(), func() error { return errBoom }, func() { cleaned.Add(1) })

		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, int32(1), cleaned.Load())
	})

	t.Run("context ends first", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		finish := make(chan struct{})
		cleaned := make(chan struct{})

		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		err := bounded(ctx, func() error {
			<-finish
			return nil
		}, func() { close(cleaned) })

		assert.ErrorIs(t, err, context.Canceled)

		select {
		case <-cleaned:
			t.Fatal("cleanup ran before fn returned")
		default:
		}

		close(finish)
		select {
		case <-cleaned:
		case <-time.After(time.Second):
			t.Fatal("cleanup did not run after fn returned")
		}
	})
}

func TestBind(t *testing.T) {
	parent, parentCancel := context.WithCancel(context.Background())
	defer parentCancel()
	ctx, cancel := context.WithCancel(context.Background())

	callCtx, done := bind(parent, ctx)
	defer done()

	cancel()
	require.Eventually(t, func() bool { return callCtx.Err() != nil }, time.Second, time.Millisecond)
	assert.NoError(t, parent.Err())
}
