package application

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/ericfisherdev/replybot/internal/domain/model"
	"github.com/ericfisherdev/replybot/internal/domain/port/driven"
)

// --- Mock implementations ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockSettingsStore struct {
	mu      sync.Mutex
	values  map[string]string
	getErr  error
	setErr  error
	setCall []map[string]string
}

func newMockSettingsStore(values map[string]string) *mockSettingsStore {
	if values == nil {
		values = map[string]string{}
	}
	return &mockSettingsStore{values: values}
}

func (m *mockSettingsStore) Get(_ context.Context, keys ...string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *mockSettingsStore) Set(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCall = append(m.setCall, values)
	if m.setErr != nil {
		return m.setErr
	}
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func (m *mockSettingsStore) snapshot() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

type completeCall struct {
	APIKey  string
	Model   string
	Content string
}

type mockCompletionClient struct {
	calls    []completeCall
	complete func(content string) (string, error)
}

func (m *mockCompletionClient) Complete(_ context.Context, apiKey, modelName, content string) (string, error) {
	m.calls = append(m.calls, completeCall{APIKey: apiKey, Model: modelName, Content: content})
	return m.complete(content)
}

type mockReplier struct {
	mu       sync.Mutex
	requests []model.ReplyRequest
	handle   func(req model.ReplyRequest) (string, error)
}

func (m *mockReplier) Handle(_ context.Context, req model.ReplyRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.handle == nil {
		return "Thanks!", nil
	}
	return m.handle(req)
}

type mockReplyLog struct {
	mu      sync.Mutex
	entries []model.ReplyLogEntry
	listErr error
}

func (m *mockReplyLog) Append(_ context.Context, entry model.ReplyLogEntry) (model.ReplyLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, entry)
	return entry, nil
}

func (m *mockReplyLog) ListRecent(_ context.Context, limit int) ([]model.ReplyLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := slices.Clone(m.entries)
	slices.Reverse(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockReplyLog) all() []model.ReplyLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.entries)
}

type mockCatalog struct {
	models []string
	err    error
	keys   []string
}

func (m *mockCatalog) ListModels(_ context.Context, apiKey string) ([]string, error) {
	m.keys = append(m.keys, apiKey)
	return m.models, m.err
}

// mockBrowser returns page or err. When gate is set, the first call signals
// entered and then waits for gate to close.
type mockBrowser struct {
	page    driven.Page
	err     error
	gate    chan struct{}
	entered chan struct{}

	mu    sync.Mutex
	calls int
}

func (m *mockBrowser) ActivePage(ctx context.Context) (driven.Page, error) {
	m.mu.Lock()
	m.calls++
	first := m.calls == 1
	m.mu.Unlock()

	if first && m.gate != nil {
		close(m.entered)
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.page, nil
}

// pageComment describes one comment element of a mockPage.
type pageComment struct {
	id            string
	text          string
	noReplyButton bool
	noEditor      bool
	noSubmit      bool
}

// mockPage is an in-memory comment list. Clicking "load more" appends the
// pending comments once.
type mockPage struct {
	mu       sync.Mutex
	comments []pageComment
	pending  []pageComment
	firstErr error

	focused  []string
	written  map[string]string
	loadMore int
}

func newMockPage(comments ...pageComment) *mockPage {
	return &mockPage{comments: comments, written: map[string]string{}}
}

func (p *mockPage) URL() string { return "https://example.test/feed" }

func (p *mockPage) index(ref model.CommentRef) int {
	return slices.IndexFunc(p.comments, func(c pageComment) bool { return c.id == ref.ID })
}

func (p *mockPage) lookup(ref model.CommentRef) (pageComment, bool) {
	i := p.index(ref)
	if i < 0 {
		return pageComment{}, false
	}
	return p.comments[i], true
}

func (p *mockPage) FirstComment(_ context.Context) (model.CommentRef, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.firstErr != nil {
		return model.CommentRef{}, false, p.firstErr
	}
	if len(p.comments) == 0 {
		return model.CommentRef{}, false, nil
	}
	return model.CommentRef{ID: p.comments[0].id}, true, nil
}

func (p *mockPage) NextComment(_ context.Context, ref model.CommentRef) (model.CommentRef, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.index(ref)
	if i < 0 || i+1 >= len(p.comments) {
		return model.CommentRef{}, false, nil
	}
	return model.CommentRef{ID: p.comments[i+1].id}, true, nil
}

func (p *mockPage) Focus(_ context.Context, ref model.CommentRef) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.lookup(ref); !ok {
		return model.ErrElementNotFound
	}
	p.focused = append(p.focused, ref.ID)
	return nil
}

func (p *mockPage) OpenReply(_ context.Context, ref model.CommentRef) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.lookup(ref)
	if !ok || c.noReplyButton {
		return model.ErrElementNotFound
	}
	return nil
}

func (p *mockPage) HasReplyEditor(_ context.Context, ref model.CommentRef) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.lookup(ref)
	return ok && !c.noEditor, nil
}

func (p *mockPage) CommentText(_ context.Context, ref model.CommentRef) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.lookup(ref)
	if !ok {
		return "", model.ErrElementNotFound
	}
	return c.text, nil
}

func (p *mockPage) WriteReply(_ context.Context, ref model.CommentRef, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.written[ref.ID] = text
	return nil
}

func (p *mockPage) Submit(_ context.Context, ref model.CommentRef) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, _ := p.lookup(ref)
	return !c.noSubmit, nil
}

func (p *mockPage) LoadMore(_ context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) == 0 {
		return false, nil
	}
	p.comments = append(p.comments, p.pending...)
	p.pending = nil
	p.loadMore++
	return true, nil
}

func (p *mockPage) focusOrder() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.focused)
}

// recordingSleep records requested waits without blocking. hook, when set,
// runs on each wait and its error is returned.
type recordingSleep struct {
	mu    sync.Mutex
	waits []time.Duration
	hook  func(ctx context.Context, n int, d time.Duration) error
}

func (s *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	n := len(s.waits)
	s.mu.Unlock()
	if s.hook != nil {
		return s.hook(ctx, n, d)
	}
	return ctx.Err()
}

func newTestLoop(replier Replier, replyLog driven.ReplyLogStore, sleeper *recordingSleep) *AutomationLoop {
	l := NewAutomationLoop(replier, replyLog, LoopConfig{Period: 4 * time.Second, LoadMoreSettle: 3 * time.Second}, discardLogger())
	l.sleep = sleeper.sleep
	return l
}
