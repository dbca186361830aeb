package application

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/ericfisherdev/replybot/internal/domain/model"
	"github.com/ericfisherdev/replybot/internal/domain/port/driven"
)

// responseToken matches the label models tend to prefix replies with.
var responseToken = regexp.MustCompile(`(?i)response:`)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// LoopConfig holds the fixed delays of the automation loop.
type LoopConfig struct {
	// Period is the wait after a submitted reply. Half of it is waited after
	// opening the reply editor.
	Period time.Duration

	// LoadMoreSettle is the wait after clicking "load more comments".
	LoadMoreSettle time.Duration
}

// AutomationLoop walks the comments of a page in document order and replies
// to each with a generated suggestion.
type AutomationLoop struct {
	replier  Replier
	replyLog driven.ReplyLogStore
	cfg      LoopConfig
	sleep    SleepFunc
	now      func() time.Time
	logger   *slog.Logger
}

// NewAutomationLoop creates an AutomationLoop. replyLog may be nil, in which
// case attempts are only logged.
func NewAutomationLoop(replier Replier, replyLog driven.ReplyLogStore, cfg LoopConfig, logger *slog.Logger) *AutomationLoop {
	return &AutomationLoop{
		replier:  replier,
		replyLog: replyLog,
		cfg:      cfg,
		sleep:    sleepContext,
		now:      time.Now,
		logger:   logger,
	}
}

// Run drives run against page until the comments are exhausted, a stop is
// requested, or ctx is canceled. Failures on a single comment are logged and
// the loop moves on.
func (l *AutomationLoop) Run(ctx context.Context, page driven.Page, run *Run) {
	logger := l.logger.With("url", page.URL(), "model", run.model)

	cursor, ok, err := page.FirstComment(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to locate first comment", "error", err)
		run.finish(model.LoopStateExhausted, l.now(), err)
		return
	}
	if !ok {
		logger.InfoContext(ctx, "no comments found on page")
		run.finish(model.LoopStateExhausted, l.now(), nil)
		return
	}
	run.setState(model.LoopStatePositioned)
	logger.InfoContext(ctx, "auto-reply started")

	for {
		if run.StopRequested() {
			logger.InfoContext(ctx, "auto-reply stopped")
			run.finish(model.LoopStateStopped, l.now(), nil)
			return
		}
		if ctx.Err() != nil {
			logger.InfoContext(ctx, "auto-reply canceled")
			run.finish(model.LoopStateStopped, l.now(), ctx.Err())
			return
		}

		run.update(func(s *model.RunStatus) {
			s.State = model.LoopStateReplying
			s.Visited++
		})

		submitted, err := l.replyTo(ctx, page, run, cursor)
		switch {
		case err != nil && ctx.Err() != nil:
			logger.InfoContext(ctx, "auto-reply canceled")
			run.finish(model.LoopStateStopped, l.now(), ctx.Err())
			return
		case err != nil:
			logger.WarnContext(ctx, "skipping comment", "comment", cursor.ID, "error", err)
			run.update(func(s *model.RunStatus) {
				s.Skipped++
				s.LastError = err.Error()
			})
		case submitted:
			run.update(func(s *model.RunStatus) { s.Replied++ })
		default:
			run.update(func(s *model.RunStatus) { s.Skipped++ })
		}

		run.setState(model.LoopStateAdvancing)

		next, ok, err := page.NextComment(ctx, cursor)
		if err != nil {
			logger.ErrorContext(ctx, "failed to locate next comment", "error", err)
			run.finish(model.LoopStateExhausted, l.now(), err)
			return
		}
		if !ok {
			logger.InfoContext(ctx, "no more comments")
			run.finish(model.LoopStateExhausted, l.now(), nil)
			return
		}
		cursor = next

		if err := l.loadMore(ctx, page); err != nil && ctx.Err() == nil {
			logger.WarnContext(ctx, "load more comments failed", "error", err)
		}
		run.setState(model.LoopStatePositioned)
	}
}

// replyTo runs the replying phase for one comment. It reports whether a
// reply was submitted. A missing submit control is not an error.
func (l *AutomationLoop) replyTo(ctx context.Context, page driven.Page, run *Run, ref model.CommentRef) (bool, error) {
	if err := page.Focus(ctx, ref); err != nil {
		return false, err
	}

	if err := page.OpenReply(ctx, ref); err != nil {
		return false, err
	}

	if err := l.sleep(ctx, l.cfg.Period/2); err != nil {
		return false, err
	}

	entry := model.ReplyLogEntry{Model: run.model}

	hasEditor, err := page.HasReplyEditor(ctx, ref)
	if err == nil && !hasEditor {
		err = fmt.Errorf("reply editor: %w", model.ErrElementNotFound)
	}
	if err != nil {
		l.record(ctx, entry, err)
		return false, err
	}

	text, err := page.CommentText(ctx, ref)
	if err != nil {
		l.record(ctx, entry, err)
		return false, err
	}
	entry.CommentText = text

	suggestion, err := l.replier.Handle(ctx, model.ReplyRequest{
		CommentText: run.prompt + "\n\n" + text,
		Model:       run.model,
	})
	if err != nil {
		l.record(ctx, entry, err)
		return false, err
	}

	reply := cleanReply(suggestion)
	entry.SuggestedText = reply

	if err := page.WriteReply(ctx, ref, reply); err != nil {
		l.record(ctx, entry, err)
		return false, err
	}

	submitted, err := page.Submit(ctx, ref)
	if err != nil {
		l.record(ctx, entry, err)
		return false, err
	}
	if !submitted {
		l.logger.WarnContext(ctx, "submit button not found", "comment", ref.ID)
	}
	entry.Submitted = submitted
	l.record(ctx, entry, nil)

	if err := l.sleep(ctx, l.cfg.Period); err != nil {
		return submitted, err
	}
	return submitted, nil
}

func (l *AutomationLoop) loadMore(ctx context.Context, page driven.Page) error {
	clicked, err := page.LoadMore(ctx)
	if err != nil || !clicked {
		return err
	}
	return l.sleep(ctx, l.cfg.LoadMoreSettle)
}

// record appends an attempt to the reply log. Log failures never stop the run.
func (l *AutomationLoop) record(ctx context.Context, entry model.ReplyLogEntry, cause error) {
	if l.replyLog == nil {
		return
	}
	if cause != nil {
		entry.Error = cause.Error()
	}
	entry.CreatedAt = l.now()

	if _, err := l.replyLog.Append(ctx, entry); err != nil {
		l.logger.WarnContext(ctx, "failed to record reply", "error", err)
	}
}

// cleanReply removes every "response:" label, in any case, and trims the result.
func cleanReply(s string) string {
	return strings.TrimSpace(responseToken.ReplaceAllString(s, ""))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
