package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	vm "github.com/ericfisherdev/replybot/internal/adapter/driving/web/viewmodel"
)

// Popup renders the control panel: status line, API key and prompt forms,
// the start/stop toggle, run counters, and recent replies.
func Popup(data vm.PopupViewModel) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}

		hw.raw(`<main class="popup"><h1>Auto Reply</h1>`)
		flash(hw, data.Flash)
		apiKeyForm(hw, data)
		toggleForm(hw, data)
		runPanel(hw, data.Run)
		replyList(hw, data.Replies)
		hw.raw(`</main>`)

		return hw.err
	})
}

func flash(hw *htmlWriter, f vm.FlashViewModel) {
	if f.Text == "" {
		return
	}
	class := "status-message"
	if f.IsError {
		class += " error"
	}
	hw.raw(`<p role="status"`)
	hw.attr("class", class)
	hw.raw(`>`)
	hw.text(f.Text)
	hw.raw(`</p>`)
}

func csrfField(hw *htmlWriter, token string) {
	hw.raw(`<input type="hidden" name="csrf_token"`)
	hw.attr("value", token)
	hw.raw(`>`)
}

func apiKeyForm(hw *htmlWriter, data vm.PopupViewModel) {
	placeholder := "Enter your API key"
	if data.APIKeySet {
		placeholder = "API key saved (enter a new one to replace it)"
	}

	hw.raw(`<form method="post" action="/settings/api-key" class="api-key">`)
	csrfField(hw, data.CSRFToken)
	hw.raw(`<label for="api-key">API key</label>`)
	hw.raw(`<input id="api-key" type="password" name="api_key" autocomplete="off"`)
	hw.attr("placeholder", placeholder)
	hw.raw(`><button type="submit">Save API Key</button></form>`)
}

// toggleForm posts the prompt and model together with the toggle, so starting
// a run always uses what is on screen.
func toggleForm(hw *htmlWriter, data vm.PopupViewModel) {
	hw.raw(`<form method="post" action="/automation/toggle" class="automation">`)
	csrfField(hw, data.CSRFToken)

	hw.raw(`<label for="prompt">Prompt</label><textarea id="prompt" name="prompt" rows="5">`)
	hw.text(data.Prompt)
	hw.raw(`</textarea>`)

	hw.raw(`<button type="submit" formaction="/settings/prompt" class="secondary">Save Prompt</button>`)

	hw.raw(`<label for="model">Model</label><select id="model" name="model">`)
	for _, opt := range data.Models {
		hw.raw(`<option`)
		hw.attr("value", opt.ID)
		if opt.Selected {
			hw.raw(` selected`)
		}
		hw.raw(`>`)
		hw.text(opt.ID)
		hw.raw(`</option>`)
	}
	hw.raw(`</select>`)

	class := "toggle"
	if data.Run.Running {
		class += " running"
	}
	hw.raw(`<button type="submit"`)
	hw.attr("class", class)
	hw.raw(`>`)
	hw.text(data.Run.ToggleLabel)
	hw.raw(`</button></form>`)
}

func runPanel(hw *htmlWriter, run vm.RunViewModel) {
	hw.raw(`<section class="run"><h2>Run</h2><dl>`)
	term(hw, "State", run.State)
	if run.Model != "" {
		term(hw, "Model", run.Model)
	}
	term(hw, "Visited", strconv.Itoa(run.Visited))
	term(hw, "Replied", strconv.Itoa(run.Replied))
	term(hw, "Skipped", strconv.Itoa(run.Skipped))
	if run.LastError != "" {
		term(hw, "Last error", run.LastError)
	}
	hw.raw(`</dl></section>`)
}

func term(hw *htmlWriter, name, value string) {
	hw.raw(`<dt>`)
	hw.text(name)
	hw.raw(`</dt><dd>`)
	hw.text(value)
	hw.raw(`</dd>`)
}

func replyList(hw *htmlWriter, replies []vm.ReplyViewModel) {
	hw.raw(`<section class="replies"><h2>Recent replies</h2>`)
	if len(replies) == 0 {
		hw.raw(`<p class="empty">No replies yet.</p></section>`)
		return
	}

	hw.raw(`<ol>`)
	for _, r := range replies {
		hw.raw(`<li class="reply">`)
		hw.raw(`<blockquote class="comment">`)
		hw.text(r.Comment)
		hw.raw(`</blockquote>`)
		if r.SuggestedHTML != "" {
			// Already sanitized by the markdown renderer.
			hw.raw(`<div class="suggestion">`)
			hw.raw(r.SuggestedHTML)
			hw.raw(`</div>`)
		}
		hw.raw(`<p class="meta"><time`)
		hw.attr("datetime", r.CreatedAt)
		hw.raw(`>`)
		hw.text(r.Age)
		hw.raw(`</time> · `)
		hw.text(r.Model)
		switch {
		case r.Error != "":
			hw.raw(` · <span class="error">`)
			hw.text(r.Error)
			hw.raw(`</span>`)
		case r.Submitted:
			hw.raw(` · <span class="ok">submitted</span>`)
		default:
			hw.raw(` · <span class="warn">not submitted</span>`)
		}
		hw.raw(`</p></li>`)
	}
	hw.raw(`</ol></section>`)
}
