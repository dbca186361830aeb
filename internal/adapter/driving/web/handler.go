// Package web implements the HTML control panel driving adapter using templ
// components.
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ericfisherdev/replybot/internal/adapter/driving/web/templates"
	vm "github.com/ericfisherdev/replybot/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/replybot/internal/application"
	"github.com/ericfisherdev/replybot/internal/domain/model"
)

const (
	recentRepliesLimit = 10

	flashParam      = "msg"
	flashErrorParam = "err"
)

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	ctrl         *application.Controller
	defaultModel string
	logger       *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(ctrl *application.Controller, defaultModel string, logger *slog.Logger) *Handler {
	return &Handler{
		ctrl:         ctrl,
		defaultModel: defaultModel,
		logger:       logger,
	}
}

// Popup renders the control panel with the full HTML layout.
func (h *Handler) Popup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := vm.PopupViewModel{
		CSRFToken: csrfToken(w, r),
		Flash:     flashFromQuery(r.URL.Query()),
	}

	settings, err := h.ctrl.LoadSettings(ctx)
	if err != nil {
		h.logger.Error("failed to load settings", "error", err)
		data.Flash = vm.FlashViewModel{Text: err.Error(), IsError: true}
		settings.Prompt = model.DefaultPrompt
	}
	data.APIKeySet = settings.HasAPIKey()
	data.Prompt = settings.Prompt

	status := h.ctrl.Status()
	data.Run = toRunViewModel(status)

	selected := status.Model
	if selected == "" {
		selected = h.defaultModel
	}
	data.Models = toModelOptions(h.ctrl.Models(ctx), selected)

	replies, err := h.ctrl.RecentReplies(ctx, recentRepliesLimit)
	if err != nil {
		h.logger.Warn("failed to load recent replies", "error", err)
	}
	data.Replies = toReplyViewModels(replies, time.Now())

	layout := templates.Layout("Auto Reply", templates.Popup(data))
	if err := layout.Render(ctx, w); err != nil {
		h.logger.Error("failed to render popup", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// SaveAPIKey stores the submitted API key.
func (h *Handler) SaveAPIKey(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return
	}

	err := h.ctrl.SaveAPIKey(r.Context(), r.FormValue("api_key"))
	h.redirectWithResult(w, r, "API key saved", err)
}

// SavePrompt stores the submitted prompt.
func (h *Handler) SavePrompt(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return
	}

	err := h.ctrl.SavePrompt(r.Context(), r.FormValue("prompt"))
	h.redirectWithResult(w, r, "Prompt saved", err)
}

// ToggleAutomation stops the active run, or starts one with the submitted
// prompt and model when idle.
func (h *Handler) ToggleAutomation(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return
	}

	if h.ctrl.Status().Running {
		msg, err := h.ctrl.Stop()
		// The run may have ended on its own since the page was rendered.
		if errors.Is(err, model.ErrNotRunning) {
			msg, err = application.StoppedMessage, nil
		}
		h.redirectWithResult(w, r, msg, err)
		return
	}

	_, err := h.ctrl.Start(r.Context(), application.StartRequest{
		Prompt: r.FormValue("prompt"),
		Model:  r.FormValue("model"),
	})
	h.redirectWithResult(w, r, "Auto-reply started", err)
}

// redirectWithResult sends the browser back to the panel with either the
// success message or the error text as a transient status line.
func (h *Handler) redirectWithResult(w http.ResponseWriter, r *http.Request, success string, err error) {
	q := url.Values{}
	if err != nil {
		h.logger.Warn("panel action failed", "path", r.URL.Path, "error", err)
		q.Set(flashErrorParam, "1")
		q.Set(flashParam, err.Error())
	} else {
		q.Set(flashParam, success)
	}

	http.Redirect(w, r, "/?"+q.Encode(), http.StatusSeeOther)
}

func flashFromQuery(q url.Values) vm.FlashViewModel {
	return vm.FlashViewModel{
		Text:    q.Get(flashParam),
		IsError: q.Get(flashErrorParam) != "",
	}
}
