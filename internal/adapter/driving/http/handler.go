// Package httphandler implements the JSON API driving adapter.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/replybot/internal/application"
	"github.com/ericfisherdev/replybot/internal/domain/model"
)

const (
	defaultRepliesLimit = 20
	maxRepliesLimit     = 200

	// actionStopAutoReply is the message protocol action that halts a run.
	actionStopAutoReply = "stopAutoReply"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	ctrl   *application.Controller
	relay  application.Replier
	logger *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(ctrl *application.Controller, relay application.Replier, logger *slog.Logger) *Handler {
	return &Handler{
		ctrl:   ctrl,
		relay:  relay,
		logger: logger,
	}
}

// RegisterAPIRoutes registers all /api/v1 routes on the provided mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/health", h.Health)

	mux.HandleFunc("GET /api/v1/settings", h.GetSettings)
	mux.HandleFunc("PUT /api/v1/settings", h.UpdateSettings)
	mux.HandleFunc("PUT /api/v1/settings/api-key", h.SaveAPIKey)
	mux.HandleFunc("PUT /api/v1/settings/prompt", h.SavePrompt)

	mux.HandleFunc("POST /api/v1/reply", h.Reply)
	mux.HandleFunc("POST /api/v1/messages", h.Message)

	mux.HandleFunc("GET /api/v1/automation", h.AutomationStatus)
	mux.HandleFunc("POST /api/v1/automation/start", h.StartAutomation)
	mux.HandleFunc("POST /api/v1/automation/stop", h.StopAutomation)

	mux.HandleFunc("GET /api/v1/replies", h.ListReplies)
	mux.HandleFunc("GET /api/v1/models", h.ListModels)
}

// NewServeMux creates an http.Handler serving only the API routes, wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, h)
	return ApplyMiddleware(mux, logger)
}

// GetSettings returns the stored settings. The API key itself is never returned.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.ctrl.LoadSettings(r.Context())
	if err != nil {
		h.writeDomainError(w, "failed to load settings", err)
		return
	}

	writeJSON(w, http.StatusOK, toSettingsResponse(settings))
}

// UpdateSettings saves whichever of api_key and prompt are present.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.APIKey == nil && req.Prompt == nil {
		writeError(w, http.StatusBadRequest, "api_key or prompt is required")
		return
	}

	if req.APIKey != nil {
		if err := h.ctrl.SaveAPIKey(r.Context(), *req.APIKey); err != nil {
			h.writeDomainError(w, "failed to save api key", err)
			return
		}
	}
	if req.Prompt != nil {
		if err := h.ctrl.SavePrompt(r.Context(), *req.Prompt); err != nil {
			h.writeDomainError(w, "failed to save prompt", err)
			return
		}
	}

	h.GetSettings(w, r)
}

// SaveAPIKey stores a new API key.
func (h *Handler) SaveAPIKey(w http.ResponseWriter, r *http.Request) {
	var req SaveAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.ctrl.SaveAPIKey(r.Context(), req.APIKey); err != nil {
		h.writeDomainError(w, "failed to save api key", err)
		return
	}

	writeJSON(w, http.StatusOK, StatusMessageResponse{Status: "API key saved"})
}

// SavePrompt stores a new prompt.
func (h *Handler) SavePrompt(w http.ResponseWriter, r *http.Request) {
	var req SavePromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.ctrl.SavePrompt(r.Context(), req.Prompt); err != nil {
		h.writeDomainError(w, "failed to save prompt", err)
		return
	}

	writeJSON(w, http.StatusOK, StatusMessageResponse{Status: "Prompt saved"})
}

// Reply generates a suggested reply for a single comment without touching
// any page.
func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	var req ReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Comment == "" {
		writeError(w, http.StatusBadRequest, "comment is required")
		return
	}

	suggestion, err := h.relay.Handle(r.Context(), model.ReplyRequest{CommentText: req.Comment, Model: req.Model})
	if err != nil {
		h.writeDomainError(w, "failed to generate reply", err)
		return
	}

	writeJSON(w, http.StatusOK, ReplyResponse{SuggestedReply: suggestion})
}

// Message serves the extension message protocol: a comment to relay, or an
// action to perform.
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	var msg MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch msg.Action {
	case actionStopAutoReply:
		status, err := h.ctrl.Stop()
		if err != nil && !errors.Is(err, model.ErrNotRunning) {
			h.writeDomainError(w, "failed to stop auto-reply", err)
			return
		}
		if status == "" {
			status = application.StoppedMessage
		}
		writeJSON(w, http.StatusOK, MessageResponse{Status: status})

	case "":
		if msg.CommentContent == "" {
			writeError(w, http.StatusBadRequest, "commentContent is required")
			return
		}
		result := model.NewReplyResult(h.relay.Handle(r.Context(), model.ReplyRequest{
			CommentText: msg.CommentContent,
			Model:       msg.Model,
		}))
		if result.IsError() {
			h.logger.Warn("relay request failed", "error", result.ErrorMessage)
			writeJSON(w, http.StatusOK, MessageResponse{Error: result.ErrorMessage})
			return
		}
		writeJSON(w, http.StatusOK, MessageResponse{SuggestedResponse: result.SuggestedText})

	default:
		writeError(w, http.StatusBadRequest, "unknown action: "+msg.Action)
	}
}

// AutomationStatus returns the status of the current or most recent run.
func (h *Handler) AutomationStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toRunStatusResponse(h.ctrl.Status()))
}

// StartAutomation launches a run against the active browser page.
func (h *Handler) StartAutomation(w http.ResponseWriter, r *http.Request) {
	var req StartAutomationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := h.ctrl.Start(r.Context(), application.StartRequest{Prompt: req.Prompt, Model: req.Model})
	if err != nil {
		h.writeDomainError(w, "failed to start auto-reply", err)
		return
	}

	writeJSON(w, http.StatusAccepted, toRunStatusResponse(status))
}

// StopAutomation signals the active run to stop.
func (h *Handler) StopAutomation(w http.ResponseWriter, _ *http.Request) {
	msg, err := h.ctrl.Stop()
	if err != nil {
		h.writeDomainError(w, "failed to stop auto-reply", err)
		return
	}

	writeJSON(w, http.StatusOK, StatusMessageResponse{Status: msg})
}

// ListReplies returns recent reply log entries, newest first.
func (h *Handler) ListReplies(w http.ResponseWriter, r *http.Request) {
	limit := defaultRepliesLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRepliesLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxRepliesLimit))
			return
		}
		limit = n
	}

	entries, err := h.ctrl.RecentReplies(r.Context(), limit)
	if err != nil {
		h.writeDomainError(w, "failed to list replies", err)
		return
	}

	resp := make([]ReplyLogResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toReplyLogResponse(e))
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListModels returns the models offered for selection.
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ModelsResponse{Models: h.ctrl.Models(r.Context())})
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeDomainError maps err to a status code and writes it. Server-side
// failures are logged with msg.
func (h *Handler) writeDomainError(w http.ResponseWriter, msg string, err error) {
	status, body := ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, "error", err)
	}
	writeError(w, status, body)
}

// ErrorStatus maps a domain error to an HTTP status and the message shown to
// the user. Unclassified errors are reported as a generic 500.
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrConfiguration):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, model.ErrAlreadyRunning), errors.Is(err, model.ErrNotRunning), errors.Is(err, model.ErrNoActivePage):
		return http.StatusConflict, err.Error()
	case errors.Is(err, model.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, model.ErrTransport):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
