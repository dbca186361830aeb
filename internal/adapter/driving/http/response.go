package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/replybot/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// SettingsResponse is the JSON representation of the stored settings.
type SettingsResponse struct {
	APIKeySet bool   `json:"api_key_set"`
	Prompt    string `json:"prompt"`
}

// UpdateSettingsRequest is the JSON body for PUT /settings. Absent fields are
// left unchanged.
type UpdateSettingsRequest struct {
	APIKey *string `json:"api_key"`
	Prompt *string `json:"prompt"`
}

// SaveAPIKeyRequest is the JSON body for the api-key endpoint.
type SaveAPIKeyRequest struct {
	APIKey string `json:"api_key"`
}

// SavePromptRequest is the JSON body for the prompt endpoint.
type SavePromptRequest struct {
	Prompt string `json:"prompt"`
}

// StatusMessageResponse carries a human-readable confirmation.
type StatusMessageResponse struct {
	Status string `json:"status"`
}

// ReplyRequest is the JSON body for a one-off reply suggestion.
type ReplyRequest struct {
	Comment string `json:"comment"`
	Model   string `json:"model"`
}

// ReplyResponse is the suggestion returned for a ReplyRequest.
type ReplyResponse struct {
	SuggestedReply string `json:"suggested_reply"`
}

// MessageRequest is one message of the extension protocol. Either Action or
// CommentContent is set.
type MessageRequest struct {
	Action         string `json:"action,omitempty"`
	CommentContent string `json:"commentContent,omitempty"`
	Model          string `json:"model,omitempty"`
}

// MessageResponse answers a MessageRequest with exactly one field set.
type MessageResponse struct {
	SuggestedResponse string `json:"suggestedResponse,omitempty"`
	Error             string `json:"error,omitempty"`
	Status            string `json:"status,omitempty"`
}

// StartAutomationRequest is the JSON body for starting a run.
type StartAutomationRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

// RunStatusResponse is the JSON representation of a run.
type RunStatusResponse struct {
	State      string `json:"state"`
	Running    bool   `json:"running"`
	Model      string `json:"model,omitempty"`
	Visited    int    `json:"visited"`
	Replied    int    `json:"replied"`
	Skipped    int    `json:"skipped"`
	StartedAt  string `json:"started_at,omitempty"`
	FinishedAt string `json:"finished_at,omitempty"`
	LastError  string `json:"last_error,omitempty"`
}

// ReplyLogResponse is the JSON representation of one reply log entry.
type ReplyLogResponse struct {
	ID             int64  `json:"id"`
	Comment        string `json:"comment"`
	SuggestedReply string `json:"suggested_reply"`
	Model          string `json:"model"`
	Submitted      bool   `json:"submitted"`
	Error          string `json:"error,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// ModelsResponse lists selectable model IDs.
type ModelsResponse struct {
	Models []string `json:"models"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func toSettingsResponse(s model.Settings) SettingsResponse {
	return SettingsResponse{
		APIKeySet: s.HasAPIKey(),
		Prompt:    s.Prompt,
	}
}

func toRunStatusResponse(s model.RunStatus) RunStatusResponse {
	return RunStatusResponse{
		State:      string(s.State),
		Running:    s.Running,
		Model:      s.Model,
		Visited:    s.Visited,
		Replied:    s.Replied,
		Skipped:    s.Skipped,
		StartedAt:  formatOptionalTime(s.StartedAt),
		FinishedAt: formatOptionalTime(s.FinishedAt),
		LastError:  s.LastError,
	}
}

func toReplyLogResponse(e model.ReplyLogEntry) ReplyLogResponse {
	return ReplyLogResponse{
		ID:             e.ID,
		Comment:        e.CommentText,
		SuggestedReply: e.SuggestedText,
		Model:          e.Model,
		Submitted:      e.Submitted,
		Error:          e.Error,
		CreatedAt:      e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// formatOptionalTime renders t as RFC 3339, or "" for the zero time.
func formatOptionalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
