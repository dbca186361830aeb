package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers all control panel routes on the provided mux.
// Static assets are served from the embedded filesystem at /static/*.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Static assets (embedded via go:embed).
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	// Page routes.
	mux.HandleFunc("GET /{$}", h.Popup)

	// Form actions. Each redirects back to / with a status message.
	mux.HandleFunc("POST /settings/api-key", h.SaveAPIKey)
	mux.HandleFunc("POST /settings/prompt", h.SavePrompt)
	mux.HandleFunc("POST /automation/toggle", h.ToggleAutomation)
}
