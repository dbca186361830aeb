// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// PopupViewModel holds everything the control panel renders.
type PopupViewModel struct {
	CSRFToken string

	APIKeySet bool
	Prompt    string
	Models    []ModelOption

	Run   RunViewModel
	Flash FlashViewModel

	Replies []ReplyViewModel
}

// ModelOption is one entry of the model selector.
type ModelOption struct {
	ID       string
	Selected bool
}

// RunViewModel holds presentation-ready data for the current or last run.
type RunViewModel struct {
	Running     bool
	State       string
	Model       string
	Visited     int
	Replied     int
	Skipped     int
	LastError   string
	ToggleLabel string // "Start" or "Stop", matching what the toggle will do
}

// FlashViewModel is the transient status line shown after an action.
type FlashViewModel struct {
	Text    string
	IsError bool
}

// ReplyViewModel holds one reply log entry for display.
type ReplyViewModel struct {
	Comment       string
	SuggestedHTML string // sanitized HTML rendered from the suggestion's markdown
	Model         string
	Submitted     bool
	Error         string
	CreatedAt     string
	Age           string
}
