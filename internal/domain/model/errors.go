package model

import "errors"

// Error taxonomy shared by every layer. Adapters wrap these with %w so callers
// can classify failures with errors.Is.
var (
	// ErrConfiguration marks missing or invalid user configuration.
	ErrConfiguration = errors.New("configuration error")

	// ErrAPIKeyNotSet is returned when no API key has been saved.
	ErrAPIKeyNotSet error = &kindError{kind: ErrConfiguration, msg: "API key is not set."}

	// ErrPromptNotSet is returned when the prompt is empty.
	ErrPromptNotSet error = &kindError{kind: ErrConfiguration, msg: "Please enter a prompt."}

	// ErrStorageUnavailable is returned when the persistence layer is not present.
	ErrStorageUnavailable = errors.New("storage is not available")

	// ErrStorage marks a failed read or write against the persistence layer.
	ErrStorage = errors.New("storage error")

	// ErrTransport marks a failed or malformed completion API exchange.
	ErrTransport = errors.New("transport error")

	// ErrUnexpectedResponse is returned when the completion response has no usable choice.
	ErrUnexpectedResponse error = &kindError{kind: ErrTransport, msg: "Unexpected API response structure"}

	// ErrElementNotFound is returned when an expected page element is absent.
	ErrElementNotFound = errors.New("element not found")

	// ErrNoActivePage is returned when the browser has no tab to automate.
	ErrNoActivePage = errors.New("no open page found in the browser")

	// ErrAlreadyRunning is returned when a run is started while another is active.
	ErrAlreadyRunning = errors.New("auto-reply is already running")

	// ErrNotRunning is returned when stopping while no run is active.
	ErrNotRunning = errors.New("auto-reply is not running")
)

// kindError is a sentinel with a user-facing message that still matches its
// category under errors.Is.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }
