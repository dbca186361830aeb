// Package driven defines secondary port interfaces for external adapters.
package driven

import "context"

// SettingsStore defines the driven port for persisted user settings.
// Secret values (see model.IsSecretSetting) are encrypted by the adapter; this
// interface operates on plaintext at the domain boundary.
type SettingsStore interface {
	// Get returns the stored values for the requested keys. Keys with no stored
	// value are absent from the map. Returns model.ErrStorageUnavailable when the
	// persistence layer is not present and a wrapped model.ErrStorage when the
	// read fails.
	Get(ctx context.Context, keys ...string) (map[string]string, error)

	// Set stores or replaces every given value in a single write.
	Set(ctx context.Context, values map[string]string) error
}
