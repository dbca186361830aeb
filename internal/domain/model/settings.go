// Package model holds the domain types of the reply automation.
package model

// Setting keys persisted by the settings store.
const (
	SettingAPIKey = "openai_api_key"
	SettingPrompt = "prompt"
)

// DefaultPrompt is used whenever no custom prompt has been saved.
const DefaultPrompt = "Analyze this comment and provide an appropriate response. " +
	"Just reply to the comment without any introductory text. " +
	"Use the pronoun 'I' every time as if you were me"

// Settings holds the user-editable configuration of the reply automation.
// An empty field means "unset".
type Settings struct {
	APIKey string
	Prompt string
}

// HasAPIKey reports whether an API key is stored.
func (s Settings) HasAPIKey() bool {
	return s.APIKey != ""
}

// PromptOrDefault returns the stored prompt, or DefaultPrompt when none is set.
func (s Settings) PromptOrDefault() string {
	if s.Prompt == "" {
		return DefaultPrompt
	}
	return s.Prompt
}

// IsSecretSetting reports whether the value stored under key must be encrypted at rest.
func IsSecretSetting(key string) bool {
	return key == SettingAPIKey
}
