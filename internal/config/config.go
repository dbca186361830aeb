// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/replybot/internal/domain/model"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr string
	DBPath     string

	// SecretKey is the 32-byte AES-256 key protecting the stored API key.
	// Nil when REPLYBOT_SECRET_KEY is unset; the API key cannot be stored then.
	SecretKey []byte

	OpenAIBaseURL string
	DefaultModel  string

	ReplyPeriod    time.Duration
	LoadMoreSettle time.Duration

	CDPURL        string
	Headless      bool
	ProfileDir    string
	PageURLPrefix string

	Selectors model.Selectors

	LogFormat string
	LogLevel  slog.Level
}

// HasSecretKey returns true when an encryption key for secret settings is configured.
func (c *Config) HasSecretKey() bool {
	return len(c.SecretKey) == 32
}

// Load reads configuration from environment variables and returns a validated Config.
// Every variable is optional. Defaults: REPLYBOT_LISTEN_ADDR (127.0.0.1:8080),
// REPLYBOT_DB_PATH (replybot.db), REPLYBOT_DEFAULT_MODEL (gpt-3.5-turbo),
// REPLYBOT_REPLY_PERIOD (5s), REPLYBOT_LOAD_MORE_SETTLE (3s),
// REPLYBOT_LOG_FORMAT (text), REPLYBOT_LOG_LEVEL (info).
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:    getEnv("REPLYBOT_LISTEN_ADDR", "127.0.0.1:8080"),
		DBPath:        getEnv("REPLYBOT_DB_PATH", "replybot.db"),
		OpenAIBaseURL: os.Getenv("REPLYBOT_OPENAI_BASE_URL"),
		DefaultModel:  getEnv("REPLYBOT_DEFAULT_MODEL", "gpt-3.5-turbo"),
		CDPURL:        os.Getenv("REPLYBOT_CDP_URL"),
		ProfileDir:    os.Getenv("REPLYBOT_PROFILE_DIR"),
		PageURLPrefix: os.Getenv("REPLYBOT_PAGE_URL_PREFIX"),
		LogFormat:     strings.ToLower(getEnv("REPLYBOT_LOG_FORMAT", "text")),
		Selectors:     loadSelectors(),
	}

	var err error
	if cfg.ReplyPeriod, err = getEnvDuration("REPLYBOT_REPLY_PERIOD", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.LoadMoreSettle, err = getEnvDuration("REPLYBOT_LOAD_MORE_SETTLE", 3*time.Second); err != nil {
		return nil, err
	}

	if v, ok := os.LookupEnv("REPLYBOT_HEADLESS"); ok && v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("REPLYBOT_HEADLESS has invalid boolean %q: %w", v, err)
		}
		cfg.Headless = headless
	}

	if v := strings.TrimSpace(os.Getenv("REPLYBOT_SECRET_KEY")); v != "" {
		key, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("REPLYBOT_SECRET_KEY must be hex encoded: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("REPLYBOT_SECRET_KEY must decode to 32 bytes, got %d", len(key))
		}
		cfg.SecretKey = key
	}

	if v, ok := os.LookupEnv("REPLYBOT_LOG_LEVEL"); ok && v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("REPLYBOT_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.ReplyPeriod <= 0 {
		return fmt.Errorf("REPLYBOT_REPLY_PERIOD must be positive, got %s", c.ReplyPeriod)
	}
	if c.LoadMoreSettle < 0 {
		return fmt.Errorf("REPLYBOT_LOAD_MORE_SETTLE must not be negative, got %s", c.LoadMoreSettle)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("REPLYBOT_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// loadSelectors starts from the default DOM contract and applies any
// REPLYBOT_SELECTOR_* overrides.
func loadSelectors() model.Selectors {
	s := model.DefaultSelectors()

	overrides := []struct {
		env    string
		target *string
	}{
		{"REPLYBOT_SELECTOR_COMMENT_ITEM", &s.CommentItem},
		{"REPLYBOT_SELECTOR_COMMENT_CONTAINER", &s.CommentContainer},
		{"REPLYBOT_SELECTOR_COMMENT_TEXT", &s.CommentText},
		{"REPLYBOT_SELECTOR_REPLY_BUTTON", &s.ReplyButton},
		{"REPLYBOT_SELECTOR_REPLY_EDITOR", &s.ReplyEditor},
		{"REPLYBOT_SELECTOR_SUBMIT_BUTTON", &s.SubmitButton},
		{"REPLYBOT_SELECTOR_FALLBACK_BUTTON", &s.FallbackButton},
		{"REPLYBOT_SELECTOR_LOAD_MORE", &s.LoadMoreButton},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.env)); v != "" {
			*o.target = v
		}
	}

	return s
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	return d, nil
}
