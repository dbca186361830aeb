// Package logger builds the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
)

// Setup creates a logger writing to w in the given format ("json" or text)
// at level, installs it as the slog default and returns it.
func Setup(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler).With("service", "replybot")
	slog.SetDefault(l)
	return l
}
