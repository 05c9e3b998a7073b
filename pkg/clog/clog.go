// Package clog wires log/slog for the daemon: context-scoped attributes,
// a colored text handler for local runs and a JSON handler for everything
// else, plus a chi request-logging middleware.
package clog

import (
	"io"
	"log/slog"
)

// New builds the process logger. format is "text" or "json".
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	var inner slog.Handler
	switch format {
	case "text":
		inner = NewTextHandler(w, WithLevel(level))
	default:
		inner = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(NewAttributesHandler(inner))
}

// SetDefault installs the logger as the slog default.
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}
