package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a slog.Logger configured for structured, JSON-oriented output.
func New(subsystem string) *slog.Logger {
	return NewWithLevel(subsystem, os.Getenv("RCON_LOG_LEVEL"))
}

// NewWithLevel is New with an explicit level name.
func NewWithLevel(subsystem, level string) *slog.Logger {
	return NewTo(os.Stdout, subsystem, level)
}

// NewTo writes the JSON records to w. The TUI uses it to keep logs off the
// terminal.
func NewTo(w io.Writer, subsystem, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{AddSource: true, Level: ParseLevel(level)})
	return slog.New(handler).With("subsystem", subsystem)
}

// ParseLevel maps debug, info, warn and error to their slog level. Anything
// else is info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
