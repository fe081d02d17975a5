package common

import (
	"io"
	"log/slog"
	"os"
)

// Fields represents structured logging fields.
type Fields map[string]any

// NewLogger builds a run-scoped logger writing to w. The reconciliation
// pipeline receives this handle explicitly at run start instead of sharing
// a mutable process-wide sink.
func NewLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "console":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// SetupLogger configures the global logger with appropriate settings.
// Used by the CLI surface; library packages take an explicit *slog.Logger.
func SetupLogger(level slog.Level, format string) error {
	slog.SetDefault(NewLogger(os.Stderr, level, format))
	return nil
}

// ParseLevel maps a config string to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, NewUserError("invalid log level: "+level, ErrInvalidConfig)
	}
}
