package app

import (
	"io"
	"log/slog"

	"github.com/micropost/micropost/internal/config"
)

// NewLogger builds the slog logger described by cfg.
// Development logs carry the source location.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level:     parseLogLevel(cfg.LogLevel),
		AddSource: cfg.IsDevelopment(),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	return slog.New(h)
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
