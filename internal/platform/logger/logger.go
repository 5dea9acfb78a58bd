// Package logger builds the process-wide structured logger.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New returns a structured JSON logger writing to stdout. The level comes
// from the LOG_LEVEL environment variable (debug, info, warn, error); when
// unset, development environments log at debug and everything else at info.
func New(environment string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: resolveLevel(os.Getenv("LOG_LEVEL"), environment),
	}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

func resolveLevel(level, environment string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if strings.EqualFold(environment, "development") {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
