// Package logger wraps log/slog behind a small package-level initializer,
// the same shape the rest of the pipeline's operational tracing uses:
// user-facing compiler diagnostics go through internal/diagnostics, while
// this package carries the separate audience of operational traces (macro
// expansion depth, include resolution, #log/#logl output).
package logger

import (
	"fmt"
	"log/slog"
	"os"
)

var globalLogger *slog.Logger

// InitLogger initializes the package-level slog.Logger at the given level
// ("debug", "info", "warn", "error").
func InitLogger(level string) error {
	var slogLevel slog.Level

	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return fmt.Errorf("invalid log level: %s", level)
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)

	return nil
}

// GetLogger returns the initialized logger, or slog.Default() before
// InitLogger has been called.
func GetLogger() *slog.Logger {
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}
