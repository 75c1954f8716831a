package logger

import (
	"log/slog"
	"testing"
)

func TestInitLoggerValidLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			if err := InitLogger(level); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if GetLogger() == nil {
				t.Fatal("GetLogger() returned nil")
			}
		})
	}
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	if err := InitLogger("invalid"); err == nil {
		t.Error("expected error for invalid log level, got nil")
	}
}

func TestGetLoggerBeforeInit(t *testing.T) {
	globalLogger = nil

	got := GetLogger()
	if got == nil {
		t.Fatal("GetLogger() should return default logger when not initialized")
	}
	if got != slog.Default() {
		t.Error("GetLogger() should return slog.Default() when not initialized")
	}
}

func TestGetLoggerAfterInit(t *testing.T) {
	if err := InitLogger("info"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if GetLogger() != globalLogger {
		t.Error("GetLogger() should return the initialized logger")
	}
}
