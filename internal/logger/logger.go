package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Setup installs the default slog logger writing to stderr.
func Setup(level string) {
	SetupWithWriter(level, os.Stderr)
}

// SetupWithWriter installs the default slog logger writing to w.
func SetupWithWriter(level string, w io.Writer) {
	handler := tint.NewHandler(w, &tint.Options{
		Level:      ParseLevel(level),
		TimeFormat: time.TimeOnly,
		NoColor:    os.Getenv("TERM") == "dumb",
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)
}

// ParseLevel maps a config level name to a slog level. Unknown names map to warn.
func ParseLevel(level string) slog.Level {
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
		return slog.LevelWarn
	}
}
