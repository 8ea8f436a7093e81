package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// ParseLevel converts a level name to a slog.Level. Unknown names map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// New creates a logger writing to w. format is "json" or "text".
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

var (
	defaultLogger *slog.Logger
	once          sync.Once
)

// Default returns the process-wide logger. It writes text to stderr at the
// level named by LOG_LEVEL (info when unset).
func Default() *slog.Logger {
	once.Do(func() {
		if defaultLogger == nil {
			defaultLogger = New(os.Stderr, ParseLevel(os.Getenv("LOG_LEVEL")), "text")
		}
	})
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(l *slog.Logger) {
	once.Do(func() {})
	defaultLogger = l
}
