package internal

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process logger. Development gets human-readable text,
// every other environment gets JSON lines. A nil writer means stderr, which
// keeps stdout free for command output.
//
// level accepts anything slog understands ("debug", "WARN", "info+2"); an
// unknown value falls back to info.
func NewLogger(w io.Writer, env string, level string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl <= slog.LevelDebug,
	}

	if env == "development" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts).WithAttrs([]slog.Attr{
		slog.String("service", "reportgen"),
		slog.String("env", env),
	}))
}
