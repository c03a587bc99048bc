package logger

import (
	"io"
	"log/slog"
	"os"
)

// Load writes to stderr so stdout stays free for command output.
func Load(level slog.Level) *slog.Logger {
	return New(os.Stderr, level)
}

func New(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	return slog.New(slog.NewTextHandler(w, opts))
}
