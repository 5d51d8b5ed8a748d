package observability

import (
	"io"
	"log/slog"
)

// NewLogger builds a structured logger writing to w at the given level,
// using a JSON handler when jsonFormat is set and a text handler otherwise.
func NewLogger(level slog.Level, jsonFormat bool, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	if jsonFormat {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}
