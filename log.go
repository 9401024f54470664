package jaudio

import (
	"io"
	"log/slog"
)

// NewLogger builds the structured logger threaded into a Controller via
// WithLogger. cmd/player constructs one at startup rather than relying
// on slog's process-wide default,
// mirroring the teacher's own preference for explicit, non-global state
// (§9 "Global audio rate" carries the same no-hidden-globals spirit
// into logging).
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// DiscardLogger returns a logger that drops every record, used as the
// nil-safe default for tests and callers that don't care about
// diagnostics (§7 "loaders never throw; they report via error kind and
// degrade" — degradation is silent unless a logger is supplied).
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
