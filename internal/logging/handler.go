package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// SwappableHandler delegates to a slog.Handler held behind an atomic
// pointer, so the destination can change at runtime without touching
// the loggers already handed out. The Manager swaps it when the
// configured rotating-file fanout replaces the bootstrap handler.
type SwappableHandler struct {
	handler atomic.Pointer[slog.Handler]
}

// NewSwappableHandler wraps the given handler.
func NewSwappableHandler(initial slog.Handler) *SwappableHandler {
	sh := &SwappableHandler{}
	sh.handler.Store(&initial)
	return sh
}

// Swap replaces the delegate. Safe to call concurrently with logging.
func (sh *SwappableHandler) Swap(next slog.Handler) {
	sh.handler.Store(&next)
}

func (sh *SwappableHandler) current() slog.Handler {
	return *sh.handler.Load()
}

// Enabled reports whether the current delegate handles the level.
func (sh *SwappableHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return sh.current().Enabled(ctx, level)
}

// Handle passes the record to the current delegate.
func (sh *SwappableHandler) Handle(ctx context.Context, r slog.Record) error {
	return sh.current().Handle(ctx, r)
}

// WithAttrs wraps the delegate's WithAttrs result. The returned handler
// is pinned to the delegate at call time; a later Swap on the parent
// does not propagate to it.
func (sh *SwappableHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewSwappableHandler(sh.current().WithAttrs(attrs))
}

// WithGroup wraps the delegate's WithGroup result, with the same
// pinning caveat as WithAttrs.
func (sh *SwappableHandler) WithGroup(name string) slog.Handler {
	return NewSwappableHandler(sh.current().WithGroup(name))
}
