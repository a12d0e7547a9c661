package logger

import (
	"context"
	"log/slog"
)

// recordHook inspects or augments a record before it reaches the underlying
// handler.
type recordHook func(ctx context.Context, rec *slog.Record)

// hookHandler runs every registered hook on a record, then delegates to the
// wrapped handler.
type hookHandler struct {
	inner slog.Handler
	hooks []recordHook
}

func newHookHandler(inner slog.Handler, hooks ...recordHook) *hookHandler {
	return &hookHandler{inner: inner, hooks: hooks}
}

func (h *hookHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.inner.Enabled(ctx, lvl)
}

func (h *hookHandler) Handle(ctx context.Context, rec slog.Record) error {
	for _, hook := range h.hooks {
		hook(ctx, &rec)
	}
	return h.inner.Handle(ctx, rec)
}

func (h *hookHandler) WithGroup(group string) slog.Handler {
	return &hookHandler{inner: h.inner.WithGroup(group), hooks: h.hooks}
}

func (h *hookHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &hookHandler{inner: h.inner.WithAttrs(attrs), hooks: h.hooks}
}
