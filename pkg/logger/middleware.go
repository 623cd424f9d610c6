package logger

import (
	"context"
	"log/slog"
)

type (
	handlerFunc    func(context.Context, slog.Record) error
	middlewareFunc func(handlerFunc) handlerFunc
)

// middlewareHandler is a slog.Handler that passes every record through
// a middleware stack before the wrapped handler formats it.
type middlewareHandler struct {
	inner       slog.Handler
	middlewares []middlewareFunc
}

func wrapHandler(inner slog.Handler, middlewares ...middlewareFunc) *middlewareHandler {
	return &middlewareHandler{inner: inner, middlewares: middlewares}
}

func (h *middlewareHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *middlewareHandler) Handle(ctx context.Context, record slog.Record) error {
	handle := h.inner.Handle
	for i := len(h.middlewares) - 1; i >= 0; i-- {
		handle = h.middlewares[i](handle)
	}
	return handle(ctx, record)
}

func (h *middlewareHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &middlewareHandler{inner: h.inner.WithAttrs(attrs), middlewares: h.middlewares}
}

func (h *middlewareHandler) WithGroup(group string) slog.Handler {
	return &middlewareHandler{inner: h.inner.WithGroup(group), middlewares: h.middlewares}
}
