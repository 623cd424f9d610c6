package logger

import (
	"context"
	"log/slog"
	"os"

	"github.com/gatepass-network/boxoffice/pkg/logger/slogx"
)

type contextKey struct{}

// FromContext returns the logger carried by ctx, or the process logger
// when ctx carries none.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return root
	}
	if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return l
	}
	return root
}

// NewContext returns a copy of ctx carrying l.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, l)
}

// WithContext returns a copy of ctx whose logger carries the given
// attributes in addition to those already present.
func WithContext(ctx context.Context, args ...any) context.Context {
	return NewContext(ctx, FromContext(ctx).With(args...))
}

// WithGroupContext returns a copy of ctx whose logger qualifies all
// attribute keys with group.
func WithGroupContext(ctx context.Context, group string) context.Context {
	return NewContext(ctx, FromContext(ctx).WithGroup(group))
}

func DebugContext(ctx context.Context, msg string, args ...any) {
	emit(ctx, FromContext(ctx), slog.LevelDebug, msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	emit(ctx, FromContext(ctx), slog.LevelInfo, msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	emit(ctx, FromContext(ctx), slog.LevelWarn, msg, args...)
}

// ErrorContext logs err at LevelError. The error rides along as an
// attribute so the verbose middleware can expand it.
func ErrorContext(ctx context.Context, msg string, err error, args ...any) {
	emit(ctx, FromContext(ctx), slog.LevelError, msg, append(args, slogx.Error(err))...)
}

// PanicContext logs at LevelPanic and then panics with msg.
func PanicContext(ctx context.Context, msg string, args ...any) {
	emit(ctx, FromContext(ctx), LevelPanic, msg, args...)
	panic(msg)
}

// FatalContext logs at LevelFatal and exits the process.
func FatalContext(ctx context.Context, msg string, args ...any) {
	emit(ctx, FromContext(ctx), LevelFatal, msg, args...)
	os.Exit(1)
}

// LogContext emits a record at an arbitrary level using the logger
// carried by ctx.
func LogContext(ctx context.Context, level slog.Level, msg string, args ...any) {
	emit(ctx, FromContext(ctx), level, msg, args...)
}
