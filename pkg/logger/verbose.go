package logger

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors/errbase"
	"github.com/gatepass-network/boxoffice/pkg/logger/slogx"
)

// verboseErrors expands error attributes with their %+v rendering and,
// when the error carries one, a readable stack trace. Enabled in debug
// mode only.
func verboseErrors() middlewareFunc {
	return func(next handlerFunc) handlerFunc {
		return func(ctx context.Context, record slog.Record) error {
			record.Attrs(func(attr slog.Attr) bool {
				if attr.Key != slogx.ErrorKey && attr.Key != "err" {
					return true
				}
				err, ok := attr.Value.Any().(error)
				if !ok || err == nil {
					return true
				}
				record.AddAttrs(slog.String("error_verbose", fmt.Sprintf("%+v", err)))
				if provider, ok := err.(errbase.StackTraceProvider); ok {
					record.AddAttrs(slog.Any("stack_trace", formatStack(provider.StackTrace())))
				}
				return true
			})
			return next(ctx, record)
		}
	}
}

// formatStack renders one "func file:line" string per frame, trimming
// the consecutive runtime frames at the bottom of the trace.
func formatStack(frames errbase.StackTrace) []string {
	lines := make([]string, 0, len(frames))

	skipping := true
	for i := len(frames) - 1; i >= 0; i-- {
		pc := uintptr(frames[i]) - 1
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			lines = append(lines, "unknown")
			skipping = false
			continue
		}

		name := fn.Name()
		if skipping && strings.HasPrefix(name, "runtime.") {
			continue
		}
		skipping = false

		file, line := fn.FileLine(pc)
		lines = append(lines, fmt.Sprintf("%s %s:%d", name, file, line))
	}

	return lines[:len(lines):len(lines)]
}
