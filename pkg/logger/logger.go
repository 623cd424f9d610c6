// Package logger wraps log/slog with a process-wide root logger,
// context-scoped child loggers and PANIC/FATAL levels. All boxoffice
// code logs through this package so that Init can switch the whole
// process between human-readable text and JSON collector output.
//
// nolint: sloglint
package logger

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

// Config selects the output format of the process logger.
type Config struct {
	// Output is "text" (default) or "json".
	Output string `mapstructure:"output" env:"OUTPUT" envDefault:"text"`

	// Debug lowers the reporting level to DEBUG and annotates records
	// with their source location and verbose error chains.
	Debug bool `mapstructure:"debug" env:"DEBUG" envDefault:"false"`
}

var (
	level = new(slog.LevelVar)

	// root is the process logger until Init replaces it. The pre-Init
	// default reports everything, so early startup failures are never
	// swallowed.
	root = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: renameCustomLevels,
	}))
)

func init() {
	level.Set(slog.LevelDebug)
	slog.SetDefault(root)
	slog.SetLogLoggerLevel(slog.LevelDebug)
}

// Init rebuilds the process logger from cfg and installs it as the
// slog default.
func Init(cfg Config) error {
	options := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: renameCustomLevels,
	}

	var middlewares []middlewareFunc
	level.Set(slog.LevelInfo)
	if cfg.Debug {
		level.Set(slog.LevelDebug)
		options.AddSource = true
		middlewares = append(middlewares, verboseErrors())
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Output) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, options)
	default:
		handler = slog.NewTextHandler(os.Stdout, options)
	}

	root = slog.New(wrapHandler(handler, middlewares...))
	slog.SetDefault(root)
	return nil
}

// SetLevel sets the minimum reporting level and returns the previous one.
func SetLevel(l slog.Level) (old slog.Level) {
	old = level.Level()
	level.Set(l)
	return old
}

// With returns a child of the process logger carrying the given
// attributes.
func With(args ...any) *slog.Logger {
	return root.With(args...)
}

// WithGroup returns a child of the process logger that qualifies all
// attribute keys with group.
func WithGroup(group string) *slog.Logger {
	return root.WithGroup(group)
}

func Debug(msg string, args ...any) {
	emit(context.Background(), root, slog.LevelDebug, msg, args...)
}

func Info(msg string, args ...any) {
	emit(context.Background(), root, slog.LevelInfo, msg, args...)
}

func Warn(msg string, args ...any) {
	emit(context.Background(), root, slog.LevelWarn, msg, args...)
}

func Error(msg string, args ...any) {
	emit(context.Background(), root, slog.LevelError, msg, args...)
}

// Panic logs at LevelPanic and then panics with msg.
func Panic(msg string, args ...any) {
	emit(context.Background(), root, LevelPanic, msg, args...)
	panic(msg)
}

// Fatal logs at LevelFatal and exits the process.
func Fatal(msg string, args ...any) {
	emit(context.Background(), root, LevelFatal, msg, args...)
	os.Exit(1)
}

// Log emits a record at an arbitrary level.
func Log(level slog.Level, msg string, args ...any) {
	emit(context.Background(), root, level, msg, args...)
}

// LogAttrs emits a record built from ready-made attrs, using the logger
// carried by ctx.
func LogAttrs(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	emitAttrs(ctx, FromContext(ctx), level, msg, attrs...)
}

// emit builds and hands a record to l's handler. It must be called
// directly by an exported logging function: the source location is
// resolved a fixed number of frames up the stack.
func emit(ctx context.Context, l *slog.Logger, level slog.Level, msg string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.Enabled(ctx, level) {
		return
	}

	// skip runtime.Callers, emit and the exported caller
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	record := slog.NewRecord(time.Now(), level, msg, pcs[0])
	record.Add(args...)
	_ = l.Handler().Handle(ctx, record)
}

// emitAttrs is emit for ready-made attrs.
func emitAttrs(ctx context.Context, l *slog.Logger, level slog.Level, msg string, attrs ...slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.Enabled(ctx, level) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	record := slog.NewRecord(time.Now(), level, msg, pcs[0])
	record.AddAttrs(attrs...)
	_ = l.Handler().Handle(ctx, record)
}
