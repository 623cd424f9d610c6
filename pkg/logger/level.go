package logger

import (
	"fmt"
	"log/slog"
)

// Levels above slog.LevelError. PANIC and FATAL records are emitted by
// the Panic and Fatal families right before the process unwinds.
const (
	LevelCritical = slog.Level(12)
	LevelPanic    = slog.Level(14)
	LevelFatal    = slog.Level(16)
)

// renameCustomLevels renders the custom levels by name instead of
// slog's default "ERROR+n" notation.
func renameCustomLevels(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) > 0 || attr.Key != slog.LevelKey {
		return attr
	}
	l, ok := attr.Value.Any().(slog.Level)
	if !ok || l < LevelCritical {
		return attr
	}

	name := func(base string, offset slog.Level) slog.Attr {
		if offset != 0 {
			base = fmt.Sprintf("%s%+d", base, offset)
		}
		return slog.Attr{Key: attr.Key, Value: slog.StringValue(base)}
	}
	switch {
	case l < LevelPanic:
		return name("CRITICAL", l-LevelCritical)
	case l < LevelFatal:
		return name("PANIC", l-LevelPanic)
	default:
		return name("FATAL", l-LevelFatal)
	}
}
