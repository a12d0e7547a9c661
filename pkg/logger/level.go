package logger

import (
	"fmt"
	"log/slog"
)

// Levels above slog.LevelError for failures that abort the process.
const (
	LevelCritical = slog.Level(12)
	LevelPanic    = slog.Level(14)
	LevelFatal    = slog.Level(16)
)

var levelNames = []struct {
	level slog.Level
	name  string
}{
	{LevelFatal, "FATAL"},
	{LevelPanic, "PANIC"},
	{LevelCritical, "CRITICAL"},
}

// levelAttrReplacer renders the custom levels by name instead of slog's
// default "ERROR+N" form.
func levelAttrReplacer(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) > 0 || attr.Key != "level" {
		return attr
	}
	l, ok := attr.Value.Any().(slog.Level)
	if !ok || l < LevelCritical {
		return attr
	}
	for _, candidate := range levelNames {
		if l >= candidate.level {
			name := candidate.name
			if delta := l - candidate.level; delta != 0 {
				name = fmt.Sprintf("%s%+d", name, delta)
			}
			attr.Value = slog.StringValue(name)
			return attr
		}
	}
	return attr
}
