package analysis

import (
	"context"
	"log/slog"
	"sort"
)

// Level is the severity of a pipeline diagnostic.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	default:
		return "info"
	}
}

// Logger receives structured diagnostics from the pipeline.
type Logger interface {
	Log(level Level, event string, fields map[string]any)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Log(Level, string, map[string]any) {}

// SlogLogger forwards diagnostics to a *slog.Logger.
type SlogLogger struct {
	L *slog.Logger
}

// NewSlogLogger wraps l; a nil l uses slog.Default().
func NewSlogLogger(l *slog.Logger) SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return SlogLogger{L: l}
}

func (s SlogLogger) Log(level Level, event string, fields map[string]any) {
	var lv slog.Level
	switch level {
	case LevelDebug:
		lv = slog.LevelDebug
	case LevelWarn:
		lv = slog.LevelWarn
	default:
		lv = slog.LevelInfo
	}
	ctx := context.Background()
	if !s.L.Enabled(ctx, lv) {
		return
	}
	attrs := make([]slog.Attr, 0, len(fields))
	for _, k := range sortedKeys(fields) {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}
	s.L.LogAttrs(ctx, lv, event, attrs...)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
