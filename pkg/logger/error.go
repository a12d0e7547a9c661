package logger

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors/errbase"
	"github.com/mintvault/series-ledger/pkg/logger/slogx"
)

// errorDetailHook expands error attrs with their verbose representation and,
// when the error carries one, a decoded stack trace.
func errorDetailHook() recordHook {
	return func(_ context.Context, rec *slog.Record) {
		var extra []slog.Attr
		rec.Attrs(func(attr slog.Attr) bool {
			if attr.Key != slogx.ErrorKey && attr.Key != "err" {
				return true
			}
			err, ok := attr.Value.Any().(error)
			if !ok || err == nil {
				return true
			}
			extra = append(extra, slog.String("error_verbose", fmt.Sprintf("%+v", err)))
			if tracer, ok := err.(errbase.StackTraceProvider); ok {
				extra = append(extra, slog.Any("stack_trace", formatStack(tracer.StackTrace())))
			}
			return true
		})
		rec.AddAttrs(extra...)
	}
}

// formatStack renders each frame as "func file:line", dropping the runtime
// frames below main.
func formatStack(frames errbase.StackTrace) []string {
	lines := make([]string, 0, len(frames))
	for _, frame := range frames {
		pc := uintptr(frame) - 1
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			lines = append(lines, "unknown")
			continue
		}
		file, line := fn.FileLine(pc)
		lines = append(lines, fmt.Sprintf("%s %s:%d", fn.Name(), file, line))
	}

	// trim trailing runtime.* frames
	for len(lines) > 0 {
		last := lines[len(lines)-1]
		if !strings.HasPrefix(last, "runtime.") {
			break
		}
		lines = lines[:len(lines)-1]
	}
	return lines
}
