// Package logger wraps log/slog with a process-wide logger, panic/fatal
// levels and context-carried attributes.
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

// DefaultLevel is the minimum reporting level before Init is called.
const DefaultLevel = slog.LevelDebug

var (
	lvl = func() *slog.LevelVar {
		v := new(slog.LevelVar)
		v.Set(DefaultLevel)
		return v
	}()

	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:       lvl,
		ReplaceAttr: levelAttrReplacer,
	}))
)

func init() {
	slog.SetDefault(logger)
}

// Config selects the output format and verbosity of the process logger.
type Config struct {
	// Output is "text" (default) or "json".
	Output string `mapstructure:"output" env:"OUTPUT" envDefault:"text"`

	// Debug lowers the level to debug and adds source locations and error
	// stack traces.
	Debug bool `mapstructure:"debug" env:"DEBUG" envDefault:"false"`
}

// Init replaces the process logger according to cfg. It also becomes the
// slog default logger.
func Init(cfg Config) error {
	options := &slog.HandlerOptions{
		Level:       lvl,
		ReplaceAttr: levelAttrReplacer,
	}

	var hooks []recordHook
	lvl.Set(slog.LevelInfo)
	if cfg.Debug {
		lvl.Set(slog.LevelDebug)
		options.AddSource = true
		hooks = append(hooks, errorDetailHook())
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Output) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, options)
	default:
		handler = slog.NewTextHandler(os.Stdout, options)
	}

	logger = slog.New(newHookHandler(handler, hooks...))
	slog.SetDefault(logger)
	return nil
}

// SetLevel sets the minimum reporting level and returns the previous one.
func SetLevel(level slog.Level) (old slog.Level) {
	old = lvl.Level()
	lvl.Set(level)
	return old
}

// With returns a logger that adds the given attributes to every record.
func With(args ...any) *slog.Logger {
	return logger.With(args...)
}

// WithGroup returns a logger that starts a group, if name is non-empty.
func WithGroup(group string) *slog.Logger {
	return logger.WithGroup(group)
}

func Debug(msg string, args ...any) {
	log(context.Background(), logger, slog.LevelDebug, msg, args...)
}

func Info(msg string, args ...any) {
	log(context.Background(), logger, slog.LevelInfo, msg, args...)
}

func Warn(msg string, args ...any) {
	log(context.Background(), logger, slog.LevelWarn, msg, args...)
}

func Error(msg string, args ...any) {
	log(context.Background(), logger, slog.LevelError, msg, args...)
}

// Panic logs at LevelPanic, then panics with msg.
func Panic(msg string, args ...any) {
	log(context.Background(), logger, LevelPanic, msg, args...)
	panic(msg)
}

// Fatal logs at LevelFatal, then exits the process.
func Fatal(msg string, args ...any) {
	log(context.Background(), logger, LevelFatal, msg, args...)
	os.Exit(1)
}

// log records msg at the given level. It must be called directly by an
// exported logging function; the pc skip count assumes exactly one
// intermediate frame.
func log(ctx context.Context, l *slog.Logger, level slog.Level, msg string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.Enabled(ctx, level) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	rec := slog.NewRecord(time.Now(), level, msg, pcs[0])
	rec.Add(args...)
	_ = l.Handler().Handle(ctx, rec)
}
