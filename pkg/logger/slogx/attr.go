// Package slogx provides attr constructors so call sites don't import
// log/slog alongside the logger package.
package slogx

import (
	"fmt"
	"log/slog"
	"time"
)

// ErrorKey is the attr key the logger's error hooks look for.
const ErrorKey = "error"

// Error returns an attr for err under ErrorKey.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any(ErrorKey, err)
}

func Any(key string, value any) slog.Attr {
	return slog.Any(key, value)
}

func Group(key string, args ...any) slog.Attr {
	return slog.Group(key, args...)
}

func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Stringer renders value.String() eagerly.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

func Int64(key string, value int64) slog.Attr {
	return slog.Int64(key, value)
}

func Int(key string, value int) slog.Attr {
	return slog.Int64(key, int64(value))
}

func Uint64(key string, v uint64) slog.Attr {
	return slog.Uint64(key, v)
}

func Bool(key string, v bool) slog.Attr {
	return slog.Bool(key, v)
}

func Time(key string, v time.Time) slog.Attr {
	return slog.Time(key, v)
}

func Duration(key string, v time.Duration) slog.Attr {
	return slog.Duration(key, v)
}
