// Package automaxprocs aligns GOMAXPROCS with the container CPU quota and
// logs the outcome through the process logger.
package automaxprocs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/mintvault/series-ledger/pkg/logger"
	"github.com/mintvault/series-ledger/pkg/logger/slogx"
	"go.uber.org/automaxprocs/maxprocs"
)

var (
	undo func()

	// GOMAXPROCS before Init ran, for Undo when maxprocs.Set was never called.
	initialMaxProcs = Current()
)

// Init applies maxprocs.Set. It is a no-op on non-Linux systems and in Linux
// environments without a CPU quota.
func Init() error {
	log := logger.With(
		slogx.String("package", "automaxprocs"),
		slogx.String("event", "set_gomaxprocs"),
		slogx.Int("prev_maxprocs", initialMaxProcs),
	)

	printf := func(format string, v ...any) {
		attrs := make([]slog.Attr, 0, 1)

		// maxprocs.Set passes the value it chose as the first printf arg. When
		// the GOMAXPROCS env var is set, automaxprocs honors it instead.
		if val, ok := utils.Optional(v); ok {
			if _, exists := os.LookupEnv("GOMAXPROCS"); exists {
				val = Current()
			}
			if n, ok := val.(int); ok {
				attrs = append(attrs, slogx.Int("set_maxprocs", n))
			}
		}
		log.LogAttrs(context.Background(), slog.LevelInfo, fmt.Sprintf(format, v...), attrs...)
	}

	revert, err := maxprocs.Set(maxprocs.Logger(printf), maxprocs.Min(1))
	if err != nil {
		return errors.WithStack(err)
	}
	undo = revert
	return nil
}

// Undo restores GOMAXPROCS to the value it had before Init and returns the
// resulting value.
func Undo() int {
	if undo != nil {
		undo()
		return Current()
	}
	runtime.GOMAXPROCS(initialMaxProcs)
	return initialMaxProcs
}

// Current returns the current GOMAXPROCS value.
func Current() int {
	return runtime.GOMAXPROCS(0)
}
