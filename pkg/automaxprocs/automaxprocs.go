// Package automaxprocs aligns GOMAXPROCS with the container CPU quota and
// routes uber/automaxprocs output through the process logger.
package automaxprocs

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/pkg/logger"
	"github.com/gatepass-network/boxoffice/pkg/logger/slogx"
	"go.uber.org/automaxprocs/maxprocs"
)

var initialMaxProcs = Current()

// Init sets GOMAXPROCS from the Linux CPU quota. A no-op on other systems,
// when no quota is configured, or when GOMAXPROCS is set in the environment
// (maxprocs honors the variable).
func Init() error {
	log := logger.With(
		slogx.String("package", "automaxprocs"),
		slogx.Int("prev_maxprocs", initialMaxProcs),
	)
	maxprocsLogger := func(format string, v ...any) {
		log.LogAttrs(context.Background(), slog.LevelInfo, fmt.Sprintf(format, v...),
			slogx.Int("maxprocs", Current()),
		)
	}
	if _, err := maxprocs.Set(maxprocs.Logger(maxprocsLogger), maxprocs.Min(1)); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Current returns the current GOMAXPROCS value.
func Current() int {
	return runtime.GOMAXPROCS(0)
}
