// Package logging provides structured logging for tally using zerolog.
// Terminals get a human-readable console writer; everything else gets JSON
// lines so import runs and server requests can be shipped to a log pipeline.
//
// Components never hold a logger of their own choosing. They take the one
// carried by the context and tag it as work narrows:
//
//	ctx = logging.WithDataset(ctx, "engineering")
//	ctx = logging.WithRecord(ctx, "ENG-1700000000000-1")
//	logging.FromContext(ctx).Info().Msg("Updated record")
package logging

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Nop discards everything.
var Nop = zerolog.Nop()

var defaultLogger atomic.Pointer[zerolog.Logger]

func init() {
	l := NewLoggerFromConfig(ConfigFromEnv())
	defaultLogger.Store(&l)
}

// Default returns the process-wide logger used when a context carries none.
func Default() *zerolog.Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the process-wide logger, including zerolog's global
// log.Logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger.Store(&logger)
	log.Logger = logger
}

// New returns a JSON logger writing to w at the global level.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(zerolog.GlobalLevel()).
		With().
		Timestamp().
		Logger()
}

func stderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
