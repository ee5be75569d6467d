package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/agentstation/tally/pkg/logging"
)

// NewLogger builds the CLI logger from config. Problems with the requested
// level are reported on stderr and never fail the command.
func NewLogger(config *Config) zerolog.Logger {
	level, warning := resolveLogLevel(config)
	if warning != "" {
		fmt.Fprintln(os.Stderr, "Warning: "+warning)
	}

	return logging.NewLoggerFromConfig(&logging.Config{
		Level:     level,
		Format:    config.LogFormat,
		Output:    config.LogOutput,
		NoColor:   config.NoColor,
		AddCaller: level == zerolog.DebugLevel.String() || level == zerolog.TraceLevel.String(),
	})
}

// resolveLogLevel picks the level: an explicit --log-level or LOG_LEVEL
// first, then --quiet, then --verbose, then info.
func resolveLogLevel(config *Config) (level, warning string) {
	if config.LogLevel != "" {
		l, err := zerolog.ParseLevel(config.LogLevel)
		if err != nil || l == zerolog.NoLevel || l > zerolog.ErrorLevel {
			return "info", fmt.Sprintf("invalid log level %q, using \"info\"", config.LogLevel)
		}
		return l.String(), ""
	}
	switch {
	case config.Quiet && config.Verbose:
		return "warn", "both --verbose and --quiet specified, using --quiet"
	case config.Quiet:
		return "warn", ""
	case config.Verbose:
		return "debug", ""
	}
	return "info", ""
}
