package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/agentstation/tally/pkg/constants"
	"github.com/rs/zerolog"
)

// Config describes how a tally logger is built.
type Config struct {
	// Level is the minimum level written (trace, debug, info, warn, error, off).
	Level string

	// Format is json, console or auto. Auto picks console on a terminal.
	Format string

	// Output is stderr, stdout, discard or a file path opened for append.
	Output string

	// TimeFormat is kitchen, rfc3339, rfc3339nano, unix or a Go layout.
	TimeFormat string

	NoColor   bool
	AddCaller bool

	// Service, when set, is attached to every entry as "service".
	Service string

	// Fields are attached to every entry.
	Fields map[string]any
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "auto",
		Output:     "stderr",
		TimeFormat: "kitchen",
		NoColor:    os.Getenv("NO_COLOR") != "",
		Fields:     map[string]any{},
	}
}

// ConfigFromEnv reads TALLY_LOG_* variables, falling back to the
// unprefixed LOG_* names.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	cfg.Level = env("LEVEL", cfg.Level)
	cfg.Format = env("FORMAT", cfg.Format)
	cfg.Output = env("OUTPUT", cfg.Output)
	cfg.TimeFormat = env("TIME_FORMAT", cfg.TimeFormat)
	cfg.AddCaller = env("CALLER", "") == "true"
	cfg.Fields = parseFields(env("FIELDS", ""))
	if os.Getenv("DEBUG") != "" && env("LEVEL", "") == "" {
		cfg.Level = "debug"
	}
	return cfg
}

// NewLoggerFromConfig builds a logger from cfg and makes its level the
// global zerolog level. A nil cfg means DefaultConfig.
func NewLoggerFromConfig(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	out, terminal := openOutput(cfg.Output)
	logCtx := zerolog.New(formatWriter(out, terminal, cfg)).
		Level(level).
		With().
		Timestamp()

	if cfg.AddCaller || level <= zerolog.DebugLevel {
		logCtx = logCtx.Caller()
	}
	if cfg.Service != "" {
		logCtx = logCtx.Str(FieldService, cfg.Service)
	}
	if len(cfg.Fields) > 0 {
		logCtx = logCtx.Fields(cfg.Fields)
	}
	return logCtx.Logger()
}

// Configure replaces the default logger with one built from cfg.
func Configure(cfg *Config) {
	SetDefault(NewLoggerFromConfig(cfg))
}

// openOutput resolves the configured destination. An unwritable file
// falls back to stderr.
func openOutput(name string) (io.Writer, bool) {
	switch strings.ToLower(name) {
	case "stdout":
		return os.Stdout, false
	case "", "stderr":
		return os.Stderr, stderrIsTerminal()
	case "discard", "none":
		return io.Discard, false
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return os.Stderr, stderrIsTerminal()
	}
	return f, false
}

func formatWriter(out io.Writer, terminal bool, cfg *Config) io.Writer {
	switch strings.ToLower(cfg.Format) {
	case "console", "pretty":
	case "", "auto":
		if !terminal {
			return out
		}
	default:
		return out
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: parseTimeFormat(cfg.TimeFormat),
		NoColor:    cfg.NoColor,
	}
}

var levelAliases = map[string]zerolog.Level{
	"warning": zerolog.WarnLevel,
	"none":    zerolog.Disabled,
	"off":     zerolog.Disabled,
}

// parseLevel accepts zerolog level names plus a few aliases. Unknown or
// empty values mean info.
func parseLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if l, ok := levelAliases[level]; ok {
		return l
	}
	if level == "" {
		return zerolog.InfoLevel
	}
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}

var timeFormats = map[string]string{
	"kitchen":     time.Kitchen,
	"rfc3339":     time.RFC3339,
	"rfc3339nano": time.RFC3339Nano,
	"unix":        "",
	"epoch":       "",
}

func parseTimeFormat(format string) string {
	if f, ok := timeFormats[strings.ToLower(format)]; ok {
		return f
	}
	if strings.Contains(format, "2006") || strings.Contains(format, "15:04") {
		return format
	}
	return time.Kitchen
}

// parseFields reads "k=v,k2=v2" into a field map.
func parseFields(s string) map[string]any {
	out := map[string]any{}
	for _, pair := range strings.Split(s, ",") {
		if k, v, ok := strings.Cut(pair, "="); ok {
			out[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return out
}

func env(suffix, fallback string) string {
	if v := os.Getenv("TALLY_LOG_" + suffix); v != "" {
		return v
	}
	if v := os.Getenv("LOG_" + suffix); v != "" {
		return v
	}
	return fallback
}
