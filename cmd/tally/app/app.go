// Package app provides the application context and dependency management
// for the tally CLI. It centralizes configuration, logging, metrics and the
// lazily created engine shared by every command.
package app

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/agentstation/tally"
	"github.com/agentstation/tally/cmd/application"
	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/records"
)

var _ application.Application = (*App)(nil)

// App represents the tally application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config  *Config
	logger  *zerolog.Logger
	metrics *prometheus.Registry
	cancel  context.CancelFunc

	// Engine (lazy-initialized, singleton)
	mu    sync.RWMutex
	tally tally.Tally
}

// New creates a new App instance with the given version information.
// Configuration is loaded from the default locations; options override it.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	app.metrics = prometheus.NewRegistry()
	app.metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Metrics returns the registry the engine and the server report to.
func (a *App) Metrics() *prometheus.Registry {
	return a.metrics
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Tally returns the engine, creating it on first use.
func (a *App) Tally() (tally.Tally, error) {
	a.mu.RLock()
	if a.tally != nil {
		t := a.tally
		a.mu.RUnlock()
		return t, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.tally != nil {
		return a.tally, nil
	}

	opts, err := a.buildTallyOptions(context.Background())
	if err != nil {
		return nil, err
	}
	t, err := tally.New(opts...)
	if err != nil {
		return nil, err
	}

	a.logger.Debug().
		Str("backend", a.config.Store.Backend).
		Float64("threshold", a.config.Threshold).
		Msg("Engine created")
	a.tally = t
	return t, nil
}

// buildTallyOptions constructs engine options from the app configuration.
func (a *App) buildTallyOptions(ctx context.Context) ([]tally.Option, error) {
	backend, err := a.config.Backend(ctx)
	if err != nil {
		return nil, err
	}

	opts := []tally.Option{
		tally.WithBackend(backend),
		tally.WithThreshold(a.config.Threshold),
		tally.WithLogger(*a.logger),
	}
	if a.config.Workers > 0 {
		opts = append(opts, tally.WithWorkers(a.config.Workers))
	}
	if a.metrics != nil {
		opts = append(opts, tally.WithMetrics(a.metrics))
	}

	if a.config.DescriptorsFile != "" {
		reg, err := records.LoadRegistryFile(records.DefaultRegistry(), a.config.DescriptorsFile)
		if err != nil {
			return nil, err
		}
		a.logger.Debug().
			Str("file", a.config.DescriptorsFile).
			Int("descriptors", reg.Len()).
			Msg("Loaded dataset descriptors")
		opts = append(opts, tally.WithRegistry(reg))
	}

	return opts, nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if config == nil {
			return errors.NewValidationError("config", nil, "must not be nil")
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithTally sets a custom engine (useful for testing).
func WithTally(t tally.Tally) Option {
	return func(a *App) error {
		a.tally = t
		return nil
	}
}
