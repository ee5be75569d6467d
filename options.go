package tally

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/agentstation/tally/pkg/constants"
	"github.com/agentstation/tally/pkg/duplicates"
	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/records"
	"github.com/agentstation/tally/pkg/store"
)

// Option is a function that configures a Tally instance.
type Option func(*options) error

// options holds the configuration for a Tally instance.
type options struct {
	registry   *records.Registry
	backend    store.Backend
	dataDir    string
	threshold  float64
	logger     *zerolog.Logger
	registerer prometheus.Registerer
	now        func() time.Time
	workers    int
}

func defaults() *options {
	return &options{
		dataDir:   constants.DefaultDataDir,
		threshold: constants.DefaultThreshold,
		now:       time.Now,
		workers:   constants.MaxClassifyWorkers,
	}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithRegistry sets the dataset descriptors. The default is
// records.DefaultRegistry.
func WithRegistry(registry records.Registry) Option {
	return func(o *options) error {
		o.registry = &registry
		return nil
	}
}

// WithBackend stores datasets on backend instead of the local data directory.
func WithBackend(backend store.Backend) Option {
	return func(o *options) error {
		if backend == nil {
			return &errors.ValidationError{Field: "backend", Message: "must not be nil"}
		}
		o.backend = backend
		return nil
	}
}

// WithDataDir sets the directory of the default local backend.
func WithDataDir(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			return &errors.ValidationError{Field: "data_dir", Message: "must not be empty"}
		}
		o.dataDir = dir
		return nil
	}
}

// WithThreshold sets the duplicate threshold for inserts and the default for
// imports.
func WithThreshold(threshold float64) Option {
	return func(o *options) error {
		if err := duplicates.ValidateThreshold(threshold); err != nil {
			return err
		}
		o.threshold = threshold
		return nil
	}
}

// WithLogger sets the logger operations write to.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = &logger
		return nil
	}
}

// WithMetrics registers Prometheus collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.registerer = reg
		return nil
	}
}

// WithClock sets the time source for identifiers and timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return &errors.ValidationError{Field: "clock", Message: "must not be nil"}
		}
		o.now = now
		return nil
	}
}

// WithWorkers bounds concurrent duplicate classification during imports.
func WithWorkers(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return errors.NewValidationError("workers", n, "must be at least 1")
		}
		o.workers = n
		return nil
	}
}
