package ingest

import (
	"maps"

	"github.com/agentstation/tally/pkg/constants"
	"github.com/agentstation/tally/pkg/duplicates"
	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/store"
)

// Options controls one ingestion batch.
type Options struct {
	Threshold     float64           // Similarity at or above which a row is a duplicate
	Descriptor    string            // Dataset whose descriptor to use (empty means the target dataset)
	IDField       string            // Override the descriptor's identifier column
	IDPrefix      string            // Override the descriptor's identifier prefix
	ColumnMapping map[string]string // Source header → stored column
	DryRun        bool              // Classify and report without persisting
}

// Defaults returns the default batch options.
func Defaults() *Options {
	return &Options{
		Threshold:     constants.DefaultThreshold,
		ColumnMapping: map[string]string{},
	}
}

// Option is a function that configures batch Options.
type Option func(*Options)

// Apply applies the given options.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Validate checks the options.
func (o *Options) Validate() error {
	if err := duplicates.ValidateThreshold(o.Threshold); err != nil {
		return err
	}
	if o.Descriptor != "" {
		if err := store.ValidateName(o.Descriptor); err != nil {
			return err
		}
	}
	for from, to := range o.ColumnMapping {
		if from == "" {
			return &errors.ValidationError{Field: "column_mapping", Value: to, Message: "source column must not be empty"}
		}
	}
	return nil
}

// WithThreshold sets the duplicate threshold.
func WithThreshold(threshold float64) Option {
	return func(o *Options) {
		o.Threshold = threshold
	}
}

// WithDescriptor uses another dataset's descriptor for identifiers and
// comparison columns.
func WithDescriptor(name string) Option {
	return func(o *Options) {
		o.Descriptor = name
	}
}

// WithIdentity overrides the identifier column and prefix. Empty values keep
// the descriptor's own.
func WithIdentity(idField, idPrefix string) Option {
	return func(o *Options) {
		o.IDField = idField
		o.IDPrefix = idPrefix
	}
}

// WithColumnMapping renames source headers before rows are built.
func WithColumnMapping(mapping map[string]string) Option {
	return func(o *Options) {
		o.ColumnMapping = maps.Clone(mapping)
	}
}

// WithDryRun classifies the batch without writing it.
func WithDryRun(dryRun bool) Option {
	return func(o *Options) {
		o.DryRun = dryRun
	}
}
