// Package tally is a record reconciliation engine for flat-file datasets.
//
// Every incoming record, whether submitted on its own or as part of a
// spreadsheet import, is scored against the records already stored and
// rejected when it is a near-duplicate. Accepted records get an identifier
// that is unique in its dataset and stable across later imports and edits.
// Legacy identifiers are repaired lazily whenever a dataset is read.
//
// Example usage:
//
//	t, err := tally.New(tally.WithDataDir("./data"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := t.Insert(ctx, "operations", records.New(
//	    records.Field{Key: "NAME_OF_WORK", Value: "Border fence"},
//	    records.Field{Key: "LENGTH_KM", Value: "12.5"},
//	))
//	var dup *errors.DuplicateError
//	if errors.As(err, &dup) {
//	    fmt.Printf("%d%% similar to an existing record\n", dup.SimilarityPercent)
//	}
//
//	page, err := t.Rows(ctx, "operations", tally.RowsQuery{Search: "fence"})
package tally

import (
	"context"
	"sync"

	"github.com/agentstation/tally/internal/metrics"
	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/ingest"
	"github.com/agentstation/tally/pkg/logging"
	"github.com/agentstation/tally/pkg/records"
	"github.com/agentstation/tally/pkg/store"
	"github.com/agentstation/tally/pkg/store/local"
)

// Compile-time interface check to ensure proper implementation.
var _ Tally = (*client)(nil)

// Records reads and edits the rows of one dataset.
type Records interface {
	Insert(ctx context.Context, dataset string, rec records.Record) (*InsertResult, error)
	Rows(ctx context.Context, dataset string, q RowsQuery) (*RowsPage, error)
	RowAt(ctx context.Context, dataset string, index int) (records.Record, error)
	Row(ctx context.Context, dataset, id string) (records.Record, error)
	FindIndex(ctx context.Context, dataset, id string) (int, error)
	Update(ctx context.Context, dataset, id string, fields records.Record) (records.Record, error)
	UpdateAt(ctx context.Context, dataset string, index int, fields records.Record) (records.Record, error)
	Delete(ctx context.Context, dataset, id string) (*DeleteResult, error)
	DeleteAt(ctx context.Context, dataset string, index int) (*DeleteResult, error)
	Regenerate(ctx context.Context, dataset, descriptor string) (*RegenerateResult, error)
}

// Datasets manages whole datasets.
type Datasets interface {
	Datasets(ctx context.Context) ([]store.DatasetInfo, error)
	DeleteDataset(ctx context.Context, dataset string) error
	Export(ctx context.Context, dataset string, opts ...store.ExportOption) ([]byte, error)
	Stats(ctx context.Context, dataset string) (*DatasetStats, error)
	Descriptors() []records.Descriptor
}

// Importer runs bulk imports.
type Importer interface {
	Import(ctx context.Context, dataset string, src ingest.RowSource, opts ...ingest.Option) (*ingest.Stats, error)
	Analyze(ctx context.Context, src ingest.RowSource) ([]ingest.SheetSummary, error)
}

// Tally is the reconciliation engine.
type Tally interface {
	Records
	Datasets
	Importer
	Hooks

	// Compare scores two records with the dataset's comparison columns.
	Compare(dataset string, a, b records.Record) CompareResult
}

// client is the internal implementation of the Tally interface.
type client struct {
	options  *options
	registry records.Registry
	store    *store.Store
	pipeline *ingest.Pipeline
	metrics  *metrics.Metrics

	// locks serializes load-modify-save cycles per dataset
	locks sync.Map

	*hooks
}

// New creates a Tally instance with the given options.
func New(opts ...Option) (Tally, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	registry := records.DefaultRegistry()
	if o.registry != nil {
		registry = *o.registry
	}

	backend := o.backend
	if backend == nil {
		lb, err := local.New(o.dataDir)
		if err != nil {
			return nil, err
		}
		backend = lb
	}

	c := &client{
		options:  o,
		registry: registry,
		store:    store.New(backend, registry),
		metrics:  metrics.New(o.registerer),
		hooks:    newHooks(),
	}

	c.pipeline, err = ingest.NewPipeline(c.store, registry,
		ingest.WithClock(o.now),
		ingest.WithWorkers(o.workers),
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// lock takes the write lock of dataset and returns its release.
func (c *client) lock(dataset string) func() {
	v, _ := c.locks.LoadOrStore(dataset, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// context attaches the configured logger, unless ctx already carries one,
// and the operation fields.
func (c *client) context(ctx context.Context, op, dataset string) context.Context {
	if c.options.logger != nil && logging.FromContext(ctx) == logging.Default() {
		ctx = logging.WithLogger(ctx, c.options.logger)
	}
	ctx = logging.WithOperation(ctx, op)
	if dataset != "" {
		ctx = logging.WithDataset(ctx, dataset)
	}
	return ctx
}

// checkDataset validates a dataset name before any I/O.
func checkDataset(dataset string) error {
	if dataset == "" {
		return &errors.ValidationError{Field: "dataset", Message: "dataset name is required"}
	}
	return store.ValidateName(dataset)
}
