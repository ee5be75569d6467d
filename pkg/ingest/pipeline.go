// Package ingest runs bulk imports: rows read from a spreadsheet are
// normalized, checked against the dataset's stored records for
// near-duplicates, given identifiers and appended to the dataset.
//
// A batch moves through the states ParsedRows, Normalized, Classified,
// IdentifierAssigned, Merged and Persisted. Rows are only ever compared with
// records that were stored before the batch started; two similar rows in the
// same upload are both accepted.
package ingest

import (
	"context"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/tally/pkg/constants"
	"github.com/agentstation/tally/pkg/duplicates"
	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/identifiers"
	"github.com/agentstation/tally/pkg/logging"
	"github.com/agentstation/tally/pkg/records"
	"github.com/agentstation/tally/pkg/store"
)

// Pipeline imports row sources into a store.
type Pipeline struct {
	store    *store.Store
	registry records.Registry
	now      func() time.Time
	observer Observer
	workers  int
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline) error

// WithClock sets the time source used for batch timestamps.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) error {
		if now == nil {
			return &errors.ValidationError{Field: "clock", Message: "must not be nil"}
		}
		p.now = now
		return nil
	}
}

// WithObserver registers a hook called as a batch enters each state.
func WithObserver(o Observer) PipelineOption {
	return func(p *Pipeline) error {
		p.observer = o
		return nil
	}
}

// WithWorkers bounds concurrent duplicate classification.
func WithWorkers(n int) PipelineOption {
	return func(p *Pipeline) error {
		if n < 1 {
			return errors.NewValidationError("workers", n, "must be at least 1")
		}
		p.workers = n
		return nil
	}
}

// NewPipeline creates a pipeline writing to st. registry resolves dataset
// descriptors.
func NewPipeline(st *store.Store, registry records.Registry, opts ...PipelineOption) (*Pipeline, error) {
	p := &Pipeline{
		store:    st,
		registry: registry,
		now:      time.Now,
		workers:  constants.MaxClassifyWorkers,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// ResolveDescriptor returns the descriptor a batch into dataset uses.
func ResolveDescriptor(registry records.Registry, dataset string, o *Options) records.Descriptor {
	name := dataset
	if o.Descriptor != "" {
		name = o.Descriptor
	}
	return registry.Lookup(name).WithIdentity(o.IDField, o.IDPrefix)
}

type parsedField struct {
	column string
	cell   Cell
}

type parsedRow struct {
	sheet  string
	fields []parsedField
}

// Run imports every sheet of src into dataset.
func (p *Pipeline) Run(ctx context.Context, dataset string, src RowSource, opts ...Option) (*Stats, error) {
	o := Defaults().Apply(opts...)
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if err := store.ValidateName(dataset); err != nil {
		return nil, err
	}

	desc := ResolveDescriptor(p.registry, dataset, o)
	ctx = logging.WithImport(ctx, dataset, desc.IDField, o.DryRun)
	logger := *logging.FromContext(ctx)

	stats := Stats{
		Dataset:          dataset,
		Threshold:        o.Threshold,
		IDField:          desc.IDField,
		DryRun:           o.DryRun,
		DuplicateDetails: []DuplicateDetail{},
	}

	existing, err := p.store.Load(ctx, dataset)
	if err != nil {
		return nil, err
	}
	stats.ExistingRecords = len(existing)

	sheets, err := src.Sheets(ctx)
	if err != nil {
		return nil, err
	}

	rows := parse(sheets, o.ColumnMapping, &stats)
	p.enter(&logger, StateParsedRows, stats)

	candidates := normalize(rows)
	p.enter(&logger, StateNormalized, stats)

	detector, err := duplicates.NewDetector(
		duplicates.WithThreshold(o.Threshold),
		duplicates.WithColumns(desc.ComparisonColumns),
		duplicates.WithWorkers(p.workers),
	)
	if err != nil {
		return nil, err
	}
	matches, err := detector.Classify(ctx, candidates, existing)
	if err != nil {
		return nil, err
	}

	accepted := make([]records.Record, 0, len(candidates))
	for i, m := range matches {
		stats.TotalRecords++
		if !m.IsDuplicate {
			accepted = append(accepted, candidates[i])
			continue
		}
		stats.DuplicatesSkipped++
		if len(stats.DuplicateDetails) < constants.DuplicateReportLimit {
			stats.DuplicateDetails = append(stats.DuplicateDetails, DuplicateDetail{
				RowIndex:   i + 1,
				Similarity: m.SimilarityPercent,
				MatchedID:  m.Record.Value(desc.IDField),
			})
			logger.Debug().
				Int("row", i+1).
				Int("similarity", m.SimilarityPercent).
				Msg("Row duplicates an existing record")
		}
	}
	p.enter(&logger, StateClassified, stats)

	now := p.now()
	seq := identifiers.NewSequencer(desc, identifiers.Millis(now), len(existing)+1, identifiers.Taken(existing, desc.IDField))
	for i := range accepted {
		accepted[i].Set(desc.IDField, seq.Next())
		identifiers.Stamp(&accepted[i], now)
	}
	stats.NewRecords = len(accepted)
	stats.IDsGenerated = len(accepted)
	if n := seq.Skipped(); n > 0 {
		logger.Warn().Int("skipped", n).Msg("Generated identifiers collided with stored ones")
	}
	p.enter(&logger, StateIdentifierAssigned, stats)

	merged := append(slices.Clip(existing), accepted...)
	p.enter(&logger, StateMerged, stats)

	if o.DryRun {
		logger.Info().
			Int("new", stats.NewRecords).
			Int("duplicates", stats.DuplicatesSkipped).
			Msg("Dry run, dataset not written")
		return &stats, nil
	}

	if err := p.store.SaveWithIDField(ctx, dataset, desc.IDField, merged, desc.Columns); err != nil {
		return nil, err
	}
	p.enter(&logger, StatePersisted, stats)

	logger.Info().
		Int("sheets", stats.SheetsProcessed).
		Int("total", stats.TotalRecords).
		Int("new", stats.NewRecords).
		Int("duplicates", stats.DuplicatesSkipped).
		Float64("threshold", stats.Threshold).
		Msg("Import complete")
	return &stats, nil
}

func (p *Pipeline) enter(logger *zerolog.Logger, state State, stats Stats) {
	logger.Debug().
		Str("state", state.String()).
		Int("rows", stats.TotalRecords).
		Msg("Import state")
	if p.observer != nil {
		p.observer(state, stats)
	}
}

// parse maps headers and keeps every row with at least one value.
func parse(sheets []Sheet, mapping map[string]string, stats *Stats) []parsedRow {
	var out []parsedRow
	for _, sheet := range sheets {
		if len(sheet.Header) == 0 && len(sheet.Rows) == 0 {
			continue
		}
		stats.SheetsProcessed++

		columns := make([]string, len(sheet.Header))
		for i, h := range sheet.Header {
			columns[i] = MapHeader(h, mapping)
		}

		for _, row := range sheet.Rows {
			pr := parsedRow{sheet: sheet.Name}
			for i, cell := range row {
				if i >= len(columns) || columns[i] == "" || cell.IsEmpty() {
					continue
				}
				pr.fields = append(pr.fields, parsedField{column: columns[i], cell: cell})
			}
			if len(pr.fields) > 0 {
				out = append(out, pr)
			}
		}
	}
	return out
}

// normalize builds records; source_sheet comes first.
func normalize(rows []parsedRow) []records.Record {
	out := make([]records.Record, len(rows))
	for i, row := range rows {
		rec := records.New(records.Field{Key: constants.SourceSheetColumn, Value: row.sheet})
		for _, f := range row.fields {
			rec.Set(f.column, NormalizeCell(f.cell))
		}
		out[i] = rec
	}
	return out
}
