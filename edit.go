package tally

import (
	"context"
	"strings"

	"github.com/agentstation/tally/pkg/constants"
	"github.com/agentstation/tally/pkg/duplicates"
	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/identifiers"
	"github.com/agentstation/tally/pkg/logging"
	"github.com/agentstation/tally/pkg/records"
	"github.com/agentstation/tally/pkg/store"
)

// InsertResult is the outcome of an accepted insert.
type InsertResult struct {
	Record      records.Record `json:"row" yaml:"row"`
	Index       int            `json:"index" yaml:"index"`
	GeneratedID string         `json:"generated_id" yaml:"generated_id"`
}

// DeleteResult is the outcome of a row deletion.
type DeleteResult struct {
	Record    records.Record `json:"deleted_row" yaml:"deleted_row"`
	Remaining int            `json:"remaining_count" yaml:"remaining_count"`
}

// RegenerateResult is the outcome of an identifier repair.
type RegenerateResult struct {
	Updated int `json:"updated" yaml:"updated"`
	Total   int `json:"total" yaml:"total"`
}

// Insert appends rec to dataset unless it is a near-duplicate of a stored
// record, in which case the error is a *errors.DuplicateError. Any
// identifier or timestamps in rec are replaced.
func (c *client) Insert(ctx context.Context, dataset string, rec records.Record) (*InsertResult, error) {
	if err := checkDataset(dataset); err != nil {
		return nil, err
	}
	if rec.Len() == 0 || rec.IsBlank() {
		return nil, &errors.ValidationError{Field: "record", Message: "record has no values"}
	}
	ctx = c.context(ctx, "insert", dataset)
	desc := c.registry.Lookup(dataset)
	rec = sanitized(rec)

	unlock := c.lock(dataset)
	defer unlock()

	existing, err := c.store.Load(ctx, dataset)
	if err != nil {
		return nil, err
	}

	m := duplicates.Detect(rec, existing, desc.ComparisonColumns, c.options.threshold)
	if m.IsDuplicate {
		c.metrics.DuplicateRejected(dataset)
		logging.FromContext(ctx).Info().
			Int("similarity", m.SimilarityPercent).
			Str("matched", m.Record.Value(desc.IDField)).
			Msg("Rejected duplicate record")
		dup := errors.NewDuplicateError(dataset, m.Similarity, m.SimilarityPercent, m.Index, m.Record.Map())
		dup.Columns = m.Record.Keys()
		return nil, dup
	}

	now := c.options.now()
	seq := identifiers.NewSequencer(desc, identifiers.Millis(now), len(existing)+1, identifiers.Taken(existing, desc.IDField))
	row := rec.Clone()
	row.Set(desc.IDField, seq.Next())
	ts := identifiers.FormatTime(now)
	row.Set(constants.CreatedAtColumn, ts)
	row.Set(constants.UpdatedAtColumn, ts)

	all := append(existing, row)
	if err := c.store.Save(ctx, dataset, all, desc.Columns); err != nil {
		return nil, err
	}

	c.metrics.Inserted(dataset)
	c.hooks.added(dataset, row)
	logging.FromContext(logging.WithRecord(ctx, row.Value(desc.IDField))).Debug().Msg("Inserted record")
	return &InsertResult{Record: row, Index: len(all) - 1, GeneratedID: row.Value(desc.IDField)}, nil
}

// Update merges fields into the row whose identifier is id.
func (c *client) Update(ctx context.Context, dataset, id string, fields records.Record) (records.Record, error) {
	return c.update(ctx, dataset, fields, func(recs []records.Record) (int, error) {
		return c.indexOf(recs, dataset, id)
	})
}

// UpdateAt merges fields into the row at index.
func (c *client) UpdateAt(ctx context.Context, dataset string, index int, fields records.Record) (records.Record, error) {
	return c.update(ctx, dataset, fields, func(recs []records.Record) (int, error) {
		return index, checkIndex(index, len(recs))
	})
}

// update applies fields on top of the located row. The identifier and
// created_at never change; updated_at is stamped.
func (c *client) update(ctx context.Context, dataset string, fields records.Record, locate func([]records.Record) (int, error)) (records.Record, error) {
	if err := checkDataset(dataset); err != nil {
		return records.Record{}, err
	}
	ctx = c.context(ctx, "update", dataset)
	desc := c.registry.Lookup(dataset)
	fields = sanitized(fields)

	unlock := c.lock(dataset)
	defer unlock()

	recs, err := c.store.Load(ctx, dataset)
	if err != nil {
		return records.Record{}, err
	}
	i, err := locate(recs)
	if err != nil {
		return records.Record{}, err
	}

	old := recs[i]
	row := old.Merge(fields)
	row.Set(desc.IDField, old.Value(desc.IDField))
	if created, ok := old.Get(constants.CreatedAtColumn); ok {
		row.Set(constants.CreatedAtColumn, created)
	}
	row.Set(constants.UpdatedAtColumn, identifiers.FormatTime(c.options.now()))
	recs[i] = row

	ctx = logging.WithRow(logging.WithRecord(ctx, row.Value(desc.IDField)), i)
	if err := c.store.Save(ctx, dataset, recs, desc.Columns); err != nil {
		return records.Record{}, err
	}
	c.hooks.updated(dataset, old, row)
	logging.FromContext(ctx).Debug().Int("fields", fields.Len()).Msg("Updated record")
	return row, nil
}

// Delete removes the row whose identifier is id.
func (c *client) Delete(ctx context.Context, dataset, id string) (*DeleteResult, error) {
	return c.delete(ctx, dataset, func(recs []records.Record) (int, error) {
		return c.indexOf(recs, dataset, id)
	})
}

// DeleteAt removes the row at index.
func (c *client) DeleteAt(ctx context.Context, dataset string, index int) (*DeleteResult, error) {
	return c.delete(ctx, dataset, func(recs []records.Record) (int, error) {
		return index, checkIndex(index, len(recs))
	})
}

func (c *client) delete(ctx context.Context, dataset string, locate func([]records.Record) (int, error)) (*DeleteResult, error) {
	if err := checkDataset(dataset); err != nil {
		return nil, err
	}
	ctx = c.context(ctx, "delete", dataset)
	desc := c.registry.Lookup(dataset)

	unlock := c.lock(dataset)
	defer unlock()

	recs, err := c.store.Load(ctx, dataset)
	if err != nil {
		return nil, err
	}
	i, err := locate(recs)
	if err != nil {
		return nil, err
	}

	removed := recs[i]
	rest := append(recs[:i:i], recs[i+1:]...)
	ctx = logging.WithRow(logging.WithRecord(ctx, removed.Value(desc.IDField)), i)
	// An emptied dataset keeps the deleted row's header.
	columns := store.ColumnOrder([]records.Record{removed}, desc.IDField)
	if err := c.store.Save(ctx, dataset, rest, columns); err != nil {
		return nil, err
	}
	c.hooks.removed(dataset, removed)
	logging.FromContext(ctx).Debug().Int("remaining", len(rest)).Msg("Deleted record")
	return &DeleteResult{Record: removed, Remaining: len(rest)}, nil
}

// Regenerate replaces every legacy identifier in dataset. descriptor names
// another dataset whose identifier settings to use; empty uses dataset's own.
func (c *client) Regenerate(ctx context.Context, dataset, descriptor string) (*RegenerateResult, error) {
	if err := checkDataset(dataset); err != nil {
		return nil, err
	}
	ctx = c.context(ctx, "regenerate", dataset)
	desc := c.registry.Lookup(dataset)
	if name := strings.TrimSpace(descriptor); name != "" {
		desc = c.registry.Lookup(name)
	}

	unlock := c.lock(dataset)
	defer unlock()

	recs, err := c.store.Load(ctx, dataset)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return &RegenerateResult{}, nil
	}

	res := identifiers.Reconcile(recs, desc, c.options.now())
	if res.Changed {
		if err := c.store.SaveWithIDField(ctx, dataset, desc.IDField, res.Records, desc.Columns); err != nil {
			return nil, err
		}
		c.metrics.Regenerated(dataset, res.Regenerated)
	}
	logging.FromContext(ctx).Info().
		Int("updated", res.Regenerated).
		Int("total", len(recs)).
		Msg("Identifier regeneration complete")
	return &RegenerateResult{Updated: res.Regenerated, Total: len(recs)}, nil
}

// sanitized returns a copy of rec with values in their stored form, so
// comparison and the returned row match what is written.
func sanitized(rec records.Record) records.Record {
	out := records.New()
	for _, k := range rec.Keys() {
		out.Set(k, store.Sanitize(rec.Value(k)))
	}
	return out
}
