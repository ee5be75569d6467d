package tally

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/agentstation/tally/pkg/constants"
	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/identifiers"
	"github.com/agentstation/tally/pkg/logging"
	"github.com/agentstation/tally/pkg/records"
)

// SortOrder is the direction of a row sort.
type SortOrder string

// Sort orders.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// RowsQuery filters, sorts and pages the rows of a dataset.
type RowsQuery struct {
	Search    string    // case-insensitive substring matched against every value
	SortBy    string    // column to sort by; ignored when the rows lack it
	SortOrder SortOrder // asc unless desc
	Page      int       // 1-based page number
	Limit     int       // rows per page; 0 returns every row
}

// RowsPage is one page of rows.
type RowsPage struct {
	Rows       []records.Record `json:"rows" yaml:"rows"`
	Total      int              `json:"total" yaml:"total"`
	Page       int              `json:"page" yaml:"page"`
	Limit      int              `json:"limit" yaml:"limit"`
	TotalPages int              `json:"total_pages" yaml:"total_pages"`
	Columns    []string         `json:"columns" yaml:"columns"`
	IDField    string           `json:"id_field" yaml:"id_field"`
	IDsUpdated bool             `json:"ids_updated" yaml:"ids_updated"`
	AllRows    bool             `json:"all_rows" yaml:"all_rows"`
}

// Rows returns the dataset's rows. Legacy identifiers are regenerated first
// and the repaired dataset is saved before the query runs.
func (c *client) Rows(ctx context.Context, dataset string, q RowsQuery) (*RowsPage, error) {
	if err := checkDataset(dataset); err != nil {
		return nil, err
	}
	ctx = c.context(ctx, "rows", dataset)
	desc := c.registry.Lookup(dataset)

	unlock := c.lock(dataset)
	recs, err := c.store.Load(ctx, dataset)
	if err != nil {
		unlock()
		return nil, err
	}
	res := identifiers.Reconcile(recs, desc, c.options.now())
	if res.Changed {
		if err := c.store.Save(ctx, dataset, res.Records, desc.Columns); err != nil {
			unlock()
			return nil, err
		}
		c.metrics.Regenerated(dataset, res.Regenerated)
		logging.FromContext(ctx).Info().
			Int("regenerated", res.Regenerated).
			Msg("Repaired legacy identifiers")
	}
	unlock()

	rows := res.Records
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		rows = slices.DeleteFunc(slices.Clone(rows), func(r records.Record) bool {
			return !r.Contains(needle)
		})
	}
	if q.SortBy != "" && len(rows) > 0 && rows[0].Has(q.SortBy) {
		sortRows(rows, q.SortBy, q.SortOrder)
	}

	page := &RowsPage{
		Total:      len(rows),
		Page:       max(q.Page, 1),
		IDField:    desc.IDField,
		IDsUpdated: res.Changed,
		Columns:    []string{},
	}
	if len(rows) > 0 {
		page.Columns = rows[0].Keys()
	}

	if q.Limit <= 0 {
		page.AllRows = true
		page.Rows = rows
		page.Limit = len(rows)
		if len(rows) > 0 {
			page.TotalPages = 1
		}
		return page, nil
	}

	page.Limit = min(q.Limit, constants.MaxPageSize)
	page.TotalPages = (len(rows) + page.Limit - 1) / page.Limit
	start := min((page.Page-1)*page.Limit, len(rows))
	end := min(start+page.Limit, len(rows))
	page.Rows = rows[start:end]
	return page, nil
}

// sortRows orders rows by the text of column. The sort is stable.
func sortRows(rows []records.Record, column string, order SortOrder) {
	slices.SortStableFunc(rows, func(a, b records.Record) int {
		cmp := strings.Compare(a.Value(column), b.Value(column))
		if order == SortDesc {
			return -cmp
		}
		return cmp
	})
}

// RowAt returns the row at index in stored order.
func (c *client) RowAt(ctx context.Context, dataset string, index int) (records.Record, error) {
	if err := checkDataset(dataset); err != nil {
		return records.Record{}, err
	}
	recs, err := c.store.Load(c.context(ctx, "row_at", dataset), dataset)
	if err != nil {
		return records.Record{}, err
	}
	if err := checkIndex(index, len(recs)); err != nil {
		return records.Record{}, err
	}
	return recs[index], nil
}

// Row returns the row whose identifier is id.
func (c *client) Row(ctx context.Context, dataset, id string) (records.Record, error) {
	if err := checkDataset(dataset); err != nil {
		return records.Record{}, err
	}
	recs, err := c.store.Load(c.context(ctx, "row", dataset), dataset)
	if err != nil {
		return records.Record{}, err
	}
	i, err := c.indexOf(recs, dataset, id)
	if err != nil {
		return records.Record{}, err
	}
	return recs[i], nil
}

// FindIndex returns the position of the row whose identifier is id.
func (c *client) FindIndex(ctx context.Context, dataset, id string) (int, error) {
	if err := checkDataset(dataset); err != nil {
		return -1, err
	}
	recs, err := c.store.Load(c.context(ctx, "find_index", dataset), dataset)
	if err != nil {
		return -1, err
	}
	return c.indexOf(recs, dataset, id)
}

func (c *client) indexOf(recs []records.Record, dataset, id string) (int, error) {
	idField := c.registry.Lookup(dataset).IDField
	i := slices.IndexFunc(recs, func(r records.Record) bool {
		return r.Value(idField) == id
	})
	if i < 0 {
		return -1, errors.NewNotFoundError("row", id)
	}
	return i, nil
}

func checkIndex(index, n int) error {
	if index < 0 || index >= n {
		return errors.NewNotFoundError("row", "at index "+strconv.Itoa(index))
	}
	return nil
}
