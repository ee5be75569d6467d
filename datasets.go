package tally

import (
	"context"

	"github.com/agentstation/tally/pkg/identifiers"
	"github.com/agentstation/tally/pkg/records"
	"github.com/agentstation/tally/pkg/similarity"
	"github.com/agentstation/tally/pkg/store"
)

// DatasetStats summarizes the contents of one dataset.
type DatasetStats struct {
	Dataset                string             `json:"dataset" yaml:"dataset"`
	DisplayName            string             `json:"display_name" yaml:"display_name"`
	TotalRecords           int                `json:"total_records" yaml:"total_records"`
	Columns                []string           `json:"columns" yaml:"columns"`
	IDField                string             `json:"id_field" yaml:"id_field"`
	ComparisonColumns      []string           `json:"comparison_columns" yaml:"comparison_columns"`
	IDsNeedingRegeneration int                `json:"ids_needing_regeneration" yaml:"ids_needing_regeneration"`
	Collisions             []string           `json:"collisions" yaml:"collisions"`
	Aggregates             map[string]float64 `json:"aggregates" yaml:"aggregates"`
}

// Datasets lists every stored dataset.
func (c *client) Datasets(ctx context.Context) ([]store.DatasetInfo, error) {
	return c.store.List(c.context(ctx, "datasets", ""))
}

// DeleteDataset removes a dataset and all of its rows.
func (c *client) DeleteDataset(ctx context.Context, dataset string) error {
	if err := checkDataset(dataset); err != nil {
		return err
	}
	unlock := c.lock(dataset)
	defer unlock()
	return c.store.Delete(c.context(ctx, "delete_dataset", dataset), dataset)
}

// Export returns the stored file of a dataset.
func (c *client) Export(ctx context.Context, dataset string, opts ...store.ExportOption) ([]byte, error) {
	if err := checkDataset(dataset); err != nil {
		return nil, err
	}
	return c.store.Export(c.context(ctx, "export", dataset), dataset, opts...)
}

// Stats reads the dataset without repairing it. Aggregates treat values that
// are not numbers as zero.
func (c *client) Stats(ctx context.Context, dataset string) (*DatasetStats, error) {
	if err := checkDataset(dataset); err != nil {
		return nil, err
	}
	ctx = c.context(ctx, "stats", dataset)
	desc := c.registry.Lookup(dataset)

	recs, err := c.store.Load(ctx, dataset)
	if err != nil {
		return nil, err
	}

	st := &DatasetStats{
		Dataset:           dataset,
		DisplayName:       desc.DisplayName,
		TotalRecords:      len(recs),
		Columns:           []string{},
		IDField:           desc.IDField,
		ComparisonColumns: desc.ComparisonColumns,
		Collisions:        identifiers.Collisions(recs, desc.IDField),
		Aggregates:        make(map[string]float64, len(desc.Aggregates)),
	}
	if st.ComparisonColumns == nil {
		st.ComparisonColumns = []string{}
	}
	if st.Collisions == nil {
		st.Collisions = []string{}
	}
	if len(recs) > 0 {
		st.Columns = recs[0].Keys()
	}
	for _, r := range recs {
		if identifiers.NeedsRegeneration(r.Value(desc.IDField)) {
			st.IDsNeedingRegeneration++
		}
	}

	for _, agg := range desc.Aggregates {
		var sum float64
		for _, r := range recs {
			if n, ok := similarity.ParseNumber(r.Value(agg.Column)); ok {
				sum += n
			}
		}
		if agg.Kind == records.AggregateAvg && len(recs) > 0 {
			sum /= float64(len(recs))
		}
		st.Aggregates[agg.Name] = sum
	}
	return st, nil
}

// Descriptors returns every registered dataset descriptor.
func (c *client) Descriptors() []records.Descriptor {
	return c.registry.All()
}
