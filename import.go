package tally

import (
	"context"
	"time"

	"github.com/agentstation/tally/pkg/ingest"
	"github.com/agentstation/tally/pkg/logging"
)

// Import runs a bulk import into dataset. The client threshold applies unless
// opts override it.
func (c *client) Import(ctx context.Context, dataset string, src ingest.RowSource, opts ...ingest.Option) (*ingest.Stats, error) {
	if err := checkDataset(dataset); err != nil {
		return nil, err
	}
	ctx = c.context(ctx, "import", dataset)
	opts = append([]ingest.Option{ingest.WithThreshold(c.options.threshold)}, opts...)

	unlock := c.lock(dataset)
	defer unlock()

	start := time.Now()
	stats, err := c.pipeline.Run(ctx, dataset, src, opts...)
	if err != nil {
		return nil, err
	}

	if !stats.DryRun {
		c.metrics.Imported(dataset, stats.NewRecords, stats.DuplicatesSkipped, time.Since(start))
		c.hooks.imported(*stats)
	}
	logging.FromContext(ctx).Info().
		Int("added", stats.NewRecords).
		Int("duplicates", stats.DuplicatesSkipped).
		Dur("took", time.Since(start)).
		Msg(stats.Summary())
	return stats, nil
}

// Analyze describes the sheets of src without importing anything.
func (c *client) Analyze(ctx context.Context, src ingest.RowSource) ([]ingest.SheetSummary, error) {
	return ingest.Analyze(c.context(ctx, "analyze", ""), src)
}
