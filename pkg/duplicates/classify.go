package duplicates

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/records"
)

// Classify checks every candidate against the same existing set. Candidates
// never see each other, so two near-identical rows in one batch are both
// accepted. Results are in candidate order.
func (d *Detector) Classify(ctx context.Context, candidates, existing []records.Record) ([]Match, error) {
	out := make([]Match, len(candidates))
	if len(candidates) == 0 {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for i, c := range candidates {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			m, err := detect(gctx, c, existing, d.columns, d.threshold)
			if err != nil {
				return err
			}
			out[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrCanceled, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrCanceled, err)
	}
	return out, nil
}
