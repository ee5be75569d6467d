package identifiers

import (
	"time"

	"github.com/agentstation/tally/pkg/records"
)

// Result is the outcome of Reconcile.
type Result struct {
	Records     []records.Record
	Changed     bool
	Regenerated int
	// Skipped counts generated identifiers that collided with existing ones.
	Skipped int
}

// Reconcile gives every record with a legacy identifier a generated one,
// using the record's position (index+1) as its sequence. Regenerated records
// get created_at backfilled and updated_at stamped. recs is not modified.
// Running Reconcile on its own output changes nothing.
func Reconcile(recs []records.Record, desc records.Descriptor, now time.Time) Result {
	out := make([]records.Record, len(recs))
	seq := NewSequencer(desc, Millis(now), 1, Taken(recs, desc.IDField))

	regenerated := 0
	for i, r := range recs {
		if !NeedsRegeneration(r.Value(desc.IDField)) {
			out[i] = r
			continue
		}
		c := r.Clone()
		c.Set(desc.IDField, seq.At(i+1))
		Stamp(&c, now)
		out[i] = c
		regenerated++
	}

	return Result{
		Records:     out,
		Changed:     regenerated > 0,
		Regenerated: regenerated,
		Skipped:     seq.Skipped(),
	}
}
