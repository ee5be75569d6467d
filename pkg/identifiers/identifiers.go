// Package identifiers generates record identifiers and repairs legacy ones.
//
// Generated identifiers follow the dataset's template, combining the prefix,
// a batch timestamp in milliseconds and a per-batch sequence number. Legacy
// identifiers (blank values and bare integers) are replaced on reconcile.
package identifiers

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/tally/pkg/constants"
	"github.com/agentstation/tally/pkg/records"
)

// NeedsRegeneration reports whether id is missing or a legacy identifier:
// blank, a string of digits, or a whole number below the legacy ceiling.
// Whole numbers written as floats ("5.0", "1e3") count.
func NeedsRegeneration(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return true
	}
	if strings.Trim(id, "0123456789") == "" {
		return true
	}
	f, err := strconv.ParseFloat(id, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return false
	}
	return f < constants.LegacyIDCeiling
}

// Generate renders an identifier for desc.
func Generate(desc records.Descriptor, timestamp int64, sequence int) string {
	return desc.Render(timestamp, sequence)
}

// Millis returns t as milliseconds since the Unix epoch.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FormatTime renders t in the created_at/updated_at layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(constants.TimeFormatRecord)
}

// Stamp sets updated_at on r, and created_at when it is missing or blank.
func Stamp(r *records.Record, now time.Time) {
	ts := FormatTime(now)
	if strings.TrimSpace(r.Value(constants.CreatedAtColumn)) == "" {
		r.Set(constants.CreatedAtColumn, ts)
	}
	r.Set(constants.UpdatedAtColumn, ts)
}

// Taken returns the set of non-legacy identifiers present in recs.
func Taken(recs []records.Record, idField string) map[string]struct{} {
	taken := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		id := r.Value(idField)
		if !NeedsRegeneration(id) {
			taken[id] = struct{}{}
		}
	}
	return taken
}

// Collisions returns the identifiers that appear on more than one record, in
// order of their first repeat.
func Collisions(recs []records.Record, idField string) []string {
	seen := make(map[string]int, len(recs))
	var out []string
	for _, r := range recs {
		id := strings.TrimSpace(r.Value(idField))
		if id == "" {
			continue
		}
		seen[id]++
		if seen[id] == 2 {
			out = append(out, id)
		}
	}
	return out
}
