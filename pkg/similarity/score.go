package similarity

import (
	"strings"

	"github.com/agentstation/tally/pkg/records"
)

// Column weights.
const (
	WeightDefault   = 1.0
	WeightIdentity  = 2.0
	WeightLocation  = 1.5
	WeightFinancial = 1.5
)

var (
	identityHints  = []string{"name", "work", "scheme"}
	locationHints  = []string{"location", "hq", "sector", "frontier"}
	financialHints = []string{"amount", "sanction", "allotment"}
	excludedHints  = []string{"id", "created", "updated"}
)

// ClassifyColumnWeight returns the weight a column carries in a record score.
// Financial and location hints win over identity hints, so "sanctioned_amount"
// and "work_location" weigh 1.5 rather than 2.
func ClassifyColumnWeight(column string) float64 {
	name := strings.ToLower(column)
	switch {
	case containsAny(name, financialHints):
		return WeightFinancial
	case containsAny(name, locationHints):
		return WeightLocation
	case containsAny(name, identityHints):
		return WeightIdentity
	default:
		return WeightDefault
	}
}

// ComparisonColumns returns the columns scored when none are configured:
// a's keys then b's new keys, without identifier and timestamp columns.
func ComparisonColumns(a, b records.Record) []string {
	seen := make(map[string]struct{}, a.Len()+b.Len())
	var out []string
	for _, r := range []records.Record{a, b} {
		for _, k := range r.Keys() {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			if containsAny(strings.ToLower(k), excludedHints) {
				continue
			}
			out = append(out, k)
		}
	}
	return out
}

// Score returns the weighted similarity of two records over columns.
// An empty column list scores every shared non-identifier column; a zero
// total weight scores 0.
func Score(a, b records.Record, columns []string) float64 {
	if len(columns) == 0 {
		columns = ComparisonColumns(a, b)
	}
	var total, weights float64
	for _, col := range columns {
		w := ClassifyColumnWeight(col)
		total += Compare(a.Value(col), b.Value(col), col) * w
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return total / weights
}

func containsAny(s string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(s, h) {
			return true
		}
	}
	return false
}
