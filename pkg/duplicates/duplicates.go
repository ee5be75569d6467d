// Package duplicates decides whether an incoming record is a near-duplicate
// of a stored one.
//
// The policy is first-match: existing records are scanned in stored order and
// the first one scoring at or above the threshold wins, even if a later record
// would score higher.
package duplicates

import (
	"context"
	"math"

	"github.com/agentstation/tally/pkg/constants"
	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/records"
	"github.com/agentstation/tally/pkg/similarity"
)

// Match is the outcome of checking one candidate.
type Match struct {
	IsDuplicate       bool           `json:"is_duplicate"`
	Record            records.Record `json:"record,omitzero"`
	Index             int            `json:"index"`
	Similarity        float64        `json:"similarity"`
	SimilarityPercent int            `json:"similarity_percent"`
}

// NoMatch is the result for a candidate that is not a duplicate.
var NoMatch = Match{Index: -1}

// Detect returns the first existing record whose score against candidate is
// at or above threshold.
func Detect(candidate records.Record, existing []records.Record, columns []string, threshold float64) Match {
	m, _ := detect(context.Background(), candidate, existing, columns, threshold)
	return m
}

// detect checks ctx every few comparisons.
func detect(ctx context.Context, candidate records.Record, existing []records.Record, columns []string, threshold float64) (Match, error) {
	for i, rec := range existing {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return NoMatch, err
			}
		}
		score := similarity.Score(candidate, rec, columns)
		if score >= threshold {
			return Match{
				IsDuplicate:       true,
				Record:            rec,
				Index:             i,
				Similarity:        score,
				SimilarityPercent: Percent(score),
			}, nil
		}
	}
	return NoMatch, nil
}

// Percent converts a score to a whole percentage, rounding half away from zero.
func Percent(score float64) int {
	return int(math.Round(score * 100))
}

// ValidateThreshold rejects thresholds outside [0,1].
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return errors.NewValidationError("threshold", threshold, "must be between 0 and 1")
	}
	return nil
}

// Option configures a Detector.
type Option func(*Detector) error

// WithThreshold sets the acceptance threshold.
func WithThreshold(threshold float64) Option {
	return func(d *Detector) error {
		if err := ValidateThreshold(threshold); err != nil {
			return err
		}
		d.threshold = threshold
		return nil
	}
}

// WithColumns sets the columns records are scored on. Empty means every
// shared non-identifier column.
func WithColumns(columns []string) Option {
	return func(d *Detector) error {
		d.columns = append([]string(nil), columns...)
		return nil
	}
}

// WithWorkers bounds the goroutines Classify uses.
func WithWorkers(n int) Option {
	return func(d *Detector) error {
		if n < 1 {
			return errors.NewValidationError("workers", n, "must be at least 1")
		}
		d.workers = n
		return nil
	}
}

// Detector classifies candidates with a fixed column set and threshold.
type Detector struct {
	columns   []string
	threshold float64
	workers   int
}

// NewDetector creates a detector using the default threshold unless
// overridden.
func NewDetector(opts ...Option) (*Detector, error) {
	d := &Detector{
		threshold: constants.DefaultThreshold,
		workers:   constants.MaxClassifyWorkers,
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Threshold returns the acceptance threshold.
func (d *Detector) Threshold() float64 {
	return d.threshold
}

// Detect checks one candidate against existing.
func (d *Detector) Detect(candidate records.Record, existing []records.Record) Match {
	return Detect(candidate, existing, d.columns, d.threshold)
}
