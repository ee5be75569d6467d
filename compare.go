package tally

import (
	"github.com/agentstation/tally/pkg/duplicates"
	"github.com/agentstation/tally/pkg/records"
	"github.com/agentstation/tally/pkg/similarity"
)

// FieldScore is the similarity of one column.
type FieldScore struct {
	Column string  `json:"column" yaml:"column"`
	Weight float64 `json:"weight" yaml:"weight"`
	Score  float64 `json:"score" yaml:"score"`
}

// CompareResult explains how two records score against each other.
type CompareResult struct {
	Similarity  float64      `json:"similarity" yaml:"similarity"`
	Percent     int          `json:"similarity_percent" yaml:"similarity_percent"`
	IsDuplicate bool         `json:"is_duplicate" yaml:"is_duplicate"`
	Fields      []FieldScore `json:"fields" yaml:"fields"`
}

// Compare scores a against b over the dataset's comparison columns.
func (c *client) Compare(dataset string, a, b records.Record) CompareResult {
	columns := c.registry.Lookup(dataset).ComparisonColumns
	if len(columns) == 0 {
		columns = similarity.ComparisonColumns(a, b)
	}

	score := similarity.Score(a, b, columns)
	res := CompareResult{
		Similarity:  score,
		Percent:     duplicates.Percent(score),
		IsDuplicate: score >= c.options.threshold,
		Fields:      make([]FieldScore, 0, len(columns)),
	}
	for _, col := range columns {
		res.Fields = append(res.Fields, FieldScore{
			Column: col,
			Weight: similarity.ClassifyColumnWeight(col),
			Score:  similarity.Compare(a.Value(col), b.Value(col), col),
		})
	}
	return res
}
