package output

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/agentstation/tally"
	"github.com/agentstation/tally/pkg/ingest"
	"github.com/agentstation/tally/pkg/records"
	"github.com/agentstation/tally/pkg/store"
)

// Rows lays out a page of records, one column per dataset column.
func Rows(page *tally.RowsPage) Data {
	d := Data{Headers: page.Columns}
	for _, rec := range page.Rows {
		row := make([]string, len(page.Columns))
		for i, col := range page.Columns {
			row[i] = rec.Value(col)
		}
		d.Rows = append(d.Rows, row)
	}
	return d
}

// recordRows lays out loose records under the union of their columns.
func recordRows(recs []records.Record) Data {
	var d Data
	seen := map[string]bool{}
	for _, rec := range recs {
		for _, k := range rec.Keys() {
			if !seen[k] {
				seen[k] = true
				d.Headers = append(d.Headers, k)
			}
		}
	}
	for _, rec := range recs {
		row := make([]string, len(d.Headers))
		for i, col := range d.Headers {
			row[i] = rec.Value(col)
		}
		d.Rows = append(d.Rows, row)
	}
	return d
}

// Record lays out a single record as field/value pairs.
func Record(rec records.Record) Data {
	d := Data{Headers: []string{"Field", "Value"}}
	for _, k := range rec.Keys() {
		d.Rows = append(d.Rows, []string{k, rec.Value(k)})
	}
	return d
}

// Datasets lays out the stored datasets.
func Datasets(infos []store.DatasetInfo) Data {
	d := Data{
		Headers:         []string{"Dataset", "Display Name", "Records", "ID Field", "Size", "Modified"},
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignRight, AlignLeft, AlignRight, AlignLeft},
	}
	for _, info := range infos {
		d.Rows = append(d.Rows, []string{
			info.Name,
			info.DisplayName,
			strconv.Itoa(info.RecordCount),
			info.IDField,
			strconv.FormatInt(info.Size, 10),
			info.Modified.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	return d
}

// Stats lays out dataset statistics as property/value pairs. Aggregates
// follow in name order.
func Stats(st *tally.DatasetStats) Data {
	d := Data{
		Headers: []string{"Property", "Value"},
		Rows: [][]string{
			{"Dataset", st.Dataset},
			{"Display Name", st.DisplayName},
			{"Total Records", strconv.Itoa(st.TotalRecords)},
			{"ID Field", st.IDField},
			{"Columns", strings.Join(st.Columns, ", ")},
			{"Comparison Columns", strings.Join(st.ComparisonColumns, ", ")},
			{"IDs Needing Regeneration", strconv.Itoa(st.IDsNeedingRegeneration)},
			{"Collisions", strings.Join(st.Collisions, ", ")},
		},
	}
	for _, name := range slices.Sorted(maps.Keys(st.Aggregates)) {
		d.Rows = append(d.Rows, []string{title(name), strconv.FormatFloat(st.Aggregates[name], 'f', -1, 64)})
	}
	return d
}

// Import lays out the report of one import.
func Import(st *ingest.Stats) Data {
	d := Data{
		Headers: []string{"Property", "Value"},
		Rows: [][]string{
			{"Dataset", st.Dataset},
			{"Sheets Processed", strconv.Itoa(st.SheetsProcessed)},
			{"Total Records", strconv.Itoa(st.TotalRecords)},
			{"New Records", strconv.Itoa(st.NewRecords)},
			{"Duplicates Skipped", strconv.Itoa(st.DuplicatesSkipped)},
			{"IDs Generated", strconv.Itoa(st.IDsGenerated)},
			{"Existing Records", strconv.Itoa(st.ExistingRecords)},
			{"Threshold", strconv.FormatFloat(st.Threshold, 'f', -1, 64)},
			{"Dry Run", strconv.FormatBool(st.DryRun)},
		},
	}
	for _, dup := range st.DuplicateDetails {
		d.Rows = append(d.Rows, []string{
			fmt.Sprintf("Duplicate Row %d", dup.RowIndex),
			fmt.Sprintf("%d%% like %s", dup.Similarity, dup.MatchedID),
		})
	}
	return d
}

// Sheets lays out the shape of each analyzed sheet.
func Sheets(sheets []ingest.SheetSummary) Data {
	d := Data{
		Headers:         []string{"Sheet", "Rows", "Columns", "Total Rows", "Actual Columns"},
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignLeft, AlignRight, AlignRight},
	}
	for _, s := range sheets {
		d.Rows = append(d.Rows, []string{
			s.Name,
			strconv.Itoa(s.RowCount),
			strings.Join(s.Columns, ", "),
			strconv.Itoa(s.TotalRows),
			strconv.Itoa(s.ActualColumns),
		})
	}
	return d
}

// Compare lays out the per-column scores of a record comparison.
func Compare(res tally.CompareResult) Data {
	d := Data{
		Headers:         []string{"Column", "Weight", "Score"},
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignRight},
	}
	for _, f := range res.Fields {
		d.Rows = append(d.Rows, []string{
			f.Column,
			strconv.FormatFloat(f.Weight, 'f', 2, 64),
			strconv.FormatFloat(f.Score, 'f', 3, 64),
		})
	}
	d.Rows = append(d.Rows, []string{
		"Overall",
		"",
		fmt.Sprintf("%.3f (%d%%, duplicate: %t)", res.Similarity, res.Percent, res.IsDuplicate),
	})
	return d
}
