package ingest

import (
	"context"
	"strings"
)

// SheetSummary describes one sheet of an uploaded file.
type SheetSummary struct {
	Name          string   `json:"name" yaml:"name"`
	RowCount      int      `json:"row_count" yaml:"row_count"`
	Columns       []string `json:"columns" yaml:"columns"`
	TotalRows     int      `json:"total_rows" yaml:"total_rows"`
	ActualColumns int      `json:"actual_columns" yaml:"actual_columns"`
}

// Analyze reports the shape of every sheet without importing anything.
// RowCount counts data rows with at least one value; Columns lists the
// non-blank headers; TotalRows and ActualColumns give the raw extent.
func Analyze(ctx context.Context, src RowSource) ([]SheetSummary, error) {
	sheets, err := src.Sheets(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]SheetSummary, 0, len(sheets))
	for _, sheet := range sheets {
		sum := SheetSummary{Name: sheet.Name, Columns: []string{}}
		width := len(sheet.Header)
		if width > 0 || len(sheet.Rows) > 0 {
			sum.TotalRows = 1 + len(sheet.Rows)
		}
		for _, h := range sheet.Header {
			if h = strings.TrimSpace(h); h != "" {
				sum.Columns = append(sum.Columns, h)
			}
		}
		for _, row := range sheet.Rows {
			width = max(width, len(row))
			for _, c := range row {
				if !c.IsEmpty() {
					sum.RowCount++
					break
				}
			}
		}
		sum.ActualColumns = width
		out = append(out, sum)
	}
	return out, nil
}
