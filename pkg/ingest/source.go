package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/agentstation/tally/pkg/errors"
)

// CellKind says how a cell's value was typed by its source.
type CellKind uint8

// Cell kinds.
const (
	CellText CellKind = iota
	CellNumber
	CellDate
)

// Cell is one spreadsheet value. Text always holds the source's raw text;
// Number and Time are set for number and date cells.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Time   time.Time
}

// Text returns a text cell.
func Text(s string) Cell {
	return Cell{Kind: CellText, Text: s}
}

// Number returns a numeric cell.
func Number(n float64, raw string) Cell {
	return Cell{Kind: CellNumber, Number: n, Text: raw}
}

// Date returns a date cell.
func Date(t time.Time, raw string) Cell {
	return Cell{Kind: CellDate, Time: t, Text: raw}
}

// IsEmpty reports whether the cell holds nothing.
func (c Cell) IsEmpty() bool {
	return c.Kind == CellText && strings.TrimSpace(c.Text) == ""
}

// Sheet is one table of a row source. Header is the first row; Rows holds
// every following row, blank ones included.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]Cell
}

// RowSource yields the sheets of an uploaded file.
type RowSource interface {
	Sheets(ctx context.Context) ([]Sheet, error)
}

// CSVSource reads a single delimited file as one sheet.
type CSVSource struct {
	name string
	r    io.Reader
}

// NewCSVSource creates a source whose only sheet is named after filename
// without its extension.
func NewCSVSource(filename string, r io.Reader) *CSVSource {
	base := filepath.Base(filename)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." {
		name = "Sheet1"
	}
	return &CSVSource{name: name, r: r}
}

// Sheets parses the file. Every cell is text.
func (s *CSVSource) Sheets(ctx context.Context) ([]Sheet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cr := csv.NewReader(s.r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.WrapParse("csv", s.name, err)
	}
	sheet := Sheet{Name: s.name}
	if len(rows) == 0 {
		return []Sheet{sheet}, nil
	}
	sheet.Header = rows[0]
	if len(sheet.Header) > 0 {
		sheet.Header[0] = strings.TrimPrefix(sheet.Header[0], "\ufeff")
	}
	for _, row := range rows[1:] {
		cells := make([]Cell, len(row))
		for i, v := range row {
			cells[i] = Text(v)
		}
		sheet.Rows = append(sheet.Rows, cells)
	}
	return []Sheet{sheet}, nil
}

// StaticSource serves sheets that are already in memory.
type StaticSource []Sheet

// Sheets returns the sheets.
func (s StaticSource) Sheets(context.Context) ([]Sheet, error) {
	return s, nil
}
