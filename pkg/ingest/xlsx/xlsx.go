// Package xlsx reads Excel workbooks as ingest row sources.
package xlsx

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/ingest"
)

// Source is an open workbook. Every worksheet becomes one sheet.
type Source struct {
	name     string
	file     *excelize.File
	date1904 bool
	styles   map[int]bool
}

var _ ingest.RowSource = (*Source)(nil)

// Open reads a workbook from r. name is used in error messages.
func Open(name string, r io.Reader) (*Source, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.NewParseError("xlsx", name, "cannot read workbook", err)
	}
	s := &Source{name: name, file: f, styles: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		s.date1904 = *props.Date1904
	}
	return s, nil
}

// OpenFile reads a workbook from disk.
func OpenFile(path string) (*Source, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = fh.Close() }()
	return Open(path, fh)
}

// OpenSource opens r as CSV when name has a .csv extension and as a workbook
// otherwise. Workbook sources implement io.Closer.
func OpenSource(name string, r io.Reader) (ingest.RowSource, error) {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return ingest.NewCSVSource(name, r), nil
	}
	return Open(name, r)
}

// Close releases the workbook.
func (s *Source) Close() error {
	return s.file.Close()
}

// Sheets reads every worksheet in workbook order. Cells styled as dates
// become date cells and plain numeric cells number cells; everything else is
// the cell's formatted text.
func (s *Source) Sheets(ctx context.Context) ([]ingest.Sheet, error) {
	names := s.file.GetSheetList()
	out := make([]ingest.Sheet, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sheet, err := s.sheet(name)
		if err != nil {
			return nil, err
		}
		out = append(out, sheet)
	}
	return out, nil
}

func (s *Source) sheet(name string) (ingest.Sheet, error) {
	sheet := ingest.Sheet{Name: name}

	formatted, err := s.file.GetRows(name)
	if err != nil {
		return sheet, errors.NewParseError("xlsx", s.name, "cannot read sheet "+name, err)
	}
	raw, err := s.file.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return sheet, errors.NewParseError("xlsx", s.name, "cannot read sheet "+name, err)
	}
	if len(formatted) == 0 {
		return sheet, nil
	}

	sheet.Header = formatted[0]
	for r := 1; r < len(formatted); r++ {
		row := make([]ingest.Cell, len(formatted[r]))
		for c, text := range formatted[r] {
			rawValue := text
			if r < len(raw) && c < len(raw[r]) {
				rawValue = raw[r][c]
			}
			row[c] = s.cell(name, c+1, r+1, text, rawValue)
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

func (s *Source) cell(sheet string, col, row int, text, raw string) ingest.Cell {
	if strings.TrimSpace(raw) == "" {
		return ingest.Text(text)
	}
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return ingest.Text(text)
	}
	typ, err := s.file.GetCellType(sheet, axis)
	if err != nil || (typ != excelize.CellTypeUnset && typ != excelize.CellTypeNumber) {
		return ingest.Text(text)
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return ingest.Text(text)
	}
	if s.isDateStyled(sheet, axis) {
		t, err := excelize.ExcelDateToTime(n, s.date1904)
		if err != nil {
			return ingest.Text(text)
		}
		return ingest.Date(t, text)
	}
	return ingest.Number(n, text)
}

func (s *Source) isDateStyled(sheet, axis string) bool {
	idx, err := s.file.GetCellStyle(sheet, axis)
	if err != nil || idx == 0 {
		return false
	}
	if v, ok := s.styles[idx]; ok {
		return v
	}
	isDate := false
	if style, err := s.file.GetStyle(idx); err == nil {
		switch {
		case style.CustomNumFmt != nil:
			isDate = IsDateFormat(*style.CustomNumFmt)
		default:
			isDate = isBuiltinDateFormat(style.NumFmt)
		}
	}
	s.styles[idx] = isDate
	return isDate
}

func isBuiltinDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 45 && id <= 47:
		return true
	case id >= 50 && id <= 58:
		return true
	}
	return false
}

// IsDateFormat reports whether a custom number format renders a date or
// time. Quoted literals and bracketed sections other than elapsed-time
// markers are ignored.
func IsDateFormat(code string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case ch == '"':
			inQuote = !inQuote
		case inQuote:
		case ch == '\\' || ch == '_' || ch == '*':
			i++
		case ch == '[':
			inBracket = true
		case ch == ']':
			inBracket = false
		case inBracket:
			if ch == 'h' || ch == 'm' || ch == 's' {
				b.WriteByte(ch)
			}
		default:
			b.WriteByte(ch)
		}
	}
	return strings.ContainsAny(strings.ToLower(b.String()), "ydhms")
}
