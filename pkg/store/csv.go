package store

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/records"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode reads a delimited file with a header row. Quotes are parsed
// leniently, short and long rows are tolerated, values are trimmed and rows
// without any value are skipped. It returns the records and the header.
func Decode(r io.Reader) ([]records.Record, []string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, errors.WrapIO("read", "", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, errors.WrapParse("csv", "", err)
	}
	if len(rows) == 0 {
		return []records.Record{}, nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	out := make([]records.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		var rec records.Record
		for i, col := range header {
			if col == "" {
				continue
			}
			value := ""
			if i < len(row) {
				value = strings.TrimSpace(row[i])
			}
			rec.Set(col, value)
		}
		if rec.IsBlank() {
			continue
		}
		out = append(out, rec)
	}
	return out, header, nil
}

// Encode writes recs with the given header. Commas inside values are
// replaced with semicolons. An empty recs slice produces a header-only file.
func Encode(w io.Writer, recs []records.Record, columns []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return errors.WrapIO("write", "", err)
	}
	row := make([]string, len(columns))
	for _, rec := range recs {
		for i, col := range columns {
			row[i] = Sanitize(rec.Value(col))
		}
		if err := cw.Write(row); err != nil {
			return errors.WrapIO("write", "", err)
		}
	}
	cw.Flush()
	return errors.WrapIO("write", "", cw.Error())
}

// Sanitize replaces the field delimiter inside a value.
func Sanitize(value string) string {
	return strings.ReplaceAll(value, ",", ";")
}

// ColumnOrder returns the union of the records' columns in first-seen order,
// with idField moved to the front when present.
func ColumnOrder(recs []records.Record, idField string) []string {
	seen := make(map[string]struct{})
	var cols []string
	hasID := false
	for _, r := range recs {
		for _, k := range r.Keys() {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			if k == idField {
				hasID = true
				continue
			}
			cols = append(cols, k)
		}
	}
	if hasID {
		cols = append([]string{idField}, cols...)
	}
	return cols
}
