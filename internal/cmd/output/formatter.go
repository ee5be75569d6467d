// Package output renders command results as tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/tally/pkg/records"
)

// Format is an output format name.
type Format string

// Output formats. FormatWide is a table without cell truncation.
const (
	FormatTable Format = "table"
	FormatWide  Format = "wide"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// MaxCellWidth is the widest cell, in runes, printed by FormatTable.
const MaxCellWidth = 40

// IsTable reports whether f renders through a table layout.
func (f Format) IsTable() bool {
	return f == FormatTable || f == FormatWide || f == ""
}

// ParseFormat validates s. The empty string means auto-detect.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatTable, FormatWide, FormatJSON, FormatYAML, "":
		return f, nil
	}
	return "", fmt.Errorf("invalid format %q: must be one of: table, wide, json, yaml", s)
}

// DetectFormat returns explicit when set. Otherwise a terminal gets a
// table and a pipe gets JSON.
func DetectFormat(explicit string) Format {
	if explicit != "" {
		return Format(strings.ToLower(explicit))
	}
	fd := os.Stdout.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return FormatTable
	}
	return FormatJSON
}

// Align is the alignment of a table column.
type Align int

// Column alignments.
const (
	AlignDefault Align = iota
	AlignLeft
	AlignCenter
	AlignRight
)

func (a Align) tw() tw.Align {
	switch a {
	case AlignLeft:
		return tw.AlignLeft
	case AlignCenter:
		return tw.AlignCenter
	case AlignRight:
		return tw.AlignRight
	}
	return tw.Skip
}

// Data is a table ready to print.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // optional, one per column
}

// Layout builds the table form of a result on demand.
type Layout func() Data

// Formatter writes a value in one output format.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// NewFormatter returns the formatter for format. Unknown formats print tables.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return jsonFormatter{indent: "  "}
	case FormatYAML:
		return yamlFormatter{}
	}
	return tableFormatter{wide: format == FormatWide}
}

// Print writes data to w. Table formats use layout when it is non-nil.
func Print(w io.Writer, format Format, data any, layout Layout) error {
	if layout != nil && format.IsTable() {
		return NewFormatter(format).Format(w, layout())
	}
	return NewFormatter(format).Format(w, data)
}

type jsonFormatter struct {
	indent string
}

func (f jsonFormatter) Format(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", f.indent)
	return enc.Encode(data)
}

type yamlFormatter struct{}

// Format goes through JSON marshalers so records keep their column order.
func (yamlFormatter) Format(w io.Writer, data any) error {
	out, err := yaml.MarshalWithOptions(data,
		yaml.Indent(2),
		yaml.IndentSequence(false),
		yaml.UseJSONMarshaler(),
	)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

type tableFormatter struct {
	wide bool
}

// Format prints Data and records as tables. Anything else falls back to JSON.
func (f tableFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case Data:
		return f.render(w, v)
	case *Data:
		return f.render(w, *v)
	case records.Record:
		return f.render(w, Record(v))
	case []records.Record:
		return f.render(w, recordRows(v))
	}
	return jsonFormatter{indent: "  "}.Format(w, data)
}

func (f tableFormatter) render(w io.Writer, data Data) error {
	var cfg tablewriter.Config
	if len(data.ColumnAlignment) > 0 {
		align := make([]tw.Align, len(data.ColumnAlignment))
		for i, a := range data.ColumnAlignment {
			align[i] = a.tw()
		}
		cfg.Header.Alignment = tw.CellAlignment{PerColumn: align}
		cfg.Row.Alignment = tw.CellAlignment{PerColumn: align}
	}
	table := tablewriter.NewTable(w, tablewriter.WithConfig(cfg))

	if len(data.Headers) > 0 {
		table.Header(cells(data.Headers, 0)...)
	}
	limit := MaxCellWidth
	if f.wide {
		limit = 0
	}
	for _, row := range data.Rows {
		if err := table.Append(cells(row, limit)...); err != nil {
			return err
		}
	}
	return table.Render()
}

// cells converts a row for tablewriter, truncating to limit runes when
// limit is positive.
func cells(row []string, limit int) []any {
	out := make([]any, len(row))
	for i, c := range row {
		out[i] = truncate(c, limit)
	}
	return out
}

func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// title turns a snake_case key into a column header.
func title(key string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}
