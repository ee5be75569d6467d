package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/tally"
	"github.com/agentstation/tally/pkg/ingest"
	"github.com/agentstation/tally/pkg/records"
)

func page() *tally.RowsPage {
	return &tally.RowsPage{
		Columns: []string{"S_No", "NAME_OF_WORK"},
		Rows: []records.Record{
			records.New(
				records.Field{Key: "S_No", Value: "OPS-1-1"},
				records.Field{Key: "NAME_OF_WORK", Value: strings.Repeat("fence ", 10)},
			),
		},
		Total:   1,
		IDField: "S_No",
		AllRows: true,
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"YAML", FormatYAML, false},
		{"", "", false},
		{"wide", FormatWide, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFormatExplicit(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("YAML"))
	assert.True(t, FormatWide.IsTable())
	assert.False(t, FormatJSON.IsTable())
}

func TestRowsTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, FormatTable, page(), func() Data { return Rows(page()) }))
	out := buf.String()
	assert.Contains(t, out, "OPS-1-1")
	assert.Contains(t, out, "...")

	buf.Reset()
	require.NoError(t, Print(&buf, FormatWide, page(), func() Data { return Rows(page()) }))
	assert.NotContains(t, buf.String(), "...")
}

func TestRowsJSONKeepsFieldOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, FormatJSON, page(), func() Data { return Rows(page()) }))

	var decoded struct {
		Rows []json.RawMessage `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Rows, 1)
	assert.True(t, strings.HasPrefix(string(decoded.Rows[0]), `{"S_No":"OPS-1-1"`))
}

func TestRowsYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, FormatYAML, page(), nil))
	out := buf.String()
	assert.Contains(t, out, "S_No: OPS-1-1")
	assert.Less(t, strings.Index(out, "S_No"), strings.Index(out, "NAME_OF_WORK"))
}

func TestStatsTable(t *testing.T) {
	d := Stats(&tally.DatasetStats{
		Dataset:      "engineering",
		TotalRecords: 3,
		Aggregates:   map[string]float64{"total_sanctioned": 30.5, "avg_completion": 60},
	})
	require.Len(t, d.Rows, 10)
	assert.Equal(t, []string{"Avg Completion", "60"}, d.Rows[8])
	assert.Equal(t, []string{"Total Sanctioned", "30.5"}, d.Rows[9])
}

func TestImportTable(t *testing.T) {
	d := Import(&ingest.Stats{
		Dataset:          "operations",
		NewRecords:       1,
		DuplicateDetails: []ingest.DuplicateDetail{{RowIndex: 2, Similarity: 91, MatchedID: "OPS-1-1"}},
	})
	last := d.Rows[len(d.Rows)-1]
	assert.Equal(t, []string{"Duplicate Row 2", "91% like OPS-1-1"}, last)
}

func TestTableFallbacks(t *testing.T) {
	t.Run("records print as a table", func(t *testing.T) {
		var buf bytes.Buffer
		recs := []records.Record{
			records.New(records.Field{Key: "S_No", Value: "OPS-1-1"}),
			records.New(records.Field{Key: "S_No", Value: "OPS-1-2"}, records.Field{Key: "REMARKS", Value: "late"}),
		}
		require.NoError(t, NewFormatter(FormatTable).Format(&buf, recs))
		out := strings.ToUpper(buf.String())
		assert.Contains(t, out, "REMARKS")
		assert.Contains(t, out, "OPS-1-2")
	})

	t.Run("other values print as JSON", func(t *testing.T) {
		var buf bytes.Buffer
		sheets := []ingest.SheetSummary{{Name: "Fencing", RowCount: 2}}
		require.NoError(t, NewFormatter(FormatTable).Format(&buf, sheets))
		assert.True(t, json.Valid(buf.Bytes()))
		assert.Contains(t, buf.String(), "Fencing")
	})
}
