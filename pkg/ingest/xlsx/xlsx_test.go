package xlsx

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/ingest"
)

func workbook(t *testing.T) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	require.NoError(t, f.SetSheetName("Sheet1", "Fencing"))
	require.NoError(t, f.SetSheetRow("Fencing", "A1", &[]any{"NAME_OF_WORK", "LENGTH_KM", "PDC"}))
	require.NoError(t, f.SetSheetRow("Fencing", "A2", &[]any{"Fence north", 12.5}))
	require.NoError(t, f.SetCellValue("Fencing", "C2", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, f.SetSheetRow("Fencing", "A4", &[]any{"Fence south", 7}))

	_, err := f.NewSheet("Roads")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Roads", "A1", &[]any{"NAME_OF_WORK", "REMARKS"}))
	require.NoError(t, f.SetSheetRow("Roads", "A2", &[]any{"Road east", "in progress"}))

	_, err = f.NewSheet("Blank")
	require.NoError(t, err)

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestSourceSheets(t *testing.T) {
	src, err := Open("upload.xlsx", workbook(t))
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	sheets, err := src.Sheets(context.Background())
	require.NoError(t, err)
	require.Len(t, sheets, 3)

	fencing := sheets[0]
	assert.Equal(t, "Fencing", fencing.Name)
	assert.Equal(t, []string{"NAME_OF_WORK", "LENGTH_KM", "PDC"}, fencing.Header)
	require.Len(t, fencing.Rows, 3)

	row := fencing.Rows[0]
	require.Len(t, row, 3)
	assert.Equal(t, ingest.CellText, row[0].Kind)
	assert.Equal(t, "Fence north", row[0].Text)
	assert.Equal(t, ingest.CellNumber, row[1].Kind)
	assert.Equal(t, 12.5, row[1].Number)
	assert.Equal(t, ingest.CellDate, row[2].Kind)
	assert.Equal(t, "2024-01-15", ingest.NormalizeCell(row[2]))

	assert.Empty(t, fencing.Rows[1])
	assert.Equal(t, "7", ingest.NormalizeCell(fencing.Rows[2][1]))

	assert.Equal(t, "Roads", sheets[1].Name)
	assert.Equal(t, "in progress", sheets[1].Rows[0][1].Text)

	assert.Equal(t, "Blank", sheets[2].Name)
	assert.Empty(t, sheets[2].Header)
}

func TestSourceAnalyze(t *testing.T) {
	src, err := Open("upload.xlsx", workbook(t))
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	summaries, err := ingest.Analyze(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, 2, summaries[0].RowCount)
	assert.Equal(t, []string{"NAME_OF_WORK", "LENGTH_KM", "PDC"}, summaries[0].Columns)
	assert.Equal(t, 1, summaries[1].RowCount)
	assert.Equal(t, 0, summaries[2].RowCount)
}

func TestOpenRejectsGarbage(t *testing.T) {
	_, err := Open("notes.txt", strings.NewReader("not a workbook"))
	require.Error(t, err)
	assert.True(t, errors.IsParse(err))
}

func TestIsDateFormat(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"yyyy-mm-dd", true},
		{"dd/mm/yyyy hh:mm", true},
		{"[h]:mm:ss", true},
		{"0.00", false},
		{"#,##0", false},
		{`"days" 0`, false},
		{"[Red]0.00", false},
		{`0\d`, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsDateFormat(tt.code), tt.code)
	}
}

func TestBuiltinDateFormats(t *testing.T) {
	assert.True(t, isBuiltinDateFormat(14))
	assert.True(t, isBuiltinDateFormat(22))
	assert.False(t, isBuiltinDateFormat(0))
	assert.False(t, isBuiltinDateFormat(4))
}

func TestOpenSource(t *testing.T) {
	src, err := OpenSource("works.CSV", strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)
	_, isCSV := src.(*ingest.CSVSource)
	assert.True(t, isCSV)

	src, err = OpenSource("upload.xlsx", workbook(t))
	require.NoError(t, err)
	wb, ok := src.(*Source)
	require.True(t, ok)
	require.NoError(t, wb.Close())

	_, err = OpenSource("upload.xlsx", strings.NewReader("a,b\n1,2\n"))
	assert.True(t, errors.IsParse(err))
}
