package store_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/tally/pkg/records"
	"github.com/agentstation/tally/pkg/store"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantRows   int
		wantHeader []string
		check      func(t *testing.T, recs []records.Record)
	}{
		{
			name:       "empty input",
			input:      "",
			wantRows:   0,
			wantHeader: nil,
		},
		{
			name:       "header only",
			input:      "s_no,location\n",
			wantRows:   0,
			wantHeader: []string{"s_no", "location"},
		},
		{
			name:       "byte order mark and padding",
			input:      "\xEF\xBB\xBF s_no , location\nENG-1-1,  Siliguri  \n",
			wantRows:   1,
			wantHeader: []string{"s_no", "location"},
			check: func(t *testing.T, recs []records.Record) {
				assert.Equal(t, "ENG-1-1", recs[0].Value("s_no"))
				assert.Equal(t, "Siliguri", recs[0].Value("location"))
			},
		},
		{
			name:       "short rows are padded",
			input:      "a,b,c\n1\n",
			wantRows:   1,
			wantHeader: []string{"a", "b", "c"},
			check: func(t *testing.T, recs []records.Record) {
				assert.Equal(t, []string{"a", "b", "c"}, recs[0].Keys())
				assert.Equal(t, "", recs[0].Value("c"))
			},
		},
		{
			name:       "blank rows are skipped",
			input:      "a,b\n,\n1,2\n , \n",
			wantRows:   1,
			wantHeader: []string{"a", "b"},
		},
		{
			name:       "blank header columns are dropped",
			input:      "a,,b\n1,x,2\n",
			wantRows:   1,
			wantHeader: []string{"a", "", "b"},
			check: func(t *testing.T, recs []records.Record) {
				assert.Equal(t, []string{"a", "b"}, recs[0].Keys())
			},
		},
		{
			name:       "lenient quotes",
			input:      "a,b\nsay \"hi\",2\n",
			wantRows:   1,
			wantHeader: []string{"a", "b"},
			check: func(t *testing.T, recs []records.Record) {
				assert.Equal(t, `say "hi"`, recs[0].Value("a"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, header, err := store.Decode(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Len(t, recs, tt.wantRows)
			assert.Equal(t, tt.wantHeader, header)
			if tt.check != nil {
				tt.check(t, recs)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	recs := []records.Record{
		records.New(records.Field{Key: "id", Value: "X-1-1"}, records.Field{Key: "name", Value: "Road, phase 2"}),
		records.New(records.Field{Key: "id", Value: "X-1-2"}),
	}

	var buf bytes.Buffer
	require.NoError(t, store.Encode(&buf, recs, []string{"id", "name"}))
	assert.Equal(t, "id,name\nX-1-1,Road; phase 2\nX-1-2,\n", buf.String())

	t.Run("header only", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, store.Encode(&buf, nil, []string{"id", "name"}))
		assert.Equal(t, "id,name\n", buf.String())
	})

	t.Run("round trip", func(t *testing.T) {
		got, header, err := store.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "name"}, header)
		require.Len(t, got, 2)
		assert.Equal(t, "Road; phase 2", got[0].Value("name"))
	})
}

func TestColumnOrder(t *testing.T) {
	recs := []records.Record{
		records.New(records.Field{Key: "name", Value: "a"}, records.Field{Key: "S_No", Value: "1"}),
		records.New(records.Field{Key: "extra", Value: "b"}, records.Field{Key: "name", Value: "c"}),
	}
	assert.Equal(t, []string{"S_No", "name", "extra"}, store.ColumnOrder(recs, "S_No"))
	assert.Equal(t, []string{"name", "S_No", "extra"}, store.ColumnOrder(recs, "id"))
	assert.Empty(t, store.ColumnOrder(nil, "id"))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "a; b; c", store.Sanitize("a, b, c"))
	assert.Equal(t, "plain", store.Sanitize("plain"))
}
