package records_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/tally/pkg/records"
)

func TestRecordOrder(t *testing.T) {
	r := records.New(
		records.Field{Key: "name", Value: "Road"},
		records.Field{Key: "location", Value: "Jammu"},
	)
	r.Set("amount", "10")
	r.Set("name", "Bridge")

	assert.Equal(t, []string{"name", "location", "amount"}, r.Keys())
	assert.Equal(t, []string{"Bridge", "Jammu", "10"}, r.Values())
	assert.Equal(t, 3, r.Len())

	r.Delete("location")
	assert.Equal(t, []string{"name", "amount"}, r.Keys())
	assert.False(t, r.Has("location"))
	r.Delete("missing")
	assert.Equal(t, 2, r.Len())
}

func TestRecordZeroValue(t *testing.T) {
	var r records.Record
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, "", r.Value("x"))
	r.Set("x", "1")
	assert.Equal(t, "1", r.Value("x"))
}

func TestRecordCloneIsIndependent(t *testing.T) {
	orig := records.New(records.Field{Key: "a", Value: "1"})
	clone := orig.Clone()
	clone.Set("a", "2")
	clone.Set("b", "3")

	assert.Equal(t, "1", orig.Value("a"))
	assert.False(t, orig.Has("b"))
	assert.Equal(t, []string{"a", "b"}, clone.Keys())
}

func TestRecordMerge(t *testing.T) {
	base := records.New(records.Field{Key: "id", Value: "X-1"}, records.Field{Key: "name", Value: "old"})
	patch := records.New(records.Field{Key: "name", Value: "new"}, records.Field{Key: "extra", Value: "e"})

	merged := base.Merge(patch)
	assert.Equal(t, []string{"id", "name", "extra"}, merged.Keys())
	assert.Equal(t, "new", merged.Value("name"))
	assert.Equal(t, "old", base.Value("name"))
}

func TestFromMap(t *testing.T) {
	r := records.FromMap(map[string]string{"z": "1", "b": "2", "id": "3"}, "id")
	assert.Equal(t, []string{"id", "b", "z"}, r.Keys())
}

func TestRecordBlankAndContains(t *testing.T) {
	assert.True(t, records.New(records.Field{Key: "a", Value: "  "}).IsBlank())
	r := records.New(records.Field{Key: "a", Value: "Border Road"})
	assert.False(t, r.IsBlank())
	assert.True(t, r.Contains("road"))
	assert.False(t, r.Contains("bridge"))
}

func TestRecordJSON(t *testing.T) {
	t.Run("marshal keeps order", func(t *testing.T) {
		r := records.New(records.Field{Key: "s_no", Value: "ENG-1-1"}, records.Field{Key: "a", Value: "x"})
		data, err := json.Marshal(r)
		require.NoError(t, err)
		assert.Equal(t, `{"s_no":"ENG-1-1","a":"x"}`, string(data))
	})

	t.Run("unmarshal keeps order and stringifies scalars", func(t *testing.T) {
		var r records.Record
		err := json.Unmarshal([]byte(`{"name":"Road","amount":12.50,"done":true,"note":null,"tags":["a"]}`), &r)
		require.NoError(t, err)
		assert.Equal(t, []string{"name", "amount", "done", "note", "tags"}, r.Keys())
		assert.Equal(t, "12.50", r.Value("amount"))
		assert.Equal(t, "true", r.Value("done"))
		assert.Equal(t, "", r.Value("note"))
		assert.Equal(t, `["a"]`, r.Value("tags"))
	})

	t.Run("unmarshal rejects non-object", func(t *testing.T) {
		var r records.Record
		assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &r))
	})

	t.Run("slice of records", func(t *testing.T) {
		var rs []records.Record
		require.NoError(t, json.Unmarshal([]byte(`[{"b":"1","a":"2"},{"c":"3"}]`), &rs))
		require.Len(t, rs, 2)
		assert.Equal(t, []string{"b", "a"}, rs[0].Keys())
	})
}
