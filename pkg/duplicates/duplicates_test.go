package duplicates_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/tally/pkg/duplicates"
	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/records"
)

func rec(kv ...string) records.Record {
	var r records.Record
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i], kv[i+1])
	}
	return r
}

var columns = []string{"name", "location", "amount"}

func TestDetect(t *testing.T) {
	existing := []records.Record{
		rec("id", "A", "name", "Border fence", "location", "Jammu", "amount", "100"),
		rec("id", "B", "name", "Road repair", "location", "Samba", "amount", "250"),
	}

	t.Run("duplicate found", func(t *testing.T) {
		cand := rec("name", "Road repair", "location", "Samba", "amount", "250")
		m := duplicates.Detect(cand, existing, columns, 0.7)
		require.True(t, m.IsDuplicate)
		assert.Equal(t, 1, m.Index)
		assert.Equal(t, "B", m.Record.Value("id"))
		assert.Equal(t, 1.0, m.Similarity)
		assert.Equal(t, 100, m.SimilarityPercent)
	})

	t.Run("not a duplicate", func(t *testing.T) {
		cand := rec("name", "Watch tower", "location", "Kathua", "amount", "900")
		m := duplicates.Detect(cand, existing, columns, 0.7)
		assert.False(t, m.IsDuplicate)
		assert.Equal(t, -1, m.Index)
	})

	t.Run("empty existing", func(t *testing.T) {
		assert.Equal(t, duplicates.NoMatch, duplicates.Detect(rec("name", "x"), nil, columns, 0.7))
	})

	t.Run("first match wins over better later match", func(t *testing.T) {
		near := rec("id", "N", "name", "Road repairs", "location", "Samba", "amount", "250")
		exact := rec("id", "E", "name", "Road repair", "location", "Samba", "amount", "250")
		cand := rec("name", "Road repair", "location", "Samba", "amount", "250")

		m := duplicates.Detect(cand, []records.Record{near, exact}, columns, 0.7)
		require.True(t, m.IsDuplicate)
		assert.Equal(t, "N", m.Record.Value("id"))
		assert.Less(t, m.Similarity, 1.0)
	})

	t.Run("threshold zero matches first record", func(t *testing.T) {
		m := duplicates.Detect(rec("name", "zzz"), existing, columns, 0)
		require.True(t, m.IsDuplicate)
		assert.Equal(t, 0, m.Index)
	})
}

func TestThresholdMonotonicity(t *testing.T) {
	existing := []records.Record{rec("name", "Fence repair", "location", "Jammu", "amount", "120")}
	cand := rec("name", "Fence repairs", "location", "Jammu", "amount", "118")

	prev := true
	for _, th := range []float64{0, 0.3, 0.5, 0.7, 0.9, 0.95, 0.99, 1} {
		dup := duplicates.Detect(cand, existing, columns, th).IsDuplicate
		if !prev {
			assert.False(t, dup, "raising the threshold to %v turned a unique record into a duplicate", th)
		}
		prev = dup
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 91, duplicates.Percent(0.913))
	assert.Equal(t, 70, duplicates.Percent(0.7))
	assert.Equal(t, 0, duplicates.Percent(0))
}

func TestNewDetector(t *testing.T) {
	d, err := duplicates.NewDetector()
	require.NoError(t, err)
	assert.Equal(t, 0.7, d.Threshold())

	for _, bad := range []float64{-0.1, 1.01} {
		_, err := duplicates.NewDetector(duplicates.WithThreshold(bad))
		assert.True(t, errors.IsValidationError(err), "threshold %v", bad)
	}

	_, err = duplicates.NewDetector(duplicates.WithWorkers(0))
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	existing := []records.Record{
		rec("name", "Border fence", "location", "Jammu", "amount", "100"),
	}
	var candidates []records.Record
	for i := 0; i < 50; i++ {
		if i%5 == 0 {
			candidates = append(candidates, rec("name", "Border fence", "location", "Jammu", "amount", "100"))
			continue
		}
		candidates = append(candidates, rec("name", fmt.Sprintf("Culvert %d", i), "location", "Poonch", "amount", fmt.Sprint(5000+i)))
	}

	d, err := duplicates.NewDetector(duplicates.WithColumns(columns), duplicates.WithWorkers(4))
	require.NoError(t, err)

	got, err := d.Classify(context.Background(), candidates, existing)
	require.NoError(t, err)
	require.Len(t, got, len(candidates))
	for i, m := range got {
		assert.Equal(t, d.Detect(candidates[i], existing), m, "candidate %d", i)
		assert.Equal(t, i%5 == 0, m.IsDuplicate, "candidate %d", i)
	}
}

func TestClassifyBatchSelfIsolation(t *testing.T) {
	d, err := duplicates.NewDetector(duplicates.WithColumns(columns))
	require.NoError(t, err)

	a := rec("name", "New post", "location", "Rajouri", "amount", "75")
	got, err := d.Classify(context.Background(), []records.Record{a, a.Clone()}, nil)
	require.NoError(t, err)
	assert.False(t, got[0].IsDuplicate)
	assert.False(t, got[1].IsDuplicate)
}

func TestClassifyCanceled(t *testing.T) {
	d, err := duplicates.NewDetector()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = d.Classify(ctx, []records.Record{rec("name", "x")}, []records.Record{rec("name", "y")})
	assert.True(t, errors.IsCanceled(err))
	assert.ErrorIs(t, err, context.Canceled)
}
