package logging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/tally/pkg/logging"
)

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, logging.Default(), logging.FromContext(context.Background()))
	//nolint:staticcheck // nil context is part of the contract
	assert.Same(t, logging.Default(), logging.FromContext(nil))
}

func TestRequestID(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithRequestID(ctx, "req-123")

	assert.Equal(t, "req-123", logging.RequestID(ctx))
	assert.Empty(t, logging.RequestID(context.Background()))

	logging.FromContext(ctx).Info().Msg("handled")
	entry, ok := tl.Find("handled")
	require.True(t, ok)
	assert.Equal(t, "req-123", entry[logging.FieldRequestID])
}

func TestNarrowingFields(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithOperation(ctx, "update")
	ctx = logging.WithDataset(ctx, "engineering")
	ctx = logging.WithRecord(ctx, "ENG-1700000000000-1")
	ctx = logging.WithRow(ctx, 4)

	logging.FromContext(ctx).Info().Msg("Updated record")

	entry, ok := tl.Find("Updated record")
	require.True(t, ok)
	assert.Equal(t, "update", entry[logging.FieldOperation])
	assert.Equal(t, "engineering", entry[logging.FieldDataset])
	assert.Equal(t, "ENG-1700000000000-1", entry[logging.FieldRecordID])
	assert.EqualValues(t, 4, entry[logging.FieldRow])
}

func TestWithImport(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithImport(ctx, "operations", "S_NO", true)
	ctx = logging.WithFields(ctx, map[string]any{"sheets": 2})

	logging.FromContext(ctx).Debug().Msg("Import state")

	entry, ok := tl.Find("Import state")
	require.True(t, ok)
	assert.Equal(t, "operations", entry[logging.FieldDataset])
	assert.Equal(t, "S_NO", entry[logging.FieldIDField])
	assert.Equal(t, true, entry[logging.FieldDryRun])
	assert.EqualValues(t, 2, entry["sheets"])
}

func TestWithError(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, logging.WithError(ctx, nil))

	tl := logging.NewTestLogger(t)
	ctx = logging.WithLogger(ctx, tl.Logger)
	ctx = logging.WithError(ctx, errors.New("disk full"))
	logging.FromContext(ctx).Warn().Msg("save failed")
	tl.AssertContains(t, `"error":"disk full"`)
}

func TestCaptureDefault(t *testing.T) {
	tl := logging.CaptureDefault(t)

	logging.Default().Info().Msg("first")
	logging.FromContext(context.Background()).Error().Msg("second")
	assert.Len(t, tl.Entries(), 2)

	tl.Reset()
	assert.Empty(t, tl.Entries())
}
