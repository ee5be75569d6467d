package minio

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/tally/pkg/errors"
)

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NotFound"}))
	assert.False(t, isNotFound(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isNotFound(fmt.Errorf("connection refused")))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "datasets/ops.csv", New(nil, "b", "/datasets/").key("ops.csv"))
	assert.Equal(t, "ops.csv", New(nil, "b", "").key("ops.csv"))
}

func TestNewFromOptionsValidates(t *testing.T) {
	_, err := NewFromOptions(Options{Bucket: "b"})
	assert.ErrorIs(t, err, errors.ErrConfig)

	b, err := NewFromOptions(Options{Endpoint: "localhost:9000", Bucket: "b", Prefix: "p"})
	require.NoError(t, err)
	assert.Equal(t, "p", b.prefix)
}

// TestBackendIntegration requires a running MinIO instance at
// TALLY_MINIO_ENDPOINT.
func TestBackendIntegration(t *testing.T) {
	endpoint := os.Getenv("TALLY_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("TALLY_MINIO_ENDPOINT not set")
	}
	b, err := NewFromOptions(Options{
		Endpoint:  endpoint,
		Bucket:    "tally-test",
		Prefix:    "it",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	require.NoError(t, err)

	ctx := context.Background()
	if err := b.EnsureBucket(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	_, err = b.Get(ctx, "missing.csv")
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, b.Put(ctx, "ops.csv", []byte("S_No\n")))
	data, err := b.Get(ctx, "ops.csv")
	require.NoError(t, err)
	assert.Equal(t, "S_No\n", string(data))

	info, err := b.Stat(ctx, "ops.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size)

	objs, err := b.List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, objs)

	require.NoError(t, b.Delete(ctx, "ops.csv"))
	_, err = b.Stat(ctx, "ops.csv")
	assert.True(t, errors.IsNotFound(err))
}
