package app

import (
	"context"

	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/store"
	"github.com/agentstation/tally/pkg/store/local"
	"github.com/agentstation/tally/pkg/store/memory"
	"github.com/agentstation/tally/pkg/store/minio"
	"github.com/agentstation/tally/pkg/store/s3"
)

// Backend opens the dataset backend selected by the store configuration.
// A MinIO bucket is created when missing.
func (c *Config) Backend(ctx context.Context) (store.Backend, error) {
	sc := c.Store
	switch sc.Backend {
	case "", BackendLocal:
		return local.New(c.DataDir)
	case BackendMemory:
		return memory.New(), nil
	case BackendS3:
		return s3.NewFromConfig(ctx, s3.Options{
			Bucket:    sc.Bucket,
			Prefix:    sc.Prefix,
			Region:    sc.Region,
			Endpoint:  sc.Endpoint,
			AccessKey: sc.AccessKey,
			SecretKey: sc.SecretKey,
		})
	case BackendMinio:
		b, err := minio.NewFromOptions(minio.Options{
			Endpoint:  sc.Endpoint,
			Bucket:    sc.Bucket,
			Prefix:    sc.Prefix,
			AccessKey: sc.AccessKey,
			SecretKey: sc.SecretKey,
			Secure:    sc.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		if err := b.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, errors.NewConfigError("store", "unknown backend "+sc.Backend+" (want local, memory, s3 or minio)", nil)
}
