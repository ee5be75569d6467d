// Package minio stores datasets in a MinIO or other S3-compatible bucket.
package minio

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/store"
)

// Backend implements store.Backend for MinIO.
type Backend struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ store.Backend = (*Backend)(nil)

// New creates a backend. prefix is prepended to every object key.
func New(client *minio.Client, bucket, prefix string) *Backend {
	return &Backend{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Options configures NewFromOptions.
type Options struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	Secure    bool
}

// NewFromOptions connects to endpoint with static credentials.
func NewFromOptions(opts Options) (*Backend, error) {
	if opts.Endpoint == "" || opts.Bucket == "" {
		return nil, errors.NewConfigError("store", "minio backend requires an endpoint and a bucket", nil)
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.Secure,
	})
	if err != nil {
		return nil, errors.NewConfigError("store", "creating minio client", err)
	}
	return New(client, opts.Bucket, opts.Prefix), nil
}

// EnsureBucket creates the bucket when it does not exist.
func (b *Backend) EnsureBucket(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return errors.WrapIO("stat", b.bucket, err)
	}
	if exists {
		return nil
	}
	if err := b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.WrapIO("create", b.bucket, err)
	}
	return nil
}

func (b *Backend) key(name string) string {
	return path.Join(b.prefix, name)
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NotFound"
}

// Get downloads an object.
func (b *Backend) Get(ctx context.Context, name string) ([]byte, error) {
	key := b.key(name)
	obj, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NewNotFoundError("object", name)
		}
		return nil, errors.WrapIO("read", key, err)
	}
	defer func() { _ = obj.Close() }()

	// GetObject is lazy; a missing key surfaces on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NewNotFoundError("object", name)
		}
		return nil, errors.WrapIO("read", key, err)
	}
	return data, nil
}

// Put writes an object in a single request.
func (b *Backend) Put(ctx context.Context, name string, data []byte) error {
	key := b.key(name)
	_, err := b.client.PutObject(ctx, b.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	return errors.WrapIO("write", key, err)
}

// Delete removes an object.
func (b *Backend) Delete(ctx context.Context, name string) error {
	key := b.key(name)
	err := b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return errors.WrapIO("delete", key, err)
	}
	return nil
}

// List returns the objects directly under the prefix.
func (b *Backend) List(ctx context.Context) ([]store.ObjectInfo, error) {
	opts := minio.ListObjectsOptions{}
	if b.prefix != "" {
		opts.Prefix = b.prefix + "/"
	}

	var out []store.ObjectInfo
	for obj := range b.client.ListObjects(ctx, b.bucket, opts) {
		if obj.Err != nil {
			return nil, errors.WrapIO("list", b.bucket, obj.Err)
		}
		name := strings.TrimPrefix(strings.TrimPrefix(obj.Key, b.prefix), "/")
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		out = append(out, store.ObjectInfo{
			Name:    name,
			Size:    obj.Size,
			ModTime: obj.LastModified,
		})
	}
	return out, nil
}

// Stat describes an object.
func (b *Backend) Stat(ctx context.Context, name string) (store.ObjectInfo, error) {
	key := b.key(name)
	info, err := b.client.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return store.ObjectInfo{}, errors.NewNotFoundError("object", name)
		}
		return store.ObjectInfo{}, errors.WrapIO("stat", key, err)
	}
	return store.ObjectInfo{
		Name:    name,
		Size:    info.Size,
		ModTime: info.LastModified,
	}, nil
}
