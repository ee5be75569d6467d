package store

import (
	"context"
	"time"
)

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Backend is the byte-level object storage datasets are kept in.
//
// Get and Stat return an error satisfying errors.IsNotFound for missing
// objects. Put replaces the whole object; readers never observe a partial
// write. Delete of a missing object is not an error.
type Backend interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]ObjectInfo, error)
	Stat(ctx context.Context, name string) (ObjectInfo, error)
}
