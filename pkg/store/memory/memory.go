// Package memory is an in-process store.Backend for tests and embedding.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/store"
)

type object struct {
	data    []byte
	modTime time.Time
}

// Backend keeps objects in a map. It is safe for concurrent use.
type Backend struct {
	mu      sync.RWMutex
	objects map[string]object
	now     func() time.Time
}

var _ store.Backend = (*Backend)(nil)

// New creates an empty backend.
func New() *Backend {
	return &Backend{
		objects: make(map[string]object),
		now:     time.Now,
	}
}

// Get returns a copy of the object.
func (b *Backend) Get(_ context.Context, name string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[name]
	if !ok {
		return nil, errors.NewNotFoundError("object", name)
	}
	return append([]byte(nil), obj.data...), nil
}

// Put stores a copy of data.
func (b *Backend) Put(_ context.Context, name string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[name] = object{data: append([]byte(nil), data...), modTime: b.now()}
	return nil
}

// Delete removes the object.
func (b *Backend) Delete(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.objects, name)
	return nil
}

// List describes every object.
func (b *Backend) List(_ context.Context) ([]store.ObjectInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]store.ObjectInfo, 0, len(b.objects))
	for name, obj := range b.objects {
		out = append(out, store.ObjectInfo{Name: name, Size: int64(len(obj.data)), ModTime: obj.modTime})
	}
	return out, nil
}

// Stat describes one object.
func (b *Backend) Stat(_ context.Context, name string) (store.ObjectInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[name]
	if !ok {
		return store.ObjectInfo{}, errors.NewNotFoundError("object", name)
	}
	return store.ObjectInfo{Name: name, Size: int64(len(obj.data)), ModTime: obj.modTime}, nil
}
