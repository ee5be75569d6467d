// Package local stores datasets as files in a directory.
package local

import (
	"bufio"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentstation/tally/pkg/constants"
	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/store"
)

// Backend implements store.Backend on the local file system.
type Backend struct {
	root string
}

var _ store.Backend = (*Backend)(nil)

// New creates a backend rooted at dir, creating the directory if needed.
func New(dir string) (*Backend, error) {
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", dir, err)
	}
	return &Backend{root: dir}, nil
}

// Root returns the backend directory.
func (b *Backend) Root() string {
	return b.root
}

func (b *Backend) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", errors.NewValidationError("name", name, "object names must not contain path separators")
	}
	return filepath.Join(b.root, name), nil
}

// Get reads a whole file.
func (b *Backend) Get(_ context.Context, name string) ([]byte, error) {
	p, err := b.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errors.NewNotFoundError("object", name)
	}
	if err != nil {
		return nil, errors.WrapIO("read", p, err)
	}
	return data, nil
}

// Put replaces a file atomically: data goes to a temp file in the same
// directory which is synced and renamed over the target.
func (b *Backend) Put(_ context.Context, name string, data []byte) error {
	p, err := b.path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(b.root, name+".tmp-*")
	if err != nil {
		return errors.WrapIO("create", p, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	_ = tmp.Chmod(constants.FilePermissions)

	w := bufio.NewWriterSize(tmp, constants.WriteBufferSize)
	if _, err := w.Write(data); err != nil {
		return errors.WrapIO("write", p, err)
	}
	if err := w.Flush(); err != nil {
		return errors.WrapIO("write", p, err)
	}
	if err := tmp.Sync(); err != nil {
		return errors.WrapIO("sync", p, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapIO("close", p, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return errors.WrapIO("rename", p, err)
	}
	tmpName = ""

	// Best-effort: fsync the directory so the rename is durable.
	if d, err := os.Open(b.root); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

// Delete removes a file. A missing file is not an error.
func (b *Backend) Delete(_ context.Context, name string) error {
	p, err := b.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.WrapIO("delete", p, err)
	}
	return nil
}

// List returns the regular files in the directory, skipping temp files.
func (b *Backend) List(_ context.Context) ([]store.ObjectInfo, error) {
	entries, err := os.ReadDir(b.root)
	if err != nil {
		return nil, errors.WrapIO("list", b.root, err)
	}
	var out []store.ObjectInfo
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.Contains(e.Name(), ".tmp-") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, store.ObjectInfo{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	return out, nil
}

// Stat describes one file.
func (b *Backend) Stat(_ context.Context, name string) (store.ObjectInfo, error) {
	p, err := b.path(name)
	if err != nil {
		return store.ObjectInfo{}, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return store.ObjectInfo{}, errors.NewNotFoundError("object", name)
	}
	if err != nil {
		return store.ObjectInfo{}, errors.WrapIO("stat", p, err)
	}
	return store.ObjectInfo{Name: name, Size: info.Size(), ModTime: info.ModTime()}, nil
}
