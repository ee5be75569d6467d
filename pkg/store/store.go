// Package store persists datasets as delimited files on a pluggable Backend.
//
// Each dataset lives in one object named "<dataset>.csv". The header row
// lists the union of record columns with the identifier column first. A
// missing dataset reads as empty. Every Save is a single full-object replace;
// concurrent writers to one dataset are last-write-wins.
package store

import (
	"bytes"
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/logging"
	"github.com/agentstation/tally/pkg/records"
)

// Extension is the suffix of dataset objects.
const Extension = ".csv"

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// DatasetInfo summarizes one stored dataset.
type DatasetInfo struct {
	Name        string             `json:"name" yaml:"name"`
	FileName    string             `json:"filename" yaml:"filename"`
	DisplayName string             `json:"display_name" yaml:"display_name"`
	RecordCount int                `json:"record_count" yaml:"record_count"`
	Columns     []string           `json:"columns" yaml:"columns"`
	Size        int64              `json:"size" yaml:"size"`
	Modified    time.Time          `json:"modified" yaml:"modified"`
	IDField     string             `json:"id_field" yaml:"id_field"`
	Descriptor  records.Descriptor `json:"config" yaml:"config"`
}

// Store reads and writes datasets.
type Store struct {
	backend  Backend
	registry records.Registry
}

// New creates a store over backend. registry supplies identifier columns
// and display names.
func New(backend Backend, registry records.Registry) *Store {
	return &Store{backend: backend, registry: registry}
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend {
	return s.backend
}

// ValidateName rejects dataset names that cannot be used as object names.
func ValidateName(name string) error {
	if !validName.MatchString(name) || strings.Contains(name, "..") {
		return errors.NewValidationError("dataset", name, "dataset names may contain letters, digits, '.', '_' and '-' only")
	}
	return nil
}

// ObjectName returns the backend object name of a dataset.
func ObjectName(name string) string {
	return name + Extension
}

// Load returns every record of the dataset in stored order. A dataset that
// does not exist yet is empty.
func (s *Store) Load(ctx context.Context, name string) ([]records.Record, error) {
	recs, _, err := s.load(ctx, name)
	return recs, err
}

func (s *Store) load(ctx context.Context, name string) ([]records.Record, []string, error) {
	if err := ValidateName(name); err != nil {
		return nil, nil, err
	}
	data, err := s.backend.Get(ctx, ObjectName(name))
	if errors.IsNotFound(err) {
		return []records.Record{}, nil, nil
	}
	if err != nil {
		return nil, nil, errors.WrapIO("read", ObjectName(name), err)
	}
	recs, header, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	logging.FromContext(ctx).Debug().
		Str("dataset", name).
		Int("records", len(recs)).
		Msg("Loaded dataset")
	return recs, header, nil
}

// Save replaces the dataset with recs. When recs is empty the file holds
// only the header built from columns; otherwise the header is
// ColumnOrder(recs, idField) and columns is ignored.
func (s *Store) Save(ctx context.Context, name string, recs []records.Record, columns []string) error {
	return s.SaveWithIDField(ctx, name, s.registry.Lookup(name).IDField, recs, columns)
}

// SaveWithIDField is Save with an explicit identifier column, for batches
// that override the dataset descriptor's.
func (s *Store) SaveWithIDField(ctx context.Context, name, idField string, recs []records.Record, columns []string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	header := columns
	if len(recs) > 0 {
		header = ColumnOrder(recs, idField)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, recs, header); err != nil {
		return err
	}
	if err := s.backend.Put(ctx, ObjectName(name), buf.Bytes()); err != nil {
		return errors.WrapIO("write", ObjectName(name), err)
	}
	logging.FromContext(ctx).Debug().
		Str("dataset", name).
		Int("records", len(recs)).
		Int("bytes", buf.Len()).
		Msg("Saved dataset")
	return nil
}

// Info returns the summary of one dataset.
func (s *Store) Info(ctx context.Context, name string) (DatasetInfo, error) {
	if err := ValidateName(name); err != nil {
		return DatasetInfo{}, err
	}
	obj, err := s.backend.Stat(ctx, ObjectName(name))
	if errors.IsNotFound(err) {
		return DatasetInfo{}, errors.NewNotFoundError("dataset", name)
	}
	if err != nil {
		return DatasetInfo{}, errors.WrapIO("stat", ObjectName(name), err)
	}
	return s.info(ctx, name, obj)
}

func (s *Store) info(ctx context.Context, name string, obj ObjectInfo) (DatasetInfo, error) {
	recs, header, err := s.load(ctx, name)
	if err != nil {
		return DatasetInfo{}, err
	}
	desc := s.registry.Lookup(name)
	cols := header
	if len(recs) > 0 {
		cols = recs[0].Keys()
	}
	if cols == nil {
		cols = []string{}
	}
	return DatasetInfo{
		Name:        name,
		FileName:    ObjectName(name),
		DisplayName: desc.DisplayName,
		RecordCount: len(recs),
		Columns:     cols,
		Size:        obj.Size,
		Modified:    obj.ModTime,
		IDField:     desc.IDField,
		Descriptor:  desc,
	}, nil
}

// List returns every stored dataset sorted by name.
func (s *Store) List(ctx context.Context) ([]DatasetInfo, error) {
	objs, err := s.backend.List(ctx)
	if err != nil {
		return nil, errors.WrapIO("list", "", err)
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].Name < objs[j].Name })

	out := make([]DatasetInfo, 0, len(objs))
	for _, obj := range objs {
		name, ok := strings.CutSuffix(obj.Name, Extension)
		if !ok || ValidateName(name) != nil {
			continue
		}
		info, err := s.info(ctx, name, obj)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// Exists reports whether the dataset has been stored.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}
	_, err := s.backend.Stat(ctx, ObjectName(name))
	if errors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.WrapIO("stat", ObjectName(name), err)
	}
	return true, nil
}

// Delete removes a dataset.
func (s *Store) Delete(ctx context.Context, name string) error {
	ok, err := s.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewNotFoundError("dataset", name)
	}
	if err := s.backend.Delete(ctx, ObjectName(name)); err != nil {
		return errors.WrapIO("delete", ObjectName(name), err)
	}
	logging.FromContext(ctx).Info().Str("dataset", name).Msg("Deleted dataset")
	return nil
}

// Export returns the stored bytes of a dataset, optionally compressed.
func (s *Store) Export(ctx context.Context, name string, opts ...ExportOption) ([]byte, error) {
	o := defaultExportOptions().Apply(opts...)
	if !o.compression.IsValid() {
		return nil, errors.NewValidationError("compression", string(o.compression), "unsupported compression")
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	data, err := s.backend.Get(ctx, ObjectName(name))
	if errors.IsNotFound(err) {
		return nil, errors.NewNotFoundError("dataset", name)
	}
	if err != nil {
		return nil, errors.WrapIO("read", ObjectName(name), err)
	}
	return compress(data, o)
}
