package records

import (
	"io"
	"os"
	"sort"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/tally/pkg/errors"
)

// Registry is an immutable set of dataset descriptors keyed by name.
// The zero value is an empty registry.
type Registry struct {
	byName map[string]Descriptor
}

// NewRegistry validates descs and builds a registry from them.
func NewRegistry(descs ...Descriptor) (Registry, error) {
	r := Registry{byName: make(map[string]Descriptor, len(descs))}
	for _, d := range descs {
		if err := d.Validate(); err != nil {
			return Registry{}, err
		}
		if _, dup := r.byName[d.Name]; dup {
			return Registry{}, errors.NewValidationError("name", d.Name, "descriptor "+d.Name+" defined twice")
		}
		if d.FileName == "" {
			d.FileName = d.Name + ".csv"
		}
		r.byName[d.Name] = d.clone()
	}
	return r, nil
}

// With returns a new registry holding r's descriptors with descs added.
// A descriptor in descs replaces one of the same name.
func (r Registry) With(descs ...Descriptor) (Registry, error) {
	incoming, err := NewRegistry(descs...)
	if err != nil {
		return Registry{}, err
	}
	out := Registry{byName: make(map[string]Descriptor, len(r.byName)+len(descs))}
	for k, v := range r.byName {
		out.byName[k] = v
	}
	for k, v := range incoming.byName {
		out.byName[k] = v
	}
	return out, nil
}

// Get returns the configured descriptor for name.
func (r Registry) Get(name string) (Descriptor, bool) {
	d, ok := r.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return d.clone(), true
}

// Lookup returns the configured descriptor for name, or the generic fallback.
func (r Registry) Lookup(name string) Descriptor {
	if d, ok := r.Get(name); ok {
		return d
	}
	return Generic(name)
}

// Names returns the configured dataset names, sorted.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for k := range r.byName {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// All returns every configured descriptor, sorted by name.
func (r Registry) All() []Descriptor {
	names := r.Names()
	out := make([]Descriptor, len(names))
	for i, n := range names {
		out[i] = r.byName[n].clone()
	}
	return out
}

// Len returns the number of configured descriptors.
func (r Registry) Len() int {
	return len(r.byName)
}

// descriptorFile is the on-disk layout of a descriptors file.
type descriptorFile struct {
	Datasets []Descriptor `yaml:"datasets"`
}

// ReadDescriptors parses a YAML descriptors document.
func ReadDescriptors(rd io.Reader) ([]Descriptor, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, errors.WrapIO("read", "descriptors", err)
	}
	var file descriptorFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.WrapParse("yaml", "", err)
	}
	return file.Datasets, nil
}

// LoadRegistryFile reads descriptors from path and layers them over base.
func LoadRegistryFile(base Registry, path string) (Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return Registry{}, errors.NewConfigError("descriptors", "cannot open "+path, err)
	}
	defer func() { _ = f.Close() }()

	descs, err := ReadDescriptors(f)
	if err != nil {
		return Registry{}, errors.NewConfigError("descriptors", path, err)
	}
	reg, err := base.With(descs...)
	if err != nil {
		return Registry{}, errors.NewConfigError("descriptors", path, err)
	}
	return reg, nil
}
