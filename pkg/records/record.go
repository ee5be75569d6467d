// Package records defines the row model shared by every reconciliation
// component: an ordered column → value mapping, and the dataset descriptors
// that say how a dataset's rows are identified and compared.
package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Record is an ordered mapping from column name to string value.
//
// Column order is the order in which keys were first set; Set on an existing
// key keeps its position. A Record value shares storage with its copies, so
// callers that change a record they did not create must Clone it first.
type Record struct {
	keys   []string
	values map[string]string
}

// Field is a single column/value pair used to build records.
type Field struct {
	Key   string
	Value string
}

// New creates a record from fields in order. Later duplicates overwrite
// earlier values without moving them.
func New(fields ...Field) Record {
	r := Record{values: make(map[string]string, len(fields))}
	for _, f := range fields {
		r.Set(f.Key, f.Value)
	}
	return r
}

// FromMap builds a record from m. Keys listed in order come first, in that
// order; remaining keys follow sorted by name so the result is deterministic.
func FromMap(m map[string]string, order ...string) Record {
	r := Record{values: make(map[string]string, len(m))}
	for _, k := range order {
		if v, ok := m[k]; ok {
			r.Set(k, v)
		}
	}
	rest := make([]string, 0, len(m))
	for k := range m {
		if !r.Has(k) {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	for _, k := range rest {
		r.Set(k, m[k])
	}
	return r
}

// Get returns the value stored under key and whether it was present.
func (r Record) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Value returns the value stored under key, or "" when absent.
func (r Record) Value(key string) string {
	return r.values[key]
}

// Has reports whether key is a column of r.
func (r Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Set stores value under key, appending key if it is new.
func (r *Record) Set(key, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Delete removes key from r.
func (r *Record) Delete(key string) {
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i:i], r.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the column names in order.
func (r Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of columns.
func (r Record) Len() int {
	return len(r.keys)
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := Record{
		keys:   make([]string, len(r.keys)),
		values: make(map[string]string, len(r.values)),
	}
	copy(out.keys, r.keys)
	for k, v := range r.values {
		out.values[k] = v
	}
	return out
}

// Merge returns a copy of r with every field of other applied on top.
func (r Record) Merge(other Record) Record {
	out := r.Clone()
	for _, k := range other.keys {
		out.Set(k, other.values[k])
	}
	return out
}

// Map returns the record as an unordered map.
func (r Record) Map() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Values returns the values in column order.
func (r Record) Values() []string {
	out := make([]string, len(r.keys))
	for i, k := range r.keys {
		out[i] = r.values[k]
	}
	return out
}

// IsBlank reports whether every value is empty after trimming.
func (r Record) IsBlank() bool {
	for _, v := range r.values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Contains reports whether any value contains needle, ignoring case.
// needle must already be lower-cased.
func (r Record) Contains(needle string) bool {
	for _, v := range r.values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

// MarshalJSON encodes the record as a JSON object with keys in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat JSON object, keeping key order. Numbers and
// booleans are kept in their literal form, null becomes "", and nested values
// are stored as their raw JSON text.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record must be a JSON object")
	}

	out := Record{values: make(map[string]string)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected key token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		value, err := scalarString(raw)
		if err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		out.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}

func scalarString(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		err := json.Unmarshal(trimmed, &s)
		return s, err
	case 'n':
		return "", nil
	case 't', 'f':
		b, err := strconv.ParseBool(string(trimmed))
		return strconv.FormatBool(b), err
	default:
		return string(trimmed), nil
	}
}

// CloneAll returns a deep copy of every record in recs.
func CloneAll(recs []Record) []Record {
	out := make([]Record, len(recs))
	for i, r := range recs {
		out[i] = r.Clone()
	}
	return out
}
