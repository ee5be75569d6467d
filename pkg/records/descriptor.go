package records

import (
	"strconv"
	"strings"

	"github.com/agentstation/tally/pkg/constants"
	"github.com/agentstation/tally/pkg/errors"
)

// AggregateKind selects how a numeric column is summarized.
type AggregateKind string

// Aggregate kinds.
const (
	AggregateSum AggregateKind = "sum"
	AggregateAvg AggregateKind = "avg"
)

// Aggregate describes one numeric summary reported in dataset stats.
type Aggregate struct {
	Name   string        `json:"name" yaml:"name"`
	Column string        `json:"column" yaml:"column"`
	Kind   AggregateKind `json:"kind" yaml:"kind"`
}

// Descriptor is the configuration of one named dataset.
type Descriptor struct {
	Name              string      `json:"name" yaml:"name"`
	DisplayName       string      `json:"display_name" yaml:"display_name"`
	FileName          string      `json:"file_name" yaml:"file_name"`
	IDField           string      `json:"id_field" yaml:"id_field"`
	IDPrefix          string      `json:"id_prefix" yaml:"id_prefix"`
	IDFormat          string      `json:"id_format" yaml:"id_format"`
	Columns           []string    `json:"columns" yaml:"columns"`
	ComparisonColumns []string    `json:"comparison_columns" yaml:"comparison_columns"`
	Aggregates        []Aggregate `json:"aggregates,omitempty" yaml:"aggregates,omitempty"`
}

// Generic returns the fallback descriptor used for datasets that have no
// configuration of their own.
func Generic(name string) Descriptor {
	prefix := strings.ToUpper(name)
	if r := []rune(prefix); len(r) > 3 {
		prefix = string(r[:3])
	}
	return Descriptor{
		Name:        name,
		DisplayName: "Custom Database",
		FileName:    name + ".csv",
		IDField:     constants.DefaultIDField,
		IDPrefix:    prefix,
		IDFormat:    constants.DefaultIDFormat,
	}
}

// Format returns the identifier template, falling back to the default.
func (d Descriptor) Format() string {
	if d.IDFormat == "" {
		return constants.DefaultIDFormat
	}
	return d.IDFormat
}

// Render fills the identifier template.
func (d Descriptor) Render(timestamp int64, sequence int) string {
	return strings.NewReplacer(
		"{prefix}", d.IDPrefix,
		"{timestamp}", strconv.FormatInt(timestamp, 10),
		"{sequence}", strconv.Itoa(sequence),
	).Replace(d.Format())
}

// WithIdentity returns a copy of d with the identifier column and prefix
// replaced where the arguments are non-empty. When the prefix changes and the
// template hard-codes the old prefix, the template is reset to the default.
func (d Descriptor) WithIdentity(idField, idPrefix string) Descriptor {
	out := d.clone()
	if idField != "" {
		out.IDField = idField
	}
	if idPrefix != "" && idPrefix != d.IDPrefix {
		if d.IDPrefix != "" && strings.Contains(out.IDFormat, d.IDPrefix) {
			out.IDFormat = constants.DefaultIDFormat
		}
		out.IDPrefix = idPrefix
	}
	return out
}

// Validate checks that d can be used to identify records.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.NewValidationError("name", d.Name, "descriptor name is required")
	}
	if strings.TrimSpace(d.IDField) == "" {
		return errors.NewValidationError("id_field", d.IDField, "descriptor "+d.Name+" has no identifier column")
	}
	if !strings.Contains(d.Format(), "{sequence}") {
		return errors.NewValidationError("id_format", d.IDFormat, "identifier template must contain {sequence}")
	}
	if strings.Trim(d.Render(1, 1), "0123456789") == "" {
		return errors.NewValidationError("id_format", d.IDFormat, "identifier template must not render to a bare number")
	}
	for _, a := range d.Aggregates {
		if a.Kind != AggregateSum && a.Kind != AggregateAvg {
			return errors.NewValidationError("aggregates", a.Kind, "aggregate "+a.Name+" must be sum or avg")
		}
	}
	return nil
}

func (d Descriptor) clone() Descriptor {
	out := d
	out.Columns = append([]string(nil), d.Columns...)
	out.ComparisonColumns = append([]string(nil), d.ComparisonColumns...)
	out.Aggregates = append([]Aggregate(nil), d.Aggregates...)
	return out
}
