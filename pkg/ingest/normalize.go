package ingest

import (
	"strconv"
	"strings"

	"github.com/agentstation/tally/pkg/constants"
	"github.com/agentstation/tally/pkg/store"
)

// NormalizeCell renders a cell in its stored form: dates as ISO dates,
// numbers in their shortest decimal form, and everything else as trimmed
// text with the field delimiter replaced.
func NormalizeCell(c Cell) string {
	switch c.Kind {
	case CellDate:
		if !c.Time.IsZero() {
			return c.Time.UTC().Format(constants.TimeFormatDate)
		}
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	}
	return store.Sanitize(strings.TrimSpace(c.Text))
}

// MapHeader trims h and applies mapping. An empty result drops the column.
func MapHeader(h string, mapping map[string]string) string {
	h = strings.TrimSpace(h)
	if h == "" {
		return ""
	}
	if m, ok := mapping[h]; ok && strings.TrimSpace(m) != "" {
		return strings.TrimSpace(m)
	}
	return h
}
