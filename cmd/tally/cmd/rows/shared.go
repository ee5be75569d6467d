// Package rows provides the record commands: rows, insert, regenerate and
// compare.
package rows

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/agentstation/tally/cmd/application"
	"github.com/agentstation/tally/internal/cmd/output"
	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/records"
)

// render writes data in the application's output format.
func render(w io.Writer, app application.Application, data any, layout output.Layout) error {
	return output.Print(w, output.DetectFormat(app.OutputFormat()), data, layout)
}

// parseRecord builds a record from a JSON object, then applies key=value
// pairs in order. Either may be empty.
func parseRecord(raw string, pairs []string) (records.Record, error) {
	var rec records.Record
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return records.Record{}, errors.NewValidationError("json", raw, "must be a flat JSON object: "+err.Error())
		}
	}
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return records.Record{}, errors.NewValidationError("set", p, "must be KEY=VALUE")
		}
		rec.Set(key, value)
	}
	return rec, nil
}
