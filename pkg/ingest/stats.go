package ingest

import (
	"fmt"
	"strings"
)

// DuplicateDetail describes one skipped row.
type DuplicateDetail struct {
	RowIndex   int    `json:"row_index" yaml:"row_index"`
	Similarity int    `json:"similarity" yaml:"similarity"`
	MatchedID  string `json:"matched_id" yaml:"matched_id"`
}

// Stats summarizes one batch.
type Stats struct {
	Dataset           string            `json:"dataset" yaml:"dataset"`
	TotalRecords      int               `json:"total_records" yaml:"total_records"`
	NewRecords        int               `json:"new_records" yaml:"new_records"`
	DuplicatesSkipped int               `json:"duplicates_skipped" yaml:"duplicates_skipped"`
	SheetsProcessed   int               `json:"sheets_processed" yaml:"sheets_processed"`
	IDsGenerated      int               `json:"ids_generated" yaml:"ids_generated"`
	DuplicateDetails  []DuplicateDetail `json:"duplicate_details" yaml:"duplicate_details"`
	Threshold         float64           `json:"threshold" yaml:"threshold"`
	IDField           string            `json:"id_field" yaml:"id_field"`
	ExistingRecords   int               `json:"existing_records" yaml:"existing_records"`
	DryRun            bool              `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
}

// Summary returns a one-line description of the batch.
func (s *Stats) Summary() string {
	msg := fmt.Sprintf("File processed: %d new records added, %d duplicates skipped", s.NewRecords, s.DuplicatesSkipped)
	var notes []string
	if s.DryRun {
		notes = append(notes, "(dry run)")
	}
	if s.SheetsProcessed != 1 {
		notes = append(notes, fmt.Sprintf("(%d sheets)", s.SheetsProcessed))
	}
	if len(notes) > 0 {
		msg += " " + strings.Join(notes, " ")
	}
	return msg
}
