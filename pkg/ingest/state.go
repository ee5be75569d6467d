package ingest

// State is a stage of the ingestion pipeline.
type State int

// Pipeline states, in the order a batch moves through them.
const (
	StateParsedRows State = iota
	StateNormalized
	StateClassified
	StateIdentifierAssigned
	StateMerged
	StatePersisted
)

var stateNames = [...]string{
	StateParsedRows:         "parsed_rows",
	StateNormalized:         "normalized",
	StateClassified:         "classified",
	StateIdentifierAssigned: "identifier_assigned",
	StateMerged:             "merged",
	StatePersisted:          "persisted",
}

// String returns the state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Observer is told when a batch enters each state. stats reflects the counts
// known at that point.
type Observer func(state State, stats Stats)
