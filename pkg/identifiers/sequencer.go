package identifiers

import (
	"github.com/agentstation/tally/pkg/records"
)

// Sequencer hands out identifiers for one batch. Every identifier shares the
// batch timestamp; sequence numbers strictly increase. An identifier that is
// already taken is skipped, so two batches stamped with the same millisecond
// cannot hand out the same value to a dataset.
type Sequencer struct {
	desc      records.Descriptor
	timestamp int64
	next      int
	taken     map[string]struct{}
	skipped   int
}

// NewSequencer starts a sequence at start for desc. taken may be nil; the
// sequencer keeps its own copy.
func NewSequencer(desc records.Descriptor, timestamp int64, start int, taken map[string]struct{}) *Sequencer {
	own := make(map[string]struct{}, len(taken))
	for k := range taken {
		own[k] = struct{}{}
	}
	if start < 1 {
		start = 1
	}
	return &Sequencer{desc: desc, timestamp: timestamp, next: start, taken: own}
}

// Next returns the next free identifier.
func (s *Sequencer) Next() string {
	for {
		id := Generate(s.desc, s.timestamp, s.next)
		s.next++
		if _, ok := s.taken[id]; ok {
			s.skipped++
			continue
		}
		s.taken[id] = struct{}{}
		return id
	}
}

// At returns the identifier for sequence n, or the next free one above it
// when n is taken. Later calls never return a smaller sequence.
func (s *Sequencer) At(n int) string {
	if n > s.next {
		s.next = n
	}
	return s.Next()
}

// Skipped returns how many taken identifiers were passed over.
func (s *Sequencer) Skipped() int {
	return s.skipped
}

// Timestamp returns the batch timestamp.
func (s *Sequencer) Timestamp() int64 {
	return s.timestamp
}
