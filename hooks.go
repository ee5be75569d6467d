package tally

import (
	"sync"

	"github.com/agentstation/tally/pkg/ingest"
	"github.com/agentstation/tally/pkg/records"
)

// Hook function types for record events
type (
	// RecordAddedHook is called after a record is inserted
	RecordAddedHook func(dataset string, record records.Record)

	// RecordUpdatedHook is called after a record is updated
	RecordUpdatedHook func(dataset string, old, new records.Record)

	// RecordRemovedHook is called after a record is deleted
	RecordRemovedHook func(dataset string, record records.Record)

	// ImportedHook is called after a bulk import is persisted
	ImportedHook func(stats ingest.Stats)
)

// Hooks registers callbacks for dataset changes.
type Hooks interface {
	OnRecordAdded(RecordAddedHook)
	OnRecordUpdated(RecordUpdatedHook)
	OnRecordRemoved(RecordRemovedHook)
	OnImported(ImportedHook)
}

// hooks manages event callbacks for dataset changes
type hooks struct {
	mu              sync.RWMutex
	onRecordAdded   []RecordAddedHook
	onRecordUpdated []RecordUpdatedHook
	onRecordRemoved []RecordRemovedHook
	onImported      []ImportedHook
}

func newHooks() *hooks {
	return &hooks{}
}

func (h *hooks) OnRecordAdded(fn RecordAddedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRecordAdded = append(h.onRecordAdded, fn)
}

func (h *hooks) OnRecordUpdated(fn RecordUpdatedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRecordUpdated = append(h.onRecordUpdated, fn)
}

func (h *hooks) OnRecordRemoved(fn RecordRemovedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRecordRemoved = append(h.onRecordRemoved, fn)
}

func (h *hooks) OnImported(fn ImportedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onImported = append(h.onImported, fn)
}

func (h *hooks) added(dataset string, rec records.Record) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onRecordAdded {
		fn(dataset, rec.Clone())
	}
}

func (h *hooks) updated(dataset string, old, new records.Record) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onRecordUpdated {
		fn(dataset, old.Clone(), new.Clone())
	}
}

func (h *hooks) removed(dataset string, rec records.Record) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onRecordRemoved {
		fn(dataset, rec.Clone())
	}
}

func (h *hooks) imported(stats ingest.Stats) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onImported {
		fn(stats)
	}
}
