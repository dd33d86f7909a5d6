package workspace

import (
	"maps"

	"github.com/jonathan/cranium/internal/persistence"
	"github.com/jonathan/cranium/internal/types"
)

// SetEdit merges a field patch into the pending edit for id. Nothing is
// scheduled until the edit is saved.
func (w *Workspace) SetEdit(id string, patch map[string]any) (types.Item, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	it, ok := w.lookup(id)
	if !ok {
		return types.Item{}, &ReferenceError{Op: "edit", ID: id}
	}
	if err := w.overlay.SetEdit(it, patch); err != nil {
		return types.Item{}, err
	}
	return w.overlay.Resolve(it), nil
}

// SaveEdit commits the pending edit for id. Personal fields are written
// back to the canonical payload; other kinds stay in the overlay. The item
// is scheduled for advisory evaluation unless it is a protected field.
func (w *Workspace) SaveEdit(id string) (types.Item, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	it, ok := w.lookup(id)
	if !ok {
		return types.Item{}, &ReferenceError{Op: "save edit", ID: id}
	}
	if !w.overlay.Has(id) {
		return w.overlay.Resolve(it), nil
	}

	patch := w.overlay.Patch(id)
	merged, writeBack := w.overlay.Commit(it)
	if writeBack {
		w.writeBack(id, merged.Payload)
		saved := w.committed[id]
		if saved == nil {
			saved = make(map[string]any, len(patch))
		}
		maps.Copy(saved, patch)
		w.committed[id] = saved
	}

	w.enqueue(merged)
	w.persist(persistence.PurposeChoice)
	return merged, nil
}

// DiscardEdit drops the pending edit for id.
func (w *Workspace) DiscardEdit(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.lookup(id); !ok {
		return &ReferenceError{Op: "discard edit", ID: id}
	}
	w.overlay.Discard(id)
	return nil
}
