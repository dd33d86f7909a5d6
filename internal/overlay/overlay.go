// Package overlay holds uncommitted per-item edits layered over canonical payloads.
package overlay

import (
	"maps"

	"github.com/jonathan/cranium/internal/types"
)

// Overlay maps item ids to partial payload patches. Resolved values always
// prefer the overlay over the canonical payload.
type Overlay struct {
	edits map[string]map[string]any
}

// New creates an empty overlay.
func New() *Overlay {
	return &Overlay{edits: make(map[string]map[string]any)}
}

// SetEdit merges patch into the pending edit for it. The merged patch must
// apply cleanly to the canonical payload or the overlay is left unchanged.
func (o *Overlay) SetEdit(it types.Item, patch map[string]any) error {
	merged := maps.Clone(o.edits[it.ID])
	if merged == nil {
		merged = make(map[string]any, len(patch))
	}
	maps.Copy(merged, patch)
	if _, err := types.ApplyPatch(it.Payload, merged); err != nil {
		return err
	}
	o.edits[it.ID] = merged
	return nil
}

// Has reports whether id has a pending edit.
func (o *Overlay) Has(id string) bool {
	_, ok := o.edits[id]
	return ok
}

// Patch returns a copy of the pending edit for id.
func (o *Overlay) Patch(id string) map[string]any {
	return maps.Clone(o.edits[id])
}

// Resolve returns the item with any pending edit applied.
func (o *Overlay) Resolve(it types.Item) types.Item {
	patch, ok := o.edits[it.ID]
	if !ok || it.Payload == nil {
		return it
	}
	merged, err := types.ApplyPatch(it.Payload, patch)
	if err != nil {
		return it
	}
	it.Payload = merged
	return it
}

// Commit returns the resolved item and reports whether it must be written
// back to the canonical store. Personal items are written back and their
// overlay entry cleared; other kinds keep the overlay as the source of truth.
func (o *Overlay) Commit(it types.Item) (types.Item, bool) {
	resolved := o.Resolve(it)
	if it.Kind != types.KindPersonal {
		return resolved, false
	}
	delete(o.edits, it.ID)
	return resolved, true
}

// Discard drops the pending edit for id.
func (o *Overlay) Discard(id string) {
	delete(o.edits, id)
}
