package workspace

import (
	"github.com/jonathan/cranium/internal/persistence"
	"github.com/jonathan/cranium/internal/placement"
	"github.com/jonathan/cranium/internal/types"
)

// location is a built-in container or a custom section.
type location struct {
	container string
	section   string
}

func (l location) name() string {
	if l.section != "" {
		return l.section
	}
	return l.container
}

func (l location) inSection() bool {
	return l.section != ""
}

type dragState struct {
	itemID      string
	origin      location
	originIndex int
	lastOver    string
}

// DropResult describes an authoritative placement.
type DropResult struct {
	ItemID   string `json:"item_id"`
	From     string `json:"from"`
	To       string `json:"to"`
	NewIndex int    `json:"new_index"`
	Changed  bool   `json:"changed"`
	// Recorded is true when the placement appended a history entry.
	Recorded bool `json:"recorded"`
}

// DragStart begins dragging id. Unknown ids leave the workspace idle.
func (w *Workspace) DragStart(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	loc, idx, ok := w.locate(id)
	if !ok {
		w.drag = nil
		w.logger.Printf("Drag start ignored: unknown item %s", id)
		return &ReferenceError{Op: "drag start", ID: id}
	}
	w.drag = &dragState{itemID: id, origin: loc, originIndex: idx}
	return nil
}

// Dragging returns the id being dragged, if any.
func (w *Workspace) Dragging() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.drag == nil {
		return "", false
	}
	return w.drag.itemID, true
}

// DragOver speculatively places the dragged item at overID so the layout
// follows the pointer. It records no history and triggers no evaluation.
func (w *Workspace) DragOver(id, overID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkDragging("drag over", id); err != nil {
		return err
	}
	if overID == "" || overID == id || overID == w.drag.lastOver {
		return nil
	}

	from, _, _ := w.locate(id)
	to, index, ok := w.resolveTarget(overID)
	if !ok {
		return nil
	}
	if _, _, err := w.place(id, from, to, index); err != nil {
		w.logger.Printf("Drag over %s failed for %s: %v", overID, id, err)
		return err
	}
	w.drag.lastOver = overID
	return nil
}

// DragEnd performs the authoritative placement of the dragged item. A drop
// onto the target of the last DragOver keeps that placement. Ending with
// no valid target undoes any hover placement, like DragCancel.
func (w *Workspace) DragEnd(id, overID string) (DropResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkDragging("drag end", id); err != nil {
		return DropResult{}, err
	}
	drag := *w.drag
	w.drag = nil

	if overID == "" {
		w.restore(drag)
		return DropResult{ItemID: id}, nil
	}
	to, index, ok := w.resolveTarget(overID)
	if !ok {
		w.logger.Printf("Drag end ignored: unknown drop target %s", overID)
		w.restore(drag)
		return DropResult{ItemID: id}, nil
	}

	if overID != drag.lastOver && overID != id {
		from, _, _ := w.locate(id)
		if _, _, err := w.place(id, from, to, index); err != nil {
			return DropResult{ItemID: id}, err
		}
	}
	return w.finish(id, drag.origin, drag.originIndex), nil
}

// DragCancel abandons the drag and returns the item to where it started.
func (w *Workspace) DragCancel() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.drag == nil {
		return
	}
	drag := *w.drag
	w.drag = nil
	w.restore(drag)
}

// restore puts the dragged item back where the drag started.
func (w *Workspace) restore(drag dragState) {
	current, _, ok := w.locate(drag.itemID)
	if !ok {
		return
	}
	if _, _, err := w.place(drag.itemID, current, drag.origin, drag.originIndex); err != nil {
		w.logger.Printf("Drag could not restore %s: %v", drag.itemID, err)
	}
}

// MoveItem places id into a container or section at index outside of a
// drag gesture. Moving an item onto its current position is a no-op.
func (w *Workspace) MoveItem(id, to string, index int) (DropResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	from, fromIdx, ok := w.locate(id)
	if !ok {
		w.logger.Printf("Move ignored: unknown item %s", id)
		return DropResult{}, &ReferenceError{Op: "move", ID: id}
	}
	dest, ok := w.destination(to)
	if !ok {
		w.logger.Printf("Move ignored: unknown destination %s", to)
		return DropResult{}, &ReferenceError{Op: "move", ID: to}
	}
	if _, _, err := w.place(id, from, dest, index); err != nil {
		return DropResult{}, err
	}
	return w.finish(id, from, fromIdx), nil
}

func (w *Workspace) checkDragging(op, id string) error {
	if w.drag == nil || w.drag.itemID != id {
		w.logger.Printf("%s ignored: %s is not being dragged", op, id)
		return ErrNotDragging
	}
	if _, _, ok := w.locate(id); !ok {
		w.drag = nil
		return &ReferenceError{Op: op, ID: id}
	}
	return nil
}

// finish judges the completed placement against where the item started,
// appending history, scheduling advice and persisting as needed.
func (w *Workspace) finish(id string, origin location, originIndex int) DropResult {
	current, idx, _ := w.locate(id)
	res := DropResult{
		ItemID:   id,
		From:     origin.name(),
		To:       current.name(),
		NewIndex: idx,
		Changed:  current != origin || idx != originIndex,
	}
	if !res.Changed {
		return res
	}

	it, _ := w.lookup(id)
	if !origin.inSection() && !current.inSection() && placement.IsHistorySignificant(origin.container, current.container) {
		w.history.Append(types.HistoryEntry{
			Action:        types.ActionMove,
			ItemID:        id,
			ItemKind:      it.Kind,
			FromContainer: origin.container,
			ToContainer:   current.container,
			NewIndex:      idx,
		})
		res.Recorded = true
		w.enqueue(it)
		w.persist(persistence.PurposeChoice, persistence.PurposeHistory)
		return res
	}
	w.persist(persistence.PurposeChoice)
	return res
}

// locate finds the container or section holding id and its index.
func (w *Workspace) locate(id string) (location, int, bool) {
	if sid, ok := w.sections.FindSection(id); ok && sid != id {
		_, idx, _ := w.sections.ResolveTarget(id)
		return location{section: sid}, idx, true
	}
	if c, idx, ok := w.items.Position(id); ok {
		return location{container: c}, idx, true
	}
	return location{}, -1, false
}

// resolveTarget maps a hovered id to a drop location. Custom sections
// resolve first.
func (w *Workspace) resolveTarget(overID string) (location, int, bool) {
	if sid, idx, ok := w.sections.ResolveTarget(overID); ok {
		return location{section: sid}, idx, true
	}
	if c, idx, ok := w.items.ResolveTarget(overID); ok {
		return location{container: c}, idx, true
	}
	return location{}, -1, false
}

// destination resolves a container name or section id.
func (w *Workspace) destination(name string) (location, bool) {
	if w.items.HasContainer(name) {
		return location{container: name}, true
	}
	if sid, ok := w.sections.FindSection(name); ok && sid == name {
		return location{section: sid}, true
	}
	return location{}, false
}

// place moves id between locations. Moves with both ends in sections stay
// inside the section store; moves across stores are a remove from the
// source store followed by an insert into the destination store.
func (w *Workspace) place(id string, from, to location, index int) (bool, int, error) {
	switch {
	case from.inSection() && to.inSection():
		changed, err := w.sections.MoveItem(id, to.section, index)
		if err != nil {
			return false, -1, err
		}
		_, idx, _ := w.sections.ResolveTarget(id)
		return changed, idx, nil

	case !from.inSection() && !to.inSection():
		res, err := w.items.Move(id, to.container, index)
		if err != nil {
			return false, -1, err
		}
		return res.Changed, res.NewIndex, nil

	case from.inSection():
		_, fromIdx, _ := w.sections.ResolveTarget(id)
		it, err := w.sections.Remove(id)
		if err != nil {
			return false, -1, err
		}
		if err := w.items.Insert(it, to.container, index); err != nil {
			_ = w.sections.Insert(from.section, it, fromIdx)
			return false, -1, err
		}
		_, idx, _ := w.items.Position(id)
		return true, idx, nil

	default:
		it, fromIdx, err := w.items.Remove(id)
		if err != nil {
			return false, -1, err
		}
		if err := w.sections.Insert(to.section, it, index); err != nil {
			_ = w.items.Insert(it, from.container, fromIdx)
			return false, -1, err
		}
		_, idx, _ := w.sections.ResolveTarget(id)
		return true, idx, nil
	}
}
