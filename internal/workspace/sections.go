package workspace

import (
	"errors"

	"github.com/jonathan/cranium/internal/persistence"
	"github.com/jonathan/cranium/internal/sections"
	"github.com/jonathan/cranium/internal/types"
)

// AddSection creates an empty custom section.
func (w *Workspace) AddSection(title string) types.CustomSection {
	w.mu.Lock()
	defer w.mu.Unlock()

	sec := w.sections.AddSection(title)
	w.persist(persistence.PurposeChoice)
	return sec
}

// AddSectionItem appends an empty text item to a section.
func (w *Workspace) AddSectionItem(sectionID string) (types.Item, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	it, err := w.sections.AddItem(sectionID)
	if err != nil {
		return types.Item{}, w.sectionError("add section item", err)
	}
	w.history.Append(types.HistoryEntry{
		Action:      types.ActionAdd,
		ItemID:      it.ID,
		ItemKind:    it.Kind,
		ToContainer: sectionID,
	})
	w.persist(persistence.PurposeChoice, persistence.PurposeHistory)
	return it, nil
}

// EditSectionItem replaces the text of a custom item.
func (w *Workspace) EditSectionItem(sectionID, itemID, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.sections.EditItem(sectionID, itemID, text); err != nil {
		return w.sectionError("edit section item", err)
	}
	w.persist(persistence.PurposeChoice)
	return nil
}

// RequestDeleteItem asks for confirmation before deleting a section item.
func (w *Workspace) RequestDeleteItem(sectionID, itemID string) error {
	return w.requestDelete(sections.PendingItem{SectionID: sectionID, ItemID: itemID})
}

// RequestDeleteSection asks for confirmation before deleting a section and its items.
func (w *Workspace) RequestDeleteSection(sectionID string) error {
	return w.requestDelete(sections.PendingSection{SectionID: sectionID})
}

func (w *Workspace) requestDelete(target sections.PendingDelete) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.sections.RequestDelete(target); err != nil {
		return w.sectionError("request delete", err)
	}
	return nil
}

// PendingDelete returns the deletion awaiting confirmation, or nil.
func (w *Workspace) PendingDelete() sections.PendingDelete {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sections.Pending()
}

// CancelDelete clears the pending deletion.
func (w *Workspace) CancelDelete() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sections.CancelDelete()
}

// ConfirmDelete performs the pending deletion. Every removed item leaves
// the overlay, the alerts and the advisory pipeline, and gets a "remove"
// history entry.
func (w *Workspace) ConfirmDelete() (sections.Deleted, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	deleted, err := w.sections.ConfirmDelete()
	if err != nil {
		if errors.Is(err, sections.ErrNoPendingDelete) {
			return sections.Deleted{}, err
		}
		return sections.Deleted{}, w.sectionError("confirm delete", err)
	}

	for _, id := range deleted.ItemIDs {
		w.overlay.Discard(id)
		w.alerts.Remove(id)
		delete(w.committed, id)
		delete(w.profile, id)
		if w.scheduler != nil {
			w.scheduler.Cancel(id)
		}
		w.history.Append(types.HistoryEntry{
			Action:        types.ActionRemove,
			ItemID:        id,
			FromContainer: deleted.SectionID,
		})
	}
	if w.drag != nil {
		if _, _, ok := w.locate(w.drag.itemID); !ok {
			w.drag = nil
		}
	}

	w.persist(persistence.PurposeChoice, persistence.PurposeHistory, persistence.PurposeFeedback)
	return deleted, nil
}

func (w *Workspace) sectionError(op string, err error) error {
	var nf *sections.NotFoundError
	if errors.As(err, &nf) {
		w.logger.Printf("%s ignored: %v", op, err)
		return &ReferenceError{Op: op, ID: nf.ID}
	}
	return err
}
