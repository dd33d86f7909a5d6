package sections

// PendingDelete is the deletion awaiting confirmation. A nil PendingDelete
// means nothing is pending; otherwise it is a PendingItem or PendingSection.
type PendingDelete interface {
	pendingDelete()
}

// PendingItem targets one item inside a section
type PendingItem struct {
	SectionID string `json:"section_id"`
	ItemID    string `json:"item_id"`
}

// PendingSection targets a whole section and, by cascade, its items
type PendingSection struct {
	SectionID string `json:"section_id"`
}

func (PendingItem) pendingDelete()    {}
func (PendingSection) pendingDelete() {}

// Deleted describes what ConfirmDelete removed
type Deleted struct {
	SectionID string
	// SectionRemoved is true when the whole section went away.
	SectionRemoved bool
	ItemIDs        []string
}
