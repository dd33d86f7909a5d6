package sections

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/cranium/internal/types"
)

type section struct {
	id    string
	title string
	items []types.Item
}

// Store holds custom sections in creation order with an itemID -> sectionID index.
type Store struct {
	order    []string
	sections map[string]*section
	index    map[string]string
	pending  PendingDelete
	newID    func(prefix string) string
}

// NewStore creates an empty section store.
func NewStore() *Store {
	return &Store{
		sections: make(map[string]*section),
		index:    make(map[string]string),
		newID: func(prefix string) string {
			return prefix + "-" + uuid.NewString()
		},
	}
}

// AddSection creates an empty section.
func (s *Store) AddSection(title string) types.CustomSection {
	sec := &section{id: s.newID("section"), title: strings.TrimSpace(title)}
	s.sections[sec.id] = sec
	s.order = append(s.order, sec.id)
	return sec.view()
}

// AddItem appends an empty text item to a section.
func (s *Store) AddItem(sectionID string) (types.Item, error) {
	sec, ok := s.sections[sectionID]
	if !ok {
		return types.Item{}, &NotFoundError{Kind: "section", ID: sectionID}
	}
	it := types.NewItem(s.newID("custom"), &types.CustomPayload{SectionID: sectionID})
	sec.items = append(sec.items, it)
	s.index[it.ID] = sectionID
	return it, nil
}

// EditItem replaces the text of a custom item.
func (s *Store) EditItem(sectionID, itemID, text string) error {
	sec, pos, err := s.locate(sectionID, itemID)
	if err != nil {
		return err
	}
	payload, ok := sec.items[pos].Payload.(*types.CustomPayload)
	if !ok {
		return fmt.Errorf("item %s is a %s item and has no free text", itemID, sec.items[pos].Kind)
	}
	edited := payload.Clone().(*types.CustomPayload)
	edited.Body = text
	sec.items[pos].Payload = edited
	return nil
}

// UpdatePayload replaces the payload of any section item.
func (s *Store) UpdatePayload(itemID string, payload types.Payload) error {
	sid, ok := s.index[itemID]
	if !ok {
		return &NotFoundError{Kind: "section item", ID: itemID}
	}
	sec := s.sections[sid]
	pos := sec.indexOf(itemID)
	sec.items[pos] = withSection(types.NewItem(itemID, payload), sid)
	return nil
}

// RequestDelete records a deletion awaiting confirmation, replacing any earlier request.
func (s *Store) RequestDelete(target PendingDelete) error {
	switch t := target.(type) {
	case PendingItem:
		if _, _, err := s.locate(t.SectionID, t.ItemID); err != nil {
			return err
		}
	case PendingSection:
		if _, ok := s.sections[t.SectionID]; !ok {
			return &NotFoundError{Kind: "section", ID: t.SectionID}
		}
	case nil:
	default:
		return fmt.Errorf("unsupported delete target %T", target)
	}
	s.pending = target
	return nil
}

// Pending returns the deletion awaiting confirmation, or nil.
func (s *Store) Pending() PendingDelete {
	return s.pending
}

// CancelDelete clears the pending deletion without mutating anything.
func (s *Store) CancelDelete() {
	s.pending = nil
}

// ConfirmDelete performs the pending deletion. Section deletes cascade to
// every item of the section.
func (s *Store) ConfirmDelete() (Deleted, error) {
	target := s.pending
	s.pending = nil

	switch t := target.(type) {
	case PendingItem:
		sec, pos, err := s.locate(t.SectionID, t.ItemID)
		if err != nil {
			return Deleted{}, err
		}
		sec.items = slices.Delete(sec.items, pos, pos+1)
		delete(s.index, t.ItemID)
		return Deleted{SectionID: t.SectionID, ItemIDs: []string{t.ItemID}}, nil

	case PendingSection:
		sec, ok := s.sections[t.SectionID]
		if !ok {
			return Deleted{}, &NotFoundError{Kind: "section", ID: t.SectionID}
		}
		ids := make([]string, 0, len(sec.items))
		for _, it := range sec.items {
			ids = append(ids, it.ID)
			delete(s.index, it.ID)
		}
		delete(s.sections, t.SectionID)
		s.order = slices.DeleteFunc(s.order, func(id string) bool { return id == t.SectionID })
		return Deleted{SectionID: t.SectionID, SectionRemoved: true, ItemIDs: ids}, nil

	default:
		return Deleted{}, ErrNoPendingDelete
	}
}

// FindSection resolves the section holding id. A section id resolves to itself.
func (s *Store) FindSection(id string) (string, bool) {
	if _, ok := s.sections[id]; ok {
		return id, true
	}
	sid, ok := s.index[id]
	return sid, ok
}

// HasItem reports whether id is an item in some section.
func (s *Store) HasItem(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Item returns a section item by id.
func (s *Store) Item(id string) (types.Item, bool) {
	sid, ok := s.index[id]
	if !ok {
		return types.Item{}, false
	}
	sec := s.sections[sid]
	pos := sec.indexOf(id)
	return sec.items[pos], true
}

// ResolveTarget computes the drop position over a section (its end) or over
// a section item (that item's index).
func (s *Store) ResolveTarget(overID string) (string, int, bool) {
	if sec, ok := s.sections[overID]; ok {
		return sec.id, len(sec.items), true
	}
	sid, ok := s.index[overID]
	if !ok {
		return "", -1, false
	}
	return sid, s.sections[sid].indexOf(overID), true
}

// MoveItem reorders an item within or across sections. It reports whether
// anything changed.
func (s *Store) MoveItem(itemID, toSection string, index int) (bool, error) {
	fromID, ok := s.index[itemID]
	if !ok {
		return false, &NotFoundError{Kind: "section item", ID: itemID}
	}
	to, ok := s.sections[toSection]
	if !ok {
		return false, &NotFoundError{Kind: "section", ID: toSection}
	}
	from := s.sections[fromID]
	pos := from.indexOf(itemID)
	it := from.items[pos]

	if fromID == toSection {
		rest := slices.Delete(slices.Clone(from.items), pos, pos+1)
		target := clamp(index, len(rest))
		if target == pos {
			return false, nil
		}
		from.items = slices.Insert(rest, target, it)
		return true, nil
	}

	from.items = slices.Delete(from.items, pos, pos+1)
	to.items = slices.Insert(to.items, clamp(index, len(to.items)), withSection(it, toSection))
	s.index[itemID] = toSection
	return true, nil
}

// Insert places an item arriving from another store into a section.
func (s *Store) Insert(sectionID string, it types.Item, index int) error {
	sec, ok := s.sections[sectionID]
	if !ok {
		return &NotFoundError{Kind: "section", ID: sectionID}
	}
	if owner, exists := s.index[it.ID]; exists {
		return fmt.Errorf("item %s already in section %s", it.ID, owner)
	}
	sec.items = slices.Insert(sec.items, clamp(index, len(sec.items)), withSection(it, sectionID))
	s.index[it.ID] = sectionID
	return nil
}

// Remove takes an item out of its section so it can move to another store.
func (s *Store) Remove(itemID string) (types.Item, error) {
	sid, ok := s.index[itemID]
	if !ok {
		return types.Item{}, &NotFoundError{Kind: "section item", ID: itemID}
	}
	sec := s.sections[sid]
	pos := sec.indexOf(itemID)
	it := sec.items[pos]
	sec.items = slices.Delete(sec.items, pos, pos+1)
	delete(s.index, itemID)
	return withSection(it, ""), nil
}

// Sections returns every section in creation order.
func (s *Store) Sections() []types.CustomSection {
	out := make([]types.CustomSection, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.sections[id].view())
	}
	return out
}

// Section returns one section.
func (s *Store) Section(id string) (types.CustomSection, bool) {
	sec, ok := s.sections[id]
	if !ok {
		return types.CustomSection{}, false
	}
	return sec.view(), true
}

// Restore replaces every section with previously saved ones.
func (s *Store) Restore(saved []types.CustomSection) {
	s.order = nil
	s.sections = make(map[string]*section, len(saved))
	s.index = make(map[string]string)
	s.pending = nil
	for _, cs := range saved {
		sec := &section{id: cs.ID, title: cs.Title}
		for _, it := range cs.Items {
			if _, dup := s.index[it.ID]; dup {
				continue
			}
			sec.items = append(sec.items, withSection(it, cs.ID))
			s.index[it.ID] = cs.ID
		}
		s.sections[sec.id] = sec
		s.order = append(s.order, sec.id)
	}
}

func (s *Store) locate(sectionID, itemID string) (*section, int, error) {
	sec, ok := s.sections[sectionID]
	if !ok {
		return nil, -1, &NotFoundError{Kind: "section", ID: sectionID}
	}
	pos := sec.indexOf(itemID)
	if pos < 0 {
		return nil, -1, &NotFoundError{Kind: "section item", ID: itemID}
	}
	return sec, pos, nil
}

func (sec *section) indexOf(itemID string) int {
	return slices.IndexFunc(sec.items, func(it types.Item) bool { return it.ID == itemID })
}

func (sec *section) view() types.CustomSection {
	return types.CustomSection{ID: sec.id, Title: sec.title, Items: slices.Clone(sec.items)}
}

// withSection keeps a custom item's SectionID equal to its containing section.
func withSection(it types.Item, sectionID string) types.Item {
	if p, ok := it.Payload.(*types.CustomPayload); ok {
		c := p.Clone().(*types.CustomPayload)
		c.SectionID = sectionID
		it.Payload = c
	}
	return it
}

func clamp(index, length int) int {
	if index < 0 {
		return 0
	}
	if index > length {
		return length
	}
	return index
}
