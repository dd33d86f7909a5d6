package placement

import (
	"slices"

	"github.com/jonathan/cranium/internal/types"
)

// Built-in container names
const (
	Available = "available"
	Chosen    = "chosen"
)

// Snapshot is an immutable view of container contents. A Store hands out
// the same *Snapshot until its placement changes.
type Snapshot struct {
	names      []string
	containers map[string][]string
}

// Names returns container names in declaration order.
func (s *Snapshot) Names() []string {
	return slices.Clone(s.names)
}

// IDs returns the ordered ids held by container. An empty container gives
// an empty, non-nil slice.
func (s *Snapshot) IDs(container string) []string {
	return append([]string{}, s.containers[container]...)
}

// Containers returns a copy of every container's ids.
func (s *Snapshot) Containers() map[string][]string {
	out := make(map[string][]string, len(s.containers))
	for name, ids := range s.containers {
		out[name] = append([]string{}, ids...)
	}
	return out
}

// MoveResult describes the outcome of a Move
type MoveResult struct {
	ItemID    string
	From      string
	To        string
	FromIndex int
	NewIndex  int
	Changed   bool
	Snapshot  *Snapshot
}

// HistorySignificant reports whether the move crossed between available and chosen.
func (r MoveResult) HistorySignificant() bool {
	return r.Changed && IsHistorySignificant(r.From, r.To)
}

// IsHistorySignificant reports whether a move between the two containers is
// recorded in history.
func IsHistorySignificant(from, to string) bool {
	return (from == Available && to == Chosen) || (from == Chosen && to == Available)
}

// Store holds canonical item payloads and their placement. It keeps an
// itemID -> container reverse index in step with every mutation.
type Store struct {
	names      []string
	containers map[string][]string
	index      map[string]string
	items      map[string]types.Item
	snap       *Snapshot
}

// NewStore creates a store with the given containers, or the built-in
// "available" and "chosen" containers when none are named.
func NewStore(names ...string) *Store {
	if len(names) == 0 {
		names = []string{Available, Chosen}
	}
	s := &Store{
		names:      slices.Clone(names),
		containers: make(map[string][]string, len(names)),
		index:      make(map[string]string),
		items:      make(map[string]types.Item),
	}
	for _, n := range names {
		s.containers[n] = nil
	}
	return s
}

// Seed appends items to the "available" container (or the first container).
func (s *Store) Seed(items []types.Item) error {
	target := Available
	if _, ok := s.containers[target]; !ok {
		target = s.names[0]
	}
	for _, it := range items {
		if err := s.Insert(it, target, len(s.containers[target])); err != nil {
			return err
		}
	}
	return nil
}

// HasContainer reports whether name is a container of this store.
func (s *Store) HasContainer(name string) bool {
	_, ok := s.containers[name]
	return ok
}

// FindContainer resolves which container holds id. A container name
// resolves to itself so drops onto an empty container can be targeted.
func (s *Store) FindContainer(id string) (string, bool) {
	if _, ok := s.containers[id]; ok {
		return id, true
	}
	c, ok := s.index[id]
	return c, ok
}

// Has reports whether id is an item in this store.
func (s *Store) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Position returns the container and index of an item.
func (s *Store) Position(id string) (string, int, bool) {
	c, ok := s.index[id]
	if !ok {
		return "", -1, false
	}
	return c, slices.Index(s.containers[c], id), true
}

// ResolveTarget computes the drop position for a hover/drop over overID:
// over a container means its end, over an item means that item's index.
func (s *Store) ResolveTarget(overID string) (string, int, bool) {
	if ids, ok := s.containers[overID]; ok {
		return overID, len(ids), true
	}
	return s.Position(overID)
}

// Item returns the canonical item for id.
func (s *Store) Item(id string) (types.Item, bool) {
	it, ok := s.items[id]
	return it, ok
}

// Items returns the canonical items of a container in order.
func (s *Store) Items(container string) []types.Item {
	ids := s.containers[container]
	out := make([]types.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.items[id])
	}
	return out
}

// Snapshot returns the current immutable view.
func (s *Store) Snapshot() *Snapshot {
	if s.snap == nil {
		containers := make(map[string][]string, len(s.containers))
		for name, ids := range s.containers {
			containers[name] = slices.Clone(ids)
		}
		s.snap = &Snapshot{names: slices.Clone(s.names), containers: containers}
	}
	return s.snap
}

// UpdatePayload replaces the canonical payload of an item.
func (s *Store) UpdatePayload(id string, payload types.Payload) error {
	it, ok := s.items[id]
	if !ok {
		return &NotFoundError{Kind: "item", ID: id}
	}
	it.Payload = payload
	it.Kind = payload.Kind()
	s.items[id] = it
	return nil
}

// Insert places a new item into container at index (clamped).
func (s *Store) Insert(it types.Item, container string, index int) error {
	ids, ok := s.containers[container]
	if !ok {
		return &NotFoundError{Kind: "container", ID: container}
	}
	if c, exists := s.index[it.ID]; exists {
		return &DuplicateError{ID: it.ID, Container: c}
	}
	if _, clash := s.containers[it.ID]; clash {
		return &DuplicateError{ID: it.ID, Container: it.ID}
	}

	s.items[it.ID] = it
	s.index[it.ID] = container
	s.setContainer(container, slices.Insert(slices.Clone(ids), clamp(index, len(ids)), it.ID))
	s.snap = nil
	return nil
}

// Remove takes an item out of the store entirely, returning it and its former position.
func (s *Store) Remove(id string) (types.Item, int, error) {
	c, ok := s.index[id]
	if !ok {
		return types.Item{}, -1, &NotFoundError{Kind: "item", ID: id}
	}
	it := s.items[id]
	ids := s.containers[c]
	pos := slices.Index(ids, id)

	delete(s.index, id)
	delete(s.items, id)
	s.setContainer(c, slices.Delete(slices.Clone(ids), pos, pos+1))
	s.snap = nil
	return it, pos, nil
}

// Move relocates id into container "to" at index (clamped to [0, len]).
// A move that leaves placement unchanged returns the existing snapshot and
// Changed=false.
func (s *Store) Move(id, to string, index int) (MoveResult, error) {
	from, fromIdx, ok := s.Position(id)
	if !ok {
		return MoveResult{}, &NotFoundError{Kind: "item", ID: id}
	}
	dest, ok := s.containers[to]
	if !ok {
		return MoveResult{}, &NotFoundError{Kind: "container", ID: to}
	}

	res := MoveResult{ItemID: id, From: from, To: to, FromIndex: fromIdx}

	source := slices.Delete(slices.Clone(s.containers[from]), fromIdx, fromIdx+1)
	if from == to {
		dest = source
	}
	next := slices.Insert(slices.Clone(dest), clamp(index, len(dest)), id)
	if to == Chosen {
		next = orderChronologically(next, s.items)
	}

	if from == to && slices.Equal(next, s.containers[to]) {
		res.NewIndex = fromIdx
		res.Snapshot = s.Snapshot()
		return res, nil
	}

	if from != to {
		s.setContainer(from, source)
	}
	s.containers[to] = next
	s.index[id] = to
	s.snap = nil

	res.Changed = true
	res.NewIndex = slices.Index(next, id)
	res.Snapshot = s.Snapshot()
	return res, nil
}

// Reorder applies a full restored ordering to the store. Unknown ids are
// skipped; items not mentioned keep their current container.
func (s *Store) Reorder(containers map[string][]string) {
	for _, name := range s.names {
		ids, ok := containers[name]
		if !ok {
			continue
		}
		for _, id := range ids {
			if !s.Has(id) {
				continue
			}
			_, _ = s.Move(id, name, len(s.containers[name]))
		}
	}
}

// setContainer stores ids for container, applying the chronological rule to "chosen".
func (s *Store) setContainer(container string, ids []string) {
	if container == Chosen {
		ids = orderChronologically(ids, s.items)
	}
	s.containers[container] = ids
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
