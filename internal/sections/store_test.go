package sections

import (
	"strings"
	"testing"

	"github.com/jonathan/cranium/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sectionIDOf(t *testing.T, it types.Item) string {
	t.Helper()
	p, ok := it.Payload.(*types.CustomPayload)
	require.True(t, ok, "expected custom payload, got %T", it.Payload)
	return p.SectionID
}

func TestStore_AddSectionAndItem(t *testing.T) {
	s := NewStore()
	sec := s.AddSection("  Volunteering ")
	assert.True(t, strings.HasPrefix(sec.ID, "section-"))
	assert.Equal(t, "Volunteering", sec.Title)

	it, err := s.AddItem(sec.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(it.ID, "custom-"))
	assert.Equal(t, types.KindCustom, it.Kind)
	assert.Equal(t, sec.ID, sectionIDOf(t, it))
	assert.Empty(t, it.Text())

	got, ok := s.FindSection(it.ID)
	assert.True(t, ok)
	assert.Equal(t, sec.ID, got)

	got, ok = s.FindSection(sec.ID)
	assert.True(t, ok, "section ids resolve to themselves")
	assert.Equal(t, sec.ID, got)

	_, err = s.AddItem("section-missing")
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestStore_IDsAreUnique(t *testing.T) {
	s := NewStore()
	sec := s.AddSection("A")
	seen := map[string]bool{sec.ID: true}
	for i := 0; i < 50; i++ {
		it, err := s.AddItem(sec.ID)
		require.NoError(t, err)
		require.False(t, seen[it.ID], "id %s reused", it.ID)
		seen[it.ID] = true
	}
}

func TestStore_EditItem(t *testing.T) {
	s := NewStore()
	sec := s.AddSection("Awards")
	it, err := s.AddItem(sec.ID)
	require.NoError(t, err)

	require.NoError(t, s.EditItem(sec.ID, it.ID, "Dean's list"))
	got, ok := s.Item(it.ID)
	require.True(t, ok)
	assert.Equal(t, "Dean's list", got.Text())
	assert.Empty(t, it.Text(), "earlier copies are not mutated")

	err = s.EditItem(sec.ID, "custom-ghost", "x")
	assert.Error(t, err)
}

func TestStore_TwoPhaseDeleteItem(t *testing.T) {
	s := NewStore()
	sec := s.AddSection("Awards")
	a, _ := s.AddItem(sec.ID)
	b, _ := s.AddItem(sec.ID)

	require.NoError(t, s.RequestDelete(PendingItem{SectionID: sec.ID, ItemID: a.ID}))
	assert.Equal(t, PendingItem{SectionID: sec.ID, ItemID: a.ID}, s.Pending())
	assert.True(t, s.HasItem(a.ID), "request alone mutates nothing")

	s.CancelDelete()
	assert.Nil(t, s.Pending())
	_, err := s.ConfirmDelete()
	assert.ErrorIs(t, err, ErrNoPendingDelete)
	assert.True(t, s.HasItem(a.ID))

	require.NoError(t, s.RequestDelete(PendingItem{SectionID: sec.ID, ItemID: a.ID}))
	del, err := s.ConfirmDelete()
	require.NoError(t, err)
	assert.False(t, del.SectionRemoved)
	assert.Equal(t, []string{a.ID}, del.ItemIDs)
	assert.False(t, s.HasItem(a.ID))
	assert.True(t, s.HasItem(b.ID))
	assert.Nil(t, s.Pending())
}

func TestStore_DeleteSectionCascades(t *testing.T) {
	s := NewStore()
	keep := s.AddSection("Keep")
	gone := s.AddSection("Gone")
	a, _ := s.AddItem(gone.ID)
	b, _ := s.AddItem(gone.ID)

	require.NoError(t, s.RequestDelete(PendingSection{SectionID: gone.ID}))
	del, err := s.ConfirmDelete()
	require.NoError(t, err)

	assert.True(t, del.SectionRemoved)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, del.ItemIDs)
	assert.False(t, s.HasItem(a.ID))
	assert.False(t, s.HasItem(b.ID))
	_, ok := s.FindSection(gone.ID)
	assert.False(t, ok)

	secs := s.Sections()
	require.Len(t, secs, 1)
	assert.Equal(t, keep.ID, secs[0].ID)
}

func TestStore_RequestDeleteRejectsUnknownTargets(t *testing.T) {
	s := NewStore()
	sec := s.AddSection("A")

	assert.Error(t, s.RequestDelete(PendingSection{SectionID: "section-none"}))
	assert.Error(t, s.RequestDelete(PendingItem{SectionID: sec.ID, ItemID: "custom-none"}))
	assert.Nil(t, s.Pending())
}

func TestStore_ConfirmDeleteAfterItemLeft(t *testing.T) {
	s := NewStore()
	a := s.AddSection("A")
	b := s.AddSection("B")
	it, _ := s.AddItem(a.ID)

	require.NoError(t, s.RequestDelete(PendingItem{SectionID: a.ID, ItemID: it.ID}))
	_, err := s.MoveItem(it.ID, b.ID, 0)
	require.NoError(t, err)

	_, err = s.ConfirmDelete()
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.True(t, s.HasItem(it.ID))
	assert.Nil(t, s.Pending())
}

func TestStore_MoveItemKeepsSectionIDInSync(t *testing.T) {
	s := NewStore()
	a := s.AddSection("A")
	b := s.AddSection("B")
	x, _ := s.AddItem(a.ID)
	y, _ := s.AddItem(a.ID)

	changed, err := s.MoveItem(y.ID, a.ID, 0)
	require.NoError(t, err)
	assert.True(t, changed)
	sec, _ := s.Section(a.ID)
	assert.Equal(t, []string{y.ID, x.ID}, ids(sec.Items))

	changed, err = s.MoveItem(y.ID, a.ID, 0)
	require.NoError(t, err)
	assert.False(t, changed, "same position is a no-op")

	_, err = s.MoveItem(x.ID, b.ID, 10)
	require.NoError(t, err)
	moved, _ := s.Item(x.ID)
	assert.Equal(t, b.ID, sectionIDOf(t, moved))
	owner, _ := s.FindSection(x.ID)
	assert.Equal(t, b.ID, owner)
}

func TestStore_InsertAndRemove(t *testing.T) {
	s := NewStore()
	sec := s.AddSection("A")
	it, _ := s.AddItem(sec.ID)

	out, err := s.Remove(it.ID)
	require.NoError(t, err)
	assert.Empty(t, sectionIDOf(t, out), "items leaving sections drop their section id")
	assert.False(t, s.HasItem(it.ID))

	require.NoError(t, s.Insert(sec.ID, out, -1))
	back, _ := s.Item(it.ID)
	assert.Equal(t, sec.ID, sectionIDOf(t, back))
	assert.Error(t, s.Insert(sec.ID, out, 0), "duplicate insert")

	skill := types.NewItem("skill-go", &types.SkillPayload{Name: "Go"})
	require.NoError(t, s.Insert(sec.ID, skill, 0))
	got, ok := s.Item("skill-go")
	require.True(t, ok)
	assert.Equal(t, types.KindSkill, got.Kind)

	_, err = s.Remove("nope")
	assert.Error(t, err)
}

func TestStore_ResolveTarget(t *testing.T) {
	s := NewStore()
	sec := s.AddSection("A")
	first, _ := s.AddItem(sec.ID)
	_, _ = s.AddItem(sec.ID)

	id, idx, ok := s.ResolveTarget(sec.ID)
	assert.True(t, ok)
	assert.Equal(t, sec.ID, id)
	assert.Equal(t, 2, idx)

	_, idx, ok = s.ResolveTarget(first.ID)
	assert.True(t, ok)
	assert.Equal(t, 0, idx)

	_, _, ok = s.ResolveTarget("missing")
	assert.False(t, ok)
}

func TestStore_Restore(t *testing.T) {
	s := NewStore()
	s.AddSection("old")

	s.Restore([]types.CustomSection{{
		ID:    "section-1",
		Title: "Talks",
		Items: []types.Item{
			types.NewItem("custom-1", &types.CustomPayload{Body: "GopherCon", SectionID: "stale"}),
			types.NewItem("custom-1", &types.CustomPayload{Body: "dup"}),
		},
	}})

	secs := s.Sections()
	require.Len(t, secs, 1)
	assert.Equal(t, "Talks", secs[0].Title)
	require.Len(t, secs[0].Items, 1)
	assert.Equal(t, "section-1", sectionIDOf(t, secs[0].Items[0]))
}

func ids(items []types.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
