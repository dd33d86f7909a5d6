package workspace

import (
	"math/rand"
	"testing"

	"github.com/jonathan/cranium/internal/placement"
	"github.com/jonathan/cranium/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrag_OverThenEndRecordsOnce(t *testing.T) {
	w := newTestWorkspace(t, nil, nil)

	require.NoError(t, w.DragStart("exp-1"))
	id, ok := w.Dragging()
	require.True(t, ok)
	assert.Equal(t, "exp-1", id)

	require.NoError(t, w.DragOver("exp-1", placement.Chosen))
	assert.Equal(t, []string{"exp-1"}, w.Snapshot().IDs(placement.Chosen))
	assert.Empty(t, w.History(), "hover placement is speculative")

	// Repeated hover over the same target is ignored.
	require.NoError(t, w.DragOver("exp-1", placement.Chosen))

	res, err := w.DragEnd("exp-1", placement.Chosen)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, res.Recorded)
	assert.Equal(t, placement.Available, res.From)
	assert.Equal(t, placement.Chosen, res.To)

	entries := w.History()
	require.Len(t, entries, 1)
	assert.Equal(t, types.ActionMove, entries[0].Action)
	assert.Equal(t, types.KindExperience, entries[0].ItemKind)

	_, ok = w.Dragging()
	assert.False(t, ok)
}

func TestDrag_EndWithoutTargetRestoresOrigin(t *testing.T) {
	for _, target := range []string{"", "nowhere"} {
		t.Run("target="+target, func(t *testing.T) {
			advisor := &fakeAdvisor{response: suggestion}
			w := newTestWorkspace(t, advisor, nil)
			before := w.Snapshot().Containers()

			require.NoError(t, w.DragStart("exp-1"))
			require.NoError(t, w.DragOver("exp-1", placement.Chosen))
			require.Equal(t, []string{"exp-1"}, w.Snapshot().IDs(placement.Chosen))

			res, err := w.DragEnd("exp-1", target)
			require.NoError(t, err)
			assert.False(t, res.Changed)
			assert.Equal(t, before, w.Snapshot().Containers(), "hover placement is undone")
			assert.Empty(t, w.History())
			assert.False(t, w.Processing("exp-1"))
			_, ok := w.Dragging()
			assert.False(t, ok)

			w.Wait()
			assert.Empty(t, advisor.calls())
		})
	}
}

func TestDrag_Cancel(t *testing.T) {
	w := newTestWorkspace(t, nil, nil)
	before := w.Snapshot().Containers()

	require.NoError(t, w.DragStart("exp-2"))
	require.NoError(t, w.DragOver("exp-2", placement.Chosen))
	require.NoError(t, w.DragOver("exp-2", "personal-name"))
	w.DragCancel()

	assert.Equal(t, before, w.Snapshot().Containers())
	assert.Empty(t, w.History())
	_, ok := w.Dragging()
	assert.False(t, ok)
}

func TestDrag_DropOntoItemTakesItsIndex(t *testing.T) {
	w := newTestWorkspace(t, nil, nil)

	require.NoError(t, w.DragStart("skill-go"))
	res, err := w.DragEnd("skill-go", "personal-email")
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.False(t, res.Recorded, "reorder within available is not recorded")
	assert.Equal(t, 1, res.NewIndex)
	assert.Equal(t, "skill-go", w.Snapshot().IDs(placement.Available)[1])
	assert.Empty(t, w.History())
}

func TestDrag_InvalidReferences(t *testing.T) {
	w := newTestWorkspace(t, nil, nil)

	var ref *ReferenceError
	assert.ErrorAs(t, w.DragStart("ghost"), &ref)
	_, ok := w.Dragging()
	assert.False(t, ok)

	assert.ErrorIs(t, w.DragOver("exp-1", placement.Chosen), ErrNotDragging)
	_, err := w.DragEnd("exp-1", placement.Chosen)
	assert.ErrorIs(t, err, ErrNotDragging)

	require.NoError(t, w.DragStart("exp-1"))
	assert.ErrorIs(t, w.DragOver("exp-2", placement.Chosen), ErrNotDragging)
	require.NoError(t, w.DragOver("exp-1", "nowhere"))

	res, err := w.DragEnd("exp-1", "nowhere")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Empty(t, w.Snapshot().IDs(placement.Chosen))
}

func TestDrag_IntoAndOutOfSections(t *testing.T) {
	w := newTestWorkspace(t, nil, nil)
	sec := w.AddSection("Extras")
	custom, err := w.AddSectionItem(sec.ID)
	require.NoError(t, err)

	require.NoError(t, w.DragStart("skill-go"))
	res, err := w.DragEnd("skill-go", custom.ID)
	require.NoError(t, err)
	assert.Equal(t, sec.ID, res.To)
	assert.Equal(t, 0, res.NewIndex)
	assert.False(t, res.Recorded)

	require.NoError(t, w.DragStart(custom.ID))
	res, err = w.DragEnd(custom.ID, placement.Chosen)
	require.NoError(t, err)
	assert.Equal(t, placement.Chosen, res.To)
	assert.Equal(t, []string{custom.ID}, w.Snapshot().IDs(placement.Chosen))

	moved, ok := w.Item(custom.ID)
	require.True(t, ok)
	assert.Empty(t, moved.Payload.(*types.CustomPayload).SectionID)

	require.Len(t, w.Sections(), 1)
	require.Len(t, w.Sections()[0].Items, 1)
	assert.Equal(t, "skill-go", w.Sections()[0].Items[0].ID)
	assertUnique(t, w)
}

func TestDrag_RandomSequencesKeepIdsUnique(t *testing.T) {
	w := newTestWorkspace(t, nil, nil)
	secA := w.AddSection("A")
	secB := w.AddSection("B")
	for _, sid := range []string{secA.ID, secA.ID, secB.ID} {
		_, err := w.AddSectionItem(sid)
		require.NoError(t, err)
	}

	ids := []string{"personal-name", "personal-email", "personal-summary", "exp-1", "exp-2", "exp-3", "skill-go"}
	for _, sec := range w.Sections() {
		for _, it := range sec.Items {
			ids = append(ids, it.ID)
		}
	}
	targets := append([]string{placement.Available, placement.Chosen, secA.ID, secB.ID}, ids...)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 300; i++ {
		id := ids[rng.Intn(len(ids))]
		over := targets[rng.Intn(len(targets))]
		switch rng.Intn(3) {
		case 0:
			require.NoError(t, w.DragStart(id))
			_ = w.DragOver(id, targets[rng.Intn(len(targets))])
			_, err := w.DragEnd(id, over)
			require.NoError(t, err)
		case 1:
			require.NoError(t, w.DragStart(id))
			_ = w.DragOver(id, over)
			w.DragCancel()
		default:
			_, err := w.MoveItem(id, targets[rng.Intn(4)], rng.Intn(6))
			require.NoError(t, err)
		}
		assertUnique(t, w)
	}

	total := 0
	snap := w.Snapshot()
	for _, name := range snap.Names() {
		total += len(snap.IDs(name))
	}
	for _, sec := range w.Sections() {
		total += len(sec.Items)
	}
	assert.Equal(t, len(ids), total)
}
