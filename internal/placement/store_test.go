package placement

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/jonathan/cranium/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exp(id, start, end string) types.Item {
	return types.NewItem(id, &types.ExperiencePayload{Organization: id, StartDate: start, EndDate: end})
}

func edu(id, start, end string) types.Item {
	return types.NewItem(id, &types.EducationPayload{Institution: id, StartDate: start, EndDate: end})
}

func skill(id string) types.Item {
	return types.NewItem(id, &types.SkillPayload{Name: id})
}

func newSeeded(t *testing.T, items ...types.Item) *Store {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.Seed(items))
	return s
}

func TestStore_FindContainer(t *testing.T) {
	s := newSeeded(t, skill("go"), skill("rust"))

	c, ok := s.FindContainer("go")
	assert.True(t, ok)
	assert.Equal(t, Available, c)

	c, ok = s.FindContainer(Chosen)
	assert.True(t, ok, "container names resolve to themselves")
	assert.Equal(t, Chosen, c)

	_, ok = s.FindContainer("missing")
	assert.False(t, ok)

	_, err := s.Move("go", Chosen, 0)
	require.NoError(t, err)
	c, _ = s.FindContainer("go")
	assert.Equal(t, Chosen, c, "reverse index follows moves")
}

func TestStore_Move_CrossContainer(t *testing.T) {
	s := newSeeded(t, skill("go"), skill("rust"), skill("sql"))

	res, err := s.Move("rust", Chosen, 5)
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.True(t, res.HistorySignificant())
	assert.Equal(t, Available, res.From)
	assert.Equal(t, Chosen, res.To)
	assert.Equal(t, 0, res.NewIndex, "index clamps to destination length")
	assert.Equal(t, []string{"go", "sql"}, res.Snapshot.IDs(Available))
	assert.Equal(t, []string{"rust"}, res.Snapshot.IDs(Chosen))
}

func TestStore_Move_NoOpIsIdempotent(t *testing.T) {
	s := newSeeded(t, skill("go"), skill("rust"))
	before := s.Snapshot()

	res, err := s.Move("rust", Available, 1)
	require.NoError(t, err)

	assert.False(t, res.Changed)
	assert.False(t, res.HistorySignificant())
	assert.Same(t, before, res.Snapshot, "no-op must return the same snapshot")
	assert.Same(t, before, s.Snapshot())
}

func TestStore_Move_ReorderWithinContainer(t *testing.T) {
	s := newSeeded(t, skill("a"), skill("b"), skill("c"))

	res, err := s.Move("a", Available, 2)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, res.HistorySignificant(), "moves within available are not recorded")
	assert.Equal(t, []string{"b", "c", "a"}, res.Snapshot.IDs(Available))

	res, err = s.Move("a", Available, -3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, res.Snapshot.IDs(Available))
}

func TestStore_Move_SnapshotsAreImmutable(t *testing.T) {
	s := newSeeded(t, skill("a"), skill("b"))
	first := s.Snapshot()

	_, err := s.Move("a", Chosen, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, first.IDs(Available), "earlier snapshot unchanged")
	assert.NotSame(t, first, s.Snapshot())
}

func TestSnapshot_EmptyContainersAreNonNil(t *testing.T) {
	s := newSeeded(t, skill("a"))
	fresh := s.Snapshot().Containers()

	_, err := s.Move("a", Chosen, 0)
	require.NoError(t, err)
	_, err = s.Move("a", Available, 0)
	require.NoError(t, err)

	assert.Equal(t, fresh, s.Snapshot().Containers(), "emptied and never-filled containers compare equal")
	assert.Equal(t, []string{}, s.Snapshot().IDs(Chosen))
	assert.Equal(t, []string{}, s.Snapshot().IDs("unknown"))
}

func TestStore_Move_UnknownReferences(t *testing.T) {
	s := newSeeded(t, skill("a"))

	_, err := s.Move("ghost", Chosen, 0)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "item", nf.Kind)

	_, err = s.Move("a", "trash", 0)
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "container", nf.Kind)
}

func TestStore_ChosenIsSortedChronologically(t *testing.T) {
	s := newSeeded(t,
		exp("exp-a", "2018-01", "2020-01"),
		exp("exp-b", "2021-03", "present"),
		exp("exp-c", "2017-01", "2019-06"),
	)

	for _, id := range []string{"exp-a", "exp-b", "exp-c"} {
		_, err := s.Move(id, Chosen, 0)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"exp-b", "exp-a", "exp-c"}, s.Snapshot().IDs(Chosen),
		"present first, then end date descending")
}

func TestStore_ChosenInterleavesExperienceThenEducation(t *testing.T) {
	s := newSeeded(t,
		skill("go"),
		edu("edu-old", "2009-09", "2013-05"),
		exp("exp-old", "2013-06", "2016-01"),
		skill("sql"),
		edu("edu-new", "2016-09", "2018-05"),
		exp("exp-new", "2018-06", "present"),
	)

	order := []string{"go", "edu-old", "exp-old", "sql", "edu-new", "exp-new"}
	for i, id := range order {
		_, err := s.Move(id, Chosen, i)
		require.NoError(t, err)
	}

	// skills keep their slots (0 and 3); the remaining slots are refilled
	// with sorted experience followed by sorted education.
	assert.Equal(t, []string{"go", "exp-new", "exp-old", "sql", "edu-new", "edu-old"}, s.Snapshot().IDs(Chosen))
}

func TestStore_ChosenSortTieBreaksOnStartDate(t *testing.T) {
	s := newSeeded(t,
		exp("p-old", "2015-01", "Present"),
		exp("p-new", "2020-01", "present"),
		exp("e-old", "2010-01", "2019-01"),
		exp("e-new", "2012-01", "2019-01"),
	)
	for _, id := range []string{"p-old", "p-new", "e-old", "e-new"} {
		_, err := s.Move(id, Chosen, 0)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"p-new", "p-old", "e-new", "e-old"}, s.Snapshot().IDs(Chosen))
}

func TestStore_ChosenReorderOfSortedKindIsNoOp(t *testing.T) {
	s := newSeeded(t, exp("new", "2020-01", "present"), exp("old", "2010-01", "2012-01"))
	for _, id := range []string{"new", "old"} {
		_, err := s.Move(id, Chosen, 0)
		require.NoError(t, err)
	}
	before := s.Snapshot()

	res, err := s.Move("old", Chosen, 0)
	require.NoError(t, err)
	assert.False(t, res.Changed, "sort rule restores the order, so nothing changed")
	assert.Same(t, before, res.Snapshot)
}

func TestStore_InsertRemove(t *testing.T) {
	s := newSeeded(t, skill("a"))

	require.NoError(t, s.Insert(skill("b"), Chosen, 0))
	var dup *DuplicateError
	require.ErrorAs(t, s.Insert(skill("b"), Available, 0), &dup)

	it, pos, err := s.Remove("b")
	require.NoError(t, err)
	assert.Equal(t, "b", it.ID)
	assert.Equal(t, 0, pos)
	assert.False(t, s.Has("b"))

	_, _, err = s.Remove("b")
	assert.Error(t, err)
}

func TestStore_UniquenessInvariantUnderRandomMoves(t *testing.T) {
	var items []types.Item
	for i := 0; i < 12; i++ {
		if i%3 == 0 {
			items = append(items, exp(fmt.Sprintf("exp-%d", i), fmt.Sprintf("20%02d-01", i), fmt.Sprintf("20%02d-01", i+2)))
			continue
		}
		items = append(items, skill(fmt.Sprintf("skill-%d", i)))
	}
	s := newSeeded(t, items...)

	rng := rand.New(rand.NewSource(7))
	containers := []string{Available, Chosen}
	for step := 0; step < 500; step++ {
		id := items[rng.Intn(len(items))].ID
		_, err := s.Move(id, containers[rng.Intn(2)], rng.Intn(15)-2)
		require.NoError(t, err)

		seen := map[string]int{}
		for _, c := range containers {
			for _, got := range s.Snapshot().IDs(c) {
				seen[got]++
				owner, _ := s.FindContainer(got)
				require.Equal(t, c, owner, "reverse index out of sync at step %d", step)
			}
		}
		require.Len(t, seen, len(items))
		for id, n := range seen {
			require.Equal(t, 1, n, "id %s placed %d times", id, n)
		}
	}
}

func TestStore_Reorder(t *testing.T) {
	s := newSeeded(t, skill("a"), skill("b"), skill("c"))
	s.Reorder(map[string][]string{
		Available: {"c"},
		Chosen:    {"b", "ghost", "a"},
	})
	snap := s.Snapshot()
	assert.Equal(t, []string{"c"}, snap.IDs(Available))
	assert.Equal(t, []string{"b", "a"}, snap.IDs(Chosen))
}
