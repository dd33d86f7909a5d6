package workspace

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/cranium/internal/advisory"
	"github.com/jonathan/cranium/internal/persistence"
	"github.com/jonathan/cranium/internal/placement"
	"github.com/jonathan/cranium/internal/sections"
	"github.com/jonathan/cranium/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWindow = 30 * time.Millisecond

var quiet = log.New(io.Discard, "", 0)

// fakeAdvisor answers every request with a fixed response and records what it saw.
type fakeAdvisor struct {
	mu       sync.Mutex
	response string
	requests []types.AdviceRequest
}

func (f *fakeAdvisor) Advise(_ context.Context, req types.AdviceRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.response, nil
}

func (f *fakeAdvisor) calls() []types.AdviceRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.AdviceRequest(nil), f.requests...)
}

const suggestion = `{"action":"modify","item":"Acme","reason":"quantify the impact"}`

func testProfile() *types.ProfileSnapshot {
	return &types.ProfileSnapshot{
		Personal: types.Personal{
			Name:    "Ada Lovelace",
			Email:   "ada@example.com",
			Summary: "Engineer",
		},
		Experience: []types.ExperienceEntry{
			{ID: "exp-1", ExperiencePayload: types.ExperiencePayload{Organization: "Acme", JobTitle: "Engineer", StartDate: "2018-01", EndDate: "2020-01"}},
			{ID: "exp-2", ExperiencePayload: types.ExperiencePayload{Organization: "Globex", JobTitle: "Lead", StartDate: "2020-02", EndDate: "present"}},
			{ID: "exp-3", ExperiencePayload: types.ExperiencePayload{Organization: "Initech", JobTitle: "Intern", StartDate: "2019-01", EndDate: "2019-06"}},
		},
		Skills: []types.SkillEntry{
			{ID: "skill-go", SkillPayload: types.SkillPayload{Name: "Go"}},
		},
	}
}

func newTestWorkspace(t *testing.T, advisor advisory.Advisor, bridge *persistence.Bridge) *Workspace {
	t.Helper()
	opts := Options{
		TargetRole:     "Staff Engineer",
		DebounceWindow: testWindow,
		MaxAttempts:    2,
		Advisor:        advisor,
		Bridge:         bridge,
		Logger:         quiet,
	}
	w := New(opts)
	require.NoError(t, w.Import(testProfile()))
	t.Cleanup(w.Close)
	return w
}

// assertUnique checks that every id lives in exactly one container or section.
func assertUnique(t *testing.T, w *Workspace) {
	t.Helper()
	seen := map[string]string{}
	snap := w.Snapshot()
	for _, name := range snap.Names() {
		for _, id := range snap.IDs(name) {
			prev, dup := seen[id]
			assert.False(t, dup, "%s in %s and %s", id, prev, name)
			seen[id] = name
		}
	}
	for _, sec := range w.Sections() {
		for _, it := range sec.Items {
			prev, dup := seen[it.ID]
			assert.False(t, dup, "%s in %s and %s", it.ID, prev, sec.ID)
			seen[it.ID] = sec.ID
		}
	}
}

func TestImport_SeedsAvailable(t *testing.T) {
	w := newTestWorkspace(t, nil, nil)

	snap := w.Snapshot()
	assert.Equal(t, []string{
		"personal-name", "personal-email", "personal-summary",
		"exp-1", "exp-2", "exp-3", "skill-go",
	}, snap.IDs(placement.Available))
	assert.Empty(t, snap.IDs(placement.Chosen))

	err := w.Import(testProfile())
	assert.ErrorIs(t, err, ErrAlreadyImported)
}

func TestImport_RejectsInvalidProfile(t *testing.T) {
	w := New(Options{Logger: quiet})
	err := w.Import(&types.ProfileSnapshot{})
	assert.Error(t, err)
}

func TestExport_RoundTripWithoutEdits(t *testing.T) {
	w := newTestWorkspace(t, nil, nil)

	got, err := w.ExportContainer(placement.Available)
	require.NoError(t, err)

	want := testProfile().Items()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Kind, got[i].Kind)
		assert.Equal(t, want[i].Payload, got[i].Payload)
	}

	_, err = w.ExportContainer("nowhere")
	var ref *ReferenceError
	assert.ErrorAs(t, err, &ref)
}

func TestMoveItem_AvailableToChosenScenario(t *testing.T) {
	advisor := &fakeAdvisor{response: suggestion}
	w := newTestWorkspace(t, advisor, nil)

	res, err := w.MoveItem("exp-1", placement.Chosen, 0)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, res.Recorded)

	entries := w.History()
	require.Len(t, entries, 1)
	assert.Equal(t, types.ActionMove, entries[0].Action)
	assert.Equal(t, "exp-1", entries[0].ItemID)
	assert.Equal(t, placement.Available, entries[0].FromContainer)
	assert.Equal(t, placement.Chosen, entries[0].ToContainer)

	assert.True(t, w.Processing("exp-1"))

	w.Wait()
	assert.False(t, w.Processing("exp-1"))
	assert.Len(t, advisor.calls(), 1)

	alerts := w.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "exp-1", alerts[0].ID)
	assert.False(t, alerts[0].IsMinimized)
}

func TestMoveItem_SamePositionIsNoOp(t *testing.T) {
	w := newTestWorkspace(t, nil, nil)

	before := w.Snapshot()
	res, err := w.MoveItem("exp-2", placement.Available, 4)
	require.NoError(t, err)

	assert.False(t, res.Changed)
	assert.Same(t, before, w.Snapshot())
	assert.Empty(t, w.History())
}

func TestMoveItem_UnknownReferences(t *testing.T) {
	w := newTestWorkspace(t, nil, nil)

	var ref *ReferenceError
	_, err := w.MoveItem("ghost", placement.Chosen, 0)
	require.ErrorAs(t, err, &ref)
	assert.Equal(t, "ghost", ref.ID)

	_, err = w.MoveItem("exp-1", "nowhere", 0)
	require.ErrorAs(t, err, &ref)
	assert.Equal(t, "nowhere", ref.ID)
}

func TestChosen_OrdersExperienceByRecency(t *testing.T) {
	w := newTestWorkspace(t, nil, nil)

	for _, id := range []string{"exp-1", "exp-2", "exp-3"} {
		_, err := w.MoveItem(id, placement.Chosen, 0)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"exp-2", "exp-1", "exp-3"}, w.Snapshot().IDs(placement.Chosen))

	// A skill dropped at the front keeps its slot; experiences stay sorted around it.
	_, err := w.MoveItem("skill-go", placement.Chosen, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"exp-2", "skill-go", "exp-1", "exp-3"}, w.Snapshot().IDs(placement.Chosen))
}

func TestDebounce_OnlyLastItemEvaluated(t *testing.T) {
	advisor := &fakeAdvisor{response: suggestion}
	w := newTestWorkspace(t, advisor, nil)

	for _, id := range []string{"exp-1", "exp-2", "exp-3"} {
		_, err := w.MoveItem(id, placement.Chosen, 0)
		require.NoError(t, err)
	}
	w.Wait()

	calls := advisor.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "exp-3", calls[0].Focus.ItemID)
	assert.Empty(t, w.ProcessingIDs())
}

func TestAdviceRequest_Context(t *testing.T) {
	w := newTestWorkspace(t, nil, nil)

	_, err := w.MoveItem("exp-1", placement.Chosen, 0)
	require.NoError(t, err)
	_, err = w.SetEdit("exp-1", map[string]any{"job_title": "Senior Engineer"})
	require.NoError(t, err)

	req, err := w.AdviceRequest("exp-1")
	require.NoError(t, err)

	assert.Equal(t, "Staff Engineer", req.TargetRole)
	assert.Equal(t, "exp-1", req.Focus.ItemID)
	require.Len(t, req.ChosenItems, 1)
	assert.Equal(t, "Senior Engineer", req.ChosenItems[0].Payload.(*types.ExperiencePayload).JobTitle)
	require.Len(t, req.LastActions, 1)
	assert.Contains(t, req.AvailableItemContext, "exp-2")
	assert.NotContains(t, req.AvailableItemContext, "exp-1")

	_, err = w.AdviceRequest("ghost")
	assert.Error(t, err)
}

func TestEdits_OverlayUntilSaved(t *testing.T) {
	advisor := &fakeAdvisor{response: suggestion}
	w := newTestWorkspace(t, advisor, nil)

	resolved, err := w.SetEdit("exp-1", map[string]any{"organization": "Acme Corp"})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", resolved.Payload.(*types.ExperiencePayload).Organization)
	assert.False(t, w.Processing("exp-1"))

	_, err = w.SaveEdit("exp-1")
	require.NoError(t, err)
	assert.True(t, w.Processing("exp-1"))
	w.Wait()
	assert.Len(t, advisor.calls(), 1)

	require.NoError(t, w.DiscardEdit("exp-1"))
	it, ok := w.Item("exp-1")
	require.True(t, ok)
	assert.Equal(t, "Acme", it.Payload.(*types.ExperiencePayload).Organization)

	_, err = w.SetEdit("exp-1", map[string]any{"bogus": 1})
	assert.Error(t, err)
	_, err = w.SetEdit("ghost", map[string]any{"organization": "x"})
	var ref *ReferenceError
	assert.ErrorAs(t, err, &ref)
}

func TestEdits_PersonalWriteBack(t *testing.T) {
	w := newTestWorkspace(t, nil, nil)

	_, err := w.SetEdit("personal-summary", map[string]any{"value": "Staff engineer"})
	require.NoError(t, err)
	saved, err := w.SaveEdit("personal-summary")
	require.NoError(t, err)
	assert.Equal(t, "Staff engineer", saved.Payload.(*types.PersonalPayload).Value)

	// Discarding after a write-back leaves the committed value.
	require.NoError(t, w.DiscardEdit("personal-summary"))
	it, _ := w.Item("personal-summary")
	assert.Equal(t, "Staff engineer", it.Payload.(*types.PersonalPayload).Value)
	assert.Equal(t, map[string]any{"value": "Staff engineer"}, w.State().Edits["personal-summary"])
}

func TestProtectedFields_NeverScheduled(t *testing.T) {
	advisor := &fakeAdvisor{response: suggestion}
	w := newTestWorkspace(t, advisor, nil)

	_, err := w.MoveItem("personal-email", placement.Chosen, 0)
	require.NoError(t, err)
	_, err = w.SetEdit("personal-name", map[string]any{"value": "Ada King"})
	require.NoError(t, err)
	_, err = w.SaveEdit("personal-name")
	require.NoError(t, err)

	assert.Len(t, w.History(), 1)
	assert.Empty(t, w.ProcessingIDs())
	w.Wait()
	assert.Empty(t, advisor.calls())
}

func TestCoaching_AppendsChat(t *testing.T) {
	advisor := &fakeAdvisor{response: `{"message":"Lead with impact","suggestion":"Add a metric","reasoning":"Recruiters skim"}`}
	w := newTestWorkspace(t, advisor, nil)

	events, unsubscribe := w.Subscribe()
	defer unsubscribe()

	_, err := w.MoveItem("exp-2", placement.Chosen, 0)
	require.NoError(t, err)
	w.Wait()

	chat := w.ChatTranscript()
	require.Len(t, chat, 1)
	assert.Equal(t, "exp-2", chat[0].ItemID)
	assert.Equal(t, "Add a metric", chat[0].Suggestion)

	select {
	case ev := <-events:
		assert.Equal(t, EventAlert, ev.Type)
		assert.Equal(t, "exp-2", ev.Alert.ID)
	case <-time.After(time.Second):
		t.Fatal("no alert event")
	}
}

func TestInvalidAdvice_Discarded(t *testing.T) {
	advisor := &fakeAdvisor{response: `{"unexpected":true}`}
	w := newTestWorkspace(t, advisor, nil)

	_, err := w.MoveItem("exp-1", placement.Chosen, 0)
	require.NoError(t, err)
	w.Wait()

	assert.Len(t, advisor.calls(), 2)
	assert.Empty(t, w.Alerts())
	assert.False(t, w.Processing("exp-1"))
}

func TestAlerts_SingleExpanded(t *testing.T) {
	advisor := &fakeAdvisor{response: suggestion}
	w := newTestWorkspace(t, advisor, nil)

	_, err := w.MoveItem("exp-1", placement.Chosen, 0)
	require.NoError(t, err)
	w.Wait()
	_, err = w.MoveItem("exp-2", placement.Chosen, 0)
	require.NoError(t, err)
	w.Wait()

	alerts := w.Alerts()
	require.Len(t, alerts, 2)
	assert.True(t, alerts[0].IsMinimized)
	assert.False(t, alerts[1].IsMinimized)

	toggled, err := w.ToggleAlert("exp-2")
	require.NoError(t, err)
	assert.True(t, toggled.IsMinimized)

	require.NoError(t, w.DismissAlert("exp-1"))
	assert.Error(t, w.DismissAlert("exp-1"))
	_, err = w.ToggleAlert("ghost")
	assert.Error(t, err)
}

func TestSections_DeleteCascadesAndInvalidatesReferences(t *testing.T) {
	w := newTestWorkspace(t, nil, nil)

	sec := w.AddSection("Volunteering")
	first, err := w.AddSectionItem(sec.ID)
	require.NoError(t, err)
	require.NoError(t, w.EditSectionItem(sec.ID, first.ID, "Food bank"))
	_, err = w.MoveItem("skill-go", sec.ID, 0)
	require.NoError(t, err)
	assertUnique(t, w)

	require.NoError(t, w.RequestDeleteSection(sec.ID))
	assert.Equal(t, sections.PendingSection{SectionID: sec.ID}, w.PendingDelete())

	deleted, err := w.ConfirmDelete()
	require.NoError(t, err)
	assert.True(t, deleted.SectionRemoved)
	assert.ElementsMatch(t, []string{first.ID, "skill-go"}, deleted.ItemIDs)
	assert.Nil(t, w.PendingDelete())

	var ref *ReferenceError
	_, err = w.MoveItem(first.ID, placement.Chosen, 0)
	assert.ErrorAs(t, err, &ref)
	_, err = w.SetEdit("skill-go", map[string]any{"name": "Golang"})
	assert.ErrorAs(t, err, &ref)
	assert.ErrorAs(t, w.DragStart(first.ID), &ref)

	removes := 0
	for _, e := range w.History() {
		if e.Action == types.ActionRemove {
			removes++
		}
	}
	assert.Equal(t, 2, removes)
	assertUnique(t, w)
}

func TestSections_CancelAndUnknown(t *testing.T) {
	w := newTestWorkspace(t, nil, nil)
	sec := w.AddSection("Awards")
	it, err := w.AddSectionItem(sec.ID)
	require.NoError(t, err)

	require.NoError(t, w.RequestDeleteItem(sec.ID, it.ID))
	w.CancelDelete()
	_, err = w.ConfirmDelete()
	assert.ErrorIs(t, err, sections.ErrNoPendingDelete)
	assert.Len(t, w.Sections()[0].Items, 1)

	var ref *ReferenceError
	_, err = w.AddSectionItem("missing")
	assert.ErrorAs(t, err, &ref)
	assert.ErrorAs(t, w.RequestDeleteSection("missing"), &ref)
}

func TestExport_ResolvesEditsAndSections(t *testing.T) {
	w := newTestWorkspace(t, nil, nil)

	_, err := w.MoveItem("exp-1", placement.Chosen, 0)
	require.NoError(t, err)
	_, err = w.SetEdit("exp-1", map[string]any{"job_title": "Principal"})
	require.NoError(t, err)
	sec := w.AddSection("Talks")
	it, err := w.AddSectionItem(sec.ID)
	require.NoError(t, err)
	require.NoError(t, w.EditSectionItem(sec.ID, it.ID, "GopherCon 2024"))

	doc := w.Export()
	require.Len(t, doc.Items, 1)
	assert.Equal(t, types.KindExperience, doc.Items[0].Kind)
	assert.Equal(t, "Principal", doc.Items[0].Payload.(*types.ExperiencePayload).JobTitle)
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "Talks", doc.Sections[0].Title)
	assert.Equal(t, "GopherCon 2024", doc.Sections[0].Items[0].Payload.Text)
}

func TestRestore_FromBridge(t *testing.T) {
	ctx := context.Background()
	cache := persistence.NewMemoryCache(0)
	advisor := &fakeAdvisor{response: suggestion}

	first := newTestWorkspace(t, advisor, persistence.NewBridge(cache, "u", "s", 0, quiet))
	_, err := first.MoveItem("exp-1", placement.Chosen, 0)
	require.NoError(t, err)
	sec := first.AddSection("Extras")
	_, err = first.MoveItem("skill-go", sec.ID, 0)
	require.NoError(t, err)
	_, err = first.SetEdit("exp-1", map[string]any{"job_title": "Architect"})
	require.NoError(t, err)
	_, err = first.SetEdit("personal-summary", map[string]any{"value": "Builder"})
	require.NoError(t, err)
	_, err = first.SaveEdit("personal-summary")
	require.NoError(t, err)
	first.Wait()

	second := newTestWorkspace(t, nil, persistence.NewBridge(cache, "u", "s", 0, quiet))
	require.NoError(t, second.Restore(ctx))

	assert.Equal(t, first.Snapshot().Containers(), second.Snapshot().Containers())
	require.Len(t, second.Sections(), 1)
	assert.Equal(t, "skill-go", second.Sections()[0].Items[0].ID)
	assert.Equal(t, first.History(), second.History())
	assert.Equal(t, first.Alerts(), second.Alerts())

	it, _ := second.Item("exp-1")
	assert.Equal(t, "Architect", it.Payload.(*types.ExperiencePayload).JobTitle)
	summary, _ := second.Item("personal-summary")
	assert.Equal(t, "Builder", summary.Payload.(*types.PersonalPayload).Value)
	assertUnique(t, second)
}

func TestRestore_WithoutBridge(t *testing.T) {
	w := newTestWorkspace(t, nil, nil)
	assert.ErrorIs(t, w.Restore(context.Background()), ErrNoBridge)
}

func TestRestore_DismissedAlertsStayDismissed(t *testing.T) {
	ctx := context.Background()
	cache := persistence.NewMemoryCache(0)
	advisor := &fakeAdvisor{response: suggestion}

	first := newTestWorkspace(t, advisor, persistence.NewBridge(cache, "u", "s", 0, quiet))
	_, err := first.MoveItem("exp-1", placement.Chosen, 0)
	require.NoError(t, err)
	first.Wait()
	require.Len(t, first.Alerts(), 1)

	require.NoError(t, first.DismissAlert("exp-1"))
	first.Wait()

	second := newTestWorkspace(t, nil, persistence.NewBridge(cache, "u", "s", 0, quiet))
	require.NoError(t, second.Restore(ctx))
	assert.Empty(t, second.Alerts())
	assert.Equal(t, []string{"exp-1"}, second.Snapshot().IDs(placement.Chosen))
}
