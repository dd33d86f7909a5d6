package workspace

import (
	"context"
	"errors"
	"fmt"
	"log"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/jonathan/cranium/internal/advisory"
	"github.com/jonathan/cranium/internal/alerts"
	"github.com/jonathan/cranium/internal/history"
	"github.com/jonathan/cranium/internal/overlay"
	"github.com/jonathan/cranium/internal/persistence"
	"github.com/jonathan/cranium/internal/placement"
	"github.com/jonathan/cranium/internal/sections"
	"github.com/jonathan/cranium/internal/types"
)

// DefaultHistoryWindow is how many recent history entries accompany an advisory request.
const DefaultHistoryWindow = 5

// Options configures a Workspace. Zero values use the package defaults.
type Options struct {
	TargetRole     string
	Advisor        advisory.Advisor
	DebounceWindow time.Duration
	MaxAttempts    int
	HistoryWindow  int
	Bridge         *persistence.Bridge
	Logger         *log.Logger
	Now            func() time.Time
}

// Event is pushed to subscribers when an advisory alert is presented.
type Event struct {
	Type  string      `json:"type"`
	Alert types.Alert `json:"alert"`
}

// EventAlert is the only event type published today.
const EventAlert = "alert"

// Workspace serializes every handler behind one mutex. The debounce timer
// and the advice call run in their own goroutines and re-enter through the
// same mutex to apply results against the then-current state.
type Workspace struct {
	mu sync.Mutex

	items     *placement.Store
	sections  *sections.Store
	overlay   *overlay.Overlay
	history   *history.Log
	alerts    *alerts.Manager
	scheduler *advisory.Scheduler
	evaluator *advisory.Evaluator
	bridge    *persistence.Bridge

	profile       map[string]bool
	committed     map[string]map[string]any
	chat          []types.ChatMessage
	drag          *dragState
	targetRole    string
	historyWindow int
	logger        *log.Logger
	now           func() time.Time

	subscribers map[int]chan Event
	nextSub     int
}

// New creates an empty workspace. Without an Advisor no advisory
// evaluation is ever scheduled.
func New(opts Options) *Workspace {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = DefaultHistoryWindow
	}

	w := &Workspace{
		items:         placement.NewStore(),
		sections:      sections.NewStore(),
		overlay:       overlay.New(),
		history:       history.New().WithClock(opts.Now),
		alerts:        alerts.NewManager(),
		bridge:        opts.Bridge,
		profile:       make(map[string]bool),
		committed:     make(map[string]map[string]any),
		targetRole:    opts.TargetRole,
		historyWindow: opts.HistoryWindow,
		logger:        opts.Logger,
		now:           opts.Now,
		subscribers:   make(map[int]chan Event),
	}
	if opts.Advisor != nil {
		w.evaluator = advisory.NewEvaluator(opts.Advisor, opts.MaxAttempts, opts.Logger)
		w.scheduler = advisory.NewScheduler(opts.DebounceWindow, w.evaluate, opts.Logger)
	}
	return w
}

// Import validates a profile snapshot and seeds every item into "available".
func (w *Workspace) Import(p *types.ProfileSnapshot) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	snap := w.items.Snapshot()
	for _, name := range snap.Names() {
		if len(snap.IDs(name)) > 0 {
			return ErrAlreadyImported
		}
	}

	items := p.Items()
	if err := w.items.Seed(items); err != nil {
		return err
	}
	for _, it := range items {
		w.profile[it.ID] = true
	}
	w.logger.Printf("Imported %d profile items", len(items))
	return nil
}

// TargetRole returns the role advice is tailored to.
func (w *Workspace) TargetRole() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.targetRole
}

// SetTargetRole changes the role used for subsequent advisory requests.
func (w *Workspace) SetTargetRole(role string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.targetRole = role
}

// Item returns the overlay-resolved item for id.
func (w *Workspace) Item(id string) (types.Item, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	it, ok := w.lookup(id)
	if !ok {
		return types.Item{}, false
	}
	return w.overlay.Resolve(it), true
}

// Snapshot returns the current built-in container placement.
func (w *Workspace) Snapshot() *placement.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.items.Snapshot()
}

// Sections returns every custom section.
func (w *Workspace) Sections() []types.CustomSection {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sections.Sections()
}

// History returns the full history log in event order.
func (w *Workspace) History() []types.HistoryEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.history.All()
}

// Processing reports whether id awaits an advisory result.
func (w *Workspace) Processing(id string) bool {
	if w.scheduler == nil {
		return false
	}
	return w.scheduler.Processing(id)
}

// ProcessingIDs returns every id awaiting an advisory result.
func (w *Workspace) ProcessingIDs() []string {
	if w.scheduler == nil {
		return []string{}
	}
	return w.scheduler.ProcessingIDs()
}

// ChatTranscript returns every coaching exchange in arrival order.
func (w *Workspace) ChatTranscript() []types.ChatMessage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.chat)
}

// State returns the persisted form of the current placement.
func (w *Workspace) State() types.PlacementState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stateLocked()
}

// Restore reloads placement, history, alerts and the chat transcript from
// the persistence bridge. Purposes with nothing stored are skipped.
func (w *Workspace) Restore(ctx context.Context) error {
	if w.bridge == nil {
		return ErrNoBridge
	}

	var state types.PlacementState
	var entries []types.HistoryEntry
	var saved []types.Alert
	var chat []types.ChatMessage

	loads := []struct {
		purpose persistence.Purpose
		into    any
	}{
		{persistence.PurposeChoice, &state},
		{persistence.PurposeHistory, &entries},
		{persistence.PurposeFeedback, &saved},
		{persistence.PurposeChat, &chat},
	}
	found := make([]bool, len(loads))
	for i, l := range loads {
		err := w.bridge.Load(ctx, l.purpose, l.into)
		switch {
		case err == nil:
			found[i] = true
		case errors.Is(err, persistence.ErrNotFound):
		default:
			return fmt.Errorf("failed to restore %s: %w", l.purpose, err)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if found[0] {
		w.applyState(state)
	}
	if found[1] {
		w.history.Replace(entries)
	}
	if found[2] {
		w.alerts.Replace(slices.DeleteFunc(saved, func(a types.Alert) bool {
			_, ok := w.lookup(a.ID)
			return !ok
		}))
	}
	if found[3] {
		w.chat = chat
	}
	return nil
}

// Subscribe returns a channel of alert events and a function to stop receiving.
// Slow subscribers miss events rather than block the engine.
func (w *Workspace) Subscribe() (<-chan Event, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextSub
	w.nextSub++
	ch := make(chan Event, 16)
	w.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			if sub, ok := w.subscribers[id]; ok {
				delete(w.subscribers, id)
				close(sub)
			}
		})
	}
}

// Wait blocks until pending advisory windows and persistence writes finish.
func (w *Workspace) Wait() {
	if w.scheduler != nil {
		w.scheduler.Wait()
	}
	if w.bridge != nil {
		w.bridge.Wait()
	}
}

// Close stops the advisory pipeline and closes every subscription.
func (w *Workspace) Close() {
	if w.scheduler != nil {
		w.scheduler.Close()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, ch := range w.subscribers {
		close(ch)
		delete(w.subscribers, id)
	}
}

// lookup returns the canonical item for id from either store.
func (w *Workspace) lookup(id string) (types.Item, bool) {
	if it, ok := w.items.Item(id); ok {
		return it, true
	}
	return w.sections.Item(id)
}

func (w *Workspace) stateLocked() types.PlacementState {
	edits := make(map[string]map[string]any, len(w.committed))
	for id, patch := range w.committed {
		edits[id] = maps.Clone(patch)
	}
	for _, id := range w.editedIDs() {
		edits[id] = w.overlay.Patch(id)
	}
	state := types.PlacementState{
		Containers: w.items.Snapshot().Containers(),
		Sections:   w.sections.Sections(),
	}
	if len(edits) > 0 {
		state.Edits = edits
	}
	return state
}

func (w *Workspace) editedIDs() []string {
	var ids []string
	snap := w.items.Snapshot()
	for _, name := range snap.Names() {
		for _, id := range snap.IDs(name) {
			if w.overlay.Has(id) {
				ids = append(ids, id)
			}
		}
	}
	for _, sec := range w.sections.Sections() {
		for _, it := range sec.Items {
			if w.overlay.Has(it.ID) {
				ids = append(ids, it.ID)
			}
		}
	}
	return ids
}

// applyState re-applies a saved placement. Section items that are profile
// items leave the built-in containers; unknown non-custom items are dropped.
func (w *Workspace) applyState(state types.PlacementState) {
	restored := make([]types.CustomSection, 0, len(state.Sections))
	for _, sec := range state.Sections {
		kept := sec
		kept.Items = nil
		for _, it := range sec.Items {
			if canonical, _, err := w.items.Remove(it.ID); err == nil {
				kept.Items = append(kept.Items, canonical)
				continue
			}
			if it.Kind == types.KindCustom && it.Payload != nil {
				kept.Items = append(kept.Items, it)
			}
		}
		restored = append(restored, kept)
	}
	w.sections.Restore(restored)
	w.items.Reorder(state.Containers)

	for id, patch := range state.Edits {
		it, ok := w.lookup(id)
		if !ok {
			continue
		}
		if it.Kind == types.KindPersonal {
			merged, err := types.ApplyPatch(it.Payload, patch)
			if err != nil {
				w.logger.Printf("Skipping saved edit for %s: %v", id, err)
				continue
			}
			w.writeBack(id, merged)
			w.committed[id] = maps.Clone(patch)
			continue
		}
		if err := w.overlay.SetEdit(it, patch); err != nil {
			w.logger.Printf("Skipping saved edit for %s: %v", id, err)
		}
	}
}

func (w *Workspace) writeBack(id string, payload types.Payload) {
	if w.items.Has(id) {
		_ = w.items.UpdatePayload(id, payload)
		return
	}
	_ = w.sections.UpdatePayload(id, payload)
}

func (w *Workspace) publish(ev Event) {
	for _, ch := range w.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (w *Workspace) persist(purposes ...persistence.Purpose) {
	if w.bridge == nil {
		return
	}
	for _, p := range purposes {
		switch p {
		case persistence.PurposeChoice:
			w.bridge.Notify(p, w.stateLocked())
		case persistence.PurposeHistory:
			w.bridge.Notify(p, w.history.All())
		case persistence.PurposeFeedback:
			w.bridge.Notify(p, w.alerts.List())
		case persistence.PurposeChat:
			w.bridge.Notify(p, w.chat)
		}
	}
}
