package workspace

import (
	"context"
	"errors"

	"github.com/jonathan/cranium/internal/advisory"
	"github.com/jonathan/cranium/internal/persistence"
	"github.com/jonathan/cranium/internal/placement"
	"github.com/jonathan/cranium/internal/types"
)

// enqueue schedules advisory evaluation for it. Protected personal fields
// never enter the pipeline. Caller holds w.mu.
func (w *Workspace) enqueue(it types.Item) {
	if w.scheduler == nil || it.IsProtected() {
		return
	}
	w.scheduler.Enqueue(types.QueueItem{
		ItemID:      it.ID,
		CardContent: w.overlay.Resolve(it).Text(),
	})
}

// evaluate is the scheduler handler. The request is built from a snapshot
// taken under the lock; the collaborator call runs unlocked; the result is
// applied against the state current when it arrives.
func (w *Workspace) evaluate(ctx context.Context, q types.QueueItem) {
	w.mu.Lock()
	if _, ok := w.lookup(q.ItemID); !ok {
		w.mu.Unlock()
		return
	}
	req := w.adviceRequest(q)
	w.mu.Unlock()

	advice, err := w.evaluator.Evaluate(ctx, req)
	if err != nil {
		if errors.Is(err, advisory.ErrAttemptsExhausted) {
			w.logger.Printf("Discarding advice for %s: %v", q.ItemID, err)
		} else {
			w.logger.Printf("Advisory evaluation for %s stopped: %v", q.ItemID, err)
		}
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.applyAdvice(q.ItemID, advice)
}

func (w *Workspace) applyAdvice(id string, advice types.Advice) {
	if _, ok := w.lookup(id); !ok {
		w.logger.Printf("Dropping advice for %s: item no longer exists", id)
		return
	}

	alert := w.alerts.Present(id, advice.AlertMessage())
	purposes := []persistence.Purpose{persistence.PurposeFeedback}
	if c, ok := advice.(*types.Coaching); ok {
		w.chat = append(w.chat, types.ChatMessage{
			ItemID:     id,
			Message:    c.Message,
			Suggestion: c.Suggestion,
			Reasoning:  c.Reasoning,
			CreatedAt:  w.now().UTC(),
		})
		purposes = append(purposes, persistence.PurposeChat)
	}
	w.persist(purposes...)
	w.publish(Event{Type: EventAlert, Alert: alert})
}

// adviceRequest assembles the collaborator context. Caller holds w.mu.
func (w *Workspace) adviceRequest(q types.QueueItem) types.AdviceRequest {
	chosen := w.items.Items(placement.Chosen)
	for i := range chosen {
		chosen[i] = w.overlay.Resolve(chosen[i])
	}

	available := make(map[string]types.Payload)
	for _, it := range w.items.Items(placement.Available) {
		if !w.profile[it.ID] || it.Payload == nil {
			continue
		}
		available[it.ID] = w.overlay.Resolve(it).Payload
	}

	return types.AdviceRequest{
		ChosenItems:          chosen,
		LastActions:          w.history.Last(w.historyWindow),
		AvailableItemContext: available,
		TargetRole:           w.targetRole,
		Focus:                q,
	}
}

// AdviceRequest returns the collaborator context that an evaluation of id
// would send right now.
func (w *Workspace) AdviceRequest(id string) (types.AdviceRequest, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	it, ok := w.lookup(id)
	if !ok {
		return types.AdviceRequest{}, &ReferenceError{Op: "advice", ID: id}
	}
	return w.adviceRequest(types.QueueItem{ItemID: id, CardContent: w.overlay.Resolve(it).Text()}), nil
}

// Alerts returns every alert in presentation order.
func (w *Workspace) Alerts() []types.Alert {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.alerts.List()
}

// ToggleAlert flips the minimized state of the alert for id.
func (w *Workspace) ToggleAlert(id string) (types.Alert, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	alert, err := w.alerts.ToggleMinimize(id)
	if err != nil {
		return types.Alert{}, &ReferenceError{Op: "toggle alert", ID: id}
	}
	w.persist(persistence.PurposeFeedback)
	return alert, nil
}

// DismissAlert removes the alert for id.
func (w *Workspace) DismissAlert(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.alerts.Remove(id) {
		return &ReferenceError{Op: "dismiss alert", ID: id}
	}
	w.persist(persistence.PurposeFeedback)
	return nil
}
