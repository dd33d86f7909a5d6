// Package alerts tracks advisory results presented to the user, one per item.
package alerts

import (
	"fmt"
	"slices"

	"github.com/jonathan/cranium/internal/types"
)

// Manager holds alerts in presentation order. At most one alert is expanded.
type Manager struct {
	alerts []types.Alert
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{}
}

// Present shows message for item id, expanded, minimizing every other
// alert. An existing alert for id is replaced in place.
func (m *Manager) Present(id, message string) types.Alert {
	m.minimizeAll()
	a := types.Alert{ID: id, Message: message}
	if i := m.indexOf(id); i >= 0 {
		m.alerts[i] = a
		return a
	}
	m.alerts = append(m.alerts, a)
	return a
}

// ToggleMinimize flips the minimized state of id. Expanding an alert
// minimizes the rest.
func (m *Manager) ToggleMinimize(id string) (types.Alert, error) {
	i := m.indexOf(id)
	if i < 0 {
		return types.Alert{}, fmt.Errorf("alert not found: %s", id)
	}
	if m.alerts[i].IsMinimized {
		m.minimizeAll()
		m.alerts[i].IsMinimized = false
	} else {
		m.alerts[i].IsMinimized = true
	}
	return m.alerts[i], nil
}

// Remove drops the alert for id. It reports whether one existed.
func (m *Manager) Remove(id string) bool {
	i := m.indexOf(id)
	if i < 0 {
		return false
	}
	m.alerts = slices.Delete(m.alerts, i, i+1)
	return true
}

// Get returns the alert for id.
func (m *Manager) Get(id string) (types.Alert, bool) {
	i := m.indexOf(id)
	if i < 0 {
		return types.Alert{}, false
	}
	return m.alerts[i], true
}

// List returns every alert in presentation order.
func (m *Manager) List() []types.Alert {
	return slices.Clone(m.alerts)
}

// Expanded returns the single expanded alert, if any.
func (m *Manager) Expanded() (types.Alert, bool) {
	for _, a := range m.alerts {
		if !a.IsMinimized {
			return a, true
		}
	}
	return types.Alert{}, false
}

// Replace swaps in previously saved alerts, keeping only the first expanded one.
func (m *Manager) Replace(saved []types.Alert) {
	m.alerts = nil
	seenExpanded := false
	for _, a := range saved {
		if m.indexOf(a.ID) >= 0 {
			continue
		}
		if !a.IsMinimized {
			if seenExpanded {
				a.IsMinimized = true
			}
			seenExpanded = true
		}
		m.alerts = append(m.alerts, a)
	}
}

func (m *Manager) minimizeAll() {
	for i := range m.alerts {
		m.alerts[i].IsMinimized = true
	}
}

func (m *Manager) indexOf(id string) int {
	return slices.IndexFunc(m.alerts, func(a types.Alert) bool { return a.ID == id })
}
