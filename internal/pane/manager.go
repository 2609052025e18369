package pane

import "sync"

// Manager owns the two panes and which one is active, the top-level object
// spec.md §4.3 calls the Pane Manager.
type Manager struct {
	mu     sync.Mutex
	panes  [2]*Pane
	active Side
}

// NewManager builds a Manager over an already-constructed left and right
// Pane (each typically produced by pane.New against a different starting
// path).
func NewManager(left, right *Pane) *Manager {
	return &Manager{panes: [2]*Pane{left, right}}
}

// Active returns the currently active Side and its Pane.
func (m *Manager) Active() (Side, *Pane) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active, m.panes[m.active]
}

// Inactive returns the Pane not currently active — the "other pane" most
// copy/move operations target.
func (m *Manager) Inactive() *Pane {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.panes[1-m.active]
}

// Pane returns the Pane for a specific side.
func (m *Manager) Pane(side Side) *Pane {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.panes[side]
}

// SetActive switches which pane is active.
func (m *Manager) SetActive(side Side) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = side
}

// Toggle flips the active pane, the common Tab-key binding.
func (m *Manager) Toggle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = 1 - m.active
}
