package task

import (
	"context"
	"errors"
	"sync"
)

// ErrTaskInProgress is returned by Coordinator.Run when another task is
// already active — the "action blocked: task in progress (press ESC to
// cancel)" message spec.md §4.6 specifies is shown to the user.
var ErrTaskInProgress = errors.New("action blocked: task in progress (press ESC to cancel)")

// Coordinator owns the single-slot active task reference and mediates ESC
// cancellation, per spec.md §4.6. There is at most one active Task across
// the whole application at a time.
type Coordinator struct {
	mu     sync.Mutex
	active *Task
}

// NewCoordinator builds an empty Coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Active returns the currently active task, or nil if idle.
func (c *Coordinator) Active() *Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// IsActive and Cancel together satisfy internal/ui's Canceller seam, so a
// Coordinator can be handed to ui.NewStack directly without an adapter.
func (c *Coordinator) IsActive() bool {
	return c.Active() != nil
}

// Cancel is CancelActive under the name Canceller expects.
func (c *Coordinator) Cancel() {
	c.CancelActive()
}

// Run starts t as the active task and blocks until it finishes, returning
// ErrTaskInProgress immediately if another task is already active instead
// of queueing — the coordinator blocks new foreground actions rather than
// scheduling them.
func (c *Coordinator) Run(ctx context.Context, t *Task) error {
	c.mu.Lock()
	if c.active != nil {
		c.mu.Unlock()
		return ErrTaskInProgress
	}
	c.active = t
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.active = nil
		c.mu.Unlock()
	}()

	return t.Start(ctx)
}

// CancelActive requests cancellation of the active task, the ESC handler's
// entry point. A no-op if no task is active.
func (c *Coordinator) CancelActive() {
	c.mu.Lock()
	t := c.active
	c.mu.Unlock()
	if t != nil {
		t.Cancel()
	}
}
