// Package ui implements the layer stack from spec.md §4.5: the bottom
// layer is the two-pane file view, with dialogs, overlays, and modal
// screens stacked on top. There is no direct teacher analogue (rclone has
// no interactive UI); the interface and routing rules are taken from
// spec.md §4.5 directly.
package ui

// Layer is one entry in the UI stack — a dialog, overlay, modal screen, or
// the base pane view.
type Layer interface {
	// HandleKeyEvent processes a non-printable key event. consumed is true
	// if the event should not fall through to the layer below.
	HandleKeyEvent(event KeyEvent) (consumed bool)
	// HandleCharEvent processes a printable character event.
	HandleCharEvent(event CharEvent) (consumed bool)
	// Render draws the layer's content using r.
	Render(r Renderer)
	// NeedsRedraw is polled once per frame to decide whether Render runs.
	NeedsRedraw() bool
	// MarkDirty/ClearDirty explicitly control NeedsRedraw's answer.
	MarkDirty()
	ClearDirty()
	// IsFullScreen reports whether layers below this one should be
	// skipped during Render.
	IsFullScreen() bool
	// ShouldClose is polled at the top of each frame; a true result pops
	// this layer from the stack.
	ShouldClose() bool
}

// Dismissable is implemented by layers that the privileged ESC key may
// pop directly (spec.md §4.5: "pops the topmost layer that self-identifies
// as dismissable").
type Dismissable interface {
	Dismissable() bool
}

// Modal is implemented by layers that must absorb every key/char event
// they don't explicitly recognize, so input never bleeds through to the
// layers below — spec.md §4.5 calls this out as the historical source of
// action/dialog conflicts.
type Modal interface {
	Modal() bool
}

// BaseLayer is embeddable scaffolding providing the MarkDirty/ClearDirty/
// NeedsRedraw bookkeeping every concrete layer needs, the same
// embed-the-boilerplate shape backend/local/local.go uses for its Object's
// shared fields.
type BaseLayer struct {
	dirty bool
}

// NewBaseLayer returns a BaseLayer that starts dirty, so a freshly pushed
// layer always renders at least once.
func NewBaseLayer() BaseLayer {
	return BaseLayer{dirty: true}
}

func (b *BaseLayer) NeedsRedraw() bool { return b.dirty }
func (b *BaseLayer) MarkDirty()        { b.dirty = true }
func (b *BaseLayer) ClearDirty()       { b.dirty = false }
