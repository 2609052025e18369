package ui_test

import (
	"testing"

	"github.com/shimomut/tfm-sub010/internal/ui"
)

type fakeLayer struct {
	ui.BaseLayer
	consumeKey  bool
	consumeChar bool
	fullScreen  bool
	closed      bool
	keyEvents   []ui.KeyEvent
}

func (l *fakeLayer) HandleKeyEvent(e ui.KeyEvent) bool {
	l.keyEvents = append(l.keyEvents, e)
	return l.consumeKey
}
func (l *fakeLayer) HandleCharEvent(e ui.CharEvent) bool { return l.consumeChar }
func (l *fakeLayer) Render(r ui.Renderer)                {}
func (l *fakeLayer) IsFullScreen() bool                  { return l.fullScreen }
func (l *fakeLayer) ShouldClose() bool                   { return l.closed }

type fakeCanceller struct {
	active    bool
	cancelled bool
}

func (c *fakeCanceller) IsActive() bool { return c.active }
func (c *fakeCanceller) Cancel()        { c.cancelled = true }

func TestEventFallsThroughToLayerBelow(t *testing.T) {
	base := &fakeLayer{BaseLayer: ui.NewBaseLayer(), consumeKey: true}
	top := &fakeLayer{BaseLayer: ui.NewBaseLayer(), consumeKey: false}
	s := ui.NewStack(base, nil)
	s.Push(top)

	if !s.HandleKeyEvent(ui.KeyEvent{Key: ui.KeyDown}) {
		t.Fatal("expected base layer to consume the event")
	}
	if len(top.keyEvents) != 1 || len(base.keyEvents) != 1 {
		t.Fatalf("expected both layers to see the event once, got top=%d base=%d", len(top.keyEvents), len(base.keyEvents))
	}
}

func TestTopLayerConsumingStopsPropagation(t *testing.T) {
	base := &fakeLayer{BaseLayer: ui.NewBaseLayer(), consumeKey: true}
	top := &fakeLayer{BaseLayer: ui.NewBaseLayer(), consumeKey: true}
	s := ui.NewStack(base, nil)
	s.Push(top)

	s.HandleKeyEvent(ui.KeyEvent{Key: ui.KeyDown})
	if len(base.keyEvents) != 0 {
		t.Fatal("base layer should not have seen an event the top layer consumed")
	}
}

func TestEscapeCancelsActiveTaskBeforeReachingLayers(t *testing.T) {
	base := &fakeLayer{BaseLayer: ui.NewBaseLayer(), consumeKey: true}
	canceller := &fakeCanceller{active: true}
	s := ui.NewStack(base, canceller)

	if !s.HandleKeyEvent(ui.KeyEvent{Key: ui.KeyEscape}) {
		t.Fatal("expected ESC to be consumed")
	}
	if !canceller.cancelled {
		t.Fatal("expected the active task to be cancelled")
	}
	if len(base.keyEvents) != 0 {
		t.Fatal("ESC should not have reached the base layer while a task is active")
	}
}

type dismissableLayer struct {
	fakeLayer
	dismissable bool
}

func (d *dismissableLayer) Dismissable() bool { return d.dismissable }

func TestEscapePopsDismissableTopLayerWhenNoTaskActive(t *testing.T) {
	base := &fakeLayer{BaseLayer: ui.NewBaseLayer()}
	top := &dismissableLayer{fakeLayer: fakeLayer{BaseLayer: ui.NewBaseLayer()}, dismissable: true}
	s := ui.NewStack(base, &fakeCanceller{active: false})
	s.Push(top)

	if l := s.Len(); l != 2 {
		t.Fatalf("setup: Len() = %d, want 2", l)
	}
	if !s.HandleKeyEvent(ui.KeyEvent{Key: ui.KeyEscape}) {
		t.Fatal("expected ESC to be consumed by the pop")
	}
	if s.Len() != 1 {
		t.Fatalf("Len() after ESC = %d, want 1 (dismissable layer popped)", s.Len())
	}
}

func TestModalLayerAbsorbsUnrecognizedEvents(t *testing.T) {
	base := &fakeLayer{BaseLayer: ui.NewBaseLayer(), consumeKey: true}
	modal := &modalLayer{fakeLayer: fakeLayer{BaseLayer: ui.NewBaseLayer(), consumeKey: false}}
	s := ui.NewStack(base, nil)
	s.Push(modal)

	if !s.HandleKeyEvent(ui.KeyEvent{Key: ui.KeyDown}) {
		t.Fatal("expected the modal layer to absorb the event even though it didn't consume it")
	}
	if len(base.keyEvents) != 0 {
		t.Fatal("base layer should not see an event a modal layer absorbed")
	}
}

type modalLayer struct {
	fakeLayer
}

func (m *modalLayer) Modal() bool { return true }

func TestCollectClosedPopsSelfClosingLayers(t *testing.T) {
	base := &fakeLayer{BaseLayer: ui.NewBaseLayer()}
	top := &fakeLayer{BaseLayer: ui.NewBaseLayer(), closed: true}
	s := ui.NewStack(base, nil)
	s.Push(top)

	s.CollectClosed()
	if s.Len() != 1 {
		t.Fatalf("Len() after CollectClosed = %d, want 1", s.Len())
	}
}

func TestFullScreenLayerSkipsLayersBelowOnRender(t *testing.T) {
	base := &renderTrackingLayer{fakeLayer: fakeLayer{BaseLayer: ui.NewBaseLayer()}}
	top := &renderTrackingLayer{fakeLayer: fakeLayer{BaseLayer: ui.NewBaseLayer(), fullScreen: true}}
	s := ui.NewStack(base, nil)
	s.Push(top)

	s.Render(nil)
	if base.rendered {
		t.Fatal("base layer should not render below a full-screen layer")
	}
	if !top.rendered {
		t.Fatal("full-screen top layer should render")
	}
}

type renderTrackingLayer struct {
	fakeLayer
	rendered bool
}

func (l *renderTrackingLayer) Render(r ui.Renderer) { l.rendered = true }
