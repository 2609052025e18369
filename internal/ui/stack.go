package ui

import "sync"

// Canceller is the narrow seam into the active task's cancellation, so the
// Stack can implement ESC's privileged routing (spec.md §4.5: "when an
// operation task is active, it is routed to the task ... before any layer
// sees it") without importing internal/task directly.
type Canceller interface {
	IsActive() bool
	Cancel()
}

// Stack is the ordered collection of Layers, bottom (the two-pane view)
// to top (dialogs, overlays, modal screens).
type Stack struct {
	mu     sync.Mutex
	layers []Layer
	task   Canceller
}

// NewStack builds a Stack with base as its bottom, permanent layer. task
// may be nil if no task coordinator is wired yet (e.g. in tests).
func NewStack(base Layer, task Canceller) *Stack {
	return &Stack{layers: []Layer{base}, task: task}
}

// Push adds a new top layer.
func (s *Stack) Push(l Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = append(s.layers, l)
}

// Pop removes the top layer, unless it is the base (bottom) layer.
func (s *Stack) Pop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.layers) > 1 {
		s.layers = s.layers[:len(s.layers)-1]
	}
}

// Len reports how many layers are on the stack.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.layers)
}

// Top returns the topmost layer.
func (s *Stack) Top() Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layers[len(s.layers)-1]
}

// CollectClosed pops every layer (other than the base) whose ShouldClose()
// is true, top-down, the "top-of-frame check" spec.md §4.5 describes.
func (s *Stack) CollectClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.layers) > 1 && s.layers[len(s.layers)-1].ShouldClose() {
		s.layers = s.layers[:len(s.layers)-1]
	}
}

// HandleKeyEvent routes event top-down per spec.md §4.5's routing rules:
// ESC is privileged (cancels an active task instead of reaching any
// layer); otherwise the first layer to consume the event wins, and a modal
// layer absorbs everything even if it doesn't recognize it.
func (s *Stack) HandleKeyEvent(event KeyEvent) bool {
	if event.Key == KeyEscape && s.task != nil && s.task.IsActive() {
		s.task.Cancel()
		return true
	}
	if event.Key == KeyEscape {
		s.mu.Lock()
		top := s.layers[len(s.layers)-1]
		canPop := len(s.layers) > 1
		s.mu.Unlock()
		if d, ok := top.(Dismissable); canPop && ok && d.Dismissable() {
			s.Pop()
			return true
		}
	}

	s.mu.Lock()
	layers := append([]Layer(nil), s.layers...)
	s.mu.Unlock()

	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		if l.HandleKeyEvent(event) {
			return true
		}
		if m, ok := l.(Modal); ok && m.Modal() {
			return true
		}
	}
	return false
}

// HandleCharEvent routes event top-down the same way HandleKeyEvent does,
// minus the ESC special case (characters have no privileged routing).
func (s *Stack) HandleCharEvent(event CharEvent) bool {
	s.mu.Lock()
	layers := append([]Layer(nil), s.layers...)
	s.mu.Unlock()

	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		if l.HandleCharEvent(event) {
			return true
		}
		if m, ok := l.(Modal); ok && m.Modal() {
			return true
		}
	}
	return false
}

// NeedsRedraw reports whether any layer wants a redraw this frame.
func (s *Stack) NeedsRedraw() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.layers {
		if l.NeedsRedraw() {
			return true
		}
	}
	return false
}

// Render draws every layer bottom-up, stopping early (and not rendering
// layers below) once it finds one that IsFullScreen.
func (s *Stack) Render(r Renderer) {
	s.mu.Lock()
	layers := append([]Layer(nil), s.layers...)
	s.mu.Unlock()

	start := 0
	for i := len(layers) - 1; i >= 0; i-- {
		if layers[i].IsFullScreen() {
			start = i
			break
		}
	}
	for i := start; i < len(layers); i++ {
		layers[i].Render(r)
		layers[i].ClearDirty()
	}
}
