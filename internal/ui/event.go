package ui

// Key names the small set of non-printable keys layers route on, kept
// renderer-agnostic so internal/ui has no dependency on a specific
// terminal library — internal/uirender/tcellrender is responsible for
// translating tcell's key constants into these.
type Key int

const (
	KeyNone Key = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyEscape
	KeyTab
	KeyBackspace
	KeyDelete
	KeyPageUp
	KeyPageDown
	KeyHome
	KeyEnd
	KeyF1
	KeyResize
	KeyDragDrop
)

// KeyEvent is a non-printable key press, or a terminal resize/drag-drop
// notification (spec.md §4.8's get_input() "key, char, resize, or
// drag-and-drop events").
type KeyEvent struct {
	Key Key
	Mod Modifier

	// Width/Height are populated for KeyResize.
	Width, Height int

	// DragPaths carries the payload for KeyDragDrop.
	DragPaths []string
}

// Modifier is a bitmask of held modifier keys.
type Modifier int

const (
	ModNone  Modifier = 0
	ModShift Modifier = 1 << (iota - 1)
	ModCtrl
	ModAlt
)

// CharEvent is a printable character typed by the user.
type CharEvent struct {
	Char rune
	Mod  Modifier
}
