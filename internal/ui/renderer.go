package ui

import "context"

// ColorPair identifies a registered foreground/background pair.
type ColorPair int

// Attr is a bitmask of text attributes.
type Attr int

const (
	AttrNone  Attr = 0
	AttrBold  Attr = 1 << (iota - 1)
	AttrReverse
	AttrUnderline
	AttrDim
)

// Color is a renderer-agnostic RGB color; a concrete Renderer maps it to
// whatever the terminal backend supports (256-color index, truecolor, ...).
type Color struct {
	R, G, B uint8
}

// Renderer is the contract spec.md §4.8 requires the core to never work
// around: the core holds no rendering code, it only calls this interface.
type Renderer interface {
	// Dimensions returns the current terminal size in cells (rows, cols).
	Dimensions() (rows, cols int)

	// Clear erases the whole frame.
	Clear()

	// DrawText places text starting at (row, col) using colorPair/attrs.
	// Wide (East-Asian) characters occupy two columns; implementations
	// MUST write a placeholder cell for the second column so the wide-char
	// contract below holds.
	DrawText(row, col int, text string, colorPair ColorPair, attrs Attr)

	// DrawHLine/DrawVLine draw a line of count cells starting at (row,
	// col). char MUST be exactly one Unicode scalar; implementations
	// reject decomposed (NFD) forms rather than silently normalizing, so
	// callers are responsible for passing already-composed characters.
	DrawHLine(row, col int, char rune, count int) error
	DrawVLine(row, col int, char rune, count int) error

	// InitColorPair registers fg/bg as colorPair's mapping.
	InitColorPair(pair ColorPair, fg, bg Color)
	// ResetColorPairs clears all registered pairs back to the terminal
	// default.
	ResetColorPairs()

	// Refresh flushes the frame buffer to the terminal.
	Refresh()

	// GetInput blocks (respecting ctx cancellation) for the next input
	// event: a key, a character, a resize, or a drag-and-drop payload.
	// ok is false if ctx was cancelled before an event arrived.
	GetInput(ctx context.Context) (key KeyEvent, char CharEvent, isChar bool, ok bool)

	// Close releases the terminal (restores cooked mode, etc).
	Close() error
}
