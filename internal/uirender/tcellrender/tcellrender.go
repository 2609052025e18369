// Package tcellrender implements ui.Renderer against
// github.com/gdamore/tcell/v2, the concrete terminal backend cmd/tfm
// wires in. No file in the retrieved teacher pack uses tcell (rclone has
// no interactive UI), so this package is written fresh against tcell's
// documented Screen API, following the same one-method-per-primitive
// shape internal/ui.Renderer's interface already names.
package tcellrender

import (
	"context"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/shimomut/tfm-sub010/internal/display"
	"github.com/shimomut/tfm-sub010/internal/ui"
)

// Renderer adapts a tcell.Screen to ui.Renderer.
type Renderer struct {
	screen tcell.Screen
	mu     sync.Mutex
	pairs  map[ui.ColorPair][2]tcell.Color
}

// New initializes a tcell screen and returns a ready Renderer.
func New() (*Renderer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("tcellrender: failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("tcellrender: failed to init screen: %w", err)
	}
	screen.EnableMouse()
	return &Renderer{screen: screen, pairs: make(map[ui.ColorPair][2]tcell.Color)}, nil
}

func (r *Renderer) Dimensions() (rows, cols int) {
	cols, rows = r.screen.Size()
	return rows, cols
}

func (r *Renderer) Clear() {
	r.screen.Clear()
}

func (r *Renderer) styleFor(pair ui.ColorPair, attrs ui.Attr) tcell.Style {
	style := tcell.StyleDefault
	r.mu.Lock()
	fgbg, ok := r.pairs[pair]
	r.mu.Unlock()
	if ok {
		style = style.Foreground(fgbg[0]).Background(fgbg[1])
	}
	if attrs&ui.AttrBold != 0 {
		style = style.Bold(true)
	}
	if attrs&ui.AttrReverse != 0 {
		style = style.Reverse(true)
	}
	if attrs&ui.AttrUnderline != 0 {
		style = style.Underline(true)
	}
	if attrs&ui.AttrDim != 0 {
		style = style.Dim(true)
	}
	return style
}

// DrawText places text starting at (row, col). Wide runes are followed by
// a blank placeholder cell so the renderer satisfies spec.md §4.8's
// wide-character contract: overwriting only the left half later still
// clears both cells because the placeholder carries the same style.
func (r *Renderer) DrawText(row, col int, text string, colorPair ui.ColorPair, attrs ui.Attr) {
	style := r.styleFor(colorPair, attrs)
	text = display.Normalize(text)
	x := col
	for _, ch := range text {
		w := runewidth.RuneWidth(ch)
		if w <= 0 {
			w = 1
		}
		r.screen.SetContent(x, row, ch, nil, style)
		for i := 1; i < w; i++ {
			r.screen.SetContent(x+i, row, ' ', nil, style)
		}
		x += w
	}
}

func (r *Renderer) DrawHLine(row, col int, char rune, count int) error {
	if !display.IsSingleScalar(string(char)) {
		return fmt.Errorf("tcellrender: DrawHLine char %q is not a single composed scalar", char)
	}
	style := tcell.StyleDefault
	for i := 0; i < count; i++ {
		r.screen.SetContent(col+i, row, char, nil, style)
	}
	return nil
}

func (r *Renderer) DrawVLine(row, col int, char rune, count int) error {
	if !display.IsSingleScalar(string(char)) {
		return fmt.Errorf("tcellrender: DrawVLine char %q is not a single composed scalar", char)
	}
	style := tcell.StyleDefault
	for i := 0; i < count; i++ {
		r.screen.SetContent(col, row+i, char, nil, style)
	}
	return nil
}

func (r *Renderer) InitColorPair(pair ui.ColorPair, fg, bg ui.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs[pair] = [2]tcell.Color{
		tcell.NewRGBColor(int32(fg.R), int32(fg.G), int32(fg.B)),
		tcell.NewRGBColor(int32(bg.R), int32(bg.G), int32(bg.B)),
	}
}

func (r *Renderer) ResetColorPairs() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs = make(map[ui.ColorPair][2]tcell.Color)
}

func (r *Renderer) Refresh() {
	r.screen.Show()
}

// GetInput blocks for the next tcell event, translating it into
// internal/ui's renderer-agnostic event types. It respects ctx
// cancellation by polling PollEvent on a goroutine and racing it against
// ctx.Done().
func (r *Renderer) GetInput(ctx context.Context) (key ui.KeyEvent, char ui.CharEvent, isChar bool, ok bool) {
	events := make(chan tcell.Event, 1)
	go func() { events <- r.screen.PollEvent() }()

	select {
	case <-ctx.Done():
		return ui.KeyEvent{}, ui.CharEvent{}, false, false
	case ev := <-events:
		return translateEvent(ev)
	}
}

func translateEvent(ev tcell.Event) (ui.KeyEvent, ui.CharEvent, bool, bool) {
	switch e := ev.(type) {
	case *tcell.EventKey:
		if e.Key() == tcell.KeyRune {
			return ui.KeyEvent{}, ui.CharEvent{Char: e.Rune(), Mod: translateMod(e.Modifiers())}, true, true
		}
		return ui.KeyEvent{Key: translateKey(e.Key()), Mod: translateMod(e.Modifiers())}, ui.CharEvent{}, false, true
	case *tcell.EventResize:
		cols, rows := e.Size()
		return ui.KeyEvent{Key: ui.KeyResize, Width: cols, Height: rows}, ui.CharEvent{}, false, true
	default:
		return ui.KeyEvent{}, ui.CharEvent{}, false, true
	}
}

func translateMod(m tcell.ModMask) ui.Modifier {
	mod := ui.ModNone
	if m&tcell.ModShift != 0 {
		mod |= ui.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		mod |= ui.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		mod |= ui.ModAlt
	}
	return mod
}

func translateKey(k tcell.Key) ui.Key {
	switch k {
	case tcell.KeyUp:
		return ui.KeyUp
	case tcell.KeyDown:
		return ui.KeyDown
	case tcell.KeyLeft:
		return ui.KeyLeft
	case tcell.KeyRight:
		return ui.KeyRight
	case tcell.KeyEnter:
		return ui.KeyEnter
	case tcell.KeyEscape:
		return ui.KeyEscape
	case tcell.KeyTab:
		return ui.KeyTab
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return ui.KeyBackspace
	case tcell.KeyDelete:
		return ui.KeyDelete
	case tcell.KeyPgUp:
		return ui.KeyPageUp
	case tcell.KeyPgDn:
		return ui.KeyPageDown
	case tcell.KeyHome:
		return ui.KeyHome
	case tcell.KeyEnd:
		return ui.KeyEnd
	case tcell.KeyF1:
		return ui.KeyF1
	default:
		return ui.KeyNone
	}
}

// Close restores the terminal to cooked mode.
func (r *Renderer) Close() error {
	r.screen.Fini()
	return nil
}

var _ ui.Renderer = (*Renderer)(nil)
