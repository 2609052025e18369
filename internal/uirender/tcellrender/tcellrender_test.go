package tcellrender

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/shimomut/tfm-sub010/internal/ui"
)

func TestTranslateKeyMapsCommonKeys(t *testing.T) {
	cases := map[tcell.Key]ui.Key{
		tcell.KeyUp:     ui.KeyUp,
		tcell.KeyDown:   ui.KeyDown,
		tcell.KeyEnter:  ui.KeyEnter,
		tcell.KeyEscape: ui.KeyEscape,
		tcell.KeyTab:    ui.KeyTab,
	}
	for in, want := range cases {
		if got := translateKey(in); got != want {
			t.Errorf("translateKey(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestTranslateModCombinesBits(t *testing.T) {
	got := translateMod(tcell.ModShift | tcell.ModCtrl)
	if got&ui.ModShift == 0 || got&ui.ModCtrl == 0 {
		t.Fatalf("translateMod = %v, want both ModShift and ModCtrl set", got)
	}
	if got&ui.ModAlt != 0 {
		t.Fatal("translateMod should not set ModAlt when it wasn't held")
	}
}

func TestTranslateEventRuneBecomesCharEvent(t *testing.T) {
	ev := tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)
	key, char, isChar, ok := translateEvent(ev)
	if !ok || !isChar || char.Char != 'x' {
		t.Fatalf("translateEvent(rune) = key=%v char=%v isChar=%v ok=%v", key, char, isChar, ok)
	}
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	screen := tcell.NewSimulationScreen("")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	screen.SetSize(80, 24)
	return &Renderer{screen: screen, pairs: make(map[ui.ColorPair][2]tcell.Color)}
}

func TestDrawTextWidePlaceholderCell(t *testing.T) {
	r := newTestRenderer(t)
	r.DrawText(0, 0, "日", 0, ui.AttrNone)
	mainc, _, _, _ := r.screen.GetContent(0, 0)
	if mainc != '日' {
		t.Fatalf("cell (0,0) = %q, want 日", mainc)
	}
	placeholder, _, _, _ := r.screen.GetContent(1, 0)
	if placeholder != ' ' {
		t.Fatalf("cell (1,0) placeholder = %q, want a blank cell following the wide rune", placeholder)
	}
}

func TestDimensionsReflectsScreenSize(t *testing.T) {
	r := newTestRenderer(t)
	rows, cols := r.Dimensions()
	if rows != 24 || cols != 80 {
		t.Fatalf("Dimensions() = (%d, %d), want (24, 80)", rows, cols)
	}
}
