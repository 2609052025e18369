package pane_test

import (
	"context"
	"testing"

	"github.com/shimomut/tfm-sub010/internal/pane"
	"github.com/shimomut/tfm-sub010/internal/vpath"
	"github.com/shimomut/tfm-sub010/internal/vpath/memfs"
)

type memHistory struct{ m map[string]string }

func newMemHistory() *memHistory { return &memHistory{m: map[string]string{}} }

func (h *memHistory) Lookup(key string) (string, bool) {
	v, ok := h.m[key]
	return v, ok
}

func (h *memHistory) Record(key, name string) { h.m[key] = name }

func newTestPane(t *testing.T, names ...string) (*pane.Pane, vpath.Path) {
	t.Helper()
	reg := vpath.NewRegistry()
	reg.SetLocal(memfs.New(vpath.SchemeLocal))
	root, err := vpath.Parse(reg, "/d")
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range names {
		if err := root.Join(n).WriteText(context.Background(), "x"); err != nil {
			t.Fatal(err)
		}
	}
	p := pane.New(root, newMemHistory(), 10)
	if err := p.Navigate(context.Background(), root, ""); err != nil {
		t.Fatal(err)
	}
	return p, root
}

func TestMoveCursorClamps(t *testing.T) {
	p, _ := newTestPane(t, "a.txt", "b.txt", "c.txt")
	p.MoveCursor(-5)
	if p.FocusedIndex() != 0 {
		t.Fatalf("FocusedIndex = %d, want 0", p.FocusedIndex())
	}
	p.MoveCursor(100)
	if p.FocusedIndex() != 2 {
		t.Fatalf("FocusedIndex = %d, want 2", p.FocusedIndex())
	}
}

func TestToggleSelectAllFilesLeavesDirectoriesAlone(t *testing.T) {
	reg := vpath.NewRegistry()
	reg.SetLocal(memfs.New(vpath.SchemeLocal))
	root, _ := vpath.Parse(reg, "/d")
	ctx := context.Background()
	root.Join("file.txt").WriteText(ctx, "x")
	root.Join("subdir").Mkdir(ctx)
	p := pane.New(root, nil, 10)
	if err := p.Navigate(ctx, root, ""); err != nil {
		t.Fatal(err)
	}
	p.ToggleSelectAllFiles()
	selected := p.SelectedPaths()
	if len(selected) != 1 || selected[0].Name() != "file.txt" {
		t.Fatalf("ToggleSelectAllFiles selected %v, want only file.txt", selected)
	}
}

func TestToggleSelectAllItemsIncludesDirectories(t *testing.T) {
	reg := vpath.NewRegistry()
	reg.SetLocal(memfs.New(vpath.SchemeLocal))
	root, _ := vpath.Parse(reg, "/d")
	ctx := context.Background()
	root.Join("file.txt").WriteText(ctx, "x")
	root.Join("subdir").Mkdir(ctx)
	p := pane.New(root, nil, 10)
	if err := p.Navigate(ctx, root, ""); err != nil {
		t.Fatal(err)
	}
	p.ToggleSelectAllItems()
	if len(p.SelectedPaths()) != 2 {
		t.Fatalf("ToggleSelectAllItems selected %v, want both entries", p.SelectedPaths())
	}
}

func TestRefreshPreservesFocusByName(t *testing.T) {
	p, root := newTestPane(t, "a.txt", "b.txt", "c.txt")
	// Focus "b.txt".
	entries := p.Entries()
	for i, e := range entries {
		if e.Path.Name() == "b.txt" {
			p.MoveCursor(i - p.FocusedIndex())
		}
	}
	focused, ok := p.Focused()
	if !ok || focused.Path.Name() != "b.txt" {
		t.Fatalf("setup failed, focused=%v", focused)
	}
	// Delete "a.txt" then refresh; "b.txt" should still be focused.
	if err := root.Join("a.txt").Unlink(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := p.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	focused, ok = p.Focused()
	if !ok || focused.Path.Name() != "b.txt" {
		t.Fatalf("Refresh did not preserve focus by name: %v", focused)
	}
}

func TestRefreshPurgesVanishedSelections(t *testing.T) {
	p, root := newTestPane(t, "a.txt", "b.txt")
	p.ToggleSelectAllFiles()
	if len(p.SelectedPaths()) != 2 {
		t.Fatal("setup: expected both files selected")
	}
	if err := root.Join("a.txt").Unlink(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := p.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	selected := p.SelectedPaths()
	if len(selected) != 1 || selected[0].Name() != "b.txt" {
		t.Fatalf("Refresh did not purge vanished selection: %v", selected)
	}
}

func TestNavigateFromChildWinsOverHistory(t *testing.T) {
	reg := vpath.NewRegistry()
	reg.SetLocal(memfs.New(vpath.SchemeLocal))
	root, _ := vpath.Parse(reg, "/parent")
	ctx := context.Background()
	root.Join("child-a").Mkdir(ctx)
	root.Join("child-b").Mkdir(ctx)

	history := newMemHistory()
	history.Record(root.String(), "child-a") // history says child-a

	p := pane.New(root, history, 10)
	// Navigating back up from "child-b" must focus child-b, not history's child-a.
	if err := p.Navigate(ctx, root, "child-b"); err != nil {
		t.Fatal(err)
	}
	focused, ok := p.Focused()
	if !ok || focused.Path.Name() != "child-b" {
		t.Fatalf("fromChild did not win over history: %v", focused)
	}
}

func TestNavigateRecordsDepartingDirectoryFocus(t *testing.T) {
	reg := vpath.NewRegistry()
	reg.SetLocal(memfs.New(vpath.SchemeLocal))
	root, _ := vpath.Parse(reg, "/d")
	ctx := context.Background()
	root.Join("a.txt").WriteText(ctx, "x")
	root.Join("b.txt").WriteText(ctx, "x")
	sub := root.Join("sub")
	sub.Mkdir(ctx)

	history := newMemHistory()
	p := pane.New(root, history, 10)
	if err := p.Navigate(ctx, root, ""); err != nil {
		t.Fatal(err)
	}
	p.MoveCursor(2) // directories sort first: sub, a.txt, b.txt — land on b.txt
	wantFocused, ok := p.Focused()
	if !ok || wantFocused.Path.Name() != "b.txt" {
		t.Fatalf("test setup: focused = %v, want b.txt", wantFocused)
	}

	if err := p.Navigate(ctx, sub, ""); err != nil {
		t.Fatal(err)
	}

	name, ok := history.Lookup(root.String())
	if !ok || name != "b.txt" {
		t.Fatalf("history.Lookup(%q) = (%q, %v), want (\"b.txt\", true)", root.String(), name, ok)
	}
}
