// Package pane implements the two-pane navigation model of spec.md §4.3:
// per-pane listing state, cursor movement with scroll-margin clamping, and
// selection toggling. There is no teacher analogue (rclone has no
// interactive two-pane UI); conventions (mutex-guarded state, doc density)
// follow backend/local/local.go's style.
package pane

import (
	"context"
	"sort"
	"sync"

	"github.com/shimomut/tfm-sub010/internal/listing"
	"github.com/shimomut/tfm-sub010/internal/vpath"
)

// Side identifies which of the two panes is addressed.
type Side int

const (
	Left Side = iota
	Right
)

// CursorHistory looks up and records the last-focused child name for a
// directory, so navigating back into it restores the cursor. Implemented
// by internal/statestore for persistence across runs; tests can supply an
// in-memory stub.
type CursorHistory interface {
	Lookup(dirKey string) (name string, ok bool)
	Record(dirKey, name string)
}

// Pane holds one side's navigation state.
type Pane struct {
	mu sync.Mutex

	path          vpath.Path
	entries       []listing.Entry
	focusedIndex  int
	scrollOffset  int
	selected      map[string]bool // keyed by entry name
	sortOpts      listing.Options
	viewportLines int

	history CursorHistory
	cache   listing.Cache
}

// New constructs a Pane rooted at start.
func New(start vpath.Path, history CursorHistory, viewportLines int) *Pane {
	return &Pane{
		path:          start,
		selected:      make(map[string]bool),
		history:       history,
		viewportLines: viewportLines,
	}
}

// SetCache wires a stat/listing cache coordinator into the pane, so every
// Navigate/Refresh listing round trip goes through it instead of calling
// the backend directly. Nil (the zero value) disables caching, which is
// what every local-only test in this package wants.
func (pn *Pane) SetCache(c listing.Cache) {
	pn.mu.Lock()
	defer pn.mu.Unlock()
	pn.cache = c
}

func dirKey(p vpath.Path) string { return p.String() }

// Navigate re-lists target, clears selection, and restores focus from
// cursor history — unless fromChild names the child directory just left
// via a parent navigation (backspace), which always wins regardless of
// history (spec.md §4.3).
func (pn *Pane) Navigate(ctx context.Context, target vpath.Path, fromChild string) error {
	entries, err := listing.List(ctx, target, pn.sortOptsSnapshot(), pn.cacheSnapshot())
	if err != nil {
		return err
	}
	pn.mu.Lock()
	defer pn.mu.Unlock()

	if pn.history != nil && pn.focusedIndex >= 0 && pn.focusedIndex < len(pn.entries) {
		pn.history.Record(dirKey(pn.path), pn.entries[pn.focusedIndex].Path.Name())
	}

	pn.path = target
	pn.entries = entries
	pn.selected = make(map[string]bool)
	pn.focusedIndex = 0
	pn.scrollOffset = 0

	wantName := fromChild
	if wantName == "" && pn.history != nil {
		if name, ok := pn.history.Lookup(dirKey(target)); ok {
			wantName = name
		}
	}
	if wantName != "" {
		for i, e := range pn.entries {
			if e.Path.Name() == wantName {
				pn.focusedIndex = i
				break
			}
		}
	}
	pn.clampScroll()
	return nil
}

func (pn *Pane) sortOptsSnapshot() listing.Options {
	pn.mu.Lock()
	defer pn.mu.Unlock()
	return pn.sortOpts
}

func (pn *Pane) cacheSnapshot() listing.Cache {
	pn.mu.Lock()
	defer pn.mu.Unlock()
	return pn.cache
}

// SetSortOptions updates the active sort/filter rule and re-sorts the
// already-listed entries in place (no new Iterdir round trip).
func (pn *Pane) SetSortOptions(opts listing.Options) {
	pn.mu.Lock()
	defer pn.mu.Unlock()
	pn.sortOpts = opts
	listing.Sort(pn.entries, opts)
}

// Path returns the pane's current directory.
func (pn *Pane) Path() vpath.Path {
	pn.mu.Lock()
	defer pn.mu.Unlock()
	return pn.path
}

// Entries returns a snapshot of the pane's current listing.
func (pn *Pane) Entries() []listing.Entry {
	pn.mu.Lock()
	defer pn.mu.Unlock()
	out := make([]listing.Entry, len(pn.entries))
	copy(out, pn.entries)
	return out
}

// FocusedIndex returns the current cursor position.
func (pn *Pane) FocusedIndex() int {
	pn.mu.Lock()
	defer pn.mu.Unlock()
	return pn.focusedIndex
}

// Focused returns the entry under the cursor, or (Entry{}, false) for an
// empty directory.
func (pn *Pane) Focused() (listing.Entry, bool) {
	pn.mu.Lock()
	defer pn.mu.Unlock()
	if pn.focusedIndex < 0 || pn.focusedIndex >= len(pn.entries) {
		return listing.Entry{}, false
	}
	return pn.entries[pn.focusedIndex], true
}

// MoveCursor shifts the focus by delta, clamped to [0, len(files)), and
// scrolls the viewport to keep it visible with a small margin (spec.md
// §4.3). It does not write to CursorHistory — cursor positions persist
// "before navigating away, not on
// each cursor movement" in spec.md's words, so persistence lives in
// Navigate, not here.
func (pn *Pane) MoveCursor(delta int) {
	pn.mu.Lock()
	defer pn.mu.Unlock()
	if len(pn.entries) == 0 {
		return
	}
	next := pn.focusedIndex + delta
	if next < 0 {
		next = 0
	}
	if next > len(pn.entries)-1 {
		next = len(pn.entries) - 1
	}
	pn.focusedIndex = next
	pn.clampScroll()
}

// scrollMargin is the number of rows of lookahead kept visible above/below
// the cursor, matching spec.md §4.3's "configurable margin" (fixed here;
// internal/ui's layer wiring can recompute and re-set viewportLines per
// resize).
const scrollMargin = 2

func (pn *Pane) clampScroll() {
	if pn.viewportLines <= 0 {
		return
	}
	if pn.focusedIndex < pn.scrollOffset+scrollMargin {
		pn.scrollOffset = pn.focusedIndex - scrollMargin
	}
	if pn.focusedIndex > pn.scrollOffset+pn.viewportLines-1-scrollMargin {
		pn.scrollOffset = pn.focusedIndex - pn.viewportLines + 1 + scrollMargin
	}
	maxOffset := len(pn.entries) - pn.viewportLines
	if maxOffset < 0 {
		maxOffset = 0
	}
	if pn.scrollOffset > maxOffset {
		pn.scrollOffset = maxOffset
	}
	if pn.scrollOffset < 0 {
		pn.scrollOffset = 0
	}
}

// ScrollOffset returns the index of the first visible entry.
func (pn *Pane) ScrollOffset() int {
	pn.mu.Lock()
	defer pn.mu.Unlock()
	return pn.scrollOffset
}

// ToggleSelect flips the focused entry's selection membership.
func (pn *Pane) ToggleSelect() {
	pn.mu.Lock()
	defer pn.mu.Unlock()
	if pn.focusedIndex < 0 || pn.focusedIndex >= len(pn.entries) {
		return
	}
	pn.toggleLocked(pn.entries[pn.focusedIndex].Path.Name())
}

func (pn *Pane) toggleLocked(name string) {
	if pn.selected[name] {
		delete(pn.selected, name)
	} else {
		pn.selected[name] = true
	}
}

// ToggleSelectAllFiles inverts selection membership for every
// non-directory entry, leaving directories untouched.
func (pn *Pane) ToggleSelectAllFiles() {
	pn.mu.Lock()
	defer pn.mu.Unlock()
	for _, e := range pn.entries {
		if !e.Stat.IsDir {
			pn.toggleLocked(e.Path.Name())
		}
	}
}

// ToggleSelectAllItems inverts selection membership for every entry,
// files and directories alike.
func (pn *Pane) ToggleSelectAllItems() {
	pn.mu.Lock()
	defer pn.mu.Unlock()
	for _, e := range pn.entries {
		pn.toggleLocked(e.Path.Name())
	}
}

// SelectedPaths returns the currently selected children, in listing order.
func (pn *Pane) SelectedPaths() []vpath.Path {
	pn.mu.Lock()
	defer pn.mu.Unlock()
	var out []vpath.Path
	names := make([]string, 0, len(pn.selected))
	for n := range pn.selected {
		names = append(names, n)
	}
	sort.Strings(names)
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	for _, e := range pn.entries {
		if wanted[e.Path.Name()] {
			out = append(out, e.Path)
		}
	}
	return out
}

// Refresh re-lists the current directory, purges selections for entries
// that no longer exist, and preserves focus by name when possible, else by
// index clamped to the new valid range (spec.md §4.3).
func (pn *Pane) Refresh(ctx context.Context) error {
	pn.mu.Lock()
	dir := pn.path
	opts := pn.sortOpts
	c := pn.cache
	var focusedName string
	if pn.focusedIndex >= 0 && pn.focusedIndex < len(pn.entries) {
		focusedName = pn.entries[pn.focusedIndex].Path.Name()
	}
	pn.mu.Unlock()

	entries, err := listing.List(ctx, dir, opts, c)
	if err != nil {
		return err
	}

	pn.mu.Lock()
	defer pn.mu.Unlock()
	pn.entries = entries
	stillPresent := make(map[string]bool, len(entries))
	for _, e := range entries {
		stillPresent[e.Path.Name()] = true
	}
	for name := range pn.selected {
		if !stillPresent[name] {
			delete(pn.selected, name)
		}
	}
	pn.focusedIndex = 0
	for i, e := range entries {
		if e.Path.Name() == focusedName {
			pn.focusedIndex = i
			break
		}
	}
	if pn.focusedIndex > len(entries)-1 {
		pn.focusedIndex = len(entries) - 1
	}
	if pn.focusedIndex < 0 {
		pn.focusedIndex = 0
	}
	pn.clampScroll()
	return nil
}
