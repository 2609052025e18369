// Package display computes on-screen column widths for filenames and other
// UI strings, normalizing to NFC first — the same norm.NFC.String call
// backend/local/local.go uses for filenames arriving from the OS, here
// applied so a NFD-decomposed name (e.g. from macOS HFS+) and its
// NFC-composed equivalent measure identically, per spec.md §4.8's NFD
// normalization contract.
package display

import (
	"sync"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

// Cache memoizes Width() results keyed on the normalized string, so a
// column-width lookup for the same visible name never re-measures.
type Cache struct {
	mu    sync.Mutex
	cache map[string]int
}

// NewCache builds an empty width cache.
func NewCache() *Cache {
	return &Cache{cache: make(map[string]int)}
}

// Normalize returns s in NFC form — callers must key any width cache on
// this normalized form per spec.md §4.8 ("implementations caching width
// calculations must key on normalized strings").
func Normalize(s string) string {
	return norm.NFC.String(s)
}

// Width returns the on-screen column width of s (East-Asian wide
// characters count as 2), normalizing and caching the result.
func (c *Cache) Width(s string) int {
	key := Normalize(s)
	c.mu.Lock()
	defer c.mu.Unlock()
	if w, ok := c.cache[key]; ok {
		return w
	}
	w := runewidth.StringWidth(key)
	c.cache[key] = w
	return w
}

// Truncate shortens s to at most maxCols display columns, appending an
// ellipsis if truncated, measuring with the same normalized width Width
// uses so truncation and layout never disagree about a string's length.
func Truncate(s string, maxCols int) string {
	s = Normalize(s)
	if runewidth.StringWidth(s) <= maxCols {
		return s
	}
	if maxCols <= 1 {
		return "…"
	}
	return runewidth.Truncate(s, maxCols-1, "") + "…"
}

// IsSingleScalar reports whether s is exactly one Unicode scalar value in
// NFC form — the contract DrawHLine/DrawVLine's char parameter must
// satisfy per spec.md §4.8 ("decomposed NFD forms MUST be rejected").
func IsSingleScalar(s string) bool {
	normalized := norm.NFC.String(s)
	runes := []rune(normalized)
	return len(runes) == 1 && normalized == s
}
