// Package listing implements directory listing and sorting: hidden-file
// filtering, fnmatch-style pattern filtering, and the directories-first,
// natural-sort comparator from spec.md §4.2. Grounded on the same
// normalize-before-compare approach backend/local/local.go uses for NFC
// filenames, generalized here to a full comparator.
package listing

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/shimomut/tfm-sub010/internal/vpath"
)

// SortMode selects the secondary sort key within the directories-first rule.
type SortMode int

const (
	SortByName SortMode = iota
	SortBySize
	SortByDate
	SortByExt
)

// Options configures List.
type Options struct {
	ShowHidden    bool
	FilterPattern string // fnmatch-style, empty means no filtering
	SortMode      SortMode
	Reverse       bool
}

// Entry pairs a listed Path with the Stat already fetched for it during
// Iterdir, so callers don't re-stat for sorting.
type Entry struct {
	Path vpath.Path
	Stat vpath.Stat
}

// Cache is the narrow seam into the stat/listing cache coordinator, kept
// as an interface (the same narrow-interface-as-seam shape as
// pane.CursorHistory and dualpane.Coordinator) so internal/listing doesn't
// depend on internal/cache's concrete type. Implemented by
// internal/cache.Coordinator; a nil Cache means "always call the backend
// directly", which is what every local-only test in this package wants.
type Cache interface {
	Stat(ctx context.Context, p vpath.Path) (vpath.Stat, error)
	Iterdir(ctx context.Context, p vpath.Path) ([]vpath.Path, error)
}

// List lists dir's children per spec.md §4.2: iterdir, hidden filter,
// pattern filter, then the directories-first + sort-mode comparator.
// c may be nil, meaning no caching. Passing a real Cache is what makes
// spec.md §4.4's "iterdir() on remote backends populates per-entry stat
// entries so subsequent stat() calls hit the cache" actually happen: this
// is the only place entries are listed and stat'd in the whole
// application (internal/pane calls through here rather than touching
// vpath.Path directly).
func List(ctx context.Context, dir vpath.Path, opts Options, c Cache) ([]Entry, error) {
	children, err := iterdir(ctx, dir, c)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(children))
	for _, child := range children {
		name := child.Name()
		if !opts.ShowHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if opts.FilterPattern != "" {
			matched, _ := filepath.Match(opts.FilterPattern, name)
			if !matched {
				continue
			}
		}
		st, err := stat(ctx, child, c)
		if err != nil {
			continue // entry vanished between Iterdir and Stat; skip rather than fail the whole listing
		}
		entries = append(entries, Entry{Path: child, Stat: st})
	}
	Sort(entries, opts)
	return entries, nil
}

func iterdir(ctx context.Context, dir vpath.Path, c Cache) ([]vpath.Path, error) {
	if c == nil {
		return dir.Iterdir(ctx)
	}
	return c.Iterdir(ctx, dir)
}

func stat(ctx context.Context, p vpath.Path, c Cache) (vpath.Stat, error) {
	if c == nil {
		return p.Stat(ctx)
	}
	return c.Stat(ctx, p)
}

// Sort reorders entries in place per the directories-first + sort-mode
// comparator from spec.md §4.2. Exported so internal/pane can re-sort an
// already-listed pane without a fresh Iterdir round trip.
func Sort(entries []Entry, opts Options) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Stat.IsDir != b.Stat.IsDir {
			return a.Stat.IsDir // directories first, never inverted by Reverse
		}
		less := secondaryLess(a, b, opts.SortMode)
		if opts.Reverse {
			return !less
		}
		return less
	})
}

func secondaryLess(a, b Entry, mode SortMode) bool {
	switch mode {
	case SortBySize:
		if a.Stat.IsDir { // both are directories here; fall back to name
			return NaturalLess(normName(a), normName(b))
		}
		if a.Stat.Size != b.Stat.Size {
			return a.Stat.Size < b.Stat.Size
		}
		return NaturalLess(normName(a), normName(b))
	case SortByDate:
		if !a.Stat.ModTime.Equal(b.Stat.ModTime) {
			return a.Stat.ModTime.Before(b.Stat.ModTime)
		}
		return NaturalLess(normName(a), normName(b))
	case SortByExt:
		ea, eb := strings.ToLower(a.Path.Suffix()), strings.ToLower(b.Path.Suffix())
		if ea != eb {
			return ea < eb
		}
		return NaturalLess(normName(a), normName(b))
	default:
		return NaturalLess(normName(a), normName(b))
	}
}

func normName(e Entry) string {
	return norm.NFC.String(e.Path.Name())
}

// NaturalLess compares two names the way spec.md §4.2 requires: ASCII
// case-insensitive, with runs of digits compared numerically so "file2" <
// "file10". Both inputs should already be NFC-normalized by the caller so
// macOS-style decomposed (NFD) filenames compare correctly.
//
// Names that are otherwise identical under the case-insensitive, numeric
// comparison (e.g. "file10.txt" vs "File10.txt") fall back to a
// case tiebreak — lowercase before uppercase at the first position the
// two names' case disagrees — so the result is total and doesn't depend
// on backend iteration order.
func NaturalLess(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	i, j := 0, 0
	caseTiebreak := 0 // set at the first case-only difference: -1 means a<b, +1 means b<a
	for i < len(ra) && j < len(rb) {
		ca, cb := ra[i], rb[j]
		if isDigit(ca) && isDigit(cb) {
			na, consumedA := scanNumber(ra, i)
			nb, consumedB := scanNumber(rb, j)
			if na != nb {
				if len(na) != len(nb) {
					return len(na) < len(nb)
				}
				return na < nb
			}
			i += consumedA
			j += consumedB
			continue
		}
		la, lb := foldASCII(ca), foldASCII(cb)
		if la != lb {
			return la < lb
		}
		if caseTiebreak == 0 && ca != cb {
			switch {
			case isLowerASCII(ca) && isUpperASCII(cb):
				caseTiebreak = -1
			case isUpperASCII(ca) && isLowerASCII(cb):
				caseTiebreak = 1
			}
		}
		i++
		j++
	}
	if remA, remB := len(ra)-i, len(rb)-j; remA != remB {
		return remA < remB
	}
	return caseTiebreak < 0
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isLowerASCII(r rune) bool { return r >= 'a' && r <= 'z' }
func isUpperASCII(r rune) bool { return r >= 'A' && r <= 'Z' }

// scanNumber returns the digit run starting at start with leading zeros
// removed, and how many runes the run spans. Comparing two such runs by
// length and then lexically orders them numerically at any length, so an
// overlong run never overflows.
func scanNumber(rs []rune, start int) (digits string, consumed int) {
	end := start
	for end < len(rs) && isDigit(rs[end]) {
		end++
	}
	return strings.TrimLeft(string(rs[start:end]), "0"), end - start
}

// foldASCII lowercases only the ASCII range, leaving non-ASCII runes (which
// NFC normalization has already stabilized) untouched.
func foldASCII(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return unicode.ToLower(r)
	}
	return r
}
