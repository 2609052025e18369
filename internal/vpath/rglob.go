package vpath

import (
	"context"
	"path"
)

// DirIter is a lazy, abandonable sequence of Paths produced by Rglob.
// Implementations must support early termination without leaking file
// descriptors, SFTP handles, or S3 paginator state (spec.md §9,
// "Generators / lazy sequences") — Close, or simply letting the iterator
// be garbage collected after ctx cancellation, both stop the walk at its
// next boundary check.
type DirIter struct {
	ctx    context.Context
	cancel context.CancelFunc
	items  chan dirIterItem
	done   chan struct{}
}

type dirIterItem struct {
	path Path
	err  error
}

// Next blocks for the next match. ok is false once the walk is exhausted
// or the iterator has been closed.
func (it *DirIter) Next() (p Path, err error, ok bool) {
	item, open := <-it.items
	if !open {
		return Path{}, nil, false
	}
	return item.path, item.err, true
}

// Close abandons the walk. Safe to call multiple times and safe to call
// without draining Next() first.
func (it *DirIter) Close() {
	it.cancel()
	// Drain so the producer goroutine's blocked send (if any) unblocks
	// and observes ctx.Done() on its next boundary check.
	go func() {
		for range it.items {
		}
	}()
}

// Rglob recursively yields entries matching pattern (fnmatch-style, via
// path.Match) under p, lazily. Each backend's Iterdir is used for the walk
// — never an OS-specific directory walk — which is the polymorphism
// requirement spec.md §4.1 calls out by name: a prior bug used a
// local-only walker and undercounted remote sources (spec.md §8, scenario
// 1).
func (p Path) Rglob(ctx context.Context, pattern string) *DirIter {
	walkCtx, cancel := context.WithCancel(ctx)
	it := &DirIter{
		ctx:    walkCtx,
		cancel: cancel,
		items:  make(chan dirIterItem),
	}
	go func() {
		defer close(it.items)
		p.walk(walkCtx, pattern, it.items)
	}()
	return it
}

func (p Path) walk(ctx context.Context, pattern string, out chan<- dirIterItem) {
	if ctx.Err() != nil {
		return
	}
	children, err := p.Iterdir(ctx)
	if err != nil {
		select {
		case out <- dirIterItem{err: err}:
		case <-ctx.Done():
		}
		return
	}
	for _, child := range children {
		if ctx.Err() != nil {
			return
		}
		matched := true
		if pattern != "" {
			matched, _ = path.Match(pattern, child.Name())
		}
		if matched {
			select {
			case out <- dirIterItem{path: child}:
			case <-ctx.Done():
				return
			}
		}
		if child.IsDir(ctx) {
			child.walk(ctx, pattern, out)
		}
	}
}

// CountFiles recursively counts non-directory entries under p using
// Rglob, matching spec.md §4.6's "Counting uses rglob polymorphically".
// Cancellable via ctx; returns the partial count (>= 0) if ctx is
// cancelled mid-walk, per spec.md §8 "Counting files with cancellation
// flag set returns early with >= 0".
func (p Path) CountFiles(ctx context.Context) (int, error) {
	it := p.Rglob(ctx, "")
	defer it.Close()
	count := 0
	for {
		child, err, ok := it.Next()
		if !ok {
			break
		}
		if err != nil {
			return count, err
		}
		if !child.IsDir(ctx) {
			count++
		}
		if ctx.Err() != nil {
			return count, nil
		}
	}
	return count, nil
}
