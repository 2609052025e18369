// Package cache implements the cache coordinator from spec.md §4.4: a
// thread-safe, per-backend TTL cache for stat and listing results, with
// an invalidation policy that walks a mutated path up to its owning
// backend. Entries leave a store only when their TTL expires or they are
// invalidated; the stores have no size bound and no LRU eviction. Local paths are never cached (OS calls are cheap); only
// remote/archive backends get one cache instance each, adapted from the
// directory-entry invalidation conventions in backend/cache/cache.go.
package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/shimomut/tfm-sub010/internal/vpath"
)

const (
	defaultTTL      = 30 * time.Second
	cleanupInterval = time.Minute
)

type entryKind int

const (
	kindStat entryKind = iota
	kindListing
)

type listingEntry struct {
	children []vpath.Path
}

// Coordinator is the application-wide cache coordinator. One Coordinator
// serves every backend; internally it keeps one gocache.Cache per backend
// identity so each remote's entries are stored and expired separately.
type Coordinator struct {
	mu     sync.Mutex
	stores map[string]*gocache.Cache
}

// New builds an empty Coordinator.
func New() *Coordinator {
	return &Coordinator{stores: make(map[string]*gocache.Cache)}
}

// backendKey identifies which backend instance owns p, for cache
// partitioning. Local paths return "" — the sentinel meaning "do not
// cache" — since OS filesystem calls are cheap (spec.md §4.4).
func backendKey(p vpath.Path) string {
	switch p.Scheme() {
	case vpath.SchemeLocal:
		return ""
	case vpath.SchemeSSH:
		return "ssh:" + p.Host()
	case vpath.SchemeS3:
		return "s3"
	case vpath.SchemeArchive:
		return "archive:" + p.Container().String()
	default:
		return ""
	}
}

func (c *Coordinator) storeFor(key string) *gocache.Cache {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.stores[key]
	if !ok {
		s = gocache.New(defaultTTL, cleanupInterval)
		c.stores[key] = s
	}
	return s
}

func cacheKey(kind entryKind, canonical string) string {
	if kind == kindListing {
		return "listing:" + canonical
	}
	return "stat:" + canonical
}

// Stat returns p's Stat, transparently caching the result for remote and
// archive backends.
func (c *Coordinator) Stat(ctx context.Context, p vpath.Path) (vpath.Stat, error) {
	bk := backendKey(p)
	if bk == "" {
		return p.Stat(ctx)
	}
	store := c.storeFor(bk)
	key := cacheKey(kindStat, p.String())
	if v, ok := store.Get(key); ok {
		return v.(vpath.Stat), nil
	}
	st, err := p.Stat(ctx)
	if err != nil {
		return st, err
	}
	store.SetDefault(key, st)
	return st, nil
}

// Iterdir returns p's children, transparently caching the listing for
// remote and archive backends. Population is a side effect the way
// spec.md §4.4 requires: each child's Stat is seeded into the cache too,
// so a later Stat(child) call hits the cache without its own round trip.
func (c *Coordinator) Iterdir(ctx context.Context, p vpath.Path) ([]vpath.Path, error) {
	bk := backendKey(p)
	if bk == "" {
		return p.Iterdir(ctx)
	}
	store := c.storeFor(bk)
	key := cacheKey(kindListing, p.String())
	if v, ok := store.Get(key); ok {
		return v.(listingEntry).children, nil
	}
	children, err := p.Iterdir(ctx)
	if err != nil {
		return nil, err
	}
	store.SetDefault(key, listingEntry{children: children})
	for _, child := range children {
		if st, err := child.Stat(ctx); err == nil {
			store.SetDefault(cacheKey(kindStat, child.String()), st)
		}
	}
	return children, nil
}

// Invalidate expires p's own cache entry and its parent directory's
// listing entry — the "walked up to the nearest remote-backend directory"
// rule from spec.md §4.4. A no-op for local paths.
func (c *Coordinator) Invalidate(paths []vpath.Path, reason string) {
	for _, p := range paths {
		bk := backendKey(p)
		if bk == "" {
			continue
		}
		store := c.storeFor(bk)
		store.Delete(cacheKey(kindStat, p.String()))
		store.Delete(cacheKey(kindListing, p.String()))
		store.Delete(cacheKey(kindListing, p.Parent().String()))
		store.Delete(cacheKey(kindStat, p.Parent().String()))
	}
}

// OpKind names the mutating operations InvalidateForOperation understands.
type OpKind int

const (
	OpCopy OpKind = iota
	OpMove
	OpDelete
	OpArchiveCreate
	OpArchiveExtract
)

// InvalidateForOperation is the convenience wrapper spec.md §4.4 calls for,
// so task executors don't have to enumerate invalidation points themselves.
func (c *Coordinator) InvalidateForOperation(op OpKind, sources []vpath.Path, destination vpath.Path) {
	switch op {
	case OpDelete:
		c.Invalidate(sources, "delete")
	case OpCopy, OpArchiveCreate, OpArchiveExtract:
		c.Invalidate([]vpath.Path{destination}, "write")
	case OpMove:
		c.Invalidate(sources, "move-source")
		c.Invalidate([]vpath.Path{destination}, "move-destination")
	}
}
