package cache_test

import (
	"context"
	"testing"

	"github.com/shimomut/tfm-sub010/internal/cache"
	"github.com/shimomut/tfm-sub010/internal/vpath"
	"github.com/shimomut/tfm-sub010/internal/vpath/memfs"
)

type countingBackend struct {
	*memfs.Backend
	statCalls    int
	iterdirCalls int
}

func newCountingRegistry() (*vpath.Registry, *countingBackend) {
	reg := vpath.NewRegistry()
	local := memfs.New(vpath.SchemeLocal)
	reg.SetLocal(local)
	cb := &countingBackend{Backend: memfs.New(vpath.SchemeSSH)}
	reg.SetSSHFactory(func(alias string) (vpath.Backend, error) { return cb, nil })
	return reg, cb
}

func (c *countingBackend) Stat(ctx context.Context, raw string) (vpath.Stat, error) {
	c.statCalls++
	return c.Backend.Stat(ctx, raw)
}

func (c *countingBackend) Iterdir(ctx context.Context, raw string) ([]vpath.Entry, error) {
	c.iterdirCalls++
	return c.Backend.Iterdir(ctx, raw)
}

func TestStatIsCachedForRemoteBackend(t *testing.T) {
	reg, cb := newCountingRegistry()
	ctx := context.Background()
	p, _ := vpath.Parse(reg, "ssh://host/file.txt")
	if err := p.WriteText(ctx, "x"); err != nil {
		t.Fatal(err)
	}
	co := cache.New()
	if _, err := co.Stat(ctx, p); err != nil {
		t.Fatal(err)
	}
	if _, err := co.Stat(ctx, p); err != nil {
		t.Fatal(err)
	}
	if cb.statCalls != 1 {
		t.Errorf("statCalls = %d, want 1 (second Stat should hit cache)", cb.statCalls)
	}
}

func TestInvalidateExpiresEntryAndParentListing(t *testing.T) {
	reg, cb := newCountingRegistry()
	ctx := context.Background()
	dir, _ := vpath.Parse(reg, "ssh://host/dir")
	file := dir.Join("a.txt")
	if err := file.WriteText(ctx, "x"); err != nil {
		t.Fatal(err)
	}
	co := cache.New()
	if _, err := co.Iterdir(ctx, dir); err != nil {
		t.Fatal(err)
	}
	if _, err := co.Iterdir(ctx, dir); err != nil {
		t.Fatal(err)
	}
	if cb.iterdirCalls != 1 {
		t.Fatalf("iterdirCalls = %d, want 1 before invalidation", cb.iterdirCalls)
	}
	co.Invalidate([]vpath.Path{file}, "write")
	if _, err := co.Iterdir(ctx, dir); err != nil {
		t.Fatal(err)
	}
	if cb.iterdirCalls != 2 {
		t.Errorf("iterdirCalls = %d, want 2 (invalidation should force a re-list)", cb.iterdirCalls)
	}
}

func TestLocalPathsAreNeverCached(t *testing.T) {
	reg, _ := newCountingRegistry()
	ctx := context.Background()
	p, _ := vpath.Parse(reg, "/local/file.txt")
	if err := p.WriteText(ctx, "x"); err != nil {
		t.Fatal(err)
	}
	co := cache.New()
	// Not asserting call counts (memfs.Backend has none) — this just
	// exercises the "local paths are a no-op" branch without panicking.
	if _, err := co.Stat(ctx, p); err != nil {
		t.Fatal(err)
	}
}
