package vpath_test

import (
	"context"
	"testing"

	"github.com/shimomut/tfm-sub010/internal/fserrors"
	"github.com/shimomut/tfm-sub010/internal/vpath"
	"github.com/shimomut/tfm-sub010/internal/vpath/memfs"
)

func newTestRegistry() *vpath.Registry {
	reg := vpath.NewRegistry()
	reg.SetLocal(memfs.New(vpath.SchemeLocal))
	reg.SetSSHFactory(func(alias string) (vpath.Backend, error) { return memfs.New(vpath.SchemeSSH), nil })
	return reg
}

func TestParseRoundTrip(t *testing.T) {
	reg := newTestRegistry()
	cases := []string{
		"/tmp/foo/bar",
		"ssh://myhost/home/user",
		"s3://bucket/key/path",
	}
	for _, s := range cases {
		p, err := vpath.Parse(reg, s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if got := p.String(); got != s {
			t.Errorf("String() round trip: got %q want %q", got, s)
		}
	}
}

func TestUnknownSchemeFallsBackToLocal(t *testing.T) {
	reg := newTestRegistry()
	p, err := vpath.Parse(reg, "/etc/hosts")
	if err != nil {
		t.Fatal(err)
	}
	if p.Scheme() != vpath.SchemeLocal {
		t.Errorf("Scheme() = %v, want SchemeLocal", p.Scheme())
	}
}

func TestNameSuffixParent(t *testing.T) {
	reg := newTestRegistry()
	p, err := vpath.Parse(reg, "/a/b/c.txt")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "c.txt" {
		t.Errorf("Name() = %q", p.Name())
	}
	if p.Suffix() != ".txt" {
		t.Errorf("Suffix() = %q", p.Suffix())
	}
	if got := p.Parent().String(); got != "/a/b" {
		t.Errorf("Parent() = %q", got)
	}
}

// TestCountFilesPolymorphic is spec.md §8 scenario 1: counting files must
// give the same answer regardless of backend, because it is implemented
// once against the Path/Backend abstraction rather than per-scheme.
func TestCountFilesPolymorphic(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry()

	for _, root := range []string{"/data", "remote"} {
		var p vpath.Path
		var err error
		if root == "remote" {
			p, err = vpath.Parse(reg, "ssh://myhost/data")
		} else {
			p, err = vpath.Parse(reg, root)
		}
		if err != nil {
			t.Fatal(err)
		}
		for _, name := range []string{"a.txt", "sub/b.txt", "sub/deeper/c.txt"} {
			if err := p.Join(name).WriteText(ctx, "x"); err != nil {
				t.Fatalf("WriteText(%s): %v", name, err)
			}
		}
		n, err := p.CountFiles(ctx)
		if err != nil {
			t.Fatalf("CountFiles: %v", err)
		}
		if n != 3 {
			t.Errorf("CountFiles(%s) = %d, want 3", root, n)
		}
	}
}

func TestCopyToConflictWithoutOverwrite(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry()
	src, _ := vpath.Parse(reg, "/src.txt")
	dst, _ := vpath.Parse(reg, "/dst.txt")
	if err := src.WriteText(ctx, "hello"); err != nil {
		t.Fatal(err)
	}
	if err := dst.WriteText(ctx, "existing"); err != nil {
		t.Fatal(err)
	}
	err := src.CopyTo(ctx, dst, false, nil)
	if err != vpath.ErrConflict {
		t.Fatalf("CopyTo overwrite=false: got %v, want ErrConflict", err)
	}
	if err := src.CopyTo(ctx, dst, true, nil); err != nil {
		t.Fatalf("CopyTo overwrite=true: %v", err)
	}
	got, err := dst.ReadText(ctx)
	if err != nil || got != "hello" {
		t.Errorf("dst content = %q, %v; want %q", got, err, "hello")
	}
}

func TestRenameAcrossBackendsIsCrossBackend(t *testing.T) {
	reg := newTestRegistry()
	local, _ := vpath.Parse(reg, "/a.txt")
	ssh, _ := vpath.Parse(reg, "ssh://myhost/a.txt")
	_, err := local.Rename(context.Background(), ssh)
	if !fserrors.Is(err, fserrors.ErrCrossBackend) {
		t.Fatalf("Rename across backends: got %v, want ErrCrossBackend", err)
	}
}
