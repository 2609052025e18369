package listing_test

import (
	"context"
	"testing"

	"golang.org/x/text/unicode/norm"

	"github.com/shimomut/tfm-sub010/internal/listing"
	"github.com/shimomut/tfm-sub010/internal/vpath"
	"github.com/shimomut/tfm-sub010/internal/vpath/memfs"
)

func newDir(t *testing.T, names ...string) vpath.Path {
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
	return root
}

// TestNaturalSortScenario is spec.md §8 scenario 2, verbatim.
func TestNaturalSortScenario(t *testing.T) {
	dir := newDir(t, "File10.txt", "File2.txt", "File1.txt", "file10.txt")
	entries, err := listing.List(context.Background(), dir, listing.Options{ShowHidden: true, SortMode: listing.SortByName}, nil)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.Path.Name())
	}
	want := []string{"File1.txt", "File2.txt", "file10.txt", "File10.txt"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestDirectoriesAlwaysPrecedeFiles(t *testing.T) {
	reg := vpath.NewRegistry()
	reg.SetLocal(memfs.New(vpath.SchemeLocal))
	root, _ := vpath.Parse(reg, "/d")
	ctx := context.Background()
	if err := root.Join("zzz_file.txt").WriteText(ctx, "x"); err != nil {
		t.Fatal(err)
	}
	if err := root.Join("aaa_dir").Mkdir(ctx); err != nil {
		t.Fatal(err)
	}
	entries, err := listing.List(ctx, root, listing.Options{ShowHidden: true, SortMode: listing.SortByName}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || !entries[0].Stat.IsDir {
		t.Fatalf("directories-first violated: %+v", entries)
	}
}

func TestHiddenFilesExcludedByDefault(t *testing.T) {
	dir := newDir(t, ".hidden", "visible.txt")
	entries, err := listing.List(context.Background(), dir, listing.Options{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Path.Name() != "visible.txt" {
		t.Fatalf("hidden-file filtering failed: %+v", entries)
	}
}

func TestFilterPattern(t *testing.T) {
	dir := newDir(t, "a.go", "b.go", "c.txt")
	entries, err := listing.List(context.Background(), dir, listing.Options{ShowHidden: true, FilterPattern: "*.go"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("filter pattern failed: %+v", entries)
	}
}

// TestNFDFilenameComparesAsNFC builds the same conceptual name two ways —
// precomposed (NFC, an e-acute as a single rune) and decomposed (NFD, a
// plain "e" followed by a combining acute accent rune, the way HFS+ hands
// filenames back) — and checks the comparator treats them as equal once
// both are normalized to NFC, per spec.md §4.2.
func TestNFDFilenameComparesAsNFC(t *testing.T) {
	combiningAcute := "́"
	nfdForm := "e" + combiningAcute + "cole.txt"
	nfcForm := norm.NFC.String(nfdForm)
	if nfdForm == nfcForm {
		t.Fatal("test fixture error: decomposed and composed forms should differ before normalization")
	}
	a := norm.NFC.String(nfdForm)
	b := norm.NFC.String(nfcForm)
	if listing.NaturalLess(a, b) || listing.NaturalLess(b, a) {
		t.Errorf("normalized equal names must not compare as less-than either way")
	}
}
