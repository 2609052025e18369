package statestore_test

import (
	"path/filepath"
	"testing"

	"github.com/shimomut/tfm-sub010/internal/listing"
	"github.com/shimomut/tfm-sub010/internal/statestore"
)

func openTestStore(t *testing.T) *statestore.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "state.db")
	s, err := statestore.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCursorHistoryRoundTrip(t *testing.T) {
	s := openTestStore(t)
	if _, ok := s.Lookup("/some/dir"); ok {
		t.Fatal("expected no history before Record")
	}
	s.Record("/some/dir", "file.txt")
	name, ok := s.Lookup("/some/dir")
	if !ok || name != "file.txt" {
		t.Fatalf("Lookup = (%q, %v), want (file.txt, true)", name, ok)
	}
}

func TestPanePathRoundTrip(t *testing.T) {
	s := openTestStore(t)
	s.SetPanePath("left", "/home/user/projects")
	path, ok := s.PanePath("left")
	if !ok || path != "/home/user/projects" {
		t.Fatalf("PanePath = (%q, %v), want (/home/user/projects, true)", path, ok)
	}
	if _, ok := s.PanePath("right"); ok {
		t.Fatal("expected no path recorded for right pane")
	}
}

func TestSortOptionsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	opts := listing.Options{
		ShowHidden:    true,
		FilterPattern: "*.go",
		SortMode:      listing.SortBySize,
		Reverse:       true,
	}
	if err := s.SetSortOptions("/some/dir", opts); err != nil {
		t.Fatal(err)
	}
	got, ok := s.SortOptions("/some/dir")
	if !ok {
		t.Fatal("expected persisted sort options")
	}
	if got != opts {
		t.Fatalf("SortOptions = %+v, want %+v", got, opts)
	}
}

func TestFavoritesAddAndRemove(t *testing.T) {
	s := openTestStore(t)
	if err := s.AddFavorite(statestore.Favorite{Name: "Home", Path: "/home/user"}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddFavorite(statestore.Favorite{Name: "Projects", Path: "/home/user/projects"}); err != nil {
		t.Fatal(err)
	}
	favs, err := s.Favorites()
	if err != nil {
		t.Fatal(err)
	}
	if len(favs) != 2 {
		t.Fatalf("Favorites() = %v, want 2 entries", favs)
	}
	if err := s.RemoveFavorite("Home"); err != nil {
		t.Fatal(err)
	}
	favs, err = s.Favorites()
	if err != nil {
		t.Fatal(err)
	}
	if len(favs) != 1 || favs[0].Name != "Projects" {
		t.Fatalf("Favorites() after remove = %v, want only Projects", favs)
	}
}

func TestOpenReturnsSharedInstanceForSamePath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")
	s1, err := statestore.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s1.Close()
	s2, err := statestore.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if s1 != s2 {
		t.Fatal("Open with the same dbPath should return the shared Store instance")
	}
}
