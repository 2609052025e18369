// Package statestore persists cross-session UI state — cursor history, each
// pane's last directory, per-directory sort/filter options, and favorite
// directories — in a single bbolt file, adapted directly from
// backend/cache/storage_persistent.go's connect/bucket-per-concern shape.
package statestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	pkgerrors "github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/shimomut/tfm-sub010/internal/listing"
)

// Bucket names, one per concern, mirroring the teacher's RootBucket/
// RootTsBucket/DataTsBucket split.
const (
	bucketCursorHistory = "cursor_history"
	bucketPanePaths     = "pane_paths"
	bucketSortOptions   = "sort_options"
	bucketFavorites     = "favorites"
)

var (
	storeMap   = make(map[string]*Store)
	storeMapMx sync.Mutex
)

// Store is a single bbolt-backed state file. One Store instance is shared
// process-wide per dbPath, the same pattern backend/cache/storage_persistent.go
// uses for its boltMap.
type Store struct {
	dbPath string
	mu     sync.Mutex
	db     *bolt.DB
}

// DefaultPath returns ~/.tfm/state.db, creating ~/.tfm if needed.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", pkgerrors.Wrap(err, "failed to resolve home directory")
	}
	dir := filepath.Join(home, ".tfm")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to create state directory %q", dir)
	}
	return filepath.Join(dir, "state.db"), nil
}

// Open returns the shared Store for dbPath, connecting it if this is the
// first caller — mirrors backend/cache/storage_persistent.go's GetPersistent.
func Open(dbPath string) (*Store, error) {
	storeMapMx.Lock()
	defer storeMapMx.Unlock()
	if s, ok := storeMap[dbPath]; ok {
		return s, nil
	}
	s := &Store{dbPath: dbPath}
	if err := s.connect(); err != nil {
		return nil, err
	}
	storeMap[dbPath] = s
	return s, nil
}

func (s *Store) connect() error {
	db, err := bolt.Open(s.dbPath, 0600, nil)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open state store %q", s.dbPath)
	}
	s.db = db
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketCursorHistory, bucketPanePaths, bucketSortOptions, bucketFavorites} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close releases the underlying bbolt file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func (s *Store) getString(bucket, key string) (string, bool) {
	var val string
	var ok bool
	_ = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		v := b.Get([]byte(key))
		if v != nil {
			val, ok = string(v), true
		}
		return nil
	})
	return val, ok
}

func (s *Store) putString(bucket, key, val string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucket)).Put([]byte(key), []byte(val))
	})
}

// Lookup implements pane.CursorHistory: the entry name last focused inside
// the directory identified by dirKey.
func (s *Store) Lookup(dirKey string) (string, bool) {
	return s.getString(bucketCursorHistory, dirKey)
}

// Record implements pane.CursorHistory.
func (s *Store) Record(dirKey, name string) {
	_ = s.putString(bucketCursorHistory, dirKey, name)
}

// PanePath returns the last path a given side (pane.Side, passed as its
// string form to keep this package independent of internal/pane) was left
// at, for restoring panes across sessions.
func (s *Store) PanePath(side string) (string, bool) {
	return s.getString(bucketPanePaths, side)
}

// SetPanePath records the path a side was left at.
func (s *Store) SetPanePath(side, path string) {
	_ = s.putString(bucketPanePaths, side, path)
}

// persistedSortOptions is the JSON encoding of listing.Options saved per
// directory key.
type persistedSortOptions struct {
	ShowHidden    bool             `json:"show_hidden"`
	FilterPattern string           `json:"filter_pattern"`
	SortMode      listing.SortMode `json:"sort_mode"`
	Reverse       bool             `json:"reverse"`
}

// SortOptions returns the persisted listing.Options for dirKey, if any.
func (s *Store) SortOptions(dirKey string) (listing.Options, bool) {
	raw, ok := s.getString(bucketSortOptions, dirKey)
	if !ok {
		return listing.Options{}, false
	}
	var p persistedSortOptions
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return listing.Options{}, false
	}
	return listing.Options{
		ShowHidden:    p.ShowHidden,
		FilterPattern: p.FilterPattern,
		SortMode:      p.SortMode,
		Reverse:       p.Reverse,
	}, true
}

// SetSortOptions persists opts for dirKey.
func (s *Store) SetSortOptions(dirKey string, opts listing.Options) error {
	p := persistedSortOptions{
		ShowHidden:    opts.ShowHidden,
		FilterPattern: opts.FilterPattern,
		SortMode:      opts.SortMode,
		Reverse:       opts.Reverse,
	}
	encoded, err := json.Marshal(p)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to marshal sort options")
	}
	return s.putString(bucketSortOptions, dirKey, string(encoded))
}

// Favorite is a named shortcut directory, the Go form of the original
// tool's FAVORITE_DIRECTORIES config entries.
type Favorite struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Favorites returns all persisted favorite directories, ordered by name
// (bbolt iterates a bucket's keys in byte order).
func (s *Store) Favorites() ([]Favorite, error) {
	var out []Favorite
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketFavorites))
		return b.ForEach(func(k, v []byte) error {
			var f Favorite
			if err := json.Unmarshal(v, &f); err != nil {
				return err
			}
			out = append(out, f)
			return nil
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read favorites")
	}
	return out, nil
}

// AddFavorite persists a favorite directory keyed by name, overwriting any
// existing favorite with the same name.
func (s *Store) AddFavorite(f Favorite) error {
	encoded, err := json.Marshal(f)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to marshal favorite")
	}
	return s.putString(bucketFavorites, f.Name, string(encoded))
}

// RemoveFavorite deletes the favorite with the given name, if present.
func (s *Store) RemoveFavorite(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketFavorites)).Delete([]byte(name))
	})
}
