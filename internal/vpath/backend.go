package vpath

import (
	"context"
	"io"
)

// OpenMode selects how Backend.Open should return its stream.
type OpenMode int

const (
	// ModeRead opens for reading text or bytes ("r"/"rb").
	ModeRead OpenMode = iota
	// ModeWrite opens for writing, truncating any existing content
	// ("w"/"wb").
	ModeWrite
)

// Backend is the capability set every storage scheme implements. Path
// dispatches every operation to the Backend selected by its scheme; no
// higher layer may branch on scheme (spec.md §4.1, "Polymorphism
// requirement").
//
// All methods take the backend-relative path string (the part of the URI
// after the scheme and backend key) rather than a Path, so backends never
// need to know about other schemes.
type Backend interface {
	// Scheme reports the URI scheme this Backend serves.
	Scheme() Scheme

	// ReadOnly reports whether this backend instance rejects all
	// mutating operations (true for archive containers).
	ReadOnly() bool

	// Exists reports whether raw refers to an existing entity. Transport
	// or permission failures are reported as false, never as an error.
	Exists(ctx context.Context, raw string) bool

	// Stat returns attributes for raw. Returns a fserrors-tagged error
	// (NotFound, NetworkError, PermissionDenied) on failure.
	Stat(ctx context.Context, raw string) (Stat, error)

	// Iterdir lists the direct children of raw in backend-native order.
	// "." and ".." must never appear in the result.
	Iterdir(ctx context.Context, raw string) ([]Entry, error)

	// Open returns a stream for raw. Read mode is supported by every
	// backend; write mode is rejected with ErrReadOnly by read-only
	// backends (archive entries).
	Open(ctx context.Context, raw string, mode OpenMode) (io.ReadWriteCloser, error)

	// Rename moves raw to rawTarget within this same backend instance.
	// Callers handle CrossBackend renames themselves via copy+unlink.
	Rename(ctx context.Context, raw, rawTarget string) error

	// Unlink deletes the file at raw.
	Unlink(ctx context.Context, raw string) error

	// Rmdir deletes the empty directory at raw. Must fail (not silently
	// succeed) if raw is non-empty.
	Rmdir(ctx context.Context, raw string) error

	// Mkdir creates the directory at raw, including any marker objects
	// a backend needs (e.g. S3's empty "key/" object).
	Mkdir(ctx context.Context, raw string) error
}

// Entry is one child yielded by Iterdir: enough to build a child Path
// without a second Stat round-trip, and to populate the cache coordinator
// eagerly (spec.md §4.4 "Population is a side effect of operations").
type Entry struct {
	Name string
	Stat Stat
}
