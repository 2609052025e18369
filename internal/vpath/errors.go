package vpath

import "errors"

// ErrConflict is returned by CopyTo when overwrite is false and the
// destination already exists. Callers (the operation executor) resolve
// this through the conflict dialog contract (spec.md §4.6) rather than
// surfacing it directly.
var ErrConflict = errors.New("destination exists")
