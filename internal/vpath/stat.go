package vpath

import "time"

// Stat is the uniform attribute record every backend produces, per
// spec.md §3. Remote backends synthesize Mode when the underlying
// transport doesn't expose POSIX permission bits.
type Stat struct {
	Size      int64
	ModTime   time.Time
	Mode      uint16
	IsDir     bool
	IsFile    bool
	IsSymlink bool
}
