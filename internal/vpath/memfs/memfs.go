// Package memfs is an in-memory vpath.Backend test double, mirroring
// rclone's own in-memory fs fake referenced from fs/object_test.go. It
// exists so internal/pane, internal/task, and internal/listing tests can
// exercise Path without touching the OS filesystem, SSH, or S3.
package memfs

import (
	"context"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shimomut/tfm-sub010/internal/fserrors"
	"github.com/shimomut/tfm-sub010/internal/vpath"
)

// Backend is a thread-safe in-memory filesystem keyed by posix path.
type Backend struct {
	scheme   vpath.Scheme
	readOnly bool

	mu    sync.Mutex
	dirs  map[string]bool
	files map[string][]byte
	mtime map[string]time.Time
}

// New returns an empty in-memory backend. scheme lets tests exercise
// scheme-dependent behavior (e.g. IsRemote) without a real remote backend.
func New(scheme vpath.Scheme) *Backend {
	return &Backend{
		scheme: scheme,
		dirs:   map[string]bool{"": true},
		files:  map[string][]byte{},
		mtime:  map[string]time.Time{},
	}
}

// SetReadOnly configures Exists/Stat/Iterdir as usual but rejects mutation,
// exercising the same ErrReadOnly path archivefs.Backend does.
func (b *Backend) SetReadOnly(ro bool) { b.readOnly = ro }

func (b *Backend) Scheme() vpath.Scheme { return b.scheme }
func (b *Backend) ReadOnly() bool       { return b.readOnly }

func clean(raw string) string {
	raw = strings.Trim(raw, "/")
	if raw == "." {
		return ""
	}
	return raw
}

func (b *Backend) Exists(ctx context.Context, raw string) bool {
	raw = clean(raw)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dirs[raw] {
		return true
	}
	_, ok := b.files[raw]
	return ok
}

func (b *Backend) Stat(ctx context.Context, raw string) (vpath.Stat, error) {
	raw = clean(raw)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dirs[raw] {
		return vpath.Stat{IsDir: true, ModTime: b.mtime[raw]}, nil
	}
	if content, ok := b.files[raw]; ok {
		return vpath.Stat{Size: int64(len(content)), IsFile: true, ModTime: b.mtime[raw]}, nil
	}
	return vpath.Stat{}, fserrors.NotFound(raw, nil)
}

func (b *Backend) Iterdir(ctx context.Context, raw string) ([]vpath.Entry, error) {
	raw = clean(raw)
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.dirs[raw] {
		return nil, fserrors.NotFound(raw, nil)
	}
	seen := map[string]bool{}
	var entries []vpath.Entry
	add := func(name string, st vpath.Stat) {
		if seen[name] {
			return
		}
		seen[name] = true
		entries = append(entries, vpath.Entry{Name: name, Stat: st})
	}
	for dir := range b.dirs {
		if dir == "" || dir == raw {
			continue
		}
		if path.Dir(dir) == raw || (raw == "" && !strings.Contains(dir, "/")) {
			add(path.Base(dir), vpath.Stat{IsDir: true, ModTime: b.mtime[dir]})
		}
	}
	for file, content := range b.files {
		parent := path.Dir(file)
		if parent == "." {
			parent = ""
		}
		if parent == raw {
			add(path.Base(file), vpath.Stat{Size: int64(len(content)), IsFile: true, ModTime: b.mtime[file]})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (b *Backend) Open(ctx context.Context, raw string, mode vpath.OpenMode) (io.ReadWriteCloser, error) {
	raw = clean(raw)
	if mode == vpath.ModeWrite {
		if b.readOnly {
			return nil, fserrors.ReadOnly(raw)
		}
		return &memWriter{b: b, name: raw}, nil
	}
	b.mu.Lock()
	content, ok := b.files[raw]
	b.mu.Unlock()
	if !ok {
		return nil, fserrors.NotFound(raw, nil)
	}
	return &memReader{Reader: strings.NewReader(string(content))}, nil
}

type memReader struct{ *strings.Reader }

func (memReader) Write(p []byte) (int, error) { return 0, fserrors.ReadOnly("memfs read stream") }
func (memReader) Close() error                { return nil }

type memWriter struct {
	b    *Backend
	name string
	buf  []byte
}

func (w *memWriter) Read(p []byte) (int, error) {
	return 0, fserrors.InvalidArgument("memfs write stream", nil)
}
func (w *memWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}
func (w *memWriter) Close() error {
	w.b.mu.Lock()
	defer w.b.mu.Unlock()
	for dir := path.Dir(w.name); dir != "." && dir != ""; dir = path.Dir(dir) {
		w.b.dirs[dir] = true
	}
	w.b.files[w.name] = w.buf
	w.b.mtime[w.name] = time.Now()
	return nil
}

func (b *Backend) Rename(ctx context.Context, raw, rawTarget string) error {
	raw, rawTarget = clean(raw), clean(rawTarget)
	if b.readOnly {
		return fserrors.ReadOnly(raw)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if content, ok := b.files[raw]; ok {
		delete(b.files, raw)
		b.files[rawTarget] = content
		b.mtime[rawTarget] = b.mtime[raw]
		return nil
	}
	if b.dirs[raw] {
		delete(b.dirs, raw)
		b.dirs[rawTarget] = true
		return nil
	}
	return fserrors.NotFound(raw, nil)
}

func (b *Backend) Unlink(ctx context.Context, raw string) error {
	raw = clean(raw)
	if b.readOnly {
		return fserrors.ReadOnly(raw)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.files[raw]; !ok {
		return fserrors.NotFound(raw, nil)
	}
	delete(b.files, raw)
	delete(b.mtime, raw)
	return nil
}

func (b *Backend) Rmdir(ctx context.Context, raw string) error {
	raw = clean(raw)
	if b.readOnly {
		return fserrors.ReadOnly(raw)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.dirs[raw] {
		return fserrors.NotFound(raw, nil)
	}
	for other := range b.dirs {
		if other != raw && path.Dir(other) == raw {
			return fserrors.PermissionDenied(raw, nil)
		}
	}
	for file := range b.files {
		if path.Dir(file) == raw {
			return fserrors.PermissionDenied(raw, nil)
		}
	}
	delete(b.dirs, raw)
	return nil
}

func (b *Backend) Mkdir(ctx context.Context, raw string) error {
	raw = clean(raw)
	if b.readOnly {
		return fserrors.ReadOnly(raw)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dirs[raw] = true
	b.mtime[raw] = time.Now()
	return nil
}
