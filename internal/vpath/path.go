// Package vpath implements the Path abstraction from spec.md §4.1: a single
// polymorphic handle spanning local, SSH/SFTP, S3, and archive (ZIP/TAR)
// storage, exposing one API that each backend implements. Higher layers
// (listing, pane, task) must never branch on scheme — they call Path
// methods only, and correctness bugs that come from doing otherwise
// (remote walks returning zero, content search failing on SSH) are exactly
// what this abstraction exists to prevent.
package vpath

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/shimomut/tfm-sub010/internal/fserrors"
)

// Scheme identifies which Backend a Path dispatches to.
type Scheme string

// The four schemes spec.md §3 defines.
const (
	SchemeLocal   Scheme = "local"
	SchemeSSH     Scheme = "ssh"
	SchemeS3      Scheme = "s3"
	SchemeArchive Scheme = "archive"
)

// Path is an opaque, immutable handle identifying a location in one of the
// four storage schemes. Every attribute below is pure; mutation never
// occurs on a Path, only on the storage reached through it.
type Path struct {
	reg    *Registry
	scheme Scheme
	host   string // ssh host alias; empty otherwise
	raw    string // backend-relative posix path ("" for scheme roots)

	// container is non-nil only for SchemeArchive: the Path (local or
	// ssh) holding the archive file itself.
	container *Path
}

// Parse builds a Path from a URI string. Unknown schemes fall back to
// local, per spec.md §4.1 ("Construction from a string parses the scheme;
// unknown schemes fall back to local").
func Parse(reg *Registry, s string) (Path, error) {
	if strings.HasPrefix(s, "ssh://") {
		rest := strings.TrimPrefix(s, "ssh://")
		slash := strings.IndexByte(rest, '/')
		if slash < 0 {
			return Path{}, fserrors.InvalidArgument(s, nil)
		}
		return Path{reg: reg, scheme: SchemeSSH, host: rest[:slash], raw: cleanPosix(rest[slash:])}, nil
	}
	if strings.HasPrefix(s, "s3://") {
		rest := strings.TrimPrefix(s, "s3://")
		return Path{reg: reg, scheme: SchemeS3, raw: strings.Trim(rest, "/")}, nil
	}
	if strings.HasPrefix(s, "archive://") {
		rest := strings.TrimPrefix(s, "archive://")
		hashIdx := strings.IndexByte(rest, '#')
		containerStr := rest
		inner := ""
		if hashIdx >= 0 {
			containerStr = rest[:hashIdx]
			inner = rest[hashIdx+1:]
		}
		container, err := Parse(reg, containerStr)
		if err != nil {
			return Path{}, err
		}
		return Path{reg: reg, scheme: SchemeArchive, raw: cleanPosix(inner), container: &container}, nil
	}
	// Strip an explicit "file://" / "local://" prefix if present, else
	// treat the whole string as a local OS path.
	s = strings.TrimPrefix(s, "file://")
	s = strings.TrimPrefix(s, "local://")
	return Path{reg: reg, scheme: SchemeLocal, raw: s}, nil
}

func cleanPosix(p string) string {
	p = strings.Trim(p, "/")
	if p == "" || p == "." {
		return ""
	}
	return path.Clean(p)
}

// String renders the Path back to its URI form.
func (p Path) String() string {
	switch p.scheme {
	case SchemeSSH:
		return "ssh://" + p.host + "/" + p.raw
	case SchemeS3:
		return "s3://" + p.raw
	case SchemeArchive:
		return "archive://" + p.container.String() + "#" + p.raw
	default:
		return p.raw
	}
}

// Scheme reports the URI scheme of p.
func (p Path) Scheme() Scheme { return p.scheme }

// Host returns the SSH host alias, or "" for every other scheme.
func (p Path) Host() string { return p.host }

// Container returns the Path holding this archive entry's container file.
// Panics if called on a non-archive Path — callers must check Scheme()
// first.
func (p Path) Container() Path {
	if p.scheme != SchemeArchive {
		panic("vpath: Container called on a non-archive Path")
	}
	return *p.container
}

// IsRemote reports whether p requires network transport (SSH or S3, or an
// archive whose container is remote).
func (p Path) IsRemote() bool {
	switch p.scheme {
	case SchemeSSH, SchemeS3:
		return true
	case SchemeArchive:
		return p.container.IsRemote()
	default:
		return false
	}
}

// Name returns the final path component, or "" at a scheme root.
func (p Path) Name() string {
	if p.raw == "" {
		return ""
	}
	return path.Base(p.raw)
}

// Suffix returns the final component's extension including the leading
// dot, or "" if there is none.
func (p Path) Suffix() string {
	name := p.Name()
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 { // no dot, or dotfile with no further extension
		return ""
	}
	return name[idx:]
}

// Parts returns the path components from the scheme root to Name(), in
// order.
func (p Path) Parts() []string {
	if p.raw == "" {
		return nil
	}
	return strings.Split(p.raw, "/")
}

// Parent returns the enclosing directory. At an archive root, Parent
// navigates out to the container path (spec.md §4.1, "Archive backend
// specifics"). At a scheme root, Parent returns p unchanged.
func (p Path) Parent() Path {
	if p.raw == "" {
		if p.scheme == SchemeArchive {
			return *p.container
		}
		return p
	}
	parent := path.Dir(p.raw)
	if parent == "." {
		parent = ""
	}
	np := p
	np.raw = parent
	return np
}

// Join appends name as a child of p.
func (p Path) Join(name string) Path {
	np := p
	if p.raw == "" {
		np.raw = strings.Trim(name, "/")
	} else {
		np.raw = p.raw + "/" + strings.Trim(name, "/")
	}
	return np
}

// WithName returns a sibling Path with the final component replaced.
func (p Path) WithName(name string) Path {
	return p.Parent().Join(name)
}

// WithSuffix returns a sibling Path whose extension is replaced by suffix
// (which should include the leading dot, or be empty to remove it).
func (p Path) WithSuffix(suffix string) Path {
	name := p.Name()
	if idx := strings.LastIndexByte(name, '.'); idx > 0 {
		name = name[:idx]
	}
	return p.WithName(name + suffix)
}

func (p Path) backend() (Backend, error) {
	if p.reg == nil {
		return nil, fserrors.InvalidArgument(p.String(), nil)
	}
	switch p.scheme {
	case SchemeLocal:
		return p.reg.Local()
	case SchemeSSH:
		return p.reg.SSH(p.host)
	case SchemeS3:
		return p.reg.S3()
	case SchemeArchive:
		return p.reg.Archive(*p.container)
	default:
		return p.reg.Local()
	}
}

// Exists reports whether p refers to an existing entity. Backend failures
// (permission, network) are reported as false, never as a panic or error,
// per spec.md §4.1.
func (p Path) Exists(ctx context.Context) bool {
	b, err := p.backend()
	if err != nil {
		return false
	}
	return b.Exists(ctx, p.raw)
}

// IsDir reports whether p is a directory. False on any failure.
func (p Path) IsDir(ctx context.Context) bool {
	st, err := p.Stat(ctx)
	return err == nil && st.IsDir
}

// IsFile reports whether p is a regular file. False on any failure.
func (p Path) IsFile(ctx context.Context) bool {
	st, err := p.Stat(ctx)
	return err == nil && st.IsFile
}

// IsSymlink reports whether p is a symbolic link. False on any failure.
func (p Path) IsSymlink(ctx context.Context) bool {
	st, err := p.Stat(ctx)
	return err == nil && st.IsSymlink
}

// Stat returns attributes for p.
func (p Path) Stat(ctx context.Context) (Stat, error) {
	b, err := p.backend()
	if err != nil {
		return Stat{}, err
	}
	return b.Stat(ctx, p.raw)
}

// Iterdir yields the direct children of p. "." and ".." are always
// filtered by the backend.
func (p Path) Iterdir(ctx context.Context) ([]Path, error) {
	b, err := p.backend()
	if err != nil {
		return nil, err
	}
	entries, err := b.Iterdir(ctx, p.raw)
	if err != nil {
		return nil, err
	}
	out := make([]Path, 0, len(entries))
	for _, e := range entries {
		out = append(out, p.Join(e.Name))
	}
	return out, nil
}

// Open returns a stream for p. mode ModeRead is supported by every
// backend; ModeWrite is rejected with ErrReadOnly on archive entries.
func (p Path) Open(ctx context.Context, mode OpenMode) (io.ReadWriteCloser, error) {
	b, err := p.backend()
	if err != nil {
		return nil, err
	}
	if mode == ModeWrite && b.ReadOnly() {
		return nil, fserrors.ReadOnly(p.String())
	}
	return b.Open(ctx, p.raw, mode)
}

// ReadText reads the whole of p as a string.
func (p Path) ReadText(ctx context.Context) (string, error) {
	r, err := p.Open(ctx, ModeRead)
	if err != nil {
		return "", err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fserrors.NetworkError(p.String(), err)
	}
	return string(data), nil
}

// WriteText writes s to p, replacing any existing content. On S3 this is
// an atomic PutObject (spec.md §4.1).
func (p Path) WriteText(ctx context.Context, s string) error {
	w, err := p.Open(ctx, ModeWrite)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, s); err != nil {
		_ = w.Close()
		return fserrors.NetworkError(p.String(), err)
	}
	return w.Close()
}

// Rename moves p to target. Atomic within the same backend when the
// backend supports it; cross-scheme renames return ErrCrossBackend and the
// caller must fall back to CopyTo + Unlink (spec.md §7).
func (p Path) Rename(ctx context.Context, target Path) (Path, error) {
	if p.scheme != target.scheme || p.host != target.host {
		return Path{}, fserrors.CrossBackend(p.String())
	}
	if p.scheme == SchemeArchive && !samePath(*p.container, *target.container) {
		return Path{}, fserrors.CrossBackend(p.String())
	}
	if p.raw == target.raw {
		return p, nil // rename to same name is a no-op, spec.md §8
	}
	b, err := p.backend()
	if err != nil {
		return Path{}, err
	}
	if err := b.Rename(ctx, p.raw, target.raw); err != nil {
		return Path{}, err
	}
	return target, nil
}

func samePath(a, b Path) bool {
	return a.scheme == b.scheme && a.host == b.host && a.raw == b.raw
}

// Unlink deletes the file at p.
func (p Path) Unlink(ctx context.Context) error {
	b, err := p.backend()
	if err != nil {
		return err
	}
	if b.ReadOnly() {
		return fserrors.ReadOnly(p.String())
	}
	return b.Unlink(ctx, p.raw)
}

// Rmdir deletes the empty directory at p. Fails if non-empty.
func (p Path) Rmdir(ctx context.Context) error {
	b, err := p.backend()
	if err != nil {
		return err
	}
	if b.ReadOnly() {
		return fserrors.ReadOnly(p.String())
	}
	return b.Rmdir(ctx, p.raw)
}

// Mkdir creates the directory at p.
func (p Path) Mkdir(ctx context.Context) error {
	b, err := p.backend()
	if err != nil {
		return err
	}
	if b.ReadOnly() {
		return fserrors.ReadOnly(p.String())
	}
	return b.Mkdir(ctx, p.raw)
}

// CopyTo copies p to target, streaming bytes through Open so the copy
// works polymorphically across any backend pairing (local->S3, S3->local,
// SSH->archive-read, ...). overwrite controls whether an existing
// destination is replaced; if false and target exists, CopyTo reports a
// conflict by returning ErrConflict.
func (p Path) CopyTo(ctx context.Context, target Path, overwrite bool, onBytes func(n int64)) error {
	targetBackend, err := target.backend()
	if err != nil {
		return err
	}
	if targetBackend.ReadOnly() {
		return fserrors.ReadOnly(target.String())
	}
	if !overwrite && target.Exists(ctx) {
		return ErrConflict
	}
	if p.IsDir(ctx) {
		if err := target.Mkdir(ctx); err != nil {
			return err
		}
		children, err := p.Iterdir(ctx)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := ctx.Err(); err != nil {
				return fserrors.Cancelled(p.String())
			}
			if err := child.CopyTo(ctx, target.Join(child.Name()), overwrite, onBytes); err != nil {
				return err
			}
		}
		return nil
	}
	r, err := p.Open(ctx, ModeRead)
	if err != nil {
		return err
	}
	defer r.Close()
	w, err := target.Open(ctx, ModeWrite)
	if err != nil {
		return err
	}
	if err := copyChunked(ctx, w, r, onBytes); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// chunkSize matches spec.md §4.6's cancellation granularity: "Between
// chunks of a large copy (chunk size ≈ 1 MiB)".
const chunkSize = 1 << 20

func copyChunked(ctx context.Context, w io.Writer, r io.Reader, onBytes func(n int64)) error {
	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return fserrors.Cancelled("")
		}
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return fserrors.NetworkError("", werr)
			}
			if onBytes != nil {
				onBytes(int64(n))
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fserrors.NetworkError("", err)
		}
	}
}
