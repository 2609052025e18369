// Package local implements vpath.Backend over the OS filesystem, adapted
// from the teacher's backend/local/local.go (stat/symlink/rename/copy
// semantics, NFC normalization via golang.org/x/text/unicode/norm).
package local

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/text/unicode/norm"

	"github.com/shimomut/tfm-sub010/internal/fserrors"
	"github.com/shimomut/tfm-sub010/internal/vpath"
)

// Backend implements vpath.Backend over the local OS filesystem.
type Backend struct{}

// New returns the (singleton) local backend.
func New() *Backend { return &Backend{} }

func (b *Backend) Scheme() vpath.Scheme { return vpath.SchemeLocal }
func (b *Backend) ReadOnly() bool       { return false }

// osPath converts a posix-style raw path (as stored on vpath.Path) to the
// OS-native path filepath expects.
func osPath(raw string) string {
	if raw == "" {
		return string(os.PathSeparator)
	}
	if filepath.Separator == '/' {
		return raw
	}
	return filepath.FromSlash(raw)
}

func (b *Backend) Exists(ctx context.Context, raw string) bool {
	_, err := os.Lstat(osPath(raw))
	return err == nil
}

func (b *Backend) Stat(ctx context.Context, raw string) (vpath.Stat, error) {
	fi, err := os.Lstat(osPath(raw))
	if err != nil {
		if os.IsNotExist(err) {
			return vpath.Stat{}, fserrors.NotFound(raw, err)
		}
		if os.IsPermission(err) {
			return vpath.Stat{}, fserrors.PermissionDenied(raw, err)
		}
		return vpath.Stat{}, fserrors.NetworkError(raw, err)
	}
	return statFromFileInfo(fi), nil
}

func statFromFileInfo(fi os.FileInfo) vpath.Stat {
	mode := fi.Mode()
	isSymlink := mode&os.ModeSymlink != 0
	st := vpath.Stat{
		Size:      fi.Size(),
		ModTime:   fi.ModTime(),
		Mode:      uint16(mode.Perm()),
		IsDir:     fi.IsDir(),
		IsSymlink: isSymlink,
	}
	st.IsFile = !st.IsDir && !isSymlink
	return st
}

// normalizeName renders name in NFC so ordering and matching are stable
// regardless of whether the underlying filesystem (notably macOS HFS+)
// handed back decomposed (NFD) form (spec.md §4.2).
func normalizeName(name string) string {
	return norm.NFC.String(name)
}

func (b *Backend) Iterdir(ctx context.Context, raw string) ([]vpath.Entry, error) {
	dir := osPath(raw)
	f, err := os.Open(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fserrors.NotFound(raw, err)
		}
		if os.IsPermission(err) {
			return nil, fserrors.PermissionDenied(raw, err)
		}
		return nil, fserrors.NetworkError(raw, err)
	}
	defer f.Close()
	names, err := f.Readdirnames(-1)
	if err != nil {
		return nil, fserrors.NetworkError(raw, err)
	}
	entries := make([]vpath.Entry, 0, len(names))
	for _, name := range names {
		if name == "." || name == ".." {
			continue
		}
		fi, err := os.Lstat(filepath.Join(dir, name))
		if err != nil {
			continue // entry vanished between Readdirnames and Lstat
		}
		entries = append(entries, vpath.Entry{
			Name: normalizeName(name),
			Stat: statFromFileInfo(fi),
		})
	}
	return entries, nil
}

func (b *Backend) Open(ctx context.Context, raw string, mode vpath.OpenMode) (io.ReadWriteCloser, error) {
	p := osPath(raw)
	if mode == vpath.ModeWrite {
		if err := os.MkdirAll(filepath.Dir(p), 0o777); err != nil {
			return nil, fserrors.PermissionDenied(raw, err)
		}
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o666)
		if err != nil {
			return nil, mapOpenErr(raw, err)
		}
		return f, nil
	}
	f, err := os.OpenFile(p, os.O_RDONLY, 0)
	if err != nil {
		return nil, mapOpenErr(raw, err)
	}
	return f, nil
}

func mapOpenErr(raw string, err error) error {
	if os.IsNotExist(err) {
		return fserrors.NotFound(raw, err)
	}
	if os.IsPermission(err) {
		return fserrors.PermissionDenied(raw, err)
	}
	return fserrors.NetworkError(raw, err)
}

func (b *Backend) Rename(ctx context.Context, raw, rawTarget string) error {
	if err := os.MkdirAll(filepath.Dir(osPath(rawTarget)), 0o777); err != nil {
		return fserrors.PermissionDenied(rawTarget, err)
	}
	if err := os.Rename(osPath(raw), osPath(rawTarget)); err != nil {
		return mapOpenErr(raw, err)
	}
	return nil
}

func (b *Backend) Unlink(ctx context.Context, raw string) error {
	if err := os.Remove(osPath(raw)); err != nil {
		return mapOpenErr(raw, err)
	}
	return nil
}

func (b *Backend) Rmdir(ctx context.Context, raw string) error {
	if err := os.Remove(osPath(raw)); err != nil {
		if pe, ok := err.(*os.PathError); ok && !os.IsNotExist(pe.Err) {
			return fserrors.PermissionDenied(raw, err) // ENOTEMPTY surfaces here
		}
		return mapOpenErr(raw, err)
	}
	return nil
}

func (b *Backend) Mkdir(ctx context.Context, raw string) error {
	if err := os.MkdirAll(osPath(raw), 0o777); err != nil {
		return fserrors.PermissionDenied(raw, err)
	}
	return nil
}
