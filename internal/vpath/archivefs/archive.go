// Package archivefs implements vpath.Backend over ZIP and TAR archives as
// virtual read-only directory trees, adapted from the teacher's
// backend/zip/zip.go (readZip's directory-tree grouping) and
// backend/gzip/gzip.go (transparent gzip unwrapping for .tar.gz).
//
// Per an Open Question decision recorded in DESIGN.md, archive containers
// are restricted to the local and SSH backends; S3-backed archives are
// rejected with InvalidArgument.
package archivefs

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/shimomut/tfm-sub010/internal/fserrors"
	"github.com/shimomut/tfm-sub010/internal/vpath"
)

// Backend is a read-only virtual filesystem over the contents of one
// archive file, built once at open time.
type Backend struct {
	dirs  map[string][]vpath.Entry // dir path -> direct children
	stats map[string]vpath.Stat    // full path -> stat
	data  map[string][]byte        // full path -> file content
}

// New opens container (which must resolve through the local or ssh
// backend) and indexes its contents. The archive format is chosen from
// container's suffix: .zip, .tar, or .tar.gz/.tgz.
func New(ctx context.Context, container vpath.Path) (*Backend, error) {
	switch container.Scheme() {
	case vpath.SchemeLocal, vpath.SchemeSSH:
	default:
		return nil, fserrors.InvalidArgument(container.String(), nil)
	}
	st, err := container.Stat(ctx)
	if err != nil {
		return nil, err
	}
	if st.Size <= 0 {
		return nil, fserrors.InvalidArgument(container.String(), nil)
	}
	r, err := container.Open(ctx, vpath.ModeRead)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fserrors.NetworkError(container.String(), err)
	}

	b := &Backend{
		dirs:  map[string][]vpath.Entry{"": nil},
		stats: map[string]vpath.Stat{},
		data:  map[string][]byte{},
	}
	name := strings.ToLower(container.Name())
	switch {
	case strings.HasSuffix(name, ".zip"):
		err = b.readZip(raw, st.Size)
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		err = b.readTarGz(raw)
	case strings.HasSuffix(name, ".tar"):
		err = b.readTar(bytes.NewReader(raw))
	default:
		err = fserrors.InvalidArgument(container.String(), nil)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backend) Scheme() vpath.Scheme { return vpath.SchemeArchive }
func (b *Backend) ReadOnly() bool       { return true }

// addDir grows the tree the way readZip's dirtree.AddDir/CheckParents does:
// every ancestor of remote gets an implicit directory entry even if the
// archive never stored one explicitly.
func (b *Backend) addDir(remote string, modTime time.Time) {
	if _, ok := b.dirs[remote]; ok {
		return
	}
	b.dirs[remote] = nil
	b.stats[remote] = vpath.Stat{IsDir: true, ModTime: modTime}
	b.linkToParent(remote, modTime)
}

func (b *Backend) addFile(remote string, size int64, modTime time.Time, content []byte) {
	b.stats[remote] = vpath.Stat{Size: size, ModTime: modTime, IsFile: true}
	b.data[remote] = content
	b.linkToParent(remote, modTime)
}

func (b *Backend) linkToParent(remote string, modTime time.Time) {
	parent := path.Dir(remote)
	if parent == "." {
		parent = ""
	}
	if parent != remote {
		b.addDir(parent, modTime)
	}
	name := path.Base(remote)
	for _, e := range b.dirs[parent] {
		if e.Name == name {
			return
		}
	}
	b.dirs[parent] = append(b.dirs[parent], vpath.Entry{Name: name, Stat: b.stats[remote]})
}

func cleanEntryName(name string) (remote string, isDir bool) {
	isDir = strings.HasSuffix(name, "/")
	remote = strings.Trim(path.Clean(name), "/")
	if remote == "." {
		remote = ""
	}
	return remote, isDir
}

func (b *Backend) readZip(raw []byte, size int64) error {
	zr, err := zip.NewReader(bytes.NewReader(raw), size)
	if err != nil {
		return fserrors.InvalidArgument("zip", err)
	}
	for _, f := range zr.File {
		remote, isDir := cleanEntryName(f.Name)
		if remote == "" {
			continue
		}
		if isDir {
			b.addDir(remote, f.Modified)
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fserrors.InvalidArgument(remote, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return fserrors.InvalidArgument(remote, err)
		}
		b.addFile(remote, int64(f.UncompressedSize64), f.Modified, content)
	}
	return nil
}

func (b *Backend) readTarGz(raw []byte) error {
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return fserrors.InvalidArgument("tar.gz", err)
	}
	defer gz.Close()
	return b.readTar(gz)
}

func (b *Backend) readTar(r io.Reader) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fserrors.InvalidArgument("tar", err)
		}
		remote, _ := cleanEntryName(hdr.Name)
		if remote == "" {
			continue
		}
		if hdr.Typeflag == tar.TypeDir {
			b.addDir(remote, hdr.ModTime)
			continue
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			return fserrors.InvalidArgument(remote, err)
		}
		b.addFile(remote, hdr.Size, hdr.ModTime, content)
	}
}

func (b *Backend) Exists(ctx context.Context, raw string) bool {
	_, err := b.Stat(ctx, raw)
	return err == nil
}

func (b *Backend) Stat(ctx context.Context, raw string) (vpath.Stat, error) {
	if raw == "" {
		return vpath.Stat{IsDir: true}, nil
	}
	st, ok := b.stats[raw]
	if !ok {
		return vpath.Stat{}, fserrors.NotFound(raw, nil)
	}
	return st, nil
}

func (b *Backend) Iterdir(ctx context.Context, raw string) ([]vpath.Entry, error) {
	entries, ok := b.dirs[raw]
	if !ok {
		return nil, fserrors.NotFound(raw, nil)
	}
	return entries, nil
}

func (b *Backend) Open(ctx context.Context, raw string, mode vpath.OpenMode) (io.ReadWriteCloser, error) {
	if mode == vpath.ModeWrite {
		return nil, fserrors.ReadOnly(raw)
	}
	content, ok := b.data[raw]
	if !ok {
		return nil, fserrors.NotFound(raw, nil)
	}
	return &readOnlyStream{Reader: bytes.NewReader(content)}, nil
}

type readOnlyStream struct{ *bytes.Reader }

func (readOnlyStream) Write(p []byte) (int, error) { return 0, fserrors.ReadOnly("archive entry") }
func (readOnlyStream) Close() error                { return nil }

func (b *Backend) Rename(ctx context.Context, raw, rawTarget string) error {
	return fserrors.ReadOnly(raw)
}

func (b *Backend) Unlink(ctx context.Context, raw string) error { return fserrors.ReadOnly(raw) }
func (b *Backend) Rmdir(ctx context.Context, raw string) error  { return fserrors.ReadOnly(raw) }
func (b *Backend) Mkdir(ctx context.Context, raw string) error  { return fserrors.ReadOnly(raw) }
