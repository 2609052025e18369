package archivefs_test

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shimomut/tfm-sub010/internal/fserrors"
	"github.com/shimomut/tfm-sub010/internal/vpath"
	"github.com/shimomut/tfm-sub010/internal/vpath/archivefs"
	"github.com/shimomut/tfm-sub010/internal/vpath/memfs"
)

func buildZip(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	files := map[string]string{
		"readme.txt":     "hello",
		"sub/nested.txt": "nested contents",
	}
	for name, content := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Modified: now})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newRegistryWithZip(t *testing.T) (*vpath.Registry, vpath.Path) {
	t.Helper()
	reg := vpath.NewRegistry()
	local := memfs.New(vpath.SchemeLocal)
	reg.SetLocal(local)
	reg.SetArchiveFactory(func(container vpath.Path) (vpath.Backend, error) {
		return archivefs.New(context.Background(), container)
	})

	containerPath, err := vpath.Parse(reg, "/archives/bundle.zip")
	if err != nil {
		t.Fatal(err)
	}
	if err := containerPath.WriteText(context.Background(), string(buildZip(t))); err != nil {
		t.Fatal(err)
	}
	return reg, containerPath
}

func TestArchiveListsImplicitDirectories(t *testing.T) {
	reg, container := newRegistryWithZip(t)
	root, err := vpath.Parse(reg, "archive://"+container.String()+"#/")
	if err != nil {
		t.Fatal(err)
	}
	children, err := root.Iterdir(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, c := range children {
		names[c.Name()] = true
	}
	if !names["readme.txt"] || !names["sub"] {
		t.Fatalf("unexpected root listing: %v", names)
	}
}

func TestArchiveReadEntryContent(t *testing.T) {
	reg, container := newRegistryWithZip(t)
	entry, err := vpath.Parse(reg, "archive://"+container.String()+"#sub/nested.txt")
	if err != nil {
		t.Fatal(err)
	}
	got, err := entry.ReadText(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != "nested contents" {
		t.Errorf("ReadText = %q, want %q", got, "nested contents")
	}
}

func TestArchiveIsReadOnly(t *testing.T) {
	reg, container := newRegistryWithZip(t)
	entry, err := vpath.Parse(reg, "archive://"+container.String()+"#readme.txt")
	if err != nil {
		t.Fatal(err)
	}
	err = entry.WriteText(context.Background(), "nope")
	if !fserrors.Is(err, fserrors.ErrReadOnly) {
		t.Fatalf("WriteText into archive: got %v, want ErrReadOnly", err)
	}
}

func TestArchiveContainerMustBeLocalOrSSH(t *testing.T) {
	reg := vpath.NewRegistry()
	reg.SetS3Factory(func() (vpath.Backend, error) { return memfs.New(vpath.SchemeS3), nil })
	container, err := vpath.Parse(reg, "s3://bucket/bundle.zip")
	if err != nil {
		t.Fatal(err)
	}
	_, err = archivefs.New(context.Background(), container)
	if !fserrors.Is(err, fserrors.ErrInvalidArgument) {
		t.Fatalf("S3-backed archive container: got %v, want ErrInvalidArgument", err)
	}
}
