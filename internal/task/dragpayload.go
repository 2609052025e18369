package task

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/shimomut/tfm-sub010/internal/vpath"
)

// MaxDragFiles bounds a single drag payload, adapted from the original
// tool's DragPayloadBuilder.MAX_FILES.
const MaxDragFiles = 1000

// DragPayloadBuilder converts a pane's selection into file:// URLs for
// drag-and-drop, rejecting anything that can't be represented as a local
// filesystem path.
type DragPayloadBuilder struct {
	lastError string
}

// Build returns file:// URLs for the given selection, or an empty slice
// with LastError() set if the drag isn't allowed. focused is used when
// selected is empty (dragging the focused item); a focused ".." parent
// marker is silently refused, matching the original's "no error message
// for parent directory (expected behavior)".
func (b *DragPayloadBuilder) Build(selected []vpath.Path, focused vpath.Path, focusedValid bool) []string {
	b.lastError = ""

	files := selected
	if len(files) == 0 {
		if !focusedValid {
			b.lastError = "No files selected for drag operation"
			return nil
		}
		if focused.Name() == ".." {
			return nil
		}
		files = []vpath.Path{focused}
	}

	if len(files) > MaxDragFiles {
		b.lastError = fmt.Sprintf("Cannot drag more than %d files at once. You selected %d files.", MaxDragFiles, len(files))
		return nil
	}

	urls := make([]string, 0, len(files))
	for _, p := range files {
		if p.IsRemote() {
			b.lastError = "Cannot drag remote files (S3, SSH). Only local files can be dragged."
			return nil
		}
		if p.Scheme() == vpath.SchemeArchive {
			b.lastError = "Cannot drag files from within archives. Please extract the files first."
			return nil
		}
		if !p.Exists(context.Background()) {
			b.lastError = fmt.Sprintf("File does not exist: %s", p.Name())
			return nil
		}
		urls = append(urls, pathToFileURL(p.String()))
	}
	return urls
}

// LastError returns the reason the most recent Build call refused to
// produce a payload, or "" if it succeeded.
func (b *DragPayloadBuilder) LastError() string {
	return b.lastError
}

func pathToFileURL(absPath string) string {
	segments := strings.Split(absPath, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return "file://" + strings.Join(segments, "/")
}
