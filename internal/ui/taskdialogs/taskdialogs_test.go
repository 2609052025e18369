package taskdialogs_test

import (
	"context"
	"testing"
	"time"

	"github.com/shimomut/tfm-sub010/internal/task"
	"github.com/shimomut/tfm-sub010/internal/ui"
	"github.com/shimomut/tfm-sub010/internal/ui/taskdialogs"
	"github.com/shimomut/tfm-sub010/internal/vpath"
)

type fakeStack struct {
	pushed chan ui.Layer
}

func newFakeStack() *fakeStack {
	return &fakeStack{pushed: make(chan ui.Layer, 4)}
}

func (s *fakeStack) Push(l ui.Layer) {
	s.pushed <- l
}

func TestConfirmBlocksUntilDialogAnswered(t *testing.T) {
	stack := newFakeStack()
	bridge := taskdialogs.New(stack)

	result := make(chan bool, 1)
	go func() {
		result <- bridge.Confirm(context.Background(), task.KindCopy, 3)
	}()

	var layer ui.Layer
	select {
	case layer = <-stack.pushed:
	case <-time.After(time.Second):
		t.Fatal("Confirm did not push a dialog layer")
	}

	dialog, ok := layer.(*ui.ConfirmDialog)
	if !ok {
		t.Fatalf("pushed layer is %T, want *ui.ConfirmDialog", layer)
	}
	dialog.HandleKeyEvent(ui.KeyEvent{Key: ui.KeyEnter})

	select {
	case got := <-result:
		if !got {
			t.Fatal("Confirm returned false for an Enter (yes) answer")
		}
	case <-time.After(time.Second):
		t.Fatal("Confirm never returned after the dialog resolved")
	}
}

func TestConfirmReturnsFalseWhenContextCancelledFirst(t *testing.T) {
	stack := newFakeStack()
	bridge := taskdialogs.New(stack)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if bridge.Confirm(ctx, task.KindDelete, 1) {
		t.Fatal("Confirm on an already-cancelled context must return false")
	}
}

func TestResolveConflictReturnsChosenResolution(t *testing.T) {
	reg := vpath.NewRegistry()

	stack := newFakeStack()
	bridge := taskdialogs.New(stack)

	src, _ := vpath.Parse(reg, "/a/src.txt")
	dest, _ := vpath.Parse(reg, "/a/dest.txt")
	conflict := task.Conflict{Source: src, Destination: dest}

	result := make(chan task.Resolution, 1)
	go func() {
		result <- bridge.ResolveConflict(context.Background(), conflict)
	}()

	var layer ui.Layer
	select {
	case layer = <-stack.pushed:
	case <-time.After(time.Second):
		t.Fatal("ResolveConflict did not push a dialog layer")
	}

	dialog, ok := layer.(*ui.ChoiceDialog)
	if !ok {
		t.Fatalf("pushed layer is %T, want *ui.ChoiceDialog", layer)
	}
	// Move the cursor down to "Skip" (index 2) and select it.
	dialog.HandleKeyEvent(ui.KeyEvent{Key: ui.KeyDown})
	dialog.HandleKeyEvent(ui.KeyEvent{Key: ui.KeyDown})
	dialog.HandleKeyEvent(ui.KeyEvent{Key: ui.KeyEnter})

	select {
	case got := <-result:
		if got != task.ResolveSkip {
			t.Fatalf("ResolveConflict = %v, want ResolveSkip", got)
		}
	case <-time.After(time.Second):
		t.Fatal("ResolveConflict never returned after the dialog resolved")
	}
}
