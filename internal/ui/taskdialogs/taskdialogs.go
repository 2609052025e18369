// Package taskdialogs bridges internal/task's narrow Dialogs seam to real
// ui.ConfirmDialog/ui.ChoiceDialog layers, so a running Task can ask the
// user a question from its own goroutine and block for the answer — the
// same blocking-call-answered-by-a-later-event shape the task package's
// own tests use for blockingDialogs, now backed by actual UI layers
// instead of a test fixture.
package taskdialogs

import (
	"context"
	"fmt"

	"github.com/shimomut/tfm-sub010/internal/task"
	"github.com/shimomut/tfm-sub010/internal/ui"
)

// Stack is the narrow seam into the layer stack this package needs —
// just enough to push a dialog layer, so this package doesn't require the
// concrete *ui.Stack type.
type Stack interface {
	Push(ui.Layer)
}

// Bridge implements task.Dialogs by pushing a dialog layer onto a Stack
// and blocking the calling goroutine until the dialog resolves.
type Bridge struct {
	stack Stack
}

var _ task.Dialogs = (*Bridge)(nil)

// New builds a Bridge that pushes dialogs onto stack.
func New(stack Stack) *Bridge {
	return &Bridge{stack: stack}
}

// Confirm pushes a yes/no ConfirmDialog and blocks for the answer, or
// returns false immediately if ctx is already cancelled.
func (b *Bridge) Confirm(ctx context.Context, kind task.Kind, itemCount int) bool {
	if ctx.Err() != nil {
		return false
	}
	prompt := fmt.Sprintf("Proceed with %s of %d item(s)?", kind, itemCount)
	answered := make(chan bool, 1)
	b.stack.Push(ui.NewConfirmDialog(prompt, func(yes bool) {
		answered <- yes
	}))
	select {
	case yes := <-answered:
		return yes
	case <-ctx.Done():
		return false
	}
}

// ResolveConflict pushes a ChoiceDialog offering the five resolutions
// spec.md §4.6 names, and blocks for the user's pick.
func (b *Bridge) ResolveConflict(ctx context.Context, c task.Conflict) task.Resolution {
	if ctx.Err() != nil {
		return task.ResolveCancel
	}
	prompt := fmt.Sprintf("%q already exists at destination — overwrite?", c.Destination.Name())
	options := []ui.ChoiceOption{
		{Label: "Overwrite", Value: int(task.ResolveOverwrite)},
		{Label: "Overwrite all", Value: int(task.ResolveOverwriteAll)},
		{Label: "Skip", Value: int(task.ResolveSkip)},
		{Label: "Skip all", Value: int(task.ResolveSkipAll)},
		{Label: "Cancel", Value: int(task.ResolveCancel)},
	}
	chosen := make(chan task.Resolution, 1)
	b.stack.Push(ui.NewChoiceDialog(prompt, options, func(opt ui.ChoiceOption) {
		chosen <- task.Resolution(opt.Value)
	}))
	select {
	case res := <-chosen:
		return res
	case <-ctx.Done():
		return task.ResolveCancel
	}
}
