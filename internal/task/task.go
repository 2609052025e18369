// Package task implements the task coordinator and operation executor from
// spec.md §4.6: a single-slot active-task model whose state machine is
// grounded on original_source/src/tfm_base_task.py's BaseTask
// (start/cancel/is_active/get_state), generalized from one abstract class
// per operation into one State machine shared by copy, move, delete,
// archive-create, and archive-extract.
package task

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/shimomut/tfm-sub010/internal/cache"
	"github.com/shimomut/tfm-sub010/internal/fserrors"
	"github.com/shimomut/tfm-sub010/internal/vpath"
)

// State is one node of the IDLE→CONFIRMING→CHECKING_CONFLICTS→
// RESOLVING_CONFLICT→EXECUTING→IDLE machine in spec.md §4.6.
type State int

const (
	StateIdle State = iota
	StateConfirming
	StateCheckingConflicts
	StateResolvingConflict
	StateExecuting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConfirming:
		return "confirming"
	case StateCheckingConflicts:
		return "checking_conflicts"
	case StateResolvingConflict:
		return "resolving_conflict"
	case StateExecuting:
		return "executing"
	default:
		return "unknown"
	}
}

// Resolution is the dialog's answer for one conflicting destination path.
type Resolution int

const (
	ResolveOverwrite Resolution = iota
	ResolveOverwriteAll
	ResolveSkip
	ResolveSkipAll
	ResolveCancel
)

// Conflict pairs a source path with the existing destination path it would
// overwrite.
type Conflict struct {
	Source      vpath.Path
	Destination vpath.Path
}

// Dialogs is the narrow seam between the executor and whatever UI layer is
// presenting confirmation/conflict prompts — kept as an interface so
// internal/task has no dependency on internal/ui, the same
// narrow-interface-as-seam pattern internal/pane uses for CursorHistory.
type Dialogs interface {
	// Confirm asks "proceed with this <kind> of N items?" and returns the
	// user's answer. Not called when the operation's confirmation toggle
	// is configured off.
	Confirm(ctx context.Context, kind Kind, itemCount int) bool
	// ResolveConflict asks how to handle one conflicting destination.
	ResolveConflict(ctx context.Context, c Conflict) Resolution
}

// Task is one instance of a copy/move/delete/archive-create/archive-extract
// operation moving through the state machine.
type Task struct {
	mu    sync.Mutex
	state State
	kind  Kind

	// id distinguishes otherwise-identical tasks in logs and in the task
	// coordinator's bookkeeping; it has no meaning beyond this process's
	// lifetime.
	id string

	sources     []vpath.Path
	destDir     vpath.Path // zero Path for delete
	overwrite   bool       // after resolve "overwrite all"
	skipAll     bool
	skipSet     map[string]bool
	dialogs     Dialogs
	cache       *cache.Coordinator
	progress    *ProgressManager
	cancel      context.CancelFunc
	confirmSkip bool // confirmation step skipped via config toggle

	err error
}

// NewTask builds a Task in StateIdle. destDir is ignored for KindDelete.
// confirmSkip, when true, skips the CONFIRMING step per spec.md §4.6's
// "Confirmation step is skippable via configuration toggles per operation
// kind."
func NewTask(kind Kind, sources []vpath.Path, destDir vpath.Path, dialogs Dialogs, coord *cache.Coordinator, confirmSkip bool) *Task {
	return &Task{
		id:          uuid.NewString(),
		kind:        kind,
		sources:     sources,
		destDir:     destDir,
		dialogs:     dialogs,
		cache:       coord,
		skipSet:     make(map[string]bool),
		confirmSkip: confirmSkip,
	}
}

// ID returns the task's process-lifetime-unique identifier, suitable as a
// log subject.
func (t *Task) ID() string { return t.id }

// State reports the task's current node in the state machine.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// IsActive reports whether the task is anywhere but IDLE, the BaseTask
// is_active() contract.
func (t *Task) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state != StateIdle
}

// Progress returns the task's ProgressManager, valid once Start has moved
// the task past CHECKING_CONFLICTS.
func (t *Task) Progress() *ProgressManager {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}

// Err returns the error the task finished with, if any.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *Task) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// Cancel requests cancellation — BaseTask's request_cancellation(),
// honored at the granularity spec.md §4.6 lists: before each file, between
// copy chunks, and inside recursive counting/delete/archive iteration.
func (t *Task) Cancel() {
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Start runs the task to completion (or cancellation), driving it through
// every state in spec.md §4.6's diagram. It blocks the caller; run it from
// a goroutine to keep EXECUTING in the background the way the diagram
// calls for — Coordinator.Run (coordinator.go) wraps this call and is what
// enforces the "one active task" rule; it starts no goroutine itself.
func (t *Task) Start(ctx context.Context) error {
	t.setState(StateConfirming)
	if !t.confirmSkip && t.dialogs != nil {
		if !t.dialogs.Confirm(ctx, t.kind, len(t.sources)) {
			t.setState(StateIdle)
			return nil
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()
	defer cancel()

	t.setState(StateCheckingConflicts)
	conflicts, err := t.findConflicts(runCtx)
	if err != nil {
		t.finish(err)
		return err
	}

	for _, c := range conflicts {
		if runCtx.Err() != nil {
			t.finish(nil)
			return nil
		}
		if t.skipAll {
			t.skipSet[c.Source.String()] = true
			continue
		}
		if t.overwrite {
			continue
		}
		t.setState(StateResolvingConflict)
		res := t.dialogs.ResolveConflict(runCtx, c)
		switch res {
		case ResolveOverwrite:
		case ResolveOverwriteAll:
			t.overwrite = true
		case ResolveSkip:
			t.skipSet[c.Source.String()] = true
		case ResolveSkipAll:
			t.skipAll = true
			t.skipSet[c.Source.String()] = true
		case ResolveCancel:
			t.finish(nil)
			return nil
		}
	}

	t.setState(StateExecuting)
	err = t.execute(runCtx)
	t.finish(err)
	return err
}

func (t *Task) finish(err error) {
	t.mu.Lock()
	t.err = err
	t.state = StateIdle
	t.mu.Unlock()
	if t.progress != nil {
		t.progress.Finish()
	}
	t.invalidateCache()
}

// findConflicts enumerates destination paths that already exist, for
// KindCopy and KindMove only — delete and archive operations have no
// destination conflict surface.
func (t *Task) findConflicts(ctx context.Context) ([]Conflict, error) {
	if t.kind != KindCopy && t.kind != KindMove {
		return nil, nil
	}
	var conflicts []Conflict
	for _, src := range t.sources {
		if err := ctx.Err(); err != nil {
			return conflicts, nil
		}
		dest := t.destDir.Join(src.Name())
		if dest.Exists(ctx) {
			conflicts = append(conflicts, Conflict{Source: src, Destination: dest})
		}
	}
	return conflicts, nil
}

// execute counts total items, builds the ProgressManager, and runs the
// per-kind operation loop. Counting uses CountFiles (Rglob-backed,
// polymorphic across backends) per spec.md §4.6 — never an OS-specific
// walk, which is the bug spec.md §8 scenario 1 calls out by name.
func (t *Task) execute(ctx context.Context) error {
	total := 0
	for _, src := range t.sources {
		if ctx.Err() != nil {
			break
		}
		if src.IsDir(ctx) {
			n, err := src.CountFiles(ctx)
			if err != nil {
				return err
			}
			total += n
		} else {
			total++
		}
	}

	t.mu.Lock()
	t.progress = NewProgressManager(t.kind, total, nil)
	t.mu.Unlock()

	switch t.kind {
	case KindCopy:
		return t.runCopyOrMove(ctx, false)
	case KindMove:
		return t.runCopyOrMove(ctx, true)
	case KindDelete:
		return t.runDelete(ctx)
	case KindArchiveExtract:
		return t.runCopyOrMove(ctx, false)
	case KindArchiveCreate:
		return t.runCopyOrMove(ctx, false)
	}
	return nil
}

func (t *Task) runCopyOrMove(ctx context.Context, move bool) error {
	for _, src := range t.sources {
		if ctx.Err() != nil {
			return nil
		}
		if t.skipSet[src.String()] {
			t.progress.ItemSkipped()
			continue
		}
		dest := t.destDir.Join(src.Name())
		t.progress.ItemStarted(src.Name(), 0)

		var err error
		if move {
			_, err = src.Rename(ctx, dest)
			if fserrors.Is(err, fserrors.ErrCrossBackend) {
				// spec.md §7: "Callers MUST fall back to copy_to + unlink"
				// for a cross-backend rename attempt — any other Rename
				// failure (permission, network) is a genuine item error.
				err = src.CopyTo(ctx, dest, true, t.progress.ItemBytes)
				if err == nil {
					err = removeRecursive(ctx, src)
				}
			}
		} else {
			err = src.CopyTo(ctx, dest, true, t.progress.ItemBytes)
		}

		if err != nil {
			t.progress.ItemFailed()
			continue
		}
		t.progress.ItemDone()
	}
	return nil
}

func (t *Task) runDelete(ctx context.Context) error {
	for _, src := range t.sources {
		if ctx.Err() != nil {
			return nil
		}
		t.progress.ItemStarted(src.Name(), 0)
		if err := removeRecursive(ctx, src); err != nil {
			t.progress.ItemFailed()
			continue
		}
		t.progress.ItemDone()
	}
	return nil
}

// removeRecursive deletes p, recursing into directories depth-first so
// Rmdir always sees an empty directory. Checked against ctx at every
// boundary per spec.md §4.6's "inside recursive delete" cancellation point.
func removeRecursive(ctx context.Context, p vpath.Path) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !p.IsDir(ctx) {
		return p.Unlink(ctx)
	}
	children, err := p.Iterdir(ctx)
	if err != nil {
		return err
	}
	for _, c := range children {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := removeRecursive(ctx, c); err != nil {
			return err
		}
	}
	return p.Rmdir(ctx)
}

func (t *Task) invalidateCache() {
	if t.cache == nil {
		return
	}
	var op cache.OpKind
	switch t.kind {
	case KindCopy:
		op = cache.OpCopy
	case KindMove:
		op = cache.OpMove
	case KindDelete:
		op = cache.OpDelete
	case KindArchiveCreate:
		op = cache.OpArchiveCreate
	case KindArchiveExtract:
		op = cache.OpArchiveExtract
	}
	t.cache.InvalidateForOperation(op, t.sources, t.destDir)
}
