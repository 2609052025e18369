// Package dualpane implements the base layer of the UI stack: the
// two-pane directory view from spec.md §4.3/§4.5, wired to
// internal/pane's navigation model, internal/task's operation executor,
// and internal/env's TFM_* export. There is no teacher analogue —
// conventions (embedding ui.BaseLayer, doc density, mutex-guarded
// mutation) follow internal/pane and internal/ui's own style, which in
// turn follow backend/local/local.go's.
package dualpane

import (
	"context"
	"fmt"
	"strings"

	"github.com/shimomut/tfm-sub010/internal/cache"
	"github.com/shimomut/tfm-sub010/internal/env"
	"github.com/shimomut/tfm-sub010/internal/listing"
	"github.com/shimomut/tfm-sub010/internal/pane"
	"github.com/shimomut/tfm-sub010/internal/task"
	"github.com/shimomut/tfm-sub010/internal/tfmlog"
	"github.com/shimomut/tfm-sub010/internal/ui"
	"github.com/shimomut/tfm-sub010/internal/vpath"
)

var archiveSuffixes = []string{".zip", ".tar.gz", ".tgz", ".tar"}

func looksLikeArchive(name string) bool {
	for _, suf := range archiveSuffixes {
		if strings.HasSuffix(name, suf) {
			return true
		}
	}
	return false
}

// Stack is the narrow seam into the layer stack dualpane needs (pushing
// dialogs, e.g. a help overlay), kept as an interface for the same
// import-cycle-avoidance reason internal/ui/taskdialogs does.
type Stack interface {
	Push(ui.Layer)
}

// Coordinator is the narrow seam into the task executor this layer needs.
type Coordinator interface {
	Run(ctx context.Context, t *task.Task) error
}

// View is the dual-pane base layer: spec.md §4.5's bottom-of-stack,
// always-present layer.
type View struct {
	ui.BaseLayer

	manager *pane.Manager
	reg     *vpath.Registry
	coord   Coordinator
	dialogs task.Dialogs
	stack   Stack
	log     *tfmlog.Logger
	cache   *cache.Coordinator

	quit bool
}

// New builds a View over manager, ready to push onto a Stack as its base
// layer.
func New(manager *pane.Manager, reg *vpath.Registry, coord Coordinator, dialogs task.Dialogs, stack Stack, log *tfmlog.Logger, cacheCoord *cache.Coordinator) *View {
	return &View{
		BaseLayer: ui.NewBaseLayer(),
		manager:   manager,
		reg:       reg,
		coord:     coord,
		dialogs:   dialogs,
		stack:     stack,
		log:       log,
		cache:     cacheCoord,
	}
}

// ShouldQuit reports whether the user requested application exit.
func (v *View) ShouldQuit() bool { return v.quit }

// Manager exposes the pane manager so cmd/tfm can persist pane paths on
// exit without duplicating View's internal wiring.
func (v *View) Manager() *pane.Manager { return v.manager }

func (v *View) IsFullScreen() bool { return true }
func (v *View) ShouldClose() bool  { return false } // the base layer is never popped

func (v *View) HandleKeyEvent(event ui.KeyEvent) bool {
	ctx := context.Background()
	_, active := v.manager.Active()

	switch event.Key {
	case ui.KeyUp:
		active.MoveCursor(-1)
	case ui.KeyDown:
		active.MoveCursor(1)
	case ui.KeyPageUp:
		active.MoveCursor(-10)
	case ui.KeyPageDown:
		active.MoveCursor(10)
	case ui.KeyHome:
		active.MoveCursor(-1 << 30)
	case ui.KeyEnd:
		active.MoveCursor(1 << 30)
	case ui.KeyTab:
		v.manager.Toggle()
		v.exportEnv()
	case ui.KeyEnter, ui.KeyRight:
		v.enter(ctx, active)
	case ui.KeyLeft, ui.KeyBackspace:
		v.goParent(ctx, active)
	case ui.KeyDelete:
		v.runDelete(ctx, active)
	case ui.KeyDragDrop:
		v.dropInto(ctx, active, event.DragPaths)
	default:
		return false
	}
	v.MarkDirty()
	return true
}

func (v *View) HandleCharEvent(event ui.CharEvent) bool {
	ctx := context.Background()
	_, active := v.manager.Active()

	switch event.Char {
	case ' ':
		active.ToggleSelect()
		active.MoveCursor(1)
	case '*':
		active.ToggleSelectAllFiles()
	case '+':
		active.ToggleSelectAllItems()
	case 'r', 'R':
		active.Refresh(ctx)
	case 'c', 'C':
		v.runCopyOrMove(ctx, active, task.KindCopy)
	case 'm', 'M':
		v.runCopyOrMove(ctx, active, task.KindMove)
	case 'q', 'Q':
		v.quit = true
	default:
		return false
	}
	v.MarkDirty()
	return true
}

// enter navigates into the focused directory, or (for a recognized
// archive file) into its archive:// root, per spec.md §4.1's "Navigation
// into an archive file ... transparently opens an archive:// URI."
func (v *View) enter(ctx context.Context, p *pane.Pane) {
	focused, ok := p.Focused()
	if !ok {
		return
	}
	if focused.Stat.IsDir {
		v.navigate(ctx, p, focused.Path, "")
		return
	}
	if looksLikeArchive(focused.Path.Name()) {
		archiveRoot, err := vpath.Parse(v.reg, "archive://"+focused.Path.String()+"#")
		if err != nil {
			v.logErrorf(focused.Path, "opening archive: %v", err)
			return
		}
		v.navigate(ctx, p, archiveRoot, "")
	}
}

// goParent navigates to the enclosing directory — out of an archive's
// root back to its container, per spec.md §4.1, when the pane sits at an
// archive:// root; Path.Parent already encodes that rule.
func (v *View) goParent(ctx context.Context, p *pane.Pane) {
	current := p.Path()
	childName := current.Name()
	v.navigate(ctx, p, current.Parent(), childName)
}

func (v *View) navigate(ctx context.Context, p *pane.Pane, target vpath.Path, fromChild string) {
	if err := p.Navigate(ctx, target, fromChild); err != nil {
		v.logErrorf(target, "navigating: %v", err)
		return
	}
	v.exportEnv()
}

func (v *View) runCopyOrMove(ctx context.Context, src *pane.Pane, kind task.Kind) {
	inactive := v.manager.Inactive()
	sources := v.sourcesFor(src)
	if len(sources) == 0 {
		return
	}
	t := task.NewTask(kind, sources, inactive.Path(), v.dialogs, v.cache, false)
	go v.runTask(ctx, t, src, inactive)
}

func (v *View) runDelete(ctx context.Context, src *pane.Pane) {
	sources := v.sourcesFor(src)
	if len(sources) == 0 {
		return
	}
	t := task.NewTask(task.KindDelete, sources, vpath.Path{}, v.dialogs, v.cache, false)
	go v.runTask(ctx, t, src, nil)
}

// sourcesFor returns the pane's current selection, or the focused entry
// alone when nothing is explicitly selected — the usual single-item
// shortcut file managers offer.
func (v *View) sourcesFor(p *pane.Pane) []vpath.Path {
	if sel := p.SelectedPaths(); len(sel) > 0 {
		return sel
	}
	if focused, ok := p.Focused(); ok {
		return []vpath.Path{focused.Path}
	}
	return nil
}

func (v *View) runTask(ctx context.Context, t *task.Task, panes ...*pane.Pane) {
	if err := v.coord.Run(ctx, t); err != nil {
		v.logErrorf(t.ID(), "%v", err)
		return
	}
	for _, p := range panes {
		if p != nil {
			p.Refresh(ctx)
		}
	}
	v.MarkDirty()
}

// dropInto copies a drag-and-drop payload's files into the active pane's
// directory — the consumer side of internal/task.DragPayloadBuilder's
// output.
func (v *View) dropInto(ctx context.Context, dest *pane.Pane, paths []string) {
	if len(paths) == 0 {
		return
	}
	var sources []vpath.Path
	for _, raw := range paths {
		p, err := vpath.Parse(v.reg, strings.TrimPrefix(raw, "file://"))
		if err != nil {
			continue
		}
		sources = append(sources, p)
	}
	if len(sources) == 0 {
		return
	}
	t := task.NewTask(task.KindCopy, sources, dest.Path(), v.dialogs, v.cache, false)
	go v.runTask(ctx, t, dest)
}

func (v *View) exportEnv() {
	leftSide, rightSide := pane.Left, pane.Right
	left := v.manager.Pane(leftSide)
	right := v.manager.Pane(rightSide)
	activeSide, _ := v.manager.Active()

	name := "left"
	if activeSide == rightSide {
		name = "right"
	}
	vars := env.Vars(snapshot(left), snapshot(right), name)
	if err := env.Export(vars); err != nil && v.log != nil {
		v.log.Errorf("env", "export failed: %v", err)
	}
}

func snapshot(p *pane.Pane) env.PaneSnapshot {
	var focused string
	if e, ok := p.Focused(); ok {
		focused = e.Path.Name()
	}
	var selected []string
	for _, sp := range p.SelectedPaths() {
		selected = append(selected, sp.Name())
	}
	return env.PaneSnapshot{Dir: p.Path().String(), Selected: selected, Focused: focused}
}

func (v *View) logErrorf(subject interface{}, format string, args ...interface{}) {
	if v.log == nil {
		return
	}
	if subject == nil {
		subject = "dualpane"
	}
	v.log.Errorf(subject, format, args...)
}

// Render draws both panes side by side with the active pane's cursor row
// reverse-videoed, per the Renderer contract in spec.md §4.8.
func (v *View) Render(r ui.Renderer) {
	rows, cols := r.Dimensions()
	if rows < 3 || cols < 4 {
		return
	}
	half := cols / 2

	activeSide, _ := v.manager.Active()
	v.renderPane(r, v.manager.Pane(pane.Left), 0, half, rows-1, activeSide == pane.Left)
	v.renderPane(r, v.manager.Pane(pane.Right), half, cols-half, rows-1, activeSide == pane.Right)

	status := "TAB switch · ENTER open · SPACE select · c copy · m move · DEL delete · q quit"
	if len(status) > cols {
		status = status[:cols]
	}
	r.DrawText(rows-1, 0, status, 0, ui.AttrDim)
}

func (v *View) renderPane(r ui.Renderer, p *pane.Pane, col, width, footerRow int, active bool) {
	headerAttr := ui.AttrNone
	if active {
		headerAttr = ui.AttrBold
	}
	r.DrawText(0, col, truncate(p.Path().String(), width), 0, headerAttr)

	entries := p.Entries()
	offset := p.ScrollOffset()
	focusedIdx := p.FocusedIndex()
	viewport := footerRow - 1

	if len(entries) == 0 {
		const msg = "No items to show"
		row := 1 + (viewport-1)/2
		msgCol := col + (width-len(msg))/2
		if msgCol < col {
			msgCol = col
		}
		r.DrawText(row, msgCol, truncate(msg, width), 0, ui.AttrDim)
		return
	}

	for row := 1; row < viewport; row++ {
		idx := offset + row - 1
		if idx >= len(entries) {
			break
		}
		e := entries[idx]
		attr := ui.AttrNone
		if active && idx == focusedIdx {
			attr = ui.AttrReverse
		}
		r.DrawText(row, col, truncate(formatEntry(e), width), 0, attr)
	}
}

func formatEntry(e listing.Entry) string {
	name := e.Path.Name()
	if e.Stat.IsDir {
		return name + "/"
	}
	return fmt.Sprintf("%-30s %10d", name, e.Stat.Size)
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if len(s) <= width {
		return s
	}
	return s[:width]
}
