// Command tfm is the dual-pane terminal file manager's entry point: flag
// parsing, backend registry wiring, and the main input/render loop,
// grounded on spec.md §6's CLI surface and §5's "suspend only in
// get_input() with a short timeout" scheduling model. There is no direct
// teacher cmd/ analogue (the teacher's CLI tree is cobra-based and
// subcommand-oriented; this tool has a flat flag surface per spec.md §6),
// so flag handling here follows pflag directly instead of cobra.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/shimomut/tfm-sub010/internal/cache"
	"github.com/shimomut/tfm-sub010/internal/pane"
	"github.com/shimomut/tfm-sub010/internal/statestore"
	"github.com/shimomut/tfm-sub010/internal/task"
	"github.com/shimomut/tfm-sub010/internal/tfmlog"
	"github.com/shimomut/tfm-sub010/internal/ui"
	"github.com/shimomut/tfm-sub010/internal/ui/dualpane"
	"github.com/shimomut/tfm-sub010/internal/ui/taskdialogs"
	"github.com/shimomut/tfm-sub010/internal/uirender/tcellrender"
	"github.com/shimomut/tfm-sub010/internal/vpath"
	"github.com/shimomut/tfm-sub010/internal/vpath/archivefs"
	"github.com/shimomut/tfm-sub010/internal/vpath/local"
	"github.com/shimomut/tfm-sub010/internal/vpath/s3fs"
	"github.com/shimomut/tfm-sub010/internal/vpath/sftpfs"
)

// version is the tool's release string, overridden at build time via
// -ldflags "-X main.version=...".
var version = "dev"

const (
	exitOK            = 0
	exitFatal         = 1
	exitInvalidArgs   = 2
	inputPollInterval = 150 * time.Millisecond
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("tfm", pflag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: tfm [--left <path>] [--right <path>] [--log-file <path>] [--remote-log-port <port>]")
		flags.PrintDefaults()
	}

	left := flags.String("left", "", "override left pane starting directory")
	right := flags.String("right", "", "override right pane starting directory")
	logFile := flags.String("log-file", "", "append log records to this file")
	remoteLogPort := flags.Uint16("remote-log-port", 0, "TCP port broadcasting log messages as JSON lines")
	help := flags.BoolP("help", "h", false, "show this help message")
	showVersion := flags.BoolP("version", "v", false, "print the version and exit")

	if err := flags.Parse(args); err != nil {
		flags.Usage()
		return exitInvalidArgs
	}
	if *help {
		flags.Usage()
		return exitOK
	}
	if *showVersion {
		fmt.Println("tfm", version)
		return exitOK
	}

	logger, closeLog, err := tfmlog.New(tfmlog.Options{LogFilePath: *logFile, RemoteLogPort: *remoteLogPort})
	if err != nil {
		fmt.Fprintln(os.Stderr, "tfm:", err)
		return exitFatal
	}
	defer closeLog()

	if err := launch(*left, *right, logger); err != nil {
		logger.Errorf("tfm", "%v", err)
		fmt.Fprintln(os.Stderr, "tfm:", err)
		return exitFatal
	}
	return exitOK
}

// launch builds the application's dependency graph and runs the main
// loop to completion.
func launch(leftOverride, rightOverride string, logger *tfmlog.Logger) error {
	dbPath, err := statestore.DefaultPath()
	if err != nil {
		return err
	}
	store, err := statestore.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	reg := buildRegistry()
	cacheCoord := cache.New()
	taskCoord := task.NewCoordinator()

	leftPath, err := startingPath(reg, store, "left", leftOverride)
	if err != nil {
		return err
	}
	rightPath, err := startingPath(reg, store, "right", rightOverride)
	if err != nil {
		return err
	}

	renderer, err := tcellrender.New()
	if err != nil {
		return err
	}
	defer renderer.Close()

	rows, _ := renderer.Dimensions()
	viewportLines := rows - 2
	if viewportLines < 1 {
		viewportLines = 1
	}

	leftPane := pane.New(leftPath, store, viewportLines)
	rightPane := pane.New(rightPath, store, viewportLines)
	leftPane.SetCache(cacheCoord)
	rightPane.SetCache(cacheCoord)

	ctx := context.Background()
	if err := leftPane.Navigate(ctx, leftPath, ""); err != nil {
		logger.Errorf(leftPath, "initial listing failed: %v", err)
	}
	if err := rightPane.Navigate(ctx, rightPath, ""); err != nil {
		logger.Errorf(rightPath, "initial listing failed: %v", err)
	}
	manager := pane.NewManager(leftPane, rightPane)

	var stack *ui.Stack
	dialogs := taskdialogs.New(stackAdapter{get: func() *ui.Stack { return stack }})
	view := dualpane.New(manager, reg, taskCoord, dialogs, stackAdapter{get: func() *ui.Stack { return stack }}, logger, cacheCoord)
	stack = ui.NewStack(view, taskCoord)

	return mainLoop(stack, view, renderer, store)
}

// stackAdapter defers resolution of the *ui.Stack pointer until first use,
// since the Stack itself must be constructed after the layers (dualpane.View,
// taskdialogs.Bridge) that need to push onto it.
type stackAdapter struct {
	get func() *ui.Stack
}

func (a stackAdapter) Push(l ui.Layer) {
	a.get().Push(l)
}

func mainLoop(stack *ui.Stack, view *dualpane.View, renderer *tcellrender.Renderer, store *statestore.Store) error {
	for !view.ShouldQuit() {
		stack.CollectClosed()
		if stack.NeedsRedraw() {
			renderer.Clear()
			stack.Render(renderer)
			renderer.Refresh()
		}

		ctx, cancel := context.WithTimeout(context.Background(), inputPollInterval)
		key, char, isChar, ok := renderer.GetInput(ctx)
		cancel()
		if !ok {
			continue
		}
		if isChar {
			stack.HandleCharEvent(char)
			continue
		}
		if key.Key == ui.KeyResize {
			view.MarkDirty()
			continue
		}
		stack.HandleKeyEvent(key)
	}
	persistPanePaths(store, view)
	return nil
}

func persistPanePaths(store *statestore.Store, view *dualpane.View) {
	left, right := view.Manager().Pane(pane.Left), view.Manager().Pane(pane.Right)
	store.SetPanePath("left", left.Path().String())
	store.SetPanePath("right", right.Path().String())
}

// startingPath resolves one pane's boot directory: an explicit --left/
// --right override (which suppresses history restore per spec.md §6),
// else the persisted pane path, else the process's working directory.
func startingPath(reg *vpath.Registry, store *statestore.Store, side, override string) (vpath.Path, error) {
	if override != "" {
		return vpath.Parse(reg, override)
	}
	if saved, ok := store.PanePath(side); ok {
		if p, err := vpath.Parse(reg, saved); err == nil {
			return p, nil
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return vpath.Path{}, err
	}
	return vpath.Parse(reg, wd)
}

// buildRegistry wires every backend factory spec.md §3 names: local is
// installed eagerly (there is only ever one), SSH/S3/archive are lazy
// factories the Registry pools per spec.md §9's "Cyclic references" note.
func buildRegistry() *vpath.Registry {
	reg := vpath.NewRegistry()
	reg.SetLocal(local.New())
	reg.SetSSHFactory(func(hostAlias string) (vpath.Backend, error) {
		return sftpfs.New(hostAlias)
	})
	reg.SetS3Factory(func() (vpath.Backend, error) {
		return s3fs.New()
	})
	reg.SetArchiveFactory(func(container vpath.Path) (vpath.Backend, error) {
		return archivefs.New(context.Background(), container)
	})
	return reg
}
