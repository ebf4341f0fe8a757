package engy

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/looplab/fsm"
)

// EventSink receives every event the App dispatches, after the tree has
// handled it. The ecs sub-package provides a donburi-backed sink.
type EventSink interface {
	EmitEvent(e Event)
}

// Lifecycle states reported by App.State.
const (
	StateCreated = "created"
	StateBuilt   = "built"
	StateRunning = "running"
	StateStopped = "stopped"
)

const (
	evBuild = "build"
	evStart = "start"
	evStop  = "stop"
)

// AppOption configures an App.
type AppOption func(*App)

// WithFS sets the asset file system. Defaults to os.DirFS(cfg.ResourcePath).
func WithFS(fsys fs.FS) AppOption {
	return func(a *App) { a.fsys = fsys }
}

// WithLogger replaces the logger built from the config.
func WithLogger(l *slog.Logger) AppOption {
	return func(a *App) { a.logger = l }
}

// WithClock sets the time source used for frame deltas and log stamps.
func WithClock(now func() time.Time) AppOption {
	return func(a *App) { a.clock = now }
}

// WithEventSink forwards dispatched events to sink.
func WithEventSink(sink EventSink) AppOption {
	return func(a *App) { a.sink = sink }
}

// App owns the root node, the context and the main loop. It implements
// ebiten.Game; Run hands it to Ebitengine, while Step and RenderTo drive it
// directly without a window.
type App struct {
	cfg        Config
	root       *Node
	ctx        *Context
	resources  *ResourceManager
	logger     *slog.Logger
	logCloser  io.Closer
	fsys       fs.FS
	clock      func() time.Time
	sink       EventSink
	lifecycle  *fsm.FSM
	screen     *ScreenSurface
	background color.NRGBA

	start time.Time
	last  time.Time

	poller          inputPoller
	polled          []Event
	events          []Event
	injectQueue     []Event
	script          *InputScript
	screenshotQueue []string
	quitRequested   bool
	drawErr         error
	checkedNodes    int
}

// NewApp creates an application around root. A nil root is replaced by an
// empty node. The context is populated with the app name, the screen
// surface, the resource manager, the logger and the config before any node
// sees it.
func NewApp(cfg Config, root *Node, opts ...AppOption) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if root == nil {
		root = NewNode("root")
	}
	a := &App{
		cfg:    cfg,
		root:   root,
		clock:  time.Now,
		screen: NewScreenSurface(nil),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.start = a.clock()
	a.last = a.start

	if a.fsys == nil {
		a.fsys = os.DirFS(cfg.ResourcePath)
	}
	a.logCloser = nopCloser{}
	if a.logger == nil {
		l, closer, err := NewLogger(cfg, os.Stderr, func() time.Duration { return a.clock().Sub(a.start) })
		if err != nil {
			return nil, err
		}
		a.logger, a.logCloser = l, closer
	}
	a.background, _ = cfg.BackgroundColor()

	imagesDir := cfg.ImagesDir
	if imagesDir == "" {
		imagesDir = DefaultImagesDir
	}
	a.resources = NewResourceManager(a.fsys, WithImagesDir(imagesDir), WithResourceLogger(a.logger))

	a.ctx = NewContext()
	for _, kv := range []struct {
		key string
		val any
	}{
		{KeyAppName, cfg.Name},
		{KeyScreen, Surface(a.screen)},
		{KeyResources, a.resources},
		{KeyLogger, a.logger},
		{KeyConfig, cfg},
	} {
		if err := a.ctx.reserve(kv.key, kv.val); err != nil {
			return nil, err
		}
	}

	a.lifecycle = fsm.NewFSM(
		StateCreated,
		fsm.Events{
			{Name: evBuild, Src: []string{StateCreated}, Dst: StateBuilt},
			{Name: evStart, Src: []string{StateBuilt}, Dst: StateRunning},
			{Name: evStop, Src: []string{StateCreated, StateBuilt, StateRunning}, Dst: StateStopped},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				a.logger.Info("lifecycle", "from", e.Src, "to", e.Dst)
			},
		},
	)

	return a, nil
}

// Root returns the current root node.
func (a *App) Root() *Node { return a.root }

// Context returns the context handed to every node.
func (a *App) Context() *Context { return a.ctx }

// Resources returns the resource manager.
func (a *App) Resources() *ResourceManager { return a.resources }

// Config returns the configuration the app was created with.
func (a *App) Config() Config { return a.cfg }

// Logger returns the app logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// State returns the lifecycle state: created, built, running or stopped.
func (a *App) State() string { return a.lifecycle.Current() }

// Stopped reports whether the main loop has ended.
func (a *App) Stopped() bool { return a.lifecycle.Is(StateStopped) }

func (a *App) transition(event string) {
	if a.lifecycle.Can(event) {
		// Can guarantees the transition exists; Event only fails for
		// unknown or impossible transitions.
		_ = a.lifecycle.Event(context.Background(), event)
	}
}

// Build runs the build phase over the tree. It is called automatically by
// Run, Step and RenderTo; calling it again is a no-op. A failure (for
// instance a missing texture) is fatal: the app stops.
func (a *App) Build() error {
	if !a.lifecycle.Is(StateCreated) {
		return nil
	}
	if err := a.root.Build(a.ctx); err != nil {
		a.logger.Error("build failed", "err", err)
		a.transition(evStop)
		return err
	}
	a.transition(evBuild)
	return nil
}

// Quit asks the main loop to end. A quit event is dispatched to the tree on
// the next step, after which the app stops.
func (a *App) Quit() {
	a.quitRequested = true
}

// Frame runs one step with dt measured by the clock since the previous
// frame, clamped to Config.MaxDeltaTime.
func (a *App) Frame() error {
	return a.frame(nil)
}

func (a *App) frame(polled []Event) error {
	now := a.clock()
	dt := now.Sub(a.last).Seconds()
	a.last = now
	if dt > a.cfg.MaxDeltaTime {
		dt = a.cfg.MaxDeltaTime
	}
	if dt < 0 {
		dt = 0
	}
	return a.step(dt, polled)
}

// Step runs one iteration of the loop without presenting: the input script
// advances, queued events are dispatched to the tree and the event sink,
// then the tree is updated by dt seconds. A quit event stops the app after
// it has been dispatched; the tree is not updated on that step. Any error is
// fatal and stops the app.
func (a *App) Step(dt float64) error {
	return a.step(dt, nil)
}

func (a *App) step(dt float64, polled []Event) error {
	if a.Stopped() {
		return nil
	}
	if err := a.Build(); err != nil {
		return err
	}
	if a.lifecycle.Is(StateBuilt) {
		a.transition(evStart)
		a.last = a.clock()
	}

	var stats frameStats
	var t0 time.Time
	if a.cfg.Debug {
		t0 = time.Now()
	}

	if a.script != nil {
		a.script.step(a)
	}
	a.events = a.events[:0]
	if e, ok := a.popInjected(); ok {
		a.events = append(a.events, e)
	}
	a.events = append(a.events, polled...)
	if a.quitRequested {
		a.events = append(a.events, Event{Type: EventQuit})
		a.quitRequested = false
	}

	quit := false
	for _, e := range a.events {
		if err := a.root.HandleEvent(a.ctx, e); err != nil {
			return a.fail(err)
		}
		if a.sink != nil {
			a.sink.EmitEvent(e)
		}
		if e.Type == EventQuit {
			quit = true
		}
	}
	if quit {
		a.logger.Info("quit requested")
		a.transition(evStop)
		return nil
	}

	if a.cfg.Debug {
		stats.events = len(a.events)
		stats.eventTime = time.Since(t0)
		t0 = time.Now()
	}

	if err := a.root.Update(a.ctx, dt); err != nil {
		return a.fail(err)
	}

	if a.cfg.Debug {
		stats.updateTime = time.Since(t0)
		stats.nodes = countNodes(a.root)
		a.debugCheckTree(stats.nodes)
		a.debugLog(stats)
	}
	return nil
}

func (a *App) fail(err error) error {
	a.logger.Error("fatal error", "err", err)
	a.transition(evStop)
	return err
}

// RenderTo fills s with the background colour and renders the tree onto
// it. s becomes the context's screen for the duration of the render.
// Queued screenshots are taken afterwards when s supports read-back.
func (a *App) RenderTo(s Surface) error {
	if err := a.Build(); err != nil {
		return err
	}
	if a.ctx.Screen() != s {
		if err := a.ctx.reserve(KeyScreen, s); err != nil {
			return err
		}
	}

	var t0 time.Time
	if a.cfg.Debug {
		t0 = time.Now()
	}

	s.Fill(a.background)
	if err := a.root.Render(a.ctx, s); err != nil {
		return a.fail(err)
	}
	a.flushScreenshots(s)

	if a.cfg.Debug {
		a.debugLog(frameStats{renderTime: time.Since(t0)})
	}
	return nil
}

// ChangeRoot replaces the tree. The new root is detached from its parent
// first, so it may come from inside the old tree. The old root is then
// destroyed and the new one built straight away unless the app has not been
// built yet. A destroyed node is rejected with ErrDestroyed.
func (a *App) ChangeRoot(root *Node) error {
	if root == nil {
		return errors.New("engy: change root: nil root")
	}
	if root == a.root {
		return nil
	}
	if root.IsDestroyed() {
		return &NodeError{Node: root.Path(), Op: "change_root", Err: ErrDestroyed}
	}
	root.RemoveFromParent()
	old := a.root
	a.root = root
	a.checkedNodes = 0
	old.Destroy()
	a.logger.Info("root changed", "from", old.Name, "to", root.Name)
	if a.lifecycle.Is(StateCreated) {
		return nil
	}
	if err := root.Build(a.ctx); err != nil {
		return a.fail(err)
	}
	return nil
}

// Close destroys the tree, stops the app and closes the log file.
func (a *App) Close() error {
	a.root.Destroy()
	a.transition(evStop)
	c := a.logCloser
	a.logCloser = nopCloser{}
	return c.Close()
}

// --- ebiten.Game ---

// Update implements ebiten.Game. It polls input and runs one frame.
func (a *App) Update() error {
	if a.drawErr != nil {
		return a.drawErr
	}
	a.polled = a.poller.poll(a.polled[:0])
	if err := a.frame(a.polled); err != nil {
		return err
	}
	if a.Stopped() {
		return ebiten.Termination
	}
	return nil
}

// Draw implements ebiten.Game. Render errors surface from the next Update.
func (a *App) Draw(screen *ebiten.Image) {
	if a.drawErr != nil || a.Stopped() {
		return
	}
	a.screen.SetTarget(screen)
	if err := a.RenderTo(a.screen); err != nil {
		a.drawErr = err
	}
}

// Layout implements ebiten.Game with a fixed logical screen size.
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return a.cfg.Width, a.cfg.Height
}

// Run opens the window and blocks until the app quits or a node fails. TPS
// from the config caps the frame rate. The app is closed on return.
func (a *App) Run() (err error) {
	defer func() {
		if cerr := a.Close(); err == nil {
			err = cerr
		}
	}()

	ebiten.SetWindowSize(a.cfg.Width, a.cfg.Height)
	title := a.cfg.Title
	if title == "" {
		title = a.cfg.Name
	}
	ebiten.SetWindowTitle(title)
	ebiten.SetFullscreen(a.cfg.Fullscreen)
	ebiten.SetTPS(a.cfg.TPS)
	ebiten.SetWindowClosingHandled(true)

	if err := a.Build(); err != nil {
		return err
	}
	a.logger.Info("starting", "width", a.cfg.Width, "height", a.cfg.Height, "tps", a.cfg.TPS)
	if err := ebiten.RunGame(a); err != nil {
		return fmt.Errorf("engy: run: %w", err)
	}
	return nil
}
