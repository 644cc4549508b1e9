package render

import (
	"context"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/peragwin/glslive/gfx"
	"github.com/peragwin/glslive/shader"
)

// State of the frame loop.
type State int

// States
const (
	Running State = iota
	Closing
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "closing"
}

// Window is the input and presentation side of the window system.
type Window interface {
	PollEvents()
	ShouldClose() bool
	FramebufferSize() (int, int)
	SwapBuffers()
}

// Surface is the drawing side of the graphics backend.
type Surface interface {
	Viewport(width, height int)
	Clear()
	DrawQuad()
}

// Programs supplies the program to draw with.
type Programs interface {
	PollAndMaybeReload() (bool, error)
	RequestReload()
	Active() *shader.Program
}

// LoopConfig collects what a Loop drives.
type LoopConfig struct {
	Window    Window
	Surface   Surface
	Programs  Programs
	Binder    *Binder
	Resources *Resources
	// Verbose is toggled by ActionToggleVerbose. May be nil.
	Verbose *atomic.Bool
}

// Loop renders frames until the window closes, the user quits or the context
// is cancelled.
type Loop struct {
	LoopConfig

	state         State
	quit          atomic.Bool
	width, height int
	frames        uint64
}

// NewLoop creates a loop in the Running state.
func NewLoop(cfg LoopConfig) *Loop {
	if cfg.Resources == nil {
		cfg.Resources = &Resources{}
	}
	return &Loop{LoopConfig: cfg}
}

// State returns the current state.
func (l *Loop) State() State { return l.state }

// Frames returns the number of frames presented.
func (l *Loop) Frames() uint64 { return l.frames }

// Quit asks the loop to stop after the current frame. Safe to call from any
// goroutine.
func (l *Loop) Quit() { l.quit.Store(true) }

// HandleAction applies a keyboard action.
func (l *Loop) HandleAction(a gfx.Action) {
	switch a {
	case gfx.ActionReload:
		glog.Info("reload requested")
		l.Programs.RequestReload()
	case gfx.ActionToggleVerbose:
		if l.Verbose != nil {
			v := !l.Verbose.Load()
			l.Verbose.Store(v)
			glog.Infof("verbose %v", v)
		}
	case gfx.ActionQuit:
		l.Quit()
	}
}

// Step runs one iteration: poll input, reload the program if needed, bind
// uniforms, draw and present. Without an active program the draw is skipped
// but the frame is still presented.
func (l *Loop) Step() {
	if l.state != Running {
		return
	}
	l.Window.PollEvents()
	if l.Window.ShouldClose() || l.quit.Load() {
		l.state = Closing
		return
	}

	w, h := l.Window.FramebufferSize()
	if w != l.width || h != l.height {
		glog.V(1).Infof("framebuffer %dx%d", w, h)
		l.Surface.Viewport(w, h)
		l.width, l.height = w, h
	}

	// failures are logged by the manager and the previous program is kept
	if _, err := l.Programs.PollAndMaybeReload(); err != nil {
		glog.V(2).Infof("reload: %v", err)
	}

	l.Surface.Clear()
	if p := l.Programs.Active(); p != nil {
		l.Binder.BindAndPush(p, w, h)
		l.Surface.DrawQuad()
	}
	l.Window.SwapBuffers()
	l.frames++
}

// Run steps until Closing and then releases the registered resources in
// reverse order.
func (l *Loop) Run(ctx context.Context) error {
	for l.state == Running {
		if ctx.Err() != nil {
			glog.Info("shutting down")
			l.state = Closing
			break
		}
		l.Step()
	}
	glog.Infof("closing after %d frames", l.frames)
	return l.Resources.Release()
}
