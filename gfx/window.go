package gfx

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	openglVersionMajor = 4
	openglVersionMinor = 1
)

// Action is a user request raised from the keyboard.
type Action int

// Actions
const (
	ActionReload Action = iota
	ActionToggleVerbose
	ActionQuit
)

// Window represents a wrapped glfw window object.
type Window struct {
	Config     *WindowConfig
	GlfwWindow *glfw.Window

	onAction func(Action)
}

// WindowConfig contains a new window configuration
type WindowConfig struct {
	Width  int
	Height int
	Title  string
}

// NewWindow initializes glfw and opens a window with a current OpenGL 4.1
// core context and vsync enabled.
func NewWindow(cfg *WindowConfig) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, openglVersionMajor)
	glfw.WindowHint(glfw.ContextVersionMinor, openglVersionMinor)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	w := &Window{Config: cfg, GlfwWindow: window}
	window.SetKeyCallback(w.onKey)
	return w, nil
}

// OnAction registers the handler for keyboard actions. It is called from
// PollEvents.
func (w *Window) OnAction(f func(Action)) {
	w.onAction = f
}

func (w *Window) onKey(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press || w.onAction == nil {
		return
	}
	if a, ok := keyAction(key, mods); ok {
		w.onAction(a)
	}
}

func keyAction(key glfw.Key, mods glfw.ModifierKey) (Action, bool) {
	switch {
	case key == glfw.KeyEscape:
		return ActionQuit, true
	case key == glfw.KeyC && mods&glfw.ModControl != 0:
		return ActionQuit, true
	case key == glfw.KeyR:
		return ActionReload, true
	case key == glfw.KeyV:
		return ActionToggleVerbose, true
	}
	return 0, false
}

// PollEvents processes pending window events.
func (w *Window) PollEvents() { glfw.PollEvents() }

// ShouldClose reports whether the window was asked to close.
func (w *Window) ShouldClose() bool { return w.GlfwWindow.ShouldClose() }

// FramebufferSize returns the drawable size in pixels.
func (w *Window) FramebufferSize() (int, int) { return w.GlfwWindow.GetFramebufferSize() }

// SwapBuffers presents the frame.
func (w *Window) SwapBuffers() { w.GlfwWindow.SwapBuffers() }

// Close destroys the window and terminates glfw.
func (w *Window) Close() error {
	w.GlfwWindow.Destroy()
	glfw.Terminate()
	return nil
}
