// Package host is the desktop view the cube is mounted into: a glfw window
// with a GL context whose event loop drives a core.FrameLoop.
package host

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"album-cube/core"
)

func init() {
	runtime.LockOSThread()
}

// Window is the glfw-backed host view. It owns the GL context, fans out resize
// events to listeners and drives a FrameLoop from its event loop.
type Window struct {
	Handle *glfw.Window
	Width  int
	Height int
	Title  string

	*core.FrameLoop

	nextListener int
	listeners    map[int]func(width, height int)
	listenOrder  []int
}

type WindowConfig struct {
	Width      int
	Height     int
	Title      string
	Resizable  bool
	VSync      bool
	Fullscreen bool
}

func NewWindow(config WindowConfig) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, boolToInt(config.Resizable))

	monitor := (*glfw.Monitor)(nil)
	if config.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
	}

	handle, err := glfw.CreateWindow(config.Width, config.Height, config.Title, monitor, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	handle.MakeContextCurrent()
	if config.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	window := &Window{
		Handle:    handle,
		Width:     config.Width,
		Height:    config.Height,
		Title:     config.Title,
		FrameLoop: core.NewFrameLoop(),
		listeners: make(map[int]func(width, height int)),
	}
	window.Width, window.Height = handle.GetFramebufferSize()

	handle.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		window.Width = width
		window.Height = height
		window.notifyResize()
	})

	return window, nil
}

// Size returns the framebuffer size in pixels.
func (w *Window) Size() (int, int) {
	return w.Width, w.Height
}

// AddResizeListener registers fn for framebuffer resizes and returns its handle.
func (w *Window) AddResizeListener(fn func(width, height int)) int {
	w.nextListener++
	id := w.nextListener
	w.listeners[id] = fn
	w.listenOrder = append(w.listenOrder, id)
	return id
}

func (w *Window) RemoveResizeListener(id int) {
	if _, ok := w.listeners[id]; !ok {
		return
	}
	delete(w.listeners, id)
	for i, lid := range w.listenOrder {
		if lid == id {
			w.listenOrder = append(w.listenOrder[:i], w.listenOrder[i+1:]...)
			break
		}
	}
}

func (w *Window) notifyResize() {
	for _, id := range w.listenOrder {
		if fn, ok := w.listeners[id]; ok {
			fn(w.Width, w.Height)
		}
	}
}

func (w *Window) ShouldClose() bool {
	return w.Handle.ShouldClose()
}

func (w *Window) SetShouldClose(v bool) {
	w.Handle.SetShouldClose(v)
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

func (w *Window) SwapBuffers() {
	w.Handle.SwapBuffers()
}

// Step runs one iteration of the host loop: events, posted work and frame callbacks, present.
func (w *Window) Step() {
	w.PollEvents()
	w.Tick()
	w.SwapBuffers()
}

func (w *Window) Destroy() {
	w.Handle.Destroy()
	glfw.Terminate()
}

func (w *Window) IsKeyPressed(key int) bool {
	return w.Handle.GetKey(glfw.Key(key)) == glfw.Press
}

func (w *Window) SetTitle(title string) {
	w.Handle.SetTitle(title)
	w.Title = title
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

const (
	KeySpace  = int(glfw.KeySpace)
	KeyEscape = int(glfw.KeyEscape)
)
