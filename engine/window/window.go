package window

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides platform windowing and input event handling.
// Input callbacks run on the goroutine that calls ProcessMessages.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving scroll delta (positive = up, negative = down)
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key press and repeat events.
	//
	// Parameters:
	//   - callback: function receiving the key code (see the common.Key* constants)
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the callback for key release events.
	//
	// Parameters:
	//   - callback: function receiving the key code
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetCharCallback sets the callback for text input, used by the console line editor.
	//
	// Parameters:
	//   - callback: function receiving the typed rune
	SetCharCallback(callback func(r rune))

	// SetMouseButtonCallback sets the callback for mouse button presses and releases.
	//
	// Parameters:
	//   - callback: function receiving the button (see the common.Mouse* constants) and whether it is down
	SetMouseButtonCallback(callback func(button int, pressed bool))

	// SetMouseMoveCallback sets the callback for mouse movement.
	// While the cursor is captured the deltas are unbounded, as needed for mouse look.
	//
	// Parameters:
	//   - callback: function receiving the cursor movement since the previous event
	SetMouseMoveCallback(callback func(dx, dy float32))

	// SetCursorCaptured hides the cursor and locks it to the window, or releases it.
	//
	// Parameters:
	//   - captured: true to capture the cursor
	SetCursorCaptured(captured bool)

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// Close asks the message loop to stop. It may be called from any goroutine; the platform
	// window is destroyed by ProcessMessages once its loop exits. Safe to call more than once.
	//
	// Returns:
	//   - error: error if the window was never created
	Close() error

	// ProcessMessages runs the window message loop on the calling goroutine, which must be the
	// one that created the window. Blocks until the window is closed.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title string

	// size limits applied to the platform window; zero leaves a bound unset
	maxWidth, maxHeight int
	minWidth, minHeight int

	// width and height are read by the render goroutine while the message loop updates them.
	width  atomic.Int32
	height atomic.Int32

	captureCursor bool
	closeOnce     sync.Once

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onUpdate      func()
	onResize      func(width, height int)
	onScroll      func(delta float32)
	onKeyDown     func(keyCode uint32)
	onKeyUp       func(keyCode uint32)
	onChar        func(r rune)
	onMouseButton func(button int, pressed bool)
	onMouseMove   func(dx, dy float32)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a new Window. It locks the calling goroutine to its OS thread;
// ProcessMessages must later be called from the same goroutine.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the created window
//   - error: an error if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "oxy-quake",
		minWidth:  320,
		minHeight: 200,
	}
	w.width.Store(1280)
	w.height.Store(720)
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	return w, nil
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SetCharCallback(callback func(r rune)) {
	w.onChar = callback
}

func (w *engineWindow) SetMouseButtonCallback(callback func(button int, pressed bool)) {
	w.onMouseButton = callback
}

func (w *engineWindow) SetMouseMoveCallback(callback func(dx, dy float32)) {
	w.onMouseMove = callback
}

func (w *engineWindow) SetCursorCaptured(captured bool) {
	w.captureCursor = captured
	platformSetCursorCaptured(w, captured)
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	if w.internalWindow == nil {
		return fmt.Errorf("window is not initialized")
	}
	platformRequestClose(w)
	return nil
}

func (w *engineWindow) ProcessMessages() {
	defer w.closeOnce.Do(func() { platformDestroyWindow(w) })

	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return int(w.width.Load())
}

func (w *engineWindow) Height() int {
	return int(w.height.Load())
}

// setSize records a new framebuffer size and reports it to the resize callback.
func (w *engineWindow) setSize(width, height int) {
	w.width.Store(int32(width))
	w.height.Store(int32(height))
	if w.onResize != nil {
		w.onResize(width, height)
	}
}
