package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-quake/engine/renderer"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/ui"
	"github.com/Carmen-Shannon/oxy-quake/engine/scene"
	"github.com/Carmen-Shannon/oxy-quake/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// fakeWindow runs a message loop that returns once Close is called.
type fakeWindow struct {
	closed    chan struct{}
	closeOnce sync.Once
	onResize  func(width, height int)
}

var _ window.Window = &fakeWindow{}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{closed: make(chan struct{})}
}

func (w *fakeWindow) SetUpdateCallback(func()) {}
func (w *fakeWindow) SetResizeCallback(cb func(width, height int)) { w.onResize = cb }
func (w *fakeWindow) SetScrollCallback(func(float32)) {}
func (w *fakeWindow) SetKeyDownCallback(func(uint32)) {}
func (w *fakeWindow) SetKeyUpCallback(func(uint32)) {}
func (w *fakeWindow) SetCharCallback(func(rune)) {}
func (w *fakeWindow) SetMouseButtonCallback(func(int, bool)) {}
func (w *fakeWindow) SetMouseMoveCallback(func(float32, float32)) {}
func (w *fakeWindow) SetCursorCaptured(bool) {}
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (w *fakeWindow) Width() int { return 320 }
func (w *fakeWindow) Height() int { return 240 }
func (w *fakeWindow) ProcessMessages() { <-w.closed }

func (w *fakeWindow) IsRunning() bool {
	select {
	case <-w.closed:
		return false
	default:
		return true
	}
}

func (w *fakeWindow) Close() error {
	w.closeOnce.Do(func() { close(w.closed) })
	return nil
}

// fakeRenderer records the calls the render loop makes. Methods the loop never calls are left
// to the nil embedded interface.
type fakeRenderer struct {
	renderer.Renderer

	mu       sync.Mutex
	frames   atomic.Uint64
	resized  [2]int
	shutdown bool
	consoles int
}

func (r *fakeRenderer) SampleCount() uint32 { return 1 }

func (r *fakeRenderer) Render(in renderer.FrameInput) error {
	if in.Console != nil {
		r.mu.Lock()
		r.consoles++
		r.mu.Unlock()
	}
	r.frames.Add(1)
	return nil
}

func (r *fakeRenderer) Resize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resized = [2]int{width, height}
	return nil
}

func (r *fakeRenderer) Frames() (uint64, uint64) {
	return r.frames.Load(), 0
}

func (r *fakeRenderer) Shutdown(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shutdown = true
	return nil
}

func TestRunWithoutWindow(t *testing.T) {
	e := NewEngine()
	if err := e.Run(); !errors.Is(err, ErrNoWindow) {
		t.Errorf("got %v, want ErrNoWindow", err)
	}
}

func TestRunDrawsActiveScene(t *testing.T) {
	w := newFakeWindow()
	r := &fakeRenderer{}
	s := scene.NewScene("level", nil, scene.WithActive(true))
	e := NewEngine(WithWindow(w), WithRenderer(r), WithScene(0, s), WithTickRate(1000))

	console := &ui.ConsoleState{}
	e.SetRenderCallback(func(dt float32, in *renderer.FrameInput) {
		in.Console = console
		if r.frames.Load() >= 3 {
			e.Quit()
		}
	})

	done := make(chan error, 1)
	go func() { done <- e.Run() }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("got %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("got Run still blocked, want it to return after Quit")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.shutdown {
		t.Errorf("got renderer not shut down, want shut down")
	}
	if r.consoles < 3 {
		t.Errorf("got %d frames with a console, want at least 3", r.consoles)
	}
	if got := e.Stats().Presented; got < 3 {
		t.Errorf("got %d presented, want at least 3", got)
	}
}

func TestResizeUpdatesCameraAndRenderer(t *testing.T) {
	w := newFakeWindow()
	r := &fakeRenderer{}
	s := scene.NewScene("level", nil, scene.WithActive(true))
	e := NewEngine(WithWindow(w), WithRenderer(r), WithScene(0, s))
	e.SetRenderCallback(func(float32, *renderer.FrameInput) {
		if r.frames.Load() >= 1 {
			e.Quit()
		}
	})

	w.onResize(640, 320)
	if got := s.Camera().Aspect(); got != 2 {
		t.Errorf("got aspect %v, want 2", got)
	}

	if err := e.Run(); err != nil {
		t.Fatalf("got %v, want nil", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resized != [2]int{640, 320} {
		t.Errorf("got resize %v, want [640 320]", r.resized)
	}
}

func TestInactiveScenesAreNotDrawn(t *testing.T) {
	tests := []struct {
		name   string
		scenes map[int]bool
		want   string
	}{
		{"none", map[int]bool{}, ""},
		{"lowest active wins", map[int]bool{2: true, 1: true}, "1"},
		{"inactive skipped", map[int]bool{0: false, 5: true}, "5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine().(*engine)
			for key, active := range tt.scenes {
				e.AddScene(key, scene.NewScene(string(rune('0'+key)), nil, scene.WithActive(active)))
			}
			got := ""
			if active := e.activeScenes(); len(active) > 0 {
				got = active[0].Name()
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSetTickRate(t *testing.T) {
	e := NewEngine(WithTickRate(20)).(*engine)
	if e.engineTickRate != 50*time.Millisecond {
		t.Errorf("got %v, want 50ms", e.engineTickRate)
	}
	e.SetTickRate(0)
	if e.engineTickRate != time.Second/60 {
		t.Errorf("got %v, want the 60Hz default", e.engineTickRate)
	}
	e.SetRenderFrameLimit(100)
	if e.renderFrameLimit != 10*time.Millisecond {
		t.Errorf("got %v, want 10ms", e.renderFrameLimit)
	}
	e.SetRenderFrameLimit(-1)
	if e.renderFrameLimit != 0 {
		t.Errorf("got %v, want uncapped", e.renderFrameLimit)
	}
}
