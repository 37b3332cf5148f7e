package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/profiler"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer"
	"github.com/Carmen-Shannon/oxy-quake/engine/scene"
	"github.com/Carmen-Shannon/oxy-quake/engine/window"
)

// ErrNoWindow is returned by Run when the engine was built without a window.
var ErrNoWindow = errors.New("engine: no window")

// FrameStats counts the work of the render loop.
type FrameStats struct {
	// Presented and Skipped are the renderer's frame counters.
	Presented, Skipped uint64
	// Culled is the number of entities the frustum rejected in the last frame.
	Culled int
}

// engine implements the Engine interface.
// Coordinates the tick, render, and window threads.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates
	resizeChannel   chan [2]int        // Latest framebuffer size for the render goroutine

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window   window.Window
	renderer renderer.Renderer

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32, in *renderer.FrameInput)

	mu     *sync.RWMutex
	scenes map[int]scene.Scene

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	shutdownTimeout  time.Duration
	culled           atomic.Int64
}

// Engine is the main entry point for the engine.
// It runs the fixed-rate tick loop and the render loop, and owns the window message loop.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the renderer driven by the render loop.
	//
	// Returns:
	//   - renderer.Renderer: the renderer, or nil if none was configured
	Renderer() renderer.Renderer

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	// Active scenes advance and the tick callback runs at this rate.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick, after active scenes
	// have advanced. Use this for game logic and input processing.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called each render frame, after the scene was
	// snapshotted and before the frame is drawn. Use it to attach the console and HUD overlays.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds and the frame about to be drawn
	SetRenderCallback(callback func(deltaTime float32, in *renderer.FrameInput))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// AddScene registers a scene at the given key. The active scene with the lowest key is the
	// one drawn each frame; every active scene advances each tick.
	//
	// Parameters:
	//   - key: the scene's priority (lower wins)
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given key.
	//
	// Parameters:
	//   - key: the key of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given key.
	// Returns nil if no scene exists at that key.
	//
	// Parameters:
	//   - key: the key of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes keyed by priority.
	//
	// Returns:
	//   - map[int]scene.Scene: a copy of the scenes map
	Scenes() map[int]scene.Scene

	// Stats returns the render loop counters.
	//
	// Returns:
	//   - FrameStats: frames presented, frames skipped and entities culled last frame
	Stats() FrameStats

	// Run starts the tick and render goroutines and runs the window message loop on the
	// calling goroutine. Blocks until the window closes or Quit is called, then shuts the
	// renderer down.
	//
	// Returns:
	//   - error: ErrNoWindow, or an error from the renderer shutdown
	Run() error

	// Quit signals all engine goroutines to stop and closes the window.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options.
//
// Parameters:
//   - options: functional options for engine configuration (window, renderer, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		resizeChannel:   make(chan [2]int, 1),
		quitChannel:     make(chan struct{}),
		mu:              &sync.RWMutex{},
		scenes:          make(map[int]scene.Scene),
		profiler:        profiler.NewProfiler(),
		engineTickRate:  time.Second / 60,
		shutdownTimeout: 2 * time.Second,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.window.SetResizeCallback(e.onResize)
	}

	return e
}

// onResize runs on the window goroutine. Cameras are updated directly; the renderer resize is
// handed to the render goroutine, keeping only the latest size.
func (e *engine) onResize(width, height int) {
	e.mu.RLock()
	for _, s := range e.scenes {
		if c := s.Camera(); c != nil {
			c.SetViewport(width, height)
		}
	}
	e.mu.RUnlock()

	size := [2]int{width, height}
	select {
	case e.resizeChannel <- size:
	default:
		select {
		case <-e.resizeChannel:
		default:
		}
		e.resizeChannel <- size
	}
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Run() error {
	if e.window == nil {
		return ErrNoWindow
	}
	e.running.Store(true)
	e.handle()
	e.window.ProcessMessages()

	e.signalQuit()
	e.wg.Wait()
	e.running.Store(false)

	if e.renderer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.shutdownTimeout)
	defer cancel()
	presented, skipped := e.renderer.Frames()
	common.LogInfo("engine: shutting down after %d frames (%d skipped)", presented, skipped)
	return e.renderer.Shutdown(ctx)
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handle launches the engine, render, and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(3)
	go e.handleEngine()
	go e.handleRender()
	go e.handleQuit()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Advances active scenes, fires the tick callback, and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			elapsed := now.Sub(lastTick)
			lastTick = now

			for _, s := range e.activeScenes() {
				s.Advance(elapsed)
			}
			if e.tickCallback != nil {
				e.tickCallback(float32(elapsed.Seconds()))
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Every renderer call happens here. Recovers from panics to avoid crashing the process and
// signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			common.LogError("engine: render goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case size := <-e.resizeChannel:
			if e.renderer != nil {
				if err := e.renderer.Resize(size[0], size[1]); err != nil {
					common.LogError("engine: resize to %dx%d: %v", size[0], size[1], err)
				}
			}
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			if !e.renderFrame(dt) {
				// Nothing to draw; avoid spinning.
				time.Sleep(time.Millisecond)
			}

			if e.profilingEnabled.Load() && e.profiler != nil {
				e.profiler.Tick()
			}

			// Frame rate limiting
			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// renderFrame snapshots the drawn scene and renders it. Returns false when there was no
// renderer or no active scene.
func (e *engine) renderFrame(dt float32) bool {
	if e.renderer == nil {
		return false
	}
	active := e.activeScenes()
	if len(active) == 0 {
		return false
	}

	in, culled := active[0].Frame(e.renderer.SampleCount())
	e.culled.Store(int64(culled))

	if e.renderCallback != nil {
		e.renderCallback(dt, &in)
	}

	if err := e.renderer.Render(in); err != nil {
		common.LogError("engine: render: %v", err)
		e.signalQuit()
	}
	return true
}

// activeScenes returns the active scenes in ascending key order.
func (e *engine) activeScenes() []scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()

	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	active := make([]scene.Scene, 0, len(keys))
	for _, k := range keys {
		if s := e.scenes[k]; s.Active() {
			active = append(active, s)
		}
	}
	return active
}

// handleQuit blocks until the quit channel is closed, then asks the window to close so the
// message loop in Run returns.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
	if err := e.window.Close(); err != nil {
		common.LogWarn("engine: close window: %v", err)
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if !e.running.Load() {
		e.engineTickRate = newRate
		return
	}

	// Non-blocking send; a pending update is replaced.
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32, in *renderer.FrameInput)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameDuration(fps)
}

// frameDuration converts a rate cap into a minimum frame duration; 0 means uncapped.
func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scenes[key] = s
}

func (e *engine) RemoveScene(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}

func (e *engine) Stats() FrameStats {
	stats := FrameStats{Culled: int(e.culled.Load())}
	if e.renderer != nil {
		stats.Presented, stats.Skipped = e.renderer.Frames()
	}
	return stats
}
