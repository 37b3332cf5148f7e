// Package renderer drives the deferred frame: the geometry pass fills the G-buffer, the resolve
// pass lights it, post-processing and the UI draw into the final color, and the blit pass copies
// that to the surface. Every pass shares one ResourceGraph for the objects no pass owns alone.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/config"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/blit"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/deferred"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/postprocess"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/target"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/ui"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/world"
	"github.com/cogentcore/webgpu/wgpu"
)

// SurfaceSource is the window the renderer presents to. window.Window satisfies it.
type SurfaceSource interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// FrameInput is everything one frame draws. The renderer reads it during Render only.
type FrameInput struct {
	// Frame is the per-frame snapshot bound as group 0 of the geometry pass.
	Frame uniform.FrameContext
	// Elapsed drives texture and model animations.
	Elapsed time.Duration
	// ViewProj is projection × view; the resolve pass reconstructs positions with its inverse.
	ViewProj common.Mat4

	Brushes []world.BrushDraw
	Aliases []world.AliasDraw

	// Lights are the render-space dynamic lights. Only the first uniform.MaxLights are used.
	Lights []uniform.GPUPointLight
	// ColorShift is the blend applied over the lit frame; alpha 0 disables it.
	ColorShift [4]float32

	// Console, when set, draws the console over the frame.
	Console *ui.ConsoleState
	// Hud, when set, draws the status bar.
	Hud *ui.HudState
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	cfg     config.Config
	backend backend.Backend
	graph   resource.ResourceGraph
	dummies *material.Dummies
	targets *target.Targets

	gbuffer world.GBufferPass
	resolve deferred.ResolvePass
	post    postprocess.PostProcessPass
	blit    blit.BlitPass
	ui      ui.Renderer
	watcher shader.Watcher

	frames  uint64
	skipped uint64

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	uiAssets             ui.Assets
}

// Renderer owns the backend, the resource graph and every pass of the deferred frame.
//
// Methods must not be called concurrently; the engine calls them from its render goroutine.
type Renderer interface {
	// Backend returns the GPU backend, for creating model resources.
	Backend() backend.Backend

	// Graph returns the resource graph shared by every pass and model.
	Graph() resource.ResourceGraph

	// Dummies returns the placeholder textures used for missing diffuse, fullbright and
	// lightmap data.
	Dummies() *material.Dummies

	// GBuffer returns the geometry pass, whose layouts brush and alias models are built against.
	GBuffer() world.GBufferPass

	// UI returns the overlay renderer.
	UI() ui.Renderer

	// SampleCount returns the sample count of the G-buffer and resolve targets.
	SampleCount() uint32

	// Resize reconfigures the surface and rebuilds every per-size target. A zero size, as
	// reported for a minimized window, is ignored.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: an error if the surface or targets could not be rebuilt
	Resize(width, height int) error

	// Render records and presents one frame. If the surface was invalidated or the device
	// refused the frame, the surface and targets are rebuilt, the frame is skipped and nil is
	// returned. Graph entries survive the rebuild.
	//
	// Parameters:
	//   - in: the frame to draw
	//
	// Returns:
	//   - error: an error if recovery failed or the frame could not be submitted
	Render(in FrameInput) error

	// Frames returns the number of frames presented and the number skipped.
	Frames() (presented, skipped uint64)

	// Shutdown waits for in-flight frames, releases every pass and graph entry, and releases
	// the backend. The Renderer must not be used afterwards.
	//
	// Parameters:
	//   - ctx: bounds the wait for in-flight frames
	//
	// Returns:
	//   - error: ctx's error if the wait was cut short; resources are released regardless
	Shutdown(ctx context.Context) error
}

var _ Renderer = &renderer{}

// NewRenderer creates the backend on window's surface and builds every pass.
//
// Parameters:
//   - window: the surface to present to
//   - cfg: the engine configuration
//   - options: builder options overriding cfg
//
// Returns:
//   - Renderer: the renderer
//   - error: an error if no adapter or device is available, or a pass could not be built
func NewRenderer(window SurfaceSource, cfg config.Config, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:                   &sync.Mutex{},
		cfg:                  cfg,
		forceFallbackAdapter: cfg.Renderer.ForceFallbackAdapter,
		uiAssets:             ui.Assets{Glyphs: ui.BasicFontAtlas()},
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	msaa := MSAASampleCount(cfg.Renderer.MSAA)
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}
	mode := PresentModeUncapped
	if cfg.Renderer.VSync {
		mode = PresentModeVSync
	}
	if r.pendingPresentMode != nil {
		mode = *r.pendingPresentMode
	}

	b, err := backend.NewWGPUBackend(window.SurfaceDescriptor(), r.forceFallbackAdapter, msaa)
	if err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}
	r.backend = b
	r.backend.SetPresentMode(mode)
	if err := r.backend.ConfigureSurface(window.Width(), window.Height()); err != nil {
		r.backend.Release()
		return nil, fmt.Errorf("renderer: %w", err)
	}
	r.graph = resource.NewResourceGraph(r.backend)

	if err := r.build(); err != nil {
		r.release()
		return nil, err
	}

	if r.cfg.Renderer.HotReload && r.cfg.Renderer.ShaderDir != "" {
		if r.watcher, err = shader.NewWatcher(r.cfg.Renderer.ShaderDir, r.preProcessorFor); err != nil {
			common.LogWarn("renderer: hot reload disabled: %v", err)
		}
	}

	w, h := r.targets.Size()
	common.LogInfo("renderer: %dx%d at %d samples, surface %v", w, h, r.targets.SampleCount(), r.backend.SurfaceFormat())
	return r, nil
}

// build creates the targets and passes in frame order.
func (r *renderer) build() error {
	samples := uint32(r.backend.SampleCount())
	w, h := r.backend.Size()
	shaderDir := r.cfg.Renderer.ShaderDir

	var err error
	if r.dummies, err = material.AcquireDummies(r.graph, r.backend); err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	if r.targets, err = target.NewTargets(r.backend, w, h, samples); err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	if r.gbuffer, err = world.NewGBufferPass(r.backend, r.graph, r.cfg, samples); err != nil {
		return fmt.Errorf("renderer: geometry pass: %w", err)
	}
	if r.resolve, err = deferred.NewResolvePass(r.backend, r.graph, r.cfg, r.targets); err != nil {
		return fmt.Errorf("renderer: resolve pass: %w", err)
	}
	if r.post, err = postprocess.NewPostProcessPass(r.backend, r.graph, shaderDir, r.targets); err != nil {
		return fmt.Errorf("renderer: post-process pass: %w", err)
	}
	if r.ui, err = ui.NewRenderer(r.backend, r.graph, shaderDir, samples, r.uiAssets); err != nil {
		return fmt.Errorf("renderer: ui: %w", err)
	}
	if r.blit, err = blit.NewBlitPass(r.backend, r.graph, shaderDir, r.targets); err != nil {
		return fmt.Errorf("renderer: blit pass: %w", err)
	}
	return nil
}

// preProcessorFor returns the pre-processor an asset is built with. The blit pass samples the
// single-sample final color; every other pass runs at the target sample count.
func (r *renderer) preProcessorFor(name string) shader.PreProcessor {
	samples := uint32(r.backend.SampleCount())
	if name == shader.AssetBlit {
		samples = 1
	}
	opts := []shader.PreProcessorOption{shader.WithSampleCount(samples)}
	opts = append(opts, shader.ShadingConstants(r.cfg.Shading)...)
	return shader.NewPreProcessor(opts...)
}

func (r *renderer) Backend() backend.Backend {
	return r.backend
}

func (r *renderer) Graph() resource.ResourceGraph {
	return r.graph
}

func (r *renderer) Dummies() *material.Dummies {
	return r.dummies
}

func (r *renderer) GBuffer() world.GBufferPass {
	return r.gbuffer
}

func (r *renderer) UI() ui.Renderer {
	return r.ui
}

func (r *renderer) SampleCount() uint32 {
	return r.targets.SampleCount()
}

func (r *renderer) Frames() (uint64, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames, r.skipped
}

func (r *renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	if err := r.backend.ConfigureSurface(width, height); err != nil {
		return fmt.Errorf("resize: %w", err)
	}
	return r.rebuildTargets()
}

// rebuildTargets recreates the per-size attachments at the configured surface size and
// rebinds the passes that read them.
func (r *renderer) rebuildTargets() error {
	w, h := r.backend.Size()
	if err := r.targets.Rebuild(w, h); err != nil {
		return fmt.Errorf("rebuild targets: %w", err)
	}
	for _, p := range []interface{ Rebuild(*target.Targets) error }{r.resolve, r.post, r.blit} {
		if err := p.Rebuild(r.targets); err != nil {
			return fmt.Errorf("rebuild targets: %w", err)
		}
	}
	common.LogDebug("renderer: targets rebuilt at %dx%d", w, h)
	return nil
}

// recoverSurface reconfigures the surface after BeginFrame or EndFrame failed.
func (r *renderer) recoverSurface(cause error) error {
	r.mu.Lock()
	r.skipped++
	r.mu.Unlock()

	common.LogWarn("renderer: skipping frame: %v", cause)
	w, h := r.backend.Size()
	if err := r.backend.ConfigureSurface(int(w), int(h)); err != nil {
		return fmt.Errorf("recover surface: %w: %w", cause, err)
	}
	return r.rebuildTargets()
}

func (r *renderer) Render(in FrameInput) error {
	r.applyShaderChanges()
	if n := r.graph.Collect(r.backend.Completed()); n > 0 {
		common.LogDebug("renderer: destroyed %d released resources", n)
	}

	frame, err := r.backend.BeginFrame()
	if errors.Is(err, backend.ErrSurfaceInvalidated) || errors.Is(err, backend.ErrDeviceLost) {
		return r.recoverSurface(err)
	}
	if err != nil {
		return err
	}

	r.resolve.SetLights(in.Lights)
	r.post.SetColorShift(in.ColorShift)
	if in.Console != nil {
		r.ui.DrawConsole(*in.Console)
	}
	if in.Hud != nil {
		r.ui.DrawHud(*in.Hud)
	}

	r.gbuffer.Record(frame.Encoder, &r.targets.GBuffer, in.Frame, in.Elapsed, in.Brushes, in.Aliases)
	r.resolve.Record(frame.Encoder, r.targets, in.ViewProj)
	r.recordFinal(frame.Encoder)
	r.blit.Record(frame.Encoder, frame.SurfaceView)

	if err := r.backend.EndFrame(frame); err != nil {
		r.backend.Present(frame)
		if errors.Is(err, backend.ErrDeviceLost) {
			return r.recoverSurface(err)
		}
		return err
	}
	r.backend.Present(frame)

	r.mu.Lock()
	r.frames++
	r.mu.Unlock()
	return nil
}

// recordFinal records post-processing and the UI into one pass on the final color target.
func (r *renderer) recordFinal(encoder *wgpu.CommandEncoder) {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:            "final",
		ColorAttachments: []wgpu.RenderPassColorAttachment{r.targets.Final.ColorAttachment()},
	})
	defer pass.Release()

	r.post.Record(pass)
	w, h := r.targets.Size()
	r.ui.Record(pass, w, h)
	pass.End()
}

// Pass names a pipeline group rebuilt by shader hot reload.
type Pass int

const (
	PassGeometry Pass = iota
	PassResolve
	PassPostProcess
	PassUI
	PassBlit
)

// PassesForChanges returns the passes to rebuild for a set of edited shader assets, in frame
// order and without duplicates. Unknown assets are ignored.
func PassesForChanges(changes []shader.Change) []Pass {
	var seen [PassBlit + 1]bool
	for _, c := range changes {
		switch c.Name {
		case shader.AssetWorld, shader.AssetAlias:
			seen[PassGeometry] = true
		case shader.AssetDeferred:
			seen[PassResolve] = true
		case shader.AssetPostProcess:
			seen[PassPostProcess] = true
		case shader.AssetQuad, shader.AssetGlyph:
			seen[PassUI] = true
		case shader.AssetBlit:
			seen[PassBlit] = true
		}
	}
	var out []Pass
	for p, ok := range seen {
		if ok {
			out = append(out, Pass(p))
		}
	}
	return out
}

// applyShaderChanges rebuilds the pipelines whose shaders changed on disk. A pass that fails to
// rebuild keeps its previous pipeline.
func (r *renderer) applyShaderChanges() {
	if r.watcher == nil {
		return
	}
	for _, p := range PassesForChanges(r.watcher.Changes()) {
		var err error
		switch p {
		case PassGeometry:
			err = r.gbuffer.Rebuild(r.gbuffer.SampleCount())
		case PassResolve:
			err = r.resolve.ReloadShaders()
		case PassPostProcess:
			err = r.post.ReloadShaders()
		case PassUI:
			err = r.ui.ReloadShaders()
		case PassBlit:
			err = r.blit.ReloadShaders()
		}
		if err != nil {
			common.LogError("renderer: shader reload: %v", err)
			continue
		}
		common.LogInfo("renderer: reloaded shaders for pass %d", p)
	}
}

func (r *renderer) Shutdown(ctx context.Context) error {
	if r.watcher != nil {
		if err := r.watcher.Close(); err != nil {
			common.LogWarn("renderer: close shader watcher: %v", err)
		}
		r.watcher = nil
	}

	err := r.graph.Drain(ctx)
	r.release()
	return err
}

// release releases the passes, then every graph entry, then the backend.
func (r *renderer) release() {
	if r.blit != nil {
		r.blit.Release()
	}
	if r.ui != nil {
		r.ui.Release()
	}
	if r.post != nil {
		r.post.Release()
	}
	if r.resolve != nil {
		r.resolve.Release()
	}
	if r.gbuffer != nil {
		r.gbuffer.Release()
	}
	if r.targets != nil {
		r.targets.Release()
	}
	if r.dummies != nil {
		r.dummies.Release()
	}
	r.blit, r.ui, r.post, r.resolve, r.gbuffer, r.targets, r.dummies = nil, nil, nil, nil, nil, nil, nil

	if r.graph != nil {
		r.graph.ReleaseAll()
		if err := r.graph.Drain(context.Background()); err != nil {
			common.LogWarn("renderer: drain: %v", err)
		}
	}
	if r.backend != nil {
		r.backend.Release()
		r.backend = nil
	}
}
