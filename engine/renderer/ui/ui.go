// Package ui draws the 2D overlay: textured quads for the HUD and console background, and
// instanced glyphs for text. Every UI renderer shares the unit quad vertex buffer and the UI
// sampler through the resource graph; none of them owns those objects.
package ui

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/fullscreen"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/target"
	"github.com/cogentcore/webgpu/wgpu"
)

// MaxTextureArrayLayers is the number of quad textures a QuadRenderer holds and the number of
// glyphs in a glyph atlas.
const MaxTextureArrayLayers = 256

// acquireShared takes a reference to the unit quad vertices and the UI sampler.
func acquireShared(graph resource.ResourceGraph, c fullscreen.Creator) (*fullscreen.Quad, error) {
	q, err := fullscreen.AcquireQuadWithSampler(graph, c, material.UISamplerIdentity, common.NearestSampler)
	if err != nil {
		return nil, fmt.Errorf("ui shared primitives: %w", err)
	}
	return q, nil
}

// buildPipeline builds an alpha-blended UI pipeline drawing into the final color target.
func buildPipeline(b backend.Backend, key, shaderDir, asset string, samples uint32) (pipeline.Pipeline, error) {
	pl, err := pipeline.FromAsset(key, shaderDir, asset, shader.NewPreProcessor(shader.WithSampleCount(samples)),
		pipeline.WithColorTargets(pipeline.ColorTarget{Format: target.ColorFormat, Blend: pipeline.AlphaBlend}),
		pipeline.WithCullMode(wgpu.CullModeNone),
		pipeline.WithSampleCount(samples),
	)
	if err != nil {
		return nil, err
	}
	if err := b.RegisterRenderPipeline(pl); err != nil {
		pl.Release()
		return nil, fmt.Errorf("pipeline %s: %w", key, err)
	}
	return pl, nil
}

// Assets holds the images the UI is built from. Zero-sized images are skipped.
type Assets struct {
	// Glyphs is the 256 glyph atlas.
	Glyphs Atlas
	// ConsoleBackground is the image stretched behind the console.
	ConsoleBackground common.TextureStagingData
	// Hud holds the status bar images.
	Hud HudTextures
	// Version is drawn at the bottom right of the console.
	Version string
}

type renderer struct {
	quads   QuadRenderer
	glyphs  GlyphRenderer
	console ConsoleRenderer
	hud     HudRenderer
}

// Renderer owns the quad and glyph renderers and the console and HUD built on them.
type Renderer interface {
	// DrawConsole queues the console overlay for the next Record.
	DrawConsole(state ConsoleState)

	// DrawHud queues the status bar for the next Record.
	DrawHud(state HudState)

	// Quads returns the quad renderer, for callers queueing their own quads.
	Quads() QuadRenderer

	// Glyphs returns the glyph renderer, for callers queueing their own text.
	Glyphs() GlyphRenderer

	// Record draws every queued quad, then every queued glyph, and clears both queues.
	//
	// Parameters:
	//   - pass: a render pass on the final color target
	//   - displayWidth: the display width in pixels
	//   - displayHeight: the display height in pixels
	Record(pass *wgpu.RenderPassEncoder, displayWidth, displayHeight uint32)

	// Rebuild recreates the pipelines for a new sample count.
	Rebuild(sampleCount uint32) error

	// ReloadShaders rebuilds the pipelines at the current sample count.
	ReloadShaders() error

	// Release releases every UI renderer.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer builds the quad and glyph renderers and the console and HUD.
//
// Parameters:
//   - b: the backend
//   - graph: the resource graph sharing the quad vertices, sampler and textures
//   - shaderDir: the shader override directory; may be empty
//   - sampleCount: the sample count of the final color target
//   - assets: the UI images
//
// Returns:
//   - Renderer: the UI renderer
//   - error: an error if a pipeline or texture could not be created
func NewRenderer(b backend.Backend, graph resource.ResourceGraph, shaderDir string, sampleCount uint32, assets Assets) (Renderer, error) {
	r := &renderer{}
	var err error
	if r.quads, err = NewQuadRenderer(b, graph, shaderDir, sampleCount); err != nil {
		return nil, err
	}
	if r.glyphs, err = NewGlyphRenderer(b, graph, shaderDir, sampleCount, assets.Glyphs); err != nil {
		r.Release()
		return nil, err
	}
	if r.console, err = NewConsoleRenderer(b, graph, r.quads, r.glyphs, assets.ConsoleBackground, assets.Version); err != nil {
		r.Release()
		return nil, err
	}
	if r.hud, err = NewHudRenderer(b, graph, r.quads, r.glyphs, assets.Hud); err != nil {
		r.Release()
		return nil, err
	}
	return r, nil
}

func (r *renderer) DrawConsole(state ConsoleState) {
	r.console.Draw(state)
}

func (r *renderer) DrawHud(state HudState) {
	r.hud.Draw(state)
}

func (r *renderer) Quads() QuadRenderer {
	return r.quads
}

func (r *renderer) Glyphs() GlyphRenderer {
	return r.glyphs
}

func (r *renderer) Record(pass *wgpu.RenderPassEncoder, displayWidth, displayHeight uint32) {
	r.quads.Record(pass, displayWidth, displayHeight)
	r.glyphs.Record(pass, displayWidth, displayHeight)
}

func (r *renderer) Rebuild(sampleCount uint32) error {
	if err := r.quads.Rebuild(sampleCount); err != nil {
		return err
	}
	return r.glyphs.Rebuild(sampleCount)
}

func (r *renderer) ReloadShaders() error {
	if err := r.quads.Rebuild(r.quads.SampleCount()); err != nil {
		return err
	}
	return r.glyphs.Rebuild(r.glyphs.SampleCount())
}

func (r *renderer) Release() {
	if r.hud != nil {
		r.hud.Release()
		r.hud = nil
	}
	if r.console != nil {
		r.console.Release()
		r.console = nil
	}
	if r.glyphs != nil {
		r.glyphs.Release()
		r.glyphs = nil
	}
	if r.quads != nil {
		r.quads.Release()
		r.quads = nil
	}
}
