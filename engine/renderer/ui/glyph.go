package ui

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/fullscreen"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// GlyphPipelineKey is the key of the glyph pipeline.
	GlyphPipelineKey = "ui.glyph"

	// GlyphMaxInstances is the capacity of the glyph instance buffer.
	GlyphMaxInstances = 4096

	glyphAtlasIdentity = "ui.glyphs"
)

// GlyphCommand draws a run of glyphs left to right.
type GlyphCommand struct {
	// Glyphs are atlas layer indices.
	Glyphs   []byte
	Position ScreenPosition
	// Anchor is the point on the whole run placed at Position.
	Anchor Anchor
	// Scale multiplies the atlas cell size; zero means 1.
	Scale float32
}

// Glyph returns a command drawing one glyph.
func Glyph(id byte, pos ScreenPosition, anchor Anchor, scale float32) GlyphCommand {
	return GlyphCommand{Glyphs: []byte{id}, Position: pos, Anchor: anchor, Scale: scale}
}

// Text returns a command drawing s. Characters outside the atlas are drawn as '?'.
func Text(s string, pos ScreenPosition, anchor Anchor, scale float32) GlyphCommand {
	glyphs := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			r = '?'
		}
		glyphs = append(glyphs, byte(r))
	}
	return GlyphCommand{Glyphs: glyphs, Position: pos, Anchor: anchor, Scale: scale}
}

// GlyphInstances lays out cmds into instances. Glyphs starting past the right edge of the
// display are dropped.
//
// Parameters:
//   - cmds: the commands in draw order
//   - cellWidth: the atlas cell width in pixels
//   - cellHeight: the atlas cell height in pixels
//   - displayWidth: the display width in pixels
//   - displayHeight: the display height in pixels
//
// Returns:
//   - []uniform.GlyphInstance: one instance per visible glyph
func GlyphInstances(cmds []GlyphCommand, cellWidth, cellHeight, displayWidth, displayHeight uint32) []uniform.GlyphInstance {
	var out []uniform.GlyphInstance
	for _, cmd := range cmds {
		scale := common.Coalesce(cmd.Scale, 1)
		w := uint32(float32(cellWidth) * scale)
		h := uint32(float32(cellHeight) * scale)
		sx, sy := cmd.Position.Resolve(displayWidth, displayHeight, scale)
		ax, ay := cmd.Anchor.Resolve(w*uint32(len(cmd.Glyphs)), h)
		x, y := sx-ax, sy-ay

		size := ScreenSpaceScale(displayWidth, displayHeight, w, h)
		for i, g := range cmd.Glyphs {
			gx := x + int32(w)*int32(i)
			if gx >= int32(displayWidth) {
				break
			}
			if g == ' ' {
				continue
			}
			out = append(out, uniform.GlyphInstance{
				Position: ScreenSpaceTranslate(displayWidth, displayHeight, gx, y),
				Scale:    size,
				Layer:    uint32(g),
			})
		}
	}
	return out
}

type glyphRenderer struct {
	mu *sync.Mutex

	backend     backend.Backend
	graph       resource.ResourceGraph
	shaderDir   string
	sampleCount uint32

	pipeline  pipeline.Pipeline
	shared    *fullscreen.Quad
	atlas     resource.Handle
	group     bind_group_provider.BindGroupProvider
	instances *wgpu.Buffer

	cellWidth  uint32
	cellHeight uint32
	queue      []GlyphCommand
}

// GlyphRenderer draws text as instanced quads over a 256 layer glyph atlas.
type GlyphRenderer interface {
	// CellSize returns the atlas cell size in pixels.
	CellSize() (uint32, uint32)

	// Draw queues cmd for the next Record.
	Draw(cmd GlyphCommand)

	// Pending returns the number of queued commands.
	Pending() int

	// Record draws every queued glyph in one instanced draw and clears the queue. Glyphs past
	// GlyphMaxInstances are dropped with a warning.
	Record(pass *wgpu.RenderPassEncoder, displayWidth, displayHeight uint32)

	// SampleCount returns the sample count the pipeline was built for.
	SampleCount() uint32

	// Rebuild recreates the pipeline. On failure the previous pipeline stays in use.
	Rebuild(sampleCount uint32) error

	// Release releases the pipeline, the atlas, the instance buffer and the shared primitives.
	Release()
}

var _ GlyphRenderer = &glyphRenderer{}

// NewGlyphRenderer uploads atlas and builds the glyph pipeline.
//
// Parameters:
//   - b: the backend
//   - graph: the resource graph
//   - shaderDir: the shader override directory; may be empty
//   - sampleCount: the sample count of the final color target
//   - atlas: the glyph atlas; must hold MaxTextureArrayLayers layers
//
// Returns:
//   - GlyphRenderer: the renderer
//   - error: an error if the atlas is malformed or a GPU object could not be created
func NewGlyphRenderer(b backend.Backend, graph resource.ResourceGraph, shaderDir string, sampleCount uint32, atlas Atlas) (GlyphRenderer, error) {
	if err := atlas.Validate(); err != nil {
		return nil, err
	}
	r := &glyphRenderer{
		mu:         &sync.Mutex{},
		backend:    b,
		graph:      graph,
		shaderDir:  shaderDir,
		cellWidth:  atlas.CellWidth,
		cellHeight: atlas.CellHeight,
	}
	var err error
	if r.shared, err = acquireShared(graph, b); err != nil {
		return nil, err
	}
	if err := r.Rebuild(sampleCount); err != nil {
		r.Release()
		return nil, err
	}
	if r.atlas, err = material.AcquireTexture(graph, b, glyphAtlasIdentity, atlas.Staging); err != nil {
		r.Release()
		return nil, err
	}
	view, err := material.TextureView(graph, r.atlas)
	if err != nil {
		r.Release()
		return nil, err
	}
	r.group = bind_group_provider.NewBindGroupProvider("glyphs",
		bind_group_provider.WithSharedSampler(0, r.shared.Sampler),
		bind_group_provider.WithSharedTextureView(1, view),
	)
	if err := b.InitBindGroup(r.group, r.pipeline.BindGroupLayoutDescriptor(0), nil); err != nil {
		r.Release()
		return nil, fmt.Errorf("glyph bind group: %w", err)
	}
	if r.instances, err = b.CreateBuffer("glyph instances", wgpu.BufferUsageVertex, GlyphMaxInstances*uniform.GlyphInstanceStride); err != nil {
		r.Release()
		return nil, fmt.Errorf("glyph instances: %w", err)
	}
	return r, nil
}

func (r *glyphRenderer) CellSize() (uint32, uint32) {
	return r.cellWidth, r.cellHeight
}

func (r *glyphRenderer) Draw(cmd GlyphCommand) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = append(r.queue, cmd)
}

func (r *glyphRenderer) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

func (r *glyphRenderer) SampleCount() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sampleCount
}

func (r *glyphRenderer) Rebuild(sampleCount uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	samples := max(sampleCount, 1)
	pl, err := buildPipeline(r.backend, GlyphPipelineKey, r.shaderDir, shader.AssetGlyph, samples)
	if err != nil {
		return err
	}
	if r.pipeline != nil {
		resource.Retire(r.graph, resource.KindPipeline, GlyphPipelineKey, r.pipeline)
	}
	r.pipeline, r.sampleCount = pl, samples
	return nil
}

func (r *glyphRenderer) Record(pass *wgpu.RenderPassEncoder, displayWidth, displayHeight uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	queue := r.queue
	r.queue = nil
	if len(queue) == 0 || displayWidth == 0 || displayHeight == 0 {
		return
	}

	instances := GlyphInstances(queue, r.cellWidth, r.cellHeight, displayWidth, displayHeight)
	if len(instances) > GlyphMaxInstances {
		common.LogWarn("ui: dropped %d glyphs over the limit of %d", len(instances)-GlyphMaxInstances, GlyphMaxInstances)
		instances = instances[:GlyphMaxInstances]
	}
	if len(instances) == 0 {
		return
	}
	r.backend.WriteBuffer(r.instances, 0, uniform.MarshalGlyphInstances(instances))

	r.graph.MarkUsed(r.atlas)
	pass.SetPipeline(r.pipeline.RenderPipeline())
	pass.SetBindGroup(0, r.group.BindGroup(), nil)
	r.shared.Bind(pass)
	pass.SetVertexBuffer(1, r.instances, 0, wgpu.WholeSize)
	pass.Draw(6, uint32(len(instances)), 0, 0)
}

func (r *glyphRenderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.group != nil {
		r.group.Release()
		r.group = nil
	}
	if r.instances != nil {
		r.instances.Release()
		r.instances = nil
	}
	if !r.atlas.IsZero() {
		_ = r.graph.Release(r.atlas)
		r.atlas = resource.Handle{}
	}
	if r.pipeline != nil {
		r.pipeline.Release()
		r.pipeline = nil
	}
	if r.shared != nil {
		r.shared.Release()
		r.shared = nil
	}
}
