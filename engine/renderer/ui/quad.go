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

// QuadPipelineKey is the key of the quad pipeline.
const QuadPipelineKey = "ui.quad"

// Bind groups of the quad shader.
const (
	quadGroupSampler   = 0
	quadGroupTransform = 1
	quadGroupTexture   = 2
)

// QuadCommand draws one registered texture with a layout.
type QuadCommand struct {
	// Texture is an index returned by AddTexture.
	Texture int
	Layout  Layout
}

// quadTexture is one registered quad texture and its group 2 bind group.
type quadTexture struct {
	handle   resource.Handle
	provider bind_group_provider.BindGroupProvider
	width    uint32
	height   uint32
}

type quadRenderer struct {
	mu *sync.Mutex

	backend     backend.Backend
	graph       resource.ResourceGraph
	shaderDir   string
	sampleCount uint32

	pipeline   pipeline.Pipeline
	shared     *fullscreen.Quad
	sampler    bind_group_provider.BindGroupProvider
	transforms bind_group_provider.BindGroupProvider
	blocks     uniform.DynamicUniformBuffer

	textures []quadTexture
	queue    []QuadCommand
}

// QuadRenderer draws textured screen-space quads. Each quad gets its transform from one
// dynamic-offset uniform block.
type QuadRenderer interface {
	// AddTexture uploads a texture and returns its index for QuadCommand.Texture. Textures are
	// shared through the graph by name.
	//
	// Parameters:
	//   - name: the texture name
	//   - staging: the RGBA pixels
	//
	// Returns:
	//   - int: the texture index
	//   - error: an error wrapping resource.ErrResourceExhausted once MaxTextureArrayLayers
	//     textures are registered, or an upload error
	AddTexture(name string, staging common.TextureStagingData) (int, error)

	// TextureSize returns the size of a registered texture, or zeros for an unknown index.
	TextureSize(index int) (uint32, uint32)

	// Draw queues cmd for the next Record. A texture index outside [0, MaxTextureArrayLayers) panics.
	Draw(cmd QuadCommand)

	// Pending returns the number of queued commands.
	Pending() int

	// Record draws every queued quad and clears the queue. Quads that no longer fit the
	// transform buffer are skipped with a warning.
	Record(pass *wgpu.RenderPassEncoder, displayWidth, displayHeight uint32)

	// SampleCount returns the sample count the pipeline was built for.
	SampleCount() uint32

	// Rebuild recreates the pipeline. On failure the previous pipeline stays in use.
	Rebuild(sampleCount uint32) error

	// Release releases the pipeline, the textures and the shared primitives.
	Release()
}

var _ QuadRenderer = &quadRenderer{}

// NewQuadRenderer builds the quad pipeline and acquires the shared quad and sampler.
//
// Parameters:
//   - b: the backend
//   - graph: the resource graph
//   - shaderDir: the shader override directory; may be empty
//   - sampleCount: the sample count of the final color target
//
// Returns:
//   - QuadRenderer: the renderer
//   - error: an error if a GPU object could not be created
func NewQuadRenderer(b backend.Backend, graph resource.ResourceGraph, shaderDir string, sampleCount uint32) (QuadRenderer, error) {
	r := &quadRenderer{
		mu:        &sync.Mutex{},
		backend:   b,
		graph:     graph,
		shaderDir: shaderDir,
	}
	var err error
	if r.shared, err = acquireShared(graph, b); err != nil {
		return nil, err
	}
	if err := r.Rebuild(sampleCount); err != nil {
		r.Release()
		return nil, err
	}

	r.sampler = bind_group_provider.NewBindGroupProvider("quad sampler",
		bind_group_provider.WithSharedSampler(0, r.shared.Sampler))
	if err := b.InitBindGroup(r.sampler, r.pipeline.BindGroupLayoutDescriptor(quadGroupSampler), nil); err != nil {
		r.Release()
		return nil, fmt.Errorf("quad sampler bind group: %w", err)
	}
	r.transforms = bind_group_provider.NewBindGroupProvider("quad transforms")
	if err := b.InitBindGroup(r.transforms, r.pipeline.BindGroupLayoutDescriptor(quadGroupTransform), map[int]uint64{0: uniform.DynamicBufferSize}); err != nil {
		r.Release()
		return nil, fmt.Errorf("quad transform bind group: %w", err)
	}
	var qu uniform.GPUQuadUniforms
	r.blocks = uniform.NewDynamicUniformBuffer("quad", r.transforms.Buffer(0), uniform.DynamicBufferSize, qu.Size())
	return r, nil
}

func (r *quadRenderer) AddTexture(name string, staging common.TextureStagingData) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.textures) >= MaxTextureArrayLayers {
		return -1, fmt.Errorf("quad texture %s: %w: %d textures registered", name, resource.ErrResourceExhausted, len(r.textures))
	}
	h, err := material.AcquireTexture(r.graph, r.backend, "ui.quad."+name, staging)
	if err != nil {
		return -1, err
	}
	view, err := material.TextureView(r.graph, h)
	if err != nil {
		_ = r.graph.Release(h)
		return -1, err
	}
	provider := bind_group_provider.NewBindGroupProvider("quad "+name, bind_group_provider.WithSharedTextureView(0, view))
	if err := r.backend.InitBindGroup(provider, r.pipeline.BindGroupLayoutDescriptor(quadGroupTexture), nil); err != nil {
		provider.Release()
		_ = r.graph.Release(h)
		return -1, fmt.Errorf("quad texture %s: %w", name, err)
	}
	r.textures = append(r.textures, quadTexture{
		handle:   h,
		provider: provider,
		width:    staging.Width,
		height:   staging.Height,
	})
	return len(r.textures) - 1, nil
}

func (r *quadRenderer) TextureSize(index int) (uint32, uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index < 0 || index >= len(r.textures) {
		return 0, 0
	}
	return r.textures[index].width, r.textures[index].height
}

func (r *quadRenderer) Draw(cmd QuadCommand) {
	if cmd.Texture < 0 || cmd.Texture >= MaxTextureArrayLayers {
		panic(fmt.Sprintf("ui: quad texture index %d out of range [0, %d)", cmd.Texture, MaxTextureArrayLayers))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = append(r.queue, cmd)
}

func (r *quadRenderer) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

func (r *quadRenderer) SampleCount() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sampleCount
}

func (r *quadRenderer) Rebuild(sampleCount uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	samples := max(sampleCount, 1)
	pl, err := buildPipeline(r.backend, QuadPipelineKey, r.shaderDir, shader.AssetQuad, samples)
	if err != nil {
		return err
	}
	if r.pipeline != nil {
		resource.Retire(r.graph, resource.KindPipeline, QuadPipelineKey, r.pipeline)
	}
	r.pipeline, r.sampleCount = pl, samples
	return nil
}

// quadDraw is a queued command resolved to its texture and transform block.
type quadDraw struct {
	texture *quadTexture
	block   uniform.Block
}

func (r *quadRenderer) Record(pass *wgpu.RenderPassEncoder, displayWidth, displayHeight uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	queue := r.queue
	r.queue = r.queue[:0]
	if len(queue) == 0 || displayWidth == 0 || displayHeight == 0 {
		return
	}

	r.blocks.Reset()
	draws := make([]quadDraw, 0, len(queue))
	skipped := 0
	for _, cmd := range queue {
		if cmd.Texture < 0 || cmd.Texture >= len(r.textures) {
			common.LogWarn("ui: quad texture %d is not registered", cmd.Texture)
			continue
		}
		block, err := r.blocks.Allocate()
		if err != nil {
			skipped++
			continue
		}
		tex := &r.textures[cmd.Texture]
		x, y, w, h := cmd.Layout.Rect(tex.width, tex.height, displayWidth, displayHeight)
		u := uniform.GPUQuadUniforms{Transform: ScreenSpaceTransform(displayWidth, displayHeight, w, h, x, y)}
		r.blocks.Write(block, u.Marshal())
		draws = append(draws, quadDraw{texture: tex, block: block})
	}
	if skipped > 0 {
		common.LogWarn("ui: %v: skipped %d quads", resource.ErrResourceExhausted, skipped)
	}
	if len(draws) == 0 {
		return
	}
	r.blocks.Flush(r.backend)

	pass.SetPipeline(r.pipeline.RenderPipeline())
	pass.SetBindGroup(quadGroupSampler, r.sampler.BindGroup(), nil)
	r.shared.Bind(pass)
	for _, d := range draws {
		r.graph.MarkUsed(d.texture.handle)
		pass.SetBindGroup(quadGroupTransform, r.transforms.BindGroup(), []uint32{d.block.Offset()})
		pass.SetBindGroup(quadGroupTexture, d.texture.provider.BindGroup(), nil)
		pass.Draw(6, 1, 0, 0)
	}
}

func (r *quadRenderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.textures {
		t.provider.Release()
		_ = r.graph.Release(t.handle)
	}
	r.textures = nil
	for _, p := range []*bind_group_provider.BindGroupProvider{&r.sampler, &r.transforms} {
		if *p != nil {
			(*p).Release()
			*p = nil
		}
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
