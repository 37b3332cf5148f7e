package world

import (
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

// ModelBackend is the subset of backend.Backend used to upload models.
type ModelBackend interface {
	material.TextureCreator
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, count int) error
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferSizeOverrides map[int]uint64) error
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte)
}

var _ ModelBackend = backend.Backend(nil)

// LayoutSource provides the bind group layouts models create their bind groups from.
// GBufferPass satisfies it.
type LayoutSource interface {
	Layout(key string, group int) wgpu.BindGroupLayoutDescriptor
}

// brushModel is the implementation of the BrushModel interface.
type brushModel struct {
	name      string
	graph     resource.ResourceGraph
	handle    resource.Handle
	geometry  *BrushGeometry
	mesh      bind_group_provider.BindGroupProvider
	textures  []material.Animation
	lightmaps []material.FaceLightmaps
	mins      common.Vec3
	maxs      common.Vec3
}

// BrushModel is a brush model uploaded to the GPU: one vertex buffer holding every face, a
// material binding per texture and a lightmap binding per face. The GPU objects live in one
// ResourceGraph entry, so releasing the model while a frame that drew it is in flight is safe.
type BrushModel interface {
	// Name returns the model name.
	Name() string

	// Geometry returns the CPU side geometry the model was built from.
	Geometry() *BrushGeometry

	// Bounds returns the render-space bounding box of every face.
	//
	// Returns:
	//   - common.Vec3: the minimum corner
	//   - common.Vec3: the maximum corner
	Bounds() (mins, maxs common.Vec3)

	// Record draws every face, binding each texture once per chain. The world pipeline and the
	// frame and entity bind groups must already be set on pass.
	//
	// Parameters:
	//   - pass: the geometry render pass
	//   - elapsed: the level time selecting animated texture frames
	//   - entityFrame: the entity frame; non-zero selects alternate animations
	Record(pass *wgpu.RenderPassEncoder, elapsed time.Duration, entityFrame int)

	// Release drops the model's graph entry. GPU objects are destroyed once the last frame that
	// drew the model completes.
	Release()
}

var _ BrushModel = &brushModel{}

// NewBrushModel triangulates src and uploads its vertices, textures and lightmaps.
//
// Parameters:
//   - b: the backend used for uploads
//   - graph: the resource graph sharing textures across models
//   - dummies: the placeholder textures
//   - layouts: the source of the material and lightmap bind group layouts
//   - src: the brush textures and faces
//
// Returns:
//   - BrushModel: the uploaded model
//   - error: an error if the geometry is invalid or an upload fails
func NewBrushModel(b ModelBackend, graph resource.ResourceGraph, dummies *material.Dummies, layouts LayoutSource, src BrushSource) (BrushModel, error) {
	geometry, err := BuildBrushGeometry(src)
	if err != nil {
		return nil, err
	}
	if len(geometry.Vertices) == 0 {
		return nil, fmt.Errorf("brush %s: no faces", src.Name)
	}

	m := &brushModel{
		name:     src.Name,
		graph:    graph,
		geometry: geometry,
	}
	m.mins, m.maxs = geometry.Faces[0].Mins, geometry.Faces[0].Maxs
	for _, f := range geometry.Faces[1:] {
		for c := range 3 {
			m.mins[c] = min(m.mins[c], f.Mins[c])
			m.maxs[c] = max(m.maxs[c], f.Maxs[c])
		}
	}

	if err := m.upload(b, dummies, layouts, src); err != nil {
		m.releaseGPU()
		return nil, err
	}

	m.handle, err = graph.Acquire(resource.KindBuffer, resource.NewIdentity("brush."+src.Name), func() (resource.Releaser, error) {
		return resource.ReleaserFunc(m.releaseGPU), nil
	})
	if err != nil {
		m.releaseGPU()
		return nil, err
	}
	common.LogDebug("world: uploaded brush %s: %d faces, %d vertices, %d textures",
		src.Name, len(geometry.Faces), len(geometry.Vertices), len(src.Textures))
	return m, nil
}

func (m *brushModel) upload(b ModelBackend, dummies *material.Dummies, layouts LayoutSource, src BrushSource) error {
	m.mesh = bind_group_provider.NewBindGroupProvider("brush " + src.Name)
	if err := b.InitMeshBuffers(m.mesh, uniform.MarshalWorldVertices(m.geometry.Vertices), nil, len(m.geometry.Vertices)); err != nil {
		return fmt.Errorf("brush %s: %w", src.Name, err)
	}

	materialLayout := layouts.Layout(WorldPipelineKey, GroupMaterial)
	newFrames := func(tex BrushTexture, frames []BrushTextureFrame, tag string) ([]material.Binding, error) {
		out := make([]material.Binding, 0, len(frames))
		for i, f := range frames {
			binding, err := material.NewBinding(m.graph, b, dummies, f.Diffuse,
				material.WithName(tex.Name),
				material.WithIdentity(fmt.Sprintf("brush.%s.%s%d", tex.Name, tag, i)),
				material.WithFullbright(f.Fullbright),
			)
			if err != nil {
				return out, err
			}
			out = append(out, binding)
			if err := initMaterial(b, binding, materialLayout); err != nil {
				return out, err
			}
		}
		return out, nil
	}

	m.textures = make([]material.Animation, 0, len(src.Textures))
	for _, tex := range src.Textures {
		var anim material.Animation
		var err error
		if len(tex.Frames) == 0 {
			var binding material.Binding
			binding, err = material.NewBinding(m.graph, b, dummies, material.DummyDiffuse(),
				material.WithName(tex.Name),
				material.WithIdentity("dummy"),
			)
			if err == nil {
				anim = material.Static(binding)
				err = initMaterial(b, binding, materialLayout)
			}
		} else {
			anim.Primary, err = newFrames(tex, tex.Frames, "")
			if err == nil {
				anim.Alternate, err = newFrames(tex, tex.Alternate, "a")
			}
		}
		m.textures = append(m.textures, anim)
		if err != nil {
			return fmt.Errorf("brush %s: texture %s: %w", src.Name, tex.Name, err)
		}
	}

	lightmapLayout := layouts.Layout(WorldPipelineKey, GroupLightmap)
	m.lightmaps = make([]material.FaceLightmaps, 0, len(src.Faces))
	for fi, face := range m.geometry.Faces {
		lm, err := material.NewFaceLightmaps(m.graph, b, dummies, src.Faces[fi].Lightmaps, face.LightmapWidth, face.LightmapHeight, face.Styles)
		if err != nil {
			return fmt.Errorf("brush %s: face %d: %w", src.Name, fi, err)
		}
		m.lightmaps = append(m.lightmaps, lm)
		if err := b.InitBindGroup(lm.Provider(), lightmapLayout, nil); err != nil {
			return fmt.Errorf("brush %s: face %d: %w", src.Name, fi, err)
		}
	}
	return nil
}

// initMaterial creates the group 2 bind group of binding and uploads its texture uniforms.
func initMaterial(b ModelBackend, binding material.Binding, layout wgpu.BindGroupLayoutDescriptor) error {
	if err := b.InitBindGroup(binding.Provider(), layout, nil); err != nil {
		return err
	}
	b.WriteBuffer(binding.Provider().Buffer(material.BindingTextureUniforms), 0, binding.UniformBytes())
	return nil
}

func (m *brushModel) Name() string {
	return m.name
}

func (m *brushModel) Geometry() *BrushGeometry {
	return m.geometry
}

func (m *brushModel) Bounds() (common.Vec3, common.Vec3) {
	return m.mins, m.maxs
}

func (m *brushModel) Record(pass *wgpu.RenderPassEncoder, elapsed time.Duration, entityFrame int) {
	m.graph.MarkUsed(m.handle)
	backend.SetMesh(pass, m.mesh)

	for _, chain := range m.geometry.Chains {
		binding := m.textures[chain.Texture].Frame(elapsed, entityFrame)
		if binding == nil {
			continue
		}
		binding.Kind().MustValid()
		binding.MarkUsed()
		pass.SetBindGroup(GroupMaterial, binding.Provider().BindGroup(), nil)

		for _, fi := range chain.Faces {
			face := m.geometry.Faces[fi]
			lm := m.lightmaps[fi]
			lm.MarkUsed()
			pass.SetBindGroup(GroupLightmap, lm.Provider().BindGroup(), nil)
			pass.Draw(face.Count, 1, face.First, 0)
		}
	}
}

func (m *brushModel) Release() {
	if m.handle.IsZero() {
		return
	}
	_ = m.graph.Release(m.handle)
	m.handle = resource.Handle{}
}

// releaseGPU releases the mesh and every binding. Texture references go back to the graph.
func (m *brushModel) releaseGPU() {
	if m.mesh != nil {
		m.mesh.Release()
		m.mesh = nil
	}
	for _, anim := range m.textures {
		anim.Release()
	}
	m.textures = nil
	for _, lm := range m.lightmaps {
		lm.Release()
	}
	m.lightmaps = nil
}
