package world

import (
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/model"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/palette"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

// skinFrame is one uploaded skin image and its group 2 bind group.
type skinFrame struct {
	texture  resource.Handle
	provider bind_group_provider.BindGroupProvider
}

// aliasModel is the implementation of the AliasModel interface.
type aliasModel struct {
	model  model.Model
	graph  resource.ResourceGraph
	handle resource.Handle
	mesh   bind_group_provider.BindGroupProvider
	ranges []model.VertexRange
	skins  [][]skinFrame
}

// AliasModel is a keyframe-animated model uploaded to the GPU. Every pose is stored back to
// back in one vertex buffer; drawing a pose draws its vertex range.
type AliasModel interface {
	// Model returns the CPU side model.
	Model() model.Model

	// Record draws the pose and skin frame selected at elapsed. The alias pipeline and the frame
	// and entity bind groups must already be set on pass.
	//
	// Parameters:
	//   - pass: the geometry render pass
	//   - elapsed: the level time selecting the pose and skin frame
	//   - keyframe: the keyframe index; out of range draws the first pose
	//   - skin: the skin index; out of range draws the first skin
	Record(pass *wgpu.RenderPassEncoder, elapsed time.Duration, keyframe, skin int)

	// Release drops the model's graph entry.
	Release()
}

var _ AliasModel = &aliasModel{}

// NewAliasModel expands every pose of m and uploads it with its palette-translated skins.
//
// Parameters:
//   - b: the backend used for uploads
//   - graph: the resource graph owning the skin textures
//   - dummies: provides the diffuse checker for models without skins
//   - layouts: the source of the alias material layout
//   - m: the model
//   - pal: the palette the skins are indexed into
//
// Returns:
//   - AliasModel: the uploaded model
//   - error: an error if the model is malformed or an upload fails
func NewAliasModel(b ModelBackend, graph resource.ResourceGraph, dummies *material.Dummies, layouts LayoutSource, m model.Model, pal palette.Palette) (AliasModel, error) {
	verts, ranges, err := model.BuildVertices(m)
	if err != nil {
		return nil, err
	}
	if len(verts) == 0 {
		return nil, fmt.Errorf("model %s: no poses", m.Name())
	}

	a := &aliasModel{model: m, graph: graph, ranges: ranges}
	if err := a.upload(b, dummies, layouts, verts, pal); err != nil {
		a.releaseGPU()
		return nil, err
	}

	a.handle, err = graph.Acquire(resource.KindBuffer, resource.NewIdentity("alias."+m.Name()), func() (resource.Releaser, error) {
		return resource.ReleaserFunc(a.releaseGPU), nil
	})
	if err != nil {
		a.releaseGPU()
		return nil, err
	}
	common.LogDebug("world: uploaded model %s: %d poses, %d skins", m.Name(), len(ranges), len(a.skins))
	return a, nil
}

func (a *aliasModel) upload(b ModelBackend, dummies *material.Dummies, layouts LayoutSource, verts []uniform.AliasVertex, pal palette.Palette) error {
	name := a.model.Name()
	a.mesh = bind_group_provider.NewBindGroupProvider("alias " + name)
	if err := b.InitMeshBuffers(a.mesh, uniform.MarshalAliasVertices(verts), nil, len(verts)); err != nil {
		return fmt.Errorf("model %s: %w", name, err)
	}

	layout := layouts.Layout(AliasPipelineKey, GroupMaterial)
	w, h := a.model.SkinSize()

	newFrame := func(tex resource.Handle) (skinFrame, error) {
		view, err := material.TextureView(a.graph, tex)
		if err != nil {
			return skinFrame{texture: tex}, err
		}
		frame := skinFrame{
			texture:  tex,
			provider: bind_group_provider.NewBindGroupProvider("skin "+name, bind_group_provider.WithSharedTextureView(0, view)),
		}
		return frame, b.InitBindGroup(frame.provider, layout, nil)
	}

	for si, skin := range a.model.Skins() {
		frames := make([]skinFrame, 0, len(skin.Frames))
		for fi, indices := range skin.Frames {
			diffuse, _, err := pal.TranslateTexture(indices, w, h, 1)
			if err != nil {
				a.skins = append(a.skins, frames)
				return fmt.Errorf("model %s: skin %d frame %d: %w", name, si, fi, err)
			}
			tex, err := material.AcquireTexture(a.graph, b, fmt.Sprintf("alias.%s.skin%d.%d", name, si, fi), diffuse)
			if err != nil {
				a.skins = append(a.skins, frames)
				return err
			}
			frame, err := newFrame(tex)
			frames = append(frames, frame)
			if err != nil {
				a.skins = append(a.skins, frames)
				return fmt.Errorf("model %s: skin %d frame %d: %w", name, si, fi, err)
			}
		}
		a.skins = append(a.skins, frames)
	}

	if len(a.skins) == 0 || len(a.skins[0]) == 0 {
		if err := a.graph.Retain(dummies.Diffuse); err != nil {
			return err
		}
		frame, err := newFrame(dummies.Diffuse)
		a.skins = [][]skinFrame{{frame}}
		if err != nil {
			return fmt.Errorf("model %s: %w", name, err)
		}
	}
	return nil
}

func (a *aliasModel) Model() model.Model {
	return a.model
}

func (a *aliasModel) Record(pass *wgpu.RenderPassEncoder, elapsed time.Duration, keyframe, skin int) {
	pose := a.model.Pose(keyframe, elapsed)
	if pose >= len(a.ranges) {
		pose = 0
	}
	r := a.ranges[pose]

	s, f := a.model.SkinFrame(skin, elapsed)
	if s >= len(a.skins) || f >= len(a.skins[s]) {
		s, f = 0, 0
	}
	frame := a.skins[s][f]

	a.graph.MarkUsed(a.handle)
	a.graph.MarkUsed(frame.texture)
	backend.SetMesh(pass, a.mesh)
	pass.SetBindGroup(GroupMaterial, frame.provider.BindGroup(), nil)
	pass.Draw(r.Count, 1, r.First, 0)
}

func (a *aliasModel) Release() {
	if a.handle.IsZero() {
		return
	}
	_ = a.graph.Release(a.handle)
	a.handle = resource.Handle{}
}

func (a *aliasModel) releaseGPU() {
	if a.mesh != nil {
		a.mesh.Release()
		a.mesh = nil
	}
	for _, frames := range a.skins {
		for _, f := range frames {
			if f.provider != nil {
				f.provider.Release()
			}
			if !f.texture.IsZero() {
				_ = a.graph.Release(f.texture)
			}
		}
	}
	a.skins = nil
}
