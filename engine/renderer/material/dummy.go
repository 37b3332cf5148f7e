package material

import (
	"bytes"
	"fmt"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

// Graph identities of the placeholder textures.
const (
	DummyDiffuseIdentity    = "dummy.diffuse"
	DummyFullbrightIdentity = "dummy.fullbright"
	DummyLightmapIdentity   = "dummy.lightmap"
)

// TextureCreator creates sampled GPU textures. backend.Backend satisfies it.
type TextureCreator interface {
	CreateTexture(label string, staging common.TextureStagingData) (*backend.Texture, error)
}

// DummyDiffuse returns a 2x2 magenta and black checker, used for missing diffuse textures.
func DummyDiffuse() common.TextureStagingData {
	return common.TextureStagingData{
		Pixels: []byte{
			0xFF, 0x00, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0xFF,
			0x00, 0x00, 0x00, 0xFF, 0xFF, 0x00, 0xFF, 0xFF,
		},
		Width:  2,
		Height: 2,
		Format: wgpu.TextureFormatRGBA8UnormSrgb,
	}
}

// DummyFullbright returns a single texel with no fullbright coverage.
func DummyFullbright() common.TextureStagingData {
	return common.TextureStagingData{
		Pixels: []byte{0},
		Width:  1,
		Height: 1,
		Format: wgpu.TextureFormatR8Unorm,
	}
}

// DummyLightmap returns a single full-intensity texel in every lightmap layer.
func DummyLightmap() common.TextureStagingData {
	return common.TextureStagingData{
		Pixels: bytes.Repeat([]byte{0xFF}, uniform.MaxLightmaps),
		Width:  1,
		Height: 1,
		Layers: uniform.MaxLightmaps,
		Format: wgpu.TextureFormatR8Unorm,
	}
}

// Dummies holds one reference to each placeholder texture.
type Dummies struct {
	graph      resource.ResourceGraph
	Diffuse    resource.Handle
	Fullbright resource.Handle
	Lightmap   resource.Handle
}

// AcquireDummies acquires the placeholder textures, creating them on first use. Every caller
// shares the same three graph entries.
//
// Parameters:
//   - graph: the resource graph owning the textures
//   - textures: creates the textures on first acquisition
//
// Returns:
//   - *Dummies: the acquired handles
//   - error: an error wrapping resource.ErrResourceExhausted if a texture could not be created
func AcquireDummies(graph resource.ResourceGraph, textures TextureCreator) (*Dummies, error) {
	d := &Dummies{graph: graph}
	acquire := []struct {
		identity string
		staging  common.TextureStagingData
		dst      *resource.Handle
	}{
		{DummyDiffuseIdentity, DummyDiffuse(), &d.Diffuse},
		{DummyFullbrightIdentity, DummyFullbright(), &d.Fullbright},
		{DummyLightmapIdentity, DummyLightmap(), &d.Lightmap},
	}
	for _, a := range acquire {
		h, err := AcquireTexture(graph, textures, a.identity, a.staging)
		if err != nil {
			d.Release()
			return nil, err
		}
		*a.dst = h
	}
	return d, nil
}

// Release drops the references taken by AcquireDummies.
func (d *Dummies) Release() {
	for _, h := range []*resource.Handle{&d.Diffuse, &d.Fullbright, &d.Lightmap} {
		if !h.IsZero() {
			_ = d.graph.Release(*h)
			*h = resource.Handle{}
		}
	}
}

// AcquireTexture acquires the texture registered under identity, uploading staging if it is
// not live yet.
//
// Parameters:
//   - graph: the resource graph
//   - textures: creates the texture on first acquisition
//   - identity: the shared texture identity
//   - staging: the pixel data used on creation
//
// Returns:
//   - resource.Handle: the texture handle
//   - error: an error wrapping resource.ErrResourceExhausted on creation failure
func AcquireTexture(graph resource.ResourceGraph, textures TextureCreator, identity string, staging common.TextureStagingData) (resource.Handle, error) {
	return graph.Acquire(resource.KindTexture, identity, func() (resource.Releaser, error) {
		tex, err := textures.CreateTexture(identity, staging)
		if err != nil {
			return nil, fmt.Errorf("texture %s: %w", identity, err)
		}
		return tex, nil
	})
}

// TextureView resolves a texture handle to its default view.
func TextureView(graph resource.ResourceGraph, h resource.Handle) (*wgpu.TextureView, error) {
	return textureView(graph, h)
}

// textureView resolves a texture handle to its default view.
func textureView(graph resource.ResourceGraph, h resource.Handle) (*wgpu.TextureView, error) {
	tex, err := resource.ResolveAs[*backend.Texture](graph, h)
	if err != nil {
		return nil, err
	}
	return tex.View, nil
}
