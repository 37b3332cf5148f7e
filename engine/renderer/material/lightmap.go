package material

import (
	"bytes"
	"fmt"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

// BindingLightmaps is the binding of the lightmap array in the per-face bind group (group 3).
const BindingLightmaps = 0

// NormalizeStyles returns styles with every slot at or past count set to the sentinel, so a
// face never samples a layer it has no lightmap for. Slots after the first sentinel are also
// set to the sentinel.
//
// Parameters:
//   - styles: the style indices as stored with the face
//   - count: the number of lightmaps the face carries
//
// Returns:
//   - [4]uint8: the normalized style indices
func NormalizeStyles(styles [uniform.MaxLightmaps]uint8, count int) [uniform.MaxLightmaps]uint8 {
	out := styles
	ended := false
	for i := range out {
		if ended || i >= count || out[i] == uniform.StyleSentinel {
			out[i] = uniform.StyleSentinel
			ended = true
		}
	}
	return out
}

// PackLightmaps stacks up to four equally sized R8 lightmaps into one array texture. Missing
// layers are filled with full intensity; lightmaps past the fourth are dropped.
//
// Parameters:
//   - lightmaps: the lightmap luxels, width*height bytes each
//   - width: the lightmap width
//   - height: the lightmap height
//
// Returns:
//   - common.TextureStagingData: a MaxLightmaps-layer R8 texture
//   - error: an error if a lightmap does not match the dimensions
func PackLightmaps(lightmaps [][]byte, width, height uint32) (common.TextureStagingData, error) {
	layerSize := int(width * height)
	pixels := bytes.Repeat([]byte{0xFF}, layerSize*uniform.MaxLightmaps)
	for i, lm := range lightmaps {
		if i >= uniform.MaxLightmaps {
			break
		}
		if len(lm) != layerSize {
			return common.TextureStagingData{}, fmt.Errorf("lightmap %d: %d luxels for %dx%d", i, len(lm), width, height)
		}
		copy(pixels[i*layerSize:], lm)
	}
	return common.TextureStagingData{
		Pixels: pixels,
		Width:  width,
		Height: height,
		Layers: uniform.MaxLightmaps,
		Format: wgpu.TextureFormatR8Unorm,
	}, nil
}

// faceLightmaps is the implementation of the FaceLightmaps interface.
type faceLightmaps struct {
	graph    resource.ResourceGraph
	texture  resource.Handle
	styles   [uniform.MaxLightmaps]uint8
	count    int
	provider bind_group_provider.BindGroupProvider
}

// FaceLightmaps is the per-face lighting state: a four-layer lightmap array and the light
// style index of each layer.
type FaceLightmaps interface {
	// Styles returns the normalized style indices, terminated by the sentinel.
	Styles() [uniform.MaxLightmaps]uint8

	// Count returns the number of real lightmap layers.
	Count() int

	// Texture returns the lightmap array handle. Faces without lightmaps share the dummy.
	Texture() resource.Handle

	// Provider returns the bind group provider for group 3.
	Provider() bind_group_provider.BindGroupProvider

	// MarkUsed records that the current submission samples the lightmap array.
	MarkUsed()

	// Release releases the bind group and drops the texture reference.
	Release()
}

var _ FaceLightmaps = &faceLightmaps{}

// NewFaceLightmaps uploads a face's lightmaps as one array texture. A face without lightmaps,
// such as a warp or sky face, shares the dummy lightmap array.
//
// Parameters:
//   - graph: the resource graph
//   - textures: creates the texture
//   - dummies: provides the shared full-intensity lightmap
//   - lightmaps: up to four lightmaps of width*height luxels
//   - width: the lightmap width
//   - height: the lightmap height
//   - styles: the face's style indices
//
// Returns:
//   - FaceLightmaps: the per-face state
//   - error: an error if the data is malformed or the texture could not be created
func NewFaceLightmaps(graph resource.ResourceGraph, textures TextureCreator, dummies *Dummies, lightmaps [][]byte, width, height uint32, styles [uniform.MaxLightmaps]uint8) (FaceLightmaps, error) {
	count := min(len(lightmaps), uniform.MaxLightmaps)
	f := &faceLightmaps{
		graph:  graph,
		count:  count,
		styles: NormalizeStyles(styles, count),
	}

	if count == 0 {
		f.texture = dummies.Lightmap
		if err := graph.Retain(f.texture); err != nil {
			return nil, err
		}
	} else {
		staging, err := PackLightmaps(lightmaps, width, height)
		if err != nil {
			return nil, err
		}
		if f.texture, err = AcquireTexture(graph, textures, resource.NewIdentity("lightmap"), staging); err != nil {
			return nil, err
		}
	}

	view, err := textureView(graph, f.texture)
	if err != nil {
		f.Release()
		return nil, err
	}
	f.provider = bind_group_provider.NewBindGroupProvider("face lightmaps",
		bind_group_provider.WithSharedTextureView(BindingLightmaps, view),
	)
	return f, nil
}

func (f *faceLightmaps) Styles() [uniform.MaxLightmaps]uint8 {
	return f.styles
}

func (f *faceLightmaps) Count() int {
	return f.count
}

func (f *faceLightmaps) Texture() resource.Handle {
	return f.texture
}

func (f *faceLightmaps) Provider() bind_group_provider.BindGroupProvider {
	return f.provider
}

func (f *faceLightmaps) MarkUsed() {
	f.graph.MarkUsed(f.texture)
}

func (f *faceLightmaps) Release() {
	if f.provider != nil {
		f.provider.Release()
		f.provider = nil
	}
	if !f.texture.IsZero() {
		_ = f.graph.Release(f.texture)
		f.texture = resource.Handle{}
	}
}
