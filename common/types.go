// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData holds pixel data for a texture pending GPU upload.
// Layers are stored back to back; a plain 2D texture has a single layer.
type TextureStagingData struct {
	// Pixels holds every layer's texels in row-major order.
	Pixels []byte
	// Width is the width of one layer in pixels.
	Width uint32
	// Height is the height of one layer in pixels.
	Height uint32
	// Layers is the array layer count. Zero is treated as 1.
	Layers uint32
	// Format is the GPU texel format. The zero value falls back to RGBA8UnormSrgb.
	Format wgpu.TextureFormat
}

// BytesPerPixel returns the texel size of the staging format.
func (t TextureStagingData) BytesPerPixel() uint32 {
	switch t.Format {
	case wgpu.TextureFormatR8Unorm:
		return 1
	case wgpu.TextureFormatRGBA16Float:
		return 8
	default:
		return 4
	}
}

// LayerCount returns Layers with the zero value mapped to 1.
func (t TextureStagingData) LayerCount() uint32 {
	return Coalesce(t.Layers, 1)
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
// Zero fields fall back to backend defaults when the sampler is created.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level.
	MaxAnisotropy uint16
}

// Preset samplers shared by the world and UI renderers.
var (
	// DiffuseSampler repeats with nearest magnification so palette textures keep their hard edges.
	DiffuseSampler = SamplerStagingData{
		AddressModeU: wgpu.AddressModeRepeat,
		AddressModeV: wgpu.AddressModeRepeat,
		AddressModeW: wgpu.AddressModeRepeat,
		MagFilter:    wgpu.FilterModeNearest,
		MinFilter:    wgpu.FilterModeLinear,
		MipmapFilter: wgpu.MipmapFilterModeNearest,
		LodMinClamp:  -1000,
		LodMaxClamp:  1000,
	}

	// LightmapSampler clamps and filters linearly across luxels.
	LightmapSampler = SamplerStagingData{
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		AddressModeW: wgpu.AddressModeClampToEdge,
		MagFilter:    wgpu.FilterModeLinear,
		MinFilter:    wgpu.FilterModeLinear,
		MipmapFilter: wgpu.MipmapFilterModeLinear,
	}

	// NearestSampler clamps and point-samples. Used by full-screen passes and UI quads.
	NearestSampler = SamplerStagingData{
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		AddressModeW: wgpu.AddressModeClampToEdge,
		MagFilter:    wgpu.FilterModeNearest,
		MinFilter:    wgpu.FilterModeNearest,
		MipmapFilter: wgpu.MipmapFilterModeNearest,
	}
)
