// Package palette converts 8-bit palette-indexed pixels into the RGBA diffuse and R8 fullbright
// data uploaded to the GPU.
package palette

import (
	"errors"
	"fmt"
	"os"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// Size is the number of palette entries.
	Size = 256

	// Transparent is the index rendered fully transparent in textures that use it.
	Transparent uint8 = 0xFF

	// FullbrightStart is the first index that ignores lighting.
	FullbrightStart uint8 = 224
)

// ErrInvalidPalette is returned when palette data is not 256 RGB triples.
var ErrInvalidPalette = errors.New("invalid palette")

// Palette maps the 256 color indices to RGB values.
type Palette struct {
	rgb [Size][3]uint8
}

// New builds a Palette from 768 bytes of packed RGB triples.
//
// Parameters:
//   - data: the raw palette bytes
//
// Returns:
//   - Palette: the palette
//   - error: ErrInvalidPalette if data is not exactly 768 bytes
func New(data []byte) (Palette, error) {
	var p Palette
	if len(data) != Size*3 {
		return p, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidPalette, len(data), Size*3)
	}
	for i := range p.rgb {
		copy(p.rgb[i][:], data[i*3:i*3+3])
	}
	return p, nil
}

// Load reads a palette file from disk.
func Load(path string) (Palette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Palette{}, fmt.Errorf("palette: %w", err)
	}
	return New(data)
}

// Grayscale returns a ramp palette used when no palette file is configured. Entries at or above
// FullbrightStart are tinted so fullbright texels remain visible in debug views.
func Grayscale() Palette {
	var p Palette
	for i := range p.rgb {
		v := uint8(i)
		p.rgb[i] = [3]uint8{v, v, v}
		if uint8(i) >= FullbrightStart {
			p.rgb[i] = [3]uint8{v, v / 2, 0}
		}
	}
	return p
}

// RGB returns the color of index.
func (p Palette) RGB(index uint8) [3]uint8 {
	return p.rgb[index]
}

// Translate converts palette indices into RGBA diffuse texels and one fullbright byte per texel.
// Transparent becomes (0,0,0,0) with no fullbright. Other indices are opaque, and indices at or
// above FullbrightStart are marked 0xFF in the fullbright data.
//
// Parameters:
//   - indices: the palette-indexed pixels
//
// Returns:
//   - []byte: RGBA8 pixels, four bytes per index
//   - []byte: R8 fullbright pixels, one byte per index
func (p Palette) Translate(indices []byte) ([]byte, []byte) {
	rgba := make([]byte, len(indices)*4)
	fullbright := make([]byte, len(indices))

	for i, index := range indices {
		if index == Transparent {
			continue
		}
		c := p.rgb[index]
		rgba[i*4+0] = c[0]
		rgba[i*4+1] = c[1]
		rgba[i*4+2] = c[2]
		rgba[i*4+3] = 0xFF
		if index >= FullbrightStart {
			fullbright[i] = 0xFF
		}
	}
	return rgba, fullbright
}

// TranslateTexture converts one palette-indexed image into diffuse and fullbright staging data.
//
// Parameters:
//   - indices: the palette-indexed pixels, width*height*layers bytes
//   - width: the layer width
//   - height: the layer height
//   - layers: the array layer count, 0 or 1 for a plain texture
//
// Returns:
//   - common.TextureStagingData: the RGBA8 sRGB diffuse texture
//   - common.TextureStagingData: the R8 fullbright mask
//   - error: an error if the pixel count does not match the dimensions
func (p Palette) TranslateTexture(indices []byte, width, height, layers uint32) (common.TextureStagingData, common.TextureStagingData, error) {
	layers = max(layers, 1)
	if want := int(width * height * layers); len(indices) != want {
		return common.TextureStagingData{}, common.TextureStagingData{}, fmt.Errorf("palette: %d indices for %dx%dx%d texture", len(indices), width, height, layers)
	}

	rgba, fullbright := p.Translate(indices)
	diffuse := common.TextureStagingData{
		Pixels: rgba,
		Width:  width,
		Height: height,
		Layers: layers,
		Format: wgpu.TextureFormatRGBA8UnormSrgb,
	}
	mask := common.TextureStagingData{
		Pixels: fullbright,
		Width:  width,
		Height: height,
		Layers: layers,
		Format: wgpu.TextureFormatR8Unorm,
	}
	return diffuse, mask, nil
}
