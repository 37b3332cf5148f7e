package ui

import (
	"fmt"
	"image"
	"image/color"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/palette"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/fzipp/bmfont"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// ConcharsSize is the width and height of the conchars sheet.
	ConcharsSize = 128

	// ConcharsCell is the width and height of one conchars glyph.
	ConcharsCell = 8

	concharsColumns = ConcharsSize / ConcharsCell
)

// Atlas is a glyph atlas laid out as one array layer per glyph.
type Atlas struct {
	Staging    common.TextureStagingData
	CellWidth  uint32
	CellHeight uint32
}

// Validate reports whether the atlas holds one RGBA cell per glyph.
func (a Atlas) Validate() error {
	s := a.Staging
	if s.Layers != MaxTextureArrayLayers {
		return fmt.Errorf("glyph atlas: %d layers, want %d", s.Layers, MaxTextureArrayLayers)
	}
	if s.Width != a.CellWidth || s.Height != a.CellHeight || a.CellWidth == 0 || a.CellHeight == 0 {
		return fmt.Errorf("glyph atlas: %dx%d texture for %dx%d cells", s.Width, s.Height, a.CellWidth, a.CellHeight)
	}
	if want := int(s.Width * s.Height * s.Layers * 4); len(s.Pixels) != want {
		return fmt.Errorf("glyph atlas: %d bytes, want %d", len(s.Pixels), want)
	}
	return nil
}

// ConcharsAtlas converts the 128x128 palette-indexed conchars sheet into a glyph atlas. The sheet
// draws index 0 as background, so it is made transparent.
//
// Parameters:
//   - indices: the sheet pixels, row-major
//   - pal: the palette
//
// Returns:
//   - Atlas: the 8x8 cell atlas
//   - error: an error if the sheet is the wrong size
func ConcharsAtlas(indices []byte, pal palette.Palette) (Atlas, error) {
	if len(indices) != ConcharsSize*ConcharsSize {
		return Atlas{}, fmt.Errorf("conchars: %d bytes, want %d", len(indices), ConcharsSize*ConcharsSize)
	}

	layered := make([]byte, 0, len(indices))
	for g := 0; g < MaxTextureArrayLayers; g++ {
		cx, cy := (g%concharsColumns)*ConcharsCell, (g/concharsColumns)*ConcharsCell
		for y := 0; y < ConcharsCell; y++ {
			row := (cy+y)*ConcharsSize + cx
			for _, idx := range indices[row : row+ConcharsCell] {
				if idx == 0 {
					idx = palette.Transparent
				}
				layered = append(layered, idx)
			}
		}
	}

	rgba, _ := pal.Translate(layered)
	return Atlas{
		Staging: common.TextureStagingData{
			Pixels: rgba,
			Width:  ConcharsCell,
			Height: ConcharsCell,
			Layers: MaxTextureArrayLayers,
			Format: wgpu.TextureFormatRGBA8UnormSrgb,
		},
		CellWidth:  ConcharsCell,
		CellHeight: ConcharsCell,
	}, nil
}

// atlasFromCells draws each glyph into a cellWidth x cellHeight layer. cell returns false for
// glyphs the font lacks, which stay transparent.
func atlasFromCells(cellWidth, cellHeight int, cell func(g int, dst *image.RGBA) bool) Atlas {
	layerSize := cellWidth * cellHeight * 4
	pixels := make([]byte, layerSize*MaxTextureArrayLayers)
	dst := image.NewRGBA(image.Rect(0, 0, cellWidth, cellHeight))
	for g := 0; g < MaxTextureArrayLayers; g++ {
		clear(dst.Pix)
		if cell(g, dst) {
			copy(pixels[g*layerSize:], dst.Pix)
		}
	}
	return Atlas{
		Staging: common.TextureStagingData{
			Pixels: pixels,
			Width:  uint32(cellWidth),
			Height: uint32(cellHeight),
			Layers: MaxTextureArrayLayers,
			Format: wgpu.TextureFormatRGBA8UnormSrgb,
		},
		CellWidth:  uint32(cellWidth),
		CellHeight: uint32(cellHeight),
	}
}

// BMFontAtlas loads an AngelCode BMFont descriptor and its page sheets and scales every glyph
// into a cell sized to the font's line height and widest advance.
//
// Parameters:
//   - path: the .fnt descriptor path; page sheets are resolved relative to it
//
// Returns:
//   - Atlas: the atlas
//   - error: an error if the font could not be loaded
func BMFontAtlas(path string) (Atlas, error) {
	f, err := bmfont.Load(path)
	if err != nil {
		return Atlas{}, fmt.Errorf("bmfont %s: %w", path, err)
	}

	cellWidth, cellHeight := 0, f.Descriptor.Common.LineHeight
	for _, ch := range f.Descriptor.Chars {
		cellWidth = max(cellWidth, ch.XAdvance, ch.Width)
	}
	if cellWidth == 0 || cellHeight == 0 {
		return Atlas{}, fmt.Errorf("bmfont %s: empty font", path)
	}

	return atlasFromCells(cellWidth, cellHeight, func(g int, dst *image.RGBA) bool {
		ch, ok := f.Descriptor.Chars[rune(g)]
		if !ok || ch.Width == 0 || ch.Height == 0 {
			return false
		}
		sheet, ok := f.PageSheets[ch.Page]
		if !ok {
			return false
		}
		src := image.Rect(ch.X, ch.Y, ch.X+ch.Width, ch.Y+ch.Height)
		target := image.Rect(ch.XOffset, ch.YOffset, ch.XOffset+ch.Width, ch.YOffset+ch.Height).Intersect(dst.Bounds())
		if target.Empty() {
			return false
		}
		xdraw.NearestNeighbor.Scale(dst, target, sheet, src, xdraw.Over, nil)
		return true
	}), nil
}

// BasicFontAtlas rasterizes the built-in 7x13 face. It is used when no game font is available.
func BasicFontAtlas() Atlas {
	face := basicfont.Face7x13
	return atlasFromCells(face.Advance, face.Height, func(g int, dst *image.RGBA) bool {
		if g < 0x20 || g == 0x7F {
			return false
		}
		d := font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(color.White),
			Face: face,
			Dot:  fixed.P(0, face.Ascent),
		}
		d.DrawString(string(rune(g)))
		return true
	})
}
