package ui

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/palette"
)

// concharsSheet fills every 8x8 cell with its own glyph index.
func concharsSheet() []byte {
	sheet := make([]byte, ConcharsSize*ConcharsSize)
	for y := 0; y < ConcharsSize; y++ {
		for x := 0; x < ConcharsSize; x++ {
			sheet[y*ConcharsSize+x] = byte((y/ConcharsCell)*concharsColumns + x/ConcharsCell)
		}
	}
	return sheet
}

func TestConcharsAtlas(t *testing.T) {
	atlas, err := ConcharsAtlas(concharsSheet(), palette.Grayscale())
	if err != nil {
		t.Fatalf("ConcharsAtlas: %v", err)
	}
	if err := atlas.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	layer := func(g int) []byte {
		size := ConcharsCell * ConcharsCell * 4
		return atlas.Staging.Pixels[g*size : (g+1)*size]
	}
	for i, v := range layer(0) {
		if v != 0 {
			t.Fatalf("glyph 0 byte %d = %d, want transparent", i, v)
		}
	}
	a := layer('A')
	for px := 0; px < len(a); px += 4 {
		if a[px] != 'A' || a[px+3] != 0xFF {
			t.Fatalf("glyph A pixel %d = %v", px/4, a[px:px+4])
		}
	}
}

func TestConcharsAtlasWrongSize(t *testing.T) {
	if _, err := ConcharsAtlas(make([]byte, 64), palette.Grayscale()); err == nil {
		t.Error("expected an error for a short sheet")
	}
}

func TestBasicFontAtlas(t *testing.T) {
	atlas := BasicFontAtlas()
	if err := atlas.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if atlas.CellWidth != 7 || atlas.CellHeight != 13 {
		t.Errorf("cell = %dx%d, want 7x13", atlas.CellWidth, atlas.CellHeight)
	}

	coverage := func(g int) int {
		size := int(atlas.CellWidth * atlas.CellHeight * 4)
		n := 0
		for px := g * size; px < (g+1)*size; px += 4 {
			if atlas.Staging.Pixels[px+3] != 0 {
				n++
			}
		}
		return n
	}
	if coverage('A') == 0 {
		t.Error("glyph A is empty")
	}
	if n := coverage(0); n != 0 {
		t.Errorf("control glyph has %d pixels", n)
	}
}

func TestAtlasValidate(t *testing.T) {
	good := BasicFontAtlas()
	tests := []struct {
		name   string
		modify func(a *Atlas)
	}{
		{"layers", func(a *Atlas) { a.Staging.Layers = 128 }},
		{"cell size", func(a *Atlas) { a.CellWidth = 8 }},
		{"pixels", func(a *Atlas) { a.Staging.Pixels = a.Staging.Pixels[:16] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := good
			tt.modify(&a)
			if err := a.Validate(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
