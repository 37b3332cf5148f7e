package ui

import (
	"bytes"
	"testing"
)

func TestText(t *testing.T) {
	tests := []struct {
		in   string
		want []byte
	}{
		{"abc", []byte("abc")},
		{"café", []byte{'c', 'a', 'f', 0xE9}},
		{"1€", []byte{'1', '?'}},
		{"", []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Text(tt.in, At(BottomLeft), BottomLeft, 1).Glyphs; !bytes.Equal(got, tt.want) {
				t.Errorf("Text(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestGlyphInstances(t *testing.T) {
	const dw, dh = 800, 600
	tests := []struct {
		name   string
		cmd    GlyphCommand
		layers []uint32
		xs     []int32
		size   uint32
	}{
		{"scaled run", Text("ab", At(BottomLeft), BottomLeft, 2), []uint32{'a', 'b'}, []int32{0, 16}, 16},
		{"zero scale", Text("ab", At(BottomLeft), BottomLeft, 0), []uint32{'a', 'b'}, []int32{0, 8}, 8},
		{"space skipped", Text("a b", At(BottomLeft), BottomLeft, 1), []uint32{'a', 'b'}, []int32{0, 16}, 8},
		{"right aligned", Text("ab", At(BottomRight), BottomRight, 1), []uint32{'a', 'b'}, []int32{784, 792}, 8},
		{"clipped at the edge", Text("abc", Offset(BottomLeft, 790, 0), BottomLeft, 1), []uint32{'a', 'b'}, []int32{790, 798}, 8},
		{"single glyph", Glyph(11, At(BottomLeft), BottomLeft, 1), []uint32{11}, []int32{0}, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GlyphInstances([]GlyphCommand{tt.cmd}, 8, 8, dw, dh)
			if len(got) != len(tt.layers) {
				t.Fatalf("got %d instances, want %d", len(got), len(tt.layers))
			}
			scale := ScreenSpaceScale(dw, dh, tt.size, tt.size)
			for i, inst := range got {
				if inst.Layer != tt.layers[i] {
					t.Errorf("instance %d layer = %d, want %d", i, inst.Layer, tt.layers[i])
				}
				if want := ScreenSpaceTranslate(dw, dh, tt.xs[i], 0); inst.Position != want {
					t.Errorf("instance %d position = %v, want %v", i, inst.Position, want)
				}
				if inst.Scale != scale {
					t.Errorf("instance %d scale = %v, want %v", i, inst.Scale, scale)
				}
			}
		})
	}
}

func TestGlyphInstancesKeepsCommandOrder(t *testing.T) {
	cmds := []GlyphCommand{
		Text("x", At(BottomLeft), BottomLeft, 1),
		Glyph('+', At(Center), Center, 1),
	}
	got := GlyphInstances(cmds, 8, 8, 800, 600)
	if len(got) != 2 || got[0].Layer != 'x' || got[1].Layer != '+' {
		t.Fatalf("instances = %+v", got)
	}
	if want := ScreenSpaceTranslate(800, 600, 396, 296); got[1].Position != want {
		t.Errorf("centered glyph at %v, want %v", got[1].Position, want)
	}
}
