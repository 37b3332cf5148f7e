package ui

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-quake/common"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestAnchorCoordResolve(t *testing.T) {
	tests := []struct {
		name  string
		coord AnchorCoord
		want  int32
	}{
		{"zero", AnchorCoord{Kind: AnchorZero}, 0},
		{"center", AnchorCoord{Kind: AnchorCenter}, 400},
		{"max", AnchorCoord{Kind: AnchorMax}, 800},
		{"absolute", Absolute(-12), -12},
		{"proportion", Proportion(0.25), 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.coord.Resolve(800); got != tt.want {
				t.Errorf("Resolve(800) = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLayoutRect(t *testing.T) {
	tests := []struct {
		name          string
		layout        Layout
		texW, texH    uint32
		x, y          int32
		width, height uint32
	}{
		{
			name:   "scaled around the center",
			layout: Layout{Position: At(Center), Anchor: Center, Size: Scaled(2)},
			texW:   10, texH: 20,
			x: 390, y: 280, width: 20, height: 40,
		},
		{
			name:   "zero factor is unscaled",
			layout: Layout{Position: At(BottomLeft), Anchor: BottomLeft},
			texW:   10, texH: 20,
			x: 0, y: 0, width: 10, height: 20,
		},
		{
			name:   "offset is scaled",
			layout: Layout{Position: Offset(BottomCenter, -5, 3), Anchor: BottomLeft, Size: Scaled(2)},
			texW:   10, texH: 10,
			x: 390, y: 6, width: 20, height: 20,
		},
		{
			name: "display scaled background",
			layout: Layout{
				Position: At(Anchor{X: AnchorCoord{Kind: AnchorZero}, Y: Proportion(0.5)}),
				Anchor:   BottomLeft,
				Size:     DisplayScaled(1),
			},
			texW: 320, texH: 200,
			x: 0, y: 300, width: 800, height: 600,
		},
		{
			name:   "absolute size",
			layout: Layout{Position: At(TopRight), Anchor: TopRight, Size: Pixels(64, 32)},
			texW:   64, texH: 32,
			x: 736, y: 568, width: 64, height: 32,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, w, h := tt.layout.Rect(tt.texW, tt.texH, 800, 600)
			if x != tt.x || y != tt.y || w != tt.width || h != tt.height {
				t.Errorf("Rect = (%d, %d, %d, %d), want (%d, %d, %d, %d)", x, y, w, h, tt.x, tt.y, tt.width, tt.height)
			}
		})
	}
}

func TestScreenSpace(t *testing.T) {
	if got := ScreenSpaceTranslate(800, 600, 400, 300); got != [2]float32{0, 0} {
		t.Errorf("center translate = %v", got)
	}
	if got := ScreenSpaceTranslate(800, 600, 0, 0); got != [2]float32{-1, -1} {
		t.Errorf("origin translate = %v", got)
	}
	if got := ScreenSpaceScale(800, 600, 800, 600); got != [2]float32{2, 2} {
		t.Errorf("full scale = %v", got)
	}

	m := ScreenSpaceTransform(800, 600, 400, 300, 0, 0)
	corners := []struct {
		in, want [4]float32
	}{
		{[4]float32{0, 0, 0, 1}, [4]float32{-1, -1, 0, 1}},
		{[4]float32{1, 1, 0, 1}, [4]float32{0, 0, 0, 1}},
		{[4]float32{1, 0, 0, 1}, [4]float32{0, -1, 0, 1}},
	}
	for _, c := range corners {
		got := common.MulVec4(m, c.in)
		for i := range got {
			if !near(got[i], c.want[i]) {
				t.Errorf("transform %v = %v, want %v", c.in, got, c.want)
				break
			}
		}
	}
}
