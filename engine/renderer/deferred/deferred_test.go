package deferred

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestLightContribution(t *testing.T) {
	light := uniform.GPUPointLight{Origin: [3]float32{50, 0, 0}, Radius: 100}
	tests := []struct {
		name   string
		pos    [3]float32
		normal [3]float32
		want   float32
	}{
		{"facing at half radius", [3]float32{0, 0, 0}, [3]float32{1, 0, 0}, 0.5},
		{"facing away", [3]float32{0, 0, 0}, [3]float32{-1, 0, 0}, 0},
		{"grazing", [3]float32{0, 0, 0}, [3]float32{0, 1, 0}, 0},
		{"out of range", [3]float32{-60, 0, 0}, [3]float32{1, 0, 0}, 0},
		{"close", [3]float32{40, 0, 0}, [3]float32{1, 0, 0}, 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LightContribution(light, tt.pos, tt.normal); !near(got, tt.want) {
				t.Errorf("LightContribution = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveLight(t *testing.T) {
	light := uniform.GPUPointLight{Origin: [3]float32{50, 0, 0}, Radius: 100}
	pos, normal := [3]float32{}, [3]float32{1, 0, 0}

	tests := []struct {
		name   string
		base   float32
		lights []uniform.GPUPointLight
		want   float32
	}{
		{"base only", 1.5, nil, 1.5},
		{"one light", 1, []uniform.GPUPointLight{light}, 1.5},
		{"clamped to ceiling", 3.9, []uniform.GPUPointLight{light}, 4},
		{"lights over the cap ignored", 0, make([]uniform.GPUPointLight, uniform.MaxLights+1), 0},
	}
	tests[3].lights[uniform.MaxLights] = light
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveLight(tt.base, tt.lights, pos, normal, 4); !near(got, tt.want) {
				t.Errorf("ResolveLight = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeLight(t *testing.T) {
	if got := DecodeLight(0.5, uniform.LightmapScale); got != 2 {
		t.Errorf("DecodeLight = %v, want 2", got)
	}
	if got := DecodeLight(0.5, 0); got != 0 {
		t.Errorf("DecodeLight with zero scale = %v, want 0", got)
	}
}

func TestReconstructPosition(t *testing.T) {
	proj := common.Perspective(common.Radians(90), 1, 1, 1000)
	inv, ok := common.Invert4(proj)
	if !ok {
		t.Fatal("projection not invertible")
	}

	center := ReconstructPosition(inv, [2]float32{0.5, 0.5}, 0)
	if !near(center[0], 0) || !near(center[1], 0) || !near(center[2], -1) {
		t.Errorf("center at depth 0 = %v, want (0, 0, -1)", center)
	}

	// the top right corner of the near plane at 90 degrees is (1, 1, -1)
	corner := ReconstructPosition(inv, [2]float32{1, 0}, 0)
	if !near(corner[0], 1) || !near(corner[1], 1) || !near(corner[2], -1) {
		t.Errorf("corner = %v, want (1, 1, -1)", corner)
	}
}

func TestReconstructPositionWorldSpace(t *testing.T) {
	view := common.Translate(0, 0, -10)
	proj := common.Perspective(common.Radians(90), 1, 1, 1000)
	inv, ok := common.Invert4(common.Mul4(proj, view))
	if !ok {
		t.Fatal("view projection not invertible")
	}
	// a camera at render z=10 sees its near plane at z=9
	p := ReconstructPosition(inv, [2]float32{0.5, 0.5}, 0)
	if !near(p[2], 9) {
		t.Errorf("z = %v, want 9", p[2])
	}
}
