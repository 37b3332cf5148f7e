package world

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
)

func TestWarpTexcoordBounded(t *testing.T) {
	params := DefaultWarpParams()
	for u := float32(-2); u <= 2; u += 0.37 {
		for v := float32(-2); v <= 2; v += 0.41 {
			for _, tm := range []float32{0, 0.5, 3.3, 100} {
				got := WarpTexcoord([2]float32{u, v}, tm, params)
				du, dv := math.Abs(float64(got[0]-u)), math.Abs(float64(got[1]-v))
				if du > float64(params.Amplitude)+1e-5 || dv > float64(params.Amplitude)+1e-5 {
					t.Fatalf("WarpTexcoord(%v, %v, %v) offset (%v, %v) exceeds %v", u, v, tm, du, dv, params.Amplitude)
				}
			}
		}
	}
}

func TestWarpTexcoordTransposed(t *testing.T) {
	params := WarpParams{Amplitude: 1, Scale: 1, Frequency: 0}
	got := WarpTexcoord([2]float32{0, float32(math.Pi / 2)}, 0, params)
	// u is offset by sin(v) = 1, v by sin(u) = 0
	if math.Abs(float64(got[0]-1)) > 1e-6 || math.Abs(float64(got[1]-math.Pi/2)) > 1e-6 {
		t.Errorf("WarpTexcoord = %v, want [1 pi/2]", got)
	}
}

func TestSkyTexcoordsPeriodic(t *testing.T) {
	sky := DefaultSkyParams()
	period := sky.Period / sky.ScrollSpeed
	pos := common.Vec3{10, -4, 7}
	camera := common.Vec3{1, 2, 3}

	for _, tm := range []float32{0, 1.5, 5.25} {
		s0, c0 := sky.Texcoords(pos, camera, tm)
		s1, c1 := sky.Texcoords(pos, camera, tm+period)
		for i := range 2 {
			if math.Abs(float64(s0[i]-s1[i])) > 1e-4 || math.Abs(float64(c0[i]-c1[i])) > 1e-4 {
				t.Errorf("t=%v: (%v, %v) != (%v, %v) one period later", tm, s0, c0, s1, c1)
			}
		}
	}
}

func TestSkyTexcoordsDirection(t *testing.T) {
	// render (0, 0, -10) is simulation (10, 0, 0): straight ahead on the horizon
	solid, cloud := SkyTexcoords(common.Vec3{0, 0, -10}, common.Vec3{}, 0)
	want := [2]float32{skyDistance / 128.0, 0}
	for i := range 2 {
		if math.Abs(float64(solid[i]-want[i])) > 1e-5 || math.Abs(float64(cloud[i]-want[i])) > 1e-5 {
			t.Errorf("SkyTexcoords = %v, %v, want %v", solid, cloud, want)
		}
	}

	// one second in, clouds have scrolled twice as far as the solid layer
	solid, cloud = SkyTexcoords(common.Vec3{0, 0, -10}, common.Vec3{}, 1)
	if d := cloud[0] - solid[0]; math.Abs(float64(d-8.0/128)) > 1e-6 {
		t.Errorf("cloud - solid = %v, want %v", d, 8.0/128)
	}
}

func TestAccumulateLightmap(t *testing.T) {
	var table [uniform.LightStyleCount]float32
	table[0] = 1
	table[1] = 2
	table[2] = 100

	tests := []struct {
		name     string
		samples  [4]float32
		styles   [4]uint8
		wantSum  float32
		wantRead int
	}{
		{"stops at sentinel", [4]float32{1, 0.5, 0.25, 1}, [4]uint8{0, 1, 255, 2}, 2, 2},
		{"all slots", [4]float32{0.5, 0.5, 0.5, 0.5}, [4]uint8{0, 0, 1, 1}, 3, 4},
		{"unlit", [4]float32{1, 1, 1, 1}, [4]uint8{255, 0, 0, 0}, 0, 0},
		{"style out of range", [4]float32{1, 1, 1, 1}, [4]uint8{70, 255, 255, 255}, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, read := AccumulateLightmap(tt.samples, tt.styles, &table)
			if sum != tt.wantSum || read != tt.wantRead {
				t.Errorf("AccumulateLightmap = (%v, %d), want (%v, %d)", sum, read, tt.wantSum, tt.wantRead)
			}
		})
	}
}

func TestEncodeLight(t *testing.T) {
	tests := []struct {
		light, fullbright, want float32
	}{
		{2, 0, 0.5},
		{0.1, 1, 0.25},
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := EncodeLight(tt.light, tt.fullbright, uniform.LightmapScale); got != tt.want {
			t.Errorf("EncodeLight(%v, %v) = %v, want %v", tt.light, tt.fullbright, got, tt.want)
		}
	}
}
