package common

import (
	"math"
	"testing"
)

const eps = 1e-4

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) <= eps
}

func vecNear(a, b Vec3) bool {
	return near(a[0], b[0]) && near(a[1], b[1]) && near(a[2], b[2])
}

func TestSimToRender(t *testing.T) {
	tests := []struct {
		name string
		in   Vec3
		want Vec3
	}{
		{"forward", Vec3{1, 0, 0}, Vec3{0, 0, -1}},
		{"left", Vec3{0, 1, 0}, Vec3{-1, 0, 0}},
		{"up", Vec3{0, 0, 1}, Vec3{0, 1, 0}},
		{"mixed", Vec3{3, -4, 5}, Vec3{4, 5, -3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SimToRender(tt.in)
			if got != tt.want {
				t.Errorf("SimToRender(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if back := RenderToSim(got); back != tt.in {
				t.Errorf("RenderToSim(%v) = %v, want %v", got, back, tt.in)
			}
		})
	}
}

func TestInvert4(t *testing.T) {
	m := Mul4(Translate(1, 2, 3), Mul4(RotateY(0.7), Scale(2, 3, 4)))
	inv, ok := Invert4(m)
	if !ok {
		t.Fatal("expected matrix to be invertible")
	}
	id := Mul4(m, inv)
	want := Identity()
	for i := range id {
		if !near(id[i], want[i]) {
			t.Fatalf("m * inv(m) [%d] = %v, want %v", i, id[i], want[i])
		}
	}

	if _, ok := Invert4(Mat4{}); ok {
		t.Error("zero matrix reported as invertible")
	}
}

func TestCameraRotationFacesYaw(t *testing.T) {
	// A camera yawed 90 degrees looks down simulation +Y. A point ahead of it must land on
	// the view-space -Z axis.
	ahead := SimToRender(Vec3{0, 10, 0})
	view := CameraRotation(0, 90, 0)
	p := MulVec4(view, [4]float32{ahead[0], ahead[1], ahead[2], 1})
	if !vecNear(Vec3{p[0], p[1], p[2]}, Vec3{0, 0, -10}) {
		t.Errorf("view-space point = %v, want (0, 0, -10)", p)
	}
}

func TestCameraRotationPitchLooksDown(t *testing.T) {
	below := SimToRender(Vec3{0, 0, -10})
	view := CameraRotation(90, 0, 0)
	p := MulVec4(view, [4]float32{below[0], below[1], below[2], 1})
	if !vecNear(Vec3{p[0], p[1], p[2]}, Vec3{0, 0, -10}) {
		t.Errorf("view-space point = %v, want (0, 0, -10)", p)
	}
}

func TestEntityRotationInvertsCamera(t *testing.T) {
	m := Mul4(CameraRotation(30, 45, 10), EntityRotation(30, 45, 10))
	want := Identity()
	for i := range m {
		if !near(m[i], want[i]) {
			t.Fatalf("camera * entity [%d] = %v, want %v", i, m[i], want[i])
		}
	}
}

func TestPerspectiveDepthRange(t *testing.T) {
	proj := Perspective(Radians(90), 1, 4, 4096)
	nearPt := MulVec4(proj, [4]float32{0, 0, -4, 1})
	farPt := MulVec4(proj, [4]float32{0, 0, -4096, 1})
	if d := nearPt[2] / nearPt[3]; !near(d, 0) {
		t.Errorf("near plane depth = %v, want 0", d)
	}
	if d := farPt[2] / farPt[3]; !near(d, 1) {
		t.Errorf("far plane depth = %v, want 1", d)
	}
}

func TestFrustumContains(t *testing.T) {
	proj := Perspective(Radians(90), 1, 1, 100)
	f := ExtractFrustum(proj)

	tests := []struct {
		name   string
		center Vec3
		radius float32
		want   bool
	}{
		{"ahead", Vec3{0, 0, -10}, 0, true},
		{"behind", Vec3{0, 0, 10}, 0, false},
		{"beyond far", Vec3{0, 0, -200}, 0, false},
		{"straddling left", Vec3{-12, 0, -10}, 3, true},
		{"outside left", Vec3{-20, 0, -10}, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.ContainsSphere(tt.center, tt.radius); got != tt.want {
				t.Errorf("ContainsSphere(%v, %v) = %v, want %v", tt.center, tt.radius, got, tt.want)
			}
		})
	}
}

func TestClampAndAlign(t *testing.T) {
	if got := Clamp(5.0, 0.0, 4.0); got != 4.0 {
		t.Errorf("Clamp = %v, want 4", got)
	}
	if got := Clamp(-1, 0, 63); got != 0 {
		t.Errorf("Clamp = %v, want 0", got)
	}
	if got := AlignUp[uint64](200, 256); got != 256 {
		t.Errorf("AlignUp(200, 256) = %v, want 256", got)
	}
	if got := AlignUp[uint64](512, 256); got != 512 {
		t.Errorf("AlignUp(512, 256) = %v, want 512", got)
	}
}
