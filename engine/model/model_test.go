package model

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-quake/common"
)

func testModel() Model {
	tri := []common.Vec3{{0, 0, 0}, {10, 0, 0}, {0, 10, 0}}
	return NewModel(
		WithName("progs/test.mdl"),
		WithSkinSize(8, 4),
		WithTexcoords([]Texcoord{{S: 0, T: 0}, {S: 2, T: 1, OnSeam: true}, {S: 3, T: 3}}),
		WithTriangles([]Triangle{{Indices: [3]uint32{0, 1, 2}, FacesFront: false}}),
		WithKeyframes(
			Keyframe{Name: "stand", Poses: []Pose{{Vertices: tri}}},
			Keyframe{Name: "run", Poses: []Pose{
				{Vertices: tri, Duration: 100 * time.Millisecond},
				{Vertices: tri, Duration: 300 * time.Millisecond},
			}},
		),
		WithSkins(Skin{Frames: [][]byte{make([]byte, 32)}}),
	)
}

func TestPoseIndex(t *testing.T) {
	d := []time.Duration{100 * time.Millisecond, 300 * time.Millisecond}
	tests := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 0},
		{99 * time.Millisecond, 0},
		{100 * time.Millisecond, 1},
		{399 * time.Millisecond, 1},
		{400 * time.Millisecond, 0},
		{-50 * time.Millisecond, 1},
	}
	for _, tt := range tests {
		if got := PoseIndex(d, tt.elapsed); got != tt.want {
			t.Errorf("PoseIndex(%v) = %d, want %d", tt.elapsed, got, tt.want)
		}
	}
	if got := PoseIndex(nil, time.Second); got != 0 {
		t.Errorf("empty sequence = %d", got)
	}
}

func TestModelPose(t *testing.T) {
	m := testModel()
	if m.PoseCount() != 3 {
		t.Fatalf("PoseCount() = %d, want 3", m.PoseCount())
	}
	tests := []struct {
		keyframe int
		elapsed  time.Duration
		want     int
	}{
		{0, time.Hour, 0},
		{1, 0, 1},
		{1, 150 * time.Millisecond, 2},
		{7, 0, 0},
	}
	for _, tt := range tests {
		if got := m.Pose(tt.keyframe, tt.elapsed); got != tt.want {
			t.Errorf("Pose(%d, %v) = %d, want %d", tt.keyframe, tt.elapsed, got, tt.want)
		}
	}
	if m.BoundingRadius() != 10 {
		t.Errorf("BoundingRadius() = %v, want 10", m.BoundingRadius())
	}
}

func TestBuildVertices(t *testing.T) {
	verts, ranges, err := BuildVertices(testModel())
	if err != nil {
		t.Fatal(err)
	}
	if len(verts) != 9 || len(ranges) != 3 {
		t.Fatalf("got %d vertices, %d ranges", len(verts), len(ranges))
	}
	if ranges[2] != (VertexRange{First: 6, Count: 3}) {
		t.Errorf("ranges[2] = %+v", ranges[2])
	}
	// sim (10, 0, 0) is render (0, 0, -10)
	if verts[1].Position != [3]float32{0, 0, -10} {
		t.Errorf("position = %v", verts[1].Position)
	}
	// back-facing seam vertex shifts by half the skin width
	if want := [2]float32{6.5 / 8, 1.5 / 4}; verts[1].DiffuseTexcoord != want {
		t.Errorf("seam texcoord = %v, want %v", verts[1].DiffuseTexcoord, want)
	}
	if l := common.Length(verts[0].Normal); l < 0.999 || l > 1.001 {
		t.Errorf("normal length = %v", l)
	}
}

func TestBuildVerticesOutOfRange(t *testing.T) {
	m := NewModel(
		WithSkinSize(8, 8),
		WithTexcoords([]Texcoord{{}}),
		WithTriangles([]Triangle{{Indices: [3]uint32{0, 1, 2}}}),
		WithKeyframes(Keyframe{Poses: []Pose{{Vertices: []common.Vec3{{}}}}}),
	)
	if _, _, err := BuildVertices(m); err == nil {
		t.Error("expected out of range error")
	}
}
