package world

import (
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/material"
)

func square(size float32) []common.Vec3 {
	return []common.Vec3{{0, 0, 0}, {size, 0, 0}, {size, size, 0}, {0, size, 0}}
}

func testFace(texture int, verts []common.Vec3) BrushFace {
	return BrushFace{
		Vertices: verts,
		Texture:  texture,
		SVector:  common.Vec3{1, 0, 0},
		TVector:  common.Vec3{0, 1, 0},
		Extents:  [2]float32{64, 64},
		Styles:   [4]uint8{0, 255, 255, 255},
	}
}

func testSource(faces ...BrushFace) BrushSource {
	return BrushSource{
		Name: "test",
		Textures: []BrushTexture{
			{Name: "wall", Width: 64, Height: 64},
			{Name: "*water", Width: 64, Height: 64},
			{Name: "sky1", Width: 256, Height: 128},
		},
		Faces: faces,
	}
}

func TestBuildBrushGeometryFan(t *testing.T) {
	face := testFace(0, square(64))
	face.Lightmaps = [][]byte{make([]byte, 25)}
	g, err := BuildBrushGeometry(testSource(face))
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Vertices) != 6 {
		t.Fatalf("got %d vertices, want 6", len(g.Vertices))
	}

	f := g.Faces[0]
	if f.First != 0 || f.Count != 6 || f.Kind != material.SurfaceRegular {
		t.Errorf("face = %+v", f)
	}
	if f.LightmapWidth != 5 || f.LightmapHeight != 5 {
		t.Errorf("lightmap size = %dx%d, want 5x5", f.LightmapWidth, f.LightmapHeight)
	}
	if f.Styles != [4]uint8{0, 255, 255, 255} {
		t.Errorf("styles = %v", f.Styles)
	}

	// the second fan vertex, simulation (64, 0, 0), lands on the render -z axis
	if g.Vertices[1].Position != [3]float32{0, 0, -64} {
		t.Errorf("position = %v", g.Vertices[1].Position)
	}
	// simulation -z is render -y
	if g.Vertices[0].Normal != [3]float32{0, -1, 0} {
		t.Errorf("normal = %v", g.Vertices[0].Normal)
	}
	if g.Vertices[1].DiffuseTexcoord != [2]float32{1, 0} {
		t.Errorf("diffuse texcoord = %v", g.Vertices[1].DiffuseTexcoord)
	}
	if g.Vertices[0].LightmapAnim != f.Styles {
		t.Errorf("vertex styles = %v", g.Vertices[0].LightmapAnim)
	}
}

func TestBuildBrushGeometryBounds(t *testing.T) {
	g, err := BuildBrushGeometry(testSource(testFace(0, square(64))))
	if err != nil {
		t.Fatal(err)
	}
	f := g.Faces[0]
	for c := range 3 {
		if f.Mins[c] > f.Maxs[c] {
			t.Fatalf("mins %v not below maxs %v", f.Mins, f.Maxs)
		}
	}
	if f.Mins != [3]float32{-64, 0, -64} || f.Maxs != [3]float32{0, 0, 0} {
		t.Errorf("bounds = %v %v", f.Mins, f.Maxs)
	}
}

func TestBuildBrushGeometryCollinear(t *testing.T) {
	verts := []common.Vec3{{0, 0, 0}, {32, 0, 0}, {64, 0, 0}, {64, 64, 0}, {0, 64, 0}}
	g, err := BuildBrushGeometry(testSource(testFace(0, verts)))
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Vertices) != 6 {
		t.Errorf("got %d vertices, want 6 after dropping the midpoint", len(g.Vertices))
	}
}

func TestBuildBrushGeometryWarpSubdivides(t *testing.T) {
	g, err := BuildBrushGeometry(testSource(testFace(1, square(64))))
	if err != nil {
		t.Fatal(err)
	}
	if g.Faces[0].Kind != material.SurfaceWarp {
		t.Errorf("kind = %v", g.Faces[0].Kind)
	}
	// cut into four 32 unit quads, two triangles each
	if len(g.Vertices) != 24 {
		t.Errorf("got %d vertices, want 24", len(g.Vertices))
	}
	for _, v := range g.Vertices {
		if v.LightmapAnim != [4]uint8{255, 255, 255, 255} {
			t.Fatalf("warp face styles = %v, want all sentinel", v.LightmapAnim)
		}
	}
}

func TestBuildBrushGeometryChains(t *testing.T) {
	g, err := BuildBrushGeometry(testSource(
		testFace(2, square(16)),
		testFace(0, square(16)),
		testFace(2, square(8)),
	))
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Chains) != 2 {
		t.Fatalf("got %d chains, want 2", len(g.Chains))
	}
	if g.Chains[0].Texture != 0 || len(g.Chains[0].Faces) != 1 {
		t.Errorf("chain 0 = %+v", g.Chains[0])
	}
	if g.Chains[1].Texture != 2 || len(g.Chains[1].Faces) != 2 || g.Chains[1].Faces[0] != 0 || g.Chains[1].Faces[1] != 2 {
		t.Errorf("chain 1 = %+v", g.Chains[1])
	}
	if g.Faces[0].Kind != material.SurfaceSky {
		t.Errorf("sky kind = %v", g.Faces[0].Kind)
	}
}

func TestBuildBrushGeometryErrors(t *testing.T) {
	_, err := BuildBrushGeometry(testSource(testFace(0, []common.Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}})))
	if !errors.Is(err, ErrDegenerateFace) {
		t.Errorf("collinear face: err = %v, want ErrDegenerateFace", err)
	}
	if _, err := BuildBrushGeometry(testSource(testFace(9, square(8)))); err == nil {
		t.Error("missing texture: expected error")
	}
}

func TestBuildBrushGeometryStyles(t *testing.T) {
	tests := []struct {
		name    string
		styles  [4]uint8
		maps    int
		want    [4]uint8
		wantErr error
	}{
		{"last style", [4]uint8{0, 63, 255, 255}, 2, [4]uint8{0, 63, 255, 255}, nil},
		{"past the table", [4]uint8{70, 255, 255, 255}, 1, [4]uint8{}, ErrStyleOutOfRange},
		{"second slot past the table", [4]uint8{0, 64, 255, 255}, 2, [4]uint8{}, ErrStyleOutOfRange},
		{"unused slot ignored", [4]uint8{5, 200, 255, 255}, 1, [4]uint8{5, 255, 255, 255}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			face := testFace(0, square(64))
			face.Styles = tt.styles
			for range tt.maps {
				face.Lightmaps = append(face.Lightmaps, make([]byte, 25))
			}
			g, err := BuildBrushGeometry(testSource(face))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			for i, v := range g.Vertices {
				if v.LightmapAnim != tt.want {
					t.Errorf("got vertex %d styles %v, want %v", i, v.LightmapAnim, tt.want)
				}
			}
		})
	}
}

func TestLightmapTexcoord(t *testing.T) {
	tests := []struct {
		name string
		mins [2]float32
		p    common.Vec3
		want [2]float32
	}{
		{"aligned", [2]float32{0, 0}, common.Vec3{32, 16, 0}, [2]float32{32.5 / 64, 16.5 / 64}},
		{"negative mins", [2]float32{-8, 0}, common.Vec3{32, 16, 0}, [2]float32{48.5 / 64, 16.5 / 64}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			face := testFace(0, nil)
			face.TextureMins = tt.mins
			got := LightmapTexcoord(tt.p, &face)
			for i := range 2 {
				if math.Abs(float64(got[i]-tt.want[i])) > 1e-6 {
					t.Errorf("LightmapTexcoord = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestLightmapSize(t *testing.T) {
	if w, h := LightmapSize([2]float32{64, 16}); w != 5 || h != 2 {
		t.Errorf("LightmapSize = %dx%d, want 5x2", w, h)
	}
}
