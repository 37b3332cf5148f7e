package main

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/world"
)

func TestSurfaceExtents(t *testing.T) {
	tests := []struct {
		name      string
		vertices  []common.Vec3
		wantMins  [2]float32
		wantSize  [2]float32
		wantLumas [2]uint32
	}{
		{
			name:      "grid aligned",
			vertices:  []common.Vec3{{-256, -256, 0}, {-256, 256, 0}, {256, 256, 0}, {256, -256, 0}},
			wantMins:  [2]float32{-256, -256},
			wantSize:  [2]float32{512, 512},
			wantLumas: [2]uint32{33, 33},
		},
		{
			name:      "snapped outwards",
			vertices:  []common.Vec3{{-8, -8, 0}, {-8, 24, 0}, {24, 24, 0}, {24, -8, 0}},
			wantMins:  [2]float32{-16, -32},
			wantSize:  [2]float32{48, 48},
			wantLumas: [2]uint32{4, 4},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := world.BrushFace{Vertices: tt.vertices}
			f.SVector, f.TVector = textureAxes(common.Vec3{0, 0, 1})
			surfaceExtents(&f)
			if f.TextureMins != tt.wantMins || f.Extents != tt.wantSize {
				t.Errorf("got mins %v extents %v, want %v %v", f.TextureMins, f.Extents, tt.wantMins, tt.wantSize)
			}
			w, h := world.LightmapSize(f.Extents)
			if [2]uint32{w, h} != tt.wantLumas {
				t.Errorf("got lightmap %dx%d, want %v", w, h, tt.wantLumas)
			}
		})
	}
}

func TestRoomFacesPointInwards(t *testing.T) {
	center := common.Vec3{0, 0, 96}
	for i, f := range roomFaces() {
		if f.Texture == texWater {
			continue
		}
		normal := common.Cross(common.Sub(f.Vertices[0], f.Vertices[1]), common.Sub(f.Vertices[2], f.Vertices[1]))
		if d := common.Dot(normal, common.Sub(center, f.Vertices[0])); d <= 0 {
			t.Errorf("got face %d facing away from the room center", i)
		}
	}
}

func TestPillarFacesPointOutwards(t *testing.T) {
	center := common.Vec3{0, 0, 48}
	for i, f := range pillarFaces() {
		normal := common.Cross(common.Sub(f.Vertices[0], f.Vertices[1]), common.Sub(f.Vertices[2], f.Vertices[1]))
		if d := common.Dot(normal, common.Sub(center, f.Vertices[0])); d >= 0 {
			t.Errorf("got face %d facing the pillar center", i)
		}
	}
}

func TestRoomLightmaps(t *testing.T) {
	faces := roomFaces()
	ceiling := faces[1]
	if len(ceiling.Lightmaps) != 2 || ceiling.Styles[0] != 0 || ceiling.Styles[1] != 1 || ceiling.Styles[2] != uniform.StyleSentinel {
		t.Errorf("got %d lightmaps with styles %v, want 2 with styles 0 and 1", len(ceiling.Lightmaps), ceiling.Styles)
	}
	w, h := world.LightmapSize(ceiling.Extents)
	if got := len(ceiling.Lightmaps[1]); got != int(w*h) {
		t.Errorf("got %d luxels, want %d", got, w*h)
	}

	water := faces[len(faces)-1]
	if len(water.Lightmaps) != 0 || water.Styles[0] != uniform.StyleSentinel {
		t.Errorf("got water with %d lightmaps, want none", len(water.Lightmaps))
	}
}

func TestRoomBuildsGeometry(t *testing.T) {
	var textures []world.BrushTexture
	for _, src := range roomTextures() {
		textures = append(textures, world.BrushTexture{Name: src.Name, Width: src.Width, Height: src.Height})
	}
	g, err := world.BuildBrushGeometry(world.BrushSource{Name: "demo", Textures: textures, Faces: roomFaces()})
	if err != nil {
		t.Fatalf("got %v, want nil", err)
	}
	if len(g.Faces) != 7 || len(g.Chains) != 3 {
		t.Errorf("got %d faces in %d chains, want 7 in 3", len(g.Faces), len(g.Chains))
	}
}
