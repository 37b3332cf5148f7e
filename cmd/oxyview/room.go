package main

import (
	"math"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/loader"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/world"
)

// Texture slots of the demo level.
const (
	texFloor = iota
	texWall
	texWater
)

const (
	textureSize = 64
	// luxel brightness of the demo lightmaps
	lightBase    = 160
	lightFlicker = 96
)

// rect is a planar quad: corner, corner+v, corner+u+v, corner+u. Its normal is u × v.
type rect struct {
	corner, u, v common.Vec3
	texture      int
	// styles lists the light styles of the face lightmaps; nil for an unlit face.
	styles []uint8
}

// roomTextures returns the palette-indexed textures of the demo level.
func roomTextures() []loader.TextureSource {
	floor := make([]byte, textureSize*textureSize)
	wall := make([]byte, textureSize*textureSize)
	water := make([]byte, textureSize*textureSize)
	for y := range textureSize {
		for x := range textureSize {
			i := y*textureSize + x
			if (x/8+y/8)%2 == 0 {
				floor[i] = 6
			} else {
				floor[i] = 10
			}
			wall[i] = byte(4 + (x+y)%4)
			// a fullbright stripe
			if y >= 30 && y < 34 {
				wall[i] = 251
			}
			water[i] = byte(8 + (x/4)%4)
		}
	}
	return []loader.TextureSource{
		texFloor: {Name: "demo_floor", Width: textureSize, Height: textureSize, Frames: [][]byte{floor}},
		texWall:  {Name: "demo_wall", Width: textureSize, Height: textureSize, Frames: [][]byte{wall}},
		texWater: {Name: "*demo_water", Width: textureSize, Height: textureSize, Frames: [][]byte{water}},
	}
}

// roomFaces returns the faces of a closed box facing inwards, with a water pool on the floor.
// The ceiling carries a second lightmap on style 1.
func roomFaces() []world.BrushFace {
	const w, h = 512, 192
	const half = w / 2
	rects := []rect{
		{corner: common.Vec3{-half, -half, 0}, u: common.Vec3{w, 0, 0}, v: common.Vec3{0, w, 0}, texture: texFloor, styles: []uint8{0}},
		{corner: common.Vec3{-half, -half, h}, u: common.Vec3{0, w, 0}, v: common.Vec3{w, 0, 0}, texture: texFloor, styles: []uint8{0, 1}},
		{corner: common.Vec3{-half, -half, 0}, u: common.Vec3{0, w, 0}, v: common.Vec3{0, 0, h}, texture: texWall, styles: []uint8{0}},
		{corner: common.Vec3{half, -half, 0}, u: common.Vec3{0, 0, h}, v: common.Vec3{0, w, 0}, texture: texWall, styles: []uint8{0}},
		{corner: common.Vec3{-half, -half, 0}, u: common.Vec3{0, 0, h}, v: common.Vec3{w, 0, 0}, texture: texWall, styles: []uint8{0}},
		{corner: common.Vec3{-half, half, 0}, u: common.Vec3{w, 0, 0}, v: common.Vec3{0, 0, h}, texture: texWall, styles: []uint8{0}},
		{corner: common.Vec3{-64, -64, 1}, u: common.Vec3{128, 0, 0}, v: common.Vec3{0, 128, 0}, texture: texWater},
	}
	faces := make([]world.BrushFace, 0, len(rects))
	for _, r := range rects {
		faces = append(faces, r.face())
	}
	return faces
}

// pillarFaces returns a closed box facing outwards, centered on the origin in x and y.
func pillarFaces() []world.BrushFace {
	const s, h = 32, 96
	const half = s / 2
	rects := []rect{
		{corner: common.Vec3{-half, -half, 0}, u: common.Vec3{0, s, 0}, v: common.Vec3{s, 0, 0}, texture: 0, styles: []uint8{0}},
		{corner: common.Vec3{-half, -half, h}, u: common.Vec3{s, 0, 0}, v: common.Vec3{0, s, 0}, texture: 0, styles: []uint8{0}},
		{corner: common.Vec3{-half, -half, 0}, u: common.Vec3{0, 0, h}, v: common.Vec3{0, s, 0}, texture: 0, styles: []uint8{0}},
		{corner: common.Vec3{half, -half, 0}, u: common.Vec3{0, s, 0}, v: common.Vec3{0, 0, h}, texture: 0, styles: []uint8{0}},
		{corner: common.Vec3{-half, -half, 0}, u: common.Vec3{s, 0, 0}, v: common.Vec3{0, 0, h}, texture: 0, styles: []uint8{0}},
		{corner: common.Vec3{-half, half, 0}, u: common.Vec3{0, 0, h}, v: common.Vec3{s, 0, 0}, texture: 0, styles: []uint8{0}},
	}
	faces := make([]world.BrushFace, 0, len(rects))
	for _, r := range rects {
		faces = append(faces, r.face())
	}
	return faces
}

// face converts the rect into a brush face with axis-aligned texture vectors and flat lightmaps.
func (r rect) face() world.BrushFace {
	f := world.BrushFace{
		Vertices: []common.Vec3{
			r.corner,
			common.Add(r.corner, r.v),
			common.Add(common.Add(r.corner, r.u), r.v),
			common.Add(r.corner, r.u),
		},
		Texture: r.texture,
	}
	f.SVector, f.TVector = textureAxes(common.Cross(r.u, r.v))
	surfaceExtents(&f)

	for i := range f.Styles {
		f.Styles[i] = uniform.StyleSentinel
	}
	lw, lh := world.LightmapSize(f.Extents)
	for i, style := range r.styles {
		f.Styles[i] = style
		value := byte(lightBase)
		if i > 0 {
			value = lightFlicker
		}
		lm := make([]byte, lw*lh)
		for j := range lm {
			lm[j] = value
		}
		f.Lightmaps = append(f.Lightmaps, lm)
	}
	return f
}

// textureAxes picks the texture projection from the dominant axis of the normal, as level
// editors do.
func textureAxes(normal common.Vec3) (s, t common.Vec3) {
	ax, ay, az := abs(normal[0]), abs(normal[1]), abs(normal[2])
	switch {
	case az >= ax && az >= ay:
		return common.Vec3{1, 0, 0}, common.Vec3{0, -1, 0}
	case ax >= ay:
		return common.Vec3{0, 1, 0}, common.Vec3{0, 0, -1}
	default:
		return common.Vec3{1, 0, 0}, common.Vec3{0, 0, -1}
	}
}

// surfaceExtents sets the texture-space bounds of f, snapped outwards to the 16 texel luxel grid.
func surfaceExtents(f *world.BrushFace) {
	mins := [2]float64{math.Inf(1), math.Inf(1)}
	maxs := [2]float64{math.Inf(-1), math.Inf(-1)}
	for _, p := range f.Vertices {
		st := [2]float64{
			float64(common.Dot(f.SVector, p) + f.SOffset),
			float64(common.Dot(f.TVector, p) + f.TOffset),
		}
		for i := range st {
			mins[i] = math.Min(mins[i], st[i])
			maxs[i] = math.Max(maxs[i], st[i])
		}
	}
	for i := range mins {
		lo := math.Floor(mins[i] / 16)
		hi := math.Ceil(maxs[i] / 16)
		f.TextureMins[i] = float32(lo * 16)
		f.Extents[i] = float32((hi - lo) * 16)
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
