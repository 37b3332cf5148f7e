package world

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
)

// ErrDegenerateFace is returned for a face with fewer than three non-collinear vertices.
var ErrDegenerateFace = errors.New("degenerate face")

// ErrStyleOutOfRange is returned for a lightmap style index past the light style table that
// is not the sentinel.
var ErrStyleOutOfRange = errors.New("light style out of range")

// warpSubdivideSize is the grid warp surfaces are cut along so the per-vertex texcoords of
// large water polygons still follow the turbulence.
const warpSubdivideSize = 32

// BrushTextureFrame is the translated pixel data of one animation frame.
type BrushTextureFrame struct {
	Diffuse common.TextureStagingData
	// Fullbright is the R8 fullbright mask. A mask without coverage uses the shared dummy.
	Fullbright common.TextureStagingData
}

// BrushTexture describes one texture referenced by brush faces.
type BrushTexture struct {
	// Name is the texture name. Its prefix selects the surface kind.
	Name string
	// Width and Height are the texture size in texels.
	Width, Height uint32

	// Frames is the primary animation; a static texture has one frame. A texture without
	// frames is drawn with the dummy diffuse checker.
	Frames []BrushTextureFrame
	// Alternate is the animation used by entities whose frame is not zero.
	Alternate []BrushTextureFrame
}

// BrushFace is a convex brush polygon in simulation space.
type BrushFace struct {
	// Vertices are in triangle fan order.
	Vertices []common.Vec3
	// Texture indexes BrushSource.Textures.
	Texture int

	SVector common.Vec3
	SOffset float32
	TVector common.Vec3
	TOffset float32

	// TextureMins is the smallest texture-space coordinate of the face.
	TextureMins [2]float32
	// Extents is the texture-space size of the face.
	Extents [2]float32

	// Styles holds the light style index of each lightmap, terminated by 255.
	Styles [uniform.MaxLightmaps]uint8
	// Lightmaps holds LightmapSize luxels per style. Warp and sky faces have none.
	Lightmaps [][]byte
}

// BrushSource is the input of BuildBrushGeometry.
type BrushSource struct {
	Name     string
	Textures []BrushTexture
	Faces    []BrushFace
}

// FaceGeometry locates one face in the brush vertex buffer.
type FaceGeometry struct {
	First, Count uint32
	Texture      int
	Kind         material.SurfaceKind
	Styles       [uniform.MaxLightmaps]uint8
	Mins, Maxs   common.Vec3
	// LightmapWidth and LightmapHeight are the luxel dimensions of the face lightmaps.
	LightmapWidth, LightmapHeight uint32
}

// TextureChain groups the faces drawn with one texture, so the texture is bound once.
type TextureChain struct {
	Texture int
	Faces   []int
}

// BrushGeometry is the CPU side of a brush model: render-space vertices as a triangle list,
// per-face ranges, and texture chains ordered by texture index.
type BrushGeometry struct {
	Vertices []uniform.WorldVertex
	Faces    []FaceGeometry
	Chains   []TextureChain
}

// LightmapSize returns the luxel dimensions of a face with the given texture extents. There is
// one luxel every 16 texels, plus one for the far edge.
func LightmapSize(extents [2]float32) (uint32, uint32) {
	return uint32(extents[0])/16 + 1, uint32(extents[1])/16 + 1
}

// LightmapTexcoord maps a simulation-space position into the face lightmap, sampling luxel
// centers.
//
// Parameters:
//   - p: the position in simulation space
//   - face: the face that owns the position
//
// Returns:
//   - [2]float32: the normalized lightmap texcoord
func LightmapTexcoord(p common.Vec3, face *BrushFace) [2]float32 {
	s := common.Dot(face.SVector, p) + face.SOffset
	s -= float32(math.Floor(float64(face.TextureMins[0]/16))) * 16
	s += 0.5
	s /= face.Extents[0]

	t := common.Dot(face.TVector, p) + face.TOffset
	t -= float32(math.Floor(float64(face.TextureMins[1]/16))) * 16
	t += 0.5
	t /= face.Extents[1]
	return [2]float32{s, t}
}

// DiffuseTexcoord maps a simulation-space position into a texture of the given size.
func DiffuseTexcoord(p common.Vec3, face *BrushFace, width, height uint32) [2]float32 {
	return [2]float32{
		(common.Dot(face.SVector, p) + face.SOffset) / float32(width),
		(common.Dot(face.TVector, p) + face.TOffset) / float32(height),
	}
}

// BuildBrushGeometry triangulates every face. Regular and sky faces are expanded from a fan
// into a triangle list; warp faces are first subdivided on a 32 unit grid. Positions and
// normals are converted to render space.
//
// Parameters:
//   - src: the brush textures and faces
//
// Returns:
//   - *BrushGeometry: the vertex data, faces and texture chains
//   - error: an error wrapping ErrDegenerateFace or ErrStyleOutOfRange, or for a face referencing a
//     missing texture
func BuildBrushGeometry(src BrushSource) (*BrushGeometry, error) {
	g := &BrushGeometry{}
	chains := map[int][]int{}

	for fi := range src.Faces {
		face := &src.Faces[fi]
		if face.Texture < 0 || face.Texture >= len(src.Textures) {
			return nil, fmt.Errorf("brush %s: face %d: texture %d out of range", src.Name, fi, face.Texture)
		}
		tex := src.Textures[face.Texture]
		kind := material.KindFromName(tex.Name)

		verts := removeCollinear(face.Vertices)
		if len(verts) < 3 {
			return nil, fmt.Errorf("brush %s: face %d: %w", src.Name, fi, ErrDegenerateFace)
		}
		mins, maxs := bounds(verts)

		var tris []common.Vec3
		if kind == material.SurfaceWarp {
			tris = subdivide(verts, nil)
		} else {
			tris = fanToList(verts)
		}

		normal := common.SimToRender(common.Normalize(common.Cross(common.Sub(verts[0], verts[1]), common.Sub(verts[2], verts[1]))))
		styles := material.NormalizeStyles(face.Styles, len(face.Lightmaps))
		for _, style := range styles {
			if style != uniform.StyleSentinel && int(style) >= uniform.LightStyleCount {
				return nil, fmt.Errorf("brush %s: face %d: %w: %d", src.Name, fi, ErrStyleOutOfRange, style)
			}
		}
		first := uint32(len(g.Vertices))
		for _, p := range tris {
			g.Vertices = append(g.Vertices, uniform.WorldVertex{
				Position:         common.SimToRender(p),
				Normal:           normal,
				DiffuseTexcoord:  DiffuseTexcoord(p, face, tex.Width, tex.Height),
				LightmapTexcoord: LightmapTexcoord(p, face),
				LightmapAnim:     styles,
			})
		}

		lw, lh := LightmapSize(face.Extents)
		rmins, rmaxs := bounds([]common.Vec3{common.SimToRender(mins), common.SimToRender(maxs)})
		g.Faces = append(g.Faces, FaceGeometry{
			First:          first,
			Count:          uint32(len(tris)),
			Texture:        face.Texture,
			Kind:           kind,
			Styles:         styles,
			Mins:           rmins,
			Maxs:           rmaxs,
			LightmapWidth:  lw,
			LightmapHeight: lh,
		})
		chains[face.Texture] = append(chains[face.Texture], fi)
	}

	for tex, faces := range chains {
		g.Chains = append(g.Chains, TextureChain{Texture: tex, Faces: faces})
	}
	slices.SortFunc(g.Chains, func(a, b TextureChain) int { return a.Texture - b.Texture })
	return g, nil
}

// fanToList expands a triangle fan into a triangle list: the first vertex stays fixed and
// each further vertex closes a triangle with its predecessor.
func fanToList(verts []common.Vec3) []common.Vec3 {
	out := make([]common.Vec3, 0, (len(verts)-2)*3)
	for i := 2; i < len(verts); i++ {
		out = append(out, verts[0], verts[i-1], verts[i])
	}
	return out
}

func collinear(a, b, c common.Vec3) bool {
	return common.Length(common.Cross(common.Sub(b, a), common.Sub(c, b))) < 1e-4
}

// removeCollinear drops every vertex that lies on the line through its neighbors.
func removeCollinear(verts []common.Vec3) []common.Vec3 {
	n := len(verts)
	if n < 3 {
		return verts
	}
	out := make([]common.Vec3, 0, n)
	for i := range verts {
		prev, next := verts[(i+n-1)%n], verts[(i+1)%n]
		if !collinear(prev, verts[i], next) {
			out = append(out, verts[i])
		}
	}
	return out
}

func bounds(verts []common.Vec3) (mins, maxs common.Vec3) {
	mins = common.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	maxs = common.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for _, v := range verts {
		for c := range 3 {
			mins[c] = min(mins[c], v[c])
			maxs[c] = max(maxs[c], v[c])
		}
	}
	return mins, maxs
}

// subdivide cuts a convex polygon along the first axis whose bounds straddle a grid line by
// more than 8 units on both sides, recursing into both halves. Polygons that need no further
// cuts are appended to out as a triangle list.
func subdivide(verts []common.Vec3, out []common.Vec3) []common.Vec3 {
	mins, maxs := bounds(verts)
	for axis := range 3 {
		mid := warpSubdivideSize * float32(math.Round(float64((mins[axis]+maxs[axis])/2/warpSubdivideSize)))
		if maxs[axis]-mid < 8 || mid-mins[axis] < 8 {
			continue
		}

		var front, back []common.Vec3
		n := len(verts)
		for i, v := range verts {
			next := verts[(i+1)%n]
			d0, d1 := v[axis]-mid, next[axis]-mid
			switch {
			case d0 == 0:
				front = append(front, v)
				back = append(back, v)
				continue
			case d0 > 0:
				front = append(front, v)
			default:
				back = append(back, v)
			}
			if d1 != 0 && (d0 > 0) != (d1 > 0) {
				r := d0 / (d0 - d1)
				cut := common.Add(v, common.Mul(common.Sub(next, v), r))
				front = append(front, cut)
				back = append(back, cut)
			}
		}
		out = subdivide(front, out)
		return subdivide(back, out)
	}
	return append(out, fanToList(verts)...)
}
