package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-quake/common"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/uniform"
)

// VertexRange is the span of one pose in the model vertex buffer.
type VertexRange struct {
	First uint32
	Count uint32
}

// BuildVertices expands every pose into a non-indexed triangle list of GPU vertices, poses
// back to back in Pose index order. Positions are converted to render space. Each triangle
// carries its flat face normal.
//
// Parameters:
//   - m: the model to expand
//
// Returns:
//   - []uniform.AliasVertex: the vertices of every pose
//   - []VertexRange: the span of each pose, indexed like Model.Pose
//   - error: an error if a triangle references a missing vertex or texcoord
func BuildVertices(m Model) ([]uniform.AliasVertex, []VertexRange, error) {
	w, h := m.SkinSize()
	if w == 0 || h == 0 {
		return nil, nil, fmt.Errorf("model %s: empty skin size %dx%d", m.Name(), w, h)
	}
	texcoords := m.Texcoords()
	tris := m.Triangles()

	verts := make([]uniform.AliasVertex, 0, m.PoseCount()*len(tris)*3)
	ranges := make([]VertexRange, 0, m.PoseCount())
	for _, k := range m.Keyframes() {
		for pi, pose := range k.Poses {
			first := uint32(len(verts))
			for ti, tri := range tris {
				var pos [3]common.Vec3
				for c, idx := range tri.Indices {
					if int(idx) >= len(pose.Vertices) || int(idx) >= len(texcoords) {
						return nil, nil, fmt.Errorf("model %s: keyframe %s pose %d triangle %d: vertex %d out of range", m.Name(), k.Name, pi, ti, idx)
					}
					pos[c] = common.SimToRender(pose.Vertices[idx])
				}
				normal := common.Normalize(common.Cross(common.Sub(pos[0], pos[1]), common.Sub(pos[2], pos[1])))
				for c, idx := range tri.Indices {
					verts = append(verts, uniform.AliasVertex{
						Position:        pos[c],
						Normal:          normal,
						DiffuseTexcoord: SkinTexcoord(texcoords[idx], tri.FacesFront, w, h),
					})
				}
			}
			ranges = append(ranges, VertexRange{First: first, Count: uint32(len(verts)) - first})
		}
	}
	return verts, ranges, nil
}

// SkinTexcoord converts a texel coordinate into a normalized texture coordinate, sampling
// texel centers. Seam vertices of back-facing triangles move to the back half of the skin.
//
// Parameters:
//   - tc: the texel coordinate
//   - facesFront: whether the owning triangle faces front
//   - width: the skin width
//   - height: the skin height
//
// Returns:
//   - [2]float32: the normalized coordinate
func SkinTexcoord(tc Texcoord, facesFront bool, width, height uint32) [2]float32 {
	s := tc.S
	if !facesFront && tc.OnSeam {
		s += int32(width / 2)
	}
	return [2]float32{
		(float32(s) + 0.5) / float32(width),
		(float32(tc.T) + 0.5) / float32(height),
	}
}
