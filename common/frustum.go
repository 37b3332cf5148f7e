package common

import (
	"math"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   Vec3
	Distance float32
}

// Frustum represents the six planes of a view frustum for culling.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// ExtractFrustum extracts normalized frustum planes from a combined projection * view matrix
// using the Gribb/Hartmann method. The near plane is row 2 alone because WebGPU clip depth
// starts at 0 rather than -w.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: the view-projection matrix (column-major)
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustum(viewProj Mat4) Frustum {
	row := func(r int) [4]float32 {
		return [4]float32{viewProj[r], viewProj[4+r], viewProj[8+r], viewProj[12+r]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	combos := [6][4]float32{}
	for i := 0; i < 4; i++ {
		combos[FrustumLeft][i] = r3[i] + r0[i]
		combos[FrustumRight][i] = r3[i] - r0[i]
		combos[FrustumBottom][i] = r3[i] + r1[i]
		combos[FrustumTop][i] = r3[i] - r1[i]
		combos[FrustumNear][i] = r2[i]
		combos[FrustumFar][i] = r3[i] - r2[i]
	}

	var f Frustum
	for i, c := range combos {
		f.Planes[i] = Plane{Normal: Vec3{c[0], c[1], c[2]}, Distance: c[3]}
		f.normalizePlane(i)
	}
	return f
}

// ContainsPoint reports whether p lies inside (or on) every plane of the frustum.
func (f *Frustum) ContainsPoint(p Vec3) bool {
	return f.ContainsSphere(p, 0)
}

// ContainsSphere reports whether a sphere intersects the frustum. A sphere that
// straddles a plane counts as visible.
func (f *Frustum) ContainsSphere(center Vec3, radius float32) bool {
	for _, pl := range f.Planes {
		if Dot(pl.Normal, center)+pl.Distance < -radius {
			return false
		}
	}
	return true
}

// normalizePlane normalizes a frustum plane so that the normal has unit length.
func (f *Frustum) normalizePlane(index int) {
	p := &f.Planes[index]
	length := float32(math.Sqrt(float64(Dot(p.Normal, p.Normal))))
	if length > 0 {
		inv := 1.0 / length
		p.Normal = Mul(p.Normal, inv)
		p.Distance *= inv
	}
}
