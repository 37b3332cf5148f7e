package common

import (
	"math"
)

// Mat4 is a 4x4 matrix stored in column-major order (WebGPU convention).
// Element (row r, column c) lives at index c*4 + r.
type Mat4 [16]float32

// Vec3 is a three component vector used for positions, directions, and normals.
type Vec3 [3]float32

// Identity returns the 4x4 identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mul4 multiplies two 4x4 matrices: out = a * b.
//
// Parameters:
//   - a: left-hand matrix
//   - b: right-hand matrix
//
// Returns:
//   - Mat4: the product a * b
func Mul4(a, b Mat4) Mat4 {
	var out Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			out[col*4+row] = sum
		}
	}
	return out
}

// MulVec4 transforms a homogeneous vector by m.
func MulVec4(m Mat4, v [4]float32) [4]float32 {
	var out [4]float32
	for row := 0; row < 4; row++ {
		out[row] = m[row]*v[0] + m[4+row]*v[1] + m[8+row]*v[2] + m[12+row]*v[3]
	}
	return out
}

// Perspective creates a right-handed perspective projection that maps view-space depth
// into the WebGPU clip range [0, 1].
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - Mat4: the projection matrix
func Perspective(fovY, aspect, near, far float32) Mat4 {
	f := 1.0 / float32(math.Tan(float64(fovY)/2.0))
	var out Mat4
	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	return out
}

// Translate returns a translation matrix.
func Translate(x, y, z float32) Mat4 {
	m := Identity()
	m[12], m[13], m[14] = x, y, z
	return m
}

// Scale returns a non-uniform scale matrix.
func Scale(x, y, z float32) Mat4 {
	m := Identity()
	m[0], m[5], m[10] = x, y, z
	return m
}

// RotateX returns a rotation of angle radians about the X axis.
func RotateX(angle float32) Mat4 {
	s, c := sincos(angle)
	m := Identity()
	m[5], m[6] = c, s
	m[9], m[10] = -s, c
	return m
}

// RotateY returns a rotation of angle radians about the Y axis.
func RotateY(angle float32) Mat4 {
	s, c := sincos(angle)
	m := Identity()
	m[0], m[2] = c, -s
	m[8], m[10] = s, c
	return m
}

// RotateZ returns a rotation of angle radians about the Z axis.
func RotateZ(angle float32) Mat4 {
	s, c := sincos(angle)
	m := Identity()
	m[0], m[1] = c, s
	m[4], m[5] = -s, c
	return m
}

// Invert4 computes the inverse of a 4x4 column-major matrix using cofactor expansion.
// If the matrix is singular the zero matrix is returned along with false.
//
// Parameters:
//   - m: source matrix
//
// Returns:
//   - Mat4: the inverse of m
//   - bool: true if the matrix was invertible
func Invert4(m Mat4) (Mat4, bool) {
	s0 := m[0]*m[5] - m[4]*m[1]
	s1 := m[0]*m[6] - m[4]*m[2]
	s2 := m[0]*m[7] - m[4]*m[3]
	s3 := m[1]*m[6] - m[5]*m[2]
	s4 := m[1]*m[7] - m[5]*m[3]
	s5 := m[2]*m[7] - m[6]*m[3]

	c5 := m[10]*m[15] - m[14]*m[11]
	c4 := m[9]*m[15] - m[13]*m[11]
	c3 := m[9]*m[14] - m[13]*m[10]
	c2 := m[8]*m[15] - m[12]*m[11]
	c1 := m[8]*m[14] - m[12]*m[10]
	c0 := m[8]*m[13] - m[12]*m[9]

	det := s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0
	if det == 0 {
		return Mat4{}, false
	}
	inv := 1.0 / det

	return Mat4{
		(m[5]*c5 - m[6]*c4 + m[7]*c3) * inv,
		(-m[1]*c5 + m[2]*c4 - m[3]*c3) * inv,
		(m[13]*s5 - m[14]*s4 + m[15]*s3) * inv,
		(-m[9]*s5 + m[10]*s4 - m[11]*s3) * inv,

		(-m[4]*c5 + m[6]*c2 - m[7]*c1) * inv,
		(m[0]*c5 - m[2]*c2 + m[3]*c1) * inv,
		(-m[12]*s5 + m[14]*s2 - m[15]*s1) * inv,
		(m[8]*s5 - m[10]*s2 + m[11]*s1) * inv,

		(m[4]*c4 - m[5]*c2 + m[7]*c0) * inv,
		(-m[0]*c4 + m[1]*c2 - m[3]*c0) * inv,
		(m[12]*s4 - m[13]*s2 + m[15]*s0) * inv,
		(-m[8]*s4 + m[9]*s2 - m[11]*s0) * inv,

		(-m[4]*c3 + m[5]*c1 - m[6]*c0) * inv,
		(m[0]*c3 - m[1]*c1 + m[2]*c0) * inv,
		(-m[12]*s3 + m[13]*s1 - m[14]*s0) * inv,
		(m[8]*s3 - m[9]*s1 + m[10]*s0) * inv,
	}, true
}

// SimToRender converts a simulation-space vector (x forward, y left, z up) into
// render space (x right, y up, -z forward): (x, y, z) -> (-y, z, -x).
//
// Every position that crosses from the simulation into the renderer goes through
// this function: brush vertices, entity origins, the camera origin, and light origins.
func SimToRender(v Vec3) Vec3 {
	return Vec3{-v[1], v[2], -v[0]}
}

// RenderToSim is the inverse of SimToRender.
func RenderToSim(v Vec3) Vec3 {
	return Vec3{-v[2], -v[0], v[1]}
}

// Radians converts degrees to radians.
func Radians(deg float32) float32 {
	return deg * math.Pi / 180
}

// CameraRotation builds the view rotation for simulation angles given in degrees
// (pitch positive looks down, yaw counter-clockwise about the up axis, roll about forward).
// It is the inverse of EntityRotation for the same angles.
func CameraRotation(pitch, yaw, roll float32) Mat4 {
	return Mul4(RotateZ(-Radians(roll)), Mul4(RotateX(Radians(pitch)), RotateY(-Radians(yaw))))
}

// EntityRotation builds the render-space orientation of an entity from simulation angles in degrees.
func EntityRotation(pitch, yaw, roll float32) Mat4 {
	return Mul4(RotateY(Radians(yaw)), Mul4(RotateX(-Radians(pitch)), RotateZ(Radians(roll))))
}

// Dot returns the dot product of a and b.
func Dot(a, b Vec3) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// Sub returns a - b.
func Sub(a, b Vec3) Vec3 {
	return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// Add returns a + b.
func Add(a, b Vec3) Vec3 {
	return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// Mul returns v scaled by s.
func Mul(v Vec3, s float32) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// Cross returns the cross product a x b.
func Cross(a, b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Length returns the Euclidean length of v.
func Length(v Vec3) float32 {
	return float32(math.Sqrt(float64(Dot(v, v))))
}

// Normalize returns v scaled to unit length. The zero vector is returned unchanged.
func Normalize(v Vec3) Vec3 {
	l := Length(v)
	if l == 0 {
		return v
	}
	return Mul(v, 1/l)
}

func sincos(angle float32) (float32, float32) {
	s, c := math.Sincos(float64(angle))
	return float32(s), float32(c)
}
