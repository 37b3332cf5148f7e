package camera

import "github.com/Carmen-Shannon/oxy-quake/common"

// CameraController owns the camera's simulation-space origin and view angles.
// Movement is first-person: forward and strafe follow the current yaw and pitch, vertical
// movement follows the world up axis.
type CameraController interface {
	// Origin returns the eye position in simulation space.
	//
	// Returns:
	//   - common.Vec3: the origin
	Origin() common.Vec3

	// SetOrigin moves the eye to origin.
	//
	// Parameters:
	//   - origin: the new simulation-space position
	SetOrigin(origin common.Vec3)

	// Angles returns pitch, yaw and roll in degrees.
	//
	// Returns:
	//   - [3]float32: the view angles
	Angles() [3]float32

	// SetAngles sets the view angles. Pitch is clamped to the pitch limit and yaw is wrapped
	// into [0, 360).
	//
	// Parameters:
	//   - angles: pitch, yaw, roll in degrees
	SetAngles(angles [3]float32)

	// Vectors returns the simulation-space forward, right and up unit vectors for the current angles.
	//
	// Returns:
	//   - forward, right, up: the basis vectors
	Vectors() (forward, right, up common.Vec3)

	// MoveForward translates along the view direction. Negative delta moves backwards.
	//
	// Parameters:
	//   - delta: distance scaled by MoveSpeed
	MoveForward(delta float32)

	// MoveRight strafes along the right vector. Negative delta moves left.
	//
	// Parameters:
	//   - delta: distance scaled by MoveSpeed
	MoveRight(delta float32)

	// MoveUp translates along the world up axis.
	//
	// Parameters:
	//   - delta: distance scaled by MoveSpeed
	MoveUp(delta float32)

	// Look turns the view by a mouse delta. Positive dx turns right, positive dy looks down.
	//
	// Parameters:
	//   - dx: horizontal delta scaled by MouseSensitivity
	//   - dy: vertical delta scaled by MouseSensitivity
	Look(dx, dy float32)

	// MoveSpeed returns the movement multiplier in units per delta.
	//
	// Returns:
	//   - float32: the move speed
	MoveSpeed() float32

	// MouseSensitivity returns the degrees turned per unit of mouse delta.
	//
	// Returns:
	//   - float32: the mouse sensitivity
	MouseSensitivity() float32
}
