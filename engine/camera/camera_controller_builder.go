package camera

import "github.com/Carmen-Shannon/oxy-quake/common"

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithOrigin sets the initial eye position.
//
// Parameters:
//   - origin: simulation-space position
//
// Returns:
//   - CameraControllerOption: functional option to set the origin
func WithOrigin(origin common.Vec3) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.origin = origin
	}
}

// WithAngles sets the initial pitch, yaw and roll in degrees.
//
// Parameters:
//   - angles: the view angles
//
// Returns:
//   - CameraControllerOption: functional option to set the angles
func WithAngles(angles [3]float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.angles = angles
	}
}

// WithPitchLimit bounds pitch to [-limit, limit] degrees.
//
// Parameters:
//   - limit: maximum absolute pitch
//
// Returns:
//   - CameraControllerOption: functional option to set the pitch limit
func WithPitchLimit(limit float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.pitchLimit = limit
	}
}

// WithMoveSpeed sets the movement multiplier.
//
// Parameters:
//   - speed: units per unit of delta
//
// Returns:
//   - CameraControllerOption: functional option to set move speed
func WithMoveSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.moveSpeed = speed
	}
}

// WithMouseSensitivity sets the mouse look sensitivity.
//
// Parameters:
//   - sensitivity: degrees per unit of mouse movement
//
// Returns:
//   - CameraControllerOption: functional option to set mouse sensitivity
func WithMouseSensitivity(sensitivity float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.mouseSensitivity = sensitivity
	}
}
