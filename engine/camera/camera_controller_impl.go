package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-quake/common"
)

// cameraControllerImpl is the single implementation of CameraController.
type cameraControllerImpl struct {
	mu *sync.Mutex

	origin common.Vec3
	angles [3]float32 // pitch, yaw, roll in degrees

	pitchLimit       float32
	moveSpeed        float32
	mouseSensitivity float32
}

// Compile-time interface compliance check
var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a new first-person controller at the origin looking down +X.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:               &sync.Mutex{},
		pitchLimit:       89,
		moveSpeed:        320,
		mouseSensitivity: 0.022 * 3,
	}

	for _, option := range options {
		option(cc)
	}

	cc.normalizeAngles()
	return cc
}

// normalizeAngles clamps pitch and wraps yaw into [0, 360).
// Caller must hold the mutex (or own cc exclusively).
func (cc *cameraControllerImpl) normalizeAngles() {
	cc.angles[0] = common.Clamp(cc.angles[0], -cc.pitchLimit, cc.pitchLimit)
	yaw := float32(math.Mod(float64(cc.angles[1]), 360))
	if yaw < 0 {
		yaw += 360
	}
	cc.angles[1] = yaw
}

// vectors computes the basis for the current angles.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) vectors() (forward, right, up common.Vec3) {
	sp, cp := sincos(common.Radians(cc.angles[0]))
	sy, cy := sincos(common.Radians(cc.angles[1]))
	sr, cr := sincos(common.Radians(cc.angles[2]))

	forward = common.Vec3{cp * cy, cp * sy, -sp}
	right = common.Vec3{
		-sr*sp*cy + cr*sy,
		-sr*sp*sy - cr*cy,
		-sr * cp,
	}
	up = common.Vec3{
		cr*sp*cy + sr*sy,
		cr*sp*sy - sr*cy,
		cr * cp,
	}
	return forward, right, up
}

func sincos(rad float32) (float32, float32) {
	s, c := math.Sincos(float64(rad))
	return float32(s), float32(c)
}

func (cc *cameraControllerImpl) Origin() common.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.origin
}

func (cc *cameraControllerImpl) SetOrigin(origin common.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.origin = origin
}

func (cc *cameraControllerImpl) Angles() [3]float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.angles
}

func (cc *cameraControllerImpl) SetAngles(angles [3]float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.angles = angles
	cc.normalizeAngles()
}

func (cc *cameraControllerImpl) Vectors() (forward, right, up common.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.vectors()
}

func (cc *cameraControllerImpl) MoveForward(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	forward, _, _ := cc.vectors()
	cc.origin = common.Add(cc.origin, common.Mul(forward, delta*cc.moveSpeed))
}

func (cc *cameraControllerImpl) MoveRight(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	_, right, _ := cc.vectors()
	cc.origin = common.Add(cc.origin, common.Mul(right, delta*cc.moveSpeed))
}

func (cc *cameraControllerImpl) MoveUp(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.origin[2] += delta * cc.moveSpeed
}

func (cc *cameraControllerImpl) Look(dx, dy float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.angles[1] -= dx * cc.mouseSensitivity
	cc.angles[0] += dy * cc.mouseSensitivity
	cc.normalizeAngles()
}

func (cc *cameraControllerImpl) MoveSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.moveSpeed
}

func (cc *cameraControllerImpl) MouseSensitivity() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.mouseSensitivity
}
