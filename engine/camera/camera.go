package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-quake/common"
)

// cameraImpl is the implementation of the Camera interface.
type cameraImpl struct {
	mu *sync.Mutex

	fov    float32 // degrees, vertical
	aspect float32
	near   float32
	far    float32

	controller CameraController

	viewMatrix       common.Mat4
	projectionMatrix common.Mat4
	transform        common.Mat4
	frustum          common.Frustum
}

// Camera turns a simulation-space viewpoint into the render-space view-projection matrix.
// Position and orientation are owned by the attached CameraController; the camera only holds
// the projection parameters and the derived matrices.
type Camera interface {
	// Origin returns the eye position in simulation space.
	//
	// Returns:
	//   - common.Vec3: the camera origin
	Origin() common.Vec3

	// Angles returns the view angles in degrees as pitch, yaw, roll.
	//
	// Returns:
	//   - [3]float32: the camera angles
	Angles() [3]float32

	// Fov returns the vertical field of view in degrees.
	//
	// Returns:
	//   - float32: the field of view
	Fov() float32

	// Aspect returns the viewport aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clip distance.
	//
	// Returns:
	//   - float32: the near plane distance
	Near() float32

	// Far returns the far clip distance.
	//
	// Returns:
	//   - float32: the far plane distance
	Far() float32

	// SetFov sets the vertical field of view in degrees.
	//
	// Parameters:
	//   - fov: the field of view
	SetFov(fov float32)

	// SetAspect sets the viewport aspect ratio.
	//
	// Parameters:
	//   - aspect: width divided by height
	SetAspect(aspect float32)

	// SetViewport sets the aspect ratio from a framebuffer size. A zero height is ignored.
	//
	// Parameters:
	//   - width: the framebuffer width in pixels
	//   - height: the framebuffer height in pixels
	SetViewport(width, height int)

	// ViewMatrix returns the world-to-view matrix: rotation(pitch, -yaw, -roll) * translate(-origin).
	//
	// Returns:
	//   - common.Mat4: the view matrix
	ViewMatrix() common.Mat4

	// ProjectionMatrix returns the perspective projection.
	//
	// Returns:
	//   - common.Mat4: the projection matrix
	ProjectionMatrix() common.Mat4

	// Transform returns projection * view, the matrix every world draw and the resolve pass use.
	//
	// Returns:
	//   - common.Mat4: the view-projection matrix
	Transform() common.Mat4

	// Frustum returns the render-space view frustum extracted from Transform.
	//
	// Returns:
	//   - *common.Frustum: the frustum
	Frustum() *common.Frustum

	// Controller returns the controller that owns the camera's position and angles.
	//
	// Returns:
	//   - CameraController: the attached controller
	Controller() CameraController

	// SetController replaces the attached controller.
	//
	// Parameters:
	//   - ctrl: the new controller; nil is ignored
	SetController(ctrl CameraController)

	// Update recomputes every matrix from the controller's current state.
	// Call once per frame before reading Transform.
	Update()
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera. When no controller is supplied a default controller
// at the origin is attached.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		fov:    90,
		aspect: 4.0 / 3.0,
		near:   4,
		far:    4096,
	}
	for _, option := range options {
		option(c)
	}
	if c.controller == nil {
		c.controller = NewCameraController()
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Origin() common.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller.Origin()
}

func (c *cameraImpl) Angles() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller.Angles()
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetViewport(width, height int) {
	if height <= 0 || width <= 0 {
		return
	}
	c.SetAspect(float32(width) / float32(height))
}

func (c *cameraImpl) ViewMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) Transform() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transform
}

func (c *cameraImpl) Frustum() *common.Frustum {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.frustum
	return &f
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	if ctrl == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.updateMatrices()
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateMatrices()
}

// updateMatrices recalculates the view, projection and combined matrices plus the frustum.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	origin := common.SimToRender(c.controller.Origin())
	angles := c.controller.Angles()

	rotation := common.CameraRotation(angles[0], angles[1], angles[2])
	c.viewMatrix = common.Mul4(rotation, common.Translate(-origin[0], -origin[1], -origin[2]))
	c.projectionMatrix = common.Perspective(common.Radians(c.fov), c.aspect, c.near, c.far)
	c.transform = common.Mul4(c.projectionMatrix, c.viewMatrix)
	c.frustum = common.ExtractFrustum(c.transform)
}
