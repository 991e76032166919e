package camera

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-atmosphere/pkg/core"
)

// Key codes follow GLFW so browser and desktop front ends can share them
const (
	KeyA = 65
	KeyD = 68
	KeyE = 69
	KeyQ = 81
	KeyS = 83
	KeyW = 87

	MouseButtonLeft = 0

	maxKeys = 512
)

// Camera is a free-flying camera. WASD moves in the view plane, E and Q move
// up and down, and dragging with the left mouse button turns it.
type Camera struct {
	position    core.Vec3
	orientation mgl64.Quat
	view        mgl64.Mat4

	// Pitch and yaw accumulated since the last view update
	pitch, yaw float64

	speed       float64 // Units per second
	sensitivity float64 // Radians per pixel

	keys         [maxKeys]bool
	mousePressed bool
	resetMouse   bool
	lastX, lastY float64
}

// New creates a camera at position looking down -Z
func New(position core.Vec3, speed, sensitivity float64) *Camera {
	c := &Camera{
		position:    position,
		orientation: mgl64.QuatIdent(),
		speed:       speed,
		sensitivity: sensitivity,
		resetMouse:  true,
	}
	c.updateView()
	return c
}

// NewDefault creates a camera with the reference speed and mouse sensitivity
func NewDefault(position core.Vec3) *Camera {
	return New(position, 5.0, 0.005)
}

// HandleKey records a key press or release. Unknown codes are ignored.
func (c *Camera) HandleKey(key int, pressed bool) {
	if key >= 0 && key < maxKeys {
		c.keys[key] = pressed
	}
}

// HandleMouseButton starts or stops mouse-look
func (c *Camera) HandleMouseButton(button int, pressed bool) {
	if button == MouseButtonLeft && pressed {
		c.mousePressed = true
		return
	}
	c.mousePressed = false
	c.resetMouse = true
}

// HandleCursor turns the camera by the cursor movement while the left button is held
func (c *Camera) HandleCursor(x, y float64) {
	if !c.mousePressed {
		return
	}
	// No jump on the first sample after the button goes down
	if c.resetMouse {
		c.lastX, c.lastY = x, y
		c.resetMouse = false
	}

	c.yaw += (x - c.lastX) * c.sensitivity
	c.pitch += (y - c.lastY) * c.sensitivity
	c.lastX, c.lastY = x, y
}

// Update moves the camera for the held keys and applies pending rotation
func (c *Camera) Update(dt float64) {
	right := core.FromMgl(c.view.Row(0).Vec3())
	up := core.FromMgl(c.view.Row(1).Vec3())
	back := core.FromMgl(c.view.Row(2).Vec3())

	var movement core.Vec3
	if c.keys[KeyW] {
		movement = movement.Subtract(back)
	}
	if c.keys[KeyS] {
		movement = movement.Add(back)
	}
	if c.keys[KeyA] {
		movement = movement.Subtract(right)
	}
	if c.keys[KeyD] {
		movement = movement.Add(right)
	}
	if c.keys[KeyE] {
		movement = movement.Add(up)
	}
	if c.keys[KeyQ] {
		movement = movement.Subtract(up)
	}

	c.position = c.position.Add(movement.Multiply(c.speed * dt))
	c.updateView()
}

// LookAt turns the camera towards target keeping world up where possible
func (c *Camera) LookAt(target core.Vec3) {
	direction := c.position.Subtract(target).Normalize()
	if direction.LengthSquared() == 0 {
		return
	}

	worldUp := core.NewVec3(0, 1, 0)
	right := worldUp.Cross(direction).Normalize()
	if right.LengthSquared() == 0 {
		// Looking straight up or down
		right = core.NewVec3(0, 0, 1).Cross(direction).Normalize()
	}
	up := direction.Cross(right)

	c.view = mgl64.LookAtV(c.position.Mgl(), target.Mgl(), up.Mgl())
	c.orientation = mgl64.Mat4ToQuat(c.view.Mat3().Mat4()).Normalize()
	c.pitch, c.yaw = 0, 0
}

// Orbit places the camera distance away from target along its current
// bearing and looks at target. A camera sitting on target moves to -Z.
func (c *Camera) Orbit(target core.Vec3, distance float64) {
	bearing := c.position.Subtract(target).Normalize()
	if bearing.LengthSquared() == 0 {
		bearing = core.NewVec3(0, 0, -1)
	}
	c.position = target.Add(bearing.Multiply(distance))
	c.LookAt(target)
}

// ViewMatrix returns the world to view transform
func (c *Camera) ViewMatrix() mgl64.Mat4 {
	return c.view
}

// Position returns the camera position in world space
func (c *Camera) Position() core.Vec3 {
	return c.position
}

// SetPosition moves the camera. The view matrix follows on the next Update or LookAt.
func (c *Camera) SetPosition(p core.Vec3) {
	c.position = p
}

// Forward returns the unit viewing direction
func (c *Camera) Forward() core.Vec3 {
	return core.FromMgl(c.view.Row(2).Vec3()).Negate()
}

func (c *Camera) updateView() {
	qPitch := mgl64.QuatRotate(c.pitch, mgl64.Vec3{1, 0, 0})
	qYaw := mgl64.QuatRotate(c.yaw, mgl64.Vec3{0, 1, 0})
	c.pitch, c.yaw = 0, 0

	c.orientation = qPitch.Mul(qYaw).Mul(c.orientation).Normalize()
	c.view = c.orientation.Mat4().Mul4(mgl64.Translate3D(-c.position.X, -c.position.Y, -c.position.Z))
}
