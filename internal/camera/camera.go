package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const maxPitch = 89.0

var worldUp = mgl32.Vec3{0, 1, 0}

// Movement is the set of directions requested for one frame.
type Movement struct {
	Forward, Backward bool
	Left, Right       bool
	Up, Down          bool
}

// Camera is a free-flying first-person camera. Angles are in degrees; yaw -90
// looks down -Z.
type Camera struct {
	Position mgl32.Vec3

	yaw, pitch float32
	front      mgl32.Vec3

	Speed       float32 // units per Move call
	Sensitivity float32 // degrees per cursor pixel

	FOV       float32 // vertical, degrees
	Near, Far float32
	aspect    float32
}

// New creates a camera at pos looking along yaw/pitch.
func New(pos mgl32.Vec3, yaw, pitch float32) *Camera {
	c := &Camera{
		Position:    pos,
		Speed:       0.2,
		Sensitivity: 0.1,
		FOV:         45,
		Near:        0.1,
		Far:         1000,
		aspect:      4.0 / 3.0,
	}
	c.SetAngles(yaw, pitch)
	return c
}

// SetAngles sets yaw and pitch. Pitch is clamped to ±89 degrees.
func (c *Camera) SetAngles(yaw, pitch float32) {
	c.yaw = yaw
	c.pitch = mgl32.Clamp(pitch, -maxPitch, maxPitch)
	y := float64(mgl32.DegToRad(c.yaw))
	p := float64(mgl32.DegToRad(c.pitch))
	c.front = mgl32.Vec3{
		float32(math.Cos(y) * math.Cos(p)),
		float32(math.Sin(p)),
		float32(math.Sin(y) * math.Cos(p)),
	}.Normalize()
}

// Yaw returns the heading in degrees.
func (c *Camera) Yaw() float32 { return c.yaw }

// Pitch returns the elevation in degrees.
func (c *Camera) Pitch() float32 { return c.pitch }

// Front returns the unit view direction.
func (c *Camera) Front() mgl32.Vec3 { return c.front }

// Look turns the camera by a cursor delta in pixels. Moving the cursor down
// (positive dy) looks down.
func (c *Camera) Look(dx, dy float64) {
	c.SetAngles(c.yaw+float32(dx)*c.Sensitivity, c.pitch-float32(dy)*c.Sensitivity)
}

// Move flies the camera. Forward follows the view direction including pitch;
// up and down follow the world axis.
func (c *Camera) Move(m Movement) {
	right := c.front.Cross(worldUp).Normalize()
	var d mgl32.Vec3
	if m.Forward {
		d = d.Add(c.front)
	}
	if m.Backward {
		d = d.Sub(c.front)
	}
	if m.Right {
		d = d.Add(right)
	}
	if m.Left {
		d = d.Sub(right)
	}
	if m.Up {
		d = d.Add(worldUp)
	}
	if m.Down {
		d = d.Sub(worldUp)
	}
	c.Position = c.Position.Add(d.Mul(c.Speed))
}

// SetViewport updates the aspect ratio. Zero sizes (a minimised window) are ignored.
func (c *Camera) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.aspect = float32(width) / float32(height)
}

// View returns the world-to-camera matrix.
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.front), worldUp)
}

// Projection returns the perspective matrix.
func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.aspect, c.Near, c.Far)
}

// SkyView returns View with the translation removed, for drawing the skybox.
func (c *Camera) SkyView() mgl32.Mat4 {
	return c.View().Mat3().Mat4()
}
