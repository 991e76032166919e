package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 represents a 3D vector or an RGB color
type Vec3 struct {
	X, Y, Z float64
}

// NewVec3 creates a new Vec3
func NewVec3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Splat returns a vector with all components set to s
func Splat(s float64) Vec3 {
	return Vec3{s, s, s}
}

// FromMgl converts a mathgl vector
func FromMgl(v mgl64.Vec3) Vec3 {
	return Vec3{v[0], v[1], v[2]}
}

// Mgl converts the vector to its mathgl form
func (v Vec3) Mgl() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// Add returns the sum of two vectors
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Subtract returns the difference of two vectors
func (v Vec3) Subtract(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Multiply returns the vector scaled by a scalar
func (v Vec3) Multiply(scalar float64) Vec3 {
	return Vec3{v.X * scalar, v.Y * scalar, v.Z * scalar}
}

// MultiplyVec returns component-wise multiplication of two vectors
func (v Vec3) MultiplyVec(other Vec3) Vec3 {
	return Vec3{v.X * other.X, v.Y * other.Y, v.Z * other.Z}
}

// Length returns the magnitude of the vector
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// LengthSquared returns the squared magnitude of the vector
func (v Vec3) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Dot returns the dot product of two vectors
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the cross product of two vectors
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// Normalize returns a unit vector in the same direction
func (v Vec3) Normalize() Vec3 {
	length := v.Length()
	if length == 0 {
		return Vec3{0, 0, 0}
	}
	return Vec3{v.X / length, v.Y / length, v.Z / length}
}

// Negate returns the negative of the vector
func (v Vec3) Negate() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

// Clamp returns a vector with components clamped to [min, max]
func (v Vec3) Clamp(minVal, maxVal float64) Vec3 {
	return Vec3{
		X: max(minVal, min(maxVal, v.X)),
		Y: max(minVal, min(maxVal, v.Y)),
		Z: max(minVal, min(maxVal, v.Z)),
	}
}

// Exp returns the component-wise natural exponential
func (v Vec3) Exp() Vec3 {
	return Vec3{math.Exp(v.X), math.Exp(v.Y), math.Exp(v.Z)}
}

// Pow raises each component to p
func (v Vec3) Pow(p float64) Vec3 {
	return Vec3{math.Pow(v.X, p), math.Pow(v.Y, p), math.Pow(v.Z, p)}
}

// Reciprocal returns 1/v component-wise
func (v Vec3) Reciprocal() Vec3 {
	return Vec3{1 / v.X, 1 / v.Y, 1 / v.Z}
}

// Luminance returns the Rec. 709 relative luminance of a linear RGB colour
func (v Vec3) Luminance() float64 {
	return 0.2126*v.X + 0.7152*v.Y + 0.0722*v.Z
}

// Lerp linearly interpolates between v and other
func (v Vec3) Lerp(other Vec3, t float64) Vec3 {
	return v.Add(other.Subtract(v).Multiply(t))
}

// ApproxEqual reports whether each component differs by at most eps
func (v Vec3) ApproxEqual(other Vec3, eps float64) bool {
	return math.Abs(v.X-other.X) <= eps &&
		math.Abs(v.Y-other.Y) <= eps &&
		math.Abs(v.Z-other.Z) <= eps
}

// Vec2 is a 2D vector, used for texture coordinates
type Vec2 struct {
	X, Y float64
}

// NewVec2 creates a new Vec2
func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Lerp linearly interpolates between v and other
func (v Vec2) Lerp(other Vec2, t float64) Vec2 {
	return Vec2{v.X + (other.X-v.X)*t, v.Y + (other.Y-v.Y)*t}
}

// Ray represents a ray with an origin and direction
type Ray struct {
	Origin    Vec3
	Direction Vec3
}

// NewRay creates a new ray
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction}
}

// At returns the point at parameter t along the ray
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Multiply(t))
}

// IntersectSphere returns the near and far ray parameters where the ray meets a
// sphere of the given radius centered at the origin. The direction must be
// unit length. ok is false when the ray misses.
func (r Ray) IntersectSphere(radius float64) (near, far float64, ok bool) {
	b := 2.0 * r.Direction.Dot(r.Origin)
	c := r.Origin.LengthSquared() - radius*radius
	det := b*b - 4.0*c
	if det < 0 {
		return 0, 0, false
	}
	sq := math.Sqrt(det)
	return 0.5 * (-b - sq), 0.5 * (-b + sq), true
}
