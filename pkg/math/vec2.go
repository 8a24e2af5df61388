// Package math provides the 2D vector and rectangle types used by the scene graph.
package math

import "math"

// Vec2 is a 2D vector in pixels.
type Vec2 struct {
	X, Y float32
}

// NewVec2 converts float64 coordinates as decoded from map files.
func NewVec2(x, y float64) Vec2 {
	return Vec2{float32(x), float32(y)}
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// Scale returns v * scalar.
func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// IsZero reports whether both components are zero.
func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Vec2i is an integer 2D vector, used for grid and atlas coordinates.
type Vec2i struct {
	X, Y int
}

// Add returns v + other.
func (v Vec2i) Add(other Vec2i) Vec2i {
	return Vec2i{v.X + other.X, v.Y + other.Y}
}

// Mul returns the component-wise product.
func (v Vec2i) Mul(other Vec2i) Vec2i {
	return Vec2i{v.X * other.X, v.Y * other.Y}
}

// Vec2 converts to a float vector.
func (v Vec2i) Vec2() Vec2 {
	return Vec2{float32(v.X), float32(v.Y)}
}

// GridCoords maps a row-major linear index onto a grid with the given width.
func GridCoords(index, width int) Vec2i {
	if width <= 0 {
		return Vec2i{}
	}
	return Vec2i{index % width, index / width}
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float32 {
	return float32(deg * math.Pi / 180)
}
