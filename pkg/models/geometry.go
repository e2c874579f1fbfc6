// Package models contains the plain data types shared between the tiling
// engine, the platform drivers, and the notifications emitted to external
// UI code.
package models

import "fmt"

// Point is a position in global screen space, the same space monitor frames
// are expressed in. The origin is the top-left corner of that space; y
// grows downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Rectangle is an axis-aligned region of screen space.
type Rectangle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewRectangle is a convenience constructor.
func NewRectangle(x, y, w, h float64) Rectangle {
	return Rectangle{X: x, Y: y, Width: w, Height: h}
}

// Origin returns the rectangle's top-left point.
func (r Rectangle) Origin() Point {
	return Point{X: r.X, Y: r.Y}
}

// Center returns the midpoint of the rectangle.
func (r Rectangle) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains reports whether p lies within the rectangle.
func (r Rectangle) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Inset shrinks the rectangle on all four sides by d, clamping to a
// zero-sized rectangle rather than going negative.
func (r Rectangle) Inset(d float64) Rectangle {
	w := r.Width - 2*d
	h := r.Height - 2*d
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Rectangle{X: r.X + d, Y: r.Y + d, Width: w, Height: h}
}

// ApproxEqual reports whether two rectangles match within tol pixels on
// every edge, tolerating sub-pixel rounding drift through layout math.
func (r Rectangle) ApproxEqual(other Rectangle, tol float64) bool {
	return approxEq(r.X, other.X, tol) &&
		approxEq(r.Y, other.Y, tol) &&
		approxEq(r.Width, other.Width, tol) &&
		approxEq(r.Height, other.Height, tol)
}

func approxEq(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func (r Rectangle) String() string {
	return fmt.Sprintf("(%.1f,%.1f,%.1f,%.1f)", r.X, r.Y, r.Width, r.Height)
}
