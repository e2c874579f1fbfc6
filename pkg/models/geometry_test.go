package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectangleContains(t *testing.T) {
	r := NewRectangle(0, 0, 100, 100)
	assert.True(t, r.Contains(Point{X: 0, Y: 0}))
	assert.True(t, r.Contains(Point{X: 99, Y: 99}))
	assert.False(t, r.Contains(Point{X: 100, Y: 100}))
	assert.False(t, r.Contains(Point{X: -1, Y: 50}))
}

func TestRectangleCenter(t *testing.T) {
	r := NewRectangle(0, 0, 100, 200)
	assert.Equal(t, Point{X: 50, Y: 100}, r.Center())
}

func TestRectangleInsetShrinksEvenly(t *testing.T) {
	r := NewRectangle(0, 0, 100, 100)
	got := r.Inset(10)
	assert.Equal(t, NewRectangle(10, 10, 80, 80), got)
}

func TestRectangleInsetClampsAtZero(t *testing.T) {
	r := NewRectangle(0, 0, 10, 10)
	got := r.Inset(20)
	assert.Equal(t, 0.0, got.Width)
	assert.Equal(t, 0.0, got.Height)
}

func TestRectangleApproxEqualWithinTolerance(t *testing.T) {
	a := NewRectangle(0, 0, 100, 100)
	b := NewRectangle(0.5, -0.5, 100.5, 99.6)
	assert.True(t, a.ApproxEqual(b, 1.0))
	assert.False(t, a.ApproxEqual(b, 0.1))
}
