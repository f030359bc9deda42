package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

const deg = math.Pi / 180

func TestGravityNorm(t *testing.T) {
	assert.InDelta(t, 1, gravityNorm([3]float64{0, 0.6, 0.8}), 1e-12)
}

func TestHeadingOf(t *testing.T) {
	x, z := r3.Vec{X: 1}, r3.Vec{Z: 1}

	assert.InDelta(t, 30, headingOf(x, 30*deg, 0, 0).Float(), 1e-9)
	assert.InDelta(t, 30, headingOf(x, 30*deg, 20*deg, 0).Float(), 1e-9, "pitch keeps X in the vertical plane")
	assert.InDelta(t, -150, headingOf(x, 210*deg, 0, 40*deg).Float(), 1e-9)

	// Mounted with Z forwards and pitched over so Z is horizontal.
	assert.InDelta(t, 0, headingOf(z, 0, 90*deg, 0).Float(), 1e-9)
	assert.InDelta(t, 30, headingOf(z, 30*deg, 90*deg, 0).Float(), 1e-9)
}

func TestAxis(t *testing.T) {
	assert.Equal(t, r3.Vec{Y: 1}, axis("y"))
	assert.Equal(t, r3.Vec{Z: 1}, axis("z"))
	assert.Equal(t, r3.Vec{X: 1}, axis("x"))
}
