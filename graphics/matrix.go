// Package graphics holds the graphics state, the color engine, and the
// display-list builder that painting operators append to.
package graphics

import "math"

// Matrix is a 3x2 affine transform [a b c d tx ty] mapping user space to
// device space: x' = a*x + c*y + tx, y' = b*x + d*y + ty.
type Matrix [6]float64

// Identity returns the identity transform.
func Identity() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// Translation returns a translation transform.
func Translation(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// Scaling returns a scaling transform.
func Scaling(sx, sy float64) Matrix {
	return Matrix{sx, 0, 0, sy, 0, 0}
}

// Rotation returns a rotation by degrees, counterclockwise.
func Rotation(deg float64) Matrix {
	rad := deg * math.Pi / 180
	s, c := math.Sin(rad), math.Cos(rad)
	return Matrix{c, s, -s, c, 0, 0}
}

// Mul returns m applied before n (m then n).
func (m Matrix) Mul(n Matrix) Matrix {
	return Matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

// Apply transforms the point (x, y).
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// ApplyDelta transforms a distance vector, ignoring translation.
func (m Matrix) ApplyDelta(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y, m[1]*x + m[3]*y
}

// Invert returns the inverse transform. ok is false for a singular
// matrix.
func (m Matrix) Invert() (Matrix, bool) {
	det := m[0]*m[3] - m[1]*m[2]
	if det == 0 {
		return Matrix{}, false
	}
	inv := Matrix{
		m[3] / det,
		-m[1] / det,
		-m[2] / det,
		m[0] / det,
	}
	inv[4] = -(m[4]*inv[0] + m[5]*inv[2])
	inv[5] = -(m[4]*inv[1] + m[5]*inv[3])
	return inv, true
}
