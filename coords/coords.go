// Package coords implements the 2D affine transforms used when mapping
// PDF page space onto HTML viewport space.
package coords

import (
	"errors"
	"math"
)

// Matrix is a 2D affine transform in PDF order: [a b c d e f].
// a and d carry scale, b and c skew, e and f translation.
type Matrix [6]float64

func Identity() Matrix { return Matrix{1, 0, 0, 1, 0, 0} }

func Translate(tx, ty float64) Matrix { return Matrix{1, 0, 0, 1, tx, ty} }

func Scale(sx, sy float64) Matrix { return Matrix{sx, 0, 0, sy, 0, 0} }

// Multiply returns m×o, applying m first.
func (m Matrix) Multiply(o Matrix) Matrix {
	return Matrix{
		m[0]*o[0] + m[1]*o[2],
		m[0]*o[1] + m[1]*o[3],
		m[2]*o[0] + m[3]*o[2],
		m[2]*o[1] + m[3]*o[3],
		m[4]*o[0] + m[5]*o[2] + o[4],
		m[4]*o[1] + m[5]*o[3] + o[5],
	}
}

type Point struct{ X, Y float64 }

func (m Matrix) Transform(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

func (m Matrix) Inverse() (Matrix, error) {
	det := m[0]*m[3] - m[1]*m[2]
	if math.Abs(det) < 1e-10 {
		return Matrix{}, errors.New("matrix singular")
	}
	return Matrix{
		m[3] / det, -m[1] / det,
		-m[2] / det, m[0] / det,
		(m[2]*m[5] - m[3]*m[4]) / det,
		(m[1]*m[4] - m[0]*m[5]) / det,
	}, nil
}

// FontSize reports the absolute font-size magnitude encoded in the
// transform's horizontal scale component.
func (m Matrix) FontSize() float64 { return math.Abs(m[0]) }

// Origin returns the translation components, the baseline origin of a
// text run in page space.
func (m Matrix) Origin() Point { return Point{X: m[4], Y: m[5]} }

// FlipY converts a page-space Y coordinate (origin bottom-left, Y up)
// into a top-left-origin coordinate within a viewport of the given
// height. This is the single place the axis flip happens.
func FlipY(viewportHeight, y float64) float64 { return viewportHeight - y }
