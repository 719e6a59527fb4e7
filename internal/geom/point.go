// Package geom holds the small amount of 3D geometry the egress graph needs:
// points, bounded line segments with projection, and room outlines.
package geom

import "math"

// Point is a location in model space. Units are feet throughout.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Pt is shorthand for a Point literal.
func Pt(x, y, z float64) Point { return Point{X: x, Y: y, Z: z} }

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y, p.Z + q.Z} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y, p.Z - q.Z} }

// Scale multiplies every coordinate by s.
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s, p.Z * s} }

// Dot is the dot product of p and q as vectors.
func (p Point) Dot(q Point) float64 { return p.X*q.X + p.Y*q.Y + p.Z*q.Z }

// Length is the Euclidean norm of p as a vector.
func (p Point) Length() float64 { return math.Sqrt(p.Dot(p)) }

// DistanceTo is the straight-line distance between p and q.
func (p Point) DistanceTo(q Point) float64 { return p.Sub(q).Length() }

// AlmostEqual reports whether p and q are closer than tol.
func (p Point) AlmostEqual(q Point, tol float64) bool {
	return p.DistanceTo(q) < tol
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min Point `json:"min" yaml:"min"`
	Max Point `json:"max" yaml:"max"`
}

// Center returns the XY centre of the box at the box's minimum elevation.
func (b Box) Center() Point {
	return Point{
		X: (b.Min.X + b.Max.X) / 2.0,
		Y: (b.Min.Y + b.Max.Y) / 2.0,
		Z: b.Min.Z,
	}
}
