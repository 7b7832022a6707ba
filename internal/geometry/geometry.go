// Package geometry holds the planar math used to flatten layouts and measure
// traces: points, affine placement transforms and polyline measurements.
package geometry

import (
	"math"
)

// Point is a position in user units.
type Point struct {
	X float64
	Y float64
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

func (p Point) Scale(f float64) Point { return Point{p.X * f, p.Y * f} }

// Norm returns the Euclidean length of p as a vector.
func (p Point) Norm() float64 { return math.Hypot(p.X, p.Y) }

// Dist returns the distance between p and q.
func (p Point) Dist(q Point) float64 { return p.Sub(q).Norm() }

func dot(a, b Point) float64 { return a.X*b.X + a.Y*b.Y }

func cross(a, b Point) float64 { return a.X*b.Y - a.Y*b.X }

// Transform is an affine map p -> M*p + T.
type Transform struct {
	a, b, c, d float64
	tx, ty     float64
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{a: 1, d: 1}
}

// Scaling returns a uniform scaling about the origin.
func Scaling(f float64) Transform {
	return Transform{a: f, d: f}
}

// Placement builds the transform of a placed cell: reflect about the x axis
// (if reflect), magnify, rotate counterclockwise by angle degrees, then move
// to origin.
func Placement(origin Point, angle, mag float64, reflect bool) Transform {
	if mag == 0 {
		mag = 1
	}
	f := 1.0
	if reflect {
		f = -1
	}
	sin, cos := math.Sincos(angle * math.Pi / 180)
	// Snap the common Manhattan angles so 90 degree rotations stay exact.
	sin, cos = snapUnit(sin), snapUnit(cos)
	return Transform{
		a: mag * cos, b: -mag * f * sin,
		c: mag * sin, d: mag * f * cos,
		tx: origin.X, ty: origin.Y,
	}
}

func snapUnit(v float64) float64 {
	for _, u := range []float64{-1, 0, 1} {
		if math.Abs(v-u) < 1e-12 {
			return u
		}
	}
	return v
}

// Apply maps p through t.
func (t Transform) Apply(p Point) Point {
	return Point{
		X: t.a*p.X + t.b*p.Y + t.tx,
		Y: t.c*p.X + t.d*p.Y + t.ty,
	}
}

// ApplyVector maps v through the linear part of t only.
func (t Transform) ApplyVector(v Point) Point {
	return Point{
		X: t.a*v.X + t.b*v.Y,
		Y: t.c*v.X + t.d*v.Y,
	}
}

// Then returns the transform that applies t first and outer second.
func (t Transform) Then(outer Transform) Transform {
	return Transform{
		a:  outer.a*t.a + outer.b*t.c,
		b:  outer.a*t.b + outer.b*t.d,
		c:  outer.c*t.a + outer.d*t.c,
		d:  outer.c*t.b + outer.d*t.d,
		tx: outer.a*t.tx + outer.b*t.ty + outer.tx,
		ty: outer.c*t.tx + outer.d*t.ty + outer.ty,
	}
}

// ApplyAll maps every point of pts through t.
func (t Transform) ApplyAll(pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = t.Apply(p)
	}
	return out
}
