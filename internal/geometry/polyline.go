package geometry

import (
	"errors"
	"fmt"
	"math"
)

// BendEpsilon is the smallest direction change, in radians, counted as a bend.
const BendEpsilon = 1e-9

// Measurement is the result of measuring a polyline.
type Measurement struct {
	// Length includes bend corrections.
	Length   float64
	Segments int
	Bends    int
}

// TurnAngle returns the direction change at b when walking a -> b -> c, in
// [0, pi]. Degenerate (zero-length) legs give 0.
func TurnAngle(a, b, c Point) float64 {
	in, out := b.Sub(a), c.Sub(b)
	if in.Norm() == 0 || out.Norm() == 0 {
		return 0
	}
	return math.Abs(math.Atan2(cross(in, out), dot(in, out)))
}

// BendCorrection is the length difference between an arc of the given radius
// turning by theta and the two tangent legs it replaces: R*theta - 2R*tan(theta/2).
// A 90 degree bend yields R*(pi/2 - 2). U-turns and zero radii yield 0.
func BendCorrection(theta, radius float64) float64 {
	if radius <= 0 || theta <= BendEpsilon || theta >= math.Pi-BendEpsilon {
		return 0
	}
	return radius*theta - 2*radius*math.Tan(theta/2)
}

// ErrBendTooTight is returned when a bend's arc needs more of a segment than
// the segment has.
var ErrBendTooTight = errors.New("bend radius does not fit between vertices")

// TangentLength is how far an arc of the given radius turning by theta reaches
// along each leg from the corner: R*tan(theta/2). U-turns and zero radii
// yield 0.
func TangentLength(theta, radius float64) float64 {
	if radius <= 0 || theta <= BendEpsilon || theta >= math.Pi-BendEpsilon {
		return 0
	}
	return radius * math.Tan(theta/2)
}

// Measure sums the segment lengths of pts and applies BendCorrection at every
// interior vertex where the direction changes. Every segment must hold the
// tangent lengths of the bends at both of its ends, or Measure fails with
// ErrBendTooTight.
func Measure(pts []Point, bendRadius float64) (Measurement, error) {
	var m Measurement
	if len(pts) < 2 {
		return m, nil
	}
	tangent := make([]float64, len(pts))
	for i := 1; i+1 < len(pts); i++ {
		theta := TurnAngle(pts[i-1], pts[i], pts[i+1])
		if theta <= BendEpsilon {
			continue
		}
		m.Bends++
		m.Length += BendCorrection(theta, bendRadius)
		tangent[i] = TangentLength(theta, bendRadius)
	}
	for i := 1; i < len(pts); i++ {
		seg := pts[i].Dist(pts[i-1])
		if need := tangent[i-1] + tangent[i]; need > seg*(1+1e-9)+1e-12 {
			return Measurement{}, fmt.Errorf("%w: segment (%g, %g)-(%g, %g) is %g long, radius %g needs %g",
				ErrBendTooTight, pts[i-1].X, pts[i-1].Y, pts[i].X, pts[i].Y, seg, bendRadius, need)
		}
		m.Length += seg
		m.Segments++
	}
	return m, nil
}

// RectangleCenterline returns the centerline of a rectangular polygon along
// its long axis. pts may repeat the first vertex at the end. ok is false when
// the polygon is not a rectangle within tol.
func RectangleCenterline(pts []Point, tol float64) (start, end Point, ok bool) {
	if len(pts) == 5 && pts[4].Dist(pts[0]) <= tol {
		pts = pts[:4]
	}
	if len(pts) != 4 {
		return Point{}, Point{}, false
	}
	e0 := pts[1].Sub(pts[0])
	e1 := pts[2].Sub(pts[1])
	l0, l1 := e0.Norm(), e1.Norm()
	if l0 <= tol || l1 <= tol {
		return Point{}, Point{}, false
	}
	// Parallelogram with a right angle.
	if pts[0].Add(pts[2]).Dist(pts[1].Add(pts[3])) > 2*tol {
		return Point{}, Point{}, false
	}
	if math.Abs(dot(e0, e1)) > tol*math.Max(l0, l1) {
		return Point{}, Point{}, false
	}
	mid := func(p, q Point) Point { return p.Add(q).Scale(0.5) }
	if l0 >= l1 {
		return mid(pts[3], pts[0]), mid(pts[1], pts[2]), true
	}
	return mid(pts[0], pts[1]), mid(pts[2], pts[3]), true
}

// Simplify drops repeated vertices and interior vertices where the polyline
// runs straight on, so each remaining segment is one straight piece.
func Simplify(pts []Point) []Point {
	out := make([]Point, 0, len(pts))
	for _, p := range pts {
		if n := len(out); n > 0 && out[n-1].Dist(p) == 0 {
			continue
		}
		for n := len(out); n >= 2; n = len(out) {
			if TurnAngle(out[n-2], out[n-1], p) > BendEpsilon {
				break
			}
			if dot(out[n-1].Sub(out[n-2]), p.Sub(out[n-1])) < 0 {
				break
			}
			out = out[:n-1]
		}
		out = append(out, p)
	}
	return out
}

// Project returns the point of segment a-b closest to p and the fraction of
// the way from a to b at which it lies.
func Project(p, a, b Point) (Point, float64) {
	ab := b.Sub(a)
	l2 := dot(ab, ab)
	if l2 == 0 {
		return a, 0
	}
	f := dot(p.Sub(a), ab) / l2
	f = math.Max(0, math.Min(1, f))
	return a.Add(ab.Scale(f)), f
}
