package pathlen

import (
	"math"

	"github.com/torosent/pathlength/internal/geometry"
)

// traceEnd is an open end of a trace and the unit direction pointing away
// from the trace.
type traceEnd struct {
	at  geometry.Point
	out geometry.Point
}

func traceEnds(traces [][]geometry.Point) []traceEnd {
	ends := make([]traceEnd, 0, 2*len(traces))
	for _, tr := range traces {
		pts := geometry.Simplify(tr)
		n := len(pts)
		if n < 2 {
			continue
		}
		ends = append(ends,
			traceEnd{at: pts[0], out: unit(pts[0].Sub(pts[1]))},
			traceEnd{at: pts[n-1], out: unit(pts[n-1].Sub(pts[n-2]))},
		)
	}
	return ends
}

// bridges joins the trace ends that lie within tol of each connector's
// outline. Two ends are joined through the corner where their directions
// meet, so the bend correction of Measure rounds it off like the drawn bend;
// ends whose directions never meet ahead of both are joined straight. Three
// or more ends are joined to the outline's centroid. loose counts connectors
// touching fewer than two ends.
func bridges(traces, connectors [][]geometry.Point, tol float64) (links [][]geometry.Point, loose int) {
	if len(connectors) == 0 {
		return nil, 0
	}
	if tol < minTolerance {
		tol = minTolerance
	}
	ends := traceEnds(traces)

	for _, outline := range connectors {
		var touching []traceEnd
		for _, e := range ends {
			if onOutline(e.at, outline, tol) {
				touching = append(touching, e)
			}
		}
		switch len(touching) {
		case 0, 1:
			loose++
		case 2:
			links = append(links, corner(touching[0], touching[1], tol))
		default:
			c := centroid(outline)
			for _, e := range touching {
				links = append(links, []geometry.Point{e.at, c})
			}
		}
	}
	return links, loose
}

// corner returns the polyline a -> apex -> b where apex is the intersection of
// the two end directions, or a -> b when they do not meet ahead of both ends.
func corner(a, b traceEnd, tol float64) []geometry.Point {
	denom := cross(a.out, b.out)
	if math.Abs(denom) < 1e-12 {
		return []geometry.Point{a.at, b.at}
	}
	d := b.at.Sub(a.at)
	s := cross(d, b.out) / denom
	u := cross(d, a.out) / denom
	if s <= tol || u <= tol {
		return []geometry.Point{a.at, b.at}
	}
	return []geometry.Point{a.at, a.at.Add(a.out.Scale(s)), b.at}
}

func onOutline(p geometry.Point, outline []geometry.Point, tol float64) bool {
	n := len(outline)
	if n < 2 {
		return false
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, q := range outline {
		minX, maxX = math.Min(minX, q.X), math.Max(maxX, q.X)
		minY, maxY = math.Min(minY, q.Y), math.Max(maxY, q.Y)
	}
	if p.X < minX-tol || p.X > maxX+tol || p.Y < minY-tol || p.Y > maxY+tol {
		return false
	}
	for i := range outline {
		a, b := outline[i], outline[(i+1)%n]
		if at, _ := geometry.Project(p, a, b); at.Dist(p) <= tol {
			return true
		}
	}
	return false
}

func centroid(outline []geometry.Point) geometry.Point {
	pts := outline
	if n := len(pts); n > 1 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}
	var sum geometry.Point
	for _, p := range pts {
		sum = sum.Add(p)
	}
	return sum.Scale(1 / float64(len(pts)))
}

func unit(v geometry.Point) geometry.Point {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1 / n)
}

func cross(a, b geometry.Point) float64 {
	return a.X*b.Y - a.Y*b.X
}
