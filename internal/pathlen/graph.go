package pathlen

import (
	"container/heap"
	"math"

	"github.com/torosent/pathlength/internal/geometry"
)

type edge struct {
	to     int
	weight float64
}

type cell struct{ x, y int64 }

// graph connects trace vertices. Vertices closer than tol are merged.
type graph struct {
	tol   float64
	nodes []geometry.Point
	adj   [][]edge
	grid  map[cell][]int
}

// minTolerance keeps grid cells finite when no tolerance is given.
const minTolerance = 1e-9

func newGraph(tol float64) *graph {
	if tol < minTolerance {
		tol = minTolerance
	}
	return &graph{tol: tol, grid: make(map[cell][]int)}
}

func (g *graph) cellOf(p geometry.Point) cell {
	return cell{int64(math.Floor(p.X / g.tol)), int64(math.Floor(p.Y / g.tol))}
}

// node returns the vertex within tol of p, creating one if none exists.
func (g *graph) node(p geometry.Point) int {
	c := g.cellOf(p)
	best, bestDist := -1, math.Inf(1)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, id := range g.grid[cell{c.x + dx, c.y + dy}] {
				if d := g.nodes[id].Dist(p); d <= g.tol && d < bestDist {
					best, bestDist = id, d
				}
			}
		}
	}
	if best >= 0 {
		return best
	}
	id := len(g.nodes)
	g.nodes = append(g.nodes, p)
	g.adj = append(g.adj, nil)
	g.grid[c] = append(g.grid[c], id)
	return id
}

func (g *graph) addPolyline(pts []geometry.Point) {
	prev := -1
	for _, p := range pts {
		id := g.node(p)
		if prev >= 0 && prev != id {
			w := g.nodes[prev].Dist(g.nodes[id])
			g.adj[prev] = append(g.adj[prev], edge{to: id, weight: w})
			g.adj[id] = append(g.adj[id], edge{to: prev, weight: w})
		}
		prev = id
	}
}

func (g *graph) edgeCount() int {
	n := 0
	for _, edges := range g.adj {
		n += len(edges)
	}
	return n / 2
}

// nearest returns the vertex closest to p within maxDist.
func (g *graph) nearest(p geometry.Point, maxDist float64) (int, bool) {
	best, bestDist := -1, math.Inf(1)
	for id, q := range g.nodes {
		if d := q.Dist(p); d <= maxDist && d < bestDist {
			best, bestDist = id, d
		}
	}
	return best, best >= 0
}

// attach returns the vertex a label at p belongs to: the nearest vertex within
// maxDist, or else a new vertex splitting the nearest edge within maxDist.
func (g *graph) attach(p geometry.Point, maxDist float64) (int, bool) {
	if id, ok := g.nearest(p, maxDist); ok {
		return id, true
	}

	bestFrom, bestTo, bestDist := -1, -1, math.Inf(1)
	var bestAt geometry.Point
	for from, edges := range g.adj {
		for _, e := range edges {
			if e.to < from {
				continue
			}
			at, _ := geometry.Project(p, g.nodes[from], g.nodes[e.to])
			if d := at.Dist(p); d <= maxDist && d < bestDist {
				bestFrom, bestTo, bestDist, bestAt = from, e.to, d, at
			}
		}
	}
	if bestFrom < 0 {
		return -1, false
	}

	id := g.node(bestAt)
	if id == bestFrom || id == bestTo {
		return id, true
	}
	g.removeEdge(bestFrom, bestTo)
	g.addPolyline([]geometry.Point{g.nodes[bestFrom], g.nodes[id], g.nodes[bestTo]})
	return id, true
}

func (g *graph) removeEdge(a, b int) {
	drop := func(from, to int) {
		edges := g.adj[from][:0]
		for _, e := range g.adj[from] {
			if e.to != to {
				edges = append(edges, e)
			}
		}
		g.adj[from] = edges
	}
	drop(a, b)
	drop(b, a)
}

// shortest returns the vertex positions along the shortest path from -> to.
func (g *graph) shortest(from, to int) ([]geometry.Point, bool) {
	dist := make([]float64, len(g.nodes))
	prev := make([]int, len(g.nodes))
	for i := range dist {
		dist[i] = math.Inf(1)
		prev[i] = -1
	}
	dist[from] = 0

	pq := &queue{{node: from}}
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(item)
		if cur.dist > dist[cur.node] {
			continue
		}
		if cur.node == to {
			break
		}
		for _, e := range g.adj[cur.node] {
			if d := cur.dist + e.weight; d < dist[e.to] {
				dist[e.to] = d
				prev[e.to] = cur.node
				heap.Push(pq, item{node: e.to, dist: d})
			}
		}
	}
	if math.IsInf(dist[to], 1) {
		return nil, false
	}

	var chain []int
	for n := to; n >= 0; n = prev[n] {
		chain = append(chain, n)
	}
	pts := make([]geometry.Point, len(chain))
	for i, n := range chain {
		pts[len(chain)-1-i] = g.nodes[n]
	}
	return pts, true
}

type item struct {
	node int
	dist float64
}

type queue []item

func (q queue) Len() int            { return len(q) }
func (q queue) Less(i, j int) bool  { return q[i].dist < q[j].dist }
func (q queue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x interface{}) { *q = append(*q, x.(item)) }
func (q *queue) Pop() interface{} {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}
