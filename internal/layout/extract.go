// Package layout flattens a GDSII cell hierarchy into the traces and labels
// that path measurement works on.
package layout

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/torosent/pathlength/internal/gds"
	"github.com/torosent/pathlength/internal/geometry"
)

var (
	ErrCellNotFound = errors.New("cell not found")
	ErrAmbiguousTop = errors.New("multiple top-level cells")
	ErrCycle        = errors.New("cyclic cell reference")
)

// Selector picks the cell and layers to extract.
type Selector struct {
	// Cell names the cell to flatten. Empty selects the unique top cell.
	Cell       string
	PathLayer  gds.Layer
	LabelLayer gds.Layer
	// Tolerance is used to recognise rectangles, in user units.
	Tolerance float64
}

// Label is a text anchor in user units.
type Label struct {
	Text     string
	Position geometry.Point
}

// Shapes are the flattened contents of a cell on the selected layers.
type Shapes struct {
	Cell string
	// Traces are centerline polylines in user units.
	Traces [][]geometry.Point
	Labels []Label
	// Connectors are the outlines of polygons on the path layer that are not
	// rectangles, such as drawn bends. Traces ending on their boundary are
	// joined through them.
	Connectors [][]geometry.Point
}

// TopCells returns the names of structures that no other structure references.
func TopCells(lib *gds.Library) []string {
	referenced := make(map[string]bool)
	for _, s := range lib.Structures {
		for _, ref := range s.References {
			referenced[ref.Name] = true
		}
	}
	var tops []string
	for _, s := range lib.Structures {
		if !referenced[s.Name] {
			tops = append(tops, s.Name)
		}
	}
	sort.Strings(tops)
	return tops
}

// Extract flattens the selected cell of lib and collects traces on the path
// layer and labels on the label layer.
func Extract(lib *gds.Library, sel Selector) (*Shapes, error) {
	name := sel.Cell
	if name == "" {
		tops := TopCells(lib)
		switch len(tops) {
		case 0:
			return nil, fmt.Errorf("%w: library %q has no top cell", ErrCellNotFound, lib.Name)
		case 1:
			name = tops[0]
		default:
			return nil, fmt.Errorf("%w: %s (set cell to choose one)", ErrAmbiguousTop, strings.Join(tops, ", "))
		}
	}
	root, ok := lib.Structure(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCellNotFound, name)
	}

	w := &walker{
		lib:     lib,
		sel:     sel,
		shapes:  &Shapes{Cell: name},
		visited: make(map[string]bool),
	}
	if err := w.visit(root, geometry.Scaling(lib.UserUnit)); err != nil {
		return nil, err
	}
	return w.shapes, nil
}

type walker struct {
	lib     *gds.Library
	sel     Selector
	shapes  *Shapes
	visited map[string]bool
}

func (w *walker) visit(s *gds.Structure, t geometry.Transform) error {
	if w.visited[s.Name] {
		return fmt.Errorf("%w: %q", ErrCycle, s.Name)
	}
	w.visited[s.Name] = true
	defer delete(w.visited, s.Name)

	for _, p := range s.Paths {
		if p.Layer != w.sel.PathLayer {
			continue
		}
		w.shapes.Traces = append(w.shapes.Traces, t.ApplyAll(toPoints(p.XY)))
	}
	for _, b := range s.Boundaries {
		if b.Layer != w.sel.PathLayer {
			continue
		}
		outline := t.ApplyAll(toPoints(b.XY))
		start, end, ok := geometry.RectangleCenterline(outline, w.sel.Tolerance)
		if !ok {
			w.shapes.Connectors = append(w.shapes.Connectors, outline)
			continue
		}
		w.shapes.Traces = append(w.shapes.Traces, []geometry.Point{start, end})
	}
	for _, txt := range s.Texts {
		if txt.Layer != w.sel.LabelLayer {
			continue
		}
		w.shapes.Labels = append(w.shapes.Labels, Label{
			Text:     txt.Text,
			Position: t.Apply(toPoint(txt.Position)),
		})
	}

	for _, ref := range s.References {
		child, ok := w.lib.Structure(ref.Name)
		if !ok {
			return fmt.Errorf("%w: %q referenced from %q", ErrCellNotFound, ref.Name, s.Name)
		}
		for _, placement := range placements(ref) {
			if err := w.visit(child, placement.Then(t)); err != nil {
				return err
			}
		}
	}
	return nil
}

// placements expands a reference into one transform per instance, in the
// coordinates of the referencing cell.
func placements(ref gds.Reference) []geometry.Transform {
	st := ref.Strans
	origin := toPoint(ref.XY[0])
	if !ref.IsArray() {
		return []geometry.Transform{geometry.Placement(origin, st.Angle, st.Magnification(), st.Reflect)}
	}
	colStep := toPoint(ref.XY[1]).Sub(origin).Scale(1 / float64(ref.Cols))
	rowStep := toPoint(ref.XY[2]).Sub(origin).Scale(1 / float64(ref.Rows))
	out := make([]geometry.Transform, 0, int(ref.Cols)*int(ref.Rows))
	for r := 0; r < int(ref.Rows); r++ {
		for c := 0; c < int(ref.Cols); c++ {
			at := origin.Add(colStep.Scale(float64(c))).Add(rowStep.Scale(float64(r)))
			out = append(out, geometry.Placement(at, st.Angle, st.Magnification(), st.Reflect))
		}
	}
	return out
}

func toPoint(p gds.Point) geometry.Point {
	return geometry.Point{X: float64(p.X), Y: float64(p.Y)}
}

func toPoints(pts []gds.Point) []geometry.Point {
	out := make([]geometry.Point, len(pts))
	for i, p := range pts {
		out[i] = toPoint(p)
	}
	return out
}
