// Package pathlen measures the routed length between labeled ports of a GDSII
// layout.
package pathlen

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/torosent/pathlength/internal/gds"
	"github.com/torosent/pathlength/internal/geometry"
	"github.com/torosent/pathlength/internal/layout"
	"github.com/torosent/pathlength/internal/report"
	"github.com/torosent/pathlength/internal/tracing"
)

var (
	ErrLabelNotFound  = errors.New("label not found")
	ErrAmbiguousLabel = errors.New("label appears more than once")
	ErrLabelOffTrace  = errors.New("label is not on a trace")
	ErrNoPath         = errors.New("no path between labels")
	ErrNoPairs        = errors.New("no label pairs to measure")
)

// Request describes one measurement. Lengths and tolerances are in the
// layout's user units.
type Request struct {
	GDSPath    string
	Cell       string
	PathLayer  gds.Layer
	LabelLayer gds.Layer
	// Pairs lists the routes to measure. When empty, labels are paired by
	// InputPrefix and OutputPrefix.
	Pairs          []Pair
	InputPrefix    string
	OutputPrefix   string
	BendRadius     float64
	Tolerance      float64
	LabelTolerance float64
	Workers        int
}

// Engine runs measurements. It is safe for concurrent use.
type Engine struct {
	logger zerolog.Logger
	tracer trace.Tracer
}

// New returns an Engine that logs to logger and traces with tracer. A nil
// tracer disables tracing.
func New(logger zerolog.Logger, tracer trace.Tracer) *Engine {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("pathlength")
	}
	return &Engine{logger: logger, tracer: tracer}
}

// Measure reads the GDSII file named by req and measures every pair.
func (e *Engine) Measure(ctx context.Context, req Request) (report.Table, error) {
	_, span := tracing.StartStage(ctx, e.tracer, "read", attribute.String("pathlength.gds_path", req.GDSPath))
	start := time.Now()
	lib, err := gds.ReadFile(req.GDSPath)
	tracing.EndSpan(span, err)
	if err != nil {
		return report.Table{}, err
	}
	e.logger.Debug().
		Str("library", lib.Name).
		Int("structures", len(lib.Structures)).
		Float64("user_unit", lib.UserUnit).
		Dur("took", time.Since(start)).
		Msgf("read %s", req.GDSPath)

	return e.MeasureLibrary(ctx, lib, req)
}

// MeasureLibrary measures every pair of req in an already decoded library.
// Rows follow the order of the pairs.
func (e *Engine) MeasureLibrary(ctx context.Context, lib *gds.Library, req Request) (report.Table, error) {
	_, span := tracing.StartStage(ctx, e.tracer, "flatten",
		attribute.String("pathlength.cell", req.Cell),
		attribute.String("pathlength.path_layer", req.PathLayer.String()),
		attribute.String("pathlength.label_layer", req.LabelLayer.String()),
	)
	shapes, err := layout.Extract(lib, layout.Selector{
		Cell:       req.Cell,
		PathLayer:  req.PathLayer,
		LabelLayer: req.LabelLayer,
		Tolerance:  req.Tolerance,
	})
	if err == nil {
		span.SetAttributes(
			attribute.Int("pathlength.traces", len(shapes.Traces)),
			attribute.Int("pathlength.labels", len(shapes.Labels)),
			attribute.Int("pathlength.connectors", len(shapes.Connectors)),
		)
	}
	tracing.EndSpan(span, err)
	if err != nil {
		return report.Table{}, err
	}
	e.logger.Debug().
		Str("cell", shapes.Cell).
		Int("traces", len(shapes.Traces)).
		Int("labels", len(shapes.Labels)).
		Msg("flattened layout")

	g := newGraph(req.Tolerance)
	for _, tr := range shapes.Traces {
		g.addPolyline(tr)
	}
	if len(shapes.Connectors) > 0 {
		links, loose := bridges(shapes.Traces, shapes.Connectors, req.Tolerance)
		for _, l := range links {
			g.addPolyline(l)
		}
		e.logger.Debug().
			Int("polygons", len(shapes.Connectors)).
			Int("links", len(links)).
			Int("unconnected", loose).
			Msgf("joined traces through non-rectangular polygons on layer %s", req.PathLayer)
	}
	e.logger.Debug().Int("vertices", len(g.nodes)).Int("edges", g.edgeCount()).Msg("built trace graph")

	pairs := req.Pairs
	if len(pairs) == 0 {
		pairs = AutoPairs(labelNames(shapes.Labels), req.InputPrefix, req.OutputPrefix)
		e.logger.Debug().Int("pairs", len(pairs)).Msgf("paired labels by prefix %q/%q", req.InputPrefix, req.OutputPrefix)
	}
	if len(pairs) == 0 {
		return report.Table{}, fmt.Errorf("%w: cell %q has no %s*/%s* labels on layer %s",
			ErrNoPairs, shapes.Cell, req.InputPrefix, req.OutputPrefix, req.LabelLayer)
	}

	ends, err := resolve(g, shapes.Labels, pairs, req.LabelTolerance)
	if err != nil {
		return report.Table{}, err
	}
	return e.measurePairs(ctx, g, pairs, ends, req)
}

type endpoints struct{ from, to int }

// resolve attaches every label used by pairs to the graph. It runs before the
// workers start since attaching may split edges.
func resolve(g *graph, labels []layout.Label, pairs []Pair, tol float64) ([]endpoints, error) {
	index, err := indexLabels(labels, tol)
	if err != nil {
		return nil, err
	}
	vertex := make(map[string]int)
	lookup := func(name string) (int, error) {
		if id, ok := vertex[name]; ok {
			return id, nil
		}
		pos, ok := index[name]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrLabelNotFound, name)
		}
		id, ok := g.attach(pos, tol)
		if !ok {
			return 0, fmt.Errorf("%w: %q at (%g, %g) is farther than %g from every trace",
				ErrLabelOffTrace, name, pos.X, pos.Y, tol)
		}
		vertex[name] = id
		return id, nil
	}

	ends := make([]endpoints, len(pairs))
	for i, p := range pairs {
		from, err := lookup(p.Input)
		if err != nil {
			return nil, err
		}
		to, err := lookup(p.Output)
		if err != nil {
			return nil, err
		}
		ends[i] = endpoints{from: from, to: to}
	}
	return ends, nil
}

// indexLabels maps label text to position. A text placed twice at the same
// spot counts once.
func indexLabels(labels []layout.Label, tol float64) (map[string]geometry.Point, error) {
	index := make(map[string]geometry.Point, len(labels))
	for _, l := range labels {
		if prev, ok := index[l.Text]; ok {
			if prev.Dist(l.Position) > tol {
				return nil, fmt.Errorf("%w: %q at (%g, %g) and (%g, %g)", ErrAmbiguousLabel,
					l.Text, prev.X, prev.Y, l.Position.X, l.Position.Y)
			}
			continue
		}
		index[l.Text] = l.Position
	}
	return index, nil
}

func (e *Engine) measurePairs(ctx context.Context, g *graph, pairs []Pair, ends []endpoints, req Request) (report.Table, error) {
	workers := req.Workers
	if workers < 1 {
		workers = 1
	}
	rows := make([]report.Row, len(pairs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := range pairs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row, err := e.measurePair(ctx, g, pairs[i], ends[i], req.BendRadius)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return report.Table{}, err
	}
	return report.Table{Rows: rows}, nil
}

func (e *Engine) measurePair(ctx context.Context, g *graph, p Pair, end endpoints, radius float64) (report.Row, error) {
	_, span := tracing.StartStage(ctx, e.tracer, "measure "+p.String(),
		attribute.String("pathlength.input", p.Input),
		attribute.String("pathlength.output", p.Output),
	)

	pts, ok := g.shortest(end.from, end.to)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrNoPath, p)
		tracing.EndSpan(span, err)
		return report.Row{}, err
	}
	m, err := geometry.Measure(geometry.Simplify(pts), radius)
	if err != nil {
		err = fmt.Errorf("%s: %w", p, err)
		tracing.EndSpan(span, err)
		return report.Row{}, err
	}
	row := report.Row{
		Input:    p.Input,
		Output:   p.Output,
		Length:   m.Length,
		Segments: m.Segments,
		Bends:    m.Bends,
	}
	tracing.EndSpan(span, nil,
		attribute.Float64("pathlength.length", row.Length),
		attribute.Int("pathlength.bends", row.Bends),
	)
	e.logger.Debug().
		Float64("length", row.Length).
		Int("segments", row.Segments).
		Int("bends", row.Bends).
		Msgf("measured %s", p)
	return row, nil
}

func labelNames(labels []layout.Label) []string {
	seen := make(map[string]bool, len(labels))
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		if !seen[l.Text] {
			seen[l.Text] = true
			names = append(names, l.Text)
		}
	}
	sort.Strings(names)
	return names
}
