package layout

import (
	"fmt"
	"math"

	"github.com/torosent/pathlength/internal/gds"
)

// Demo bundle constants, in microns.
const (
	DemoPitch      = 127.0
	DemoLeftX      = -200.0
	DemoRightX     = 0.0
	DemoTraceWidth = 0.5
	DemoPinSize    = 0.5
	DemoTopCell    = "connect_bundle"
	demoBundleCell = "bundle"
	demoDBUnit     = 0.001
)

var (
	DemoPathLayer  = gds.Layer{Number: 1, Datatype: 0}
	DemoLabelLayer = gds.Layer{Number: 2, Datatype: 0}
	demoRightYs    = []float64{0, 10, 20, 40, 50, 80}
)

// DemoRoute describes one trace of the demo bundle.
type DemoRoute struct {
	Input  string
	Output string
	Start  [2]float64
	End    [2]float64
	// JogX is the x position of the vertical leg.
	JogX float64
}

// Length returns the centerline length of the route with sharp corners.
func (r DemoRoute) Length() float64 {
	return math.Abs(r.End[0]-r.Start[0]) + math.Abs(r.End[1]-r.Start[1])
}

// Bends returns the number of corners on the route.
func (r DemoRoute) Bends() int {
	if r.Start[1] == r.End[1] {
		return 0
	}
	return 2
}

// DemoRoutes returns the fixed geometry of a bundle of n traces: left ports at
// a 127 um pitch centered on y=0, right ports at the y offsets 0, 10, 20, 40,
// 50, 80 (continuing in steps of 30), each joined by a Manhattan Z-shape.
// Ports keep their order on both sides, so the jogs nest without crossing:
// among routes that climb, the lower one jogs further right; among routes
// that descend, the upper one does.
func DemoRoutes(n int) []DemoRoute {
	routes := make([]DemoRoute, n)
	var climbing, descending []int
	for i := range routes {
		yLeft := (float64(i) - float64(n)/2) * DemoPitch
		yRight := demoRightY(i)
		routes[i] = DemoRoute{
			Input:  fmt.Sprintf("i%d", i),
			Output: fmt.Sprintf("o%d", i),
			Start:  [2]float64{DemoLeftX, yLeft},
			End:    [2]float64{DemoRightX, yRight},
		}
		if yLeft < yRight {
			climbing = append(climbing, i)
		} else {
			descending = append(descending, i)
		}
	}

	slot := 0
	place := func(i int) {
		slot++
		routes[i].JogX = DemoLeftX + (DemoRightX-DemoLeftX)*float64(slot)/float64(n+1)
	}
	for k := len(climbing) - 1; k >= 0; k-- {
		place(climbing[k])
	}
	for _, i := range descending {
		place(i)
	}
	return routes
}

func demoRightY(i int) float64 {
	if i < len(demoRightYs) {
		return demoRightYs[i]
	}
	last := demoRightYs[len(demoRightYs)-1]
	return last + 30*float64(i-len(demoRightYs)+1)
}

// DemoBundle builds a two-level library: the top cell places a bundle cell
// holding n PATH traces on layer 1/0, each end marked with a pin rectangle and
// an iN/oN text label on layer 2/0.
func DemoBundle(n int) *gds.Library {
	bundle := &gds.Structure{Name: demoBundleCell}
	for _, r := range DemoRoutes(n) {
		xy := []gds.Point{dbu(r.Start[0], r.Start[1])}
		if r.Bends() > 0 {
			xy = append(xy, dbu(r.JogX, r.Start[1]), dbu(r.JogX, r.End[1]))
		}
		xy = append(xy, dbu(r.End[0], r.End[1]))
		bundle.Paths = append(bundle.Paths, gds.Path{
			Layer: DemoPathLayer,
			Width: int32(math.Round(DemoTraceWidth / demoDBUnit)),
			XY:    xy,
		})
		for _, port := range []struct {
			name string
			at   [2]float64
		}{{r.Input, r.Start}, {r.Output, r.End}} {
			bundle.Boundaries = append(bundle.Boundaries, gds.Boundary{
				Layer: DemoLabelLayer,
				XY:    pinRectangle(port.at),
			})
			bundle.Texts = append(bundle.Texts, gds.Text{
				Layer:    DemoLabelLayer,
				Position: dbu(port.at[0], port.at[1]),
				Text:     port.name,
			})
		}
	}
	top := &gds.Structure{
		Name:       DemoTopCell,
		References: []gds.Reference{{Name: demoBundleCell, XY: []gds.Point{{}}}},
	}
	return &gds.Library{
		Name:       "pathlength_demo",
		UserUnit:   demoDBUnit,
		MeterUnit:  demoDBUnit * 1e-6,
		Structures: []*gds.Structure{bundle, top},
	}
}

func pinRectangle(at [2]float64) []gds.Point {
	h := DemoPinSize / 2
	return []gds.Point{
		dbu(at[0]-h, at[1]-h), dbu(at[0]+h, at[1]-h),
		dbu(at[0]+h, at[1]+h), dbu(at[0]-h, at[1]+h),
		dbu(at[0]-h, at[1]-h),
	}
}

func dbu(x, y float64) gds.Point {
	return gds.Point{
		X: int32(math.Round(x / demoDBUnit)),
		Y: int32(math.Round(y / demoDBUnit)),
	}
}
