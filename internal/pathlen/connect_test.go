package pathlen

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func square(x0, y0, x1, y1 float64) []pt {
	return []pt{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0}}
}

func TestBridges(t *testing.T) {
	approx := cmpopts.EquateApprox(0, 1e-9)
	tests := []struct {
		name      string
		traces    [][]pt
		connector []pt
		want      [][]pt
		wantLoose int
	}{
		{
			name:      "perpendicular ends meet at a corner",
			traces:    [][]pt{{{X: 0, Y: 0}, {X: 10, Y: 0}}, {{X: 15, Y: 5}, {X: 15, Y: 15}}},
			connector: []pt{{X: 10, Y: -1}, {X: 16, Y: -1}, {X: 16, Y: 5}, {X: 14, Y: 5}, {X: 10, Y: 1}, {X: 10, Y: -1}},
			want:      [][]pt{{{X: 10, Y: 0}, {X: 15, Y: 0}, {X: 15, Y: 5}}},
		},
		{
			name:      "facing ends are joined straight",
			traces:    [][]pt{{{X: 0, Y: 0}, {X: 10, Y: 0}}, {{X: 14, Y: 0}, {X: 20, Y: 0}}},
			connector: []pt{{X: 10, Y: -1}, {X: 14, Y: -2}, {X: 14, Y: 2}, {X: 10, Y: 1}, {X: 10, Y: -1}},
			want:      [][]pt{{{X: 10, Y: 0}, {X: 14, Y: 0}}},
		},
		{
			name: "junction joins every end to the centroid",
			traces: [][]pt{
				{{X: -5, Y: 0}, {X: 0, Y: 0}},
				{{X: 2, Y: 5}, {X: 2, Y: 1}},
				{{X: 4, Y: 0}, {X: 9, Y: 0}},
			},
			connector: []pt{{X: 0, Y: -1}, {X: 4, Y: -1}, {X: 4, Y: 1}, {X: 2, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: -1}},
			want: [][]pt{
				{{X: 0, Y: 0}, {X: 2, Y: 0.2}},
				{{X: 2, Y: 1}, {X: 2, Y: 0.2}},
				{{X: 4, Y: 0}, {X: 2, Y: 0.2}},
			},
		},
		{
			name:      "polygon touching one end",
			traces:    [][]pt{{{X: 0, Y: 0}, {X: 10, Y: 0}}},
			connector: square(10, -1, 12, 1),
			wantLoose: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, loose := bridges(tt.traces, [][]pt{tt.connector}, 1e-6)
			if loose != tt.wantLoose {
				t.Errorf("loose = %d, want %d", loose, tt.wantLoose)
			}
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("bridges() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
