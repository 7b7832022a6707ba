package pathlen

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAutoPairs(t *testing.T) {
	tests := []struct {
		name    string
		labels  []string
		in, out string
		want    []Pair
	}{
		{
			name:   "numeric order",
			labels: []string{"o10", "i2", "i10", "o2", "i1", "o1"},
			in:     "i", out: "o",
			want: []Pair{{"i1", "o1"}, {"i2", "o2"}, {"i10", "o10"}},
		},
		{
			name:   "unmatched labels skipped",
			labels: []string{"i0", "o0", "i1", "o2", "x5"},
			in:     "i", out: "o",
			want: []Pair{{"i0", "o0"}},
		},
		{
			name:   "numbers before names",
			labels: []string{"in_b", "out_b", "in_3", "out_3", "in_a", "out_a"},
			in:     "in_", out: "out_",
			want: []Pair{{"in_3", "out_3"}, {"in_a", "out_a"}, {"in_b", "out_b"}},
		},
		{
			name:   "bare prefix ignored",
			labels: []string{"i", "o"},
			in:     "i", out: "o",
			want: []Pair{},
		},
		{
			name:   "duplicates collapse",
			labels: []string{"i0", "i0", "o0"},
			in:     "i", out: "o",
			want: []Pair{{"i0", "o0"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AutoPairs(tt.labels, tt.in, tt.out)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("AutoPairs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPairString(t *testing.T) {
	if got := (Pair{Input: "i0", Output: "o0"}).String(); got != "i0->o0" {
		t.Errorf("String() = %q", got)
	}
}
