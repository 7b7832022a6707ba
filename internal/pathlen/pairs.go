package pathlen

import (
	"sort"
	"strconv"
	"strings"
)

// Pair names the input and output labels of one route.
type Pair struct {
	Input  string
	Output string
}

func (p Pair) String() string {
	return p.Input + "->" + p.Output
}

// AutoPairs pairs every label <inPrefix><suffix> with <outPrefix><suffix>
// when both exist. Pairs are ordered by suffix, numerically where possible.
func AutoPairs(names []string, inPrefix, outPrefix string) []Pair {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}

	seen := make(map[string]bool)
	var suffixes []string
	for _, n := range names {
		if !strings.HasPrefix(n, inPrefix) {
			continue
		}
		suffix := n[len(inPrefix):]
		if suffix == "" || seen[suffix] || !present[outPrefix+suffix] {
			continue
		}
		seen[suffix] = true
		suffixes = append(suffixes, suffix)
	}
	sort.Slice(suffixes, func(i, j int) bool {
		return naturalLess(suffixes[i], suffixes[j])
	})

	pairs := make([]Pair, len(suffixes))
	for i, s := range suffixes {
		pairs[i] = Pair{Input: inPrefix + s, Output: outPrefix + s}
	}
	return pairs
}

func naturalLess(a, b string) bool {
	ai, errA := strconv.Atoi(a)
	bi, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return ai < bi
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
