// Package report holds the path length table and renders it as CSV, plain
// text, JSON and HTML.
package report

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
)

// Header is the CSV header row, in column order.
var Header = []string{"input", "output", "length", "segments", "bends"}

// Row is the measurement of one labeled route.
type Row struct {
	Input  string  `json:"input"`
	Output string  `json:"output"`
	Length float64 `json:"length"`
	// Segments is the number of straight pieces along the route.
	Segments int `json:"segments"`
	Bends    int `json:"bends"`
}

// Table is the ordered set of measured routes.
type Table struct {
	Rows []Row `json:"rows"`
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Lengths returns the length column.
func (t Table) Lengths() []float64 {
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Length
	}
	return out
}

// FormatLength renders a length in the shortest form that parses back to the
// same value.
func FormatLength(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Format writes the table as aligned text, one route per line.
func Format(w io.Writer, t Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "\t%s\t%s\t%s\t%s\t%s\t\n", Header[0], Header[1], Header[2], Header[3], Header[4])
	for i, r := range t.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t\n", i, r.Input, r.Output, FormatLength(r.Length), r.Segments, r.Bends)
	}
	return tw.Flush()
}
