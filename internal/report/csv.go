package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// WriteCSV writes the table with a header row and no index column.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for i, r := range t.Rows {
		record := []string{
			r.Input,
			r.Output,
			FormatLength(r.Length),
			strconv.Itoa(r.Segments),
			strconv.Itoa(r.Bends),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write CSV row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the table to path, replacing any existing file.
func WriteCSVFile(path string, t Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create CSV file: %w", err)
	}
	bw := bufio.NewWriter(file)
	if err := WriteCSV(bw, t); err != nil {
		file.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("write CSV file: %w", err)
	}
	return file.Close()
}

// ReadCSV reads a table written by WriteCSV. Columns are matched by header
// name, so their order may differ; input, output and length are required.
func ReadCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read CSV: %w", err)
	}
	if len(rows) == 0 {
		return Table{}, fmt.Errorf("CSV file is empty")
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range Header[:3] {
		if _, ok := columns[required]; !ok {
			return Table{}, fmt.Errorf("CSV header is missing column %q", required)
		}
	}

	table := Table{Rows: make([]Row, 0, len(rows)-1)}
	for i, record := range rows[1:] {
		line := i + 2
		if len(record) != len(rows[0]) {
			return Table{}, fmt.Errorf("row %d has %d fields, expected %d", line, len(record), len(rows[0]))
		}
		row := Row{
			Input:  record[columns["input"]],
			Output: record[columns["output"]],
		}
		if row.Length, err = strconv.ParseFloat(record[columns["length"]], 64); err != nil {
			return Table{}, fmt.Errorf("row %d: length: %w", line, err)
		}
		if idx, ok := columns["segments"]; ok {
			if row.Segments, err = strconv.Atoi(record[idx]); err != nil {
				return Table{}, fmt.Errorf("row %d: segments: %w", line, err)
			}
		}
		if idx, ok := columns["bends"]; ok {
			if row.Bends, err = strconv.Atoi(record[idx]); err != nil {
				return Table{}, fmt.Errorf("row %d: bends: %w", line, err)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// ReadCSVFile reads a table from the CSV file at path.
func ReadCSVFile(path string) (Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("open CSV file: %w", err)
	}
	defer file.Close()
	return ReadCSV(file)
}
