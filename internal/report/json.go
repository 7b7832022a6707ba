package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// WriteJSON outputs the summary as indented JSON.
func WriteJSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteJSONFile writes the JSON summary to path.
func WriteJSONFile(path string, s Summary) error {
	return writeFile(path, s, WriteJSON)
}

func writeFile(path string, s Summary, render func(io.Writer, Summary) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := render(file, s); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
