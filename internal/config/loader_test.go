package config

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
)

func TestAsString(t *testing.T) {
	tests := []struct {
		input interface{}
		want  string
	}{
		{"hello", "hello"},
		{123, "123"},
		{true, "true"},
		{nil, ""},
		{[]byte("bytes"), "bytes"},
	}

	for _, tt := range tests {
		got, err := asString(tt.input)
		if err != nil {
			t.Errorf("asString(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asString(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAsInt(t *testing.T) {
	tests := []struct {
		input interface{}
		want  int
	}{
		{123, 123},
		{"456", 456},
		{int64(789), 789},
		{float64(10.0), 10},
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asInt(tt.input)
		if err != nil {
			t.Errorf("asInt(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asInt(%v) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestAsBool(t *testing.T) {
	tests := []struct {
		input interface{}
		want  bool
	}{
		{true, true},
		{"true", true},
		{"1", true},
		{false, false},
		{"false", false},
		{"0", false},
		{nil, false},
	}

	for _, tt := range tests {
		got, err := asBool(tt.input)
		if err != nil {
			t.Errorf("asBool(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asBool(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestAsLayer(t *testing.T) {
	tests := []struct {
		input   interface{}
		want    Layer
		wantErr bool
	}{
		{[]interface{}{1, 0}, Layer{1, 0}, false},
		{[]interface{}{"2", 5}, Layer{2, 5}, false},
		{3, Layer{3, 0}, false},
		{"41/2", Layer{41, 2}, false},
		{" 7 ", Layer{7, 0}, false},
		{map[string]interface{}{"number": 4, "datatype": 1}, Layer{4, 1}, false},
		{[]interface{}{1}, Layer{}, true},
		{[]interface{}{1.5, 0}, Layer{}, true},
		{"a/b", Layer{}, true},
		{map[string]interface{}{"datatype": 1}, Layer{}, true},
		{nil, Layer{}, true},
	}

	for _, tt := range tests {
		got, err := asLayer(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("asLayer(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("asLayer(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestAsLabelPairs(t *testing.T) {
	input := []interface{}{
		[]interface{}{"i0", "o0"},
		map[string]interface{}{"input": "i1", "output": " o1 "},
		map[interface{}]interface{}{"in": "i2", "out": "o2"},
	}
	got, err := asLabelPairs(input)
	if err != nil {
		t.Fatalf("asLabelPairs() error = %v", err)
	}
	want := []LabelPair{{"i0", "o0"}, {"i1", "o1"}, {"i2", "o2"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("asLabelPairs mismatch (-want +got):\n%s", diff)
	}

	if _, err := asLabelPairs([]interface{}{[]interface{}{"i0"}}); err == nil {
		t.Error("asLabelPairs(single element) error = nil, want error")
	}
	if _, err := asLabelPairs("i0,o0"); err == nil {
		t.Error("asLabelPairs(string) error = nil, want error")
	}
}

func TestApplyConfigSettings(t *testing.T) {
	cfg := Default()
	settings := map[string]interface{}{
		"gdspath":     "demo.gds",
		"path_layer":  []interface{}{1, 0},
		"label_layer": "2/0",
		"labels":      []interface{}{[]interface{}{"i0", "o0"}},
		"bend_radius": 10,
		"workers":     "4",
		"checks":      "skew:abs < 5",
		"tracing": map[string]interface{}{
			"endpoint":    "localhost:4317",
			"sample_rate": 0.5,
		},
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		t.Fatalf("applyConfigSettings() error = %v", err)
	}

	if cfg.GDSPath != "demo.gds" {
		t.Errorf("GDSPath = %q, want demo.gds", cfg.GDSPath)
	}
	if cfg.PathLayer == nil || *cfg.PathLayer != (Layer{1, 0}) {
		t.Errorf("PathLayer = %v, want 1/0", cfg.PathLayer)
	}
	if cfg.LabelLayer == nil || *cfg.LabelLayer != (Layer{2, 0}) {
		t.Errorf("LabelLayer = %v, want 2/0", cfg.LabelLayer)
	}
	if cfg.BendRadius != 10 {
		t.Errorf("BendRadius = %g, want 10", cfg.BendRadius)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if diff := cmp.Diff([]string{"skew:abs < 5"}, cfg.Checks); diff != "" {
		t.Errorf("Checks mismatch (-want +got):\n%s", diff)
	}
	if cfg.Tracing.Endpoint != "localhost:4317" || cfg.Tracing.SampleRate != 0.5 {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	if cfg.Tolerance != DefaultTolerance {
		t.Errorf("Tolerance = %g, want default %g", cfg.Tolerance, DefaultTolerance)
	}
}

func TestApplyConfigSettingsReportsAllIssues(t *testing.T) {
	settings := map[string]interface{}{
		"gds_path":   "demo.gds",
		"path_layer": []interface{}{1, 2, 3},
		"workers":    true,
		"bogus":      1,
		"tracing":    map[string]interface{}{"colour": "blue"},
	}

	err := applyConfigSettings(Default(), settings)
	verr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("applyConfigSettings() error = %v, want ValidationError", err)
	}
	joined := strings.Join(verr.Issues(), "\n")
	for _, want := range []string{`unknown key "bogus"`, `unknown key "tracing.colour"`, "path_layer:", "workers:"} {
		if !strings.Contains(joined, want) {
			t.Errorf("issues missing %q:\n%s", want, joined)
		}
	}
}

func TestConfigureFlags(t *testing.T) {
	var opts Options
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	configureFlags(fs, &opts)

	if err := fs.Parse([]string{"--config=run.yaml", "--run-dir", "out"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if opts.ConfigPath != "run.yaml" || opts.RunDir != "out" {
		t.Errorf("opts = %+v", opts)
	}
	if opts.LogLevel != "debug" {
		t.Errorf("LogLevel default = %q, want debug", opts.LogLevel)
	}
	if fs.Lookup("log-level") == nil || fs.Lookup("run-dir").DefValue != "" {
		t.Error("run-dir should default to empty")
	}
}
