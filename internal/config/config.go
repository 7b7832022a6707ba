package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
	// ErrConfigParse is returned when the configuration file is not valid YAML.
	ErrConfigParse = errors.New("configuration file is not valid YAML")
)

// Defaults applied before the config file is read.
const (
	DefaultTolerance      = 0.001
	DefaultLabelTolerance = 0.01
	DefaultWorkers        = 1
	DefaultInputPrefix    = "i"
	DefaultOutputPrefix   = "o"
	DefaultSampleRate     = 1.0
)

// Layer is a GDS (layer number, datatype) pair.
type Layer struct {
	Number   int `mapstructure:"number"`
	Datatype int `mapstructure:"datatype"`
}

func (l Layer) String() string {
	return fmt.Sprintf("%d/%d", l.Number, l.Datatype)
}

// LabelPair names the input and output labels of one measured route.
type LabelPair struct {
	Input  string `mapstructure:"input"`
	Output string `mapstructure:"output"`
}

// Config is the typed run configuration read from the YAML file.
type Config struct {
	GDSPath        string        `mapstructure:"gds_path"`
	Cell           string        `mapstructure:"cell"`
	PathLayer      *Layer        `mapstructure:"path_layer"`
	LabelLayer     *Layer        `mapstructure:"label_layer"`
	Labels         []LabelPair   `mapstructure:"labels"`
	InputPrefix    string        `mapstructure:"input_prefix"`
	OutputPrefix   string        `mapstructure:"output_prefix"`
	BendRadius     float64       `mapstructure:"bend_radius"`
	Tolerance      float64       `mapstructure:"tolerance"`
	LabelTolerance float64       `mapstructure:"label_tolerance"`
	Workers        int           `mapstructure:"workers"`
	Checks         []string      `mapstructure:"checks"`
	JSONOutput     string        `mapstructure:"json_output"`
	HTMLOutput     string        `mapstructure:"html_output"`
	Tracing        TracingConfig `mapstructure:"tracing"`
	ConfigFile     string        `mapstructure:"-"`
}

// TracingConfig controls OpenTelemetry trace export.
type TracingConfig struct {
	Enable      bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
}

// Enabled reports whether spans should be exported.
func (t TracingConfig) Enabled() bool {
	return t.Enable || strings.TrimSpace(t.Endpoint) != ""
}

// Default returns a Config with every default applied.
func Default() *Config {
	return &Config{
		InputPrefix:    DefaultInputPrefix,
		OutputPrefix:   DefaultOutputPrefix,
		Tolerance:      DefaultTolerance,
		LabelTolerance: DefaultLabelTolerance,
		Workers:        DefaultWorkers,
		Tracing:        TracingConfig{SampleRate: DefaultSampleRate},
	}
}

// CheckExists fails with ErrConfigNotFound unless path names a regular file.
func CheckExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrConfigNotFound, path)
	}
	return nil
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.GDSPath) == "" {
		issues = append(issues, "gds_path is required")
	}
	if c.PathLayer == nil {
		issues = append(issues, "path_layer is required")
	} else {
		issues = append(issues, validateLayer("path_layer", *c.PathLayer)...)
	}
	if c.LabelLayer == nil {
		issues = append(issues, "label_layer is required")
	} else {
		issues = append(issues, validateLayer("label_layer", *c.LabelLayer)...)
	}

	for idx, pair := range c.Labels {
		if strings.TrimSpace(pair.Input) == "" || strings.TrimSpace(pair.Output) == "" {
			issues = append(issues, fmt.Sprintf("labels[%d]: input and output are required", idx))
		}
	}
	if len(c.Labels) == 0 && (c.InputPrefix == "" || c.OutputPrefix == "") {
		issues = append(issues, "input_prefix and output_prefix are required when labels is empty")
	}
	if len(c.Labels) == 0 && c.InputPrefix != "" && c.InputPrefix == c.OutputPrefix {
		issues = append(issues, "input_prefix and output_prefix must differ")
	}

	if c.BendRadius < 0 {
		issues = append(issues, "bend_radius must be >= 0")
	}
	if c.Tolerance <= 0 {
		issues = append(issues, "tolerance must be > 0")
	}
	if c.LabelTolerance < 0 {
		issues = append(issues, "label_tolerance must be >= 0")
	}
	if c.Workers < 1 {
		issues = append(issues, "workers must be >= 1")
	}

	issues = append(issues, validateOutputName("json_output", c.JSONOutput)...)
	issues = append(issues, validateOutputName("html_output", c.HTMLOutput)...)
	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateLayer(key string, l Layer) []string {
	var issues []string
	if l.Number < 0 || l.Number > 0x7FFF {
		issues = append(issues, fmt.Sprintf("%s: layer number %d out of range", key, l.Number))
	}
	if l.Datatype < 0 || l.Datatype > 0x7FFF {
		issues = append(issues, fmt.Sprintf("%s: datatype %d out of range", key, l.Datatype))
	}
	return issues
}

func validateOutputName(key, name string) []string {
	if name == "" {
		return nil
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return []string{fmt.Sprintf("%s must be a file name inside the run directory, got %q", key, name)}
	}
	return nil
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(t.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing.protocol %q is not supported (use grpc or http)", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing.sample_rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	return issues
}
