package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles loading configuration from YAML files.
type Loader struct{}

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

var knownKeys = map[string]bool{
	"gds_path": true, "gdspath": true, "gds": true,
	"cell": true, "path_layer": true, "label_layer": true, "labels": true,
	"input_prefix": true, "output_prefix": true, "bend_radius": true,
	"tolerance": true, "label_tolerance": true, "workers": true, "checks": true,
	"json_output": true, "html_output": true, "tracing": true,
}

var knownTracingKeys = map[string]bool{
	"enabled": true, "endpoint": true, "protocol": true,
	"service_name": true, "sample_rate": true, "insecure": true,
}

// Settings reads the YAML file at path and returns its top-level mapping with
// keys lowercased. A malformed file yields an error wrapping ErrConfigParse.
func (Loader) Settings(path string) (map[string]interface{}, error) {
	if err := CheckExists(path); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var parseErr viper.ConfigParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, path, err)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return v.AllSettings(), nil
}

// Load reads the YAML file at path into a Config. Unknown keys and values of
// the wrong type are reported together as a ValidationError. Load does not
// call Validate.
func (l Loader) Load(path string) (*Config, error) {
	settings, err := l.Settings(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	cfg.ConfigFile = path
	if err := applyConfigSettings(cfg, settings); err != nil {
		return nil, err
	}

	if cfg.GDSPath != "" && !filepath.IsAbs(cfg.GDSPath) {
		cfg.GDSPath = filepath.Join(filepath.Dir(path), cfg.GDSPath)
	}
	return cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	var issues []string
	fail := func(key string, err error) {
		issues = append(issues, fmt.Sprintf("%s: %v", key, err))
	}

	issues = append(issues, unknownKeys("", settings, knownKeys)...)

	if raw, ok := lookupSetting(settings, "gds_path", "gdspath", "gds"); ok {
		if val, err := asString(raw); err != nil {
			fail("gds_path", err)
		} else {
			cfg.GDSPath = strings.TrimSpace(val)
		}
	}

	if raw, ok := lookupSetting(settings, "cell"); ok {
		if val, err := asString(raw); err != nil {
			fail("cell", err)
		} else {
			cfg.Cell = strings.TrimSpace(val)
		}
	}

	if raw, ok := lookupSetting(settings, "path_layer"); ok {
		if layer, err := asLayer(raw); err != nil {
			fail("path_layer", err)
		} else {
			cfg.PathLayer = &layer
		}
	}

	if raw, ok := lookupSetting(settings, "label_layer"); ok {
		if layer, err := asLayer(raw); err != nil {
			fail("label_layer", err)
		} else {
			cfg.LabelLayer = &layer
		}
	}

	if raw, ok := lookupSetting(settings, "labels"); ok {
		if pairs, err := asLabelPairs(raw); err != nil {
			fail("labels", err)
		} else {
			cfg.Labels = pairs
		}
	}

	if raw, ok := lookupSetting(settings, "input_prefix"); ok {
		if val, err := asString(raw); err != nil {
			fail("input_prefix", err)
		} else {
			cfg.InputPrefix = val
		}
	}

	if raw, ok := lookupSetting(settings, "output_prefix"); ok {
		if val, err := asString(raw); err != nil {
			fail("output_prefix", err)
		} else {
			cfg.OutputPrefix = val
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"bend_radius", &cfg.BendRadius},
		{"tolerance", &cfg.Tolerance},
		{"label_tolerance", &cfg.LabelTolerance},
	}
	for _, f := range floats {
		if raw, ok := lookupSetting(settings, f.key); ok {
			if val, err := asFloat64(raw); err != nil {
				fail(f.key, err)
			} else {
				*f.dst = val
			}
		}
	}

	if raw, ok := lookupSetting(settings, "workers"); ok {
		if val, err := asInt(raw); err != nil {
			fail("workers", err)
		} else {
			cfg.Workers = val
		}
	}

	if raw, ok := lookupSetting(settings, "checks"); ok {
		if val, err := asStringSlice(raw); err != nil {
			fail("checks", err)
		} else {
			cfg.Checks = val
		}
	}

	if raw, ok := lookupSetting(settings, "json_output"); ok {
		if val, err := asString(raw); err != nil {
			fail("json_output", err)
		} else {
			cfg.JSONOutput = strings.TrimSpace(val)
		}
	}

	if raw, ok := lookupSetting(settings, "html_output"); ok {
		if val, err := asString(raw); err != nil {
			fail("html_output", err)
		} else {
			cfg.HTMLOutput = strings.TrimSpace(val)
		}
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok && raw != nil {
		tracing, tracingIssues := parseTracing(raw, cfg.Tracing)
		issues = append(issues, tracingIssues...)
		cfg.Tracing = tracing
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func parseTracing(value interface{}, tc TracingConfig) (TracingConfig, []string) {
	settings, err := toStringKeyMap(value)
	if err != nil {
		return tc, []string{fmt.Sprintf("tracing: %v", err)}
	}
	issues := unknownKeys("tracing.", settings, knownTracingKeys)
	fail := func(key string, err error) {
		issues = append(issues, fmt.Sprintf("tracing.%s: %v", key, err))
	}

	if raw, ok := lookupSetting(settings, "enabled"); ok {
		if val, err := asBool(raw); err != nil {
			fail("enabled", err)
		} else {
			tc.Enable = val
		}
	}
	if raw, ok := lookupSetting(settings, "endpoint"); ok {
		if val, err := asString(raw); err != nil {
			fail("endpoint", err)
		} else {
			tc.Endpoint = strings.TrimSpace(val)
		}
	}
	if raw, ok := lookupSetting(settings, "protocol"); ok {
		if val, err := asString(raw); err != nil {
			fail("protocol", err)
		} else {
			tc.Protocol = strings.ToLower(strings.TrimSpace(val))
		}
	}
	if raw, ok := lookupSetting(settings, "service_name"); ok {
		if val, err := asString(raw); err != nil {
			fail("service_name", err)
		} else {
			tc.ServiceName = strings.TrimSpace(val)
		}
	}
	if raw, ok := lookupSetting(settings, "sample_rate"); ok {
		if val, err := asFloat64(raw); err != nil {
			fail("sample_rate", err)
		} else {
			tc.SampleRate = val
		}
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		if val, err := asBool(raw); err != nil {
			fail("insecure", err)
		} else {
			tc.Insecure = val
		}
	}
	return tc, issues
}

func unknownKeys(prefix string, settings map[string]interface{}, known map[string]bool) []string {
	var unknown []string
	for key := range settings {
		if !known[strings.ToLower(key)] {
			unknown = append(unknown, prefix+key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	issues := make([]string, len(unknown))
	for i, key := range unknown {
		issues[i] = fmt.Sprintf("unknown key %q", key)
	}
	return issues
}
