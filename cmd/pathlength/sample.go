package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/torosent/pathlength/internal/gds"
	"github.com/torosent/pathlength/internal/layout"
)

const (
	sampleGDSName    = "demo.gds"
	sampleConfigName = "config.yaml"
	defaultRoutes    = 6
)

// sampleConfig is the config file written next to the sample layout.
type sampleConfig struct {
	GDSPath      string   `yaml:"gds_path"`
	Cell         string   `yaml:"cell"`
	PathLayer    []int    `yaml:"path_layer,flow"`
	LabelLayer   []int    `yaml:"label_layer,flow"`
	InputPrefix  string   `yaml:"input_prefix"`
	OutputPrefix string   `yaml:"output_prefix"`
	BendRadius   float64  `yaml:"bend_radius"`
	Checks       []string `yaml:"checks"`
}

func (a *app) sampleCommand() *cobra.Command {
	var (
		out    string
		routes int
	)
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a demo trace bundle and a config that measures it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.writeSample(out, routes)
		},
	}
	cmd.Flags().StringVar(&out, "out", ".", "Directory to write demo.gds and config.yaml into")
	cmd.Flags().IntVar(&routes, "routes", defaultRoutes, "Number of traces in the bundle")
	return cmd
}

func (a *app) writeSample(dir string, routes int) error {
	if routes < 1 {
		return fmt.Errorf("routes must be >= 1, got %d", routes)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create sample directory: %w", err)
	}

	gdsPath := filepath.Join(dir, sampleGDSName)
	if err := gds.WriteFile(gdsPath, layout.DemoBundle(routes)); err != nil {
		return err
	}

	cfg := sampleConfig{
		GDSPath:      sampleGDSName,
		Cell:         layout.DemoTopCell,
		PathLayer:    []int{int(layout.DemoPathLayer.Number), int(layout.DemoPathLayer.Datatype)},
		LabelLayer:   []int{int(layout.DemoLabelLayer.Number), int(layout.DemoLabelLayer.Datatype)},
		InputPrefix:  "i",
		OutputPrefix: "o",
		Checks:       []string{fmt.Sprintf("routes:count == %d", routes)},
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode sample config: %w", err)
	}
	configPath := filepath.Join(dir, sampleConfigName)
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}

	fmt.Fprintf(a.stdout, "Wrote %s\nWrote %s\n", gdsPath, configPath)
	return nil
}
