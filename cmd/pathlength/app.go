package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/pathlength/internal/config"
	"github.com/torosent/pathlength/internal/gds"
	"github.com/torosent/pathlength/internal/logging"
	"github.com/torosent/pathlength/internal/metrics"
	"github.com/torosent/pathlength/internal/pathlen"
	"github.com/torosent/pathlength/internal/report"
	"github.com/torosent/pathlength/internal/rundir"
	"github.com/torosent/pathlength/internal/threshold"
	"github.com/torosent/pathlength/internal/tracing"
)

const shutdownTimeout = 5 * time.Second

// measurer is the part of pathlen.Engine the CLI depends on.
type measurer interface {
	Measure(ctx context.Context, req pathlen.Request) (report.Table, error)
}

type app struct {
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
	getwd  func() (string, error)
	engine func(zerolog.Logger, trace.Tracer) measurer
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
		getwd:  os.Getwd,
		engine: func(logger zerolog.Logger, tracer trace.Tracer) measurer {
			return pathlen.New(logger, tracer)
		},
	}
}

func (a *app) rootCommand() *cobra.Command {
	var opts config.Options
	cmd := &cobra.Command{
		Use:           "pathlength",
		Short:         "Measure routed trace lengths between labeled ports of a GDSII layout",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), opts)
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	config.RegisterFlags(cmd, &opts)
	cmd.AddCommand(a.sampleCommand())
	return cmd
}

func (a *app) run(ctx context.Context, opts config.Options) error {
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		return err
	}
	console := logging.NewLogger(level, a.now, logging.NewWriter(a.stderr, false))

	if err := config.CheckExists(opts.ConfigPath); err != nil {
		console.Error().Msgf("The configuration file %s doesn't exist, please check", opts.ConfigPath)
		return loggedError{err}
	}

	cwd, err := a.getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	started := a.now()
	run, err := rundir.Prepare(opts.RunDir, cwd, started)
	if err != nil {
		console.Error().Err(err).Msg("cannot prepare run directory")
		return loggedError{err}
	}
	if err := run.Lock(); err != nil {
		console.Error().Err(err).Msg("cannot lock run directory")
		return loggedError{err}
	}
	defer run.Unlock()

	logs, err := logging.New(logging.Options{
		FilePath: run.LogPath,
		Console:  a.stderr,
		Level:    level,
		Now:      a.now,
	})
	if err != nil {
		console.Error().Err(err).Msg("cannot open log file")
		return loggedError{err}
	}
	defer logs.Close()
	logger := logs.Logger
	logger.Info().Str("run_id", run.ID).Str("ulid", run.ULID.String()).Msgf("Run directory: %s", run.Dir)

	cfg, checks, err := loadConfig(logger, opts.ConfigPath)
	if err != nil {
		return loggedError{err}
	}

	provider, err := tracing.Init(ctx, cfg.Tracing,
		attribute.String("pathlength.run_id", run.ID),
		attribute.String("pathlength.ulid", run.ULID.String()),
	)
	if err != nil {
		logger.Error().Err(err).Msg("cannot initialize tracing")
		return loggedError{err}
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	ctx, span := tracing.StartStage(ctx, provider.Tracer(), "run",
		attribute.String("pathlength.run_id", run.ID),
		attribute.String("pathlength.config", cfg.ConfigFile),
	)
	err = a.measure(ctx, logger, provider, run, cfg, checks)
	tracing.EndSpan(span, err)
	if err != nil {
		return loggedError{err}
	}
	return nil
}

// loadConfig reads, validates and parses the checks of the config file,
// logging every problem found.
func loadConfig(logger zerolog.Logger, path string) (*config.Config, []threshold.Threshold, error) {
	cfg, err := config.NewLoader().Load(path)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			for _, issue := range verr.Issues() {
				logger.Error().Msgf("invalid configuration %s: %s", path, issue)
			}
		} else {
			logger.Error().Err(err).Msgf("cannot load configuration %s", path)
		}
		return nil, nil, err
	}

	checks, err := threshold.ParseMultiple(cfg.Checks)
	if err != nil {
		logger.Error().Err(err).Msgf("invalid check in %s", path)
		return nil, nil, err
	}
	return cfg, checks, nil
}

func (a *app) measure(ctx context.Context, logger zerolog.Logger, provider *tracing.Provider, run *rundir.Run, cfg *config.Config, checks []threshold.Threshold) error {
	engine := a.engine(logger, provider.Tracer())

	start := time.Now()
	table, err := engine.Measure(ctx, newRequest(cfg))
	elapsed := time.Since(start)
	if err != nil {
		logger.Error().Err(err).Msg("path length measurement failed")
		return err
	}

	if err := report.WriteCSVFile(run.ReportPath, table); err != nil {
		logger.Error().Err(err).Msg("cannot write report")
		return err
	}

	var buf bytes.Buffer
	if err := report.Format(&buf, table); err != nil {
		return err
	}
	logger.Info().Msg("path_length_report: \n " + buf.String())
	logger.Info().Msgf("Path length execution time: %v sec", elapsed.Seconds())

	collector := metrics.NewCollector()
	for _, row := range table.Rows {
		collector.Record(row.Length, row.Bends)
	}
	stats := collector.Stats()
	logger.Info().
		Int64("routes", stats.Routes).
		Float64("min", stats.MinLength).
		Float64("max", stats.MaxLength).
		Float64("mean", stats.MeanLength).
		Float64("p99", stats.P99Length).
		Float64("skew", stats.Skew).
		Int("max_bends", stats.MaxBends).
		Msg("length statistics")

	var results []threshold.Result
	if len(checks) > 0 {
		results = threshold.NewEvaluator(checks).Evaluate(stats)
		for _, r := range results {
			if r.Pass {
				logger.Info().Msg(r.Message)
			} else {
				logger.Error().Msg(r.Message)
			}
		}
	}

	if cfg.JSONOutput != "" || cfg.HTMLOutput != "" {
		summary := report.NewSummary(report.Metadata{
			RunID:          run.ID,
			ULID:           run.ULID.String(),
			GDSPath:        cfg.GDSPath,
			Cell:           cfg.Cell,
			Traceparent:    traceparent(ctx, provider),
			GeneratedAt:    a.now().UTC(),
			ElapsedSeconds: elapsed.Seconds(),
		}, table, stats, results)
		if err := writeSummaries(logger, run, cfg, summary); err != nil {
			return err
		}
	}
	logger.Info().Msgf("Report written to %s", run.ReportPath)

	if failed := threshold.Failed(results); len(failed) > 0 {
		err := fmt.Errorf("%d of %d checks failed", len(failed), len(results))
		logger.Error().Msg(err.Error())
		return err
	}
	return nil
}

func writeSummaries(logger zerolog.Logger, run *rundir.Run, cfg *config.Config, summary report.Summary) error {
	if cfg.JSONOutput != "" {
		path := run.Path(cfg.JSONOutput)
		if err := report.WriteJSONFile(path, summary); err != nil {
			logger.Error().Err(err).Msg("cannot write JSON report")
			return err
		}
		logger.Info().Msgf("JSON report written to %s", path)
	}
	if cfg.HTMLOutput != "" {
		path := run.Path(cfg.HTMLOutput)
		if err := report.WriteHTMLFile(path, summary); err != nil {
			logger.Error().Err(err).Msg("cannot write HTML report")
			return err
		}
		logger.Info().Msgf("HTML report written to %s", path)
	}
	return nil
}

func traceparent(ctx context.Context, provider *tracing.Provider) string {
	if !provider.Exporting() {
		return ""
	}
	return tracing.Traceparent(ctx)
}

func newRequest(cfg *config.Config) pathlen.Request {
	req := pathlen.Request{
		GDSPath:        cfg.GDSPath,
		Cell:           cfg.Cell,
		PathLayer:      toGDSLayer(*cfg.PathLayer),
		LabelLayer:     toGDSLayer(*cfg.LabelLayer),
		InputPrefix:    cfg.InputPrefix,
		OutputPrefix:   cfg.OutputPrefix,
		BendRadius:     cfg.BendRadius,
		Tolerance:      cfg.Tolerance,
		LabelTolerance: cfg.LabelTolerance,
		Workers:        cfg.Workers,
	}
	for _, p := range cfg.Labels {
		req.Pairs = append(req.Pairs, pathlen.Pair{Input: p.Input, Output: p.Output})
	}
	return req
}

func toGDSLayer(l config.Layer) gds.Layer {
	return gds.Layer{Number: int16(l.Number), Datatype: int16(l.Datatype)}
}
