package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"mercator-hq/flowlog/pkg/config"
	"mercator-hq/flowlog/pkg/telemetry/health"
	"mercator-hq/flowlog/pkg/telemetry/logging"
	"mercator-hq/flowlog/pkg/telemetry/metrics"
	"mercator-hq/flowlog/pkg/telemetry/tracing"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Telemetry holds the process-wide observability components.
type Telemetry struct {
	Logger  *slog.Logger
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer
	Health  *health.Checker
	Build   BuildInfo
}

// Option customizes New.
type Option func(*options)

type options struct {
	logWriter     io.Writer
	tracerOptions []tracing.Option
	verbose       bool
}

// WithLogWriter sends log output to w instead of stderr.
func WithLogWriter(w io.Writer) Option {
	return func(o *options) { o.logWriter = w }
}

// WithTracerOptions passes extra options to tracing.New.
func WithTracerOptions(opts ...tracing.Option) Option {
	return func(o *options) { o.tracerOptions = append(o.tracerOptions, opts...) }
}

// WithVerbose forces debug level logging.
func WithVerbose(verbose bool) Option {
	return func(o *options) { o.verbose = verbose }
}

// New builds the logger, metrics collector, tracer and health checker
// described by cfg.
func New(cfg *config.TelemetryConfig, build BuildInfo, opts ...Option) (*Telemetry, error) {
	if cfg == nil {
		return nil, errors.New("telemetry config is nil")
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	logCfg := logging.FromConfig(&cfg.Logging, o.logWriter)
	if o.verbose {
		logCfg.Level = "debug"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	tracerOpts := append([]tracing.Option{tracing.WithVersion(build.Version)}, o.tracerOptions...)
	tracer, err := tracing.New(&cfg.Tracing, tracerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	return &Telemetry{
		Logger:  logger,
		Metrics: metrics.NewCollector(&cfg.Metrics, nil),
		Tracer:  tracer,
		Health:  health.New(cfg.Health.CheckTimeout),
		Build:   build,
	}, nil
}

// VersionInfo returns the build info in its served form.
func (t *Telemetry) VersionInfo() health.VersionInfo {
	return health.NewVersionInfo(t.Build.Version, t.Build.Commit, t.Build.BuildTime)
}

// Shutdown flushes pending spans.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.Tracer == nil {
		return nil
	}
	return t.Tracer.Shutdown(ctx)
}
