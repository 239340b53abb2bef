package config

import (
	"math"
	"time"
)

// Default values for configuration fields.
const (
	// Loki defaults
	DefaultLokiBaseURL   = "http://loki:3100"
	DefaultLokiTimeout   = 10 * time.Second
	DefaultLokiUserAgent = "flowlog"

	// Runs defaults
	DefaultRunsQueryTemplate = `{source="nextflow"} | json | nextflow_run={{.RunName}}`
	DefaultRunsLookbackHours = 72.0
	DefaultRunsLimit         = 5000
	DefaultRunsDirection     = "FORWARD"

	// Workflows defaults
	DefaultWorkflowsDir           = "/nextflow/workflows"
	DefaultWorkflowsExtension     = ".nf"
	DefaultWorkflowsWatchDebounce = 250 * time.Millisecond
	DefaultGitBranch              = "main"
	DefaultGitDepth               = 1
	DefaultGitTimeout             = 30 * time.Second
	DefaultGitAuthType            = "none"
	DefaultGitLocalDir            = "flowlog-workflows"

	// Agent defaults
	DefaultAgentName       = "Workflow Observability Agent"
	DefaultAgentModel      = "gpt-5.1"
	DefaultAgentToolChoice = "required"

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultMaxBodyBytes    = int64(1048576)
	DefaultServerGzip      = true
	DefaultTLSMinVersion   = "1.3"

	// Telemetry defaults
	DefaultLoggingLevel        = "info"
	DefaultLoggingFormat       = "json"
	DefaultLoggingRedact       = true
	DefaultMetricsEnabled      = true
	DefaultPrometheusPath      = "/metrics"
	DefaultMetricsNamespace    = "flowlog"
	DefaultTracingSampler      = "ratio"
	DefaultTracingSamplingRate = 1.0
	DefaultTracingServiceName  = "flowlog"
	DefaultOTLPTimeout         = 10 * time.Second
	DefaultHealthEnabled       = true
	DefaultLivenessPath        = "/health"
	DefaultReadinessPath       = "/ready"
	DefaultVersionPath         = "/version"
	DefaultHealthCheckTimeout  = 5 * time.Second
)

// Default histogram buckets.
var (
	DefaultQueryDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	DefaultRecordCountBuckets   = []float64{0, 10, 100, 500, 1000, 2500, 5000, 10000}
)

// Default returns a configuration with every default applied, including the
// defaults that ApplyDefaults cannot infer from zero values. Files are
// decoded on top of it so an explicit "false" in YAML is respected.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Gzip = DefaultServerGzip
	cfg.Telemetry.Logging.Redact = DefaultLoggingRedact
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Health.Enabled = DefaultHealthEnabled
	// Depth 0 means a full clone, so it cannot be inferred from zero either.
	cfg.Workflows.Git.Depth = DefaultGitDepth
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Loki defaults
	if cfg.Loki.BaseURL == "" {
		cfg.Loki.BaseURL = DefaultLokiBaseURL
	}
	if cfg.Loki.Timeout == 0 {
		cfg.Loki.Timeout = DefaultLokiTimeout
	}
	if cfg.Loki.UserAgent == "" {
		cfg.Loki.UserAgent = DefaultLokiUserAgent
	}

	// Runs defaults
	if cfg.Runs.QueryTemplate == "" {
		cfg.Runs.QueryTemplate = DefaultRunsQueryTemplate
	}
	if cfg.Runs.LookbackHours == 0 {
		cfg.Runs.LookbackHours = DefaultRunsLookbackHours
	}
	if cfg.Runs.Limit == 0 {
		cfg.Runs.Limit = DefaultRunsLimit
	}
	if cfg.Runs.Direction == "" {
		cfg.Runs.Direction = DefaultRunsDirection
	}

	applyWorkflowsDefaults(&cfg.Workflows)

	// Agent defaults
	if cfg.Agent.Name == "" {
		cfg.Agent.Name = DefaultAgentName
	}
	if cfg.Agent.Model == "" {
		cfg.Agent.Model = DefaultAgentModel
	}
	if cfg.Agent.ToolChoice == "" {
		cfg.Agent.ToolChoice = DefaultAgentToolChoice
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.TLS.MinVersion == "" {
		cfg.Server.TLS.MinVersion = DefaultTLSMinVersion
	}
	if cfg.Server.Limits.RequestsPerSecond > 0 && cfg.Server.Limits.Burst == 0 {
		cfg.Server.Limits.Burst = int(math.Max(1, math.Ceil(cfg.Server.Limits.RequestsPerSecond*2)))
	}

	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyWorkflowsDefaults(cfg *WorkflowsConfig) {
	if cfg.Dir == "" {
		cfg.Dir = DefaultWorkflowsDir
	}
	if cfg.Extension == "" {
		cfg.Extension = DefaultWorkflowsExtension
	}
	if cfg.WatchDebounce == 0 {
		cfg.WatchDebounce = DefaultWorkflowsWatchDebounce
	}

	git := &cfg.Git
	if git.Branch == "" {
		git.Branch = DefaultGitBranch
	}
	if git.Timeout == 0 {
		git.Timeout = DefaultGitTimeout
	}
	if git.Auth.Type == "" {
		git.Auth.Type = DefaultGitAuthType
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Metrics.QueryDurationBuckets) == 0 {
		cfg.Metrics.QueryDurationBuckets = append([]float64(nil), DefaultQueryDurationBuckets...)
	}
	if len(cfg.Metrics.RecordCountBuckets) == 0 {
		cfg.Metrics.RecordCountBuckets = append([]float64(nil), DefaultRecordCountBuckets...)
	}

	if cfg.Tracing.Sampler == "" {
		cfg.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultTracingSamplingRate
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Tracing.OTLP.Timeout == 0 {
		cfg.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}

	if cfg.Health.LivenessPath == "" {
		cfg.Health.LivenessPath = DefaultLivenessPath
	}
	if cfg.Health.ReadinessPath == "" {
		cfg.Health.ReadinessPath = DefaultReadinessPath
	}
	if cfg.Health.VersionPath == "" {
		cfg.Health.VersionPath = DefaultVersionPath
	}
	if cfg.Health.CheckTimeout == 0 {
		cfg.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
