package config

import "time"

// Config is the root configuration structure for flowlog.
// It contains the Loki connection, the run-log and workflow tools, the
// description handed to the external agent, the tool server, and telemetry.
type Config struct {
	// Loki contains the backend connection settings used by every range query.
	Loki LokiConfig `yaml:"loki"`

	// Runs configures the retrieve_logs_for_run tool.
	Runs RunsConfig `yaml:"runs"`

	// Workflows configures where workflow definitions are loaded from.
	Workflows WorkflowsConfig `yaml:"workflows"`

	// Agent describes the agent the tools are published for.
	Agent AgentConfig `yaml:"agent"`

	// Server contains HTTP tool server configuration.
	Server ServerConfig `yaml:"server"`

	// Telemetry contains configuration for observability including logging,
	// metrics, distributed tracing, and health endpoints.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LokiConfig contains the Loki backend connection settings.
type LokiConfig struct {
	// BaseURL is the root URL of the Loki HTTP API.
	// Example: "http://loki:3100"
	// Default: "http://loki:3100"
	BaseURL string `yaml:"base_url"`

	// Username enables HTTP basic authentication together with Password.
	// Must not be combined with BearerToken.
	Username string `yaml:"username"`

	// Password is the basic authentication password (supports env vars).
	Password string `yaml:"password"`

	// BearerToken enables bearer token authentication (supports env vars).
	// Must not be combined with Username/Password.
	BearerToken string `yaml:"bearer_token"`

	// Timeout bounds each range query.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// UserAgent is sent with every request.
	// Default: "flowlog"
	UserAgent string `yaml:"user_agent"`
}

// RunsConfig configures the run log retrieval tool.
type RunsConfig struct {
	// QueryTemplate is the LogQL query rendered for a run. The run name is
	// available as {{.RunName}} and is already quoted as a LogQL string.
	// Default: `{source="nextflow"} | json | nextflow_run={{.RunName}}`
	QueryTemplate string `yaml:"query_template"`

	// LookbackHours is used when a caller does not pass lookback_hours.
	// Default: 72
	LookbackHours float64 `yaml:"lookback_hours"`

	// Limit caps the number of entries returned for a run (0 = no limit).
	// Default: 5000
	Limit int `yaml:"limit"`

	// Direction is the scan order, "FORWARD" or "BACKWARD".
	// Default: "FORWARD"
	Direction string `yaml:"direction"`

	// StepSeconds is the query step (0 = backend default of 60s).
	// Default: 0
	StepSeconds float64 `yaml:"step_seconds"`

	// StrictPayloads rejects log lines that are not JSON objects instead of
	// keeping them under a "line" field.
	// Default: false
	StrictPayloads bool `yaml:"strict_payloads"`
}

// WorkflowsConfig configures the workflow definition catalog.
type WorkflowsConfig struct {
	// Dir is scanned for workflow files at startup.
	// Default: "/nextflow/workflows"
	Dir string `yaml:"dir"`

	// Extension selects the workflow files in Dir and is stripped from lookup
	// names.
	// Default: ".nf"
	Extension string `yaml:"extension"`

	// Definitions maps additional workflow names to file paths. Entries here
	// win over files found in Dir.
	Definitions map[string]string `yaml:"definitions"`

	// Optional makes a missing Dir an empty catalog instead of an error.
	// Default: false
	Optional bool `yaml:"optional"`

	// Watch reloads the catalog when files in Dir change.
	// Default: false
	Watch bool `yaml:"watch"`

	// WatchDebounce is the quiet period before a reload is triggered.
	// Default: 250ms
	WatchDebounce time.Duration `yaml:"watch_debounce"`

	// Git optionally syncs Dir from a Git repository.
	Git GitConfig `yaml:"git"`
}

// GitConfig configures Git-based workflow loading.
type GitConfig struct {
	// Enabled determines if Git mode is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Repository URL (HTTPS, SSH or a local path).
	// Example: "https://github.com/lab/pipelines.git"
	Repository string `yaml:"repository"`

	// Branch to track.
	// Default: "main"
	Branch string `yaml:"branch"`

	// Path within the repository that holds the workflow files.
	// Default: "" (repository root)
	Path string `yaml:"path"`

	// LocalPath is where the repository is cloned.
	// Default: system temp directory + "/flowlog-workflows"
	LocalPath string `yaml:"local_path"`

	// Depth for shallow clones (0 = full clone).
	// Default: 1
	Depth int `yaml:"depth"`

	// Timeout for clone and pull operations.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// CleanOnStart removes LocalPath before cloning.
	// Default: false
	CleanOnStart bool `yaml:"clean_on_start"`

	// SyncSchedule is a cron expression for periodic pulls. Empty disables
	// periodic sync; the repository is still cloned at startup.
	// Example: "*/5 * * * *", "@every 10m"
	SyncSchedule string `yaml:"sync_schedule"`

	// Auth configures Git authentication.
	Auth GitAuthConfig `yaml:"auth"`
}

// GitAuthConfig configures Git authentication.
type GitAuthConfig struct {
	// Type: "token", "ssh", "none"
	// Default: "none"
	Type string `yaml:"type"`

	// Token for HTTPS authentication. Required when Type is "token".
	Token string `yaml:"token"`

	// SSHKeyPath for SSH authentication. Required when Type is "ssh".
	SSHKeyPath string `yaml:"ssh_key_path"`

	// SSHKeyPassphrase for encrypted SSH keys.
	SSHKeyPassphrase string `yaml:"ssh_key_passphrase"`
}

// AgentConfig describes the agent that consumes the tools.
type AgentConfig struct {
	// Name is the agent name published in the manifest.
	// Default: "Workflow Observability Agent"
	Name string `yaml:"name"`

	// Model is the model the orchestrator should run the agent with.
	// Default: "gpt-5.1"
	Model string `yaml:"model"`

	// ToolChoice is passed through to the orchestrator.
	// Options: "auto", "required", "none"
	// Default: "required"
	ToolChoice string `yaml:"tool_choice"`

	// InstructionsFile is read at startup and published as the agent
	// instructions. It takes precedence over Instructions.
	InstructionsFile string `yaml:"instructions_file"`

	// Instructions is inline instruction text used when no file is set.
	Instructions string `yaml:"instructions"`
}

// ServerConfig contains configuration for the HTTP tool server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. It must exceed loki.timeout.
	// Default: 60s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes limits tool argument payloads.
	// Default: 1048576 (1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// Gzip compresses responses for clients that accept it.
	// Default: true
	Gzip bool `yaml:"gzip"`

	// Auth protects the /v1 tool routes with API keys. Probes and metrics
	// stay open.
	Auth ServerAuthConfig `yaml:"auth"`

	// Limits bounds how fast and how many tool calls reach Loki.
	Limits ServerLimitsConfig `yaml:"limits"`

	// TLS serves the tool server over HTTPS.
	TLS ServerTLSConfig `yaml:"tls"`
}

// ServerTLSConfig configures HTTPS for the tool server.
type ServerTLSConfig struct {
	// Enabled turns on TLS.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// CertFile is the PEM-encoded certificate chain.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the PEM-encoded private key.
	KeyFile string `yaml:"key_file"`

	// MinVersion is "1.2" or "1.3".
	// Default: "1.3"
	MinVersion string `yaml:"min_version"`

	// ClientCAFile enables mutual TLS: clients must present a certificate
	// signed by one of these CAs.
	ClientCAFile string `yaml:"client_ca_file"`
}

// ServerAuthConfig configures API key authentication for the tool routes.
type ServerAuthConfig struct {
	// Enabled turns on API key checks.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// APIKeys are the accepted keys (supports env vars). Sent as
	// "Authorization: Bearer <key>" or in the X-API-Key header.
	APIKeys []string `yaml:"api_keys"`
}

// ServerLimitsConfig configures tool invocation limits. Zero disables a
// limit.
type ServerLimitsConfig struct {
	// RequestsPerSecond is the sustained rate of tool invocations.
	// Default: 0 (unlimited)
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst is the number of invocations allowed at once above the rate.
	// Default: 2x RequestsPerSecond, at least 1
	Burst int `yaml:"burst"`

	// MaxConcurrent caps tool invocations in flight.
	// Default: 0 (unlimited)
	MaxConcurrent int `yaml:"max_concurrent"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// Redact scrubs credentials (authorization headers, tokens, passwords)
	// from log attributes.
	// Default: true
	Redact bool `yaml:"redact"`

	// RedactPatterns contains additional redaction patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "flowlog"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: ""
	Subsystem string `yaml:"subsystem"`

	// QueryDurationBuckets defines histogram buckets for query duration (seconds).
	// Default: [0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10]
	QueryDurationBuckets []float64 `yaml:"query_duration_buckets"`

	// RecordCountBuckets defines histogram buckets for records per query.
	// Default: [0, 10, 100, 500, 1000, 2500, 5000, 10000]
	RecordCountBuckets []float64 `yaml:"record_count_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "flowlog"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for the OTLP connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// Enabled controls whether health check endpoints are enabled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// VersionPath is the path for the version information endpoint.
	// Default: "/version"
	VersionPath string `yaml:"version_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
