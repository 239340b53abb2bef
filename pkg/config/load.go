package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable override.
const EnvPrefix = "FLOWLOG_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	cfg, err := readConfig(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention FLOWLOG_SECTION_FIELD (e.g., FLOWLOG_LOKI_BASE_URL).
// Environment variables always take precedence over file-based configuration.
// An empty path skips the file and starts from defaults.
//
// The loading sequence is:
// 1. Start from Default()
// 2. Decode YAML from file on top
// 3. Apply environment variable overrides
// 4. Fill remaining zero values with defaults
// 5. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = readConfig(path); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// readConfig decodes the file on top of Default() and applies defaults to
// anything the file zeroed.
func readConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	// Expand ${VAR} references so secrets can stay in the environment.
	data = []byte(os.ExpandEnv(string(data)))

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format FLOWLOG_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Loki overrides
	envString("LOKI_BASE_URL", &cfg.Loki.BaseURL)
	envString("LOKI_USERNAME", &cfg.Loki.Username)
	envString("LOKI_PASSWORD", &cfg.Loki.Password)
	envString("LOKI_BEARER_TOKEN", &cfg.Loki.BearerToken)
	envDuration("LOKI_TIMEOUT", &cfg.Loki.Timeout)
	envString("LOKI_USER_AGENT", &cfg.Loki.UserAgent)

	// Runs overrides
	envString("RUNS_QUERY_TEMPLATE", &cfg.Runs.QueryTemplate)
	envFloat("RUNS_LOOKBACK_HOURS", &cfg.Runs.LookbackHours)
	envInt("RUNS_LIMIT", &cfg.Runs.Limit)
	envString("RUNS_DIRECTION", &cfg.Runs.Direction)
	envFloat("RUNS_STEP_SECONDS", &cfg.Runs.StepSeconds)
	envBool("RUNS_STRICT_PAYLOADS", &cfg.Runs.StrictPayloads)

	// Workflows overrides
	envString("WORKFLOWS_DIR", &cfg.Workflows.Dir)
	envBool("WORKFLOWS_OPTIONAL", &cfg.Workflows.Optional)
	envBool("WORKFLOWS_WATCH", &cfg.Workflows.Watch)
	envBool("WORKFLOWS_GIT_ENABLED", &cfg.Workflows.Git.Enabled)
	envString("WORKFLOWS_GIT_REPOSITORY", &cfg.Workflows.Git.Repository)
	envString("WORKFLOWS_GIT_BRANCH", &cfg.Workflows.Git.Branch)
	envString("WORKFLOWS_GIT_PATH", &cfg.Workflows.Git.Path)
	envString("WORKFLOWS_GIT_LOCAL_PATH", &cfg.Workflows.Git.LocalPath)
	envString("WORKFLOWS_GIT_SYNC_SCHEDULE", &cfg.Workflows.Git.SyncSchedule)
	envString("WORKFLOWS_GIT_AUTH_TYPE", &cfg.Workflows.Git.Auth.Type)
	envString("WORKFLOWS_GIT_AUTH_TOKEN", &cfg.Workflows.Git.Auth.Token)
	envString("WORKFLOWS_GIT_AUTH_SSH_KEY_PATH", &cfg.Workflows.Git.Auth.SSHKeyPath)

	// Agent overrides
	envString("AGENT_MODEL", &cfg.Agent.Model)
	envString("AGENT_INSTRUCTIONS_FILE", &cfg.Agent.InstructionsFile)

	// Server overrides
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envBool("SERVER_GZIP", &cfg.Server.Gzip)
	envBool("SERVER_AUTH_ENABLED", &cfg.Server.Auth.Enabled)
	envList("SERVER_AUTH_API_KEYS", &cfg.Server.Auth.APIKeys)
	envFloat("SERVER_LIMITS_REQUESTS_PER_SECOND", &cfg.Server.Limits.RequestsPerSecond)
	envInt("SERVER_LIMITS_BURST", &cfg.Server.Limits.Burst)
	envInt("SERVER_LIMITS_MAX_CONCURRENT", &cfg.Server.Limits.MaxConcurrent)
	envBool("SERVER_TLS_ENABLED", &cfg.Server.TLS.Enabled)
	envString("SERVER_TLS_CERT_FILE", &cfg.Server.TLS.CertFile)
	envString("SERVER_TLS_KEY_FILE", &cfg.Server.TLS.KeyFile)
	envString("SERVER_TLS_CLIENT_CA_FILE", &cfg.Server.TLS.ClientCAFile)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	envFloat("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)
	envBool("TELEMETRY_TRACING_OTLP_INSECURE", &cfg.Telemetry.Tracing.OTLP.Insecure)
}

func envString(key string, dst *string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val
	}
}

// envList splits a comma separated value, dropping empty items.
func envList(key string, dst *[]string) {
	val := os.Getenv(EnvPrefix + key)
	if val == "" {
		return
	}
	var items []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*dst = items
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envFloat(key string, dst *float64) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
