package config

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"text/template"
	"time"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "loki.base_url").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateLoki(&cfg.Loki)...)
	errs = append(errs, validateRuns(&cfg.Runs)...)
	errs = append(errs, validateWorkflows(&cfg.Workflows)...)
	errs = append(errs, validateAgent(&cfg.Agent)...)
	errs = append(errs, validateServer(&cfg.Server, cfg.Loki.Timeout)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateLoki validates the backend connection settings.
func validateLoki(cfg *LokiConfig) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(cfg.BaseURL) == "" {
		errs = append(errs, FieldError{
			Field:   "loki.base_url",
			Message: "base URL is required",
		})
	} else if u, err := url.Parse(strings.TrimSpace(cfg.BaseURL)); err != nil {
		errs = append(errs, FieldError{
			Field:   "loki.base_url",
			Message: fmt.Sprintf("invalid URL: %v", err),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, FieldError{
			Field:   "loki.base_url",
			Message: fmt.Sprintf("invalid scheme %q: must be 'http' or 'https'", u.Scheme),
		})
	} else if u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "loki.base_url",
			Message: "host is required",
		})
	}

	if (cfg.Username != "" || cfg.Password != "") && cfg.BearerToken != "" {
		errs = append(errs, FieldError{
			Field:   "loki.bearer_token",
			Message: "bearer token cannot be combined with username/password",
		})
	}

	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "loki.timeout",
			Message: "timeout must be positive",
		})
	}

	return errs
}

// validateRuns validates the run log tool settings.
func validateRuns(cfg *RunsConfig) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(cfg.QueryTemplate) == "" {
		errs = append(errs, FieldError{
			Field:   "runs.query_template",
			Message: "query template is required",
		})
	} else if _, err := template.New("query").Option("missingkey=error").Parse(cfg.QueryTemplate); err != nil {
		errs = append(errs, FieldError{
			Field:   "runs.query_template",
			Message: fmt.Sprintf("invalid template: %v", err),
		})
	} else if !strings.Contains(cfg.QueryTemplate, ".RunName") {
		errs = append(errs, FieldError{
			Field:   "runs.query_template",
			Message: "query template must reference {{.RunName}}",
		})
	}

	if cfg.LookbackHours < 0 || math.IsNaN(cfg.LookbackHours) || math.IsInf(cfg.LookbackHours, 0) {
		errs = append(errs, FieldError{
			Field:   "runs.lookback_hours",
			Message: "lookback hours must be a non-negative number",
		})
	}

	if cfg.Limit < 0 {
		errs = append(errs, FieldError{
			Field:   "runs.limit",
			Message: "limit must be non-negative",
		})
	}

	switch strings.ToUpper(cfg.Direction) {
	case "FORWARD", "BACKWARD":
	default:
		errs = append(errs, FieldError{
			Field:   "runs.direction",
			Message: fmt.Sprintf("invalid direction %q: must be 'FORWARD' or 'BACKWARD'", cfg.Direction),
		})
	}

	if cfg.StepSeconds < 0 || math.IsNaN(cfg.StepSeconds) || math.IsInf(cfg.StepSeconds, 0) {
		errs = append(errs, FieldError{
			Field:   "runs.step_seconds",
			Message: "step must be a non-negative number of seconds",
		})
	}

	return errs
}

// validateWorkflows validates catalog and Git sync settings.
func validateWorkflows(cfg *WorkflowsConfig) []FieldError {
	var errs []FieldError

	if cfg.Dir == "" && len(cfg.Definitions) == 0 && !cfg.Git.Enabled {
		errs = append(errs, FieldError{
			Field:   "workflows.dir",
			Message: "a directory, explicit definitions or a git repository is required",
		})
	}

	if !strings.HasPrefix(cfg.Extension, ".") {
		errs = append(errs, FieldError{
			Field:   "workflows.extension",
			Message: "extension must start with '.'",
		})
	}

	for name, path := range cfg.Definitions {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, FieldError{
				Field:   "workflows.definitions",
				Message: "workflow name cannot be empty",
			})
		}
		if strings.TrimSpace(path) == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("workflows.definitions.%s", name),
				Message: "path is required",
			})
		}
	}

	if cfg.Watch && cfg.WatchDebounce < 0 {
		errs = append(errs, FieldError{
			Field:   "workflows.watch_debounce",
			Message: "debounce must be positive",
		})
	}

	if cfg.Git.Enabled {
		errs = append(errs, validateGit(&cfg.Git)...)
	}

	return errs
}

// validateGit validates Git repository settings.
func validateGit(cfg *GitConfig) []FieldError {
	var errs []FieldError

	if cfg.Repository == "" {
		errs = append(errs, FieldError{
			Field:   "workflows.git.repository",
			Message: "repository is required when git is enabled",
		})
	}
	if cfg.Branch == "" {
		errs = append(errs, FieldError{
			Field:   "workflows.git.branch",
			Message: "branch is required when git is enabled",
		})
	}
	if cfg.Depth < 0 {
		errs = append(errs, FieldError{
			Field:   "workflows.git.depth",
			Message: "depth must be non-negative",
		})
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "workflows.git.timeout",
			Message: "timeout must be positive",
		})
	}

	if cfg.SyncSchedule != "" {
		if _, err := cron.ParseStandard(cfg.SyncSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "workflows.git.sync_schedule",
				Message: fmt.Sprintf("invalid cron schedule %q: %v", cfg.SyncSchedule, err),
			})
		}
	}

	switch cfg.Auth.Type {
	case "none":
	case "token":
		if cfg.Auth.Token == "" {
			errs = append(errs, FieldError{
				Field:   "workflows.git.auth.token",
				Message: "token is required when auth type is 'token'",
			})
		}
	case "ssh":
		if cfg.Auth.SSHKeyPath == "" {
			errs = append(errs, FieldError{
				Field:   "workflows.git.auth.ssh_key_path",
				Message: "ssh key path is required when auth type is 'ssh'",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "workflows.git.auth.type",
			Message: fmt.Sprintf("invalid auth type %q: must be 'token', 'ssh', or 'none'", cfg.Auth.Type),
		})
	}

	return errs
}

// validateAgent validates the agent description.
func validateAgent(cfg *AgentConfig) []FieldError {
	var errs []FieldError

	validChoices := map[string]bool{"auto": true, "required": true, "none": true}
	if !validChoices[cfg.ToolChoice] {
		errs = append(errs, FieldError{
			Field:   "agent.tool_choice",
			Message: fmt.Sprintf("invalid tool choice %q: must be 'auto', 'required', or 'none'", cfg.ToolChoice),
		})
	}

	return errs
}

// validateServer validates tool server configuration.
func validateServer(cfg *ServerConfig, lokiTimeout time.Duration) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	} else if cfg.WriteTimeout > 0 && cfg.WriteTimeout <= lokiTimeout {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: fmt.Sprintf("write timeout (%s) must exceed loki.timeout (%s)", cfg.WriteTimeout, lokiTimeout),
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.idle_timeout",
			Message: "idle timeout must be positive",
		})
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_body_bytes",
			Message: "max body bytes must be non-negative",
		})
	}

	if cfg.Auth.Enabled {
		if len(cfg.Auth.APIKeys) == 0 {
			errs = append(errs, FieldError{
				Field:   "server.auth.api_keys",
				Message: "at least one API key is required when auth is enabled",
			})
		}
		for i, key := range cfg.Auth.APIKeys {
			if strings.TrimSpace(key) == "" {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("server.auth.api_keys[%d]", i),
					Message: "API key must not be empty",
				})
			}
		}
	}

	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" {
			errs = append(errs, FieldError{
				Field:   "server.tls.cert_file",
				Message: "certificate file is required when TLS is enabled",
			})
		}
		if cfg.TLS.KeyFile == "" {
			errs = append(errs, FieldError{
				Field:   "server.tls.key_file",
				Message: "key file is required when TLS is enabled",
			})
		}
	}
	switch cfg.TLS.MinVersion {
	case "", "1.2", "1.3":
	default:
		errs = append(errs, FieldError{
			Field:   "server.tls.min_version",
			Message: fmt.Sprintf("unsupported TLS version %q: must be '1.2' or '1.3'", cfg.TLS.MinVersion),
		})
	}

	if cfg.Limits.RequestsPerSecond < 0 || math.IsNaN(cfg.Limits.RequestsPerSecond) || math.IsInf(cfg.Limits.RequestsPerSecond, 0) {
		errs = append(errs, FieldError{
			Field:   "server.limits.requests_per_second",
			Message: "requests per second must be a non-negative number",
		})
	}
	if cfg.Limits.Burst < 0 {
		errs = append(errs, FieldError{
			Field:   "server.limits.burst",
			Message: "burst must be non-negative",
		})
	}
	if cfg.Limits.MaxConcurrent < 0 {
		errs = append(errs, FieldError{
			Field:   "server.limits.max_concurrent",
			Message: "max concurrent must be non-negative",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	for i, p := range cfg.Logging.RedactPatterns {
		if p.Pattern == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: "pattern is required",
			})
		}
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Path == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path is required when metrics are enabled",
		})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	validSamplers := map[string]bool{"always": true, "never": true, "ratio": true}
	if !validSamplers[cfg.Tracing.Sampler] {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	if cfg.Health.Enabled {
		paths := []struct {
			field string
			value string
		}{
			{"telemetry.health.liveness_path", cfg.Health.LivenessPath},
			{"telemetry.health.readiness_path", cfg.Health.ReadinessPath},
			{"telemetry.health.version_path", cfg.Health.VersionPath},
		}
		for _, p := range paths {
			if p.value == "" {
				errs = append(errs, FieldError{
					Field:   p.field,
					Message: "path is required when health checks are enabled",
				})
			} else if p.value[0] != '/' {
				errs = append(errs, FieldError{
					Field:   p.field,
					Message: "path must start with /",
				})
			}
		}

		if cfg.Health.CheckTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.check_timeout",
				Message: "check timeout must be positive",
			})
		}
		if cfg.Health.CheckTimeout > 60*time.Second {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.check_timeout",
				Message: "check timeout exceeds reasonable limit (60s)",
			})
		}
	}

	return errs
}
