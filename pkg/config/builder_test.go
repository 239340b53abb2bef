package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig creates a new ConfigBuilder with sensible defaults for testing.
// The resulting configuration is valid and can be used immediately.
func NewTestConfig() *ConfigBuilder {
	return &ConfigBuilder{cfg: *Default()}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithLokiURL sets the Loki base URL.
func (b *ConfigBuilder) WithLokiURL(url string) *ConfigBuilder {
	b.cfg.Loki.BaseURL = url
	return b
}

// WithBasicAuth sets Loki basic credentials.
func (b *ConfigBuilder) WithBasicAuth(username, password string) *ConfigBuilder {
	b.cfg.Loki.Username = username
	b.cfg.Loki.Password = password
	return b
}

// WithBearerToken sets the Loki bearer token.
func (b *ConfigBuilder) WithBearerToken(token string) *ConfigBuilder {
	b.cfg.Loki.BearerToken = token
	return b
}

// WithLokiTimeout sets the Loki timeout.
func (b *ConfigBuilder) WithLokiTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.Loki.Timeout = d
	return b
}

// WithGit enables Git workflow sync.
func (b *ConfigBuilder) WithGit(repository string) *ConfigBuilder {
	b.cfg.Workflows.Git.Enabled = true
	b.cfg.Workflows.Git.Repository = repository
	return b
}

// WithTracingEnabled enables tracing with the given endpoint.
func (b *ConfigBuilder) WithTracingEnabled(enabled bool, endpoint string) *ConfigBuilder {
	b.cfg.Telemetry.Tracing.Enabled = enabled
	b.cfg.Telemetry.Tracing.Endpoint = endpoint
	return b
}
