package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
loki:
  base_url: "https://loki.example.com/"
  bearer_token: "token-123"
  timeout: "5s"

runs:
  lookback_hours: 24
  limit: 1000

workflows:
  dir: "/srv/workflows"
  definitions:
    unreliable-exome: "/srv/extra/unreliable-exome.nf"

server:
  listen_address: "0.0.0.0:9000"
  gzip: false

telemetry:
  logging:
    level: "debug"
    format: "text"
  metrics:
    enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Loki.BaseURL != "https://loki.example.com/" {
		t.Errorf("expected base URL from file, got %q", cfg.Loki.BaseURL)
	}
	if cfg.Loki.BearerToken != "token-123" {
		t.Errorf("expected bearer token from file, got %q", cfg.Loki.BearerToken)
	}
	if cfg.Loki.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.Loki.Timeout)
	}
	if cfg.Runs.LookbackHours != 24 || cfg.Runs.Limit != 1000 {
		t.Errorf("unexpected runs config: %+v", cfg.Runs)
	}
	if cfg.Runs.Direction != DefaultRunsDirection {
		t.Errorf("expected default direction, got %q", cfg.Runs.Direction)
	}
	if cfg.Workflows.Definitions["unreliable-exome"] != "/srv/extra/unreliable-exome.nf" {
		t.Errorf("unexpected definitions: %v", cfg.Workflows.Definitions)
	}
	if cfg.Server.Gzip {
		t.Error("expected explicit gzip: false to be respected")
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected explicit metrics.enabled: false to be respected")
	}
	if !cfg.Telemetry.Health.Enabled {
		t.Error("expected health to keep its default when not set")
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfig_ExpandsEnvReferences(t *testing.T) {
	t.Setenv("TEST_LOKI_TOKEN", "from-env")

	path := writeConfig(t, `
loki:
  bearer_token: "${TEST_LOKI_TOKEN}"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Loki.BearerToken != "from-env" {
		t.Errorf("expected expanded token, got %q", cfg.Loki.BearerToken)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
	if !strings.Contains(err.Error(), "failed to read configuration file") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "loki:\n  base_url: [unclosed\n")

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for malformed YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse configuration file") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
loki:
  username: "user"
  password: "pass"
  bearer_token: "token"
`)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var validationErr ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError in chain, got %T", err)
	}
	if validationErr.Errors[0].Field != "loki.bearer_token" {
		t.Errorf("unexpected field: %s", validationErr.Errors[0].Field)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
loki:
  base_url: "http://file:3100"
  timeout: "5s"
runs:
  limit: 10
`)

	t.Setenv("FLOWLOG_LOKI_BASE_URL", "http://env:3100")
	t.Setenv("FLOWLOG_LOKI_TIMEOUT", "20s")
	t.Setenv("FLOWLOG_RUNS_LIMIT", "250")
	t.Setenv("FLOWLOG_RUNS_LOOKBACK_HOURS", "1.5")
	t.Setenv("FLOWLOG_WORKFLOWS_WATCH", "true")
	t.Setenv("FLOWLOG_SERVER_WRITE_TIMEOUT", "90s")
	t.Setenv("FLOWLOG_TELEMETRY_LOGGING_LEVEL", "warn")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Loki.BaseURL != "http://env:3100" {
		t.Errorf("expected base URL from env, got %q", cfg.Loki.BaseURL)
	}
	if cfg.Loki.Timeout != 20*time.Second {
		t.Errorf("expected timeout from env, got %v", cfg.Loki.Timeout)
	}
	if cfg.Runs.Limit != 250 {
		t.Errorf("expected limit from env, got %d", cfg.Runs.Limit)
	}
	if cfg.Runs.LookbackHours != 1.5 {
		t.Errorf("expected lookback from env, got %v", cfg.Runs.LookbackHours)
	}
	if !cfg.Workflows.Watch {
		t.Error("expected watch from env")
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("expected logging level from env, got %q", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfigWithEnvOverrides_NoFile(t *testing.T) {
	t.Setenv("FLOWLOG_LOKI_BEARER_TOKEN", "secret")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Loki.BaseURL != DefaultLokiBaseURL {
		t.Errorf("expected default base URL, got %q", cfg.Loki.BaseURL)
	}
	if cfg.Loki.BearerToken != "secret" {
		t.Errorf("expected bearer token from env, got %q", cfg.Loki.BearerToken)
	}
}

func TestLoadConfigWithEnvOverrides_ServerProtection(t *testing.T) {
	t.Setenv("FLOWLOG_SERVER_AUTH_ENABLED", "true")
	t.Setenv("FLOWLOG_SERVER_AUTH_API_KEYS", " key-one, ,key-two ")
	t.Setenv("FLOWLOG_SERVER_LIMITS_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("FLOWLOG_SERVER_LIMITS_MAX_CONCURRENT", "4")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if !cfg.Server.Auth.Enabled {
		t.Error("expected auth enabled from env")
	}
	if len(cfg.Server.Auth.APIKeys) != 2 || cfg.Server.Auth.APIKeys[1] != "key-two" {
		t.Errorf("unexpected API keys %q", cfg.Server.Auth.APIKeys)
	}
	if cfg.Server.Limits.Burst != 5 {
		t.Errorf("expected derived burst 5, got %d", cfg.Server.Limits.Burst)
	}
	if cfg.Server.Limits.MaxConcurrent != 4 {
		t.Errorf("expected max concurrent 4, got %d", cfg.Server.Limits.MaxConcurrent)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidEnvValues(t *testing.T) {
	t.Setenv("FLOWLOG_LOKI_TIMEOUT", "not-a-duration")
	t.Setenv("FLOWLOG_RUNS_LIMIT", "many")
	t.Setenv("FLOWLOG_SERVER_GZIP", "perhaps")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Unparseable values are ignored.
	if cfg.Loki.Timeout != DefaultLokiTimeout {
		t.Errorf("expected default timeout, got %v", cfg.Loki.Timeout)
	}
	if cfg.Runs.Limit != DefaultRunsLimit {
		t.Errorf("expected default limit, got %d", cfg.Runs.Limit)
	}
	if !cfg.Server.Gzip {
		t.Error("expected gzip default to survive an invalid override")
	}
}

func TestLoadConfigWithEnvOverrides_ValidationAfterOverrides(t *testing.T) {
	t.Setenv("FLOWLOG_RUNS_DIRECTION", "sideways")

	_, err := LoadConfigWithEnvOverrides("")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "runs.direction") {
		t.Errorf("expected runs.direction in error, got %v", err)
	}
}

func TestLoadConfig_ExampleFile(t *testing.T) {
	t.Setenv("LOKI_BEARER_TOKEN", "example-token")

	cfg, err := LoadConfig(filepath.Join("..", "..", "examples", "config.yaml"))
	if err != nil {
		t.Fatalf("example config does not load: %v", err)
	}

	if cfg.Loki.BearerToken != "example-token" {
		t.Errorf("bearer_token = %q, want the expanded variable", cfg.Loki.BearerToken)
	}
	if cfg.Runs.Direction != "FORWARD" || cfg.Runs.Limit != 5000 {
		t.Errorf("runs = %+v", cfg.Runs)
	}
	if cfg.Server.Limits.Burst != 10 || cfg.Server.Limits.MaxConcurrent != 8 {
		t.Errorf("limits = %+v", cfg.Server.Limits)
	}
	if cfg.Workflows.Definitions["unreliable-exome"] == "" {
		t.Error("expected the explicit workflow definition")
	}
}
