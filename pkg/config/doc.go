// Package config provides configuration management for flowlog.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("flowlog.yaml")
//
//  2. From a YAML file (or defaults only, with an empty path) plus
//     environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("flowlog.yaml")
//
// ${VAR} references inside the file are expanded from the environment before
// parsing, so secrets do not have to be written to disk.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention FLOWLOG_SECTION_FIELD.
// For example:
//
//   - FLOWLOG_LOKI_BASE_URL overrides loki.base_url
//   - FLOWLOG_LOKI_BEARER_TOKEN overrides loki.bearer_token
//   - FLOWLOG_RUNS_LOOKBACK_HOURS overrides runs.lookback_hours
//   - FLOWLOG_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Values that fail to parse are ignored.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (Default and ApplyDefaults in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// Validation collects every problem before failing:
//
//	configuration validation failed with 2 errors:
//	  - loki.bearer_token: bearer token cannot be combined with username/password
//	  - runs.direction: invalid direction "UP": must be 'FORWARD' or 'BACKWARD'
//
// # Example Configuration
//
//	loki:
//	  base_url: "http://loki:3100"
//	  bearer_token: "${LOKI_TOKEN}"
//
//	runs:
//	  lookback_hours: 72
//	  limit: 5000
//
//	workflows:
//	  dir: "/nextflow/workflows"
//	  watch: true
//
//	agent:
//	  instructions_file: "./instructions.md"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
package config
