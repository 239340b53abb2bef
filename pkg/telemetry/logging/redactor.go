package logging

import (
	"fmt"
	"regexp"
	"strings"

	"mercator-hq/flowlog/pkg/config"
)

// Built-in pattern names.
const (
	PatternBearerToken = "bearer_token"
	PatternBasicAuth   = "basic_auth"
	PatternURLUserinfo = "url_userinfo"
	PatternPassword    = "password"
)

// Redacted replaces values of sensitive attributes.
const Redacted = "***"

// Redactor scrubs credentials from log values.
type Redactor struct {
	patterns []redactPattern
}

type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

var defaultPatterns = []struct {
	name, regex, replacement string
}{
	{PatternBearerToken, `Bearer\s+[A-Za-z0-9\-._~+/]+=*`, "Bearer ***"},
	{PatternBasicAuth, `Basic\s+[A-Za-z0-9+/]+=*`, "Basic ***"},
	{PatternURLUserinfo, `(://)[^/\s:@]+:[^/\s@]+@`, "${1}***@"},
	{PatternPassword, `(?i)(password|passwd|pwd)([=:]\s*)[^\s&]+`, "${1}${2}***"},
}

// sensitiveKeys are attribute keys whose values are replaced entirely.
var sensitiveKeys = []string{
	"password", "passwd", "passphrase",
	"secret", "token", "authorization",
	"api_key", "apikey", "private_key",
}

// NewRedactor compiles the built-in patterns followed by custom ones.
func NewRedactor(custom []config.RedactPattern) (*Redactor, error) {
	r := &Redactor{}

	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, redactPattern{
			name:        p.name,
			regex:       regexp.MustCompile(p.regex),
			replacement: p.replacement,
		})
	}

	for _, p := range custom {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("redact pattern %q: %w", p.Name, err)
		}
		r.patterns = append(r.patterns, redactPattern{
			name:        p.Name,
			regex:       re,
			replacement: p.Replacement,
		})
	}

	return r, nil
}

// RedactString applies every pattern to value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// IsSensitiveKey reports whether an attribute key names a secret.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
