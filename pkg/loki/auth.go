package loki

import (
	"encoding/base64"
)

// Authentication modes reported by Credentials.Mode.
const (
	AuthModeNone   = "none"
	AuthModeBasic  = "basic"
	AuthModeBearer = "bearer"
)

// Credentials holds the authentication details for the backend. At most one
// of the basic (Username/Password) and bearer (BearerToken) modes may be set.
type Credentials struct {
	// Username and Password enable HTTP basic authentication
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// BearerToken enables bearer token authentication
	BearerToken string `yaml:"bearer_token"`
}

func (c Credentials) hasBasic() bool {
	return c.Username != "" || c.Password != ""
}

func (c Credentials) hasBearer() bool {
	return c.BearerToken != ""
}

// Headers returns the request headers for the configured mode. The conflict
// check runs on every call rather than once at construction.
func (c Credentials) Headers() (map[string]string, error) {
	headers := make(map[string]string, 1)

	switch {
	case c.hasBasic() && c.hasBearer():
		return nil, &ConfigError{
			Field:   "auth",
			Message: "use either basic or bearer credentials, not both",
		}
	case c.hasBasic():
		token := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.Password))
		headers["Authorization"] = "Basic " + token
	case c.hasBearer():
		headers["Authorization"] = "Bearer " + c.BearerToken
	}

	return headers, nil
}

// Mode returns the configured authentication mode. Conflicting credentials
// report "basic+bearer".
func (c Credentials) Mode() string {
	switch {
	case c.hasBasic() && c.hasBearer():
		return AuthModeBasic + "+" + AuthModeBearer
	case c.hasBasic():
		return AuthModeBasic
	case c.hasBearer():
		return AuthModeBearer
	default:
		return AuthModeNone
	}
}

// String never includes secrets.
func (c Credentials) String() string {
	return "loki.Credentials{mode=" + c.Mode() + "}"
}
