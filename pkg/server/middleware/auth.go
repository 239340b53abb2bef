package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

// APIKeyHeader is the alternative to "Authorization: Bearer <key>".
const APIKeyHeader = "X-API-Key"

// APIKeyAuth rejects requests without one of keys with 401. Keys are
// compared as SHA-256 digests in constant time.
func APIKeyAuth(keys []string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	digests := make([][sha256.Size]byte, 0, len(keys))
	for _, key := range keys {
		digests = append(digests, sha256.Sum256([]byte(key)))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := extractAPIKey(r)
			if !ok {
				logger.WarnContext(r.Context(), "missing API key",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				w.Header().Set("WWW-Authenticate", `Bearer realm="flowlog"`)
				writeError(w, http.StatusUnauthorized, ErrorTypeUnauthenticated, "missing API key")
				return
			}
			if !validKey(digests, key) {
				logger.WarnContext(r.Context(), "invalid API key",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				w.Header().Set("WWW-Authenticate", `Bearer realm="flowlog", error="invalid_token"`)
				writeError(w, http.StatusUnauthorized, ErrorTypeUnauthenticated, "invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractAPIKey(r *http.Request) (string, bool) {
	if value := r.Header.Get("Authorization"); value != "" {
		scheme, token, found := strings.Cut(value, " ")
		if found && strings.EqualFold(scheme, "Bearer") && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token), true
		}
	}
	if value := strings.TrimSpace(r.Header.Get(APIKeyHeader)); value != "" {
		return value, true
	}
	return "", false
}

// validKey checks every digest so timing does not depend on which key
// matched.
func validKey(digests [][sha256.Size]byte, key string) bool {
	sum := sha256.Sum256([]byte(key))
	match := 0
	for i := range digests {
		match |= subtle.ConstantTimeCompare(sum[:], digests[i][:])
	}
	return match == 1
}
