package middleware

import (
	"encoding/json"
	"net/http"
)

// Error types written by the middleware.
const (
	ErrorTypeInternal        = "internal"
	ErrorTypeUnauthenticated = "unauthenticated"
	ErrorTypeRateLimited     = "rate_limited"
)

// writeError writes the tool server error envelope.
func writeError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"type":    errType,
			"message": message,
		},
	})
}
