package server

import (
	"encoding/json"
	"net/http"

	"mercator-hq/flowlog/pkg/loki"
	"mercator-hq/flowlog/pkg/server/middleware"
	"mercator-hq/flowlog/pkg/tools"
)

// ErrorTypeBodyTooLarge labels requests over server.max_body_bytes.
const ErrorTypeBodyTooLarge = "body_too_large"

// ErrorResponse is the JSON body of every failed request.
//
//	{"error": {"type": "timeout", "message": "loki unreachable at ..."}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failure.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Error types produced by the middleware in front of the tool routes.
const (
	ErrorTypeUnauthenticated = middleware.ErrorTypeUnauthenticated
	ErrorTypeRateLimited     = middleware.ErrorTypeRateLimited
)

// StatusForErrorType maps an error type label to an HTTP status. Argument
// problems are the caller's fault, backend problems are a bad gateway, and
// an expired deadline is a gateway timeout.
func StatusForErrorType(errType string) int {
	switch errType {
	case loki.ErrorTypeInvalidArgument, tools.ErrorTypeUnknownTool:
		return http.StatusBadRequest
	case ErrorTypeUnauthenticated:
		return http.StatusUnauthorized
	case ErrorTypeBodyTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrorTypeRateLimited:
		return http.StatusTooManyRequests
	case loki.ErrorTypeQuery, loki.ErrorTypeParse, loki.ErrorTypeUnreachable:
		return http.StatusBadGateway
	case loki.ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err with the status derived from its type.
func writeError(w http.ResponseWriter, err error) {
	errType := tools.ErrorType(err)
	writeErrorType(w, StatusForErrorType(errType), errType, err.Error())
}

func writeErrorType(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Type: errType, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
