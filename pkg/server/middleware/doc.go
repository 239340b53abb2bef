// Package middleware provides the HTTP middleware of the flowlog tool
// server.
//
// The server applies, outermost first:
//
//	Recovery -> Logging -> tracing.HTTPMiddleware -> RequestID -> Gzip -> mux
//
// APIKeyAuth and RateLimit are not part of the global chain. The server
// applies them to the /v1 routes only, so probes and metrics stay open.
//
// RequestID runs inside the tracing middleware so the trace ID is available
// when it fills the logging context.
package middleware
