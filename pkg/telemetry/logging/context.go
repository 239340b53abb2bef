package logging

import (
	"context"
	"log/slog"
)

type contextKey string

// Context keys for fields added to every log record.
const (
	RequestIDKey contextKey = "request_id"
	ToolKey      contextKey = "tool"
	RunNameKey   contextKey = "run_name"
	WorkflowKey  contextKey = "workflow"
	TraceIDKey   contextKey = "trace_id"
)

// contextKeys fixes the order fields are emitted in.
var contextKeys = []contextKey{RequestIDKey, TraceIDKey, ToolKey, RunNameKey, WorkflowKey}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return getString(ctx, RequestIDKey)
}

// WithTool adds the invoked tool name to the context.
func WithTool(ctx context.Context, tool string) context.Context {
	return context.WithValue(ctx, ToolKey, tool)
}

// GetTool retrieves the tool name from the context.
func GetTool(ctx context.Context) string {
	return getString(ctx, ToolKey)
}

// WithRunName adds a workflow run name to the context.
func WithRunName(ctx context.Context, run string) context.Context {
	return context.WithValue(ctx, RunNameKey, run)
}

// GetRunName retrieves the run name from the context.
func GetRunName(ctx context.Context) string {
	return getString(ctx, RunNameKey)
}

// WithWorkflow adds a workflow name to the context.
func WithWorkflow(ctx context.Context, workflow string) context.Context {
	return context.WithValue(ctx, WorkflowKey, workflow)
}

// GetWorkflow retrieves the workflow name from the context.
func GetWorkflow(ctx context.Context) string {
	return getString(ctx, WorkflowKey)
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	return getString(ctx, TraceIDKey)
}

func getString(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// contextAttrs returns the non-empty context fields as attributes.
func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	for _, key := range contextKeys {
		if v := getString(ctx, key); v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}
	return attrs
}
