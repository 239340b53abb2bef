package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys in the flowlog namespace.
const (
	AttrTool       = "flowlog.tool"
	AttrRunName    = "flowlog.run_name"
	AttrWorkflow   = "flowlog.workflow"
	AttrRecords    = "flowlog.records"
	AttrFound      = "flowlog.workflow.found"
	AttrErrorType  = "flowlog.error.type"
	AttrRequestID  = "flowlog.request_id"
	AttrOutputSize = "flowlog.output_bytes"
)

// SetToolAttributes tags span with the tool being invoked.
func SetToolAttributes(span trace.Span, tool, requestID string) {
	attrs := []attribute.KeyValue{attribute.String(AttrTool, tool)}
	if requestID != "" {
		attrs = append(attrs, attribute.String(AttrRequestID, requestID))
	}
	span.SetAttributes(attrs...)
}

// SetErrorType tags span with a classified error type and records err.
func SetErrorType(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}
	span.SetAttributes(attribute.String(AttrErrorType, errorType))
	SetStatus(span, err)
}
