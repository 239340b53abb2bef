// Package tracing sets up OpenTelemetry tracing for flowlog.
//
// Spans produced by the process:
//
//	POST /v1/tools/retrieve_logs_for_run     (server, HTTPMiddleware)
//	└── tool.retrieve_logs_for_run           (pkg/tools)
//	    └── loki.query_range                 (client, pkg/loki)
//
// Spans are exported over OTLP gRPC to telemetry.tracing.endpoint. The
// sampler is parent-based on top of always, never or a trace-ID ratio, so an
// orchestrator that already sampled its trace gets the flowlog spans too.
// Incoming W3C traceparent headers are honored; outgoing Loki requests carry
// the current trace context.
//
// Usage:
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithVersion(version))
//	if err != nil {
//		return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "operation")
//	defer span.End()
//
// With tracing disabled New returns a tracer backed by the no-op provider.
package tracing
