// Package metrics exposes flowlog's Prometheus metrics.
//
// # Metrics
//
//   - flowlog_loki_queries_total{direction,outcome}
//   - flowlog_loki_query_duration_seconds{direction}
//   - flowlog_loki_query_records
//   - flowlog_tool_invocations_total{tool,outcome}
//   - flowlog_tool_duration_seconds{tool}
//   - flowlog_workflow_reloads_total{outcome}
//   - flowlog_workflow_reload_duration_seconds
//   - flowlog_workflows
//   - flowlog_workflow_last_reload_success_timestamp_seconds
//   - flowlog_http_requests_total{route,method,code}
//   - flowlog_http_request_duration_seconds{route,method}
//   - flowlog_http_requests_in_flight
//
// Outcome labels are "success" or a loki.ErrorType value ("timeout",
// "query", ...), which keeps label cardinality fixed.
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	client, err := loki.NewClient(lokiCfg, loki.WithObserver(collector))
//	store, err := workflows.NewStore(load, workflows.WithReloadObserver(collector))
//
//	mux.Handle("/metrics", collector.Handler())
package metrics
