// Package telemetry bundles the observability stack of flowlog.
//
// Components:
//
//   - logging: slog handlers with credential redaction and context fields
//   - metrics: Prometheus collectors for Loki queries, tool calls and
//     workflow catalog reloads
//   - tracing: OpenTelemetry spans exported over OTLP gRPC
//   - health: liveness, readiness and version endpoints
//
// New builds all four from the telemetry section of the configuration:
//
//	tel, err := telemetry.New(&cfg.Telemetry, telemetry.BuildInfo{Version: version})
//	if err != nil {
//		return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	client, err := loki.NewClient(clientCfg,
//		loki.WithLogger(tel.Logger),
//		loki.WithObserver(tel.Metrics),
//		loki.WithTracer(tel.Tracer.Tracer()),
//	)
package telemetry
