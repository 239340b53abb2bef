// Package health serves liveness, readiness and version probes for the
// flowlog tool server.
//
// Liveness answers 200 whenever the process can handle HTTP. Readiness runs
// the registered checks concurrently, each bounded by the configured check
// timeout:
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.Register("loki", health.LokiCheck(client))
//	checker.RegisterOptional("workflows", health.CatalogCheck(store))
//	health.Register(mux, &cfg.Telemetry.Health, checker, health.NewVersionInfo(version, commit, date))
//
// A failing critical check answers 503 with status "unhealthy". A failing
// optional check answers 200 with status "degraded", since log retrieval
// still works without workflow definitions.
package health
