package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"mercator-hq/flowlog/pkg/config"
	"mercator-hq/flowlog/pkg/loki"
)

// Outcome labels shared by the tool and reload metrics.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Collector owns the Prometheus registry and every flowlog metric.
//
// It satisfies loki.Observer and workflows.ReloadObserver, so it can be
// handed directly to the Loki client and the workflow store. When metrics
// are disabled every Record/Observe call is a no-op, but the registry and
// handler still work.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	query   *QueryMetrics
	tools   *ToolMetrics
	catalog *CatalogMetrics
	http    *HTTPMetrics
}

// NewCollector creates a collector that registers into registry, or into a
// fresh registry when nil.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.QueryDurationBuckets) == 0 {
		cfg.QueryDurationBuckets = config.DefaultQueryDurationBuckets
	}
	if len(cfg.RecordCountBuckets) == 0 {
		cfg.RecordCountBuckets = config.DefaultRecordCountBuckets
	}

	return &Collector{
		config:   cfg,
		registry: registry,
		query:    NewQueryMetrics(cfg, registry),
		tools:    NewToolMetrics(cfg, registry),
		catalog:  NewCatalogMetrics(cfg, registry),
		http:     NewHTTPMetrics(cfg, registry),
	}
}

// ObserveQuery records one Loki range query.
func (c *Collector) ObserveQuery(direction loki.Direction, outcome string, duration time.Duration, records int) {
	if !c.config.Enabled {
		return
	}
	c.query.Record(string(direction), outcome, duration, records)
}

// RecordToolInvocation records one tool call. outcome is OutcomeSuccess or
// an error type label.
func (c *Collector) RecordToolInvocation(tool, outcome string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.tools.Record(tool, outcome, duration)
}

// ObserveReload records a workflow catalog reload.
func (c *Collector) ObserveReload(size int, duration time.Duration, err error) {
	if !c.config.Enabled {
		return
	}
	c.catalog.Record(size, duration, err)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
