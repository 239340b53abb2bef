package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/flowlog/pkg/config"
)

// CatalogMetrics tracks workflow catalog reloads.
type CatalogMetrics struct {
	reloads        *prometheus.CounterVec
	reloadDuration prometheus.Histogram
	workflows      prometheus.Gauge
	lastSuccess    prometheus.Gauge
}

// NewCatalogMetrics creates and registers catalog metrics.
func NewCatalogMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CatalogMetrics {
	cm := &CatalogMetrics{
		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "workflow_reloads_total",
				Help:      "Total number of workflow catalog reloads by outcome",
			},
			[]string{"outcome"},
		),
		reloadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "workflow_reload_duration_seconds",
				Help:      "Duration of workflow catalog reloads in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 7),
			},
		),
		workflows: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "workflows",
				Help:      "Number of workflows in the current catalog snapshot",
			},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "workflow_last_reload_success_timestamp_seconds",
				Help:      "Unix time of the last successful catalog reload",
			},
		),
	}

	registry.MustRegister(cm.reloads, cm.reloadDuration, cm.workflows, cm.lastSuccess)

	return cm
}

// Record records one reload. The gauges only move on success, since a
// failed reload keeps the previous snapshot.
func (cm *CatalogMetrics) Record(size int, duration time.Duration, err error) {
	cm.reloadDuration.Observe(duration.Seconds())

	if err != nil {
		cm.reloads.WithLabelValues(OutcomeError).Inc()
		return
	}

	cm.reloads.WithLabelValues(OutcomeSuccess).Inc()
	cm.workflows.Set(float64(size))
	cm.lastSuccess.SetToCurrentTime()
}
