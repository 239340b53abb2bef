package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/flowlog/pkg/config"
)

// QueryMetrics tracks Loki range queries.
//
// Metrics:
//   - flowlog_loki_queries_total{direction,outcome}
//   - flowlog_loki_query_duration_seconds{direction}
//   - flowlog_loki_query_records (histogram, successful queries only)
type QueryMetrics struct {
	queriesTotal  *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	records       prometheus.Histogram
}

// NewQueryMetrics creates and registers query metrics.
func NewQueryMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *QueryMetrics {
	qm := &QueryMetrics{
		queriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "loki_queries_total",
				Help:      "Total number of Loki range queries by direction and outcome",
			},
			[]string{"direction", "outcome"},
		),
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "loki_query_duration_seconds",
				Help:      "Duration of Loki range queries in seconds",
				Buckets:   cfg.QueryDurationBuckets,
			},
			[]string{"direction"},
		),
		records: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "loki_query_records",
				Help:      "Number of flattened records returned per successful query",
				Buckets:   cfg.RecordCountBuckets,
			},
		),
	}

	registry.MustRegister(qm.queriesTotal, qm.queryDuration, qm.records)

	return qm
}

// Record records one query.
func (qm *QueryMetrics) Record(direction, outcome string, duration time.Duration, records int) {
	qm.queriesTotal.WithLabelValues(direction, outcome).Inc()
	qm.queryDuration.WithLabelValues(direction).Observe(duration.Seconds())
	if outcome == OutcomeSuccess {
		qm.records.Observe(float64(records))
	}
}
