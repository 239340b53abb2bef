package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/flowlog/pkg/config"
)

// ToolMetrics tracks consumer-facing tool invocations.
type ToolMetrics struct {
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewToolMetrics creates and registers tool metrics.
func NewToolMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ToolMetrics {
	tm := &ToolMetrics{
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tool_invocations_total",
				Help:      "Total number of tool invocations by tool and outcome",
			},
			[]string{"tool", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tool_duration_seconds",
				Help:      "Duration of tool invocations in seconds",
				Buckets:   cfg.QueryDurationBuckets,
			},
			[]string{"tool"},
		),
	}

	registry.MustRegister(tm.invocations, tm.duration)

	return tm
}

// Record records one invocation.
func (tm *ToolMetrics) Record(tool, outcome string, duration time.Duration) {
	tm.invocations.WithLabelValues(tool, outcome).Inc()
	tm.duration.WithLabelValues(tool).Observe(duration.Seconds())
}
