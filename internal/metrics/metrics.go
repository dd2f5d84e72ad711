// Package metrics defines the Prometheus collectors exported by the agent,
// grounded on the teacher's internal/adapter/inbound/http/metrics.go: one
// struct of promauto-registered collectors passed by reference into each
// component, rather than package-level globals.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry bundles every collector the agent registers, grouped by the
// subsystem that updates it.
type Registry struct {
	SendTotal      *prometheus.CounterVec
	SendDuration   *prometheus.HistogramVec
	SuspendedTotal *prometheus.CounterVec
	BufferDepth    prometheus.Gauge
	CacheHitTotal  prometheus.Counter
	CacheMissTotal prometheus.Counter

	PolicyCompileDuration prometheus.Histogram
	PolicyCompileErrors   prometheus.Counter
	PolicyRulesActive     prometheus.Gauge

	KeywordCompileTotal *prometheus.CounterVec
	KeywordMatchTotal   *prometheus.CounterVec
}

// NewRegistry creates and registers every collector against reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	a := promauto.With(reg)
	return &Registry{
		SendTotal: a.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "agentcore",
				Subsystem: "messaging",
				Name:      "send_total",
				Help:      "Total messaging client sends",
			},
			[]string{"category", "outcome"},
		),
		SendDuration: a.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "agentcore",
				Subsystem: "messaging",
				Name:      "send_duration_seconds",
				Help:      "Messaging client send latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"category"},
		),
		SuspendedTotal: a.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "agentcore",
				Subsystem: "messaging",
				Name:      "connection_suspended_total",
				Help:      "Total times a pooled connection entered suspension",
			},
			[]string{"category"},
		),
		BufferDepth: a.NewGauge(prometheus.GaugeOpts{
			Namespace: "agentcore",
			Subsystem: "messaging",
			Name:      "buffer_depth",
			Help:      "Current number of messages held in the persistent buffer",
		}),
		CacheHitTotal: a.NewCounter(prometheus.CounterOpts{
			Namespace: "agentcore",
			Subsystem: "messaging",
			Name:      "get_cache_hit_total",
			Help:      "Total GET-response cache hits",
		}),
		CacheMissTotal: a.NewCounter(prometheus.CounterOpts{
			Namespace: "agentcore",
			Subsystem: "messaging",
			Name:      "get_cache_miss_total",
			Help:      "Total GET-response cache misses",
		}),
		PolicyCompileDuration: a.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agentcore",
			Subsystem: "policy",
			Name:      "compile_duration_seconds",
			Help:      "Time to compile one policy source into the canonical rulebase",
			Buckets:   prometheus.DefBuckets,
		}),
		PolicyCompileErrors: a.NewCounter(prometheus.CounterOpts{
			Namespace: "agentcore",
			Subsystem: "policy",
			Name:      "compile_errors_total",
			Help:      "Total policy sources that aborted compilation due to a reference resolution failure",
		}),
		PolicyRulesActive: a.NewGauge(prometheus.GaugeOpts{
			Namespace: "agentcore",
			Subsystem: "policy",
			Name:      "rules_active",
			Help:      "Number of rules in the most recently compiled rulebase",
		}),
		KeywordCompileTotal: a.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "agentcore",
				Subsystem: "keyword",
				Name:      "rule_compile_total",
				Help:      "Total keyword rules compiled",
			},
			[]string{"outcome"},
		),
		KeywordMatchTotal: a.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "agentcore",
				Subsystem: "keyword",
				Name:      "match_total",
				Help:      "Total keyword rule evaluations",
			},
			[]string{"status"},
		),
	}
}
