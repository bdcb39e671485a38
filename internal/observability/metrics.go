package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// weather gateway.
type Metrics struct {
	// Cache metrics.
	CacheLookups *prometheus.CounterVec // labels: kind={forecast,current,alerts}, result={hit,miss}

	// Upstream metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: kind, outcome={success,error,timeout}
	UpstreamDuration *prometheus.HistogramVec // labels: kind
	DedupJoined      *prometheus.CounterVec   // labels: kind — callers that joined an in-flight fetch
	FallbackServed   *prometheus.CounterVec   // labels: kind

	// Active-location metrics.
	WatcherRunning prometheus.Gauge
	AlertsRaised   *prometheus.CounterVec // labels: level={moderate,high,severe}
}

// NewMetrics creates and registers all gateway metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_gateway",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by data kind and result.",
		}, []string{"kind", "result"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_gateway",
			Name:      "upstream_requests_total",
			Help:      "Upstream weather API requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "weather_gateway",
			Name:      "upstream_duration_seconds",
			Help:      "Upstream weather API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		DedupJoined: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_gateway",
			Name:      "dedup_joined_total",
			Help:      "Callers that joined an identical in-flight upstream fetch.",
		}, []string{"kind"}),
		FallbackServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_gateway",
			Name:      "fallback_served_total",
			Help:      "Synthesized fallback payloads served after upstream failures.",
		}, []string{"kind"}),
		WatcherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_gateway",
			Name:      "watcher_running",
			Help:      "1 when the active-location watcher is running, 0 otherwise.",
		}),
		AlertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_gateway",
			Name:      "flash_flood_alerts_total",
			Help:      "Flash-flood alerts derived from forecasts, by aggregate level.",
		}, []string{"level"}),
	}

	prometheus.MustRegister(
		m.CacheLookups,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.DedupJoined,
		m.FallbackServed,
		m.WatcherRunning,
		m.AlertsRaised,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		CacheLookups:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_gateway", Name: "cache_lookups_total"}, []string{"kind", "result"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_gateway", Name: "upstream_requests_total"}, []string{"kind", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "weather_gateway", Name: "upstream_duration_seconds"}, []string{"kind"}),
		DedupJoined:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_gateway", Name: "dedup_joined_total"}, []string{"kind"}),
		FallbackServed:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_gateway", Name: "fallback_served_total"}, []string{"kind"}),
		WatcherRunning:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "weather_gateway", Name: "watcher_running"}),
		AlertsRaised:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_gateway", Name: "flash_flood_alerts_total"}, []string{"level"}),
	}
}
