package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the risk monitor.
type Metrics struct {
	RefreshesTotal   *prometheus.CounterVec // labels: outcome={applied,stale,degraded}
	RefreshDuration  prometheus.Histogram
	MonitorRunning   prometheus.Gauge
	OverallRiskLevel prometheus.Gauge
	ActiveAlerts     prometheus.Gauge

	// Provider metrics.
	ProviderRequests    *prometheus.CounterVec   // labels: resource={weather,risk,alerts,create_alert}, outcome={success,error}
	ProviderCache       *prometheus.CounterVec   // labels: resource, result={hit,miss}
	ProviderCacheSize   prometheus.Gauge
	ProviderAPIDuration *prometheus.HistogramVec // labels: resource
	FallbacksTotal      *prometheus.CounterVec   // labels: resource

	// Sink metrics.
	SnapshotsPublished prometheus.Counter
	PublishErrors      prometheus.Counter
}

// NewMetrics creates and registers all monitor metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.RefreshesTotal,
		m.RefreshDuration,
		m.MonitorRunning,
		m.OverallRiskLevel,
		m.ActiveAlerts,
		m.ProviderRequests,
		m.ProviderCache,
		m.ProviderCacheSize,
		m.ProviderAPIDuration,
		m.FallbacksTotal,
		m.SnapshotsPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RefreshesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_risk",
			Name:      "refreshes_total",
			Help:      "Refresh cycles by outcome.",
		}, []string{"outcome"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climate_risk",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete fetch-classify refresh cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		MonitorRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climate_risk",
			Name:      "monitor_running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
		OverallRiskLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climate_risk",
			Name:      "overall_risk_level",
			Help:      "Overall risk level of the most recently applied snapshot.",
		}),
		ActiveAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climate_risk",
			Name:      "active_alerts",
			Help:      "Number of alerts in the most recently applied snapshot.",
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_risk",
			Name:      "provider_requests_total",
			Help:      "Data provider requests by resource and outcome.",
		}, []string{"resource", "outcome"}),
		ProviderCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_risk",
			Name:      "provider_cache_total",
			Help:      "Provider response cache lookups by resource and result.",
		}, []string{"resource", "result"}),
		ProviderCacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climate_risk",
			Name:      "provider_cache_entries",
			Help:      "Provider responses currently held in the cache.",
		}),
		ProviderAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "climate_risk",
			Name:      "provider_api_duration_seconds",
			Help:      "Data provider request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"resource"}),
		FallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_risk",
			Name:      "fallbacks_total",
			Help:      "Reads replaced by literal fallback data, by resource.",
		}, []string{"resource"}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_risk",
			Name:      "snapshots_published_total",
			Help:      "Snapshots delivered to sinks.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_risk",
			Name:      "publish_errors_total",
			Help:      "Snapshot sink failures.",
		}),
	}
}
