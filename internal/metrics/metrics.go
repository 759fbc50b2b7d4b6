package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	FetchCyclesTotal  *prometheus.CounterVec
	FetchDuration     prometheus.Histogram
	FetchesInFlight   prometheus.Gauge
	ConversionsTotal  *prometheus.CounterVec
	AlertsTriggered   prometheus.Counter
	StreamSubscribers prometheus.Gauge
	CurrentAssetPrice *prometheus.GaugeVec
}

// NewMetrics registers all collectors on reg. Passing a fresh registry per
// server (or per test) avoids duplicate registration panics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),

		FetchCyclesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_fetch_cycles_total",
				Help: "Total number of fetch cycles by trigger and outcome",
			},
			[]string{"trigger", "status"},
		),

		FetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dashboard_fetch_duration_seconds",
				Help:    "Duration of a fetch cycle (snapshot and history requests)",
				Buckets: prometheus.DefBuckets,
			},
		),

		FetchesInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dashboard_fetches_in_flight",
				Help: "Number of fetch cycles currently waiting on the provider",
			},
		),

		ConversionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_conversions_total",
				Help: "Total number of converter requests by direction and outcome",
			},
			[]string{"direction", "outcome"},
		),

		AlertsTriggered: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dashboard_alerts_triggered_total",
				Help: "Total number of times the price alert became visible",
			},
		),

		StreamSubscribers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dashboard_stream_subscribers",
				Help: "Number of connected view state stream clients",
			},
		),

		CurrentAssetPrice: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dashboard_asset_price",
				Help: "Last applied snapshot price of the selected asset",
			},
			[]string{"asset"},
		),
	}
}
