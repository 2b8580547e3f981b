package dashboard

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's Prometheus collectors
type Metrics struct {
	Refreshes       *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	Classified      *prometheus.CounterVec
	InputErrors     prometheus.Counter
	MemoHits        prometheus.Counter
	Items           prometheus.Gauge
	ActionRequired  prometheus.Gauge
	ActiveEmergency prometheus.Gauge
	SettingsVersion prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "careops_triage_refreshes_total",
			Help: "Data source refreshes by result",
		}, []string{"result"}),

		RefreshDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "careops_triage_refresh_duration_seconds",
			Help:    "Time spent fetching and classifying items",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),

		Classified: f.NewCounterVec(prometheus.CounterOpts{
			Name: "careops_triage_classifications_total",
			Help: "Items classified by resulting tier",
		}, []string{"tier"}),

		InputErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "careops_triage_input_errors_total",
			Help: "Malformed items skipped during classification",
		}),

		MemoHits: f.NewCounter(prometheus.CounterOpts{
			Name: "careops_triage_memo_hits_total",
			Help: "Classifications served from the memo cache",
		}),

		Items: f.NewGauge(prometheus.GaugeOpts{
			Name: "careops_triage_items",
			Help: "Items in the current working set",
		}),

		ActionRequired: f.NewGauge(prometheus.GaugeOpts{
			Name: "careops_triage_action_required_items",
			Help: "Items in the working set that need action",
		}),

		ActiveEmergency: f.NewGauge(prometheus.GaugeOpts{
			Name: "careops_triage_active_emergency",
			Help: "1 while the working set holds an uncleared emergency",
		}),

		SettingsVersion: f.NewGauge(prometheus.GaugeOpts{
			Name: "careops_triage_settings_version",
			Help: "Version of the active settings snapshot",
		}),
	}
}

// Handler serves the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
