package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

// Metrics holds the collectors for the catalog and location flows. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	CatalogFetches       *prometheus.CounterVec // labels: outcome={success,error}
	CatalogFetchDuration prometheus.Histogram
	LocationResolutions  *prometheus.CounterVec // labels: outcome={resolved,denied,failed}
	DiscardedResults     *prometheus.CounterVec // labels: flow={catalog,location}
	ActiveViewers        prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CatalogFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_fetches_total",
			Help:      "Catalog fetches by outcome.",
		}, []string{"outcome"}),
		CatalogFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_fetch_duration_seconds",
			Help:      "Duration of a catalog fetch, successful or not.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		LocationResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "location_resolutions_total",
			Help:      "Location resolutions by outcome.",
		}, []string{"outcome"}),
		DiscardedResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discarded_results_total",
			Help:      "Results that arrived after their viewer was closed or remounted.",
		}, []string{"flow"}),
		ActiveViewers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_viewers",
			Help:      "Viewers currently mounted.",
		}),
	}

	reg.MustRegister(
		m.CatalogFetches,
		m.CatalogFetchDuration,
		m.LocationResolutions,
		m.DiscardedResults,
		m.ActiveViewers,
	)

	return m
}

// NewForTesting registers against a fresh registry so tests can create as
// many as they need.
func NewForTesting() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) ObserveCatalogFetch(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.CatalogFetches.WithLabelValues(outcome).Inc()
	m.CatalogFetchDuration.Observe(seconds)
}

func (m *Metrics) ObserveResolution(outcome string) {
	if m == nil {
		return
	}
	m.LocationResolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveDiscarded(flow string) {
	if m == nil {
		return
	}
	m.DiscardedResults.WithLabelValues(flow).Inc()
}

func (m *Metrics) ViewerMounted() {
	if m == nil {
		return
	}
	m.ActiveViewers.Inc()
}

func (m *Metrics) ViewerClosed() {
	if m == nil {
		return
	}
	m.ActiveViewers.Dec()
}
