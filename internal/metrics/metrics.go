// Package metrics exposes Prometheus counters for catalog, pricing and lead traffic.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "autolot"

// Metrics owns a private registry so tests can create as many as they like
type Metrics struct {
	registry *prometheus.Registry

	catalogQueries *prometheus.CounterVec
	catalogResults prometheus.Histogram
	estimates      *prometheus.CounterVec
	leads          *prometheus.CounterVec
	photos         *prometheus.CounterVec
	stockToggles   prometheus.Counter
}

// New registers all collectors, plus Go runtime and process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		catalogQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "queries_total",
			Help:      "Catalog filter queries by cache outcome.",
		}, []string{"cache"}),
		catalogResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "query_results",
			Help:      "Number of vehicles returned per filter query.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		estimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "estimates_total",
			Help:      "Trade-in estimates by condition tier and whether the brand was known.",
		}, []string{"condition", "known_brand"}),
		leads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leads",
			Name:      "submissions_total",
			Help:      "Lead form submissions by kind and outcome.",
		}, []string{"kind", "outcome"}),
		photos: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "photos",
			Name:      "moderated_total",
			Help:      "Sell photo uploads by moderation status.",
		}, []string{"status"}),
		stockToggles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admin",
			Name:      "stock_toggles_total",
			Help:      "Admin stock flag changes.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.catalogQueries,
		m.catalogResults,
		m.estimates,
		m.leads,
		m.photos,
		m.stockToggles,
	)

	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// CatalogQuery records one filter query
func (m *Metrics) CatalogQuery(cacheHit bool, results int) {
	if m == nil {
		return
	}
	outcome := "miss"
	if cacheHit {
		outcome = "hit"
	}
	m.catalogQueries.WithLabelValues(outcome).Inc()
	m.catalogResults.Observe(float64(results))
}

// Estimate records one trade-in valuation
func (m *Metrics) Estimate(condition string, knownBrand bool) {
	if m == nil {
		return
	}
	m.estimates.WithLabelValues(condition, strconv.FormatBool(knownBrand)).Inc()
}

// Lead records a form submission. Outcome is accepted, invalid, throttled or failed.
func (m *Metrics) Lead(kind, outcome string) {
	if m == nil {
		return
	}
	m.leads.WithLabelValues(kind, outcome).Inc()
}

// Photo records a moderation result
func (m *Metrics) Photo(status string) {
	if m == nil {
		return
	}
	m.photos.WithLabelValues(status).Inc()
}

// StockToggled records an admin stock change
func (m *Metrics) StockToggled() {
	if m == nil {
		return
	}
	m.stockToggles.Inc()
}
