// Package metrics defines the Prometheus collectors used by the pipeline and
// the search service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	StageDuration         *prometheus.HistogramVec
	StageRunsTotal        *prometheus.CounterVec
	DocumentsCollected    prometheus.Counter
	EmptyDocuments        prometheus.Counter
	PostingsIndexed       prometheus.Counter
	TermsIndexed          prometheus.Gauge
	QueriesScoredTotal    *prometheus.CounterVec
	QueryLatency          prometheus.Histogram
	InconsistentDocuments prometheus.Counter
	CacheHitsTotal        prometheus.Counter
	CacheMissesTotal      prometheus.Counter
	SinkWritesTotal       *prometheus.CounterVec
}

// New creates all collectors and registers them on reg. A nil reg falls
// back to the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vsm_stage_duration_seconds",
				Help:    "Wall time of each pipeline stage.",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"stage"},
		),
		StageRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vsm_stage_runs_total",
				Help: "Pipeline stage executions by stage and status.",
			},
			[]string{"stage", "status"},
		),
		DocumentsCollected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vsm_documents_collected_total",
				Help: "Documents read from the corpus.",
			},
		),
		EmptyDocuments: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vsm_documents_empty_total",
				Help: "Documents that produced no tokens.",
			},
		),
		PostingsIndexed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vsm_postings_indexed_total",
				Help: "Postings appended to the inverted index.",
			},
		),
		TermsIndexed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vsm_terms_indexed",
				Help: "Distinct terms in the most recent vector model.",
			},
		),
		QueriesScoredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vsm_queries_scored_total",
				Help: "Queries scored by outcome (ranked, empty, error).",
			},
			[]string{"outcome"},
		),
		QueryLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vsm_query_latency_seconds",
				Help:    "Time to score and rank one query.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		InconsistentDocuments: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vsm_inconsistent_documents_total",
				Help: "Documents skipped at query time because the model lacks them.",
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses.",
			},
		),
		SinkWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vsm_sink_writes_total",
				Help: "Result sink writes by sink and status.",
			},
			[]string{"sink", "status"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.StageDuration,
		m.StageRunsTotal,
		m.DocumentsCollected,
		m.EmptyDocuments,
		m.PostingsIndexed,
		m.TermsIndexed,
		m.QueriesScoredTotal,
		m.QueryLatency,
		m.InconsistentDocuments,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.SinkWritesTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler for g, or for the
// default gatherer when g is nil.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
