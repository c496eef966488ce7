// Package metrics defines the Prometheus collectors for an evaluation run and
// exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for a run. Each instance owns its
// registry so several runs (or tests) can coexist in one process.
type Metrics struct {
	Registry *prometheus.Registry

	QueriesSubmitted  prometheus.Counter
	RecordsScored     *prometheus.CounterVec
	HitsByRank        *prometheus.CounterVec
	RunningMRR        prometheus.Gauge
	QueueDepth        prometheus.Gauge
	IndexEntries      prometheus.Gauge
	BucketPrefixes    prometheus.Gauge
	ScoreLatency      prometheus.Histogram
	CandidateCount    prometheus.Histogram
	ModelTrainedTotal prometheus.Counter
	SinkErrorsTotal   *prometheus.CounterVec
}

// New creates and registers all evaluation metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		QueriesSubmitted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "qac_queries_submitted_total",
				Help: "Total queries replayed into the strategy.",
			},
		),
		RecordsScored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qac_records_scored_total",
				Help: "Total scored records by outcome (hit, miss, empty).",
			},
			[]string{"outcome"},
		),
		HitsByRank: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qac_hits_by_rank_total",
				Help: "Hits broken down by the rank of the matching candidate.",
			},
			[]string{"rank"},
		),
		RunningMRR: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "qac_mean_reciprocal_rank",
				Help: "Mean reciprocal rank over all records scored so far.",
			},
		),
		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "qac_evaluation_queue_depth",
				Help: "Records waiting to be scored.",
			},
		),
		IndexEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "qac_index_entries",
				Help: "Unique queries held by the strategy index.",
			},
		),
		BucketPrefixes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "qac_bucket_prefixes",
				Help: "Prefixes holding a bucket.",
			},
		),
		ScoreLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "qac_score_latency_seconds",
				Help:    "Time spent scoring a single record.",
				Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
			},
		),
		CandidateCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "qac_candidate_count",
				Help:    "Number of candidates offered per record before truncation.",
				Buckets: []float64{0, 1, 2, 4, 10, 50, 100, 500, 1000},
			},
		),
		ModelTrainedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "qac_model_training_instances_total",
				Help: "Feature packages used to train the online model.",
			},
		),
		SinkErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qac_sink_errors_total",
				Help: "Failed result sink writes by driver.",
			},
			[]string{"driver"},
		),
	}

	m.Registry.MustRegister(
		m.QueriesSubmitted,
		m.RecordsScored,
		m.HitsByRank,
		m.RunningMRR,
		m.QueueDepth,
		m.IndexEntries,
		m.BucketPrefixes,
		m.ScoreLatency,
		m.CandidateCount,
		m.ModelTrainedTotal,
		m.SinkErrorsTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
