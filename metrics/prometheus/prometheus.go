// Package prometheus exports clustering run metrics through a Prometheus
// registry.
//
// Batch runs do not live long enough to be scraped; the CLI writes the
// registry to a node exporter textfile instead.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arushisharma17/ConceptX"
)

var _ conceptx.MetricsCollector = (*Collector)(nil)

// Collector implements conceptx.MetricsCollector on its own registry.
type Collector struct {
	registry *prometheus.Registry

	indexDuration  *prometheus.HistogramVec
	indexTotal     *prometheus.CounterVec
	threshold      prometheus.Gauge
	thresholdTotal *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	stageErrors    *prometheus.CounterVec
	cliques        prometheus.Gauge
	queries        prometheus.Counter
	expansions     prometheus.Counter
	runDuration    prometheus.Histogram
	runsTotal      *prometheus.CounterVec
	points         prometheus.Counter
}

// New creates a collector with the given metric namespace. An empty namespace
// means "conceptx".
func New(namespace string) *Collector {
	if namespace == "" {
		namespace = "conceptx"
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		indexDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_build_duration_seconds",
			Help:      "Time spent building or loading the neighbour index.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"type"}),
		indexTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_builds_total",
			Help:      "Indexes obtained, by type and outcome.",
		}, []string{"type", "outcome"}),
		threshold: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "threshold",
			Help:      "Distance threshold of the last clique pass.",
		}),
		thresholdTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thresholds_total",
			Help:      "Thresholds used, by source.",
		}, []string{"source"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent per clustering stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 12),
		}, []string{"stage", "algorithm"}),
		stageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_errors_total",
			Help:      "Failed clustering stages.",
		}, []string{"stage", "algorithm"}),
		cliques: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cliques",
			Help:      "Cliques built by the last clique pass.",
		}),
		queries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "neighbour_queries_total",
			Help:      "Neighbour queries issued by the fast clique pass.",
		}),
		expansions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_expansions_total",
			Help:      "Times the fast clique pass doubled a query size.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of complete clustering runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 12),
		}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Clustering runs, by outcome.",
		}, []string{"outcome"}),
		points: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_clustered_total",
			Help:      "Points assigned to a cluster by successful runs.",
		}),
	}

	c.registry.MustRegister(
		c.indexDuration,
		c.indexTotal,
		c.threshold,
		c.thresholdTotal,
		c.stageDuration,
		c.stageErrors,
		c.cliques,
		c.queries,
		c.expansions,
		c.runDuration,
		c.runsTotal,
		c.points,
	)

	return c
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteToTextfile writes the metrics in the text exposition format. The file
// is replaced atomically.
func (c *Collector) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

// RecordIndexBuild implements conceptx.MetricsCollector.
func (c *Collector) RecordIndexBuild(kind string, _ int, reused bool, duration time.Duration, err error) {
	switch {
	case err != nil:
		c.indexTotal.WithLabelValues(kind, "error").Inc()
	case reused:
		c.indexTotal.WithLabelValues(kind, "reused").Inc()
	default:
		c.indexTotal.WithLabelValues(kind, "built").Inc()
		c.indexDuration.WithLabelValues(kind).Observe(duration.Seconds())
	}
}

// RecordThreshold implements conceptx.MetricsCollector.
func (c *Collector) RecordThreshold(tau float64, estimated bool, duration time.Duration) {
	c.threshold.Set(tau)

	source := "given"
	if estimated {
		source = "estimated"
		c.stageDuration.WithLabelValues("threshold", "median").Observe(duration.Seconds())
	}
	c.thresholdTotal.WithLabelValues(source).Inc()
}

// RecordStage1 implements conceptx.MetricsCollector.
func (c *Collector) RecordStage1(mode string, cliques, queries, expansions int, duration time.Duration, err error) {
	c.stageDuration.WithLabelValues("cliques", mode).Observe(duration.Seconds())
	if err != nil {
		c.stageErrors.WithLabelValues("cliques", mode).Inc()
		return
	}
	c.cliques.Set(float64(cliques))
	c.queries.Add(float64(queries))
	c.expansions.Add(float64(expansions))
}

// RecordStage2 implements conceptx.MetricsCollector.
func (c *Collector) RecordStage2(algorithm string, _ int, duration time.Duration, err error) {
	c.stageDuration.WithLabelValues("centroids", algorithm).Observe(duration.Seconds())
	if err != nil {
		c.stageErrors.WithLabelValues("centroids", algorithm).Inc()
	}
}

// RecordRun implements conceptx.MetricsCollector.
func (c *Collector) RecordRun(points int, duration time.Duration, err error) {
	c.runDuration.Observe(duration.Seconds())
	if err != nil {
		c.runsTotal.WithLabelValues("error").Inc()
		return
	}
	c.runsTotal.WithLabelValues("success").Inc()
	c.points.Add(float64(points))
}
