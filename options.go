package conceptx

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arushisharma17/ConceptX/agglomerative"
	"github.com/arushisharma17/ConceptX/index"
	"github.com/arushisharma17/ConceptX/index/hnsw"
	"github.com/arushisharma17/ConceptX/internal/kmeans"
)

// Mode selects the clique building pass.
type Mode string

const (
	// ModeFast builds cliques with nearest neighbour queries.
	ModeFast Mode = "fast"
	// ModeExact scans clique centroids for every point.
	ModeExact Mode = "exact"
)

// ParseMode parses "fast" or "exact". The empty string means fast.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeFast:
		return ModeFast, nil
	case ModeExact:
		return ModeExact, nil
	default:
		return "", fmt.Errorf("%w: mode %q", ErrInvalidConfig, s)
	}
}

// Clusterer groups clique centroids into k clusters.
type Clusterer interface {
	// Name identifies the algorithm in logs and reports.
	Name() string

	// Cluster returns a cluster id in [0, k) for every point.
	Cluster(ctx context.Context, points [][]float64, k int) ([]int, error)
}

// Ward returns the hierarchical Ward clusterer.
func Ward() Clusterer {
	return agglomerative.Ward{}
}

// KMeans returns a Lloyd k-means clusterer seeded with seed.
func KMeans(seed int64) Clusterer {
	opts := kmeans.DefaultOptions
	opts.Seed = seed
	return kmeans.Clusterer{Options: opts}
}

// ParseClusterer resolves "ward" or "kmeans". The empty string means ward.
func ParseClusterer(name string, seed int64) (Clusterer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "ward":
		return Ward(), nil
	case "kmeans":
		return KMeans(seed), nil
	default:
		return nil, fmt.Errorf("%w: stage2 %q", ErrInvalidConfig, name)
	}
}

type options struct {
	tau              *float64
	mode             Mode
	index            index.Index
	indexPath        string
	indexType        index.Type
	hnswOptions      []func(*hnsw.Options)
	sampleRatio      float64
	sampleSize       int
	concurrency      int
	clusterer        Clusterer
	seed             int64
	progressEvery    int
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Cluster.
type Option func(*options)

// WithThreshold fixes τ instead of estimating it.
func WithThreshold(tau float64) Option {
	return func(o *options) {
		o.tau = &tau
	}
}

// WithMode selects the clique pass. The default is ModeFast.
func WithMode(mode Mode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

// WithIndex supplies a prebuilt index over the points in store order.
// It must have the store dimension and hold at least as many points.
func WithIndex(idx index.Index) Option {
	return func(o *options) {
		o.index = idx
	}
}

// WithIndexPath loads the index blob at path instead of building one.
func WithIndexPath(path string) Option {
	return func(o *options) {
		o.indexPath = path
	}
}

// WithIndexType selects the index built when none is supplied.
// The default is index.TypeHNSW.
func WithIndexType(t index.Type) Option {
	return func(o *options) {
		o.indexType = t
	}
}

// WithHNSWOptions configures a freshly built HNSW index.
//
// Example:
//
//	conceptx.WithHNSWOptions(func(o *hnsw.Options) {
//	    o.M = 32
//	    o.EF = 400
//	})
func WithHNSWOptions(optFns ...func(*hnsw.Options)) Option {
	return func(o *options) {
		o.hnswOptions = append(o.hnswOptions, optFns...)
	}
}

// WithSampleRatio keeps only the first ⌊N·ratio⌋ points and labels.
// 0 and 1 keep everything.
func WithSampleRatio(ratio float64) Option {
	return func(o *options) {
		o.sampleRatio = ratio
	}
}

// WithSampleSize sets the number of points sampled to estimate τ.
func WithSampleSize(n int) Option {
	return func(o *options) {
		o.sampleSize = n
	}
}

// WithConcurrency bounds the parallel neighbour queries of τ estimation.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithClusterer replaces the centroid clusterer. The default is Ward().
func WithClusterer(c Clusterer) Option {
	return func(o *options) {
		o.clusterer = c
	}
}

// WithSeed seeds sampling and, unless configured otherwise, HNSW level
// generation. 0 seeds sampling from the clock.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithProgressEvery overrides how many events pass between progress logs.
func WithProgressEvery(n int) Option {
	return func(o *options) {
		o.progressEvery = n
	}
}

// WithMetricsCollector configures a metrics collector for monitoring runs.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &conceptx.BasicMetricsCollector{}
//	res, _ := conceptx.Cluster(ctx, points, labels, 50, conceptx.WithMetricsCollector(metrics))
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for runs.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		mode:             ModeFast,
		indexType:        index.TypeHNSW,
		clusterer:        Ward(),
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.clusterer == nil {
		o.clusterer = Ward()
	}
	return o
}
