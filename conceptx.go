package conceptx

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/arushisharma17/ConceptX/index"
	"github.com/arushisharma17/ConceptX/index/flat"
	"github.com/arushisharma17/ConceptX/index/hnsw"
	"github.com/arushisharma17/ConceptX/leader"
	"github.com/arushisharma17/ConceptX/results"
	"github.com/arushisharma17/ConceptX/vectorstore"
)

// Timings holds the wall time spent per stage of a run.
type Timings struct {
	Index     time.Duration `json:"index"`
	Threshold time.Duration `json:"threshold"`
	Stage1    time.Duration `json:"stage1"`
	Stage2    time.Duration `json:"stage2"`
	Expand    time.Duration `json:"expand"`
	Total     time.Duration `json:"total"`
}

// Result is the outcome of a clustering run.
type Result struct {
	// Store holds the clustered points, after sample ratio truncation.
	Store *vectorstore.Store

	// Tau is the threshold used by the clique pass.
	Tau float64

	// TauEstimated reports whether Tau was estimated from the data.
	TauEstimated bool

	Mode        Mode
	K           int
	SampleRatio float64

	// Stage2 names the centroid clusterer.
	Stage2 string

	// Partition holds the cliques in creation order.
	Partition *leader.Partition

	// CliqueLabels[c] is the cluster id of clique c.
	CliqueLabels []int

	// Assignments[i] is the cluster id of point i.
	Assignments []int

	// Records pairs every point label with its cluster id.
	Records []results.Record

	// Index is the index built during the run. It is nil when an index was
	// supplied or the exact pass ran with a given threshold.
	Index index.Index

	Timings Timings
}

// Cluster groups points into k concept clusters.
//
// Points are first grouped into cliques around leaders within distance τ,
// then the clique centroids are clustered into k groups and every point
// inherits the group of its clique. labels[i] names points[i]; a nil labels
// slice names every point by its position.
//
// On failure Cluster returns a nil result and an error matching one of the
// package sentinels or *ErrDimensionMismatch.
func Cluster(ctx context.Context, points [][]float64, labels []string, k int, optFns ...Option) (*Result, error) {
	o := applyOptions(optFns)
	logger := o.logger.WithK(k)

	start := time.Now()
	res, err := run(ctx, points, labels, k, o, logger)
	err = translateError(err)

	duration := time.Since(start)
	o.metricsCollector.RecordRun(len(points), duration, err)
	logger.LogRun(ctx, len(points), k, duration, err)

	if err != nil {
		return nil, err
	}
	res.Timings.Total = duration

	return res, nil
}

func run(ctx context.Context, points [][]float64, labels []string, k int, o options, logger *Logger) (*Result, error) {
	store, err := newStore(points, labels, o)
	if err != nil {
		return nil, err
	}

	if err := validate(store, k, o); err != nil {
		return nil, err
	}

	logger = logger.WithMode(o.mode).WithDimension(store.Dimension()).WithCount(store.Len())

	res := &Result{
		Store:       store,
		Mode:        o.mode,
		K:           k,
		SampleRatio: o.sampleRatio,
		Stage2:      o.clusterer.Name(),
	}

	rng := rand.New(rand.NewSource(seedOf(o.seed))) // nolint gosec

	var idx index.Index
	if o.mode == ModeFast || o.tau == nil {
		start := time.Now()
		var built bool
		idx, built, err = obtainIndex(ctx, store, o)
		res.Timings.Index = time.Since(start)

		kind := o.indexType.String()
		if idx != nil {
			kind = idx.Name()
		}
		o.metricsCollector.RecordIndexBuild(kind, store.Len(), !built, res.Timings.Index, err)
		logger.LogIndexBuild(ctx, kind, store.Len(), !built, res.Timings.Index, err)
		if err != nil {
			return nil, err
		}
		if built {
			res.Index = idx
		}
	}

	leaderOpts := func(lo *leader.Options) {
		lo.Rand = rng
		if o.sampleSize > 0 {
			lo.SampleSize = o.sampleSize
		}
		if o.concurrency > 0 {
			lo.Concurrency = o.concurrency
		}
		if o.progressEvery > 0 {
			lo.ProgressEvery = o.progressEvery
		}
		lo.OnProgress = func(p leader.Progress) {
			logger.LogCliqueProgress(ctx, p)
		}
	}

	start := time.Now()
	if o.tau != nil {
		res.Tau = *o.tau
	} else {
		res.Tau, err = leader.EstimateThreshold(ctx, idx, store.Len(), leaderOpts)
		if err != nil {
			return nil, fmt.Errorf("estimate threshold: %w", err)
		}
		res.TauEstimated = true
	}
	res.Timings.Threshold = time.Since(start)
	o.metricsCollector.RecordThreshold(res.Tau, res.TauEstimated, res.Timings.Threshold)
	logger.LogThreshold(ctx, res.Tau, res.TauEstimated, res.Timings.Threshold)

	start = time.Now()
	switch o.mode {
	case ModeExact:
		tau := res.Tau
		res.Partition, err = leader.BuildExact(ctx, store, &tau, leaderOpts)
	default:
		res.Partition, err = leader.BuildFast(ctx, store, idx, res.Tau, leaderOpts)
	}
	if err == nil {
		err = res.Partition.Validate()
	}
	res.Timings.Stage1 = time.Since(start)

	if err != nil {
		o.metricsCollector.RecordStage1(string(o.mode), 0, 0, 0, res.Timings.Stage1, err)
		logger.LogCliques(ctx, o.mode, nil, res.Timings.Stage1, err)
		return nil, err
	}
	p := res.Partition
	o.metricsCollector.RecordStage1(string(o.mode), p.Len(), p.Queries, p.Expansions, res.Timings.Stage1, nil)
	logger.LogCliques(ctx, o.mode, p, res.Timings.Stage1, nil)

	if k > p.Len() {
		err := fmt.Errorf("%w: k=%d exceeds %d cliques", ErrInvalidK, k, p.Len())
		logger.LogStage2(ctx, res.Stage2, k, p.Len(), 0, err)
		return nil, err
	}

	start = time.Now()
	res.CliqueLabels, err = o.clusterer.Cluster(ctx, p.Centroids(), k)
	res.Timings.Stage2 = time.Since(start)
	o.metricsCollector.RecordStage2(res.Stage2, k, res.Timings.Stage2, err)
	logger.LogStage2(ctx, res.Stage2, k, p.Len(), res.Timings.Stage2, err)
	if err != nil {
		return nil, fmt.Errorf("cluster centroids: %w", err)
	}

	start = time.Now()
	res.Assignments, err = leader.Expand(p, res.CliqueLabels)
	if err != nil {
		return nil, err
	}
	res.Records = Records(p, res.CliqueLabels, store)
	res.Timings.Expand = time.Since(start)

	return res, nil
}

func newStore(points [][]float64, labels []string, o options) (*vectorstore.Store, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no points", ErrInsufficientData)
	}

	dim := len(points[0])
	for _, p := range points {
		if len(p) != dim {
			return nil, &ErrDimensionMismatch{Expected: dim, Actual: len(p)}
		}
	}

	store, err := vectorstore.New(points, labels)
	if err != nil {
		return nil, err
	}

	if o.sampleRatio != 0 {
		return store.Prefix(o.sampleRatio)
	}

	return store, nil
}

func validate(store *vectorstore.Store, k int, o options) error {
	if k <= 0 {
		return fmt.Errorf("%w: k=%d", ErrInvalidK, k)
	}

	if k > store.Len() {
		return fmt.Errorf("%w: k=%d exceeds %d points", ErrInvalidK, k, store.Len())
	}

	if o.mode != ModeFast && o.mode != ModeExact {
		return fmt.Errorf("%w: mode %q", ErrInvalidConfig, o.mode)
	}

	if o.indexType != index.TypeFlat && o.indexType != index.TypeHNSW {
		return fmt.Errorf("%w: index type %s", ErrInvalidConfig, o.indexType)
	}

	return nil
}

// obtainIndex returns the supplied index after checking it against the store,
// or builds a new one. built reports whether the index is new.
func obtainIndex(ctx context.Context, store *vectorstore.Store, o options) (idx index.Index, built bool, err error) {
	idx = o.index

	if idx == nil && o.indexPath != "" {
		idx, err = LoadIndexFile(ctx, o.indexPath)
		if err != nil {
			return nil, false, err
		}
	}

	if idx != nil {
		if idx.Dimension() != store.Dimension() {
			return nil, false, fmt.Errorf("%w: %w", ErrIndexUnavailable,
				&ErrDimensionMismatch{Expected: store.Dimension(), Actual: idx.Dimension()})
		}
		if idx.Len() < store.Len() {
			return nil, false, fmt.Errorf("%w: index holds %d points, store %d", ErrIndexUnavailable, idx.Len(), store.Len())
		}
		return idx, false, nil
	}

	idx, err = buildIndex(ctx, store, o)
	if err != nil {
		return nil, false, err
	}

	return idx, true, nil
}

func buildIndex(ctx context.Context, store *vectorstore.Store, o options) (index.Index, error) {
	var (
		idx index.Index
		err error
	)

	switch o.indexType {
	case index.TypeFlat:
		idx, err = flat.New(store.Points())
	default:
		hnswOpts := make([]func(*hnsw.Options), 0, len(o.hnswOptions)+1)
		if o.seed != 0 {
			seed := o.seed
			hnswOpts = append(hnswOpts, func(ho *hnsw.Options) { ho.Seed = seed })
		}
		hnswOpts = append(hnswOpts, o.hnswOptions...)
		idx, err = hnsw.Build(ctx, store.Points(), hnswOpts...)
	}
	if err != nil {
		return nil, fmt.Errorf("build %s index: %w", o.indexType, err)
	}

	return idx, nil
}

// BuildIndex builds the neighbour index Cluster would build over points,
// honouring WithIndexType, WithHNSWOptions, WithSeed and WithSampleRatio.
func BuildIndex(ctx context.Context, points [][]float64, optFns ...Option) (index.Index, error) {
	o := applyOptions(optFns)

	store, err := newStore(points, nil, o)
	if err != nil {
		return nil, translateError(err)
	}

	if o.indexType != index.TypeFlat && o.indexType != index.TypeHNSW {
		return nil, fmt.Errorf("%w: index type %s", ErrInvalidConfig, o.indexType)
	}

	start := time.Now()
	idx, err := buildIndex(ctx, store, o)
	err = translateError(err)
	duration := time.Since(start)

	o.metricsCollector.RecordIndexBuild(o.indexType.String(), store.Len(), false, duration, err)
	o.logger.WithDimension(store.Dimension()).LogIndexBuild(ctx, o.indexType.String(), store.Len(), false, duration, err)
	if err != nil {
		return nil, err
	}

	return idx, nil
}

// Records lists the labelled assignment of every point, grouped by cluster in
// order of first appearance among the cliques and by clique order within a
// cluster.
func Records(p *leader.Partition, cliqueLabels []int, store *vectorstore.Store) []results.Record {
	var (
		order   []int
		grouped = make(map[int][]int)
	)

	for c, label := range cliqueLabels {
		if _, ok := grouped[label]; !ok {
			order = append(order, label)
		}
		grouped[label] = append(grouped[label], c)
	}

	records := make([]results.Record, 0, p.N)
	for _, label := range order {
		for _, c := range grouped[label] {
			for _, m := range p.Cliques[c].Members {
				records = append(records, results.Record{Label: store.Label(m), Cluster: label})
			}
		}
	}

	return records
}

func seedOf(seed int64) int64 {
	if seed == 0 {
		return time.Now().UnixNano()
	}
	return seed
}
