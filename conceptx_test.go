package conceptx

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arushisharma17/ConceptX/index"
	"github.com/arushisharma17/ConceptX/index/flat"
	"github.com/arushisharma17/ConceptX/labelmap"
	"github.com/arushisharma17/ConceptX/leader"
	"github.com/arushisharma17/ConceptX/results"
	"github.com/arushisharma17/ConceptX/testutil"
	"github.com/arushisharma17/ConceptX/vectorstore"
)

func sixPoints() ([][]float64, []string) {
	return [][]float64{{0, 0}, {0, 1}, {10, 10}, {10, 11}, {20, 0}, {20, 1}},
		[]string{"a", "b", "c", "d", "e", "f"}
}

func TestCluster(t *testing.T) {
	ctx := context.Background()

	t.Run("ExactPairs", func(t *testing.T) {
		points, labels := sixPoints()

		res, err := Cluster(ctx, points, labels, 3, WithMode(ModeExact), WithThreshold(2))
		require.NoError(t, err)

		require.Equal(t, 3, res.Partition.Len())
		assert.Equal(t, [][]float64{{0, 0.5}, {10, 10.5}, {20, 0.5}}, res.Partition.Centroids())
		assert.Equal(t, []int{0, 0, 1, 1, 2, 2}, res.Assignments)
		assert.Equal(t, []results.Record{
			{Label: "a", Cluster: 0}, {Label: "b", Cluster: 0},
			{Label: "c", Cluster: 1}, {Label: "d", Cluster: 1},
			{Label: "e", Cluster: 2}, {Label: "f", Cluster: 2},
		}, res.Records)
		assert.Equal(t, 2.0, res.Tau)
		assert.False(t, res.TauEstimated)
		assert.Nil(t, res.Index)
		assert.Equal(t, "ward", res.Stage2)
	})

	t.Run("ExactSingletons", func(t *testing.T) {
		points, labels := sixPoints()

		res, err := Cluster(ctx, points, labels, 3, WithMode(ModeExact), WithThreshold(0.5))
		require.NoError(t, err)

		assert.Equal(t, 6, res.Partition.Len())
		assert.Equal(t, res.Assignments[0], res.Assignments[1])
		assert.Equal(t, res.Assignments[2], res.Assignments[3])
		assert.Equal(t, res.Assignments[4], res.Assignments[5])
		assert.NotEqual(t, res.Assignments[0], res.Assignments[2])
		assert.NotEqual(t, res.Assignments[2], res.Assignments[4])
	})

	t.Run("FastPairs", func(t *testing.T) {
		points, labels := sixPoints()

		res, err := Cluster(ctx, points, labels, 3, WithIndexType(index.TypeFlat), WithThreshold(2))
		require.NoError(t, err)

		require.Equal(t, 3, res.Partition.Len())
		assert.Equal(t, []int{0, 0, 1, 1, 2, 2}, res.Assignments)
		require.NotNil(t, res.Index)
		assert.Equal(t, "flat", res.Index.Name())
	})

	t.Run("ZeroThresholdSingletons", func(t *testing.T) {
		for _, mode := range []Mode{ModeFast, ModeExact} {
			t.Run(string(mode), func(t *testing.T) {
				points, labels := sixPoints()

				res, err := Cluster(ctx, points, labels, 2, WithMode(mode), WithThreshold(0))
				require.NoError(t, err)
				assert.Equal(t, 6, res.Partition.Len())
				assert.Len(t, res.Records, 6)
			})
		}
	})

	t.Run("EstimatedThreshold", func(t *testing.T) {
		points, labels := sixPoints()

		res, err := Cluster(ctx, points, labels, 3, WithIndexType(index.TypeFlat), WithSeed(7))
		require.NoError(t, err)

		assert.True(t, res.TauEstimated)
		assert.InDelta(t, 1.0, res.Tau, 1e-12)
		assert.Equal(t, 3, res.Partition.Len())
	})

	t.Run("ExactWithoutThreshold", func(t *testing.T) {
		points, labels := sixPoints()

		res, err := Cluster(ctx, points, labels, 3, WithMode(ModeExact), WithIndexType(index.TypeFlat), WithSeed(7))
		require.NoError(t, err)

		assert.True(t, res.TauEstimated)
		require.NotNil(t, res.Index)
		// Pairs lie exactly τ apart and the exact pass needs a smaller distance.
		assert.Equal(t, 6, res.Partition.Len())
	})

	t.Run("NilLabels", func(t *testing.T) {
		points, _ := sixPoints()

		res, err := Cluster(ctx, points, nil, 3, WithMode(ModeExact), WithThreshold(2))
		require.NoError(t, err)
		assert.Equal(t, "0", res.Records[0].Label)
		assert.Equal(t, "5", res.Records[5].Label)
	})

	t.Run("SampleRatio", func(t *testing.T) {
		points, labels := sixPoints()

		res, err := Cluster(ctx, points, labels, 2, WithMode(ModeExact), WithThreshold(2), WithSampleRatio(0.5))
		require.NoError(t, err)

		assert.Equal(t, 3, res.Store.Len())
		assert.Len(t, res.Assignments, 3)
		assert.Equal(t, 0.5, res.SampleRatio)
	})

	t.Run("KMeans", func(t *testing.T) {
		points, labels := sixPoints()

		res, err := Cluster(ctx, points, labels, 3, WithMode(ModeExact), WithThreshold(2), WithClusterer(KMeans(1)))
		require.NoError(t, err)

		assert.Equal(t, "kmeans", res.Stage2)
		assert.ElementsMatch(t, []int{0, 1, 2}, res.CliqueLabels)
	})

	t.Run("SuppliedIndex", func(t *testing.T) {
		points, labels := sixPoints()

		idx, err := flat.New(points)
		require.NoError(t, err)

		res, err := Cluster(ctx, points, labels, 3, WithIndex(idx), WithThreshold(2))
		require.NoError(t, err)
		assert.Nil(t, res.Index)
		assert.Equal(t, 3, res.Partition.Len())
	})

	t.Run("LongerIndex", func(t *testing.T) {
		points, labels := sixPoints()

		idx, err := flat.New(points)
		require.NoError(t, err)

		res, err := Cluster(ctx, points, labels, 2, WithIndex(idx), WithThreshold(2), WithSampleRatio(0.5))
		require.NoError(t, err)
		assert.Equal(t, 2, res.Partition.Len())
	})

	t.Run("Blobs", func(t *testing.T) {
		rng := testutil.NewRNG(4711)
		centers := [][]float64{{0, 0, 0, 0}, {50, 0, 0, 0}, {0, 50, 0, 0}}
		points, truth := rng.Blobs(centers, 60, 0.5)

		res, err := Cluster(ctx, points, nil, 3, WithSeed(3))
		require.NoError(t, err)

		require.NoError(t, res.Partition.Validate())
		alignment, err := labelmap.Align(truth, res.Assignments)
		require.NoError(t, err)
		assert.Equal(t, 1.0, alignment.Agreement())
		assert.Equal(t, "hnsw", res.Index.Name())
	})
}

func TestCluster_MonotoneThreshold(t *testing.T) {
	ctx := context.Background()

	points := make([][]float64, 30)
	for i := range points {
		points[i] = []float64{float64(i), 0}
	}

	for _, mode := range []Mode{ModeFast, ModeExact} {
		t.Run(string(mode), func(t *testing.T) {
			prev := len(points) + 1
			for _, tau := range []float64{0, 0.5, 1, 1.5, 2, 4, 8, 100} {
				res, err := Cluster(ctx, points, nil, 1, WithMode(mode), WithIndexType(index.TypeFlat), WithThreshold(tau))
				require.NoError(t, err)
				assert.LessOrEqual(t, res.Partition.Len(), prev, "tau=%v", tau)
				prev = res.Partition.Len()
			}
			assert.Equal(t, 1, prev)
		})
	}
}

func TestCluster_ExactDeterministic(t *testing.T) {
	ctx := context.Background()

	rng := testutil.NewRNG(5)
	points := rng.UniformVectors(200, 8)

	a, err := Cluster(ctx, points, nil, 5, WithMode(ModeExact), WithThreshold(0.6))
	require.NoError(t, err)
	b, err := Cluster(ctx, points, nil, 5, WithMode(ModeExact), WithThreshold(0.6))
	require.NoError(t, err)

	assert.Equal(t, a.Partition.Sizes(), b.Partition.Sizes())
	assert.Equal(t, a.Assignments, b.Assignments)
	assert.Equal(t, a.Records, b.Records)
}

func TestCluster_Errors(t *testing.T) {
	ctx := context.Background()
	points, labels := sixPoints()

	t.Run("Empty", func(t *testing.T) {
		_, err := Cluster(ctx, nil, nil, 1)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("SinglePointEstimate", func(t *testing.T) {
		_, err := Cluster(ctx, [][]float64{{1, 2}}, []string{"x"}, 1, WithIndexType(index.TypeFlat))
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("LabelCount", func(t *testing.T) {
		res, err := Cluster(ctx, points, labels[:5], 3)
		assert.ErrorIs(t, err, ErrLabelCountMismatch)
		assert.Nil(t, res)
	})

	t.Run("Dimension", func(t *testing.T) {
		bad := [][]float64{{0, 0}, {1, 1, 1}}
		_, err := Cluster(ctx, bad, nil, 1)

		var dm *ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 2, dm.Expected)
		assert.Equal(t, 3, dm.Actual)
	})

	t.Run("InvalidK", func(t *testing.T) {
		for _, k := range []int{0, -1, 7} {
			_, err := Cluster(ctx, points, labels, k, WithMode(ModeExact), WithThreshold(2))
			assert.ErrorIs(t, err, ErrInvalidK, "k=%d", k)
		}
	})

	t.Run("MoreClustersThanCliques", func(t *testing.T) {
		_, err := Cluster(ctx, points, labels, 4, WithMode(ModeExact), WithThreshold(2))
		assert.ErrorIs(t, err, ErrInvalidK)
	})

	t.Run("Mode", func(t *testing.T) {
		_, err := Cluster(ctx, points, labels, 3, WithMode("bogus"))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("SampleRatio", func(t *testing.T) {
		_, err := Cluster(ctx, points, labels, 3, WithSampleRatio(1.5))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("IndexDimension", func(t *testing.T) {
		idx, err := flat.New([][]float64{{0, 0, 0}, {1, 1, 1}})
		require.NoError(t, err)

		_, err = Cluster(ctx, points, labels, 3, WithIndex(idx), WithThreshold(2))
		assert.ErrorIs(t, err, ErrIndexUnavailable)

		var dm *ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 3, dm.Actual)
	})

	t.Run("IndexTooSmall", func(t *testing.T) {
		idx, err := flat.New(points[:3])
		require.NoError(t, err)

		_, err = Cluster(ctx, points, labels, 3, WithIndex(idx), WithThreshold(2))
		assert.ErrorIs(t, err, ErrIndexUnavailable)
	})

	t.Run("IndexPath", func(t *testing.T) {
		_, err := Cluster(ctx, points, labels, 3, WithIndexPath(t.TempDir()+"/missing.ann"))
		assert.ErrorIs(t, err, ErrIndexUnavailable)
	})

	t.Run("Cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := Cluster(cctx, points, labels, 3, WithMode(ModeExact), WithThreshold(2))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCluster_Observability(t *testing.T) {
	ctx := context.Background()
	points, labels := sixPoints()

	var buf bytes.Buffer
	metrics := &BasicMetricsCollector{}

	_, err := Cluster(ctx, points, labels, 3,
		WithIndexType(index.TypeFlat),
		WithThreshold(2),
		WithLogger(NewJSONLoggerTo(&buf, slog.LevelDebug)),
		WithMetricsCollector(metrics),
		WithProgressEvery(1),
	)
	require.NoError(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.IndexBuilds)
	assert.Equal(t, int64(1), stats.Thresholds)
	assert.Equal(t, int64(0), stats.Estimated)
	assert.Equal(t, 2.0, stats.LastTau)
	assert.Equal(t, int64(3), stats.Cliques)
	assert.Equal(t, int64(1), stats.Stage2Count)
	assert.Equal(t, int64(1), stats.RunCount)
	assert.Equal(t, int64(6), stats.PointsClustered)

	out := buf.String()
	assert.Contains(t, out, `"msg":"index ready"`)
	assert.Contains(t, out, `"msg":"building cliques"`)
	assert.Contains(t, out, `"msg":"clique pass completed"`)
	assert.Contains(t, out, `"msg":"centroid clustering completed"`)
	assert.Contains(t, out, `"msg":"clustering completed"`)

	_, err = Cluster(ctx, points, labels[:2], 3, WithMetricsCollector(metrics), WithLogger(NewJSONLoggerTo(&buf, slog.LevelInfo)))
	require.Error(t, err)
	assert.Equal(t, int64(1), metrics.GetStats().RunErrors)
	assert.Contains(t, buf.String(), `"msg":"clustering failed"`)
}

func TestBuildIndex(t *testing.T) {
	ctx := context.Background()
	points, labels := sixPoints()

	idx, err := BuildIndex(ctx, points, WithIndexType(index.TypeFlat), WithSampleRatio(0.5))
	require.NoError(t, err)
	assert.Equal(t, "flat", idx.Name())
	assert.Equal(t, 3, idx.Len())

	idx, err = BuildIndex(ctx, points, WithSeed(9))
	require.NoError(t, err)
	assert.Equal(t, "hnsw", idx.Name())
	assert.Equal(t, 6, idx.Len())

	res, err := Cluster(ctx, points, labels, 3, WithIndex(idx), WithThreshold(2))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1, 1, 2, 2}, res.Assignments)

	_, err = BuildIndex(ctx, nil)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = BuildIndex(ctx, points, WithIndexType(index.Type(9)))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRecords(t *testing.T) {
	store, err := vectorstore.New([][]float64{{0}, {1}, {2}, {3}, {4}}, []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)

	c0 := leader.NewClique(0, store.Point(0))
	require.NoError(t, c0.Add(3, store.Point(3)))
	c1 := leader.NewClique(1, store.Point(1))
	c2 := leader.NewClique(2, store.Point(2))
	require.NoError(t, c2.Add(4, store.Point(4)))

	p := &leader.Partition{Cliques: []*leader.Clique{c0, c1, c2}, N: 5}

	assert.Equal(t, []results.Record{
		{Label: "a", Cluster: 1}, {Label: "d", Cluster: 1},
		{Label: "c", Cluster: 1}, {Label: "e", Cluster: 1},
		{Label: "b", Cluster: 0},
	}, Records(p, []int{1, 0, 1}, store))
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeFast, "fast": ModeFast, "EXACT": ModeExact, " exact ": ModeExact} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseMode("slow")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParseClusterer(t *testing.T) {
	c, err := ParseClusterer("", 1)
	require.NoError(t, err)
	assert.Equal(t, "ward", c.Name())

	c, err = ParseClusterer("kmeans", 1)
	require.NoError(t, err)
	assert.Equal(t, "kmeans", c.Name())

	_, err = ParseClusterer("dbscan", 1)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))

	other := errors.New("other")
	assert.Same(t, other, translateError(other))

	tests := []struct {
		in   error
		want error
	}{
		{leader.ErrInsufficientData, ErrInsufficientData},
		{vectorstore.ErrEmpty, ErrInsufficientData},
		{leader.ErrMissingThreshold, ErrMissingThreshold},
		{leader.ErrLabelCountMismatch, ErrLabelCountMismatch},
		{vectorstore.ErrLabelCount, ErrLabelCountMismatch},
		{leader.ErrIndexTooSmall, ErrIndexUnavailable},
		{vectorstore.ErrInvalidRatio, ErrInvalidConfig},
		{index.ErrUnknownType, ErrInvalidConfig},
	}
	for _, tt := range tests {
		got := translateError(tt.in)
		assert.ErrorIs(t, got, tt.want, tt.in.Error())
		assert.ErrorIs(t, got, tt.in)
	}

	var dm *ErrDimensionMismatch
	err := translateError(&index.ErrDimensionMismatch{Expected: 4, Actual: 5})
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 4, dm.Expected)
	assert.Equal(t, 5, dm.Actual)

	var inner *index.ErrDimensionMismatch
	assert.ErrorAs(t, err, &inner)
}
