package leader

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arushisharma17/ConceptX/distance"
	"github.com/arushisharma17/ConceptX/index"
	"github.com/arushisharma17/ConceptX/index/flat"
	"github.com/arushisharma17/ConceptX/index/hnsw"
	"github.com/arushisharma17/ConceptX/testutil"
	"github.com/arushisharma17/ConceptX/vectorstore"
)

var sixPoints = [][]float64{{0, 0}, {0, 1}, {10, 10}, {10, 11}, {20, 0}, {20, 1}}

func newStore(t *testing.T, points [][]float64) *vectorstore.Store {
	t.Helper()
	s, err := vectorstore.New(points, nil)
	require.NoError(t, err)
	return s
}

func newFlat(t *testing.T, points [][]float64) index.Index {
	t.Helper()
	f, err := flat.New(points)
	require.NoError(t, err)
	return f
}

func ptr(f float64) *float64 { return &f }

func linePoints(n int) [][]float64 {
	points := make([][]float64, n)
	for i := range points {
		points[i] = []float64{float64(i)}
	}
	return points
}

// build runs the named pass with tau over points, using an exact index for the fast pass.
func build(t *testing.T, mode string, points [][]float64, tau float64) *Partition {
	t.Helper()

	store := newStore(t, points)

	var (
		p   *Partition
		err error
	)
	switch mode {
	case "fast":
		p, err = BuildFast(context.Background(), store, newFlat(t, points), tau)
	case "exact":
		p, err = BuildExact(context.Background(), store, ptr(tau))
	default:
		t.Fatalf("unknown mode %q", mode)
	}
	require.NoError(t, err)
	require.NoError(t, p.Validate())

	return p
}

func TestSixPoints(t *testing.T) {
	for _, mode := range []string{"fast", "exact"} {
		t.Run(mode, func(t *testing.T) {
			t.Run("Pairs", func(t *testing.T) {
				p := build(t, mode, sixPoints, 2)
				require.Equal(t, 3, p.Len())

				want := [][]float64{{0, 0.5}, {10, 10.5}, {20, 0.5}}
				for i, c := range p.Cliques {
					assert.Equal(t, []int{2 * i, 2*i + 1}, c.Members)
					assert.Equal(t, 2*i, c.Leader)
					assert.InDeltaSlice(t, want[i], c.Centroid, 1e-9)
				}
				assert.Equal(t, []int{2, 2, 2}, p.Sizes())
			})

			t.Run("Singletons", func(t *testing.T) {
				p := build(t, mode, sixPoints, 0.5)
				require.Equal(t, 6, p.Len())
				for i, c := range p.Cliques {
					assert.Equal(t, []int{i}, c.Members)
					assert.Equal(t, sixPoints[i], c.Centroid)
				}
			})

			t.Run("ZeroThreshold", func(t *testing.T) {
				duplicates := [][]float64{{1, 1}, {1, 1}, {1, 1}, {2, 2}}
				p := build(t, mode, duplicates, 0)
				assert.Equal(t, 4, p.Len())

				p = build(t, mode, duplicates, -1)
				assert.Equal(t, 4, p.Len())
			})
		})
	}
}

func TestMonotoneInThreshold(t *testing.T) {
	points := linePoints(20)
	thresholds := []float64{0, 0.5, 1, 1.5, 2, 2.5, 3, 5, 8, 100}

	for _, mode := range []string{"fast", "exact"} {
		t.Run(mode, func(t *testing.T) {
			prev := len(points) + 1
			for _, tau := range thresholds {
				p := build(t, mode, points, tau)
				assert.LessOrEqual(t, p.Len(), prev, "tau=%v", tau)
				prev = p.Len()
			}
			assert.Equal(t, 1, prev)
		})
	}
}

func TestLineCounts(t *testing.T) {
	points := linePoints(20)

	// Neighbours at exactly tau are absorbed by the fast pass.
	assert.Equal(t, 10, build(t, "fast", points, 1).Len())
	assert.Equal(t, 7, build(t, "fast", points, 2).Len())

	// Centroid distance must be strictly below tau in the exact pass.
	assert.Equal(t, 20, build(t, "exact", points, 1).Len())
	assert.Equal(t, 10, build(t, "exact", points, 1.5).Len())
}

func TestBlobs(t *testing.T) {
	rng := testutil.NewRNG(11)
	centers := [][]float64{{0, 0}, {100, 0}, {0, 100}}
	points, truth := rng.Blobs(centers, 30, 0.5)
	store := newStore(t, points)

	h, err := hnsw.Build(context.Background(), points)
	require.NoError(t, err)

	tests := []struct {
		name  string
		build func() (*Partition, error)
	}{
		{"FastFlat", func() (*Partition, error) {
			return BuildFast(context.Background(), store, newFlat(t, points), 10)
		}},
		{"FastHNSW", func() (*Partition, error) {
			return BuildFast(context.Background(), store, h, 10)
		}},
		{"Exact", func() (*Partition, error) {
			return BuildExact(context.Background(), store, ptr(10))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.build()
			require.NoError(t, err)
			require.NoError(t, p.Validate())

			for _, c := range p.Cliques {
				for _, m := range c.Members {
					assert.Equal(t, truth[c.Leader], truth[m], "clique led by %d mixes blobs", c.Leader)
				}
			}

			if tt.name != "FastHNSW" {
				assert.Equal(t, 3, p.Len())
			}
		})
	}
}

func TestCentroidIsMean(t *testing.T) {
	rng := testutil.NewRNG(3)
	points := rng.GaussianVectors(200, 5)

	for _, mode := range []string{"fast", "exact"} {
		t.Run(mode, func(t *testing.T) {
			p := build(t, mode, points, 2.5)
			for _, c := range p.Cliques {
				members := make([][]float64, len(c.Members))
				for i, m := range c.Members {
					members[i] = points[m]
				}
				assert.InDeltaSlice(t, distance.Mean(members), c.Centroid, 1e-9)
			}
		})
	}
}

func TestExactDeterministic(t *testing.T) {
	rng := testutil.NewRNG(9)
	points := rng.UniformVectors(300, 3)

	a := build(t, "exact", points, 0.3)
	b := build(t, "exact", points, 0.3)
	assert.Equal(t, a.Cliques, b.Cliques)
}

func TestBuildExactMissingThreshold(t *testing.T) {
	_, err := BuildExact(context.Background(), newStore(t, sixPoints), nil)
	assert.ErrorIs(t, err, ErrMissingThreshold)
}

func TestBuildFastErrors(t *testing.T) {
	store := newStore(t, sixPoints)

	t.Run("DimensionMismatch", func(t *testing.T) {
		_, err := BuildFast(context.Background(), store, newFlat(t, [][]float64{{0, 0, 0}}), 1)
		var dimErr *index.ErrDimensionMismatch
		assert.ErrorAs(t, err, &dimErr)
	})

	t.Run("IndexTooSmall", func(t *testing.T) {
		_, err := BuildFast(context.Background(), store, newFlat(t, sixPoints[:3]), 1)
		assert.ErrorIs(t, err, ErrIndexTooSmall)
	})

	t.Run("Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := BuildFast(ctx, store, newFlat(t, sixPoints), 1)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBuildFastLongerIndex(t *testing.T) {
	// The index covers more points than the truncated store.
	store := newStore(t, sixPoints[:4])
	p, err := BuildFast(context.Background(), store, newFlat(t, sixPoints), 2)
	require.NoError(t, err)
	require.NoError(t, p.Validate())
	assert.Equal(t, 2, p.Len())
}

func TestAdaptiveExpansion(t *testing.T) {
	// 300 points within tau force the limit to double from 100 to 300.
	points := make([][]float64, 300)
	for i := range points {
		points[i] = []float64{float64(i) * 0.001}
	}

	p, err := BuildFast(context.Background(), newStore(t, points), newFlat(t, points), 1)
	require.NoError(t, err)
	require.Equal(t, 1, p.Len())
	assert.Equal(t, 300, p.Cliques[0].Size())
	assert.Equal(t, 3, p.Queries)
	assert.Equal(t, 2, p.Expansions)
}

func TestProgress(t *testing.T) {
	var reports []Progress
	_, err := BuildExact(context.Background(), newStore(t, linePoints(10)), ptr(0.5), func(o *Options) {
		o.ProgressEvery = 3
		o.OnProgress = func(p Progress) { reports = append(reports, p) }
	})
	require.NoError(t, err)
	require.NotEmpty(t, reports)
	assert.Equal(t, 1, reports[0].Processed)
	assert.Equal(t, 10, reports[0].Points)
	assert.Len(t, reports, 4)
}

func TestEstimateThreshold(t *testing.T) {
	t.Run("SixPoints", func(t *testing.T) {
		tau, err := EstimateThreshold(context.Background(), newFlat(t, sixPoints), len(sixPoints))
		require.NoError(t, err)
		assert.InDelta(t, 1, tau, 1e-12)
	})

	t.Run("Sampled", func(t *testing.T) {
		points := linePoints(5000)
		tau, err := EstimateThreshold(context.Background(), newFlat(t, points), len(points), func(o *Options) {
			o.Rand = rand.New(rand.NewSource(1))
			o.SampleSize = 50
		})
		require.NoError(t, err)
		assert.InDelta(t, 1, tau, 1e-12)
	})

	t.Run("InsufficientData", func(t *testing.T) {
		_, err := EstimateThreshold(context.Background(), newFlat(t, [][]float64{{1, 2}}), 1)
		assert.ErrorIs(t, err, ErrInsufficientData)

		_, err = EstimateThreshold(context.Background(), newFlat(t, sixPoints), 1)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.0, Median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))
	assert.True(t, Median(nil) != Median(nil))

	xs := []float64{3, 1, 2}
	Median(xs)
	assert.Equal(t, []float64{3, 1, 2}, xs)
}

func TestExpand(t *testing.T) {
	p := build(t, "exact", sixPoints, 2)

	assignments, err := Expand(p, []int{2, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 0, 0, 1, 1}, assignments)

	_, err = Expand(p, []int{0, 1})
	assert.ErrorIs(t, err, ErrLabelCountMismatch)
}

func TestValidate(t *testing.T) {
	t.Run("Duplicate", func(t *testing.T) {
		p := &Partition{N: 2, Cliques: []*Clique{{Members: []int{0, 1}}, {Members: []int{1}}}}
		assert.ErrorIs(t, p.Validate(), ErrInvalidPartition)
	})

	t.Run("Missing", func(t *testing.T) {
		p := &Partition{N: 3, Cliques: []*Clique{{Members: []int{0, 1}}}}
		assert.ErrorIs(t, p.Validate(), ErrInvalidPartition)
	})

	t.Run("OutOfRange", func(t *testing.T) {
		p := &Partition{N: 1, Cliques: []*Clique{{Members: []int{0, 1}}}}
		assert.ErrorIs(t, p.Validate(), ErrInvalidPartition)
	})
}

func TestCliqueAddDimensionMismatch(t *testing.T) {
	c := NewClique(0, []float64{1, 2})
	err := c.Add(1, []float64{1})
	var dimErr *index.ErrDimensionMismatch
	assert.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 1, c.Size())
}
