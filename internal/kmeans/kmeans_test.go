package kmeans

import (
	"context"
	"testing"

	"github.com/arushisharma17/ConceptX/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrain(t *testing.T) {
	ctx := context.Background()
	// 2 clusters: (0,0) and (10,10)
	vecs := [][]float64{
		{0, 0}, {0, 1}, {1, 0}, // near 0,0
		{10, 10}, {10, 11}, {11, 10}, // near 10,10
	}

	m, err := Train(ctx, vecs, 2)
	require.NoError(t, err)
	assert.Len(t, m.Centroids, 2)

	p1 := AssignPartition([]float64{0.5, 0.5}, m.Centroids)
	p2 := AssignPartition([]float64{10.5, 10.5}, m.Centroids)
	assert.NotEqual(t, p1, p2)

	assert.Equal(t, m.Assignments[0], m.Assignments[1])
	assert.Equal(t, m.Assignments[0], m.Assignments[2])
	assert.Equal(t, m.Assignments[3], m.Assignments[5])
	assert.InDelta(t, 4.0*2/3, m.Inertia, 1e-9)
}

func TestTrainInvalidK(t *testing.T) {
	ctx := context.Background()
	vecs := [][]float64{{0}, {1}}

	_, err := Train(ctx, vecs, 0)
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = Train(ctx, vecs, 3)
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestTrainCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Train(ctx, [][]float64{{0}, {1}, {2}}, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrainKEqualsN(t *testing.T) {
	vecs := [][]float64{{0}, {5}, {9}}
	m, err := Train(context.Background(), vecs, 3)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{0, 1, 2}, m.Assignments)
	assert.InDelta(t, 0, m.Inertia, 1e-12)
}

func TestClustererBlobs(t *testing.T) {
	rng := testutil.NewRNG(2)
	points, truth := rng.Blobs([][]float64{{0, 0}, {50, 0}, {0, 50}, {50, 50}}, 25, 1)

	labels, err := Clusterer{Options: DefaultOptions}.Cluster(context.Background(), points, 4)
	require.NoError(t, err)
	require.Len(t, labels, len(points))

	mapping := map[int]int{}
	for i, l := range labels {
		if want, ok := mapping[truth[i]]; ok {
			assert.Equal(t, want, l)
		} else {
			mapping[truth[i]] = l
		}
	}
	assert.Len(t, mapping, 4)

	distinct := map[int]struct{}{}
	for _, l := range mapping {
		distinct[l] = struct{}{}
	}
	assert.Len(t, distinct, 4)
}

func TestFindClosestCentroids(t *testing.T) {
	centroids := [][]float64{{0}, {10}, {3}, {-1}}
	assert.Equal(t, []int{2, 0}, FindClosestCentroids([]float64{2}, centroids, 2))
	assert.Equal(t, []int{1, 2, 0, 3}, FindClosestCentroids([]float64{20}, centroids, 10))
}
