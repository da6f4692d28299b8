package testutil

import (
	"testing"

	"github.com/arushisharma17/ConceptX/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.UniformVectors(8, 32)

	assert.Equal(t, 8, len(v))
	assert.Equal(t, 32, len(v[0]))
	assert.LessOrEqual(t, v[0][0], 1.0)
	assert.GreaterOrEqual(t, v[1][0], 0.0)
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	a := rng.GaussianVectors(2, 4)
	rng.Reset()
	b := rng.GaussianVectors(2, 4)
	assert.Equal(t, a, b)
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestBlobs(t *testing.T) {
	rng := NewRNG(1)
	centers := [][]float64{{0, 0}, {100, 100}}

	points, truth := rng.Blobs(centers, 10, 0.1)
	require.Len(t, points, 20)
	require.Len(t, truth, 20)

	for i, p := range points {
		c := centers[truth[i]]
		assert.InDelta(t, c[0], p[0], 1)
		assert.InDelta(t, c[1], p[1], 1)
	}
}

func TestComputeRecall(t *testing.T) {
	truth := []index.Neighbor{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}
	approx := []index.Neighbor{{ID: 1}, {ID: 3}, {ID: 9}, {ID: 8}}

	assert.InDelta(t, 0.5, ComputeRecall(truth, approx), 1e-12)
	assert.Equal(t, 1.0, ComputeRecall(nil, nil))
	assert.Equal(t, 0.0, ComputeRecall(truth, nil))
}
