package labelmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHungarian(t *testing.T) {
	cost := [][]float64{
		{4, 1, 3},
		{2, 0, 5},
		{3, 2, 2},
	}
	// Optimal: row0->col1 (1), row1->col0 (2), row2->col2 (2) = 5
	assert.Equal(t, []int{1, 0, 2}, Hungarian(cost))
	assert.Nil(t, Hungarian(nil))
}

func TestAlignPermutation(t *testing.T) {
	reference := []int{0, 0, 1, 1, 2, 2}
	candidate := []int{5, 5, 3, 3, 9, 9}

	a, err := Align(reference, candidate)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{5: 0, 3: 1, 9: 2}, a.Mapping)
	assert.Equal(t, 6, a.Matched)
	assert.Equal(t, 1.0, a.Agreement())
	assert.Equal(t, reference, a.Apply(candidate))
}

func TestAlignPartial(t *testing.T) {
	reference := []int{0, 0, 0, 1, 1, 1}
	candidate := []int{1, 1, 0, 0, 0, 0}

	a, err := Align(reference, candidate)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 0, 0: 1}, a.Mapping)
	assert.Equal(t, 5, a.Matched)
	assert.InDelta(t, 5.0/6, a.Agreement(), 1e-12)
}

func TestAlignMoreCandidateClusters(t *testing.T) {
	reference := []int{0, 0, 1, 1}
	candidate := []int{0, 1, 2, 2}

	a, err := Align(reference, candidate)
	require.NoError(t, err)
	assert.Len(t, a.Mapping, 2)
	assert.Equal(t, 1, a.Mapping[2])
	assert.Equal(t, 3, a.Matched)

	applied := a.Apply(candidate)
	assert.Equal(t, 1, applied[2])
	assert.ElementsMatch(t, []int{0, 2}, applied[:2])
}

func TestAlignLengthMismatch(t *testing.T) {
	_, err := Align([]int{0}, []int{0, 1})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	a, err := Align(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, a.Agreement())
}
