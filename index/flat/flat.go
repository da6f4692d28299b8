// Package flat provides an exact brute force nearest neighbour index.
package flat

import (
	"github.com/arushisharma17/ConceptX/distance"
	"github.com/arushisharma17/ConceptX/index"
	"github.com/arushisharma17/ConceptX/internal/queue"
)

// Compile time check to ensure Flat satisfies the index interface.
var _ index.Index = (*Flat)(nil)

// Flat scans every point for each query. Results are exact and deterministic.
type Flat struct {
	dimension int
	vectors   [][]float64
}

// New creates a flat index over vectors. The vectors are not copied.
func New(vectors [][]float64) (*Flat, error) {
	if len(vectors) == 0 {
		return nil, index.ErrEmptyIndex
	}

	dim := len(vectors[0])
	for _, v := range vectors {
		if len(v) != dim {
			return nil, &index.ErrDimensionMismatch{Expected: dim, Actual: len(v)}
		}
	}

	return &Flat{dimension: dim, vectors: vectors}, nil
}

func (*Flat) Name() string { return "flat" }

// Len returns the number of indexed points.
func (f *Flat) Len() int { return len(f.vectors) }

// Dimension returns the dimension of the indexed points.
func (f *Flat) Dimension() int { return f.dimension }

// Query returns up to k neighbours of point id, nearest first.
func (f *Flat) Query(id, k int) ([]index.Neighbor, error) {
	if id < 0 || id >= len(f.vectors) {
		return nil, index.ErrOutOfRange
	}
	return f.Search(f.vectors[id], k)
}

// Search returns up to k neighbours of q, nearest first.
func (f *Flat) Search(q []float64, k int) ([]index.Neighbor, error) {
	if len(q) != f.dimension {
		return nil, &index.ErrDimensionMismatch{Expected: f.dimension, Actual: len(q)}
	}

	if k <= 0 {
		return nil, nil
	}

	k = min(k, len(f.vectors))

	topCandidates := queue.NewMax(k + 1)
	for id, v := range f.vectors {
		d := distance.SquaredL2(q, v)

		if topCandidates.Len() < k {
			topCandidates.PushItem(queue.Item{Node: id, Distance: d})
			continue
		}

		largest, _ := topCandidates.TopItem()
		if d < largest.Distance {
			topCandidates.PopItem()
			topCandidates.PushItem(queue.Item{Node: id, Distance: d})
		}
	}

	result := make([]index.Neighbor, topCandidates.Len())
	for i := len(result) - 1; i >= 0; i-- {
		item, _ := topCandidates.PopItem()
		result[i] = index.Neighbor{ID: item.Node, Distance: distance.FromSquared(item.Distance)}
	}
	index.SortNeighbors(result)

	return result, nil
}
