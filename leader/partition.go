package leader

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/arushisharma17/ConceptX/internal/conv"
)

// Partition is the ordered result of a clique pass over a store of N points.
type Partition struct {
	// Cliques in creation order.
	Cliques []*Clique

	// N is the number of points in the store the partition was built from.
	N int

	// Queries counts the neighbour queries issued by the fast pass.
	Queries int

	// Expansions counts how often the fast pass doubled a query limit.
	Expansions int
}

// Len returns the number of cliques.
func (p *Partition) Len() int { return len(p.Cliques) }

// Centroids returns the clique centroids in clique order.
func (p *Partition) Centroids() [][]float64 {
	centroids := make([][]float64, len(p.Cliques))
	for i, c := range p.Cliques {
		centroids[i] = c.Centroid
	}
	return centroids
}

// Sizes returns the clique sizes in clique order.
func (p *Partition) Sizes() []int {
	sizes := make([]int, len(p.Cliques))
	for i, c := range p.Cliques {
		sizes[i] = c.Size()
	}
	return sizes
}

// Validate checks that every point in [0, N) belongs to exactly one clique.
func (p *Partition) Validate() error {
	if _, err := conv.IntToUint32(p.N); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPartition, err)
	}

	seen := roaring.New()

	for ci, c := range p.Cliques {
		for _, m := range c.Members {
			if m < 0 || m >= p.N {
				return fmt.Errorf("%w: clique %d holds point %d outside [0, %d)", ErrInvalidPartition, ci, m, p.N)
			}
			if !seen.CheckedAdd(uint32(m)) {
				return fmt.Errorf("%w: point %d is in more than one clique", ErrInvalidPartition, m)
			}
		}
	}

	if covered := seen.GetCardinality(); covered != uint64(p.N) {
		return fmt.Errorf("%w: %d of %d points covered", ErrInvalidPartition, covered, p.N)
	}

	return nil
}
