package leader

import (
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/arushisharma17/ConceptX/index"
)

// Clique is a group of points around a leader.
type Clique struct {
	// Leader is the store position of the point that opened the clique.
	Leader int

	// Members lists store positions in insertion order, leader first.
	Members []int

	// Centroid is the running mean of all member points.
	Centroid []float64
}

// NewClique opens a clique led by point id. The centroid is a copy of p.
func NewClique(id int, p []float64) *Clique {
	return &Clique{
		Leader:   id,
		Members:  []int{id},
		Centroid: slices.Clone(p),
	}
}

// Size returns the number of members.
func (c *Clique) Size() int { return len(c.Members) }

// Add appends point id and moves the centroid to (c·n + p)/(n+1).
func (c *Clique) Add(id int, p []float64) error {
	if len(p) != len(c.Centroid) {
		return &index.ErrDimensionMismatch{Expected: len(c.Centroid), Actual: len(p)}
	}

	n := float64(len(c.Members))
	floats.Scale(n, c.Centroid)
	floats.Add(c.Centroid, p)
	floats.Scale(1/(n+1), c.Centroid)

	c.Members = append(c.Members, id)

	return nil
}
