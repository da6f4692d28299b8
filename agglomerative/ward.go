// Package agglomerative implements Ward hierarchical clustering.
//
// Linkage builds the full dendrogram with the nearest neighbour chain
// algorithm and Lance-Williams updates on squared Euclidean distances. Merge
// heights are reported as Euclidean Ward distances and merges are numbered
// like a SciPy linkage matrix: original points are 0..n-1 and the cluster
// created by merge i is n+i.
package agglomerative

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/arushisharma17/ConceptX/distance"
	"github.com/arushisharma17/ConceptX/index"
)

var (
	// ErrInvalidK is returned when the requested cluster count is not in [1, n].
	ErrInvalidK = errors.New("invalid number of clusters")

	// ErrNoPoints is returned for an empty input.
	ErrNoPoints = errors.New("no points to cluster")
)

// Merge is a single step of the dendrogram.
type Merge struct {
	A, B     int     // merged cluster ids, A < B
	Distance float64 // Ward distance of the merge
	Size     int     // number of points in the new cluster
}

// Linkage computes the Ward dendrogram of points. The result holds
// len(points)-1 merges sorted by non-decreasing distance.
func Linkage(ctx context.Context, points [][]float64) ([]Merge, error) {
	n := len(points)
	if n == 0 {
		return nil, ErrNoPoints
	}

	dim := len(points[0])
	for _, p := range points {
		if len(p) != dim {
			return nil, &index.ErrDimensionMismatch{Expected: dim, Actual: len(p)}
		}
	}

	raw, err := nnChain(ctx, pairwiseDistances(points), n)
	if err != nil {
		return nil, err
	}

	return relabel(raw, n), nil
}

// rawMerge joins the clusters currently held in slots a and b.
type rawMerge struct {
	a, b  int
	dist2 float64
}

// nnChain runs the nearest neighbour chain algorithm. A cluster lives in the
// slot of its smallest member, so every slot index is also a point index.
func nnChain(ctx context.Context, d []float64, n int) ([]rawMerge, error) {
	size := make([]int, n)
	active := make([]bool, n)
	for i := range n {
		size[i] = 1
		active[i] = true
	}

	merges := make([]rawMerge, 0, max(n-1, 0))
	chain := make([]int, 0, n)
	next := 0 // lowest slot that may still be active

	for len(merges) < n-1 {
		if len(merges)%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		if len(chain) == 0 {
			for !active[next] {
				next++
			}
			chain = append(chain, next)
		}

		a := chain[len(chain)-1]

		prev := -1
		best, bestDist := -1, math.Inf(1)
		if len(chain) >= 2 {
			prev = chain[len(chain)-2]
			best, bestDist = prev, getDist(d, n, a, prev)
		}

		for j := range n {
			if j == a || !active[j] {
				continue
			}
			if dj := getDist(d, n, a, j); dj < bestDist {
				best, bestDist = j, dj
			}
		}

		if best != prev {
			chain = append(chain, best)
			continue
		}

		// a and prev are reciprocal nearest neighbours
		chain = chain[:len(chain)-2]

		lo, hi := min(a, prev), max(a, prev)
		merges = append(merges, rawMerge{a: lo, b: hi, dist2: bestDist})

		// Lance-Williams update for Ward:
		// d(new, k) = ((n_k + n_i) d(i,k) + (n_k + n_j) d(j,k) - n_k d(i,j)) / (n_k + n_i + n_j)
		ni, nj := float64(size[lo]), float64(size[hi])
		for k := range n {
			if !active[k] || k == lo || k == hi {
				continue
			}
			nk := float64(size[k])
			dik := getDist(d, n, lo, k)
			djk := getDist(d, n, hi, k)
			setDist(d, n, lo, k, ((nk+ni)*dik+(nk+nj)*djk-nk*bestDist)/(nk+ni+nj))
		}

		size[lo] += size[hi]
		active[hi] = false
	}

	return merges, nil
}

// relabel sorts merges by height and assigns SciPy style cluster ids.
func relabel(raw []rawMerge, n int) []Merge {
	sort.SliceStable(raw, func(i, j int) bool {
		return raw[i].dist2 < raw[j].dist2
	})

	parent := make([]int, n)
	clusterID := make([]int, n)
	size := make([]int, n)
	for i := range n {
		parent[i] = i
		clusterID[i] = i
		size[i] = 1
	}

	merges := make([]Merge, len(raw))
	for step, m := range raw {
		ra, rb := find(parent, m.a), find(parent, m.b)
		a, b := clusterID[ra], clusterID[rb]

		merges[step] = Merge{
			A:        min(a, b),
			B:        max(a, b),
			Distance: distance.FromSquared(m.dist2), // heights are Euclidean, not squared
			Size:     size[ra] + size[rb],
		}

		parent[rb] = ra
		size[ra] += size[rb]
		clusterID[ra] = n + step
	}

	return merges
}

// Cut assigns every one of the n points to one of exactly k flat clusters
// by undoing the k-1 highest merges. Cluster ids are numbered 0..k-1 in order
// of first appearance.
func Cut(merges []Merge, n, k int) ([]int, error) {
	if k <= 0 || k > n {
		return nil, fmt.Errorf("%w: k=%d for %d points", ErrInvalidK, k, n)
	}

	if len(merges) != n-1 {
		return nil, fmt.Errorf("linkage has %d merges, want %d", len(merges), n-1)
	}

	parent := make([]int, 2*n-1)
	for i := range parent {
		parent[i] = i
	}

	for step := 0; step < n-k; step++ {
		m := merges[step]
		parent[m.A] = n + step
		parent[m.B] = n + step
	}

	return flatten(parent, n), nil
}

// CutDistance assigns flat clusters by applying every merge whose distance
// does not exceed threshold.
func CutDistance(merges []Merge, n int, threshold float64) []int {
	parent := make([]int, 2*n-1)
	for i := range parent {
		parent[i] = i
	}

	for step, m := range merges {
		if m.Distance > threshold {
			break
		}
		parent[m.A] = n + step
		parent[m.B] = n + step
	}

	return flatten(parent, n)
}

func flatten(parent []int, n int) []int {
	labels := make([]int, n)
	ids := make(map[int]int)

	for i := range n {
		root := find(parent, i)
		id, ok := ids[root]
		if !ok {
			id = len(ids)
			ids[root] = id
		}
		labels[i] = id
	}

	return labels
}

// LinkageMatrix converts merges into rows of [A, B, distance, size].
func LinkageMatrix(merges []Merge) [][]float64 {
	rows := make([][]float64, len(merges))
	for i, m := range merges {
		rows[i] = []float64{float64(m.A), float64(m.B), m.Distance, float64(m.Size)}
	}
	return rows
}

// Ward clusters points with Ward linkage cut into k clusters.
type Ward struct{}

// Name returns "ward".
func (Ward) Name() string { return "ward" }

// Cluster returns a cluster id in [0, k) for every point.
func (Ward) Cluster(ctx context.Context, points [][]float64, k int) ([]int, error) {
	if k <= 0 || k > len(points) {
		return nil, fmt.Errorf("%w: k=%d for %d points", ErrInvalidK, k, len(points))
	}

	merges, err := Linkage(ctx, points)
	if err != nil {
		return nil, err
	}

	return Cut(merges, len(points), k)
}

// find resolves the root of i with path halving.
func find(parent []int, i int) int {
	for parent[i] != i {
		parent[i] = parent[parent[i]]
		i = parent[i]
	}
	return i
}

// pairwiseDistances computes the squared Euclidean distance matrix (condensed form).
func pairwiseDistances(points [][]float64) []float64 {
	n := len(points)
	d := make([]float64, n*(n-1)/2)

	idx := 0
	for i := range n {
		for j := i + 1; j < n; j++ {
			d[idx] = distance.SquaredL2(points[i], points[j])
			idx++
		}
	}

	return d
}

// condensedIndex returns the index in the condensed distance array for pair (i, j) where i < j.
func condensedIndex(n, i, j int) int {
	if i > j {
		i, j = j, i
	}
	return n*i - i*(i+1)/2 + j - i - 1
}

func getDist(d []float64, n, i, j int) float64 {
	return d[condensedIndex(n, i, j)]
}

func setDist(d []float64, n, i, j int, v float64) {
	d[condensedIndex(n, i, j)] = v
}
