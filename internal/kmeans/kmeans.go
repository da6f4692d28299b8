package kmeans

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/arushisharma17/ConceptX/distance"
)

// ErrInvalidK is returned when k is not in [1, len(vectors)].
var ErrInvalidK = errors.New("invalid number of clusters")

// Options configures training.
type Options struct {
	// MaxIter bounds the Lloyd iterations per restart.
	MaxIter int

	// Restarts is the number of independent seedings; the lowest inertia wins.
	Restarts int

	// Seed drives centroid seeding and empty cluster re-initialization.
	Seed int64
}

// DefaultOptions contains the default training options.
var DefaultOptions = Options{
	MaxIter:  300,
	Restarts: 3,
	Seed:     1,
}

// Model is a trained clustering.
type Model struct {
	Centroids   [][]float64
	Assignments []int
	Inertia     float64 // sum of squared distances to the assigned centroid
	Iterations  int
}

// Train clusters vectors into k groups.
func Train(ctx context.Context, vectors [][]float64, k int, optFns ...func(o *Options)) (*Model, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxIter <= 0 {
		opts.MaxIter = DefaultOptions.MaxIter
	}
	if opts.Restarts <= 0 {
		opts.Restarts = 1
	}

	n := len(vectors)
	if k <= 0 || k > n {
		return nil, fmt.Errorf("%w: k=%d for %d vectors", ErrInvalidK, k, n)
	}

	rng := rand.New(rand.NewSource(opts.Seed)) // nolint gosec

	var best *Model
	for range opts.Restarts {
		m, err := lloyd(ctx, vectors, k, opts.MaxIter, rng)
		if err != nil {
			return nil, err
		}
		if best == nil || m.Inertia < best.Inertia {
			best = m
		}
	}

	return best, nil
}

func lloyd(ctx context.Context, vectors [][]float64, k, maxIter int, rng *rand.Rand) (*Model, error) {
	n := len(vectors)
	dim := len(vectors[0])

	centroids := seed(vectors, k, rng)
	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}
	counts := make([]int, k)

	iter := 0
	for ; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed := false

		// Assignment step
		for i, vec := range vectors {
			best := AssignPartition(vec, centroids)
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		if !changed {
			break
		}

		// Update step
		for j := range centroids {
			centroids[j] = make([]float64, dim)
			counts[j] = 0
		}

		for i, vec := range vectors {
			floats.Add(centroids[assignments[i]], vec)
			counts[assignments[i]]++
		}

		for j := range centroids {
			if counts[j] > 0 {
				floats.Scale(1/float64(counts[j]), centroids[j])
			} else {
				// Re-initialize empty cluster with a random point
				copy(centroids[j], vectors[rng.Intn(n)])
			}
		}
	}

	var inertia float64
	for i, vec := range vectors {
		inertia += distance.SquaredL2(vec, centroids[assignments[i]])
	}

	return &Model{
		Centroids:   centroids,
		Assignments: assignments,
		Inertia:     inertia,
		Iterations:  iter,
	}, nil
}

// seed picks k initial centroids with k-means++ (D² weighting).
func seed(vectors [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(vectors)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, append([]float64(nil), vectors[rng.Intn(n)]...))

	d2 := make([]float64, n)
	for i, v := range vectors {
		d2[i] = distance.SquaredL2(v, centroids[0])
	}

	for len(centroids) < k {
		total := floats.Sum(d2)

		next := rng.Intn(n)
		if total > 0 {
			target := rng.Float64() * total
			for i, d := range d2 {
				target -= d
				if target < 0 {
					next = i
					break
				}
			}
		}

		c := append([]float64(nil), vectors[next]...)
		centroids = append(centroids, c)

		for i, v := range vectors {
			d2[i] = math.Min(d2[i], distance.SquaredL2(v, c))
		}
	}

	return centroids
}

// AssignPartition finds the closest centroid for a vector.
func AssignPartition(vec []float64, centroids [][]float64) int {
	bestCluster := -1
	minDist := math.Inf(1)

	for j, center := range centroids {
		if d := distance.SquaredL2(vec, center); d < minDist {
			minDist = d
			bestCluster = j
		}
	}

	return bestCluster
}

// FindClosestCentroids returns the indices of the n closest centroids to the query vector.
func FindClosestCentroids(query []float64, centroids [][]float64, n int) []int {
	n = min(n, len(centroids))

	ids := make([]int, len(centroids))
	dists := make([]float64, len(centroids))
	for i, center := range centroids {
		ids[i] = i
		dists[i] = distance.SquaredL2(query, center)
	}

	sort.SliceStable(ids, func(a, b int) bool {
		return dists[ids[a]] < dists[ids[b]]
	})

	return ids[:n]
}

// Clusterer adapts Train to the second clustering stage.
type Clusterer struct {
	Options Options
}

// Name returns "kmeans".
func (Clusterer) Name() string { return "kmeans" }

// Cluster returns a cluster id in [0, k) for every point.
func (c Clusterer) Cluster(ctx context.Context, points [][]float64, k int) ([]int, error) {
	opts := c.Options
	m, err := Train(ctx, points, k, func(o *Options) { *o = opts })
	if err != nil {
		return nil, err
	}
	return m.Assignments, nil
}
