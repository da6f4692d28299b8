package dataset

import (
	"errors"
	"math/rand"
	"strconv"
)

// ErrInvalidShape is returned for a non-positive point count or dimension.
var ErrInvalidShape = errors.New("dataset: point count and dimension must be positive")

// SyntheticOptions configures Synthetic.
type SyntheticOptions struct {
	// Points is the number of points.
	Points int
	// Dimension is the point dimensionality.
	Dimension int
	// Centers > 0 draws Gaussian blobs around that many uniform centers
	// instead of uniform noise in [0,1).
	Centers int
	// Spread is the blob standard deviation.
	Spread float64
	// Seed seeds the generator.
	Seed int64
}

// DefaultSyntheticOptions mirrors the classic 100×5 uniform sample.
var DefaultSyntheticOptions = SyntheticOptions{
	Points:    100,
	Dimension: 5,
	Spread:    0.01,
	Seed:      1,
}

// Synthetic returns random points and the labels "word_0" … "word_{n-1}".
// truth holds the blob of each point, or nil for uniform data.
func Synthetic(optFns ...func(o *SyntheticOptions)) (points [][]float64, labels []string, truth []int, err error) {
	opts := DefaultSyntheticOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Points <= 0 || opts.Dimension <= 0 {
		return nil, nil, nil, ErrInvalidShape
	}

	rng := rand.New(rand.NewSource(opts.Seed)) // nolint gosec

	points = make([][]float64, opts.Points)

	var centers [][]float64
	if opts.Centers > 0 {
		centers = make([][]float64, opts.Centers)
		for c := range centers {
			centers[c] = uniform(rng, opts.Dimension)
		}
		truth = make([]int, opts.Points)
	}

	for i := range points {
		if centers == nil {
			points[i] = uniform(rng, opts.Dimension)
			continue
		}

		c := i % len(centers)
		p := make([]float64, opts.Dimension)
		for j := range p {
			p[j] = centers[c][j] + rng.NormFloat64()*opts.Spread
		}
		points[i] = p
		truth[i] = c
	}

	labels = make([]string, opts.Points)
	for i := range labels {
		labels[i] = "word_" + strconv.Itoa(i)
	}

	return points, labels, truth, nil
}

func uniform(rng *rand.Rand, dim int) []float64 {
	p := make([]float64, dim)
	for j := range p {
		p[j] = rng.Float64()
	}
	return p
}
