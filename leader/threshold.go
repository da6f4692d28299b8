package leader

import (
	"context"
	"fmt"
	"math"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/arushisharma17/ConceptX/index"
)

// EstimateThreshold derives τ as the median distance between a sampled point
// and its nearest other point.
//
// Up to SampleSize of the first n points of idx are sampled without
// replacement. Fewer than two points return ErrInsufficientData.
func EstimateThreshold(ctx context.Context, idx index.Index, n int, optFns ...func(*Options)) (float64, error) {
	opts := applyOptions(optFns)

	n = min(n, idx.Len())
	if n < 2 {
		return 0, fmt.Errorf("%w: need at least 2 points, have %d", ErrInsufficientData, n)
	}

	m := min(opts.SampleSize, n)
	sample := opts.Rand.Perm(n)[:m]

	distances := make([]float64, m)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for j, id := range sample {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			neighbours, err := idx.Query(id, 2)
			if err != nil {
				return fmt.Errorf("query neighbours of point %d: %w", id, err)
			}

			distances[j] = math.NaN()
			if len(neighbours) >= 2 {
				distances[j] = neighbours[1].Distance
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	distances = slices.DeleteFunc(distances, math.IsNaN)
	if len(distances) == 0 {
		return 0, fmt.Errorf("%w: no sampled point has a neighbour", ErrInsufficientData)
	}

	return Median(distances), nil
}

// Median returns the median of xs, averaging the two middle values for an
// even count. xs is not modified. An empty input yields NaN.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}

	sorted := slices.Clone(xs)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}

	return (sorted[mid-1] + sorted[mid]) / 2
}
