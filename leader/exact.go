package leader

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/arushisharma17/ConceptX/distance"
	"github.com/arushisharma17/ConceptX/vectorstore"
)

const exactProgressEvery = 1000

// BuildExact builds cliques by comparing every point with the centroids of
// the cliques built so far. A point joins the first clique, in creation
// order, whose centroid lies strictly closer than tau; otherwise it opens a
// new clique. The result depends only on the store and tau.
//
// This is not nearest-centroid assignment: a later, closer clique is never
// considered, and clique size plays no part.
//
// A nil tau returns ErrMissingThreshold.
func BuildExact(ctx context.Context, store *vectorstore.Store, tau *float64, optFns ...func(*Options)) (*Partition, error) {
	if tau == nil {
		return nil, ErrMissingThreshold
	}

	opts := applyOptions(optFns)

	n := store.Len()
	p := &Partition{N: n}

	progress := rate.Sometimes{Every: everyOr(opts.ProgressEvery, exactProgressEvery)}

	for i := range n {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		point := store.Point(i)

		joined := false
		for _, c := range p.Cliques {
			if distance.L2(c.Centroid, point) < *tau {
				if err := c.Add(i, point); err != nil {
					return nil, err
				}
				joined = true
				break
			}
		}

		if !joined {
			p.Cliques = append(p.Cliques, NewClique(i, point))
		}

		if opts.OnProgress != nil {
			progress.Do(func() {
				opts.OnProgress(Progress{Cliques: len(p.Cliques), Processed: i + 1, Points: n})
			})
		}
	}

	return p, nil
}
