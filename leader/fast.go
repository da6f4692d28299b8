package leader

import (
	"context"
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/time/rate"

	"github.com/arushisharma17/ConceptX/index"
	"github.com/arushisharma17/ConceptX/vectorstore"
)

const fastProgressEvery = 100

// BuildFast builds cliques with the help of a nearest neighbour index.
//
// Points are visited in store order. Every point that is not consumed yet
// opens a clique and absorbs every unconsumed neighbour within tau. A
// non-positive tau yields one singleton clique per point.
//
// The index must hold at least store.Len() points in store order; neighbours
// beyond the store are ignored.
func BuildFast(ctx context.Context, store *vectorstore.Store, idx index.Index, tau float64, optFns ...func(*Options)) (*Partition, error) {
	opts := applyOptions(optFns)

	n := store.Len()

	if idx.Dimension() != store.Dimension() {
		return nil, &index.ErrDimensionMismatch{Expected: store.Dimension(), Actual: idx.Dimension()}
	}

	if idx.Len() < n {
		return nil, fmt.Errorf("%w: %d < %d", ErrIndexTooSmall, idx.Len(), n)
	}

	consumed := bitset.New(uint(n))
	p := &Partition{N: n}

	progress := rate.Sometimes{Every: everyOr(opts.ProgressEvery, fastProgressEvery)}

	for i := range n {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		if consumed.Test(uint(i)) {
			continue
		}

		clique := NewClique(i, store.Point(i))
		consumed.Set(uint(i))

		if tau > 0 {
			neighbours, err := radiusSearch(idx, i, tau, opts.InitialLimit, p)
			if err != nil {
				return nil, fmt.Errorf("query neighbours of point %d: %w", i, err)
			}

			for _, nb := range neighbours {
				if nb.ID == i || nb.ID < 0 || nb.ID >= n || consumed.Test(uint(nb.ID)) {
					continue
				}

				if err := clique.Add(nb.ID, store.Point(nb.ID)); err != nil {
					return nil, err
				}
				consumed.Set(uint(nb.ID))
			}
		}

		p.Cliques = append(p.Cliques, clique)

		if opts.OnProgress != nil {
			progress.Do(func() {
				opts.OnProgress(Progress{Cliques: len(p.Cliques), Processed: i + 1, Points: n})
			})
		}
	}

	return p, nil
}

// radiusSearch returns the neighbours of id within tau, nearest first.
//
// The query size starts at InitialLimit and doubles while the farthest result
// is still within tau, up to the size of the index. Once the farthest result
// lies beyond tau the list is cut before the first such result.
func radiusSearch(idx index.Index, id int, tau float64, initialLimit int, p *Partition) ([]index.Neighbor, error) {
	total := idx.Len()
	limit := min(initialLimit, total)

	for {
		neighbours, err := idx.Query(id, limit)
		if err != nil {
			return nil, err
		}
		p.Queries++

		if len(neighbours) == 0 {
			return nil, nil
		}

		if neighbours[len(neighbours)-1].Distance <= tau {
			// Exhausted: everything the index can return is within tau.
			if limit >= total || len(neighbours) < limit {
				return neighbours, nil
			}

			limit = min(2*limit, total)
			p.Expansions++

			continue
		}

		j := sort.Search(len(neighbours), func(j int) bool {
			return neighbours[j].Distance > tau
		})

		return neighbours[:j], nil
	}
}

func everyOr(every, fallback int) int {
	if every > 0 {
		return every
	}
	return fallback
}
