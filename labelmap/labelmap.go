// Package labelmap aligns the cluster ids of two clusterings of the same
// points so that they agree on as many points as possible.
//
// The alignment maximizes the trace of the contingency matrix with the
// Hungarian algorithm.
package labelmap

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrLengthMismatch is returned when the two labelings differ in length.
var ErrLengthMismatch = errors.New("labelings differ in length")

// Alignment maps candidate cluster ids onto reference cluster ids.
type Alignment struct {
	// Mapping holds candidate id -> reference id for every matched candidate id.
	Mapping map[int]int

	// Matched is the number of points whose mapped candidate id equals the reference id.
	Matched int

	// Total is the number of points.
	Total int
}

// Agreement returns the fraction of points on which the aligned labelings agree.
func (a *Alignment) Agreement() float64 {
	if a.Total == 0 {
		return 1
	}
	return float64(a.Matched) / float64(a.Total)
}

// Apply relabels candidate ids. Ids without a partner receive fresh ids
// above the largest reference id, in order of first appearance.
func (a *Alignment) Apply(labels []int) []int {
	next := -1
	for _, r := range a.Mapping {
		next = max(next, r)
	}
	next++

	fresh := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		if r, ok := a.Mapping[l]; ok {
			out[i] = r
			continue
		}
		if _, ok := fresh[l]; !ok {
			fresh[l] = next
			next++
		}
		out[i] = fresh[l]
	}

	return out
}

// Align finds the mapping of candidate ids to reference ids with maximal agreement.
func Align(reference, candidate []int) (*Alignment, error) {
	if len(reference) != len(candidate) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(reference), len(candidate))
	}

	refIDs := distinct(reference)
	candIDs := distinct(candidate)

	refPos := positions(refIDs)
	candPos := positions(candIDs)

	size := max(len(refIDs), len(candIDs))
	counts := make([][]float64, size)
	for i := range counts {
		counts[i] = make([]float64, size)
	}

	var peak float64
	for i := range reference {
		r, c := refPos[reference[i]], candPos[candidate[i]]
		counts[c][r]++
		peak = max(peak, counts[c][r])
	}

	// Maximizing agreement is minimizing peak - count.
	cost := make([][]float64, size)
	for i := range cost {
		cost[i] = make([]float64, size)
		for j := range cost[i] {
			cost[i][j] = peak - counts[i][j]
		}
	}

	assignment := Hungarian(cost)

	a := &Alignment{Mapping: make(map[int]int), Total: len(reference)}
	for c, r := range assignment {
		if c >= len(candIDs) || r >= len(refIDs) {
			continue
		}
		a.Mapping[candIDs[c]] = refIDs[r]
		a.Matched += int(counts[c][r])
	}

	return a, nil
}

// Hungarian solves the square assignment problem and returns, for every row,
// the column assigned to it at minimal total cost.
func Hungarian(cost [][]float64) []int {
	n := len(cost)
	if n == 0 {
		return nil
	}

	// Potentials u (rows) and v (columns), 1-based with a virtual column 0.
	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1) // p[j]: row matched to column j
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, n+1)
		used := make([]bool, n+1)
		for j := range minv {
			minv[j] = math.Inf(1)
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := math.Inf(1)
			j1 := 0

			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}

			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}

			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	assignment := make([]int, n)
	for j := 1; j <= n; j++ {
		assignment[p[j]-1] = j - 1
	}

	return assignment
}

func distinct(labels []int) []int {
	ids := slices.Clone(labels)
	slices.Sort(ids)
	return slices.Compact(ids)
}

func positions(ids []int) map[int]int {
	pos := make(map[int]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}
	return pos
}
