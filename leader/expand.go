package leader

import "fmt"

// Expand assigns every point the cluster id of its clique.
//
// cliqueLabels[c] is the cluster id of p.Cliques[c]. The result is indexed by
// store position.
func Expand(p *Partition, cliqueLabels []int) ([]int, error) {
	if len(cliqueLabels) != len(p.Cliques) {
		return nil, fmt.Errorf("%w: %d labels for %d cliques", ErrLabelCountMismatch, len(cliqueLabels), len(p.Cliques))
	}

	assignments := make([]int, p.N)
	for i := range assignments {
		assignments[i] = -1
	}

	for c, clique := range p.Cliques {
		for _, m := range clique.Members {
			assignments[m] = cliqueLabels[c]
		}
	}

	return assignments, nil
}
