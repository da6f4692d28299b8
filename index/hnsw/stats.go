package hnsw

// LevelStats describes a single layer of the graph.
type LevelStats struct {
	Level              int
	Nodes              int
	Connections        int
	AverageConnections float64
}

// Stats summarizes the shape of the graph.
type Stats struct {
	M         int
	EF        int
	EFSearch  int
	Heuristic bool
	Nodes     int
	MaxLevel  int
	EntryNode int
	Levels    []LevelStats
}

// Stats returns statistics about the HNSW graph
func (h *HNSW) Stats() Stats {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	levels := make([]LevelStats, h.maxLevel+1)
	for i := range levels {
		levels[i].Level = i
	}

	for _, node := range h.nodes {
		for level := node.Layer; level >= 0; level-- {
			levels[level].Nodes++
			levels[level].Connections += len(node.Connections[level])
		}
	}

	for i := range levels {
		if levels[i].Nodes > 0 {
			levels[i].AverageConnections = float64(levels[i].Connections) / float64(levels[i].Nodes)
		}
	}

	return Stats{
		M:         h.opts.M,
		EF:        h.opts.EF,
		EFSearch:  h.opts.EFSearch,
		Heuristic: h.opts.Heuristic,
		Nodes:     len(h.nodes),
		MaxLevel:  h.maxLevel,
		EntryNode: h.ep,
		Levels:    levels,
	}
}
