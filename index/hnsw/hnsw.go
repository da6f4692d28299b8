// Package hnsw implements a Hierarchical Navigable Small World graph for
// approximate nearest neighbour search under Euclidean distance.
package hnsw

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/arushisharma17/ConceptX/distance"
	"github.com/arushisharma17/ConceptX/index"
	"github.com/arushisharma17/ConceptX/internal/queue"
)

// Compile time check to ensure HNSW satisfies the index interface.
var _ index.Index = (*HNSW)(nil)

// Node represents a node in the HNSW graph
type Node struct {
	Connections [][]int // Links to other nodes, one list per layer
	Layer       int     // Highest layer the node exists in
	ID          int     // Position in the point store
}

// Options represents the options for configuring HNSW.
type Options struct {
	// M specifies the number of established connections for every new element during construction.
	// The range M=12-48 is ok for most use cases; high dimensional embeddings favour the upper end.
	M int

	// EF specifies the size of the dynamic candidate list during construction.
	EF int

	// EFSearch is the minimum candidate list size during queries.
	// Queries for k neighbours always use at least k.
	EFSearch int

	// Heuristic indicates whether to use the heuristic neighbour selection (true) or the naive k-NN selection (false).
	Heuristic bool

	// Seed drives level generation. Equal seeds and insertion orders build equal graphs.
	Seed int64
}

// DefaultOptions contains the default configuration options for HNSW.
var DefaultOptions = Options{
	M:         16,
	EF:        200,
	EFSearch:  64,
	Heuristic: true,
	Seed:      42,
}

// HNSW represents the Hierarchical Navigable Small World graph
type HNSW struct {
	dimension int
	mmax      int     // Max number of connections per element/per layer
	mmax0     int     // Max for the 0 layer
	ml        float64 // Normalization factor for level generation
	ep        int     // Entry point on the top layer
	maxLevel  int     // Track the current max level used

	nodes   []*Node
	vectors [][]float64

	opts Options
	rng  *rand.Rand

	mutex sync.RWMutex
}

// New creates a new HNSW instance with the given dimension and options
func New(dimension int, optFns ...func(o *Options)) *HNSW {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.M < 2 {
		// 1 / log(1.0 * M) is undefined for M <= 1
		opts.M = 2
	}

	if opts.EF < opts.M {
		opts.EF = opts.M
	}

	if opts.EFSearch <= 0 {
		opts.EFSearch = DefaultOptions.EFSearch
	}

	h := &HNSW{
		dimension: dimension,
		opts:      opts,
	}
	h.init()

	return h
}

func (h *HNSW) init() {
	h.mmax = h.opts.M
	h.mmax0 = 2 * h.opts.M
	h.ml = 1 / math.Log(float64(h.opts.M))
	h.rng = rand.New(rand.NewSource(h.opts.Seed)) // nolint gosec
}

// Build creates a graph holding vectors in order, so node i is vectors[i].
func Build(ctx context.Context, vectors [][]float64, optFns ...func(o *Options)) (*HNSW, error) {
	if len(vectors) == 0 {
		return nil, index.ErrEmptyIndex
	}

	h := New(len(vectors[0]), optFns...)

	for i, v := range vectors {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		if _, err := h.Insert(v); err != nil {
			return nil, err
		}
	}

	return h, nil
}

func (*HNSW) Name() string { return "hnsw" }

// Len returns the number of indexed points.
func (h *HNSW) Len() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.nodes)
}

// Dimension returns the dimension of the indexed points.
func (h *HNSW) Dimension() int { return h.dimension }

// Insert inserts a new element into the HNSW graph and returns its id.
func (h *HNSW) Insert(v []float64) (int, error) {
	// Check if dimensions of the input vector match the expected dimension
	if len(v) != h.dimension {
		return 0, &index.ErrDimensionMismatch{Expected: h.dimension, Actual: len(v)}
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	id := len(h.nodes)
	layer := h.randomLevel()

	node := &Node{
		ID:          id,
		Layer:       layer,
		Connections: make([][]int, layer+1),
	}

	h.nodes = append(h.nodes, node)
	h.vectors = append(h.vectors, v)

	if id == 0 {
		h.ep = 0
		h.maxLevel = layer
		return id, nil
	}

	// Find single shortest path from top layers above our current node, which will be our new starting-point
	ep, epDist := h.greedySearch(v, h.ep, h.maxLevel, layer)

	// For all levels equal and below our current node, find the top (closest) candidates and create a link
	for level := min(layer, h.maxLevel); level >= 0; level-- {
		topCandidates := h.searchLayer(v, ep, epDist, h.opts.EF, level)

		candidates := drainAscending(topCandidates)
		ep, epDist = candidates[0].Node, candidates[0].Distance

		node.Connections[level] = h.selectNeighbours(candidates, h.opts.M)
	}

	// Next link the neighbour nodes to our new node, making it visible
	for level := min(layer, h.maxLevel); level >= 0; level-- {
		for _, neighbour := range node.Connections[level] {
			h.link(neighbour, id, level)
		}
	}

	if layer > h.maxLevel {
		h.ep = id
		h.maxLevel = layer
	}

	return id, nil
}

// Query returns up to k approximate neighbours of point id, nearest first.
func (h *HNSW) Query(id, k int) ([]index.Neighbor, error) {
	h.mutex.RLock()
	if id < 0 || id >= len(h.vectors) {
		h.mutex.RUnlock()
		return nil, index.ErrOutOfRange
	}
	q := h.vectors[id]
	h.mutex.RUnlock()

	return h.Search(q, k)
}

// Search performs a k-nearest neighbour search in the HNSW graph.
func (h *HNSW) Search(q []float64, k int) ([]index.Neighbor, error) {
	if len(q) != h.dimension {
		return nil, &index.ErrDimensionMismatch{Expected: h.dimension, Actual: len(q)}
	}

	if k <= 0 {
		return nil, nil
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if len(h.nodes) == 0 {
		return nil, nil
	}

	ep, epDist := h.greedySearch(q, h.ep, h.maxLevel, 0)
	topCandidates := h.searchLayer(q, ep, epDist, max(h.opts.EFSearch, k), 0)

	candidates := drainAscending(topCandidates)
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	result := make([]index.Neighbor, len(candidates))
	for i, c := range candidates {
		result[i] = index.Neighbor{ID: c.Node, Distance: distance.FromSquared(c.Distance)}
	}
	index.SortNeighbors(result)

	return result, nil
}

// BruteSearch performs an exact search over all nodes of the graph.
func (h *HNSW) BruteSearch(q []float64, k int) ([]index.Neighbor, error) {
	if len(q) != h.dimension {
		return nil, &index.ErrDimensionMismatch{Expected: h.dimension, Actual: len(q)}
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	topCandidates := queue.NewMax(k + 1)
	for id, v := range h.vectors {
		topCandidates.PushItem(queue.Item{Node: id, Distance: distance.SquaredL2(q, v)})
		if topCandidates.Len() > k {
			topCandidates.PopItem()
		}
	}

	candidates := drainAscending(topCandidates)
	result := make([]index.Neighbor, len(candidates))
	for i, c := range candidates {
		result[i] = index.Neighbor{ID: c.Node, Distance: distance.FromSquared(c.Distance)}
	}

	return result, nil
}

func (h *HNSW) randomLevel() int {
	// 1 - Float64() lies in (0, 1], so the logarithm is finite.
	return int(math.Floor(-math.Log(1-h.rng.Float64()) * h.ml))
}

// greedySearch walks from ep towards q on every layer above toLevel.
func (h *HNSW) greedySearch(q []float64, ep, fromLevel, toLevel int) (int, float64) {
	currObj := ep
	currDist := distance.SquaredL2(q, h.vectors[currObj])

	for level := fromLevel; level > toLevel; level-- {
		changed := true
		for changed {
			changed = false

			for _, nodeID := range h.nodes[currObj].Connections[level] {
				newDist := distance.SquaredL2(q, h.vectors[nodeID])
				if newDist < currDist {
					// Update the starting point to our new node
					currObj = nodeID
					currDist = newDist
					changed = true
				}
			}
		}
	}

	return currObj, currDist
}

// link adds second to the neighbour list of first, pruning the list when it overflows.
func (h *HNSW) link(first, second, level int) {
	maxConnections := h.mmax
	// HNSW allows double the connections for the bottom level (0)
	if level == 0 {
		maxConnections = h.mmax0
	}

	node := h.nodes[first]
	node.Connections[level] = append(node.Connections[level], second)

	if len(node.Connections[level]) <= maxConnections {
		return
	}

	topCandidates := queue.NewMax(len(node.Connections[level]))
	for _, id := range node.Connections[level] {
		topCandidates.PushItem(queue.Item{Node: id, Distance: distance.SquaredL2(h.vectors[first], h.vectors[id])})
	}

	node.Connections[level] = h.selectNeighbours(drainAscending(topCandidates), maxConnections)
}

// searchLayer performs a best first search in a single layer and returns a
// max-heap holding at most ef candidates.
func (h *HNSW) searchLayer(q []float64, ep int, epDist float64, ef int, level int) *queue.PriorityQueue {
	visited := bitset.New(uint(len(h.nodes)))
	visited.Set(uint(ep))

	candidates := queue.NewMin(ef)
	candidates.PushItem(queue.Item{Node: ep, Distance: epDist})

	topCandidates := queue.NewMax(ef + 1)
	topCandidates.PushItem(queue.Item{Node: ep, Distance: epDist})

	for candidates.Len() > 0 {
		candidate, _ := candidates.PopItem()
		lowerBound, _ := topCandidates.TopItem()

		if candidate.Distance > lowerBound.Distance {
			break
		}

		node := h.nodes[candidate.Node]
		if len(node.Connections) <= level {
			continue
		}

		for _, n := range node.Connections[level] {
			if visited.Test(uint(n)) {
				continue
			}
			visited.Set(uint(n))

			d := distance.SquaredL2(q, h.vectors[n])
			worst, _ := topCandidates.TopItem()

			// Add the element to topCandidates if size < ef or it beats the worst
			if topCandidates.Len() < ef || d < worst.Distance {
				item := queue.Item{Node: n, Distance: d}
				candidates.PushItem(item)
				topCandidates.PushItem(item)

				if topCandidates.Len() > ef {
					topCandidates.PopItem()
				}
			}
		}
	}

	return topCandidates
}

// selectNeighbours picks up to m ids from candidates sorted nearest first.
func (h *HNSW) selectNeighbours(candidates []queue.Item, m int) []int {
	if !h.opts.Heuristic || len(candidates) <= m {
		n := min(m, len(candidates))
		ids := make([]int, n)
		for i := range n {
			ids[i] = candidates[i].Node
		}
		return ids
	}

	selected := make([]queue.Item, 0, m)
	pruned := make([]queue.Item, 0, len(candidates))

	for _, c := range candidates {
		if len(selected) >= m {
			break
		}

		// Keep c only if it is closer to the base than to every selected neighbour
		hit := true
		for _, s := range selected {
			if distance.SquaredL2(h.vectors[s.Node], h.vectors[c.Node]) < c.Distance {
				hit = false
				break
			}
		}

		if hit {
			selected = append(selected, c)
		} else {
			pruned = append(pruned, c)
		}
	}

	// Add any additional pruned items if selected < m
	for i := 0; len(selected) < m && i < len(pruned); i++ {
		selected = append(selected, pruned[i])
	}

	ids := make([]int, len(selected))
	for i, s := range selected {
		ids[i] = s.Node
	}

	return ids
}

// drainAscending empties a max-heap into a slice sorted nearest first.
func drainAscending(pq *queue.PriorityQueue) []queue.Item {
	items := make([]queue.Item, pq.Len())
	for i := len(items) - 1; i >= 0; i-- {
		items[i], _ = pq.PopItem()
	}
	return items
}
