package kdtree

import (
	"github.com/hupe1980/kdvec/index"
	"github.com/hupe1980/kdvec/internal/searcher"
	"github.com/hupe1980/kdvec/model"
)

// SearchStats describes the work done by one search.
type SearchStats struct {
	// Visited is the number of nodes whose distance was evaluated.
	Visited int
	// Pruned is the number of far subtrees skipped by the hyperplane test.
	Pruned int
}

// Search returns the k records nearest to query, ascending by distance.
// Fewer than k are returned only when fewer records pass filter (nil
// accepts all). Records at equal distance appear in visit order.
func (t *Tree[T]) Search(query []T, k int, filter index.FilterFunc) ([]model.Neighbor[T], error) {
	res, _, err := t.SearchWithStats(query, k, filter)
	return res, err
}

// SearchWithStats is Search that also reports traversal statistics.
func (t *Tree[T]) SearchWithStats(query []T, k int, filter index.FilterFunc) ([]model.Neighbor[T], SearchStats, error) {
	if err := index.ValidateK(k); err != nil {
		return nil, SearchStats{}, err
	}
	if err := index.CheckVector(t.dim, query); err != nil {
		return nil, SearchStats{}, err
	}
	if t.root == nil {
		return []model.Neighbor[T]{}, SearchStats{}, nil
	}

	s := &search[T]{
		tree:   t,
		query:  query,
		filter: filter,
		heap:   searcher.NewBoundedMaxHeap[*node[T]](k),
	}
	s.visit(t.root, 0)

	items := s.heap.DrainSorted()
	out := make([]model.Neighbor[T], len(items))
	for i, item := range items {
		out[i] = model.Neighbor[T]{Record: item.Value.key, Distance: item.Distance}
	}
	return out, s.stats, nil
}

// search holds the transient state of one query.
type search[T model.Float] struct {
	tree   *Tree[T]
	query  []T
	filter index.FilterFunc
	heap   *searcher.BoundedMaxHeap[*node[T]]
	stats  SearchStats
}

func (s *search[T]) visit(n *node[T], depth int) {
	if n == nil {
		return
	}

	// Internal nodes are candidates too, not only leaves.
	s.stats.Visited++
	if s.filter == nil || s.filter(n.key.ID) {
		s.heap.Offer(n, s.tree.strategy.Distance(n.key.Vector, s.query))
	}

	axis := depth % s.tree.dim
	near, far := n.right, n.left
	if s.tree.strategy.Compare(s.query, n.key.Vector, axis) < 0 {
		near, far = n.left, n.right
	}

	s.visit(near, depth+1)

	if far == nil {
		return
	}
	worst, full := s.heap.Worst()
	if !full || s.tree.plane(s.query, n.key.Vector, axis) < worst {
		s.visit(far, depth+1)
		return
	}
	s.stats.Pruned++
}
