package kdtree

import (
	"github.com/hupe1980/kdvec/distance"
	"github.com/hupe1980/kdvec/index"
	"github.com/hupe1980/kdvec/model"
)

// Compile-time check to ensure Tree satisfies the index contract.
var _ index.Index[float32] = (*Tree[float32])(nil)

// node exclusively owns its children.
type node[T model.Float] struct {
	key   model.Record[T]
	left  *node[T]
	right *node[T]
}

// Tree is a k-d tree keyed by records of a fixed dimension.
type Tree[T model.Float] struct {
	root     *node[T]
	strategy distance.Strategy[T]
	plane    func(a, b []T, axis int) float64
	dim      int
	size     int
	nextID   uint32
}

// New creates an empty tree. The strategy and dimension are fixed for the
// lifetime of the tree.
func New[T model.Float](strategy distance.Strategy[T], dim int) (*Tree[T], error) {
	if strategy == nil {
		return nil, index.ErrNilStrategy
	}
	if err := index.ValidateDimension(dim); err != nil {
		return nil, err
	}

	t := &Tree[T]{
		strategy: strategy,
		plane:    distance.AxisSquared[T],
		dim:      dim,
	}
	if pd, ok := strategy.(distance.PlaneDistancer[T]); ok {
		t.plane = pd.PlaneDistance
	}
	return t, nil
}

// Dimension returns the fixed vector dimensionality.
func (t *Tree[T]) Dimension() int { return t.dim }

// Len returns the number of stored records.
func (t *Tree[T]) Len() int { return t.size }

// Insert copies vector into a new record and inserts it.
func (t *Tree[T]) Insert(vector []T, label string) (uint32, error) {
	if err := index.CheckVector(t.dim, vector); err != nil {
		return 0, err
	}
	return t.InsertRecord(model.NewRecord(vector, label))
}

// InsertRecord inserts rec and takes ownership of it. The record's ID is
// overwritten with the next insertion ordinal, which is returned.
func (t *Tree[T]) InsertRecord(rec model.Record[T]) (uint32, error) {
	if err := index.CheckVector(t.dim, rec.Vector); err != nil {
		return 0, err
	}

	rec.ID = t.nextID

	link := &t.root
	for depth := 0; *link != nil; depth++ {
		axis := depth % t.dim
		if t.strategy.Compare(rec.Vector, (*link).key.Vector, axis) < 0 {
			link = &(*link).left
		} else {
			// Ties go right.
			link = &(*link).right
		}
	}
	*link = &node[T]{key: rec}

	t.nextID++
	t.size++
	return rec.ID, nil
}

// Height returns the number of nodes on the longest root-to-leaf path.
func (t *Tree[T]) Height() int {
	return height(t.root)
}

func height[T model.Float](n *node[T]) int {
	if n == nil {
		return 0
	}
	return 1 + max(height(n.left), height(n.right))
}

// Walk visits every record in pre-order with its depth. Returning false
// from fn stops the walk.
func (t *Tree[T]) Walk(fn func(rec model.Record[T], depth int) bool) {
	walk(t.root, 0, fn)
}

func walk[T model.Float](n *node[T], depth int, fn func(model.Record[T], int) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n.key, depth) {
		return false
	}
	return walk(n.left, depth+1, fn) && walk(n.right, depth+1, fn)
}

// Destroy tears the tree down in post-order, handing each record to
// release (which may be nil) after both of its children, and leaves the
// tree empty. Destroying an empty tree does nothing.
func (t *Tree[T]) Destroy(release func(rec model.Record[T])) {
	destroy(t.root, release)
	t.root = nil
	t.size = 0
}

func destroy[T model.Float](n *node[T], release func(model.Record[T])) {
	if n == nil {
		return
	}
	destroy(n.left, release)
	destroy(n.right, release)
	n.left, n.right = nil, nil
	if release != nil {
		release(n.key)
	}
}
