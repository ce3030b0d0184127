package kdtree

// Stats is a snapshot of the tree shape.
type Stats struct {
	Dimension int
	Size      int
	Height    int
}

// Stats returns a snapshot of the tree shape.
func (t *Tree[T]) Stats() Stats {
	return Stats{
		Dimension: t.dim,
		Size:      t.size,
		Height:    t.Height(),
	}
}
