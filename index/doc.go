// Package index provides the shared contracts and error types of kdvec's
// vector indexes.
//
// # Index Types
//
//   - kdtree: exact k-nearest-neighbor search over a k-d tree with
//     bounded-heap pruning
//
// # Index Interface
//
// Index implementations satisfy the Index interface:
//
//	type Index[T model.Float] interface {
//	    Dimension() int
//	    Len() int
//	    Insert(vector []T, label string) (uint32, error)
//	    Search(query []T, k int, filter FilterFunc) ([]model.Neighbor[T], error)
//	}
//
// # Errors
//
// Argument errors are typed so callers can inspect them with errors.As:
//
//	var dm *index.ErrDimensionMismatch
//	if errors.As(err, &dm) { ... }
package index
