// Package kdtree implements an exact k-nearest-neighbor index over a k-d tree.
//
// The tree partitions space by cycling the split coordinate with depth
// (axis = depth mod D). Records that compare LESS than a node on its axis go
// left; EQUAL or GREATER go right. The tree is never rebalanced, so its shape
// follows insertion order.
//
// Search walks the tree depth-first, offering every visited record to a
// bounded max-heap of capacity k. After the near side of a node has been
// searched, the far side is visited only while the heap is not yet full or
// the distance from the query to the splitting hyperplane is below the
// current k-th best distance. The result is exact.
//
// A Tree is not safe for concurrent use; callers serialize writes against
// reads.
//
//	tree, _ := kdtree.New[float32](distance.SquaredEuclidean[float32]{}, 128)
//	tree.Insert(vec, "Ana")
//	hits, _ := tree.Search(query, 2, nil)
package kdtree
