// Package distance provides the per-axis comparators and distance metrics
// used by kdvec's k-d tree.
//
// A Strategy bundles the two functions the tree needs: an ordering on a
// single coordinate (Compare) and a full-vector distance (Distance). The tree
// never inspects coordinates itself, so any metric whose single-axis
// difference is a lower bound on the full distance can be plugged in.
//
// Strategies may also implement PlaneDistancer to report that lower bound in
// their own units; Euclidean does this because it reports sqrt-scaled
// distances.
package distance
