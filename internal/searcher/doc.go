// Package searcher provides the bounded result heap used during k-NN search.
//
// A BoundedMaxHeap keeps the N best (smallest-distance) candidates seen so
// far. Its root is always the worst retained candidate, so a new candidate
// is either rejected in O(1) or swapped in at the root in O(log N).
//
// Heaps are scoped to a single search call and are not thread-safe.
package searcher
