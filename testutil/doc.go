// Package testutil provides testing utilities for kdvec.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random vectors and computing exact
// nearest neighbors by full scan.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vecs := rng.UniformVectors(1000, 16)   // uniform [0, 1)
//	vecs = rng.GaussianVectors(1000, 16)   // standard normal
//	vecs = rng.GridVectors(1000, 4, 3)     // tie-heavy integer grid
//
// # Exact Search (Ground Truth)
//
//	results := testutil.BruteForceSearch(vecs, query, k, nil)
//	distances := testutil.Distances(results)
package testutil
