// Package kdvec provides an exact nearest-neighbor index for embeddings.
//
// kdvec stores fixed-dimensionality float32 vectors with short labels in a
// k-d tree and answers "which k stored vectors are closest to this query?"
// under squared Euclidean distance. Search is exact: a bounded max-heap
// keeps the k best candidates and prunes every subtree whose splitting
// hyperplane is already farther away than the current k-th best.
//
// # Quick Start
//
//	ctx := context.Background()
//	idx, _ := kdvec.New(128)
//	defer idx.Close()
//
//	idx.Insert(ctx, vec, "Ana")
//	results, _ := idx.Search(ctx, query, 2)
//	for _, r := range results {
//	    fmt.Println(r.Label, r.Distance)
//	}
//
// Or with the fluent builders:
//
//	idx := kdvec.KDTree(128).SquaredL2().MemoryLimit(64 << 20).MustBuild()
//	first, _ := idx.Query(query).Filter(allowed).First(ctx)
//
// # Filtering
//
// WithFilter takes a roaring bitmap of allowed IDs; WithFilterFunc takes a
// predicate. Filtered records are still traversed, so results remain the
// exact k nearest among the allowed set.
//
// # Batch Search
//
// SearchBatch fans queries out over a bounded number of goroutines:
//
//	results, _ := idx.SearchBatch(ctx, queries, 10)
//
// # Resource Limits
//
// WithMemoryLimit caps record memory, WithMaxConcurrentSearches bounds
// parallel searches and WithQueryRateLimit throttles query throughput.
// With WithBlockingMemory an insert waits for memory instead of failing.
// Close releases every record and its tracked memory.
//
// # Key Features
//
//   - Exact k-NN with hyperplane pruning
//   - Generic core (index/kdtree) over float32 and float64
//   - Pluggable distance strategies (package distance)
//   - Structured logging (log/slog) and pluggable metrics (prommetrics)
package kdvec
