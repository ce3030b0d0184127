// Package kdvec provides an exact nearest-neighbor index for embeddings.
//
// This file implements a fluent builder API for creating and configuring
// kdvec indexes. Builders are immutable - each method returns a new builder
// with the updated configuration.
package kdvec

import (
	"slices"

	"github.com/hupe1980/kdvec/distance"
)

// KDTree creates a new k-d tree index builder with the specified dimension.
//
// Example:
//
//	idx, err := kdvec.KDTree(128).
//	    SquaredL2().
//	    MemoryLimit(64 << 20).
//	    Build()
func KDTree(dimension int) KDTreeBuilder {
	return KDTreeBuilder{dimension: dimension}
}

// KDTreeBuilder is an immutable fluent builder for creating Index instances.
type KDTreeBuilder struct {
	dimension int
	opts      []Option
}

func (b KDTreeBuilder) with(opt Option) KDTreeBuilder {
	b.opts = append(slices.Clip(b.opts), opt)
	return b
}

// SquaredL2 sets the distance function to squared Euclidean (default).
func (b KDTreeBuilder) SquaredL2() KDTreeBuilder {
	return b.with(WithMetric(distance.MetricSquaredL2))
}

// L2 sets the distance function to Euclidean.
func (b KDTreeBuilder) L2() KDTreeBuilder {
	return b.with(WithMetric(distance.MetricL2))
}

// Logger sets the logger.
func (b KDTreeBuilder) Logger(l *Logger) KDTreeBuilder {
	return b.with(WithLogger(l))
}

// Metrics sets the metrics collector.
func (b KDTreeBuilder) Metrics(mc MetricsCollector) KDTreeBuilder {
	return b.with(WithMetricsCollector(mc))
}

// MemoryLimit caps the bytes held by stored records.
func (b KDTreeBuilder) MemoryLimit(bytes int64) KDTreeBuilder {
	return b.with(WithMemoryLimit(bytes))
}

// BlockingMemory makes inserts wait for memory instead of failing.
func (b KDTreeBuilder) BlockingMemory() KDTreeBuilder {
	return b.with(WithBlockingMemory())
}

// MaxConcurrentSearches bounds how many searches run at once.
func (b KDTreeBuilder) MaxConcurrentSearches(n int) KDTreeBuilder {
	return b.with(WithMaxConcurrentSearches(n))
}

// QueryRateLimit limits searches per second.
func (b KDTreeBuilder) QueryRateLimit(qps float64, burst int) KDTreeBuilder {
	return b.with(WithQueryRateLimit(qps, burst))
}

// BatchParallelism bounds the goroutines used by SearchBatch.
func (b KDTreeBuilder) BatchParallelism(n int) KDTreeBuilder {
	return b.with(WithBatchParallelism(n))
}

// Build creates the Index.
func (b KDTreeBuilder) Build() (*Index, error) {
	return New(b.dimension, b.opts...)
}

// MustBuild creates the Index, panicking on error.
func (b KDTreeBuilder) MustBuild() *Index {
	idx, err := b.Build()
	if err != nil {
		panic(err)
	}
	return idx
}
