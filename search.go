// Package kdvec provides an exact nearest-neighbor index for embeddings.
//
// This file implements search options and a fluent search API for querying
// kdvec indexes.
package kdvec

import (
	"context"
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/kdvec/index"
)

type searchOptions struct {
	allow         *roaring.Bitmap
	filterFunc    func(id ID) bool
	includeVector bool
	stats         *SearchStats
}

// SearchOption configures a single search.
type SearchOption func(*searchOptions)

// WithFilter restricts results to the IDs in allow. Filtering never changes
// exactness: the k nearest records among allow are returned.
func WithFilter(allow *roaring.Bitmap) SearchOption {
	return func(o *searchOptions) {
		o.allow = allow
	}
}

// WithFilterFunc restricts results to IDs for which fn returns true.
// Combined with WithFilter, a record must pass both.
func WithFilterFunc(fn func(id ID) bool) SearchOption {
	return func(o *searchOptions) {
		o.filterFunc = fn
	}
}

// WithVectors includes a copy of each result's vector.
func WithVectors() SearchOption {
	return func(o *searchOptions) {
		o.includeVector = true
	}
}

// WithStats stores the traversal statistics of the search in dst.
func WithStats(dst *SearchStats) SearchOption {
	return func(o *searchOptions) {
		o.stats = dst
	}
}

func applySearchOptions(optFns []SearchOption) searchOptions {
	var o searchOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

func (o searchOptions) filter() index.FilterFunc {
	allow, fn := o.allow, o.filterFunc
	switch {
	case allow == nil && fn == nil:
		return nil
	case fn == nil:
		return allow.Contains
	case allow == nil:
		return func(id uint32) bool { return fn(ID(id)) }
	default:
		return func(id uint32) bool { return allow.Contains(id) && fn(ID(id)) }
	}
}

// Query creates a new fluent search builder for the given query vector.
//
// Example:
//
//	results, err := idx.Query(query).
//	    KNN(10).
//	    Filter(allowed).
//	    Execute(ctx)
//
//	// Or with streaming:
//	for result, err := range idx.Query(query).KNN(100).Stream(ctx) {
//	    if err != nil { break }
//	    if result.Distance > threshold { break }
//	    process(result)
//	}
func (idx *Index) Query(query []float32) *SearchBuilder {
	return &SearchBuilder{
		idx:   idx,
		query: query,
		k:     10, // Default k
	}
}

// SearchBuilder is a fluent builder for constructing search queries.
type SearchBuilder struct {
	idx   *Index
	query []float32
	k     int
	opts  []SearchOption
}

// KNN sets the number of nearest neighbors to return.
func (sb *SearchBuilder) KNN(k int) *SearchBuilder {
	sb.k = k
	return sb
}

// Filter restricts results to the IDs in allow.
func (sb *SearchBuilder) Filter(allow *roaring.Bitmap) *SearchBuilder {
	sb.opts = append(sb.opts, WithFilter(allow))
	return sb
}

// Where restricts results to IDs for which fn returns true.
func (sb *SearchBuilder) Where(fn func(id ID) bool) *SearchBuilder {
	sb.opts = append(sb.opts, WithFilterFunc(fn))
	return sb
}

// IncludeVectors includes a copy of each result's vector.
func (sb *SearchBuilder) IncludeVectors() *SearchBuilder {
	sb.opts = append(sb.opts, WithVectors())
	return sb
}

// Execute runs the search and returns the results.
func (sb *SearchBuilder) Execute(ctx context.Context) ([]Result, error) {
	return sb.idx.Search(ctx, sb.query, sb.k, sb.opts...)
}

// MustExecute runs the search, panicking on error.
// Use this only in tests or when you're certain the query is valid.
func (sb *SearchBuilder) MustExecute(ctx context.Context) []Result {
	results, err := sb.Execute(ctx)
	if err != nil {
		panic(err)
	}
	return results
}

// Stream returns an iterator over search results, nearest first.
// The iterator supports early termination by breaking from the loop.
func (sb *SearchBuilder) Stream(ctx context.Context) iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		results, err := sb.Execute(ctx)
		if err != nil {
			yield(Result{}, err)
			return
		}
		for _, r := range results {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// First returns only the nearest result, or ErrNotFound if none found.
// The builder's own k is left unchanged.
func (sb *SearchBuilder) First(ctx context.Context) (Result, error) {
	results, err := sb.idx.Search(ctx, sb.query, 1, sb.opts...)
	if err != nil {
		return Result{}, err
	}
	if len(results) == 0 {
		return Result{}, ErrNotFound
	}
	return results[0], nil
}

// Count executes the search and returns the number of results.
func (sb *SearchBuilder) Count(ctx context.Context) (int, error) {
	results, err := sb.Execute(ctx)
	if err != nil {
		return 0, err
	}
	return len(results), nil
}
