package kdvec

import (
	"context"
	"fmt"
	"iter"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/kdvec/distance"
	"github.com/hupe1980/kdvec/index"
	"github.com/hupe1980/kdvec/index/kdtree"
	"github.com/hupe1980/kdvec/model"
	"github.com/hupe1980/kdvec/resource"
	"golang.org/x/sync/errgroup"
)

// ID identifies a stored record. IDs are assigned in insertion order
// starting at 0.
type ID uint32

// SearchStats describes the work done by one search.
type SearchStats = kdtree.SearchStats

// Result is a search hit.
type Result struct {
	ID       ID
	Label    string
	Distance float64
	// Vector is a copy of the stored vector, set only when requested with
	// WithVectors.
	Vector []float32
}

// IndexStats is a snapshot of index state.
type IndexStats struct {
	Dimension   int
	Size        int
	Height      int
	Metric      distance.Metric
	MemoryBytes int64
}

// Index is an exact nearest-neighbor index over float32 vectors.
//
// Inserts are serialized against searches; concurrent searches share a read
// lock. All methods are safe for concurrent use.
type Index struct {
	mu     sync.RWMutex
	tree   *kdtree.Tree[float32]
	rc     *resource.Controller
	opts   options
	closed bool
}

// New creates an empty index for vectors of the given dimension.
func New(dimension int, optFns ...Option) (*Index, error) {
	o := applyOptions(optFns)

	strategy, err := distance.Provider[float32](o.metric)
	if err != nil {
		return nil, err
	}

	tree, err := kdtree.New(strategy, dimension)
	if err != nil {
		return nil, translateError(err)
	}

	rc := o.controller
	if rc == nil {
		rc = resource.NewController(o.resources)
	}
	if o.batchParallelism <= 0 {
		o.batchParallelism = runtime.GOMAXPROCS(0)
	}
	o.logger = o.logger.WithDimension(dimension)

	o.logger.Debug("index created", "metric", o.metric.String())

	return &Index{
		tree: tree,
		rc:   rc,
		opts: o,
	}, nil
}

// Dimension returns the fixed vector dimensionality.
func (idx *Index) Dimension() int {
	return idx.tree.Dimension()
}

// Metric returns the configured distance metric.
func (idx *Index) Metric() distance.Metric {
	return idx.opts.metric
}

// Len returns the number of stored records.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.tree.Len()
}

// MemoryUsage returns the record bytes tracked by the resource controller.
// With a shared controller this includes other indexes.
func (idx *Index) MemoryUsage() int64 {
	return idx.rc.MemoryUsage()
}

// Stats returns a snapshot of index state.
func (idx *Index) Stats() IndexStats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	s := idx.tree.Stats()
	return IndexStats{
		Dimension:   s.Dimension,
		Size:        s.Size,
		Height:      s.Height,
		Metric:      idx.opts.metric,
		MemoryBytes: idx.rc.MemoryUsage(),
	}
}

// Insert stores a copy of vector under label and returns its ID.
// Labels longer than model.MaxLabelLength bytes are truncated.
func (idx *Index) Insert(ctx context.Context, vector []float32, label string) (id ID, err error) {
	start := time.Now()
	defer func() {
		idx.opts.metricsCollector.RecordInsert(time.Since(start), err)
		idx.opts.logger.LogInsert(ctx, id, label, err)
	}()

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := index.CheckVector(idx.Dimension(), vector); err != nil {
		return 0, translateError(err)
	}

	rec := model.NewRecord(vector, label)
	if err := idx.reserve(ctx, rec.SizeBytes()); err != nil {
		return 0, err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	return idx.insertLocked(rec)
}

// BatchInsert inserts vectors in order under a single write lock.
// labels may be nil; otherwise it must have one entry per vector.
// Memory for the batch is reserved up front, so a batch that does not fit
// inserts nothing. On any other failure the IDs inserted so far are
// returned with the error.
func (idx *Index) BatchInsert(ctx context.Context, vectors [][]float32, labels []string) (ids []ID, err error) {
	start := time.Now()
	defer func() {
		failed := len(vectors) - len(ids)
		idx.opts.metricsCollector.RecordBatchInsert(len(vectors), failed, time.Since(start))
		idx.opts.logger.LogBatchInsert(ctx, len(vectors), failed)
	}()

	if labels != nil && len(labels) != len(vectors) {
		return nil, fmt.Errorf("%w: %d vectors but %d labels", ErrInvalidArgument, len(vectors), len(labels))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Records up to the first invalid vector are still inserted.
	var buildErr error
	recs := make([]model.Record[float32], 0, len(vectors))
	for i, v := range vectors {
		if err := index.CheckVector(idx.Dimension(), v); err != nil {
			buildErr = fmt.Errorf("insert %d: %w", i, translateError(err))
			break
		}

		var label string
		if labels != nil {
			label = labels[i]
		}
		recs = append(recs, model.NewRecord(v, label))
	}

	if err := idx.reserve(ctx, recordBytes(recs)); err != nil {
		return nil, err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	ids = make([]ID, 0, len(recs))
	for i, rec := range recs {
		if err := ctx.Err(); err != nil {
			idx.rc.ReleaseMemory(recordBytes(recs[i:]))
			return ids, err
		}

		id, err := idx.insertLocked(rec)
		if err != nil {
			idx.rc.ReleaseMemory(recordBytes(recs[i+1:]))
			return ids, fmt.Errorf("insert %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	return ids, buildErr
}

// reserve accounts bytes against the memory budget. With blocking memory
// it waits for ctx; otherwise it fails at once when the budget is
// exhausted.
func (idx *Index) reserve(ctx context.Context, bytes int64) error {
	if idx.opts.blockingMemory {
		if err := idx.rc.AcquireMemory(ctx, bytes); err != nil {
			return fmt.Errorf("%w: waiting for %d bytes: %w", ErrMemoryLimit, bytes, err)
		}
		return nil
	}
	if !idx.rc.TryAcquireMemory(bytes) {
		return fmt.Errorf("%w: need %d bytes, %d in use", ErrMemoryLimit, bytes, idx.rc.MemoryUsage())
	}
	return nil
}

// insertLocked inserts a record whose memory is already reserved. The
// reservation is returned on failure.
func (idx *Index) insertLocked(rec model.Record[float32]) (ID, error) {
	if idx.closed {
		idx.rc.ReleaseMemory(rec.SizeBytes())
		return 0, ErrClosed
	}

	id, err := idx.tree.InsertRecord(rec)
	if err != nil {
		idx.rc.ReleaseMemory(rec.SizeBytes())
		return 0, translateError(err)
	}
	return ID(id), nil
}

func recordBytes(recs []model.Record[float32]) int64 {
	var n int64
	for _, rec := range recs {
		n += rec.SizeBytes()
	}
	return n
}

// Search returns the k records nearest to query, ascending by distance.
// Fewer than k results are returned only if fewer records match.
// Results at equal distance are not in a guaranteed order.
func (idx *Index) Search(ctx context.Context, query []float32, k int, optFns ...SearchOption) (results []Result, err error) {
	start := time.Now()
	var stats SearchStats
	defer func() {
		idx.opts.metricsCollector.RecordSearch(k, stats, time.Since(start), err)
		idx.opts.logger.LogSearch(ctx, k, len(results), stats, err)
	}()

	if err := index.ValidateK(k); err != nil {
		return nil, translateError(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	so := applySearchOptions(optFns)

	if err := idx.rc.AcquireSearch(ctx); err != nil {
		return nil, err
	}
	defer idx.rc.ReleaseSearch()

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, ErrClosed
	}

	hits, stats, err := idx.tree.SearchWithStats(query, k, so.filter())
	if so.stats != nil {
		*so.stats = stats
	}
	if err != nil {
		return nil, translateError(err)
	}

	results = make([]Result, len(hits))
	for i, h := range hits {
		results[i] = toResult(h.Record, h.Distance, so.includeVector)
	}
	return results, nil
}

// SearchBatch runs Search for every query in parallel and returns the
// results in query order. The first failing query cancels the rest.
// WithStats is ignored.
func (idx *Index) SearchBatch(ctx context.Context, queries [][]float32, k int, optFns ...SearchOption) (out [][]Result, err error) {
	start := time.Now()
	defer func() {
		d := time.Since(start)
		idx.opts.metricsCollector.RecordBatchSearch(len(queries), d, err)
		idx.opts.logger.LogBatchSearch(ctx, len(queries), k, d, err)
	}()

	if err := index.ValidateK(k); err != nil {
		return nil, translateError(err)
	}

	optFns = append(slices.Clone(optFns), func(o *searchOptions) { o.stats = nil })

	out = make([][]Result, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.opts.batchParallelism)

	for i, q := range queries {
		g.Go(func() error {
			res, err := idx.Search(gctx, q, k, optFns...)
			if err != nil {
				return fmt.Errorf("query %d: %w", i, err)
			}
			out[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// All iterates over every stored record in tree pre-order. Distance is
// always 0 and Vector is always set. The records are snapshotted under the
// read lock before the first yield, so the loop body may call any Index
// method, and records inserted during the loop are not visited.
func (idx *Index) All() iter.Seq[Result] {
	return func(yield func(Result) bool) {
		idx.mu.RLock()
		snapshot := make([]model.Record[float32], 0, idx.tree.Len())
		idx.tree.Walk(func(rec model.Record[float32], _ int) bool {
			snapshot = append(snapshot, rec)
			return true
		})
		idx.mu.RUnlock()

		for _, rec := range snapshot {
			if !yield(toResult(rec, 0, true)) {
				return
			}
		}
	}
}

// Close tears the index down, releasing every record and its tracked
// memory. Subsequent inserts and searches fail with ErrClosed. Calling Close
// more than once is a no-op.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return nil
	}

	var (
		released int
		bytes    int64
	)
	idx.tree.Destroy(func(rec model.Record[float32]) {
		released++
		bytes += rec.SizeBytes()
	})
	idx.rc.ReleaseMemory(bytes)
	idx.closed = true

	idx.opts.metricsCollector.RecordClose(released, bytes)
	idx.opts.logger.LogClose(context.Background(), released, bytes)
	return nil
}

func toResult(rec model.Record[float32], dist float64, includeVector bool) Result {
	r := Result{
		ID:       ID(rec.ID),
		Label:    rec.Label,
		Distance: dist,
	}
	if includeVector {
		r.Vector = slices.Clone(rec.Vector)
	}
	return r
}
