package kdvec

import (
	"context"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/kdvec/distance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKDTreeBuilder(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		idx, err := KDTree(4).Build()
		require.NoError(t, err)
		assert.Equal(t, 4, idx.Dimension())
		assert.Equal(t, distance.MetricSquaredL2, idx.Metric())
	})

	t.Run("L2", func(t *testing.T) {
		idx := KDTree(4).L2().MustBuild()
		assert.Equal(t, distance.MetricL2, idx.Metric())
	})

	t.Run("Immutable", func(t *testing.T) {
		base := KDTree(2).MemoryLimit(8)
		a := base.L2()
		b := base.SquaredL2()

		ia := a.MustBuild()
		ib := b.MustBuild()
		assert.Equal(t, distance.MetricL2, ia.Metric())
		assert.Equal(t, distance.MetricSquaredL2, ib.Metric())
	})

	t.Run("Options", func(t *testing.T) {
		mc := &BasicMetricsCollector{}
		idx := KDTree(2).
			Logger(NoopLogger()).
			Metrics(mc).
			MemoryLimit(16).
			MaxConcurrentSearches(2).
			QueryRateLimit(1000, 10).
			BatchParallelism(2).
			MustBuild()

		ctx := context.Background()
		_, err := idx.Insert(ctx, []float32{1, 2}, "")
		require.NoError(t, err)
		_, err = idx.Insert(ctx, []float32{3, 4}, "")
		require.NoError(t, err)
		_, err = idx.Insert(ctx, []float32{5, 6}, "")
		assert.ErrorIs(t, err, ErrMemoryLimit)

		assert.Equal(t, int64(3), mc.GetStats().InsertCount)
		assert.Equal(t, 2, idx.opts.batchParallelism)
	})

	t.Run("BlockingMemory", func(t *testing.T) {
		assert.False(t, KDTree(2).MustBuild().opts.blockingMemory)
		assert.True(t, KDTree(2).BlockingMemory().MustBuild().opts.blockingMemory)
	})

	t.Run("InvalidDimension", func(t *testing.T) {
		_, err := KDTree(0).Build()
		require.Error(t, err)
		assert.Panics(t, func() { KDTree(-1).MustBuild() })
	})
}

func TestSearchBuilder(t *testing.T) {
	idx := namedIndex(t)
	ctx := context.Background()

	t.Run("Execute", func(t *testing.T) {
		results, err := idx.Query(namedQuery()).KNN(2).Execute(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Bruno", "Carlos"}, labels(results))
	})

	t.Run("DefaultK", func(t *testing.T) {
		n, err := idx.Query(namedQuery()).Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})

	t.Run("Filter", func(t *testing.T) {
		results := idx.Query(namedQuery()).KNN(2).Filter(roaring.BitmapOf(0, 3)).MustExecute(ctx)
		assert.ElementsMatch(t, []string{"Ana", "Daniela"}, labels(results))
	})

	t.Run("Where", func(t *testing.T) {
		results := idx.Query(namedQuery()).KNN(4).Where(func(id ID) bool { return id != 1 }).MustExecute(ctx)
		assert.NotContains(t, labels(results), "Bruno")
		assert.Len(t, results, 3)
	})

	t.Run("IncludeVectors", func(t *testing.T) {
		r, err := idx.Query(namedQuery()).IncludeVectors().First(ctx)
		require.NoError(t, err)
		require.Len(t, r.Vector, 128)
		assert.InDelta(t, 0.25, r.Distance, 1e-9)
	})

	t.Run("FirstKeepsK", func(t *testing.T) {
		sb := idx.Query(namedQuery()).KNN(3)

		first, err := sb.First(ctx)
		require.NoError(t, err)
		assert.InDelta(t, 0.25, first.Distance, 1e-9)

		n, err := sb.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("FirstNotFound", func(t *testing.T) {
		_, err := idx.Query(namedQuery()).Where(func(ID) bool { return false }).First(ctx)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Stream", func(t *testing.T) {
		var got []float64
		for r, err := range idx.Query(namedQuery()).KNN(4).Stream(ctx) {
			require.NoError(t, err)
			got = append(got, r.Distance)
			if len(got) == 3 {
				break
			}
		}
		assert.Equal(t, []float64{0.25, 0.25, 2.25}, got)
	})

	t.Run("StreamError", func(t *testing.T) {
		var errs int
		for _, err := range idx.Query([]float32{1}).Stream(ctx) {
			var dm *ErrDimensionMismatch
			assert.ErrorAs(t, err, &dm)
			errs++
		}
		assert.Equal(t, 1, errs)
	})

	t.Run("MustExecutePanics", func(t *testing.T) {
		assert.Panics(t, func() { idx.Query(namedQuery()).KNN(0).MustExecute(ctx) })
	})
}
