package kdtree

import (
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/hupe1980/kdvec/distance"
	"github.com/hupe1980/kdvec/index"
	"github.com/hupe1980/kdvec/model"
	"github.com/hupe1980/kdvec/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTree(t *testing.T, dim int) *Tree[float32] {
	t.Helper()
	tree, err := New[float32](distance.SquaredEuclidean[float32]{}, dim)
	require.NoError(t, err)
	return tree
}

func build(t *testing.T, vectors [][]float32) *Tree[float32] {
	t.Helper()
	tree := newTree(t, len(vectors[0]))
	for i, v := range vectors {
		id, err := tree.Insert(v, fmt.Sprintf("v%d", i))
		require.NoError(t, err)
		require.Equal(t, uint32(i), id)
	}
	return tree
}

// checkInvariant verifies the k-d ordering of every subtree against every
// ancestor on that ancestor's axis.
func checkInvariant(t *testing.T, tree *Tree[float32]) {
	t.Helper()

	var check func(n *node[float32], depth int, bounds []func(v []float32) bool)
	check = func(n *node[float32], depth int, bounds []func(v []float32) bool) {
		if n == nil {
			return
		}
		for _, ok := range bounds {
			require.True(t, ok(n.key.Vector), "k-d invariant violated at %s", n.key)
		}
		axis := depth % tree.dim
		pivot := n.key.Vector
		less := func(v []float32) bool { return tree.strategy.Compare(v, pivot, axis) < 0 }
		notLess := func(v []float32) bool { return tree.strategy.Compare(v, pivot, axis) >= 0 }
		check(n.left, depth+1, append(append([]func([]float32) bool{}, bounds...), less))
		check(n.right, depth+1, append(append([]func([]float32) bool{}, bounds...), notLess))
	}
	check(tree.root, 0, nil)
}

func neighborDistances(res []model.Neighbor[float32]) []float64 {
	out := make([]float64, len(res))
	for i, r := range res {
		out[i] = r.Distance
	}
	return out
}

func TestNew(t *testing.T) {
	t.Run("InvalidDimension", func(t *testing.T) {
		_, err := New[float32](distance.SquaredEuclidean[float32]{}, 0)
		assert.IsType(t, &index.ErrInvalidDimension{}, err)
	})

	t.Run("NilStrategy", func(t *testing.T) {
		_, err := New[float32](nil, 3)
		assert.ErrorIs(t, err, index.ErrNilStrategy)
	})

	t.Run("Empty", func(t *testing.T) {
		tree := newTree(t, 3)
		assert.Equal(t, 3, tree.Dimension())
		assert.Equal(t, 0, tree.Len())
		assert.Equal(t, 0, tree.Height())
	})
}

func TestInsert(t *testing.T) {
	t.Run("DimensionMismatch", func(t *testing.T) {
		tree := newTree(t, 3)
		_, err := tree.Insert([]float32{1, 2}, "short")
		assert.IsType(t, &index.ErrDimensionMismatch{}, err)
		assert.Equal(t, 0, tree.Len())
	})

	t.Run("AxisCycling", func(t *testing.T) {
		tree := newTree(t, 2)
		_, _ = tree.Insert([]float32{5, 5}, "root")
		_, _ = tree.Insert([]float32{3, 9}, "left")        // axis 0: 3 < 5
		_, _ = tree.Insert([]float32{4, 1}, "left-left")   // axis 0 then axis 1: 1 < 9
		_, _ = tree.Insert([]float32{1, 10}, "left-right") // axis 1: 10 >= 9

		assert.Equal(t, "root", tree.root.key.Label)
		assert.Equal(t, "left", tree.root.left.key.Label)
		assert.Equal(t, "left-left", tree.root.left.left.key.Label)
		assert.Equal(t, "left-right", tree.root.left.right.key.Label)
		assert.Nil(t, tree.root.right)
		assert.Equal(t, 3, tree.Height())
	})

	t.Run("TiesGoRight", func(t *testing.T) {
		tree := newTree(t, 2)
		_, _ = tree.Insert([]float32{1, 0}, "first")
		_, _ = tree.Insert([]float32{1, 7}, "tie")

		assert.Nil(t, tree.root.left)
		require.NotNil(t, tree.root.right)
		assert.Equal(t, "tie", tree.root.right.key.Label)
	})

	t.Run("CopiesVector", func(t *testing.T) {
		tree := newTree(t, 2)
		v := []float32{1, 2}
		_, _ = tree.Insert(v, "a")
		v[0] = 100
		assert.Equal(t, float32(1), tree.root.key.Vector[0])
	})

	t.Run("InsertRecordAssignsID", func(t *testing.T) {
		tree := newTree(t, 1)
		rec := model.NewRecord([]float32{1}, "x")
		rec.ID = 99

		id, err := tree.InsertRecord(rec)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), id)
		assert.Equal(t, uint32(0), tree.root.key.ID)
	})

	t.Run("Degenerate", func(t *testing.T) {
		tree := build(t, testutil.SortedVectors(50, 3))
		assert.Equal(t, 50, tree.Height())
		checkInvariant(t, tree)
	})
}

func TestInvariant(t *testing.T) {
	rng := testutil.NewRNG(4711)

	datasets := map[string][][]float32{
		"Uniform":   rng.UniformVectors(500, 4),
		"Grid":      rng.GridVectors(500, 3, 3),
		"Clustered": rng.ClusteredVectors(500, 8, 5, 0.05),
	}

	for name, vectors := range datasets {
		t.Run(name, func(t *testing.T) {
			tree := build(t, vectors)
			assert.Equal(t, len(vectors), tree.Len())
			checkInvariant(t, tree)
		})
	}
}

func TestSearch(t *testing.T) {
	t.Run("NamedRecords", func(t *testing.T) {
		const dim = 128
		tree := newTree(t, dim)

		for i, name := range []string{"Ana", "Bruno", "Carlos", "Daniela"} {
			v := make([]float32, dim)
			v[0] = float32(i + 1)
			_, err := tree.Insert(v, name)
			require.NoError(t, err)
		}

		query := make([]float32, dim)
		query[0] = 2.5

		res, err := tree.Search(query, 2, nil)
		require.NoError(t, err)
		require.Len(t, res, 2)

		labels := []string{res[0].Record.Label, res[1].Record.Label}
		assert.ElementsMatch(t, []string{"Bruno", "Carlos"}, labels)
		assert.InDelta(t, 0.25, res[0].Distance, 1e-9)
		assert.InDelta(t, 0.25, res[1].Distance, 1e-9)

		all, err := tree.Search(query, 10, nil)
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, []float64{0.25, 0.25, 2.25, 2.25}, neighborDistances(all))
	})

	t.Run("EmptyTree", func(t *testing.T) {
		tree := newTree(t, 3)
		res, err := tree.Search([]float32{0, 0, 0}, 5, nil)
		require.NoError(t, err)
		assert.NotNil(t, res)
		assert.Empty(t, res)
	})

	t.Run("InvalidK", func(t *testing.T) {
		tree := build(t, [][]float32{{1, 2}})
		_, err := tree.Search([]float32{0, 0}, 0, nil)
		assert.ErrorIs(t, err, index.ErrInvalidK)
		_, err = tree.Search([]float32{0, 0}, -1, nil)
		assert.ErrorIs(t, err, index.ErrInvalidK)
	})

	t.Run("QueryDimensionMismatch", func(t *testing.T) {
		tree := build(t, [][]float32{{1, 2}})
		_, err := tree.Search([]float32{0}, 1, nil)
		assert.IsType(t, &index.ErrDimensionMismatch{}, err)
	})

	t.Run("Idempotent", func(t *testing.T) {
		rng := testutil.NewRNG(7)
		tree := build(t, rng.UniformVectors(300, 5))
		query := rng.UniformVectors(1, 5)[0]

		first, err := tree.Search(query, 10, nil)
		require.NoError(t, err)
		for range 3 {
			again, err := tree.Search(query, 10, nil)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})
}

func TestSearchMatchesBruteForce(t *testing.T) {
	rng := testutil.NewRNG(4711)

	datasets := map[string][][]float32{
		"Uniform":   rng.UniformVectors(1000, 3),
		"HighDim":   rng.UniformRangeVectors(400, 32),
		"Grid":      rng.GridVectors(600, 3, 4),
		"Clustered": rng.ClusteredVectors(800, 6, 8, 0.02),
		"Gaussian":  rng.GaussianVectors(700, 5),
		"Chain":     testutil.SortedVectors(200, 2),
	}

	for name, vectors := range datasets {
		t.Run(name, func(t *testing.T) {
			tree := build(t, vectors)
			dim := len(vectors[0])
			queries := rng.UniformRangeVectors(20, dim)

			for _, q := range queries {
				for _, k := range []int{1, 5, 17, len(vectors) + 3} {
					got, err := tree.Search(q, k, nil)
					require.NoError(t, err)

					want := testutil.BruteForceSearch(vectors, q, k, nil)
					require.Equal(t, testutil.Distances(want), neighborDistances(got), "k=%d", k)

					// Every returned record really is at the reported distance.
					for _, n := range got {
						assert.Equal(t, distance.SquaredL2(vectors[n.Record.ID], q), n.Distance)
					}
				}
			}
		})
	}
}

func TestSearchFiltered(t *testing.T) {
	rng := testutil.NewRNG(99)
	vectors := rng.UniformVectors(500, 4)
	tree := build(t, vectors)

	even := func(id uint32) bool { return id%2 == 0 }

	for _, q := range rng.UniformVectors(10, 4) {
		got, err := tree.Search(q, 7, even)
		require.NoError(t, err)

		want := testutil.BruteForceSearch(vectors, q, 7, even)
		assert.Equal(t, testutil.Distances(want), neighborDistances(got))
		for _, n := range got {
			assert.True(t, even(n.Record.ID))
		}
	}

	none, err := tree.Search(vectors[0], 3, func(uint32) bool { return false })
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSearchWithStats(t *testing.T) {
	rng := testutil.NewRNG(4711)
	tree := build(t, rng.UniformVectors(5000, 2))

	_, stats, err := tree.SearchWithStats([]float32{0.5, 0.5}, 5, nil)
	require.NoError(t, err)
	assert.Greater(t, stats.Pruned, 0)
	assert.Less(t, stats.Visited, tree.Len())

	// With k equal to the tree size nothing can be pruned.
	_, stats, err = tree.SearchWithStats([]float32{0.5, 0.5}, tree.Len(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Pruned)
	assert.Equal(t, tree.Len(), stats.Visited)
}

func TestStrategies(t *testing.T) {
	rng := testutil.NewRNG(4711)
	vectors := rng.UniformVectors(300, 4)
	query := rng.UniformVectors(1, 4)[0]
	want := testutil.BruteForceSearch(vectors, query, 8, nil)

	t.Run("Euclidean", func(t *testing.T) {
		tree, err := New[float32](distance.Euclidean[float32]{}, 4)
		require.NoError(t, err)
		for i, v := range vectors {
			_, _ = tree.Insert(v, fmt.Sprint(i))
		}

		got, err := tree.Search(query, 8, nil)
		require.NoError(t, err)
		require.Len(t, got, 8)
		for i := range got {
			assert.InDelta(t, math.Sqrt(want[i].Distance), got[i].Distance, 1e-9)
		}
	})

	t.Run("Funcs", func(t *testing.T) {
		tree, err := New[float32](distance.Funcs[float32]{
			CompareFn:  distance.Compare[float32],
			DistanceFn: distance.SquaredL2[float32],
		}, 4)
		require.NoError(t, err)
		for i, v := range vectors {
			_, _ = tree.Insert(v, fmt.Sprint(i))
		}

		got, err := tree.Search(query, 8, nil)
		require.NoError(t, err)
		assert.Equal(t, testutil.Distances(want), neighborDistances(got))
	})

	t.Run("FuncsWithPlane", func(t *testing.T) {
		manhattan := func(a, b []float32) float64 {
			var sum float64
			for i := range a {
				sum += math.Abs(float64(a[i]) - float64(b[i]))
			}
			return sum
		}
		absAxis := func(a, b []float32, axis int) float64 {
			return math.Abs(float64(a[axis]) - float64(b[axis]))
		}

		// On wide coordinates the squared axis bound exceeds L1 distances
		// and would over-prune; the absolute axis bound keeps search exact.
		wide := make([][]float32, len(vectors))
		for i, v := range vectors {
			wide[i] = make([]float32, len(v))
			for j, x := range v {
				wide[i][j] = x * 100
			}
		}
		q := []float32{50, 50, 50, 50}

		tree, err := New[float32](distance.Funcs[float32]{
			CompareFn:  distance.Compare[float32],
			DistanceFn: manhattan,
			PlaneFn:    absAxis,
		}, 4)
		require.NoError(t, err)
		for _, v := range wide {
			_, _ = tree.Insert(v, "")
		}

		want := make([]float64, len(wide))
		for i, v := range wide {
			want[i] = manhattan(v, q)
		}
		slices.Sort(want)

		got, err := tree.Search(q, 8, nil)
		require.NoError(t, err)
		assert.Equal(t, want[:8], neighborDistances(got))
	})

	t.Run("Float64", func(t *testing.T) {
		tree, err := New[float64](distance.SquaredEuclidean[float64]{}, 2)
		require.NoError(t, err)
		_, _ = tree.Insert([]float64{0, 0}, "origin")
		_, _ = tree.Insert([]float64{3, 4}, "far")

		got, err := tree.Search([]float64{1, 1}, 1, nil)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "origin", got[0].Record.Label)
		assert.Equal(t, 2.0, got[0].Distance)
	})
}

func TestWalk(t *testing.T) {
	tree := build(t, [][]float32{{5, 5}, {3, 9}, {8, 1}})

	var labels []string
	var depths []int
	tree.Walk(func(rec model.Record[float32], depth int) bool {
		labels = append(labels, rec.Label)
		depths = append(depths, depth)
		return true
	})
	assert.Equal(t, []string{"v0", "v1", "v2"}, labels)
	assert.Equal(t, []int{0, 1, 1}, depths)

	count := 0
	tree.Walk(func(model.Record[float32], int) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}

func TestDestroy(t *testing.T) {
	rng := testutil.NewRNG(4711)
	tree := build(t, rng.UniformVectors(200, 3))

	// Record parent/child relations before teardown.
	children := map[uint32][]uint32{}
	var collect func(n *node[float32])
	collect = func(n *node[float32]) {
		if n == nil {
			return
		}
		for _, c := range []*node[float32]{n.left, n.right} {
			if c != nil {
				children[n.key.ID] = append(children[n.key.ID], c.key.ID)
			}
		}
		collect(n.left)
		collect(n.right)
	}
	collect(tree.root)

	position := map[uint32]int{}
	var released int64
	tree.Destroy(func(rec model.Record[float32]) {
		position[rec.ID] = len(position)
		released += rec.SizeBytes()
	})

	assert.Len(t, position, 200)
	assert.Positive(t, released)
	for parent, kids := range children {
		for _, kid := range kids {
			assert.Less(t, position[kid], position[parent], "child %d released after parent %d", kid, parent)
		}
	}

	assert.Nil(t, tree.root)
	assert.Equal(t, 0, tree.Len())
	assert.Equal(t, 0, tree.Height())

	// A destroyed tree is empty: searching it is not an error and tearing
	// it down again releases nothing.
	res, err := tree.Search([]float32{0, 0, 0}, 3, nil)
	require.NoError(t, err)
	assert.Empty(t, res)

	tree.Destroy(func(model.Record[float32]) { t.Fatal("unexpected release") })
	tree.Destroy(nil)
}

func TestStats(t *testing.T) {
	tree := build(t, [][]float32{{1, 1}, {2, 2}, {3, 3}})
	assert.Equal(t, Stats{Dimension: 2, Size: 3, Height: 3}, tree.Stats())
}
