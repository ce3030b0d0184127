package kdvec_test

import (
	"context"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/kdvec"
)

func embed(dim int, x float32) []float32 {
	v := make([]float32, dim)
	v[0] = x
	return v
}

func Example() {
	ctx := context.Background()

	idx, err := kdvec.New(128)
	if err != nil {
		panic(err)
	}
	defer idx.Close()

	for i, name := range []string{"Ana", "Bruno", "Carlos", "Daniela"} {
		if _, err := idx.Insert(ctx, embed(128, float32(i+1)), name); err != nil {
			panic(err)
		}
	}

	results, err := idx.Search(ctx, embed(128, 2.5), 2)
	if err != nil {
		panic(err)
	}
	for _, r := range results {
		fmt.Printf("%s %.2f\n", r.Label, r.Distance)
	}
	// Output:
	// Bruno 0.25
	// Carlos 0.25
}

func ExampleIndex_Search_filter() {
	ctx := context.Background()
	idx := kdvec.KDTree(2).L2().MustBuild()

	for i := range 5 {
		_, _ = idx.Insert(ctx, []float32{float32(i), 0}, fmt.Sprintf("p%d", i))
	}

	// Only even IDs are eligible.
	results, _ := idx.Search(ctx, []float32{1, 0}, 2, kdvec.WithFilter(roaring.BitmapOf(0, 2, 4)))
	for _, r := range results {
		fmt.Printf("%d %s %.1f\n", r.ID, r.Label, r.Distance)
	}
	// Output:
	// 0 p0 1.0
	// 2 p2 1.0
}

func ExampleSearchBuilder_Stream() {
	ctx := context.Background()
	idx := kdvec.KDTree(1).MustBuild()

	for _, x := range []float32{5, 1, 9, 3, 7} {
		_, _ = idx.Insert(ctx, []float32{x}, "")
	}

	for r, err := range idx.Query([]float32{4}).KNN(5).Stream(ctx) {
		if err != nil || r.Distance > 4 {
			break
		}
		fmt.Println(r.ID, r.Distance)
	}
	// Output:
	// 0 1
	// 3 1
}
