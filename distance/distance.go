package distance

import (
	"fmt"
	"math"

	"github.com/hupe1980/kdvec/model"
)

// Compare orders a and b by the coordinate at axis.
// It returns -1, 0 or +1 following the sign of a[axis]-b[axis].
func Compare[T model.Float](a, b []T, axis int) int {
	diff := a[axis] - b[axis]
	switch {
	case diff > 0:
		return 1
	case diff < 0:
		return -1
	default:
		return 0
	}
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
// Accumulates in float64 regardless of T.
func SquaredL2[T model.Float](a, b []T) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// AxisSquared returns the squared difference of a and b on axis alone.
func AxisSquared[T model.Float](a, b []T, axis int) float64 {
	d := float64(a[axis]) - float64(b[axis])
	return d * d
}

// Strategy is the capability a k-d tree needs from a metric.
type Strategy[T model.Float] interface {
	// Compare orders two vectors on one coordinate. It must be a total
	// order for a fixed axis.
	Compare(a, b []T, axis int) int
	// Distance returns a non-negative distance between two vectors.
	Distance(a, b []T) float64
}

// PlaneDistancer is implemented by strategies that report the minimum
// possible distance from a to anything on the other side of the
// hyperplane through b perpendicular to axis.
type PlaneDistancer[T model.Float] interface {
	PlaneDistance(a, b []T, axis int) float64
}

// SquaredEuclidean ranks by squared L2 distance. It is the default strategy.
type SquaredEuclidean[T model.Float] struct{}

func (SquaredEuclidean[T]) Compare(a, b []T, axis int) int { return Compare(a, b, axis) }
func (SquaredEuclidean[T]) Distance(a, b []T) float64      { return SquaredL2(a, b) }
func (SquaredEuclidean[T]) PlaneDistance(a, b []T, axis int) float64 {
	return AxisSquared(a, b, axis)
}

// Euclidean ranks by true L2 distance.
// It orders results exactly like SquaredEuclidean but pays a square root
// per evaluation.
type Euclidean[T model.Float] struct{}

func (Euclidean[T]) Compare(a, b []T, axis int) int { return Compare(a, b, axis) }
func (Euclidean[T]) Distance(a, b []T) float64      { return math.Sqrt(SquaredL2(a, b)) }
func (Euclidean[T]) PlaneDistance(a, b []T, axis int) float64 {
	return math.Abs(float64(a[axis]) - float64(b[axis]))
}

// CompareFunc orders two vectors on one coordinate.
type CompareFunc[T model.Float] func(a, b []T, axis int) int

// Func is a function type for distance calculation.
type Func[T model.Float] func(a, b []T) float64

// PlaneFunc is a function type for the hyperplane lower bound.
type PlaneFunc[T model.Float] func(a, b []T, axis int) float64

// Funcs adapts independent functions into a Strategy.
// PlaneFn must never exceed DistanceFn for any pair of vectors. When it is
// nil, AxisSquared is used, which only holds for squared L2.
type Funcs[T model.Float] struct {
	CompareFn  CompareFunc[T]
	DistanceFn Func[T]
	PlaneFn    PlaneFunc[T]
}

func (f Funcs[T]) Compare(a, b []T, axis int) int { return f.CompareFn(a, b, axis) }
func (f Funcs[T]) Distance(a, b []T) float64      { return f.DistanceFn(a, b) }

func (f Funcs[T]) PlaneDistance(a, b []T, axis int) float64 {
	if f.PlaneFn == nil {
		return AxisSquared(a, b, axis)
	}
	return f.PlaneFn(a, b, axis)
}

// Metric represents the distance metric used for vector comparison.
type Metric int

const (
	MetricSquaredL2 Metric = iota
	MetricL2
)

func (m Metric) String() string {
	switch m {
	case MetricSquaredL2:
		return "SquaredL2"
	case MetricL2:
		return "L2"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// Provider returns the strategy for the given metric.
func Provider[T model.Float](m Metric) (Strategy[T], error) {
	switch m {
	case MetricSquaredL2:
		return SquaredEuclidean[T]{}, nil
	case MetricL2:
		return Euclidean[T]{}, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}
