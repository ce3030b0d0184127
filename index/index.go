package index

import (
	"errors"
	"fmt"

	"github.com/hupe1980/kdvec/model"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrNilStrategy is returned when an index is created without a distance strategy.
	ErrNilStrategy = errors.New("distance strategy must not be nil")
)

// ErrDimensionMismatch is a named error type for dimension mismatch
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message for dimension mismatch
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidDimension indicates a non-positive configured dimension.
type ErrInvalidDimension struct {
	Dimension int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

// FilterFunc reports whether the record with the given ID may be returned.
type FilterFunc func(id uint32) bool

// Index represents an exact vector index.
type Index[T model.Float] interface {
	// Dimension returns the fixed vector dimensionality.
	Dimension() int

	// Len returns the number of stored records.
	Len() int

	// Insert adds a vector to the index and returns its ID.
	Insert(vector []T, label string) (uint32, error)

	// Search returns up to k nearest records, ascending by distance.
	Search(query []T, k int, filter FilterFunc) ([]model.Neighbor[T], error)
}

// ValidateDimension checks that a configured dimension is usable.
func ValidateDimension(dim int) error {
	if dim <= 0 {
		return &ErrInvalidDimension{Dimension: dim}
	}
	return nil
}

// CheckVector checks that v has the expected dimension.
func CheckVector[T model.Float](expected int, v []T) error {
	if len(v) != expected {
		return &ErrDimensionMismatch{Expected: expected, Actual: len(v)}
	}
	return nil
}

// ValidateK checks that k is a usable neighbor count.
func ValidateK(k int) error {
	if k <= 0 {
		return ErrInvalidK
	}
	return nil
}
