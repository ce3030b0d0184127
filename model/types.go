package model

import (
	"fmt"
	"slices"
	"unicode/utf8"
	"unsafe"
)

// MaxLabelLength is the maximum label size in bytes. Longer labels are
// truncated on a rune boundary.
const MaxLabelLength = 100

// Float is the set of element types a vector may hold.
type Float interface {
	~float32 | ~float64
}

// Record is an immutable vector with an identifying label.
// Labels are not unique.
type Record[T Float] struct {
	// ID is the insertion ordinal assigned by the owning index.
	ID uint32
	// Vector holds exactly D coordinates.
	Vector []T
	// Label is a short, non-unique identifier.
	Label string
}

// NewRecord creates a record holding a private copy of vector.
// The caller is responsible for passing a vector of the index dimension.
func NewRecord[T Float](vector []T, label string) Record[T] {
	return Record[T]{
		Vector: slices.Clone(vector),
		Label:  TruncateLabel(label),
	}
}

// Dimension returns the number of coordinates of the record.
func (r Record[T]) Dimension() int {
	return len(r.Vector)
}

// SizeBytes estimates the memory held by the record.
func (r Record[T]) SizeBytes() int64 {
	var zero T
	return int64(len(r.Vector))*int64(unsafe.Sizeof(zero)) + int64(len(r.Label))
}

// String returns a short representation of the record.
func (r Record[T]) String() string {
	return fmt.Sprintf("Record(%d:%q, dim=%d)", r.ID, r.Label, len(r.Vector))
}

// TruncateLabel bounds label to MaxLabelLength bytes without splitting a rune.
func TruncateLabel(label string) string {
	if len(label) <= MaxLabelLength {
		return label
	}
	cut := MaxLabelLength
	for cut > 0 && !utf8.RuneStart(label[cut]) {
		cut--
	}
	return label[:cut]
}

// Neighbor is a search hit.
type Neighbor[T Float] struct {
	Record   Record[T]
	Distance float64
}
