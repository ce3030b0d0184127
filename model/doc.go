// Package model defines the core value types shared by kdvec's indexes.
//
// # Types
//
//   - Float: the element constraint for vectors (~float32 | ~float64)
//   - Record: an immutable vector plus a short label
//   - Neighbor: a search hit pairing a Record with its distance
//
// Records are created with NewRecord, which copies the vector and bounds
// the label to MaxLabelLength bytes:
//
//	rec := model.NewRecord([]float32{1, 0, 0}, "Ana")
package model
