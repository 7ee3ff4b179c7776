package tensor

import (
	"fmt"

	"github.com/pkg/errors"
)

// Shape represents the dimensions of a tensor: rows, columns and channel depth.
//
// A plain matrix has Depth 1. Convolution and pooling kernels treat Depth as
// the channel axis.
type Shape struct {
	Rows    int
	Columns int
	Depth   int
}

// NewShape returns a Shape. A zero depth is promoted to 1.
func NewShape(rows, columns, depth int) Shape {
	if depth == 0 {
		depth = 1
	}
	return Shape{Rows: rows, Columns: columns, Depth: depth}
}

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	return s.Rows * s.Columns * s.Depth
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	if s.Rows <= 0 || s.Columns <= 0 || s.Depth <= 0 {
		return errors.Wrapf(ErrInvalidShape, "%s (all dimensions must be > 0)", s)
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	return s == other
}

// IsUnit reports whether the shape holds exactly one element.
func (s Shape) IsUnit() bool {
	return s.NumElements() == 1
}

// String implements fmt.Stringer, e.g. "(3x4x1)".
func (s Shape) String() string {
	return fmt.Sprintf("(%dx%dx%d)", s.Rows, s.Columns, s.Depth)
}

// index returns the flat offset of (row, column, depth).
// Layout is row-major per depth slice so each slice is a contiguous matrix.
func (s Shape) index(row, column, depth int) int {
	return (depth*s.Rows+row)*s.Columns + column
}

// sliceLen returns the number of elements in one depth slice.
func (s Shape) sliceLen() int {
	return s.Rows * s.Columns
}
