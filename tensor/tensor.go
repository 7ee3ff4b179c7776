// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/born-ml/chain/internal/tensor"
)

// Type aliases for public API

// Shape represents the dimensions of a tensor: rows, columns and depth.
type Shape = tensor.Shape

// Tensor is a dense float64 tensor.
type Tensor = tensor.Tensor

// Mask marks positions excluded from products and pooling windows.
type Mask = tensor.Mask

// Axis selects the direction of a reduction.
type Axis = tensor.Axis

// Reduction axes.
const (
	AxisAll     Axis = tensor.AxisAll
	AxisRows    Axis = tensor.AxisRows
	AxisColumns Axis = tensor.AxisColumns
	AxisDepth   Axis = tensor.AxisDepth
)

// Errors returned by tensor operations.
var (
	ErrInvalidShape  = tensor.ErrInvalidShape
	ErrShapeMismatch = tensor.ErrShapeMismatch
)

// NewShape creates a shape.
func NewShape(rows, columns, depth int) Shape {
	return tensor.NewShape(rows, columns, depth)
}

// New creates a zero tensor, failing on an invalid shape.
func New(shape Shape) (*Tensor, error) {
	return tensor.New(shape)
}

// Zeros creates a zero tensor.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float64) *Tensor {
	return tensor.Full(shape, value)
}

// Scalar creates a broadcast scalar.
func Scalar(value float64) *Tensor {
	return tensor.Scalar(value)
}

// FromSlice creates a tensor from data laid out depth slice by depth slice.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// FromRows creates a matrix from rows of equal length.
//
// Example:
//
//	t := tensor.FromRows([][]float64{{1, 5}, {3, 2}})
func FromRows(rows [][]float64) *Tensor {
	return tensor.FromRows(rows)
}

// FromDepthRows creates a tensor from depth slices of rows.
func FromDepthRows(slices [][][]float64) *Tensor {
	return tensor.FromDepthRows(slices)
}

// Column creates a column vector.
func Column(values ...float64) *Tensor {
	return tensor.Column(values...)
}

// Random creates a tensor with values drawn uniformly from [-1, 1).
func Random(shape Shape, rng *rand.Rand) *Tensor {
	return tensor.Random(shape, rng)
}

// NewMask creates an empty mask.
func NewMask(shape Shape) *Mask {
	return tensor.NewMask(shape)
}

// Join concatenates b below a (vertical) or to its right.
func Join(a, b *Tensor, vertical bool) (*Tensor, error) {
	return tensor.Join(a, b, vertical)
}
