// Package tensor provides the dense tensor primitive consumed by the expression graph.
//
// A Tensor stores float64 values in rows x columns x depth layout. It carries a
// scalar flag (scalar tensors broadcast against any shape in elementwise
// arithmetic) and an optional Mask that marks positions as structurally zero.
//
// Elementwise arithmetic and reductions delegate to gonum's floats package,
// matrix products to gonum's mat package.
package tensor

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Errors returned by tensor constructors and shape-checked operations.
var (
	ErrInvalidShape  = errors.New("invalid shape")
	ErrShapeMismatch = errors.New("shape mismatch")
)

// Tensor is a dense float64 tensor of shape rows x columns x depth.
type Tensor struct {
	shape  Shape
	data   []float64
	scalar bool
	mask   *Mask
	name   string
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Rows returns the number of rows.
func (t *Tensor) Rows() int {
	return t.shape.Rows
}

// Columns returns the number of columns.
func (t *Tensor) Columns() int {
	return t.shape.Columns
}

// Depth returns the channel depth.
func (t *Tensor) Depth() int {
	return t.shape.Depth
}

// Size returns the total number of elements.
func (t *Tensor) Size() int {
	return len(t.data)
}

// IsScalar reports whether the tensor broadcasts as a scalar.
func (t *Tensor) IsScalar() bool {
	return t.scalar
}

// Name returns the tensor's name, empty if unnamed.
func (t *Tensor) Name() string {
	return t.name
}

// SetName sets the tensor's name. Returns t for chaining.
func (t *Tensor) SetName(name string) *Tensor {
	t.name = name
	return t
}

// Data returns the underlying storage.
// WARNING: Direct access to underlying memory, mutations are visible to the tensor.
func (t *Tensor) Data() []float64 {
	return t.data
}

// At returns the value at (row, column, depth).
func (t *Tensor) At(row, column, depth int) float64 {
	return t.data[t.shape.index(row, column, depth)]
}

// Set stores value at (row, column, depth).
func (t *Tensor) Set(row, column, depth int, value float64) {
	t.data[t.shape.index(row, column, depth)] = value
}

// Add2D adds value to the element at (row, column, depth).
func (t *Tensor) Add2D(row, column, depth int, value float64) {
	t.data[t.shape.index(row, column, depth)] += value
}

// Value returns the first element. For scalar tensors this is the scalar value.
func (t *Tensor) Value() float64 {
	return t.data[0]
}

// Clone returns a deep copy, including the mask.
func (t *Tensor) Clone() *Tensor {
	clone := &Tensor{
		shape:  t.shape,
		data:   make([]float64, len(t.data)),
		scalar: t.scalar,
		name:   t.name,
	}
	copy(clone.data, t.data)
	if t.mask != nil {
		clone.mask = t.mask.Clone()
	}
	return clone
}

// ZerosLike returns a zero tensor with the same shape and scalar flag.
func (t *Tensor) ZerosLike() *Tensor {
	z := Zeros(t.shape)
	z.scalar = t.scalar
	return z
}

// Equal reports whether both tensors have the same shape and identical values.
func (t *Tensor) Equal(other *Tensor) bool {
	return t.ApproxEqual(other, 0)
}

// ApproxEqual reports whether both tensors have the same shape and all values
// differ by at most tolerance.
func (t *Tensor) ApproxEqual(other *Tensor, tolerance float64) bool {
	if other == nil || !t.shape.Equal(other.shape) {
		return false
	}
	for i, v := range t.data {
		if math.Abs(v-other.data[i]) > tolerance {
			return false
		}
	}
	return true
}

// String formats the tensor one depth slice at a time, e.g. "[[1 2] [3 4]]".
func (t *Tensor) String() string {
	var sb strings.Builder
	for d := 0; d < t.shape.Depth; d++ {
		if d > 0 {
			sb.WriteString(" | ")
		}
		sb.WriteString("[")
		for r := 0; r < t.shape.Rows; r++ {
			if r > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString("[")
			for c := 0; c < t.shape.Columns; c++ {
				if c > 0 {
					sb.WriteString(" ")
				}
				fmt.Fprintf(&sb, "%g", t.At(r, c, d))
			}
			sb.WriteString("]")
		}
		sb.WriteString("]")
	}
	return sb.String()
}

// Bytes returns the memory footprint of the tensor's values.
func (t *Tensor) Bytes() int {
	return 8 * len(t.data)
}
