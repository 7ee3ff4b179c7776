package tensor

import (
	"math/rand"

	"github.com/pkg/errors"
)

// New creates a zero tensor with the given shape.
func New(shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return &Tensor{shape: shape, data: make([]float64, shape.NumElements())}, nil
}

// Zeros creates a zero tensor. It panics on an invalid shape, use New when the
// shape comes from user input.
func Zeros(shape Shape) *Tensor {
	t, err := New(shape)
	if err != nil {
		panic(err)
	}
	return t
}

// Full creates a tensor with every element set to value.
func Full(shape Shape, value float64) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// Scalar creates a 1x1x1 tensor flagged as scalar, so it broadcasts in
// elementwise arithmetic.
func Scalar(value float64) *Tensor {
	t := Zeros(Shape{Rows: 1, Columns: 1, Depth: 1})
	t.data[0] = value
	t.scalar = true
	return t
}

// AsScalar returns t flagged as scalar. Only 1x1x1 tensors can be scalars.
func (t *Tensor) AsScalar() (*Tensor, error) {
	if !t.shape.IsUnit() {
		return nil, errors.Wrapf(ErrShapeMismatch, "scalar tensor must be 1x1x1, got %s", t.shape)
	}
	t.scalar = true
	return t, nil
}

// FromSlice creates a tensor from data laid out depth slice by depth slice,
// each slice in row-major order. The slice is copied.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	t, err := New(shape)
	if err != nil {
		return nil, err
	}
	if len(data) != shape.NumElements() {
		return nil, errors.Wrapf(ErrShapeMismatch, "data has %d elements, shape %s needs %d", len(data), shape, shape.NumElements())
	}
	copy(t.data, data)
	return t, nil
}

// FromRows creates a depth-1 matrix from rows of equal length.
//
// Example:
//
//	t := tensor.FromRows([][]float64{{1, 5}, {3, 2}})
func FromRows(rows [][]float64) *Tensor {
	return FromDepthRows([][][]float64{rows})
}

// FromDepthRows creates a tensor from depth slices of rows.
// It panics on ragged input.
func FromDepthRows(slices [][][]float64) *Tensor {
	if len(slices) == 0 || len(slices[0]) == 0 || len(slices[0][0]) == 0 {
		panic(errors.Wrap(ErrInvalidShape, "FromDepthRows: empty input"))
	}
	shape := Shape{Rows: len(slices[0]), Columns: len(slices[0][0]), Depth: len(slices)}
	t := Zeros(shape)
	for d, rows := range slices {
		if len(rows) != shape.Rows {
			panic(errors.Wrapf(ErrShapeMismatch, "FromDepthRows: depth %d has %d rows, want %d", d, len(rows), shape.Rows))
		}
		for r, row := range rows {
			if len(row) != shape.Columns {
				panic(errors.Wrapf(ErrShapeMismatch, "FromDepthRows: row %d has %d columns, want %d", r, len(row), shape.Columns))
			}
			for c, v := range row {
				t.Set(r, c, d, v)
			}
		}
	}
	return t
}

// Column creates a column vector (n x 1 x 1).
func Column(values ...float64) *Tensor {
	t := Zeros(Shape{Rows: len(values), Columns: 1, Depth: 1})
	copy(t.data, values)
	return t
}

// Random creates a tensor with values drawn uniformly from [-1, 1).
func Random(shape Shape, rng *rand.Rand) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		t.data[i] = 2*rng.Float64() - 1
	}
	return t
}
