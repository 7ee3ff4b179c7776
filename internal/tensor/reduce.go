package tensor

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Axis selects the direction of a reduction.
type Axis int

// Reduction axes. AxisRows collapses the row dimension (result 1×C×D),
// AxisColumns the column dimension (R×1×D), AxisDepth the depth (R×C×1).
// AxisAll reduces everything to a scalar.
const (
	AxisAll Axis = iota
	AxisRows
	AxisColumns
	AxisDepth
)

// String implements fmt.Stringer.
func (a Axis) String() string {
	switch a {
	case AxisAll:
		return "all"
	case AxisRows:
		return "rows"
	case AxisColumns:
		return "columns"
	case AxisDepth:
		return "depth"
	default:
		return "unknown"
	}
}

// ReducedShape returns the shape left after collapsing axis.
func (s Shape) ReducedShape(axis Axis) Shape {
	switch axis {
	case AxisRows:
		return Shape{Rows: 1, Columns: s.Columns, Depth: s.Depth}
	case AxisColumns:
		return Shape{Rows: s.Rows, Columns: 1, Depth: s.Depth}
	case AxisDepth:
		return Shape{Rows: s.Rows, Columns: s.Columns, Depth: 1}
	default:
		return Shape{Rows: 1, Columns: 1, Depth: 1}
	}
}

// ReducedCount returns how many input elements fold into one output element.
func (s Shape) ReducedCount(axis Axis) int {
	switch axis {
	case AxisRows:
		return s.Rows
	case AxisColumns:
		return s.Columns
	case AxisDepth:
		return s.Depth
	default:
		return s.NumElements()
	}
}

// ReducedIndex maps the input position (row, column, depth) to its position
// in the reduced tensor.
func ReducedIndex(axis Axis, row, column, depth int) (int, int, int) {
	switch axis {
	case AxisRows:
		return 0, column, depth
	case AxisColumns:
		return row, 0, depth
	case AxisDepth:
		return row, column, 0
	default:
		return 0, 0, 0
	}
}

// Each calls fn for every position in the tensor, depth slices outermost.
func (t *Tensor) Each(fn func(row, column, depth int, value float64)) {
	for d := 0; d < t.shape.Depth; d++ {
		for r := 0; r < t.shape.Rows; r++ {
			for c := 0; c < t.shape.Columns; c++ {
				fn(r, c, d, t.At(r, c, d))
			}
		}
	}
}

// SumAxis sums t along axis. The AxisAll result is scalar-flagged.
func (t *Tensor) SumAxis(axis Axis) *Tensor {
	if axis == AxisAll {
		return Scalar(t.Sum())
	}
	out := Zeros(t.shape.ReducedShape(axis))
	t.Each(func(r, c, d int, v float64) {
		rr, rc, rd := ReducedIndex(axis, r, c, d)
		out.Add2D(rr, rc, rd, v)
	})
	return out
}

// MeanAxis averages t along axis.
func (t *Tensor) MeanAxis(axis Axis) *Tensor {
	out := t.SumAxis(axis)
	floats.Scale(1/float64(t.shape.ReducedCount(axis)), out.data)
	return out
}

// VarianceAxis returns the population variance along axis together with the
// mean it was computed from.
func (t *Tensor) VarianceAxis(axis Axis) (variance, mean *Tensor) {
	mean = t.MeanAxis(axis)
	variance = mean.ZerosLike()
	t.Each(func(r, c, d int, v float64) {
		rr, rc, rd := ReducedIndex(axis, r, c, d)
		dev := v - mean.At(rr, rc, rd)
		variance.Add2D(rr, rc, rd, dev*dev)
	})
	floats.Scale(1/float64(t.shape.ReducedCount(axis)), variance.data)
	return variance, mean
}

// Sum returns the sum of all elements.
func (t *Tensor) Sum() float64 {
	return floats.Sum(t.data)
}

// Mean returns the mean of all elements.
func (t *Tensor) Mean() float64 {
	return t.Sum() / float64(len(t.data))
}

// Variance returns the population variance of all elements.
func (t *Tensor) Variance() float64 {
	mean := t.Mean()
	var acc float64
	for _, v := range t.data {
		acc += (v - mean) * (v - mean)
	}
	return acc / float64(len(t.data))
}

// Norm returns the p-norm (Σ|x|^p)^(1/p) of all elements.
func (t *Tensor) Norm(p float64) float64 {
	return floats.Norm(t.data, p)
}

// Max returns the largest element and its flat index.
func (t *Tensor) Max() (float64, int) {
	idx := floats.MaxIdx(t.data)
	return t.data[idx], idx
}

// HasNaN reports whether any element is NaN or infinite.
func (t *Tensor) HasNaN() bool {
	for _, v := range t.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
