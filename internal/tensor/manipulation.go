package tensor

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// slice returns depth slice d as a gonum dense matrix sharing t's storage.
func (t *Tensor) slice(d int) *mat.Dense {
	n := t.shape.sliceLen()
	return mat.NewDense(t.shape.Rows, t.shape.Columns, t.data[d*n:(d+1)*n])
}

// Dot returns the matrix product t·other computed independently for every
// depth slice. t must be R×K×D and other K×C×D.
//
// A scalar-flagged operand scales the other instead.
func (t *Tensor) Dot(other *Tensor) (*Tensor, error) {
	if t.scalar || other.scalar {
		return t.Mul(other)
	}
	if t.shape.Columns != other.shape.Rows || t.shape.Depth != other.shape.Depth {
		return nil, errors.Wrapf(ErrShapeMismatch, "dot %s·%s", t.shape, other.shape)
	}
	out := Zeros(Shape{Rows: t.shape.Rows, Columns: other.shape.Columns, Depth: t.shape.Depth})
	for d := 0; d < t.shape.Depth; d++ {
		out.slice(d).Mul(t.slice(d), other.slice(d))
	}
	return out, nil
}

// Transpose swaps rows and columns of every depth slice.
func (t *Tensor) Transpose() *Tensor {
	out := Zeros(Shape{Rows: t.shape.Columns, Columns: t.shape.Rows, Depth: t.shape.Depth})
	out.scalar = t.scalar
	for d := 0; d < t.shape.Depth; d++ {
		out.slice(d).Copy(t.slice(d).T())
	}
	return out
}

// MaskedDot is Dot for a left operand with a mask: masked entries of t are
// treated as structural zeros and skipped. Without a mask it equals Dot.
func (t *Tensor) MaskedDot(other *Tensor) (*Tensor, error) {
	if t.mask == nil {
		return t.Dot(other)
	}
	if t.shape.Columns != other.shape.Rows || t.shape.Depth != other.shape.Depth {
		return nil, errors.Wrapf(ErrShapeMismatch, "masked dot %s·%s", t.shape, other.shape)
	}
	out := Zeros(Shape{Rows: t.shape.Rows, Columns: other.shape.Columns, Depth: t.shape.Depth})
	for d := 0; d < t.shape.Depth; d++ {
		for r := 0; r < t.shape.Rows; r++ {
			for k := 0; k < t.shape.Columns; k++ {
				if t.mask.IsMasked(r, k, d) {
					continue
				}
				a := t.At(r, k, d)
				for c := 0; c < other.shape.Columns; c++ {
					out.Add2D(r, c, d, a*other.At(k, c, d))
				}
			}
		}
	}
	return out, nil
}

// Join concatenates a and b vertically (stacking rows) or horizontally
// (stacking columns). Depths must match.
func Join(a, b *Tensor, vertical bool) (*Tensor, error) {
	if a.shape.Depth != b.shape.Depth {
		return nil, errors.Wrapf(ErrShapeMismatch, "join depth %s and %s", a.shape, b.shape)
	}
	var out *Tensor
	if vertical {
		if a.shape.Columns != b.shape.Columns {
			return nil, errors.Wrapf(ErrShapeMismatch, "vertical join %s and %s", a.shape, b.shape)
		}
		out = Zeros(Shape{Rows: a.shape.Rows + b.shape.Rows, Columns: a.shape.Columns, Depth: a.shape.Depth})
		out.Paste(a, 0, 0, 0)
		out.Paste(b, a.shape.Rows, 0, 0)
		return out, nil
	}
	if a.shape.Rows != b.shape.Rows {
		return nil, errors.Wrapf(ErrShapeMismatch, "horizontal join %s and %s", a.shape, b.shape)
	}
	out = Zeros(Shape{Rows: a.shape.Rows, Columns: a.shape.Columns + b.shape.Columns, Depth: a.shape.Depth})
	out.Paste(a, 0, 0, 0)
	out.Paste(b, 0, a.shape.Columns, 0)
	return out, nil
}

// Block extracts the sub-tensor of the given shape whose origin is
// (row, column, depth).
func (t *Tensor) Block(row, column, depth int, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if row < 0 || column < 0 || depth < 0 ||
		row+shape.Rows > t.shape.Rows || column+shape.Columns > t.shape.Columns || depth+shape.Depth > t.shape.Depth {
		return nil, errors.Wrapf(ErrShapeMismatch, "block %s at (%d,%d,%d) outside %s", shape, row, column, depth, t.shape)
	}
	out := Zeros(shape)
	for d := 0; d < shape.Depth; d++ {
		for r := 0; r < shape.Rows; r++ {
			for c := 0; c < shape.Columns; c++ {
				out.Set(r, c, d, t.At(row+r, column+c, depth+d))
			}
		}
	}
	return out, nil
}

// Paste writes src into t with its origin at (row, column, depth).
// Elements falling outside t are ignored.
func (t *Tensor) Paste(src *Tensor, row, column, depth int) {
	for d := 0; d < src.shape.Depth && depth+d < t.shape.Depth; d++ {
		for r := 0; r < src.shape.Rows && row+r < t.shape.Rows; r++ {
			for c := 0; c < src.shape.Columns && column+c < t.shape.Columns; c++ {
				t.Set(row+r, column+c, depth+d, src.At(r, c, d))
			}
		}
	}
}
