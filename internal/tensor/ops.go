package tensor

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// broadcastPair resolves the output shape of an elementwise binary operation.
// A scalar-flagged operand takes the other operand's shape. The result is
// scalar only when both operands are.
func broadcastPair(a, b *Tensor) (Shape, error) {
	switch {
	case a.scalar && b.scalar:
		return a.shape, nil
	case b.scalar:
		return a.shape, nil
	case a.scalar:
		return b.shape, nil
	case !a.shape.Equal(b.shape):
		return Shape{}, errors.Wrapf(ErrShapeMismatch, "elementwise operands %s and %s", a.shape, b.shape)
	}
	return a.shape, nil
}

// binary applies an elementwise operation with scalar broadcast. The same-shape
// path uses the vectorized gonum kernel, broadcast paths fall back to fn.
func binary(a, b *Tensor, vec func(dst, s, t []float64) []float64, fn func(x, y float64) float64) (*Tensor, error) {
	shape, err := broadcastPair(a, b)
	if err != nil {
		return nil, err
	}
	out := Zeros(shape)
	out.scalar = a.scalar && b.scalar
	switch {
	case len(a.data) == len(b.data):
		vec(out.data, a.data, b.data)
	case b.scalar:
		y := b.data[0]
		for i, x := range a.data {
			out.data[i] = fn(x, y)
		}
	default:
		x := a.data[0]
		for i, y := range b.data {
			out.data[i] = fn(x, y)
		}
	}
	return out, nil
}

// Add returns t + other elementwise.
func (t *Tensor) Add(other *Tensor) (*Tensor, error) {
	return binary(t, other, floats.AddTo, func(x, y float64) float64 { return x + y })
}

// Sub returns t - other elementwise.
func (t *Tensor) Sub(other *Tensor) (*Tensor, error) {
	return binary(t, other, floats.SubTo, func(x, y float64) float64 { return x - y })
}

// Mul returns the elementwise (Hadamard) product.
func (t *Tensor) Mul(other *Tensor) (*Tensor, error) {
	return binary(t, other, floats.MulTo, func(x, y float64) float64 { return x * y })
}

// Div returns t / other elementwise. Division by zero follows IEEE 754.
func (t *Tensor) Div(other *Tensor) (*Tensor, error) {
	return binary(t, other, floats.DivTo, func(x, y float64) float64 { return x / y })
}

// Scale returns t multiplied by c.
func (t *Tensor) Scale(c float64) *Tensor {
	out := t.Clone()
	floats.Scale(c, out.data)
	return out
}

// Neg returns -t.
func (t *Tensor) Neg() *Tensor {
	return t.Scale(-1)
}

// AddInPlace adds other into t. Both tensors must have the same number of
// elements, or other must be scalar.
func (t *Tensor) AddInPlace(other *Tensor) error {
	switch {
	case len(t.data) == len(other.data):
		floats.Add(t.data, other.data)
	case other.scalar:
		floats.AddConst(other.data[0], t.data)
	default:
		return errors.Wrapf(ErrShapeMismatch, "cannot accumulate %s into %s", other.shape, t.shape)
	}
	return nil
}

// Apply returns a tensor with fn applied to every element.
func (t *Tensor) Apply(fn func(float64) float64) *Tensor {
	out := t.ZerosLike()
	for i, v := range t.data {
		out.data[i] = fn(v)
	}
	return out
}

// ApplyBi returns fn(t[i], other[i]) for every element, broadcasting scalars.
func (t *Tensor) ApplyBi(other *Tensor, fn func(x, y float64) float64) (*Tensor, error) {
	return binary(t, other, func(dst, s, u []float64) []float64 {
		for i := range dst {
			dst[i] = fn(s[i], u[i])
		}
		return dst
	}, fn)
}

// Reshape returns a copy of t with a new shape holding the same number of
// elements. Data order is preserved.
func (t *Tensor) Reshape(shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(t.data) {
		return nil, errors.Wrapf(ErrShapeMismatch, "cannot reshape %s into %s", t.shape, shape)
	}
	out := t.Clone()
	out.shape = shape
	out.mask = nil
	return out, nil
}
