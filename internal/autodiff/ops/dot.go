package ops

import "github.com/born-ml/chain/internal/tensor"

// Dot computes the matrix product a·b for every depth slice.
//
// Backward pass:
//   - grad_a = outputGrad · bᵀ
//   - grad_b = aᵀ · outputGrad
//
// Shapes: a is R×K×D, b is K×C×D, the result R×C×D.
func Dot(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	return a.Dot(b)
}

// DotBackward returns the gradients of Dot for a and b.
func DotBackward(grad, a, b *tensor.Tensor) (ga, gb *tensor.Tensor, err error) {
	if a.IsScalar() || b.IsScalar() {
		return MultiplyBackward(grad, a, b)
	}
	ga, err = grad.Dot(b.Transpose())
	if err != nil {
		return nil, nil, err
	}
	gb, err = a.Transpose().Dot(grad)
	if err != nil {
		return nil, nil, err
	}
	return ga, gb, nil
}

// DotShape returns the result shape of Dot.
func DotShape(a, b tensor.Shape, aScalar, bScalar bool) (tensor.Shape, error) {
	switch {
	case aScalar:
		return b, nil
	case bScalar:
		return a, nil
	case a.Columns != b.Rows || a.Depth != b.Depth:
		return tensor.Shape{}, shapeMismatch("dot %s·%s", a, b)
	}
	return tensor.Shape{Rows: a.Rows, Columns: b.Columns, Depth: a.Depth}, nil
}
