package ops

import "github.com/born-ml/chain/internal/tensor"

// Multiply computes the elementwise product a ⊙ b.
//
// Backward pass:
//   - d(a*b)/da = b, so grad_a = outputGrad * b
//   - d(a*b)/db = a, so grad_b = outputGrad * a
func Multiply(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	return a.Mul(b)
}

// MultiplyBackward returns the gradients of Multiply for a and b.
func MultiplyBackward(grad, a, b *tensor.Tensor) (ga, gb *tensor.Tensor, err error) {
	ga, err = grad.Mul(b)
	if err != nil {
		return nil, nil, err
	}
	gb, err = grad.Mul(a)
	if err != nil {
		return nil, nil, err
	}
	return reduceBroadcast(ga, a), reduceBroadcast(gb, b), nil
}
