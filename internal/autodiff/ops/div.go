package ops

import "github.com/born-ml/chain/internal/tensor"

// Divide computes a / b elementwise.
//
// Backward pass:
//   - d(a/b)/da = 1/b, so grad_a = outputGrad / b
//   - d(a/b)/db = -a/b², so grad_b = -outputGrad * a / b²
func Divide(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	return a.Div(b)
}

// DivideBackward returns the gradients of Divide for a and b.
func DivideBackward(grad, a, b *tensor.Tensor) (ga, gb *tensor.Tensor, err error) {
	ga, err = grad.Div(b)
	if err != nil {
		return nil, nil, err
	}

	// grad_b = -(grad * a) / (b * b)
	num, err := grad.Mul(a)
	if err != nil {
		return nil, nil, err
	}
	den, err := b.Mul(b)
	if err != nil {
		return nil, nil, err
	}
	gb, err = num.Neg().Div(den)
	if err != nil {
		return nil, nil, err
	}
	return reduceBroadcast(ga, a), reduceBroadcast(gb, b), nil
}
