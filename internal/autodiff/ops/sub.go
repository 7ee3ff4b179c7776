package ops

import "github.com/born-ml/chain/internal/tensor"

// Subtract computes a - b elementwise.
//
// Backward pass:
//   - d(a-b)/da = 1, so grad_a = outputGrad
//   - d(a-b)/db = -1, so grad_b = -outputGrad
func Subtract(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	return a.Sub(b)
}

// SubtractBackward returns the gradients of Subtract for a and b.
func SubtractBackward(grad, a, b *tensor.Tensor) (ga, gb *tensor.Tensor) {
	return reduceBroadcast(grad, a), reduceBroadcast(grad.Neg(), b)
}
