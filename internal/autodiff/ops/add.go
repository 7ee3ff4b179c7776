package ops

import "github.com/born-ml/chain/internal/tensor"

// Add computes a + b elementwise. A scalar-flagged argument broadcasts.
//
// Backward pass:
//   - d(a+b)/da = 1, so grad_a = outputGrad
//   - d(a+b)/db = 1, so grad_b = outputGrad
func Add(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	return a.Add(b)
}

// AddBackward returns the gradients of Add for a and b.
// Since d(a+b)/da = d(a+b)/db = 1, the gradient flows equally to both inputs.
func AddBackward(grad, a, b *tensor.Tensor) (ga, gb *tensor.Tensor) {
	return reduceBroadcast(grad, a), reduceBroadcast(grad, b)
}
