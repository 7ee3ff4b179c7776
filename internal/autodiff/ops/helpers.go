package ops

import (
	"github.com/born-ml/chain/internal/tensor"
)

// reduceBroadcast reduces a gradient to the shape of the argument it flows to.
// A scalar-flagged argument was broadcast in the forward pass, so its gradient
// is the sum of the full gradient.
//
// Example:
//
//	Forward:  a(3x4) + s(scalar) -> c(3x4)
//	Backward: grad_c(3x4) -> grad_s = sum(grad_c) (1x1x1)
func reduceBroadcast(grad, arg *tensor.Tensor) *tensor.Tensor {
	if arg.IsScalar() && !grad.Shape().IsUnit() {
		return tensor.Scalar(grad.Sum())
	}
	// Clone to avoid aliasing the caller's gradient.
	return grad.Clone()
}
