package ops

import (
	"math"

	"github.com/born-ml/chain/internal/tensor"
)

// softmax normalizes every column of every depth slice.
//
// Forward (for each column):
//
//	softmax(x)_i = exp(x_i - max(x)) / Σ_j exp(x_j - max(x))
//
// The max-shifting ensures numerical stability (prevents overflow).
func softmax(x *tensor.Tensor) *tensor.Tensor {
	out := x.ZerosLike()
	rows := x.Rows()
	for d := 0; d < x.Depth(); d++ {
		for c := 0; c < x.Columns(); c++ {
			maxVal := math.Inf(-1)
			for r := 0; r < rows; r++ {
				maxVal = math.Max(maxVal, x.At(r, c, d))
			}
			var sum float64
			for r := 0; r < rows; r++ {
				e := math.Exp(x.At(r, c, d) - maxVal)
				out.Set(r, c, d, e)
				sum += e
			}
			for r := 0; r < rows; r++ {
				out.Set(r, c, d, out.At(r, c, d)/sum)
			}
		}
	}
	return out
}

// softmaxBackward applies the softmax Jacobian to grad column by column:
//
//	∂L/∂x_j = s_j * (∂L/∂s_j - Σ_i ∂L/∂s_i * s_i)
func softmaxBackward(grad, x *tensor.Tensor) *tensor.Tensor {
	s := softmax(x)
	out := x.ZerosLike()
	for d := 0; d < x.Depth(); d++ {
		for c := 0; c < x.Columns(); c++ {
			var dot float64
			for r := 0; r < x.Rows(); r++ {
				dot += grad.At(r, c, d) * s.At(r, c, d)
			}
			for r := 0; r < x.Rows(); r++ {
				out.Set(r, c, d, s.At(r, c, d)*(grad.At(r, c, d)-dot))
			}
		}
	}
	return out
}
