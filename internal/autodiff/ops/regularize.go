package ops

import (
	"math/rand"

	"github.com/born-ml/chain/internal/tensor"
)

// ValidateThreshold checks a gradient clipping threshold.
func ValidateThreshold(threshold float64) error {
	if threshold <= 0 {
		return invalidParameter("gradient clipping threshold %g <= 0", threshold)
	}
	return nil
}

// ClipGradient rescales grad to L2 norm threshold when its norm exceeds it.
// The forward pass of gradient clipping is the identity.
func ClipGradient(grad *tensor.Tensor, threshold float64) (*tensor.Tensor, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	norm := grad.Norm(2)
	if norm <= threshold {
		return grad.Clone(), nil
	}
	return grad.Scale(threshold / norm), nil
}

// ValidateProbability checks a dropout probability.
func ValidateProbability(p float64) error {
	if p < 0 || p > 1 {
		return invalidParameter("dropout probability %g outside [0, 1]", p)
	}
	return nil
}

// Dropout zeroes every element of x with probability p and scales the
// survivors by 1/(1-p) so the expected value is unchanged. p = 1 drops
// everything.
//
// Backward pass: the gradient passes through unchanged.
func Dropout(x *tensor.Tensor, p float64, rng *rand.Rand) (*tensor.Tensor, error) {
	if err := ValidateProbability(p); err != nil {
		return nil, err
	}
	if p == 0 {
		return x.Clone(), nil
	}
	out := x.ZerosLike()
	if p == 1 {
		return out, nil
	}
	keep := 1 / (1 - p)
	data := out.Data()
	for i, v := range x.Data() {
		if rng.Float64() >= p {
			data[i] = v * keep
		}
	}
	return out, nil
}
