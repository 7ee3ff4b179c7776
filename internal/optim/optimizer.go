// Package optim updates the parameter nodes of a procedure from the gradients
// its backward pass cumulated.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Example usage:
//
//	opt := optim.NewAdam(params, optim.AdamConfig{LR: 0.01})
//
//	for epoch := range epochs {
//	    proc.Reset()
//	    // set inputs, Forward, set output gradients, Backward
//	    if err := opt.Step(); err != nil {
//	        return err
//	    }
//	}
package optim

import (
	"github.com/pkg/errors"

	"github.com/born-ml/chain/internal/autodiff"
	"github.com/born-ml/chain/internal/tensor"
)

// Optimizer updates parameter nodes in place.
//
// All optimizers must implement:
//   - Step: Apply gradient updates to parameters
//   - ZeroGrad: Clear gradients before next iteration
//   - LR: Get current learning rate (for monitoring/scheduling)
type Optimizer interface {
	// Step applies one update to every parameter holding a gradient. The
	// gradient used is the parameter's mean gradient over the batch.
	Step() error

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// LR returns the current learning rate.
	LR() float64
}

// paramGrad is one parameter tensor and the gradient to step it with.
type paramGrad struct {
	value *tensor.Tensor
	grad  *tensor.Tensor
}

// gradients returns every parameter tensor that received a gradient, in the
// order of params. Nodes holding the same tensor, such as the nodes a layer
// creates in several builders, are merged into one entry whose gradient
// averages all their cumulations.
func gradients(params []*autodiff.Node) ([]paramGrad, error) {
	var (
		out    []paramGrad
		counts []int
	)
	pos := make(map[*tensor.Tensor]int)
	for _, param := range params {
		mean, ok := param.GradientMean()
		if !ok {
			continue
		}
		value, found := param.Value(0)
		if !found {
			return nil, errors.Wrapf(autodiff.ErrArgumentUndefined, "parameter %s has no value", param.Name())
		}
		if value.Size() != mean.Size() {
			return nil, errors.Wrapf(autodiff.ErrShapeMismatch, "parameter %s %s, gradient %s", param.Name(), value.Shape(), mean.Shape())
		}
		c := max(param.GradientCount(), 1)
		sum := mean.Scale(float64(c))
		if i, seen := pos[value]; seen {
			if err := out[i].grad.AddInPlace(sum); err != nil {
				return nil, errors.WithMessagef(err, "parameter %s", param.Name())
			}
			counts[i] += c
			continue
		}
		pos[value] = len(out)
		out = append(out, paramGrad{value: value, grad: sum})
		counts = append(counts, c)
	}
	for i := range out {
		out[i].grad = out[i].grad.Scale(1 / float64(counts[i]))
	}
	return out, nil
}

func zeroGrad(params []*autodiff.Node) {
	for _, p := range params {
		p.ResetGradients()
	}
}
