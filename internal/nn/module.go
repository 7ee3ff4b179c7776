// Package nn implements neural network layers on top of the autodiff builder.
//
// A layer owns the tensors of its trainable parameters and appends its
// operations to a builder when applied:
//
//	model := nn.NewSequential(
//	    nn.NewConv2D("conv", 3, rng),
//	    nn.NewReLU(),
//	    nn.NewMaxPool2D(2, 2),
//	    nn.NewFlatten(),
//	    nn.NewLinear("out", 4, 1, rng),
//	)
//	y := model.Apply(b, x)
//
// Procedures built from the same layer share its parameter tensors. The
// layer's Parameters lists the nodes of every procedure, and the optimizers
// step a tensor held by several nodes once with their combined gradient.
package nn

import (
	"github.com/born-ml/chain/internal/autodiff"
)

// Module is the interface implemented by every layer.
type Module interface {
	// Apply appends the layer's operations to b with x as input and returns
	// the output node. Errors are recorded in the builder.
	Apply(b *autodiff.Builder, x *autodiff.Node) *autodiff.Node

	// Parameters returns the parameter nodes created by every Apply, in
	// order.
	Parameters() []*autodiff.Node
}
