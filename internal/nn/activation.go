package nn

import (
	"github.com/born-ml/chain/internal/autodiff"
	"github.com/born-ml/chain/internal/autodiff/ops"
)

// Activation applies an element-wise function.
type Activation struct {
	fn ops.UnaryFunction
}

// NewActivation wraps any unary function.
func NewActivation(fn ops.UnaryFunction) *Activation {
	return &Activation{fn: fn}
}

// NewReLU returns max(0, x).
func NewReLU() *Activation { return NewActivation(ops.NewUnary(ops.RELU)) }

// NewSigmoid returns 1 / (1 + e^-x).
func NewSigmoid() *Activation { return NewActivation(ops.NewUnary(ops.SIGMOID)) }

// NewTanh returns tanh(x).
func NewTanh() *Activation { return NewActivation(ops.NewUnary(ops.TANH)) }

// Apply implements Module.
func (a *Activation) Apply(b *autodiff.Builder, x *autodiff.Node) *autodiff.Node {
	return b.UnaryFunction(x, a.fn)
}

// Parameters implements Module.
func (*Activation) Parameters() []*autodiff.Node { return nil }

func (a *Activation) String() string {
	return a.fn.Type.String()
}
