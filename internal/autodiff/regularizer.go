package autodiff

import (
	"math"

	"github.com/pkg/errors"

	"github.com/born-ml/chain/internal/tensor"
)

// DefaultRegularizationLambda is the strength a zero Lambda stands for.
const DefaultRegularizationLambda = 0.01

// Regularizer penalizes the value of a parameter node. The penalty gradient
// is added once per batch to the node's mean gradient, after the last
// backward step of an expression reading the node.
type Regularizer interface {
	// Error returns the penalty of value, added to the loss.
	Error(value *tensor.Tensor) float64
	// Gradient returns the derivative of the penalty at value.
	Gradient(value *tensor.Tensor) *tensor.Tensor
}

// L1 is the penalty λ Σ|w|.
type L1 struct {
	Lambda float64
}

func (r L1) lambda() float64 {
	if r.Lambda == 0 {
		return DefaultRegularizationLambda
	}
	return r.Lambda
}

// Error implements Regularizer.
func (r L1) Error(value *tensor.Tensor) float64 {
	return r.lambda() * value.Apply(math.Abs).Sum()
}

// Gradient implements Regularizer: λ sign(w).
func (r L1) Gradient(value *tensor.Tensor) *tensor.Tensor {
	l := r.lambda()
	return value.Apply(func(w float64) float64 {
		switch {
		case w > 0:
			return l
		case w < 0:
			return -l
		}
		return 0
	})
}

// L2 is the penalty λ Σw².
type L2 struct {
	Lambda float64
}

func (r L2) lambda() float64 {
	if r.Lambda == 0 {
		return DefaultRegularizationLambda
	}
	return r.Lambda
}

// Error implements Regularizer.
func (r L2) Error(value *tensor.Tensor) float64 {
	return r.lambda() * value.Apply(func(w float64) float64 { return w * w }).Sum()
}

// Gradient implements Regularizer: 2λw.
func (r L2) Gradient(value *tensor.Tensor) *tensor.Tensor {
	return value.Scale(2 * r.lambda())
}

// AddRegularizer attaches r to a single node.
func (n *Node) AddRegularizer(r Regularizer) error {
	if r == nil {
		return errors.Wrapf(ErrArgumentMissing, "regularizer of node %s", n.name)
	}
	if n.multiIndex {
		return errors.Wrapf(ErrInvalidParameter, "node %s holds per-sample values and cannot be regularized", n.name)
	}
	n.regularizers = append(n.regularizers, r)
	return nil
}

// Regularizers returns the regularizers attached to the node.
func (n *Node) Regularizers() []Regularizer {
	return n.regularizers
}

// RegularizationError returns the total penalty of the node's value.
func (n *Node) RegularizationError() float64 {
	if n.value == nil {
		return 0
	}
	var sum float64
	for _, r := range n.regularizers {
		sum += r.Error(n.value)
	}
	return sum
}

// regularize computes the penalty gradient of the current value once per
// batch. ResetGradients drops it.
func (n *Node) regularize() error {
	if len(n.regularizers) == 0 || n.stopGradient || n.penalty != nil {
		return nil
	}
	if n.value == nil {
		return errors.Wrapf(ErrArgumentUndefined, "regularized node %s has no value", n.name)
	}
	var penalty *tensor.Tensor
	for _, r := range n.regularizers {
		g := r.Gradient(n.value)
		if penalty == nil {
			penalty = g
			continue
		}
		if err := penalty.AddInPlace(g); err != nil {
			return errors.WithMessagef(err, "regularizing node %s", n.name)
		}
	}
	n.penalty = penalty
	return nil
}

// backwardRegularize applies the regularizers of the single arguments once
// their gradients for the batch are complete.
func (e *Expression) backwardRegularize() error {
	for _, n := range []*Node{e.arg1, e.arg2} {
		if n == nil || n.multiIndex {
			continue
		}
		if err := n.regularize(); err != nil {
			return errors.WithMessagef(err, "expression %d (%s)", e.id, e.kind)
		}
	}
	return nil
}

// Regularize attaches regularizers to a parameter created by this builder.
func (b *Builder) Regularize(param *Node, regs ...Regularizer) {
	if b.err != nil {
		return
	}
	if err := b.check(param); err != nil {
		b.fail(err)
		return
	}
	if param.role != roleParameter {
		b.fail(errors.Wrapf(ErrInvalidParameter, "regularized node %s is not a parameter", param.name))
		return
	}
	for _, r := range regs {
		if err := param.AddRegularizer(r); err != nil {
			b.fail(err)
			return
		}
	}
}

// RegularizationError returns the total penalty of every regularized node.
func (p *Procedure) RegularizationError() float64 {
	var sum float64
	for _, n := range p.nodes {
		sum += n.RegularizationError()
	}
	return sum
}
