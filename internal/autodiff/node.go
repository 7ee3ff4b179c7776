package autodiff

import (
	"maps"
	"slices"

	"github.com/pkg/errors"

	"github.com/born-ml/chain/internal/tensor"
)

type nodeRole int

const (
	roleInput nodeRole = iota
	roleParameter
	roleResult
)

// Node holds the values and accumulated gradients an expression reads and
// writes.
//
// A multi-index node keeps one value and one gradient per sample index. A
// single node keeps one value and one gradient shared by every sample index:
// parameters, constants and the results of operations that run once per
// batch are single nodes.
type Node struct {
	id           int
	name         string
	shape        tensor.Shape
	scalar       bool
	multiIndex   bool
	stopGradient bool
	role         nodeRole

	values    map[int]*tensor.Tensor
	gradients map[int]*tensor.Tensor

	value         *tensor.Tensor
	gradient      *tensor.Tensor
	gradientCount int

	regularizers []Regularizer
	penalty      *tensor.Tensor

	// source feeds this node with its own value at the previous sample index;
	// dependents are the nodes linked from this one.
	source     *Node
	dependents []*Node
}

// NewNode creates a detached node. Nodes of a procedure are created through a
// Builder.
func NewNode(name string, shape tensor.Shape, scalar, multiIndex bool) *Node {
	if scalar {
		shape = tensor.Shape{Rows: 1, Columns: 1, Depth: 1}
	}
	return &Node{
		id:         -1,
		name:       name,
		shape:      shape,
		scalar:     scalar,
		multiIndex: multiIndex,
		values:     make(map[int]*tensor.Tensor),
		gradients:  make(map[int]*tensor.Tensor),
	}
}

// ID returns the node's position in its procedure, or -1 for a detached node.
func (n *Node) ID() int {
	return n.id
}

// Name returns the node name.
func (n *Node) Name() string {
	return n.name
}

// Shape returns the shape of every value the node holds.
func (n *Node) Shape() tensor.Shape {
	return n.shape
}

// IsScalar reports whether the node holds broadcast scalars.
func (n *Node) IsScalar() bool {
	return n.scalar
}

// IsMultiIndex reports whether the node keeps a value per sample index.
func (n *Node) IsMultiIndex() bool {
	return n.multiIndex
}

// SetMultiIndex switches between per-index and shared storage. Stored values
// and gradients are dropped.
func (n *Node) SetMultiIndex(multiIndex bool) {
	if n.multiIndex == multiIndex {
		return
	}
	n.multiIndex = multiIndex
	n.clearValues()
	n.ResetGradients()
}

// SetStopGradient marks the node as a gradient barrier. Expressions never
// cumulate gradients into it and do not propagate through it.
func (n *Node) SetStopGradient(stop bool) {
	n.stopGradient = stop
}

// StopGradient reports whether the node is a gradient barrier.
func (n *Node) StopGradient() bool {
	return n.stopGradient
}

// LinkFrom makes the node read source's value at the previous sample index,
// as the state input of an unrolled recurrence. Gradients flow back along the
// link.
func (n *Node) LinkFrom(source *Node) error {
	if source == nil {
		return errors.Wrapf(ErrArgumentMissing, "link source for node %s", n.name)
	}
	if !n.multiIndex || !source.multiIndex {
		return errors.Wrapf(ErrInvalidParameter, "link %s <- %s: both nodes must be multi-index", n.name, source.name)
	}
	if !n.shape.Equal(source.shape) || n.scalar != source.scalar {
		return errors.Wrapf(ErrShapeMismatch, "link %s %s <- %s %s", n.name, n.shape, source.name, source.shape)
	}
	n.source = source
	source.dependents = append(source.dependents, n)
	return nil
}

// Source returns the node this one is linked from, if any.
func (n *Node) Source() *Node {
	return n.source
}

func (n *Node) check(t *tensor.Tensor, what string) (*tensor.Tensor, error) {
	if t == nil {
		return nil, errors.Wrapf(ErrArgumentMissing, "%s of node %s", what, n.name)
	}
	if n.scalar {
		if t.Size() != 1 {
			return nil, errors.Wrapf(ErrShapeMismatch, "%s %s for scalar node %s", what, t.Shape(), n.name)
		}
		if !t.IsScalar() {
			return t.Clone().AsScalar()
		}
		return t, nil
	}
	if !t.Shape().Equal(n.shape) {
		return nil, errors.Wrapf(ErrShapeMismatch, "%s %s for node %s %s", what, t.Shape(), n.name, n.shape)
	}
	return t, nil
}

// SetValue stores the value for a sample index. A single node ignores the
// index.
func (n *Node) SetValue(sampleIndex int, t *tensor.Tensor) error {
	t, err := n.check(t, "value")
	if err != nil {
		return err
	}
	if n.multiIndex {
		n.values[sampleIndex] = t
	} else {
		n.value = t
	}
	return nil
}

// Value returns the value for a sample index.
func (n *Node) Value(sampleIndex int) (*tensor.Tensor, bool) {
	if !n.multiIndex {
		return n.value, n.value != nil
	}
	t, ok := n.values[sampleIndex]
	return t, ok
}

// SetGradient replaces the gradient for a sample index.
func (n *Node) SetGradient(sampleIndex int, g *tensor.Tensor) error {
	g, err := n.check(g, "gradient")
	if err != nil {
		return err
	}
	g = g.Clone()
	if n.multiIndex {
		n.gradients[sampleIndex] = g
	} else {
		n.gradient = g
		n.gradientCount = 1
	}
	return nil
}

// CumulateGradient adds g to the gradient of a sample index, starting from a
// copy of g when none is stored. Nothing is cumulated into a stop-gradient
// node.
func (n *Node) CumulateGradient(sampleIndex int, g *tensor.Tensor) error {
	if n.stopGradient {
		return nil
	}
	g, err := n.check(g, "gradient")
	if err != nil {
		return err
	}
	if !n.multiIndex {
		n.gradientCount++
		if n.gradient == nil {
			n.gradient = g.Clone()
			return nil
		}
		return n.gradient.AddInPlace(g)
	}
	existing, ok := n.gradients[sampleIndex]
	if !ok {
		n.gradients[sampleIndex] = g.Clone()
		return nil
	}
	return existing.AddInPlace(g)
}

// Gradient returns the accumulated gradient for a sample index.
func (n *Node) Gradient(sampleIndex int) (*tensor.Tensor, bool) {
	if !n.multiIndex {
		return n.gradient, n.gradient != nil
	}
	g, ok := n.gradients[sampleIndex]
	return g, ok
}

// GradientMean returns the mean gradient: for a single node the accumulated
// gradient divided by the number of cumulations plus the regularization
// penalty, for a multi-index node the mean over sample indices.
func (n *Node) GradientMean() (*tensor.Tensor, bool) {
	if !n.multiIndex {
		if n.gradient == nil {
			return nil, false
		}
		mean := n.gradient.Scale(1 / float64(max(n.gradientCount, 1)))
		if n.penalty != nil {
			if err := mean.AddInPlace(n.penalty); err != nil {
				return nil, false
			}
		}
		return mean, true
	}
	if len(n.gradients) == 0 {
		return nil, false
	}
	var sum *tensor.Tensor
	for _, i := range n.GradientKeys() {
		if sum == nil {
			sum = n.gradients[i].Clone()
			continue
		}
		if err := sum.AddInPlace(n.gradients[i]); err != nil {
			return nil, false
		}
	}
	return sum.Scale(1 / float64(len(n.gradients))), true
}

// GradientCount returns how many gradients GradientMean averages: the
// cumulations of a single node or the sample indices of a multi-index node.
func (n *Node) GradientCount() int {
	if !n.multiIndex {
		return n.gradientCount
	}
	return len(n.gradients)
}

// Keys returns the sample indices holding a value, in increasing order. A
// single node has none.
func (n *Node) Keys() []int {
	return slices.Sorted(maps.Keys(n.values))
}

// GradientKeys returns the sample indices holding a gradient, in increasing
// order.
func (n *Node) GradientKeys() []int {
	return slices.Sorted(maps.Keys(n.gradients))
}

// ResetGradients drops every gradient.
func (n *Node) ResetGradients() {
	clear(n.gradients)
	n.gradient = nil
	n.gradientCount = 0
	n.penalty = nil
}

func (n *Node) clearValues() {
	clear(n.values)
	n.value = nil
}

// Reset drops gradients and per-batch values. Parameters and constants keep
// their value.
func (n *Node) Reset() {
	n.ResetGradients()
	if n.role != roleParameter {
		n.clearValues()
	}
}

// updateDependency sets a linked node's value at sampleIndex from its source
// at the previous index, zeros when the source has none.
func (n *Node) updateDependency(sampleIndex int) error {
	if n.source == nil {
		return nil
	}
	prev, ok := n.source.Value(sampleIndex - 1)
	if !ok {
		prev = tensor.Zeros(n.shape)
		if n.scalar {
			prev = tensor.Scalar(0)
		}
	}
	return n.SetValue(sampleIndex, prev)
}

// updateGradientDependency cumulates the gradients its dependents received at
// the next sample index into the gradient at sampleIndex.
func (n *Node) updateGradientDependency(sampleIndex int) error {
	for _, dep := range n.dependents {
		if g, ok := dep.Gradient(sampleIndex + 1); ok {
			if err := n.CumulateGradient(sampleIndex, g); err != nil {
				return err
			}
		}
	}
	return nil
}

// cachedBytes returns the memory held by the node's values and gradients.
func (n *Node) cachedBytes() (tensors, bytes int) {
	add := func(t *tensor.Tensor) {
		if t != nil {
			tensors++
			bytes += t.Bytes()
		}
	}
	for _, t := range n.values {
		add(t)
	}
	for _, t := range n.gradients {
		add(t)
	}
	add(n.value)
	add(n.gradient)
	return tensors, bytes
}

func (n *Node) String() string {
	return n.name
}
