package autodiff

import (
	"slices"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/chain/internal/tensor"
)

// Procedure is a built chain of expressions replayed for every batch.
//
// Typical use per batch:
//
//	proc.Reset()
//	proc.SetInput(x, i, sample) // for every sample index i
//	proc.Forward(indices)
//	proc.SetOutputGradient(loss, i, grad)
//	proc.Backward(indices, 0)
//	grad, _ := weights.GradientMean()
//
// A procedure whose nodes carry dependency links runs per sample: the whole
// chain runs for one index before the next, so a linked node can read its
// source's value at the previous index. Otherwise it runs per step: each
// expression processes every index before the next expression runs.
//
// A procedure is not safe for concurrent use. Independent procedures may run
// concurrently, see ForwardAll.
type Procedure struct {
	id          uuid.UUID
	nodes       []*Node
	inputs      []*Node
	outputs     []*Node
	expressions []*Expression
	first, last int
	perSample   bool
	active      bool
}

// ID returns the procedure's identifier, used to correlate log lines.
func (p *Procedure) ID() uuid.UUID {
	return p.id
}

// Nodes returns every node the procedure reads or writes, ordered by id.
func (p *Procedure) Nodes() []*Node {
	return p.nodes
}

// Inputs returns the multi-index input nodes a caller sets per sample.
func (p *Procedure) Inputs() []*Node {
	return p.inputs
}

// Outputs returns the output nodes in the order given to Build.
func (p *Procedure) Outputs() []*Node {
	return p.outputs
}

// Expressions returns the expression arena in forward order.
func (p *Procedure) Expressions() []*Expression {
	return p.expressions
}

// PerSample reports whether the procedure runs one sample index at a time.
func (p *Procedure) PerSample() bool {
	return p.perSample
}

// Active reports whether the procedure is in training mode.
func (p *Procedure) Active() bool {
	return p.active
}

// SetActive switches every expression between training and inference mode.
func (p *Procedure) SetActive(active bool) {
	p.active = active
	for _, e := range p.expressions {
		e.SetActive(active)
	}
}

// Reset clears gradients, per-batch values and expression caches.
// Parameters and constants keep their values.
func (p *Procedure) Reset() {
	for _, n := range p.nodes {
		n.Reset()
	}
	for _, e := range p.expressions {
		e.Reset()
	}
}

// SetInput stores an input value for a sample index.
func (p *Procedure) SetInput(node *Node, sampleIndex int, value *tensor.Tensor) error {
	if err := p.owns(node); err != nil {
		return err
	}
	return node.SetValue(sampleIndex, value)
}

// SetOutputGradient sets the gradient of an output node for a sample index,
// the starting point of the backward pass.
func (p *Procedure) SetOutputGradient(node *Node, sampleIndex int, grad *tensor.Tensor) error {
	if err := p.owns(node); err != nil {
		return err
	}
	return node.SetGradient(sampleIndex, grad)
}

func (p *Procedure) owns(node *Node) error {
	if node == nil {
		return errors.Wrap(ErrArgumentMissing, "node")
	}
	if node.id < 0 || node.id >= len(p.nodes) || p.nodes[node.id] != node {
		return errors.Wrapf(ErrInvalidParameter, "node %s does not belong to procedure %s", node.name, p.id)
	}
	return nil
}

// sortedIndices returns the distinct indices in increasing order.
func sortedIndices(indices []int) []int {
	sorted := slices.Clone(indices)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}

func (p *Procedure) mode() string {
	if p.perSample {
		return "per-sample"
	}
	return "per-step"
}

// Forward evaluates the chain for the given sample indices in increasing
// order. Single-step expressions run once for the batch.
func (p *Procedure) Forward(indices []int) error {
	indices = sortedIndices(indices)
	if len(indices) == 0 {
		klog.Warningf("procedure %s: forward with no sample indices", p.id)
		return nil
	}
	klog.V(1).Infof("procedure %s: forward %d samples (%s)", p.id, len(indices), p.mode())
	if !p.perSample {
		for id := p.first; id != noExpression; id = p.expressions[id].next {
			if err := p.expressions[id].CalculateBatch(indices); err != nil {
				return err
			}
		}
		return nil
	}

	// Per sample, a batch reduction runs at the last index, once every
	// per-index argument exists. Other single-step expressions only read
	// single nodes and run at the first index.
	for _, e := range p.expressions {
		e.indices = indices
	}
	first, last := indices[0], indices[len(indices)-1]
	for _, i := range indices {
		for id := p.first; id != noExpression; id = p.expressions[id].next {
			e := p.expressions[id]
			fire := i == first
			if e.aggregate() {
				fire = i == last
			}
			if err := e.calculate(i, fire); err != nil {
				return err
			}
		}
	}
	return nil
}

// Backward propagates gradients set by SetOutputGradient through the chain
// and cumulates them into argument nodes. steps > 0 truncates propagation
// after that many sample indices: the first ones in per-step mode, the last
// ones in per-sample mode.
func (p *Procedure) Backward(indices []int, steps int) error {
	indices = sortedIndices(indices)
	if len(indices) == 0 {
		klog.Warningf("procedure %s: backward with no sample indices", p.id)
		return nil
	}
	klog.V(1).Infof("procedure %s: backward %d samples, steps %d (%s)", p.id, len(indices), steps, p.mode())
	if !p.perSample {
		for id := p.last; id != noExpression; id = p.expressions[id].previous {
			if err := p.expressions[id].GradientBatch(indices, steps); err != nil {
				return err
			}
		}
		return nil
	}

	// Indices are visited in decreasing order. A batch reduction runs at the
	// first visited index so its arguments have gradients for every index;
	// other single-step expressions run at the final visited index, once
	// their shared result gradient is complete.
	last := indices[len(indices)-1]
	stop := 0
	if steps > 0 && steps < len(indices) {
		stop = len(indices) - steps
	}
	for n := len(indices) - 1; n >= stop; n-- {
		i := indices[n]
		for id := p.last; id != noExpression; id = p.expressions[id].previous {
			e := p.expressions[id]
			fire := n == stop
			if e.aggregate() {
				fire = i == last
			}
			if err := e.gradient(i, fire); err != nil {
				return err
			}
		}
	}
	return nil
}

// Stats summarizes a procedure's size and the memory its nodes and caches
// hold.
type Stats struct {
	Nodes         int
	Expressions   int
	PerSample     bool
	CachedTensors int
	CachedBytes   int
}

// Stats returns the current statistics.
func (p *Procedure) Stats() Stats {
	s := Stats{Nodes: len(p.nodes), Expressions: len(p.expressions), PerSample: p.perSample}
	for _, n := range p.nodes {
		t, b := n.cachedBytes()
		s.CachedTensors += t
		s.CachedBytes += b
	}
	for _, e := range p.expressions {
		t, b := e.cachedBytes()
		s.CachedTensors += t
		s.CachedBytes += b
	}
	return s
}
