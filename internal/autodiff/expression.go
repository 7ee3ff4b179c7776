package autodiff

import (
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/born-ml/chain/internal/autodiff/ops"
	"github.com/born-ml/chain/internal/tensor"
)

// noExpression marks the end of the chain in next/previous links.
const noExpression = -1

// sharedKey indexes caches of expressions that run once per batch.
const sharedKey = math.MinInt

// Expression binds one or two argument nodes and a result node to an
// operation kernel.
//
// Expressions form a chain in creation order: the procedure walks next links
// for the forward pass and previous links for the backward pass. Links are
// indices into the procedure's expression arena.
//
// A single-step expression runs once per batch instead of once per sample
// index. Batch reductions (AsBatch) are single-step, as is any expression
// whose arguments are all single nodes.
type Expression struct {
	id     int
	kind   ops.Kind
	params ops.Params

	arg1   *Node
	arg2   *Node
	result *Node

	next     int
	previous int

	singleStep bool
	active     bool

	// indices of the forward pass in progress; nil outside CalculateBatch
	// and Procedure.Forward.
	indices []int

	cache expressionCache
}

// expressionCache holds forward state the backward pass consumes. It belongs
// to the expression, never to the nodes.
type expressionCache struct {
	positions map[int][]int
	moments   map[int]ops.Moments
	winograd  map[int]*tensor.Tensor
	batch     []int
	cursor    int
	rng       *rand.Rand
}

// NewExpression creates an expression applying kind to the argument nodes and
// writing to result. arg2 must be nil for unary kinds. Parameters are
// normalized and validated against the argument shapes.
func NewExpression(id int, kind ops.Kind, params ops.Params, arg1, arg2, result *Node) (*Expression, error) {
	if arg1 == nil {
		return nil, errors.Wrapf(ErrArgumentMissing, "expression %d (%s): first argument", id, kind)
	}
	if kind.Binary() && arg2 == nil {
		return nil, errors.Wrapf(ErrArgumentMissing, "expression %d (%s): second argument", id, kind)
	}
	if !kind.Binary() && arg2 != nil {
		return nil, errors.Wrapf(ErrInvalidParameter, "expression %d (%s) takes one argument", id, kind)
	}
	if result == nil {
		return nil, errors.Wrapf(ErrArgumentMissing, "expression %d (%s): result node", id, kind)
	}
	params = params.Normalize()

	shapes := []ops.ArgShape{{Shape: arg1.shape, Scalar: arg1.scalar}}
	if arg2 != nil {
		shapes = append(shapes, ops.ArgShape{Shape: arg2.shape, Scalar: arg2.scalar})
	}
	want, err := ops.ResultShape(kind, params, shapes...)
	if err != nil {
		return nil, errors.WithMessagef(err, "expression %d (%s)", id, kind)
	}
	if !want.Shape.Equal(result.shape) || want.Scalar != result.scalar {
		return nil, errors.Wrapf(ErrShapeMismatch, "expression %d (%s): result node %s %s, operation yields %s", id, kind, result.name, result.shape, want.Shape)
	}

	singleStep := isAggregate(kind, params) || (!arg1.multiIndex && (arg2 == nil || !arg2.multiIndex))
	if isAggregate(kind, params) && !arg1.multiIndex {
		return nil, errors.Wrapf(ErrInvalidParameter, "expression %d (%s): batch reduction of single node %s", id, kind, arg1.name)
	}
	if result.multiIndex == singleStep {
		result.SetMultiIndex(!singleStep)
	}

	e := &Expression{
		id:         id,
		kind:       kind,
		params:     params,
		arg1:       arg1,
		arg2:       arg2,
		result:     result,
		next:       noExpression,
		previous:   noExpression,
		singleStep: singleStep,
		active:     true,
	}
	e.cache.reset()
	if kind == ops.KindRandomPool || kind == ops.KindDropout {
		seed := params.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		e.cache.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // G404: sampling, not security.
	}
	return e, nil
}

func isAggregate(kind ops.Kind, params ops.Params) bool {
	_, reduction := ops.ReductionOf(kind)
	return reduction && params.AsBatch
}

// aggregate reports whether the expression reduces across sample indices.
func (e *Expression) aggregate() bool {
	return isAggregate(e.kind, e.params)
}

func (c *expressionCache) reset() {
	c.positions = make(map[int][]int)
	c.moments = make(map[int]ops.Moments)
	c.winograd = make(map[int]*tensor.Tensor)
	c.batch = nil
	c.cursor = 0
}

// ID returns the expression's position in its procedure.
func (e *Expression) ID() int {
	return e.id
}

// Kind returns the operation kind.
func (e *Expression) Kind() ops.Kind {
	return e.kind
}

// Params returns the normalized operation parameters.
func (e *Expression) Params() ops.Params {
	return e.params
}

// Arguments returns the argument nodes; the second is nil for unary kinds.
func (e *Expression) Arguments() (*Node, *Node) {
	return e.arg1, e.arg2
}

// Result returns the result node.
func (e *Expression) Result() *Node {
	return e.result
}

// SingleStep reports whether the expression runs once per batch.
func (e *Expression) SingleStep() bool {
	return e.singleStep
}

// SetActive switches between training (active) and inference behavior.
// Only dropout reads it.
func (e *Expression) SetActive(active bool) {
	e.active = active
}

// Reset clears the forward caches.
func (e *Expression) Reset() {
	e.indices = nil
	e.cache.reset()
}

func (e *Expression) key(sampleIndex int) int {
	if e.singleStep {
		return sharedKey
	}
	return sampleIndex
}

// CalculateStep runs the forward pass for one sample index. A single-step
// expression runs only when sampleIndex equals firstSampleIndex. A batch
// reduction run this way reduces every sample index its argument holds.
func (e *Expression) CalculateStep(sampleIndex, firstSampleIndex int) error {
	e.indices = nil
	return e.calculate(sampleIndex, sampleIndex == firstSampleIndex)
}

// CalculateBatch runs the forward pass for every index in increasing order.
// A batch reduction reduces exactly these indices.
func (e *Expression) CalculateBatch(indices []int) error {
	if len(indices) == 0 {
		return nil
	}
	e.indices = indices
	first := indices[0]
	for _, i := range indices {
		if err := e.calculate(i, i == first); err != nil {
			return err
		}
	}
	return nil
}

// GradientStep runs the backward pass for one sample index. A single-step
// expression runs only when sampleIndex equals lastSampleIndex.
func (e *Expression) GradientStep(sampleIndex, lastSampleIndex int) error {
	return e.gradient(sampleIndex, sampleIndex == lastSampleIndex)
}

// GradientBatch runs the backward pass for every index in increasing order.
// steps > 0 stops after that many indices; a single-step expression then runs
// at the stopping index.
func (e *Expression) GradientBatch(indices []int, steps int) error {
	if len(indices) == 0 {
		return nil
	}
	last := indices[len(indices)-1]
	for n, i := range indices {
		stop := steps > 0 && n+1 >= steps
		if err := e.gradient(i, i == last || stop); err != nil {
			return err
		}
		if stop {
			break
		}
	}
	return nil
}

func (e *Expression) calculate(sampleIndex int, fire bool) error {
	if !e.singleStep {
		return e.forward(sampleIndex)
	}
	if !fire {
		return nil
	}
	if e.aggregate() {
		return e.forwardAggregate()
	}
	return e.forward(sampleIndex)
}

// gradient runs one backward step. fire marks the batch's final step for
// this expression: single-step expressions run only then, and the
// regularizers of single arguments apply after it.
func (e *Expression) gradient(sampleIndex int, fire bool) error {
	var err error
	switch {
	case !e.singleStep:
		err = e.backward(sampleIndex)
	case !fire:
		return nil
	case e.aggregate():
		err = e.backwardAggregate()
	default:
		err = e.backward(sampleIndex)
	}
	if err != nil || !fire {
		return err
	}
	return e.backwardRegularize()
}

// argument returns the value of n at sampleIndex, refreshing a linked node
// from its source first.
func (e *Expression) argument(n *Node, sampleIndex int) (*tensor.Tensor, error) {
	if err := n.updateDependency(sampleIndex); err != nil {
		return nil, e.wrap(err, sampleIndex)
	}
	v, ok := n.Value(sampleIndex)
	if !ok {
		return nil, errors.Wrapf(ErrArgumentUndefined, "expression %d (%s): argument %s at sample index %d", e.id, e.kind, n.name, sampleIndex)
	}
	return v, nil
}

func (e *Expression) wrap(err error, sampleIndex int) error {
	return errors.WithMessagef(err, "expression %d (%s) at sample index %d", e.id, e.kind, sampleIndex)
}

// cachedBytes returns the memory held by the expression's caches.
func (e *Expression) cachedBytes() (tensors, bytes int) {
	for _, p := range e.cache.positions {
		tensors++
		bytes += 8 * len(p)
	}
	for _, m := range e.cache.moments {
		for _, t := range []*tensor.Tensor{m.Mean, m.Std} {
			if t != nil {
				tensors++
				bytes += t.Bytes()
			}
		}
	}
	for _, u := range e.cache.winograd {
		tensors++
		bytes += u.Bytes()
	}
	return tensors, bytes
}
