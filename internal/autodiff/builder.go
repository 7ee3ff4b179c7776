package autodiff

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/chain/internal/autodiff/ops"
	"github.com/born-ml/chain/internal/tensor"
)

// Builder assembles a procedure: it creates nodes, appends one expression
// per operation call and finally links the chain in Build.
//
// The first error is sticky. Once an operation fails, later calls return nil
// nodes and Build returns that error, so a chain of calls can be checked
// once:
//
//	b := autodiff.NewBuilder()
//	x := b.Input("x", tensor.NewShape(3, 1, 1))
//	w := b.Parameter("w", weights)
//	y := b.UnaryFunction(b.Dot(w, x), ops.NewUnary(ops.TANH))
//	proc, err := b.Build(y)
type Builder struct {
	nodes       []*Node
	expressions []*Expression
	err         error
	built       bool
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Err returns the first error recorded by the builder.
func (b *Builder) Err() error {
	return b.err
}

func (b *Builder) fail(err error) *Node {
	if b.err == nil {
		b.err = err
	}
	return nil
}

func (b *Builder) addNode(name string, shape tensor.Shape, scalar, multiIndex bool, role nodeRole) *Node {
	if b.built {
		return b.fail(errors.Wrap(ErrInvalidParameter, "builder already built a procedure"))
	}
	if err := shape.Validate(); err != nil && !scalar {
		return b.fail(errors.WithMessagef(err, "node %q", name))
	}
	n := NewNode(name, shape, scalar, multiIndex)
	n.id = len(b.nodes)
	n.role = role
	if n.name == "" {
		n.name = fmt.Sprintf("n%d", n.id)
	}
	b.nodes = append(b.nodes, n)
	return n
}

// Input creates a multi-index node holding one value per sample index.
func (b *Builder) Input(name string, shape tensor.Shape) *Node {
	if b.err != nil {
		return nil
	}
	return b.addNode(name, shape, false, true, roleInput)
}

// ScalarInput creates a multi-index node holding a broadcast scalar per
// sample index.
func (b *Builder) ScalarInput(name string) *Node {
	if b.err != nil {
		return nil
	}
	return b.addNode(name, tensor.Shape{Rows: 1, Columns: 1, Depth: 1}, true, true, roleInput)
}

// Parameter creates a single node holding value for every sample index.
// Gradients cumulate into it across the batch.
func (b *Builder) Parameter(name string, value *tensor.Tensor) *Node {
	if b.err != nil {
		return nil
	}
	if value == nil {
		return b.fail(errors.Wrapf(ErrArgumentMissing, "parameter %q value", name))
	}
	n := b.addNode(name, value.Shape(), value.IsScalar(), false, roleParameter)
	if n == nil {
		return nil
	}
	if err := n.SetValue(sharedKey, value); err != nil {
		return b.fail(err)
	}
	return n
}

// Constant creates a parameter that never receives gradients.
func (b *Builder) Constant(name string, value *tensor.Tensor) *Node {
	n := b.Parameter(name, value)
	if n != nil {
		n.SetStopGradient(true)
	}
	return n
}

// Link makes node read source's value at the previous sample index. node must
// be an input created by this builder.
func (b *Builder) Link(node, source *Node) {
	if b.err != nil {
		return
	}
	if err := b.check(node, source); err != nil {
		b.fail(err)
		return
	}
	if node.role != roleInput {
		b.fail(errors.Wrapf(ErrInvalidParameter, "link target %s is not an input", node.name))
		return
	}
	if err := node.LinkFrom(source); err != nil {
		b.fail(err)
	}
}

func (b *Builder) check(nodes ...*Node) error {
	for _, n := range nodes {
		if n == nil {
			return errors.Wrap(ErrArgumentMissing, "nil node")
		}
		if n.id < 0 || n.id >= len(b.nodes) || b.nodes[n.id] != n {
			return errors.Wrapf(ErrInvalidParameter, "node %s belongs to another builder", n.name)
		}
	}
	return nil
}

// Apply appends an expression of the given kind and returns its result node.
// arg2 is nil for unary kinds.
func (b *Builder) Apply(kind ops.Kind, params ops.Params, arg1, arg2 *Node) *Node {
	if b.err != nil {
		return nil
	}
	id := len(b.expressions)
	if arg1 == nil {
		return b.fail(errors.Wrapf(ErrArgumentMissing, "expression %d (%s): first argument", id, kind))
	}
	if kind.Binary() && arg2 == nil {
		return b.fail(errors.Wrapf(ErrArgumentMissing, "expression %d (%s): second argument", id, kind))
	}
	args := []*Node{arg1}
	if arg2 != nil {
		args = append(args, arg2)
	}
	if err := b.check(args...); err != nil {
		return b.fail(err)
	}

	params = params.Normalize()
	shapes := make([]ops.ArgShape, len(args))
	for i, a := range args {
		shapes[i] = ops.ArgShape{Shape: a.shape, Scalar: a.scalar}
	}
	shape, err := ops.ResultShape(kind, params, shapes...)
	if err != nil {
		return b.fail(errors.WithMessagef(err, "expression %d (%s)", id, kind))
	}

	multiIndex := arg1.multiIndex || (arg2 != nil && arg2.multiIndex)
	result := b.addNode("", shape.Shape, shape.Scalar, multiIndex, roleResult)
	if result == nil {
		return nil
	}
	e, err := NewExpression(id, kind, params, arg1, arg2, result)
	if err != nil {
		return b.fail(err)
	}
	b.expressions = append(b.expressions, e)
	klog.V(2).Infof("expression %d: %s %s -> %s %s", id, kind, params.Describe(kind), result.name, shape.Shape)
	return result
}

// Build links the expressions the outputs depend on into a procedure.
// Expressions that no output depends on are dropped. The builder cannot be
// used afterwards.
func (b *Builder) Build(outputs ...*Node) (*Procedure, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.built {
		return nil, errors.Wrap(ErrInvalidParameter, "builder already built a procedure")
	}
	if len(outputs) == 0 {
		return nil, errors.Wrap(ErrArgumentMissing, "procedure outputs")
	}
	if err := b.check(outputs...); err != nil {
		return nil, err
	}

	producer := make(map[*Node]*Expression, len(b.expressions))
	for _, e := range b.expressions {
		producer[e.result] = e
	}

	// Walk back from the outputs, following links to their sources.
	keepNode := make(map[*Node]bool)
	keepExpr := make(map[*Expression]bool)
	var visit func(n *Node)
	visit = func(n *Node) {
		if n == nil || keepNode[n] {
			return
		}
		keepNode[n] = true
		if n.source != nil {
			visit(n.source)
		}
		if e, ok := producer[n]; ok {
			keepExpr[e] = true
			visit(e.arg1)
			visit(e.arg2)
		}
	}
	for _, out := range outputs {
		visit(out)
	}

	p := &Procedure{
		id:      uuid.New(),
		outputs: outputs,
		first:   noExpression,
		last:    noExpression,
		active:  true,
	}
	for _, n := range b.nodes {
		if !keepNode[n] {
			continue
		}
		n.id = len(p.nodes)
		p.nodes = append(p.nodes, n)
		if n.role == roleInput && n.source == nil {
			p.inputs = append(p.inputs, n)
		}
		if n.source != nil {
			p.perSample = true
		}
	}
	for _, e := range b.expressions {
		if !keepExpr[e] {
			continue
		}
		e.id = len(p.expressions)
		e.previous = p.last
		if p.last != noExpression {
			p.expressions[p.last].next = e.id
		} else {
			p.first = e.id
		}
		p.last = e.id
		p.expressions = append(p.expressions, e)
	}
	if len(p.expressions) == 0 {
		return nil, errors.Wrap(ErrInvalidParameter, "procedure has no expressions")
	}

	if p.perSample {
		// Per sample, a batch reduction runs after every other index; its
		// result can only be read by the caller.
		for _, e := range p.expressions {
			if !e.aggregate() {
				continue
			}
			for _, other := range p.expressions {
				if other.arg1 == e.result || other.arg2 == e.result {
					return nil, errors.Wrapf(ErrInvalidParameter,
						"expression %d (%s) reads batch reduction %s in a procedure with dependency links", other.id, other.kind, e.result.name)
				}
			}
		}
	}

	b.built = true
	klog.V(2).Infof("procedure %s: %d nodes, %d expressions, %d dropped, %s", p.id, len(p.nodes), len(p.expressions), len(b.expressions)-len(p.expressions), p.mode())
	return p, nil
}
