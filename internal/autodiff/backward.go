package autodiff

import (
	"github.com/pkg/errors"

	"github.com/born-ml/chain/internal/autodiff/ops"
	"github.com/born-ml/chain/internal/tensor"
)

// backward propagates the result gradient at one sample index into the
// argument gradients.
func (e *Expression) backward(sampleIndex int) error {
	key := e.key(sampleIndex)
	if e.result.stopGradient {
		delete(e.cache.positions, key)
		return nil
	}
	if err := e.result.updateGradientDependency(sampleIndex); err != nil {
		return e.wrap(err, sampleIndex)
	}
	g, ok := e.result.Gradient(sampleIndex)
	if !ok {
		return errors.Wrapf(ErrGradientUndefined, "expression %d (%s): result %s at sample index %d", e.id, e.kind, e.result.name, sampleIndex)
	}

	want1 := !e.arg1.stopGradient
	want2 := e.arg2 != nil && !e.arg2.stopGradient
	if !want1 && !want2 {
		delete(e.cache.positions, key)
		return nil
	}

	a, ok := e.arg1.Value(sampleIndex)
	if !ok {
		return errors.Wrapf(ErrArgumentUndefined, "expression %d (%s): argument %s at sample index %d", e.id, e.kind, e.arg1.name, sampleIndex)
	}
	var b *tensor.Tensor
	if e.arg2 != nil {
		if b, ok = e.arg2.Value(sampleIndex); !ok {
			return errors.Wrapf(ErrArgumentUndefined, "expression %d (%s): argument %s at sample index %d", e.id, e.kind, e.arg2.name, sampleIndex)
		}
	}

	ga, gb, err := e.vjp(sampleIndex, g, a, b)
	if err != nil {
		return e.wrap(err, sampleIndex)
	}
	if want1 && ga != nil {
		if err := e.arg1.CumulateGradient(sampleIndex, ga); err != nil {
			return e.wrap(err, sampleIndex)
		}
	}
	if want2 && gb != nil {
		if err := e.arg2.CumulateGradient(sampleIndex, gb); err != nil {
			return e.wrap(err, sampleIndex)
		}
	}
	return nil
}

// backwardAggregate distributes the shared result gradient over the argument
// at every sample index the forward pass reduced.
func (e *Expression) backwardAggregate() error {
	if e.result.stopGradient || e.arg1.stopGradient {
		return nil
	}
	g, ok := e.result.Gradient(sharedKey)
	if !ok {
		return errors.Wrapf(ErrGradientUndefined, "expression %d (%s): result %s", e.id, e.kind, e.result.name)
	}
	m, ok := e.cache.moments[sharedKey]
	if !ok || len(e.cache.batch) == 0 {
		return errors.Wrapf(ErrCacheMissing, "expression %d (%s): batch reduction was not calculated", e.id, e.kind)
	}
	inputs := make([]*tensor.Tensor, len(e.cache.batch))
	for n, i := range e.cache.batch {
		v, ok := e.arg1.Value(i)
		if !ok {
			return errors.Wrapf(ErrArgumentUndefined, "expression %d (%s): argument %s at sample index %d", e.id, e.kind, e.arg1.name, i)
		}
		inputs[n] = v
	}
	red, _ := ops.ReductionOf(e.kind)
	grads, err := ops.ReduceBackward(red, g, ops.View{Inputs: inputs, Batch: true}, m)
	if err != nil {
		return e.wrap(err, e.cache.batch[0])
	}
	for n, i := range e.cache.batch {
		if err := e.arg1.CumulateGradient(i, grads[n]); err != nil {
			return e.wrap(err, i)
		}
	}
	return nil
}

// vjp dispatches the backward kernel of the expression's kind. It returns the
// gradients of both arguments; the second is nil for unary kinds and for the
// target of a binary function.
func (e *Expression) vjp(sampleIndex int, g, a, b *tensor.Tensor) (ga, gb *tensor.Tensor, err error) {
	p := e.params
	key := e.key(sampleIndex)
	switch e.kind {
	case ops.KindAdd:
		ga, gb = ops.AddBackward(g, a, b)
		return ga, gb, nil
	case ops.KindSubtract:
		ga, gb = ops.SubtractBackward(g, a, b)
		return ga, gb, nil
	case ops.KindMultiply:
		return ops.MultiplyBackward(g, a, b)
	case ops.KindDivide:
		return ops.DivideBackward(g, a, b)
	case ops.KindDot:
		return ops.DotBackward(g, a, b)
	case ops.KindUnaryFunction:
		ga, err = p.Unary.Backward(g, a)
		return ga, nil, err
	case ops.KindBinaryFunction:
		ga, err = p.Binary.Backward(g, a, b)
		return ga, nil, err
	case ops.KindSum, ops.KindMean, ops.KindVariance, ops.KindStandardDeviation:
		red, _ := ops.ReductionOf(e.kind)
		var m ops.Moments
		if red != ops.ReduceSum {
			var ok bool
			if m, ok = e.cache.moments[key]; !ok {
				return nil, nil, errors.Wrapf(ErrCacheMissing, "%s moments", e.kind)
			}
		}
		grads, err := ops.ReduceBackward(red, g, ops.View{Inputs: []*tensor.Tensor{a}, Axis: p.Axis}, m)
		if err != nil {
			return nil, nil, err
		}
		return grads[0], nil, nil
	case ops.KindNorm:
		ga, err = ops.NormBackward(g, a, p.P)
		return ga, nil, err
	case ops.KindConvolve, ops.KindCrosscorrelate:
		return ops.ConvolveBackward(g, a, b, p.ConvConfig(e.kind))
	case ops.KindWinogradConvolution:
		return ops.WinogradBackward(g, a, b, p.DepthSeparate)
	case ops.KindMaxPool, ops.KindRandomPool, ops.KindCyclicPool:
		positions, ok := e.cache.positions[key]
		if !ok {
			return nil, nil, errors.Wrapf(ErrCacheMissing, "%s positions", e.kind)
		}
		delete(e.cache.positions, key)
		ga, err = ops.PositionalPoolBackward(g, a.Shape(), positions)
		return ga, nil, err
	case ops.KindAveragePool:
		ga, err = ops.AveragePoolBackward(g, a.Shape(), p.PoolConfig())
		return ga, nil, err
	case ops.KindFlatten:
		ga, err = ops.FlattenBackward(g, a.Shape())
		return ga, nil, err
	case ops.KindUnflatten:
		return ops.UnflattenBackward(g), nil, nil
	case ops.KindJoin:
		return ops.JoinBackward(g, a.Shape(), b.Shape(), p.Vertical)
	case ops.KindUnjoin:
		return ops.UnjoinBackward(g, a.Shape(), p.Row, p.Column, p.Depth), nil, nil
	case ops.KindGradientClipping:
		ga, err = ops.ClipGradient(g, p.Threshold)
		return ga, nil, err
	case ops.KindDropout:
		return g.Clone(), nil, nil
	default:
		return nil, nil, errors.Wrapf(ErrInvalidParameter, "unknown operation kind %d", int(e.kind))
	}
}
