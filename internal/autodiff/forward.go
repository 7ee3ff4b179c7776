package autodiff

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/born-ml/chain/internal/autodiff/ops"
	"github.com/born-ml/chain/internal/tensor"
)

// forward computes the result at one sample index.
func (e *Expression) forward(sampleIndex int) error {
	a, err := e.argument(e.arg1, sampleIndex)
	if err != nil {
		return err
	}
	var b *tensor.Tensor
	if e.arg2 != nil {
		if b, err = e.argument(e.arg2, sampleIndex); err != nil {
			return err
		}
	}
	out, err := e.kernel(sampleIndex, a, b)
	if err != nil {
		return e.wrap(err, sampleIndex)
	}
	if err := e.result.SetValue(sampleIndex, out); err != nil {
		return e.wrap(err, sampleIndex)
	}
	return nil
}

// forwardAggregate reduces the argument's values across the indices of the
// forward pass into the shared result. Without a batch in progress it reduces
// every sample index the argument holds.
func (e *Expression) forwardAggregate() error {
	keys := e.indices
	if keys == nil {
		keys = e.arg1.Keys()
	}
	if len(keys) == 0 {
		return errors.Wrapf(ErrArgumentUndefined, "expression %d (%s): argument %s has no sample values", e.id, e.kind, e.arg1.name)
	}
	inputs := make([]*tensor.Tensor, len(keys))
	for n, i := range keys {
		v, err := e.argument(e.arg1, i)
		if err != nil {
			return err
		}
		inputs[n] = v
	}
	red, _ := ops.ReductionOf(e.kind)
	out, m, err := ops.Reduce(red, ops.View{Inputs: inputs, Batch: true})
	if err != nil {
		return e.wrap(err, keys[0])
	}
	e.cache.batch = slices.Clone(keys)
	e.cache.moments[sharedKey] = m
	e.result.SetMultiIndex(false)
	if err := e.result.SetValue(sharedKey, out); err != nil {
		return e.wrap(err, keys[0])
	}
	return nil
}

// kernel dispatches the forward kernel of the expression's kind.
func (e *Expression) kernel(sampleIndex int, a, b *tensor.Tensor) (*tensor.Tensor, error) {
	p := e.params
	key := e.key(sampleIndex)
	switch e.kind {
	case ops.KindAdd:
		return ops.Add(a, b)
	case ops.KindSubtract:
		return ops.Subtract(a, b)
	case ops.KindMultiply:
		return ops.Multiply(a, b)
	case ops.KindDivide:
		return ops.Divide(a, b)
	case ops.KindDot:
		return ops.Dot(a, b)
	case ops.KindUnaryFunction:
		return p.Unary.Forward(a), nil
	case ops.KindBinaryFunction:
		return p.Binary.Forward(a, b)
	case ops.KindSum, ops.KindMean, ops.KindVariance, ops.KindStandardDeviation:
		red, _ := ops.ReductionOf(e.kind)
		out, m, err := ops.Reduce(red, ops.View{Inputs: []*tensor.Tensor{a}, Axis: p.Axis})
		if err != nil {
			return nil, err
		}
		if red != ops.ReduceSum {
			e.cache.moments[key] = m
		}
		return out, nil
	case ops.KindNorm:
		return ops.Norm(a, p.P)
	case ops.KindConvolve, ops.KindCrosscorrelate:
		return ops.Convolve(a, b, p.ConvConfig(e.kind))
	case ops.KindWinogradConvolution:
		u, err := e.winogradFilter(sampleIndex, b)
		if err != nil {
			return nil, err
		}
		return ops.WinogradConvolve(a, b, u, p.DepthSeparate)
	case ops.KindMaxPool, ops.KindRandomPool, ops.KindCyclicPool:
		var (
			out       *tensor.Tensor
			positions []int
			err       error
		)
		switch e.kind {
		case ops.KindMaxPool:
			out, positions, err = ops.MaxPool(a, p.PoolConfig())
		case ops.KindRandomPool:
			out, positions, err = ops.RandomPool(a, p.PoolConfig(), e.cache.rng)
		default:
			out, positions, err = ops.CyclicPool(a, p.PoolConfig(), &e.cache.cursor)
		}
		if err != nil {
			return nil, err
		}
		e.cache.positions[key] = positions
		return out, nil
	case ops.KindAveragePool:
		return ops.AveragePool(a, p.PoolConfig())
	case ops.KindFlatten:
		return ops.Flatten(a), nil
	case ops.KindUnflatten:
		return ops.Unflatten(a, p.Shape)
	case ops.KindJoin:
		return ops.Join(a, b, p.Vertical)
	case ops.KindUnjoin:
		return ops.Unjoin(a, p.Row, p.Column, p.Depth, p.Shape)
	case ops.KindGradientClipping:
		return a.Clone(), nil
	case ops.KindDropout:
		if !e.active && !p.MonteCarlo {
			return a.Clone(), nil
		}
		return ops.Dropout(a, p.Probability, e.cache.rng)
	default:
		return nil, errors.Wrapf(ErrInvalidParameter, "unknown operation kind %d", int(e.kind))
	}
}

// winogradFilter returns the transformed filter, computing it once per batch
// for a single filter node and once per sample index otherwise.
func (e *Expression) winogradFilter(sampleIndex int, filter *tensor.Tensor) (*tensor.Tensor, error) {
	key := sampleIndex
	if !e.arg2.multiIndex {
		key = sharedKey
	}
	if u, ok := e.cache.winograd[key]; ok {
		return u, nil
	}
	u, err := ops.WinogradFilter(filter)
	if err != nil {
		return nil, err
	}
	e.cache.winograd[key] = u
	return u, nil
}
