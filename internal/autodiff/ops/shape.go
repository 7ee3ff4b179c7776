package ops

import (
	"github.com/born-ml/chain/internal/tensor"
)

// ArgShape is the static shape of an argument or result.
type ArgShape struct {
	tensor.Shape
	Scalar bool
}

// ElementwiseShape applies the scalar broadcast rule: a scalar-flagged
// argument takes the other argument's shape.
func ElementwiseShape(a, b ArgShape) (ArgShape, error) {
	switch {
	case a.Scalar && b.Scalar:
		return a, nil
	case b.Scalar:
		return ArgShape{Shape: a.Shape}, nil
	case a.Scalar:
		return ArgShape{Shape: b.Shape}, nil
	case !a.Shape.Equal(b.Shape):
		return ArgShape{}, shapeMismatch("elementwise arguments %s and %s", a.Shape, b.Shape)
	}
	return ArgShape{Shape: a.Shape}, nil
}

// ResultShape validates p for kind k and returns the result shape for the
// given argument shapes. Binary kinds need two arguments.
func ResultShape(k Kind, p Params, args ...ArgShape) (ArgShape, error) {
	want := 1
	if k.Binary() {
		want = 2
	}
	if len(args) != want {
		return ArgShape{}, invalidParameter("%s takes %d arguments, got %d", k, want, len(args))
	}
	a := args[0]
	var b ArgShape
	if want == 2 {
		b = args[1]
	}

	switch k {
	case KindAdd, KindSubtract, KindMultiply, KindDivide:
		return ElementwiseShape(a, b)
	case KindBinaryFunction:
		if err := p.Binary.Validate(); err != nil {
			return ArgShape{}, err
		}
		return ElementwiseShape(a, b)
	case KindDot:
		s, err := DotShape(a.Shape, b.Shape, a.Scalar, b.Scalar)
		return ArgShape{Shape: s, Scalar: a.Scalar && b.Scalar}, err
	case KindUnaryFunction:
		if err := p.Unary.Validate(); err != nil {
			return ArgShape{}, err
		}
		return a, nil
	case KindSum, KindMean, KindVariance, KindStandardDeviation:
		if p.AsBatch {
			return a, nil
		}
		if p.Axis < tensor.AxisAll || p.Axis > tensor.AxisDepth {
			return ArgShape{}, invalidParameter("unknown axis %d", int(p.Axis))
		}
		return ArgShape{Shape: a.ReducedShape(p.Axis), Scalar: p.Axis == tensor.AxisAll}, nil
	case KindNorm:
		if p.P < 2 {
			return ArgShape{}, invalidParameter("norm p=%g < 2", p.P)
		}
		return ArgShape{Shape: tensor.Shape{Rows: 1, Columns: 1, Depth: 1}, Scalar: true}, nil
	case KindConvolve, KindCrosscorrelate:
		s, err := ConvShape(a.Shape, b.Shape, p.ConvConfig(k))
		return ArgShape{Shape: s}, err
	case KindWinogradConvolution:
		if p.Stride != 1 || p.Dilation != 1 {
			return ArgShape{}, invalidParameter("winograd needs stride 1 and dilation 1, got %d and %d", p.Stride, p.Dilation)
		}
		s, err := WinogradShape(a.Shape, b.Shape, p.DepthSeparate)
		return ArgShape{Shape: s}, err
	case KindMaxPool, KindAveragePool, KindRandomPool, KindCyclicPool:
		s, err := PoolShape(a.Shape, p.PoolConfig())
		return ArgShape{Shape: s}, err
	case KindFlatten:
		return ArgShape{Shape: FlatShape(a.Shape)}, nil
	case KindUnflatten:
		if err := p.Shape.Validate(); err != nil {
			return ArgShape{}, err
		}
		if p.Shape.NumElements() != a.NumElements() {
			return ArgShape{}, shapeMismatch("cannot unflatten %s into %s", a.Shape, p.Shape)
		}
		return ArgShape{Shape: p.Shape}, nil
	case KindJoin:
		s, err := JoinShape(a.Shape, b.Shape, p.Vertical)
		return ArgShape{Shape: s}, err
	case KindUnjoin:
		s, err := UnjoinShape(a.Shape, p.Row, p.Column, p.Depth, p.Shape)
		return ArgShape{Shape: s}, err
	case KindGradientClipping:
		return a, ValidateThreshold(p.Threshold)
	case KindDropout:
		return a, ValidateProbability(p.Probability)
	default:
		return ArgShape{}, invalidParameter("unknown operation kind %d", int(k))
	}
}

// PoolConfig returns the pooling window described by p.
func (p Params) PoolConfig() PoolConfig {
	return PoolConfig{Rows: p.PoolRows, Columns: p.PoolColumns, Stride: p.Stride, Dilation: p.Dilation}
}

// ConvConfig returns the convolution described by p for kind k.
func (p Params) ConvConfig(k Kind) ConvConfig {
	return ConvConfig{Stride: p.Stride, Dilation: p.Dilation, DepthSeparate: p.DepthSeparate, Flip: k == KindConvolve}
}
