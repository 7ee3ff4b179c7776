// Package ops implements the forward and backward numeric kernels of the expression graph.
//
// Kernels are plain functions over tensors. They hold no graph state: the
// caller (an expression in package autodiff) owns argument values, caches and
// gradients, and selects a kernel by matching on Kind.
//
// Supported operations:
//   - Add, Subtract, Multiply, Divide: elementwise with scalar broadcast
//   - Dot: matrix product per depth slice (d(A·B)/dA = g·Bᵀ, d(A·B)/dB = Aᵀ·g)
//   - UnaryFunction, BinaryFunction: table-driven activations and losses
//   - Sum, Mean, Variance, StandardDeviation, Norm: reductions
//   - Convolve, Crosscorrelate, WinogradConvolution: sliding-window filters
//   - MaxPool, AveragePool, RandomPool, CyclicPool: windowed pooling
//   - Flatten, Unflatten, Join, Unjoin: structural reshaping
//   - GradientClipping, Dropout: regularization
package ops

import (
	"fmt"

	"github.com/born-ml/chain/internal/tensor"
)

// Kind is the closed set of operations an expression can perform.
type Kind int

// Operation kinds.
const (
	KindAdd Kind = iota
	KindSubtract
	KindMultiply
	KindDivide
	KindDot
	KindUnaryFunction
	KindBinaryFunction
	KindSum
	KindMean
	KindVariance
	KindStandardDeviation
	KindNorm
	KindConvolve
	KindCrosscorrelate
	KindWinogradConvolution
	KindMaxPool
	KindAveragePool
	KindRandomPool
	KindCyclicPool
	KindFlatten
	KindUnflatten
	KindJoin
	KindUnjoin
	KindGradientClipping
	KindDropout
)

var kindNames = [...]string{
	KindAdd:                 "ADD",
	KindSubtract:            "SUBTRACT",
	KindMultiply:            "MULTIPLY",
	KindDivide:              "DIVIDE",
	KindDot:                 "DOT",
	KindUnaryFunction:       "UNARY_FUNCTION",
	KindBinaryFunction:      "BINARY_FUNCTION",
	KindSum:                 "SUM",
	KindMean:                "MEAN",
	KindVariance:            "VARIANCE",
	KindStandardDeviation:   "STANDARD_DEVIATION",
	KindNorm:                "NORM",
	KindConvolve:            "CONVOLVE",
	KindCrosscorrelate:      "CROSSCORRELATE",
	KindWinogradConvolution: "WINOGRAD_CONVOLUTION",
	KindMaxPool:             "MAX_POOL",
	KindAveragePool:         "AVERAGE_POOL",
	KindRandomPool:          "RANDOM_POOL",
	KindCyclicPool:          "CYCLIC_POOL",
	KindFlatten:             "FLATTEN",
	KindUnflatten:           "UNFLATTEN",
	KindJoin:                "JOIN",
	KindUnjoin:              "UNJOIN",
	KindGradientClipping:    "GRADIENT_CLIPPING",
	KindDropout:             "DROPOUT",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Binary reports whether the kind takes two arguments.
func (k Kind) Binary() bool {
	switch k {
	case KindAdd, KindSubtract, KindMultiply, KindDivide, KindDot, KindBinaryFunction,
		KindConvolve, KindCrosscorrelate, KindWinogradConvolution, KindJoin:
		return true
	default:
		return false
	}
}

// Positional reports whether the kind caches selected input positions in the
// forward pass for use by the backward pass.
func (k Kind) Positional() bool {
	return k == KindMaxPool || k == KindRandomPool || k == KindCyclicPool
}

// Params carries the fixed parameters of one operation. Only the fields
// relevant to the operation's Kind are read. The zero value of an unused
// field is ignored; Normalize fills the defaults of the used ones.
type Params struct {
	// Reductions.
	Axis    tensor.Axis
	AsBatch bool // aggregate across sample indices instead of within one
	P       float64

	// Functions.
	Unary  UnaryFunction
	Binary BinaryFunction

	// Convolution and pooling.
	Stride        int
	Dilation      int
	DepthSeparate bool
	PoolRows      int
	PoolColumns   int

	// Join, Unjoin and Unflatten.
	Vertical bool
	Row      int
	Column   int
	Depth    int
	Shape    tensor.Shape

	// Regularization.
	Threshold   float64
	Probability float64
	MonteCarlo  bool

	// Seed for RandomPool and Dropout. Zero draws a nondeterministic seed.
	Seed int64
}

// Normalize returns p with defaults filled in: stride and dilation 1, the
// function parameters' own defaults.
func (p Params) Normalize() Params {
	if p.Stride <= 0 {
		p.Stride = 1
	}
	if p.Dilation <= 0 {
		p.Dilation = 1
	}
	p.Unary = p.Unary.withDefaults()
	p.Binary = p.Binary.withDefaults()
	return p
}

// Describe formats the parameters that matter for kind, for diagnostics.
func (p Params) Describe(k Kind) string {
	switch k {
	case KindUnaryFunction:
		return p.Unary.Type.String()
	case KindBinaryFunction:
		return p.Binary.Type.String()
	case KindSum, KindMean, KindVariance, KindStandardDeviation:
		if p.AsBatch {
			return "batch"
		}
		return p.Axis.String()
	case KindNorm:
		return fmt.Sprintf("p=%g", p.P)
	case KindConvolve, KindCrosscorrelate, KindWinogradConvolution:
		return fmt.Sprintf("stride=%d dilation=%d separable=%t", p.Stride, p.Dilation, p.DepthSeparate)
	case KindMaxPool, KindAveragePool, KindRandomPool, KindCyclicPool:
		return fmt.Sprintf("%dx%d stride=%d dilation=%d", p.PoolRows, p.PoolColumns, p.Stride, p.Dilation)
	case KindUnflatten:
		return p.Shape.String()
	case KindJoin:
		if p.Vertical {
			return "vertical"
		}
		return "horizontal"
	case KindUnjoin:
		return fmt.Sprintf("at (%d,%d,%d) %s", p.Row, p.Column, p.Depth, p.Shape)
	case KindGradientClipping:
		return fmt.Sprintf("threshold=%g", p.Threshold)
	case KindDropout:
		return fmt.Sprintf("p=%g montecarlo=%t", p.Probability, p.MonteCarlo)
	default:
		return ""
	}
}
