package autodiff

import (
	"github.com/born-ml/chain/internal/autodiff/ops"
	"github.com/born-ml/chain/internal/tensor"
)

// Add appends a + c. A scalar argument broadcasts over the other.
func (b *Builder) Add(a, c *Node) *Node {
	return b.Apply(ops.KindAdd, ops.Params{}, a, c)
}

// Subtract appends a - c.
func (b *Builder) Subtract(a, c *Node) *Node {
	return b.Apply(ops.KindSubtract, ops.Params{}, a, c)
}

// Multiply appends the elementwise product a ⊙ c.
func (b *Builder) Multiply(a, c *Node) *Node {
	return b.Apply(ops.KindMultiply, ops.Params{}, a, c)
}

// Divide appends the elementwise quotient a / c.
func (b *Builder) Divide(a, c *Node) *Node {
	return b.Apply(ops.KindDivide, ops.Params{}, a, c)
}

// Dot appends the matrix product a · c, per depth slice.
func (b *Builder) Dot(a, c *Node) *Node {
	return b.Apply(ops.KindDot, ops.Params{}, a, c)
}

// UnaryFunction appends f(a).
func (b *Builder) UnaryFunction(a *Node, f ops.UnaryFunction) *Node {
	return b.Apply(ops.KindUnaryFunction, ops.Params{Unary: f}, a, nil)
}

// BinaryFunction appends f(value, target). The target receives no gradient.
func (b *Builder) BinaryFunction(value, target *Node, f ops.BinaryFunction) *Node {
	return b.Apply(ops.KindBinaryFunction, ops.Params{Binary: f}, value, target)
}

// Sum appends the sum of a along axis.
func (b *Builder) Sum(a *Node, axis tensor.Axis) *Node {
	return b.Apply(ops.KindSum, ops.Params{Axis: axis}, a, nil)
}

// Mean appends the mean of a along axis.
func (b *Builder) Mean(a *Node, axis tensor.Axis) *Node {
	return b.Apply(ops.KindMean, ops.Params{Axis: axis}, a, nil)
}

// Variance appends the population variance of a along axis.
func (b *Builder) Variance(a *Node, axis tensor.Axis) *Node {
	return b.Apply(ops.KindVariance, ops.Params{Axis: axis}, a, nil)
}

// StandardDeviation appends the population standard deviation of a along
// axis.
func (b *Builder) StandardDeviation(a *Node, axis tensor.Axis) *Node {
	return b.Apply(ops.KindStandardDeviation, ops.Params{Axis: axis}, a, nil)
}

// BatchSum appends the elementwise sum of a across the sample indices of a
// batch. The result is a single node.
func (b *Builder) BatchSum(a *Node) *Node {
	return b.Apply(ops.KindSum, ops.Params{AsBatch: true}, a, nil)
}

// BatchMean appends the elementwise mean of a across the batch.
func (b *Builder) BatchMean(a *Node) *Node {
	return b.Apply(ops.KindMean, ops.Params{AsBatch: true}, a, nil)
}

// BatchVariance appends the elementwise variance of a across the batch.
func (b *Builder) BatchVariance(a *Node) *Node {
	return b.Apply(ops.KindVariance, ops.Params{AsBatch: true}, a, nil)
}

// BatchStandardDeviation appends the elementwise standard deviation of a
// across the batch.
func (b *Builder) BatchStandardDeviation(a *Node) *Node {
	return b.Apply(ops.KindStandardDeviation, ops.Params{AsBatch: true}, a, nil)
}

// Norm appends the p-norm of a. p must be at least 2.
func (b *Builder) Norm(a *Node, p float64) *Node {
	return b.Apply(ops.KindNorm, ops.Params{P: p}, a, nil)
}

// ConvOptions holds the optional parameters of convolutions and pools.
// Zero stride and dilation mean 1.
type ConvOptions struct {
	Stride        int
	Dilation      int
	DepthSeparate bool
}

func (o ConvOptions) params() ops.Params {
	return ops.Params{Stride: o.Stride, Dilation: o.Dilation, DepthSeparate: o.DepthSeparate}
}

// Convolve appends the convolution of a with filter (the filter is flipped).
func (b *Builder) Convolve(a, filter *Node, opts ConvOptions) *Node {
	return b.Apply(ops.KindConvolve, opts.params(), a, filter)
}

// Crosscorrelate appends the crosscorrelation of a with filter.
func (b *Builder) Crosscorrelate(a, filter *Node, opts ConvOptions) *Node {
	return b.Apply(ops.KindCrosscorrelate, opts.params(), a, filter)
}

// WinogradConvolution appends a 3x3 crosscorrelation computed with Winograd
// F(2x2, 3x3). Stride and dilation must be 1.
func (b *Builder) WinogradConvolution(a, filter *Node, depthSeparate bool) *Node {
	return b.Apply(ops.KindWinogradConvolution, ops.Params{DepthSeparate: depthSeparate}, a, filter)
}

func poolParams(rows, columns int, opts ConvOptions) ops.Params {
	p := opts.params()
	p.PoolRows, p.PoolColumns = rows, columns
	return p
}

// MaxPool appends a max pool over rows x columns windows.
func (b *Builder) MaxPool(a *Node, rows, columns int, opts ConvOptions) *Node {
	return b.Apply(ops.KindMaxPool, poolParams(rows, columns, opts), a, nil)
}

// AveragePool appends an average pool over rows x columns windows.
func (b *Builder) AveragePool(a *Node, rows, columns int, opts ConvOptions) *Node {
	return b.Apply(ops.KindAveragePool, poolParams(rows, columns, opts), a, nil)
}

// RandomPool appends a pool picking a random unmasked element of every
// window. seed 0 draws a nondeterministic seed.
func (b *Builder) RandomPool(a *Node, rows, columns int, opts ConvOptions, seed int64) *Node {
	p := poolParams(rows, columns, opts)
	p.Seed = seed
	return b.Apply(ops.KindRandomPool, p, a, nil)
}

// CyclicPool appends a pool picking window elements in cyclic order.
func (b *Builder) CyclicPool(a *Node, rows, columns int, opts ConvOptions) *Node {
	return b.Apply(ops.KindCyclicPool, poolParams(rows, columns, opts), a, nil)
}

// Flatten appends the reshape of a into a column.
func (b *Builder) Flatten(a *Node) *Node {
	return b.Apply(ops.KindFlatten, ops.Params{}, a, nil)
}

// Unflatten appends the reshape of a into shape.
func (b *Builder) Unflatten(a *Node, shape tensor.Shape) *Node {
	return b.Apply(ops.KindUnflatten, ops.Params{Shape: shape}, a, nil)
}

// Join appends the concatenation of a and c, below a when vertical and to
// the right of it otherwise.
func (b *Builder) Join(a, c *Node, vertical bool) *Node {
	return b.Apply(ops.KindJoin, ops.Params{Vertical: vertical}, a, c)
}

// Unjoin appends the extraction of the block of the given shape at
// (row, column, depth).
func (b *Builder) Unjoin(a *Node, row, column, depth int, shape tensor.Shape) *Node {
	return b.Apply(ops.KindUnjoin, ops.Params{Row: row, Column: column, Depth: depth, Shape: shape}, a, nil)
}

// GradientClipping appends an identity whose backward pass rescales the
// gradient to L2 norm threshold when it is larger.
func (b *Builder) GradientClipping(a *Node, threshold float64) *Node {
	return b.Apply(ops.KindGradientClipping, ops.Params{Threshold: threshold}, a, nil)
}

// Dropout appends dropout with probability p. It only drops in training
// mode unless monteCarlo is set. seed 0 draws a nondeterministic seed.
func (b *Builder) Dropout(a *Node, p float64, monteCarlo bool, seed int64) *Node {
	return b.Apply(ops.KindDropout, ops.Params{Probability: p, MonteCarlo: monteCarlo, Seed: seed}, a, nil)
}
