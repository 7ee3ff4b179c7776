package ops

import (
	"math"

	"github.com/born-ml/chain/internal/tensor"
)

// Reduction selects the statistic computed by Reduce.
type Reduction int

// Reductions.
const (
	ReduceSum Reduction = iota
	ReduceMean
	ReduceVariance
	ReduceStandardDeviation
)

// ReductionOf maps a reduction kind to its Reduction.
func ReductionOf(k Kind) (Reduction, bool) {
	switch k {
	case KindSum:
		return ReduceSum, true
	case KindMean:
		return ReduceMean, true
	case KindVariance:
		return ReduceVariance, true
	case KindStandardDeviation:
		return ReduceStandardDeviation, true
	default:
		return 0, false
	}
}

// Moments holds the statistics a reduction's backward pass needs. Mean is set
// for Mean, Variance and StandardDeviation, Std only for StandardDeviation.
type Moments struct {
	Mean *tensor.Tensor
	Std  *tensor.Tensor
}

// View describes how a collection of inputs folds into one result.
//
// The per-index view holds a single input and reduces along Axis within it.
// The batch view (Batch true) holds one input per sample index and reduces
// each element position across the samples, so the result has the samples'
// shape.
//
// Both views share the same forward and backward code; only the mapping from
// an input element to its result position and the group size differ.
type View struct {
	Inputs []*tensor.Tensor
	Axis   tensor.Axis
	Batch  bool
}

// Shape returns the result shape of the view.
func (v View) Shape() tensor.Shape {
	s := v.Inputs[0].Shape()
	if v.Batch {
		return s
	}
	return s.ReducedShape(v.Axis)
}

// Count returns the number of input elements folding into each result element.
func (v View) Count() int {
	if v.Batch {
		return len(v.Inputs)
	}
	return v.Inputs[0].Shape().ReducedCount(v.Axis)
}

func (v View) target(r, c, d int) (int, int, int) {
	if v.Batch {
		return r, c, d
	}
	return tensor.ReducedIndex(v.Axis, r, c, d)
}

func (v View) newResult() *tensor.Tensor {
	out := tensor.Zeros(v.Shape())
	if !v.Batch && v.Axis == tensor.AxisAll {
		out, _ = out.AsScalar()
	}
	return out
}

func (v View) validate() error {
	if len(v.Inputs) == 0 {
		return shapeMismatch("reduction over no inputs")
	}
	first := v.Inputs[0].Shape()
	for _, in := range v.Inputs[1:] {
		if !in.Shape().Equal(first) {
			return shapeMismatch("batch reduction over %s and %s", first, in.Shape())
		}
	}
	return nil
}

// Reduce computes the reduction over the view and the moments its backward
// pass needs. Variance and standard deviation are population statistics.
func Reduce(red Reduction, v View) (*tensor.Tensor, Moments, error) {
	if err := v.validate(); err != nil {
		return nil, Moments{}, err
	}
	sum := v.newResult()
	for _, in := range v.Inputs {
		in.Each(func(r, c, d int, x float64) {
			tr, tc, td := v.target(r, c, d)
			sum.Add2D(tr, tc, td, x)
		})
	}
	if red == ReduceSum {
		return sum, Moments{}, nil
	}

	n := float64(v.Count())
	mean := sum.Scale(1 / n)
	if red == ReduceMean {
		return mean, Moments{Mean: mean}, nil
	}

	variance := v.newResult()
	for _, in := range v.Inputs {
		in.Each(func(r, c, d int, x float64) {
			tr, tc, td := v.target(r, c, d)
			dev := x - mean.At(tr, tc, td)
			variance.Add2D(tr, tc, td, dev*dev)
		})
	}
	variance = variance.Scale(1 / n)
	if red == ReduceVariance {
		return variance, Moments{Mean: mean}, nil
	}

	std := variance.Apply(math.Sqrt)
	return std, Moments{Mean: mean, Std: std}, nil
}

// ReduceBackward redistributes grad (shaped like the reduction's result) over
// every input of the view, one gradient per input:
//
//	Sum:                1
//	Mean:               1/n
//	Variance:           2(x-mean)/n
//	StandardDeviation:  (x-mean)/(n*std)
//
// A zero standard deviation yields a zero gradient.
func ReduceBackward(red Reduction, grad *tensor.Tensor, v View, m Moments) ([]*tensor.Tensor, error) {
	if err := v.validate(); err != nil {
		return nil, err
	}
	if !grad.Shape().Equal(v.Shape()) && !grad.IsScalar() {
		return nil, shapeMismatch("reduction gradient %s for result %s", grad.Shape(), v.Shape())
	}
	if red != ReduceSum && m.Mean == nil {
		return nil, invalidParameter("%d reduction backward without moments", red)
	}
	if red == ReduceStandardDeviation && m.Std == nil {
		return nil, invalidParameter("standard deviation backward without moments")
	}

	gradAt := func(r, c, d int) float64 {
		if grad.IsScalar() {
			return grad.Value()
		}
		return grad.At(r, c, d)
	}
	n := float64(v.Count())
	grads := make([]*tensor.Tensor, len(v.Inputs))
	for i, in := range v.Inputs {
		out := tensor.Zeros(in.Shape())
		in.Each(func(r, c, d int, x float64) {
			tr, tc, td := v.target(r, c, d)
			g := gradAt(tr, tc, td)
			var scale float64
			switch red {
			case ReduceSum:
				scale = 1
			case ReduceMean:
				scale = 1 / n
			case ReduceVariance:
				scale = 2 * (x - m.Mean.At(tr, tc, td)) / n
			case ReduceStandardDeviation:
				if std := m.Std.At(tr, tc, td); std != 0 {
					scale = (x - m.Mean.At(tr, tc, td)) / (n * std)
				}
			}
			out.Set(r, c, d, g*scale)
		})
		grads[i] = out
	}
	return grads, nil
}

// Norm computes the p-norm (Σ|x|^p)^(1/p) of x as a scalar. p must be >= 2.
func Norm(x *tensor.Tensor, p float64) (*tensor.Tensor, error) {
	if p < 2 {
		return nil, invalidParameter("norm p=%g < 2", p)
	}
	return tensor.Scalar(x.Norm(p)), nil
}

// NormBackward returns grad * (|x|/norm)^(p-1) * sign(x). A zero norm yields a
// zero gradient.
func NormBackward(grad, x *tensor.Tensor, p float64) (*tensor.Tensor, error) {
	if p < 2 {
		return nil, invalidParameter("norm p=%g < 2", p)
	}
	norm := x.Norm(p)
	g := grad.Value()
	if norm == 0 {
		return x.ZerosLike(), nil
	}
	return x.Apply(func(v float64) float64 {
		return g * math.Pow(math.Abs(v)/norm, p-1) * sign(v)
	}), nil
}
