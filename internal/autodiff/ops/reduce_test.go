package ops

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/chain/internal/tensor"
)

var reductions = []struct {
	name string
	red  Reduction
}{
	{"sum", ReduceSum},
	{"mean", ReduceMean},
	{"variance", ReduceVariance},
	{"std", ReduceStandardDeviation},
}

func TestReduce_Values(t *testing.T) {
	x := tensor.FromRows([][]float64{
		{1, 2, 3},
		{3, 6, 9},
	})

	tests := []struct {
		red  Reduction
		axis tensor.Axis
		want []float64
	}{
		{ReduceSum, tensor.AxisAll, []float64{24}},
		{ReduceSum, tensor.AxisRows, []float64{4, 8, 12}},
		{ReduceSum, tensor.AxisColumns, []float64{6, 18}},
		{ReduceMean, tensor.AxisAll, []float64{4}},
		{ReduceMean, tensor.AxisColumns, []float64{2, 6}},
		{ReduceVariance, tensor.AxisRows, []float64{1, 4, 9}},
		{ReduceStandardDeviation, tensor.AxisRows, []float64{1, 2, 3}},
		{ReduceVariance, tensor.AxisDepth, []float64{0, 0, 0, 0, 0, 0}},
	}
	for _, tt := range tests {
		out, _, err := Reduce(tt.red, View{Inputs: []*tensor.Tensor{x}, Axis: tt.axis})
		require.NoError(t, err)
		assert.InDeltaSlice(t, tt.want, out.Data(), 1e-12, "reduction %d over %s", tt.red, tt.axis)
		assert.Equal(t, tt.axis == tensor.AxisAll, out.IsScalar())
	}
}

func TestReduce_Batch(t *testing.T) {
	samples := []*tensor.Tensor{
		tensor.FromRows([][]float64{{1, 10}}),
		tensor.FromRows([][]float64{{3, 10}}),
		tensor.FromRows([][]float64{{5, 10}}),
	}
	v := View{Inputs: samples, Batch: true}
	require.Equal(t, 3, v.Count())

	mean, _, err := Reduce(ReduceMean, v)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 10}, mean.Data())
	assert.False(t, mean.IsScalar())

	variance, _, err := Reduce(ReduceVariance, v)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{8.0 / 3, 0}, variance.Data(), 1e-12)

	grads, err := ReduceBackward(ReduceSum, tensor.FromRows([][]float64{{1, 2}}), v, Moments{})
	require.NoError(t, err)
	require.Len(t, grads, 3)
	for _, g := range grads {
		assert.Equal(t, []float64{1, 2}, g.Data())
	}

	_, _, err = Reduce(ReduceSum, View{Inputs: []*tensor.Tensor{samples[0], tensor.Column(1, 2)}, Batch: true})
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestReduceGradients(t *testing.T) {
	rng := testRNG()
	shape := tensor.Shape{Rows: 3, Columns: 4, Depth: 2}
	for _, r := range reductions {
		for _, axis := range []tensor.Axis{tensor.AxisAll, tensor.AxisRows, tensor.AxisColumns, tensor.AxisDepth} {
			t.Run(r.name+"/"+axis.String(), func(t *testing.T) {
				x := randomIn(rng, shape, -2, 2)
				v := View{Inputs: []*tensor.Tensor{x}, Axis: axis}
				out, m, err := Reduce(r.red, v)
				require.NoError(t, err)
				upstream := randomIn(rng, out.Shape(), -1, 1)
				if out.IsScalar() {
					upstream = tensor.Scalar(0.8)
				}

				grads, err := ReduceBackward(r.red, upstream, v, m)
				require.NoError(t, err)
				numerical := numericalGradient(func(x *tensor.Tensor) *tensor.Tensor {
					out, _, err := Reduce(r.red, View{Inputs: []*tensor.Tensor{x}, Axis: axis})
					require.NoError(t, err)
					return out
				}, x, upstream)
				compareGradients(t, grads[0], numerical, r.name)
			})
		}
	}
}

func TestReduceGradients_Batch(t *testing.T) {
	rng := testRNG()
	shape := tensor.Shape{Rows: 2, Columns: 3, Depth: 1}
	for _, r := range reductions {
		t.Run(r.name, func(t *testing.T) {
			inputs := []*tensor.Tensor{
				randomIn(rng, shape, -2, 2),
				randomIn(rng, shape, -2, 2),
				randomIn(rng, shape, -2, 2),
			}
			v := View{Inputs: inputs, Batch: true}
			_, m, err := Reduce(r.red, v)
			require.NoError(t, err)
			upstream := randomIn(rng, shape, -1, 1)

			grads, err := ReduceBackward(r.red, upstream, v, m)
			require.NoError(t, err)
			for i, in := range inputs {
				numerical := numericalGradient(func(*tensor.Tensor) *tensor.Tensor {
					out, _, err := Reduce(r.red, v)
					require.NoError(t, err)
					return out
				}, in, upstream)
				compareGradients(t, grads[i], numerical, r.name)
			}
		})
	}
}

func TestReduceBackward_ZeroStd(t *testing.T) {
	x := tensor.Full(tensor.Shape{Rows: 2, Columns: 2, Depth: 1}, 3)
	v := View{Inputs: []*tensor.Tensor{x}, Axis: tensor.AxisAll}
	std, m, err := Reduce(ReduceStandardDeviation, v)
	require.NoError(t, err)
	assert.Equal(t, 0.0, std.Value())

	grads, err := ReduceBackward(ReduceStandardDeviation, tensor.Scalar(1), v, m)
	require.NoError(t, err)
	assert.False(t, grads[0].HasNaN())
	assert.Equal(t, 0.0, grads[0].Sum())
}

func TestReduceBackward_MissingMoments(t *testing.T) {
	x := tensor.Column(1, 2, 3)
	v := View{Inputs: []*tensor.Tensor{x}, Axis: tensor.AxisAll}
	_, err := ReduceBackward(ReduceVariance, tensor.Scalar(1), v, Moments{})
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}

func TestNorm(t *testing.T) {
	x := tensor.FromRows([][]float64{{3, -4}})
	n, err := Norm(x, 2)
	require.NoError(t, err)
	assert.True(t, n.IsScalar())
	assert.InDelta(t, 5.0, n.Value(), 1e-12)

	n, err = Norm(x, 3)
	require.NoError(t, err)
	assert.InDelta(t, math.Cbrt(27+64), n.Value(), 1e-12)

	_, err = Norm(x, 1)
	assert.True(t, errors.Is(err, ErrInvalidParameter))

	g, err := NormBackward(tensor.Scalar(1), tensor.Zeros(x.Shape()), 2)
	require.NoError(t, err)
	assert.Equal(t, 0.0, g.Sum())
}
