package nn_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/chain/internal/autodiff"
	"github.com/born-ml/chain/internal/nn"
	"github.com/born-ml/chain/internal/optim"
	"github.com/born-ml/chain/internal/tensor"
)

func newRNG() *rand.Rand {
	return rand.New(rand.NewSource(5)) //nolint:gosec // G404: reproducible test data.
}

func one(v float64) *tensor.Tensor {
	return tensor.FromRows([][]float64{{v}})
}

func TestXavier(t *testing.T) {
	x := nn.Xavier(10, 20, tensor.NewShape(20, 10, 1), newRNG())
	bound := math.Sqrt(6.0 / 30)
	for _, v := range x.Data() {
		assert.LessOrEqual(t, math.Abs(v), bound)
	}
	assert.Equal(t, 200, x.Size())
}

func TestLinear(t *testing.T) {
	l := nn.NewLinear("fc", 2, 1, newRNG())
	copy(l.Weight().Data(), []float64{1, 2})
	l.Bias().Data()[0] = 0.5
	assert.Equal(t, "Linear(in=2, out=1)", l.String())

	b := autodiff.NewBuilder()
	x := b.Input("x", tensor.NewShape(2, 1, 1))
	y := l.Apply(b, x)
	proc, err := b.Build(y)
	require.NoError(t, err)

	params := l.Parameters()
	require.Len(t, params, 2)
	assert.Equal(t, "fc.weight", params[0].Name())
	assert.Equal(t, "fc.bias", params[1].Name())

	require.NoError(t, proc.SetInput(x, 0, tensor.Column(3, 4)))
	require.NoError(t, proc.Forward([]int{0}))
	out, ok := y.Value(0)
	require.True(t, ok)
	assert.InDelta(t, 11.5, out.Data()[0], 1e-12)

	require.NoError(t, proc.SetOutputGradient(y, 0, one(1)))
	require.NoError(t, proc.Backward([]int{0}, 0))
	dw, ok := params[0].Gradient(0)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{3, 4}, dw.Data(), 1e-12)
	db, ok := params[1].Gradient(0)
	require.True(t, ok)
	assert.InDelta(t, 1.0, db.Data()[0], 1e-12)
}

func TestLinearSharesParameters(t *testing.T) {
	l := nn.NewLinear("fc", 1, 1, newRNG())
	l.Weight().Data()[0] = 1

	// One procedure per input, both built from the same layer.
	for _, input := range []float64{10, 20} {
		b := autodiff.NewBuilder()
		x := b.Input("x", tensor.NewShape(1, 1, 1))
		y := l.Apply(b, x)
		proc, err := b.Build(y)
		require.NoError(t, err)
		require.NoError(t, proc.SetInput(x, 0, one(input)))
		require.NoError(t, proc.Forward([]int{0}))
		require.NoError(t, proc.SetOutputGradient(y, 0, one(1)))
		require.NoError(t, proc.Backward([]int{0}, 0))
	}

	params := l.Parameters()
	require.Len(t, params, 4)
	for n, want := range []float64{10, 20} {
		w := params[2*n]
		v, ok := w.Value(0)
		require.True(t, ok)
		assert.Same(t, l.Weight(), v)
		g, ok := w.Gradient(0)
		require.True(t, ok, "weight node of procedure %d", n)
		assert.InDelta(t, want, g.Value(), 1e-12)
	}

	// The shared weight steps once with the mean over both procedures.
	opt := optim.NewSGD(params, optim.SGDConfig{LR: 0.01})
	require.NoError(t, opt.Step())
	assert.InDelta(t, 1-0.01*15, l.Weight().Data()[0], 1e-12)
	assert.InDelta(t, -0.01, l.Bias().Data()[0], 1e-12)
}

func TestSequentialConvolutional(t *testing.T) {
	rng := newRNG()
	model := nn.NewSequential(
		nn.NewConv2D("conv", 3, rng),
		nn.NewReLU(),
		nn.NewMaxPool2D(2, 2),
		nn.NewFlatten(),
		nn.NewLinear("out", 4, 1, rng),
	)
	assert.Equal(t, 5, model.Len())
	assert.Equal(t, "Sequential(Conv2D(size=3, stride=1), RELU, MaxPool2D(size=2, stride=2), Flatten(), Linear(in=4, out=1))", model.String())

	b := autodiff.NewBuilder()
	x := b.Input("image", tensor.NewShape(6, 6, 1))
	target := b.Input("target", tensor.NewShape(1, 1, 1))
	y := model.Apply(b, x)
	loss := nn.MeanMSELoss(b, y, target)
	proc, err := b.Build(loss)
	require.NoError(t, err)
	assert.Equal(t, tensor.NewShape(1, 1, 1), y.Shape())
	require.Len(t, model.Parameters(), 4)

	indices := []int{0, 1}
	for _, i := range indices {
		require.NoError(t, proc.SetInput(x, i, tensor.Random(x.Shape(), rng)))
		require.NoError(t, proc.SetInput(target, i, one(1)))
	}
	require.NoError(t, proc.Forward(indices))
	require.NoError(t, proc.SetOutputGradient(loss, 0, tensor.Scalar(1)))
	require.NoError(t, proc.Backward(indices, 0))
	for _, p := range model.Parameters() {
		_, ok := p.GradientMean()
		assert.True(t, ok, p.Name())
	}
}

func TestStridedConv2D(t *testing.T) {
	conv := nn.NewConv2DStride("conv", 2, 2, newRNG())
	b := autodiff.NewBuilder()
	y := conv.Apply(b, b.Input("x", tensor.NewShape(4, 4, 1)))
	require.NoError(t, b.Err())
	assert.Equal(t, tensor.NewShape(2, 2, 1), y.Shape())
	assert.Equal(t, "Conv2D(size=2, stride=2)", conv.String())
}

func TestMeanMSELoss(t *testing.T) {
	b := autodiff.NewBuilder()
	prediction := b.Input("prediction", tensor.NewShape(1, 1, 1))
	target := b.Input("target", tensor.NewShape(1, 1, 1))
	loss := nn.MeanMSELoss(b, prediction, target)
	proc, err := b.Build(loss)
	require.NoError(t, err)

	require.NoError(t, proc.SetInput(prediction, 0, one(3)))
	require.NoError(t, proc.SetInput(target, 0, one(1)))
	require.NoError(t, proc.SetInput(prediction, 1, one(1)))
	require.NoError(t, proc.SetInput(target, 1, one(1)))
	require.NoError(t, proc.Forward([]int{0, 1}))
	v, ok := loss.Value(0)
	require.True(t, ok)
	assert.InDelta(t, 1.0, v.Value(), 1e-12)
}

func TestPools(t *testing.T) {
	b := autodiff.NewBuilder()
	x := b.Input("x", tensor.NewShape(4, 4, 1))
	avg := nn.NewAvgPool2D(2, 2)
	y := avg.Apply(b, x)
	require.NoError(t, b.Err())
	assert.Equal(t, tensor.NewShape(2, 2, 1), y.Shape())
	assert.Nil(t, avg.Parameters())
	assert.Equal(t, "AvgPool2D(size=2, stride=2)", avg.String())
	assert.Equal(t, "TANH", nn.NewTanh().String())
	assert.Equal(t, "SIGMOID", nn.NewSigmoid().String())
}
