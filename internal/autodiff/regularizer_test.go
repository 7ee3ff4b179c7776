package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/chain/internal/autodiff"
	"github.com/born-ml/chain/internal/tensor"
)

func TestRegularizers(t *testing.T) {
	w := tensor.Column(1, -2, 0)

	l2 := autodiff.L2{Lambda: 0.5}
	assert.InDelta(t, 2.5, l2.Error(w), 1e-12)
	assert.Equal(t, []float64{1, -2, 0}, l2.Gradient(w).Data())

	// Zero lambda means the default.
	l1 := autodiff.L1{}
	assert.InDelta(t, 0.03, l1.Error(w), 1e-12)
	assert.Equal(t, []float64{0.01, -0.01, 0}, l1.Gradient(w).Data())
}

func TestProcedureRegularizedParameter(t *testing.T) {
	b := autodiff.NewBuilder()
	x := b.Input("x", tensor.NewShape(1, 1, 1))
	w := b.Parameter("w", one(3))
	y := b.Multiply(w, x)
	b.Regularize(w, autodiff.L2{Lambda: 0.1})
	proc, err := b.Build(y)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, proc.RegularizationError(), 1e-12)

	indices := []int{0, 1}
	for _, i := range indices {
		require.NoError(t, proc.SetInput(x, i, one(float64(i+1))))
	}
	require.NoError(t, proc.Forward(indices))
	for _, i := range indices {
		require.NoError(t, proc.SetOutputGradient(y, i, one(1)))
	}
	require.NoError(t, proc.Backward(indices, 0))

	// dw = 1 + 2 over two cumulations; the penalty 2 * 0.1 * 3 joins the mean
	// once.
	assert.InDelta(t, 3.0, gradient(t, w, 0).Value(), 1e-12)
	mean, ok := w.GradientMean()
	require.True(t, ok)
	assert.InDelta(t, 1.5+0.6, mean.Value(), 1e-12)

	proc.Reset()
	_, ok = w.GradientMean()
	assert.False(t, ok)
}

func TestRegularizeErrors(t *testing.T) {
	t.Run("input", func(t *testing.T) {
		b := autodiff.NewBuilder()
		b.Regularize(b.Input("x", tensor.NewShape(1, 1, 1)), autodiff.L1{})
		assert.ErrorIs(t, b.Err(), autodiff.ErrInvalidParameter)
	})

	t.Run("nil regularizer", func(t *testing.T) {
		b := autodiff.NewBuilder()
		b.Regularize(b.Parameter("w", one(1)), nil)
		assert.ErrorIs(t, b.Err(), autodiff.ErrArgumentMissing)
	})

	t.Run("multi-index node", func(t *testing.T) {
		n := autodiff.NewNode("x", tensor.NewShape(1, 1, 1), false, true)
		assert.ErrorIs(t, n.AddRegularizer(autodiff.L2{}), autodiff.ErrInvalidParameter)
	})
}
