package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/chain/internal/autodiff"
	"github.com/born-ml/chain/internal/autodiff/ops"
	"github.com/born-ml/chain/internal/tensor"
)

func TestNewExpressionArgumentMissing(t *testing.T) {
	shape := tensor.NewShape(2, 2, 1)
	a := autodiff.NewNode("a", shape, false, true)
	result := autodiff.NewNode("r", shape, false, true)

	_, err := autodiff.NewExpression(0, ops.KindAdd, ops.Params{}, nil, a, result)
	assert.ErrorIs(t, err, autodiff.ErrArgumentMissing)
	_, err = autodiff.NewExpression(0, ops.KindAdd, ops.Params{}, a, nil, result)
	assert.ErrorIs(t, err, autodiff.ErrArgumentMissing)
	_, err = autodiff.NewExpression(0, ops.KindFlatten, ops.Params{}, a, a, result)
	assert.ErrorIs(t, err, autodiff.ErrInvalidParameter)
	_, err = autodiff.NewExpression(0, ops.KindAdd, ops.Params{}, a, a, nil)
	assert.ErrorIs(t, err, autodiff.ErrArgumentMissing)
}

func TestNewExpressionShapes(t *testing.T) {
	a := autodiff.NewNode("a", tensor.NewShape(2, 3, 1), false, true)
	c := autodiff.NewNode("c", tensor.NewShape(3, 4, 1), false, true)

	wrong := autodiff.NewNode("r", tensor.NewShape(2, 3, 1), false, true)
	_, err := autodiff.NewExpression(0, ops.KindDot, ops.Params{}, a, c, wrong)
	assert.ErrorIs(t, err, autodiff.ErrShapeMismatch)

	result := autodiff.NewNode("r", tensor.NewShape(2, 4, 1), false, true)
	e, err := autodiff.NewExpression(3, ops.KindDot, ops.Params{}, a, c, result)
	require.NoError(t, err)
	assert.Equal(t, 3, e.ID())
	assert.Equal(t, ops.KindDot, e.Kind())
	assert.False(t, e.SingleStep())
	arg1, arg2 := e.Arguments()
	assert.Same(t, a, arg1)
	assert.Same(t, c, arg2)
	assert.Same(t, result, e.Result())
	assert.Equal(t, "Expression 3: DOT: r = a · c", e.String())
}

func TestNewExpressionBatchOfSingleNode(t *testing.T) {
	shape := tensor.NewShape(2, 1, 1)
	w := autodiff.NewNode("w", shape, false, false)
	result := autodiff.NewNode("r", shape, false, false)
	_, err := autodiff.NewExpression(0, ops.KindMean, ops.Params{AsBatch: true}, w, nil, result)
	assert.ErrorIs(t, err, autodiff.ErrInvalidParameter)
}

func TestNewExpressionStepAPI(t *testing.T) {
	shape := tensor.NewShape(1, 1, 1)
	x := autodiff.NewNode("x", shape, false, true)
	w := autodiff.NewNode("w", shape, false, false)
	y := autodiff.NewNode("y", shape, false, true)
	e, err := autodiff.NewExpression(0, ops.KindMultiply, ops.Params{}, x, w, y)
	require.NoError(t, err)

	require.NoError(t, w.SetValue(0, one(3)))
	for i := range 3 {
		require.NoError(t, x.SetValue(i, one(float64(i))))
	}
	require.NoError(t, e.CalculateBatch([]int{0, 1, 2}))
	assert.Equal(t, []int{0, 1, 2}, y.Keys())

	for i := range 3 {
		require.NoError(t, y.SetGradient(i, one(1)))
	}
	require.NoError(t, e.GradientStep(2, 2))
	require.NoError(t, e.GradientStep(1, 2))
	assert.Equal(t, []int{1, 2}, x.GradientKeys())
	assert.Equal(t, 3.0, gradient(t, w, 0).Value())
}

func TestBuilderStickyError(t *testing.T) {
	b := autodiff.NewBuilder()
	x := b.Input("x", tensor.NewShape(2, 1, 1))
	y := b.Add(x, nil)
	assert.Nil(t, y)
	require.ErrorIs(t, b.Err(), autodiff.ErrArgumentMissing)

	// Later calls keep the first error.
	assert.Nil(t, b.Input("z", tensor.NewShape(1, 1, 1)))
	assert.Nil(t, b.Dot(x, x))
	_, err := b.Build(x)
	assert.ErrorIs(t, err, autodiff.ErrArgumentMissing)
}

func TestBuilderErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *autodiff.Builder) *autodiff.Node
		err   error
	}{
		{
			name: "dot shape",
			build: func(b *autodiff.Builder) *autodiff.Node {
				x := b.Input("x", tensor.NewShape(2, 3, 1))
				return b.Dot(x, x)
			},
			err: autodiff.ErrShapeMismatch,
		},
		{
			name: "norm below two",
			build: func(b *autodiff.Builder) *autodiff.Node {
				return b.Norm(b.Input("x", tensor.NewShape(2, 1, 1)), 1)
			},
			err: autodiff.ErrInvalidParameter,
		},
		{
			name: "dropout probability",
			build: func(b *autodiff.Builder) *autodiff.Node {
				return b.Dropout(b.Input("x", tensor.NewShape(2, 1, 1)), 1.5, false, 1)
			},
			err: autodiff.ErrInvalidParameter,
		},
		{
			name: "nil parameter",
			build: func(b *autodiff.Builder) *autodiff.Node {
				return b.Parameter("w", nil)
			},
			err: autodiff.ErrArgumentMissing,
		},
		{
			name: "foreign node",
			build: func(b *autodiff.Builder) *autodiff.Node {
				other := autodiff.NewBuilder().Input("x", tensor.NewShape(1, 1, 1))
				return b.Flatten(other)
			},
			err: autodiff.ErrInvalidParameter,
		},
		{
			name: "link to parameter",
			build: func(b *autodiff.Builder) *autodiff.Node {
				w := b.Parameter("w", one(1))
				x := b.Input("x", tensor.NewShape(1, 1, 1))
				b.Link(w, x)
				return x
			},
			err: autodiff.ErrInvalidParameter,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := autodiff.NewBuilder()
			tt.build(b)
			assert.ErrorIs(t, b.Err(), tt.err)
		})
	}
}

func TestBuildPrunesUnusedExpressions(t *testing.T) {
	b := autodiff.NewBuilder()
	x := b.Input("x", tensor.NewShape(2, 1, 1))
	unused := b.Input("unused", tensor.NewShape(2, 1, 1))
	_ = b.Add(x, unused)
	y := b.Flatten(b.Multiply(x, x))
	proc, err := b.Build(y)
	require.NoError(t, err)

	exprs := proc.Expressions()
	require.Len(t, exprs, 2)
	assert.Equal(t, ops.KindMultiply, exprs[0].Kind())
	assert.Equal(t, ops.KindFlatten, exprs[1].Kind())
	for id, e := range exprs {
		assert.Equal(t, id, e.ID())
	}
	assert.Equal(t, []*autodiff.Node{x}, proc.Inputs())
	assert.Len(t, proc.Nodes(), 3)
	for id, n := range proc.Nodes() {
		assert.Equal(t, id, n.ID())
	}
	assert.Equal(t, []*autodiff.Node{y}, proc.Outputs())

	_, err = b.Build(y)
	assert.ErrorIs(t, err, autodiff.ErrInvalidParameter, "a builder builds once")
}

func TestBuildRejects(t *testing.T) {
	t.Run("no outputs", func(t *testing.T) {
		b := autodiff.NewBuilder()
		b.Input("x", tensor.NewShape(1, 1, 1))
		_, err := b.Build()
		assert.ErrorIs(t, err, autodiff.ErrArgumentMissing)
	})

	t.Run("no expressions", func(t *testing.T) {
		b := autodiff.NewBuilder()
		x := b.Input("x", tensor.NewShape(1, 1, 1))
		_, err := b.Build(x)
		assert.ErrorIs(t, err, autodiff.ErrInvalidParameter)
	})

	t.Run("batch reduction read per sample", func(t *testing.T) {
		b := autodiff.NewBuilder()
		shape := tensor.NewShape(1, 1, 1)
		prev := b.Input("prev", shape)
		x := b.Input("x", shape)
		h := b.Add(prev, x)
		b.Link(prev, h)
		loss := b.Sum(b.BatchMean(h), tensor.AxisAll)
		_, err := b.Build(loss)
		assert.ErrorIs(t, err, autodiff.ErrInvalidParameter)
	})
}

func TestBuildPerSampleBatchReduction(t *testing.T) {
	b := autodiff.NewBuilder()
	shape := tensor.NewShape(1, 1, 1)
	prev := b.Input("prev", shape)
	x := b.Input("x", shape)
	h := b.Add(prev, x)
	b.Link(prev, h)
	m := b.BatchMean(h)
	proc, err := b.Build(m)
	require.NoError(t, err)
	require.True(t, proc.PerSample())

	// h is the running sum 1, 3, 6.
	indices := []int{0, 1, 2}
	for _, i := range indices {
		require.NoError(t, proc.SetInput(x, i, one(float64(i+1))))
	}
	require.NoError(t, proc.Forward(indices))
	assert.InDelta(t, 10.0/3, value(t, m, 0).Value(), 1e-12)

	// Every x_j reaches h_i for i >= j: dx_j = (3 - j) / 3.
	require.NoError(t, proc.SetOutputGradient(m, 0, one(1)))
	require.NoError(t, proc.Backward(indices, 0))
	for _, i := range indices {
		assert.InDelta(t, float64(3-i)/3, gradient(t, x, i).Value(), 1e-12, "x_%d", i)
	}
}
