package ops

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/chain/internal/tensor"
)

func TestJoin_InverseOfUnjoin(t *testing.T) {
	rng := testRNG()
	for _, vertical := range []bool{true, false} {
		a := randomIn(rng, tensor.Shape{Rows: 2, Columns: 3, Depth: 2}, -1, 1)
		b := randomIn(rng, tensor.Shape{Rows: 2, Columns: 3, Depth: 2}, -1, 1)

		joined := must(t)(Join(a, b, vertical))
		row, column := 0, a.Columns()
		if vertical {
			row, column = a.Rows(), 0
		}
		assert.True(t, must(t)(Unjoin(joined, 0, 0, 0, a.Shape())).Equal(a))
		assert.True(t, must(t)(Unjoin(joined, row, column, 0, b.Shape())).Equal(b))
	}
}

func TestJoin_Shapes(t *testing.T) {
	a := tensor.Shape{Rows: 2, Columns: 3, Depth: 1}
	b := tensor.Shape{Rows: 4, Columns: 3, Depth: 1}

	s, err := JoinShape(a, b, true)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{Rows: 6, Columns: 3, Depth: 1}, s)

	_, err = JoinShape(a, b, false)
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	_, err = JoinShape(a, tensor.Shape{Rows: 2, Columns: 3, Depth: 2}, true)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestJoinBackward(t *testing.T) {
	grad := tensor.FromRows([][]float64{
		{1, 2, 3},
		{4, 5, 6},
	})
	ga, gb, err := JoinBackward(grad, tensor.Shape{Rows: 2, Columns: 1, Depth: 1}, tensor.Shape{Rows: 2, Columns: 2, Depth: 1}, false)
	require.NoError(t, err)
	assert.True(t, ga.Equal(tensor.Column(1, 4)))
	assert.True(t, gb.Equal(tensor.FromRows([][]float64{{2, 3}, {5, 6}})))

	ga, gb, err = JoinBackward(grad, tensor.Shape{Rows: 1, Columns: 3, Depth: 1}, tensor.Shape{Rows: 1, Columns: 3, Depth: 1}, true)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, ga.Data())
	assert.Equal(t, []float64{4, 5, 6}, gb.Data())
}

func TestUnjoin(t *testing.T) {
	x := tensor.FromRows([][]float64{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
	})
	shape := tensor.Shape{Rows: 2, Columns: 2, Depth: 1}

	block := must(t)(Unjoin(x, 1, 1, 0, shape))
	assert.True(t, block.Equal(tensor.FromRows([][]float64{{5, 6}, {8, 9}})))

	gx := UnjoinBackward(tensor.FromRows([][]float64{{1, 1}, {1, 1}}), x.Shape(), 1, 1, 0)
	assert.True(t, gx.Equal(tensor.FromRows([][]float64{{0, 0, 0}, {0, 1, 1}, {0, 1, 1}})))

	_, err := UnjoinShape(x.Shape(), 2, 0, 0, shape)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
	_, err = UnjoinShape(x.Shape(), -1, 0, 0, shape)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestFlatten_RoundTrip(t *testing.T) {
	rng := testRNG()
	x := randomIn(rng, tensor.Shape{Rows: 2, Columns: 3, Depth: 2}, -1, 1)

	flat := Flatten(x)
	assert.Equal(t, tensor.Shape{Rows: 12, Columns: 1, Depth: 1}, flat.Shape())
	assert.Equal(t, x.Data(), flat.Data())
	assert.True(t, must(t)(Unflatten(flat, x.Shape())).Equal(x))

	g := must(t)(FlattenBackward(flat, x.Shape()))
	assert.Equal(t, x.Shape(), g.Shape())
	assert.Equal(t, FlatShape(x.Shape()), UnflattenBackward(x).Shape())

	_, err := Unflatten(flat, tensor.Shape{Rows: 5, Columns: 2, Depth: 1})
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}
