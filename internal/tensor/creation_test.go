package tensor

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsInvalidShape(t *testing.T) {
	_, err := New(Shape{2, -1, 1})
	assert.True(t, errors.Is(err, ErrInvalidShape))

	assert.Panics(t, func() { Zeros(Shape{}) })
}

func TestScalar(t *testing.T) {
	s := Scalar(3.5)
	assert.True(t, s.IsScalar())
	assert.Equal(t, 3.5, s.Value())
	assert.Equal(t, Shape{1, 1, 1}, s.Shape())

	_, err := Zeros(Shape{2, 1, 1}).AsScalar()
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	u, err := Zeros(Shape{1, 1, 1}).AsScalar()
	require.NoError(t, err)
	assert.True(t, u.IsScalar())
}

func TestFromSlice(t *testing.T) {
	x, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{3, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, 6.0, x.At(2, 1, 0))

	_, err = FromSlice([]float64{1, 2}, Shape{3, 2, 1})
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestFromRowsRagged(t *testing.T) {
	assert.Panics(t, func() { FromRows([][]float64{{1, 2}, {3}}) })
	assert.Panics(t, func() { FromRows(nil) })
}

func TestFullAndColumn(t *testing.T) {
	f := Full(Shape{2, 2, 1}, 7)
	assert.Equal(t, 28.0, f.Sum())

	c := Column(1, 2, 3)
	assert.Equal(t, Shape{3, 1, 1}, c.Shape())
	assert.Equal(t, 3.0, c.At(2, 0, 0))
}

func TestRandomIsSeeded(t *testing.T) {
	a := Random(Shape{4, 4, 1}, rand.New(rand.NewSource(42))) //nolint:gosec // G404: reproducible test data.
	b := Random(Shape{4, 4, 1}, rand.New(rand.NewSource(42))) //nolint:gosec // G404: reproducible test data.
	assert.True(t, a.Equal(b))
	for _, v := range a.Data() {
		assert.GreaterOrEqual(t, v, -1.0)
		assert.Less(t, v, 1.0)
	}
}
