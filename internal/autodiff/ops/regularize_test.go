package ops

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/chain/internal/tensor"
)

func TestClipGradient(t *testing.T) {
	grad := tensor.FromRows([][]float64{{3, 4}})

	clipped, err := ClipGradient(grad, 1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.6, 0.8}, clipped.Data(), 1e-12)
	assert.InDelta(t, 1.0, clipped.Norm(2), 1e-12)

	kept, err := ClipGradient(grad, 10)
	require.NoError(t, err)
	assert.True(t, kept.Equal(grad))

	_, err = ClipGradient(grad, 0)
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}

func TestDropout(t *testing.T) {
	rng := testRNG()
	x := tensor.Full(tensor.Shape{Rows: 50, Columns: 40, Depth: 1}, 1)

	out, err := Dropout(x, 0.25, rng)
	require.NoError(t, err)
	var kept int
	for _, v := range out.Data() {
		if v != 0 {
			kept++
			assert.InDelta(t, 1/0.75, v, 1e-12)
		}
	}
	// 2000 draws at p=0.25: the kept fraction stays well inside [0.7, 0.8].
	frac := float64(kept) / float64(x.Size())
	assert.True(t, math.Abs(frac-0.75) < 0.05, "kept fraction %g", frac)

	same, err := Dropout(x, 0, rng)
	require.NoError(t, err)
	assert.True(t, same.Equal(x))

	none, err := Dropout(x, 1, rng)
	require.NoError(t, err)
	assert.Equal(t, 0.0, none.Sum())

	_, err = Dropout(x, -0.1, rng)
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}
