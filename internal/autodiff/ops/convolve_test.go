package ops

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/chain/internal/tensor"
)

func TestCrosscorrelate_Values(t *testing.T) {
	x := tensor.FromRows([][]float64{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
	})
	filter := tensor.FromRows([][]float64{
		{1, 0},
		{0, -1},
	})

	out, err := Convolve(x, filter, ConvConfig{Stride: 1, Dilation: 1})
	require.NoError(t, err)
	assert.True(t, out.Equal(tensor.FromRows([][]float64{{-4, -4}, {-4, -4}})))

	// The flipped filter is [[-1, 0], [0, 1]].
	out, err = Convolve(x, filter, ConvConfig{Stride: 1, Dilation: 1, Flip: true})
	require.NoError(t, err)
	assert.True(t, out.Equal(tensor.FromRows([][]float64{{4, 4}, {4, 4}})))
}

func TestConvShape(t *testing.T) {
	in := tensor.Shape{Rows: 7, Columns: 9, Depth: 2}

	tests := []struct {
		name   string
		filter tensor.Shape
		cfg    ConvConfig
		want   tensor.Shape
	}{
		{"plain", tensor.Shape{Rows: 3, Columns: 3, Depth: 2}, ConvConfig{Stride: 1, Dilation: 1}, tensor.Shape{Rows: 5, Columns: 7, Depth: 1}},
		{"stride", tensor.Shape{Rows: 3, Columns: 3, Depth: 6}, ConvConfig{Stride: 2, Dilation: 1}, tensor.Shape{Rows: 3, Columns: 4, Depth: 3}},
		{"dilation", tensor.Shape{Rows: 3, Columns: 2, Depth: 2}, ConvConfig{Stride: 1, Dilation: 3}, tensor.Shape{Rows: 1, Columns: 6, Depth: 1}},
		{"separable", tensor.Shape{Rows: 2, Columns: 2, Depth: 2}, ConvConfig{Stride: 1, Dilation: 1, DepthSeparate: true}, tensor.Shape{Rows: 6, Columns: 8, Depth: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvShape(in, tt.filter, tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ConvShape(in, tensor.Shape{Rows: 3, Columns: 3, Depth: 3}, ConvConfig{Stride: 1, Dilation: 1})
	assert.True(t, errors.Is(err, ErrShapeMismatch), "filter depth not a multiple of input depth")

	_, err = ConvShape(in, tensor.Shape{Rows: 3, Columns: 3, Depth: 4}, ConvConfig{Stride: 1, Dilation: 1, DepthSeparate: true})
	assert.True(t, errors.Is(err, ErrShapeMismatch), "separable filter depth")

	_, err = ConvShape(in, tensor.Shape{Rows: 4, Columns: 3, Depth: 2}, ConvConfig{Stride: 1, Dilation: 3})
	assert.True(t, errors.Is(err, ErrShapeMismatch), "dilated filter larger than input")

	_, err = ConvShape(in, tensor.Shape{Rows: 3, Columns: 3, Depth: 2}, ConvConfig{Stride: 0, Dilation: 1})
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}

func TestConvolveGradients(t *testing.T) {
	tests := []struct {
		name   string
		in     tensor.Shape
		filter tensor.Shape
		cfg    ConvConfig
	}{
		{"crosscorrelate", tensor.Shape{Rows: 5, Columns: 4, Depth: 1}, tensor.Shape{Rows: 3, Columns: 2, Depth: 1}, ConvConfig{Stride: 1, Dilation: 1}},
		{"convolve", tensor.Shape{Rows: 5, Columns: 4, Depth: 1}, tensor.Shape{Rows: 3, Columns: 2, Depth: 1}, ConvConfig{Stride: 1, Dilation: 1, Flip: true}},
		{"multi channel", tensor.Shape{Rows: 4, Columns: 4, Depth: 2}, tensor.Shape{Rows: 2, Columns: 2, Depth: 6}, ConvConfig{Stride: 1, Dilation: 1}},
		{"stride", tensor.Shape{Rows: 7, Columns: 6, Depth: 2}, tensor.Shape{Rows: 3, Columns: 2, Depth: 4}, ConvConfig{Stride: 2, Dilation: 1, Flip: true}},
		{"dilation", tensor.Shape{Rows: 6, Columns: 6, Depth: 1}, tensor.Shape{Rows: 2, Columns: 3, Depth: 2}, ConvConfig{Stride: 1, Dilation: 2}},
		{"separable", tensor.Shape{Rows: 5, Columns: 5, Depth: 3}, tensor.Shape{Rows: 2, Columns: 2, Depth: 3}, ConvConfig{Stride: 1, Dilation: 1, DepthSeparate: true}},
	}
	rng := testRNG()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := randomIn(rng, tt.in, -1, 1)
			filter := randomIn(rng, tt.filter, -1, 1)
			shape, err := ConvShape(tt.in, tt.filter, tt.cfg)
			require.NoError(t, err)
			upstream := randomIn(rng, shape, -1, 1)

			gx, gf, err := ConvolveBackward(upstream, x, filter, tt.cfg)
			require.NoError(t, err)
			compareGradients(t, gx, numericalGradient(func(x *tensor.Tensor) *tensor.Tensor {
				return must(t)(Convolve(x, filter, tt.cfg))
			}, x, upstream), tt.name+" input")
			compareGradients(t, gf, numericalGradient(func(f *tensor.Tensor) *tensor.Tensor {
				return must(t)(Convolve(x, f, tt.cfg))
			}, filter, upstream), tt.name+" filter")
		})
	}
}

func TestConvolveBackward_GradientShape(t *testing.T) {
	x := tensor.Zeros(tensor.Shape{Rows: 4, Columns: 4, Depth: 1})
	filter := tensor.Zeros(tensor.Shape{Rows: 2, Columns: 2, Depth: 1})
	_, _, err := ConvolveBackward(tensor.Zeros(tensor.Shape{Rows: 2, Columns: 2, Depth: 1}), x, filter, ConvConfig{Stride: 1, Dilation: 1})
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestWinogradMatchesCrosscorrelate(t *testing.T) {
	tests := []struct {
		name      string
		in        tensor.Shape
		filter    tensor.Shape
		separable bool
	}{
		{"even output", tensor.Shape{Rows: 6, Columns: 6, Depth: 1}, tensor.Shape{Rows: 3, Columns: 3, Depth: 1}, false},
		{"odd rows", tensor.Shape{Rows: 7, Columns: 6, Depth: 1}, tensor.Shape{Rows: 3, Columns: 3, Depth: 1}, false},
		{"odd columns", tensor.Shape{Rows: 6, Columns: 5, Depth: 1}, tensor.Shape{Rows: 3, Columns: 3, Depth: 1}, false},
		{"odd both", tensor.Shape{Rows: 5, Columns: 7, Depth: 1}, tensor.Shape{Rows: 3, Columns: 3, Depth: 1}, false},
		{"single output", tensor.Shape{Rows: 3, Columns: 3, Depth: 1}, tensor.Shape{Rows: 3, Columns: 3, Depth: 1}, false},
		{"multi channel", tensor.Shape{Rows: 6, Columns: 7, Depth: 2}, tensor.Shape{Rows: 3, Columns: 3, Depth: 6}, false},
		{"separable", tensor.Shape{Rows: 7, Columns: 6, Depth: 3}, tensor.Shape{Rows: 3, Columns: 3, Depth: 3}, true},
	}
	rng := testRNG()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := randomIn(rng, tt.in, -1, 1)
			filter := randomIn(rng, tt.filter, -1, 1)
			u, err := WinogradFilter(filter)
			require.NoError(t, err)

			got, err := WinogradConvolve(x, filter, u, tt.separable)
			require.NoError(t, err)
			want, err := Convolve(x, filter, WinogradConfig(tt.separable))
			require.NoError(t, err)
			assert.True(t, got.ApproxEqual(want, 1e-9), "winograd %s != crosscorrelate %s", got, want)
		})
	}
}

func TestWinogradFilter_Errors(t *testing.T) {
	_, err := WinogradFilter(tensor.Zeros(tensor.Shape{Rows: 2, Columns: 3, Depth: 1}))
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	x := tensor.Zeros(tensor.Shape{Rows: 4, Columns: 4, Depth: 1})
	filter := tensor.Zeros(tensor.Shape{Rows: 3, Columns: 3, Depth: 1})
	_, err = WinogradConvolve(x, filter, tensor.Zeros(tensor.Shape{Rows: 3, Columns: 3, Depth: 1}), false)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestWinogradBackward_MatchesConvolveBackward(t *testing.T) {
	rng := testRNG()
	x := randomIn(rng, tensor.Shape{Rows: 5, Columns: 6, Depth: 2}, -1, 1)
	filter := randomIn(rng, tensor.Shape{Rows: 3, Columns: 3, Depth: 2}, -1, 1)
	upstream := randomIn(rng, tensor.Shape{Rows: 3, Columns: 4, Depth: 1}, -1, 1)

	gx, gf, err := WinogradBackward(upstream, x, filter, false)
	require.NoError(t, err)
	u, err := WinogradFilter(filter)
	require.NoError(t, err)
	compareGradients(t, gx, numericalGradient(func(x *tensor.Tensor) *tensor.Tensor {
		return must(t)(WinogradConvolve(x, filter, u, false))
	}, x, upstream), "winograd input")
	compareGradients(t, gf, numericalGradient(func(f *tensor.Tensor) *tensor.Tensor {
		return must(t)(Convolve(x, f, WinogradConfig(false)))
	}, filter, upstream), "winograd filter")
}
