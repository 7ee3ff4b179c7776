package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/chain/internal/autodiff"
	"github.com/born-ml/chain/internal/tensor"
)

// Conv2D crosscorrelates its input with a square single-slice filter and adds
// a scalar bias. A 3x3 filter with stride 1 runs on the Winograd kernel.
type Conv2D struct {
	name   string
	size   int
	stride int
	filter *tensor.Tensor
	bias   *tensor.Tensor

	params []*autodiff.Node
}

// NewConv2D creates a size x size convolution with stride 1.
func NewConv2D(name string, size int, rng *rand.Rand) *Conv2D {
	return NewConv2DStride(name, size, 1, rng)
}

// NewConv2DStride creates a size x size convolution with the given stride.
func NewConv2DStride(name string, size, stride int, rng *rand.Rand) *Conv2D {
	fan := size * size
	return &Conv2D{
		name:   name,
		size:   size,
		stride: stride,
		filter: Xavier(fan, fan, tensor.NewShape(size, size, 1), rng),
		bias:   tensor.Scalar(0),
	}
}

// Apply implements Module.
func (c *Conv2D) Apply(b *autodiff.Builder, x *autodiff.Node) *autodiff.Node {
	filter := b.Parameter(c.name+".filter", c.filter)
	bias := b.Parameter(c.name+".bias", c.bias)
	c.params = append(c.params, filter, bias)

	var y *autodiff.Node
	if c.size == 3 && c.stride <= 1 {
		y = b.WinogradConvolution(x, filter, false)
	} else {
		y = b.Crosscorrelate(x, filter, autodiff.ConvOptions{Stride: c.stride})
	}
	return b.Add(y, bias)
}

// Parameters implements Module.
func (c *Conv2D) Parameters() []*autodiff.Node {
	return c.params
}

// Filter returns the filter tensor.
func (c *Conv2D) Filter() *tensor.Tensor {
	return c.filter
}

func (c *Conv2D) String() string {
	return fmt.Sprintf("Conv2D(size=%d, stride=%d)", c.size, c.stride)
}
