package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/chain/internal/tensor"
)

// Xavier returns a tensor drawn from U(-a, a) with a = sqrt(6/(fanIn+fanOut)).
func Xavier(fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand) *tensor.Tensor {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	t := tensor.Zeros(shape)
	data := t.Data()
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * bound
	}
	return t
}
