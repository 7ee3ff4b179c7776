package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/chain/internal/autodiff"
	"github.com/born-ml/chain/internal/tensor"
)

// Linear is a fully connected layer over column inputs:
//
//	y = W · x + b
//
// with x of shape [in, 1], W of shape [out, in] and b of shape [out, 1].
// Weights use Xavier initialization, biases start at zero.
type Linear struct {
	name        string
	inFeatures  int
	outFeatures int
	weight      *tensor.Tensor
	bias        *tensor.Tensor

	params []*autodiff.Node
}

// NewLinear creates a Linear layer. name prefixes its parameter nodes.
func NewLinear(name string, inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	return &Linear{
		name:        name,
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      Xavier(inFeatures, outFeatures, tensor.NewShape(outFeatures, inFeatures, 1), rng),
		bias:        tensor.Zeros(tensor.NewShape(outFeatures, 1, 1)),
	}
}

// Apply implements Module.
func (l *Linear) Apply(b *autodiff.Builder, x *autodiff.Node) *autodiff.Node {
	w := b.Parameter(l.name+".weight", l.weight)
	bias := b.Parameter(l.name+".bias", l.bias)
	l.params = append(l.params, w, bias)
	return b.Add(b.Dot(w, x), bias)
}

// Parameters implements Module.
func (l *Linear) Parameters() []*autodiff.Node {
	return l.params
}

// Weight returns the weight tensor.
func (l *Linear) Weight() *tensor.Tensor {
	return l.weight
}

// Bias returns the bias tensor.
func (l *Linear) Bias() *tensor.Tensor {
	return l.bias
}

func (l *Linear) String() string {
	return fmt.Sprintf("Linear(in=%d, out=%d)", l.inFeatures, l.outFeatures)
}
