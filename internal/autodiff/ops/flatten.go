package ops

import "github.com/born-ml/chain/internal/tensor"

// FlatShape returns the (R·C·D)×1×1 column shape of s.
func FlatShape(s tensor.Shape) tensor.Shape {
	return tensor.Shape{Rows: s.NumElements(), Columns: 1, Depth: 1}
}

// Flatten reshapes x into a column. Element order is preserved, so
// Unflatten(Flatten(x), x.Shape()) == x.
func Flatten(x *tensor.Tensor) *tensor.Tensor {
	out, err := x.Reshape(FlatShape(x.Shape()))
	if err != nil {
		// Same element count by construction.
		panic(err)
	}
	return out
}

// Unflatten reshapes a column back into shape.
func Unflatten(x *tensor.Tensor, shape tensor.Shape) (*tensor.Tensor, error) {
	return x.Reshape(shape)
}

// FlattenBackward reshapes the gradient back to the input shape.
func FlattenBackward(grad *tensor.Tensor, in tensor.Shape) (*tensor.Tensor, error) {
	return grad.Reshape(in)
}

// UnflattenBackward flattens the gradient back into a column.
func UnflattenBackward(grad *tensor.Tensor) *tensor.Tensor {
	return Flatten(grad)
}
