package ops

import "github.com/born-ml/chain/internal/tensor"

// JoinShape returns the result shape of joining a and b.
func JoinShape(a, b tensor.Shape, vertical bool) (tensor.Shape, error) {
	switch {
	case a.Depth != b.Depth:
		return tensor.Shape{}, shapeMismatch("join depth %s and %s", a, b)
	case vertical && a.Columns != b.Columns:
		return tensor.Shape{}, shapeMismatch("vertical join %s and %s", a, b)
	case !vertical && a.Rows != b.Rows:
		return tensor.Shape{}, shapeMismatch("horizontal join %s and %s", a, b)
	case vertical:
		return tensor.Shape{Rows: a.Rows + b.Rows, Columns: a.Columns, Depth: a.Depth}, nil
	default:
		return tensor.Shape{Rows: a.Rows, Columns: a.Columns + b.Columns, Depth: a.Depth}, nil
	}
}

// Join concatenates a and b vertically (b below a) or horizontally (b right
// of a).
//
// Backward pass: the gradient is split at the same point.
func Join(a, b *tensor.Tensor, vertical bool) (*tensor.Tensor, error) {
	return tensor.Join(a, b, vertical)
}

// JoinBackward splits grad into the gradients of a and b.
func JoinBackward(grad *tensor.Tensor, a, b tensor.Shape, vertical bool) (ga, gb *tensor.Tensor, err error) {
	ga, err = grad.Block(0, 0, 0, a)
	if err != nil {
		return nil, nil, err
	}
	row, column := 0, a.Columns
	if vertical {
		row, column = a.Rows, 0
	}
	gb, err = grad.Block(row, column, 0, b)
	if err != nil {
		return nil, nil, err
	}
	return ga, gb, nil
}

// UnjoinShape checks that the block of the given shape at (row, column, depth)
// lies inside in.
func UnjoinShape(in tensor.Shape, row, column, depth int, shape tensor.Shape) (tensor.Shape, error) {
	if err := shape.Validate(); err != nil {
		return tensor.Shape{}, err
	}
	if row < 0 || column < 0 || depth < 0 ||
		row+shape.Rows > in.Rows || column+shape.Columns > in.Columns || depth+shape.Depth > in.Depth {
		return tensor.Shape{}, shapeMismatch("unjoin %s at (%d,%d,%d) outside %s", shape, row, column, depth, in)
	}
	return shape, nil
}

// Unjoin extracts the block of the given shape at (row, column, depth), the
// inverse of Join:
//
//	Unjoin(Join(a, b, true), 0, 0, 0, a.Shape()) == a
//	Unjoin(Join(a, b, true), a.Rows(), 0, 0, b.Shape()) == b
func Unjoin(x *tensor.Tensor, row, column, depth int, shape tensor.Shape) (*tensor.Tensor, error) {
	return x.Block(row, column, depth, shape)
}

// UnjoinBackward embeds grad into a zero tensor of the input shape at the
// block origin.
func UnjoinBackward(grad *tensor.Tensor, in tensor.Shape, row, column, depth int) *tensor.Tensor {
	gx := tensor.Zeros(in)
	gx.Paste(grad, row, column, depth)
	return gx
}
