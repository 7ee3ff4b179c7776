package ops

import (
	"github.com/born-ml/chain/internal/tensor"
)

// Winograd F(2x2, 3x3) crosscorrelation.
//
// Every 2x2 output tile is computed from a 4x4 input tile d and the 3x3
// filter g as
//
//	Y = Aᵀ [ (G g Gᵀ) ⊙ (Bᵀ d B) ] A
//
// which takes 16 multiplications per tile and input channel instead of 36.
// The transform matrices are mostly zeros, so they carry masks and every
// product with them goes through MaskedDot. Output rows or columns that do
// not fill a whole tile are computed directly.
//
// Only stride 1, dilation 1 and 3x3 filters are supported. The gradient is
// that of the plain crosscorrelation.

var (
	winogradBT = tensor.FromRows([][]float64{
		{1, 0, -1, 0},
		{0, 1, 1, 0},
		{0, -1, 1, 0},
		{0, 1, 0, -1},
	}).MaskZeros()
	winogradG = tensor.FromRows([][]float64{
		{1, 0, 0},
		{0.5, 0.5, 0.5},
		{0.5, -0.5, 0.5},
		{0, 0, 1},
	}).MaskZeros()
	winogradAT = tensor.FromRows([][]float64{
		{1, 1, 1, 0},
		{0, 1, -1, -1},
	}).MaskZeros()
)

// WinogradConfig is the crosscorrelation configuration Winograd computes.
func WinogradConfig(depthSeparate bool) ConvConfig {
	return ConvConfig{Stride: 1, Dilation: 1, DepthSeparate: depthSeparate}
}

// WinogradShape returns the result shape of WinogradConvolve.
func WinogradShape(in, filter tensor.Shape, depthSeparate bool) (tensor.Shape, error) {
	if filter.Rows != 3 || filter.Columns != 3 {
		return tensor.Shape{}, shapeMismatch("winograd needs a 3x3 filter, got %s", filter)
	}
	return ConvShape(in, filter, WinogradConfig(depthSeparate))
}

// sandwich returns left · m · leftᵀ using masked products only.
func sandwich(left, m *tensor.Tensor) (*tensor.Tensor, error) {
	t, err := left.MaskedDot(m)
	if err != nil {
		return nil, err
	}
	t, err = left.MaskedDot(t.Transpose())
	if err != nil {
		return nil, err
	}
	return t.Transpose(), nil
}

// WinogradFilter pre-transforms every filter slice g into U = G g Gᵀ. The
// result is 4x4 with the filter's depth.
func WinogradFilter(filter *tensor.Tensor) (*tensor.Tensor, error) {
	if filter.Rows() != 3 || filter.Columns() != 3 {
		return nil, shapeMismatch("winograd needs a 3x3 filter, got %s", filter.Shape())
	}
	u := tensor.Zeros(tensor.Shape{Rows: 4, Columns: 4, Depth: filter.Depth()})
	for d := 0; d < filter.Depth(); d++ {
		g, err := filter.Block(0, 0, d, tensor.Shape{Rows: 3, Columns: 3, Depth: 1})
		if err != nil {
			return nil, err
		}
		ud, err := sandwich(winogradG, g)
		if err != nil {
			return nil, err
		}
		u.Paste(ud, 0, 0, d)
	}
	return u, nil
}

// WinogradConvolve crosscorrelates x with filter using the pre-transformed
// filter u from WinogradFilter.
func WinogradConvolve(x, filter, u *tensor.Tensor, depthSeparate bool) (*tensor.Tensor, error) {
	shape, err := WinogradShape(x.Shape(), filter.Shape(), depthSeparate)
	if err != nil {
		return nil, err
	}
	if u.Rows() != 4 || u.Columns() != 4 || u.Depth() != filter.Depth() {
		return nil, shapeMismatch("winograd transformed filter %s for filter %s", u.Shape(), filter.Shape())
	}
	cfg := WinogradConfig(depthSeparate)
	out := tensor.Zeros(shape)
	tileShape := tensor.Shape{Rows: 4, Columns: 4, Depth: 1}

	for od := 0; od < shape.Depth; od++ {
		inFrom, inTo := 0, x.Depth()
		if depthSeparate {
			inFrom, inTo = od, od+1
		}
		for or := 0; or+1 < shape.Rows; or += 2 {
			for oc := 0; oc+1 < shape.Columns; oc += 2 {
				m := tensor.Zeros(tileShape)
				for id := inFrom; id < inTo; id++ {
					fd := id*shape.Depth + od
					if depthSeparate {
						fd = id
					}
					d, err := x.Block(or, oc, id, tileShape)
					if err != nil {
						return nil, err
					}
					v, err := sandwich(winogradBT, d)
					if err != nil {
						return nil, err
					}
					uf, err := u.Block(0, 0, fd, tileShape)
					if err != nil {
						return nil, err
					}
					prod, err := uf.Mul(v)
					if err != nil {
						return nil, err
					}
					if err := m.AddInPlace(prod); err != nil {
						return nil, err
					}
				}
				y, err := sandwich(winogradAT, m)
				if err != nil {
					return nil, err
				}
				out.Paste(y, or, oc, od)
			}
		}
	}

	// Odd trailing row and column.
	if shape.Rows%2 == 1 || shape.Columns%2 == 1 {
		lastR, lastC := shape.Rows-1, shape.Columns-1
		convWalk(x.Shape(), filter.Shape(), shape, cfg, func(or, oc, od, ir, ic, id, fr, fc, fd int) {
			if (shape.Rows%2 == 1 && or == lastR) || (shape.Columns%2 == 1 && oc == lastC) {
				out.Add2D(or, oc, od, x.At(ir, ic, id)*filter.At(fr, fc, fd))
			}
		})
	}
	return out, nil
}

// WinogradBackward returns the crosscorrelation gradients for x and filter.
func WinogradBackward(grad, x, filter *tensor.Tensor, depthSeparate bool) (gx, gf *tensor.Tensor, err error) {
	return ConvolveBackward(grad, x, filter, WinogradConfig(depthSeparate))
}
