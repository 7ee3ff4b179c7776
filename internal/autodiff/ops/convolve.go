package ops

import (
	"github.com/born-ml/chain/internal/tensor"
)

// ConvConfig holds the fixed parameters of a convolution.
//
// Filters are laid out as Fr×Fc×(Din·Dout): the slice for input channel i and
// output channel o is i*Dout+o. In depth-separable mode the filter depth is
// Din and every input channel is filtered on its own into the same output
// channel.
type ConvConfig struct {
	Stride        int
	Dilation      int
	DepthSeparate bool
	// Flip rotates the filter by 180° (true convolution). Without it the
	// kernel is a crosscorrelation.
	Flip bool
}

func (cfg ConvConfig) validate() error {
	if cfg.Stride < 1 {
		return invalidParameter("stride %d < 1", cfg.Stride)
	}
	if cfg.Dilation < 1 {
		return invalidParameter("dilation %d < 1", cfg.Dilation)
	}
	return nil
}

// outputDepth returns Dout for an input depth and filter depth.
func (cfg ConvConfig) outputDepth(inDepth, filterDepth int) (int, error) {
	if cfg.DepthSeparate {
		if filterDepth != inDepth {
			return 0, shapeMismatch("depth separable filter depth %d != input depth %d", filterDepth, inDepth)
		}
		return inDepth, nil
	}
	if filterDepth%inDepth != 0 {
		return 0, shapeMismatch("filter depth %d is not a multiple of input depth %d", filterDepth, inDepth)
	}
	return filterDepth / inDepth, nil
}

// ConvShape returns the result shape of convolving in with filter:
//
//	rows = (R - ((Fr-1)*dilation + 1)) / stride + 1
func ConvShape(in, filter tensor.Shape, cfg ConvConfig) (tensor.Shape, error) {
	if err := cfg.validate(); err != nil {
		return tensor.Shape{}, err
	}
	outDepth, err := cfg.outputDepth(in.Depth, filter.Depth)
	if err != nil {
		return tensor.Shape{}, err
	}
	spanR := (filter.Rows-1)*cfg.Dilation + 1
	spanC := (filter.Columns-1)*cfg.Dilation + 1
	if spanR > in.Rows || spanC > in.Columns {
		return tensor.Shape{}, shapeMismatch("filter %s (dilation %d) larger than input %s", filter, cfg.Dilation, in)
	}
	return tensor.Shape{
		Rows:    (in.Rows-spanR)/cfg.Stride + 1,
		Columns: (in.Columns-spanC)/cfg.Stride + 1,
		Depth:   outDepth,
	}, nil
}

// convWalk calls fn for every (output, input, filter) triple of the
// convolution. It is shared by the forward pass and both gradients.
func convWalk(in, filter, out tensor.Shape, cfg ConvConfig, fn func(or, oc, od, ir, ic, id, fr, fc, fd int)) {
	for od := 0; od < out.Depth; od++ {
		inFrom, inTo := 0, in.Depth
		if cfg.DepthSeparate {
			inFrom, inTo = od, od+1
		}
		for id := inFrom; id < inTo; id++ {
			fd := id*out.Depth + od
			if cfg.DepthSeparate {
				fd = id
			}
			for or := 0; or < out.Rows; or++ {
				for oc := 0; oc < out.Columns; oc++ {
					for fr := 0; fr < filter.Rows; fr++ {
						for fc := 0; fc < filter.Columns; fc++ {
							ir := or*cfg.Stride + fr*cfg.Dilation
							ic := oc*cfg.Stride + fc*cfg.Dilation
							kr, kc := fr, fc
							if cfg.Flip {
								kr, kc = filter.Rows-1-fr, filter.Columns-1-fc
							}
							fn(or, oc, od, ir, ic, id, kr, kc, fd)
						}
					}
				}
			}
		}
	}
}

// Convolve slides filter over x and accumulates products. With cfg.Flip it is
// a convolution, otherwise a crosscorrelation.
func Convolve(x, filter *tensor.Tensor, cfg ConvConfig) (*tensor.Tensor, error) {
	shape, err := ConvShape(x.Shape(), filter.Shape(), cfg)
	if err != nil {
		return nil, err
	}
	out := tensor.Zeros(shape)
	convWalk(x.Shape(), filter.Shape(), shape, cfg, func(or, oc, od, ir, ic, id, fr, fc, fd int) {
		out.Add2D(or, oc, od, x.At(ir, ic, id)*filter.At(fr, fc, fd))
	})
	return out, nil
}

// ConvolveBackward computes the input and filter gradients of Convolve.
//
// The input gradient is the full (transposed) convolution of grad with the
// filter, the filter gradient the correlation of the input with grad. Both
// are computed by scattering every output gradient back along the same
// window walk as the forward pass.
func ConvolveBackward(grad, x, filter *tensor.Tensor, cfg ConvConfig) (gx, gf *tensor.Tensor, err error) {
	shape, err := ConvShape(x.Shape(), filter.Shape(), cfg)
	if err != nil {
		return nil, nil, err
	}
	if !grad.Shape().Equal(shape) {
		return nil, nil, shapeMismatch("convolution gradient %s for result %s", grad.Shape(), shape)
	}
	gx = tensor.Zeros(x.Shape())
	gf = tensor.Zeros(filter.Shape())
	convWalk(x.Shape(), filter.Shape(), shape, cfg, func(or, oc, od, ir, ic, id, fr, fc, fd int) {
		g := grad.At(or, oc, od)
		gx.Add2D(ir, ic, id, g*filter.At(fr, fc, fd))
		gf.Add2D(fr, fc, fd, g*x.At(ir, ic, id))
	})
	return gx, gf, nil
}
