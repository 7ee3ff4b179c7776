package ops

import (
	"math"
	"math/rand"

	"github.com/born-ml/chain/internal/tensor"
)

// PoolConfig holds the fixed parameters of a pooling window.
type PoolConfig struct {
	Rows     int
	Columns  int
	Stride   int
	Dilation int
}

// Size returns the number of elements in the window.
func (cfg PoolConfig) Size() int {
	return cfg.Rows * cfg.Columns
}

// PoolShape returns the result shape of pooling over in. Depth is preserved.
func PoolShape(in tensor.Shape, cfg PoolConfig) (tensor.Shape, error) {
	if cfg.Rows < 1 || cfg.Columns < 1 {
		return tensor.Shape{}, invalidParameter("pool window %dx%d", cfg.Rows, cfg.Columns)
	}
	filter := tensor.Shape{Rows: cfg.Rows, Columns: cfg.Columns, Depth: in.Depth}
	return ConvShape(in, filter, ConvConfig{Stride: cfg.Stride, Dilation: cfg.Dilation, DepthSeparate: true})
}

func flatIndex(s tensor.Shape, r, c, d int) int {
	return (d*s.Rows+r)*s.Columns + c
}

// poolWalk calls fn once per output element with its window origin.
func poolWalk(out tensor.Shape, cfg PoolConfig, fn func(or, oc, d, ir, ic int)) {
	for d := 0; d < out.Depth; d++ {
		for or := 0; or < out.Rows; or++ {
			for oc := 0; oc < out.Columns; oc++ {
				fn(or, oc, d, or*cfg.Stride, oc*cfg.Stride)
			}
		}
	}
}

// MaxPool takes the maximum of every window and records, per output element,
// the flat index of the input element it came from.
//
// Example (2x2 pool, stride=2):
//
//	Input:  [[1, 5],  Output: [5]  Input Grad: [[0, g],
//	         [3, 2]]                            [0, 0]]
func MaxPool(x *tensor.Tensor, cfg PoolConfig) (*tensor.Tensor, []int, error) {
	shape, err := PoolShape(x.Shape(), cfg)
	if err != nil {
		return nil, nil, err
	}
	out := tensor.Zeros(shape)
	positions := make([]int, shape.NumElements())
	poolWalk(shape, cfg, func(or, oc, d, ir, ic int) {
		// The first NaN of a window wins so it propagates.
		best, bestR, bestC := x.At(ir, ic, d), ir, ic
		for fr := 0; fr < cfg.Rows; fr++ {
			for fc := 0; fc < cfg.Columns; fc++ {
				r, c := ir+fr*cfg.Dilation, ic+fc*cfg.Dilation
				if v := x.At(r, c, d); v > best || (math.IsNaN(v) && !math.IsNaN(best)) {
					best, bestR, bestC = v, r, c
				}
			}
		}
		out.Set(or, oc, d, best)
		positions[flatIndex(shape, or, oc, d)] = flatIndex(x.Shape(), bestR, bestC, d)
	})
	return out, positions, nil
}

// windowCandidates lists the window positions not masked in x. When every
// position is masked all of them are returned.
func windowCandidates(x *tensor.Tensor, cfg PoolConfig, ir, ic, d int) [][2]int {
	all := make([][2]int, 0, cfg.Size())
	free := make([][2]int, 0, cfg.Size())
	for fr := 0; fr < cfg.Rows; fr++ {
		for fc := 0; fc < cfg.Columns; fc++ {
			r, c := ir+fr*cfg.Dilation, ic+fc*cfg.Dilation
			all = append(all, [2]int{r, c})
			if !x.HasMask() || !x.Mask().IsMasked(r, c, d) {
				free = append(free, [2]int{r, c})
			}
		}
	}
	if len(free) == 0 {
		return all
	}
	return free
}

// RandomPool picks a pseudo-random unmasked element of every window and
// records its position.
func RandomPool(x *tensor.Tensor, cfg PoolConfig, rng *rand.Rand) (*tensor.Tensor, []int, error) {
	shape, err := PoolShape(x.Shape(), cfg)
	if err != nil {
		return nil, nil, err
	}
	out := tensor.Zeros(shape)
	positions := make([]int, shape.NumElements())
	poolWalk(shape, cfg, func(or, oc, d, ir, ic int) {
		candidates := windowCandidates(x, cfg, ir, ic, d)
		pick := candidates[rng.Intn(len(candidates))]
		out.Set(or, oc, d, x.At(pick[0], pick[1], d))
		positions[flatIndex(shape, or, oc, d)] = flatIndex(x.Shape(), pick[0], pick[1], d)
	})
	return out, positions, nil
}

// CyclicPool picks window elements in a fixed cyclic order: the cursor walks
// the window rows first, then columns, advancing once per output element and
// skipping masked positions. The cursor persists across calls so successive
// samples sample different window positions.
func CyclicPool(x *tensor.Tensor, cfg PoolConfig, cursor *int) (*tensor.Tensor, []int, error) {
	shape, err := PoolShape(x.Shape(), cfg)
	if err != nil {
		return nil, nil, err
	}
	size := cfg.Size()
	out := tensor.Zeros(shape)
	positions := make([]int, shape.NumElements())
	poolWalk(shape, cfg, func(or, oc, d, ir, ic int) {
		var r, c int
		for attempt := 0; attempt < size; attempt++ {
			k := (*cursor + attempt) % size
			r, c = ir+(k%cfg.Rows)*cfg.Dilation, ic+(k/cfg.Rows)*cfg.Dilation
			if !x.HasMask() || !x.Mask().IsMasked(r, c, d) {
				*cursor = k
				break
			}
		}
		out.Set(or, oc, d, x.At(r, c, d))
		positions[flatIndex(shape, or, oc, d)] = flatIndex(x.Shape(), r, c, d)
		*cursor = (*cursor + 1) % size
	})
	return out, positions, nil
}

// PositionalPoolBackward scatters every output gradient to the input position
// recorded by MaxPool, RandomPool or CyclicPool. Other positions get zero.
func PositionalPoolBackward(grad *tensor.Tensor, in tensor.Shape, positions []int) (*tensor.Tensor, error) {
	if len(positions) != grad.Size() {
		return nil, shapeMismatch("%d pool positions for gradient %s", len(positions), grad.Shape())
	}
	gx := tensor.Zeros(in)
	data := gx.Data()
	for i, g := range grad.Data() {
		data[positions[i]] += g
	}
	return gx, nil
}

// AveragePool takes the mean of every window.
func AveragePool(x *tensor.Tensor, cfg PoolConfig) (*tensor.Tensor, error) {
	shape, err := PoolShape(x.Shape(), cfg)
	if err != nil {
		return nil, err
	}
	out := tensor.Zeros(shape)
	n := float64(cfg.Size())
	poolWalk(shape, cfg, func(or, oc, d, ir, ic int) {
		var sum float64
		for fr := 0; fr < cfg.Rows; fr++ {
			for fc := 0; fc < cfg.Columns; fc++ {
				sum += x.At(ir+fr*cfg.Dilation, ic+fc*cfg.Dilation, d)
			}
		}
		out.Set(or, oc, d, sum/n)
	})
	return out, nil
}

// AveragePoolBackward spreads every output gradient evenly over its window:
// each input position receives grad/window-size.
func AveragePoolBackward(grad *tensor.Tensor, in tensor.Shape, cfg PoolConfig) (*tensor.Tensor, error) {
	shape, err := PoolShape(in, cfg)
	if err != nil {
		return nil, err
	}
	if !grad.Shape().Equal(shape) {
		return nil, shapeMismatch("pool gradient %s for result %s", grad.Shape(), shape)
	}
	gx := tensor.Zeros(in)
	n := float64(cfg.Size())
	poolWalk(shape, cfg, func(or, oc, d, ir, ic int) {
		g := grad.At(or, oc, d) / n
		for fr := 0; fr < cfg.Rows; fr++ {
			for fc := 0; fc < cfg.Columns; fc++ {
				gx.Add2D(ir+fr*cfg.Dilation, ic+fc*cfg.Dilation, d, g)
			}
		}
	})
	return gx, nil
}
