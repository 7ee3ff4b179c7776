package nn

import (
	"fmt"

	"github.com/born-ml/chain/internal/autodiff"
)

// MaxPool2D keeps the maximum of every rows x columns window.
type MaxPool2D struct {
	size   int
	stride int
}

// NewMaxPool2D creates a square max pool.
func NewMaxPool2D(size, stride int) *MaxPool2D {
	return &MaxPool2D{size: size, stride: stride}
}

// Apply implements Module.
func (m *MaxPool2D) Apply(b *autodiff.Builder, x *autodiff.Node) *autodiff.Node {
	return b.MaxPool(x, m.size, m.size, autodiff.ConvOptions{Stride: m.stride})
}

// Parameters implements Module.
func (m *MaxPool2D) Parameters() []*autodiff.Node { return nil }

func (m *MaxPool2D) String() string {
	return fmt.Sprintf("MaxPool2D(size=%d, stride=%d)", m.size, m.stride)
}

// AvgPool2D averages every window.
type AvgPool2D struct {
	size   int
	stride int
}

// NewAvgPool2D creates a square average pool.
func NewAvgPool2D(size, stride int) *AvgPool2D {
	return &AvgPool2D{size: size, stride: stride}
}

// Apply implements Module.
func (a *AvgPool2D) Apply(b *autodiff.Builder, x *autodiff.Node) *autodiff.Node {
	return b.AveragePool(x, a.size, a.size, autodiff.ConvOptions{Stride: a.stride})
}

// Parameters implements Module.
func (a *AvgPool2D) Parameters() []*autodiff.Node { return nil }

func (a *AvgPool2D) String() string {
	return fmt.Sprintf("AvgPool2D(size=%d, stride=%d)", a.size, a.stride)
}

// Flatten reshapes its input into a column.
type Flatten struct{}

// NewFlatten creates a Flatten layer.
func NewFlatten() *Flatten {
	return &Flatten{}
}

// Apply implements Module.
func (*Flatten) Apply(b *autodiff.Builder, x *autodiff.Node) *autodiff.Node {
	return b.Flatten(x)
}

// Parameters implements Module.
func (*Flatten) Parameters() []*autodiff.Node { return nil }

func (*Flatten) String() string { return "Flatten()" }
