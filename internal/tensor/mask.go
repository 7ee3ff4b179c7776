package tensor

// Mask marks tensor positions as structurally zero. Masked positions are
// skipped by MaskedDot.
type Mask struct {
	shape  Shape
	masked []bool
}

// NewMask returns an empty mask for shape.
func NewMask(shape Shape) *Mask {
	return &Mask{shape: shape, masked: make([]bool, shape.NumElements())}
}

// Set marks or unmarks (row, column, depth).
func (m *Mask) Set(row, column, depth int, masked bool) {
	m.masked[m.shape.index(row, column, depth)] = masked
}

// IsMasked reports whether (row, column, depth) is masked.
func (m *Mask) IsMasked(row, column, depth int) bool {
	return m.masked[m.shape.index(row, column, depth)]
}

// Count returns the number of masked positions.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.masked {
		if v {
			n++
		}
	}
	return n
}

// Clone returns a copy of the mask.
func (m *Mask) Clone() *Mask {
	clone := &Mask{shape: m.shape, masked: make([]bool, len(m.masked))}
	copy(clone.masked, m.masked)
	return clone
}

// SetMask attaches mask to t. A nil mask removes it.
func (t *Tensor) SetMask(mask *Mask) {
	t.mask = mask
}

// Mask returns the attached mask, nil if none.
func (t *Tensor) Mask() *Mask {
	return t.mask
}

// HasMask reports whether a mask is attached.
func (t *Tensor) HasMask() bool {
	return t.mask != nil
}

// MaskZeros returns a copy of t with every exactly-zero entry masked.
func (t *Tensor) MaskZeros() *Tensor {
	out := t.Clone()
	mask := NewMask(t.shape)
	t.Each(func(r, c, d int, v float64) {
		if v == 0 {
			mask.Set(r, c, d, true)
		}
	})
	out.mask = mask
	return out
}
