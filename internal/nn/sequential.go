package nn

import (
	"fmt"
	"strings"

	"github.com/born-ml/chain/internal/autodiff"
)

// Sequential chains modules: each module's output is the next one's input.
type Sequential struct {
	modules []Module
}

// NewSequential creates a Sequential container.
func NewSequential(modules ...Module) *Sequential {
	return &Sequential{modules: modules}
}

// Apply implements Module.
func (s *Sequential) Apply(b *autodiff.Builder, x *autodiff.Node) *autodiff.Node {
	out := x
	for _, m := range s.modules {
		out = m.Apply(b, out)
	}
	return out
}

// Parameters implements Module.
func (s *Sequential) Parameters() []*autodiff.Node {
	var params []*autodiff.Node
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// Len returns the number of modules.
func (s *Sequential) Len() int {
	return len(s.modules)
}

func (s *Sequential) String() string {
	parts := make([]string, len(s.modules))
	for i, m := range s.modules {
		parts[i] = fmt.Sprint(m)
	}
	return "Sequential(" + strings.Join(parts, ", ") + ")"
}
