package autodiff

import (
	"github.com/pkg/errors"

	"github.com/born-ml/chain/internal/autodiff/ops"
)

// Errors returned by expressions and procedures. Callers match them with
// errors.Is; the wrapped message names the expression, node and sample index.
var (
	// ErrArgumentMissing is returned when an expression is built without a
	// required argument node.
	ErrArgumentMissing = errors.New("argument not defined")

	// ErrArgumentUndefined is returned when an argument node holds no value
	// for the sample index being calculated.
	ErrArgumentUndefined = errors.New("argument value undefined for sample index")

	// ErrGradientUndefined is returned when a result node holds no gradient
	// for the sample index being propagated.
	ErrGradientUndefined = errors.New("result gradient undefined for sample index")

	// ErrCacheMissing is returned when a backward step needs state its
	// forward step should have cached (pool positions, reduction moments).
	ErrCacheMissing = errors.New("forward cache missing")

	ErrInvalidParameter = ops.ErrInvalidParameter
	ErrShapeMismatch    = ops.ErrShapeMismatch
)
