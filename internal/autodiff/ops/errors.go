package ops

import (
	"github.com/pkg/errors"

	"github.com/born-ml/chain/internal/tensor"
)

// Kernel errors.
var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrShapeMismatch    = tensor.ErrShapeMismatch
)

func invalidParameter(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidParameter, format, args...)
}

func shapeMismatch(format string, args ...any) error {
	return errors.Wrapf(ErrShapeMismatch, format, args...)
}
