package nn

import (
	"github.com/born-ml/chain/internal/autodiff"
	"github.com/born-ml/chain/internal/autodiff/ops"
	"github.com/born-ml/chain/internal/tensor"
)

// MSELoss appends 0.5(prediction - target)^2 per sample.
func MSELoss(b *autodiff.Builder, prediction, target *autodiff.Node) *autodiff.Node {
	return b.BinaryFunction(prediction, target, ops.NewBinary(ops.MSE))
}

// MeanMSELoss appends the MSE averaged over the elements and then over the
// batch, yielding a single scalar.
func MeanMSELoss(b *autodiff.Builder, prediction, target *autodiff.Node) *autodiff.Node {
	return b.BatchMean(b.Mean(MSELoss(b, prediction, target), tensor.AxisAll))
}
