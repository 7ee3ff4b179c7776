// Package autodiff implements a tensor expression graph with reverse-mode
// automatic differentiation.
//
// A Builder assembles a Procedure: a chain of expressions, each binding one
// or two argument nodes and a result node to an operation kernel from
// package ops. The procedure is built once and replayed for every batch.
//
// Architecture:
//   - Node: per-sample values and accumulated gradients, or one shared value
//     and gradient for parameters and batch-level results
//   - Expression: Kind + Params record dispatching to the ops kernels, with
//     arena-indexed next/previous links and a side table of forward caches
//   - Procedure: forward over sample indices in increasing order, backward in
//     reverse chain order, optional truncation, per-sample execution when
//     nodes are linked across indices
//
// Usage:
//
//	b := autodiff.NewBuilder()
//	x := b.Input("x", tensor.NewShape(2, 1, 1))
//	w := b.Parameter("w", tensor.FromRows([][]float64{{0.5, -1}}))
//	y := b.Dot(w, x)
//	proc, err := b.Build(y)
//
//	proc.SetInput(x, 0, tensor.Column(1, 2))
//	proc.Forward([]int{0})
//	proc.SetOutputGradient(y, 0, tensor.Scalar(1))
//	proc.Backward([]int{0}, 0)
//	grad, _ := w.GradientMean() // [[1 2]]
package autodiff
