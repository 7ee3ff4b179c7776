// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides expression graphs with reverse-mode automatic
// differentiation.
//
// A Builder assembles a procedure once: a chain of expressions over input,
// parameter and result nodes. The procedure is then replayed for every batch
// of sample indices, forward to compute results and backward to cumulate
// gradients into the argument nodes.
//
// Example:
//
//	import (
//	    "github.com/born-ml/chain/autodiff"
//	    "github.com/born-ml/chain/tensor"
//	)
//
//	func main() {
//	    b := autodiff.NewBuilder()
//	    x := b.Input("x", tensor.NewShape(2, 1, 1))
//	    w := b.Parameter("w", tensor.FromRows([][]float64{{0.5, -1}}))
//	    y := b.UnaryFunction(b.Dot(w, x), autodiff.NewUnary(autodiff.TANH))
//	    proc, err := b.Build(y)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    proc.SetInput(x, 0, tensor.Column(1, 2))
//	    proc.Forward([]int{0})
//	    proc.SetOutputGradient(y, 0, tensor.FromRows([][]float64{{1}}))
//	    proc.Backward([]int{0}, 0)
//	    grad, _ := w.GradientMean()
//	}
package autodiff

import (
	"github.com/born-ml/chain/internal/autodiff"
	"github.com/born-ml/chain/internal/autodiff/ops"
	"github.com/born-ml/chain/internal/parallel"
)

// Builder assembles procedures.
type Builder = autodiff.Builder

// Node holds per-sample values and gradients.
type Node = autodiff.Node

// Expression binds argument nodes and a result node to an operation.
type Expression = autodiff.Expression

// Procedure is a built chain of expressions.
type Procedure = autodiff.Procedure

// Stats summarizes a procedure.
type Stats = autodiff.Stats

// ConvOptions holds the optional parameters of convolutions and pools.
type ConvOptions = autodiff.ConvOptions

// Regularizer penalizes a parameter; L1 and L2 implement it.
type (
	Regularizer = autodiff.Regularizer
	L1          = autodiff.L1
	L2          = autodiff.L2
)

// Kind is an operation kind, Params its fixed parameters.
type (
	Kind   = ops.Kind
	Params = ops.Params
)

// UnaryType and BinaryType select a row of the function tables.
type (
	UnaryType  = ops.UnaryType
	BinaryType = ops.BinaryType
)

// UnaryFunction is an elementwise function with its derivative.
type UnaryFunction = ops.UnaryFunction

// BinaryFunction is an elementwise function of a value and a target.
type BinaryFunction = ops.BinaryFunction

// Common unary and binary function types. The full tables live in
// internal/autodiff/ops.
const (
	TANH    = ops.TANH
	SIGMOID = ops.SIGMOID
	RELU    = ops.RELU
	SOFTMAX = ops.SOFTMAX
	LINEAR  = ops.LINEAR

	MSE   = ops.MSE
	MAE   = ops.MAE
	HUBER = ops.HUBER
)

// Errors returned by builders and procedures. Match them with errors.Is.
var (
	ErrArgumentMissing   = autodiff.ErrArgumentMissing
	ErrArgumentUndefined = autodiff.ErrArgumentUndefined
	ErrGradientUndefined = autodiff.ErrGradientUndefined
	ErrCacheMissing      = autodiff.ErrCacheMissing
	ErrInvalidParameter  = autodiff.ErrInvalidParameter
	ErrShapeMismatch     = autodiff.ErrShapeMismatch
)

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return autodiff.NewBuilder()
}

// NewUnary returns the unary function of type t with default parameters.
func NewUnary(t UnaryType) UnaryFunction {
	return ops.NewUnary(t)
}

// NewBinary returns the binary function of type t with default parameters.
func NewBinary(t BinaryType) BinaryFunction {
	return ops.NewBinary(t)
}

// ParallelConfig bounds the workers of ForwardAll and BackwardAll.
type ParallelConfig = parallel.Config

// DefaultParallelConfig uses one worker per CPU.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}

// ForwardAll runs Forward on distinct procedures concurrently.
func ForwardAll(procs []*Procedure, indices []int, cfg ParallelConfig) error {
	return autodiff.ForwardAll(procs, indices, cfg)
}

// BackwardAll runs Backward on distinct procedures concurrently.
func BackwardAll(procs []*Procedure, indices []int, steps int, cfg ParallelConfig) error {
	return autodiff.BackwardAll(procs, indices, steps, cfg)
}
