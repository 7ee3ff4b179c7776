// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers that append their operations to
// an autodiff builder.
//
// # Basic Usage
//
//	rng := rand.New(rand.NewSource(1))
//	model := nn.NewSequential(
//	    nn.NewConv2D("conv", 3, rng),
//	    nn.NewReLU(),
//	    nn.NewMaxPool2D(2, 2),
//	    nn.NewFlatten(),
//	    nn.NewLinear("out", 4, 1, rng),
//	)
//
//	b := autodiff.NewBuilder()
//	x := b.Input("image", tensor.NewShape(6, 6, 1))
//	y := b.Input("target", tensor.NewShape(1, 1, 1))
//	loss := nn.MeanMSELoss(b, model.Apply(b, x), y)
//	proc, err := b.Build(loss)
//
// model.Parameters() then lists the parameter nodes to hand to an optimizer.
package nn

import (
	"github.com/born-ml/chain/internal/nn"
)

// Module is the interface implemented by every layer.
type Module = nn.Module

// Layer types.
type (
	Linear     = nn.Linear
	Conv2D     = nn.Conv2D
	MaxPool2D  = nn.MaxPool2D
	AvgPool2D  = nn.AvgPool2D
	Flatten    = nn.Flatten
	Activation = nn.Activation
	Sequential = nn.Sequential
)

// Constructors.
var (
	NewLinear       = nn.NewLinear
	NewConv2D       = nn.NewConv2D
	NewConv2DStride = nn.NewConv2DStride
	NewMaxPool2D    = nn.NewMaxPool2D
	NewAvgPool2D    = nn.NewAvgPool2D
	NewFlatten      = nn.NewFlatten
	NewActivation   = nn.NewActivation
	NewReLU         = nn.NewReLU
	NewSigmoid      = nn.NewSigmoid
	NewTanh         = nn.NewTanh
	NewSequential   = nn.NewSequential
)

// Losses and initialization.
var (
	MSELoss     = nn.MSELoss
	MeanMSELoss = nn.MeanMSELoss
	Xavier      = nn.Xavier
)
