// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim updates procedure parameters from their mean gradients.
//
// # Training Loop Pattern
//
//	opt := optim.NewSGD([]*autodiff.Node{w, bias}, optim.SGDConfig{LR: 0.05})
//	for epoch := range numEpochs {
//	    proc.Reset()
//	    // SetInput for every sample, Forward, SetOutputGradient, Backward.
//	    if err := opt.Step(); err != nil {
//	        return err
//	    }
//	}
//
// Reset clears parameter gradients, so ZeroGrad is only needed when the same
// gradients must not be applied twice without a Reset in between.
package optim

import (
	"github.com/born-ml/chain/internal/autodiff"
	"github.com/born-ml/chain/internal/optim"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// SGD represents the SGD optimizer with optional momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
func NewSGD(params []*autodiff.Node, config SGDConfig) *SGD {
	return optim.NewSGD(params, config)
}

// Adam represents the Adam optimizer.
type Adam = optim.Adam

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer with bias correction.
func NewAdam(params []*autodiff.Node, config AdamConfig) *Adam {
	return optim.NewAdam(params, config)
}
