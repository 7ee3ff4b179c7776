// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/chain/autodiff"
	"github.com/born-ml/chain/nn"
	"github.com/born-ml/chain/tensor"
)

func TestPublicAPI(t *testing.T) {
	rng := rand.New(rand.NewSource(3)) //nolint:gosec // G404: reproducible test data.
	model := nn.NewSequential(nn.NewLinear("hidden", 3, 4, rng), nn.NewTanh(), nn.NewLinear("out", 4, 1, rng))

	b := autodiff.NewBuilder()
	x := b.Input("x", tensor.NewShape(3, 1, 1))
	y := b.Input("y", tensor.NewShape(1, 1, 1))
	loss := nn.MeanMSELoss(b, model.Apply(b, x), y)
	_, err := b.Build(loss)
	require.NoError(t, err)
	assert.Len(t, model.Parameters(), 4)
}
