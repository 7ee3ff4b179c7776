package optim

import (
	"github.com/born-ml/chain/internal/autodiff"
	"github.com/born-ml/chain/internal/tensor"
)

// SGD implements Stochastic Gradient Descent with optional momentum.
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
type SGD struct {
	params     []*autodiff.Node
	lr         float64
	momentum   float64
	velocities map[*tensor.Tensor][]float64
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer over params.
func NewSGD(params []*autodiff.Node, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*tensor.Tensor][]float64),
	}
}

// Step performs a single optimization step. Parameters with no gradient are
// skipped; nodes sharing a tensor step it once.
func (s *SGD) Step() error {
	grads, err := gradients(s.params)
	if err != nil {
		return err
	}
	for _, pg := range grads {
		data, g := pg.value.Data(), pg.grad.Data()
		if s.momentum == 0 {
			for i := range data {
				data[i] -= s.lr * g[i]
			}
			continue
		}
		velocity, exists := s.velocities[pg.value]
		if !exists {
			velocity = make([]float64, len(data))
			s.velocities[pg.value] = velocity
		}
		for i := range data {
			velocity[i] = s.momentum*velocity[i] + g[i]
			data[i] -= s.lr * velocity[i]
		}
	}
	return nil
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD) ZeroGrad() {
	zeroGrad(s.params)
}

// LR returns the current learning rate.
func (s *SGD) LR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}
