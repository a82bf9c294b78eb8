package trainer

import (
	"errors"
	"fmt"

	"nnviz/internal/dataset"
	"nnviz/internal/network"
)

// ErrInvalidConfig reports unusable training hyperparameters.
var ErrInvalidConfig = errors.New("trainer: invalid config")

// Config holds the finite-difference hyperparameters.
type Config struct {
	Eps          float64 // gradient-probe step size
	LearningRate float64 // update scale
}

// Validate rejects a zero probe step or a negative learning rate.
func (c Config) Validate() error {
	if c.Eps == 0 {
		return fmt.Errorf("%w: eps must be non-zero", ErrInvalidConfig)
	}
	if c.LearningRate < 0 {
		return fmt.Errorf("%w: learning rate must be >= 0 (got %g)", ErrInvalidConfig, c.LearningRate)
	}
	return nil
}

// EstimateGradient approximates the cost gradient by perturbing each flat
// parameter by eps and measuring the cost delta. The network is restored to
// its exact original parameters before returning. Also returns the
// unperturbed base cost.
func EstimateGradient(net *network.Network, ds dataset.Set, eps float64) ([]float64, float64, error) {
	base, err := net.Cost(ds)
	if err != nil {
		return nil, 0, err
	}
	count := net.ParamCount()
	grad := make([]float64, count)
	for i := 0; i < count; i++ {
		original, err := net.Param(i)
		if err != nil {
			return nil, 0, err
		}
		if err := net.SetParam(i, original+eps); err != nil {
			return nil, 0, err
		}
		perturbed, err := net.Cost(ds)
		if err != nil {
			return nil, 0, err
		}
		grad[i] = (perturbed - base) / eps
		if err := net.SetParam(i, original); err != nil {
			return nil, 0, err
		}
	}
	return grad, base, nil
}

// Step runs one finite-difference epoch: estimate the gradient over the
// whole dataset, then apply one gradient-descent update to every parameter.
// Returns the cost measured before the update.
func Step(net *network.Network, ds dataset.Set, cfg Config) (float64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	grad, base, err := EstimateGradient(net, ds, cfg.Eps)
	if err != nil {
		return 0, err
	}
	for i, g := range grad {
		p, err := net.Param(i)
		if err != nil {
			return 0, err
		}
		if err := net.SetParam(i, p-cfg.LearningRate*g); err != nil {
			return 0, err
		}
	}
	return base, nil
}
