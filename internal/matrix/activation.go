package matrix

import (
	"fmt"
	"math"
)

// Activation selects the elementwise transform used by Apply.
type Activation int

const (
	ActivationSigmoid Activation = 0 // 1 / (1 + exp(-v))
	ActivationTanh    Activation = 1 // tanh(v)
	ActivationReLU    Activation = 2 // max(0, v)
)

func (a Activation) apply(v float64) float64 {
	switch a {
	case ActivationSigmoid:
		return 1.0 / (1.0 + math.Exp(-v))
	case ActivationTanh:
		return math.Tanh(v)
	case ActivationReLU:
		if v < 0 {
			return 0
		}
		return v
	default:
		return v
	}
}

func (a Activation) String() string {
	switch a {
	case ActivationSigmoid:
		return "sigmoid"
	case ActivationTanh:
		return "tanh"
	case ActivationReLU:
		return "relu"
	default:
		return "unknown"
	}
}

// ParseActivation maps a name back to its Activation, for checkpoint files.
func ParseActivation(name string) (Activation, error) {
	switch name {
	case "sigmoid":
		return ActivationSigmoid, nil
	case "tanh":
		return ActivationTanh, nil
	case "relu":
		return ActivationReLU, nil
	default:
		return 0, fmt.Errorf("matrix: unknown activation %q", name)
	}
}
