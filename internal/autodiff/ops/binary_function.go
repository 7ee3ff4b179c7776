package ops

import (
	"math"

	"github.com/born-ml/chain/internal/tensor"
)

// BinaryType selects a table-driven function f(value, target).
type BinaryType int

// Binary functions. The second argument is a target treated as a constant,
// so gradients only flow to the first.
const (
	MSE BinaryType = iota
	MSLE
	MAE
	MAPE
	CROSS_ENTROPY
	KULLBACK_LEIBLER
	NEGATIVE_LOG_LIKELIHOOD
	POISSON
	HINGE
	SQUARED_HINGE
	HUBER
	DIRECT_GRADIENT
	POLICY_GRADIENT
	POW
	MAX
	MIN
)

var binaryNames = [...]string{
	MSE: "MEAN_SQUARED_ERROR", MSLE: "MEAN_SQUARED_LOGARITHMIC_ERROR", MAE: "MEAN_ABSOLUTE_ERROR",
	MAPE: "MEAN_ABSOLUTE_PERCENTAGE_ERROR", CROSS_ENTROPY: "CROSS_ENTROPY",
	KULLBACK_LEIBLER: "KULLBACK_LEIBLER", NEGATIVE_LOG_LIKELIHOOD: "NEGATIVE_LOG_LIKELIHOOD",
	POISSON: "POISSON", HINGE: "HINGE", SQUARED_HINGE: "SQUARED_HINGE", HUBER: "HUBER",
	DIRECT_GRADIENT: "DIRECT_GRADIENT", POLICY_GRADIENT: "POLICY_GRADIENT",
	POW: "POW", MAX: "MAX", MIN: "MIN",
}

// String implements fmt.Stringer.
func (b BinaryType) String() string {
	if b < 0 || int(b) >= len(binaryNames) {
		return "UNKNOWN"
	}
	return binaryNames[b]
}

// Default parameters of the margin losses.
const (
	DefaultHingeMargin = 1.0
	DefaultHuberDelta  = 1.0
)

// BinaryFunction is a binary function with its parameters.
type BinaryFunction struct {
	Type   BinaryType
	Margin float64 // HINGE
	Delta  float64 // HUBER
}

// NewBinary returns the function of type t with default parameters.
func NewBinary(t BinaryType) BinaryFunction {
	return BinaryFunction{Type: t}.withDefaults()
}

func (f BinaryFunction) withDefaults() BinaryFunction {
	if f.Margin == 0 {
		f.Margin = DefaultHingeMargin
	}
	if f.Delta == 0 {
		f.Delta = DefaultHuberDelta
	}
	return f
}

// Validate reports an unknown function type or a negative Huber delta.
func (f BinaryFunction) Validate() error {
	if f.Type < 0 || f.Type > MIN {
		return invalidParameter("unknown binary function %d", int(f.Type))
	}
	if f.Type == HUBER && f.Delta < 0 {
		return invalidParameter("huber delta %g < 0", f.Delta)
	}
	return nil
}

// Forward computes f(value, target) elementwise.
func (f BinaryFunction) Forward(value, target *tensor.Tensor) (*tensor.Tensor, error) {
	return value.ApplyBi(target, f.value)
}

// Backward returns grad ⊙ ∂f/∂value(value, target).
//
// DIRECT_GRADIENT and POLICY_GRADIENT are pseudo-losses: their forward value
// is zero and their "derivative" injects target-derived gradients.
func (f BinaryFunction) Backward(grad, value, target *tensor.Tensor) (*tensor.Tensor, error) {
	d, err := value.ApplyBi(target, f.derivative)
	if err != nil {
		return nil, err
	}
	g, err := grad.Mul(d)
	if err != nil {
		return nil, err
	}
	return reduceBroadcast(g, value), nil
}

func (f BinaryFunction) value(v, c float64) float64 {
	switch f.Type {
	case MSE:
		return 0.5 * (v - c) * (v - c)
	case MSLE:
		d := math.Log1p(c) - math.Log1p(v)
		return d * d
	case MAE:
		return math.Abs(v - c)
	case MAPE:
		return 100 * math.Abs((v-c)/c)
	case CROSS_ENTROPY:
		return -c * math.Log(v)
	case KULLBACK_LEIBLER:
		return c*math.Log(c) - c*math.Log(v)
	case NEGATIVE_LOG_LIKELIHOOD:
		return -math.Log(v)
	case POISSON:
		return v - c*math.Log(v)
	case HINGE:
		return math.Max(0, f.Margin-c*v)
	case SQUARED_HINGE:
		h := math.Max(0, 1-c*v)
		return h * h
	case HUBER:
		d := math.Abs(v - c)
		if d <= f.Delta {
			return 0.5 * d * d
		}
		return f.Delta*d - 0.5*f.Delta*f.Delta
	case POW:
		return math.Pow(v, c)
	case MAX:
		return math.Max(v, c)
	case MIN:
		return math.Min(v, c)
	default: // DIRECT_GRADIENT, POLICY_GRADIENT
		return 0
	}
}

func (f BinaryFunction) derivative(v, c float64) float64 {
	switch f.Type {
	case MSE:
		return v - c
	case MSLE:
		return -2 * (math.Log1p(c) - math.Log1p(v)) / (v + 1)
	case MAE:
		return sign(v - c)
	case MAPE:
		return 100 * sign(v-c) / math.Abs(c)
	case CROSS_ENTROPY, KULLBACK_LEIBLER:
		return -c / v
	case NEGATIVE_LOG_LIKELIHOOD:
		return -1 / v
	case POISSON:
		return 1 - c/v
	case HINGE:
		if f.Margin-c*v <= 0 {
			return 0
		}
		return -c
	case SQUARED_HINGE:
		h := 1 - c*v
		if h <= 0 {
			return 0
		}
		return -2 * c * h
	case HUBER:
		if math.Abs(v-c) <= f.Delta {
			return v - c
		}
		return f.Delta * sign(v-c)
	case DIRECT_GRADIENT:
		return c
	case POLICY_GRADIENT:
		return -math.Log(v) * c
	case POW:
		return c * math.Pow(v, c-1)
	case MAX:
		if v >= c {
			return 1
		}
		return 0
	case MIN:
		if v <= c {
			return 1
		}
		return 0
	default:
		return 0
	}
}
