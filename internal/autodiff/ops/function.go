package ops

import (
	"math"

	"github.com/born-ml/chain/internal/tensor"
)

// UnaryType selects a table-driven elementwise function.
type UnaryType int

// Unary functions. SOFTMAX normalizes each column instead of acting elementwise.
const (
	ABS UnaryType = iota
	COS
	COSH
	EXP
	LOG
	LOG10
	SGN
	SIN
	SINH
	SQRT
	CBRT
	MULINV
	TAN
	TANH
	LINEAR
	SIGMOID
	SWISH
	HARDSIGMOID
	BIPOLARSIGMOID
	HARDTANH
	SOFTPLUS
	SOFTSIGN
	RELU
	LEAKYRELU
	ELU
	SELU
	GELU
	GAUSSIAN
	LOGIT
	SOFTMAX
)

var unaryNames = [...]string{
	ABS: "ABS", COS: "COS", COSH: "COSH", EXP: "EXP", LOG: "LOG", LOG10: "LOG10",
	SGN: "SGN", SIN: "SIN", SINH: "SINH", SQRT: "SQRT", CBRT: "CBRT", MULINV: "MULINV",
	TAN: "TAN", TANH: "TANH", LINEAR: "LINEAR", SIGMOID: "SIGMOID", SWISH: "SWISH",
	HARDSIGMOID: "HARDSIGMOID", BIPOLARSIGMOID: "BIPOLARSIGMOID", HARDTANH: "HARDTANH",
	SOFTPLUS: "SOFTPLUS", SOFTSIGN: "SOFTSIGN", RELU: "RELU", LEAKYRELU: "LEAKYRELU",
	ELU: "ELU", SELU: "SELU", GELU: "GELU", GAUSSIAN: "GAUSSIAN", LOGIT: "LOGIT",
	SOFTMAX: "SOFTMAX",
}

// String implements fmt.Stringer.
func (u UnaryType) String() string {
	if u < 0 || int(u) >= len(unaryNames) {
		return "UNKNOWN"
	}
	return unaryNames[u]
}

// Default parameters of the rectifier family.
const (
	DefaultLeakyReLUAlpha = 0.01
	DefaultELUAlpha       = 1.0
	DefaultSELUAlpha      = 1.6732
	DefaultSELULambda     = 1.0507
)

// UnaryFunction is a unary function with its parameters.
//
// Alpha is the negative-side slope (RELU, LEAKYRELU) or scale (ELU, SELU),
// Threshold the input below which the negative side applies. Lambda scales
// SELU.
type UnaryFunction struct {
	Type      UnaryType
	Alpha     float64
	Threshold float64
	Lambda    float64
}

// NewUnary returns the function of type t with default parameters.
func NewUnary(t UnaryType) UnaryFunction {
	return UnaryFunction{Type: t}.withDefaults()
}

func (f UnaryFunction) withDefaults() UnaryFunction {
	switch f.Type {
	case LEAKYRELU:
		if f.Alpha == 0 {
			f.Alpha = DefaultLeakyReLUAlpha
		}
	case ELU:
		if f.Alpha == 0 {
			f.Alpha = DefaultELUAlpha
		}
	case SELU:
		if f.Alpha == 0 {
			f.Alpha = DefaultSELUAlpha
		}
		if f.Lambda == 0 {
			f.Lambda = DefaultSELULambda
		}
	}
	return f
}

// Validate reports an unknown function type.
func (f UnaryFunction) Validate() error {
	if f.Type < 0 || f.Type > SOFTMAX {
		return invalidParameter("unknown unary function %d", int(f.Type))
	}
	return nil
}

// Forward applies the function to x.
func (f UnaryFunction) Forward(x *tensor.Tensor) *tensor.Tensor {
	if f.Type == SOFTMAX {
		return softmax(x)
	}
	return x.Apply(f.value)
}

// Backward returns grad ⊙ f'(x). SOFTMAX applies its Jacobian instead.
func (f UnaryFunction) Backward(grad, x *tensor.Tensor) (*tensor.Tensor, error) {
	if f.Type == SOFTMAX {
		return softmaxBackward(grad, x), nil
	}
	return grad.Mul(x.Apply(f.derivative))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

var geluK = math.Sqrt(2 / math.Pi)

func (f UnaryFunction) value(x float64) float64 {
	switch f.Type {
	case ABS:
		return math.Abs(x)
	case COS:
		return math.Cos(x)
	case COSH:
		return math.Cosh(x)
	case EXP:
		return math.Exp(x)
	case LOG:
		return math.Log(x)
	case LOG10:
		return math.Log10(x)
	case SGN:
		return sign(x)
	case SIN:
		return math.Sin(x)
	case SINH:
		return math.Sinh(x)
	case SQRT:
		return math.Sqrt(x)
	case CBRT:
		return math.Cbrt(x)
	case MULINV:
		return 1 / x
	case TAN:
		return math.Tan(x)
	case TANH:
		return math.Tanh(x)
	case SIGMOID:
		return sigmoid(x)
	case SWISH:
		return x * sigmoid(x)
	case HARDSIGMOID:
		return math.Min(1, math.Max(0, 0.125*x+0.5))
	case BIPOLARSIGMOID:
		return 2*sigmoid(x) - 1
	case HARDTANH:
		return math.Min(1, math.Max(-1, 0.5*x))
	case SOFTPLUS:
		return math.Log1p(math.Exp(x))
	case SOFTSIGN:
		return x / (math.Abs(x) + 1)
	case RELU, LEAKYRELU:
		if x < f.Threshold {
			return f.Alpha * x
		}
		return x
	case ELU:
		if x < f.Threshold {
			return f.Alpha * (math.Exp(x) - 1)
		}
		return x
	case SELU:
		if x < f.Threshold {
			return f.Lambda * f.Alpha * (math.Exp(x) - 1)
		}
		return f.Lambda * x
	case GELU:
		return 0.5 * x * (1 + math.Tanh(geluK*(x+0.044715*x*x*x)))
	case GAUSSIAN:
		return math.Exp(-x * x / 2)
	case LOGIT:
		return math.Log(x / (1 - x))
	default: // LINEAR
		return x
	}
}

func (f UnaryFunction) derivative(x float64) float64 {
	switch f.Type {
	case ABS:
		return sign(x)
	case COS:
		return -math.Sin(x)
	case COSH:
		return math.Sinh(x)
	case EXP:
		return math.Exp(x)
	case LOG:
		return 1 / x
	case LOG10:
		return 1 / (math.Ln10 * x)
	case SGN:
		return 0
	case SIN:
		return math.Cos(x)
	case SINH:
		return math.Cosh(x)
	case SQRT:
		return 1 / (2 * math.Sqrt(x))
	case CBRT:
		return 1 / (3 * math.Cbrt(x*x))
	case MULINV:
		return -1 / (x * x)
	case TAN:
		t := math.Tan(x)
		return 1 + t*t
	case TANH:
		t := math.Tanh(x)
		return 1 - t*t
	case SIGMOID:
		s := sigmoid(x)
		return s * (1 - s)
	case SWISH:
		s := sigmoid(x)
		return s + x*s*(1-s)
	case HARDSIGMOID:
		if x < -4 || x > 4 {
			return 0
		}
		return 0.125
	case BIPOLARSIGMOID:
		s := sigmoid(x)
		return 2 * s * (1 - s)
	case HARDTANH:
		if x < -2 || x > 2 {
			return 0
		}
		return 0.5
	case SOFTPLUS:
		return sigmoid(x)
	case SOFTSIGN:
		d := math.Abs(x) + 1
		return 1 / (d * d)
	case RELU, LEAKYRELU:
		if x < f.Threshold {
			return f.Alpha
		}
		return 1
	case ELU:
		if x < f.Threshold {
			return f.Alpha * math.Exp(x)
		}
		return 1
	case SELU:
		if x < f.Threshold {
			return f.Lambda * f.Alpha * math.Exp(x)
		}
		return f.Lambda
	case GELU:
		t := math.Tanh(geluK * (x + 0.044715*x*x*x))
		return 0.5*(1+t) + 0.5*x*(1-t*t)*geluK*(1+3*0.044715*x*x)
	case GAUSSIAN:
		return -x * math.Exp(-x*x/2)
	case LOGIT:
		return 1 / (x * (1 - x))
	default: // LINEAR
		return 1
	}
}
