package autodiff_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/chain/internal/autodiff"
	"github.com/born-ml/chain/internal/autodiff/ops"
	"github.com/born-ml/chain/internal/tensor"
)

func TestPrintChains(t *testing.T) {
	b := autodiff.NewBuilder()
	x := b.Input("x", tensor.NewShape(2, 1, 1))
	w := b.Parameter("w", tensor.Column(1, 2))
	target := b.Constant("target", tensor.Column(0, 0))
	y := b.UnaryFunction(b.Multiply(x, w), ops.NewUnary(ops.TANH))
	loss := b.Mean(b.BinaryFunction(y, target, ops.NewBinary(ops.MSE)), tensor.AxisAll)
	proc, err := b.Build(loss)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, proc.PrintExpressionChain(&out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		"Chain of expressions for procedure " + proc.ID().String() + ":",
		"Expression 0: MULTIPLY: n3 = x * w",
		"Expression 1: UNARY_FUNCTION: n4 = TANH(n3)",
		"Expression 2: BINARY_FUNCTION: n5 = MEAN_SQUARED_ERROR(n4, target)",
		"Expression 3: MEAN: n6 = MEAN(n5; all)",
	}, lines)

	out.Reset()
	require.NoError(t, proc.PrintGradientChain(&out))
	lines = strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		"Chain of gradients for procedure " + proc.ID().String() + ":",
		"Expression 3: MEAN: dn5 = MEAN_GRADIENT(dn6, n5)",
		"Expression 2: BINARY_FUNCTION: dn4 = dn5 * MEAN_SQUARED_ERROR'(n4, target)",
		"Expression 1: UNARY_FUNCTION: dn3 = dn4 * TANH'(n3)",
		"Expression 0: MULTIPLY: dx = dn3 * w",
		"Expression 0: MULTIPLY: dw = sum(x * dn3)",
	}, lines)
}
