package autodiff

import (
	"fmt"
	"io"

	"github.com/born-ml/chain/internal/autodiff/ops"
)

// PrintExpressionChain writes one line per expression in forward order:
//
//	Expression 0: DOT: n2 = w · x
//	Expression 1: UNARY_FUNCTION: n3 = TANH(n2)
func (p *Procedure) PrintExpressionChain(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Chain of expressions for procedure %s:\n", p.id); err != nil {
		return err
	}
	for id := p.first; id != noExpression; id = p.expressions[id].next {
		e := p.expressions[id]
		if _, err := fmt.Fprintf(w, "Expression %d: %s: %s = %s\n", e.id, e.kind, e.result.name, e.formula()); err != nil {
			return err
		}
	}
	return nil
}

// PrintGradientChain writes the gradient formulas in backward order, one line
// per argument that receives a gradient. Gradients a single node cumulates
// across sample indices are wrapped in sum().
func (p *Procedure) PrintGradientChain(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Chain of gradients for procedure %s:\n", p.id); err != nil {
		return err
	}
	for id := p.last; id != noExpression; id = p.expressions[id].previous {
		e := p.expressions[id]
		for _, line := range e.gradientFormulas() {
			if _, err := fmt.Fprintf(w, "Expression %d: %s: %s\n", e.id, e.kind, line); err != nil {
				return err
			}
		}
	}
	return nil
}

// formula renders the forward computation.
func (e *Expression) formula() string {
	a := e.arg1.name
	var c string
	if e.arg2 != nil {
		c = e.arg2.name
	}
	switch e.kind {
	case ops.KindAdd:
		return a + " + " + c
	case ops.KindSubtract:
		return a + " - " + c
	case ops.KindMultiply:
		return a + " * " + c
	case ops.KindDivide:
		return a + " / " + c
	case ops.KindDot:
		return a + " · " + c
	case ops.KindUnaryFunction:
		return fmt.Sprintf("%s(%s)", e.params.Unary.Type, a)
	case ops.KindBinaryFunction:
		return fmt.Sprintf("%s(%s, %s)", e.params.Binary.Type, a, c)
	}
	args := a
	if e.arg2 != nil {
		args += ", " + c
	}
	if d := e.params.Describe(e.kind); d != "" {
		return fmt.Sprintf("%s(%s; %s)", e.kind, args, d)
	}
	return fmt.Sprintf("%s(%s)", e.kind, args)
}

// gradientFormulas renders the gradient of every argument not stopped.
func (e *Expression) gradientFormulas() []string {
	dr := "d" + e.result.name
	a := e.arg1.name
	var c string
	if e.arg2 != nil {
		c = e.arg2.name
	}
	var g1, g2 string
	switch e.kind {
	case ops.KindAdd:
		g1, g2 = dr, dr
	case ops.KindSubtract:
		g1, g2 = dr, "-"+dr
	case ops.KindMultiply:
		g1, g2 = dr+" * "+c, a+" * "+dr
	case ops.KindDivide:
		g1, g2 = dr+" / "+c, fmt.Sprintf("-%s * %s / %s^2", dr, a, c)
	case ops.KindDot:
		g1, g2 = dr+" · "+c+"ᵀ", a+"ᵀ · "+dr
	case ops.KindUnaryFunction:
		g1 = fmt.Sprintf("%s * %s'(%s)", dr, e.params.Unary.Type, a)
	case ops.KindBinaryFunction:
		g1 = fmt.Sprintf("%s * %s'(%s, %s)", dr, e.params.Binary.Type, a, c)
	case ops.KindGradientClipping:
		g1 = fmt.Sprintf("CLIP(%s; %s)", dr, e.params.Describe(e.kind))
	case ops.KindDropout:
		g1 = dr
	default:
		g1 = fmt.Sprintf("%s_GRADIENT(%s, %s)", e.kind, dr, a)
		if e.arg2 != nil {
			g1 = fmt.Sprintf("%s_GRADIENT(%s, %s, %s)", e.kind, dr, a, c)
			g2 = g1
		}
	}

	var lines []string
	add := func(n *Node, g string) {
		if n == nil || n.stopGradient || g == "" || e.result.stopGradient {
			return
		}
		if !n.multiIndex && !e.singleStep {
			g = "sum(" + g + ")"
		}
		lines = append(lines, fmt.Sprintf("d%s = %s", n.name, g))
	}
	add(e.arg1, g1)
	if e.kind != ops.KindBinaryFunction {
		add(e.arg2, g2)
	}
	return lines
}

// String returns the expression's forward line.
func (e *Expression) String() string {
	return fmt.Sprintf("Expression %d: %s: %s = %s", e.id, e.kind, e.result.name, e.formula())
}
