package main

import (
	"fmt"
	"io"
	"math/rand"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"

	"github.com/born-ml/chain/autodiff"
	"github.com/born-ml/chain/nn"
	"github.com/born-ml/chain/optim"
	"github.com/born-ml/chain/tensor"
)

// True coefficients of the synthetic regression y = w·x + b.
var (
	trueWeights = []float64{2, -3}
	trueBias    = 0.5
)

type fitConfig struct {
	samples   int
	epochs    int
	batch     int
	lr        float64
	optimizer string
	momentum  float64
	l2        float64
	seed      int64
	progress  io.Writer
}

type fitResult struct {
	weights []float64
	bias    float64
	loss    float64
	steps   int
	stats   autodiff.Stats
}

type sample struct {
	x, y *tensor.Tensor
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed)) //nolint:gosec // G404: synthetic data.
}

func syntheticData(n int, rng *rand.Rand) []sample {
	data := make([]sample, n)
	for i := range data {
		x1, x2 := 2*rng.Float64()-1, 2*rng.Float64()-1
		y := trueWeights[0]*x1 + trueWeights[1]*x2 + trueBias + 0.01*rng.NormFloat64()
		data[i] = sample{x: tensor.Column(x1, x2), y: tensor.FromRows([][]float64{{y}})}
	}
	return data
}

// fit trains y = w·x + b with a mean squared error loss. Each batch is one
// forward and one backward pass over the batch's sample indices followed by an
// optimizer step.
func fit(cfg fitConfig) (fitResult, error) {
	if cfg.samples <= 0 || cfg.epochs <= 0 || cfg.batch <= 0 {
		return fitResult{}, errors.Errorf("samples, epochs and batch must be positive, got %d, %d and %d", cfg.samples, cfg.epochs, cfg.batch)
	}
	rng := newRand(cfg.seed)
	data := syntheticData(cfg.samples, rng)

	b := autodiff.NewBuilder()
	x := b.Input("x", tensor.NewShape(2, 1, 1))
	target := b.Input("y", tensor.NewShape(1, 1, 1))
	model := nn.NewLinear("model", 2, 1, rng)
	loss := nn.MSELoss(b, model.Apply(b, x), target)
	params := model.Parameters()
	if cfg.l2 > 0 {
		b.Regularize(params[0], autodiff.L2{Lambda: cfg.l2})
	}
	proc, err := b.Build(loss)
	if err != nil {
		return fitResult{}, err
	}
	var opt optim.Optimizer
	switch cfg.optimizer {
	case "sgd":
		opt = optim.NewSGD(params, optim.SGDConfig{LR: cfg.lr, Momentum: cfg.momentum})
	case "adam":
		opt = optim.NewAdam(params, optim.AdamConfig{LR: cfg.lr})
	default:
		return fitResult{}, errors.Errorf("unknown optimizer %q, want sgd or adam", cfg.optimizer)
	}

	progress := cfg.progress
	if progress == nil {
		progress = io.Discard
	}
	bar := progressbar.NewOptions(cfg.epochs,
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("fit"),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("epochs"),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
	)

	res := fitResult{}
	order := make([]int, len(data))
	for i := range order {
		order[i] = i
	}
	gradient := tensor.FromRows([][]float64{{1}})
	for epoch := range cfg.epochs {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		total := 0.0
		for start := 0; start < len(order); start += cfg.batch {
			indices := order[start:min(start+cfg.batch, len(order))]
			proc.Reset()
			for _, i := range indices {
				if err := proc.SetInput(x, i, data[i].x); err != nil {
					return res, err
				}
				if err := proc.SetInput(target, i, data[i].y); err != nil {
					return res, err
				}
			}
			if err := proc.Forward(indices); err != nil {
				return res, errors.WithMessagef(err, "epoch %d", epoch)
			}
			for _, i := range indices {
				v, _ := loss.Value(i)
				total += v.Value()
				if err := proc.SetOutputGradient(loss, i, gradient); err != nil {
					return res, err
				}
			}
			if err := proc.Backward(indices, 0); err != nil {
				return res, errors.WithMessagef(err, "epoch %d", epoch)
			}
			if err := opt.Step(); err != nil {
				return res, err
			}
			res.steps++
		}
		res.loss = total / float64(len(data))
		bar.Describe(fmt.Sprintf("fit loss=%.5f", res.loss))
		_ = bar.Add(1)
		klog.V(1).Infof("epoch %d: loss %g", epoch, res.loss)
	}
	_ = bar.Finish()

	res.weights = slices.Clone(model.Weight().Data())
	res.bias = model.Bias().Value()
	res.stats = proc.Stats()
	return res, nil
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#705090")).Padding(0, 1)
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

func (r fitResult) render() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Fitted y = w·x + b") + "\n")
	fmt.Fprintf(&sb, "w = [%.4f %.4f]  (true [%g %g])\n", r.weights[0], r.weights[1], trueWeights[0], trueWeights[1])
	fmt.Fprintf(&sb, "b = %.4f  (true %g)\n", r.bias, trueBias)
	fmt.Fprintf(&sb, "final loss %.6f after %s optimizer steps\n", r.loss, humanize.Comma(int64(r.steps)))
	sb.WriteString(dimStyle.Render(fmt.Sprintf("procedure: %d nodes, %d expressions, %s cached in %d tensors",
		r.stats.Nodes, r.stats.Expressions, humanize.Bytes(uint64(r.stats.CachedBytes)), r.stats.CachedTensors)))
	return boxStyle.Render(sb.String())
}
