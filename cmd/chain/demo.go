package main

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/must"

	"github.com/born-ml/chain/autodiff"
	"github.com/born-ml/chain/nn"
	"github.com/born-ml/chain/tensor"
)

type demoConfig struct {
	replicas int
	workers  int
	seed     int64
}

// replica is one convolutional chain:
//
//	loss = mean over batch of MSE(linear(flatten(maxpool(relu(conv(x))))), y)
type replica struct {
	proc      *autodiff.Procedure
	x, target *autodiff.Node
	conv      *nn.Conv2D
	out       *nn.Linear
	loss      *autodiff.Node
}

const demoBatch = 4

func newReplica(rng *rand.Rand) (*replica, error) {
	r := &replica{
		conv: nn.NewConv2D("conv", 3, rng),
		out:  nn.NewLinear("out", 4, 1, rng),
	}
	model := nn.NewSequential(r.conv, nn.NewReLU(), nn.NewMaxPool2D(2, 2), nn.NewFlatten(), r.out)

	b := autodiff.NewBuilder()
	r.x = b.Input("image", tensor.NewShape(6, 6, 1))
	r.target = b.Input("target", tensor.NewShape(1, 1, 1))
	errs := nn.MSELoss(b, model.Apply(b, r.x), r.target)
	r.loss = b.BatchMean(errs)
	proc, err := b.Build(r.loss)
	if err != nil {
		return nil, err
	}
	r.proc = proc
	return r, nil
}

func (r *replica) feed(rng *rand.Rand, indices []int) error {
	r.proc.Reset()
	for _, i := range indices {
		if err := r.proc.SetInput(r.x, i, tensor.Random(r.x.Shape(), rng)); err != nil {
			return err
		}
		if err := r.proc.SetInput(r.target, i, tensor.FromRows([][]float64{{rng.Float64()}})); err != nil {
			return err
		}
	}
	return nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	rightStyle  = lipgloss.NewStyle().Align(lipgloss.Right).Padding(0, 1)
)

// demo builds cfg.replicas independent chains, runs one batch through all of
// them concurrently and prints the first chain's diagnostics and a summary of
// every replica.
func demo(out io.Writer, cfg demoConfig) error {
	rng := newRand(cfg.seed)
	replicas := make([]*replica, max(cfg.replicas, 1))
	procs := make([]*autodiff.Procedure, len(replicas))
	indices := make([]int, demoBatch)
	for i := range indices {
		indices[i] = i
	}
	for n := range replicas {
		replicas[n] = must.M1(newReplica(rng))
		procs[n] = replicas[n].proc
		must.M(replicas[n].feed(rng, indices))
	}

	parallel := autodiff.DefaultParallelConfig()
	if cfg.workers > 0 {
		parallel.NumWorkers = cfg.workers
		parallel.Enabled = cfg.workers > 1
	}
	if err := autodiff.ForwardAll(procs, indices, parallel); err != nil {
		return err
	}
	for _, r := range replicas {
		if err := r.proc.SetOutputGradient(r.loss, 0, tensor.FromRows([][]float64{{1}})); err != nil {
			return err
		}
	}
	if err := autodiff.BackwardAll(procs, indices, 0, parallel); err != nil {
		return err
	}

	first := replicas[0]
	fmt.Fprintln(out, titleStyle.Render("Forward chain"))
	if err := first.proc.PrintExpressionChain(out); err != nil {
		return err
	}
	fmt.Fprintln(out, titleStyle.Render("Gradient chain"))
	if err := first.proc.PrintGradientChain(out); err != nil {
		return err
	}

	rows := make([][]string, len(replicas))
	for n, r := range replicas {
		loss, _ := r.loss.Value(0)
		gw, _ := r.out.Parameters()[0].GradientMean()
		gf, _ := r.conv.Parameters()[0].GradientMean()
		stats := r.proc.Stats()
		rows[n] = []string{
			r.proc.ID().String()[:8],
			fmt.Sprintf("%.5f", loss.Value()),
			fmt.Sprintf("%.5f", gw.Norm(2)),
			fmt.Sprintf("%.5f", gf.Norm(2)),
			humanize.Comma(int64(stats.CachedTensors)),
			humanize.Bytes(uint64(stats.CachedBytes)),
		}
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#705090"))).
		Headers("procedure", "loss", "|dw|", "|dfilter|", "tensors", "memory").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return cellStyle
			default:
				return rightStyle
			}
		})
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%d replicas, batch of %d", len(replicas), demoBatch)))
	fmt.Fprintln(out, t.Render())
	return nil
}
