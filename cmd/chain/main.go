// Package main provides the chain CLI: it builds expression graphs, prints
// their diagnostics and trains a small model end to end.
package main

import (
	"flag"
	"fmt"
	"os"

	"k8s.io/klog/v2"
)

const version = "v0.1.0-dev"

var (
	flagSamples   = flag.Int("samples", 256, "Number of synthetic samples for fit.")
	flagEpochs    = flag.Int("epochs", 40, "Number of epochs for fit.")
	flagBatch     = flag.Int("batch", 32, "Sample indices per batch.")
	flagLR        = flag.Float64("lr", 0.05, "Learning rate.")
	flagOptimizer = flag.String("optimizer", "adam", "Optimizer for fit: sgd or adam.")
	flagMomentum  = flag.Float64("momentum", 0.9, "SGD momentum.")
	flagL2        = flag.Float64("l2", 0, "L2 penalty on the fitted weights; 0 disables it.")
	flagSeed      = flag.Int64("seed", 42, "Random seed; 0 draws one from the clock.")
	flagReplicas  = flag.Int("replicas", 4, "Independent procedures run concurrently by demo.")
	flagWorkers   = flag.Int("workers", 0, "Maximum concurrent procedures; 0 uses one per CPU.")
)

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [flags] <command>\n\n", os.Args[0])
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  version    Show version")
	fmt.Fprintln(out, "  demo       Build a convolutional chain, run one batch and print its diagnostics")
	fmt.Fprintln(out, "  fit        Train a linear model on synthetic data")
	fmt.Fprintln(out, "\nFlags:")
	flag.PrintDefaults()
}

func main() {
	klog.InitFlags(nil)
	flag.Usage = usage
	flag.Parse()

	switch cmd := flag.Arg(0); cmd {
	case "version":
		fmt.Printf("chain %s\n", version)
	case "demo":
		cfg := demoConfig{replicas: *flagReplicas, workers: *flagWorkers, seed: *flagSeed}
		if err := demo(os.Stdout, cfg); err != nil {
			klog.Exitf("demo: %+v", err)
		}
	case "fit":
		cfg := fitConfig{
			samples:   *flagSamples,
			epochs:    *flagEpochs,
			batch:     *flagBatch,
			lr:        *flagLR,
			optimizer: *flagOptimizer,
			momentum:  *flagMomentum,
			l2:        *flagL2,
			seed:      *flagSeed,
			progress:  os.Stderr,
		}
		res, err := fit(cfg)
		if err != nil {
			klog.Exitf("fit: %+v", err)
		}
		fmt.Println(res.render())
	case "":
		usage()
	default:
		klog.Exitf("unknown command %q, see -help", cmd)
	}
}
