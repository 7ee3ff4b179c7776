package autodiff

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/chain/internal/parallel"
)

// distinct rejects a procedure listed twice: a procedure is never entered
// concurrently.
func distinct(procs []*Procedure) error {
	seen := make(map[*Procedure]bool, len(procs))
	for _, p := range procs {
		if p == nil {
			return errors.Wrap(ErrArgumentMissing, "nil procedure")
		}
		if seen[p] {
			return errors.Wrapf(ErrInvalidParameter, "procedure %s listed twice", p.id)
		}
		seen[p] = true
	}
	return nil
}

// ForwardAll runs Forward on every procedure, up to cfg.NumWorkers at a time,
// and returns the first error.
func ForwardAll(procs []*Procedure, indices []int, cfg parallel.Config) error {
	if err := distinct(procs); err != nil {
		return err
	}
	klog.V(1).Infof("forward %d procedures on %d workers", len(procs), cfg.NumWorkers)
	return parallel.For(len(procs), func(i int) error {
		return errors.WithMessagef(procs[i].Forward(indices), "procedure %s", procs[i].id)
	}, cfg)
}

// BackwardAll runs Backward on every procedure, up to cfg.NumWorkers at a
// time, and returns the first error.
func BackwardAll(procs []*Procedure, indices []int, steps int, cfg parallel.Config) error {
	if err := distinct(procs); err != nil {
		return err
	}
	klog.V(1).Infof("backward %d procedures on %d workers", len(procs), cfg.NumWorkers)
	return parallel.For(len(procs), func(i int) error {
		return errors.WithMessagef(procs[i].Backward(indices, steps), "procedure %s", procs[i].id)
	}, cfg)
}
