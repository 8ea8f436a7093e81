package analysis

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/edp1096/mna-spice/internal/consts"
	"github.com/edp1096/mna-spice/pkg/circuit"
	"github.com/edp1096/mna-spice/pkg/device"
	"github.com/edp1096/mna-spice/pkg/matrix"
	"github.com/edp1096/mna-spice/pkg/metrics"
)

var ErrNoConvergence = errors.New("newton iteration did not converge")

// ConvergenceError reports one analysis point that hit the iteration bound.
type ConvergenceError struct {
	Mode       device.AnalysisMode
	X          float64 // sweep value, frequency or time of the point
	Iterations int
	Delta      float64 // last update norm
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s point %g: no convergence after %d iterations (|dx| = %g)",
		e.Mode, e.X, e.Iterations, e.Delta)
}

func (e *ConvergenceError) Unwrap() error {
	return ErrNoConvergence
}

type Options struct {
	MaxIter   int
	AbsTol    float64
	RelTol    float64
	Gmin      float64
	Temp      float64
	Order     int // transient integration order
	GminSteps int // decades of gmin stepping tried when the direct solve fails, 0 disables
	Logger    *slog.Logger
	Metrics   *metrics.Registry // optional
}

func DefaultOptions() Options {
	return Options{
		MaxIter:   100,
		AbsTol:    1e-12,
		RelTol:    1e-6,
		Gmin:      consts.GMIN,
		Temp:      consts.REFTEMP,
		Order:     2,
		GminSteps: 10,
	}
}

// Stats describe one Newton run. Deltas holds |x(k) - x(k-1)| per iteration.
type Stats struct {
	Iterations int
	Deltas     []float64
}

type Newton struct {
	opts Options
}

func NewNewton(opts Options) *Newton {
	return &Newton{opts: opts}
}

// Solve iterates assemble and solve until the update norm falls under
// AbsTol + RelTol*|x|. status.Guess seeds the first pass and is replaced by
// each new iterate. The returned solution is 1-based.
func (n *Newton) Solve(ckt *circuit.Circuit, mat *matrix.CircuitMatrix, status *device.CircuitStatus) ([]float64, Stats, error) {
	return n.solve(ckt, mat, status, 0)
}

func (n *Newton) solve(ckt *circuit.Circuit, mat *matrix.CircuitMatrix, status *device.CircuitStatus, shunt float64) ([]float64, Stats, error) {
	var stats Stats
	size := ckt.Size()

	if len(status.Guess) != size+1 {
		guess := make([]float64, size+1)
		copy(guess, status.Guess)
		status.Guess = guess
	}

	for iter := 0; iter < n.opts.MaxIter; iter++ {
		stats.Iterations = iter + 1

		mat.Clear()
		if err := ckt.Stamp(mat, status); err != nil {
			return nil, stats, err
		}
		mat.LoadGmin(shunt, ckt.Index().NumNodes())

		if err := mat.Solve(); err != nil {
			return nil, stats, err
		}

		x := make([]float64, size+1)
		copy(x, mat.Solution())

		if !ckt.IsNonLinear() {
			return x, stats, nil
		}

		delta := floats.Distance(x[1:], status.Guess[1:], 2)
		stats.Deltas = append(stats.Deltas, delta)
		status.Guess = x

		if delta <= n.opts.AbsTol+n.opts.RelTol*floats.Norm(x[1:], 2) {
			return x, stats, nil
		}
	}

	last := 0.0
	if len(stats.Deltas) > 0 {
		last = stats.Deltas[len(stats.Deltas)-1]
	}
	return nil, stats, &ConvergenceError{
		Mode:       status.Mode,
		Iterations: stats.Iterations,
		Delta:      last,
	}
}
