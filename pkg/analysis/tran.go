package analysis

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/edp1096/mna-spice/pkg/circuit"
	"github.com/edp1096/mna-spice/pkg/device"
	"github.com/edp1096/mna-spice/pkg/matrix"
	"github.com/edp1096/mna-spice/pkg/netlist"
	"github.com/edp1096/mna-spice/pkg/util"
)

// Transient steps from ts.Start to ts.Stop on a fixed grid. A step that
// does not converge ends the run; the points solved so far are returned.
func (a *Analyzer) Transient(ctx context.Context, ckt *circuit.Circuit, ts netlist.TranSpec) (*TranResult, error) {
	res := newResult[float64](netlist.KindTran, ckt.Index())
	times := ts.Times()

	mat, err := matrix.NewMatrix(ckt.Size(), false)
	if err != nil {
		return nil, err
	}
	defer mat.Destroy()

	var x0 []float64
	if ts.UIC {
		x0, _, err = a.initialConditions(ckt, mat, ts)
	} else {
		status := a.status(device.TransientInit)
		status.Time = ts.Start
		x0, _, err = a.operatingPoint(ckt, mat, status)
	}
	if err != nil {
		if !errors.Is(err, ErrNoConvergence) {
			return res, errors.Wrap(err, "transient initial point")
		}
		res.fail(ts.Start, markPoint(err, ts.Start))
		return res, nil
	}
	res.add(times[0], x0[1:])

	// Most recent first; only as deep as the highest order needs.
	history := [][]float64{x0}

	for k := 1; k < len(times); k++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		status := a.status(device.TransientAnalysis)
		status.Time = times[k]
		status.TimeStep = times[k] - times[k-1]
		status.History = history
		status.Guess = append([]float64(nil), history[0]...)

		x, stats, err := a.newton.Solve(ckt, mat, status)
		a.opts.Metrics.RecordPoint("tran", err == nil, stats.Iterations)
		if err != nil {
			if !errors.Is(err, ErrNoConvergence) {
				return res, errors.Wrapf(err, "transient at t = %g", times[k])
			}
			a.logger.Warn("transient step did not converge, stopping",
				slog.Float64("time", times[k]))
			res.fail(times[k], markPoint(err, times[k]))
			break
		}

		res.add(times[k], x[1:])

		history = append([][]float64{x}, history...)
		if len(history) > util.MaxOrder {
			history = history[:util.MaxOrder]
		}
	}

	return res, nil
}

// uicStepFraction sizes the backward Euler step that fixes the initial
// conditions. Capacitors then act as 0 V sources and inductors as open
// branches, while sources take their value at t = Start.
const uicStepFraction = 1e-6

// initialConditions solves the t = Start point with every capacitor voltage
// and inductor current at zero.
func (a *Analyzer) initialConditions(ckt *circuit.Circuit, mat *matrix.CircuitMatrix, ts netlist.TranSpec) ([]float64, Stats, error) {
	status := a.status(device.TransientAnalysis)
	status.Order = 1
	status.Time = ts.Start
	status.TimeStep = ts.Step * uicStepFraction
	status.History = [][]float64{make([]float64, ckt.Size()+1)}

	return a.newton.Solve(ckt, mat, status)
}
