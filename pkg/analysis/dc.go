package analysis

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/edp1096/mna-spice/internal/logging"
	"github.com/edp1096/mna-spice/pkg/circuit"
	"github.com/edp1096/mna-spice/pkg/device"
	"github.com/edp1096/mna-spice/pkg/matrix"
	"github.com/edp1096/mna-spice/pkg/netlist"
)

// Analyzer runs the analysis drivers. It holds no per-run state, so one
// Analyzer may serve several circuits.
type Analyzer struct {
	opts   Options
	newton *Newton
	logger *slog.Logger
}

func New(opts Options) *Analyzer {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Analyzer{
		opts:   opts,
		newton: NewNewton(opts),
		logger: logger,
	}
}

func (a *Analyzer) status(mode device.AnalysisMode) *device.CircuitStatus {
	return &device.CircuitStatus{
		Mode:  mode,
		Temp:  a.opts.Temp,
		Gmin:  a.opts.Gmin,
		Order: a.opts.Order,
	}
}

func markPoint(err error, x float64) error {
	var ce *ConvergenceError
	if errors.As(err, &ce) {
		ce.X = x
	}
	return err
}

// operatingPoint solves one DC point, falling back to gmin stepping when the
// direct Newton run does not converge.
func (a *Analyzer) operatingPoint(ckt *circuit.Circuit, mat *matrix.CircuitMatrix, status *device.CircuitStatus) ([]float64, Stats, error) {
	seed := append([]float64(nil), status.Guess...)

	x, stats, err := a.newton.Solve(ckt, mat, status)
	if err == nil || !errors.Is(err, ErrNoConvergence) || a.opts.GminSteps <= 0 {
		return x, stats, err
	}
	a.logger.Info("direct newton failed, stepping gmin", slog.Int("steps", a.opts.GminSteps))
	a.opts.Metrics.RecordGminStepping()

	status.Guess = seed
	shunt := 1e-2
	for step := 0; step < a.opts.GminSteps && shunt > a.opts.Gmin; step++ {
		if _, _, stepErr := a.newton.solve(ckt, mat, status, shunt); stepErr != nil {
			return nil, stats, err
		}
		shunt /= 10
	}

	x, final, stepErr := a.newton.solve(ckt, mat, status, 0)
	final.Iterations += stats.Iterations
	if stepErr != nil {
		return nil, final, err
	}
	return x, final, nil
}

// OP solves the DC operating point as a single-point result at X = 0.
func (a *Analyzer) OP(ctx context.Context, ckt *circuit.Circuit) (*DcResult, error) {
	res := newResult[float64](netlist.KindDC, ckt.Index())

	mat, err := matrix.NewMatrix(ckt.Size(), false)
	if err != nil {
		return nil, err
	}
	defer mat.Destroy()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	x, stats, err := a.operatingPoint(ckt, mat, a.status(device.OperatingPointAnalysis))
	if err != nil {
		if !errors.Is(err, ErrNoConvergence) {
			return nil, errors.Wrap(err, "operating point")
		}
		a.logger.Warn("operating point did not converge", slog.Any("err", err))
		a.opts.Metrics.RecordPoint("op", false, stats.Iterations)
		res.fail(0, err)
		return res, nil
	}

	a.logger.Debug("operating point solved", slog.Int("iterations", stats.Iterations))
	a.opts.Metrics.RecordPoint("op", true, stats.Iterations)
	res.add(0, x[1:])
	return res, nil
}

// DCSweep steps one voltage source's DC level. Each point starts from the
// previous converged solution; a failed point is recorded and skipped.
func (a *Analyzer) DCSweep(ctx context.Context, ckt *circuit.Circuit, sweep netlist.DCSweep) (*DcResult, error) {
	res := newResult[float64](netlist.KindDC, ckt.Index())

	mat, err := matrix.NewMatrix(ckt.Size(), false)
	if err != nil {
		return nil, err
	}
	defer mat.Destroy()

	var guess []float64
	for _, value := range sweep.Values() {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		status := a.status(device.DCSweep)
		status.Sweep = &device.SweepOverride{Source: sweep.Source, Value: value}
		status.Guess = append([]float64(nil), guess...)

		x, stats, err := a.operatingPoint(ckt, mat, status)
		a.opts.Metrics.RecordPoint("dc", err == nil, stats.Iterations)
		if err != nil {
			if !errors.Is(err, ErrNoConvergence) {
				return res, errors.Wrapf(err, "dc sweep at %s = %g", sweep.Source, value)
			}
			a.logger.Warn("dc point did not converge", slog.Float64("value", value))
			res.fail(value, markPoint(err, value))
			continue
		}

		guess = x
		res.add(value, x[1:])
	}

	return res, nil
}
